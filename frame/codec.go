package frame

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrInvalidFrame is wrapped by every decode failure; callers that only
// care about "was this frame usable" can test with errors.Is.
var ErrInvalidFrame = errors.New("invalid frame")

// ErrChecksumMismatch is a structurally-sound frame whose checksum didn't
// match. It wraps ErrInvalidFrame, so errors.Is(err, ErrInvalidFrame) is
// still true for it, but callers that care specifically about the §7
// ReceivingData exception can test for it by name; Decode still returns the
// parsed Frame (with ChecksumValid false) alongside this error, unlike the
// other, purely structural failures below.
var ErrChecksumMismatch = errors.Wrap(ErrInvalidFrame, "checksum mismatch")

// ErrPayloadTooLarge is returned by Encode when payload would push the
// frame past the QR code's rendering capacity.
var ErrPayloadTooLarge = errors.New("payload exceeds frame capacity")

// Encode packs header and payload into the 18-byte-header wire format,
// computing and filling in the checksum as it goes. The caller-supplied
// header's PayloadLength and Checksum fields are ignored and recomputed.
func Encode(h Header, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "payload length %d exceeds %d", len(payload), MaxPayload)
	}

	sum := checksum(h.Version, h.RequestType, h.SequenceNumber, payload)

	buf := make([]byte, HeaderLength+len(payload))
	buf[0] = h.Version
	buf[1] = uint8(h.RequestType)
	binary.LittleEndian.PutUint32(buf[2:6], uint32(h.SequenceNumber))
	binary.LittleEndian.PutUint32(buf[6:10], uint32(len(payload)))
	copy(buf[10:18], sum[:])
	copy(buf[18:], payload)

	return buf, nil
}

// Decode parses raw into a Frame, validating length, request type, and
// payload length. A structural violation returns ErrInvalidFrame with a
// zero Frame; the driver loop treats that identically to "no frame this
// tick". A checksum mismatch is different: the header and payload are
// still returned (ChecksumValid false) alongside ErrChecksumMismatch, so a
// receiver can answer a corrupt send_data with a repeat_data rather than
// silently dropping it.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < HeaderLength {
		return Frame{}, errors.Wrapf(ErrInvalidFrame, "short header: %d bytes", len(raw))
	}

	h := Header{
		Version:        raw[0],
		RequestType:    RequestType(raw[1]),
		SequenceNumber: int32(binary.LittleEndian.Uint32(raw[2:6])),
		PayloadLength:  int32(binary.LittleEndian.Uint32(raw[6:10])),
	}
	copy(h.Checksum[:], raw[10:18])

	if !h.RequestType.valid() {
		return Frame{}, errors.Wrapf(ErrInvalidFrame, "unrecognized request type %d", raw[1])
	}

	payload := raw[HeaderLength:]
	if int(h.PayloadLength) != len(payload) {
		return Frame{}, errors.Wrapf(ErrInvalidFrame, "payload length mismatch: header says %d, got %d", h.PayloadLength, len(payload))
	}

	stored := append([]byte(nil), payload...)

	want := checksum(h.Version, h.RequestType, h.SequenceNumber, payload)
	if want != h.Checksum {
		return Frame{Header: h, Payload: stored, ChecksumValid: false}, ErrChecksumMismatch
	}

	return Frame{Header: h, Payload: stored, ChecksumValid: true}, nil
}
