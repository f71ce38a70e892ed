// Package frame implements the wire codec for the 18-byte frame header
// exchanged between peers: fixed-offset little-endian fields, a bound on
// payload size, and the checksum discipline that lets either side detect a
// dropped or garbled QR code.
package frame

import "fmt"

// Version is the only header version this codec understands.
const Version uint8 = 1

// HeaderLength is the fixed size, in bytes, of a frame header.
const HeaderLength = 18

// MaxPayload is the largest payload a frame can carry and still fit inside
// the QR code's rendering capacity (2.5 KiB total, header included).
const MaxPayload = 2560 - HeaderLength

// RequestType identifies the purpose of a frame.
type RequestType uint8

// Recognized request types, in wire order.
const (
	StartConnection RequestType = iota + 1
	ConfirmConnection
	SendData
	ConfirmData
	RepeatData
	Finish
	ConfirmFinish
)

func (t RequestType) String() string {
	switch t {
	case StartConnection:
		return "start_connection"
	case ConfirmConnection:
		return "confirm_connection"
	case SendData:
		return "send_data"
	case ConfirmData:
		return "confirm_data"
	case RepeatData:
		return "repeat_data"
	case Finish:
		return "finish"
	case ConfirmFinish:
		return "confirm_finish"
	default:
		return fmt.Sprintf("request_type(%d)", uint8(t))
	}
}

// valid reports whether t is one of the recognized enum values.
func (t RequestType) valid() bool {
	return t >= StartConnection && t <= ConfirmFinish
}

// Header is the fixed-length preamble of a frame.
type Header struct {
	Version        uint8
	RequestType    RequestType
	SequenceNumber int32
	PayloadLength  int32
	Checksum       [8]byte
}

// Frame is a fully decoded header plus its payload. ChecksumValid is false
// only when the header and payload were structurally sound but the
// checksum didn't match; a receiver that wants to answer a corrupt
// send_data with a repeat_data (rather than discarding it outright)
// inspects this field instead of treating the frame as absent.
type Frame struct {
	Header        Header
	Payload       []byte
	ChecksumValid bool
}

// NewHeader builds a header for requestType/sequence; the payload length and
// checksum are filled in by Encode.
func NewHeader(requestType RequestType, sequence int32) Header {
	return Header{Version: Version, RequestType: requestType, SequenceNumber: sequence}
}
