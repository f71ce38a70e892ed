package peer

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/omeroliel/QRCodeCommunication/chunk"
	"github.com/omeroliel/QRCodeCommunication/frame"
)

// maxSuffixLength is the longest start_connection payload that's recorded
// as a real suffix; longer payloads are stored as "no suffix".
const maxSuffixLength = 10

// Handle consumes one event — in is the frame decoded this tick, or nil if
// capture() yielded nothing usable — and advances the state machine by at
// most one transition. timedOut reports that the session stalled past its
// timeout and was reset; the driver is responsible for the post-reset
// pause. A non-nil error is fatal (a failed inbox write, or an outgoing
// frame too large to render, which only a misconfigured chunk size can
// produce) and the caller is expected to stop the loop.
func (p *Peer) Handle(in *frame.Frame) (timedOut bool, err error) {
	if p.checkTimeout() {
		return true, nil
	}

	switch p.status {
	case Waiting:
		return false, p.handleWaiting(in)
	case WaitingToSendFile:
		return false, p.handleWaitingToSendFile(in)
	case SentData:
		return false, p.handleSentData(in)
	case Finished:
		return false, p.handleFinished(in)
	case ReceivingData:
		return false, p.handleReceivingData(in)
	default:
		panic("peer: unhandled status in Handle")
	}
}

// checkTimeout resets the session if the timeout has elapsed since the
// last built frame with no progress. Waiting has no running clock: a peer
// idling with nothing to send never "times out".
func (p *Peer) checkTimeout() bool {
	if p.status == Waiting {
		return false
	}
	if p.lastBuildAt.IsZero() {
		return false
	}
	if p.now().Sub(p.lastBuildAt) < p.timeout {
		return false
	}
	p.trace.Timeout(p.id, p.status)
	p.reset()
	return true
}

// usable reports whether in should be treated as a live event for this
// status. A nil frame (nothing captured, or a capture the driver could not
// decode) is ignored; any checksum-invalid frame outside ReceivingData's
// send_data exception is logged and otherwise ignored.
func (p *Peer) usable(in *frame.Frame) bool {
	if in == nil {
		return false
	}
	if !in.ChecksumValid && !(p.status == ReceivingData && in.Header.RequestType == frame.SendData) {
		p.logInvalid(frame.ErrChecksumMismatch)
		return false
	}
	return true
}

func (p *Peer) handleWaiting(in *frame.Frame) error {
	if p.usable(in) && in.Header.RequestType == frame.StartConnection {
		return p.becomeReceiver(in.Payload)
	}

	data, path, err := p.outbox.Next()
	if err != nil {
		p.logError("outbox scan", err)
		p.currentImg = nil
		return nil
	}
	if data != nil {
		return p.becomeSender(data, path)
	}
	p.currentImg = nil
	return nil
}

func (p *Peer) becomeReceiver(payload []byte) error {
	suffix := string(payload)
	if len(payload) > maxSuffixLength {
		p.fileSuffix = nil
	} else {
		p.fileSuffix = &suffix
	}
	p.chunks = chunk.Map{}
	p.setStatus(ReceivingData)
	return p.send(frame.ConfirmConnection, 0, nil)
}

func (p *Peer) becomeSender(data []byte, path string) error {
	ext := filepath.Ext(path)
	p.filePath = path
	p.fileSuffix = &ext
	p.chunks = chunk.Split(data)
	p.sequence = 0
	p.setStatus(WaitingToSendFile)
	return p.send(frame.StartConnection, 0, []byte(ext))
}

func (p *Peer) handleWaitingToSendFile(in *frame.Frame) error {
	if !p.usable(in) || in.Header.RequestType != frame.ConfirmConnection {
		return nil
	}

	p.sequence = 0
	// An empty outbox file chunks to nothing; there is no chunk 0 to
	// send, so the transfer finishes immediately instead of following
	// the usual "send chunk 0" transition.
	if p.chunks.Len() == 0 {
		p.setStatus(Finished)
		return p.send(frame.Finish, 0, nil)
	}
	p.setStatus(SentData)
	return p.send(frame.SendData, p.sequence, p.chunks[p.sequence])
}

func (p *Peer) handleSentData(in *frame.Frame) error {
	if !p.usable(in) {
		return nil
	}

	switch in.Header.RequestType {
	case frame.ConfirmData:
		if in.Header.SequenceNumber != p.sequence {
			return nil
		}
		p.sequence++
		if int(p.sequence) >= p.chunks.Len() {
			p.setStatus(Finished)
			return p.send(frame.Finish, 0, nil)
		}
		return p.send(frame.SendData, p.sequence, p.chunks[p.sequence])

	case frame.RepeatData:
		seq := in.Header.SequenceNumber
		if seq < 0 || int(seq) >= p.chunks.Len() {
			return nil
		}
		p.sequence = seq
		return p.send(frame.SendData, seq, p.chunks[seq])
	}
	return nil
}

func (p *Peer) handleFinished(in *frame.Frame) error {
	if !p.usable(in) {
		return nil
	}

	switch in.Header.RequestType {
	case frame.RepeatData:
		seq := in.Header.SequenceNumber
		if seq < 0 || int(seq) >= p.chunks.Len() {
			return nil
		}
		return p.send(frame.SendData, seq, p.chunks[seq])

	case frame.ConfirmFinish:
		if err := p.outbox.Remove(p.filePath); err != nil {
			p.logError("outbox remove", err)
		}
		p.reset()

	case frame.ConfirmData:
		// The peer missed our finish; resend it.
		return p.send(frame.Finish, 0, nil)
	}
	return nil
}

func (p *Peer) handleReceivingData(in *frame.Frame) error {
	if in == nil {
		return nil
	}

	if in.Header.RequestType == frame.SendData {
		if !in.ChecksumValid {
			p.logInvalid(frame.ErrChecksumMismatch)
			return p.send(frame.RepeatData, in.Header.SequenceNumber, nil)
		}
		seq := int(in.Header.SequenceNumber)
		if p.chunks.Has(seq) {
			// Duplicate: the sender will time out and retransmit if it
			// never saw our earlier confirm_data.
			return nil
		}
		p.chunks.Set(seq, in.Payload)
		return p.send(frame.ConfirmData, in.Header.SequenceNumber, nil)
	}

	if !p.usable(in) {
		return nil
	}
	if in.Header.RequestType == frame.Finish {
		return p.finishReceiving()
	}
	return nil
}

func (p *Peer) finishReceiving() error {
	// An empty chunk map (no send_data ever arrived) writes nothing; only
	// the contiguous-and-nonempty case below produces a file.
	if p.chunks.Len() == 0 {
		return p.ackFinish()
	}

	if missing, ok := p.chunks.MinMissing(); ok {
		return p.send(frame.RepeatData, int32(missing), nil)
	}

	data, err := chunk.Reassemble(p.chunks)
	if err != nil {
		p.logError("reassemble", err)
		return nil
	}

	suffix := ""
	if p.fileSuffix != nil {
		suffix = *p.fileSuffix
	}
	if _, err := p.inbox.Write(data, suffix); err != nil {
		p.trace.Error("inbox write", p.id, err)
		return errors.Wrap(err, "writing received file")
	}

	return p.ackFinish()
}

// ackFinish acknowledges the sender's finish and returns to Waiting. Unlike
// the timeout reset, the ack stays on screen so the sender gets a chance to
// see it; the next idle Waiting tick clears the display.
func (p *Peer) ackFinish() error {
	err := p.send(frame.ConfirmData, 0, nil)
	p.chunks = nil
	p.fileSuffix = nil
	p.setStatus(Waiting)
	return err
}
