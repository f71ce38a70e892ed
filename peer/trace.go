package peer

import (
	"log"

	"github.com/google/uuid"

	"github.com/omeroliel/QRCodeCommunication/frame"
)

// Trace defines hooks for observing a peer's behaviour. Any field left
// nil is backfilled from NoOpLoggingHooks at construction time, so callers
// only need to set the hooks they care about.
type Trace struct {
	// StatusChange is called whenever the peer moves to a different
	// status; self-transitions that stay in the same status don't fire it.
	StatusChange func(id uuid.UUID, from, to Status)

	// Send is called each time a frame is built and becomes the current
	// image; the driver renders it on the following ticks.
	Send func(id uuid.UUID, status Status, h frame.Header, payloadLen int)

	// InvalidFrame is called when a captured frame decoded with a bad
	// checksum and is being ignored. Captures that fail to decode at all
	// never reach the peer; the driver reports those.
	InvalidFrame func(id uuid.UUID, status Status, err error)

	// Timeout is called when the peer's timeout (WaitingTimeout unless set
	// by WithTimeout) elapses with no progress and the session is about to
	// be reset.
	Timeout func(id uuid.UUID, status Status)

	// Error is called on an error outside the state machine proper. The
	// recoverable ones are a failed outbox scan, a failed outbox delete and
	// a failed reassembly; a failed inbox write and a failed frame encode
	// are also reported here and are fatal, returned from Handle.
	Error func(location string, id uuid.UUID, err error)
}

// DefaultLoggingHooks logs errors and timeouts only.
var DefaultLoggingHooks = &Trace{
	Error: func(location string, id uuid.UUID, err error) {
		log.Printf("peer-error session:%s context:%s err:%v\n", id, location, err)
	},
	Timeout: func(id uuid.UUID, status Status) {
		log.Printf("peer-timeout session:%s status:%s\n", id, status)
	},
}

// DiagnosticLoggingHooks logs every hook with full detail, for debugging a
// misbehaving transfer.
var DiagnosticLoggingHooks = &Trace{
	StatusChange: func(id uuid.UUID, from, to Status) {
		log.Printf("peer-status session:%s %s -> %s\n", id, from, to)
	},
	Send: func(id uuid.UUID, status Status, h frame.Header, payloadLen int) {
		log.Printf("peer-send session:%s status:%s type:%s seq:%d payload_len:%d\n", id, status, h.RequestType, h.SequenceNumber, payloadLen)
	},
	InvalidFrame: func(id uuid.UUID, status Status, err error) {
		log.Printf("peer-invalid-frame session:%s status:%s err:%v\n", id, status, err)
	},
	Timeout: DefaultLoggingHooks.Timeout,
	Error:   DefaultLoggingHooks.Error,
}

// NoOpLoggingHooks does nothing; it exists so mergo.Merge always has a
// complete set of hooks to backfill from.
var NoOpLoggingHooks = &Trace{
	StatusChange: func(id uuid.UUID, from, to Status) {},
	Send:         func(id uuid.UUID, status Status, h frame.Header, payloadLen int) {},
	InvalidFrame: func(id uuid.UUID, status Status, err error) {},
	Timeout:      func(id uuid.UUID, status Status) {},
	Error:        func(location string, id uuid.UUID, err error) {},
}
