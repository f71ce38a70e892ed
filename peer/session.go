// Package peer implements the core Mealy state machine: role detection,
// chunked stop-and-wait transfer, retransmission, and timeout-driven
// reset. Of this module it imports only the frame, chunk and ratelimit
// packages, and reaches the filesystem through its own Outbox and Inbox
// interfaces — never through a concrete camera or QR library.
package peer

import (
	"time"

	"github.com/google/uuid"
	"github.com/imdario/mergo"

	"github.com/omeroliel/QRCodeCommunication/chunk"
	"github.com/omeroliel/QRCodeCommunication/frame"
	"github.com/omeroliel/QRCodeCommunication/ratelimit"
)

// WaitingTimeout bounds a stalled session: no progress for this long,
// measured from the last built frame, resets the peer to Waiting.
const WaitingTimeout = 10 * time.Second

// ResetSleep is the wall-clock pause after a timeout-triggered reset, so
// a fast driver loop doesn't immediately re-issue the same aborted
// start_connection. The driver, not the peer, performs the sleep; Handle
// only reports that one is due.
const ResetSleep = 5 * time.Second

// Outbox is the subset of outbox.Scanner the peer needs.
type Outbox interface {
	Next() ([]byte, string, error)
	Remove(path string) error
}

// Inbox is the subset of inbox.Writer the peer needs.
type Inbox interface {
	Write(data []byte, suffix string) (string, error)
}

type config struct {
	now     func() time.Time
	timeout time.Duration
	trace   *Trace
	outbox  Outbox
	inbox   Inbox
}

// Option configures a Peer.
type Option func(*config)

// WithClock overrides the peer's notion of "now"; tests use this to
// advance virtual time without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithTimeout overrides WaitingTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithTrace installs hooks for observing peer behaviour. Unset fields fall
// back to NoOpLoggingHooks.
func WithTrace(t *Trace) Option {
	return func(c *config) { c.trace = t }
}

// WithOutbox overrides the default outbox scanner.
func WithOutbox(o Outbox) Option {
	return func(c *config) { c.outbox = o }
}

// WithInbox overrides the default inbox writer.
func WithInbox(i Inbox) Option {
	return func(c *config) { c.inbox = i }
}

// Peer is one endpoint of a session: the sender or the receiver, decided
// at runtime in Waiting.
type Peer struct {
	id uuid.UUID
	config

	limiter *ratelimit.Limiter

	status      Status
	sequence    int32
	chunks      chunk.Map
	filePath    string
	fileSuffix  *string
	currentImg  []byte
	lastBuildAt time.Time
}

// New builds a Peer starting in Waiting. outbox and inbox are required;
// everything else has a working default.
func New(outbox Outbox, inbox Inbox, opts ...Option) *Peer {
	c := config{
		now:     time.Now,
		timeout: WaitingTimeout,
		trace:   &Trace{},
		outbox:  outbox,
		inbox:   inbox,
	}
	for _, opt := range opts {
		opt(&c)
	}
	_ = mergo.Merge(c.trace, NoOpLoggingHooks)

	return &Peer{
		id:      uuid.New(),
		config:  c,
		limiter: ratelimit.New(c.now),
		status:  Waiting,
	}
}

// ID is the session-independent identity of this peer, attached to every
// trace call so logs from concurrent processes can be told apart.
func (p *Peer) ID() uuid.UUID { return p.id }

// Status reports the peer's current state.
func (p *Peer) Status() Status { return p.status }

// CurrentImage returns the most recently built outgoing frame, or nil if
// nothing should be displayed.
func (p *Peer) CurrentImage() []byte { return p.currentImg }

func (p *Peer) setStatus(to Status) {
	if to != p.status {
		p.trace.StatusChange(p.id, p.status, to)
	}
	p.status = to
}

func (p *Peer) logInvalid(err error) {
	if p.limiter.Allow(err.Error()) {
		p.trace.InvalidFrame(p.id, p.status, err)
	}
}

func (p *Peer) logError(location string, err error) {
	if p.limiter.Allow(location + ": " + err.Error()) {
		p.trace.Error(location, p.id, err)
	}
}

// send builds and encodes an outgoing frame, records it as the current
// image, and restarts the timeout clock. An encode failure is fatal:
// chunks sit far below the render capacity, so an oversized frame means
// the chunk size was misconfigured.
func (p *Peer) send(requestType frame.RequestType, seq int32, payload []byte) error {
	h := frame.NewHeader(requestType, seq)
	encoded, err := frame.Encode(h, payload)
	if err != nil {
		p.trace.Error("encode", p.id, err)
		return err
	}
	p.trace.Send(p.id, p.status, h, len(payload))
	p.currentImg = encoded
	p.lastBuildAt = p.now()
	return nil
}

// reset clears all session state, including the displayed image, and
// returns to Waiting — used on timeout and on the sender's confirm_finish.
// The receiver's own end-of-session path is ackFinish, which keeps its
// final ack on screen.
func (p *Peer) reset() {
	p.setStatus(Waiting)
	p.sequence = 0
	p.chunks = nil
	p.filePath = ""
	p.fileSuffix = nil
	p.currentImg = nil
	p.lastBuildAt = time.Time{}
}
