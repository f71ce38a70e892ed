// Package driver implements the single-threaded, cooperative event loop
// that ties a channel.Capturer/channel.Renderer pair to a peer.Peer:
// render the current frame, capture and decode the next inbound one,
// dispatch it, repeat.
package driver

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/omeroliel/QRCodeCommunication/channel"
	"github.com/omeroliel/QRCodeCommunication/frame"
	"github.com/omeroliel/QRCodeCommunication/peer"
	"github.com/omeroliel/QRCodeCommunication/ratelimit"
)

// Trace defines hooks for observing the driver loop, independent of the
// peer-level Trace: these fire at the capture/decode/render boundary
// rather than inside the state machine.
type Trace struct {
	// DecodeError is called when capture() produced bytes that failed to
	// parse as a frame at all (as opposed to a checksum failure, which the
	// peer itself observes and reports).
	DecodeError func(err error)

	// ResetSleep is called immediately before the post-timeout pause.
	ResetSleep func(d time.Duration)

	// RenderError is called when the render sink rejects a frame.
	RenderError func(err error)
}

func (t *Trace) backfill() {
	if t.DecodeError == nil {
		t.DecodeError = func(error) {}
	}
	if t.ResetSleep == nil {
		t.ResetSleep = func(time.Duration) {}
	}
	if t.RenderError == nil {
		t.RenderError = func(error) {}
	}
}

// Option configures a Driver.
type Option func(*Driver)

// WithTrace installs hooks for observing the loop. Unset fields are
// no-ops.
func WithTrace(t *Trace) Option {
	return func(d *Driver) { d.trace = t }
}

// WithSleep overrides the function used to pause after a timeout reset;
// tests substitute a no-op so they don't block for real seconds.
func WithSleep(sleep func(time.Duration)) Option {
	return func(d *Driver) { d.sleep = sleep }
}

// WithClock overrides the clock used to rate-limit decode-error logging.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// Driver runs the capture/decode/dispatch/render loop against one peer.
type Driver struct {
	cap  channel.Capturer
	ren  channel.Renderer
	peer *peer.Peer

	trace   *Trace
	sleep   func(time.Duration)
	now     func() time.Time
	limiter *ratelimit.Limiter
}

// New builds a Driver. The capturer and renderer must already be open;
// Run closes whichever of them implement io.Closer when the loop exits,
// on every exit path.
func New(cap channel.Capturer, ren channel.Renderer, p *peer.Peer, opts ...Option) *Driver {
	d := &Driver{
		cap:   cap,
		ren:   ren,
		peer:  p,
		trace: &Trace{},
		sleep: time.Sleep,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.trace.backfill()
	d.limiter = ratelimit.New(d.now)
	return d
}

// Run executes the loop until the capture source reports it is no longer
// capturing, or a fatal error occurs: an unrecoverable camera failure, a
// render sink failure, or one of the peer's own fatal conditions (a failed
// inbox write, or an outgoing frame too large to render).
func (d *Driver) Run() error {
	defer d.closeIfCloser(d.cap)
	defer d.closeIfCloser(d.ren)

	for d.cap.IsCapturing() {
		if err := d.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) tick() error {
	if img := d.peer.CurrentImage(); img != nil {
		if err := d.ren.Render(img); err != nil {
			d.trace.RenderError(err)
			return errors.Wrap(err, "rendering current frame")
		}
	} else {
		d.ren.Clear()
	}

	raw, err := d.cap.Capture()
	if err != nil {
		return errors.Wrap(err, "capture failed")
	}

	var in *frame.Frame
	if len(raw) > 0 {
		f, err := frame.Decode(raw)
		switch {
		case err == nil:
			in = &f
		case errors.Is(err, frame.ErrChecksumMismatch):
			// Structurally sound but checksum-bad: the peer itself
			// decides whether this matters (ReceivingData's send_data
			// exception), so it still gets the frame.
			in = &f
		default:
			if d.limiter.Allow(err.Error()) {
				d.trace.DecodeError(err)
			}
		}
	}

	timedOut, err := d.peer.Handle(in)
	if err != nil {
		return errors.Wrap(err, "handling frame")
	}
	if timedOut {
		d.trace.ResetSleep(peer.ResetSleep)
		d.sleep(peer.ResetSleep)
	}
	return nil
}

func (d *Driver) closeIfCloser(v interface{}) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}
