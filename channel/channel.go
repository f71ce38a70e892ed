// Package channel defines the external-collaborator boundary between the
// peer state machine and the physical optical link: a capture source that
// decodes QR codes from camera frames, and a render sink that displays
// one. Both are best-effort; the core packages (frame, chunk,
// peer, driver) depend only on these interfaces, never on a concrete
// camera or QR library.
package channel

// Capturer yields the payload of a decoded QR code, or nil if this tick
// produced no usable frame (no QR visible, more than one, or a decode
// failure). IsCapturing reports whether the underlying camera is still
// live; the driver loop exits once it returns false.
type Capturer interface {
	Capture() ([]byte, error)
	IsCapturing() bool
}

// Renderer displays a QR encoding of data, or clears the display surface.
// Implementations must reject data longer than MaxRenderBytes before
// attempting to render it.
type Renderer interface {
	Render(data []byte) error
	Clear()
}

// MaxRenderBytes is the QR code's payload capacity (2.5 KiB),
// matching frame.MaxPayload + frame.HeaderLength.
const MaxRenderBytes = 2560
