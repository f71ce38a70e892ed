// Package script provides a scripted Capturer/Renderer pair for tests: a
// source that yields a predetermined sequence of decode results and
// records everything rendered.
package script

// Source replays a fixed sequence of capture results. A nil entry means
// "no frame this tick"; a non-nil entry is returned once and then
// consumed. Once the script is exhausted, Capture keeps returning nil
// until Capturing is set to false — or flips it itself when
// StopWhenExhausted is set.
type Source struct {
	Frames    [][]byte
	pos       int
	Capturing bool

	// StopWhenExhausted makes the source report it is no longer capturing
	// once the last scripted frame has been consumed, so a driver loop
	// running against it terminates on its own.
	StopWhenExhausted bool

	// Rendered records every call to Render, in order, for assertions.
	Rendered [][]byte
	// Cleared counts calls to Clear.
	Cleared int
}

// NewSource returns a Source that replays frames in order, then reports no
// frame forever, with IsCapturing true until the caller flips Capturing.
func NewSource(frames ...[]byte) *Source {
	return &Source{Frames: frames, Capturing: true}
}

// Capture returns the next scripted frame, or nil once the script is
// exhausted.
func (s *Source) Capture() ([]byte, error) {
	if s.pos >= len(s.Frames) {
		if s.StopWhenExhausted {
			s.Capturing = false
		}
		return nil, nil
	}
	f := s.Frames[s.pos]
	s.pos++
	return f, nil
}

// IsCapturing reports s.Capturing. NewSource sets it true; it stays true
// until a test sets it false or StopWhenExhausted flips it.
func (s *Source) IsCapturing() bool { return s.Capturing }

// Render records data as rendered.
func (s *Source) Render(data []byte) error {
	s.Rendered = append(s.Rendered, append([]byte(nil), data...))
	return nil
}

// Clear records that the display was cleared.
func (s *Source) Clear() {
	s.Cleared++
}
