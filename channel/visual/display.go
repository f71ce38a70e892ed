package visual

import (
	"image"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
	"gocv.io/x/gocv"

	"github.com/omeroliel/QRCodeCommunication/channel"
)

// windowSize is the side length, in pixels, of the rendered QR window.
const windowSize = 512

// Display is a channel.Renderer backed by a gocv window.
type Display struct {
	window *gocv.Window
}

// OpenDisplay creates and shows a named window.
func OpenDisplay(title string) *Display {
	return &Display{window: gocv.NewWindow(title)}
}

// Close destroys the underlying window.
func (d *Display) Close() error {
	return d.window.Close()
}

// Render encodes data as a QR code and shows it. It rejects payloads
// larger than channel.MaxRenderBytes before ever touching the QR encoder,
// per the channel.Renderer contract's precondition.
func (d *Display) Render(data []byte) error {
	if len(data) > channel.MaxRenderBytes {
		return errors.Errorf("render: %d bytes exceeds %d byte capacity", len(data), channel.MaxRenderBytes)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, windowSize)
	if err != nil {
		return errors.Wrap(err, "encoding QR code")
	}

	img, err := gocv.IMDecode(png, gocv.IMReadColor)
	if err != nil {
		return errors.Wrap(err, "decoding rendered QR PNG")
	}
	defer img.Close()

	d.window.IMShow(img)
	d.window.WaitKey(1)
	return nil
}

// Clear blanks the display: the window goes blank once
// current_image becomes nil, rather than leaving the last frame on screen.
func (d *Display) Clear() {
	blank := image.NewGray(image.Rect(0, 0, windowSize, windowSize))
	mat, err := gocv.ImageGrayToMatGray(blank)
	if err != nil {
		return
	}
	defer mat.Close()
	d.window.IMShow(mat)
	d.window.WaitKey(1)
}
