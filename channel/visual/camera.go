// Package visual is the production channel.Capturer/channel.Renderer pair:
// a webcam read through gocv, decoded with gozxing, and a display window
// that shows codes encoded with go-qrcode. Everything else in this module
// depends only on the channel package's interfaces; this is the one place
// that touches a physical camera or display.
package visual

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Camera is a channel.Capturer backed by a local video device.
type Camera struct {
	cap       *gocv.VideoCapture
	reader    gozxing.Reader
	frame     gocv.Mat
	capturing bool
}

// OpenCamera opens video device deviceID (0 is typically the first
// attached webcam) and returns a ready-to-use Camera.
func OpenCamera(deviceID int) (*Camera, error) {
	cap, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, errors.Wrapf(err, "opening video device %d", deviceID)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, errors.Errorf("video device %d did not open", deviceID)
	}

	return &Camera{
		cap:       cap,
		reader:    qrcode.NewQRCodeReader(),
		frame:     gocv.NewMat(),
		capturing: true,
	}, nil
}

// Close releases the underlying camera handle and scratch buffer. Safe to
// call once the driver loop has exited; never leaves the device open on
// any exit path, so the device is never left held after the loop ends.
func (c *Camera) Close() error {
	c.capturing = false
	err := c.frame.Close()
	if cerr := c.cap.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// IsCapturing reports whether the device is still expected to deliver
// frames. It goes false once Close has been called or the device stops
// reporting frames (e.g. unplugged).
func (c *Camera) IsCapturing() bool {
	return c.capturing && c.cap.IsOpened()
}

// Capture reads one frame and attempts to decode one QR code from it. "No
// QR visible" and "decode failure" are reported as (nil, nil); only a hard
// device failure is an error. Several codes in one frame are not detected
// as a separate case: the result is whatever the single-result reader
// decodes, or (nil, nil) if it decodes nothing.
func (c *Camera) Capture() ([]byte, error) {
	if ok := c.cap.Read(&c.frame); !ok {
		c.capturing = false
		return nil, errors.New("camera stopped delivering frames")
	}
	if c.frame.Empty() {
		return nil, nil
	}

	img, err := c.frame.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "converting camera frame to image")
	}

	payload, ok := decodeOne(c.reader, img)
	if !ok {
		return nil, nil
	}
	return payload, nil
}

// decodeOne attempts to read a QR code out of img, reporting ok=false when
// the image cannot be binarized or the reader decodes nothing. gozxing's
// basic reader reports at most one result per call, so an image holding
// several codes is not recognized as such.
func decodeOne(reader gozxing.Reader, img image.Image) ([]byte, bool) {
	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, false
	}
	result, err := reader.Decode(bitmap, nil)
	if err != nil {
		return nil, false
	}

	// Byte-mode QR payloads round-trip through gozxing's text result as
	// Latin-1: one rune per original byte, since neither side sets a UTF-8
	// ECI designator. That keeps decodeOne free of knowledge about frame
	// encoding while still recovering the exact bytes go-qrcode encoded.
	text := result.GetText()
	raw := make([]byte, 0, len(text))
	for _, r := range text {
		raw = append(raw, byte(r))
	}
	return raw, true
}
