// Command qrxfer starts the driver loop against the default webcam and
// display window: no flags. It exits 0 on a clean camera shutdown,
// non-zero on an unrecoverable failure.
package main

import (
	"log"
	"os"

	"github.com/omeroliel/QRCodeCommunication/channel/visual"
	"github.com/omeroliel/QRCodeCommunication/driver"
	"github.com/omeroliel/QRCodeCommunication/inbox"
	"github.com/omeroliel/QRCodeCommunication/outbox"
	"github.com/omeroliel/QRCodeCommunication/peer"
)

// defaultCameraDevice is the first attached webcam, matching the source
// implementation's unconfigured cv.VideoCapture(0).
const defaultCameraDevice = 0

func main() {
	if err := run(); err != nil {
		log.Printf("qrxfer: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cam, err := visual.OpenCamera(defaultCameraDevice)
	if err != nil {
		return err
	}

	display := visual.OpenDisplay("QR Code")

	p := peer.New(
		outbox.New(outbox.DefaultDir),
		inbox.New(inbox.DefaultDir),
		peer.WithTrace(peer.DefaultLoggingHooks),
	)

	d := driver.New(cam, display, p, driver.WithTrace(&driver.Trace{
		DecodeError: func(err error) { log.Printf("qrxfer: decode error: %v", err) },
	}))

	return d.Run()
}
