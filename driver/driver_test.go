package driver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/omeroliel/QRCodeCommunication/channel/script"
	"github.com/omeroliel/QRCodeCommunication/frame"
	"github.com/omeroliel/QRCodeCommunication/inbox"
	"github.com/omeroliel/QRCodeCommunication/outbox"
	"github.com/omeroliel/QRCodeCommunication/peer"
)

func newTestDriver(t *testing.T, p *peer.Peer, now *time.Time) (*Driver, *MockCapturer, *MockRenderer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	cap := NewMockCapturer(ctrl)
	ren := NewMockRenderer(ctrl)

	var sleeps []time.Duration
	d := New(cap, ren, p,
		WithClock(func() time.Time { return *now }),
		WithSleep(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)
	return d, cap, ren
}

func TestTickClearsDisplayThenStartsSendingAPendingFile(t *testing.T) {
	dir := t.TempDir()
	ob := outbox.New(dir)
	require.NoError(t, writeFile(t, dir, "a.bin", []byte("hello world")))

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := peer.New(ob, inbox.New(t.TempDir()), peer.WithClock(func() time.Time { return now }))
	d, cap, ren := newTestDriver(t, p, &now)

	ren.EXPECT().Clear()
	cap.EXPECT().Capture().Return(nil, nil)

	require.NoError(t, d.tick())
	require.Equal(t, peer.WaitingToSendFile, p.Status())
	require.NotNil(t, p.CurrentImage())
}

func TestTickRendersCurrentImageAndDispatchesCapturedFrame(t *testing.T) {
	dir := t.TempDir()
	ob := outbox.New(dir)
	require.NoError(t, writeFile(t, dir, "a.bin", []byte("hello world")))

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := peer.New(ob, inbox.New(t.TempDir()), peer.WithClock(func() time.Time { return now }))
	// Prime the peer into WaitingToSendFile with a built start_connection.
	p.Handle(nil)
	require.Equal(t, peer.WaitingToSendFile, p.Status())

	d, cap, ren := newTestDriver(t, p, &now)

	confirm, err := frame.Encode(frame.NewHeader(frame.ConfirmConnection, 0), nil)
	require.NoError(t, err)

	ren.EXPECT().Render(p.CurrentImage())
	cap.EXPECT().Capture().Return(confirm, nil)

	require.NoError(t, d.tick())
	require.Equal(t, peer.SentData, p.Status())
}

func TestTickTreatsUndecodableBytesAsNoFrame(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := peer.New(outbox.New(t.TempDir()), inbox.New(t.TempDir()), peer.WithClock(func() time.Time { return now }))
	d, cap, ren := newTestDriver(t, p, &now)

	ren.EXPECT().Clear()
	cap.EXPECT().Capture().Return([]byte("not a frame"), nil)

	require.NoError(t, d.tick())
	require.Equal(t, peer.Waiting, p.Status())
}

func TestTickSleepsAfterTimeoutReset(t *testing.T) {
	dir := t.TempDir()
	ob := outbox.New(dir)
	require.NoError(t, writeFile(t, dir, "a.bin", []byte("hello world")))

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := peer.New(ob, inbox.New(t.TempDir()), peer.WithClock(func() time.Time { return now }))
	p.Handle(nil) // builds a frame and stamps last_build_at
	require.NotNil(t, p.CurrentImage())

	now = now.Add(peer.WaitingTimeout + time.Second)

	var slept time.Duration
	ctrl := gomock.NewController(t)
	cap := NewMockCapturer(ctrl)
	ren := NewMockRenderer(ctrl)
	d := New(cap, ren, p,
		WithClock(func() time.Time { return now }),
		WithSleep(func(d time.Duration) { slept = d }),
	)

	// The stale frame is still rendered this tick; the reset only lands
	// when the peer handles the (empty) capture.
	ren.EXPECT().Render(gomock.Any())
	cap.EXPECT().Capture().Return(nil, nil)

	require.NoError(t, d.tick())
	require.Equal(t, peer.ResetSleep, slept)
	require.Equal(t, peer.Waiting, p.Status())
	require.Nil(t, p.CurrentImage())
}

func TestRunStopsWhenCaptureSourceStopsCapturing(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := peer.New(outbox.New(t.TempDir()), inbox.New(t.TempDir()), peer.WithClock(func() time.Time { return now }))

	ctrl := gomock.NewController(t)
	cap := NewMockCapturer(ctrl)
	ren := NewMockRenderer(ctrl)
	d := New(cap, ren, p, WithClock(func() time.Time { return now }))

	gomock.InOrder(
		cap.EXPECT().IsCapturing().Return(true),
		ren.EXPECT().Clear(),
		cap.EXPECT().Capture().Return(nil, nil),
		cap.EXPECT().IsCapturing().Return(false),
	)

	require.NoError(t, d.Run())
}

func writeFile(t *testing.T, dir, name string, data []byte) error {
	t.Helper()
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// TestRunCompletesScriptedReceiveSession drives a whole inbound session
// through Run against the scripted channel: start_connection, one chunk,
// finish. The loop should answer confirm_connection, confirm_data, and a
// final confirm_data for the finish, then stop once the script runs dry.
func TestRunCompletesScriptedReceiveSession(t *testing.T) {
	encode := func(rt frame.RequestType, seq int32, payload []byte) []byte {
		t.Helper()
		raw, err := frame.Encode(frame.NewHeader(rt, seq), payload)
		require.NoError(t, err)
		return raw
	}

	body := []byte("scripted chunk contents")
	src := script.NewSource(
		encode(frame.StartConnection, 0, []byte(".bin")),
		encode(frame.SendData, 0, body),
		encode(frame.Finish, 0, nil),
	)
	src.StopWhenExhausted = true

	received := t.TempDir()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := peer.New(outbox.New(t.TempDir()), inbox.New(received), peer.WithClock(func() time.Time { return now }))

	d := New(src, src, p, WithClock(func() time.Time { return now }), WithSleep(func(time.Duration) {}))
	require.NoError(t, d.Run())

	var replies []frame.RequestType
	for _, raw := range src.Rendered {
		f, err := frame.Decode(raw)
		require.NoError(t, err)
		replies = append(replies, f.Header.RequestType)
	}
	require.Equal(t, []frame.RequestType{frame.ConfirmConnection, frame.ConfirmData, frame.ConfirmData}, replies)

	entries, err := os.ReadDir(received)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Name(), ".bin")

	data, err := os.ReadFile(filepath.Join(received, entries[0].Name()))
	require.NoError(t, err)
	require.Equal(t, body, data)
}
