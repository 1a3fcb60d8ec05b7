package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petems/wave-overlay/internal/audio"
	"github.com/petems/wave-overlay/internal/config"
	"github.com/petems/wave-overlay/internal/hotkey"
	"github.com/petems/wave-overlay/internal/params"
	"github.com/rs/zerolog"
)

// Mock implementations for testing
type mockHost struct {
	output    audio.Device
	loopbacks []audio.Device
	stream    *mockStream
	other     audio.Stream // returned instead of stream when set

	mu     sync.Mutex
	opened int
}

func (m *mockHost) DefaultOutput() (audio.Device, error) {
	return m.output, nil
}

func (m *mockHost) LoopbackDevices() ([]audio.Device, error) {
	return m.loopbacks, nil
}

func (m *mockHost) Open(dev audio.Device, chunkFrames int) (audio.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened++
	if m.other != nil {
		return m.other, nil
	}
	return m.stream, nil
}

func (m *mockHost) Close() error {
	return nil
}

type mockStream struct {
	chunks chan []int16

	mu        sync.Mutex
	starts    int
	stops     int
	closes    int
	closeOnce sync.Once
	closed    chan struct{}
}

func newMockStream() *mockStream {
	return &mockStream{
		chunks: make(chan []int16, 4),
		closed: make(chan struct{}),
	}
}

func (m *mockStream) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	return nil
}

func (m *mockStream) Read(ctx context.Context) ([]int16, error) {
	select {
	case c := <-m.chunks:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closed:
		return nil, errors.New("stream closed")
	}
}

func (m *mockStream) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *mockStream) Close() error {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockStream) counts() (starts, stops, closes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops, m.closes
}

type mockStatus struct {
	mu       sync.Mutex
	device   audio.Device
	controls []bool
}

func (m *mockStatus) SetDevice(dev audio.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device = dev
}

func (m *mockStatus) SetControlsVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controls = append(m.controls, visible)
}

func stereoHost() *mockHost {
	return &mockHost{
		output: audio.Device{Index: 0, Name: "Speakers", Channels: 2, SampleRate: 48000},
		loopbacks: []audio.Device{
			{Index: 4, Name: "Speakers [Loopback]", Channels: 2, SampleRate: 48000, Loopback: true},
		},
		stream: newMockStream(),
	}
}

func newTestApp(t *testing.T, host *mockHost, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Audio.BufferSize = 4
	if mutate != nil {
		mutate(cfg)
	}

	a, err := New(Config{
		Host:   host,
		Config: cfg,
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(func() { a.Shutdown(context.Background()) })
	return a
}

func waitForPoints(t *testing.T, a *App, n int) Frame {
	t.Helper()
	// Poll for 1 second
	for i := 0; i < 100; i++ {
		f := a.Frame()
		if len(f.Points) == n {
			return f
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("buffer never reached %d samples", n)
	return Frame{}
}

func TestCaptureFillsBuffer(t *testing.T) {
	host := stereoHost()
	a := newTestApp(t, host, func(c *config.Config) {
		c.Render.HorizontalScaling = 1
	})

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if a.Device().Index != 4 {
		t.Fatalf("expected loopback device 4, got %s", a.Device())
	}

	// Three stereo frames, then three more: only the newest four samples stay.
	host.stream.chunks <- []int16{0, 0, 10, 10, -10, -10}
	host.stream.chunks <- []int16{5, 5, 20, 20, 0, 0}

	// The buffer only reaches four samples once the second chunk lands.
	f := waitForPoints(t, a, 4)

	// Samples are now [-10, 5, 20, 0]; the peak of 20 maps to 100px.
	wantY := []float32{250, 175, 100, 200}
	for i, p := range f.Points {
		if p.X != float32(50+i) {
			t.Errorf("point %d: expected x %d, got %v", i, 50+i, p.X)
		}
		if p.Y != wantY[i] {
			t.Errorf("point %d: expected y %v, got %v", i, wantY[i], p.Y)
		}
	}
}

func TestStartWithoutLoopbackMatch(t *testing.T) {
	host := stereoHost()
	host.loopbacks = []audio.Device{{Index: 9, Name: "Headphones [Loopback]", Loopback: true}}
	a := newTestApp(t, host, nil)

	err := a.Start(context.Background())
	if !errors.Is(err, audio.ErrNoLoopbackDevice) {
		t.Fatalf("expected ErrNoLoopbackDevice, got %v", err)
	}
	if host.opened != 0 {
		t.Fatalf("expected no stream to be opened, got %d", host.opened)
	}
}

func TestStartTwiceFails(t *testing.T) {
	host := stereoHost()
	a := newTestApp(t, host, nil)

	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := a.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}
	if host.opened != 1 {
		t.Fatalf("expected the stream to be opened once, got %d", host.opened)
	}
}

func TestShutdownReleasesOnce(t *testing.T) {
	host := stereoHost()
	a := newTestApp(t, host, nil)

	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if err := a.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown failed: %v", err)
	}

	starts, stops, closes := host.stream.counts()
	if starts != 1 || stops != 1 || closes != 1 {
		t.Fatalf("expected one start/stop/close, got %d/%d/%d", starts, stops, closes)
	}

	select {
	case <-a.Done():
	default:
		t.Fatal("expected shutdown to close Done")
	}
}

// deviceStream behaves like a blocking device read: once started, a Read
// only notices cancellation after the current buffer has filled.
type deviceStream struct {
	inflight   atomic.Int32
	reads      atomic.Int32
	overlapped atomic.Bool
	released   atomic.Int32
}

func (s *deviceStream) Start() error { return nil }

func (s *deviceStream) Read(ctx context.Context) ([]int16, error) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)
	s.reads.Add(1)

	time.Sleep(20 * time.Millisecond)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []int16{1, 1, 2, 2}, nil
}

func (s *deviceStream) Stop() error {
	if s.inflight.Load() > 0 {
		s.overlapped.Store(true)
	}
	return nil
}

func (s *deviceStream) Close() error {
	if s.inflight.Load() > 0 {
		s.overlapped.Store(true)
	}
	s.released.Add(1)
	return nil
}

func TestShutdownWaitsForPendingRead(t *testing.T) {
	stream := &deviceStream{}
	host := stereoHost()
	host.other = stream
	a := newTestApp(t, host, nil)

	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100 && stream.reads.Load() < 2; i++ {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if stream.overlapped.Load() {
		t.Fatal("stream was released while a read was in flight")
	}
	if stream.released.Load() != 1 {
		t.Fatalf("expected one release, got %d", stream.released.Load())
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	a := newTestApp(t, stereoHost(), nil)
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestKeysToggleAndQuit(t *testing.T) {
	status := &mockStatus{}
	a := newTestApp(t, stereoHost(), nil)
	a.SetStatusUpdater(status)

	keys := hotkey.NewTable()
	if err := a.BindKeys(keys); err != nil {
		t.Fatal(err)
	}

	// Panel keys do nothing while the controls are hidden.
	keys.Dispatch("UP", 0, true)
	if h, _ := a.Params().Value(params.HorizontalScaling); h != 0.05 {
		t.Fatalf("hidden controls should ignore Up, value %v", h)
	}

	keys.Dispatch("W", 0, true)
	if !a.ControlsVisible() {
		t.Fatal("expected controls visible after W")
	}
	keys.Dispatch("W", 0, false)
	if !a.ControlsVisible() {
		t.Fatal("key release should not toggle")
	}

	keys.Dispatch("UP", 0, true)
	if h, _ := a.Params().Value(params.HorizontalScaling); h != 0.075 {
		t.Fatalf("expected 0.075 after Up, got %v", h)
	}
	keys.Dispatch("RIGHT", 0, true)
	if a.Params().Selected().Name != params.VerticalScaling {
		t.Fatalf("expected vertical scaling selected, got %q", a.Params().Selected().Name)
	}
	keys.Dispatch("DOWN", 0, true)
	if v, _ := a.Params().Value(params.VerticalScaling); v != 0.975 {
		t.Fatalf("expected 0.975 after Down, got %v", v)
	}

	keys.Dispatch("W", 0, true)
	if a.ControlsVisible() {
		t.Fatal("expected controls hidden after second W")
	}
	if len(status.controls) != 2 || !status.controls[0] || status.controls[1] {
		t.Fatalf("unexpected status updates %v", status.controls)
	}

	keys.Dispatch("Q", 0, true)
	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Q to quit")
	}
}

func TestFrameReportsPanelState(t *testing.T) {
	a := newTestApp(t, stereoHost(), nil)
	a.ToggleControls()
	a.SelectParam(1)

	f := a.Frame()
	if !f.Controls || f.Selected != 1 || len(f.Params) != 2 {
		t.Fatalf("unexpected frame panel state %+v", f)
	}
	if len(f.Points) != 0 {
		t.Fatalf("expected empty path before capture, got %d points", len(f.Points))
	}
}

func TestSpectrumMode(t *testing.T) {
	host := stereoHost()
	a := newTestApp(t, host, func(c *config.Config) {
		c.Render.Mode = "spectrum"
		c.Audio.BufferSize = 64
	})
	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	host.stream.chunks <- make([]int16, 128)
	// 64 samples give 33 bins, a quarter of which are drawn.
	waitForPoints(t, a, 8)
}

func TestRecordingWritesWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loopback_record.wav")
	host := stereoHost()
	a := newTestApp(t, host, func(c *config.Config) {
		c.Record.Enabled = true
		c.Record.Path = path
	})

	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	host.stream.chunks <- []int16{1, 2, 3, 4}
	waitForPoints(t, a, 2)

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected wav file: %v", err)
	}
	// 44 byte header plus two stereo 16-bit frames
	if info.Size() != 44+8 {
		t.Fatalf("expected 52 bytes, got %d", info.Size())
	}
}

func TestStatusReceivesDevice(t *testing.T) {
	status := &mockStatus{}
	host := stereoHost()
	a, err := New(Config{
		Host:          host,
		Config:        config.Default(),
		Logger:        zerolog.Nop(),
		StatusUpdater: status,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Shutdown(context.Background())

	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	status.mu.Lock()
	defer status.mu.Unlock()
	if status.device.Name != "Speakers [Loopback]" {
		t.Fatalf("expected status to receive the device, got %q", status.device.Name)
	}
}

func TestScaling(t *testing.T) {
	cfg := config.Default()
	a, err := New(Config{Host: stereoHost(), Config: cfg, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}

	a.Params().Set(params.HorizontalScaling, 2.5)
	h, v := a.Scaling()
	if h != 2.5 || v != 1 {
		t.Fatalf("expected 2.5/1, got %v/%v", h, v)
	}
	if cfg.Render.HorizontalScaling != 0.05 {
		t.Fatalf("panel changes should not touch the config, got %v", cfg.Render.HorizontalScaling)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.Backend = "jack"
	if _, err := New(Config{Host: stereoHost(), Config: cfg, Logger: zerolog.Nop()}); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
	if _, err := New(Config{Config: config.Default()}); err == nil {
		t.Fatal("expected missing host to be rejected")
	}
}
