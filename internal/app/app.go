package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/petems/wave-overlay/internal/audio"
	"github.com/petems/wave-overlay/internal/config"
	"github.com/petems/wave-overlay/internal/hotkey"
	"github.com/petems/wave-overlay/internal/params"
	"github.com/petems/wave-overlay/internal/record"
	"github.com/petems/wave-overlay/internal/ring"
	"github.com/petems/wave-overlay/internal/wave"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StatusUpdater is an interface for reflecting state elsewhere (e.g., tray menu)
type StatusUpdater interface {
	SetDevice(dev audio.Device)
	SetControlsVisible(visible bool)
}

type Config struct {
	Host          audio.Host
	Config        *config.Config
	Params        *params.Set // Optional - defaults from Config.Render
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

// Frame is everything the overlay needs to paint one frame.
type Frame struct {
	Points   []wave.Point
	Controls bool
	Params   []params.Entry
	Selected int
}

// App is the application context: it owns the capture stream, the sample
// buffer, the scaling parameters and the optional recording, from Start
// until Shutdown.
type App struct {
	host   audio.Host
	cfg    *config.Config
	params *params.Set
	log    zerolog.Logger
	status StatusUpdater

	buffer *ring.Buffer
	policy wave.Policy
	mode   wave.Mode

	mu       sync.Mutex
	started  bool
	controls bool
	device   audio.Device
	handle   *audio.Handle
	rec      *record.Recorder
	cancel   context.CancelFunc
	group    *errgroup.Group

	quitOnce     sync.Once
	done         chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error

	// render-thread scratch space, reused every frame
	samples []int16
	points  []wave.Point
}

// New validates the settings and builds an idle App.
func New(cfg Config) (*App, error) {
	if cfg.Host == nil {
		return nil, errors.New("app: audio host is required")
	}
	if cfg.Config == nil {
		cfg.Config = config.Default()
	}
	if err := cfg.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	mode, _ := wave.ParseMode(cfg.Config.Render.Mode)
	norm, _ := wave.ParseNormalization(cfg.Config.Render.Normalization)
	policy := wave.DefaultPolicy()
	policy.Normalization = norm
	policy.Divisor = cfg.Config.Render.FixedDivisor

	set := cfg.Params
	if set == nil {
		set = params.NewDefault()
		set.Set(params.HorizontalScaling, cfg.Config.Render.HorizontalScaling)
		set.Set(params.VerticalScaling, cfg.Config.Render.VerticalScaling)
	}

	return &App{
		host:   cfg.Host,
		cfg:    cfg.Config,
		params: set,
		log:    cfg.Logger,
		status: cfg.StatusUpdater,
		buffer: ring.New(cfg.Config.Audio.BufferSize),
		policy: policy,
		mode:   mode,
		done:   make(chan struct{}),
	}, nil
}

// SetStatusUpdater sets the status updater (for circular dependency resolution)
func (a *App) SetStatusUpdater(s StatusUpdater) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
}

// Start resolves the loopback device, opens its stream and starts the
// capture goroutine. Discovery failures are returned unwrapped so callers
// can match audio.ErrLoopbackUnavailable and audio.ErrNoLoopbackDevice.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return errors.New("app already started")
	}

	dev, err := audio.Resolve(a.host, a.cfg.Audio.Device)
	if err != nil {
		return err
	}
	a.log.Info().Int("index", dev.Index).Str("device", dev.Name).
		Int("channels", dev.Channels).Int("sample_rate", dev.SampleRate).
		Msg("Recording from loopback device")

	handle, err := audio.OpenHandle(a.host, dev, a.cfg.Audio.ChunkFrames)
	if err != nil {
		return err
	}

	var rec *record.Recorder
	if a.cfg.Record.Enabled {
		rec, err = record.Create(a.cfg.Record.Path, dev.Channels, dev.SampleRate)
		if err != nil {
			handle.Close()
			return err
		}
		a.log.Info().Str("path", a.cfg.Record.Path).Msg("Recording to wav")
	}

	if err := handle.Start(); err != nil {
		handle.Close()
		if rec != nil {
			rec.Close()
		}
		return err
	}

	captureCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(captureCtx)

	a.started = true
	a.device = dev
	a.handle = handle
	a.rec = rec
	a.cancel = cancel
	a.group = group

	group.Go(func() error {
		return a.capture(groupCtx, handle, rec, dev.Channels)
	})

	if a.status != nil {
		a.status.SetDevice(dev)
	}
	return nil
}

// capture moves chunks from the device into the ring buffer until ctx ends
// or the stream fails.
func (a *App) capture(ctx context.Context, handle *audio.Handle, rec *record.Recorder, channels int) error {
	for {
		chunk, err := handle.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.log.Error().Err(err).Msg("Capture stopped")
			return err
		}

		if rec != nil {
			if err := rec.Write(chunk); err != nil {
				a.log.Error().Err(err).Msg("Disabling wav recording")
				rec.Close()
				rec = nil
			}
		}

		a.buffer.Append(audio.Downmix(chunk, channels))
	}
}

// Frame builds the current path from a snapshot of the buffer. It never
// waits on the device. Frame must only be called from the render loop.
func (a *App) Frame() Frame {
	a.samples = a.buffer.Snapshot(a.samples)

	hscale, _ := a.params.Value(params.HorizontalScaling)
	vscale, _ := a.params.Value(params.VerticalScaling)

	switch a.mode {
	case wave.ModeSpectrum:
		a.points = wave.Spectrum(a.policy, a.samples, vscale)
	default:
		a.points = wave.BuildInto(a.points, a.policy, a.samples, hscale, vscale)
	}

	return Frame{
		Points:   a.points,
		Controls: a.ControlsVisible(),
		Params:   a.params.Entries(),
		Selected: a.params.SelectedIndex(),
	}
}

// BindKeys registers the quit, toggle and panel keys on m.
func (a *App) BindKeys(m hotkey.Manager) error {
	onPress := func(f func()) func(bool) {
		return func(pressed bool) {
			if pressed {
				f()
			}
		}
	}
	whileControls := func(f func()) func(bool) {
		return onPress(func() {
			if a.ControlsVisible() {
				f()
			}
		})
	}

	bindings := []struct {
		accel string
		cb    func(bool)
	}{
		{a.cfg.Keys.Quit, onPress(a.Quit)},
		{a.cfg.Keys.Toggle, onPress(a.ToggleControls)},
		{"Left", whileControls(func() { a.CycleParam(-1) })},
		{"Right", whileControls(func() { a.CycleParam(1) })},
		{"Up", whileControls(func() { a.StepSelected(1) })},
		{"Down", whileControls(func() { a.StepSelected(-1) })},
	}
	for _, b := range bindings {
		if err := m.Register(b.accel, b.cb); err != nil {
			return fmt.Errorf("failed to bind %q: %w", b.accel, err)
		}
	}
	return nil
}

// ToggleControls shows or hides the scaling controls.
func (a *App) ToggleControls() {
	a.mu.Lock()
	a.controls = !a.controls
	visible := a.controls
	status := a.status
	a.mu.Unlock()

	a.log.Debug().Bool("visible", visible).Msg("Toggled controls")
	if status != nil {
		status.SetControlsVisible(visible)
	}
}

func (a *App) ControlsVisible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.controls
}

// CycleParam moves the dropdown selection.
func (a *App) CycleParam(delta int) {
	a.params.Cycle(delta)
	a.log.Debug().Str("param", a.params.Selected().Name).Msg("Selected parameter")
}

// SelectParam selects the parameter at panel position i.
func (a *App) SelectParam(i int) {
	a.params.SelectIndex(i)
}

// StepSelected moves the selected parameter by n steps.
func (a *App) StepSelected(n int) {
	v := a.params.Step(n)
	a.log.Debug().Str("param", a.params.Selected().Name).Float64("value", v).Msg("Changed parameter")
}

// Params exposes the scaling parameters.
func (a *App) Params() *params.Set {
	return a.params
}

// Device returns the resolved capture device, zero before Start.
func (a *App) Device() audio.Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.device
}

// Quit asks the render loop to exit.
func (a *App) Quit() {
	a.quitOnce.Do(func() {
		a.log.Info().Msg("Closing application...")
		close(a.done)
	})
}

// Done is closed once Quit has been called.
func (a *App) Done() <-chan struct{} {
	return a.done
}

// Shutdown stops capture, releases the stream and closes the recording.
// It is safe to call more than once and before Start.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.Quit()

		a.mu.Lock()
		cancel, handle, group, rec := a.cancel, a.handle, a.group, a.rec
		a.mu.Unlock()

		if cancel == nil {
			return
		}
		cancel()

		// Both backends return from Read within one chunk once ctx is done.
		// The stream is only released after the reader has gone.
		var errs []error
		waited := make(chan error, 1)
		go func() { waited <- group.Wait() }()
		select {
		case err := <-waited:
			if err != nil {
				errs = append(errs, err)
			}
			if err := handle.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close stream: %w", err))
			}
		case <-ctx.Done():
			// Closing now would free the stream under the blocked read.
			errs = append(errs, fmt.Errorf("capture did not stop, stream left open: %w", ctx.Err()))
		}

		if rec != nil {
			if err := rec.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close wav file: %w", err))
			}
		}

		a.shutdownErr = errors.Join(errs...)
	})
	return a.shutdownErr
}

// Scaling returns the current horizontal and vertical scaling.
func (a *App) Scaling() (h, v float64) {
	h, _ = a.params.Value(params.HorizontalScaling)
	v, _ = a.params.Value(params.VerticalScaling)
	return h, v
}
