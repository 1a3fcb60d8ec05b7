// Package overlay owns the always-on-top transparent window that paints the
// waveform and the scaling controls.
package overlay

import (
	"errors"
	"fmt"
	"image/color"
	"runtime"
	"time"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/petems/wave-overlay/internal/app"
	"github.com/petems/wave-overlay/internal/hotkey"
	"github.com/petems/wave-overlay/internal/panel"
	"github.com/rs/zerolog"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

// Scene supplies frames and receives panel clicks.
type Scene interface {
	Frame() app.Frame
	Done() <-chan struct{}
	CycleParam(delta int)
	StepSelected(n int)
}

// KeyDispatcher receives key events from the window.
type KeyDispatcher interface {
	Dispatch(key string, mods hotkey.Mod, pressed bool) bool
}

type Options struct {
	Title         string
	Stroke        color.RGBA
	TaskbarMargin int
	FrameInterval time.Duration // 0 draws as fast as the driver allows
	Keys          KeyDispatcher
	Logger        zerolog.Logger
}

// Window is the overlay surface.
type Window struct {
	win      *glfw.Window
	opts     Options
	log      zerolog.Logger
	layout   panel.Layout
	renderer *renderer

	width, height int
	controls      bool
	scene         Scene
}

// Open creates the overlay covering the primary monitor minus the taskbar
// margin. It must be called from the main goroutine.
func Open(opts Options) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		glfw.Terminate()
		return nil, errors.New("no primary monitor")
	}
	mode := monitor.GetVideoMode()
	mx, my := monitor.GetPos()

	width := mode.Width
	height := mode.Height - opts.TaskbarMargin
	if height < 1 {
		height = mode.Height
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.Decorated, glfw.False)
	glfw.WindowHint(glfw.Floating, glfw.True)
	glfw.WindowHint(glfw.TransparentFramebuffer, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Samples, 4)

	title := opts.Title
	if title == "" {
		title = "wave-overlay"
	}

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	win.SetPos(mx, my)
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	glfw.SwapInterval(0)

	r, err := newRenderer(opts.Stroke)
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	w := &Window{
		win:      win,
		opts:     opts,
		log:      opts.Logger,
		layout:   panel.DefaultLayout(),
		renderer: r,
		width:    width,
		height:   height,
	}

	win.SetKeyCallback(w.onKey)
	win.SetMouseButtonCallback(w.onMouseButton)
	win.SetScrollCallback(w.onScroll)

	w.setClickThrough(true)

	w.log.Info().Int("width", width).Int("height", height).
		Str("gl", gl.GoStr(gl.GetString(gl.VERSION))).Msg("Overlay window opened")
	return w, nil
}

func (w *Window) setClickThrough(enabled bool) {
	if err := setClickThrough(w.win, enabled); err != nil {
		w.log.Debug().Err(err).Bool("enabled", enabled).Msg("Click-through not applied")
	}
}

// Run paints frames from scene until it reports done or the window is
// closed. It returns nil in both cases.
func (w *Window) Run(scene Scene) error {
	w.scene = scene
	defer func() { w.scene = nil }()

	var tick <-chan time.Time
	if w.opts.FrameInterval > 0 {
		ticker := time.NewTicker(w.opts.FrameInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for !w.win.ShouldClose() {
		select {
		case <-scene.Done():
			return nil
		default:
		}

		glfw.PollEvents()

		f := scene.Frame()
		if f.Controls != w.controls {
			w.controls = f.Controls
			// Widgets need the mouse while they are shown.
			w.setClickThrough(!f.Controls)
		}

		fbw, fbh := w.win.GetFramebufferSize()
		w.renderer.begin(fbw, fbh, w.width, w.height)
		w.renderer.drawPath(f.Points)
		if f.Controls && len(f.Params) > 0 {
			w.renderer.drawPanel(w.layout, f.Params[f.Selected])
		}
		w.win.SwapBuffers()

		if tick != nil {
			select {
			case <-tick:
			case <-scene.Done():
				return nil
			}
		}
	}

	w.log.Info().Msg("Overlay window closed")
	return nil
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	w.renderer.release()
	w.win.Destroy()
	glfw.Terminate()
}

func (w *Window) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	if w.opts.Keys == nil || action == glfw.Repeat && !isRepeatable(key) {
		return
	}
	name, ok := keyName(key)
	if !ok {
		return
	}
	w.opts.Keys.Dispatch(name, modsFromGLFW(mods), action != glfw.Release)
}

func (w *Window) onMouseButton(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if w.scene == nil || !w.controls || button != glfw.MouseButtonLeft || action != glfw.Press {
		return
	}
	x, y := win.GetCursorPos()
	switch w.layout.Hit(float32(x), float32(y)) {
	case panel.ActionCycle:
		w.scene.CycleParam(1)
	case panel.ActionDecrement:
		w.scene.StepSelected(-1)
	case panel.ActionIncrement:
		w.scene.StepSelected(1)
	}
}

func (w *Window) onScroll(win *glfw.Window, _, yoff float64) {
	if w.scene == nil || !w.controls {
		return
	}
	x, y := win.GetCursorPos()
	if n := w.layout.Scroll(float32(x), float32(y), yoff); n != 0 {
		w.scene.StepSelected(n)
	}
}
