package tray

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/petems/wave-overlay/internal/app"
	"github.com/petems/wave-overlay/internal/audio"
	"github.com/petems/wave-overlay/internal/logging"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"
)

// openFile hands a path to the desktop's default handler.
var openFile = browser.OpenFile

type UI struct {
	app     *app.App
	version string
	log     zerolog.Logger

	mu       sync.Mutex
	ready    bool
	device   audio.Device
	controls bool

	// Menu items
	mControls *systray.MenuItem
	mCopy     *systray.MenuItem
	mLogs     *systray.MenuItem
	mQuit     *systray.MenuItem
}

func New(application *app.App, version string, log zerolog.Logger) *UI {
	return &UI{
		app:     application,
		version: version,
		log:     log,
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

// Register attaches the tray icon without taking over the main loop, which
// belongs to the overlay window.
func (u *UI) Register() {
	systray.Register(u.onReady, u.onExit)
}

// Close removes the tray icon.
func (u *UI) Close() {
	systray.Quit()
}

// SetDevice shows the capture device in the tooltip.
func (u *UI) SetDevice(dev audio.Device) {
	u.mu.Lock()
	u.device = dev
	ready := u.ready
	u.mu.Unlock()

	if ready {
		systray.SetTooltip(tooltip(u.version, dev))
	}
}

// SetControlsVisible keeps the menu label in step with the panel.
func (u *UI) SetControlsVisible(visible bool) {
	u.mu.Lock()
	u.controls = visible
	ready := u.ready
	u.mu.Unlock()

	if ready {
		u.mControls.SetTitle(controlsTitle(visible))
	}
}

func (u *UI) onReady() {
	u.mu.Lock()
	dev, visible := u.device, u.controls
	u.mu.Unlock()

	systray.SetTitle("〰")
	systray.SetTooltip(tooltip(u.version, dev))

	// Build menu
	u.mControls = systray.AddMenuItem(controlsTitle(visible), "Toggle the scaling controls")
	u.mCopy = systray.AddMenuItem("Copy Device Name", "Copy the loopback device name")
	systray.AddSeparator()
	u.mLogs = systray.AddMenuItem("Open Logs", "View application logs")
	u.mQuit = systray.AddMenuItem("Quit", "Exit application")

	u.mu.Lock()
	u.ready = true
	u.mu.Unlock()

	// Event loop
	go u.handleEvents()
}

func (u *UI) handleEvents() {
	for {
		select {
		case <-u.mControls.ClickedCh:
			u.app.ToggleControls()
		case <-u.mCopy.ClickedCh:
			u.copyDeviceName()
		case <-u.mLogs.ClickedCh:
			u.openLogs()
		case <-u.mQuit.ClickedCh:
			u.app.Quit()
			return
		case <-u.app.Done():
			return
		}
	}
}

func (u *UI) copyDeviceName() {
	u.mu.Lock()
	name := u.device.Name
	u.mu.Unlock()

	if name == "" {
		u.log.Warn().Msg("No capture device to copy")
		return
	}
	if err := clipboard.WriteAll(name); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy device name")
		return
	}
	u.log.Info().Str("device", name).Msg("Copied device name to clipboard")
}

func (u *UI) openLogs() {
	path := logging.Path()
	if err := openFile(path); err != nil {
		u.log.Error().Err(err).Str("path", path).Msg("Failed to open log file")
	}
}

func (u *UI) onExit() {
	u.log.Debug().Msg("Tray exited")
}

// tooltip describes the running overlay.
func tooltip(version string, dev audio.Device) string {
	if dev.Name == "" {
		return fmt.Sprintf("wave-overlay %s", version)
	}
	return fmt.Sprintf("wave-overlay %s - %s", version, dev.Name)
}

func controlsTitle(visible bool) string {
	if visible {
		return "Hide Controls"
	}
	return "Show Controls"
}
