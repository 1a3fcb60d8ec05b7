package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petems/wave-overlay/internal/app"
	"github.com/petems/wave-overlay/internal/audio"
	"github.com/petems/wave-overlay/internal/config"
	"github.com/petems/wave-overlay/internal/hotkey"
	"github.com/petems/wave-overlay/internal/logging"
	"github.com/petems/wave-overlay/internal/overlay"
	"github.com/petems/wave-overlay/internal/permissions"
	"github.com/petems/wave-overlay/internal/tray"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

const shutdownTimeout = 2 * time.Second

var (
	cfgFile  string
	logLevel string
	backend  string
	device   string
	record   bool
)

var rootCmd = &cobra.Command{
	Use:   "wave-overlay",
	Short: "Draw the system audio output as a waveform over the desktop",
	Long: `wave-overlay captures whatever the default output device is playing through
a loopback endpoint and draws it as a live waveform in a transparent,
click-through window on top of every other window.

Keys: W toggles the scaling controls, Q quits.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		runOverlay(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wave-overlay %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", fmt.Sprintf("audio backend %v", audio.Backends()))
	rootCmd.PersistentFlags().StringVar(&device, "device", "", "match the loopback device by this name instead of the default output")
	rootCmd.PersistentFlags().BoolVar(&record, "record", false, "also write the captured audio to a WAV file")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("backend") {
		cfg.Audio.Backend = backend
	}
	if flags.Changed("device") {
		cfg.Audio.Device = device
	}
	if flags.Changed("record") {
		cfg.Record.Enabled = record
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfg.Path(), err)
	}
	return cfg, nil
}

func runOverlay(cmd *cobra.Command) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)
	log.Info().Str("version", Version).Str("config", cfg.Path()).Msg("wave-overlay starting...")

	// macOS gates loopback drivers behind the microphone permission
	if err := permissions.EnsureCapture(); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host, err := audio.NewHost(cfg.Audio.Backend)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Audio.Backend).Msg("Failed to initialize audio")
	}
	defer host.Close()

	// Create tray UI first (we'll pass it to app)
	var trayUI *tray.UI
	var status app.StatusUpdater
	if cfg.Tray {
		trayUI = tray.New(nil, Version, log) // App reference set below
		status = trayUI
	}

	application, err := app.New(app.Config{
		Host:          host,
		Config:        cfg,
		Logger:        log,
		StatusUpdater: status,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}
	if trayUI != nil {
		// Set app reference in tray
		trayUI.SetApp(application)
	}

	keys := hotkey.NewTable()
	defer keys.Close()
	if err := application.BindKeys(keys); err != nil {
		log.Fatal().Err(err).Msg("Failed to bind keys")
	}

	if err := application.Start(ctx); err != nil {
		if suggestDevices(err) {
			log.Error().Msg("Run `wave-overlay devices` to list the loopback devices of this backend")
		}
		log.Fatal().Err(err).Msg("Failed to start capture")
	}
	defer shutdown(application, log)

	// Validate has already checked the colour
	stroke, _ := config.ParseColor(cfg.Render.StrokeColor)

	win, err := overlay.Open(overlay.Options{
		Stroke:        stroke,
		TaskbarMargin: cfg.Render.TaskbarMargin,
		FrameInterval: time.Duration(cfg.Render.FrameInterval),
		Keys:          keys,
		Logger:        log,
	})
	if err != nil {
		shutdown(application, log)
		log.Fatal().Err(err).Msg("Failed to open overlay window")
	}
	defer win.Close()

	// The tray shares the window's event loop
	if trayUI != nil {
		trayUI.Register()
		defer trayUI.Close()
	}

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Shutting down...")
			application.Quit()
		case <-application.Done():
		}
	}()

	// Render loop - MUST run on main thread
	if err := win.Run(application); err != nil {
		log.Error().Err(err).Msg("Overlay error")
	}

	// Only the panel values are persisted; flag overrides stay per-run.
	h, v := application.Scaling()
	if err := config.SaveScaling(cfg.Path(), h, v); err != nil {
		log.Warn().Err(err).Msg("Failed to save config")
	}
}

func shutdown(application *app.App, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
