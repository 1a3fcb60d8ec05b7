package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/petems/wave-overlay/internal/audio"
	"github.com/petems/wave-overlay/internal/params"
	"github.com/petems/wave-overlay/internal/wave"
)

type Config struct {
	LogLevel string       `json:"log_level"`
	Audio    AudioConfig  `json:"audio"`
	Render   RenderConfig `json:"render"`
	Keys     KeysConfig   `json:"keys"`
	Record   RecordConfig `json:"record"`
	Tray     bool         `json:"tray"`

	path string
}

type AudioConfig struct {
	Backend     string `json:"backend"`      // "malgo" or "portaudio"
	Device      string `json:"device"`       // substring override for discovery
	ChunkFrames int    `json:"chunk_frames"` // frames per device read
	BufferSize  int    `json:"buffer_size"`  // ring buffer capacity in samples
}

type RenderConfig struct {
	Mode              string   `json:"mode"`          // "waveform" or "spectrum"
	Normalization     string   `json:"normalization"` // "peak" or "fixed"
	FixedDivisor      float64  `json:"fixed_divisor"`
	StrokeColor       string   `json:"stroke_color"` // #rrggbb
	TaskbarMargin     int      `json:"taskbar_margin"`
	FrameInterval     Duration `json:"frame_interval"` // 0 renders as fast as possible
	HorizontalScaling float64  `json:"horizontal_scaling"`
	VerticalScaling   float64  `json:"vertical_scaling"`
}

type KeysConfig struct {
	Quit   string `json:"quit"`
	Toggle string `json:"toggle"`
}

type RecordConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Duration is a time.Duration stored as a string like "16ms".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			Backend:     audio.BackendMalgo,
			Device:      "",
			ChunkFrames: 2048,
			BufferSize:  16384,
		},
		Render: RenderConfig{
			Mode:              "waveform",
			Normalization:     "peak",
			FixedDivisor:      10,
			StrokeColor:       "#00ff00",
			TaskbarMargin:     10,
			FrameInterval:     0,
			HorizontalScaling: 0.05,
			VerticalScaling:   1.0,
		},
		Keys: KeysConfig{
			Quit:   "Q",
			Toggle: "W",
		},
		Record: RecordConfig{
			Enabled: false,
			Path:    "loopback_record.wav",
		},
		Tray: true,
	}
}

// Load reads the config at path, or the platform default location when
// path is empty, over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = configPath()
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	if c.path == "" {
		return configPath()
	}
	return c.path
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := c.Path()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SaveScaling stores the panel's scaling values in the file at path. The
// rest of the file is left as it is on disk, so settings overridden for a
// single run are not persisted.
func SaveScaling(path string, horizontal, vertical float64) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	cfg.Render.HorizontalScaling = clampScaling(horizontal)
	cfg.Render.VerticalScaling = clampScaling(vertical)
	return cfg.Save()
}

// Validate rejects settings the overlay cannot run with and clamps the
// initial scaling values into range.
func (c *Config) Validate() error {
	var errs []error

	valid := false
	for _, b := range audio.Backends() {
		if c.Audio.Backend == b {
			valid = true
		}
	}
	if !valid {
		errs = append(errs, fmt.Errorf("audio.backend must be one of %s", strings.Join(audio.Backends(), ", ")))
	}
	if c.Audio.ChunkFrames <= 0 {
		errs = append(errs, errors.New("audio.chunk_frames must be positive"))
	}
	if c.Audio.BufferSize <= 0 {
		errs = append(errs, errors.New("audio.buffer_size must be positive"))
	}
	if _, err := wave.ParseMode(c.Render.Mode); err != nil {
		errs = append(errs, fmt.Errorf("render.mode: %w", err))
	}
	if _, err := wave.ParseNormalization(c.Render.Normalization); err != nil {
		errs = append(errs, fmt.Errorf("render.normalization: %w", err))
	}
	if c.Render.FixedDivisor <= 0 {
		errs = append(errs, errors.New("render.fixed_divisor must be positive"))
	}
	if _, err := ParseColor(c.Render.StrokeColor); err != nil {
		errs = append(errs, fmt.Errorf("render.stroke_color: %w", err))
	}
	if c.Render.TaskbarMargin < 0 {
		errs = append(errs, errors.New("render.taskbar_margin must not be negative"))
	}
	if c.Render.FrameInterval < 0 {
		errs = append(errs, errors.New("render.frame_interval must not be negative"))
	}
	if c.Keys.Quit == "" || c.Keys.Toggle == "" {
		errs = append(errs, errors.New("keys.quit and keys.toggle are required"))
	}
	if c.Record.Enabled && c.Record.Path == "" {
		errs = append(errs, errors.New("record.path is required when recording"))
	}

	c.Render.HorizontalScaling = clampScaling(c.Render.HorizontalScaling)
	c.Render.VerticalScaling = clampScaling(c.Render.VerticalScaling)

	return errors.Join(errs...)
}

func clampScaling(v float64) float64 {
	if !(v >= params.MinScaling) {
		return params.MinScaling
	}
	if v > params.MaxScaling {
		return params.MaxScaling
	}
	return v
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	var n int
	var err error
	switch len(s) {
	case 7:
		n, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
		if n != 3 && err == nil {
			err = errors.New("short color")
		}
	case 9:
		n, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
		if n != 4 && err == nil {
			err = errors.New("short color")
		}
	default:
		err = errors.New("expected #rrggbb or #rrggbbaa")
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "wave-overlay", "config.json")
}
