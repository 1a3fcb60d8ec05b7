package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoopbackUnavailable means the host audio system cannot capture
	// its own output.
	ErrLoopbackUnavailable = errors.New("loopback capture is not available on this system")
	// ErrNoLoopbackDevice means no loopback endpoint matches the default output.
	ErrNoLoopbackDevice = errors.New("default loopback output device not found")
)

// Device describes an audio endpoint.
type Device struct {
	Index      int
	ID         string
	Name       string
	Channels   int
	SampleRate int
	Loopback   bool
	Default    bool
}

func (d Device) String() string {
	return fmt.Sprintf("(%d)%s", d.Index, d.Name)
}

// Host is the platform audio subsystem.
type Host interface {
	// DefaultOutput returns the default playback device.
	DefaultOutput() (Device, error)
	// LoopbackDevices lists every endpoint that can capture playback.
	LoopbackDevices() ([]Device, error)
	// Open prepares a capture stream delivering chunkFrames frames per read.
	Open(dev Device, chunkFrames int) (Stream, error)
	Close() error
}

// Stream is an open capture stream producing interleaved signed 16-bit
// frames. Overflows are dropped silently.
type Stream interface {
	Start() error
	// Read blocks until the next chunk is available or ctx is done.
	Read(ctx context.Context) ([]int16, error)
	Stop() error
	Close() error
}

// Resolve picks the loopback endpoint for the default output. When the
// default output is not loopback-capable itself, the first loopback device
// whose name contains the output's name wins. A non-empty match replaces
// the output's name as the search key.
func Resolve(h Host, match string) (Device, error) {
	out, err := h.DefaultOutput()
	if err != nil {
		return Device{}, err
	}
	if match == "" && out.Loopback {
		return out, nil
	}

	key := out.Name
	if match != "" {
		key = match
	}

	devices, err := h.LoopbackDevices()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if strings.Contains(d.Name, key) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %q", ErrNoLoopbackDevice, key)
}

// Downmix averages interleaved frames into one sample per frame. Mono input
// is copied.
func Downmix(in []int16, channels int) []int16 {
	if channels <= 1 {
		out := make([]int16, len(in))
		copy(out, in)
		return out
	}

	frames := len(in) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += int(in[i*channels+ch])
		}
		out[i] = int16(sum / channels)
	}
	return out
}
