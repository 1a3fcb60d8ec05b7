package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// loopbackMarkers identify input endpoints that mirror a playback device:
// PulseAudio/PipeWire monitor sources and WASAPI-patched loopback inputs.
var loopbackMarkers = []string{"[Loopback]", "Loopback", "Monitor of"}

func isLoopbackName(name string) bool {
	for _, m := range loopbackMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

type portAudioHost struct{}

// NewPortAudio initializes PortAudio. Loopback endpoints must be exposed
// by the host API as input devices.
func NewPortAudio() (Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize PortAudio: %v", ErrLoopbackUnavailable, err)
	}
	return &portAudioHost{}, nil
}

func fromPortAudio(d *portaudio.DeviceInfo, isDefault bool) Device {
	channels := d.MaxInputChannels
	if channels == 0 {
		channels = d.MaxOutputChannels
	}
	return Device{
		Index:      d.Index,
		ID:         d.Name,
		Name:       d.Name,
		Channels:   channels,
		SampleRate: int(d.DefaultSampleRate),
		Loopback:   d.MaxInputChannels > 0 && isLoopbackName(d.Name),
		Default:    isDefault,
	}
}

func (p *portAudioHost) DefaultOutput() (Device, error) {
	out, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrLoopbackUnavailable, err)
	}
	return fromPortAudio(out, true), nil
}

func (p *portAudioHost) LoopbackDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		dev := fromPortAudio(d, false)
		if dev.Loopback {
			result = append(result, dev)
		}
	}
	return result, nil
}

func (p *portAudioHost) Open(dev Device, chunkFrames int) (Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	var info *portaudio.DeviceInfo
	for _, d := range devices {
		if d.Index == dev.Index && d.Name == dev.Name {
			info = d
			break
		}
	}
	if info == nil {
		return nil, fmt.Errorf("device not found: %s", dev)
	}

	buffer := make([]int16, chunkFrames*dev.Channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: dev.Channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(dev.SampleRate),
		FramesPerBuffer: chunkFrames,
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	return &portAudioStream{stream: stream, buffer: buffer}, nil
}

func (p *portAudioHost) Close() error {
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream *portaudio.Stream
	buffer []int16
}

func (s *portAudioStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	return nil
}

func (s *portAudioStream) Read(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, err
	}

	samples := make([]int16, len(s.buffer))
	copy(samples, s.buffer)
	return samples, nil
}

func (s *portAudioStream) Stop() error {
	return s.stream.Stop()
}

func (s *portAudioStream) Close() error {
	return s.stream.Close()
}
