package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

const (
	fallbackChannels   = 2
	fallbackSampleRate = 48000

	// chunks buffered between the device callback and Read
	malgoQueueDepth = 8
)

// malgoHost captures through miniaudio's WASAPI loopback mode, where every
// playback endpoint can be recorded.
type malgoHost struct {
	ctx *malgo.AllocatedContext
}

// NewMalgo initializes a WASAPI-only miniaudio context.
func NewMalgo() (Host, error) {
	ctx, err := malgo.InitContext([]malgo.Backend{malgo.BackendWasapi}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoopbackUnavailable, err)
	}
	return &malgoHost{ctx: ctx}, nil
}

func (m *malgoHost) playbackDevices() ([]Device, []malgo.DeviceInfo, error) {
	infos, err := m.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate playback devices: %w", err)
	}

	devices := make([]Device, len(infos))
	for i := range infos {
		info := &infos[i]
		dev := Device{
			Index:      i,
			ID:         info.ID.String(),
			Name:       info.Name(),
			Channels:   fallbackChannels,
			SampleRate: fallbackSampleRate,
			Loopback:   true,
			Default:    info.IsDefault != 0,
		}
		// Enumeration leaves the native formats empty; ask for them.
		if full, err := m.ctx.DeviceInfo(malgo.Playback, info.ID, malgo.Shared); err == nil && full.FormatCount > 0 {
			f := full.Formats[0]
			if f.Channels > 0 {
				dev.Channels = int(f.Channels)
			}
			if f.SampleRate > 0 {
				dev.SampleRate = int(f.SampleRate)
			}
		}
		devices[i] = dev
	}
	return devices, infos, nil
}

func (m *malgoHost) DefaultOutput() (Device, error) {
	devices, _, err := m.playbackDevices()
	if err != nil {
		return Device{}, err
	}
	if len(devices) == 0 {
		return Device{}, fmt.Errorf("%w: no playback devices", ErrLoopbackUnavailable)
	}
	for _, d := range devices {
		if d.Default {
			return d, nil
		}
	}
	return devices[0], nil
}

func (m *malgoHost) LoopbackDevices() ([]Device, error) {
	devices, _, err := m.playbackDevices()
	return devices, err
}

func (m *malgoHost) Open(dev Device, chunkFrames int) (Stream, error) {
	_, infos, err := m.playbackDevices()
	if err != nil {
		return nil, err
	}

	var id *malgo.DeviceID
	for i := range infos {
		if infos[i].ID.String() == dev.ID {
			id = &infos[i].ID
			break
		}
	}
	if id == nil {
		return nil, fmt.Errorf("device not found: %s", dev)
	}

	s := &malgoStream{
		channels:    dev.Channels,
		chunkFrames: chunkFrames,
		chunks:      make(chan []int16, malgoQueueDepth),
		done:        make(chan struct{}),
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Loopback)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(dev.Channels)
	cfg.Capture.DeviceID = id.Pointer()
	cfg.SampleRate = uint32(dev.SampleRate)
	cfg.PeriodSizeInFrames = uint32(chunkFrames)

	device, err := malgo.InitDevice(m.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: s.onData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open loopback device: %w", err)
	}
	s.device = device
	return s, nil
}

func (m *malgoHost) Close() error {
	err := m.ctx.Uninit()
	m.ctx.Free()
	return err
}

type malgoStream struct {
	device      *malgo.Device
	channels    int
	chunkFrames int

	pending []int16
	chunks  chan []int16

	closeOnce sync.Once
	done      chan struct{}
}

// onData runs on miniaudio's thread. Full chunks are queued; when the
// reader falls behind they are dropped.
func (s *malgoStream) onData(_, input []byte, frameCount uint32) {
	n := int(frameCount) * s.channels
	if n*2 > len(input) {
		n = len(input) / 2
	}
	for i := 0; i < n; i++ {
		s.pending = append(s.pending, int16(binary.LittleEndian.Uint16(input[i*2:])))
	}

	size := s.chunkFrames * s.channels
	for len(s.pending) >= size {
		chunk := make([]int16, size)
		copy(chunk, s.pending)
		s.pending = append(s.pending[:0], s.pending[size:]...)

		select {
		case s.chunks <- chunk:
		default:
		}
	}
}

func (s *malgoStream) Start() error {
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start loopback device: %w", err)
	}
	return nil
}

func (s *malgoStream) Read(ctx context.Context) ([]int16, error) {
	select {
	case chunk := <-s.chunks:
		return chunk, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, errors.New("loopback stream closed")
	}
}

func (s *malgoStream) Stop() error {
	return s.device.Stop()
}

func (s *malgoStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.device.Uninit()
	})
	return nil
}
