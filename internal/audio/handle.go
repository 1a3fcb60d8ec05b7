package audio

import (
	"context"
	"errors"
	"sync"
)

var errHandleClosed = errors.New("audio stream closed")

// Handle owns an open Stream and makes sure it is started at most once and
// released at most once, whichever path tears it down first. Read and Close
// are serialized: blocking device APIs free the native stream on close, so
// Close waits for an in-flight Read to return.
type Handle struct {
	stream Stream
	device Device

	startOnce sync.Once
	startErr  error

	mu       sync.Mutex
	closed   bool
	closeErr error
}

// OpenHandle opens dev on h and wraps the resulting stream.
func OpenHandle(h Host, dev Device, chunkFrames int) (*Handle, error) {
	s, err := h.Open(dev, chunkFrames)
	if err != nil {
		return nil, err
	}
	return &Handle{stream: s, device: dev}, nil
}

// Device returns the endpoint the stream is bound to.
func (h *Handle) Device() Device {
	return h.device
}

// Start starts the stream; later calls return the first result.
func (h *Handle) Start() error {
	h.startOnce.Do(func() {
		h.startErr = h.stream.Start()
	})
	return h.startErr
}

// Read forwards to the stream until the handle is closed. Only one
// goroutine may read.
func (h *Handle) Read(ctx context.Context) ([]int16, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errHandleClosed
	}
	return h.stream.Read(ctx)
}

// Close stops and closes the stream exactly once. It blocks until a
// pending Read returns, so the reader's context should be cancelled first.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return h.closeErr
	}
	h.closed = true

	stopErr := h.stream.Stop()
	h.closeErr = errors.Join(stopErr, h.stream.Close())
	return h.closeErr
}
