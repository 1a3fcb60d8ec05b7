package audio

import "fmt"

const (
	BackendMalgo     = "malgo"
	BackendPortAudio = "portaudio"
)

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendMalgo, BackendPortAudio}
}

// NewHost initializes the named capture backend.
func NewHost(backend string) (Host, error) {
	switch backend {
	case "", BackendMalgo:
		return NewMalgo()
	case BackendPortAudio:
		return NewPortAudio()
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}
