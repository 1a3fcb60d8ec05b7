package params

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

const (
	HorizontalScaling = "Horizontal Scaling"
	VerticalScaling   = "Vertical Scaling"

	MinScaling  = 0.01
	MaxScaling  = 5.00
	ScalingStep = 0.025
)

var ErrUnknownParam = errors.New("unknown parameter")

// Spec declares one bounded parameter.
type Spec struct {
	Name    string
	Min     float64
	Max     float64
	Step    float64
	Default float64
}

// Entry is a parameter with its current value.
type Entry struct {
	Spec
	Value float64
}

// Set holds the scaling parameters edited from the control panel. Exactly
// one parameter is selected at any time and every value stays within its
// bounds.
type Set struct {
	mu       sync.Mutex
	entries  []Entry
	selected int
}

// DefaultSpecs returns the overlay's parameters in panel order.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: HorizontalScaling, Min: MinScaling, Max: MaxScaling, Step: ScalingStep, Default: 0.05},
		{Name: VerticalScaling, Min: MinScaling, Max: MaxScaling, Step: ScalingStep, Default: 1.0},
	}
}

// New builds a set from specs, selecting the first. It panics on an empty
// list since the selection invariant could not hold.
func New(specs ...Spec) *Set {
	if len(specs) == 0 {
		panic("params: at least one parameter is required")
	}
	s := &Set{entries: make([]Entry, len(specs))}
	for i, sp := range specs {
		s.entries[i] = Entry{Spec: sp, Value: clamp(sp.Default, sp.Min, sp.Max)}
	}
	return s
}

// NewDefault is New(DefaultSpecs()...).
func NewDefault() *Set {
	return New(DefaultSpecs()...)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *Set) indexLocked(name string) (int, error) {
	for i := range s.entries {
		if s.entries[i].Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownParam, name)
}

// Value returns the current value of name.
func (s *Set) Value(name string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexLocked(name)
	if err != nil {
		return 0, err
	}
	return s.entries[i].Value, nil
}

// Set stores v for name, clamped to its bounds, and returns the stored value.
func (s *Set) Set(name string, v float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexLocked(name)
	if err != nil {
		return 0, err
	}
	e := &s.entries[i]
	e.Value = clamp(v, e.Min, e.Max)
	return e.Value, nil
}

// Select makes name the selected parameter.
func (s *Set) Select(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexLocked(name)
	if err != nil {
		return err
	}
	s.selected = i
	return nil
}

// SelectIndex selects by panel position; out-of-range indices are ignored.
func (s *Set) SelectIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.entries) {
		s.selected = i
	}
}

// Cycle moves the selection by delta, wrapping around.
func (s *Set) Cycle(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.selected = ((s.selected+delta)%n + n) % n
}

// Selected returns the selected entry.
func (s *Set) Selected() Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[s.selected]
}

// SelectedIndex returns the panel position of the selected entry.
func (s *Set) SelectedIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Step moves the selected value by n steps and returns the new value.
func (s *Set) Step(n int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &s.entries[s.selected]
	v := e.Value + float64(n)*e.Step
	// Keep repeated steps from accumulating float error.
	v = math.Round(v*1e6) / 1e6
	e.Value = clamp(v, e.Min, e.Max)
	return e.Value
}

// Entries returns a copy of all parameters in panel order.
func (s *Set) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
