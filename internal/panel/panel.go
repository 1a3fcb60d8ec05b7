// Package panel lays out the scaling controls drawn over the waveform: a
// dropdown naming the selected parameter and a spinner editing its value.
package panel

import (
	"fmt"

	"github.com/petems/wave-overlay/internal/params"
)

// Rect is an axis-aligned box in window pixels.
type Rect struct {
	X, Y, W, H float32
}

// Contains reports whether (x, y) lies inside r, right and bottom edges
// excluded.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Action is what a click on the panel does.
type Action int

const (
	ActionNone Action = iota
	ActionCycle
	ActionDecrement
	ActionIncrement
)

const (
	rowHeight     = 24
	dropdownWidth = 180
	buttonWidth   = 24
	valueWidth    = 72
	gap           = 10
)

// Layout positions the widgets.
type Layout struct {
	Dropdown Rect
	Minus    Rect
	Value    Rect
	Plus     Rect
}

// NewLayout places the panel with its top-left corner at (x, y).
func NewLayout(x, y float32) Layout {
	minusX := x + dropdownWidth + gap
	return Layout{
		Dropdown: Rect{X: x, Y: y, W: dropdownWidth, H: rowHeight},
		Minus:    Rect{X: minusX, Y: y, W: buttonWidth, H: rowHeight},
		Value:    Rect{X: minusX + buttonWidth, Y: y, W: valueWidth, H: rowHeight},
		Plus:     Rect{X: minusX + buttonWidth + valueWidth, Y: y, W: buttonWidth, H: rowHeight},
	}
}

// DefaultLayout sits in the top-left corner of the overlay.
func DefaultLayout() Layout {
	return NewLayout(10, 10)
}

// Bounds is the smallest rect covering every widget.
func (l Layout) Bounds() Rect {
	return Rect{
		X: l.Dropdown.X,
		Y: l.Dropdown.Y,
		W: l.Plus.X + l.Plus.W - l.Dropdown.X,
		H: rowHeight,
	}
}

// Hit maps a click to an action.
func (l Layout) Hit(x, y float32) Action {
	switch {
	case l.Dropdown.Contains(x, y):
		return ActionCycle
	case l.Minus.Contains(x, y):
		return ActionDecrement
	case l.Plus.Contains(x, y):
		return ActionIncrement
	}
	return ActionNone
}

// Scroll maps a wheel movement over the spinner to a step count.
func (l Layout) Scroll(x, y float32, yoff float64) int {
	if !l.Value.Contains(x, y) && !l.Minus.Contains(x, y) && !l.Plus.Contains(x, y) {
		return 0
	}
	switch {
	case yoff > 0:
		return 1
	case yoff < 0:
		return -1
	}
	return 0
}

// DropdownLabel is the text shown in the dropdown box.
func DropdownLabel(e params.Entry) string {
	return e.Name + " v"
}

// ValueLabel formats a spinner value.
func ValueLabel(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
