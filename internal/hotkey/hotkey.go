package hotkey

import (
	"fmt"
	"strings"
	"sync"
)

// Manager defines the interface for hotkey management
type Manager interface {
	Register(accel string, callback func(pressed bool)) error
	Unregister(accel string) error
	Close() error
}

// Mod is a set of modifier keys.
type Mod int

const (
	ModShift Mod = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

var modNames = map[string]Mod{
	"shift":   ModShift,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"super":   ModSuper,
	"win":     ModSuper,
	"cmd":     ModSuper,
	"meta":    ModSuper,
}

var keyAliases = map[string]string{
	"esc":    "ESCAPE",
	"return": "ENTER",
	"spc":    "SPACE",
}

// Accel is a parsed accelerator such as "Ctrl+Q".
type Accel struct {
	Key  string // upper case key name, e.g. "Q", "F1", "ESCAPE"
	Mods Mod
}

func (a Accel) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Mod
		name string
	}{{ModCtrl, "Ctrl"}, {ModAlt, "Alt"}, {ModShift, "Shift"}, {ModSuper, "Super"}} {
		if a.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, a.Key), "+")
}

// Parse reads "Key" or "Mod+...+Key", case-insensitively.
func Parse(accel string) (Accel, error) {
	fields := strings.Split(accel, "+")
	var a Accel

	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return Accel{}, fmt.Errorf("invalid accelerator %q", accel)
		}
		lower := strings.ToLower(f)

		if i < len(fields)-1 {
			mod, ok := modNames[lower]
			if !ok {
				return Accel{}, fmt.Errorf("unknown modifier %q in %q", f, accel)
			}
			a.Mods |= mod
			continue
		}

		if _, ok := modNames[lower]; ok {
			return Accel{}, fmt.Errorf("accelerator %q has no key", accel)
		}
		if alias, ok := keyAliases[lower]; ok {
			a.Key = alias
		} else {
			a.Key = strings.ToUpper(f)
		}
	}
	return a, nil
}

// Table is a Manager fed by the overlay window's key events rather than a
// system-wide grab, so the keys only act while the overlay has focus.
type Table struct {
	mu       sync.Mutex
	bindings map[Accel]func(bool)
	closed   bool
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{bindings: make(map[Accel]func(bool))}
}

func (t *Table) Register(accel string, callback func(pressed bool)) error {
	a, err := Parse(accel)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("hotkey table closed")
	}
	if _, exists := t.bindings[a]; exists {
		return fmt.Errorf("%s is already bound", a)
	}
	t.bindings[a] = callback
	return nil
}

func (t *Table) Unregister(accel string) error {
	a, err := Parse(accel)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bindings, a)
	return nil
}

// Dispatch runs the callback bound to key+mods and reports whether one was
// found. Callbacks run outside the table lock.
func (t *Table) Dispatch(key string, mods Mod, pressed bool) bool {
	t.mu.Lock()
	cb, ok := t.bindings[Accel{Key: strings.ToUpper(key), Mods: mods}]
	if t.closed {
		ok = false
	}
	t.mu.Unlock()

	if ok {
		cb(pressed)
	}
	return ok
}

func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.bindings = make(map[Accel]func(bool))
	return nil
}
