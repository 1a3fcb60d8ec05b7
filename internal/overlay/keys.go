package overlay

import (
	"strconv"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/petems/wave-overlay/internal/hotkey"
)

var namedKeys = map[glfw.Key]string{
	glfw.KeyEscape:    "ESCAPE",
	glfw.KeyEnter:     "ENTER",
	glfw.KeySpace:     "SPACE",
	glfw.KeyTab:       "TAB",
	glfw.KeyBackspace: "BACKSPACE",
	glfw.KeyLeft:      "LEFT",
	glfw.KeyRight:     "RIGHT",
	glfw.KeyUp:        "UP",
	glfw.KeyDown:      "DOWN",
	glfw.KeyMinus:     "-",
	glfw.KeyEqual:     "=",
}

// keyName returns the name hotkey.Parse produces for key.
func keyName(key glfw.Key) (string, bool) {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return string(rune('A' + (key - glfw.KeyA))), true
	case key >= glfw.Key0 && key <= glfw.Key9:
		return string(rune('0' + (key - glfw.Key0))), true
	case key >= glfw.KeyF1 && key <= glfw.KeyF12:
		return "F" + strconv.Itoa(int(key-glfw.KeyF1)+1), true
	}
	name, ok := namedKeys[key]
	return name, ok
}

// isRepeatable reports whether holding key keeps firing. Only the arrows
// repeat so a held Q or W does not flicker.
func isRepeatable(key glfw.Key) bool {
	switch key {
	case glfw.KeyLeft, glfw.KeyRight, glfw.KeyUp, glfw.KeyDown:
		return true
	}
	return false
}

func modsFromGLFW(m glfw.ModifierKey) hotkey.Mod {
	var mods hotkey.Mod
	if m&glfw.ModShift != 0 {
		mods |= hotkey.ModShift
	}
	if m&glfw.ModControl != 0 {
		mods |= hotkey.ModCtrl
	}
	if m&glfw.ModAlt != 0 {
		mods |= hotkey.ModAlt
	}
	if m&glfw.ModSuper != 0 {
		mods |= hotkey.ModSuper
	}
	return mods
}
