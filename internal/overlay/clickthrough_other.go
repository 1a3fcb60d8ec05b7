//go:build !windows

package overlay

import (
	"errors"

	"github.com/go-gl/glfw/v3.3/glfw"
)

var errClickThroughUnsupported = errors.New("click-through is only supported on Windows")

func setClickThrough(_ *glfw.Window, _ bool) error {
	return errClickThroughUnsupported
}
