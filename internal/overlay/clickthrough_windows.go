//go:build windows

package overlay

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"golang.org/x/sys/windows"
)

const (
	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020
	lwaAlpha        = 0x00000002
)

var gwlExStyle int32 = -20

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procGetWindowLongPtrW          = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
)

// setClickThrough toggles WS_EX_TRANSPARENT so mouse input falls through
// to the windows underneath.
func setClickThrough(w *glfw.Window, enabled bool) error {
	hwnd := uintptr(unsafe.Pointer(w.GetWin32Window()))
	index := uintptr(gwlExStyle)

	style, _, _ := procGetWindowLongPtrW.Call(hwnd, index)
	style |= wsExLayered
	if enabled {
		style |= wsExTransparent
	} else {
		style &^= wsExTransparent
	}

	// A zero return is only a failure when the last error is set.
	if ret, _, err := procSetWindowLongPtrW.Call(hwnd, index, style); ret == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("SetWindowLongPtrW: %w", err)
	}
	if ret, _, err := procSetLayeredWindowAttributes.Call(hwnd, 0, 255, lwaAlpha); ret == 0 {
		return fmt.Errorf("SetLayeredWindowAttributes: %w", err)
	}
	return nil
}
