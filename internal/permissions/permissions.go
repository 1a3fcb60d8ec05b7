// Package permissions checks the OS privacy settings that gate audio capture.
package permissions

import (
	"errors"
	"fmt"
)

// ErrCaptureDenied means the user has refused audio input access.
var ErrCaptureDenied = errors.New("audio capture permission not granted")

const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

// statusError maps an authorization status to an error. An undetermined
// status is an error too: the prompt is asynchronous and capture would
// deliver silence until it is answered.
func statusError(status int) error {
	switch status {
	case PermissionAuthorized:
		return nil
	case PermissionNotDetermined:
		return fmt.Errorf("%w: answer the system prompt and restart", ErrCaptureDenied)
	case PermissionRestricted:
		return fmt.Errorf("%w: restricted by policy", ErrCaptureDenied)
	default:
		return fmt.Errorf("%w: enable it under System Settings > Privacy & Security > Microphone", ErrCaptureDenied)
	}
}
