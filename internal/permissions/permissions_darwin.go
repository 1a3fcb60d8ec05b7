//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation
#import <AVFoundation/AVFoundation.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

// CheckMicrophone returns the current audio input permission status.
// Loopback drivers on macOS appear as input devices, so reading them needs
// the same grant as a microphone.
func CheckMicrophone() int {
	return int(C.checkMicrophonePermission())
}

// RequestMicrophone triggers the system permission dialog
func RequestMicrophone() {
	C.requestMicrophonePermission()
}

// EnsureCapture checks audio input access, prompting when it has never
// been asked for.
func EnsureCapture() error {
	status := CheckMicrophone()
	if status == PermissionNotDetermined {
		RequestMicrophone()
	}
	return statusError(status)
}
