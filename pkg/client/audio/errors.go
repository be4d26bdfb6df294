package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

var (
	ErrPermissionDenied = errors.New("audio: microphone permission denied")
	ErrDeviceNotFound   = errors.New("audio: no microphone found")
	ErrDeviceBusy       = errors.New("audio: microphone is in use by another application")
	ErrCaptureClosed    = errors.New("audio: capture closed")
)

type DeviceErrorKind int

const (
	KindUnknown DeviceErrorKind = iota
	KindPermissionDenied
	KindNotFound
	KindBusy
)

func (k DeviceErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// DeviceError is a classified acquisition failure. Each kind carries a
// message telling the user what to do.
type DeviceError struct {
	Kind   DeviceErrorKind
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	switch e.Kind {
	case KindPermissionDenied:
		return fmt.Sprintf("microphone access to %s was denied; grant permission and try again", e.Device)
	case KindNotFound:
		return fmt.Sprintf("microphone %s was not found; connect a device and try again", e.Device)
	case KindBusy:
		return fmt.Sprintf("microphone %s is busy; close other applications using it", e.Device)
	default:
		return fmt.Sprintf("microphone %s failed: %v", e.Device, e.Err)
	}
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrDeviceBusy) match by kind.
func (e *DeviceError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrDeviceNotFound:
		return e.Kind == KindNotFound
	case ErrDeviceBusy:
		return e.Kind == KindBusy
	}
	return false
}

// ClassifyDeviceError maps an OS or driver error onto a DeviceError kind.
func ClassifyDeviceError(device string, err error) *DeviceError {
	if err == nil {
		return nil
	}
	var de *DeviceError
	if errors.As(err, &de) {
		return de
	}

	kind := KindUnknown
	switch {
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, fs.ErrPermission):
		kind = KindPermissionDenied
	case errors.Is(err, ErrDeviceNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENODEV):
		kind = KindNotFound
	case errors.Is(err, ErrDeviceBusy), errors.Is(err, syscall.EBUSY):
		kind = KindBusy
	}
	return &DeviceError{Kind: kind, Device: device, Err: err}
}
