package audio

import (
	"errors"
	"strings"
	"syscall"
)

// DeviceErrorKind classifies capture failures into the cases a candidate
// can act on.
type DeviceErrorKind int

const (
	DeviceUnknown DeviceErrorKind = iota
	DeviceNotFound
	DevicePermissionDenied
	DeviceBusy
)

// DeviceError wraps a device-level capture failure with its classification
// and an actionable message.
type DeviceError struct {
	Kind DeviceErrorKind
	Err  error
}

func (e *DeviceError) Error() string { return e.Err.Error() }
func (e *DeviceError) Unwrap() error { return e.Err }

func (e *DeviceError) UserMessage() string {
	switch e.Kind {
	case DeviceNotFound:
		return "No usable microphone found. Connect one or fix the audio.input setting."
	case DevicePermissionDenied:
		return "Microphone access was denied. Check audio permissions for this session."
	case DeviceBusy:
		return "Microphone is in use by another application. Close it and press speak again."
	default:
		return "Microphone capture failed. Run `viva doctor` to diagnose audio setup."
	}
}

// classifyDeviceError wraps errno-level failures from the Pulse transport;
// anything it cannot classify passes through unchanged.
func classifyDeviceError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return &DeviceError{Kind: DevicePermissionDenied, Err: err}
	case errors.Is(err, syscall.ENOENT), errors.Is(err, syscall.ENODEV):
		return &DeviceError{Kind: DeviceNotFound, Err: err}
	case errors.Is(err, syscall.EBUSY):
		return &DeviceError{Kind: DeviceBusy, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied"), strings.Contains(msg, "permission"):
		return &DeviceError{Kind: DevicePermissionDenied, Err: err}
	case strings.Contains(msg, "no such entity"), strings.Contains(msg, "not found"):
		return &DeviceError{Kind: DeviceNotFound, Err: err}
	case strings.Contains(msg, "busy"):
		return &DeviceError{Kind: DeviceBusy, Err: err}
	}
	return err
}
