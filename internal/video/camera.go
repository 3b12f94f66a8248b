// Package video holds the camera device for the interview's video feed.
// The feed itself is rendered by the terminal frontend; this package only
// acquires and releases the device so failures surface before the first
// question instead of mid-answer.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
)

// DefaultDevice is the first V4L2 capture node on Linux.
const DefaultDevice = "/dev/video0"

// Camera owns one capture device handle for the session lifetime.
type Camera struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

// New creates a camera for the given device path; empty means the default
// device.
func New(path string, logger *slog.Logger) *Camera {
	if path == "" {
		path = DefaultDevice
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Camera{path: path, logger: logger}
}

// Acquire opens the device read-write. Failures are classified so the
// session can report an actionable message and continue without video.
func (c *Camera) Acquire(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file != nil {
		return nil
	}

	file, err := os.OpenFile(c.path, os.O_RDWR, 0)
	if err != nil {
		return classifyCameraError(c.path, err)
	}
	c.file = file
	c.logger.Info("camera acquired", "device", c.path)
	return nil
}

// Release closes the device. Safe to call repeatedly and without a prior
// successful Acquire.
func (c *Camera) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file == nil {
		return
	}
	if err := c.file.Close(); err != nil {
		c.logger.Warn("camera release failed", "device", c.path, "error", err.Error())
	} else {
		c.logger.Info("camera released", "device", c.path)
	}
	c.file = nil
}

// CameraError wraps a device acquisition failure with an actionable message.
type CameraError struct {
	Path string
	Err  error
}

func (e *CameraError) Error() string { return fmt.Sprintf("open camera %s: %v", e.Path, e.Err) }
func (e *CameraError) Unwrap() error { return e.Err }

func (e *CameraError) UserMessage() string {
	switch {
	case errors.Is(e.Err, os.ErrNotExist):
		return "No camera found. The interview continues without video."
	case errors.Is(e.Err, os.ErrPermission):
		return "Camera access was denied. Check video device permissions; the interview continues without video."
	case errors.Is(e.Err, syscall.EBUSY):
		return "Camera is in use by another application. The interview continues without video."
	default:
		return "Camera is unavailable. The interview continues without video."
	}
}

func classifyCameraError(path string, err error) error {
	return &CameraError{Path: path, Err: err}
}
