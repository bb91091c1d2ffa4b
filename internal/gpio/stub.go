//go:build !linux

package gpio

import (
	"errors"
	"io"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealWatcher is not available on non-Linux platforms.
type RealWatcher struct{}

// NewRealWatcher returns a watcher whose Watch always fails.
func NewRealWatcher(chip string) *RealWatcher {
	return &RealWatcher{}
}

// Watch is not implemented on non-Linux platforms.
func (w *RealWatcher) Watch(cfg WatchConfig, h Handler) (io.Closer, error) {
	return nil, errUnsupported
}

// RealEmitter is not available on non-Linux platforms.
type RealEmitter struct{}

// NewRealEmitter returns an error on non-Linux platforms.
func NewRealEmitter(chip string, offset int) (*RealEmitter, error) {
	return nil, errUnsupported
}

// EmitPulses is not implemented on non-Linux platforms.
func (e *RealEmitter) EmitPulses(pulses []Pulse) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (e *RealEmitter) Close() error {
	return nil
}
