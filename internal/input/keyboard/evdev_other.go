//go:build !linux

package keyboard

import (
	"context"
	"errors"
)

// ErrEvdevUnsupported is returned by EvdevReader outside Linux.
var ErrEvdevUnsupported = errors.New("evdev input is only supported on linux")

// EvdevReader is unavailable on this platform.
type EvdevReader struct {
	paths []string
}

// NewEvdevReader creates a reader that always fails.
func NewEvdevReader(paths []string) *EvdevReader {
	return &EvdevReader{paths: paths}
}

// ReadKeys implements KeyReader.
func (r *EvdevReader) ReadKeys(ctx context.Context, h KeyHandler) error {
	return ErrEvdevUnsupported
}
