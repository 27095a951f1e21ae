// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"github.com/user/vadecode/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveBuffer does nothing.
func (s *Sink) SaveBuffer(frameID uint64, index int, kind ports.BufferType, data []byte) error {
	return nil
}

// SaveSummaryJSON does nothing.
func (s *Sink) SaveSummaryJSON(name string, data []byte) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
