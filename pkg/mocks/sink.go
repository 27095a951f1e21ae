package mocks

import (
	"sync"

	"github.com/user/vadecode/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Buffers   []SavedBuffer
	Summaries map[string][]byte
}

// SavedBuffer records a call to SaveBuffer.
type SavedBuffer struct {
	FrameID uint64
	Index   int
	Kind    ports.BufferType
	Data    []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:   enabled,
		Summaries: make(map[string][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveBuffer(frameID uint64, index int, kind ports.BufferType, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Buffers = append(m.Buffers, SavedBuffer{
		FrameID: frameID,
		Index:   index,
		Kind:    kind,
		Data:    append([]byte(nil), data...),
	})
	return nil
}

func (m *DebugSink) SaveSummaryJSON(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Summaries[name] = data
	return nil
}

// BuffersFor returns the saved buffers of one frame.
func (m *DebugSink) BuffersFor(frameID uint64) []SavedBuffer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []SavedBuffer
	for _, b := range m.Buffers {
		if b.FrameID == frameID {
			out = append(out, b)
		}
	}
	return out
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool { return false }
func (m *NullSink) SaveBuffer(frameID uint64, index int, kind ports.BufferType, data []byte) error {
	return nil
}
func (m *NullSink) SaveSummaryJSON(name string, data []byte) error { return nil }

var _ ports.DebugSink = (*NullSink)(nil)

// FrameSink is a mock implementation of ports.FrameSink. Frames are released
// as soon as they are recorded unless Hold is set.
type FrameSink struct {
	mu sync.Mutex

	Hold bool

	NegotiateFunc func(format ports.OutputFormat) error
	PushFrameFunc func(frame ports.OutputFrame) error

	// Recorded calls for verification
	Formats []ports.OutputFormat
	Frames  []ports.OutputFrame
}

func (m *FrameSink) Negotiate(format ports.OutputFormat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NegotiateFunc != nil {
		if err := m.NegotiateFunc(format); err != nil {
			return err
		}
	}
	m.Formats = append(m.Formats, format)
	return nil
}

func (m *FrameSink) PushFrame(frame ports.OutputFrame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PushFrameFunc != nil {
		if err := m.PushFrameFunc(frame); err != nil {
			return err
		}
	}
	m.Frames = append(m.Frames, frame)
	if !m.Hold {
		frame.Surface.Release()
	}
	return nil
}

// FrameIDs returns the ids of the pushed frames in output order.
func (m *FrameSink) FrameIDs() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint64, len(m.Frames))
	for i, f := range m.Frames {
		ids[i] = f.FrameID
	}
	return ids
}

// ReleaseAll releases every held frame.
func (m *FrameSink) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.Frames {
		f.Surface.Release()
	}
}

var _ ports.FrameSink = (*FrameSink)(nil)
