// Package framesink provides downstream consumers for decoded pictures.
package framesink

import (
	"fmt"
	"sync"

	"github.com/user/vadecode/pkg/ports"
)

// Record is what a Collector keeps of one output frame.
type Record struct {
	FrameID     uint64          `json:"frame_id"`
	TimestampMs int             `json:"timestamp_ms"`
	DurationMs  int             `json:"duration_ms"`
	DecodeIndex int             `json:"decode_index"`
	OutputIndex int             `json:"output_index"`
	Surface     ports.SurfaceID `json:"surface"`
	Duplicate   bool            `json:"duplicate,omitempty"`
}

// Syncer waits until decoding into a surface has finished.
type Syncer interface {
	SyncSurface(surface ports.SurfaceID) error
}

// Collector is a ports.FrameSink that records every frame and releases its
// surface straight away.
type Collector struct {
	mu sync.Mutex

	syncer  Syncer
	formats []ports.OutputFormat
	records []Record
}

// NewCollector creates a Collector. A non-nil syncer is waited on before each
// surface is released.
func NewCollector(syncer Syncer) *Collector {
	return &Collector{syncer: syncer}
}

// Negotiate records the output format.
func (c *Collector) Negotiate(format ports.OutputFormat) error {
	if format.DisplayWidth <= 0 || format.DisplayHeight <= 0 {
		return fmt.Errorf("framesink: invalid display size %dx%d", format.DisplayWidth, format.DisplayHeight)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.formats = append(c.formats, format)
	return nil
}

// PushFrame records the frame and releases its surface.
func (c *Collector) PushFrame(frame ports.OutputFrame) error {
	defer frame.Surface.Release()

	c.mu.Lock()
	negotiated := len(c.formats) > 0
	c.mu.Unlock()
	if !negotiated {
		return fmt.Errorf("framesink: frame %d pushed before negotiation", frame.FrameID)
	}

	id := frame.Surface.ID()
	if c.syncer != nil {
		if err := c.syncer.SyncSurface(id); err != nil {
			return fmt.Errorf("sync surface %d: %w", id, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, Record{
		FrameID:     frame.FrameID,
		TimestampMs: frame.TimestampMs,
		DurationMs:  frame.Duration,
		DecodeIndex: frame.DecodeIndex,
		OutputIndex: frame.OutputIndex,
		Surface:     id,
		Duplicate:   frame.Duplicate,
	})
	return nil
}

// Formats returns the negotiated formats in order.
func (c *Collector) Formats() []ports.OutputFormat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ports.OutputFormat(nil), c.formats...)
}

// Records returns the recorded frames in output order.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

// Ensure Collector implements ports.FrameSink
var _ ports.FrameSink = (*Collector)(nil)
