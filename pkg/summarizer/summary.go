// Package summarizer provides summary generation for decode runs.
package summarizer

import (
	"time"

	"github.com/user/vadecode/pkg/orchestrator"
	"github.com/user/vadecode/pkg/vadecode"
)

// Summary contains all data collected during a decode run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	DurationMs  int64

	// Decoder settings
	Settings Settings

	// Per-file results in argument order
	Files []FileInfo

	// Totals over every file
	Totals vadecode.Stats
}

// Settings contains the decode configuration.
type Settings struct {
	Backend        string
	Device         string
	Implementation string
	Policy         string
	StaticPool     bool
	ExtraSurfaces  int
	Workers        int
}

// Status is the outcome of one file.
type Status string

// File outcomes.
const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// FileInfo contains the result of decoding one file.
type FileInfo struct {
	Path       string
	Codec      string
	Width      int
	Height     int
	Decoder    string
	Stats      vadecode.Stats
	DurationMs int64
	Status     Status
	Error      string
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSettings sets the decode settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithFile appends the result of one file and adds its counters to the totals.
func (b *Builder) WithFile(file FileInfo) *Builder {
	b.summary.Files = append(b.summary.Files, file)
	t := &b.summary.Totals
	t.Decoded += file.Stats.Decoded
	t.Dropped += file.Stats.Dropped
	t.Duplicated += file.Stats.Duplicated
	t.Output += file.Stats.Output
	t.Gaps += file.Stats.Gaps
	return b
}

// WithRun adds every file of an orchestrator run.
func (b *Builder) WithRun(result orchestrator.RunResult) *Builder {
	b.summary.DurationMs = result.DurationMs
	for _, f := range result.Files {
		b.WithFile(FileFromResult(f))
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

// FileFromResult converts the orchestrator result of one file.
func FileFromResult(f orchestrator.FileResult) FileInfo {
	info := FileInfo{
		Path:       f.Path,
		Codec:      string(f.Decode.Codec),
		Decoder:    f.Decode.Factory,
		Stats:      f.Decode.Stats,
		DurationMs: f.Decode.DurationMs,
		Status:     StatusOK,
	}
	// The last negotiated format is the one the stream ended with.
	if n := len(f.Decode.Formats); n > 0 {
		info.Width = f.Decode.Formats[n-1].DisplayWidth
		info.Height = f.Decode.Formats[n-1].DisplayHeight
	}
	switch {
	case f.Skipped:
		info.Status = StatusSkipped
	case f.Err != nil:
		info.Status = StatusFailed
		info.Error = f.Err.Error()
	}
	return info
}
