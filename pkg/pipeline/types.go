package pipeline

import (
	"github.com/user/vadecode/pkg/adapters/codecdetect"
	"github.com/user/vadecode/pkg/adapters/framesink"
	"github.com/user/vadecode/pkg/adapters/mp4source"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// =============================================================================
// Demux Stage Types
// =============================================================================

// DemuxInput names the file to demux.
type DemuxInput struct {
	Path string
}

// DemuxResult is the video track of the file.
type DemuxResult struct {
	Track *mp4source.Track
}

// =============================================================================
// Decode Stage Types
// =============================================================================

// DecodeInput is one track to decode. Name identifies the file in logs and
// debug output.
type DecodeInput struct {
	Name  string
	Track *mp4source.Track
}

// DecodeResult describes what the decoder did with a track.
type DecodeResult struct {
	Codec   ports.Codec    `json:"codec"`
	Factory string         `json:"factory"`
	Policy  string         `json:"missing_ref_policy"`
	Units   int            `json:"units"`
	Stats   vadecode.Stats `json:"stats"`
	// Failed is the error that ended the stream early, if any.
	Failed     string               `json:"failed,omitempty"`
	Formats    []ports.OutputFormat `json:"formats"`
	Frames     []framesink.Record   `json:"frames"`
	DurationMs int64                `json:"duration_ms"`
}

// =============================================================================
// Report Stage Types
// =============================================================================

// ReportInput is a finished decode to report on.
type ReportInput struct {
	Name   string
	Info   codecdetect.Info
	Decode DecodeResult
}

// ReportResult lists the files the report stage wrote.
type ReportResult struct {
	StatsPath    string
	TimelinePath string
}

// Summary is the per-file document written by the report stage.
type Summary struct {
	File   string           `json:"file"`
	Track  codecdetect.Info `json:"track"`
	Decode DecodeResult     `json:"decode"`
}
