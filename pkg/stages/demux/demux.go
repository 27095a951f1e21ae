// Package demux implements the MP4 demux stage.
package demux

import (
	"context"
	"fmt"

	"github.com/user/vadecode/pkg/adapters/mp4source"
	"github.com/user/vadecode/pkg/pipeline"
	"github.com/user/vadecode/pkg/ports"
)

// Stage reads the video track of an MP4 file.
type Stage struct {
	fs ports.FileSystem
}

// NewStage creates a new demux stage.
func NewStage(fs ports.FileSystem) *Stage {
	return &Stage{fs: fs}
}

// Execute opens the file and demuxes its first video track.
func (s *Stage) Execute(ctx context.Context, input pipeline.DemuxInput) (pipeline.DemuxResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.DemuxResult{}, err
	}

	f, err := s.fs.Open(input.Path)
	if err != nil {
		return pipeline.DemuxResult{}, fmt.Errorf("open %s: %w", input.Path, err)
	}
	defer f.Close()

	track, err := mp4source.Demux(f)
	if err != nil {
		return pipeline.DemuxResult{}, fmt.Errorf("demux %s: %w", input.Path, err)
	}
	if len(track.Samples) == 0 {
		return pipeline.DemuxResult{}, fmt.Errorf("demux %s: no samples", input.Path)
	}
	return pipeline.DemuxResult{Track: track}, nil
}
