// Package report implements the stage that writes per-file results.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/vadecode/pkg/adapters/framesink"
	"github.com/user/vadecode/pkg/pipeline"
	"github.com/user/vadecode/pkg/ports"
)

// Options controls what the report stage writes.
type Options struct {
	// OutputDir receives <name>.stats.json and <name>.timeline.png. Nothing
	// is written when it is empty.
	OutputDir string
	// Timeline enables the PNG timeline.
	Timeline bool
	// TimelineFrames limits the frames drawn; 0 draws all of them.
	TimelineFrames int
}

// Stage writes the decode summary and timeline of a file.
type Stage struct {
	fs     ports.FileSystem
	debug  func(name string) ports.DebugSink
	opts   Options
	logger ports.Logger
}

// NewStage creates a new report stage. debug may be nil; when it returns an
// enabled sink the summary is saved there too.
func NewStage(fs ports.FileSystem, debug func(name string) ports.DebugSink, opts Options, logger ports.Logger) *Stage {
	return &Stage{fs: fs, debug: debug, opts: opts, logger: logger}
}

// BaseName returns the name used for the output files of path.
func BaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Execute writes the report files.
func (s *Stage) Execute(ctx context.Context, input pipeline.ReportInput) (pipeline.ReportResult, error) {
	var result pipeline.ReportResult
	if err := ctx.Err(); err != nil {
		return result, err
	}

	summary := pipeline.Summary{File: input.Name, Track: input.Info, Decode: input.Decode}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return result, fmt.Errorf("marshal summary: %w", err)
	}

	if s.debug != nil {
		if sink := s.debug(input.Name); sink != nil && sink.Enabled() {
			if err := sink.SaveSummaryJSON("summary", data); err != nil {
				s.logger.Warn("Failed to save debug buffer: %s", err)
			}
		}
	}

	if s.opts.OutputDir == "" {
		return result, nil
	}
	if err := s.fs.MkdirAll(s.opts.OutputDir); err != nil {
		return result, fmt.Errorf("create output dir: %w", err)
	}

	base := filepath.Join(s.opts.OutputDir, BaseName(input.Name))
	result.StatsPath = base + ".stats.json"
	if err := s.fs.WriteFile(result.StatsPath, data); err != nil {
		return result, fmt.Errorf("write stats: %w", err)
	}
	s.logger.Info("Saved stats to %s", result.StatsPath)

	if s.opts.Timeline && len(input.Decode.Frames) > 0 {
		png, err := framesink.RenderTimeline(input.Decode.Frames, framesink.TimelineOptions{
			Title:     fmt.Sprintf("%s  %s  %s", filepath.Base(input.Name), input.Decode.Codec, input.Decode.Factory),
			MaxFrames: s.opts.TimelineFrames,
		})
		if err != nil {
			return result, fmt.Errorf("render timeline: %w", err)
		}
		result.TimelinePath = base + ".timeline.png"
		if err := s.fs.WriteFile(result.TimelinePath, png); err != nil {
			return result, fmt.Errorf("write timeline: %w", err)
		}
		s.logger.Info("Saved timeline to %s", result.TimelinePath)
	}
	return result, nil
}
