// Package orchestrator coordinates the per-file pipeline stages.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/vadecode/pkg/adapters/mp4source"
	"github.com/user/vadecode/pkg/pipeline"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Files are the MP4 files to decode.
	Files []string
	// Workers is the number of files decoded at once; 0 uses the CPU count.
	Workers int
	// FailFast cancels the remaining files after the first failure.
	FailFast bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{Workers: 2}
}

// Orchestrator runs every file through demux, decode and report.
type Orchestrator struct {
	demuxStage  pipeline.Stage[pipeline.DemuxInput, pipeline.DemuxResult]
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult]
	reportStage pipeline.Stage[pipeline.ReportInput, pipeline.ReportResult]
	logger      ports.Logger
}

// New creates a new Orchestrator.
func New(
	demuxStage pipeline.Stage[pipeline.DemuxInput, pipeline.DemuxResult],
	decodeStage pipeline.Stage[pipeline.DecodeInput, pipeline.DecodeResult],
	reportStage pipeline.Stage[pipeline.ReportInput, pipeline.ReportResult],
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		demuxStage:  demuxStage,
		decodeStage: decodeStage,
		reportStage: reportStage,
		logger:      logger,
	}
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path   string
	Decode pipeline.DecodeResult
	Report pipeline.ReportResult
	// Skipped is set for files whose codec the decoder cannot be fed.
	Skipped bool
	Err     error
}

// RunResult contains the results of a run, in the order of Config.Files.
type RunResult struct {
	Files      []FileResult
	DurationMs int64
}

// Succeeded returns the number of files decoded without error.
func (r RunResult) Succeeded() int {
	n := 0
	for _, f := range r.Files {
		if f.Err == nil && !f.Skipped {
			n++
		}
	}
	return n
}

// Stats sums the decode statistics of every file.
func (r RunResult) Stats() vadecode.Stats {
	var total vadecode.Stats
	for _, f := range r.Files {
		s := f.Decode.Stats
		total.Decoded += s.Decoded
		total.Dropped += s.Dropped
		total.Duplicated += s.Duplicated
		total.Output += s.Output
		total.Gaps += s.Gaps
	}
	return total
}

// Run decodes every file. Per-file failures are recorded in the result and
// joined into the returned error; they stop other files only with FailFast.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	start := time.Now()
	result := RunResult{Files: make([]FileResult, len(config.Files))}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range config.Files {
		i, path := i, path
		g.Go(func() error {
			fr := o.runFile(gctx, path)
			result.Files[i] = fr
			if fr.Err != nil && config.FailFast {
				return fr.Err
			}
			return nil
		})
	}
	groupErr := g.Wait()
	result.DurationMs = time.Since(start).Milliseconds()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	var errs []error
	for _, f := range result.Files {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.Err))
		}
	}
	if groupErr != nil && len(errs) == 0 {
		errs = append(errs, groupErr)
	}
	o.logger.Info("Decoded %d of %d files", result.Succeeded(), len(config.Files))
	return result, errors.Join(errs...)
}

func (o *Orchestrator) runFile(ctx context.Context, path string) FileResult {
	fr := FileResult{Path: path}
	if err := ctx.Err(); err != nil {
		fr.Err = err
		return fr
	}
	name := filepath.Base(path)

	demuxed, err := o.demuxStage.Execute(ctx, pipeline.DemuxInput{Path: path})
	if err != nil {
		o.logger.Error("Failed to read %s: %s", name, err)
		fr.Err = fmt.Errorf("demux stage: %w", err)
		return fr
	}
	info := demuxed.Track.Info
	o.logger.Info("Decoding %s (%s, %dx%d)", name, info.SampleEntry, info.Width, info.Height)

	decoded, err := o.decodeStage.Execute(ctx, pipeline.DecodeInput{Name: name, Track: demuxed.Track})
	fr.Decode = decoded
	if err != nil {
		if isUnsupported(err) {
			o.logger.Warn("Skipping %s: %s", name, err)
			fr.Skipped = true
			return fr
		}
		o.logger.Error("Failed to decode %s: %s", name, err)
		fr.Err = fmt.Errorf("decode stage: %w", err)
		if decoded.Units == 0 || ctx.Err() != nil {
			return fr
		}
	} else {
		o.logger.Info("Decoded %s: %d frames output, %d dropped in %d ms",
			name, decoded.Stats.Output, decoded.Stats.Dropped, decoded.DurationMs)
	}

	report, err := o.reportStage.Execute(ctx, pipeline.ReportInput{Name: path, Info: info, Decode: decoded})
	fr.Report = report
	if err != nil && fr.Err == nil {
		o.logger.Error("Failed to write report for %s: %s", name, err)
		fr.Err = fmt.Errorf("report stage: %w", err)
	}
	return fr
}

// isUnsupported reports whether err means the file cannot be decoded here at
// all, as opposed to a decode that went wrong.
func isUnsupported(err error) bool {
	return errors.Is(err, mp4source.ErrUnsupportedCodec) || errors.Is(err, vadecode.ErrUnsupportedProfile)
}
