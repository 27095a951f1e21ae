// Package decode implements the hardware decode stage.
package decode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/vadecode/pkg/adapters/framesink"
	"github.com/user/vadecode/pkg/adapters/mp4source"
	"github.com/user/vadecode/pkg/codecs/h264"
	"github.com/user/vadecode/pkg/pipeline"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// DebugSinkFunc returns the debug sink for one file, or nil for none.
type DebugSinkFunc func(name string) ports.DebugSink

// Stage decodes a demuxed track on an accelerator.
type Stage struct {
	accel    ports.Accelerator
	registry *vadecode.Registry
	opts     vadecode.Options
	debug    DebugSinkFunc
	logger   ports.Logger
}

// NewStage creates a new decode stage. The accelerator is shared by every
// file; each file gets its own session on it.
func NewStage(accel ports.Accelerator, registry *vadecode.Registry, opts vadecode.Options, debug DebugSinkFunc, logger ports.Logger) *Stage {
	return &Stage{
		accel:    accel,
		registry: registry,
		opts:     opts,
		debug:    debug,
		logger:   logger,
	}
}

// Execute decodes every unit of the track. Dropped pictures are counted in the
// result; a failed stream ends decoding and is reported in Failed together with
// a non-nil error.
func (s *Stage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	codec := input.Track.Info.Codec
	result := pipeline.DecodeResult{Codec: codec, Policy: s.opts.Policy.String()}

	factory, ok := s.registry.Best(codec)
	if !ok {
		return result, fmt.Errorf("%w: no decoder for %q", vadecode.ErrUnsupportedProfile, codec)
	}
	result.Factory = factory.Name

	log := s.logger.WithComponent(input.Name)
	units, err := mp4source.H264Units(input.Track, log)
	if err != nil {
		return result, err
	}
	result.Units = len(units)
	log.Info("Using %s on %s (%s policy)", factory.Name, factory.Device.Name(), s.opts.Policy)

	opts := s.opts
	if s.debug != nil {
		if sink := s.debug(input.Name); sink != nil {
			opts.Debug = sink
		}
	}

	var syncer framesink.Syncer
	if sy, ok := s.accel.(framesink.Syncer); ok {
		syncer = sy
	}
	collector := framesink.NewCollector(syncer)
	stream := h264.NewStream(s.accel, collector, log, opts)

	start := time.Now()
	runErr := s.run(ctx, stream, units)
	closeErr := stream.Close()

	result.Stats = stream.Stats()
	result.Formats = collector.Formats()
	result.Frames = collector.Records()
	result.DurationMs = time.Since(start).Milliseconds()
	if runErr != nil {
		if vadecode.IsFatal(runErr) {
			result.Failed = runErr.Error()
		}
		return result, runErr
	}
	if closeErr != nil {
		return result, fmt.Errorf("close stream: %w", closeErr)
	}
	return result, nil
}

func (s *Stage) run(ctx context.Context, stream *vadecode.Stream[*h264.Unit], units []*h264.Unit) error {
	for _, u := range units {
		err := stream.Decode(ctx, u)
		if err == nil {
			continue
		}
		var perr *vadecode.PictureError
		if errors.As(err, &perr) {
			continue
		}
		return err
	}
	return nil
}
