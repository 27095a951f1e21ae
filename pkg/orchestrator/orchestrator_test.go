package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/user/vadecode/pkg/adapters/codecdetect"
	"github.com/user/vadecode/pkg/adapters/mp4source"
	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/pipeline"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// mockDemuxStage returns an H.264 track for every path except those in errs.
type mockDemuxStage struct {
	errs  map[string]error
	codec map[string]ports.Codec
}

func (m *mockDemuxStage) Execute(ctx context.Context, input pipeline.DemuxInput) (pipeline.DemuxResult, error) {
	if err := m.errs[input.Path]; err != nil {
		return pipeline.DemuxResult{}, err
	}
	codec := ports.CodecH264
	if c, ok := m.codec[input.Path]; ok {
		codec = c
	}
	return pipeline.DemuxResult{Track: &mp4source.Track{
		Info:    codecdetect.Info{Codec: codec, SampleEntry: "avc1", Width: 128, Height: 96},
		Samples: make([]mp4source.Sample, 3),
	}}, nil
}

// mockDecodeStage outputs one frame per sample, or fails with err.
type mockDecodeStage struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (m *mockDecodeStage) Execute(ctx context.Context, input pipeline.DecodeInput) (pipeline.DecodeResult, error) {
	m.mu.Lock()
	m.names = append(m.names, input.Name)
	m.mu.Unlock()

	if input.Track.Info.Codec != ports.CodecH264 {
		return pipeline.DecodeResult{}, fmt.Errorf("%w: %s", mp4source.ErrUnsupportedCodec, input.Track.Info.Codec)
	}
	n := len(input.Track.Samples)
	result := pipeline.DecodeResult{
		Codec: input.Track.Info.Codec,
		Units: n,
		Stats: vadecode.Stats{Decoded: n, Output: n},
	}
	return result, m.err
}

// mockReportStage records the reports it was asked for.
type mockReportStage struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (m *mockReportStage) Execute(ctx context.Context, input pipeline.ReportInput) (pipeline.ReportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, input.Name)
	return pipeline.ReportResult{StatsPath: input.Name + ".stats.json"}, m.err
}

func TestOrchestrator_Run(t *testing.T) {
	decode := &mockDecodeStage{}
	report := &mockReportStage{}
	orch := New(&mockDemuxStage{}, decode, report, mocks.NewLogger())

	config := DefaultConfig()
	config.Files = []string{"clips/a.mp4", "clips/b.mp4", "clips/c.mp4"}

	result, err := orch.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Files) != 3 {
		t.Fatalf("expected 3 file results, got %d", len(result.Files))
	}
	for i, f := range result.Files {
		if f.Path != config.Files[i] {
			t.Errorf("result %d: expected path %s, got %s", i, config.Files[i], f.Path)
		}
		if f.Report.StatsPath != f.Path+".stats.json" {
			t.Errorf("result %d: expected report for %s, got %q", i, f.Path, f.Report.StatsPath)
		}
	}
	if result.Succeeded() != 3 {
		t.Errorf("expected 3 successes, got %d", result.Succeeded())
	}
	if got := result.Stats().Output; got != 9 {
		t.Errorf("expected 9 output frames in total, got %d", got)
	}
	if len(report.paths) != 3 {
		t.Errorf("expected 3 reports, got %d", len(report.paths))
	}
	for _, name := range decode.names {
		if name != "a.mp4" && name != "b.mp4" && name != "c.mp4" {
			t.Errorf("expected decode names without directory, got %s", name)
		}
	}
}

func TestOrchestrator_Run_DemuxFailure(t *testing.T) {
	demuxErr := errors.New("truncated moov")
	demux := &mockDemuxStage{errs: map[string]error{"bad.mp4": demuxErr}}
	report := &mockReportStage{}
	orch := New(demux, &mockDecodeStage{}, report, mocks.NewLogger())

	config := DefaultConfig()
	config.Files = []string{"bad.mp4", "good.mp4"}

	result, err := orch.Run(context.Background(), config)
	if !errors.Is(err, demuxErr) {
		t.Fatalf("expected demux error, got %v", err)
	}
	if result.Files[0].Err == nil {
		t.Error("expected bad.mp4 to fail")
	}
	if result.Files[1].Err != nil {
		t.Errorf("expected good.mp4 to succeed, got %v", result.Files[1].Err)
	}
	if len(report.paths) != 1 || report.paths[0] != "good.mp4" {
		t.Errorf("expected only good.mp4 to be reported, got %v", report.paths)
	}
}

func TestOrchestrator_Run_SkipsUnsupportedCodecs(t *testing.T) {
	demux := &mockDemuxStage{codec: map[string]ports.Codec{"vp9.mp4": ports.CodecVP9}}
	report := &mockReportStage{}
	orch := New(demux, &mockDecodeStage{}, report, mocks.NewLogger())

	config := DefaultConfig()
	config.Files = []string{"vp9.mp4"}

	result, err := orch.Run(context.Background(), config)
	if err != nil {
		t.Fatalf("expected skipped files not to fail the run, got %v", err)
	}
	if !result.Files[0].Skipped {
		t.Error("expected vp9.mp4 to be skipped")
	}
	if result.Succeeded() != 0 {
		t.Errorf("expected no successes, got %d", result.Succeeded())
	}
	if len(report.paths) != 0 {
		t.Errorf("expected no report for a skipped file, got %v", report.paths)
	}
}

func TestOrchestrator_Run_StreamFailureStillReports(t *testing.T) {
	streamErr := &vadecode.StreamError{FrameID: 2, Stage: "end picture", Err: errors.New("gpu hang")}
	report := &mockReportStage{}
	orch := New(&mockDemuxStage{}, &mockDecodeStage{err: streamErr}, report, mocks.NewLogger())

	config := DefaultConfig()
	config.Files = []string{"hang.mp4"}

	result, err := orch.Run(context.Background(), config)
	if !vadecode.IsFatal(err) {
		t.Fatalf("expected the stream error, got %v", err)
	}
	if len(report.paths) != 1 {
		t.Error("expected a partial decode to be reported")
	}
	if result.Files[0].Decode.Units != 3 {
		t.Errorf("expected decode result to be kept, got %+v", result.Files[0].Decode)
	}
}

func TestOrchestrator_Run_FailFast(t *testing.T) {
	demux := &mockDemuxStage{errs: map[string]error{"bad.mp4": errors.New("boom")}}
	decode := &mockDecodeStage{}
	orch := New(demux, decode, &mockReportStage{}, mocks.NewLogger())

	config := Config{Files: []string{"bad.mp4", "next.mp4"}, Workers: 1, FailFast: true}

	result, err := orch.Run(context.Background(), config)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(result.Files[1].Err, context.Canceled) {
		t.Errorf("expected next.mp4 to be cancelled, got %v", result.Files[1].Err)
	}
	if len(decode.names) != 0 {
		t.Errorf("expected nothing to be decoded, got %v", decode.names)
	}
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	orch := New(&mockDemuxStage{}, &mockDecodeStage{}, &mockReportStage{}, mocks.NewLogger())

	_, err := orch.Run(ctx, Config{Files: []string{"a.mp4"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOrchestrator_Run_ReportFailure(t *testing.T) {
	reportErr := errors.New("disk full")
	log := mocks.NewLogger()
	orch := New(&mockDemuxStage{}, &mockDecodeStage{}, &mockReportStage{err: reportErr}, log)

	result, err := orch.Run(context.Background(), Config{Files: []string{"a.mp4"}})
	if !errors.Is(err, reportErr) {
		t.Fatalf("expected report error, got %v", err)
	}
	if result.Succeeded() != 0 {
		t.Error("expected the file to count as failed")
	}
	if !log.Contains(ports.LevelError, "Failed to write report for a.mp4: disk full") {
		t.Errorf("expected a report error log, got %+v", log.Entries(ports.LevelError))
	}
	if log.Contains(ports.LevelError, "Failed to decode") {
		t.Error("a report failure must not be logged as a decode failure")
	}
}
