package vadecode

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/ports"
)

// testUnit is a coded picture of a minimal codec with up to four references.
type testUnit struct {
	Frame
	seq          *OutputInfo
	slices       int
	refs         []FrameRef
	showExisting bool
	existing     FrameRef
	sliceErr     error
}

func (u *testUnit) HasSequence() bool { return u.seq != nil }
func (u *testUnit) SliceCount() int   { return u.slices }

type testDriver struct {
	base *Base
}

func (d *testDriver) Base() *Base { return d.base }

func (d *testDriver) NewSequence(u *testUnit) error {
	if !d.base.Session().HasProfile(u.seq.Profile) {
		return ErrUnsupportedProfile
	}
	d.base.Configure(*u.seq)
	return nil
}

func (d *testDriver) NewPicture(u *testUnit) (*Picture, error) {
	if u.showExisting {
		return d.base.DuplicatePicture(u.existing, u.ID)
	}
	return d.base.AllocatePicture(u.ID)
}

func (d *testDriver) StartPicture(pic *Picture, u *testUnit) error {
	if pic.IsDuplicate() {
		return nil
	}
	w := NewRefWindow[testMeta](4, pic, d.base.Policy())
	for i, ref := range u.refs {
		if err := w.Resolve(i, d.base.Store(), ref, testMeta{poc: i}); err != nil {
			return err
		}
	}
	var params []byte
	for _, id := range w.Surfaces() {
		params = binary.LittleEndian.AppendUint32(params, uint32(id))
	}
	return pic.AddParamBuffer(ports.BufferPictureParameter, params)
}

func (d *testDriver) DecodeSlice(pic *Picture, u *testUnit, index int) error {
	if u.sliceErr != nil && index == u.slices-1 {
		return u.sliceErr
	}
	return pic.AddSliceBuffer([]byte{byte(index)}, []byte{0, 0, 1, byte(index)})
}

func (d *testDriver) EndPicture(pic *Picture, u *testUnit) error {
	if pic.IsDuplicate() {
		return nil
	}
	return d.base.Submit(pic)
}

type streamFixture struct {
	accel  *mocks.Accelerator
	sink   *mocks.FrameSink
	logger *mocks.Logger
	driver *testDriver
	stream *Stream[*testUnit]
}

func newStreamFixture(t *testing.T, opts Options) *streamFixture {
	t.Helper()
	accel := mocks.NewAccelerator(ports.ProfileHEVCMain, ports.ProfileHEVCMain10)
	sink := &mocks.FrameSink{}
	logger := mocks.NewLogger()
	driver := &testDriver{base: NewBase(ports.CodecH265, accel, sink, logger, opts)}
	return &streamFixture{
		accel:  accel,
		sink:   sink,
		logger: logger,
		driver: driver,
		stream: NewStream[*testUnit](driver),
	}
}

// hd is a 1080p sequence coded as 1088 lines.
func hd(minBuffers int) *OutputInfo {
	return &OutputInfo{
		Format:        Format{Profile: testProfile, RTFormat: testRT, Width: 1920, Height: 1088},
		DisplayWidth:  1920,
		DisplayHeight: 1080,
		MinBuffers:    minBuffers,
	}
}

func (f *streamFixture) decode(t *testing.T, u *testUnit) error {
	t.Helper()
	return f.stream.Decode(context.Background(), u)
}

func TestStream_OutputsInListedOrder(t *testing.T) {
	f := newStreamFixture(t, Options{})

	// decode order 0, 2, 1; display order 0, 1, 2
	units := []*testUnit{
		{Frame: Frame{ID: 0, Output: []uint64{0}}, seq: hd(4), slices: 2},
		{Frame: Frame{ID: 2}, slices: 1, refs: []FrameRef{Ref(0)}},
		{Frame: Frame{ID: 1, Output: []uint64{1, 2}, Release: []uint64{0, 1, 2}}, slices: 1, refs: []FrameRef{Ref(0), Ref(2)}},
	}
	for _, u := range units {
		if err := f.decode(t, u); err != nil {
			t.Fatalf("Decode frame %d failed: %v", u.ID, err)
		}
	}

	got := f.sink.FrameIDs()
	want := []uint64{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected output %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("output %d: expected frame %d, got %d", i, want[i], got[i])
		}
		if f.sink.Frames[i].OutputIndex != i {
			t.Errorf("output %d: unexpected output index %d", i, f.sink.Frames[i].OutputIndex)
		}
	}
	if f.sink.Frames[2].DecodeIndex != 1 {
		t.Errorf("frame 2 was decoded second, got decode index %d", f.sink.Frames[2].DecodeIndex)
	}

	stats := f.stream.Stats()
	if stats.Decoded != 3 || stats.Output != 3 || stats.Dropped != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if len(f.sink.Formats) != 1 {
		t.Fatalf("expected one negotiation, got %d", len(f.sink.Formats))
	}
	format := f.sink.Formats[0]
	if format.FourCC != "NV12" || format.DisplayHeight != 1080 || format.CodedHeight != 1088 {
		t.Errorf("unexpected negotiated format %+v", format)
	}
	if f.driver.base.Store().Len() != 0 {
		t.Errorf("expected every picture released, %d stored", f.driver.base.Store().Len())
	}
	if f.accel.LiveBuffers() != 0 {
		t.Errorf("expected no live buffers, got %d", f.accel.LiveBuffers())
	}
}

func TestStream_ReopensOnFormatChange(t *testing.T) {
	f := newStreamFixture(t, Options{})

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 0, Release: []uint64{0}}, seq: hd(2), slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	uhd := &OutputInfo{Format: Format{Profile: testProfile, RTFormat: testRT, Width: 3840, Height: 2160}, MinBuffers: 2}
	if err := f.driver.NewSequence(&testUnit{seq: uhd}); err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	if f.driver.base.Session().ConfigIsEqual(testProfile, testRT, 3840, 2160) {
		t.Fatal("the new configuration should not be open yet")
	}
	if f.accel.Count("DestroyContext") != 0 {
		t.Fatal("a new sequence must not reopen the session by itself")
	}

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 1, Output: []uint64{1}, Release: []uint64{1}}, slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if f.accel.Count("DestroyContext") != 1 || f.accel.Count("DestroyConfig") != 1 {
		t.Error("expected the old context and config to be destroyed")
	}
	if len(f.accel.ContextCalls) != 2 {
		t.Fatalf("expected 2 contexts, got %d", len(f.accel.ContextCalls))
	}
	if ctx := f.accel.ContextCalls[1]; ctx.Width != 3840 || ctx.Height != 2160 {
		t.Errorf("expected a 3840x2160 context, got %dx%d", ctx.Width, ctx.Height)
	}
	if len(f.sink.Formats) != 2 || f.sink.Formats[1].DisplayWidth != 3840 {
		t.Errorf("expected renegotiation to 3840 wide output, got %+v", f.sink.Formats)
	}
}

func TestStream_SameSequenceDoesNotRenegotiate(t *testing.T) {
	f := newStreamFixture(t, Options{})

	for id := uint64(0); id < 3; id++ {
		u := &testUnit{Frame: Frame{ID: id, Output: []uint64{id}, Release: []uint64{id}}, seq: hd(2), slices: 1}
		if err := f.decode(t, u); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
	}
	if len(f.sink.Formats) != 1 || f.accel.Count("CreateConfig") != 1 {
		t.Errorf("expected a single negotiation, got %d formats and %d configs",
			len(f.sink.Formats), f.accel.Count("CreateConfig"))
	}
}

func TestStream_MissingReferenceSubstitutesCurrent(t *testing.T) {
	f := newStreamFixture(t, Options{Policy: MissingRefCurrent})

	for id := uint64(0); id < 3; id++ {
		u := &testUnit{Frame: Frame{ID: id}, slices: 1}
		if id == 0 {
			u.seq = hd(4)
		}
		if err := f.decode(t, u); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
	}

	u := &testUnit{Frame: Frame{ID: 3}, slices: 1, refs: []FrameRef{Ref(0), Ref(1), Ref(2), Ref(77)}}
	if err := f.decode(t, u); err != nil {
		t.Fatalf("Decode with a missing reference failed: %v", err)
	}

	current := f.accel.BeginCalls[len(f.accel.BeginCalls)-1]
	pp, _ := f.accel.LastBuffer(ports.BufferPictureParameter)
	if got := ports.SurfaceID(binary.LittleEndian.Uint32(pp.Data[12:])); got != current {
		t.Errorf("expected slot 3 to hold the current surface %d, got %d", current, got)
	}
	if got := ports.SurfaceID(binary.LittleEndian.Uint32(pp.Data[0:])); got == current || got == ports.InvalidSurface {
		t.Errorf("slot 0 should hold frame 0's own surface, got %d", got)
	}
	if f.accel.EndCalls != 4 {
		t.Errorf("expected the picture to be submitted, got %d EndPicture calls", f.accel.EndCalls)
	}
}

func TestStream_MissingReferenceFailDropsPicture(t *testing.T) {
	f := newStreamFixture(t, Options{Policy: MissingRefFail})

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, seq: hd(2), slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	err := f.decode(t, &testUnit{Frame: Frame{ID: 1, Output: []uint64{0, 1}}, slices: 2, refs: []FrameRef{Ref(9)}})

	var pe *PictureError
	if !errors.As(err, &pe) || pe.FrameID != 1 {
		t.Fatalf("expected a PictureError for frame 1, got %v", err)
	}
	if !errors.Is(err, ErrMissingReference) || IsFatal(err) {
		t.Errorf("expected a non-fatal missing reference, got %v", err)
	}
	if got := f.sink.FrameIDs(); len(got) != 1 || got[0] != 0 {
		t.Errorf("expected frame 0 output and a gap for frame 1, got %v", got)
	}
	stats := f.stream.Stats()
	if stats.Dropped != 1 || stats.Gaps != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if !f.logger.Contains(ports.LevelWarn, "Dropped frame 1") {
		t.Error("expected the drop to be logged as a warning")
	}

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 2}, slices: 1, refs: []FrameRef{Ref(0)}}); err != nil {
		t.Errorf("decoding should continue after a dropped picture: %v", err)
	}
}

func TestStream_SliceFailureFreesPicture(t *testing.T) {
	f := newStreamFixture(t, Options{})

	err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, seq: hd(0), slices: 3, sliceErr: errors.New("truncated slice")})
	if err == nil || IsFatal(err) {
		t.Fatalf("expected a picture error, got %v", err)
	}
	if f.accel.LiveBuffers() != 0 {
		t.Errorf("expected no live buffers, got %d", f.accel.LiveBuffers())
	}
	if pool := f.driver.base.Pool(); pool.Available() != pool.Size() {
		t.Errorf("expected every surface back, %d of %d available", pool.Available(), pool.Size())
	}
	if f.accel.Count("BeginPicture") != 0 {
		t.Error("a failed picture must not be submitted")
	}
}

func TestStream_SubmitFailureIsPictureScoped(t *testing.T) {
	f := newStreamFixture(t, Options{})
	f.accel.EndPictureFunc = func() error { return errors.New("VA_STATUS_ERROR_DECODING_ERROR") }

	err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, seq: hd(2), slices: 1})
	if !errors.Is(err, ErrDriver) || IsFatal(err) {
		t.Fatalf("expected a non-fatal driver error, got %v", err)
	}

	f.accel.EndPictureFunc = nil
	if err := f.decode(t, &testUnit{Frame: Frame{ID: 1}, slices: 1}); err != nil {
		t.Errorf("next picture should decode: %v", err)
	}
}

func TestStream_AllocationFailureIsPictureScoped(t *testing.T) {
	f := newStreamFixture(t, Options{ExtraSurfaces: 1})

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, seq: hd(1), slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := f.decode(t, &testUnit{Frame: Frame{ID: 1}, slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	err := f.decode(t, &testUnit{Frame: Frame{ID: 2}, slices: 1})
	if !errors.Is(err, ErrAllocation) || IsFatal(err) {
		t.Fatalf("expected a non-fatal ErrAllocation, got %v", err)
	}

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 3, Release: []uint64{0}}, slices: 1}); !errors.Is(err, ErrAllocation) {
		t.Fatalf("expected ErrAllocation until a picture is released, got %v", err)
	}
	if err := f.decode(t, &testUnit{Frame: Frame{ID: 4}, slices: 1}); err != nil {
		t.Errorf("expected a surface after the release: %v", err)
	}
}

func TestStream_UnsupportedProfileIsFatal(t *testing.T) {
	f := newStreamFixture(t, Options{})
	av1 := &OutputInfo{Format: Format{Profile: ports.ProfileAV1Profile0, RTFormat: testRT, Width: 640, Height: 480}}

	err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, seq: av1, slices: 1})
	if !IsFatal(err) || !errors.Is(err, ErrUnsupportedProfile) {
		t.Fatalf("expected a fatal unsupported profile, got %v", err)
	}

	err = f.decode(t, &testUnit{Frame: Frame{ID: 1}, seq: hd(2), slices: 1})
	if !errors.Is(err, ErrStreamFailed) {
		t.Fatalf("expected ErrStreamFailed after a fatal error, got %v", err)
	}
	if f.stream.Failed() == nil {
		t.Error("expected the stream to report its failure")
	}

	if err := f.stream.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if err := f.decode(t, &testUnit{Frame: Frame{ID: 2}, seq: hd(2), slices: 1}); err != nil {
		t.Errorf("decoding should resume after Reset: %v", err)
	}
}

func TestStream_PictureBeforeSequenceIsFatal(t *testing.T) {
	f := newStreamFixture(t, Options{})

	err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, slices: 1})
	if !IsFatal(err) || !errors.Is(err, ErrNoSequence) {
		t.Errorf("expected a fatal ErrNoSequence, got %v", err)
	}
}

func TestStream_NegotiationFailureIsFatal(t *testing.T) {
	f := newStreamFixture(t, Options{})
	f.sink.NegotiateFunc = func(ports.OutputFormat) error { return errors.New("format refused") }

	err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, seq: hd(2), slices: 1})
	var se *StreamError
	if !errors.As(err, &se) || se.Stage != "new picture" {
		t.Fatalf("expected a StreamError in new picture, got %v", err)
	}
}

func TestStream_ContextOpenFailureIsFatal(t *testing.T) {
	f := newStreamFixture(t, Options{})
	f.accel.CreateContextFunc = func(int, int, []ports.SurfaceID) error {
		return errors.New("VA_STATUS_ERROR_RESOLUTION_NOT_SUPPORTED")
	}

	err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, seq: hd(2), slices: 1})
	if !IsFatal(err) || !errors.Is(err, ErrDriver) {
		t.Errorf("expected a fatal driver error, got %v", err)
	}
}

func TestStream_ShowExistingDuplicates(t *testing.T) {
	f := newStreamFixture(t, Options{})

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 0, Output: []uint64{0}}, seq: hd(2), slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	show := &testUnit{Frame: Frame{ID: 1, Output: []uint64{1}, Release: []uint64{0, 1}}, showExisting: true, existing: Ref(0)}
	if err := f.decode(t, show); err != nil {
		t.Fatalf("Decode of show-existing frame failed: %v", err)
	}

	if len(f.sink.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(f.sink.Frames))
	}
	first, second := f.sink.Frames[0], f.sink.Frames[1]
	if first.Surface.ID() != second.Surface.ID() || !second.Duplicate {
		t.Errorf("expected the second frame to redisplay surface %d, got %+v", first.Surface.ID(), second)
	}
	if f.accel.Count("BeginPicture") != 1 {
		t.Error("a duplicate picture is not submitted")
	}
	if f.stream.Stats().Duplicated != 1 {
		t.Errorf("expected 1 duplicate, got %+v", f.stream.Stats())
	}
	if pool := f.driver.base.Pool(); pool.Available() != pool.Size() {
		t.Errorf("expected every surface back, %d of %d available", pool.Available(), pool.Size())
	}

	err := f.decode(t, &testUnit{Frame: Frame{ID: 2}, showExisting: true, existing: Ref(0)})
	if !errors.Is(err, ErrMissingReference) || IsFatal(err) {
		t.Errorf("expected a dropped duplicate of a released frame, got %v", err)
	}
}

func TestStream_ConsumerHoldsSurfaces(t *testing.T) {
	f := newStreamFixture(t, Options{ExtraSurfaces: 2})
	f.sink.Hold = true

	for id := uint64(0); id < 2; id++ {
		u := &testUnit{Frame: Frame{ID: id, Output: []uint64{id}, Release: []uint64{id}}, slices: 1}
		if id == 0 {
			u.seq = hd(0)
		}
		if err := f.decode(t, u); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
	}
	if err := f.decode(t, &testUnit{Frame: Frame{ID: 2}, slices: 1}); !errors.Is(err, ErrAllocation) {
		t.Fatalf("expected ErrAllocation while the consumer holds every surface, got %v", err)
	}

	f.sink.ReleaseAll()
	if err := f.decode(t, &testUnit{Frame: Frame{ID: 3}, slices: 1}); err != nil {
		t.Errorf("expected a surface after the consumer released: %v", err)
	}
}

func TestStream_PushFailureReleasesSurface(t *testing.T) {
	f := newStreamFixture(t, Options{})
	f.sink.PushFrameFunc = func(ports.OutputFrame) error { return errors.New("consumer gone") }

	err := f.decode(t, &testUnit{Frame: Frame{ID: 0, Output: []uint64{0}, Release: []uint64{0}}, seq: hd(2), slices: 1})
	var pe *PictureError
	if !errors.As(err, &pe) || pe.Stage != "output" {
		t.Fatalf("expected an output PictureError, got %v", err)
	}
	if pool := f.driver.base.Pool(); pool.Available() != pool.Size() {
		t.Errorf("expected the refused surface back in the pool, %d of %d available", pool.Available(), pool.Size())
	}
}

func TestStream_CloseReleasesEverything(t *testing.T) {
	f := newStreamFixture(t, Options{})

	for id := uint64(0); id < 3; id++ {
		u := &testUnit{Frame: Frame{ID: id}, slices: 1}
		if id == 0 {
			u.seq = hd(2)
		}
		if err := f.decode(t, u); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
	}
	if err := f.stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if f.driver.base.Store().Len() != 0 {
		t.Error("expected an empty store after Close")
	}
	if f.accel.Count("DestroySurfaces") != 1 || f.accel.Count("DestroyContext") != 1 || f.accel.Count("DestroyConfig") != 1 {
		t.Errorf("expected surfaces, context and config destroyed, calls: %v", f.accel.Calls)
	}
}

func TestStream_CanceledContext(t *testing.T) {
	f := newStreamFixture(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.stream.Decode(ctx, &testUnit{Frame: Frame{ID: 0}, seq: hd(2), slices: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if f.stream.Failed() != nil {
		t.Error("cancellation does not fail the stream")
	}
}

func TestBase_StaticPoolBindsSurfaces(t *testing.T) {
	f := newStreamFixture(t, Options{StaticPool: true, ExtraSurfaces: 3})

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, seq: hd(5), slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := len(f.accel.ContextCalls[0].Surfaces); got != 8 {
		t.Errorf("expected 8 surfaces bound to the context, got %d", got)
	}
}

func TestBase_ResizeInPlaceKeepsContext(t *testing.T) {
	f := newStreamFixture(t, Options{})
	base := f.driver.base

	if err := base.ResizeInPlace(640, 480); !errors.Is(err, ErrNoContext) {
		t.Fatalf("expected ErrNoContext before the first picture, got %v", err)
	}
	if err := f.decode(t, &testUnit{Frame: Frame{ID: 0, Release: []uint64{0}}, seq: hd(2), slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if err := base.ResizeInPlace(1280, 720); err != nil {
		t.Fatalf("ResizeInPlace failed: %v", err)
	}
	if !base.NeedsNegotiation() {
		t.Error("expected output renegotiation to be pending")
	}
	if err := f.decode(t, &testUnit{Frame: Frame{ID: 1}, slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if f.accel.Count("CreateContext") != 1 || f.accel.Count("DestroyContext") != 0 {
		t.Error("an in-place resize must keep the context")
	}
	if len(f.sink.Formats) != 2 || f.sink.Formats[1].DisplayWidth != 1280 {
		t.Errorf("expected renegotiation to 1280x720, got %+v", f.sink.Formats)
	}
	if !base.Pool().Matches(testRT, 1920, 1088) || f.accel.Count("CreateSurfaces") != 1 {
		t.Error("surfaces that fit the context should be kept")
	}
}

func TestBase_ResizeBeyondContextReopens(t *testing.T) {
	f := newStreamFixture(t, Options{})
	base := f.driver.base

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 0, Release: []uint64{0}}, seq: hd(2), slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := base.ResizeInPlace(3840, 2176); err != nil {
		t.Fatalf("ResizeInPlace failed: %v", err)
	}
	if err := f.decode(t, &testUnit{Frame: Frame{ID: 1}, slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if f.accel.Count("CreateContext") != 2 {
		t.Fatalf("expected a new context for a larger frame, got %d", f.accel.Count("CreateContext"))
	}
	if call := f.accel.ContextCalls[1]; call.Width != 3840 || call.Height != 2176 {
		t.Errorf("expected a 3840x2176 context, got %dx%d", call.Width, call.Height)
	}
	if !base.Pool().Matches(testRT, 3840, 2176) {
		t.Error("expected surfaces of the new context size")
	}
}

func TestBase_ConfigureReplacesPendingTarget(t *testing.T) {
	f := newStreamFixture(t, Options{})
	base := f.driver.base

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 0, Release: []uint64{0}}, seq: hd(2), slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	main10 := *hd(2)
	main10.Profile = ports.ProfileHEVCMain10
	main10.RTFormat = ports.RTFormatYUV420_10
	if !base.Configure(main10) {
		t.Fatal("a new profile should make negotiation pending")
	}
	if base.Configure(*hd(2)) {
		t.Error("returning to the open configuration should cancel the pending negotiation")
	}
	if base.Target().Profile != testProfile {
		t.Errorf("expected the latest sequence as target, got %s", base.Target().Profile)
	}

	if err := f.decode(t, &testUnit{Frame: Frame{ID: 1}, slices: 1}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	session := base.Session()
	if session.Profile() != testProfile || session.RTFormat() != testRT {
		t.Errorf("session reopened as %s/%s", session.Profile(), session.RTFormat())
	}
	if f.accel.Count("CreateConfig") != 1 || len(f.sink.Formats) != 1 {
		t.Errorf("expected no renegotiation, got %d configs and %d formats", f.accel.Count("CreateConfig"), len(f.sink.Formats))
	}
}

func TestBase_RejectsSizeOutsideCaps(t *testing.T) {
	f := newStreamFixture(t, Options{})
	f.accel.Attributes.MaxWidth = 1280
	f.accel.Attributes.MaxHeight = 720

	err := f.decode(t, &testUnit{Frame: Frame{ID: 0}, seq: hd(2), slices: 1})
	if !IsFatal(err) {
		t.Errorf("expected a fatal error for a size beyond the caps, got %v", err)
	}
}
