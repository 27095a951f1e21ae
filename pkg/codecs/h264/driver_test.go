package h264

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// hdSPS is a progressive 1080p high profile sequence coded as 1088 lines.
func hdSPS() *SPS {
	return &SPS{
		ProfileIDC:                ProfileIDCHigh,
		LevelIDC:                  40,
		ChromaFormatIDC:           1,
		PicWidthInMbsMinus1:       119,
		PicHeightInMapUnitsMinus1: 67,
		FrameMbsOnly:              true,
		Direct8x8Inference:        true,
		NumRefFrames:              4,
		FrameCropping:             true,
		FrameCropBottom:           4,
	}
}

// interlacedSPS is 1080i: 34 map units of field pairs.
func interlacedSPS() *SPS {
	sps := hdSPS()
	sps.FrameMbsOnly = false
	sps.PicHeightInMapUnitsMinus1 = 33
	sps.FrameCropBottom = 2
	return sps
}

type fixture struct {
	accel  *mocks.Accelerator
	sink   *mocks.FrameSink
	stream *vadecode.Stream[*Unit]
	driver *Driver
}

func newFixture(t *testing.T, opts vadecode.Options, profiles ...ports.Profile) *fixture {
	t.Helper()
	if len(profiles) == 0 {
		profiles = []ports.Profile{ports.ProfileH264Main, ports.ProfileH264High}
	}
	accel := mocks.NewAccelerator(profiles...)
	sink := &mocks.FrameSink{}
	driver := New(accel, sink, mocks.NewLogger(), opts)
	return &fixture{
		accel:  accel,
		sink:   sink,
		stream: vadecode.NewStream[*Unit](driver),
		driver: driver,
	}
}

func (f *fixture) decode(t *testing.T, u *Unit) error {
	t.Helper()
	return f.stream.Decode(context.Background(), u)
}

func readPictureParams(t *testing.T, data []byte) pictureParams {
	t.Helper()
	var pp pictureParams
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &pp); err != nil {
		t.Fatalf("failed to read picture parameters: %v", err)
	}
	return pp
}

func readSliceParams(t *testing.T, data []byte) sliceParams {
	t.Helper()
	var sp sliceParams
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &sp); err != nil {
		t.Fatalf("failed to read slice parameters: %v", err)
	}
	return sp
}

func slice(data ...byte) Slice {
	return Slice{Header: SliceHeader{SliceType: SliceI, HeaderBits: 27}, Data: data}
}

func TestCandidateProfiles(t *testing.T) {
	tests := []struct {
		name string
		sps  SPS
		want []ports.Profile
	}{
		{"constrained baseline", SPS{ProfileIDC: ProfileIDCBaseline, ConstraintSet1: true},
			[]ports.Profile{ports.ProfileH264ConstrainedBaseline, ports.ProfileH264Main, ports.ProfileH264High}},
		{"baseline", SPS{ProfileIDC: ProfileIDCBaseline}, []ports.Profile{ports.ProfileH264ConstrainedBaseline}},
		{"main", SPS{ProfileIDC: ProfileIDCMain}, []ports.Profile{ports.ProfileH264Main, ports.ProfileH264High}},
		{"extended", SPS{ProfileIDC: ProfileIDCExtended}, nil},
		{"high", SPS{ProfileIDC: ProfileIDCHigh}, []ports.Profile{ports.ProfileH264High}},
		{"high 10", SPS{ProfileIDC: ProfileIDCHigh10}, []ports.Profile{ports.ProfileH264High10}},
		{"stereo high", SPS{ProfileIDC: ProfileIDCStereoHigh}, []ports.Profile{ports.ProfileH264StereoHigh, ports.ProfileH264High}},
		{"high 4:4:4", SPS{ProfileIDC: ProfileIDCHigh444}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := candidateProfiles(&tt.sps)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("candidate %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestSelectProfile_FallsBackToSuperset(t *testing.T) {
	accel := mocks.NewAccelerator(ports.ProfileH264Main, ports.ProfileH264High)
	session := vadecode.NewSession(accel, mocks.NewLogger())

	got, err := selectProfile(session, &SPS{ProfileIDC: ProfileIDCBaseline, ConstraintSet1: true})
	if err != nil {
		t.Fatalf("selectProfile failed: %v", err)
	}
	if got != ports.ProfileH264Main {
		t.Errorf("expected %s, got %s", ports.ProfileH264Main, got)
	}

	_, err = selectProfile(session, &SPS{ProfileIDC: ProfileIDCBaseline})
	if !errors.Is(err, vadecode.ErrUnsupportedProfile) {
		t.Errorf("expected ErrUnsupportedProfile for unconstrained baseline, got %v", err)
	}
}

func TestOutputInfo(t *testing.T) {
	tests := []struct {
		name                  string
		sps                   *SPS
		codedH, displayH, min int
		interlaced            bool
	}{
		{"progressive", hdSPS(), 1088, 1080, 5, false},
		{"interlaced", interlacedSPS(), 1088, 1080, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := outputInfo(tt.sps, ports.ProfileH264High)
			if err != nil {
				t.Fatalf("outputInfo failed: %v", err)
			}
			if out.Width != 1920 || out.Height != tt.codedH {
				t.Errorf("expected coded 1920x%d, got %dx%d", tt.codedH, out.Width, out.Height)
			}
			if out.DisplayWidth != 1920 || out.DisplayHeight != tt.displayH {
				t.Errorf("expected display 1920x%d, got %dx%d", tt.displayH, out.DisplayWidth, out.DisplayHeight)
			}
			if out.MinBuffers != tt.min || out.Interlaced != tt.interlaced {
				t.Errorf("unexpected output %+v", out)
			}
			if out.RTFormat != ports.RTFormatYUV420 {
				t.Errorf("expected YUV420, got %s", out.RTFormat)
			}
		})
	}
}

func TestOutputInfo_RejectsOvercropping(t *testing.T) {
	sps := hdSPS()
	sps.FrameCropBottom = 600
	if _, err := outputInfo(sps, ports.ProfileH264High); err == nil {
		t.Error("expected an error when cropping removes the whole picture")
	}
}

func TestDriver_IntraThenPredicted(t *testing.T) {
	f := newFixture(t, vadecode.Options{})

	idr := &Unit{
		Frame:   vadecode.Frame{ID: 0, Output: []uint64{0}},
		SPS:     hdSPS(),
		Picture: PictureHeader{IDR: true, Reference: true, EntropyCodingMode: true},
		Slices:  []Slice{slice(0x65, 0x88, 0x84)},
	}
	if err := f.decode(t, idr); err != nil {
		t.Fatalf("Decode IDR failed: %v", err)
	}

	p := &Unit{
		Frame:   vadecode.Frame{ID: 1, Output: []uint64{1}, Release: []uint64{0, 1}},
		Picture: PictureHeader{FrameNum: 1, Reference: true, TopPOC: 2, BottomPOC: 2},
		DPB:     []DPBEntry{{Ref: vadecode.Ref(0), TopField: true, BottomField: true}},
		Slices: []Slice{{
			Header: SliceHeader{SliceType: SliceP + 5, HeaderBits: 31, RefPicList0: []ListEntry{{DPBIndex: 0}}},
			Data:   []byte{0x41, 0x9a, 0x02},
		}},
	}
	if err := f.decode(t, p); err != nil {
		t.Fatalf("Decode P failed: %v", err)
	}

	if len(f.accel.BeginCalls) != 2 {
		t.Fatalf("expected 2 submitted pictures, got %d", len(f.accel.BeginCalls))
	}
	idrSurface, pSurface := f.accel.BeginCalls[0], f.accel.BeginCalls[1]

	pics := f.accel.BuffersOfKind(ports.BufferPictureParameter)
	pp := readPictureParams(t, pics[1].Data)
	if ports.SurfaceID(pp.CurrPic.PictureID) != pSurface || pp.CurrPic.Flags != picShortTermRef {
		t.Errorf("unexpected current picture %+v", pp.CurrPic)
	}
	if ref := pp.ReferenceFrames[0]; ports.SurfaceID(ref.PictureID) != idrSurface || ref.Flags != picShortTermRef {
		t.Errorf("expected the IDR surface %d as a short-term reference, got %+v", idrSurface, ref)
	}
	for i := 1; i < maxReferenceFrames; i++ {
		if pp.ReferenceFrames[i].PictureID != ports.InvalidID || pp.ReferenceFrames[i].Flags != picInvalid {
			t.Errorf("reference %d should be invalid, got %+v", i, pp.ReferenceFrames[i])
		}
	}
	if pp.PictureWidthInMbsMinus1 != 119 || pp.PictureHeightInMbsMinus1 != 67 || pp.FrameNum != 1 {
		t.Errorf("unexpected picture size or frame number: %+v", pp)
	}
	if want := uint32(1 | 1<<4 | 1<<6 | 1<<7); pp.SeqFields != want {
		t.Errorf("expected seq fields %#x, got %#x", want, pp.SeqFields)
	}

	iq, _ := f.accel.LastBuffer(ports.BufferIQMatrix)
	for i, b := range iq.Data[:224] {
		if b != 16 {
			t.Fatalf("expected a flat matrix, byte %d is %d", i, b)
		}
	}

	sliceBufs := f.accel.BuffersOfKind(ports.BufferSliceParameter)
	sp := readSliceParams(t, sliceBufs[1].Data)
	if sp.SliceType != SliceP || sp.SliceDataBitOffset != 31 || sp.SliceDataSize != 3 {
		t.Errorf("unexpected slice parameters: type %d offset %d size %d", sp.SliceType, sp.SliceDataBitOffset, sp.SliceDataSize)
	}
	if ports.SurfaceID(sp.RefPicList0[0].PictureID) != idrSurface {
		t.Errorf("expected RefPicList0[0] to be the IDR surface, got %d", sp.RefPicList0[0].PictureID)
	}
	if sp.RefPicList0[1].Flags != picInvalid || sp.RefPicList1[0].Flags != picInvalid {
		t.Error("unused list entries should be invalid")
	}
	data, _ := f.accel.LastBuffer(ports.BufferSliceData)
	if !bytes.Equal(data.Data, []byte{0x41, 0x9a, 0x02}) {
		t.Errorf("unexpected slice data %x", data.Data)
	}

	if got := f.sink.FrameIDs(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("expected frames 0 and 1 output, got %v", got)
	}
	format := f.sink.Formats[0]
	if format.Profile != ports.ProfileH264High || format.DisplayHeight != 1080 || format.CodedHeight != 1088 {
		t.Errorf("unexpected format %+v", format)
	}
	if f.accel.LiveBuffers() != 0 {
		t.Errorf("expected no live buffers, got %d", f.accel.LiveBuffers())
	}
}

func TestDriver_SecondFieldSharesSurface(t *testing.T) {
	f := newFixture(t, vadecode.Options{})

	top := &Unit{
		Frame:   vadecode.Frame{ID: 0},
		SPS:     interlacedSPS(),
		Picture: PictureHeader{IDR: true, Reference: true, Field: true},
		Slices:  []Slice{slice(0x65)},
	}
	bottom := &Unit{
		Frame: vadecode.Frame{ID: 0, Output: []uint64{0}, Release: []uint64{0}},
		Picture: PictureHeader{
			Reference:   true,
			Field:       true,
			BottomField: true,
			SecondField: true,
			FirstField:  vadecode.Ref(0),
			BottomPOC:   1,
		},
		DPB: []DPBEntry{{Ref: vadecode.Ref(0), TopField: true}},
		Slices: []Slice{{
			Header: SliceHeader{SliceType: SliceP, RefPicList0: []ListEntry{{DPBIndex: 0}}},
			Data:   []byte{0x41},
		}},
	}
	for _, u := range []*Unit{top, bottom} {
		if err := f.decode(t, u); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
	}

	if len(f.accel.BeginCalls) != 2 || f.accel.BeginCalls[0] != f.accel.BeginCalls[1] {
		t.Fatalf("expected both fields decoded into one surface, got %v", f.accel.BeginCalls)
	}
	pics := f.accel.BuffersOfKind(ports.BufferPictureParameter)
	pp := readPictureParams(t, pics[1].Data)
	if pp.CurrPic.Flags != picBottomField|picShortTermRef || pp.CurrPic.BottomFieldOrderCnt != 1 {
		t.Errorf("unexpected current field %+v", pp.CurrPic)
	}
	if pp.PictureHeightInMbsMinus1 != 67 {
		t.Errorf("expected the frame height in macroblocks, got %d", pp.PictureHeightInMbsMinus1+1)
	}

	sp := readSliceParams(t, f.accel.BuffersOfKind(ports.BufferSliceParameter)[1].Data)
	if ref := sp.RefPicList0[0]; ref.Flags != picTopField|picShortTermRef || ports.SurfaceID(ref.PictureID) != f.accel.BeginCalls[0] {
		t.Errorf("expected the top field as reference, got %+v", ref)
	}

	if got := f.sink.FrameIDs(); len(got) != 1 {
		t.Fatalf("expected one output frame, got %v", got)
	}
	if pool := f.driver.Base().Pool(); pool.Available() != pool.Size() {
		t.Errorf("expected every surface back, %d of %d available", pool.Available(), pool.Size())
	}
}

func TestDriver_MissingReferenceWithFailPolicy(t *testing.T) {
	f := newFixture(t, vadecode.Options{Policy: vadecode.MissingRefFail})

	if err := f.decode(t, &Unit{Frame: vadecode.Frame{ID: 0}, SPS: hdSPS(), Slices: []Slice{slice(0x65)}}); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	err := f.decode(t, &Unit{
		Frame:  vadecode.Frame{ID: 1},
		DPB:    []DPBEntry{{Ref: vadecode.Ref(0)}, {Ref: vadecode.Ref(42)}},
		Slices: []Slice{slice(0x41)},
	})
	if !errors.Is(err, vadecode.ErrMissingReference) || vadecode.IsFatal(err) {
		t.Fatalf("expected a non-fatal missing reference, got %v", err)
	}
	if f.accel.EndCalls != 1 {
		t.Errorf("the dropped picture must not be submitted, got %d EndPicture calls", f.accel.EndCalls)
	}
}

func TestDriver_PictureBeforeSequence(t *testing.T) {
	f := newFixture(t, vadecode.Options{})

	err := f.decode(t, &Unit{Frame: vadecode.Frame{ID: 0}, Slices: []Slice{slice(0x41)}})
	if !errors.Is(err, vadecode.ErrNoSequence) || !vadecode.IsFatal(err) {
		t.Fatalf("expected a fatal ErrNoSequence, got %v", err)
	}
	if err := f.stream.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if err := f.decode(t, &Unit{Frame: vadecode.Frame{ID: 1}, SPS: hdSPS(), Slices: []Slice{slice(0x65)}}); err != nil {
		t.Errorf("decoding should restart at the sequence header: %v", err)
	}
}

func TestDriver_UnsupportedProfileIsFatal(t *testing.T) {
	f := newFixture(t, vadecode.Options{}, ports.ProfileHEVCMain)

	err := f.decode(t, &Unit{Frame: vadecode.Frame{ID: 0}, SPS: hdSPS(), Slices: []Slice{slice(0x65)}})
	if !vadecode.IsFatal(err) || !errors.Is(err, vadecode.ErrUnsupportedProfile) {
		t.Fatalf("expected a fatal unsupported profile, got %v", err)
	}
	err = f.decode(t, &Unit{Frame: vadecode.Frame{ID: 1}, Slices: []Slice{slice(0x41)}})
	if !errors.Is(err, vadecode.ErrStreamFailed) {
		t.Errorf("expected ErrStreamFailed, got %v", err)
	}
}

func TestBuildSliceParams_Weights(t *testing.T) {
	w := &PredWeightTable{LumaLog2Denom: 5, LumaL0: true}
	w.LumaWeightL0[0] = 40
	w.LumaOffsetL0[0] = -3
	s := &Slice{Header: SliceHeader{SliceType: SliceP, Weights: w}, Data: []byte{1, 2}}

	sp := buildSliceParams(s, false, vadecode.NewRefWindow[DPBEntry](maxReferenceFrames, nil, vadecode.MissingRefInvalid))
	if sp.LumaLog2WeightDenom != 5 || sp.LumaWeightL0Flag != 1 || sp.LumaWeightL0[0] != 40 || sp.LumaOffsetL0[0] != -3 {
		t.Errorf("unexpected weights: denom %d flag %d weight %d offset %d",
			sp.LumaLog2WeightDenom, sp.LumaWeightL0Flag, sp.LumaWeightL0[0], sp.LumaOffsetL0[0])
	}
	if sp.ChromaWeightL0Flag != 0 || sp.LumaWeightL1Flag != 0 {
		t.Error("absent tables should stay disabled")
	}

	if n := binary.Size(sp); n != 3128 {
		t.Errorf("expected a 3128 byte slice parameter buffer, got %d", n)
	}
}

func TestParameterBufferSizes(t *testing.T) {
	if n := binary.Size(pictureParams{}); n != 656 {
		t.Errorf("expected 656 byte picture parameters, got %d", n)
	}
	if n := binary.Size(iqMatrix{}); n != 240 {
		t.Errorf("expected 240 byte IQ matrix, got %d", n)
	}
}
