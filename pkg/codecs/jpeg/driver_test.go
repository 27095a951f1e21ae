package jpeg

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

func yuv420(w, h int) FrameHeader {
	return FrameHeader{
		Baseline:  true,
		Precision: 8,
		Width:     w,
		Height:    h,
		Components: []Component{
			{ID: 1, H: 2, V: 2, QuantTable: 0},
			{ID: 2, H: 1, V: 1, QuantTable: 1},
			{ID: 3, H: 1, V: 1, QuantTable: 1},
		},
	}
}

func image(id uint64, w, h int) *Unit {
	var luma [64]uint8
	for i := range luma {
		luma[i] = 16
	}
	u := &Unit{
		Frame:  vadecode.Frame{ID: id, Output: []uint64{id}, Release: []uint64{id}},
		Header: yuv420(w, h),
		Scans: []Scan{{
			Components: []ScanComponent{
				{Selector: 1, DCTable: 0, ACTable: 0},
				{Selector: 2, DCTable: 1, ACTable: 1},
				{Selector: 3, DCTable: 1, ACTable: 1},
			},
			RestartInterval: 4,
			Data:            []byte{0xfc, 0xff, 0x00, 0xe2},
		}},
	}
	u.QuantTables[0] = &luma
	return u
}

func readBuffer(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, v); err != nil {
		t.Fatalf("failed to read buffer: %v", err)
	}
}

func TestDefaultHuffmanTables_CountsMatchValues(t *testing.T) {
	for i, table := range DefaultHuffmanTables() {
		var dc, ac int
		for j := 0; j < 16; j++ {
			dc += int(table.DCCounts[j])
			ac += int(table.ACCounts[j])
		}
		if dc != len(table.DCValues) || ac != len(table.ACValues) {
			t.Errorf("table %d codes %d DC and %d AC symbols", i, dc, ac)
		}
	}
}

func TestOutputInfo(t *testing.T) {
	tests := []struct {
		name       string
		header     FrameHeader
		wantRT     ports.RTFormat
		wantWidth  int
		wantHeight int
	}{
		{"4:2:0", yuv420(100, 50), ports.RTFormatYUV420, 112, 64},
		{"4:2:2", FrameHeader{Width: 100, Height: 50, Components: []Component{{ID: 1, H: 2, V: 1}, {ID: 2, H: 1, V: 1}, {ID: 3, H: 1, V: 1}}}, ports.RTFormatYUV422, 112, 56},
		{"4:4:4", FrameHeader{Width: 64, Height: 64, Components: []Component{{ID: 1, H: 1, V: 1}, {ID: 2, H: 1, V: 1}, {ID: 3, H: 1, V: 1}}}, ports.RTFormatYUV444, 64, 64},
		{"grey", FrameHeader{Width: 20, Height: 20, Components: []Component{{ID: 1, H: 1, V: 1}}}, ports.RTFormatYUV400, 24, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := outputInfo(&tt.header, ports.ProfileJPEGBaseline)
			if err != nil {
				t.Fatalf("outputInfo failed: %v", err)
			}
			if out.RTFormat != tt.wantRT || out.Width != tt.wantWidth || out.Height != tt.wantHeight {
				t.Errorf("got %s %dx%d", out.RTFormat, out.Width, out.Height)
			}
			if out.DisplayWidth != tt.header.Width || out.DisplayHeight != tt.header.Height {
				t.Errorf("unexpected display size %dx%d", out.DisplayWidth, out.DisplayHeight)
			}
		})
	}

	odd := FrameHeader{Width: 8, Height: 8, Components: []Component{{ID: 1, H: 2, V: 2}, {ID: 2, H: 2, V: 1}, {ID: 3, H: 1, V: 1}}}
	if _, err := outputInfo(&odd, ports.ProfileJPEGBaseline); !errors.Is(err, vadecode.ErrUnsupportedProfile) {
		t.Errorf("expected mismatched chroma sampling to be unsupported, got %v", err)
	}
}

func TestSelectProfile_BaselineOnly(t *testing.T) {
	session := vadecode.NewSession(mocks.NewAccelerator(ports.ProfileJPEGBaseline), mocks.NewLogger())
	h := yuv420(64, 64)
	if _, err := selectProfile(session, &h); err != nil {
		t.Errorf("baseline should be supported: %v", err)
	}
	h.Baseline = false
	if _, err := selectProfile(session, &h); !errors.Is(err, vadecode.ErrUnsupportedProfile) {
		t.Errorf("expected progressive images to be unsupported, got %v", err)
	}
}

func TestDriver_DecodesImages(t *testing.T) {
	accel := mocks.NewAccelerator(ports.ProfileJPEGBaseline)
	sink := &mocks.FrameSink{}
	stream := NewStream(accel, sink, mocks.NewLogger(), vadecode.Options{})

	for id := uint64(0); id < 3; id++ {
		if err := stream.Decode(context.Background(), image(id, 100, 50)); err != nil {
			t.Fatalf("Decode image %d failed: %v", id, err)
		}
	}

	if accel.Count("CreateContext") != 1 || len(sink.Formats) != 1 {
		t.Errorf("images of one size must share a session, got %d contexts", accel.Count("CreateContext"))
	}
	if len(sink.Frames) != 3 {
		t.Fatalf("expected 3 images, got %d", len(sink.Frames))
	}

	var pp pictureParams
	readBuffer(t, accel.BuffersOfKind(ports.BufferPictureParameter)[0].Data, &pp)
	if pp.PictureWidth != 100 || pp.NumComponents != 3 || pp.Components[0].HSamplingFactor != 2 || pp.Components[1].QuantiserTableSelector != 1 {
		t.Errorf("unexpected picture parameters")
	}

	var iq iqMatrix
	readBuffer(t, accel.BuffersOfKind(ports.BufferIQMatrix)[0].Data, &iq)
	if iq.LoadQuantiserTable != [4]uint8{1, 0, 0, 0} || iq.QuantiserTable[0][10] != 16 {
		t.Errorf("unexpected quantisation tables %v", iq.LoadQuantiserTable)
	}

	var ht huffmanTables
	readBuffer(t, accel.BuffersOfKind(ports.BufferHuffmanTable)[0].Data, &ht)
	if ht.LoadHuffmanTable != [2]uint8{1, 1} || ht.HuffmanTable[1].NumACCodes[15] != 0x77 {
		t.Error("missing tables must fall back to the standard ones")
	}

	var sp sliceParams
	readBuffer(t, accel.BuffersOfKind(ports.BufferSliceParameter)[0].Data, &sp)
	// 100x50 in 16x16 MCUs
	if sp.NumMCUs != 7*4 || sp.RestartInterval != 4 || sp.NumComponents != 3 || sp.Components[2].ACTableSelector != 1 {
		t.Errorf("unexpected scan parameters %+v", sp)
	}
}

func TestMCUCount_SingleComponentScan(t *testing.T) {
	h := yuv420(100, 50)
	// the 50x25 chroma plane in 8x8 blocks
	if n := mcuCount(&h, &Scan{Components: []ScanComponent{{Selector: 2}}}); n != 7*4 {
		t.Errorf("expected 28 chroma blocks, got %d", n)
	}
	if n := mcuCount(&h, &Scan{Components: []ScanComponent{{Selector: 1}}}); n != 13*7 {
		t.Errorf("expected 91 luma blocks, got %d", n)
	}
}

func TestDriver_BadScanIsDropped(t *testing.T) {
	accel := mocks.NewAccelerator(ports.ProfileJPEGBaseline)
	stream := NewStream(accel, &mocks.FrameSink{}, mocks.NewLogger(), vadecode.Options{})

	u := image(0, 64, 64)
	u.Scans[0].Components[0].DCTable = 3
	var perr *vadecode.PictureError
	if err := stream.Decode(context.Background(), u); !errors.As(err, &perr) {
		t.Fatalf("expected a picture error, got %v", err)
	}
	if accel.LiveBuffers() != 0 {
		t.Errorf("expected every buffer destroyed, %d live", accel.LiveBuffers())
	}
	if stats := stream.Stats(); stats.Dropped != 1 || stats.Gaps != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestParameterBufferSizes(t *testing.T) {
	sizes := []struct {
		name string
		v    any
		want int
	}{
		{"picture", pictureParams{}, 1060},
		{"iq matrix", iqMatrix{}, 276},
		{"huffman", huffmanTables{}, 436},
		{"slice", sliceParams{}, 56},
	}
	for _, s := range sizes {
		if n := binary.Size(s.v); n != s.want {
			t.Errorf("%s: expected %d bytes, got %d", s.name, s.want, n)
		}
	}
}
