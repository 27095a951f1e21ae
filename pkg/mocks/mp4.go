package mocks

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Parameter sets of a 128x96 baseline stream with one reference frame.
var (
	H264SPS = []byte{0x67, 0x42, 0x00, 0x0a, 0xf8, 0x41, 0xa2}
	H264PPS = []byte{0x68, 0xce, 0x38, 0x80}
)

// Slice NAL units matching H264SPS and H264PPS: an IDR I slice with frame_num
// 0, and a P slice with frame_num 1 and POC lsb 2. The payload after the
// header is filler.
var (
	H264IDRSlice = []byte{0x65, 0x88, 0x84, 0x08, 0x00, 0x80}
	H264PSlice   = []byte{0x41, 0x9a, 0x24, 0x20, 0x00, 0x80}
)

// H264Timescale is the timescale of the files built by H264MP4.
const H264Timescale = 1000

// H264FrameMs is the duration of each frame in H264MP4 files.
const H264FrameMs = 40

// H264MP4 builds a fragmented MP4 file holding an IDR frame followed by
// frames-1 P frames, all 128x96.
func H264MP4(frames int) ([]byte, error) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(H264Timescale, "video", "und")
	trak := init.Moov.Trak

	avcC, err := mp4.CreateAvcC([][]byte{H264SPS}, [][]byte{H264PPS}, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("avc1", 128, 96, avcC))
	trak.Tkhd.Width = mp4.Fixed32(128 << 16)
	trak.Tkhd.Height = mp4.Fixed32(96 << 16)

	frag, err := mp4.CreateFragment(1, trak.Tkhd.TrackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}
	for i := 0; i < frames; i++ {
		nalu, flags := H264PSlice, mp4.NonSyncSampleFlags
		if i == 0 {
			nalu, flags = H264IDRSlice, mp4.SyncSampleFlags
		}
		data := lengthPrefixed(nalu)
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(data)),
				Dur:   H264FrameMs,
			},
			DecodeTime: uint64(i * H264FrameMs),
			Data:       data,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

func lengthPrefixed(nalus ...[]byte) []byte {
	var out []byte
	for _, n := range nalus {
		out = binary.BigEndian.AppendUint32(out, uint32(len(n)))
		out = append(out, n...)
	}
	return out
}
