package vp8

import (
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

const maxPartitions = 9

type boolCoder struct {
	Range uint8
	Value uint8
	Count uint8
}

type pictureParams struct {
	FrameWidth           uint32
	FrameHeight          uint32
	LastRefFrame         uint32
	GoldenRefFrame       uint32
	AltRefFrame          uint32
	OutOfLoopFrame       uint32
	PicFields            uint32
	MBSegmentTreeProbs   [3]uint8
	LoopFilterLevel      [4]uint8
	LoopFilterDeltasRef  [4]int8
	LoopFilterDeltasMode [4]int8
	ProbSkipFalse        uint8
	ProbIntra            uint8
	ProbLast             uint8
	ProbGF               uint8
	YModeProbs           [4]uint8
	UVModeProbs          [3]uint8
	MVProbs              [2][19]uint8
	BoolCoderCtx         boolCoder
	_                    uint8
	_                    [4]uint32
}

type sliceParams struct {
	SliceDataSize    uint32
	SliceDataOffset  uint32
	SliceDataFlag    uint32
	MacroblockOffset uint32
	NumOfPartitions  uint8
	_                [3]uint8
	PartitionSize    [maxPartitions]uint32
	_                [4]uint32
}

type probabilityData struct {
	DCTCoeffProbs [4][8][3][11]uint8
	_             [4]uint32
}

type iqMatrix struct {
	QuantizationIndex [4][6]uint16
	_                 [4]uint32
}

// slotMeta is what the window keeps per reference.
type slotMeta struct{}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// segmentValue applies a segment's quantizer or filter level update to the
// frame value.
func segmentValue(seg *Segmentation, i int, frame int, update [4]int8, hi int) int {
	if !seg.Enabled {
		return clamp(frame, 0, hi)
	}
	if seg.AbsoluteDelta {
		return clamp(int(update[i]), 0, hi)
	}
	return clamp(frame+int(update[i]), 0, hi)
}

func buildPictureParams(h *FrameHeader, window *vadecode.RefWindow[slotMeta]) *pictureParams {
	pp := &pictureParams{
		FrameWidth:          uint32(h.Width),
		FrameHeight:         uint32(h.Height),
		LastRefFrame:        uint32(window.Slot(RefLast).Surface),
		GoldenRefFrame:      uint32(window.Slot(RefGolden).Surface),
		AltRefFrame:         uint32(window.Slot(RefAltRef).Surface),
		OutOfLoopFrame:      uint32(ports.InvalidSurface),
		MBSegmentTreeProbs:  h.Segmentation.TreeProbs,
		LoopFilterDeltasRef: h.RefFrameLFDeltas,
		LoopFilterDeltasMode: h.ModeLFDeltas,
		ProbSkipFalse:       h.ProbSkipFalse,
		ProbIntra:           h.ProbIntra,
		ProbLast:            h.ProbLast,
		ProbGF:              h.ProbGF,
		YModeProbs:          h.YModeProbs,
		UVModeProbs:         h.UVModeProbs,
		MVProbs:             h.MVProbs,
		BoolCoderCtx: boolCoder{
			Range: h.BoolDecoder.Range,
			Value: h.BoolDecoder.Value,
			Count: h.BoolDecoder.Count,
		},
	}
	if !h.Segmentation.Enabled {
		pp.MBSegmentTreeProbs = [3]uint8{255, 255, 255}
	}
	for i := range pp.LoopFilterLevel {
		pp.LoopFilterLevel[i] = uint8(segmentValue(&h.Segmentation, i, h.FilterLevel, h.Segmentation.FilterLevel, 63))
	}

	var fields vabuf.Bits
	// key_frame is zero for key frames
	fields.Flag(!h.KeyFrame).
		Add(3, uint32(h.Version)).
		Flag(h.Segmentation.Enabled).
		Flag(h.Segmentation.UpdateMap).
		Flag(h.Segmentation.UpdateData).
		Add(1, uint32(h.FilterType)).
		Add(3, uint32(h.Sharpness)).
		Flag(h.LFDeltaEnabled).
		Flag(h.LFDeltaUpdate).
		Flag(h.SignBiasGolden).
		Flag(h.SignBiasAlternate).
		Flag(h.MBNoCoeffSkip).
		Flag(h.FilterLevel == 0)
	pp.PicFields = fields.Value()
	return pp
}

func buildIQMatrix(h *FrameHeader) *iqMatrix {
	q := &h.Quantization
	m := &iqMatrix{}
	for i := range m.QuantizationIndex {
		base := segmentValue(&h.Segmentation, i, q.YACQI, h.Segmentation.Quantizer, 127)
		m.QuantizationIndex[i] = [6]uint16{
			uint16(base),
			uint16(clamp(base+q.YDCDelta, 0, 127)),
			uint16(clamp(base+q.Y2DCDelta, 0, 127)),
			uint16(clamp(base+q.Y2ACDelta, 0, 127)),
			uint16(clamp(base+q.UVDCDelta, 0, 127)),
			uint16(clamp(base+q.UVACDelta, 0, 127)),
		}
	}
	return m
}

func buildSliceParams(h *FrameHeader, dataSize int) (*sliceParams, error) {
	count := 1 << h.Log2Partitions
	if h.Log2Partitions < 0 || count+1 > maxPartitions || len(h.PartitionSizes) != count-1 {
		return nil, fmt.Errorf("vp8: %d partition sizes for 2^%d partitions", len(h.PartitionSizes), h.Log2Partitions)
	}
	headerBytes := (h.HeaderBits + 7) >> 3
	if headerBytes > h.FirstPartSize {
		return nil, fmt.Errorf("vp8: header of %d bits in a %d byte partition", h.HeaderBits, h.FirstPartSize)
	}
	sp := &sliceParams{
		SliceDataSize:    uint32(dataSize),
		MacroblockOffset: uint32(h.HeaderBits),
		NumOfPartitions:  uint8(count + 1),
	}
	sp.PartitionSize[0] = uint32(h.FirstPartSize - headerBytes)
	for i, size := range h.PartitionSizes {
		sp.PartitionSize[i+1] = uint32(size)
	}
	return sp, nil
}
