package vp9

import (
	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/vadecode"
)

type pictureParams struct {
	FrameWidth               uint16
	FrameHeight              uint16
	ReferenceFrames          [NumRefSlots]uint32
	PicFields                uint32
	FilterLevel              uint8
	SharpnessLevel           uint8
	Log2TileRows             uint8
	Log2TileColumns          uint8
	FrameHeaderLengthInBytes uint8
	_                        uint8
	FirstPartitionSize       uint16
	MbSegmentTreeProbs       [7]uint8
	SegmentPredProbs         [3]uint8
	Profile                  uint8
	BitDepth                 uint8
	_                        [8]uint32
}

type segmentParams struct {
	SegmentFlags       uint16
	FilterLevel        [4][2]uint8
	LumaACQuantScale   int16
	LumaDCQuantScale   int16
	ChromaACQuantScale int16
	ChromaDCQuantScale int16
	_                  [2]uint8
	_                  [4]uint32
}

type sliceParams struct {
	SliceDataSize   uint32
	SliceDataOffset uint32
	SliceDataFlag   uint32
	SegParam        [8]segmentParams
	_               [4]uint32
}

// slotMeta is what the window keeps per reference slot.
type slotMeta struct{}

func buildPictureParams(h *FrameHeader, window *vadecode.RefWindow[slotMeta]) *pictureParams {
	pp := &pictureParams{
		FrameWidth:               uint16(h.Width),
		FrameHeight:              uint16(h.Height),
		FilterLevel:              uint8(h.FilterLevel),
		SharpnessLevel:           uint8(h.SharpnessLevel),
		Log2TileRows:             uint8(h.Log2TileRows),
		Log2TileColumns:          uint8(h.Log2TileCols),
		FrameHeaderLengthInBytes: uint8(h.HeaderSize),
		FirstPartitionSize:       uint16(h.CompressedHeaderSize),
		Profile:                  uint8(h.Profile),
		BitDepth:                 uint8(bitDepth(h)),
	}
	for i, id := range window.Surfaces() {
		pp.ReferenceFrames[i] = uint32(id)
	}

	seg := &h.Segmentation
	if seg.Enabled {
		pp.MbSegmentTreeProbs = seg.TreeProbs
		pp.SegmentPredProbs = seg.PredProbs
	} else {
		for i := range pp.MbSegmentTreeProbs {
			pp.MbSegmentTreeProbs[i] = 255
		}
		for i := range pp.SegmentPredProbs {
			pp.SegmentPredProbs[i] = 255
		}
	}

	var fields vabuf.Bits
	fields.Flag(h.SubsamplingX).
		Flag(h.SubsamplingY).
		Add(1, uint32(h.FrameType)).
		Flag(h.ShowFrame).
		Flag(h.ErrorResilient).
		Flag(h.IntraOnly).
		Flag(h.AllowHighPrecisionMV).
		Add(3, uint32(h.InterpFilter)).
		Flag(h.FrameParallelDecoding).
		Add(2, uint32(h.ResetFrameContext)).
		Flag(h.RefreshFrameContext).
		Add(2, uint32(h.FrameContextIdx)).
		Flag(seg.Enabled).
		Flag(seg.TemporalUpdate).
		Flag(seg.UpdateMap)
	for i := range h.RefFrameIdx {
		fields.Add(3, uint32(h.RefFrameIdx[i])).Flag(h.RefFrameSignBias[i])
	}
	fields.Flag(h.Lossless)
	pp.PicFields = fields.Value()
	return pp
}

func buildSliceParams(u *Unit) *sliceParams {
	sp := &sliceParams{SliceDataSize: uint32(len(u.Data))}
	for i, s := range u.Segments {
		var flags vabuf.Bits
		flags.Flag(s.ReferenceEnabled).Add(2, uint32(s.Reference)).Flag(s.Skipped)
		sp.SegParam[i] = segmentParams{
			SegmentFlags:       uint16(flags.Value()),
			FilterLevel:        s.FilterLevel,
			LumaACQuantScale:   s.LumaACQuant,
			LumaDCQuantScale:   s.LumaDCQuant,
			ChromaACQuantScale: s.ChromaACQuant,
			ChromaDCQuantScale: s.ChromaDCQuant,
		}
	}
	return sp
}
