package h264

import (
	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// VAPictureH264 flags.
const (
	picInvalid         = 0x01
	picTopField        = 0x02
	picBottomField     = 0x04
	picShortTermRef    = 0x08
	picLongTermRef     = 0x10
	maxReferenceFrames = 16
	maxListEntries     = 32
)

type vaPicture struct {
	PictureID           uint32
	FrameIdx            uint32
	Flags               uint32
	TopFieldOrderCnt    int32
	BottomFieldOrderCnt int32
	_                   [4]uint32
}

var invalidPicture = vaPicture{PictureID: ports.InvalidID, Flags: picInvalid}

type pictureParams struct {
	CurrPic                    vaPicture
	ReferenceFrames            [maxReferenceFrames]vaPicture
	PictureWidthInMbsMinus1    uint16
	PictureHeightInMbsMinus1   uint16
	BitDepthLumaMinus8         uint8
	BitDepthChromaMinus8       uint8
	NumRefFrames               uint8
	_                          uint8
	SeqFields                  uint32
	NumSliceGroupsMinus1       uint8
	SliceGroupMapType          uint8
	SliceGroupChangeRateMinus1 uint16
	PicInitQPMinus26           int8
	PicInitQSMinus26           int8
	ChromaQPIndexOffset        int8
	SecondChromaQPIndexOffset  int8
	PicFields                  uint32
	FrameNum                   uint16
	_                          [2]uint8
	_                          [4]uint32
}

type iqMatrix struct {
	ScalingList4x4 [6][16]uint8
	ScalingList8x8 [2][64]uint8
	_              [4]uint32
}

type sliceParams struct {
	SliceDataSize              uint32
	SliceDataOffset            uint32
	SliceDataFlag              uint32
	SliceDataBitOffset         uint16
	FirstMbInSlice             uint16
	SliceType                  uint8
	DirectSpatialMvPredFlag    uint8
	NumRefIdxL0ActiveMinus1    uint8
	NumRefIdxL1ActiveMinus1    uint8
	CabacInitIDC               uint8
	SliceQPDelta               int8
	DisableDeblockingFilterIDC uint8
	SliceAlphaC0OffsetDiv2     int8
	SliceBetaOffsetDiv2        int8
	_                          [3]uint8
	RefPicList0                [maxListEntries]vaPicture
	RefPicList1                [maxListEntries]vaPicture
	LumaLog2WeightDenom        uint8
	ChromaLog2WeightDenom      uint8
	LumaWeightL0Flag           uint8
	_                          uint8
	LumaWeightL0               [maxListEntries]int16
	LumaOffsetL0               [maxListEntries]int16
	ChromaWeightL0Flag         uint8
	_                          uint8
	ChromaWeightL0             [maxListEntries][2]int16
	ChromaOffsetL0             [maxListEntries][2]int16
	LumaWeightL1Flag           uint8
	_                          uint8
	LumaWeightL1               [maxListEntries]int16
	LumaOffsetL1               [maxListEntries]int16
	ChromaWeightL1Flag         uint8
	_                          uint8
	ChromaWeightL1             [maxListEntries][2]int16
	ChromaOffsetL1             [maxListEntries][2]int16
	_                          [2]uint8
	_                          [4]uint32
}

func dpbPicture(slot vadecode.RefSlot[DPBEntry]) vaPicture {
	if slot.Surface == ports.InvalidSurface {
		return invalidPicture
	}
	e := slot.Meta
	p := vaPicture{
		PictureID:           uint32(slot.Surface),
		FrameIdx:            uint32(e.FrameIdx),
		TopFieldOrderCnt:    e.TopPOC,
		BottomFieldOrderCnt: e.BottomPOC,
	}
	if e.LongTerm {
		p.Flags |= picLongTermRef
	} else {
		p.Flags |= picShortTermRef
	}
	switch {
	case e.TopField && !e.BottomField:
		p.Flags |= picTopField
		p.BottomFieldOrderCnt = 0
	case e.BottomField && !e.TopField:
		p.Flags |= picBottomField
		p.TopFieldOrderCnt = 0
	}
	return p
}

func currentPicture(pic *vadecode.Picture, h *PictureHeader) vaPicture {
	p := vaPicture{
		PictureID:           uint32(pic.SurfaceID()),
		FrameIdx:            uint32(h.FrameNum),
		TopFieldOrderCnt:    h.TopPOC,
		BottomFieldOrderCnt: h.BottomPOC,
	}
	if h.Field {
		if h.BottomField {
			p.Flags = picBottomField
			p.TopFieldOrderCnt = 0
		} else {
			p.Flags = picTopField
			p.BottomFieldOrderCnt = 0
		}
	}
	if h.Reference {
		if h.LongTerm {
			p.Flags |= picLongTermRef
		} else {
			p.Flags |= picShortTermRef
		}
	}
	return p
}

func buildPictureParams(sps *SPS, h *PictureHeader, pic *vadecode.Picture, window *vadecode.RefWindow[DPBEntry]) *pictureParams {
	pp := &pictureParams{
		CurrPic:                   currentPicture(pic, h),
		PictureWidthInMbsMinus1:   uint16(sps.PicWidthInMbsMinus1),
		PictureHeightInMbsMinus1:  uint16(sps.PicHeightInMapUnitsMinus1),
		BitDepthLumaMinus8:        uint8(sps.BitDepthLumaMinus8),
		BitDepthChromaMinus8:      uint8(sps.BitDepthChromaMinus8),
		NumRefFrames:              uint8(sps.NumRefFrames),
		PicInitQPMinus26:          int8(h.PicInitQPMinus26),
		PicInitQSMinus26:          int8(h.PicInitQSMinus26),
		ChromaQPIndexOffset:       int8(h.ChromaQPIndexOffset),
		SecondChromaQPIndexOffset: int8(h.SecondChromaQPIndexOffset),
		FrameNum:                  uint16(h.FrameNum),
	}
	if !sps.FrameMbsOnly {
		// picture_height_in_mbs counts frame macroblocks
		pp.PictureHeightInMbsMinus1 = uint16((sps.PicHeightInMapUnitsMinus1+1)*2 - 1)
	}

	var seq vabuf.Bits
	seq.Add(2, uint32(sps.ChromaFormatIDC)).
		Flag(false).
		Flag(sps.GapsInFrameNumAllowed).
		Flag(sps.FrameMbsOnly).
		Flag(sps.MbAdaptiveFrameField).
		Flag(sps.Direct8x8Inference).
		Flag(sps.LevelIDC >= 31).
		Add(4, uint32(sps.Log2MaxFrameNumMinus4)).
		Add(2, uint32(sps.PicOrderCntType)).
		Add(4, uint32(sps.Log2MaxPicOrderCntLsbMinus4)).
		Flag(sps.DeltaPicOrderAlwaysZero)
	pp.SeqFields = seq.Value()

	var fields vabuf.Bits
	fields.Flag(h.EntropyCodingMode).
		Flag(h.WeightedPred).
		Add(2, uint32(h.WeightedBipredIDC)).
		Flag(h.Transform8x8Mode).
		Flag(h.Field).
		Flag(h.ConstrainedIntraPred).
		Flag(h.BottomFieldPicOrderPresent).
		Flag(h.DeblockingFilterControlPresent).
		Flag(h.RedundantPicCntPresent).
		Flag(h.Reference)
	pp.PicFields = fields.Value()

	window.Each(func(i int, slot vadecode.RefSlot[DPBEntry]) {
		pp.ReferenceFrames[i] = dpbPicture(slot)
	})
	return pp
}

func buildIQMatrix(h *PictureHeader) *iqMatrix {
	m := h.Scaling
	if m == nil {
		m = FlatScalingMatrix()
	}
	return &iqMatrix{ScalingList4x4: m.List4x4, ScalingList8x8: m.List8x8}
}

// listPicture resolves one reference list entry through the window.
func listPicture(window *vadecode.RefWindow[DPBEntry], e ListEntry, field bool) vaPicture {
	if e.DPBIndex < 0 || e.DPBIndex >= window.Cap() {
		return invalidPicture
	}
	p := dpbPicture(window.Slot(e.DPBIndex))
	if field && p.Flags&picInvalid == 0 {
		p.Flags &^= picTopField | picBottomField
		if e.BottomField {
			p.Flags |= picBottomField
			p.TopFieldOrderCnt = 0
		} else {
			p.Flags |= picTopField
			p.BottomFieldOrderCnt = 0
		}
	}
	return p
}

func buildSliceParams(s *Slice, field bool, window *vadecode.RefWindow[DPBEntry]) *sliceParams {
	h := &s.Header
	sp := &sliceParams{
		SliceDataSize:              uint32(len(s.Data)),
		SliceDataBitOffset:         uint16(h.HeaderBits),
		FirstMbInSlice:             uint16(h.FirstMbInSlice),
		SliceType:                  uint8(h.SliceType % 5),
		DirectSpatialMvPredFlag:    vabuf.Bool(h.DirectSpatialMvPred),
		NumRefIdxL0ActiveMinus1:    uint8(h.NumRefIdxL0ActiveMinus1),
		NumRefIdxL1ActiveMinus1:    uint8(h.NumRefIdxL1ActiveMinus1),
		CabacInitIDC:               uint8(h.CabacInitIDC),
		SliceQPDelta:               int8(h.SliceQPDelta),
		DisableDeblockingFilterIDC: uint8(h.DisableDeblockingFilter),
		SliceAlphaC0OffsetDiv2:     int8(h.SliceAlphaC0OffsetDiv2),
		SliceBetaOffsetDiv2:        int8(h.SliceBetaOffsetDiv2),
	}
	for i := range sp.RefPicList0 {
		sp.RefPicList0[i] = invalidPicture
		sp.RefPicList1[i] = invalidPicture
	}
	for i, e := range h.RefPicList0 {
		if i < maxListEntries {
			sp.RefPicList0[i] = listPicture(window, e, field)
		}
	}
	for i, e := range h.RefPicList1 {
		if i < maxListEntries {
			sp.RefPicList1[i] = listPicture(window, e, field)
		}
	}

	if w := h.Weights; w != nil {
		sp.LumaLog2WeightDenom = uint8(w.LumaLog2Denom)
		sp.ChromaLog2WeightDenom = uint8(w.ChromaLog2Denom)
		sp.LumaWeightL0Flag = vabuf.Bool(w.LumaL0)
		sp.LumaWeightL0 = w.LumaWeightL0
		sp.LumaOffsetL0 = w.LumaOffsetL0
		sp.ChromaWeightL0Flag = vabuf.Bool(w.ChromaL0)
		sp.ChromaWeightL0 = w.ChromaWeightL0
		sp.ChromaOffsetL0 = w.ChromaOffsetL0
		sp.LumaWeightL1Flag = vabuf.Bool(w.LumaL1)
		sp.LumaWeightL1 = w.LumaWeightL1
		sp.LumaOffsetL1 = w.LumaOffsetL1
		sp.ChromaWeightL1Flag = vabuf.Bool(w.ChromaL1)
		sp.ChromaWeightL1 = w.ChromaWeightL1
		sp.ChromaOffsetL1 = w.ChromaOffsetL1
	}
	return sp
}
