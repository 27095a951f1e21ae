package h265

import (
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// VAPictureHEVC flags.
const (
	picInvalid         = 0x01
	picField           = 0x02
	picBottomField     = 0x04
	picLongTermRef     = 0x08
	picStCurrBefore    = 0x10
	picStCurrAfter     = 0x20
	picLtCurr          = 0x40
	maxReferenceFrames = 15
	maxTileColumns     = 19
	maxTileRows        = 21
	noReference        = 0xff
)

type vaPicture struct {
	PictureID   uint32
	PicOrderCnt int32
	Flags       uint32
	_           [4]uint32
}

var invalidPicture = vaPicture{PictureID: ports.InvalidID, Flags: picInvalid}

type pictureParams struct {
	CurrPic                              vaPicture
	ReferenceFrames                      [maxReferenceFrames]vaPicture
	PicWidthInLumaSamples                uint16
	PicHeightInLumaSamples               uint16
	PicFields                            uint32
	SpsMaxDecPicBufferingMinus1          uint8
	BitDepthLumaMinus8                   uint8
	BitDepthChromaMinus8                 uint8
	PCMSampleBitDepthLumaMinus1          uint8
	PCMSampleBitDepthChromaMinus1        uint8
	Log2MinLumaCodingBlockSizeMinus3     uint8
	Log2DiffMaxMinLumaCodingBlockSize    uint8
	Log2MinTransformBlockSizeMinus2      uint8
	Log2DiffMaxMinTransformBlockSize     uint8
	Log2MinPCMLumaCodingBlockSizeMinus3  uint8
	Log2DiffMaxMinPCMLumaCodingBlockSize uint8
	MaxTransformHierarchyDepthIntra      uint8
	MaxTransformHierarchyDepthInter      uint8
	InitQPMinus26                        int8
	DiffCuQPDeltaDepth                   uint8
	PPSCbQPOffset                        int8
	PPSCrQPOffset                        int8
	Log2ParallelMergeLevelMinus2         uint8
	NumTileColumnsMinus1                 uint8
	NumTileRowsMinus1                    uint8
	ColumnWidthMinus1                    [maxTileColumns]uint16
	RowHeightMinus1                      [maxTileRows]uint16
	SliceParsingFields                   uint32
	Log2MaxPicOrderCntLsbMinus4          uint8
	NumShortTermRefPicSets               uint8
	NumLongTermRefPicSPS                 uint8
	NumRefIdxL0DefaultActiveMinus1       uint8
	NumRefIdxL1DefaultActiveMinus1       uint8
	PPSBetaOffsetDiv2                    int8
	PPSTcOffsetDiv2                      int8
	NumExtraSliceHeaderBits              uint8
	StRPSBits                            uint32
	_                                    [8]uint32
}

type iqMatrix struct {
	ScalingList4x4     [6][16]uint8
	ScalingList8x8     [6][64]uint8
	ScalingList16x16   [6][64]uint8
	ScalingList32x32   [2][64]uint8
	ScalingListDC16x16 [6]uint8
	ScalingListDC32x32 [2]uint8
	_                  [4]uint32
}

type sliceParams struct {
	SliceDataSize              uint32
	SliceDataOffset            uint32
	SliceDataFlag              uint32
	SliceDataByteOffset        uint32
	SliceSegmentAddress        uint32
	RefPicList                 [2][maxReferenceFrames]uint8
	_                          [2]uint8
	LongSliceFlags             uint32
	CollocatedRefIdx           uint8
	NumRefIdxL0ActiveMinus1    uint8
	NumRefIdxL1ActiveMinus1    uint8
	SliceQPDelta               int8
	SliceCbQPOffset            int8
	SliceCrQPOffset            int8
	SliceBetaOffsetDiv2        int8
	SliceTcOffsetDiv2          int8
	LumaLog2WeightDenom        uint8
	DeltaChromaLog2WeightDenom int8
	DeltaLumaWeightL0          [15]int8
	LumaOffsetL0               [15]int8
	DeltaChromaWeightL0        [15][2]int8
	ChromaOffsetL0             [15][2]int8
	DeltaLumaWeightL1          [15]int8
	LumaOffsetL1               [15]int8
	DeltaChromaWeightL1        [15][2]int8
	ChromaOffsetL1             [15][2]int8
	FiveMinusMaxNumMergeCand   uint8
	_                          uint8
	NumEntryPointOffsets       uint16
	EntryOffsetToSubsetArray   uint16
	SliceDataNumEmuPrevnBytes  uint16
	_                          [2]uint8
	_                          [2]uint32
}

func rpsFlags(set RPSSet) uint32 {
	switch set {
	case RPSStCurrBefore:
		return picStCurrBefore
	case RPSStCurrAfter:
		return picStCurrAfter
	case RPSLtCurr:
		return picLtCurr
	}
	return 0
}

func dpbPicture(slot vadecode.RefSlot[DPBEntry]) vaPicture {
	if slot.Surface == ports.InvalidSurface {
		return invalidPicture
	}
	p := vaPicture{
		PictureID:   uint32(slot.Surface),
		PicOrderCnt: slot.Meta.POC,
		Flags:       rpsFlags(slot.Meta.Set),
	}
	if slot.Meta.LongTerm {
		p.Flags |= picLongTermRef
	}
	return p
}

func buildPictureParams(sps *SPS, h *PictureHeader, pic *vadecode.Picture, window *vadecode.RefWindow[DPBEntry]) (*pictureParams, error) {
	if len(h.ColumnWidthsMinus1) > maxTileColumns || len(h.RowHeightsMinus1) > maxTileRows {
		return nil, fmt.Errorf("h265: %dx%d tiles exceed %dx%d",
			len(h.ColumnWidthsMinus1), len(h.RowHeightsMinus1), maxTileColumns, maxTileRows)
	}

	pp := &pictureParams{
		CurrPic:                              vaPicture{PictureID: uint32(pic.SurfaceID()), PicOrderCnt: h.POC},
		PicWidthInLumaSamples:                uint16(sps.PicWidthInLumaSamples),
		PicHeightInLumaSamples:               uint16(sps.PicHeightInLumaSamples),
		SpsMaxDecPicBufferingMinus1:          uint8(sps.MaxDecPicBufferingMinus1),
		BitDepthLumaMinus8:                   uint8(sps.BitDepthLumaMinus8),
		BitDepthChromaMinus8:                 uint8(sps.BitDepthChromaMinus8),
		PCMSampleBitDepthLumaMinus1:          uint8(sps.PCMSampleBitDepthLumaMinus1),
		PCMSampleBitDepthChromaMinus1:        uint8(sps.PCMSampleBitDepthChromaMinus1),
		Log2MinLumaCodingBlockSizeMinus3:     uint8(sps.Log2MinLumaCodingBlockSizeMinus3),
		Log2DiffMaxMinLumaCodingBlockSize:    uint8(sps.Log2DiffMaxMinLumaCodingBlockSize),
		Log2MinTransformBlockSizeMinus2:      uint8(sps.Log2MinTransformBlockSizeMinus2),
		Log2DiffMaxMinTransformBlockSize:     uint8(sps.Log2DiffMaxMinTransformBlockSize),
		Log2MinPCMLumaCodingBlockSizeMinus3:  uint8(sps.Log2MinPCMLumaCodingBlockSizeMinus3),
		Log2DiffMaxMinPCMLumaCodingBlockSize: uint8(sps.Log2DiffMaxMinPCMLumaCodingBlockSize),
		MaxTransformHierarchyDepthIntra:      uint8(sps.MaxTransformHierarchyDepthIntra),
		MaxTransformHierarchyDepthInter:      uint8(sps.MaxTransformHierarchyDepthInter),
		InitQPMinus26:                        int8(h.InitQPMinus26),
		DiffCuQPDeltaDepth:                   uint8(h.DiffCuQPDeltaDepth),
		PPSCbQPOffset:                        int8(h.CbQPOffset),
		PPSCrQPOffset:                        int8(h.CrQPOffset),
		Log2ParallelMergeLevelMinus2:         uint8(h.Log2ParallelMergeLevelMinus2),
		Log2MaxPicOrderCntLsbMinus4:          uint8(sps.Log2MaxPicOrderCntLsbMinus4),
		NumShortTermRefPicSets:               uint8(sps.NumShortTermRefPicSets),
		NumLongTermRefPicSPS:                 uint8(sps.NumLongTermRefPicsSPS),
		NumRefIdxL0DefaultActiveMinus1:       uint8(h.NumRefIdxL0DefaultActiveMinus1),
		NumRefIdxL1DefaultActiveMinus1:       uint8(h.NumRefIdxL1DefaultActiveMinus1),
		PPSBetaOffsetDiv2:                    int8(h.BetaOffsetDiv2),
		PPSTcOffsetDiv2:                      int8(h.TcOffsetDiv2),
		NumExtraSliceHeaderBits:              uint8(h.NumExtraSliceHeaderBits),
		StRPSBits:                            uint32(h.ShortTermRPSBits),
	}
	if h.TilesEnabled {
		pp.NumTileColumnsMinus1 = uint8(max(len(h.ColumnWidthsMinus1)-1, 0))
		pp.NumTileRowsMinus1 = uint8(max(len(h.RowHeightsMinus1)-1, 0))
		for i, w := range h.ColumnWidthsMinus1 {
			pp.ColumnWidthMinus1[i] = uint16(w)
		}
		for i, r := range h.RowHeightsMinus1 {
			pp.RowHeightMinus1[i] = uint16(r)
		}
	}

	var fields vabuf.Bits
	fields.Add(2, uint32(sps.ChromaFormatIDC)).
		Flag(sps.SeparateColourPlane).
		Flag(sps.PCMEnabled).
		Flag(sps.ScalingListEnabled).
		Flag(h.TransformSkipEnabled).
		Flag(sps.AMPEnabled).
		Flag(sps.StrongIntraSmoothing).
		Flag(h.SignDataHiding).
		Flag(h.ConstrainedIntraPred).
		Flag(h.CuQPDeltaEnabled).
		Flag(h.WeightedPred).
		Flag(h.WeightedBipred).
		Flag(h.TransquantBypass).
		Flag(h.TilesEnabled).
		Flag(h.EntropyCodingSync).
		Flag(h.LoopFilterAcrossSlices).
		Flag(h.LoopFilterAcrossTiles).
		Flag(sps.PCMLoopFilterDisabled)
	pp.PicFields = fields.Value()

	var parsing vabuf.Bits
	parsing.Flag(h.ListsModificationPresent).
		Flag(sps.LongTermRefPicsPresent).
		Flag(sps.TemporalMVPEnabled).
		Flag(h.CabacInitPresent).
		Flag(h.OutputFlagPresent).
		Flag(h.DependentSliceSegmentsEnabled).
		Flag(h.SliceChromaQPOffsetsPresent).
		Flag(sps.SAOEnabled).
		Flag(h.DeblockingFilterOverrideEnabled).
		Flag(h.DisableDeblockingFilter).
		Flag(h.SliceHeaderExtensionPresent).
		Flag(h.IRAP).
		Flag(h.IDR).
		Flag(h.Intra)
	pp.SliceParsingFields = parsing.Value()

	window.Each(func(i int, slot vadecode.RefSlot[DPBEntry]) {
		pp.ReferenceFrames[i] = dpbPicture(slot)
	})
	return pp, nil
}

func buildIQMatrix(l *ScalingLists) *iqMatrix {
	return &iqMatrix{
		ScalingList4x4:     l.List4x4,
		ScalingList8x8:     l.List8x8,
		ScalingList16x16:   l.List16x16,
		ScalingList32x32:   l.List32x32,
		ScalingListDC16x16: l.DC16x16,
		ScalingListDC32x32: l.DC32x32,
	}
}

func buildSliceParams(s *Slice, dpbSize int, last bool) (*sliceParams, error) {
	h := &s.Header
	sp := &sliceParams{
		SliceDataSize:             uint32(len(s.Data)),
		SliceDataByteOffset:       uint32(h.HeaderBytes),
		SliceSegmentAddress:       uint32(h.SegmentAddress),
		CollocatedRefIdx:          uint8(h.CollocatedRefIdx),
		NumRefIdxL0ActiveMinus1:   uint8(h.NumRefIdxL0ActiveMinus1),
		NumRefIdxL1ActiveMinus1:   uint8(h.NumRefIdxL1ActiveMinus1),
		SliceQPDelta:              int8(h.QPDelta),
		SliceCbQPOffset:           int8(h.CbQPOffset),
		SliceCrQPOffset:           int8(h.CrQPOffset),
		SliceBetaOffsetDiv2:       int8(h.BetaOffsetDiv2),
		SliceTcOffsetDiv2:         int8(h.TcOffsetDiv2),
		FiveMinusMaxNumMergeCand:  uint8(h.FiveMinusMaxNumMergeCand),
		NumEntryPointOffsets:      uint16(h.NumEntryPointOffsets),
		SliceDataNumEmuPrevnBytes: uint16(h.EmulationPreventionBytes),
	}
	if !h.TemporalMVPEnabled {
		sp.CollocatedRefIdx = noReference
	}

	for l, list := range [2][]int{h.RefPicList0, h.RefPicList1} {
		if len(list) > maxReferenceFrames {
			return nil, fmt.Errorf("h265: reference list %d has %d entries", l, len(list))
		}
		for i := range sp.RefPicList[l] {
			sp.RefPicList[l][i] = noReference
		}
		for i, idx := range list {
			if idx < 0 || idx >= dpbSize {
				return nil, fmt.Errorf("h265: reference list %d entry %d points at DPB index %d of %d", l, i, idx, dpbSize)
			}
			sp.RefPicList[l][i] = uint8(idx)
		}
	}

	var flags vabuf.Bits
	flags.Flag(last).
		Flag(h.DependentSliceSegment).
		Add(2, uint32(h.SliceType)).
		Add(2, uint32(h.ColourPlaneID)).
		Flag(h.SAOLuma).
		Flag(h.SAOChroma).
		Flag(h.MvdL1Zero).
		Flag(h.CabacInit).
		Flag(h.TemporalMVPEnabled).
		Flag(h.DeblockingFilterDisabled).
		Flag(h.CollocatedFromL0).
		Flag(h.LoopFilterAcrossSlices)
	sp.LongSliceFlags = flags.Value()

	if w := h.Weights; w != nil {
		sp.LumaLog2WeightDenom = uint8(w.LumaLog2Denom)
		sp.DeltaChromaLog2WeightDenom = int8(w.DeltaChromaLog2Denom)
		sp.DeltaLumaWeightL0 = w.DeltaLumaWeightL0
		sp.LumaOffsetL0 = w.LumaOffsetL0
		sp.DeltaChromaWeightL0 = w.DeltaChromaWeightL0
		sp.ChromaOffsetL0 = w.ChromaOffsetL0
		sp.DeltaLumaWeightL1 = w.DeltaLumaWeightL1
		sp.LumaOffsetL1 = w.LumaOffsetL1
		sp.DeltaChromaWeightL1 = w.DeltaChromaWeightL1
		sp.ChromaOffsetL1 = w.ChromaOffsetL1
	}
	return sp, nil
}
