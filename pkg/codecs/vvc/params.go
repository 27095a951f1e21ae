package vvc

import (
	"fmt"
	"slices"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// VAPictureVVC flags.
const (
	picInvalid     = 0x01
	picLongTermRef = 0x02
	maxReferences  = 15
	maxAlfApsLuma  = 7
	noReference    = 0xff
)

type vaPicture struct {
	PictureID   uint32
	PicOrderCnt int32
	Flags       uint32
	_           [4]uint32
}

var invalidPicture = vaPicture{PictureID: ports.InvalidID, Flags: picInvalid}

type pictureParams struct {
	CurrPic                           vaPicture
	ReferenceFrames                   [maxReferences]vaPicture
	PicWidthInLumaSamples             uint16
	PicHeightInLumaSamples            uint16
	NumSubpicsMinus1                  uint16
	ChromaFormatIDC                   uint8
	BitDepthMinus8                    uint8
	Log2CtuSizeMinus5                 uint8
	Log2MinLumaCodingBlockSizeMinus2  uint8
	Log2TransformSkipMaxSizeMinus2    uint8
	ChromaQPTable                     [3][111]int8
	SixMinusMaxNumMergeCand           uint8
	FiveMinusMaxNumSubblockMergeCand  uint8
	MaxNumMergeCandMinusMaxNumGpmCand uint8
	Log2ParallelMergeLevelMinus2      uint8
	MinQPPrimeTS                      uint8
	SixMinusMaxNumIbcMergeCand        uint8
	_                                 [2]uint8
	SPSFlags                          uint64
	NumTileColumnsMinus1              uint16
	NumTileRowsMinus1                 uint16
	NumSlicesInPicMinus1              uint16
	InitQPMinus26                     int8
	CbQPOffset                        int8
	CrQPOffset                        int8
	JointCbCrQPOffset                 int8
	_                                 [2]uint8
	PPSFlags                          uint32
	PHFlags                           uint32
	PHAlfApsIDLuma                    [maxAlfApsLuma]uint8
	PHNumAlfApsIDsLuma                uint8
	PHAlfApsIDChroma                  uint8
	PHAlfCcCbApsID                    uint8
	PHAlfCcCrApsID                    uint8
	PHLmcsApsID                       uint8
	PHScalingListApsID                uint8
	_                                 [3]uint8
	_                                 [8]uint32
}

type alfParams struct {
	ApsID                         uint8
	LumaNumFiltersSignalledMinus1 uint8
	LumaCoeffDeltaIdx             [25]uint8
	FiltCoeff                     [25][12]int8
	LumaClipIdx                   [25][12]uint8
	ChromaNumAltFiltersMinus1     uint8
	AlfCoeffC                     [8][6]int8
	ChromaClipIdx                 [8][6]uint8
	CcCbFiltersSignalledMinus1    uint8
	CcAlfApsCoeffCb               [4][7]int8
	CcCrFiltersSignalledMinus1    uint8
	CcAlfApsCoeffCr               [4][7]int8
	_                             uint16
	_                             [8]uint32
	AlfFlags                      uint32
}

type lmcsParams struct {
	ApsID          uint8
	MinBinIdx      uint8
	DeltaMaxBinIdx uint8
	_              uint8
	DeltaCW        [16]int16
	DeltaCrs       int8
	_              [3]uint8
	_              [8]uint32
}

type scalingListParams struct {
	ApsID  uint8
	_      uint8
	DCRec  [14]uint8
	Rec2x2 [2][2][2]uint8
	Rec4x4 [6][4][4]uint8
	Rec8x8 [20][8][8]uint8
	_      [8]uint32
}

type subpicParams struct {
	CtuTopLeftX  uint16
	CtuTopLeftY  uint16
	WidthMinus1  uint16
	HeightMinus1 uint16
	SubpicIDVal  uint16
	SubpicFlags  uint16
	_            [4]uint32
}

type sliceStructParams struct {
	SliceTopLeftTileIdx        uint16
	SliceWidthInTilesMinus1    uint16
	SliceHeightInTilesMinus1   uint16
	ExpSliceHeightInCtusMinus1 uint16
	_                          [4]uint32
}

type weightTable struct {
	LumaLog2WeightDenom        uint8
	DeltaChromaLog2WeightDenom int8
	NumL0Weights               uint8
	LumaWeightL0Flag           [maxReferences]uint8
	ChromaWeightL0Flag         [maxReferences]uint8
	DeltaLumaWeightL0          [maxReferences]int8
	LumaOffsetL0               [maxReferences]int8
	DeltaChromaWeightL0        [maxReferences][2]int8
	_                          uint8
	DeltaChromaOffsetL0        [maxReferences][2]int16
	NumL1Weights               uint8
	LumaWeightL1Flag           [maxReferences]uint8
	ChromaWeightL1Flag         [maxReferences]uint8
	DeltaLumaWeightL1          [maxReferences]int8
	LumaOffsetL1               [maxReferences]int8
	DeltaChromaWeightL1        [maxReferences][2]int8
	_                          uint8
	DeltaChromaOffsetL1        [maxReferences][2]int16
	_                          [4]uint16
}

type sliceParams struct {
	SliceDataSize         uint32
	SliceDataOffset       uint32
	SliceDataFlag         uint32
	SliceDataByteOffset   uint32
	RefPicList            [2][maxReferences]uint8
	SubpicID              uint16
	SliceAddress          uint16
	NumTilesInSliceMinus1 uint16
	SliceType             uint8
	NumAlfApsIDsLuma      uint8
	AlfApsIDLuma          [maxAlfApsLuma]uint8
	AlfApsIDChroma        uint8
	AlfCcCbApsID          uint8
	AlfCcCrApsID          uint8
	NumRefIdxActive       [2]uint8
	CollocatedRefIdx      uint8
	SliceQPY              int8
	CbQPOffset            int8
	CrQPOffset            int8
	JointCbCrQPOffset     int8
	LumaBetaOffsetDiv2    int8
	LumaTcOffsetDiv2      int8
	CbBetaOffsetDiv2      int8
	CbTcOffsetDiv2        int8
	CrBetaOffsetDiv2      int8
	CrTcOffsetDiv2        int8
	_                     [3]uint8
	_                     uint32
	WPInfo                weightTable
	_                     [2]uint8
	SliceFlags            uint32
	_                     [8]uint32
}

// slotMeta is what the window keeps per DPB entry.
type slotMeta = DPBEntry

func buildPictureParams(sps *SPS, pps *PPS, ph *PictureHeader, pic *vadecode.Picture, window *vadecode.RefWindow[slotMeta]) (*pictureParams, error) {
	if len(ph.AlfApsIDLuma) > maxAlfApsLuma {
		return nil, fmt.Errorf("vvc: %d luma ALF sets", len(ph.AlfApsIDLuma))
	}
	if len(pps.TileColumnWidthsMinus1) == 0 || len(pps.TileRowHeightsMinus1) == 0 {
		return nil, fmt.Errorf("vvc: PPS without a tile layout")
	}
	pp := &pictureParams{
		CurrPic: vaPicture{
			PictureID:   uint32(pic.SurfaceID()),
			PicOrderCnt: ph.POC,
		},
		PicWidthInLumaSamples:             uint16(pps.Width),
		PicHeightInLumaSamples:            uint16(pps.Height),
		NumSubpicsMinus1:                  uint16(max(len(sps.Subpics)-1, 0)),
		ChromaFormatIDC:                   uint8(sps.ChromaFormatIDC),
		BitDepthMinus8:                    uint8(bitDepth(sps) - 8),
		Log2CtuSizeMinus5:                 uint8(sps.Log2CtuSize - 5),
		Log2MinLumaCodingBlockSizeMinus2:  uint8(sps.Log2MinCbSize - 2),
		Log2TransformSkipMaxSizeMinus2:    uint8(sps.Log2TransformSkipMaxSizeMinus2),
		ChromaQPTable:                     sps.ChromaQPTable,
		SixMinusMaxNumMergeCand:           uint8(sps.SixMinusMaxNumMergeCand),
		FiveMinusMaxNumSubblockMergeCand:  uint8(sps.FiveMinusMaxNumSubblockMergeCand),
		MaxNumMergeCandMinusMaxNumGpmCand: uint8(sps.MaxNumMergeCandMinusMaxNumGpmCand),
		Log2ParallelMergeLevelMinus2:      uint8(sps.Log2ParallelMergeLevelMinus2),
		MinQPPrimeTS:                      uint8(sps.MinQPPrimeTS),
		SixMinusMaxNumIbcMergeCand:        uint8(sps.SixMinusMaxNumIbcMergeCand),
		NumTileColumnsMinus1:              uint16(len(pps.TileColumnWidthsMinus1) - 1),
		NumTileRowsMinus1:                 uint16(len(pps.TileRowHeightsMinus1) - 1),
		NumSlicesInPicMinus1:              uint16(pps.NumSlicesInPicMinus1),
		InitQPMinus26:                     int8(pps.InitQPMinus26),
		CbQPOffset:                        int8(pps.CbQPOffset),
		CrQPOffset:                        int8(pps.CrQPOffset),
		JointCbCrQPOffset:                 int8(pps.JointCbCrQPOffset),
		PHNumAlfApsIDsLuma:                uint8(len(ph.AlfApsIDLuma)),
		PHAlfApsIDChroma:                  uint8(ph.AlfApsIDChroma),
		PHAlfCcCbApsID:                    uint8(ph.AlfCcCbApsID),
		PHAlfCcCrApsID:                    uint8(ph.AlfCcCrApsID),
		PHLmcsApsID:                       uint8(ph.LmcsApsID),
		PHScalingListApsID:                uint8(ph.ScalingListApsID),
	}
	for i, id := range ph.AlfApsIDLuma {
		pp.PHAlfApsIDLuma[i] = uint8(id)
	}
	window.Each(func(i int, slot vadecode.RefSlot[slotMeta]) {
		if !slot.Present && !slot.Substituted {
			pp.ReferenceFrames[i] = invalidPicture
			return
		}
		var flags uint32
		if slot.Meta.LongTerm {
			flags |= picLongTermRef
		}
		pp.ReferenceFrames[i] = vaPicture{
			PictureID:   uint32(slot.Surface),
			PicOrderCnt: slot.Meta.POC,
			Flags:       flags,
		}
	})

	var spsFlags vabuf.Bits
	spsFlags.Flag(sps.SubpicInfoPresent).
		Flag(sps.IndependentSubpics).
		Flag(sps.SubpicSameSize).
		Flag(sps.EntropyCodingSync).
		Flag(sps.QtbttDualTreeIntra).
		Flag(sps.MaxLumaTransformSize64).
		Flag(sps.TransformSkip).
		Flag(sps.BDPCM).
		Flag(sps.MTS).
		Flag(sps.LFNST).
		Flag(sps.JointCbCr).
		Flag(sps.SameQPTableForChroma).
		Flag(sps.SAO).
		Flag(sps.ALF).
		Flag(sps.CCALF).
		Flag(sps.LMCS).
		Flag(sps.TemporalMVP).
		Flag(sps.SbTMVP).
		Flag(sps.AMVR).
		Flag(sps.BDOF).
		Flag(sps.DMVR).
		Flag(sps.MMVD).
		Flag(sps.Affine).
		Flag(sps.ISP).
		Flag(sps.MRL).
		Flag(sps.MIP).
		Flag(sps.CCLM).
		Flag(sps.Palette).
		Flag(sps.IBC).
		Flag(sps.ExplicitScalingList)
	pp.SPSFlags = uint64(spsFlags.Value())

	var ppsFlags vabuf.Bits
	ppsFlags.Flag(pps.LoopFilterAcrossTiles).
		Flag(pps.RectSlice).
		Flag(pps.SingleSlicePerSubpic).
		Flag(pps.LoopFilterAcrossSlices).
		Flag(pps.CabacInitPresent).
		Flag(pps.WeightedPred).
		Flag(pps.WeightedBipred).
		Flag(pps.RefWraparound).
		Flag(pps.CuQPDeltaEnabled).
		Flag(pps.DeblockingFilterDisabled).
		Flag(pps.RplInfoInPH).
		Flag(pps.WpInfoInPH)
	pp.PPSFlags = ppsFlags.Value()

	var phFlags vabuf.Bits
	phFlags.Flag(ph.NonRef).
		Flag(ph.GdrOrIrap).
		Flag(ph.Gdr).
		Flag(ph.IntraSliceAllowed).
		Flag(ph.InterSliceAllowed).
		Flag(ph.TemporalMVP).
		Flag(ph.MMVDFullpelOnly).
		Flag(ph.MvdL1Zero).
		Flag(ph.BDOFDisabled).
		Flag(ph.DMVRDisabled).
		Flag(ph.PROFDisabled).
		Flag(ph.JointCbCrSign).
		Flag(ph.SAOLuma).
		Flag(ph.SAOChroma).
		Flag(ph.ALFEnabled).
		Flag(ph.ALFCb).
		Flag(ph.ALFCr).
		Flag(ph.ALFCcCb).
		Flag(ph.ALFCcCr).
		Flag(ph.LMCSEnabled).
		Flag(ph.ChromaResidualScale).
		Flag(ph.ExplicitScalingList).
		Flag(ph.DeblockingDisabled)
	pp.PHFlags = phFlags.Value()
	return pp, nil
}

func buildALF(a *ALFData) alfParams {
	var flags vabuf.Bits
	flags.Flag(a.LumaFilter).
		Flag(a.ChromaFilter).
		Flag(a.CcCbFilter).
		Flag(a.CcCrFilter).
		Flag(a.LumaClip).
		Flag(a.ChromaClip)
	return alfParams{
		ApsID:                         uint8(a.ID),
		LumaNumFiltersSignalledMinus1: uint8(a.LumaFiltersSignalledMinus1),
		LumaCoeffDeltaIdx:             a.LumaCoeffDeltaIdx,
		FiltCoeff:                     a.LumaCoeffs,
		LumaClipIdx:                   a.LumaClipIdx,
		ChromaNumAltFiltersMinus1:     uint8(a.ChromaAltFiltersMinus1),
		AlfCoeffC:                     a.ChromaCoeffs,
		ChromaClipIdx:                 a.ChromaClipIdx,
		CcCbFiltersSignalledMinus1:    uint8(a.CcCbFiltersMinus1),
		CcAlfApsCoeffCb:               a.CcCbCoeffs,
		CcCrFiltersSignalledMinus1:    uint8(a.CcCrFiltersMinus1),
		CcAlfApsCoeffCr:               a.CcCrCoeffs,
		AlfFlags:                      flags.Value(),
	}
}

func buildLMCS(l *LMCSData) *lmcsParams {
	return &lmcsParams{
		ApsID:          uint8(l.ID),
		MinBinIdx:      uint8(l.MinBinIdx),
		DeltaMaxBinIdx: uint8(l.DeltaMaxBinIdx),
		DeltaCW:        l.DeltaCW,
		DeltaCrs:       l.DeltaCrs,
	}
}

func buildScalingList(s *ScalingListData) *scalingListParams {
	return &scalingListParams{
		ApsID:  uint8(s.ID),
		DCRec:  s.DC,
		Rec2x2: s.Matrix2x2,
		Rec4x4: s.Matrix4x4,
		Rec8x8: s.Matrix8x8,
	}
}

func buildSubpics(subpics []SubPic) []subpicParams {
	out := make([]subpicParams, len(subpics))
	for i, s := range subpics {
		var flags vabuf.Bits
		flags.Flag(s.TreatedAsPic).Flag(s.LoopFilterAcross)
		out[i] = subpicParams{
			CtuTopLeftX:  uint16(s.CtuTopLeftX),
			CtuTopLeftY:  uint16(s.CtuTopLeftY),
			WidthMinus1:  uint16(s.WidthMinus1),
			HeightMinus1: uint16(s.HeightMinus1),
			SubpicIDVal:  uint16(s.ID),
			SubpicFlags:  uint16(flags.Value()),
		}
	}
	return out
}

// buildTiles lists the tile column widths then the tile row heights, in CTUs
// minus one.
func buildTiles(pps *PPS) []uint16 {
	out := make([]uint16, 0, len(pps.TileColumnWidthsMinus1)+len(pps.TileRowHeightsMinus1))
	for _, w := range pps.TileColumnWidthsMinus1 {
		out = append(out, uint16(w))
	}
	for _, h := range pps.TileRowHeightsMinus1 {
		out = append(out, uint16(h))
	}
	return out
}

func buildSliceStructs(layouts []SliceLayout) []sliceStructParams {
	out := make([]sliceStructParams, len(layouts))
	for i, l := range layouts {
		out[i] = sliceStructParams{
			SliceTopLeftTileIdx:        uint16(l.TopLeftTileIdx),
			SliceWidthInTilesMinus1:    uint16(l.WidthInTilesMinus1),
			SliceHeightInTilesMinus1:   uint16(l.HeightInTilesMinus1),
			ExpSliceHeightInCtusMinus1: uint16(l.ExpSliceHeightInCtusMinus1),
		}
	}
	return out
}

func buildWeights(w *PredWeightTable) weightTable {
	t := weightTable{
		LumaLog2WeightDenom:        uint8(w.LumaLog2Denom),
		DeltaChromaLog2WeightDenom: int8(w.DeltaChromaLog2Denom),
		NumL0Weights:               uint8(w.NumWeights[0]),
		NumL1Weights:               uint8(w.NumWeights[1]),
		DeltaLumaWeightL0:          w.DeltaLumaWeight[0],
		DeltaLumaWeightL1:          w.DeltaLumaWeight[1],
		LumaOffsetL0:               w.LumaOffset[0],
		LumaOffsetL1:               w.LumaOffset[1],
		DeltaChromaWeightL0:        w.DeltaChromaWeight[0],
		DeltaChromaWeightL1:        w.DeltaChromaWeight[1],
		DeltaChromaOffsetL0:        w.DeltaChromaOffset[0],
		DeltaChromaOffsetL1:        w.DeltaChromaOffset[1],
	}
	for i := 0; i < maxReferences; i++ {
		t.LumaWeightL0Flag[i] = vabuf.Bool(w.LumaFlag[0][i])
		t.LumaWeightL1Flag[i] = vabuf.Bool(w.LumaFlag[1][i])
		t.ChromaWeightL0Flag[i] = vabuf.Bool(w.ChromaFlag[0][i])
		t.ChromaWeightL1Flag[i] = vabuf.Bool(w.ChromaFlag[1][i])
	}
	return t
}

// buildSliceParams fills the parameters of one slice whose data starts at
// offset in the picture's data buffer.
func buildSliceParams(s *SliceHeader, dpbSize, offset, size int) (sliceParams, error) {
	if len(s.AlfApsIDLuma) > maxAlfApsLuma {
		return sliceParams{}, fmt.Errorf("vvc: slice uses %d luma ALF sets", len(s.AlfApsIDLuma))
	}
	if s.HeaderBytes > size {
		return sliceParams{}, fmt.Errorf("vvc: %d byte slice header in %d bytes", s.HeaderBytes, size)
	}
	sp := sliceParams{
		SliceDataSize:         uint32(size),
		SliceDataOffset:       uint32(offset),
		SliceDataByteOffset:   uint32(s.HeaderBytes),
		SubpicID:              uint16(s.SubpicID),
		SliceAddress:          uint16(s.SliceAddress),
		NumTilesInSliceMinus1: uint16(s.NumTilesInSliceMinus1),
		SliceType:             uint8(s.SliceType),
		NumAlfApsIDsLuma:      uint8(len(s.AlfApsIDLuma)),
		AlfApsIDChroma:        uint8(s.AlfApsIDChroma),
		AlfCcCbApsID:          uint8(s.AlfCcCbApsID),
		AlfCcCrApsID:          uint8(s.AlfCcCrApsID),
		NumRefIdxActive:       [2]uint8{uint8(len(s.RefPicList[0])), uint8(len(s.RefPicList[1]))},
		CollocatedRefIdx:      uint8(s.CollocatedRefIdx),
		SliceQPY:              int8(s.QPY),
		CbQPOffset:            int8(s.CbQPOffset),
		CrQPOffset:            int8(s.CrQPOffset),
		JointCbCrQPOffset:     int8(s.JointCbCrQPOffset),
		LumaBetaOffsetDiv2:    int8(s.LumaBetaOffsetDiv2),
		LumaTcOffsetDiv2:      int8(s.LumaTcOffsetDiv2),
		CbBetaOffsetDiv2:      int8(s.CbBetaOffsetDiv2),
		CbTcOffsetDiv2:        int8(s.CbTcOffsetDiv2),
		CrBetaOffsetDiv2:      int8(s.CrBetaOffsetDiv2),
		CrTcOffsetDiv2:        int8(s.CrTcOffsetDiv2),
	}
	for i, id := range s.AlfApsIDLuma {
		sp.AlfApsIDLuma[i] = uint8(id)
	}
	for l := range sp.RefPicList {
		if len(s.RefPicList[l]) > maxReferences {
			return sliceParams{}, fmt.Errorf("vvc: list %d has %d entries", l, len(s.RefPicList[l]))
		}
		for i := range sp.RefPicList[l] {
			sp.RefPicList[l][i] = noReference
		}
		for i, idx := range s.RefPicList[l] {
			if idx < 0 || idx >= dpbSize {
				return sliceParams{}, fmt.Errorf("vvc: list %d entry %d names DPB index %d of %d", l, i, idx, dpbSize)
			}
			sp.RefPicList[l][i] = uint8(idx)
		}
	}
	if s.Weights != nil {
		sp.WPInfo = buildWeights(s.Weights)
	}

	var flags vabuf.Bits
	flags.Flag(s.NoOutputOfPriorPics).
		Flag(s.ALFEnabled).
		Flag(s.ALFCb).
		Flag(s.ALFCr).
		Flag(s.ALFCcCb).
		Flag(s.ALFCcCr).
		Flag(s.LMCSUsed).
		Flag(s.ExplicitScalingListUsed).
		Flag(s.CabacInit).
		Flag(s.CollocatedFromL0).
		Flag(s.CuChromaQPOffsetEnabled).
		Flag(s.SAOLuma).
		Flag(s.SAOChroma).
		Flag(s.DeblockingDisabled).
		Flag(s.DepQuant).
		Flag(s.SignDataHiding).
		Flag(s.TSResidualCodingDisabled)
	sp.SliceFlags = flags.Value()
	return sp, nil
}

// checkAPS verifies that every adaptation parameter set the picture header
// and slices refer to is present.
func checkAPS(u *Unit) error {
	alf := make([]int, len(u.ALF))
	for i := range u.ALF {
		alf[i] = u.ALF[i].ID
	}
	need := func(what string, id int) error {
		if !slices.Contains(alf, id) {
			return fmt.Errorf("vvc: %s refers to missing ALF set %d", what, id)
		}
		return nil
	}
	check := func(what string, enabled, cb, cr, ccCb, ccCr bool, luma []int, chroma, ccCbID, ccCrID int) error {
		if !enabled {
			return nil
		}
		for _, id := range luma {
			if err := need(what, id); err != nil {
				return err
			}
		}
		for _, c := range []struct {
			on bool
			id int
		}{{cb || cr, chroma}, {ccCb, ccCbID}, {ccCr, ccCrID}} {
			if c.on {
				if err := need(what, c.id); err != nil {
					return err
				}
			}
		}
		return nil
	}

	ph := &u.Picture
	if err := check("picture header", ph.ALFEnabled, ph.ALFCb, ph.ALFCr, ph.ALFCcCb, ph.ALFCcCr,
		ph.AlfApsIDLuma, ph.AlfApsIDChroma, ph.AlfCcCbApsID, ph.AlfCcCrApsID); err != nil {
		return err
	}
	for i := range u.Slices {
		s := &u.Slices[i].Header
		if err := check(fmt.Sprintf("slice %d", i), s.ALFEnabled, s.ALFCb, s.ALFCr, s.ALFCcCb, s.ALFCcCr,
			s.AlfApsIDLuma, s.AlfApsIDChroma, s.AlfCcCbApsID, s.AlfCcCrApsID); err != nil {
			return err
		}
	}
	if ph.LMCSEnabled && (u.LMCS == nil || u.LMCS.ID != ph.LmcsApsID) {
		return fmt.Errorf("vvc: picture header refers to missing LMCS set %d", ph.LmcsApsID)
	}
	if ph.ExplicitScalingList && (u.ScalingList == nil || u.ScalingList.ID != ph.ScalingListApsID) {
		return fmt.Errorf("vvc: picture header refers to missing scaling list set %d", ph.ScalingListApsID)
	}
	return nil
}
