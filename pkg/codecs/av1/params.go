package av1

import (
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/vadecode"
)

type segmentationParams struct {
	SegmentInfoFields uint32
	FeatureData       [MaxSegments][SegLvlMax]int16
	FeatureMask       [MaxSegments]uint8
	_                 [4]uint32
}

type filmGrainParams struct {
	FilmGrainInfoFields uint32
	GrainSeed           uint16
	NumYPoints          uint8
	PointYValue         [14]uint8
	PointYScaling       [14]uint8
	NumCbPoints         uint8
	PointCbValue        [10]uint8
	PointCbScaling      [10]uint8
	NumCrPoints         uint8
	PointCrValue        [10]uint8
	PointCrScaling      [10]uint8
	ARCoeffsY           [24]int8
	ARCoeffsCb          [25]int8
	ARCoeffsCr          [25]int8
	CbMult              uint8
	CbLumaMult          uint8
	_                   uint8
	CbOffset            uint16
	CrMult              uint8
	CrLumaMult          uint8
	CrOffset            uint16
	_                   [4]uint32
}

type warpedMotionParams struct {
	WMType  int32
	WMMat   [8]int32
	Invalid uint8
	_       [3]uint8
	_       [4]uint32
}

type pictureParams struct {
	Profile                        uint8
	OrderHintBitsMinus1            uint8
	BitDepthIdx                    uint8
	MatrixCoefficients             uint8
	SeqInfoFields                  uint32
	CurrentFrame                   uint32
	CurrentDisplayPicture          uint32
	AnchorFramesNum                uint8
	_                              [7]uint8
	AnchorFramesList               uint64
	FrameWidthMinus1               uint16
	FrameHeightMinus1              uint16
	OutputFrameWidthInTilesMinus1  uint16
	OutputFrameHeightInTilesMinus1 uint16
	RefFrameMap                    [NumRefFrames]uint32
	RefFrameIdx                    [RefsPerFrame]uint8
	PrimaryRefFrame                uint8
	OrderHint                      uint8
	_                              [3]uint8
	SegInfo                        segmentationParams
	FilmGrainInfo                  filmGrainParams
	TileCols                       uint8
	TileRows                       uint8
	WidthInSbsMinus1               [MaxTileCols]uint16
	HeightInSbsMinus1              [MaxTileRows]uint16
	TileCountMinus1                uint16
	ContextUpdateTileID            uint16
	_                              [2]uint8
	PicInfoFields                  uint32
	SuperresScaleDenominator       uint8
	InterpFilter                   uint8
	FilterLevel                    [2]uint8
	FilterLevelU                   uint8
	FilterLevelV                   uint8
	LoopFilterInfoFields           uint8
	RefDeltas                      [NumRefFrames]int8
	ModeDeltas                     [2]int8
	BaseQIdx                       uint8
	YDcDeltaQ                      int8
	UDcDeltaQ                      int8
	UAcDeltaQ                      int8
	VDcDeltaQ                      int8
	VAcDeltaQ                      int8
	_                              uint8
	QMatrixFields                  uint16
	_                              [2]uint8
	ModeControlFields              uint32
	CdefDampingMinus3              uint8
	CdefBits                       uint8
	CdefYStrengths                 [8]uint8
	CdefUVStrengths                [8]uint8
	LoopRestorationFields          uint16
	WM                             [RefsPerFrame]warpedMotionParams
	_                              [8]uint32
}

type sliceParams struct {
	SliceDataSize     uint32
	SliceDataOffset   uint32
	SliceDataFlag     uint32
	TileRow           uint16
	TileColumn        uint16
	TGStart           uint16
	TGEnd             uint16
	AnchorFrameIdx    uint8
	_                 uint8
	TileIdxInTileList uint16
	_                 [4]uint32
}

func buildSegmentation(s *Segmentation) segmentationParams {
	var fields vabuf.Bits
	fields.Flag(s.Enabled).Flag(s.UpdateMap).Flag(s.TemporalUpdate).Flag(s.UpdateData)
	return segmentationParams{
		SegmentInfoFields: fields.Value(),
		FeatureData:       s.FeatureData,
		FeatureMask:       s.FeatureMask,
	}
}

func buildFilmGrain(g *FilmGrain) (filmGrainParams, error) {
	if !g.ApplyGrain {
		return filmGrainParams{}, nil
	}
	if len(g.PointYValue) > 14 || len(g.PointCbValue) > 10 || len(g.PointCrValue) > 10 {
		return filmGrainParams{}, fmt.Errorf("av1: film grain has %d/%d/%d points",
			len(g.PointYValue), len(g.PointCbValue), len(g.PointCrValue))
	}
	var fields vabuf.Bits
	fields.Flag(g.ApplyGrain).
		Flag(g.ChromaScalingFromLuma).
		Add(2, uint32(g.GrainScalingMinus8)).
		Add(2, uint32(g.ARCoeffLag)).
		Add(2, uint32(g.ARCoeffShiftMinus6)).
		Add(2, uint32(g.GrainScaleShift)).
		Flag(g.Overlap).
		Flag(g.ClipToRestrictedRange)

	p := filmGrainParams{
		FilmGrainInfoFields: fields.Value(),
		GrainSeed:           g.GrainSeed,
		NumYPoints:          uint8(len(g.PointYValue)),
		NumCbPoints:         uint8(len(g.PointCbValue)),
		NumCrPoints:         uint8(len(g.PointCrValue)),
		ARCoeffsY:           g.ARCoeffsY,
		ARCoeffsCb:          g.ARCoeffsCb,
		ARCoeffsCr:          g.ARCoeffsCr,
		CbMult:              g.CbMult,
		CbLumaMult:          g.CbLumaMult,
		CbOffset:            g.CbOffset,
		CrMult:              g.CrMult,
		CrLumaMult:          g.CrLumaMult,
		CrOffset:            g.CrOffset,
	}
	copy(p.PointYValue[:], g.PointYValue)
	copy(p.PointYScaling[:], g.PointYScaling)
	copy(p.PointCbValue[:], g.PointCbValue)
	copy(p.PointCbScaling[:], g.PointCbScaling)
	copy(p.PointCrValue[:], g.PointCrValue)
	copy(p.PointCrScaling[:], g.PointCrScaling)
	return p, nil
}

func buildPictureParams(seq *SequenceHeader, h *FrameHeader, pic *vadecode.Picture, window *vadecode.RefWindow[slotMeta]) (*pictureParams, error) {
	t := &h.Tiles
	if len(t.WidthInSbsMinus1) > MaxTileCols || len(t.HeightInSbsMinus1) > MaxTileRows {
		return nil, fmt.Errorf("av1: %dx%d tiles", len(t.WidthInSbsMinus1), len(t.HeightInSbsMinus1))
	}
	grain, err := buildFilmGrain(&h.FilmGrain)
	if err != nil {
		return nil, err
	}

	pp := &pictureParams{
		Profile:               uint8(seq.Profile),
		OrderHintBitsMinus1:   uint8(max(seq.OrderHintBits-1, 0)),
		BitDepthIdx:           bitDepthIdx(seq.BitDepth),
		MatrixCoefficients:    uint8(seq.MatrixCoefficients),
		CurrentFrame:          uint32(pic.ReconstructedSurfaceID()),
		CurrentDisplayPicture: uint32(pic.SurfaceID()),
		FrameWidthMinus1:      uint16(h.FrameWidth - 1),
		FrameHeightMinus1:     uint16(h.FrameHeight - 1),
		PrimaryRefFrame:       uint8(h.PrimaryRefFrame),
		OrderHint:             uint8(h.OrderHint),
		SegInfo:               buildSegmentation(&h.Segmentation),
		FilmGrainInfo:         grain,
		TileCols:              uint8(len(t.WidthInSbsMinus1)),
		TileRows:              uint8(len(t.HeightInSbsMinus1)),
		ContextUpdateTileID:   uint16(t.ContextUpdateTileID),
		InterpFilter:          uint8(h.InterpFilter),
		FilterLevel:           h.LoopFilter.Level,
		FilterLevelU:          h.LoopFilter.LevelU,
		FilterLevelV:          h.LoopFilter.LevelV,
		RefDeltas:             h.LoopFilter.RefDeltas,
		ModeDeltas:            h.LoopFilter.ModeDeltas,
		BaseQIdx:              h.Quantization.BaseQIdx,
		YDcDeltaQ:             h.Quantization.DeltaQYDc,
		UDcDeltaQ:             h.Quantization.DeltaQUDc,
		UAcDeltaQ:             h.Quantization.DeltaQUAc,
		VDcDeltaQ:             h.Quantization.DeltaQVDc,
		VAcDeltaQ:             h.Quantization.DeltaQVAc,
		CdefDampingMinus3:     h.CDEF.DampingMinus3,
		CdefBits:              h.CDEF.Bits,
		CdefYStrengths:        h.CDEF.YStrengths,
		CdefUVStrengths:       h.CDEF.UVStrengths,
	}
	if n := len(t.WidthInSbsMinus1) * len(t.HeightInSbsMinus1); n > 0 {
		pp.TileCountMinus1 = uint16(n - 1)
	}
	for i, w := range t.WidthInSbsMinus1 {
		pp.WidthInSbsMinus1[i] = uint16(w)
	}
	for i, r := range t.HeightInSbsMinus1 {
		pp.HeightInSbsMinus1[i] = uint16(r)
	}
	if h.UseSuperres {
		pp.SuperresScaleDenominator = uint8(h.SuperresDenom)
	} else {
		pp.SuperresScaleDenominator = 8
	}
	for i, idx := range h.RefFrameIdx {
		pp.RefFrameIdx[i] = uint8(idx)
	}
	for i, id := range window.Surfaces() {
		pp.RefFrameMap[i] = uint32(id)
	}

	var seqFields vabuf.Bits
	seqFields.Flag(seq.StillPicture).
		Flag(seq.Use128x128Superblock).
		Flag(seq.EnableFilterIntra).
		Flag(seq.EnableIntraEdgeFilter).
		Flag(seq.EnableInterintraComp).
		Flag(seq.EnableMaskedCompound).
		Flag(seq.EnableDualFilter).
		Flag(seq.EnableOrderHint).
		Flag(seq.EnableJntComp).
		Flag(seq.EnableCdef).
		Flag(seq.MonoChrome).
		Flag(seq.ColorRange).
		Flag(seq.SubsamplingX).
		Flag(seq.SubsamplingY).
		Add(1, uint32(seq.ChromaSamplePosition)).
		Flag(seq.FilmGrainParamsPresent)
	pp.SeqInfoFields = seqFields.Value()

	var picFields vabuf.Bits
	picFields.Add(2, uint32(h.FrameType)).
		Flag(h.ShowFrame).
		Flag(h.ShowableFrame).
		Flag(h.ErrorResilient).
		Flag(h.DisableCdfUpdate).
		Flag(h.AllowScreenContentTools).
		Flag(h.ForceIntegerMV).
		Flag(h.AllowIntrabc).
		Flag(h.UseSuperres).
		Flag(h.AllowHighPrecisionMV).
		Flag(h.IsMotionModeSwitchable).
		Flag(h.UseRefFrameMvs).
		Flag(h.DisableFrameEndUpdateCdf).
		Flag(t.UniformSpacing).
		Flag(h.AllowWarpedMotion)
	pp.PicInfoFields = picFields.Value()

	lf := &h.LoopFilter
	var lfFields vabuf.Bits
	lfFields.Add(3, uint32(lf.Sharpness)).Flag(lf.DeltaEnabled).Flag(lf.DeltaUpdate)
	pp.LoopFilterInfoFields = uint8(lfFields.Value())

	q := &h.Quantization
	var qm vabuf.Bits
	qm.Flag(q.UsingQMatrix).Add(4, uint32(q.QMY)).Add(4, uint32(q.QMU)).Add(4, uint32(q.QMV))
	pp.QMatrixFields = uint16(qm.Value())

	var mode vabuf.Bits
	mode.Flag(q.DeltaQPresent).
		Add(2, uint32(q.DeltaQRes)).
		Flag(lf.DeltaLFPresent).
		Add(2, uint32(lf.DeltaLFRes)).
		Flag(lf.DeltaLFMulti).
		Add(2, uint32(h.TxMode)).
		Flag(h.ReferenceSelect).
		Flag(h.ReducedTxSet).
		Flag(h.SkipModePresent)
	pp.ModeControlFields = mode.Value()

	lr := &h.LoopRestoration
	var lrFields vabuf.Bits
	lrFields.Add(2, uint32(lr.Type[0])).
		Add(2, uint32(lr.Type[1])).
		Add(2, uint32(lr.Type[2])).
		Add(2, uint32(lr.UnitShift)).
		Add(1, uint32(lr.UVShift))
	pp.LoopRestorationFields = uint16(lrFields.Value())

	for i, wm := range h.GlobalMotion {
		pp.WM[i] = warpedMotionParams{WMType: wm.Type, WMMat: wm.Params, Invalid: vabuf.Bool(wm.Invalid)}
	}
	return pp, nil
}

func buildTileParams(tg *TileGroup) ([]sliceParams, error) {
	params := make([]sliceParams, len(tg.Tiles))
	for i, tile := range tg.Tiles {
		if tile.Offset < 0 || tile.Size < 0 || tile.Offset+tile.Size > len(tg.Data) {
			return nil, fmt.Errorf("av1: tile %d spans %d+%d of a %d byte group", i, tile.Offset, tile.Size, len(tg.Data))
		}
		params[i] = sliceParams{
			SliceDataSize:   uint32(tile.Size),
			SliceDataOffset: uint32(tile.Offset),
			TileRow:         uint16(tile.Row),
			TileColumn:      uint16(tile.Column),
			TGStart:         uint16(tg.Start),
			TGEnd:           uint16(tg.End),
		}
	}
	return params, nil
}

// slotMeta is what the window keeps per reference slot.
type slotMeta struct{}
