package mp4source

import (
	"github.com/Eyevinn/mp4ff/avc"
	"github.com/user/vadecode/pkg/codecs/h264"
)

// convertSPS maps a parsed SPS to the decoder's sequence header. mp4ff reports
// the cropped size, so the coded size in macroblocks is rebuilt from it.
func convertSPS(s *avc.SPS) *h264.SPS {
	out := &h264.SPS{
		ProfileIDC:                  int(s.Profile),
		ConstraintSet1:              s.ProfileCompatibility&0x40 != 0,
		LevelIDC:                    int(s.Level),
		ChromaFormatIDC:             int(s.ChromaFormatIDC),
		BitDepthLumaMinus8:          int(s.BitDepthLumaMinus8),
		BitDepthChromaMinus8:        int(s.BitDepthChromaMinus8),
		FrameMbsOnly:                s.FrameMbsOnlyFlag,
		MbAdaptiveFrameField:        s.MbAdaptiveFrameFieldFlag,
		Direct8x8Inference:          s.Direct8x8InferenceFlag,
		Log2MaxFrameNumMinus4:       int(s.Log2MaxFrameNumMinus4),
		PicOrderCntType:             int(s.PicOrderCntType),
		Log2MaxPicOrderCntLsbMinus4: int(s.Log2MaxPicOrderCntLsbMinus4),
		DeltaPicOrderAlwaysZero:     s.DeltaPicOrderAlwaysZeroFlag,
		GapsInFrameNumAllowed:       s.GapsInFrameNumValueAllowedFlag,
		NumRefFrames:                int(s.NumRefFrames),
		FrameCropping:               s.FrameCroppingFlag,
		FrameCropLeft:               int(s.FrameCropLeftOffset),
		FrameCropRight:              int(s.FrameCropRightOffset),
		FrameCropTop:                int(s.FrameCropTopOffset),
		FrameCropBottom:             int(s.FrameCropBottomOffset),
	}
	// profiles below high carry no chroma format and imply 4:2:0
	if out.ChromaFormatIDC == 0 && out.ProfileIDC < h264.ProfileIDCHigh {
		out.ChromaFormatIDC = 1
	}

	width, height := int(s.Width), int(s.Height)
	if out.FrameCropping {
		unitX, unitY := h264.CropUnits(out)
		width += unitX * (out.FrameCropLeft + out.FrameCropRight)
		height += unitY * (out.FrameCropTop + out.FrameCropBottom)
	}
	out.PicWidthInMbsMinus1 = (width+15)/16 - 1
	mapUnits := (height + 15) / 16
	if !out.FrameMbsOnly {
		mapUnits /= 2
	}
	out.PicHeightInMapUnitsMinus1 = mapUnits - 1
	return out
}

// pictureHeader fills the PPS fields of a picture header.
func pictureHeader(p *avc.PPS) h264.PictureHeader {
	return h264.PictureHeader{
		EntropyCodingMode:              p.EntropyCodingModeFlag,
		BottomFieldPicOrderPresent:     p.BottomFieldPicOrderInFramePresentFlag,
		WeightedPred:                   p.WeightedPredFlag,
		WeightedBipredIDC:              int(p.WeightedBipredIDC),
		PicInitQPMinus26:               int(p.PicInitQpMinus26),
		PicInitQSMinus26:               int(p.PicInitQsMinus26),
		ChromaQPIndexOffset:            int(p.ChromaQpIndexOffset),
		SecondChromaQPIndexOffset:      int(p.SecondChromaQpIndexOffset),
		DeblockingFilterControlPresent: p.DeblockingFilterControlPresentFlag,
		ConstrainedIntraPred:           p.ConstrainedIntraPredFlag,
		RedundantPicCntPresent:         p.RedundantPicCntPresentFlag,
		Transform8x8Mode:               p.Transform8x8ModeFlag,
	}
}

// sliceHeader maps a parsed slice header. mp4ff measures the header in whole
// bytes including the NAL header, which matches the bit offset of CABAC
// streams, where slice data is byte aligned.
func sliceHeader(sh *avc.SliceHeader) h264.SliceHeader {
	return h264.SliceHeader{
		FirstMbInSlice:          int(sh.FirstMBInSlice),
		SliceType:               int(sh.SliceType) % 5,
		DirectSpatialMvPred:     sh.DirectSpatialMvPredFlag,
		NumRefIdxL0ActiveMinus1: int(sh.NumRefIdxL0ActiveMinus1),
		NumRefIdxL1ActiveMinus1: int(sh.NumRefIdxL1ActiveMinus1),
		CabacInitIDC:            int(sh.CabacInitIDC),
		SliceQPDelta:            int(sh.SliceQPDelta),
		DisableDeblockingFilter: int(sh.DisableDeblockingFilterIDC),
		SliceAlphaC0OffsetDiv2:  int(sh.SliceAlphaC0OffsetDiv2),
		SliceBetaOffsetDiv2:     int(sh.SliceBetaOffsetDiv2),
		HeaderBits:              8 * int(sh.Size),
	}
}
