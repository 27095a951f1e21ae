package h264

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// candidateProfiles lists the accelerator profiles able to decode a stream,
// in order of preference. Decoders of a superset profile can decode the
// subset, so a baseline stream restricted by constraint_set1 may run on a
// main or high decoder.
func candidateProfiles(sps *SPS) []ports.Profile {
	switch sps.ProfileIDC {
	case ProfileIDCBaseline:
		if sps.ConstraintSet1 {
			return []ports.Profile{ports.ProfileH264ConstrainedBaseline, ports.ProfileH264Main, ports.ProfileH264High}
		}
		return []ports.Profile{ports.ProfileH264ConstrainedBaseline}
	case ProfileIDCMain:
		return []ports.Profile{ports.ProfileH264Main, ports.ProfileH264High}
	case ProfileIDCExtended:
		if sps.ConstraintSet1 {
			return []ports.Profile{ports.ProfileH264Main, ports.ProfileH264High}
		}
	case ProfileIDCHigh:
		return []ports.Profile{ports.ProfileH264High}
	case ProfileIDCHigh10:
		return []ports.Profile{ports.ProfileH264High10}
	case ProfileIDCMultiviewHigh:
		return []ports.Profile{ports.ProfileH264MultiviewHigh, ports.ProfileH264High}
	case ProfileIDCStereoHigh:
		return []ports.Profile{ports.ProfileH264StereoHigh, ports.ProfileH264High}
	}
	return nil
}

// selectProfile returns the first candidate profile the accelerator advertises.
func selectProfile(session *vadecode.Session, sps *SPS) (ports.Profile, error) {
	for _, p := range candidateProfiles(sps) {
		if session.HasProfile(p) {
			return p, nil
		}
	}
	return ports.ProfileNone, fmt.Errorf("%w: h264 profile_idc %d", vadecode.ErrUnsupportedProfile, sps.ProfileIDC)
}

// outputInfo derives the decode and display configuration of a sequence.
func outputInfo(sps *SPS, profile ports.Profile) (vadecode.OutputInfo, error) {
	rt, err := vadecode.RTFormatFor(vadecode.ChromaFormat(sps.ChromaFormatIDC), 8+sps.BitDepthLumaMinus8)
	if err != nil {
		return vadecode.OutputInfo{}, err
	}

	width := (sps.PicWidthInMbsMinus1 + 1) * 16
	height := (sps.PicHeightInMapUnitsMinus1 + 1) * 16
	if !sps.FrameMbsOnly {
		height *= 2
	}

	out := vadecode.OutputInfo{
		Format: vadecode.Format{
			Profile:  profile,
			RTFormat: rt,
			Width:    width,
			Height:   height,
		},
		DisplayWidth:  width,
		DisplayHeight: height,
		Interlaced:    !sps.FrameMbsOnly,
		MinBuffers:    max(sps.MaxDecFrameBuffering, sps.NumRefFrames) + 1,
	}

	if sps.FrameCropping {
		unitX, unitY := CropUnits(sps)
		out.CropX = unitX * sps.FrameCropLeft
		out.CropY = unitY * sps.FrameCropTop
		out.DisplayWidth = width - unitX*(sps.FrameCropLeft+sps.FrameCropRight)
		out.DisplayHeight = height - unitY*(sps.FrameCropTop+sps.FrameCropBottom)
		if out.DisplayWidth <= 0 || out.DisplayHeight <= 0 {
			return vadecode.OutputInfo{}, fmt.Errorf("h264: cropping leaves %dx%d", out.DisplayWidth, out.DisplayHeight)
		}
	}
	return out, nil
}

// CropUnits returns the horizontal and vertical size of one frame_crop offset
// unit in luma samples.
func CropUnits(sps *SPS) (x, y int) {
	frameFactor := 1
	if !sps.FrameMbsOnly {
		frameFactor = 2
	}
	switch sps.ChromaFormatIDC {
	case 0, 3:
		return 1, frameFactor
	case 2:
		return 2, frameFactor
	default:
		return 2, 2 * frameFactor
	}
}
