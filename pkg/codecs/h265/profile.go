package h265

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

func bitDepth(sps *SPS) int {
	return 8 + max(sps.BitDepthLumaMinus8, sps.BitDepthChromaMinus8)
}

// candidateProfiles lists the accelerator profiles able to decode a stream,
// preferred first. Range and screen content extensions are told apart by
// chroma format and bit depth.
func candidateProfiles(sps *SPS) []ports.Profile {
	depth := bitDepth(sps)
	switch sps.GeneralProfileIDC {
	case ProfileIDCMain, ProfileIDCMainStill:
		return []ports.Profile{ports.ProfileHEVCMain, ports.ProfileHEVCMain10, ports.ProfileHEVCMain12}
	case ProfileIDCMain10:
		return []ports.Profile{ports.ProfileHEVCMain10, ports.ProfileHEVCMain12}
	case ProfileIDCRangeExtensions:
		switch {
		case sps.ChromaFormatIDC <= 1 && depth <= 12:
			return []ports.Profile{ports.ProfileHEVCMain12}
		case sps.ChromaFormatIDC == 2 && depth <= 10:
			return []ports.Profile{ports.ProfileHEVCMain422_10, ports.ProfileHEVCMain422_12}
		case sps.ChromaFormatIDC == 2 && depth <= 12:
			return []ports.Profile{ports.ProfileHEVCMain422_12}
		case sps.ChromaFormatIDC == 3 && depth == 8:
			return []ports.Profile{ports.ProfileHEVCMain444, ports.ProfileHEVCMain444_10, ports.ProfileHEVCMain444_12}
		case sps.ChromaFormatIDC == 3 && depth <= 10:
			return []ports.Profile{ports.ProfileHEVCMain444_10, ports.ProfileHEVCMain444_12}
		case sps.ChromaFormatIDC == 3 && depth <= 12:
			return []ports.Profile{ports.ProfileHEVCMain444_12}
		}
	case ProfileIDCSCC:
		switch {
		case sps.ChromaFormatIDC <= 1 && depth == 8:
			return []ports.Profile{ports.ProfileHEVCSccMain, ports.ProfileHEVCSccMain10}
		case sps.ChromaFormatIDC <= 1 && depth <= 10:
			return []ports.Profile{ports.ProfileHEVCSccMain10}
		case sps.ChromaFormatIDC == 3 && depth == 8:
			return []ports.Profile{ports.ProfileHEVCSccMain444, ports.ProfileHEVCSccMain444_10}
		case sps.ChromaFormatIDC == 3 && depth <= 10:
			return []ports.Profile{ports.ProfileHEVCSccMain444_10}
		}
	}
	return nil
}

func selectProfile(session *vadecode.Session, sps *SPS) (ports.Profile, error) {
	for _, p := range candidateProfiles(sps) {
		if session.HasProfile(p) {
			return p, nil
		}
	}
	return ports.ProfileNone, fmt.Errorf("%w: h265 general_profile_idc %d, chroma %d, %d bits",
		vadecode.ErrUnsupportedProfile, sps.GeneralProfileIDC, sps.ChromaFormatIDC, bitDepth(sps))
}

func outputInfo(sps *SPS, profile ports.Profile) (vadecode.OutputInfo, error) {
	rt, err := vadecode.RTFormatFor(vadecode.ChromaFormat(sps.ChromaFormatIDC), bitDepth(sps))
	if err != nil {
		return vadecode.OutputInfo{}, err
	}
	width, height := sps.PicWidthInLumaSamples, sps.PicHeightInLumaSamples
	out := vadecode.OutputInfo{
		Format: vadecode.Format{
			Profile:  profile,
			RTFormat: rt,
			Width:    width,
			Height:   height,
		},
		DisplayWidth:  width,
		DisplayHeight: height,
		MinBuffers:    sps.MaxDecPicBufferingMinus1 + 1,
	}
	if sps.ConformanceWindow {
		subW, subH := 1, 1
		switch sps.ChromaFormatIDC {
		case 1:
			subW, subH = 2, 2
		case 2:
			subW = 2
		}
		out.CropX = subW * sps.ConfWinLeft
		out.CropY = subH * sps.ConfWinTop
		out.DisplayWidth = width - subW*(sps.ConfWinLeft+sps.ConfWinRight)
		out.DisplayHeight = height - subH*(sps.ConfWinTop+sps.ConfWinBottom)
		if out.DisplayWidth <= 0 || out.DisplayHeight <= 0 {
			return vadecode.OutputInfo{}, fmt.Errorf("h265: conformance window leaves %dx%d", out.DisplayWidth, out.DisplayHeight)
		}
	}
	return out, nil
}
