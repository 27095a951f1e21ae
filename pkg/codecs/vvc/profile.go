package vvc

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

func selectProfile(session *vadecode.Session, sps *SPS) (ports.Profile, error) {
	var p ports.Profile
	switch sps.ProfileIDC {
	case ProfileMain10, ProfileMain10StillPicture:
		p = ports.ProfileVVCMain10
	case ProfileMultilayerMain10, ProfileMultilayerStillMain10:
		p = ports.ProfileVVCMultilayerMain10
	default:
		return ports.ProfileNone, fmt.Errorf("%w: vvc general_profile_idc %d", vadecode.ErrUnsupportedProfile, sps.ProfileIDC)
	}
	if sps.ChromaFormatIDC > 1 || sps.BitDepth > 10 {
		return ports.ProfileNone, fmt.Errorf("%w: vvc chroma format %d at %d bits", vadecode.ErrUnsupportedProfile, sps.ChromaFormatIDC, sps.BitDepth)
	}
	if !session.HasProfile(p) {
		return ports.ProfileNone, fmt.Errorf("%w: %s", vadecode.ErrUnsupportedProfile, p)
	}
	return p, nil
}

func bitDepth(sps *SPS) int {
	if sps.BitDepth == 0 {
		return 8
	}
	return sps.BitDepth
}

// outputInfo sizes the context for the largest picture of the sequence.
func outputInfo(sps *SPS, profile ports.Profile) (vadecode.OutputInfo, error) {
	rt, err := vadecode.RTFormatFor(vadecode.ChromaFormat(sps.ChromaFormatIDC), bitDepth(sps))
	if err != nil {
		return vadecode.OutputInfo{}, err
	}
	return vadecode.OutputInfo{
		Format: vadecode.Format{
			Profile:  profile,
			RTFormat: rt,
			Width:    sps.MaxWidth,
			Height:   sps.MaxHeight,
		},
		DisplayWidth:  sps.MaxWidth,
		DisplayHeight: sps.MaxHeight,
		MinBuffers:    sps.MaxDecPicBufferingMinus1 + 1,
	}, nil
}

// pictureOutput applies the size and conformance window of a PPS to the
// sequence configuration.
func pictureOutput(seq vadecode.OutputInfo, sps *SPS, pps *PPS) (vadecode.OutputInfo, error) {
	if pps.Width > seq.Width || pps.Height > seq.Height {
		return vadecode.OutputInfo{}, fmt.Errorf("vvc: picture %dx%d exceeds the sequence maximum %dx%d",
			pps.Width, pps.Height, seq.Width, seq.Height)
	}
	subW, subH := 1, 1
	if sps.ChromaFormatIDC == 1 {
		subW, subH = 2, 2
	}
	out := seq
	left, right, top, bottom := pps.ConfWin[0], pps.ConfWin[1], pps.ConfWin[2], pps.ConfWin[3]
	out.CropX = subW * left
	out.CropY = subH * top
	out.DisplayWidth = pps.Width - subW*(left+right)
	out.DisplayHeight = pps.Height - subH*(top+bottom)
	if out.DisplayWidth <= 0 || out.DisplayHeight <= 0 {
		return vadecode.OutputInfo{}, fmt.Errorf("vvc: conformance window leaves %dx%d", out.DisplayWidth, out.DisplayHeight)
	}
	return out, nil
}
