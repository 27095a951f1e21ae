package vp9

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

var profiles = [...]ports.Profile{
	ports.ProfileVP9Profile0,
	ports.ProfileVP9Profile1,
	ports.ProfileVP9Profile2,
	ports.ProfileVP9Profile3,
}

func chromaFormat(h *FrameHeader) vadecode.ChromaFormat {
	switch {
	case h.SubsamplingX && h.SubsamplingY:
		return vadecode.Chroma420
	case h.SubsamplingX:
		return vadecode.Chroma422
	default:
		return vadecode.Chroma444
	}
}

func bitDepth(h *FrameHeader) int {
	if h.BitDepth == 0 {
		return 8
	}
	return h.BitDepth
}

func selectProfile(session *vadecode.Session, h *FrameHeader) (ports.Profile, error) {
	if h.Profile < 0 || h.Profile >= len(profiles) {
		return ports.ProfileNone, fmt.Errorf("%w: vp9 profile %d", vadecode.ErrUnsupportedProfile, h.Profile)
	}
	p := profiles[h.Profile]
	if !session.HasProfile(p) {
		return ports.ProfileNone, fmt.Errorf("%w: %s", vadecode.ErrUnsupportedProfile, p)
	}
	return p, nil
}

func outputInfo(h *FrameHeader, profile ports.Profile) (vadecode.OutputInfo, error) {
	rt, err := vadecode.RTFormatFor(chromaFormat(h), bitDepth(h))
	if err != nil {
		return vadecode.OutputInfo{}, err
	}
	return vadecode.OutputInfo{
		Format: vadecode.Format{
			Profile:  profile,
			RTFormat: rt,
			Width:    h.Width,
			Height:   h.Height,
		},
		DisplayWidth:  h.Width,
		DisplayHeight: h.Height,
		MinBuffers:    NumRefSlots + 1,
	}, nil
}
