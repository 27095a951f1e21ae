package vp8

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

func selectProfile(session *vadecode.Session, h *FrameHeader) (ports.Profile, error) {
	if h.Version > 3 {
		return ports.ProfileNone, fmt.Errorf("%w: vp8 version %d", vadecode.ErrUnsupportedProfile, h.Version)
	}
	if !session.HasProfile(ports.ProfileVP8Version0_3) {
		return ports.ProfileNone, fmt.Errorf("%w: %s", vadecode.ErrUnsupportedProfile, ports.ProfileVP8Version0_3)
	}
	return ports.ProfileVP8Version0_3, nil
}

func outputInfo(h *FrameHeader, profile ports.Profile) (vadecode.OutputInfo, error) {
	if h.Width <= 0 || h.Height <= 0 {
		return vadecode.OutputInfo{}, fmt.Errorf("vp8: frame size %dx%d", h.Width, h.Height)
	}
	rt, err := vadecode.RTFormatFor(vadecode.Chroma420, 8)
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
		MinBuffers:    NumRefs + 1,
	}, nil
}
