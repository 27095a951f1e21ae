package jpeg

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

func selectProfile(session *vadecode.Session, h *FrameHeader) (ports.Profile, error) {
	if !h.Baseline || (h.Precision != 0 && h.Precision != 8) {
		return ports.ProfileNone, fmt.Errorf("%w: jpeg is not baseline", vadecode.ErrUnsupportedProfile)
	}
	if !session.HasProfile(ports.ProfileJPEGBaseline) {
		return ports.ProfileNone, fmt.Errorf("%w: %s", vadecode.ErrUnsupportedProfile, ports.ProfileJPEGBaseline)
	}
	return ports.ProfileJPEGBaseline, nil
}

// maxSampling returns the largest horizontal and vertical sampling factors.
func maxSampling(h *FrameHeader) (hmax, vmax int) {
	hmax, vmax = 1, 1
	for _, c := range h.Components {
		hmax = max(hmax, c.H)
		vmax = max(vmax, c.V)
	}
	return hmax, vmax
}

// rtFormat maps the component sampling factors to a surface class. Chroma
// components must share their factors.
func rtFormat(h *FrameHeader) (ports.RTFormat, error) {
	switch len(h.Components) {
	case 1:
		return ports.RTFormatYUV400, nil
	case 3:
	default:
		return 0, fmt.Errorf("%w: jpeg with %d components", vadecode.ErrUnsupportedProfile, len(h.Components))
	}
	y, cb, cr := h.Components[0], h.Components[1], h.Components[2]
	if cb.H != 1 || cb.V != 1 || cr.H != 1 || cr.V != 1 {
		return 0, fmt.Errorf("%w: jpeg chroma sampling %dx%d", vadecode.ErrUnsupportedProfile, cb.H, cb.V)
	}
	switch {
	case y.H == 1 && y.V == 1:
		return ports.RTFormatYUV444, nil
	case y.H == 2 && y.V == 1:
		return ports.RTFormatYUV422, nil
	case y.H == 2 && y.V == 2:
		return ports.RTFormatYUV420, nil
	case y.H == 4 && y.V == 1:
		return ports.RTFormatYUV411, nil
	}
	return 0, fmt.Errorf("%w: jpeg luma sampling %dx%d", vadecode.ErrUnsupportedProfile, y.H, y.V)
}

func outputInfo(h *FrameHeader, profile ports.Profile) (vadecode.OutputInfo, error) {
	if h.Width <= 0 || h.Height <= 0 {
		return vadecode.OutputInfo{}, fmt.Errorf("jpeg: image size %dx%d", h.Width, h.Height)
	}
	rt, err := rtFormat(h)
	if err != nil {
		return vadecode.OutputInfo{}, err
	}
	hmax, vmax := maxSampling(h)
	return vadecode.OutputInfo{
		Format: vadecode.Format{
			Profile:  profile,
			RTFormat: rt,
			Width:    ceilDiv(h.Width, 8*hmax) * 8 * hmax,
			Height:   ceilDiv(h.Height, 8*vmax) * 8 * vmax,
		},
		DisplayWidth:  h.Width,
		DisplayHeight: h.Height,
		MinBuffers:    1,
	}, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
