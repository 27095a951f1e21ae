package av1

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

func chromaFormat(seq *SequenceHeader) vadecode.ChromaFormat {
	switch {
	case seq.MonoChrome:
		return vadecode.Chroma400
	case seq.SubsamplingX && seq.SubsamplingY:
		return vadecode.Chroma420
	case seq.SubsamplingX:
		return vadecode.Chroma422
	default:
		return vadecode.Chroma444
	}
}

// selectProfile maps seq_profile: main covers 4:2:0 and monochrome, high adds
// 4:4:4. The professional profile has no accelerator profile.
func selectProfile(session *vadecode.Session, seq *SequenceHeader) (ports.Profile, error) {
	var p ports.Profile
	switch seq.Profile {
	case 0:
		p = ports.ProfileAV1Profile0
	case 1:
		p = ports.ProfileAV1Profile1
	default:
		return ports.ProfileNone, fmt.Errorf("%w: av1 seq_profile %d", vadecode.ErrUnsupportedProfile, seq.Profile)
	}
	if !session.HasProfile(p) {
		return ports.ProfileNone, fmt.Errorf("%w: %s", vadecode.ErrUnsupportedProfile, p)
	}
	return p, nil
}

// outputInfo sizes the context and surfaces for the largest frame of the
// sequence. The display size follows each frame.
func outputInfo(seq *SequenceHeader, profile ports.Profile) (vadecode.OutputInfo, error) {
	rt, err := vadecode.RTFormatFor(chromaFormat(seq), seq.BitDepth)
	if err != nil {
		return vadecode.OutputInfo{}, err
	}
	minBuffers := NumRefFrames + 1
	if seq.FilmGrainParamsPresent {
		// every grain-applied picture holds an auxiliary surface too
		minBuffers *= 2
	}
	return vadecode.OutputInfo{
		Format: vadecode.Format{
			Profile:  profile,
			RTFormat: rt,
			Width:    seq.MaxFrameWidth,
			Height:   seq.MaxFrameHeight,
		},
		DisplayWidth:  seq.MaxFrameWidth,
		DisplayHeight: seq.MaxFrameHeight,
		MinBuffers:    minBuffers,
	}, nil
}

func bitDepthIdx(depth int) uint8 {
	switch depth {
	case 10:
		return 1
	case 12:
		return 2
	default:
		return 0
	}
}
