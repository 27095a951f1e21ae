package mpeg2

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// candidateProfiles lists the accelerator profiles able to decode a stream,
// preferred first. Main decoders handle simple profile streams.
func candidateProfiles(profile int) []ports.Profile {
	switch profile {
	case ProfileSimple:
		return []ports.Profile{ports.ProfileMPEG2Simple, ports.ProfileMPEG2Main}
	case ProfileMain:
		return []ports.Profile{ports.ProfileMPEG2Main}
	}
	return nil
}

func selectProfile(session *vadecode.Session, seq *Sequence) (ports.Profile, error) {
	for _, p := range candidateProfiles(seq.Profile) {
		if session.HasProfile(p) {
			return p, nil
		}
	}
	return ports.ProfileNone, fmt.Errorf("%w: mpeg2 profile %d", vadecode.ErrUnsupportedProfile, seq.Profile)
}

func align(v, to int) int {
	return (v + to - 1) / to * to
}

func outputInfo(seq *Sequence, profile ports.Profile) (vadecode.OutputInfo, error) {
	if seq.ChromaFormat != Chroma420 {
		return vadecode.OutputInfo{}, fmt.Errorf("%w: mpeg2 chroma format %d", vadecode.ErrUnsupportedProfile, seq.ChromaFormat)
	}
	if seq.Width <= 0 || seq.Height <= 0 {
		return vadecode.OutputInfo{}, fmt.Errorf("mpeg2: picture size %dx%d", seq.Width, seq.Height)
	}
	rt, err := vadecode.RTFormatFor(vadecode.Chroma420, 8)
	if err != nil {
		return vadecode.OutputInfo{}, err
	}
	// interlaced pictures are coded in pairs of macroblock rows
	heightAlign := 16
	if !seq.ProgressiveSequence {
		heightAlign = 32
	}
	return vadecode.OutputInfo{
		Format: vadecode.Format{
			Profile:  profile,
			RTFormat: rt,
			Width:    align(seq.Width, 16),
			Height:   align(seq.Height, heightAlign),
		},
		DisplayWidth:  seq.Width,
		DisplayHeight: seq.Height,
		Interlaced:    !seq.ProgressiveSequence,
		MinBuffers:    3,
	}, nil
}
