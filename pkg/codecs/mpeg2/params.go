package mpeg2

import (
	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/vadecode"
)

type pictureParams struct {
	HorizontalSize           uint16
	VerticalSize             uint16
	ForwardReferencePicture  uint32
	BackwardReferencePicture uint32
	PictureCodingType        int32
	FCode                    int32
	PictureCodingExtension   uint32
	_                        [4]uint32
}

type iqMatrix struct {
	LoadIntraQuantiserMatrix          int32
	LoadNonIntraQuantiserMatrix       int32
	LoadChromaIntraQuantiserMatrix    int32
	LoadChromaNonIntraQuantiserMatrix int32
	IntraQuantiserMatrix              [64]uint8
	NonIntraQuantiserMatrix           [64]uint8
	ChromaIntraQuantiserMatrix        [64]uint8
	ChromaNonIntraQuantiserMatrix     [64]uint8
	_                                 [4]uint32
}

type sliceParams struct {
	SliceDataSize           uint32
	SliceDataOffset         uint32
	SliceDataFlag           uint32
	MacroblockOffset        uint32
	SliceHorizontalPosition uint32
	SliceVerticalPosition   uint32
	QuantiserScaleCode      int32
	IntraSliceFlag          int32
	_                       [4]uint32
}

// Reference slots of the window.
const (
	refForward = iota
	refBackward
	numRefs
)

// slotMeta is what the window keeps per reference.
type slotMeta struct{}

func buildPictureParams(seq *Sequence, p *PictureHeader, window *vadecode.RefWindow[slotMeta]) *pictureParams {
	f := p.FCode
	fcode := int32(f[0][0])<<12 | int32(f[0][1])<<8 | int32(f[1][0])<<4 | int32(f[1][1])

	var ext vabuf.Bits
	ext.Add(2, uint32(p.IntraDCPrecision)).
		Add(2, uint32(p.Structure)).
		Flag(p.TopFieldFirst).
		Flag(p.FramePredFrameDCT).
		Flag(p.ConcealmentMotionVectors).
		Flag(p.QScaleType).
		Flag(p.IntraVLCFormat).
		Flag(p.AlternateScan).
		Flag(p.RepeatFirstField).
		Flag(p.ProgressiveFrame).
		Flag(p.Structure == FramePicture || !p.SecondField)

	return &pictureParams{
		HorizontalSize:           uint16(seq.Width),
		VerticalSize:             uint16(seq.Height),
		ForwardReferencePicture:  uint32(window.Slot(refForward).Surface),
		BackwardReferencePicture: uint32(window.Slot(refBackward).Surface),
		PictureCodingType:        int32(p.CodingType),
		FCode:                    fcode,
		PictureCodingExtension:   ext.Value(),
	}
}

// mergeMatrices applies the picture's quant matrix extension to the
// sequence matrices.
func mergeMatrices(seq QuantMatrices, ext *QuantMatrices) QuantMatrices {
	if ext == nil {
		return seq
	}
	m := seq
	if ext.Intra != nil {
		m.Intra = ext.Intra
	}
	if ext.NonIntra != nil {
		m.NonIntra = ext.NonIntra
	}
	if ext.ChromaIntra != nil {
		m.ChromaIntra = ext.ChromaIntra
	}
	if ext.ChromaNonIntra != nil {
		m.ChromaNonIntra = ext.ChromaNonIntra
	}
	return m
}

func loadMatrix(dst *[64]uint8, src *[64]uint8) int32 {
	if src == nil {
		return 0
	}
	*dst = *src
	return 1
}

func buildIQMatrix(m QuantMatrices) *iqMatrix {
	iq := &iqMatrix{}
	iq.LoadIntraQuantiserMatrix = loadMatrix(&iq.IntraQuantiserMatrix, m.Intra)
	iq.LoadNonIntraQuantiserMatrix = loadMatrix(&iq.NonIntraQuantiserMatrix, m.NonIntra)
	iq.LoadChromaIntraQuantiserMatrix = loadMatrix(&iq.ChromaIntraQuantiserMatrix, m.ChromaIntra)
	iq.LoadChromaNonIntraQuantiserMatrix = loadMatrix(&iq.ChromaNonIntraQuantiserMatrix, m.ChromaNonIntra)
	return iq
}

func buildSliceParams(s *Slice) *sliceParams {
	return &sliceParams{
		SliceDataSize:           uint32(len(s.Data)),
		MacroblockOffset:        uint32(s.MacroblockOffset),
		SliceHorizontalPosition: uint32(s.HorizontalPosition),
		SliceVerticalPosition:   uint32(s.VerticalPosition),
		QuantiserScaleCode:      int32(s.QuantiserScaleCode),
		IntraSliceFlag:          int32(vabuf.Bool(s.IntraSlice)),
	}
}
