// Package mpeg2 drives MPEG-2 video decoding on an accelerator.
package mpeg2

import "github.com/user/vadecode/pkg/vadecode"

// profile_and_level_indication profile values.
const (
	ProfileHigh   = 1
	ProfileMain   = 4
	ProfileSimple = 5
)

// Picture coding types.
const (
	PictureI = 1
	PictureP = 2
	PictureB = 3
)

// Picture structures.
const (
	TopField     = 1
	BottomField  = 2
	FramePicture = 3
)

// Chroma formats.
const (
	Chroma420 = 1
	Chroma422 = 2
	Chroma444 = 3
)

// QuantMatrices holds quantiser matrices in zigzag order. A nil matrix keeps
// the default.
type QuantMatrices struct {
	Intra          *[64]uint8
	NonIntra       *[64]uint8
	ChromaIntra    *[64]uint8
	ChromaNonIntra *[64]uint8
}

// Sequence holds the sequence header and sequence extension.
type Sequence struct {
	Profile             int
	Width               int
	Height              int
	ProgressiveSequence bool
	ChromaFormat        int
	Matrices            QuantMatrices
}

// PictureHeader holds the picture header and picture coding extension.
type PictureHeader struct {
	CodingType int
	// FCode is f_code[s][t]: forward/backward, horizontal/vertical.
	FCode                    [2][2]uint8
	IntraDCPrecision         int
	Structure                int
	TopFieldFirst            bool
	FramePredFrameDCT        bool
	ConcealmentMotionVectors bool
	QScaleType               bool
	IntraVLCFormat           bool
	AlternateScan            bool
	RepeatFirstField         bool
	ProgressiveFrame         bool

	// SecondField marks the second field of a pair; FirstField names the
	// picture holding the first.
	SecondField bool
	FirstField  vadecode.FrameRef

	// Matrices updates the sequence matrices through a quant matrix extension.
	Matrices *QuantMatrices
}

// Slice is one slice of the picture.
type Slice struct {
	// MacroblockOffset is the bit offset of the first macroblock in Data.
	MacroblockOffset   int
	HorizontalPosition int
	// VerticalPosition is the macroblock row, starting at zero.
	VerticalPosition   int
	QuantiserScaleCode int
	IntraSlice         bool
	Data               []byte
}

// Unit is one MPEG-2 picture: a frame or a field.
type Unit struct {
	vadecode.Frame
	// Sequence is set when a sequence header precedes the picture.
	Sequence *Sequence
	Picture  PictureHeader
	Forward  vadecode.FrameRef
	Backward vadecode.FrameRef
	Slices   []Slice
}

// HasSequence implements vadecode.Unit.
func (u *Unit) HasSequence() bool { return u.Sequence != nil }

// SliceCount implements vadecode.Unit.
func (u *Unit) SliceCount() int { return len(u.Slices) }
