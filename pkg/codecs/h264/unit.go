// Package h264 drives H.264/AVC decoding on an accelerator.
//
// Units carry headers parsed upstream; the driver maps them to the
// accelerator's picture, matrix and slice buffers.
package h264

import "github.com/user/vadecode/pkg/vadecode"

// Profile indications from the sequence parameter set.
const (
	ProfileIDCBaseline           = 66
	ProfileIDCMain               = 77
	ProfileIDCExtended           = 88
	ProfileIDCHigh               = 100
	ProfileIDCHigh10             = 110
	ProfileIDCHigh422            = 122
	ProfileIDCHigh444            = 244
	ProfileIDCMultiviewHigh      = 118
	ProfileIDCStereoHigh         = 128
	ProfileIDCConstrainedHigh444 = 44
)

// Slice types.
const (
	SliceP  = 0
	SliceB  = 1
	SliceI  = 2
	SliceSP = 3
	SliceSI = 4
)

// SPS holds the sequence parameter set fields the accelerator needs.
type SPS struct {
	ProfileIDC     int
	ConstraintSet1 bool
	LevelIDC       int

	ChromaFormatIDC      int
	BitDepthLumaMinus8   int
	BitDepthChromaMinus8 int

	PicWidthInMbsMinus1       int
	PicHeightInMapUnitsMinus1 int
	FrameMbsOnly              bool
	MbAdaptiveFrameField      bool
	Direct8x8Inference        bool

	Log2MaxFrameNumMinus4       int
	PicOrderCntType             int
	Log2MaxPicOrderCntLsbMinus4 int
	DeltaPicOrderAlwaysZero     bool
	GapsInFrameNumAllowed       bool

	NumRefFrames         int
	MaxDecFrameBuffering int

	FrameCropping   bool
	FrameCropLeft   int
	FrameCropRight  int
	FrameCropTop    int
	FrameCropBottom int
}

// ScalingMatrix holds the scaling lists in zigzag order.
type ScalingMatrix struct {
	List4x4 [6][16]uint8
	List8x8 [2][64]uint8
}

// FlatScalingMatrix returns the default matrix of all 16s.
func FlatScalingMatrix() *ScalingMatrix {
	var m ScalingMatrix
	for i := range m.List4x4 {
		for j := range m.List4x4[i] {
			m.List4x4[i][j] = 16
		}
	}
	for i := range m.List8x8 {
		for j := range m.List8x8[i] {
			m.List8x8[i][j] = 16
		}
	}
	return &m
}

// PictureHeader holds the picture parameter set and picture-level fields.
type PictureHeader struct {
	EntropyCodingMode              bool
	BottomFieldPicOrderPresent     bool
	WeightedPred                   bool
	WeightedBipredIDC              int
	PicInitQPMinus26               int
	PicInitQSMinus26               int
	ChromaQPIndexOffset            int
	SecondChromaQPIndexOffset      int
	DeblockingFilterControlPresent bool
	ConstrainedIntraPred           bool
	RedundantPicCntPresent         bool
	Transform8x8Mode               bool

	FrameNum int
	IDR      bool
	// Reference is set when nal_ref_idc is non-zero.
	Reference   bool
	LongTerm    bool
	Field       bool
	BottomField bool
	// SecondField marks the second field of a pair; FirstField names the
	// picture holding the first field.
	SecondField bool
	FirstField  vadecode.FrameRef

	TopPOC    int32
	BottomPOC int32

	// Scaling overrides the flat matrix when the stream signals one.
	Scaling *ScalingMatrix
}

// DPBEntry is one reference picture in the decoded picture buffer.
type DPBEntry struct {
	Ref         vadecode.FrameRef
	FrameIdx    int
	LongTerm    bool
	TopField    bool
	BottomField bool
	TopPOC      int32
	BottomPOC   int32
}

// ListEntry is one entry of a reference picture list: an index into Unit.DPB
// and the field it refers to.
type ListEntry struct {
	DPBIndex    int
	BottomField bool
}

// SliceHeader holds the slice fields the accelerator needs.
type SliceHeader struct {
	FirstMbInSlice          int
	SliceType               int
	DirectSpatialMvPred     bool
	NumRefIdxL0ActiveMinus1 int
	NumRefIdxL1ActiveMinus1 int
	CabacInitIDC            int
	SliceQPDelta            int
	DisableDeblockingFilter int
	SliceAlphaC0OffsetDiv2  int
	SliceBetaOffsetDiv2     int
	// HeaderBits is the size of the slice header in bits, counted from the
	// start of the NAL unit with the header byte included.
	HeaderBits int

	RefPicList0 []ListEntry
	RefPicList1 []ListEntry

	// Weights is set for explicit weighted prediction.
	Weights *PredWeightTable
}

// PredWeightTable holds explicit weighted prediction factors.
type PredWeightTable struct {
	LumaLog2Denom   int
	ChromaLog2Denom int

	LumaL0         bool
	LumaWeightL0   [32]int16
	LumaOffsetL0   [32]int16
	ChromaL0       bool
	ChromaWeightL0 [32][2]int16
	ChromaOffsetL0 [32][2]int16

	LumaL1         bool
	LumaWeightL1   [32]int16
	LumaOffsetL1   [32]int16
	ChromaL1       bool
	ChromaWeightL1 [32][2]int16
	ChromaOffsetL1 [32][2]int16
}

// Slice is one coded slice NAL unit.
type Slice struct {
	Header SliceHeader
	// Data is the slice NAL unit without start code.
	Data []byte
}

// Unit is one coded field or frame.
type Unit struct {
	vadecode.Frame
	// SPS is set on the first picture of a new sequence.
	SPS     *SPS
	Picture PictureHeader
	DPB     []DPBEntry
	Slices  []Slice
}

// HasSequence implements vadecode.Unit.
func (u *Unit) HasSequence() bool { return u.SPS != nil }

// SliceCount implements vadecode.Unit.
func (u *Unit) SliceCount() int { return len(u.Slices) }
