// Package h265 drives H.265/HEVC decoding on an accelerator.
package h265

import "github.com/user/vadecode/pkg/vadecode"

// General profile indications.
const (
	ProfileIDCMain            = 1
	ProfileIDCMain10          = 2
	ProfileIDCMainStill       = 3
	ProfileIDCRangeExtensions = 4
	ProfileIDCSCC             = 9
)

// Slice types.
const (
	SliceB = 0
	SliceP = 1
	SliceI = 2
)

// SPS holds the sequence parameter set fields the accelerator needs.
type SPS struct {
	GeneralProfileIDC int

	ChromaFormatIDC        int
	SeparateColourPlane    bool
	BitDepthLumaMinus8     int
	BitDepthChromaMinus8   int
	PicWidthInLumaSamples  int
	PicHeightInLumaSamples int

	ConformanceWindow bool
	ConfWinLeft       int
	ConfWinRight      int
	ConfWinTop        int
	ConfWinBottom     int

	MaxDecPicBufferingMinus1 int

	Log2MinLumaCodingBlockSizeMinus3  int
	Log2DiffMaxMinLumaCodingBlockSize int
	Log2MinTransformBlockSizeMinus2   int
	Log2DiffMaxMinTransformBlockSize  int
	MaxTransformHierarchyDepthIntra   int
	MaxTransformHierarchyDepthInter   int

	ScalingListEnabled   bool
	AMPEnabled           bool
	SAOEnabled           bool
	StrongIntraSmoothing bool
	TemporalMVPEnabled   bool

	PCMEnabled                           bool
	PCMSampleBitDepthLumaMinus1          int
	PCMSampleBitDepthChromaMinus1        int
	Log2MinPCMLumaCodingBlockSizeMinus3  int
	Log2DiffMaxMinPCMLumaCodingBlockSize int
	PCMLoopFilterDisabled                bool

	Log2MaxPicOrderCntLsbMinus4 int
	NumShortTermRefPicSets      int
	LongTermRefPicsPresent      bool
	NumLongTermRefPicsSPS       int
}

// PictureHeader holds the picture parameter set and picture-level fields.
type PictureHeader struct {
	POC int32

	IDR bool
	// IRAP marks random access pictures (nal_unit_type 16..23).
	IRAP  bool
	Intra bool

	SignDataHiding               bool
	ConstrainedIntraPred         bool
	TransformSkipEnabled         bool
	CuQPDeltaEnabled             bool
	DiffCuQPDeltaDepth           int
	InitQPMinus26                int
	CbQPOffset                   int
	CrQPOffset                   int
	WeightedPred                 bool
	WeightedBipred               bool
	TransquantBypass             bool
	EntropyCodingSync            bool
	LoopFilterAcrossSlices       bool
	LoopFilterAcrossTiles        bool
	Log2ParallelMergeLevelMinus2 int

	TilesEnabled       bool
	ColumnWidthsMinus1 []int
	RowHeightsMinus1   []int

	ListsModificationPresent        bool
	CabacInitPresent                bool
	OutputFlagPresent               bool
	DependentSliceSegmentsEnabled   bool
	SliceChromaQPOffsetsPresent     bool
	DeblockingFilterOverrideEnabled bool
	DisableDeblockingFilter         bool
	BetaOffsetDiv2                  int
	TcOffsetDiv2                    int
	SliceHeaderExtensionPresent     bool
	NumExtraSliceHeaderBits         int
	NumRefIdxL0DefaultActiveMinus1  int
	NumRefIdxL1DefaultActiveMinus1  int

	// ShortTermRPSBits is the size in bits of the short-term reference
	// picture set coded in the slice header.
	ShortTermRPSBits int

	// Scaling overrides the default lists when scaling lists are enabled.
	Scaling *ScalingLists
}

// ScalingLists holds the scaling factors in up-right diagonal order.
type ScalingLists struct {
	List4x4   [6][16]uint8
	List8x8   [6][64]uint8
	List16x16 [6][64]uint8
	List32x32 [2][64]uint8
	DC16x16   [6]uint8
	DC32x32   [2]uint8
}

// RPSSet names the reference picture set a DPB entry belongs to for the
// current picture.
type RPSSet int

const (
	RPSFoll RPSSet = iota
	RPSStCurrBefore
	RPSStCurrAfter
	RPSLtCurr
)

// DPBEntry is one reference picture.
type DPBEntry struct {
	Ref      vadecode.FrameRef
	POC      int32
	LongTerm bool
	Set      RPSSet
}

// SliceHeader holds the slice segment fields the accelerator needs.
type SliceHeader struct {
	SegmentAddress        int
	DependentSliceSegment bool
	SliceType             int
	ColourPlaneID         int

	SAOLuma                  bool
	SAOChroma                bool
	MvdL1Zero                bool
	CabacInit                bool
	TemporalMVPEnabled       bool
	DeblockingFilterDisabled bool
	CollocatedFromL0         bool
	LoopFilterAcrossSlices   bool

	CollocatedRefIdx         int
	NumRefIdxL0ActiveMinus1  int
	NumRefIdxL1ActiveMinus1  int
	QPDelta                  int
	CbQPOffset               int
	CrQPOffset               int
	BetaOffsetDiv2           int
	TcOffsetDiv2             int
	FiveMinusMaxNumMergeCand int
	NumEntryPointOffsets     int

	// HeaderBytes is the size of the slice segment header in bytes, counted
	// from the start of the NAL unit.
	HeaderBytes int
	// EmulationPreventionBytes counts the emulation prevention bytes inside
	// the header.
	EmulationPreventionBytes int

	// RefPicList0 and RefPicList1 index Unit.DPB.
	RefPicList0 []int
	RefPicList1 []int

	Weights *PredWeightTable
}

// PredWeightTable holds explicit weighted prediction deltas.
type PredWeightTable struct {
	LumaLog2Denom        int
	DeltaChromaLog2Denom int

	DeltaLumaWeightL0   [15]int8
	LumaOffsetL0        [15]int8
	DeltaChromaWeightL0 [15][2]int8
	ChromaOffsetL0      [15][2]int8

	DeltaLumaWeightL1   [15]int8
	LumaOffsetL1        [15]int8
	DeltaChromaWeightL1 [15][2]int8
	ChromaOffsetL1      [15][2]int8
}

// Slice is one coded slice segment NAL unit.
type Slice struct {
	Header SliceHeader
	Data   []byte
}

// Unit is one coded picture.
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
