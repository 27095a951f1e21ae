// Package vvc drives H.266/VVC decoding on an accelerator.
//
// The slices of a picture are collected while they arrive and sent at the end
// of the picture as one slice parameter buffer sharing one data buffer. The
// adaptation parameter sets in use travel as ALF, LMCS and scaling list
// buffers next to the picture parameters.
package vvc

import "github.com/user/vadecode/pkg/vadecode"

// general_profile_idc values.
const (
	ProfileMain10                = 1
	ProfileMultilayerMain10      = 17
	ProfileMain10StillPicture    = 65
	ProfileMultilayerStillMain10 = 81
)

// Slice types.
const (
	SliceB = 0
	SliceP = 1
	SliceI = 2
)

// SubPic is one subpicture of the SPS layout.
type SubPic struct {
	CtuTopLeftX      int
	CtuTopLeftY      int
	WidthMinus1      int
	HeightMinus1     int
	ID               int
	TreatedAsPic     bool
	LoopFilterAcross bool
}

// SPS holds the sequence parameter set fields the accelerator needs.
type SPS struct {
	ProfileIDC                     int
	ChromaFormatIDC                int
	BitDepth                       int
	MaxWidth                       int
	MaxHeight                      int
	Log2CtuSize                    int
	Log2MinCbSize                  int
	Log2TransformSkipMaxSizeMinus2 int
	MaxDecPicBufferingMinus1       int

	// ChromaQPTable is the derived ChromaQpTable for Cb, Cr and joint CbCr,
	// indexed by QP + 12.
	ChromaQPTable [3][111]int8

	SixMinusMaxNumMergeCand           int
	FiveMinusMaxNumSubblockMergeCand  int
	MaxNumMergeCandMinusMaxNumGpmCand int
	Log2ParallelMergeLevelMinus2      int
	MinQPPrimeTS                      int
	SixMinusMaxNumIbcMergeCand        int

	SubpicInfoPresent      bool
	IndependentSubpics     bool
	SubpicSameSize         bool
	Subpics                []SubPic
	EntropyCodingSync      bool
	QtbttDualTreeIntra     bool
	MaxLumaTransformSize64 bool
	TransformSkip          bool
	BDPCM                  bool
	MTS                    bool
	LFNST                  bool
	JointCbCr              bool
	SameQPTableForChroma   bool
	SAO                    bool
	ALF                    bool
	CCALF                  bool
	LMCS                   bool
	TemporalMVP            bool
	SbTMVP                 bool
	AMVR                   bool
	BDOF                   bool
	DMVR                   bool
	MMVD                   bool
	Affine                 bool
	ISP                    bool
	MRL                    bool
	MIP                    bool
	CCLM                   bool
	Palette                bool
	IBC                    bool
	ExplicitScalingList    bool
}

// SliceLayout is one rectangular slice of the PPS layout.
type SliceLayout struct {
	TopLeftTileIdx             int
	WidthInTilesMinus1         int
	HeightInTilesMinus1        int
	ExpSliceHeightInCtusMinus1 int
}

// PPS holds the picture parameter set fields the accelerator needs.
type PPS struct {
	Width  int
	Height int
	// ConfWin is the conformance window in chroma sample units: left, right,
	// top, bottom.
	ConfWin [4]int

	TileColumnWidthsMinus1 []int
	TileRowHeightsMinus1   []int
	NumSlicesInPicMinus1   int
	Slices                 []SliceLayout

	InitQPMinus26     int
	CbQPOffset        int
	CrQPOffset        int
	JointCbCrQPOffset int

	LoopFilterAcrossTiles    bool
	RectSlice                bool
	SingleSlicePerSubpic     bool
	LoopFilterAcrossSlices   bool
	CabacInitPresent         bool
	WeightedPred             bool
	WeightedBipred           bool
	RefWraparound            bool
	CuQPDeltaEnabled         bool
	DeblockingFilterDisabled bool
	RplInfoInPH              bool
	WpInfoInPH               bool
}

// PictureHeader holds the picture header fields the accelerator needs.
type PictureHeader struct {
	POC                int32
	NonRef             bool
	GdrOrIrap          bool
	Gdr                bool
	IntraSliceAllowed  bool
	InterSliceAllowed  bool
	TemporalMVP        bool
	MMVDFullpelOnly    bool
	MvdL1Zero          bool
	BDOFDisabled       bool
	DMVRDisabled       bool
	PROFDisabled       bool
	JointCbCrSign      bool
	SAOLuma            bool
	SAOChroma          bool
	DeblockingDisabled bool

	ALFEnabled     bool
	ALFCb          bool
	ALFCr          bool
	ALFCcCb        bool
	ALFCcCr        bool
	AlfApsIDLuma   []int
	AlfApsIDChroma int
	AlfCcCbApsID   int
	AlfCcCrApsID   int

	LMCSEnabled         bool
	ChromaResidualScale bool
	LmcsApsID           int

	ExplicitScalingList bool
	ScalingListApsID    int
}

// ALFData is one ALF adaptation parameter set.
type ALFData struct {
	ID                         int
	LumaFilter                 bool
	ChromaFilter               bool
	CcCbFilter                 bool
	CcCrFilter                 bool
	LumaClip                   bool
	ChromaClip                 bool
	LumaFiltersSignalledMinus1 int
	LumaCoeffDeltaIdx          [25]uint8
	LumaCoeffs                 [25][12]int8
	LumaClipIdx                [25][12]uint8
	ChromaAltFiltersMinus1     int
	ChromaCoeffs               [8][6]int8
	ChromaClipIdx              [8][6]uint8
	CcCbFiltersMinus1          int
	CcCbCoeffs                 [4][7]int8
	CcCrFiltersMinus1          int
	CcCrCoeffs                 [4][7]int8
}

// LMCSData is one LMCS adaptation parameter set.
type LMCSData struct {
	ID             int
	MinBinIdx      int
	DeltaMaxBinIdx int
	DeltaCW        [16]int16
	DeltaCrs       int8
}

// ScalingListData is one scaling list adaptation parameter set with the
// derived matrices.
type ScalingListData struct {
	ID        int
	DC        [14]uint8
	Matrix2x2 [2][2][2]uint8
	Matrix4x4 [6][4][4]uint8
	Matrix8x8 [20][8][8]uint8
}

// DPBEntry is one reference picture of the current picture.
type DPBEntry struct {
	Ref      vadecode.FrameRef
	POC      int32
	LongTerm bool
}

// PredWeightTable holds the explicit weighted prediction parameters.
type PredWeightTable struct {
	LumaLog2Denom        int
	DeltaChromaLog2Denom int
	// Weights are indexed by list, then reference index.
	NumWeights        [2]int
	LumaFlag          [2][15]bool
	ChromaFlag        [2][15]bool
	DeltaLumaWeight   [2][15]int8
	LumaOffset        [2][15]int8
	DeltaChromaWeight [2][15][2]int8
	DeltaChromaOffset [2][15][2]int16
}

// SliceHeader holds the slice header fields the accelerator needs.
type SliceHeader struct {
	SliceType             int
	SubpicID              int
	SliceAddress          int
	NumTilesInSliceMinus1 int
	// RefPicList index the unit's DPB.
	RefPicList        [2][]int
	CollocatedFromL0  bool
	CollocatedRefIdx  int
	QPY               int
	CbQPOffset        int
	CrQPOffset        int
	JointCbCrQPOffset int
	// Deblocking offsets: luma, Cb, Cr beta and tc.
	LumaBetaOffsetDiv2 int
	LumaTcOffsetDiv2   int
	CbBetaOffsetDiv2   int
	CbTcOffsetDiv2     int
	CrBetaOffsetDiv2   int
	CrTcOffsetDiv2     int

	ALFEnabled     bool
	ALFCb          bool
	ALFCr          bool
	ALFCcCb        bool
	ALFCcCr        bool
	AlfApsIDLuma   []int
	AlfApsIDChroma int
	AlfCcCbApsID   int
	AlfCcCrApsID   int

	NoOutputOfPriorPics      bool
	LMCSUsed                 bool
	ExplicitScalingListUsed  bool
	CabacInit                bool
	CuChromaQPOffsetEnabled  bool
	SAOLuma                  bool
	SAOChroma                bool
	DeblockingDisabled       bool
	DepQuant                 bool
	SignDataHiding           bool
	TSResidualCodingDisabled bool

	Weights *PredWeightTable
	// HeaderBytes is the slice header length in bytes.
	HeaderBytes int
}

// Slice is one slice NAL unit.
type Slice struct {
	Header SliceHeader
	Data   []byte
}

// Unit is one coded picture.
type Unit struct {
	vadecode.Frame
	// SPS is set when the picture activates a new sequence parameter set.
	SPS     *SPS
	PPS     *PPS
	Picture PictureHeader
	DPB     []DPBEntry
	// ALF, LMCS and ScalingList are the adaptation parameter sets the
	// picture header and slices refer to.
	ALF         []ALFData
	LMCS        *LMCSData
	ScalingList *ScalingListData
	Slices      []Slice
}

// HasSequence implements vadecode.Unit.
func (u *Unit) HasSequence() bool { return u.SPS != nil }

// SliceCount implements vadecode.Unit.
func (u *Unit) SliceCount() int { return len(u.Slices) }
