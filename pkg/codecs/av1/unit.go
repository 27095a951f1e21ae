// Package av1 drives AV1 decoding on an accelerator.
//
// When film grain is applied the frame is decoded into an auxiliary surface,
// which later frames reference, and the accelerator writes the grain-applied
// picture to the output surface.
package av1

import "github.com/user/vadecode/pkg/vadecode"

// Frame types.
const (
	KeyFrame       = 0
	InterFrame     = 1
	IntraOnlyFrame = 2
	SwitchFrame    = 3
)

// Reference frame map size and per-frame reference count.
const (
	NumRefFrames   = 8
	RefsPerFrame   = 7
	MaxTileCols    = 63
	MaxTileRows    = 63
	MaxSegments    = 8
	SegLvlMax      = 8
	primaryRefNone = 7
)

// SequenceHeader holds the sequence header fields the accelerator needs.
type SequenceHeader struct {
	Profile  int
	BitDepth int

	MonoChrome           bool
	SubsamplingX         bool
	SubsamplingY         bool
	ColorRange           bool
	ChromaSamplePosition int
	MatrixCoefficients   int

	MaxFrameWidth  int
	MaxFrameHeight int

	OrderHintBits          int
	StillPicture           bool
	Use128x128Superblock   bool
	EnableFilterIntra      bool
	EnableIntraEdgeFilter  bool
	EnableInterintraComp   bool
	EnableMaskedCompound   bool
	EnableDualFilter       bool
	EnableOrderHint        bool
	EnableJntComp          bool
	EnableCdef             bool
	FilmGrainParamsPresent bool
}

// Segmentation holds the segmentation parameters.
type Segmentation struct {
	Enabled        bool
	UpdateMap      bool
	TemporalUpdate bool
	UpdateData     bool
	FeatureData    [MaxSegments][SegLvlMax]int16
	// FeatureMask has bit j set when feature j is enabled for the segment.
	FeatureMask [MaxSegments]uint8
}

// FilmGrain holds the film grain synthesis parameters.
type FilmGrain struct {
	ApplyGrain            bool
	ChromaScalingFromLuma bool
	GrainScalingMinus8    int
	ARCoeffLag            int
	ARCoeffShiftMinus6    int
	GrainScaleShift       int
	Overlap               bool
	ClipToRestrictedRange bool
	GrainSeed             uint16
	PointYValue           []uint8
	PointYScaling         []uint8
	PointCbValue          []uint8
	PointCbScaling        []uint8
	PointCrValue          []uint8
	PointCrScaling        []uint8
	ARCoeffsY             [24]int8
	ARCoeffsCb            [25]int8
	ARCoeffsCr            [25]int8
	CbMult                uint8
	CbLumaMult            uint8
	CbOffset              uint16
	CrMult                uint8
	CrLumaMult            uint8
	CrOffset              uint16
}

// TileInfo holds the tile layout in superblocks.
type TileInfo struct {
	UniformSpacing      bool
	WidthInSbsMinus1    []int
	HeightInSbsMinus1   []int
	ContextUpdateTileID int
}

// LoopFilter holds the deblocking parameters.
type LoopFilter struct {
	Level          [2]uint8
	LevelU         uint8
	LevelV         uint8
	Sharpness      int
	DeltaEnabled   bool
	DeltaUpdate    bool
	RefDeltas      [NumRefFrames]int8
	ModeDeltas     [2]int8
	DeltaLFPresent bool
	DeltaLFRes     int
	DeltaLFMulti   bool
}

// Quantization holds the quantizer parameters.
type Quantization struct {
	BaseQIdx      uint8
	DeltaQYDc     int8
	DeltaQUDc     int8
	DeltaQUAc     int8
	DeltaQVDc     int8
	DeltaQVAc     int8
	UsingQMatrix  bool
	QMY           int
	QMU           int
	QMV           int
	DeltaQPresent bool
	DeltaQRes     int
}

// CDEF holds the constrained directional enhancement filter parameters.
type CDEF struct {
	DampingMinus3 uint8
	Bits          uint8
	YStrengths    [8]uint8
	UVStrengths   [8]uint8
}

// LoopRestoration holds the loop restoration parameters.
type LoopRestoration struct {
	Type      [3]int
	UnitShift int
	UVShift   int
}

// WarpedMotion is the global motion of one reference.
type WarpedMotion struct {
	Type    int32
	Params  [8]int32
	Invalid bool
}

// FrameHeader holds the frame header fields the accelerator needs.
type FrameHeader struct {
	FrameType         int
	ShowFrame         bool
	ShowableFrame     bool
	ShowExistingFrame bool
	// FrameToShow is the slot shown by a show-existing frame.
	FrameToShow int

	ErrorResilient           bool
	DisableCdfUpdate         bool
	AllowScreenContentTools  bool
	ForceIntegerMV           bool
	AllowIntrabc             bool
	UseSuperres              bool
	AllowHighPrecisionMV     bool
	IsMotionModeSwitchable   bool
	UseRefFrameMvs           bool
	DisableFrameEndUpdateCdf bool
	AllowWarpedMotion        bool
	ReducedTxSet             bool
	ReferenceSelect          bool
	SkipModePresent          bool
	TxMode                   int

	FrameWidth    int
	FrameHeight   int
	UpscaledWidth int
	SuperresDenom int

	RefFrameIdx     [RefsPerFrame]int
	PrimaryRefFrame int
	OrderHint       int
	InterpFilter    int

	Segmentation    Segmentation
	FilmGrain       FilmGrain
	Tiles           TileInfo
	LoopFilter      LoopFilter
	Quantization    Quantization
	CDEF            CDEF
	LoopRestoration LoopRestoration
	GlobalMotion    [RefsPerFrame]WarpedMotion
}

// Tile locates one tile inside its tile group's data.
type Tile struct {
	Row    int
	Column int
	Offset int
	Size   int
}

// TileGroup is one OBU_TILE_GROUP.
type TileGroup struct {
	Start int
	End   int
	Tiles []Tile
	Data  []byte
}

// Unit is one temporal unit's frame.
type Unit struct {
	vadecode.Frame
	// Sequence is set when a new sequence header precedes the frame.
	Sequence *SequenceHeader
	Header   FrameHeader
	// RefSlots is the reference frame map before this frame is decoded.
	RefSlots   [NumRefFrames]vadecode.FrameRef
	TileGroups []TileGroup
}

// HasSequence implements vadecode.Unit.
func (u *Unit) HasSequence() bool { return u.Sequence != nil }

// SliceCount returns the number of tile groups.
func (u *Unit) SliceCount() int {
	if u.Header.ShowExistingFrame {
		return 0
	}
	return len(u.TileGroups)
}
