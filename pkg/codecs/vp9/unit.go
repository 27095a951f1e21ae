// Package vp9 drives VP9 decoding on an accelerator.
//
// VP9 has no sequence header: key frames and intra-only frames carry the
// configuration, and inter frames may change resolution on the fly.
package vp9

import "github.com/user/vadecode/pkg/vadecode"

// Frame types.
const (
	KeyFrame    = 0
	NonKeyFrame = 1
)

// NumRefSlots is the size of the reference frame map.
const NumRefSlots = 8

// Segmentation holds the segmentation parameters of the frame header.
type Segmentation struct {
	Enabled        bool
	UpdateMap      bool
	TemporalUpdate bool
	TreeProbs      [7]uint8
	PredProbs      [3]uint8
}

// Segment holds the per-segment values derived by the parser.
type Segment struct {
	ReferenceEnabled bool
	Reference        int
	Skipped          bool
	// FilterLevel is indexed by reference frame and mode delta.
	FilterLevel   [4][2]uint8
	LumaACQuant   int16
	LumaDCQuant   int16
	ChromaACQuant int16
	ChromaDCQuant int16
}

// FrameHeader holds the uncompressed header fields the accelerator needs.
type FrameHeader struct {
	Profile      int
	BitDepth     int
	SubsamplingX bool
	SubsamplingY bool

	FrameType         int
	ShowFrame         bool
	ShowExistingFrame bool
	// FrameToShow is the slot shown by a show-existing frame.
	FrameToShow int

	ErrorResilient        bool
	IntraOnly             bool
	AllowHighPrecisionMV  bool
	InterpFilter          int
	RefreshFrameContext   bool
	FrameParallelDecoding bool
	ResetFrameContext     int
	FrameContextIdx       int
	Lossless              bool

	Width        int
	Height       int
	RenderWidth  int
	RenderHeight int

	// RefFrameIdx selects the last, golden and altref slots.
	RefFrameIdx      [3]int
	RefFrameSignBias [3]bool

	Segmentation Segmentation

	FilterLevel    int
	SharpnessLevel int
	Log2TileRows   int
	Log2TileCols   int

	// HeaderSize is the uncompressed header length in bytes and
	// CompressedHeaderSize the first partition size.
	HeaderSize           int
	CompressedHeaderSize int
}

// Unit is one VP9 frame.
type Unit struct {
	vadecode.Frame
	Header FrameHeader
	// RefSlots is the reference frame map before this frame is decoded.
	RefSlots [NumRefSlots]vadecode.FrameRef
	Segments [8]Segment
	// Data is the whole frame including headers.
	Data []byte
}

// HasSequence reports key frames and intra-only frames, which carry the
// profile and bit depth.
func (u *Unit) HasSequence() bool {
	return !u.Header.ShowExistingFrame && (u.Header.FrameType == KeyFrame || u.Header.IntraOnly)
}

// SliceCount is one for decoded frames and zero for show-existing frames.
func (u *Unit) SliceCount() int {
	if u.Header.ShowExistingFrame {
		return 0
	}
	return 1
}
