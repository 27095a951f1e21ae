// Package vp8 drives VP8 decoding on an accelerator.
package vp8

import "github.com/user/vadecode/pkg/vadecode"

// NumRefs is the number of reference pictures: last, golden and altref.
const NumRefs = 3

// Reference slots.
const (
	RefLast = iota
	RefGolden
	RefAltRef
)

// Segmentation holds the segment header of the first partition.
type Segmentation struct {
	Enabled    bool
	UpdateMap  bool
	UpdateData bool
	// AbsoluteDelta makes Quantizer and FilterLevel absolute values instead
	// of deltas on the frame values.
	AbsoluteDelta bool
	Quantizer     [4]int8
	FilterLevel   [4]int8
	TreeProbs     [3]uint8
}

// Quantization holds the quantizer indices.
type Quantization struct {
	YACQI     int
	YDCDelta  int
	Y2DCDelta int
	Y2ACDelta int
	UVDCDelta int
	UVACDelta int
}

// BoolDecoder is the state of the first partition's boolean decoder after the
// frame header was parsed.
type BoolDecoder struct {
	Range uint8
	Value uint8
	Count uint8
}

// FrameHeader holds the frame header fields the accelerator needs.
type FrameHeader struct {
	KeyFrame  bool
	Version   int
	ShowFrame bool
	Width     int
	Height    int

	// FirstPartSize is the size of the first partition and HeaderBits the
	// number of its bits taken by the frame header.
	FirstPartSize int
	HeaderBits    int
	// PartitionSizes are the sizes of the DCT partitions but the last.
	PartitionSizes []int
	Log2Partitions int

	Segmentation Segmentation

	FilterType       int
	FilterLevel      int
	Sharpness        int
	LFDeltaEnabled   bool
	LFDeltaUpdate    bool
	RefFrameLFDeltas [4]int8
	ModeLFDeltas     [4]int8

	Quantization Quantization

	SignBiasGolden    bool
	SignBiasAlternate bool
	MBNoCoeffSkip     bool

	ProbSkipFalse uint8
	ProbIntra     uint8
	ProbLast      uint8
	ProbGF        uint8
	YModeProbs    [4]uint8
	UVModeProbs   [3]uint8
	MVProbs       [2][19]uint8
	CoeffProbs    [4][8][3][11]uint8

	BoolDecoder BoolDecoder
}

// Unit is one VP8 frame.
type Unit struct {
	vadecode.Frame
	Header FrameHeader
	// Refs holds the last, golden and altref pictures before this frame.
	Refs [NumRefs]vadecode.FrameRef
	// Data is the whole frame including the uncompressed chunk.
	Data []byte
}

// HasSequence reports key frames, which carry the frame size.
func (u *Unit) HasSequence() bool { return u.Header.KeyFrame }

// SliceCount is always one: the partitions travel in one buffer.
func (u *Unit) SliceCount() int { return 1 }

// chunkSize returns the size of the uncompressed data chunk in front of the
// first partition.
func (u *Unit) chunkSize() int {
	if u.Header.KeyFrame {
		return 10
	}
	return 3
}
