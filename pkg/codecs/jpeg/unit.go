// Package jpeg drives baseline JPEG decoding on an accelerator. Each unit is
// one image; there are no references.
package jpeg

import "github.com/user/vadecode/pkg/vadecode"

// Component is one frame component of the SOF segment.
type Component struct {
	ID         uint8
	H          int
	V          int
	QuantTable int
}

// FrameHeader holds the SOF segment.
type FrameHeader struct {
	// Baseline is false for progressive, lossless and arithmetic coded images.
	Baseline   bool
	Precision  int
	Width      int
	Height     int
	Components []Component
}

// HuffmanTable is one DC and one AC table pair of a DHT segment.
type HuffmanTable struct {
	DCCounts [16]uint8
	DCValues [12]uint8
	ACCounts [16]uint8
	ACValues [162]uint8
}

// ScanComponent selects the tables of one component of a scan.
type ScanComponent struct {
	Selector uint8
	DCTable  int
	ACTable  int
}

// Scan is one SOS segment with its entropy coded data.
type Scan struct {
	Components      []ScanComponent
	RestartInterval int
	Data            []byte
}

// Unit is one image.
type Unit struct {
	vadecode.Frame
	Header FrameHeader
	// QuantTables are the DQT tables in zigzag order, nil when not defined.
	QuantTables [4]*[64]uint8
	// HuffmanTables are the DHT tables; nil tables use the standard ones.
	HuffmanTables [2]*HuffmanTable
	Scans         []Scan
}

// HasSequence is always true: every image carries its own frame header.
func (u *Unit) HasSequence() bool { return true }

// SliceCount returns the number of scans.
func (u *Unit) SliceCount() int { return len(u.Scans) }
