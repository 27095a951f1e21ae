package jpeg

import "fmt"

const (
	maxComponents     = 255
	maxScanComponents = 4
	numQuantTables    = 4
	numHuffmanTables  = 2
)

type frameComponent struct {
	ComponentID            uint8
	HSamplingFactor        uint8
	VSamplingFactor        uint8
	QuantiserTableSelector uint8
}

type rectangle struct {
	X      int16
	Y      int16
	Width  uint16
	Height uint16
}

type pictureParams struct {
	PictureWidth  uint16
	PictureHeight uint16
	Components    [maxComponents]frameComponent
	NumComponents uint8
	ColorSpace    uint8
	_             [2]uint8
	Rotation      uint32
	CropRectangle rectangle
	_             [5]uint32
}

type iqMatrix struct {
	LoadQuantiserTable [numQuantTables]uint8
	QuantiserTable     [numQuantTables][64]uint8
	_                  [4]uint32
}

type huffmanTable struct {
	NumDCCodes [16]uint8
	DCValues   [12]uint8
	NumACCodes [16]uint8
	ACValues   [162]uint8
	_          [2]uint8
}

type huffmanTables struct {
	LoadHuffmanTable [numHuffmanTables]uint8
	HuffmanTable     [numHuffmanTables]huffmanTable
	_                [2]uint8
	_                [4]uint32
}

type scanComponent struct {
	ComponentSelector uint8
	DCTableSelector   uint8
	ACTableSelector   uint8
}

type sliceParams struct {
	SliceDataSize           uint32
	SliceDataOffset         uint32
	SliceDataFlag           uint32
	SliceHorizontalPosition uint32
	SliceVerticalPosition   uint32
	Components              [maxScanComponents]scanComponent
	NumComponents           uint8
	_                       uint8
	RestartInterval         uint16
	NumMCUs                 uint32
	_                       [4]uint32
}

func buildPictureParams(h *FrameHeader) (*pictureParams, error) {
	if len(h.Components) > maxComponents {
		return nil, fmt.Errorf("jpeg: %d components", len(h.Components))
	}
	pp := &pictureParams{
		PictureWidth:  uint16(h.Width),
		PictureHeight: uint16(h.Height),
		NumComponents: uint8(len(h.Components)),
	}
	for i, c := range h.Components {
		if c.QuantTable < 0 || c.QuantTable >= numQuantTables {
			return nil, fmt.Errorf("jpeg: component %d uses quantisation table %d", c.ID, c.QuantTable)
		}
		pp.Components[i] = frameComponent{
			ComponentID:            c.ID,
			HSamplingFactor:        uint8(c.H),
			VSamplingFactor:        uint8(c.V),
			QuantiserTableSelector: uint8(c.QuantTable),
		}
	}
	return pp, nil
}

func buildIQMatrix(tables [numQuantTables]*[64]uint8) *iqMatrix {
	m := &iqMatrix{}
	for i, t := range tables {
		if t == nil {
			continue
		}
		m.LoadQuantiserTable[i] = 1
		m.QuantiserTable[i] = *t
	}
	return m
}

func buildHuffmanTables(tables [numHuffmanTables]*HuffmanTable) *huffmanTables {
	defaults := DefaultHuffmanTables()
	b := &huffmanTables{}
	for i, t := range tables {
		if t == nil {
			t = defaults[i]
		}
		b.LoadHuffmanTable[i] = 1
		b.HuffmanTable[i] = huffmanTable{
			NumDCCodes: t.DCCounts,
			DCValues:   t.DCValues,
			NumACCodes: t.ACCounts,
			ACValues:   t.ACValues,
		}
	}
	return b
}

// mcuCount returns the number of MCUs of a scan. A single-component scan is
// not interleaved and codes one block per MCU.
func mcuCount(h *FrameHeader, scan *Scan) int {
	hmax, vmax := maxSampling(h)
	if len(scan.Components) != 1 {
		return ceilDiv(h.Width, 8*hmax) * ceilDiv(h.Height, 8*vmax)
	}
	for _, c := range h.Components {
		if c.ID == scan.Components[0].Selector {
			w := ceilDiv(h.Width*c.H, hmax)
			ht := ceilDiv(h.Height*c.V, vmax)
			return ceilDiv(w, 8) * ceilDiv(ht, 8)
		}
	}
	return 0
}

func buildSliceParams(h *FrameHeader, scan *Scan) (*sliceParams, error) {
	if n := len(scan.Components); n == 0 || n > maxScanComponents {
		return nil, fmt.Errorf("jpeg: scan of %d components", n)
	}
	sp := &sliceParams{
		SliceDataSize:   uint32(len(scan.Data)),
		NumComponents:   uint8(len(scan.Components)),
		RestartInterval: uint16(scan.RestartInterval),
		NumMCUs:         uint32(mcuCount(h, scan)),
	}
	if sp.NumMCUs == 0 {
		return nil, fmt.Errorf("jpeg: scan selects unknown component %d", scan.Components[0].Selector)
	}
	for i, c := range scan.Components {
		if c.DCTable < 0 || c.DCTable >= numHuffmanTables || c.ACTable < 0 || c.ACTable >= numHuffmanTables {
			return nil, fmt.Errorf("jpeg: component %d uses huffman tables %d/%d", c.Selector, c.DCTable, c.ACTable)
		}
		sp.Components[i] = scanComponent{
			ComponentSelector: c.Selector,
			DCTableSelector:   uint8(c.DCTable),
			ACTableSelector:   uint8(c.ACTable),
		}
	}
	return sp, nil
}
