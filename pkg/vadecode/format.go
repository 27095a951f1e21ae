package vadecode

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
)

// ChromaFormat is the chroma subsampling signalled by a sequence header,
// numbered like chroma_format_idc.
type ChromaFormat int

const (
	Chroma400 ChromaFormat = iota
	Chroma420
	Chroma422
	Chroma444
)

// RTFormatFor maps a chroma format and luma bit depth to the accelerator class.
func RTFormatFor(chroma ChromaFormat, bitDepth int) (ports.RTFormat, error) {
	switch bitDepth {
	case 8:
		switch chroma {
		case Chroma400:
			return ports.RTFormatYUV400, nil
		case Chroma420:
			return ports.RTFormatYUV420, nil
		case Chroma422:
			return ports.RTFormatYUV422, nil
		case Chroma444:
			return ports.RTFormatYUV444, nil
		}
	case 9, 10:
		switch chroma {
		case Chroma400, Chroma420:
			return ports.RTFormatYUV420_10, nil
		case Chroma422:
			return ports.RTFormatYUV422_10, nil
		case Chroma444:
			return ports.RTFormatYUV444_10, nil
		}
	case 11, 12:
		switch chroma {
		case Chroma400, Chroma420:
			return ports.RTFormatYUV420_12, nil
		case Chroma422:
			return ports.RTFormatYUV422_12, nil
		case Chroma444:
			return ports.RTFormatYUV444_12, nil
		}
	}
	return 0, fmt.Errorf("vadecode: no rt format for chroma %d at %d bits", chroma, bitDepth)
}

// Format is the part of the stream configuration the decode context depends on.
type Format struct {
	Profile  ports.Profile
	RTFormat ports.RTFormat
	Width    int
	Height   int
}

// String formats the configuration for logs.
func (f Format) String() string {
	return fmt.Sprintf("%s/%s %dx%d", f.Profile, f.RTFormat, f.Width, f.Height)
}

// OutputInfo is a Format plus what only the consumer cares about.
type OutputInfo struct {
	Format
	DisplayWidth  int
	DisplayHeight int
	CropX         int
	CropY         int
	Interlaced    bool
	MinBuffers    int
}

func (o OutputInfo) outputEqual(other OutputInfo) bool {
	return o.DisplayWidth == other.DisplayWidth &&
		o.DisplayHeight == other.DisplayHeight &&
		o.CropX == other.CropX &&
		o.CropY == other.CropY &&
		o.Interlaced == other.Interlaced &&
		o.MinBuffers == other.MinBuffers
}

func (o OutputInfo) display() (width, height int) {
	width, height = o.DisplayWidth, o.DisplayHeight
	if width == 0 {
		width = o.Width
	}
	if height == 0 {
		height = o.Height
	}
	return width, height
}
