// Package ports defines the interfaces between the decode core and the outside world.
package ports

import (
	"fmt"
	"strings"
)

// ConfigID identifies an accelerator decode configuration.
type ConfigID uint32

// ContextID identifies an accelerator decode context.
type ContextID uint32

// BufferID identifies an accelerator parameter or data buffer.
type BufferID uint32

// SurfaceID identifies an accelerator surface a picture is decoded into.
type SurfaceID uint32

// InvalidID is the accelerator's "no object" value for every id type.
const InvalidID = 0xffffffff

// InvalidSurface is the surface id written into reference slots that hold no picture.
const InvalidSurface SurfaceID = InvalidID

// Codec names a compressed video format.
type Codec string

const (
	CodecH264  Codec = "h264"
	CodecH265  Codec = "h265"
	CodecVVC   Codec = "vvc"
	CodecVP8   Codec = "vp8"
	CodecVP9   Codec = "vp9"
	CodecAV1   Codec = "av1"
	CodecMPEG2 Codec = "mpeg2"
	CodecJPEG  Codec = "jpeg"
)

// Profile is the accelerator's codec+feature-set identifier.
// Values follow the libva VAProfile numbering.
type Profile int32

const (
	ProfileNone                    Profile = -1
	ProfileMPEG2Simple             Profile = 0
	ProfileMPEG2Main               Profile = 1
	ProfileH264Main                Profile = 6
	ProfileH264High                Profile = 7
	ProfileJPEGBaseline            Profile = 12
	ProfileH264ConstrainedBaseline Profile = 13
	ProfileVP8Version0_3           Profile = 14
	ProfileH264MultiviewHigh       Profile = 15
	ProfileH264StereoHigh          Profile = 16
	ProfileHEVCMain                Profile = 17
	ProfileHEVCMain10              Profile = 18
	ProfileVP9Profile0             Profile = 19
	ProfileVP9Profile1             Profile = 20
	ProfileVP9Profile2             Profile = 21
	ProfileVP9Profile3             Profile = 22
	ProfileHEVCMain12              Profile = 23
	ProfileHEVCMain422_10          Profile = 24
	ProfileHEVCMain422_12          Profile = 25
	ProfileHEVCMain444             Profile = 26
	ProfileHEVCMain444_10          Profile = 27
	ProfileHEVCMain444_12          Profile = 28
	ProfileHEVCSccMain             Profile = 29
	ProfileHEVCSccMain10           Profile = 30
	ProfileHEVCSccMain444          Profile = 31
	ProfileAV1Profile0             Profile = 32
	ProfileAV1Profile1             Profile = 33
	ProfileHEVCSccMain444_10       Profile = 34
	ProfileH264High10              Profile = 36
	ProfileVVCMain10               Profile = 37
	ProfileVVCMultilayerMain10     Profile = 38
)

var profileNames = map[Profile]string{
	ProfileNone:                    "none",
	ProfileMPEG2Simple:             "mpeg2-simple",
	ProfileMPEG2Main:               "mpeg2-main",
	ProfileH264Main:                "h264-main",
	ProfileH264High:                "h264-high",
	ProfileJPEGBaseline:            "jpeg-baseline",
	ProfileH264ConstrainedBaseline: "h264-constrained-baseline",
	ProfileVP8Version0_3:           "vp8",
	ProfileH264MultiviewHigh:       "h264-multiview-high",
	ProfileH264StereoHigh:          "h264-stereo-high",
	ProfileHEVCMain:                "h265-main",
	ProfileHEVCMain10:              "h265-main-10",
	ProfileVP9Profile0:             "vp9-profile0",
	ProfileVP9Profile1:             "vp9-profile1",
	ProfileVP9Profile2:             "vp9-profile2",
	ProfileVP9Profile3:             "vp9-profile3",
	ProfileHEVCMain12:              "h265-main-12",
	ProfileHEVCMain422_10:          "h265-main-422-10",
	ProfileHEVCMain422_12:          "h265-main-422-12",
	ProfileHEVCMain444:             "h265-main-444",
	ProfileHEVCMain444_10:          "h265-main-444-10",
	ProfileHEVCMain444_12:          "h265-main-444-12",
	ProfileHEVCSccMain:             "h265-screen-extended-main",
	ProfileHEVCSccMain10:           "h265-screen-extended-main-10",
	ProfileHEVCSccMain444:          "h265-screen-extended-main-444",
	ProfileAV1Profile0:             "av1-main",
	ProfileAV1Profile1:             "av1-high",
	ProfileHEVCSccMain444_10:       "h265-screen-extended-main-444-10",
	ProfileH264High10:              "h264-high-10",
	ProfileVVCMain10:               "h266-main-10",
	ProfileVVCMultilayerMain10:     "h266-multilayer-main-10",
}

// String returns a readable profile name.
func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("profile(%d)", int32(p))
}

// Codec returns the codec the profile belongs to, or "" for ProfileNone.
func (p Profile) Codec() Codec {
	name, ok := profileNames[p]
	if !ok || p == ProfileNone {
		return ""
	}
	switch {
	case strings.HasPrefix(name, "mpeg2"):
		return CodecMPEG2
	case strings.HasPrefix(name, "h264"):
		return CodecH264
	case strings.HasPrefix(name, "h265"):
		return CodecH265
	case strings.HasPrefix(name, "h266"):
		return CodecVVC
	case strings.HasPrefix(name, "vp8"):
		return CodecVP8
	case strings.HasPrefix(name, "vp9"):
		return CodecVP9
	case strings.HasPrefix(name, "av1"):
		return CodecAV1
	case strings.HasPrefix(name, "jpeg"):
		return CodecJPEG
	}
	return ""
}

// RTFormat is the accelerator's chroma subsampling and bit depth class.
// Values follow the libva VA_RT_FORMAT_* bits.
type RTFormat uint32

const (
	RTFormatYUV420    RTFormat = 0x00000001
	RTFormatYUV422    RTFormat = 0x00000002
	RTFormatYUV444    RTFormat = 0x00000004
	RTFormatYUV411    RTFormat = 0x00000008
	RTFormatYUV400    RTFormat = 0x00000010
	RTFormatYUV420_10 RTFormat = 0x00000100
	RTFormatYUV422_10 RTFormat = 0x00000200
	RTFormatYUV444_10 RTFormat = 0x00000400
	RTFormatYUV420_12 RTFormat = 0x00001000
	RTFormatYUV422_12 RTFormat = 0x00002000
	RTFormatYUV444_12 RTFormat = 0x00004000
)

// String returns a readable RT format name.
func (f RTFormat) String() string {
	switch f {
	case RTFormatYUV420:
		return "yuv420"
	case RTFormatYUV422:
		return "yuv422"
	case RTFormatYUV444:
		return "yuv444"
	case RTFormatYUV411:
		return "yuv411"
	case RTFormatYUV400:
		return "yuv400"
	case RTFormatYUV420_10:
		return "yuv420-10"
	case RTFormatYUV422_10:
		return "yuv422-10"
	case RTFormatYUV444_10:
		return "yuv444-10"
	case RTFormatYUV420_12:
		return "yuv420-12"
	case RTFormatYUV422_12:
		return "yuv422-12"
	case RTFormatYUV444_12:
		return "yuv444-12"
	case 0:
		return "none"
	default:
		return fmt.Sprintf("rt(0x%x)", uint32(f))
	}
}

// FourCC returns the surface pixel format decoded pictures of this class use.
func (f RTFormat) FourCC() string {
	switch f {
	case RTFormatYUV420:
		return "NV12"
	case RTFormatYUV422:
		return "YUY2"
	case RTFormatYUV444:
		return "AYUV"
	case RTFormatYUV400:
		return "Y800"
	case RTFormatYUV420_10:
		return "P010"
	case RTFormatYUV422_10:
		return "Y210"
	case RTFormatYUV444_10:
		return "Y410"
	case RTFormatYUV420_12:
		return "P012"
	case RTFormatYUV422_12:
		return "Y212"
	case RTFormatYUV444_12:
		return "Y412"
	default:
		return ""
	}
}

// Entrypoint selects the accelerator function a config is created for.
type Entrypoint int

// EntrypointVLD is the slice-level decode entrypoint.
const EntrypointVLD Entrypoint = 1

// BufferType tags the content of an accelerator buffer.
type BufferType int

const (
	BufferPictureParameter BufferType = iota
	BufferIQMatrix
	BufferBitPlane
	BufferSliceParameter
	BufferSliceData
	BufferHuffmanTable
	BufferProbability
	BufferAlf
	BufferLmcs
	BufferSubPic
	BufferTile
	BufferSliceStruct
)

// String returns the buffer type name.
func (t BufferType) String() string {
	switch t {
	case BufferPictureParameter:
		return "picture-parameter"
	case BufferIQMatrix:
		return "iq-matrix"
	case BufferBitPlane:
		return "bit-plane"
	case BufferSliceParameter:
		return "slice-parameter"
	case BufferSliceData:
		return "slice-data"
	case BufferHuffmanTable:
		return "huffman-table"
	case BufferProbability:
		return "probability"
	case BufferAlf:
		return "alf"
	case BufferLmcs:
		return "lmcs"
	case BufferSubPic:
		return "subpic"
	case BufferTile:
		return "tile"
	case BufferSliceStruct:
		return "slice-struct"
	default:
		return fmt.Sprintf("buffer(%d)", int(t))
	}
}

// Implementation identifies the vendor driver behind an accelerator.
type Implementation int

const (
	ImplementationOther Implementation = iota
	ImplementationIntelI965
	ImplementationIntelIHD
	ImplementationMesaGallium
)

// String returns the implementation name.
func (i Implementation) String() string {
	switch i {
	case ImplementationIntelI965:
		return "intel-i965"
	case ImplementationIntelIHD:
		return "intel-ihd"
	case ImplementationMesaGallium:
		return "mesa-gallium"
	default:
		return "other"
	}
}

// ParseImplementation parses a name produced by Implementation.String.
func ParseImplementation(s string) (Implementation, bool) {
	for _, impl := range []Implementation{ImplementationOther, ImplementationIntelI965, ImplementationIntelIHD, ImplementationMesaGallium} {
		if impl.String() == s {
			return impl, true
		}
	}
	return ImplementationOther, false
}

// ImplementationFromVendor classifies a driver vendor string.
func ImplementationFromVendor(vendor string) Implementation {
	switch {
	case strings.HasPrefix(vendor, "Mesa Gallium driver"):
		return ImplementationMesaGallium
	case strings.HasPrefix(vendor, "Intel i965 driver"):
		return ImplementationIntelI965
	case strings.HasPrefix(vendor, "Intel iHD driver"):
		return ImplementationIntelIHD
	default:
		return ImplementationOther
	}
}

// SurfaceAttributes describes what surfaces a config can decode into.
type SurfaceAttributes struct {
	Formats   []string // FourCC codes
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// Device describes one render node an accelerator can be opened on.
type Device struct {
	Index  int
	Path   string // e.g. /dev/dri/renderD128
	Vendor string
}

// Name returns the device node's base name.
func (d Device) Name() string {
	if i := strings.LastIndex(d.Path, "/"); i >= 0 {
		return d.Path[i+1:]
	}
	return d.Path
}

// StatusError is returned by accelerators when a driver call fails.
type StatusError struct {
	Call    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Call, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: status %d", e.Call, e.Status)
}

// Accelerator is the fixed-function decode API the core drives.
// Calls are synchronous; a single decode context is never used concurrently.
type Accelerator interface {
	// Implementation reports which vendor driver is loaded.
	Implementation() Implementation

	// QueryProfiles lists the profiles the driver can decode.
	QueryProfiles() ([]Profile, error)

	// CreateConfig creates a decode configuration for a profile and RT format.
	CreateConfig(profile Profile, entrypoint Entrypoint, rtFormat RTFormat) (ConfigID, error)
	DestroyConfig(id ConfigID) error

	// QuerySurfaceAttributes reports the surface formats and size limits of a config.
	QuerySurfaceAttributes(config ConfigID) (SurfaceAttributes, error)

	CreateSurfaces(rtFormat RTFormat, width, height, count int) ([]SurfaceID, error)
	DestroySurfaces(ids []SurfaceID) error

	// CreateContext creates a decode context. surfaces may be nil when the
	// surface pool is not static.
	CreateContext(config ConfigID, width, height int, surfaces []SurfaceID) (ContextID, error)
	DestroyContext(id ContextID) error

	// CreateBuffer copies count elements of len(data)/count bytes each into a new buffer.
	CreateBuffer(context ContextID, kind BufferType, data []byte, count int) (BufferID, error)
	DestroyBuffer(id BufferID) error

	BeginPicture(context ContextID, surface SurfaceID) error
	RenderPicture(context ContextID, buffers []BufferID) error
	EndPicture(context ContextID) error
}
