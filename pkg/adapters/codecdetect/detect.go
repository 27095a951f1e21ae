// Package codecdetect detects the video codec of MP4 files.
package codecdetect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/vadecode/pkg/ports"
)

// ErrNoVideoTrack is returned for files without a video track.
var ErrNoVideoTrack = errors.New("codecdetect: no video track found")

// sampleEntries maps MP4 sample entry types to codecs.
var sampleEntries = map[string]ports.Codec{
	"avc1": ports.CodecH264,
	"avc3": ports.CodecH264,
	"hvc1": ports.CodecH265,
	"hev1": ports.CodecH265,
	"vvc1": ports.CodecVVC,
	"vvi1": ports.CodecVVC,
	"vp08": ports.CodecVP8,
	"vp09": ports.CodecVP9,
	"av01": ports.CodecAV1,
	"mp2v": ports.CodecMPEG2,
	"mjpg": ports.CodecJPEG,
	"jpeg": ports.CodecJPEG,
}

// Info describes the first video track of a file.
type Info struct {
	Codec       ports.Codec `json:"codec"`
	SampleEntry string      `json:"sample_entry"`
	TrackID     uint32      `json:"track_id"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Timescale   uint32      `json:"timescale"`
	Fragmented  bool        `json:"fragmented"`
}

// Known reports whether a codec was recognised.
func (i Info) Known() bool { return i.Codec != "" }

// DetectFromFile detects the video codec used in an MP4 file.
func DetectFromFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader detects the video codec from an io.ReadSeeker and rewinds it.
func DetectFromReader(reader io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("seek: %w", err)
	}

	return Detect(mp4File)
}

// DetectFromBytes detects the video codec from MP4 data bytes.
func DetectFromBytes(data []byte) (Info, error) {
	return DetectFromReader(bytes.NewReader(data))
}

// Detect inspects the tracks of a decoded file.
func Detect(mp4File *mp4.File) (Info, error) {
	moov := mp4File.Moov
	if mp4File.IsFragmented() && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return Info{}, ErrNoVideoTrack
	}
	for _, trak := range moov.Traks {
		if info, ok := detectTrack(trak); ok {
			info.Fragmented = mp4File.IsFragmented()
			return info, nil
		}
	}
	return Info{}, ErrNoVideoTrack
}

// VideoTrack returns the first video track of moov and its sample entry.
func VideoTrack(moov *mp4.MoovBox) (*mp4.TrakBox, *mp4.VisualSampleEntryBox) {
	if moov == nil {
		return nil, nil
	}
	for _, trak := range moov.Traks {
		if entry := sampleEntry(trak); entry != nil {
			return trak, entry
		}
	}
	return nil, nil
}

func sampleEntry(trak *mp4.TrakBox) *mp4.VisualSampleEntryBox {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return nil
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return nil
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			return vse
		}
	}
	return nil
}

func detectTrack(trak *mp4.TrakBox) (Info, bool) {
	entry := sampleEntry(trak)
	if entry == nil {
		return Info{}, false
	}
	info := Info{
		Codec:       sampleEntries[entry.Type()],
		SampleEntry: entry.Type(),
		Width:       int(entry.Width),
		Height:      int(entry.Height),
		Timescale:   1000,
	}
	if trak.Tkhd != nil {
		info.TrackID = trak.Tkhd.TrackID
	}
	if trak.Mdia.Mdhd != nil {
		info.Timescale = trak.Mdia.Mdhd.Timescale
	}
	return info, true
}
