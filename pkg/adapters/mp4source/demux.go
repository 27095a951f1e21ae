// Package mp4source demuxes MP4 files into coded units for the decode core.
//
// Only the headers the accelerator needs are extracted. The decoded picture
// buffer decisions a full parser would make (reference marking, output order)
// are derived from the container: samples leave in composition time order and
// references follow the sliding window.
package mp4source

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/vadecode/pkg/adapters/codecdetect"
)

// ErrUnsupportedCodec is returned for tracks no unit builder exists for.
var ErrUnsupportedCodec = errors.New("mp4source: unsupported codec")

// Sample is one coded sample of the video track.
type Sample struct {
	// Data holds length-prefixed NAL units.
	Data []byte
	// DecodeTime and CompositionTime are in track timescale units.
	DecodeTime      uint64
	CompositionTime int64
	Dur             uint32
	Sync            bool
}

// Track is the demuxed video track of a file.
type Track struct {
	Info codecdetect.Info
	// ParameterSets are the SPS then PPS NAL units of the sample entry.
	ParameterSets [][]byte
	Samples       []Sample
}

// Ms converts a track time to milliseconds.
func (t *Track) Ms(v int64) int {
	if t.Info.Timescale == 0 {
		return int(v)
	}
	return int(v * 1000 / int64(t.Info.Timescale))
}

// Demux reads the first video track of an MP4 file.
func Demux(reader io.ReadSeeker) (*Track, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	info, err := codecdetect.Detect(mp4File)
	if err != nil {
		return nil, err
	}

	moov := mp4File.Moov
	if mp4File.IsFragmented() {
		moov = mp4File.Init.Moov
	}
	trak, entry := codecdetect.VideoTrack(moov)
	track := &Track{Info: info, ParameterSets: parameterSets(entry)}

	if mp4File.IsFragmented() {
		err = track.readFragments(mp4File, moov)
	} else {
		err = track.readProgressive(trak, reader)
	}
	if err != nil {
		return nil, err
	}
	return track, nil
}

func parameterSets(entry *mp4.VisualSampleEntryBox) [][]byte {
	if entry == nil || entry.AvcC == nil {
		return nil
	}
	var sets [][]byte
	sets = append(sets, entry.AvcC.SPSnalus...)
	sets = append(sets, entry.AvcC.PPSnalus...)
	return sets
}

func (t *Track) readFragments(mp4File *mp4.File, moov *mp4.MoovBox) error {
	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, tr := range moov.Mvex.Trexs {
			if tr.TrackID == t.Info.TrackID {
				trex = tr
				break
			}
		}
	}

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			// GetFullSamples reads the first traf; skip fragments of other tracks
			if len(frag.Moof.Trafs) == 0 || frag.Moof.Trafs[0].Tfhd.TrackID != t.Info.TrackID {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				t.Samples = append(t.Samples, Sample{
					Data:            s.Data,
					DecodeTime:      s.DecodeTime,
					CompositionTime: int64(s.DecodeTime) + int64(s.CompositionTimeOffset),
					Dur:             s.Dur,
					Sync:            s.Flags == mp4.SyncSampleFlags || len(t.Samples) == 0,
				})
			}
		}
	}
	return nil
}

func (t *Track) readProgressive(trak *mp4.TrakBox, reader io.ReadSeeker) error {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return fmt.Errorf("no sample table found")
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil {
		return fmt.Errorf("no stsz box found")
	}

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	for nr := uint32(1); nr <= stbl.Stsz.SampleNumber; nr++ {
		data, err := sampleData(stbl, reader, nr)
		if err != nil {
			return fmt.Errorf("sample %d: %w", nr, err)
		}
		var decodeTime uint64
		var dur uint32
		if stbl.Stts != nil {
			decodeTime, dur = stbl.Stts.GetDecodeTime(nr)
		}
		var offset int32
		if stbl.Ctts != nil {
			offset = stbl.Ctts.GetCompositionTimeOffset(nr)
		}
		t.Samples = append(t.Samples, Sample{
			Data:            data,
			DecodeTime:      decodeTime,
			CompositionTime: int64(decodeTime) + int64(offset),
			Dur:             dur,
			Sync:            stbl.Stss == nil || syncSamples[nr],
		})
	}
	return nil
}

// sampleData reads one sample of a progressive file.
func sampleData(stbl *mp4.StblBox, reader io.ReadSeeker, sampleNr uint32) ([]byte, error) {
	if stbl.Stsc == nil {
		return nil, fmt.Errorf("missing stsc box")
	}
	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	switch {
	case stbl.Stco != nil:
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk %d out of range", chunkNr)
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box")
	}

	offset := chunkOffset
	for s := uint32(firstSampleInChunk); s < sampleNr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}
	if _, err := reader.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, stbl.Stsz.GetSampleSize(int(sampleNr)))
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

// presentationOrder returns sample indices sorted by composition time.
func presentationOrder(samples []Sample) []int {
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return samples[order[a]].CompositionTime < samples[order[b]].CompositionTime
	})
	return order
}
