package mp4source

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/user/vadecode/pkg/codecs/h264"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// ErrFieldCoding is returned for interlaced field pictures, which need the
// field pairing of a full parser.
var ErrFieldCoding = errors.New("mp4source: field coded pictures are not supported")

type refFrame struct {
	id       uint64
	frameNum int
	poc      int32
}

// h264Builder turns the samples of an AVC track into decoder units.
type h264Builder struct {
	track  *Track
	logger ports.Logger

	spss map[uint32]*avc.SPS
	ppss map[uint32]*avc.PPS
	// sentSPS is the SPS id the decoder last received.
	sentSPS *avc.SPS

	refs    []refFrame
	tracker *tracker
	rank    []int
	idrRank int
	warned  map[string]bool
}

// H264Units builds one unit per sample of an AVC track. Picture order counts
// come from the composition time order of the samples.
func H264Units(track *Track, logger ports.Logger) ([]*h264.Unit, error) {
	if track.Info.Codec != ports.CodecH264 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, track.Info.SampleEntry)
	}
	order := presentationOrder(track.Samples)
	b := &h264Builder{
		track:   track,
		logger:  logger.WithComponent("mp4source"),
		spss:    make(map[uint32]*avc.SPS),
		ppss:    make(map[uint32]*avc.PPS),
		tracker: newTracker(order),
		rank:    make([]int, len(order)),
		warned:  make(map[string]bool),
	}
	for r, idx := range order {
		b.rank[idx] = r
	}
	for _, ps := range track.ParameterSets {
		if err := b.parameterSet(ps); err != nil {
			return nil, err
		}
	}

	units := make([]*h264.Unit, 0, len(track.Samples))
	for i := range track.Samples {
		u, err := b.unit(i)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i+1, err)
		}
		units = append(units, u)
	}
	return units, nil
}

func (b *h264Builder) warnOnce(msg string) {
	if !b.warned[msg] {
		b.warned[msg] = true
		b.logger.Warn(msg)
	}
}

func (b *h264Builder) parameterSet(nalu []byte) error {
	switch avc.GetNaluType(nalu[0]) {
	case avc.NALU_SPS:
		sps, err := avc.ParseSPSNALUnit(nalu, false)
		if err != nil {
			return fmt.Errorf("parse sps: %w", err)
		}
		b.spss[sps.ParameterID] = sps
	case avc.NALU_PPS:
		pps, err := avc.ParsePPSNALUnit(nalu, b.spss)
		if err != nil {
			return fmt.Errorf("parse pps: %w", err)
		}
		b.ppss[pps.PicParameterSetID] = pps
	}
	return nil
}

func (b *h264Builder) unit(index int) (*h264.Unit, error) {
	s := &b.track.Samples[index]
	nalus, err := avc.GetNalusFromSample(s.Data)
	if err != nil {
		return nil, fmt.Errorf("split nal units: %w", err)
	}

	u := &h264.Unit{Frame: vadecode.Frame{
		ID:          uint64(index),
		TimestampMs: b.track.Ms(s.CompositionTime),
		DurationMs:  b.track.Ms(int64(s.Dur)),
	}}
	var first *avc.SliceHeader
	var refIDC byte
	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		switch avc.GetNaluType(nalu[0]) {
		case avc.NALU_SPS, avc.NALU_PPS:
			if err := b.parameterSet(nalu); err != nil {
				return nil, err
			}
		case avc.NALU_IDR, avc.NALU_NON_IDR:
			sh, err := avc.ParseSliceHeader(nalu, b.spss, b.ppss)
			if err != nil {
				return nil, fmt.Errorf("parse slice header: %w", err)
			}
			if sh.FieldPicFlag {
				return nil, ErrFieldCoding
			}
			if first == nil {
				first = sh
				refIDC = (nalu[0] >> 5) & 3
				u.Picture.IDR = avc.GetNaluType(nalu[0]) == avc.NALU_IDR
			}
			u.Slices = append(u.Slices, h264.Slice{Header: sliceHeader(sh), Data: nalu})
		}
	}
	if first == nil {
		return nil, errors.New("no slices")
	}

	pps, ok := b.ppss[first.PicParamID]
	if !ok {
		return nil, fmt.Errorf("unknown pps %d", first.PicParamID)
	}
	sps, ok := b.spss[pps.SeqParameterSetID]
	if !ok {
		return nil, fmt.Errorf("unknown sps %d", pps.SeqParameterSetID)
	}
	if sps.SeqScalingMatrixPresentFlag || pps.PicScalingMatrixPresentFlag {
		b.warnOnce("Scaling matrices are not extracted, decoding with flat matrices")
	}
	if pps.WeightedPredFlag || pps.WeightedBipredIDC == 1 {
		b.warnOnce("Explicit weighted prediction tables are not extracted")
	}

	var unref []uint64
	if u.Picture.IDR {
		b.idrRank = b.rank[index]
		for _, r := range b.refs {
			unref = append(unref, r.id)
		}
		b.refs = nil
	}
	if u.Picture.IDR || b.sentSPS != sps {
		u.SPS = convertSPS(sps)
		b.sentSPS = sps
	}

	poc := int32(2 * (b.rank[index] - b.idrRank))
	frameNum := int(first.FrameNum)
	u.Picture = pictureFields(u.Picture, pps, frameNum, poc, refIDC != 0)
	u.DPB = b.dpb()
	maxFrameNum := 1 << (int(sps.Log2MaxFrameNumMinus4) + 4)
	for i := range u.Slices {
		b.buildLists(&u.Slices[i].Header, frameNum, maxFrameNum, poc)
	}

	if refIDC != 0 {
		b.refs = append(b.refs, refFrame{id: u.ID, frameNum: frameNum, poc: poc})
		if limit := max(int(sps.NumRefFrames), 1); len(b.refs) > limit {
			for _, r := range b.refs[:len(b.refs)-limit] {
				unref = append(unref, r.id)
			}
			b.refs = b.refs[len(b.refs)-limit:]
		}
	}
	u.Output, u.Release = b.tracker.decode(u.ID, refIDC != 0, unref)
	return u, nil
}

func pictureFields(p h264.PictureHeader, pps *avc.PPS, frameNum int, poc int32, reference bool) h264.PictureHeader {
	ph := pictureHeader(pps)
	ph.IDR = p.IDR
	ph.FrameNum = frameNum
	ph.Reference = reference
	ph.TopPOC = poc
	ph.BottomPOC = poc
	return ph
}

func (b *h264Builder) dpb() []h264.DPBEntry {
	entries := make([]h264.DPBEntry, len(b.refs))
	for i, r := range b.refs {
		entries[i] = h264.DPBEntry{
			Ref:         vadecode.Ref(r.id),
			FrameIdx:    r.frameNum,
			TopField:    true,
			BottomField: true,
			TopPOC:      r.poc,
			BottomPOC:   r.poc,
		}
	}
	return entries
}

// buildLists fills the initial reference lists of a slice: P slices by
// descending frame number, B slices by distance in picture order.
func (b *h264Builder) buildLists(h *h264.SliceHeader, frameNum, maxFrameNum int, poc int32) {
	idx := make([]int, len(b.refs))
	for i := range idx {
		idx[i] = i
	}
	switch h.SliceType {
	case h264.SliceP, h264.SliceSP:
		wrap := func(i int) int {
			if fn := b.refs[i].frameNum; fn > frameNum {
				return fn - maxFrameNum
			}
			return b.refs[i].frameNum
		}
		sort.SliceStable(idx, func(x, y int) bool { return wrap(idx[x]) > wrap(idx[y]) })
		h.RefPicList0 = listEntries(idx, h.NumRefIdxL0ActiveMinus1+1)
	case h264.SliceB:
		var before, after []int
		for _, i := range idx {
			if b.refs[i].poc < poc {
				before = append(before, i)
			} else {
				after = append(after, i)
			}
		}
		sort.SliceStable(before, func(x, y int) bool { return b.refs[before[x]].poc > b.refs[before[y]].poc })
		sort.SliceStable(after, func(x, y int) bool { return b.refs[after[x]].poc < b.refs[after[y]].poc })
		l0 := append(append([]int{}, before...), after...)
		l1 := append(append([]int{}, after...), before...)
		if len(l1) > 1 && equalInts(l0, l1) {
			l1[0], l1[1] = l1[1], l1[0]
		}
		h.RefPicList0 = listEntries(l0, h.NumRefIdxL0ActiveMinus1+1)
		h.RefPicList1 = listEntries(l1, h.NumRefIdxL1ActiveMinus1+1)
	}
}

func listEntries(idx []int, active int) []h264.ListEntry {
	n := min(len(idx), active)
	out := make([]h264.ListEntry, n)
	for i := 0; i < n; i++ {
		out[i] = h264.ListEntry{DPBIndex: idx[i]}
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
