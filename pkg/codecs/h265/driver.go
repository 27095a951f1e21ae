package h265

import (
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// Driver decodes HEVC units. It implements vadecode.Driver[*Unit].
//
// The slice parameter buffer carries LastSliceOfPic, which is only known once
// the next slice or the end of the picture arrives, so each slice is held back
// until then.
type Driver struct {
	base *vadecode.Base
	sps  *SPS

	pending *pendingSlice
}

type pendingSlice struct {
	slice  *Slice
	params *sliceParams
}

// New creates an HEVC driver on an accelerator.
func New(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *Driver {
	return &Driver{base: vadecode.NewBase(ports.CodecH265, accel, sink, logger, opts)}
}

// NewStream creates a stream decoding HEVC units.
func NewStream(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *vadecode.Stream[*Unit] {
	return vadecode.NewStream[*Unit](New(accel, sink, logger, opts))
}

// Base implements vadecode.Driver.
func (d *Driver) Base() *vadecode.Base { return d.base }

// NewSequence selects a profile for the SPS and records its configuration.
func (d *Driver) NewSequence(u *Unit) error {
	profile, err := selectProfile(d.base.Session(), u.SPS)
	if err != nil {
		return err
	}
	out, err := outputInfo(u.SPS, profile)
	if err != nil {
		return err
	}
	d.sps = u.SPS
	d.base.Configure(out)
	return nil
}

// NewPicture allocates a surface for the picture.
func (d *Driver) NewPicture(u *Unit) (*vadecode.Picture, error) {
	if d.sps == nil {
		return nil, vadecode.ErrNoSequence
	}
	d.pending = nil
	return d.base.AllocatePicture(u.ID)
}

// StartPicture resolves the DPB and queues the picture and scaling buffers.
func (d *Driver) StartPicture(pic *vadecode.Picture, u *Unit) error {
	if len(u.DPB) > maxReferenceFrames {
		return fmt.Errorf("h265: %d DPB entries, at most %d", len(u.DPB), maxReferenceFrames)
	}
	window := vadecode.NewRefWindow[DPBEntry](maxReferenceFrames, pic, d.base.Policy())
	for i, e := range u.DPB {
		if err := window.Resolve(i, d.base.Store(), e.Ref, e); err != nil {
			return err
		}
	}
	if n := window.Missing(); n > 0 {
		d.base.Logger().Debug("Frame %d has %d missing references", u.ID, n)
	}

	pp, err := buildPictureParams(d.sps, &u.Picture, pic, window)
	if err != nil {
		return err
	}
	data, err := vabuf.Marshal(pp)
	if err != nil {
		return err
	}
	if err := pic.AddParamBuffer(ports.BufferPictureParameter, data); err != nil {
		return err
	}

	if !d.sps.ScalingListEnabled {
		return nil
	}
	lists := u.Picture.Scaling
	if lists == nil {
		lists = DefaultScalingLists()
	}
	iq, err := vabuf.Marshal(buildIQMatrix(lists))
	if err != nil {
		return err
	}
	return pic.AddParamBuffer(ports.BufferIQMatrix, iq)
}

// DecodeSlice flushes the previous slice, which is now known not to be the
// last, and holds this one back.
func (d *Driver) DecodeSlice(pic *vadecode.Picture, u *Unit, index int) error {
	s := &u.Slices[index]
	params, err := buildSliceParams(s, len(u.DPB), false)
	if err != nil {
		return err
	}
	if err := d.flushPending(pic, false); err != nil {
		return err
	}
	d.pending = &pendingSlice{slice: s, params: params}
	return nil
}

// EndPicture flushes the last slice and submits the picture.
func (d *Driver) EndPicture(pic *vadecode.Picture, _ *Unit) error {
	if err := d.flushPending(pic, true); err != nil {
		return err
	}
	return d.base.Submit(pic)
}

func (d *Driver) flushPending(pic *vadecode.Picture, last bool) error {
	p := d.pending
	if p == nil {
		return nil
	}
	d.pending = nil
	if last {
		p.params.LongSliceFlags |= 1
	}
	data, err := vabuf.Marshal(p.params)
	if err != nil {
		return err
	}
	return pic.AddSliceBuffer(data, p.slice.Data)
}
