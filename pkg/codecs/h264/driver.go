package h264

import (
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// Driver decodes H.264 units. It implements vadecode.Driver[*Unit].
type Driver struct {
	base *vadecode.Base
	sps  *SPS

	// window holds the references of the picture being decoded.
	window *vadecode.RefWindow[DPBEntry]
}

// New creates an H.264 driver on an accelerator.
func New(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *Driver {
	return &Driver{base: vadecode.NewBase(ports.CodecH264, accel, sink, logger, opts)}
}

// NewStream creates a stream decoding H.264 units.
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

// NewPicture allocates a surface, or shares the first field's surface for the
// second field of a pair.
func (d *Driver) NewPicture(u *Unit) (*vadecode.Picture, error) {
	if d.sps == nil {
		return nil, vadecode.ErrNoSequence
	}
	if u.Picture.SecondField {
		return d.base.DuplicatePicture(u.Picture.FirstField, u.ID)
	}
	return d.base.AllocatePicture(u.ID)
}

// StartPicture resolves the DPB and queues the picture and matrix buffers.
func (d *Driver) StartPicture(pic *vadecode.Picture, u *Unit) error {
	if len(u.DPB) > maxReferenceFrames {
		return fmt.Errorf("h264: %d DPB entries, at most %d", len(u.DPB), maxReferenceFrames)
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
	d.window = window

	pp, err := vabuf.Marshal(buildPictureParams(d.sps, &u.Picture, pic, window))
	if err != nil {
		return err
	}
	if err := pic.AddParamBuffer(ports.BufferPictureParameter, pp); err != nil {
		return err
	}
	iq, err := vabuf.Marshal(buildIQMatrix(&u.Picture))
	if err != nil {
		return err
	}
	return pic.AddParamBuffer(ports.BufferIQMatrix, iq)
}

// DecodeSlice queues one slice with its reference lists.
func (d *Driver) DecodeSlice(pic *vadecode.Picture, u *Unit, index int) error {
	s := &u.Slices[index]
	params, err := vabuf.Marshal(buildSliceParams(s, u.Picture.Field, d.window))
	if err != nil {
		return err
	}
	return pic.AddSliceBuffer(params, s.Data)
}

// EndPicture submits the picture.
func (d *Driver) EndPicture(pic *vadecode.Picture, _ *Unit) error {
	d.window = nil
	return d.base.Submit(pic)
}
