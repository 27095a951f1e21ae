package mpeg2

import (
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// Driver decodes MPEG-2 pictures. It implements vadecode.Driver[*Unit].
type Driver struct {
	base *vadecode.Base
	seq  *Sequence
	// matrices are the quantiser matrices in effect, updated by quant matrix
	// extensions until the next sequence header.
	matrices QuantMatrices
}

// New creates an MPEG-2 driver on an accelerator.
func New(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *Driver {
	return &Driver{base: vadecode.NewBase(ports.CodecMPEG2, accel, sink, logger, opts)}
}

// NewStream creates a stream decoding MPEG-2 pictures.
func NewStream(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *vadecode.Stream[*Unit] {
	return vadecode.NewStream[*Unit](New(accel, sink, logger, opts))
}

// Base implements vadecode.Driver.
func (d *Driver) Base() *vadecode.Base { return d.base }

// NewSequence selects a profile and records the sequence configuration.
func (d *Driver) NewSequence(u *Unit) error {
	profile, err := selectProfile(d.base.Session(), u.Sequence)
	if err != nil {
		return err
	}
	out, err := outputInfo(u.Sequence, profile)
	if err != nil {
		return err
	}
	d.seq = u.Sequence
	d.matrices = u.Sequence.Matrices
	d.base.Configure(out)
	return nil
}

// NewPicture allocates a surface, or shares the first field's surface for
// the second field of a pair.
func (d *Driver) NewPicture(u *Unit) (*vadecode.Picture, error) {
	if d.seq == nil {
		return nil, vadecode.ErrNoSequence
	}
	if u.Picture.SecondField {
		if u.Picture.Structure == FramePicture {
			return nil, fmt.Errorf("mpeg2: frame picture %d marked as second field", u.ID)
		}
		return d.base.DuplicatePicture(u.Picture.FirstField, u.ID)
	}
	return d.base.AllocatePicture(u.ID)
}

// StartPicture resolves the forward and backward references and queues the
// picture and matrix buffers.
func (d *Driver) StartPicture(pic *vadecode.Picture, u *Unit) error {
	p := &u.Picture
	window := vadecode.NewRefWindow[slotMeta](numRefs, pic, d.base.Policy())
	switch p.CodingType {
	case PictureB:
		if err := window.Resolve(refBackward, d.base.Store(), u.Backward, slotMeta{}); err != nil {
			return err
		}
		fallthrough
	case PictureP:
		if err := window.Resolve(refForward, d.base.Store(), u.Forward, slotMeta{}); err != nil {
			return err
		}
	case PictureI:
	default:
		return fmt.Errorf("mpeg2: picture coding type %d", p.CodingType)
	}

	d.matrices = mergeMatrices(d.matrices, p.Matrices)

	pp, err := vabuf.Marshal(buildPictureParams(d.seq, p, window))
	if err != nil {
		return err
	}
	if err := pic.AddParamBuffer(ports.BufferPictureParameter, pp); err != nil {
		return err
	}
	iq, err := vabuf.Marshal(buildIQMatrix(d.matrices))
	if err != nil {
		return err
	}
	return pic.AddParamBuffer(ports.BufferIQMatrix, iq)
}

// DecodeSlice queues one slice.
func (d *Driver) DecodeSlice(pic *vadecode.Picture, u *Unit, index int) error {
	params, err := vabuf.Marshal(buildSliceParams(&u.Slices[index]))
	if err != nil {
		return err
	}
	return pic.AddSliceBuffer(params, u.Slices[index].Data)
}

// EndPicture submits the picture.
func (d *Driver) EndPicture(pic *vadecode.Picture, _ *Unit) error {
	return d.base.Submit(pic)
}
