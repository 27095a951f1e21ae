package vp8

import (
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// Driver decodes VP8 frames. It implements vadecode.Driver[*Unit].
type Driver struct {
	base       *vadecode.Base
	configured bool
}

// New creates a VP8 driver on an accelerator.
func New(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *Driver {
	return &Driver{base: vadecode.NewBase(ports.CodecVP8, accel, sink, logger, opts)}
}

// NewStream creates a stream decoding VP8 frames.
func NewStream(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *vadecode.Stream[*Unit] {
	return vadecode.NewStream[*Unit](New(accel, sink, logger, opts))
}

// Base implements vadecode.Driver.
func (d *Driver) Base() *vadecode.Base { return d.base }

// NewSequence records the frame size of a key frame.
func (d *Driver) NewSequence(u *Unit) error {
	profile, err := selectProfile(d.base.Session(), &u.Header)
	if err != nil {
		return err
	}
	out, err := outputInfo(&u.Header, profile)
	if err != nil {
		return err
	}
	d.base.Configure(out)
	d.configured = true
	return nil
}

// NewPicture allocates a surface for the frame.
func (d *Driver) NewPicture(u *Unit) (*vadecode.Picture, error) {
	if !d.configured {
		return nil, vadecode.ErrNoSequence
	}
	return d.base.AllocatePicture(u.ID)
}

// StartPicture resolves the references of inter frames and queues the
// picture, probability and quantizer buffers.
func (d *Driver) StartPicture(pic *vadecode.Picture, u *Unit) error {
	h := &u.Header
	window := vadecode.NewRefWindow[slotMeta](NumRefs, pic, d.base.Policy())
	if !h.KeyFrame {
		for i, ref := range u.Refs {
			if err := window.Resolve(i, d.base.Store(), ref, slotMeta{}); err != nil {
				return err
			}
		}
	}

	buffers := []struct {
		kind ports.BufferType
		v    any
	}{
		{ports.BufferPictureParameter, buildPictureParams(h, window)},
		{ports.BufferProbability, &probabilityData{DCTCoeffProbs: h.CoeffProbs}},
		{ports.BufferIQMatrix, buildIQMatrix(h)},
	}
	for _, b := range buffers {
		data, err := vabuf.Marshal(b.v)
		if err != nil {
			return err
		}
		if err := pic.AddParamBuffer(b.kind, data); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSlice queues every partition behind the uncompressed chunk.
func (d *Driver) DecodeSlice(pic *vadecode.Picture, u *Unit, _ int) error {
	offset := u.chunkSize()
	if len(u.Data) < offset+u.Header.FirstPartSize {
		return fmt.Errorf("vp8: %d byte frame shorter than its first partition", len(u.Data))
	}
	data := u.Data[offset:]
	sp, err := buildSliceParams(&u.Header, len(data))
	if err != nil {
		return err
	}
	params, err := vabuf.Marshal(sp)
	if err != nil {
		return err
	}
	return pic.AddSliceBuffer(params, data)
}

// EndPicture submits the frame.
func (d *Driver) EndPicture(pic *vadecode.Picture, _ *Unit) error {
	return d.base.Submit(pic)
}
