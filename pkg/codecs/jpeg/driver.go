package jpeg

import (
	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// Driver decodes baseline JPEG images. It implements vadecode.Driver[*Unit].
type Driver struct {
	base       *vadecode.Base
	configured bool
}

// New creates a JPEG driver on an accelerator.
func New(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *Driver {
	return &Driver{base: vadecode.NewBase(ports.CodecJPEG, accel, sink, logger, opts)}
}

// NewStream creates a stream decoding JPEG images.
func NewStream(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *vadecode.Stream[*Unit] {
	return vadecode.NewStream[*Unit](New(accel, sink, logger, opts))
}

// Base implements vadecode.Driver.
func (d *Driver) Base() *vadecode.Base { return d.base }

// NewSequence records the configuration of the image's frame header. Images
// of the same size and sampling reuse the open session.
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

// NewPicture allocates a surface for the image.
func (d *Driver) NewPicture(u *Unit) (*vadecode.Picture, error) {
	if !d.configured {
		return nil, vadecode.ErrNoSequence
	}
	return d.base.AllocatePicture(u.ID)
}

// StartPicture queues the picture, quantisation and Huffman table buffers.
func (d *Driver) StartPicture(pic *vadecode.Picture, u *Unit) error {
	pp, err := buildPictureParams(&u.Header)
	if err != nil {
		return err
	}
	buffers := []struct {
		kind ports.BufferType
		v    any
	}{
		{ports.BufferPictureParameter, pp},
		{ports.BufferIQMatrix, buildIQMatrix(u.QuantTables)},
		{ports.BufferHuffmanTable, buildHuffmanTables(u.HuffmanTables)},
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

// DecodeSlice queues one scan.
func (d *Driver) DecodeSlice(pic *vadecode.Picture, u *Unit, index int) error {
	scan := &u.Scans[index]
	sp, err := buildSliceParams(&u.Header, scan)
	if err != nil {
		return err
	}
	params, err := vabuf.Marshal(sp)
	if err != nil {
		return err
	}
	return pic.AddSliceBuffer(params, scan.Data)
}

// EndPicture submits the image.
func (d *Driver) EndPicture(pic *vadecode.Picture, _ *Unit) error {
	return d.base.Submit(pic)
}
