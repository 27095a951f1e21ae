package vp9

import (
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// Driver decodes VP9 frames. It implements vadecode.Driver[*Unit].
type Driver struct {
	base       *vadecode.Base
	configured bool
}

// New creates a VP9 driver on an accelerator.
func New(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *Driver {
	return &Driver{base: vadecode.NewBase(ports.CodecVP9, accel, sink, logger, opts)}
}

// NewStream creates a stream decoding VP9 frames.
func NewStream(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *vadecode.Stream[*Unit] {
	return vadecode.NewStream[*Unit](New(accel, sink, logger, opts))
}

// Base implements vadecode.Driver.
func (d *Driver) Base() *vadecode.Base { return d.base }

// NewSequence records the configuration of a key frame or intra-only frame.
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

// NewPicture shares the shown slot's surface for show-existing frames. Inter
// frames of a new size resize the context in place.
func (d *Driver) NewPicture(u *Unit) (*vadecode.Picture, error) {
	if !d.configured {
		return nil, vadecode.ErrNoSequence
	}
	h := &u.Header
	if h.ShowExistingFrame {
		if h.FrameToShow < 0 || h.FrameToShow >= NumRefSlots {
			return nil, fmt.Errorf("vp9: frame_to_show_map_idx %d", h.FrameToShow)
		}
		return d.base.DuplicatePicture(u.RefSlots[h.FrameToShow], u.ID)
	}

	target := d.base.Target()
	if !u.HasSequence() && (h.Width != target.Width || h.Height != target.Height) {
		if err := d.base.ResizeInPlace(h.Width, h.Height); err != nil {
			return nil, err
		}
	}
	return d.base.AllocatePicture(u.ID)
}

// StartPicture fills the reference frame map and queues the picture buffer.
func (d *Driver) StartPicture(pic *vadecode.Picture, u *Unit) error {
	if pic.IsDuplicate() {
		return nil
	}
	h := &u.Header
	window := vadecode.NewRefWindow[slotMeta](NumRefSlots, pic, d.base.Policy())
	intra := h.FrameType == KeyFrame || h.IntraOnly

	var active [NumRefSlots]bool
	if !intra {
		for _, idx := range h.RefFrameIdx {
			if idx < 0 || idx >= NumRefSlots {
				return fmt.Errorf("vp9: reference index %d", idx)
			}
			active[idx] = true
		}
	}
	for i, ref := range u.RefSlots {
		if active[i] {
			if err := window.Resolve(i, d.base.Store(), ref, slotMeta{}); err != nil {
				return err
			}
			continue
		}
		// slots the frame does not predict from are passed through when present
		if ref.Valid {
			if p, ok := d.base.Store().Lookup(ref.ID); ok {
				window.Set(i, p, slotMeta{})
			}
		}
	}

	data, err := vabuf.Marshal(buildPictureParams(h, window))
	if err != nil {
		return err
	}
	return pic.AddParamBuffer(ports.BufferPictureParameter, data)
}

// DecodeSlice queues the whole frame as one slice.
func (d *Driver) DecodeSlice(pic *vadecode.Picture, u *Unit, _ int) error {
	params, err := vabuf.Marshal(buildSliceParams(u))
	if err != nil {
		return err
	}
	return pic.AddSliceBuffer(params, u.Data)
}

// EndPicture submits decoded frames. Show-existing frames have nothing to submit.
func (d *Driver) EndPicture(pic *vadecode.Picture, _ *Unit) error {
	if pic.IsDuplicate() {
		return nil
	}
	return d.base.Submit(pic)
}
