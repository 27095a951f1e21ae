package av1

import (
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// Driver decodes AV1 frames. It implements vadecode.Driver[*Unit].
type Driver struct {
	base *vadecode.Base
	seq  *SequenceHeader
	out  vadecode.OutputInfo
}

// New creates an AV1 driver on an accelerator.
func New(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *Driver {
	return &Driver{base: vadecode.NewBase(ports.CodecAV1, accel, sink, logger, opts)}
}

// NewStream creates a stream decoding AV1 frames.
func NewStream(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *vadecode.Stream[*Unit] {
	return vadecode.NewStream[*Unit](New(accel, sink, logger, opts))
}

// Base implements vadecode.Driver.
func (d *Driver) Base() *vadecode.Base { return d.base }

// NewSequence records the configuration of a sequence header.
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
	d.out = out
	return nil
}

func (d *Driver) applyGrain(h *FrameHeader) bool {
	return d.seq.FilmGrainParamsPresent && h.FilmGrain.ApplyGrain
}

// NewPicture shares the shown slot's picture for show-existing frames.
// Otherwise it updates the display size to the frame and allocates a surface,
// plus an auxiliary one when film grain is applied.
func (d *Driver) NewPicture(u *Unit) (*vadecode.Picture, error) {
	if d.seq == nil {
		return nil, vadecode.ErrNoSequence
	}
	h := &u.Header
	if h.ShowExistingFrame {
		if h.FrameToShow < 0 || h.FrameToShow >= NumRefFrames {
			return nil, fmt.Errorf("av1: frame_to_show_map_idx %d", h.FrameToShow)
		}
		return d.base.DuplicatePicture(u.RefSlots[h.FrameToShow], u.ID)
	}

	if h.FrameWidth > d.out.Width || h.FrameHeight > d.out.Height {
		return nil, fmt.Errorf("av1: frame %dx%d exceeds the sequence maximum %dx%d",
			h.FrameWidth, h.FrameHeight, d.out.Width, d.out.Height)
	}
	out := d.out
	out.DisplayWidth = h.UpscaledWidth
	if out.DisplayWidth == 0 {
		out.DisplayWidth = h.FrameWidth
	}
	out.DisplayHeight = h.FrameHeight
	d.base.Configure(out)

	pic, err := d.base.AllocatePicture(u.ID)
	if err != nil {
		return nil, err
	}
	if d.applyGrain(h) {
		aux, err := d.base.AllocateAuxSurface()
		if err != nil {
			pic.Free()
			return nil, err
		}
		pic.SetAuxSurface(aux)
	}
	return pic, nil
}

// StartPicture fills the reference frame map and queues the picture buffer.
func (d *Driver) StartPicture(pic *vadecode.Picture, u *Unit) error {
	if pic.IsDuplicate() {
		return nil
	}
	h := &u.Header
	window := vadecode.NewRefWindow[slotMeta](NumRefFrames, pic, d.base.Policy())
	intra := h.FrameType == KeyFrame || h.FrameType == IntraOnlyFrame

	var active [NumRefFrames]bool
	if !intra {
		for _, idx := range h.RefFrameIdx {
			if idx < 0 || idx >= NumRefFrames {
				return fmt.Errorf("av1: ref_frame_idx %d", idx)
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
		if ref.Valid {
			if p, ok := d.base.Store().Lookup(ref.ID); ok {
				window.Set(i, p, slotMeta{})
			}
		}
	}

	pp, err := buildPictureParams(d.seq, h, pic, window)
	if err != nil {
		return err
	}
	data, err := vabuf.Marshal(pp)
	if err != nil {
		return err
	}
	return pic.AddParamBuffer(ports.BufferPictureParameter, data)
}

// DecodeSlice queues one tile group: a parameter entry per tile sharing the
// group's data buffer.
func (d *Driver) DecodeSlice(pic *vadecode.Picture, u *Unit, index int) error {
	tg := &u.TileGroups[index]
	params, err := buildTileParams(tg)
	if err != nil {
		return err
	}
	data, err := vabuf.Marshal(params)
	if err != nil {
		return err
	}
	return pic.AddSliceBufferN(data, len(params), tg.Data)
}

// EndPicture submits decoded frames, into the auxiliary surface when film
// grain is applied.
func (d *Driver) EndPicture(pic *vadecode.Picture, u *Unit) error {
	if pic.IsDuplicate() {
		return nil
	}
	return d.base.SubmitWithAux(pic, d.applyGrain(&u.Header))
}
