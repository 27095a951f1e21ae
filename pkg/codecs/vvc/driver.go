package vvc

import (
	"errors"
	"fmt"

	"github.com/user/vadecode/pkg/codecs/internal/vabuf"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

var errNoSlices = errors.New("vvc: picture has no slices")

// Driver decodes H.266/VVC pictures. It implements vadecode.Driver[*Unit].
type Driver struct {
	base *vadecode.Base
	sps  *SPS
	out  vadecode.OutputInfo

	// slices and data collect the slices of the current picture.
	slices []sliceParams
	data   []byte
}

// New creates a VVC driver on an accelerator.
func New(accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts vadecode.Options) *Driver {
	return &Driver{base: vadecode.NewBase(ports.CodecVVC, accel, sink, logger, opts)}
}

// NewStream creates a stream decoding VVC pictures.
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
	d.out = out
	return nil
}

// NewPicture applies the PPS size to the output and allocates a surface.
func (d *Driver) NewPicture(u *Unit) (*vadecode.Picture, error) {
	if d.sps == nil {
		return nil, vadecode.ErrNoSequence
	}
	if u.PPS == nil {
		return nil, fmt.Errorf("vvc: picture %d has no PPS", u.ID)
	}
	out, err := pictureOutput(d.out, d.sps, u.PPS)
	if err != nil {
		return nil, err
	}
	d.base.Configure(out)

	d.slices = d.slices[:0]
	d.data = nil
	return d.base.AllocatePicture(u.ID)
}

// StartPicture resolves the DPB and queues the picture parameters with the
// subpicture, tile, slice layout and adaptation parameter set buffers.
func (d *Driver) StartPicture(pic *vadecode.Picture, u *Unit) error {
	if len(u.DPB) > maxReferences {
		return fmt.Errorf("vvc: %d DPB entries, at most %d", len(u.DPB), maxReferences)
	}
	if err := checkAPS(u); err != nil {
		return err
	}
	window := vadecode.NewRefWindow[slotMeta](maxReferences, pic, d.base.Policy())
	for i, e := range u.DPB {
		if err := window.Resolve(i, d.base.Store(), e.Ref, e); err != nil {
			return err
		}
	}

	pp, err := buildPictureParams(d.sps, u.PPS, &u.Picture, pic, window)
	if err != nil {
		return err
	}
	if err := addParams(pic, ports.BufferPictureParameter, pp, 1); err != nil {
		return err
	}

	if d.sps.SubpicInfoPresent && len(d.sps.Subpics) > 0 {
		if err := addParams(pic, ports.BufferSubPic, buildSubpics(d.sps.Subpics), len(d.sps.Subpics)); err != nil {
			return err
		}
	}
	tiles := buildTiles(u.PPS)
	if err := addParams(pic, ports.BufferTile, tiles, len(tiles)); err != nil {
		return err
	}
	if u.PPS.RectSlice && !u.PPS.SingleSlicePerSubpic && len(u.PPS.Slices) > 0 {
		if err := addParams(pic, ports.BufferSliceStruct, buildSliceStructs(u.PPS.Slices), len(u.PPS.Slices)); err != nil {
			return err
		}
	}

	if len(u.ALF) > 0 {
		alf := make([]alfParams, len(u.ALF))
		for i := range u.ALF {
			alf[i] = buildALF(&u.ALF[i])
		}
		if err := addParams(pic, ports.BufferAlf, alf, len(alf)); err != nil {
			return err
		}
	}
	if u.LMCS != nil {
		if err := addParams(pic, ports.BufferLmcs, buildLMCS(u.LMCS), 1); err != nil {
			return err
		}
	}
	if u.ScalingList != nil {
		if err := addParams(pic, ports.BufferIQMatrix, buildScalingList(u.ScalingList), 1); err != nil {
			return err
		}
	}
	return nil
}

func addParams(pic *vadecode.Picture, kind ports.BufferType, v any, count int) error {
	data, err := vabuf.Marshal(v)
	if err != nil {
		return err
	}
	return pic.AddParamBufferN(kind, data, count)
}

// DecodeSlice appends one slice to the picture's slice buffers.
func (d *Driver) DecodeSlice(_ *vadecode.Picture, u *Unit, index int) error {
	s := &u.Slices[index]
	sp, err := buildSliceParams(&s.Header, len(u.DPB), len(d.data), len(s.Data))
	if err != nil {
		return err
	}
	d.slices = append(d.slices, sp)
	d.data = append(d.data, s.Data...)
	return nil
}

// EndPicture queues the collected slices and submits the picture.
func (d *Driver) EndPicture(pic *vadecode.Picture, _ *Unit) error {
	if len(d.slices) == 0 {
		return errNoSlices
	}
	params, err := vabuf.Marshal(d.slices)
	if err != nil {
		return err
	}
	if err := pic.AddSliceBufferN(params, len(d.slices), d.data); err != nil {
		return err
	}
	d.slices = d.slices[:0]
	d.data = nil
	return d.base.Submit(pic)
}
