package vadecode

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
)

// Picture pairs one output surface with the buffers accumulated for it before
// submission. Buffer lists only grow until Session.Submit, which empties them.
type Picture struct {
	session   *Session
	surface   *Surface
	aux       *Surface
	frameID   uint64
	duplicate bool

	params  []ports.BufferID
	slices  []ports.BufferID
	created int
	freed   bool
}

// NewPicture binds a surface to a new picture. The picture adopts the caller's
// reference to surface.
func NewPicture(session *Session, surface *Surface, frameID uint64) *Picture {
	return &Picture{
		session: session,
		surface: surface,
		frameID: frameID,
	}
}

// Duplicate returns a picture that shares this picture's surface (taking a new
// reference) with empty buffer lists.
func (p *Picture) Duplicate(frameID uint64) *Picture {
	dup := &Picture{
		session:   p.session,
		surface:   p.surface.Ref(),
		frameID:   frameID,
		duplicate: true,
	}
	if p.aux != nil {
		dup.aux = p.aux.Ref()
	}
	return dup
}

// FrameID returns the frame the picture was created for.
func (p *Picture) FrameID() uint64 { return p.frameID }

// IsDuplicate reports whether the picture shares another picture's surface.
func (p *Picture) IsDuplicate() bool { return p.duplicate }

// Surface returns the output surface.
func (p *Picture) Surface() *Surface { return p.surface }

// SurfaceID returns the output surface id.
func (p *Picture) SurfaceID() ports.SurfaceID {
	if p == nil || p.surface == nil {
		return ports.InvalidSurface
	}
	return p.surface.id
}

// SetAuxSurface attaches an auxiliary surface, adopting the caller's reference.
// AV1 decodes the grain-free picture there while the output surface receives
// the film-grain result.
func (p *Picture) SetAuxSurface(s *Surface) {
	if p.aux != nil {
		p.aux.Unref()
	}
	p.aux = s
}

// AuxSurfaceID returns the auxiliary surface id, or InvalidSurface.
func (p *Picture) AuxSurfaceID() ports.SurfaceID {
	if p == nil || p.aux == nil {
		return ports.InvalidSurface
	}
	return p.aux.id
}

// ReconstructedSurfaceID returns the surface later pictures reference: the
// auxiliary surface when present, the output surface otherwise.
func (p *Picture) ReconstructedSurfaceID() ports.SurfaceID {
	if p != nil && p.aux != nil {
		return p.aux.id
	}
	return p.SurfaceID()
}

// PendingBuffers returns the number of parameter and slice buffers not yet submitted.
func (p *Picture) PendingBuffers() (params, slices int) {
	return len(p.params), len(p.slices)
}

// AddParamBuffer appends one parameter buffer.
func (p *Picture) AddParamBuffer(kind ports.BufferType, data []byte) error {
	return p.AddParamBufferN(kind, data, 1)
}

// AddParamBufferN appends one parameter buffer holding count equally sized elements.
func (p *Picture) AddParamBufferN(kind ports.BufferType, data []byte, count int) error {
	id, err := p.session.createBuffer(p.frameID, p.created, kind, data, count)
	if err != nil {
		return err
	}
	p.created++
	p.params = append(p.params, id)
	return nil
}

// AddSliceBuffer appends one slice parameter buffer and its compressed data.
func (p *Picture) AddSliceBuffer(params, data []byte) error {
	return p.AddSliceBufferN(params, 1, data)
}

// AddSliceBufferN appends count slice parameter elements that share one data
// buffer. Slices are decoded in the order they are appended.
func (p *Picture) AddSliceBufferN(params []byte, count int, data []byte) error {
	if count <= 0 || len(params)%count != 0 {
		return fmt.Errorf("vadecode: %d slice parameter bytes do not split into %d elements", len(params), count)
	}
	paramID, err := p.session.createBuffer(p.frameID, p.created, ports.BufferSliceParameter, params, count)
	if err != nil {
		return err
	}
	p.created++

	dataID, err := p.session.createBuffer(p.frameID, p.created, ports.BufferSliceData, data, 1)
	if err != nil {
		p.session.destroyBuffer(paramID)
		return err
	}
	p.created++

	p.slices = append(p.slices, paramID, dataID)
	return nil
}

func (p *Picture) destroyBuffers() {
	for _, id := range p.params {
		p.session.destroyBuffer(id)
	}
	for _, id := range p.slices {
		p.session.destroyBuffer(id)
	}
	p.params = p.params[:0]
	p.slices = p.slices[:0]
}

// Free destroys any unsubmitted buffers and releases the surface references.
// It is safe to call more than once.
func (p *Picture) Free() {
	if p == nil || p.freed {
		return
	}
	p.freed = true

	if len(p.params) > 0 || len(p.slices) > 0 {
		p.session.logger.Warn("Frame %d freed with %d unsubmitted buffers", p.frameID, len(p.params)+len(p.slices))
		p.destroyBuffers()
	}
	if p.aux != nil {
		p.aux.Unref()
		p.aux = nil
	}
	if p.surface != nil {
		p.surface.Unref()
		p.surface = nil
	}
}
