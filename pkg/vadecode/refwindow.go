package vadecode

import (
	"fmt"

	"github.com/user/vadecode/pkg/ports"
)

// MissingRefPolicy decides what goes into a reference slot whose picture is absent.
type MissingRefPolicy int

const (
	// MissingRefInvalid writes the invalid surface id and lets the driver cope.
	MissingRefInvalid MissingRefPolicy = iota
	// MissingRefCurrent substitutes the current picture's own surface.
	MissingRefCurrent
	// MissingRefFail drops the picture with ErrMissingReference.
	MissingRefFail
)

// String returns the policy name used in configuration files.
func (p MissingRefPolicy) String() string {
	switch p {
	case MissingRefCurrent:
		return "current"
	case MissingRefFail:
		return "fail"
	default:
		return "invalid"
	}
}

// ParseMissingRefPolicy parses a name produced by String.
func ParseMissingRefPolicy(s string) (MissingRefPolicy, error) {
	switch s {
	case "invalid":
		return MissingRefInvalid, nil
	case "current":
		return MissingRefCurrent, nil
	case "fail":
		return MissingRefFail, nil
	}
	return MissingRefInvalid, fmt.Errorf("vadecode: unknown missing reference policy %q", s)
}

// PolicyForImplementation returns the policy a vendor driver is known to need.
// iHD hangs on invalid reference ids, Gallium rejects them.
func PolicyForImplementation(impl ports.Implementation) MissingRefPolicy {
	switch impl {
	case ports.ImplementationIntelIHD:
		return MissingRefCurrent
	case ports.ImplementationMesaGallium:
		return MissingRefFail
	default:
		return MissingRefInvalid
	}
}

// FrameRef names a stored picture by frame id.
type FrameRef struct {
	ID    uint64
	Valid bool
}

// Ref returns a valid FrameRef for id.
func Ref(id uint64) FrameRef { return FrameRef{ID: id, Valid: true} }

// RefSlot is one entry of a RefWindow.
type RefSlot[M any] struct {
	Present     bool
	Substituted bool
	Surface     ports.SurfaceID
	Meta        M
}

// RefWindow is the fixed-capacity view of the reference pictures one picture
// uses. Slots are overwritten, never freed: the pictures belong to the store.
type RefWindow[M any] struct {
	slots   []RefSlot[M]
	current *Picture
	policy  MissingRefPolicy
	missing int
}

// NewRefWindow creates a window of capacity empty slots for the current picture.
func NewRefWindow[M any](capacity int, current *Picture, policy MissingRefPolicy) *RefWindow[M] {
	w := &RefWindow[M]{
		slots:   make([]RefSlot[M], capacity),
		current: current,
		policy:  policy,
	}
	for i := range w.slots {
		w.slots[i].Surface = ports.InvalidSurface
	}
	return w
}

// Cap returns the number of slots.
func (w *RefWindow[M]) Cap() int { return len(w.slots) }

// Slot returns slot i.
func (w *RefWindow[M]) Slot(i int) RefSlot[M] { return w.slots[i] }

// Missing returns how many slots were resolved without their picture.
func (w *RefWindow[M]) Missing() int { return w.missing }

// Set stores a present reference picture in slot i.
func (w *RefWindow[M]) Set(i int, pic *Picture, meta M) {
	w.slots[i] = RefSlot[M]{
		Present: true,
		Surface: pic.ReconstructedSurfaceID(),
		Meta:    meta,
	}
}

// Resolve fills slot i from the store, applying the missing-reference policy
// when ref is valid but its picture is not stored.
func (w *RefWindow[M]) Resolve(i int, store *PictureStore, ref FrameRef, meta M) error {
	if !ref.Valid {
		w.slots[i] = RefSlot[M]{Surface: ports.InvalidSurface, Meta: meta}
		return nil
	}
	if pic, ok := store.Lookup(ref.ID); ok {
		w.Set(i, pic, meta)
		return nil
	}

	w.missing++
	switch w.policy {
	case MissingRefCurrent:
		w.slots[i] = RefSlot[M]{
			Substituted: true,
			Surface:     w.current.ReconstructedSurfaceID(),
			Meta:        meta,
		}
		return nil
	case MissingRefFail:
		return fmt.Errorf("slot %d frame %d: %w", i, ref.ID, ErrMissingReference)
	default:
		w.slots[i] = RefSlot[M]{Surface: ports.InvalidSurface, Meta: meta}
		return nil
	}
}

// Surfaces returns the surface id of every slot in order.
func (w *RefWindow[M]) Surfaces() []ports.SurfaceID {
	ids := make([]ports.SurfaceID, len(w.slots))
	for i, s := range w.slots {
		ids[i] = s.Surface
	}
	return ids
}

// Each calls fn for every slot in order.
func (w *RefWindow[M]) Each(fn func(i int, slot RefSlot[M])) {
	for i, s := range w.slots {
		fn(i, s)
	}
}
