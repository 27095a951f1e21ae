package vadecode

import (
	"errors"
	"testing"

	"github.com/user/vadecode/pkg/ports"
)

type testMeta struct {
	poc int
}

func TestRefWindow_ResolveMissingReference(t *testing.T) {
	tests := []struct {
		name        string
		policy      MissingRefPolicy
		wantErr     bool
		wantCurrent bool
	}{
		{"invalid", MissingRefInvalid, false, false},
		{"substitute current", MissingRefCurrent, false, true},
		{"fail", MissingRefFail, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, accel := openSession(t)
			pool := newTestPool(t, accel, 4)
			store := NewPictureStore()
			defer store.Clear()

			for id := uint64(0); id < 3; id++ {
				store.Insert(Frame{ID: id}, newTestPicture(t, s, pool, id), int(id))
			}
			current := newTestPicture(t, s, pool, 10)
			defer current.Free()

			w := NewRefWindow[testMeta](8, current, tt.policy)
			for i := 0; i < 3; i++ {
				if err := w.Resolve(i, store, Ref(uint64(i)), testMeta{poc: i}); err != nil {
					t.Fatalf("Resolve slot %d failed: %v", i, err)
				}
			}
			err := w.Resolve(3, store, Ref(42), testMeta{poc: 3})

			if tt.wantErr {
				if !errors.Is(err, ErrMissingReference) {
					t.Fatalf("expected ErrMissingReference, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			slot := w.Slot(3)
			if slot.Present {
				t.Error("a missing reference is never present")
			}
			if tt.wantCurrent {
				if slot.Surface != current.SurfaceID() || !slot.Substituted {
					t.Errorf("expected current surface %d substituted, got %+v", current.SurfaceID(), slot)
				}
			} else if slot.Surface != ports.InvalidSurface {
				t.Errorf("expected the invalid surface, got %d", slot.Surface)
			}
			if w.Missing() != 1 {
				t.Errorf("expected 1 missing reference, got %d", w.Missing())
			}
			if slot.Meta.poc != 3 {
				t.Errorf("expected metadata to be kept, got %+v", slot.Meta)
			}
		})
	}
}

func TestRefWindow_EmptySlots(t *testing.T) {
	w := NewRefWindow[testMeta](4, nil, MissingRefFail)

	if err := w.Resolve(0, NewPictureStore(), FrameRef{}, testMeta{}); err != nil {
		t.Fatalf("an unused slot should not fail: %v", err)
	}
	for _, id := range w.Surfaces() {
		if id != ports.InvalidSurface {
			t.Errorf("expected only invalid surfaces, got %d", id)
		}
	}
	if w.Cap() != 4 {
		t.Errorf("expected capacity 4, got %d", w.Cap())
	}
}

func TestRefWindow_SetUsesReconstructedSurface(t *testing.T) {
	s, accel := openSession(t)
	pool := newTestPool(t, accel, 2)
	pic := newTestPicture(t, s, pool, 1)
	aux, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	pic.SetAuxSurface(aux)
	defer pic.Free()

	w := NewRefWindow[testMeta](1, nil, MissingRefInvalid)
	w.Set(0, pic, testMeta{})

	if w.Slot(0).Surface != aux.ID() {
		t.Errorf("expected the aux surface %d, got %d", aux.ID(), w.Slot(0).Surface)
	}
}

func TestMissingRefPolicy_Parse(t *testing.T) {
	for _, p := range []MissingRefPolicy{MissingRefInvalid, MissingRefCurrent, MissingRefFail} {
		got, err := ParseMissingRefPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseMissingRefPolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseMissingRefPolicy("guess"); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}

func TestPolicyForImplementation(t *testing.T) {
	tests := []struct {
		impl ports.Implementation
		want MissingRefPolicy
	}{
		{ports.ImplementationIntelIHD, MissingRefCurrent},
		{ports.ImplementationMesaGallium, MissingRefFail},
		{ports.ImplementationIntelI965, MissingRefInvalid},
		{ports.ImplementationOther, MissingRefInvalid},
	}
	for _, tt := range tests {
		if got := PolicyForImplementation(tt.impl); got != tt.want {
			t.Errorf("PolicyForImplementation(%s) = %s, want %s", tt.impl, got, tt.want)
		}
	}
}

func TestPictureStore_InsertReplacesAndReleases(t *testing.T) {
	s, accel := openSession(t)
	pool := newTestPool(t, accel, 3)
	store := NewPictureStore()

	first := newTestPicture(t, s, pool, 1)
	store.Insert(Frame{ID: 1, Output: []uint64{1}}, first, 0)
	second := newTestPicture(t, s, pool, 1)
	store.Insert(Frame{ID: 1}, second, 1)

	if store.Len() != 1 {
		t.Fatalf("expected 1 stored picture, got %d", store.Len())
	}
	if pool.Available() != 2 {
		t.Errorf("the replaced picture should be freed, %d available", pool.Available())
	}
	got, ok := store.Lookup(1)
	if !ok || got != second {
		t.Error("expected the second picture under id 1")
	}
	if e, _ := store.entry(1); len(e.frame.Output) != 0 {
		t.Error("stored frames should not keep upstream lists")
	}

	store.Release(1, 99)
	if store.Len() != 0 || pool.Available() != 3 {
		t.Errorf("expected an empty store and full pool, got %d stored, %d available", store.Len(), pool.Available())
	}
}
