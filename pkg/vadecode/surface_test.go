package vadecode

import (
	"errors"
	"sync"
	"testing"

	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/ports"
)

func TestSurfacePool_AcquireUntilExhausted(t *testing.T) {
	accel := mocks.NewAccelerator()
	pool := newTestPool(t, accel, 2)

	a, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := pool.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := pool.Acquire(); !errors.Is(err, ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}

	a.Unref()
	if pool.Available() != 1 {
		t.Errorf("expected 1 available surface, got %d", pool.Available())
	}
	if _, err := pool.Acquire(); err != nil {
		t.Errorf("Acquire after release failed: %v", err)
	}
}

func TestSurfacePool_CreateFailure(t *testing.T) {
	accel := mocks.NewAccelerator()
	accel.CreateSurfacesFunc = func(ports.RTFormat, int, int, int) error {
		return errors.New("VA_STATUS_ERROR_ALLOCATION_FAILED")
	}

	if _, err := NewSurfacePool(accel, testRT, 64, 64, 4); !errors.Is(err, ErrDriver) {
		t.Errorf("expected a driver error, got %v", err)
	}
	if _, err := NewSurfacePool(accel, testRT, 64, 64, 0); err == nil {
		t.Error("expected an error for an empty pool")
	}
}

func TestSurfacePool_DestroyWaitsForReferences(t *testing.T) {
	accel := mocks.NewAccelerator()
	pool := newTestPool(t, accel, 3)

	held, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	handle := held.Handle()
	held.Unref()

	if err := pool.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if accel.Count("DestroySurfaces") != 0 {
		t.Fatal("surfaces should not be destroyed while a consumer holds one")
	}
	if _, err := pool.Acquire(); err == nil {
		t.Error("a destroyed pool should not hand out surfaces")
	}

	handle.Release()
	handle.Release()
	if accel.Count("DestroySurfaces") != 1 {
		t.Errorf("expected surfaces destroyed after the last release, got %d calls", accel.Count("DestroySurfaces"))
	}
	if len(accel.DestroyedSurfaces) != 3 {
		t.Errorf("expected 3 destroyed surfaces, got %d", len(accel.DestroyedSurfaces))
	}
}

func TestSurface_ConcurrentRelease(t *testing.T) {
	accel := mocks.NewAccelerator()
	pool := newTestPool(t, accel, 1)
	s, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	handles := make([]ports.SurfaceRef, 16)
	for i := range handles {
		handles[i] = s.Handle()
	}
	s.Unref()

	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h ports.SurfaceRef) {
			defer wg.Done()
			h.Release()
		}(h)
	}
	wg.Wait()

	if s.Refs() != 0 {
		t.Errorf("expected no references, got %d", s.Refs())
	}
	if pool.Available() != 1 {
		t.Errorf("expected the surface back in the pool, %d available", pool.Available())
	}
}

func TestSurface_UnrefBelowZeroPanics(t *testing.T) {
	accel := mocks.NewAccelerator()
	pool := newTestPool(t, accel, 1)
	s, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	s.Unref()

	defer func() {
		if recover() == nil {
			t.Error("expected a panic on a second Unref")
		}
	}()
	s.Unref()
}

func TestSurfacePool_Matches(t *testing.T) {
	pool := newTestPool(t, mocks.NewAccelerator(), 1)

	if !pool.Matches(testRT, 1920, 1080) {
		t.Error("expected the pool to match its own format")
	}
	if pool.Matches(ports.RTFormatYUV420_10, 1920, 1080) || pool.Matches(testRT, 1280, 720) {
		t.Error("expected no match for another format or size")
	}
}

func TestSurfacePool_Fits(t *testing.T) {
	pool := newTestPool(t, mocks.NewAccelerator(), 1)

	if !pool.Fits(testRT, 1920, 1080) || !pool.Fits(testRT, 1280, 720) {
		t.Error("expected the pool to fit its own size and smaller frames")
	}
	if pool.Fits(testRT, 3840, 1080) || pool.Fits(ports.RTFormatYUV420_10, 1280, 720) {
		t.Error("expected no fit for a larger frame or another format")
	}
}
