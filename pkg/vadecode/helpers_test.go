package vadecode

import (
	"testing"

	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/ports"
)

const (
	testProfile = ports.ProfileHEVCMain
	testRT      = ports.RTFormatYUV420
)

func newTestSession(t *testing.T) (*Session, *mocks.Accelerator) {
	t.Helper()
	accel := mocks.NewAccelerator(ports.ProfileHEVCMain, ports.ProfileHEVCMain10, ports.ProfileH264High)
	return NewSession(accel, mocks.NewLogger()), accel
}

// openSession returns a session with a config and a 1920x1080 context.
func openSession(t *testing.T) (*Session, *mocks.Accelerator) {
	t.Helper()
	s, accel := newTestSession(t)
	if err := s.Open(testProfile, testRT); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SetFrameSize(1920, 1080); err != nil {
		t.Fatalf("SetFrameSize failed: %v", err)
	}
	return s, accel
}

func newTestPool(t *testing.T, accel ports.Accelerator, count int) *SurfacePool {
	t.Helper()
	pool, err := NewSurfacePool(accel, testRT, 1920, 1080, count)
	if err != nil {
		t.Fatalf("NewSurfacePool failed: %v", err)
	}
	return pool
}

func newTestPicture(t *testing.T, s *Session, pool *SurfacePool, frameID uint64) *Picture {
	t.Helper()
	surface, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	return NewPicture(s, surface, frameID)
}

func newEnabledDebugSink() *mocks.DebugSink {
	return mocks.NewDebugSink(true)
}
