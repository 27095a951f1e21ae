package vadecode

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/user/vadecode/pkg/ports"
)

// Surface is a reference-counted accelerator surface. Pictures, the consumer and
// duplicated pictures may all hold a reference; the surface goes back to its pool
// when the last one is dropped.
type Surface struct {
	id   ports.SurfaceID
	refs atomic.Int32
	pool *SurfacePool
}

// ID returns the accelerator surface id.
func (s *Surface) ID() ports.SurfaceID { return s.id }

// Ref takes one more reference.
func (s *Surface) Ref() *Surface {
	s.refs.Add(1)
	return s
}

// Unref drops one reference.
func (s *Surface) Unref() {
	n := s.refs.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("vadecode: surface %d released too many times", s.id))
	}
	if n == 0 && s.pool != nil {
		s.pool.put(s)
	}
}

// Refs returns the current reference count.
func (s *Surface) Refs() int { return int(s.refs.Load()) }

// Handle returns a new consumer reference to the surface.
func (s *Surface) Handle() ports.SurfaceRef {
	s.Ref()
	return &surfaceHandle{surface: s}
}

type surfaceHandle struct {
	surface *Surface
	once    sync.Once
}

func (h *surfaceHandle) ID() ports.SurfaceID { return h.surface.id }

func (h *surfaceHandle) Release() {
	h.once.Do(h.surface.Unref)
}

// SurfacePool is a fixed set of surfaces of one format and size.
// Releases may come from consumer goroutines, so the free list is locked.
type SurfacePool struct {
	accel    ports.Accelerator
	rtFormat ports.RTFormat
	width    int
	height   int

	mu       sync.Mutex
	all      []*Surface
	free     []*Surface
	draining bool
	gone     bool
}

// NewSurfacePool creates count surfaces through the accelerator.
func NewSurfacePool(accel ports.Accelerator, rtFormat ports.RTFormat, width, height, count int) (*SurfacePool, error) {
	if count <= 0 {
		return nil, fmt.Errorf("vadecode: invalid pool size %d", count)
	}
	ids, err := accel.CreateSurfaces(rtFormat, width, height, count)
	if err != nil {
		return nil, &DriverError{Op: "create surfaces", Err: err}
	}
	p := &SurfacePool{
		accel:    accel,
		rtFormat: rtFormat,
		width:    width,
		height:   height,
	}
	for _, id := range ids {
		s := &Surface{id: id, pool: p}
		p.all = append(p.all, s)
		p.free = append(p.free, s)
	}
	return p, nil
}

// Acquire takes a free surface. The caller owns one reference.
func (p *SurfacePool) Acquire() (*Surface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.draining {
		return nil, errors.New("vadecode: surface pool destroyed")
	}
	if len(p.free) == 0 {
		return nil, ErrAllocation
	}
	s := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	s.refs.Store(1)
	return s, nil
}

func (p *SurfacePool) put(s *Surface) {
	p.mu.Lock()
	p.free = append(p.free, s)
	release := p.draining && !p.gone && len(p.free) == len(p.all)
	if release {
		p.gone = true
	}
	p.mu.Unlock()

	if release {
		_ = p.destroySurfaces()
	}
}

// IDs returns every surface id in the pool, for binding to a static context.
func (p *SurfacePool) IDs() []ports.SurfaceID {
	ids := make([]ports.SurfaceID, len(p.all))
	for i, s := range p.all {
		ids[i] = s.id
	}
	return ids
}

// Size returns the number of surfaces in the pool.
func (p *SurfacePool) Size() int { return len(p.all) }

// Available returns the number of free surfaces.
func (p *SurfacePool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Matches reports whether the pool was created for this format and size.
func (p *SurfacePool) Matches(rtFormat ports.RTFormat, width, height int) bool {
	return p.rtFormat == rtFormat && p.width == width && p.height == height
}

// Fits reports whether the pool's surfaces can hold frames of this format and size.
func (p *SurfacePool) Fits(rtFormat ports.RTFormat, width, height int) bool {
	return p.rtFormat == rtFormat && p.width >= width && p.height >= height
}

// Destroy stops handing out surfaces. The accelerator surfaces are destroyed
// once every outstanding reference has been returned.
func (p *SurfacePool) Destroy() error {
	p.mu.Lock()
	if p.draining {
		p.mu.Unlock()
		return nil
	}
	p.draining = true
	release := len(p.free) == len(p.all)
	if release {
		p.gone = true
	}
	p.mu.Unlock()

	if release {
		return p.destroySurfaces()
	}
	return nil
}

func (p *SurfacePool) destroySurfaces() error {
	if err := p.accel.DestroySurfaces(p.IDs()); err != nil {
		return &DriverError{Op: "destroy surfaces", Err: err}
	}
	return nil
}
