package mocks

import (
	"fmt"
	"sync"

	"github.com/user/vadecode/pkg/ports"
)

// Accelerator is a mock implementation of ports.Accelerator. It hands out
// increasing ids and records every call. The Func fields inject failures: when
// one returns an error the call fails without creating anything.
type Accelerator struct {
	mu sync.Mutex

	Impl       ports.Implementation
	Profiles   []ports.Profile
	Attributes ports.SurfaceAttributes

	QueryProfilesFunc   func() error
	CreateConfigFunc    func(profile ports.Profile, rt ports.RTFormat) error
	DestroyConfigFunc   func(config ports.ConfigID) error
	QueryAttributesFunc func(config ports.ConfigID) error
	CreateSurfacesFunc  func(rt ports.RTFormat, width, height, count int) error
	DestroySurfacesFunc func(surfaces []ports.SurfaceID) error
	CreateContextFunc   func(width, height int, surfaces []ports.SurfaceID) error
	DestroyContextFunc  func(context ports.ContextID) error
	CreateBufferFunc    func(kind ports.BufferType, data []byte, count int) error
	DestroyBufferFunc   func(buffer ports.BufferID) error
	BeginPictureFunc    func(surface ports.SurfaceID) error
	RenderPictureFunc   func(buffers []ports.BufferID) error
	EndPictureFunc      func() error

	// Recorded calls for verification
	Calls             []string
	QueryProfileCalls int
	QueryAttrCalls    int
	ConfigCalls       []ConfigCall
	DestroyedConfigs  []ports.ConfigID
	ContextCalls      []ContextCall
	DestroyedContexts []ports.ContextID
	SurfaceCalls      []SurfaceCall
	DestroyedSurfaces []ports.SurfaceID
	Buffers           []BufferCall
	DestroyedBuffers  []ports.BufferID
	BeginCalls        []ports.SurfaceID
	RenderCalls       [][]ports.BufferID
	EndCalls          int

	nextID uint32
	live   map[ports.BufferID]bool
}

// ConfigCall records a successful CreateConfig.
type ConfigCall struct {
	ID         ports.ConfigID
	Profile    ports.Profile
	Entrypoint ports.Entrypoint
	RTFormat   ports.RTFormat
}

// ContextCall records a successful CreateContext.
type ContextCall struct {
	ID       ports.ContextID
	Config   ports.ConfigID
	Width    int
	Height   int
	Surfaces []ports.SurfaceID
}

// SurfaceCall records a successful CreateSurfaces.
type SurfaceCall struct {
	RTFormat ports.RTFormat
	Width    int
	Height   int
	IDs      []ports.SurfaceID
}

// BufferCall records a successful CreateBuffer.
type BufferCall struct {
	ID      ports.BufferID
	Context ports.ContextID
	Kind    ports.BufferType
	Data    []byte
	Count   int
}

// NewAccelerator creates a mock advertising profiles.
func NewAccelerator(profiles ...ports.Profile) *Accelerator {
	return &Accelerator{
		Profiles: profiles,
		Attributes: ports.SurfaceAttributes{
			Formats:   []string{"NV12", "P010"},
			MinWidth:  16,
			MinHeight: 16,
			MaxWidth:  8192,
			MaxHeight: 8192,
		},
		live: make(map[ports.BufferID]bool),
	}
}

func (m *Accelerator) id() uint32 {
	m.nextID++
	return m.nextID
}

func (m *Accelerator) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *Accelerator) Implementation() ports.Implementation {
	return m.Impl
}

func (m *Accelerator) QueryProfiles() ([]ports.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("QueryProfiles")
	m.QueryProfileCalls++
	if m.QueryProfilesFunc != nil {
		if err := m.QueryProfilesFunc(); err != nil {
			return nil, err
		}
	}
	return append([]ports.Profile{}, m.Profiles...), nil
}

func (m *Accelerator) CreateConfig(profile ports.Profile, entrypoint ports.Entrypoint, rt ports.RTFormat) (ports.ConfigID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateConfig")
	if m.CreateConfigFunc != nil {
		if err := m.CreateConfigFunc(profile, rt); err != nil {
			return ports.InvalidID, err
		}
	}
	id := ports.ConfigID(m.id())
	m.ConfigCalls = append(m.ConfigCalls, ConfigCall{ID: id, Profile: profile, Entrypoint: entrypoint, RTFormat: rt})
	return id, nil
}

func (m *Accelerator) DestroyConfig(config ports.ConfigID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DestroyConfig")
	if m.DestroyConfigFunc != nil {
		if err := m.DestroyConfigFunc(config); err != nil {
			return err
		}
	}
	m.DestroyedConfigs = append(m.DestroyedConfigs, config)
	return nil
}

func (m *Accelerator) QuerySurfaceAttributes(config ports.ConfigID) (ports.SurfaceAttributes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("QuerySurfaceAttributes")
	m.QueryAttrCalls++
	if m.QueryAttributesFunc != nil {
		if err := m.QueryAttributesFunc(config); err != nil {
			return ports.SurfaceAttributes{}, err
		}
	}
	return m.Attributes, nil
}

func (m *Accelerator) CreateSurfaces(rt ports.RTFormat, width, height, count int) ([]ports.SurfaceID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateSurfaces")
	if m.CreateSurfacesFunc != nil {
		if err := m.CreateSurfacesFunc(rt, width, height, count); err != nil {
			return nil, err
		}
	}
	ids := make([]ports.SurfaceID, count)
	for i := range ids {
		ids[i] = ports.SurfaceID(m.id())
	}
	m.SurfaceCalls = append(m.SurfaceCalls, SurfaceCall{RTFormat: rt, Width: width, Height: height, IDs: ids})
	return ids, nil
}

func (m *Accelerator) DestroySurfaces(surfaces []ports.SurfaceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DestroySurfaces")
	if m.DestroySurfacesFunc != nil {
		if err := m.DestroySurfacesFunc(surfaces); err != nil {
			return err
		}
	}
	m.DestroyedSurfaces = append(m.DestroyedSurfaces, surfaces...)
	return nil
}

func (m *Accelerator) CreateContext(config ports.ConfigID, width, height int, surfaces []ports.SurfaceID) (ports.ContextID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateContext")
	if m.CreateContextFunc != nil {
		if err := m.CreateContextFunc(width, height, surfaces); err != nil {
			return ports.InvalidID, err
		}
	}
	id := ports.ContextID(m.id())
	m.ContextCalls = append(m.ContextCalls, ContextCall{ID: id, Config: config, Width: width, Height: height, Surfaces: surfaces})
	return id, nil
}

func (m *Accelerator) DestroyContext(context ports.ContextID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DestroyContext")
	if m.DestroyContextFunc != nil {
		if err := m.DestroyContextFunc(context); err != nil {
			return err
		}
	}
	m.DestroyedContexts = append(m.DestroyedContexts, context)
	return nil
}

func (m *Accelerator) CreateBuffer(context ports.ContextID, kind ports.BufferType, data []byte, count int) (ports.BufferID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateBuffer")
	if m.CreateBufferFunc != nil {
		if err := m.CreateBufferFunc(kind, data, count); err != nil {
			return ports.InvalidID, err
		}
	}
	id := ports.BufferID(m.id())
	m.Buffers = append(m.Buffers, BufferCall{
		ID:      id,
		Context: context,
		Kind:    kind,
		Data:    append([]byte(nil), data...),
		Count:   count,
	})
	if m.live == nil {
		m.live = make(map[ports.BufferID]bool)
	}
	m.live[id] = true
	return id, nil
}

func (m *Accelerator) DestroyBuffer(buffer ports.BufferID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DestroyBuffer")
	if m.DestroyBufferFunc != nil {
		if err := m.DestroyBufferFunc(buffer); err != nil {
			return err
		}
	}
	if !m.live[buffer] {
		return fmt.Errorf("mock: destroy of unknown buffer %d", buffer)
	}
	delete(m.live, buffer)
	m.DestroyedBuffers = append(m.DestroyedBuffers, buffer)
	return nil
}

func (m *Accelerator) BeginPicture(context ports.ContextID, surface ports.SurfaceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("BeginPicture")
	m.BeginCalls = append(m.BeginCalls, surface)
	if m.BeginPictureFunc != nil {
		return m.BeginPictureFunc(surface)
	}
	return nil
}

func (m *Accelerator) RenderPicture(context ports.ContextID, buffers []ports.BufferID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("RenderPicture")
	m.RenderCalls = append(m.RenderCalls, append([]ports.BufferID(nil), buffers...))
	if m.RenderPictureFunc != nil {
		return m.RenderPictureFunc(buffers)
	}
	return nil
}

func (m *Accelerator) EndPicture(context ports.ContextID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("EndPicture")
	m.EndCalls++
	if m.EndPictureFunc != nil {
		return m.EndPictureFunc()
	}
	return nil
}

// LiveBuffers returns the number of created buffers not yet destroyed.
func (m *Accelerator) LiveBuffers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Count returns how many times a call was made.
func (m *Accelerator) Count(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == call {
			n++
		}
	}
	return n
}

// BuffersOfKind returns the created buffers of one type in creation order.
func (m *Accelerator) BuffersOfKind(kind ports.BufferType) []BufferCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []BufferCall
	for _, b := range m.Buffers {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

// LastBuffer returns the most recent buffer of one type.
func (m *Accelerator) LastBuffer(kind ports.BufferType) (BufferCall, bool) {
	bufs := m.BuffersOfKind(kind)
	if len(bufs) == 0 {
		return BufferCall{}, false
	}
	return bufs[len(bufs)-1], true
}

// Reset forgets the recorded calls but keeps the configuration and hooks.
func (m *Accelerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.Buffers = nil
	m.DestroyedBuffers = nil
	m.BeginCalls = nil
	m.RenderCalls = nil
	m.EndCalls = 0
}

var _ ports.Accelerator = (*Accelerator)(nil)
