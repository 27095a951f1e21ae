// Package nullaccel provides an in-memory accelerator.
//
// It decodes nothing. Every call is checked against the rules a real driver
// enforces (object ownership, begin/render/end order, surface binding, size
// limits) and violations fail with the status a libva driver would return.
// Failures can also be injected to exercise the error paths of a pipeline.
package nullaccel

import (
	"fmt"
	"slices"
	"sync"

	"github.com/user/vadecode/pkg/ports"
)

// libva status codes.
const (
	StatusOperationFailed        = 0x01
	StatusAllocationFailed       = 0x02
	StatusInvalidConfig          = 0x04
	StatusInvalidContext         = 0x05
	StatusInvalidSurface         = 0x06
	StatusInvalidBuffer          = 0x07
	StatusUnsupportedProfile     = 0x0c
	StatusUnsupportedEntrypoint  = 0x0d
	StatusUnsupportedRTFormat    = 0x0e
	StatusInvalidParameter       = 0x12
	StatusResolutionNotSupported = 0x13
)

// Options configures the simulated device.
type Options struct {
	// Profiles defaults to every profile the core knows.
	Profiles       []ports.Profile
	Implementation ports.Implementation
	MaxWidth       int
	MaxHeight      int
	// FailEndEvery fails every Nth EndPicture when positive.
	FailEndEvery int
	// FailContext fails every CreateContext.
	FailContext bool
}

// AllProfiles lists every profile the decode core can drive.
func AllProfiles() []ports.Profile {
	return []ports.Profile{
		ports.ProfileMPEG2Simple, ports.ProfileMPEG2Main,
		ports.ProfileH264ConstrainedBaseline, ports.ProfileH264Main, ports.ProfileH264High, ports.ProfileH264High10,
		ports.ProfileJPEGBaseline, ports.ProfileVP8Version0_3,
		ports.ProfileHEVCMain, ports.ProfileHEVCMain10, ports.ProfileHEVCMain12,
		ports.ProfileHEVCMain422_10, ports.ProfileHEVCMain444, ports.ProfileHEVCMain444_10,
		ports.ProfileVP9Profile0, ports.ProfileVP9Profile1, ports.ProfileVP9Profile2, ports.ProfileVP9Profile3,
		ports.ProfileAV1Profile0, ports.ProfileAV1Profile1,
		ports.ProfileVVCMain10,
	}
}

type config struct {
	profile ports.Profile
	rt      ports.RTFormat
}

type context struct {
	config   ports.ConfigID
	width    int
	height   int
	surfaces []ports.SurfaceID
	// target is the surface between BeginPicture and EndPicture.
	target  ports.SurfaceID
	active  bool
	kinds   map[ports.BufferType]int
	decoded int
}

type surface struct {
	rt     ports.RTFormat
	width  int
	height int
}

type buffer struct {
	context ports.ContextID
	kind    ports.BufferType
	size    int
	count   int
}

// Stats counts what the accelerator did.
type Stats struct {
	Pictures       int                      `json:"pictures"`
	FailedPictures int                      `json:"failed_pictures"`
	Buffers        map[ports.BufferType]int `json:"buffers"`
	BufferBytes    int                      `json:"buffer_bytes"`
}

// Accelerator is an in-memory ports.Accelerator. It is safe for concurrent use.
type Accelerator struct {
	mu   sync.Mutex
	opts Options

	nextID   uint32
	configs  map[ports.ConfigID]*config
	contexts map[ports.ContextID]*context
	surfaces map[ports.SurfaceID]*surface
	buffers  map[ports.BufferID]*buffer

	ends  int
	stats Stats
}

// New creates an accelerator with opts, filling the zero fields with an 8K
// limit and every known profile.
func New(opts Options) *Accelerator {
	if len(opts.Profiles) == 0 {
		opts.Profiles = AllProfiles()
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 8192
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = 8192
	}
	return &Accelerator{
		opts:     opts,
		configs:  make(map[ports.ConfigID]*config),
		contexts: make(map[ports.ContextID]*context),
		surfaces: make(map[ports.SurfaceID]*surface),
		buffers:  make(map[ports.BufferID]*buffer),
		stats:    Stats{Buffers: make(map[ports.BufferType]int)},
	}
}

func status(call string, code int, format string, args ...any) error {
	return &ports.StatusError{Call: call, Status: code, Message: fmt.Sprintf(format, args...)}
}

func (a *Accelerator) id() uint32 {
	a.nextID++
	return a.nextID
}

func (a *Accelerator) Implementation() ports.Implementation { return a.opts.Implementation }

func (a *Accelerator) QueryProfiles() ([]ports.Profile, error) {
	return slices.Clone(a.opts.Profiles), nil
}

func (a *Accelerator) CreateConfig(profile ports.Profile, entrypoint ports.Entrypoint, rt ports.RTFormat) (ports.ConfigID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !slices.Contains(a.opts.Profiles, profile) {
		return ports.InvalidID, status("vaCreateConfig", StatusUnsupportedProfile, "profile %s", profile)
	}
	if entrypoint != ports.EntrypointVLD {
		return ports.InvalidID, status("vaCreateConfig", StatusUnsupportedEntrypoint, "entrypoint %d", entrypoint)
	}
	if rt.FourCC() == "" && rt != ports.RTFormatYUV411 {
		return ports.InvalidID, status("vaCreateConfig", StatusUnsupportedRTFormat, "rt format %s", rt)
	}
	id := ports.ConfigID(a.id())
	a.configs[id] = &config{profile: profile, rt: rt}
	return id, nil
}

func (a *Accelerator) DestroyConfig(id ports.ConfigID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.configs[id]; !ok {
		return status("vaDestroyConfig", StatusInvalidConfig, "config %d", id)
	}
	for cid, c := range a.contexts {
		if c.config == id {
			return status("vaDestroyConfig", StatusInvalidConfig, "config %d still used by context %d", id, cid)
		}
	}
	delete(a.configs, id)
	return nil
}

func (a *Accelerator) QuerySurfaceAttributes(id ports.ConfigID) (ports.SurfaceAttributes, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.configs[id]
	if !ok {
		return ports.SurfaceAttributes{}, status("vaQuerySurfaceAttributes", StatusInvalidConfig, "config %d", id)
	}
	var formats []string
	if f := c.rt.FourCC(); f != "" {
		formats = append(formats, f)
	}
	return ports.SurfaceAttributes{
		Formats:   formats,
		MinWidth:  16,
		MinHeight: 16,
		MaxWidth:  a.opts.MaxWidth,
		MaxHeight: a.opts.MaxHeight,
	}, nil
}

func (a *Accelerator) CreateSurfaces(rt ports.RTFormat, width, height, count int) ([]ports.SurfaceID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if width <= 0 || height <= 0 || width > a.opts.MaxWidth || height > a.opts.MaxHeight {
		return nil, status("vaCreateSurfaces", StatusResolutionNotSupported, "%dx%d", width, height)
	}
	if count <= 0 {
		return nil, status("vaCreateSurfaces", StatusInvalidParameter, "%d surfaces", count)
	}
	ids := make([]ports.SurfaceID, count)
	for i := range ids {
		ids[i] = ports.SurfaceID(a.id())
		a.surfaces[ids[i]] = &surface{rt: rt, width: width, height: height}
	}
	return ids, nil
}

func (a *Accelerator) DestroySurfaces(ids []ports.SurfaceID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range ids {
		if _, ok := a.surfaces[id]; !ok {
			return status("vaDestroySurfaces", StatusInvalidSurface, "surface %d", id)
		}
		for _, c := range a.contexts {
			if c.active && c.target == id {
				return status("vaDestroySurfaces", StatusInvalidSurface, "surface %d is being decoded", id)
			}
		}
	}
	for _, id := range ids {
		delete(a.surfaces, id)
	}
	return nil
}

func (a *Accelerator) CreateContext(cfg ports.ConfigID, width, height int, surfaces []ports.SurfaceID) (ports.ContextID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.opts.FailContext {
		return ports.InvalidID, status("vaCreateContext", StatusAllocationFailed, "injected failure")
	}
	if _, ok := a.configs[cfg]; !ok {
		return ports.InvalidID, status("vaCreateContext", StatusInvalidConfig, "config %d", cfg)
	}
	if width <= 0 || height <= 0 || width > a.opts.MaxWidth || height > a.opts.MaxHeight {
		return ports.InvalidID, status("vaCreateContext", StatusResolutionNotSupported, "%dx%d", width, height)
	}
	for _, s := range surfaces {
		if _, ok := a.surfaces[s]; !ok {
			return ports.InvalidID, status("vaCreateContext", StatusInvalidSurface, "surface %d", s)
		}
	}
	id := ports.ContextID(a.id())
	a.contexts[id] = &context{
		config:   cfg,
		width:    width,
		height:   height,
		surfaces: slices.Clone(surfaces),
		kinds:    make(map[ports.BufferType]int),
	}
	return id, nil
}

func (a *Accelerator) DestroyContext(id ports.ContextID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.contexts[id]; !ok {
		return status("vaDestroyContext", StatusInvalidContext, "context %d", id)
	}
	for bid, b := range a.buffers {
		if b.context == id {
			delete(a.buffers, bid)
		}
	}
	delete(a.contexts, id)
	return nil
}

func (a *Accelerator) CreateBuffer(ctx ports.ContextID, kind ports.BufferType, data []byte, count int) (ports.BufferID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.contexts[ctx]; !ok {
		return ports.InvalidID, status("vaCreateBuffer", StatusInvalidContext, "context %d", ctx)
	}
	if count <= 0 || len(data) == 0 || len(data)%count != 0 {
		return ports.InvalidID, status("vaCreateBuffer", StatusInvalidParameter, "%d bytes in %d elements", len(data), count)
	}
	id := ports.BufferID(a.id())
	a.buffers[id] = &buffer{context: ctx, kind: kind, size: len(data), count: count}
	return id, nil
}

func (a *Accelerator) DestroyBuffer(id ports.BufferID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.buffers[id]; !ok {
		return status("vaDestroyBuffer", StatusInvalidBuffer, "buffer %d", id)
	}
	delete(a.buffers, id)
	return nil
}

func (a *Accelerator) BeginPicture(ctx ports.ContextID, target ports.SurfaceID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.contexts[ctx]
	if !ok {
		return status("vaBeginPicture", StatusInvalidContext, "context %d", ctx)
	}
	if c.active {
		return status("vaBeginPicture", StatusOperationFailed, "surface %d is still being decoded", c.target)
	}
	s, ok := a.surfaces[target]
	if !ok {
		return status("vaBeginPicture", StatusInvalidSurface, "surface %d", target)
	}
	if len(c.surfaces) > 0 && !slices.Contains(c.surfaces, target) {
		return status("vaBeginPicture", StatusInvalidSurface, "surface %d is not bound to context %d", target, ctx)
	}
	if s.width < c.width || s.height < c.height {
		return status("vaBeginPicture", StatusInvalidSurface, "surface %dx%d is smaller than context %dx%d", s.width, s.height, c.width, c.height)
	}
	c.active = true
	c.target = target
	clear(c.kinds)
	return nil
}

func (a *Accelerator) RenderPicture(ctx ports.ContextID, ids []ports.BufferID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.contexts[ctx]
	if !ok {
		return status("vaRenderPicture", StatusInvalidContext, "context %d", ctx)
	}
	if !c.active {
		return status("vaRenderPicture", StatusOperationFailed, "no picture begun")
	}
	for _, id := range ids {
		b, ok := a.buffers[id]
		if !ok || b.context != ctx {
			return status("vaRenderPicture", StatusInvalidBuffer, "buffer %d", id)
		}
		c.kinds[b.kind] += b.count
		a.stats.Buffers[b.kind]++
		a.stats.BufferBytes += b.size
	}
	return nil
}

func (a *Accelerator) EndPicture(ctx ports.ContextID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.contexts[ctx]
	if !ok {
		return status("vaEndPicture", StatusInvalidContext, "context %d", ctx)
	}
	if !c.active {
		return status("vaEndPicture", StatusOperationFailed, "no picture begun")
	}
	c.active = false
	a.ends++

	if c.kinds[ports.BufferPictureParameter] == 0 {
		a.stats.FailedPictures++
		return status("vaEndPicture", StatusInvalidParameter, "surface %d has no picture parameters", c.target)
	}
	if c.kinds[ports.BufferSliceData] == 0 {
		a.stats.FailedPictures++
		return status("vaEndPicture", StatusInvalidParameter, "surface %d has no slice data", c.target)
	}
	if a.opts.FailEndEvery > 0 && a.ends%a.opts.FailEndEvery == 0 {
		a.stats.FailedPictures++
		return status("vaEndPicture", StatusOperationFailed, "injected failure")
	}
	c.decoded++
	a.stats.Pictures++
	return nil
}

// SyncSurface returns once decoding into surface has finished. Pictures
// complete at EndPicture, so it only checks that no picture is in flight.
func (a *Accelerator) SyncSurface(id ports.SurfaceID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.surfaces[id]; !ok {
		return status("vaSyncSurface", StatusInvalidSurface, "surface %d", id)
	}
	for _, c := range a.contexts {
		if c.active && c.target == id {
			return status("vaSyncSurface", StatusOperationFailed, "surface %d has no ended picture", id)
		}
	}
	return nil
}

// Stats returns a copy of the counters.
func (a *Accelerator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stats
	s.Buffers = make(map[ports.BufferType]int, len(a.stats.Buffers))
	for k, v := range a.stats.Buffers {
		s.Buffers[k] = v
	}
	return s
}

// Live reports the objects not yet destroyed.
func (a *Accelerator) Live() (configs, contexts, surfaces, buffers int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.configs), len(a.contexts), len(a.surfaces), len(a.buffers)
}

var _ ports.Accelerator = (*Accelerator)(nil)
