//go:build vaapi && linux

// Package vaapi implements ports.Accelerator on libva.
// It requires libva and libva-drm headers and libraries, a render node and
// a driver for the graphics card behind it.
package vaapi

// #cgo pkg-config: libva libva-drm
// #include <stdlib.h>
// #include <fcntl.h>
// #include <unistd.h>
// #include <va/va.h>
// #include <va/va_drm.h>
//
// static int open_rdwr(const char *path) { return open(path, O_RDWR); }
// static int attrib_int(VASurfaceAttrib *a) { return a->value.value.i; }
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/user/vadecode/pkg/ports"
)

// Accelerator is a libva display opened on one render node.
type Accelerator struct {
	mu     sync.Mutex
	dpy    C.VADisplay
	fd     C.int
	vendor string
	impl   ports.Implementation
	closed bool
}

// Open opens and initializes the display of a render node.
func Open(device string) (*Accelerator, error) {
	path := C.CString(device)
	defer C.free(unsafe.Pointer(path))
	fd := C.open_rdwr(path)
	if fd < 0 {
		return nil, fmt.Errorf("vaapi: open %s", device)
	}
	dpy := C.vaGetDisplayDRM(fd)
	if dpy == nil {
		C.close(fd)
		return nil, fmt.Errorf("vaapi: no display on %s", device)
	}
	var major, minor C.int
	if st := C.vaInitialize(dpy, &major, &minor); st != C.VA_STATUS_SUCCESS {
		C.close(fd)
		return nil, statusError("vaInitialize", st)
	}
	vendor := C.GoString(C.vaQueryVendorString(dpy))
	return &Accelerator{
		dpy:    dpy,
		fd:     fd,
		vendor: vendor,
		impl:   ports.ImplementationFromVendor(vendor),
	}, nil
}

// Vendor returns the driver's vendor string.
func (a *Accelerator) Vendor() string { return a.vendor }

// Close terminates the display and closes the render node.
func (a *Accelerator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	st := C.vaTerminate(a.dpy)
	C.close(a.fd)
	if st != C.VA_STATUS_SUCCESS {
		return statusError("vaTerminate", st)
	}
	return nil
}

func statusError(call string, st C.VAStatus) error {
	return &ports.StatusError{Call: call, Status: int(st), Message: C.GoString(C.vaErrorStr(st))}
}

func (a *Accelerator) Implementation() ports.Implementation { return a.impl }

// QueryProfiles lists the profiles with a slice-level decode entrypoint.
func (a *Accelerator) QueryProfiles() ([]ports.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := C.vaMaxNumProfiles(a.dpy)
	if n <= 0 {
		return nil, nil
	}
	profiles := make([]C.VAProfile, n)
	var count C.int
	if st := C.vaQueryConfigProfiles(a.dpy, &profiles[0], &count); st != C.VA_STATUS_SUCCESS {
		return nil, statusError("vaQueryConfigProfiles", st)
	}

	entrypoints := make([]C.VAEntrypoint, C.vaMaxNumEntrypoints(a.dpy))
	var out []ports.Profile
	for _, p := range profiles[:count] {
		var ne C.int
		if C.vaQueryConfigEntrypoints(a.dpy, p, &entrypoints[0], &ne) != C.VA_STATUS_SUCCESS {
			continue
		}
		for _, e := range entrypoints[:ne] {
			if e == C.VAEntrypointVLD {
				out = append(out, ports.Profile(p))
				break
			}
		}
	}
	return out, nil
}

func (a *Accelerator) CreateConfig(profile ports.Profile, entrypoint ports.Entrypoint, rt ports.RTFormat) (ports.ConfigID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	attrib := C.VAConfigAttrib{_type: C.VAConfigAttribRTFormat, value: C.uint32_t(rt)}
	var id C.VAConfigID
	st := C.vaCreateConfig(a.dpy, C.VAProfile(profile), C.VAEntrypoint(entrypoint), &attrib, 1, &id)
	if st != C.VA_STATUS_SUCCESS {
		return ports.InvalidID, statusError("vaCreateConfig", st)
	}
	return ports.ConfigID(id), nil
}

func (a *Accelerator) DestroyConfig(id ports.ConfigID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st := C.vaDestroyConfig(a.dpy, C.VAConfigID(id)); st != C.VA_STATUS_SUCCESS {
		return statusError("vaDestroyConfig", st)
	}
	return nil
}

func (a *Accelerator) QuerySurfaceAttributes(id ports.ConfigID) (ports.SurfaceAttributes, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var n C.uint
	if st := C.vaQuerySurfaceAttributes(a.dpy, C.VAConfigID(id), nil, &n); st != C.VA_STATUS_SUCCESS {
		return ports.SurfaceAttributes{}, statusError("vaQuerySurfaceAttributes", st)
	}
	if n == 0 {
		return ports.SurfaceAttributes{}, nil
	}
	attribs := make([]C.VASurfaceAttrib, n)
	if st := C.vaQuerySurfaceAttributes(a.dpy, C.VAConfigID(id), &attribs[0], &n); st != C.VA_STATUS_SUCCESS {
		return ports.SurfaceAttributes{}, statusError("vaQuerySurfaceAttributes", st)
	}

	var out ports.SurfaceAttributes
	for i := range attribs[:n] {
		v := int(C.attrib_int(&attribs[i]))
		switch attribs[i]._type {
		case C.VASurfaceAttribPixelFormat:
			out.Formats = append(out.Formats, fourCC(uint32(v)))
		case C.VASurfaceAttribMinWidth:
			out.MinWidth = v
		case C.VASurfaceAttribMinHeight:
			out.MinHeight = v
		case C.VASurfaceAttribMaxWidth:
			out.MaxWidth = v
		case C.VASurfaceAttribMaxHeight:
			out.MaxHeight = v
		}
	}
	return out, nil
}

func fourCC(v uint32) string {
	return string([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func (a *Accelerator) CreateSurfaces(rt ports.RTFormat, width, height, count int) ([]ports.SurfaceID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]C.VASurfaceID, count)
	st := C.vaCreateSurfaces(a.dpy, C.uint(rt), C.uint(width), C.uint(height), &ids[0], C.uint(count), nil, 0)
	if st != C.VA_STATUS_SUCCESS {
		return nil, statusError("vaCreateSurfaces", st)
	}
	out := make([]ports.SurfaceID, count)
	for i, id := range ids {
		out[i] = ports.SurfaceID(id)
	}
	return out, nil
}

func (a *Accelerator) DestroySurfaces(ids []ports.SurfaceID) error {
	if len(ids) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cids := surfaceIDs(ids)
	if st := C.vaDestroySurfaces(a.dpy, &cids[0], C.int(len(cids))); st != C.VA_STATUS_SUCCESS {
		return statusError("vaDestroySurfaces", st)
	}
	return nil
}

func surfaceIDs(ids []ports.SurfaceID) []C.VASurfaceID {
	out := make([]C.VASurfaceID, len(ids))
	for i, id := range ids {
		out[i] = C.VASurfaceID(id)
	}
	return out
}

func (a *Accelerator) CreateContext(config ports.ConfigID, width, height int, surfaces []ports.SurfaceID) (ports.ContextID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var targets *C.VASurfaceID
	cids := surfaceIDs(surfaces)
	if len(cids) > 0 {
		targets = &cids[0]
	}
	var id C.VAContextID
	st := C.vaCreateContext(a.dpy, C.VAConfigID(config), C.int(width), C.int(height), C.VA_PROGRESSIVE,
		targets, C.int(len(cids)), &id)
	if st != C.VA_STATUS_SUCCESS {
		return ports.InvalidID, statusError("vaCreateContext", st)
	}
	return ports.ContextID(id), nil
}

func (a *Accelerator) DestroyContext(id ports.ContextID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st := C.vaDestroyContext(a.dpy, C.VAContextID(id)); st != C.VA_STATUS_SUCCESS {
		return statusError("vaDestroyContext", st)
	}
	return nil
}

var bufferTypes = map[ports.BufferType]C.VABufferType{
	ports.BufferPictureParameter: C.VAPictureParameterBufferType,
	ports.BufferIQMatrix:         C.VAIQMatrixBufferType,
	ports.BufferBitPlane:         C.VABitPlaneBufferType,
	ports.BufferSliceParameter:   C.VASliceParameterBufferType,
	ports.BufferSliceData:        C.VASliceDataBufferType,
	ports.BufferHuffmanTable:     C.VAHuffmanTableBufferType,
	ports.BufferProbability:      C.VAProbabilityBufferType,
	ports.BufferAlf:              C.VAAlfBufferType,
	ports.BufferLmcs:             C.VALmcsBufferType,
	ports.BufferSubPic:           C.VASubPicBufferType,
	ports.BufferTile:             C.VATileBufferType,
	ports.BufferSliceStruct:      C.VASliceStructBufferType,
}

// CreateBuffer copies data into a new buffer. libva copies on creation, so
// data is not retained.
func (a *Accelerator) CreateBuffer(context ports.ContextID, kind ports.BufferType, data []byte, count int) (ports.BufferID, error) {
	t, ok := bufferTypes[kind]
	if !ok {
		return ports.InvalidID, fmt.Errorf("vaapi: no libva buffer type for %s", kind)
	}
	if count <= 0 || len(data) == 0 || len(data)%count != 0 {
		return ports.InvalidID, fmt.Errorf("vaapi: %d bytes do not split into %d elements", len(data), count)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var id C.VABufferID
	st := C.vaCreateBuffer(a.dpy, C.VAContextID(context), t, C.uint(len(data)/count), C.uint(count),
		unsafe.Pointer(&data[0]), &id)
	if st != C.VA_STATUS_SUCCESS {
		return ports.InvalidID, statusError("vaCreateBuffer", st)
	}
	return ports.BufferID(id), nil
}

func (a *Accelerator) DestroyBuffer(id ports.BufferID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st := C.vaDestroyBuffer(a.dpy, C.VABufferID(id)); st != C.VA_STATUS_SUCCESS {
		return statusError("vaDestroyBuffer", st)
	}
	return nil
}

func (a *Accelerator) BeginPicture(context ports.ContextID, surface ports.SurfaceID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st := C.vaBeginPicture(a.dpy, C.VAContextID(context), C.VASurfaceID(surface)); st != C.VA_STATUS_SUCCESS {
		return statusError("vaBeginPicture", st)
	}
	return nil
}

func (a *Accelerator) RenderPicture(context ports.ContextID, buffers []ports.BufferID) error {
	if len(buffers) == 0 {
		return nil
	}
	ids := make([]C.VABufferID, len(buffers))
	for i, b := range buffers {
		ids[i] = C.VABufferID(b)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if st := C.vaRenderPicture(a.dpy, C.VAContextID(context), &ids[0], C.int(len(ids))); st != C.VA_STATUS_SUCCESS {
		return statusError("vaRenderPicture", st)
	}
	return nil
}

func (a *Accelerator) EndPicture(context ports.ContextID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st := C.vaEndPicture(a.dpy, C.VAContextID(context)); st != C.VA_STATUS_SUCCESS {
		return statusError("vaEndPicture", st)
	}
	return nil
}

// SyncSurface blocks until the decode into surface has finished.
func (a *Accelerator) SyncSurface(surface ports.SurfaceID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st := C.vaSyncSurface(a.dpy, C.VASurfaceID(surface)); st != C.VA_STATUS_SUCCESS {
		return statusError("vaSyncSurface", st)
	}
	return nil
}

// Available reports whether libva support was compiled in.
func Available() bool { return true }

// Devices opens every render node and reports the ones a driver loads on.
func Devices() ([]ports.Device, error) {
	paths, err := renderNodes()
	if err != nil {
		return nil, err
	}
	var devices []ports.Device
	for _, path := range paths {
		a, err := Open(path)
		if err != nil {
			continue
		}
		devices = append(devices, ports.Device{Index: len(devices), Path: path, Vendor: a.Vendor()})
		a.Close()
	}
	return devices, nil
}

var _ ports.Accelerator = (*Accelerator)(nil)
