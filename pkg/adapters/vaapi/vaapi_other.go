//go:build !vaapi || !linux

package vaapi

import "github.com/user/vadecode/pkg/ports"

// Accelerator is unavailable without libva; Open always fails.
type Accelerator struct {
	ports.Accelerator
}

// Open fails with ErrNotBuilt.
func Open(device string) (*Accelerator, error) {
	return nil, ErrNotBuilt
}

// Vendor returns an empty string.
func (a *Accelerator) Vendor() string { return "" }

// Close does nothing.
func (a *Accelerator) Close() error { return nil }

// Available reports whether libva support was compiled in.
func Available() bool { return false }

// Devices lists the render nodes without opening them, since no driver can
// be loaded.
func Devices() ([]ports.Device, error) {
	paths, err := renderNodes()
	if err != nil {
		return nil, err
	}
	devices := make([]ports.Device, len(paths))
	for i, p := range paths {
		devices[i] = ports.Device{Index: i, Path: p}
	}
	return devices, nil
}
