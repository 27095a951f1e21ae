package main

import (
	"errors"
	"fmt"

	"github.com/user/vadecode/pkg/adapters/nullaccel"
	"github.com/user/vadecode/pkg/adapters/vaapi"
	"github.com/user/vadecode/pkg/config"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/vadecode"
)

// errNoDevice is returned when no render node matches the configuration.
var errNoDevice = errors.New("no render node found")

// openedAccelerator is an accelerator together with the device it runs on.
type openedAccelerator struct {
	ports.Accelerator
	Device ports.Device
	close  func() error
}

// Close releases the display, if the backend holds one.
func (a *openedAccelerator) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// listDevices returns the devices of the configured backend.
func listDevices(cfg config.Config) ([]ports.Device, error) {
	switch cfg.Backend {
	case config.BackendNull:
		return []ports.Device{nullaccel.Device}, nil
	case config.BackendVAAPI:
		devices, err := vaapi.Devices()
		if err != nil {
			return nil, fmt.Errorf("list render nodes: %w", err)
		}
		if cfg.Device == "" {
			return devices, nil
		}
		d, err := selectDevice(devices, cfg.Device)
		if err != nil {
			return nil, err
		}
		return []ports.Device{d}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// selectDevice picks the device whose path or node name is path, or the
// first device when path is empty.
func selectDevice(devices []ports.Device, path string) (ports.Device, error) {
	if len(devices) == 0 {
		return ports.Device{}, errNoDevice
	}
	if path == "" {
		return devices[0], nil
	}
	for _, d := range devices {
		if d.Path == path || d.Name() == path {
			return d, nil
		}
	}
	return ports.Device{}, fmt.Errorf("%w: %s", errNoDevice, path)
}

// openDevice opens the backend's accelerator on a device.
func openDevice(cfg config.Config, d ports.Device) (*openedAccelerator, error) {
	switch cfg.Backend {
	case config.BackendNull:
		opts, err := cfg.NullOptions()
		if err != nil {
			return nil, err
		}
		return &openedAccelerator{Accelerator: nullaccel.New(opts), Device: d}, nil
	case config.BackendVAAPI:
		if !vaapi.Available() {
			return nil, vaapi.ErrNotBuilt
		}
		a, err := vaapi.Open(d.Path)
		if err != nil {
			return nil, err
		}
		d.Vendor = a.Vendor()
		return &openedAccelerator{Accelerator: a, Device: d, close: a.Close}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// openAccelerator opens the accelerator decoding runs on.
func openAccelerator(cfg config.Config) (*openedAccelerator, error) {
	devices, err := listDevices(cfg)
	if err != nil {
		return nil, err
	}
	d, err := selectDevice(devices, cfg.Device)
	if err != nil {
		return nil, err
	}
	return openDevice(cfg, d)
}

// buildRegistry registers the codecs each device advertises. A device that
// cannot be opened or queried registers nothing; its error is returned
// alongside the registry of the others.
func buildRegistry(devices []ports.Device, open func(ports.Device) (ports.Accelerator, func(), error)) (*vadecode.Registry, error) {
	codecs := make(map[int][]ports.Codec, len(devices))
	var errs []error
	for _, d := range devices {
		accel, release, err := open(d)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Path, err))
			continue
		}
		profiles, err := accel.QueryProfiles()
		release()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: query profiles: %w", d.Path, err))
			continue
		}
		codecs[d.Index] = vadecode.CodecsFromProfiles(profiles)
	}
	registry := vadecode.NewRegistry(devices, func(d ports.Device) []ports.Codec {
		return codecs[d.Index]
	})
	return registry, errors.Join(errs...)
}
