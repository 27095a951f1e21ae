package vadecode

import (
	"fmt"
	"sort"

	"github.com/user/vadecode/pkg/ports"
)

// BasePriority is the priority of the decoders on the first device. Decoders
// on device N get BasePriority - N.
const BasePriority = 256

// Factory describes one decoder available on one device.
type Factory struct {
	Name     string
	Codec    ports.Codec
	Device   ports.Device
	Priority int
}

// Registry lists the decoders for a set of devices. It is built once and not
// modified afterwards.
type Registry struct {
	factories []Factory
}

// FactoryName returns the decoder name for a codec on a device: va<codec>dec on
// the first device, va<node><codec>dec on the others.
func FactoryName(codec ports.Codec, device ports.Device) string {
	if device.Index == 0 {
		return fmt.Sprintf("va%sdec", codec)
	}
	return fmt.Sprintf("va%s%sdec", device.Name(), codec)
}

// NewRegistry registers one factory per codec each device supports. The
// supported function reports the codecs of a device, usually by mapping the
// profiles its accelerator advertises with ports.Profile.Codec.
func NewRegistry(devices []ports.Device, supported func(ports.Device) []ports.Codec) *Registry {
	r := &Registry{}
	for _, device := range devices {
		seen := make(map[ports.Codec]bool)
		for _, codec := range supported(device) {
			if seen[codec] {
				continue
			}
			seen[codec] = true
			r.factories = append(r.factories, Factory{
				Name:     FactoryName(codec, device),
				Codec:    codec,
				Device:   device,
				Priority: BasePriority - device.Index,
			})
		}
	}
	return r
}

// CodecsFromProfiles maps advertised profiles to the codecs they decode.
func CodecsFromProfiles(profiles []ports.Profile) []ports.Codec {
	var codecs []ports.Codec
	seen := make(map[ports.Codec]bool)
	for _, p := range profiles {
		c := p.Codec()
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		codecs = append(codecs, c)
	}
	return codecs
}

// Factories returns every registered factory in registration order.
func (r *Registry) Factories() []Factory {
	return append([]Factory(nil), r.factories...)
}

// ForCodec returns the factories of a codec, highest priority first.
func (r *Registry) ForCodec(codec ports.Codec) []Factory {
	var out []Factory
	for _, f := range r.factories {
		if f.Codec == codec {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// Best returns the highest priority factory of a codec.
func (r *Registry) Best(codec ports.Codec) (Factory, bool) {
	fs := r.ForCodec(codec)
	if len(fs) == 0 {
		return Factory{}, false
	}
	return fs[0], true
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	for _, f := range r.factories {
		if f.Name == name {
			return f, true
		}
	}
	return Factory{}, false
}

// Codecs returns every codec with at least one factory, sorted by name.
func (r *Registry) Codecs() []ports.Codec {
	seen := make(map[ports.Codec]bool)
	var codecs []ports.Codec
	for _, f := range r.factories {
		if !seen[f.Codec] {
			seen[f.Codec] = true
			codecs = append(codecs, f.Codec)
		}
	}
	sort.Slice(codecs, func(i, j int) bool { return codecs[i] < codecs[j] })
	return codecs
}
