package nullaccel

import "github.com/user/vadecode/pkg/ports"

// Device is the single virtual device the accelerator simulates.
var Device = ports.Device{Index: 0, Path: "null0", Vendor: "vadecode null accelerator"}
