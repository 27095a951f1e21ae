package vaapi

import (
	"errors"
	"path/filepath"
	"sort"
)

// RenderNodePattern matches the DRM render nodes displays are opened on.
const RenderNodePattern = "/dev/dri/renderD*"

// ErrNotBuilt is returned when the binary was built without the vaapi tag.
var ErrNotBuilt = errors.New("vaapi: built without libva support (build with -tags vaapi)")

// renderNodes lists the render nodes in device number order.
func renderNodes() ([]string, error) {
	paths, err := filepath.Glob(RenderNodePattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
