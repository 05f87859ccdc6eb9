package models

import (
	"fmt"
	"sort"
	"strings"
)

// presets are named, internally consistent transformation bundles.
var presets = map[string]TransformationSpec{
	"subtle": {
		Scale: Float(0.96),
		Pitch: Float(1.04),
	},
	"mirror": {
		FlipHorizontal: true,
	},
	"pitch-up": {
		Pitch: Float(1.06),
	},
	"speed-up": {
		Speed: Float(1.05),
	},
	"soft": {
		Brightness: Float(0.03),
		Contrast:   Float(0.05),
		Blur:       Float(0.6),
	},
}

// Preset returns the named transformation preset.
//
// The empty name resolves to an empty spec so that "no preset" needs no
// special casing at call sites.
func Preset(name string) (TransformationSpec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return TransformationSpec{}, nil
	}
	spec, ok := presets[name]
	if !ok {
		return TransformationSpec{}, NewError(ErrInvalidArgument, "preset",
			fmt.Errorf("unknown preset %q, must be one of: %s", name, strings.Join(PresetNames(), ", ")))
	}
	// Hand out a copy so callers can never alias the table's pointers.
	return TransformationSpec{}.Merge(spec), nil
}

// PresetNames returns the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
