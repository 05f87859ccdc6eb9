package models

import (
	"fmt"
	"math"
	"strings"
)

// Tempo limits of the encoder's atempo filter; pitch shares them because the
// resample trick is paired with the same resampler.
const (
	MinTempoFactor = 0.5
	MaxTempoFactor = 2.0
)

// TransformationSpec describes the parametrized transformations applied to a
// source video by the encoder.
//
// Every field is optional. A zero flip flag or a nil numeric pointer means
// "do not apply that filter"; a non-nil pointer is applied even when its value
// is neutral (e.g. Scale=1.0), so the filter chain always mirrors what was set.
//
// TransformationSpec is a value type; Merge returns a new spec and never
// mutates its receiver.
type TransformationSpec struct {
	FlipHorizontal bool     `yaml:"flip_horizontal" json:"flip_horizontal,omitempty"`
	FlipVertical   bool     `yaml:"flip_vertical" json:"flip_vertical,omitempty"`
	Scale          *float64 `yaml:"scale,omitempty" json:"scale,omitempty"`           // 1.0 = unchanged
	Rotate         *float64 `yaml:"rotate,omitempty" json:"rotate,omitempty"`         // degrees, clockwise
	Brightness     *float64 `yaml:"brightness,omitempty" json:"brightness,omitempty"` // delta in [-1, 1]
	Contrast       *float64 `yaml:"contrast,omitempty" json:"contrast,omitempty"`     // delta in [-1, 1], added to 1.0
	Blur           *float64 `yaml:"blur,omitempty" json:"blur,omitempty"`             // gaussian sigma
	Speed          *float64 `yaml:"speed,omitempty" json:"speed,omitempty"`           // playback speed factor
	Pitch          *float64 `yaml:"pitch,omitempty" json:"pitch,omitempty"`           // audio pitch factor
}

// Float returns a pointer to v, for building specs in code.
func Float(v float64) *float64 {
	return &v
}

// Validate checks that every set field is internally consistent.
//
// Returns an error matching ErrInvalidArgument listing every problem found.
func (t TransformationSpec) Validate() error {
	var problems []string

	positive := func(name string, v *float64) {
		if v != nil && (*v <= 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
			problems = append(problems, fmt.Sprintf("%s must be positive, got %v", name, *v))
		}
	}
	within := func(name string, v *float64, lo, hi float64) {
		if v != nil && (*v < lo || *v > hi || math.IsNaN(*v)) {
			problems = append(problems, fmt.Sprintf("%s must be between %v and %v, got %v", name, lo, hi, *v))
		}
	}

	positive("scale", t.Scale)
	positive("speed", t.Speed)
	positive("pitch", t.Pitch)
	if t.Speed != nil && *t.Speed > 0 {
		within("speed", t.Speed, MinTempoFactor, MaxTempoFactor)
	}
	if t.Pitch != nil && *t.Pitch > 0 {
		within("pitch", t.Pitch, MinTempoFactor, MaxTempoFactor)
	}
	within("brightness", t.Brightness, -1, 1)
	within("contrast", t.Contrast, -1, 1)
	if t.Blur != nil && (*t.Blur < 0 || math.IsNaN(*t.Blur)) {
		problems = append(problems, fmt.Sprintf("blur sigma cannot be negative, got %v", *t.Blur))
	}
	if t.Rotate != nil && (math.IsNaN(*t.Rotate) || math.IsInf(*t.Rotate, 0)) {
		problems = append(problems, "rotate must be a finite number of degrees")
	}

	if len(problems) > 0 {
		return NewError(ErrInvalidArgument, "transform", fmt.Errorf("%s", strings.Join(problems, ", ")))
	}
	return nil
}

// ActiveVideoOptions returns the number of video filters the spec enables.
// Brightness and contrast count once because they share a filter.
func (t TransformationSpec) ActiveVideoOptions() int {
	n := 0
	for _, on := range []bool{
		t.FlipHorizontal,
		t.FlipVertical,
		t.Scale != nil,
		t.Rotate != nil,
		t.Brightness != nil || t.Contrast != nil,
		t.Blur != nil,
		t.Speed != nil,
	} {
		if on {
			n++
		}
	}
	return n
}

// ActiveAudioOptions returns the number of audio filters the spec enables.
func (t TransformationSpec) ActiveAudioOptions() int {
	n := 0
	if t.Pitch != nil {
		n++
	}
	if t.Speed != nil {
		n++
	}
	return n
}

// IsIdentity reports whether the spec applies no transformation at all.
func (t TransformationSpec) IsIdentity() bool {
	return t.ActiveVideoOptions() == 0 && t.ActiveAudioOptions() == 0
}

// Merge returns a copy of t with every field set in override applied on top.
func (t TransformationSpec) Merge(override TransformationSpec) TransformationSpec {
	out := t
	out.FlipHorizontal = t.FlipHorizontal || override.FlipHorizontal
	out.FlipVertical = t.FlipVertical || override.FlipVertical
	pick := func(base, over *float64) *float64 {
		if over != nil {
			return Float(*over)
		}
		if base != nil {
			return Float(*base)
		}
		return nil
	}
	out.Scale = pick(t.Scale, override.Scale)
	out.Rotate = pick(t.Rotate, override.Rotate)
	out.Brightness = pick(t.Brightness, override.Brightness)
	out.Contrast = pick(t.Contrast, override.Contrast)
	out.Blur = pick(t.Blur, override.Blur)
	out.Speed = pick(t.Speed, override.Speed)
	out.Pitch = pick(t.Pitch, override.Pitch)
	return out
}
