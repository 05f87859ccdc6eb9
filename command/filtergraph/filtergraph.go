// Package filtergraph maps a TransformationSpec onto ffmpeg video and audio
// filter chains.
//
// Build is a pure function: the same spec and options always produce the same
// graph, and nothing is validated here. Callers validate the spec first
// (models.TransformationSpec.Validate).
package filtergraph

import (
	"math"
	"strconv"
	"strings"

	"tubeforge/models"
)

// DefaultSampleRate is the audio sample rate assumed by the pitch filter when
// none is configured.
const DefaultSampleRate = 44100

// Filter is a single named ffmpeg filter with its parameter string.
type Filter struct {
	Name   string
	Params string
}

// String renders the filter as it appears in an ffmpeg filter chain.
func (f Filter) String() string {
	if f.Params == "" {
		return f.Name
	}
	return f.Name + "=" + f.Params
}

// Graph holds the ordered video and audio chains for one encode.
type Graph struct {
	Video []Filter
	Audio []Filter
}

// VideoChain returns the comma-joined video chain, "" when empty.
func (g Graph) VideoChain() string {
	return join(g.Video)
}

// AudioChain returns the comma-joined audio chain, "" when empty.
func (g Graph) AudioChain() string {
	return join(g.Audio)
}

// Empty reports whether neither stream is filtered.
func (g Graph) Empty() bool {
	return len(g.Video) == 0 && len(g.Audio) == 0
}

// Options holds stream properties the filters depend on.
type Options struct {
	SampleRate int // zero means DefaultSampleRate
}

// Build returns the filter graph for spec.
//
// Video filters are emitted in this order, one per active option:
// hflip, vflip, scale, rotate, eq (brightness and contrast share it), gblur,
// setpts. Audio filters are pitch (asetrate + aresample) then atempo.
// A speed factor therefore contributes one filter to each chain.
func Build(spec models.TransformationSpec, opts Options) Graph {
	rate := opts.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	var g Graph

	if spec.FlipHorizontal {
		g.Video = append(g.Video, Filter{Name: "hflip"})
	}
	if spec.FlipVertical {
		g.Video = append(g.Video, Filter{Name: "vflip"})
	}
	if spec.Scale != nil {
		// keep dimensions even, most encoders reject odd sizes
		f := num(*spec.Scale)
		g.Video = append(g.Video, Filter{
			Name:   "scale",
			Params: "trunc(iw*" + f + "/2)*2:trunc(ih*" + f + "/2)*2",
		})
	}
	if spec.Rotate != nil {
		g.Video = append(g.Video, Filter{Name: "rotate", Params: num(*spec.Rotate) + "*PI/180"})
	}
	if spec.Brightness != nil || spec.Contrast != nil {
		var params []string
		if spec.Brightness != nil {
			params = append(params, "brightness="+num(*spec.Brightness))
		}
		if spec.Contrast != nil {
			params = append(params, "contrast="+num(1+*spec.Contrast))
		}
		g.Video = append(g.Video, Filter{Name: "eq", Params: strings.Join(params, ":")})
	}
	if spec.Blur != nil {
		g.Video = append(g.Video, Filter{Name: "gblur", Params: "sigma=" + num(*spec.Blur)})
	}
	if spec.Speed != nil {
		g.Video = append(g.Video, Filter{Name: "setpts", Params: "PTS/" + num(*spec.Speed)})
	}

	if spec.Pitch != nil {
		// Resample trick: play at rate*pitch, then resample back to rate.
		// This shifts pitch and duration together, as intended.
		r := strconv.Itoa(rate)
		g.Audio = append(g.Audio, Filter{
			Name:   "asetrate",
			Params: r + "*" + num(*spec.Pitch) + ",aresample=" + r,
		})
	}
	if spec.Speed != nil {
		g.Audio = append(g.Audio, Filter{Name: "atempo", Params: num(*spec.Speed)})
	}

	return g
}

// num formats v with at most four decimals and no trailing zeros.
func num(v float64) string {
	r := math.Round(v*10000) / 10000
	if r == 0 {
		r = 0 // normalize -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func join(filters []Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}
