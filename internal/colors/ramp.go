// Package colors maps climate values to RGB colors for the globe overlays.
package colors

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/i474232898/climate-data-aggregation/internal/common"
)

// ErrUnknownKind is returned for a color scale that does not exist.
var ErrUnknownKind = errors.New("unknown color scale")

// RGB holds channels in [0, 1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

// CSS renders the color as rgb(r, g, b).
func (c RGB) CSS() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	return int(math.Round(common.Clamp(v, 0, 1) * 255))
}

// Interpolate blends a towards b; t is clamped to [0, 1].
func Interpolate(a, b RGB, t float64) RGB {
	t = common.Clamp(t, 0, 1)
	return RGB{
		R: common.Lerp(a.R, b.R, t),
		G: common.Lerp(a.G, b.G, t),
		B: common.Lerp(a.B, b.B, t),
	}
}

// Stop is a color pinned at a value.
type Stop struct {
	At    float64
	Color RGB
}

// Ramp interpolates linearly between ordered stops and clamps outside them.
type Ramp struct {
	stops []Stop
}

// NewRamp builds a ramp. Stops are sorted by value; at least two are needed.
func NewRamp(stops ...Stop) (Ramp, error) {
	if len(stops) < 2 {
		return Ramp{}, errors.New("ramp needs at least two stops")
	}
	sorted := make([]Stop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].At == sorted[i-1].At {
			return Ramp{}, fmt.Errorf("duplicate stop at %v", sorted[i].At)
		}
	}
	return Ramp{stops: sorted}, nil
}

func mustRamp(stops ...Stop) Ramp {
	r, err := NewRamp(stops...)
	if err != nil {
		panic(err)
	}
	return r
}

// Min is the value of the first stop.
func (r Ramp) Min() float64 { return r.stops[0].At }

// Max is the value of the last stop.
func (r Ramp) Max() float64 { return r.stops[len(r.stops)-1].At }

// At returns the color for x.
func (r Ramp) At(x float64) RGB {
	if math.IsNaN(x) || x <= r.stops[0].At {
		return r.stops[0].Color
	}
	for i := 1; i < len(r.stops); i++ {
		hi := r.stops[i]
		if x <= hi.At {
			lo := r.stops[i-1]
			return Interpolate(lo.Color, hi.Color, (x-lo.At)/(hi.At-lo.At))
		}
	}
	return r.stops[len(r.stops)-1].Color
}

// Stops returns a copy of the ramp's stops.
func (r Ramp) Stops() []Stop {
	out := make([]Stop, len(r.stops))
	copy(out, r.stops)
	return out
}
