// Package synthetic generates plausible climate series without any network
// access. Trend shape is fully determined by the inputs; the random source
// only contributes bounded noise.
package synthetic

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// Name is reported as the provider of every generated series.
const Name = "synthetic"

const (
	minYear     = 1750
	maxYear     = 2200
	maxHistory  = 366 * 24 * time.Hour
	goldenRatio = 0x9e3779b97f4a7c15
)

// ErrUnsupportedRange is returned for year or time ranges the model does not cover.
var ErrUnsupportedRange = errors.New("synthetic: unsupported range")

// Generator implements every climate source interface with generated data.
// It is safe for concurrent use.
type Generator struct {
	seed uint64

	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// New returns a generator whose noise is reproducible for a given seed.
func New(seed uint64) *Generator {
	return &Generator{
		seed: seed,
		rnd:  rand.New(rand.NewPCG(seed, seed^goldenRatio)),
		now:  time.Now,
	}
}

// NewRandom returns a generator seeded from the clock.
func NewRandom() *Generator {
	return New(uint64(time.Now().UnixNano()))
}

func (g *Generator) Name() string {
	return Name
}

// uniform returns a value in [lo, hi).
func (g *Generator) uniform(lo, hi float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.rnd.Float64()*(hi-lo)
}

func checkYears(startYear, endYear int) error {
	if startYear > endYear || startYear < minYear || endYear > maxYear {
		return ErrUnsupportedRange
	}
	return nil
}

// lerp interpolates piecewise-linearly over points sorted by x, clamping
// outside the covered range.
func lerp(points [][2]float64, x float64) float64 {
	if x <= points[0][0] {
		return points[0][1]
	}
	for i := 1; i < len(points); i++ {
		if x <= points[i][0] {
			x0, y0 := points[i-1][0], points[i-1][1]
			x1, y1 := points[i][0], points[i][1]
			return y0 + (y1-y0)*(x-x0)/(x1-x0)
		}
	}
	return points[len(points)-1][1]
}
