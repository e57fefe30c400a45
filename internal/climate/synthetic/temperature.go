package synthetic

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// warmingEras is the empirical warming rate in °C per year, starting at year.
var warmingEras = []struct {
	from int
	rate float64
}{
	{minYear, 0.001},
	{1880, 0.005},
	{1940, 0.002},
	{1975, 0.017},
	{2000, 0.022},
}

const (
	referenceStart = 1951
	referenceEnd   = 1980
	noiseAmplitude = 0.1
	cycleAmplitude = 0.05
)

// baselineByLatitude is the local mean temperature in °C by |lat|.
var baselineByLatitude = [][2]float64{
	{0, 27},
	{23.5, 24},
	{45, 12},
	{60, 3},
	{75, -10},
	{90, -20},
}

// amplificationByLatitude scales the global trend by |lat|; high latitudes
// warm faster than the tropics.
var amplificationByLatitude = [][2]float64{
	{0, 0.8},
	{23.5, 0.8},
	{45, 1.0},
	{60, 1.6},
	{66.5, 2.5},
	{90, 2.5},
}

// cumulativeWarming integrates the era rates from the first era to year.
func cumulativeWarming(year float64) float64 {
	var total float64
	for i, era := range warmingEras {
		start := float64(era.from)
		if year <= start {
			break
		}
		end := year
		if i+1 < len(warmingEras) && float64(warmingEras[i+1].from) < end {
			end = float64(warmingEras[i+1].from)
		}
		total += (end - start) * era.rate
	}
	return total
}

// referenceWarming is the mean cumulative warming over the reference period.
func referenceWarming() float64 {
	var sum float64
	for y := referenceStart; y <= referenceEnd; y++ {
		sum += cumulativeWarming(float64(y))
	}
	return sum / float64(referenceEnd-referenceStart+1)
}

// TrendAnomaly is the noise-free anomaly for a year at a latitude, relative to
// the 1951-1980 mean.
func TrendAnomaly(lat float64, year int) float64 {
	amp := lerp(amplificationByLatitude, math.Abs(lat))
	return amp * (cumulativeWarming(float64(year)) - referenceWarming())
}

// Baseline is the local reference temperature for a latitude.
func Baseline(lat float64) float64 {
	return lerp(baselineByLatitude, math.Abs(lat))
}

// Temperature implements climate.TemperatureSource. The world sentinel
// location (0,0) uses the global baseline and an amplification of 1.
// Year-to-year variability is shared by all latitudes, so the difference
// between two locations is pure trend and polar series always warm faster.
func (g *Generator) Temperature(ctx context.Context, loc climate.Location, startYear, endYear int) ([]climate.TemperatureSample, error) {
	if err := checkYears(startYear, endYear); err != nil {
		return nil, err
	}

	baseline := Baseline(loc.Lat)
	amp := 1.0
	if !loc.IsGlobal() {
		amp = lerp(amplificationByLatitude, math.Abs(loc.Lat))
	} else {
		baseline = climate.BaselineTemperatureC
	}
	ref := referenceWarming()

	out := make([]climate.TemperatureSample, 0, endYear-startYear+1)
	for year := startYear; year <= endYear; year++ {
		trend := amp * (cumulativeWarming(float64(year)) - ref)
		temp := round4(baseline + trend + g.variability(year))
		out = append(out, climate.NewTemperatureSample(year, temp))
	}
	return out, nil
}

// variability is the interannual wiggle for a year. It depends only on the
// seed and the year.
func (g *Generator) variability(year int) float64 {
	r := rand.New(rand.NewPCG(g.seed, uint64(year)^goldenRatio))
	return math.Sin(float64(year)/5)*cycleAmplitude + (2*r.Float64()-1)*noiseAmplitude
}

// round4 keeps enough precision that rounding never outweighs the trend
// difference between latitude bands.
func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
