package synthetic

import (
	"context"
	"math"
	"time"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/common"
)

// hotspot is a coarse bounding box with a typical AQI.
type hotspot struct {
	name           string
	minLat, maxLat float64
	minLon, maxLon float64
	aqi            float64
}

func (h hotspot) contains(lat, lon float64) bool {
	return lat >= h.minLat && lat <= h.maxLat && lon >= h.minLon && lon <= h.maxLon
}

// hotspots are checked in order; the first match wins.
var hotspots = []hotspot{
	{"arctic", 66.5, 90, -180, 180, 15},
	{"antarctic", -90, -60, -180, 180, 10},
	{"south-asia", 8, 35, 68, 92, 160},
	{"east-asia", 20, 45, 100, 125, 120},
	{"southeast-asia", -10, 20, 95, 125, 95},
	{"middle-east-sahara", 12, 38, -15, 60, 110},
	{"central-africa", -10, 12, -18, 35, 85},
	{"europe", 35, 66.5, -10, 40, 45},
	{"north-america", 25, 66.5, -130, -60, 40},
	{"latin-america", -35, 25, -90, -35, 55},
}

const (
	defaultAQI     = 25
	aqiNoise       = 0.15
	pollutantNoise = 0.10
	diurnalSwing   = 0.15
)

// BaseAQI returns the typical AQI for a coordinate and the hotspot name.
func BaseAQI(lat, lon float64) (float64, string) {
	for _, h := range hotspots {
		if h.contains(lat, lon) {
			return h.aqi, h.name
		}
	}
	return defaultAQI, "background"
}

// Pollution implements climate.PollutionSource.
func (g *Generator) Pollution(ctx context.Context, loc climate.Location) (climate.PollutionSample, error) {
	base, _ := BaseAQI(loc.Lat, loc.Lon)
	aqi := base * (1 + g.uniform(-aqiNoise, aqiNoise))
	return g.sample(g.now(), aqi), nil
}

// PollutionHistory implements climate.PollutionHistorySource with an hourly
// series including a diurnal cycle peaking in the morning rush hour.
func (g *Generator) PollutionHistory(ctx context.Context, loc climate.Location, from, to time.Time) ([]climate.PollutionSample, error) {
	if to.Before(from) || to.Sub(from) > maxHistory {
		return nil, ErrUnsupportedRange
	}
	base, _ := BaseAQI(loc.Lat, loc.Lon)

	out := make([]climate.PollutionSample, 0, int(to.Sub(from)/time.Hour)+1)
	for ts := from; !ts.After(to); ts = ts.Add(time.Hour) {
		hour := float64(ts.UTC().Hour()) + loc.Lon/15
		cycle := 1 + diurnalSwing*math.Sin(2*math.Pi*(hour-2)/24)
		aqi := base * cycle * (1 + g.uniform(-aqiNoise, aqiNoise))
		out = append(out, g.sample(ts, aqi))
	}
	return out, nil
}

func (g *Generator) sample(ts time.Time, aqi float64) climate.PollutionSample {
	aqi = math.Max(0, math.Min(500, aqi))
	jitter := func(v float64) float64 {
		return common.Round2(v * (1 + g.uniform(-pollutantNoise, pollutantNoise)))
	}
	return climate.PollutionSample{
		Timestamp: ts.UnixMilli(),
		AQI:       int(math.Round(aqi)),
		PM25:      jitter(aqi * 0.35),
		PM10:      jitter(aqi * 0.6),
		CO:        jitter(200 + aqi*3),
		NO2:       jitter(8 + aqi*0.25),
		O3:        jitter(40 + aqi*0.3),
		SO2:       jitter(3 + aqi*0.1),
	}
}
