package synthetic

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// slope is the least-squares warming rate in °C per year.
func slope(samples []climate.TemperatureSample) float64 {
	n := float64(len(samples))
	var sx, sy, sxx, sxy float64
	for _, s := range samples {
		x, y := float64(s.Year), s.Temperature
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	return (n*sxy - sx*sy) / (n*sxx - sx*sx)
}

func TestPolarWarmsFasterThanTropics(t *testing.T) {
	ctx := context.Background()
	ranges := []struct{ start, end int }{
		{1750, 1752},
		{1800, 1805},
		{1940, 1945},
		{1950, 1960},
		{1965, 1975},
		{1940, 1975},
		{2015, 2020},
		{1960, 2020},
	}
	pairs := []struct{ polar, tropical float64 }{
		{75, 5},
		{-70, 10},
		{62, -20},
	}

	for seed := uint64(0); seed < 200; seed++ {
		g := New(seed)
		for _, r := range ranges {
			for _, p := range pairs {
				polar, err := g.Temperature(ctx, climate.Location{Lat: p.polar, Lon: 20}, r.start, r.end)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				tropical, err := g.Temperature(ctx, climate.Location{Lat: p.tropical, Lon: 20}, r.start, r.end)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if ps, ts := slope(polar), slope(tropical); ps <= ts {
					t.Fatalf("seed %d, %d-%d, lat %.0f vs %.0f: polar slope %.5f <= tropical slope %.5f",
						seed, r.start, r.end, p.polar, p.tropical, ps, ts)
				}
			}
		}
	}

	g := New(1)
	tropical, _ := g.Temperature(ctx, climate.Location{Lat: 5, Lon: 20}, 1960, 2020)
	if slope(tropical) <= 0 {
		t.Fatalf("expected warming in the tropics, got slope %.4f", slope(tropical))
	}
	if TrendAnomaly(75, 2020) <= TrendAnomaly(5, 2020) {
		t.Fatal("expected amplified trend anomaly at high latitude")
	}
}

func TestAnomalyIsRelativeToGlobalBaseline(t *testing.T) {
	ctx := context.Background()
	for _, loc := range []climate.Location{
		{Lat: -6.2, Lon: 106.8},
		{Lat: 78, Lon: 15},
		{},
	} {
		series, err := New(1).Temperature(ctx, loc, 2019, 2020)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, s := range series {
			if math.Abs(s.Anomaly-(s.Temperature-climate.BaselineTemperatureC)) > 1e-9 {
				t.Fatalf("%s %d: anomaly %.4f, temperature %.4f", loc.Key(), s.Year, s.Anomaly, s.Temperature)
			}
		}
	}
}

func TestTemperatureBaselineFollowsLatitude(t *testing.T) {
	if Baseline(0) <= Baseline(45) || Baseline(45) <= Baseline(80) {
		t.Fatalf("expected baselines to fall towards the poles: %.1f %.1f %.1f", Baseline(0), Baseline(45), Baseline(80))
	}
	if Baseline(-45) != Baseline(45) {
		t.Fatal("expected hemispheres to share baselines")
	}
}

func TestSameSeedIsReproducible(t *testing.T) {
	ctx := context.Background()
	loc := climate.Location{Lat: -6.2, Lon: 106.8}

	a, _ := New(42).Temperature(ctx, loc, 1990, 2000)
	b, _ := New(42).Temperature(ctx, loc, 1990, 2000)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical series for identical seeds")
	}

	c, _ := New(43).Temperature(ctx, loc, 1990, 2000)
	if reflect.DeepEqual(a, c) {
		t.Fatal("expected different noise for different seeds")
	}
}

func TestUnsupportedRanges(t *testing.T) {
	ctx := context.Background()
	g := New(1)

	cases := []struct{ start, end int }{
		{2000, 1990},
		{1700, 1800},
		{2000, 2300},
	}
	for _, c := range cases {
		if _, err := g.Temperature(ctx, climate.Location{}, c.start, c.end); !errors.Is(err, ErrUnsupportedRange) {
			t.Fatalf("temperature %d-%d: expected ErrUnsupportedRange, got %v", c.start, c.end, err)
		}
		if _, err := g.CO2(ctx, "USA", c.start, c.end); !errors.Is(err, ErrUnsupportedRange) {
			t.Fatalf("co2 %d-%d: expected ErrUnsupportedRange, got %v", c.start, c.end, err)
		}
	}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := g.PollutionHistory(ctx, climate.Location{}, from, from.Add(-time.Hour)); !errors.Is(err, ErrUnsupportedRange) {
		t.Fatalf("expected ErrUnsupportedRange for reversed history, got %v", err)
	}
	if _, err := g.PollutionHistory(ctx, climate.Location{}, from, from.AddDate(2, 0, 0)); !errors.Is(err, ErrUnsupportedRange) {
		t.Fatalf("expected ErrUnsupportedRange for long history, got %v", err)
	}
}

func TestCO2GrowsAndIsLabelled(t *testing.T) {
	ctx := context.Background()
	g := New(3)

	world, err := g.CO2(ctx, "WLD", 1960, 2020)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if world[0].Country != "World" {
		t.Fatalf("expected World label, got %q", world[0].Country)
	}
	if world[len(world)-1].Value <= world[0].Value {
		t.Fatalf("expected emissions to grow, got %.2f -> %.2f", world[0].Value, world[len(world)-1].Value)
	}

	idn, _ := g.CO2(ctx, "IDN", 2000, 2000)
	if len(idn) != 1 || idn[0].Country != "IDN" || idn[0].Value <= 0 {
		t.Fatalf("unexpected IDN series: %+v", idn)
	}
}

func TestPollutionHotspots(t *testing.T) {
	if _, region := BaseAQI(-6.2, 106.8); region != "southeast-asia" {
		t.Fatalf("expected Jakarta in southeast-asia, got %q", region)
	}
	if _, region := BaseAQI(78, 15); region != "arctic" {
		t.Fatalf("expected Svalbard in arctic, got %q", region)
	}
	if aqi, region := BaseAQI(-30, -140); region != "background" || aqi != defaultAQI {
		t.Fatalf("expected background over the Pacific, got %q %.0f", region, aqi)
	}

	g := New(5)
	ctx := context.Background()
	delhi, _ := g.Pollution(ctx, climate.Location{Lat: 28.6, Lon: 77.2})
	pacific, _ := g.Pollution(ctx, climate.Location{Lat: -30, Lon: -140})
	if delhi.AQI <= pacific.AQI {
		t.Fatalf("expected Delhi AQI %d above Pacific AQI %d", delhi.AQI, pacific.AQI)
	}
	if delhi.AQI < 0 || delhi.AQI > 500 || delhi.PM25 <= 0 {
		t.Fatalf("unexpected sample: %+v", delhi)
	}
}

func TestPollutionHistoryIsHourly(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	series, err := New(9).PollutionHistory(context.Background(), climate.Location{Lat: 51.5, Lon: 0}, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 25 {
		t.Fatalf("expected 25 hourly samples, got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		if series[i].Timestamp-series[i-1].Timestamp != time.Hour.Milliseconds() {
			t.Fatalf("expected hourly spacing at %d", i)
		}
	}
	if !series[0].Time().Equal(from) {
		t.Fatalf("expected first sample at %s, got %s", from, series[0].Time())
	}
}
