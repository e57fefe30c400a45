package climate

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNotConfigured is reported when no live source is wired for a feed.
var ErrNotConfigured = errors.New("live source not configured")

// errEmptyResult marks a live response that parsed but carried no samples.
var errEmptyResult = errors.New("empty result")

// The Fallback* types pair a live source with a synthetic one. They are the
// only place where live data is swapped for generated data, and every swap is
// logged and reported in the returned SourceOutcome.

// FallbackTemperature tries Live and falls back to Synthetic.
type FallbackTemperature struct {
	Live      TemperatureSource
	Synthetic TemperatureSource
	Logger    *slog.Logger
}

func (f *FallbackTemperature) Name() string {
	return nameOf(f.Live, f.Synthetic)
}

// Fetch returns the series and where it came from. An error is returned only
// when the synthetic source fails too.
func (f *FallbackTemperature) Fetch(ctx context.Context, loc Location, startYear, endYear int) ([]TemperatureSample, SourceOutcome, error) {
	if f.Live != nil {
		data, err := f.Live.Temperature(ctx, loc, startYear, endYear)
		if err == nil && len(data) == 0 {
			err = errEmptyResult
		}
		if err == nil {
			return data, liveOutcome(FeedTemperature, f.Live.Name()), nil
		}
		warnFallback(f.Logger, FeedTemperature, f.Live.Name(), err, "location", loc.Key())
		data, serr := f.Synthetic.Temperature(ctx, loc, startYear, endYear)
		return data, syntheticOutcome(FeedTemperature, f.Synthetic.Name(), err), serr
	}
	data, err := f.Synthetic.Temperature(ctx, loc, startYear, endYear)
	return data, syntheticOutcome(FeedTemperature, f.Synthetic.Name(), ErrNotConfigured), err
}

// Temperature implements TemperatureSource.
func (f *FallbackTemperature) Temperature(ctx context.Context, loc Location, startYear, endYear int) ([]TemperatureSample, error) {
	data, _, err := f.Fetch(ctx, loc, startYear, endYear)
	return data, err
}

// FallbackCO2 tries Live and falls back to Synthetic.
type FallbackCO2 struct {
	Live      CO2Source
	Synthetic CO2Source
	Logger    *slog.Logger
}

func (f *FallbackCO2) Name() string {
	return nameOf(f.Live, f.Synthetic)
}

func (f *FallbackCO2) Fetch(ctx context.Context, countryCode string, startYear, endYear int) ([]CO2Sample, SourceOutcome, error) {
	if f.Live != nil {
		data, err := f.Live.CO2(ctx, countryCode, startYear, endYear)
		if err == nil && len(data) == 0 {
			err = errEmptyResult
		}
		if err == nil {
			return data, liveOutcome(FeedCO2, f.Live.Name()), nil
		}
		warnFallback(f.Logger, FeedCO2, f.Live.Name(), err, "country", countryCode)
		data, serr := f.Synthetic.CO2(ctx, countryCode, startYear, endYear)
		return data, syntheticOutcome(FeedCO2, f.Synthetic.Name(), err), serr
	}
	data, err := f.Synthetic.CO2(ctx, countryCode, startYear, endYear)
	return data, syntheticOutcome(FeedCO2, f.Synthetic.Name(), ErrNotConfigured), err
}

// CO2 implements CO2Source.
func (f *FallbackCO2) CO2(ctx context.Context, countryCode string, startYear, endYear int) ([]CO2Sample, error) {
	data, _, err := f.Fetch(ctx, countryCode, startYear, endYear)
	return data, err
}

// FallbackPollution tries Live and falls back to Synthetic.
type FallbackPollution struct {
	Live      PollutionSource
	Synthetic PollutionSource
	Logger    *slog.Logger
}

func (f *FallbackPollution) Name() string {
	return nameOf(f.Live, f.Synthetic)
}

func (f *FallbackPollution) Fetch(ctx context.Context, loc Location) (PollutionSample, SourceOutcome, error) {
	if f.Live != nil {
		data, err := f.Live.Pollution(ctx, loc)
		if err == nil {
			return data, liveOutcome(FeedPollution, f.Live.Name()), nil
		}
		warnFallback(f.Logger, FeedPollution, f.Live.Name(), err, "location", loc.Key())
		data, serr := f.Synthetic.Pollution(ctx, loc)
		return data, syntheticOutcome(FeedPollution, f.Synthetic.Name(), err), serr
	}
	data, err := f.Synthetic.Pollution(ctx, loc)
	return data, syntheticOutcome(FeedPollution, f.Synthetic.Name(), ErrNotConfigured), err
}

// Pollution implements PollutionSource.
func (f *FallbackPollution) Pollution(ctx context.Context, loc Location) (PollutionSample, error) {
	data, _, err := f.Fetch(ctx, loc)
	return data, err
}

// FallbackPollutionHistory tries Live and falls back to Synthetic.
type FallbackPollutionHistory struct {
	Live      PollutionHistorySource
	Synthetic PollutionHistorySource
	Logger    *slog.Logger
}

func (f *FallbackPollutionHistory) Name() string {
	return nameOf(f.Live, f.Synthetic)
}

func (f *FallbackPollutionHistory) Fetch(ctx context.Context, loc Location, from, to time.Time) ([]PollutionSample, SourceOutcome, error) {
	if f.Live != nil {
		data, err := f.Live.PollutionHistory(ctx, loc, from, to)
		if err == nil && len(data) == 0 {
			err = errEmptyResult
		}
		if err == nil {
			return data, liveOutcome(FeedPollution, f.Live.Name()), nil
		}
		warnFallback(f.Logger, FeedPollution, f.Live.Name(), err, "location", loc.Key())
		data, serr := f.Synthetic.PollutionHistory(ctx, loc, from, to)
		return data, syntheticOutcome(FeedPollution, f.Synthetic.Name(), err), serr
	}
	data, err := f.Synthetic.PollutionHistory(ctx, loc, from, to)
	return data, syntheticOutcome(FeedPollution, f.Synthetic.Name(), ErrNotConfigured), err
}

// PollutionHistory implements PollutionHistorySource.
func (f *FallbackPollutionHistory) PollutionHistory(ctx context.Context, loc Location, from, to time.Time) ([]PollutionSample, error) {
	data, _, err := f.Fetch(ctx, loc, from, to)
	return data, err
}

type named interface{ Name() string }

func nameOf(live, synthetic named) string {
	if live != nil {
		return live.Name() + "+" + synthetic.Name()
	}
	return synthetic.Name()
}

func liveOutcome(feed Feed, provider string) SourceOutcome {
	return SourceOutcome{Feed: feed, Provider: provider, Live: true}
}

func syntheticOutcome(feed Feed, provider string, cause error) SourceOutcome {
	o := SourceOutcome{Feed: feed, Provider: provider}
	if cause != nil {
		o.Error = cause.Error()
	}
	return o
}

// warnFallback logs one live-to-synthetic swap. attrs name what was asked
// for: a location key or a country code.
func warnFallback(logger *slog.Logger, feed Feed, provider string, err error, attrs ...any) {
	if logger == nil {
		return
	}
	args := append([]any{"feed", feed, "provider", provider}, attrs...)
	logger.Warn("falling back to synthetic data", append(args, "error", err)...)
}
