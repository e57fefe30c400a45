package climate

import (
	"context"
	"time"
)

// TemperatureSource yields a yearly temperature series for a location.
type TemperatureSource interface {
	Name() string
	Temperature(ctx context.Context, loc Location, startYear, endYear int) ([]TemperatureSample, error)
}

// CO2Source yields yearly per-capita emissions for a country code.
type CO2Source interface {
	Name() string
	CO2(ctx context.Context, countryCode string, startYear, endYear int) ([]CO2Sample, error)
}

// PollutionSource yields the current air quality at a location.
type PollutionSource interface {
	Name() string
	Pollution(ctx context.Context, loc Location) (PollutionSample, error)
}

// PollutionHistorySource yields an hourly air quality series.
type PollutionHistorySource interface {
	Name() string
	PollutionHistory(ctx context.Context, loc Location, from, to time.Time) ([]PollutionSample, error)
}

// Place is the result of reverse geocoding.
type Place struct {
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"` // ISO alpha-3, empty if unknown
}

// Geocoder resolves coordinates to a place.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, lat, lon float64) (Place, error)
}

// OutcomeRecorder receives the per-feed outcomes of every aggregate request.
type OutcomeRecorder interface {
	RecordOutcomes(ctx context.Context, recordID string, loc Location, outcomes []SourceOutcome) error
}

// DegradationPublisher is notified when a record contains synthetic data.
type DegradationPublisher interface {
	PublishDegraded(ctx context.Context, record ClimateRecord) error
}

// StatusStore keeps the probe history of upstream sources.
type StatusStore interface {
	SaveStatus(status SourceStatus)
	GetLatest(name string) (SourceStatus, error)
	GetAllLatest() []SourceStatus
	GetRange(name string, from, to time.Time) ([]SourceStatus, error)
}
