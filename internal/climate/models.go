package climate

import (
	"fmt"
	"math"
	"time"
)

// BaselineTemperatureC is the 1951-1980 global mean used to derive anomalies.
const BaselineTemperatureC = 14.0

// Band is a coarse latitude band used to shape synthetic series.
type Band string

const (
	BandTropical  Band = "tropical"
	BandTemperate Band = "temperate"
	BandPolar     Band = "polar"
)

const (
	tropicalLimit = 23.5
	polarLimit    = 60.0
)

// Location is a point on the globe plus a human readable name.
type Location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"`

	// CountryCode is the ISO 3166 alpha-3 code used for country indicators.
	CountryCode string `json:"countryCode,omitempty"`
}

// Key returns a canonical string key for this location.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Lat, l.Lon)
}

// Band classifies the location by absolute latitude.
func (l Location) Band() Band {
	return BandFor(l.Lat)
}

// IsGlobal reports whether the location is the "whole world" sentinel (0,0).
func (l Location) IsGlobal() bool {
	return l.Lat == 0 && l.Lon == 0
}

// BandFor classifies a latitude.
func BandFor(lat float64) Band {
	abs := math.Abs(lat)
	switch {
	case abs < tropicalLimit:
		return BandTropical
	case abs > polarLimit:
		return BandPolar
	default:
		return BandTemperate
	}
}

// TemperatureSample is one yearly temperature reading.
type TemperatureSample struct {
	Year        int     `json:"year"`
	Temperature float64 `json:"temperature"` // °C
	Anomaly     float64 `json:"anomaly"`     // °C from BaselineTemperatureC
}

// NewTemperatureSample derives the anomaly from an absolute temperature. Every
// source builds samples through it so anomaly has one meaning.
func NewTemperatureSample(year int, tempC float64) TemperatureSample {
	return TemperatureSample{
		Year:        year,
		Temperature: tempC,
		Anomaly:     tempC - BaselineTemperatureC,
	}
}

// CO2Sample is one yearly per-capita emissions value for a country.
type CO2Sample struct {
	Year    int     `json:"year"`
	Value   float64 `json:"value"` // metric tons per capita
	Country string  `json:"country"`
}

// PollutionSample is an air quality snapshot. Concentrations are µg/m³.
type PollutionSample struct {
	Timestamp int64   `json:"timestamp"` // epoch ms
	AQI       int     `json:"aqi"`       // 0-500 US scale
	PM25      float64 `json:"pm25"`
	PM10      float64 `json:"pm10"`
	CO        float64 `json:"co"`
	NO2       float64 `json:"no2"`
	O3        float64 `json:"o3"`
	SO2       float64 `json:"so2"`

	// OWMIndex is OpenWeatherMap's own 1-5 index when the sample came from it.
	OWMIndex int `json:"owmIndex,omitempty"`
}

// Time returns the sample timestamp as a UTC time.
func (p PollutionSample) Time() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// Summary holds statistics derived from a record's raw series.
type Summary struct {
	AvgTemperature    float64 `json:"avgTemperature"`
	TemperatureChange float64 `json:"temperatureChange"`
	CurrentCO2        float64 `json:"currentCO2"`
	CO2Growth         float64 `json:"co2Growth"`
	AirQuality        string  `json:"airQuality"`
}

// Feed names a kind of input series.
type Feed string

const (
	FeedTemperature Feed = "temperature"
	FeedCO2         Feed = "co2"
	FeedPollution   Feed = "pollution"
	FeedGeocoding   Feed = "geocoding"
)

// SourceOutcome describes where one feed of a record came from.
type SourceOutcome struct {
	Feed     Feed   `json:"feed"`
	Provider string `json:"provider"`
	Live     bool   `json:"live"`
	Error    string `json:"error,omitempty"`
}

// ClimateRecord is the per-location aggregate built for one request.
type ClimateRecord struct {
	ID          string              `json:"id"`
	Location    Location            `json:"location"`
	Temperature []TemperatureSample `json:"temperature"`
	CO2         []CO2Sample         `json:"co2"`
	Pollution   PollutionSample     `json:"pollution"`
	Summary     Summary             `json:"summary"`
	Sources     []SourceOutcome     `json:"sources"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// Degraded reports whether any feed was substituted by synthetic data.
func (r ClimateRecord) Degraded() bool {
	for _, s := range r.Sources {
		if !s.Live && s.Feed != FeedGeocoding {
			return true
		}
	}
	return false
}

// SourceStatus is the result of probing one live upstream.
type SourceStatus struct {
	Name      string        `json:"name"`
	Feed      Feed          `json:"feed"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latencyNs"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checkedAt"` // always UTC
}
