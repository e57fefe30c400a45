package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// OpenWeatherProvider implements climate.PollutionSource and
// climate.PollutionHistorySource for the OpenWeatherMap air pollution API.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	up      *upstream
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, logger *slog.Logger) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/air_pollution",
		up:      newUpstream("openweathermap", client, logger),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmPollutionPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			CO   float64 `json:"co"`
			NO2  float64 `json:"no2"`
			O3   float64 `json:"o3"`
			SO2  float64 `json:"so2"`
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
		} `json:"components"`
	} `json:"list"`
}

func (p *OpenWeatherProvider) query(loc climate.Location) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
	values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', 4, 64))
	values.Set("appid", p.apiKey)
	return values
}

// Pollution returns the current air quality snapshot.
func (p *OpenWeatherProvider) Pollution(ctx context.Context, loc climate.Location) (climate.PollutionSample, error) {
	if p.apiKey == "" {
		return climate.PollutionSample{}, fmt.Errorf("%s: %w", p.name, errMissingAPIKey)
	}

	var payload owmPollutionPayload
	if err := p.up.getJSON(ctx, p.baseURL+"?"+p.query(loc).Encode(), &payload); err != nil {
		return climate.PollutionSample{}, err
	}
	samples := payload.samples()
	if len(samples) == 0 {
		return climate.PollutionSample{}, fmt.Errorf("%s: %w: empty list", p.name, errEmptyReply)
	}
	return samples[0], nil
}

// PollutionHistory returns the hourly series between from and to.
func (p *OpenWeatherProvider) PollutionHistory(ctx context.Context, loc climate.Location, from, to time.Time) ([]climate.PollutionSample, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", p.name, errMissingAPIKey)
	}

	values := p.query(loc)
	values.Set("start", strconv.FormatInt(from.Unix(), 10))
	values.Set("end", strconv.FormatInt(to.Unix(), 10))

	var payload owmPollutionPayload
	if err := p.up.getJSON(ctx, p.baseURL+"/history?"+values.Encode(), &payload); err != nil {
		return nil, err
	}
	samples := payload.samples()
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w: empty history", p.name, errEmptyReply)
	}
	return samples, nil
}

// samples normalizes the list. OWM's 1-5 index is kept as OWMIndex while AQI
// is recomputed on the US 0-500 scale from PM2.5.
func (pl owmPollutionPayload) samples() []climate.PollutionSample {
	out := make([]climate.PollutionSample, 0, len(pl.List))
	for _, item := range pl.List {
		c := item.Components
		out = append(out, climate.PollutionSample{
			Timestamp: item.Dt * 1000,
			AQI:       climate.USAQIFromPM25(c.PM25),
			PM25:      c.PM25,
			PM10:      c.PM10,
			CO:        c.CO,
			NO2:       c.NO2,
			O3:        c.O3,
			SO2:       c.SO2,
			OWMIndex:  item.Main.AQI,
		})
	}
	return out
}
