package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/common"
)

// DefaultUserAgent identifies this service to Nominatim, whose usage policy
// requires one.
const DefaultUserAgent = "climate-data-aggregation/1.0"

var errNoPlace = errors.New("no place at coordinates")

// NominatimGeocoder implements climate.Geocoder with OpenStreetMap Nominatim.
type NominatimGeocoder struct {
	name    string
	baseURL string
	up      *upstream
}

func NewNominatimGeocoder(client *http.Client, userAgent string, logger *slog.Logger) *NominatimGeocoder {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	up := newUpstream("nominatim", client, logger)
	up.userAgent = userAgent
	// Nominatim allows one request per second; do not hammer it with retries.
	up.backoff.MaxRetries = 0
	return &NominatimGeocoder{
		name:    "nominatim",
		baseURL: "https://nominatim.openstreetmap.org/reverse",
		up:      up,
	}
}

func (g *NominatimGeocoder) Name() string {
	return g.name
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) (climate.Place, error) {
	values := url.Values{}
	values.Set("format", "jsonv2")
	values.Set("lat", strconv.FormatFloat(lat, 'f', 5, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', 5, 64))
	values.Set("zoom", "10")
	values.Set("accept-language", "en")

	var payload struct {
		Error       string `json:"error"`
		DisplayName string `json:"display_name"`
		Address     struct {
			City        string `json:"city"`
			Town        string `json:"town"`
			Village     string `json:"village"`
			County      string `json:"county"`
			State       string `json:"state"`
			Country     string `json:"country"`
			CountryCode string `json:"country_code"`
		} `json:"address"`
	}
	if err := g.up.getJSON(ctx, g.baseURL+"?"+values.Encode(), &payload); err != nil {
		return climate.Place{}, err
	}
	if payload.Error != "" {
		if common.HasAny(payload.Error, "unable to geocode", "not found") {
			return climate.Place{}, fmt.Errorf("%s: %w", g.name, errNoPlace)
		}
		return climate.Place{}, fmt.Errorf("%s: %s", g.name, payload.Error)
	}

	a := payload.Address
	name := firstNonEmpty(a.City, a.Town, a.Village, a.County, a.State, a.Country)
	if name == "" {
		name = payload.DisplayName
	}
	if name == "" {
		return climate.Place{}, fmt.Errorf("%s: %w", g.name, errNoPlace)
	}
	if a.Country != "" && name != a.Country {
		name = name + ", " + a.Country
	}
	return climate.Place{
		Name:        name,
		CountryCode: Alpha3(a.CountryCode),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
