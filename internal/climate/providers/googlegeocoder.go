package providers

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// GoogleGeocoder implements climate.Geocoder with the Google Geocoding API.
// Google returns country names, not codes; CountryCode is derived from the
// name and left empty when the name is not a recognised country.
type GoogleGeocoder struct {
	name    string
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder sets the package-level key of kelvins/geocoder; only one
// key per process is supported.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		name:    "google-geocoding",
		reverse: geocoder.GeocodingReverse,
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

// Reverse runs the blocking library call in a goroutine so ctx is honoured.
func (g *GoogleGeocoder) Reverse(ctx context.Context, lat, lon float64) (climate.Place, error) {
	type result struct {
		addresses []geocoder.Address
		err       error
	}
	done := make(chan result, 1)
	go func() {
		addresses, err := g.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
		done <- result{addresses, err}
	}()

	select {
	case <-ctx.Done():
		return climate.Place{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return climate.Place{}, fmt.Errorf("%s: %w", g.name, r.err)
		}
		if len(r.addresses) == 0 {
			return climate.Place{}, fmt.Errorf("%s: %w", g.name, errNoPlace)
		}
		a := r.addresses[0]
		name := firstNonEmpty(a.City, a.County, a.State, a.Country)
		if name == "" {
			name = a.FormattedAddress
		}
		if a.Country != "" && name != a.Country {
			name = name + ", " + a.Country
		}
		return climate.Place{Name: name, CountryCode: Alpha3(a.Country)}, nil
	}
}
