package climate

import (
	"context"
	"errors"
	"strings"
)

// ChainGeocoder asks each geocoder in turn. The first name found wins; later
// geocoders are still consulted while the country code is unknown.
type ChainGeocoder []Geocoder

func (c ChainGeocoder) Name() string {
	names := make([]string, 0, len(c))
	for _, g := range c {
		names = append(names, g.Name())
	}
	return strings.Join(names, ">")
}

func (c ChainGeocoder) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	var (
		place Place
		errs  []error
	)
	for _, g := range c {
		p, err := g.Reverse(ctx, lat, lon)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if place.Name == "" {
			place.Name = p.Name
		}
		if place.CountryCode == "" {
			place.CountryCode = p.CountryCode
		}
		if place.Name != "" && place.CountryCode != "" {
			return place, nil
		}
	}
	if place.Name != "" || place.CountryCode != "" {
		return place, nil
	}
	if len(errs) == 0 {
		return Place{}, ErrNotConfigured
	}
	return Place{}, errors.Join(errs...)
}
