package climate

import (
	"context"
	"errors"
	"testing"
)

type stubGeocoder struct {
	name  string
	place Place
	err   error
	calls *int
}

func (s stubGeocoder) Name() string { return s.name }

func (s stubGeocoder) Reverse(context.Context, float64, float64) (Place, error) {
	if s.calls != nil {
		*s.calls++
	}
	return s.place, s.err
}

func TestChainGeocoderMergesPlaces(t *testing.T) {
	var calls int
	chain := ChainGeocoder{
		stubGeocoder{name: "google", place: Place{Name: "Paris, France"}},
		stubGeocoder{name: "nominatim", place: Place{Name: "Paris", CountryCode: "FRA"}},
		stubGeocoder{name: "unused", calls: &calls},
	}

	place, err := chain.Reverse(context.Background(), 48.85, 2.35)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Name != "Paris, France" || place.CountryCode != "FRA" {
		t.Fatalf("unexpected place: %+v", place)
	}
	if calls != 0 {
		t.Fatal("expected the chain to stop once the place is complete")
	}
	if chain.Name() != "google>nominatim>unused" {
		t.Fatalf("unexpected name %q", chain.Name())
	}
}

func TestChainGeocoderSkipsFailures(t *testing.T) {
	chain := ChainGeocoder{
		stubGeocoder{name: "google", err: errUpstream},
		stubGeocoder{name: "nominatim", place: Place{Name: "Jakarta, Indonesia", CountryCode: "IDN"}},
	}
	place, err := chain.Reverse(context.Background(), -6.2, 106.8)
	if err != nil || place.CountryCode != "IDN" {
		t.Fatalf("expected the second geocoder to answer, got %+v %v", place, err)
	}

	partial := ChainGeocoder{
		stubGeocoder{name: "google", place: Place{Name: "Somewhere"}},
		stubGeocoder{name: "nominatim", err: errUpstream},
	}
	place, err = partial.Reverse(context.Background(), 0, 1)
	if err != nil || place.Name != "Somewhere" {
		t.Fatalf("expected a partial place, got %+v %v", place, err)
	}
}

func TestChainGeocoderJoinsErrors(t *testing.T) {
	other := errors.New("quota exceeded")
	chain := ChainGeocoder{
		stubGeocoder{name: "google", err: other},
		stubGeocoder{name: "nominatim", err: errUpstream},
	}
	_, err := chain.Reverse(context.Background(), 10, 10)
	if !errors.Is(err, other) || !errors.Is(err, errUpstream) {
		t.Fatalf("expected both errors, got %v", err)
	}

	if _, err := (ChainGeocoder{}).Reverse(context.Background(), 10, 10); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for an empty chain, got %v", err)
	}
}
