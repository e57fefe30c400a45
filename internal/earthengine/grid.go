package earthengine

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	h3 "github.com/uber/h3-go/v3"
)

const (
	DefaultGridResolution = 256
	maxGridCoordinates    = 1000
	maxGridLatitude       = 85.0
	gridCellResolution    = 2
)

var (
	// ErrInvalidDate is returned for a date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")
	// ErrInvalidResolution is returned for an unsupported grid size.
	ErrInvalidResolution = errors.New("resolution must be 256, 512 or 1024")

	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// GridPoint is one grid coordinate with the H3 cell that contains it.
type GridPoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Cell string  `json:"h3cell"`
}

// GridResponse is the NDVI grid scaffold. Coordinates are laid out but not
// yet filled with NDVI values.
type GridResponse struct {
	Type        string      `json:"type"`
	Resolution  int         `json:"resolution"`
	Date        string      `json:"date"`
	Coordinates []GridPoint `json:"coordinates"`
	Message     string      `json:"message"`
}

// Grid lays out an equirectangular grid of resolution x resolution/2 points,
// drops latitudes beyond ±85° and keeps the first 1000 coordinates.
// A zero resolution means DefaultGridResolution.
func Grid(date string, resolution int) (GridResponse, error) {
	if !datePattern.MatchString(date) {
		return GridResponse{}, ErrInvalidDate
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return GridResponse{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	switch resolution {
	case 0:
		resolution = DefaultGridResolution
	case 256, 512, 1024:
	default:
		return GridResponse{}, ErrInvalidResolution
	}

	coords := make([]GridPoint, 0, maxGridCoordinates)
	half := resolution / 2
loop:
	for x := 0; x < resolution; x++ {
		lon := float64(x)/float64(resolution)*360 - 180
		for y := 0; y < half; y++ {
			lat := float64(y)/float64(half)*180 - 90
			if math.Abs(lat) > maxGridLatitude {
				continue
			}
			cell := h3.FromGeo(h3.GeoCoord{Latitude: lat, Longitude: lon}, gridCellResolution)
			coords = append(coords, GridPoint{Lat: lat, Lon: lon, Cell: h3.ToString(cell)})
			if len(coords) == maxGridCoordinates {
				break loop
			}
		}
	}

	return GridResponse{
		Type:        "grid",
		Resolution:  resolution,
		Date:        date,
		Coordinates: coords,
		Message:     "grid scaffold ready, NDVI values are filled by batch sampling",
	}, nil
}
