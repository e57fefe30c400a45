package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	landsatCollection = "LANDSAT/LC09/C02/T1_L2"

	// reflectanceScale maps surface reflectance digital numbers to [0, 1]-ish
	// display channels.
	reflectanceScale = 30000.0
)

// Region is a lon/lat bounding box in degrees.
type Region struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// GlobalRegion covers the inhabited latitudes.
var GlobalRegion = Region{West: -180, South: -60, East: 180, North: 85}

// SampleRequest describes one NDVI sampling call.
type SampleRequest struct {
	Region        Region
	StartDate     string // YYYY-MM-DD
	EndDate       string // YYYY-MM-DD, exclusive
	MaxCloudCover float64
	Scale         float64 // meters per pixel
	NumPixels     int
	Seed          int
}

// DefaultGlobalSample is the low-resolution world query behind the globe
// voxels: 2023, 100 km pixels, up to 10000 points.
var DefaultGlobalSample = SampleRequest{
	Region:        GlobalRegion,
	StartDate:     "2023-01-01",
	EndDate:       "2023-12-31",
	MaxCloudCover: 30,
	Scale:         100000,
	NumPixels:     10000,
	Seed:          42,
}

// VoxelPoint is one sampled pixel.
type VoxelPoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	NDVI float64 `json:"ndvi"`
	R    float64 `json:"r"`
	G    float64 `json:"g"`
	B    float64 `json:"b"`
}

type featureCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			NDVI *float64 `json:"NDVI"`
			B4   *float64 `json:"SR_B4"`
			B3   *float64 `json:"SR_B3"`
			B2   *float64 `json:"SR_B2"`
		} `json:"properties"`
	} `json:"features"`
}

// SampleNDVI runs the sampling expression and converts the returned features.
func (s *Session) SampleNDVI(ctx context.Context, req SampleRequest) ([]VoxelPoint, error) {
	client, project, err := s.authorized()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{"expression": ndviSampleExpression(req)})
	if err != nil {
		return nil, fmt.Errorf("encode expression: %w", err)
	}
	endpoint := fmt.Sprintf("%s/projects/%s/value:compute", s.cfg.BaseURL, url.PathEscape(project))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	s.logger.Info("requesting samples from earth engine", "numPixels", req.NumPixels, "scale", req.Scale)
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("earth engine request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("earth engine: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("earth engine: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Result featureCollection `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode earth engine response: %w", err)
	}

	points := toVoxels(payload.Result)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w; try widening the date range or increasing cloud cover", ErrNoFeatures)
	}
	s.logger.Info("earth engine samples received", "count", len(points))
	return points, nil
}

func toVoxels(fc featureCollection) []VoxelPoint {
	deref := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}

	out := make([]VoxelPoint, 0, len(fc.Features))
	for _, f := range fc.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		p := f.Properties
		out = append(out, VoxelPoint{
			Lon:  f.Geometry.Coordinates[0],
			Lat:  f.Geometry.Coordinates[1],
			NDVI: deref(p.NDVI),
			R:    deref(p.B4) / reflectanceScale,
			G:    deref(p.B3) / reflectanceScale,
			B:    deref(p.B2) / reflectanceScale,
		})
	}
	return out
}
