package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/common"
)

// powerFirstYear is the first year covered by the POWER daily archive.
const powerFirstYear = 1981

// NASAPowerProvider implements climate.TemperatureSource for the NASA POWER
// daily point API. Daily 2 m temperatures are averaged per calendar year.
type NASAPowerProvider struct {
	name    string
	baseURL string
	up      *upstream
	now     func() time.Time
}

func NewNASAPowerProvider(client *http.Client, logger *slog.Logger) *NASAPowerProvider {
	return &NASAPowerProvider{
		name:    "nasa-power",
		baseURL: "https://power.larc.nasa.gov/api/temporal/daily/point",
		up:      newUpstream("nasa-power", client, logger),
		now:     time.Now,
	}
}

func (p *NASAPowerProvider) Name() string {
	return p.name
}

func (p *NASAPowerProvider) Temperature(ctx context.Context, loc climate.Location, startYear, endYear int) ([]climate.TemperatureSample, error) {
	// The archive starts in 1981 and the current year is incomplete.
	from := max(startYear, powerFirstYear)
	to := min(endYear, p.now().Year()-1)
	if from > to {
		return nil, fmt.Errorf("%s: %w: no coverage for %d-%d", p.name, errEmptyReply, startYear, endYear)
	}

	values := url.Values{}
	values.Set("parameters", "T2M")
	values.Set("community", "RE")
	values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', 4, 64))
	values.Set("start", fmt.Sprintf("%d0101", from))
	values.Set("end", fmt.Sprintf("%d1231", to))
	values.Set("format", "JSON")

	var payload struct {
		Header struct {
			FillValue float64 `json:"fill_value"`
		} `json:"header"`
		Properties struct {
			Parameter map[string]map[string]float64 `json:"parameter"`
		} `json:"properties"`
	}
	if err := p.up.getJSON(ctx, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return nil, err
	}

	daily, ok := payload.Properties.Parameter["T2M"]
	if !ok || len(daily) == 0 {
		return nil, fmt.Errorf("%s: %w: no T2M values", p.name, errEmptyReply)
	}
	fill := payload.Header.FillValue
	if fill == 0 {
		fill = -999
	}

	samples := yearlyMeans(daily, fill)
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w: all values missing", p.name, errEmptyReply)
	}
	return samples, nil
}

// yearlyMeans groups YYYYMMDD-keyed values by year, skipping fill values.
func yearlyMeans(daily map[string]float64, fill float64) []climate.TemperatureSample {
	type acc struct {
		sum float64
		n   int
	}
	years := make(map[int]*acc)
	for day, v := range daily {
		if v == fill || len(day) < 4 {
			continue
		}
		year, err := strconv.Atoi(day[:4])
		if err != nil {
			continue
		}
		a, ok := years[year]
		if !ok {
			a = &acc{}
			years[year] = a
		}
		a.sum += v
		a.n++
	}

	out := make([]climate.TemperatureSample, 0, len(years))
	for year, a := range years {
		out = append(out, climate.NewTemperatureSample(year, common.Round2(a.sum/float64(a.n))))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
