package providers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/common"
)

// gistempAnnualColumn is the J-D (January-December mean) column.
const gistempAnnualColumn = 13

// GISTEMPProvider implements climate.TemperatureSource with the NASA GISTEMP
// global land-ocean anomaly table. The location is ignored.
type GISTEMPProvider struct {
	name    string
	baseURL string
	up      *upstream
}

func NewGISTEMPProvider(client *http.Client, logger *slog.Logger) *GISTEMPProvider {
	return &GISTEMPProvider{
		name:    "nasa-gistemp",
		baseURL: "https://data.giss.nasa.gov/gistemp/tabledata_v4/GLB.Ts+dSST.csv",
		up:      newUpstream("nasa-gistemp", client, logger),
	}
}

func (p *GISTEMPProvider) Name() string {
	return p.name
}

func (p *GISTEMPProvider) Temperature(ctx context.Context, _ climate.Location, startYear, endYear int) ([]climate.TemperatureSample, error) {
	body, err := p.up.getBody(ctx, p.baseURL)
	if err != nil {
		return nil, err
	}

	samples, err := parseGISTEMP(bytes.NewReader(body), startYear, endYear)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w: no rows for %d-%d", p.name, errEmptyReply, startYear, endYear)
	}
	return samples, nil
}

// parseGISTEMP reads the table, keeping rows whose first column is a year in
// range and whose annual mean is present ("***" marks missing values).
func parseGISTEMP(r io.Reader, startYear, endYear int) ([]climate.TemperatureSample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var out []climate.TemperatureSample
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedReply, err)
		}
		if len(row) <= gistempAnnualColumn {
			continue
		}

		year, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil || year < startYear || year > endYear {
			continue
		}
		anomaly, err := strconv.ParseFloat(strings.TrimSpace(row[gistempAnnualColumn]), 64)
		if err != nil {
			continue
		}
		out = append(out, climate.NewTemperatureSample(year, common.Round2(climate.BaselineTemperatureC+anomaly)))
	}
	return out, nil
}
