package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// DefaultCO2Indicator is CO2 emissions in metric tons per capita.
const DefaultCO2Indicator = "EN.ATM.CO2E.PC"

// WorldBankProvider implements climate.CO2Source for the World Bank
// indicators API.
type WorldBankProvider struct {
	name      string
	baseURL   string
	indicator string
	up        *upstream
}

func NewWorldBankProvider(client *http.Client, logger *slog.Logger) *WorldBankProvider {
	return &WorldBankProvider{
		name:      "worldbank",
		baseURL:   "https://api.worldbank.org/v2",
		indicator: DefaultCO2Indicator,
		up:        newUpstream("worldbank", client, logger),
	}
}

func (p *WorldBankProvider) Name() string {
	return p.name
}

type worldBankRow struct {
	Country struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"country"`
	CountryISO3 string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

func (p *WorldBankProvider) CO2(ctx context.Context, countryCode string, startYear, endYear int) ([]climate.CO2Sample, error) {
	if countryCode == "" {
		countryCode = "WLD"
	}

	values := url.Values{}
	values.Set("date", fmt.Sprintf("%d:%d", startYear, endYear))
	values.Set("format", "json")
	values.Set("per_page", "1000")
	u := fmt.Sprintf("%s/country/%s/indicator/%s?%s",
		p.baseURL, url.PathEscape(strings.ToUpper(countryCode)), url.PathEscape(p.indicator), values.Encode())

	// The API answers with [meta, rows] or, on error, [{"message": [...]}].
	var envelope []json.RawMessage
	if err := p.up.getJSON(ctx, u, &envelope); err != nil {
		return nil, err
	}
	if len(envelope) < 2 {
		return nil, fmt.Errorf("%s: %w: %s", p.name, errMalformedReply, worldBankMessage(envelope))
	}

	var rows []worldBankRow
	if err := json.Unmarshal(envelope[1], &rows); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", p.name, errMalformedReply, err)
	}

	out := make([]climate.CO2Sample, 0, len(rows))
	for _, row := range rows {
		if row.Value == nil {
			continue
		}
		year, err := strconv.Atoi(row.Date)
		if err != nil {
			continue
		}
		out = append(out, climate.CO2Sample{
			Year:    year,
			Value:   *row.Value,
			Country: row.Country.Value,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w: no values for %s", p.name, errEmptyReply, countryCode)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func worldBankMessage(envelope []json.RawMessage) string {
	if len(envelope) == 0 {
		return "empty envelope"
	}
	var meta struct {
		Message []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"message"`
	}
	if err := json.Unmarshal(envelope[0], &meta); err != nil || len(meta.Message) == 0 {
		return "missing data page"
	}
	return meta.Message[0].Key + ": " + meta.Message[0].Value
}
