package synthetic

import (
	"context"
	"math"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/common"
)

const (
	co2BaseYear     = 1960
	co2SlowdownYear = 2010
	co2MaxNoise     = 0.02
)

type co2Curve struct {
	base   float64 // t/capita in co2BaseYear
	growth float64 // fractional growth per year before co2SlowdownYear
}

var co2Curves = map[climate.Band]co2Curve{
	climate.BandTropical:  {base: 0.6, growth: 0.030},
	climate.BandTemperate: {base: 5.5, growth: 0.012},
	climate.BandPolar:     {base: 3.0, growth: 0.010},
}

// worldCurve matches the global per-capita series when no country is known.
var worldCurve = co2Curve{base: 3.1, growth: 0.011}

// co2Exponent is the accumulated log growth from co2BaseYear to year.
// Growth halves after co2SlowdownYear.
func co2Exponent(c co2Curve, year int) float64 {
	if year <= co2SlowdownYear {
		return c.growth * float64(year-co2BaseYear)
	}
	return c.growth*float64(co2SlowdownYear-co2BaseYear) + c.growth/2*float64(year-co2SlowdownYear)
}

// CO2 implements climate.CO2Source. The country code only labels the series;
// the band is derived from countryBands when known.
func (g *Generator) CO2(ctx context.Context, countryCode string, startYear, endYear int) ([]climate.CO2Sample, error) {
	if err := checkYears(startYear, endYear); err != nil {
		return nil, err
	}

	curve := worldCurve
	label := "World"
	if countryCode != "" && countryCode != "WLD" {
		label = countryCode
		if band, ok := countryBands[countryCode]; ok {
			curve = co2Curves[band]
		}
	}

	out := make([]climate.CO2Sample, 0, endYear-startYear+1)
	for year := startYear; year <= endYear; year++ {
		value := curve.base * math.Exp(co2Exponent(curve, year))
		value *= 1 + g.uniform(0, co2MaxNoise)
		out = append(out, climate.CO2Sample{
			Year:    year,
			Value:   common.Round2(value),
			Country: label,
		})
	}
	return out, nil
}

// countryBands assigns common country codes to a latitude band.
var countryBands = map[string]climate.Band{
	"IDN": climate.BandTropical, "IND": climate.BandTropical, "BRA": climate.BandTropical,
	"NGA": climate.BandTropical, "THA": climate.BandTropical, "PHL": climate.BandTropical,
	"VNM": climate.BandTropical, "MYS": climate.BandTropical, "KEN": climate.BandTropical,
	"COL": climate.BandTropical, "MEX": climate.BandTropical, "EGY": climate.BandTropical,
	"SAU": climate.BandTropical, "BGD": climate.BandTropical, "PER": climate.BandTropical,
	"USA": climate.BandTemperate, "CHN": climate.BandTemperate, "DEU": climate.BandTemperate,
	"FRA": climate.BandTemperate, "GBR": climate.BandTemperate, "JPN": climate.BandTemperate,
	"KOR": climate.BandTemperate, "ITA": climate.BandTemperate, "ESP": climate.BandTemperate,
	"AUS": climate.BandTemperate, "ARG": climate.BandTemperate, "ZAF": climate.BandTemperate,
	"TUR": climate.BandTemperate, "POL": climate.BandTemperate, "CAN": climate.BandTemperate,
	"RUS": climate.BandPolar, "NOR": climate.BandPolar, "SWE": climate.BandPolar,
	"FIN": climate.BandPolar, "ISL": climate.BandPolar, "GRL": climate.BandPolar,
}
