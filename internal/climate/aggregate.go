package climate

import (
	"math"
	"sort"
)

// avgWindow is the number of trailing years averaged into AvgTemperature.
const avgWindow = 10

// AQI category labels, ordered by severity.
const (
	AQIGood               = "Good"
	AQIModerate           = "Moderate"
	AQIUnhealthySensitive = "Unhealthy for Sensitive Groups"
	AQIUnhealthy          = "Unhealthy"
	AQIVeryUnhealthy      = "Very Unhealthy"
	AQIHazardous          = "Hazardous"
)

var aqiLabels = []string{
	AQIGood,
	AQIModerate,
	AQIUnhealthySensitive,
	AQIUnhealthy,
	AQIVeryUnhealthy,
	AQIHazardous,
}

var aqiColors = []string{
	"#00e400",
	"#ffff00",
	"#ff7e00",
	"#ff0000",
	"#8f3f97",
	"#7e0023",
}

// AQILabels returns the six category labels, least severe first.
func AQILabels() []string {
	out := make([]string, len(aqiLabels))
	copy(out, aqiLabels)
	return out
}

// AQILevel returns the 0-5 severity index of an AQI value.
func AQILevel(aqi int) int {
	switch {
	case aqi <= 50:
		return 0
	case aqi <= 100:
		return 1
	case aqi <= 150:
		return 2
	case aqi <= 200:
		return 3
	case aqi <= 300:
		return 4
	default:
		return 5
	}
}

// AQILabel maps an AQI value to its category label.
func AQILabel(aqi int) string {
	return aqiLabels[AQILevel(aqi)]
}

// AQIColorHex maps an AQI value to the standard category color.
func AQIColorHex(aqi int) string {
	return aqiColors[AQILevel(aqi)]
}

// TemperatureChange returns temp(toYear) - temp(fromYear), or 0 when either
// year is missing from data.
func TemperatureChange(data []TemperatureSample, fromYear, toYear int) float64 {
	from, okFrom := findTemperature(data, fromYear)
	to, okTo := findTemperature(data, toYear)
	if !okFrom || !okTo {
		return 0
	}
	return to.Temperature - from.Temperature
}

func findTemperature(data []TemperatureSample, year int) (TemperatureSample, bool) {
	for _, d := range data {
		if d.Year == year {
			return d, true
		}
	}
	return TemperatureSample{}, false
}

// CO2Growth returns the percentage change from the first to the last sample
// by year. Series shorter than two samples or starting at 0 yield 0.
func CO2Growth(series []CO2Sample) float64 {
	if len(series) < 2 {
		return 0
	}
	sorted := sortedCO2(series)
	first := sorted[0].Value
	last := sorted[len(sorted)-1].Value
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// CO2GrowthBetween returns the percentage change between two specific years,
// or 0 if either is missing.
func CO2GrowthBetween(data []CO2Sample, fromYear, toYear int) float64 {
	var from, to *CO2Sample
	for i := range data {
		switch data[i].Year {
		case fromYear:
			from = &data[i]
		case toYear:
			to = &data[i]
		}
	}
	if from == nil || to == nil || from.Value == 0 {
		return 0
	}
	return (to.Value - from.Value) / from.Value * 100
}

// AvgTemperature is the mean temperature of the last ten samples by year.
func AvgTemperature(series []TemperatureSample) float64 {
	if len(series) == 0 {
		return 0
	}
	sorted := make([]TemperatureSample, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	window := sorted
	if len(window) > avgWindow {
		window = window[len(window)-avgWindow:]
	}
	var sum float64
	for _, s := range window {
		sum += s.Temperature
	}
	return sum / float64(len(window))
}

// CurrentCO2 is the value of the latest sample by year.
func CurrentCO2(series []CO2Sample) float64 {
	if len(series) == 0 {
		return 0
	}
	sorted := sortedCO2(series)
	return sorted[len(sorted)-1].Value
}

func sortedCO2(series []CO2Sample) []CO2Sample {
	sorted := make([]CO2Sample, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })
	return sorted
}

// Summarize derives the record summary from raw series. It is the single
// source of truth for Summary values.
func Summarize(temps []TemperatureSample, co2 []CO2Sample, pollution PollutionSample, startYear, endYear int) Summary {
	return Summary{
		AvgTemperature:    AvgTemperature(temps),
		TemperatureChange: TemperatureChange(temps, startYear, endYear),
		CurrentCO2:        CurrentCO2(co2),
		CO2Growth:         CO2Growth(co2),
		AirQuality:        AQILabel(pollution.AQI),
	}
}

// pm25Breakpoints are the US EPA (2024) PM2.5 breakpoints in µg/m³ with the
// AQI range each maps to.
var pm25Breakpoints = []struct {
	cLow, cHigh float64
	iLow, iHigh float64
}{
	{0.0, 9.0, 0, 50},
	{9.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 125.4, 151, 200},
	{125.5, 225.4, 201, 300},
	{225.5, 325.4, 301, 500},
}

// USAQIFromPM25 converts a PM2.5 concentration to the 0-500 US AQI.
func USAQIFromPM25(pm25 float64) int {
	if pm25 <= 0 {
		return 0
	}
	// Truncate to one decimal as the EPA method requires.
	c := math.Floor(pm25*10) / 10
	for _, bp := range pm25Breakpoints {
		if c <= bp.cHigh {
			if c < bp.cLow {
				c = bp.cLow
			}
			aqi := (bp.iHigh-bp.iLow)/(bp.cHigh-bp.cLow)*(c-bp.cLow) + bp.iLow
			return int(math.Round(aqi))
		}
	}
	return 500
}
