package colors

import "fmt"

// Kind names a color scale.
type Kind string

const (
	KindTemperature Kind = "temperature"
	KindCO2         Kind = "co2"
	KindAQI         Kind = "aqi"
	KindSeaLevel    Kind = "seaLevel"
)

// Kinds lists every scale.
var Kinds = []Kind{KindTemperature, KindCO2, KindAQI, KindSeaLevel}

// Temperature anomaly in °C, -3 (deep blue) to +3 (dark red).
var Temperature = mustRamp(
	Stop{-3.0, RGB{0.0, 0.2, 0.8}},
	Stop{-1.8, RGB{0.2, 0.5, 1.0}},
	Stop{-0.6, RGB{0.9, 0.9, 0.9}},
	Stop{0.6, RGB{1.0, 0.6, 0.2}},
	Stop{1.8, RGB{1.0, 0.2, 0.0}},
	Stop{3.0, RGB{0.8, 0.0, 0.2}},
)

// CO2 concentration in ppm, preindustrial 280 (green) to 500 (red).
var CO2 = mustRamp(
	Stop{280, RGB{0.2, 0.8, 0.2}},
	Stop{335, RGB{0.4, 0.9, 0.3}},
	Stop{390, RGB{0.9, 0.9, 0.2}},
	Stop{445, RGB{1.0, 0.5, 0.0}},
	Stop{500, RGB{1.0, 0.0, 0.0}},
)

// AQI on the US 0-500 scale. The "good" band shades from dark to full green.
var AQI = mustRamp(
	Stop{0, RGB{0.0, 0.63, 0.0}},
	Stop{50, RGB{0.0, 0.9, 0.0}},
	Stop{100, RGB{1.0, 1.0, 0.0}},
	Stop{150, RGB{1.0, 0.5, 0.0}},
	Stop{200, RGB{1.0, 0.0, 0.0}},
	Stop{300, RGB{0.6, 0.2, 0.6}},
	Stop{500, RGB{0.5, 0.0, 0.1}},
)

// SeaLevel rise in meters, 0 to 2.
var SeaLevel = mustRamp(
	Stop{0, RGB{0.0, 0.5, 1.0}},
	Stop{0.66, RGB{0.2, 0.7, 1.0}},
	Stop{1.32, RGB{1.0, 0.6, 0.0}},
	Stop{2, RGB{1.0, 0.0, 0.0}},
)

// RampFor returns the ramp of a scale.
func RampFor(kind Kind) (Ramp, error) {
	switch kind {
	case KindTemperature:
		return Temperature, nil
	case KindCO2:
		return CO2, nil
	case KindAQI:
		return AQI, nil
	case KindSeaLevel:
		return SeaLevel, nil
	default:
		return Ramp{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Swatch is one legend entry.
type Swatch struct {
	RGB
	Value float64 `json:"value"`
	Hex   string  `json:"hex"`
	Label string  `json:"label"`
}

// Color returns the swatch for a single value.
func Color(kind Kind, value float64) (Swatch, error) {
	ramp, err := RampFor(kind)
	if err != nil {
		return Swatch{}, err
	}
	c := ramp.At(value)
	return Swatch{RGB: c, Value: value, Hex: c.Hex(), Label: Label(kind, value)}, nil
}

// Scale samples a ramp at evenly spaced values for a legend.
func Scale(kind Kind, steps int) ([]Swatch, error) {
	ramp, err := RampFor(kind)
	if err != nil {
		return nil, err
	}
	if steps < 2 {
		steps = 2
	}
	out := make([]Swatch, 0, steps)
	span := ramp.Max() - ramp.Min()
	for i := 0; i < steps; i++ {
		v := ramp.Min() + span*float64(i)/float64(steps-1)
		c := ramp.At(v)
		out = append(out, Swatch{RGB: c, Value: v, Hex: c.Hex(), Label: Label(kind, v)})
	}
	return out, nil
}

// Label describes a value on a scale in words.
func Label(kind Kind, value float64) string {
	switch kind {
	case KindTemperature:
		switch {
		case value < -2:
			return "Very Cold"
		case value < -1:
			return "Cold"
		case value < 1:
			return "Normal"
		case value < 2:
			return "Warm"
		default:
			return "Hot"
		}
	case KindCO2:
		switch {
		case value < 315:
			return "Pre-industrial"
		case value < 375:
			return "Safe"
		case value < 425:
			return "Warning"
		case value < 475:
			return "Danger"
		default:
			return "Critical"
		}
	case KindAQI:
		switch {
		case value <= 50:
			return "Good"
		case value <= 100:
			return "Moderate"
		case value <= 150:
			return "Unhealthy (Sensitive)"
		case value <= 200:
			return "Unhealthy"
		case value <= 300:
			return "Very Unhealthy"
		default:
			return "Hazardous"
		}
	case KindSeaLevel:
		switch {
		case value < 0.5:
			return "Low"
		case value < 1.0:
			return "Medium"
		case value < 1.5:
			return "High"
		default:
			return "Critical"
		}
	default:
		return "Unknown"
	}
}
