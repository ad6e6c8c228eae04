package telemetry

import (
	"fmt"
	"math"
)

// ForecastModel predicts energy output from weather features with a fixed
// linear model over [hour, temperature, cloud cover, humidity, day of year].
// Temperature is derived from the hour of day; cloud cover and humidity are
// site conditions carried by the model. The weights are frozen, so the same
// inputs always produce the same forecast.
type ForecastModel struct {
	ModelID    string
	CloudCover float64 // Percent, 0..100
	Humidity   float64 // Percent, 0..100
}

// forecastWeights applies to [hour, temperature, cloudCover, humidity, day].
var forecastWeights = [5]float64{0.3, 0.25, -0.08, -0.02, 0.002}

func (f ForecastModel) Name() string { return f.ModelID }

// EstimateKWh predicts the output for the given day of year and hour.
// Returns an error when the model predicts no usable output.
func (f ForecastModel) EstimateKWh(day, hour int) (float64, error) {
	if day < 1 || day > 365 {
		return 0, fmt.Errorf("day of year %d out of range", day)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}

	// Daily temperature swing peaking in the early afternoon.
	temperature := 12 + 10*math.Sin(math.Pi*(float64(hour)-6)/12)

	features := [5]float64{
		float64(hour),
		temperature,
		f.CloudCover,
		f.Humidity,
		float64(day),
	}

	prediction := 0.0
	for i, w := range forecastWeights {
		prediction += w * features[i]
	}
	if prediction <= 0 {
		return 0, fmt.Errorf("no usable output predicted on day %d at hour %d", day, hour)
	}

	return prediction, nil
}
