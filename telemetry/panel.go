package telemetry

import (
	"fmt"
	"math"
)

// PanelReadings estimates the output of a photovoltaic panel from the sun's
// position. The estimate follows the standard solar angle formulas: the
// declination of the day, the hour angle of the solar time and the resulting
// elevation at the panel's latitude. Output scales with the sine of the
// elevation, peaking at PeakKWh with the sun at the zenith.
type PanelReadings struct {
	PanelID  string
	Latitude float64 // Degrees, positive north
	PeakKWh  float64 // Output with the sun at the zenith
}

func (p PanelReadings) Name() string { return p.PanelID }

// EstimateKWh computes the panel output for the given day of year and hour.
// Returns an error when the sun sits below the horizon at that instant.
func (p PanelReadings) EstimateKWh(day, hour int) (float64, error) {
	if day < 1 || day > 365 {
		return 0, fmt.Errorf("day of year %d out of range", day)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}

	elevation := elevationAngle(p.Latitude, day, float64(hour))
	if elevation <= 0 {
		return 0, fmt.Errorf("no output on day %d at hour %d: sun below the horizon", day, hour)
	}

	return p.PeakKWh * math.Sin(radians(elevation)), nil
}

// elevationAngle returns the solar elevation in degrees at the given
// latitude, day of year and solar time.
//
// declination: δ = -23.45 × cos(360/365 × (n + 10))
// hour angle:  h = 15° × (solar_time - 12)
// elevation:   α = asin(sin δ sin φ + cos δ cos φ cos h)
func elevationAngle(latitude float64, day int, solarTime float64) float64 {
	declination := -23.45 * math.Cos(radians((360.0/365.0)*(float64(day)+10)))
	hourAngle := 15 * (solarTime - 12)

	latRad := radians(latitude)
	decRad := radians(declination)
	hourRad := radians(hourAngle)

	return degrees(math.Asin(
		math.Sin(decRad)*math.Sin(latRad) +
			math.Cos(decRad)*math.Cos(latRad)*math.Cos(hourRad),
	))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
