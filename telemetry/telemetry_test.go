package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelReadings_EstimateKWh(t *testing.T) {
	panel := PanelReadings{PanelID: "panel-a", Latitude: 28.6, PeakKWh: 20}

	t.Run("midday output is positive", func(t *testing.T) {
		kwh, err := panel.EstimateKWh(172, 12)
		require.NoError(t, err)
		assert.Greater(t, kwh, 0.0)
		assert.LessOrEqual(t, kwh, panel.PeakKWh)
	})

	t.Run("noon beats early morning", func(t *testing.T) {
		noon, err := panel.EstimateKWh(172, 12)
		require.NoError(t, err)
		morning, err := panel.EstimateKWh(172, 8)
		require.NoError(t, err)
		assert.Greater(t, noon, morning)
	})

	t.Run("night has no output", func(t *testing.T) {
		_, err := panel.EstimateKWh(172, 0)
		assert.Error(t, err)
	})

	t.Run("estimates are repeatable", func(t *testing.T) {
		first, err := panel.EstimateKWh(200, 14)
		require.NoError(t, err)
		second, err := panel.EstimateKWh(200, 14)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("calendar bounds are checked", func(t *testing.T) {
		_, err := panel.EstimateKWh(0, 12)
		assert.Error(t, err)
		_, err = panel.EstimateKWh(366, 12)
		assert.Error(t, err)
		_, err = panel.EstimateKWh(172, 24)
		assert.Error(t, err)
	})
}

func TestForecastModel_EstimateKWh(t *testing.T) {
	model := ForecastModel{ModelID: "forecast-a", CloudCover: 30, Humidity: 50}

	t.Run("midday forecast is positive", func(t *testing.T) {
		kwh, err := model.EstimateKWh(180, 13)
		require.NoError(t, err)
		assert.Greater(t, kwh, 0.0)
	})

	t.Run("heavier clouds lower the forecast", func(t *testing.T) {
		overcast := ForecastModel{ModelID: "forecast-b", CloudCover: 90, Humidity: 50}

		clear, err := model.EstimateKWh(180, 13)
		require.NoError(t, err)
		cloudy, err := overcast.EstimateKWh(180, 13)
		if err == nil {
			assert.Less(t, cloudy, clear)
		}
	})

	t.Run("forecasts are repeatable", func(t *testing.T) {
		first, err := model.EstimateKWh(180, 13)
		require.NoError(t, err)
		second, err := model.EstimateKWh(180, 13)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("calendar bounds are checked", func(t *testing.T) {
		_, err := model.EstimateKWh(400, 12)
		assert.Error(t, err)
		_, err = model.EstimateKWh(180, -1)
		assert.Error(t, err)
	})
}
