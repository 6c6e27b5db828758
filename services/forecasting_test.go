package services

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findocgpt/models"
)

func TestParseRequest(t *testing.T) {
	f := NewForecaster()

	tests := []struct {
		name      string
		query     string
		companies []models.CompanyMention
		metric    string
		periods   int
		company   string
	}{
		{
			name:    "defaults",
			query:   "what does the future hold",
			metric:  "revenue",
			periods: 4,
		},
		{
			name:    "earnings maps to profit",
			query:   "forecast earnings for next year",
			metric:  "profit",
			periods: 4,
		},
		{
			name:    "explicit horizon",
			query:   "predict revenue for the next 6 quarters",
			metric:  "revenue",
			periods: 6,
		},
		{
			name:      "company from extracted kpis",
			query:     "forecast margin over 2 periods",
			companies: []models.CompanyMention{{Name: "MSFT", Type: "symbol"}},
			metric:    "margin",
			periods:   2,
			company:   "MSFT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kpis := models.EmptyKPISet()
			kpis.Companies = tt.companies

			params := f.ParseRequest(tt.query, kpis)
			assert.Equal(t, tt.metric, params.Metric)
			assert.Equal(t, tt.periods, params.Periods)
			assert.Equal(t, tt.company, params.Company)
		})
	}
}

func TestGenerateForecastShape(t *testing.T) {
	f := NewForecaster()
	f.now = func() time.Time { return time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC) }

	result := f.GenerateForecast("forecast AAPL revenue for the next 4 quarters", models.EmptyKPISet())
	require.Empty(t, result.Error)
	require.NotNil(t, result.ForecastData)

	data := result.ForecastData
	assert.Equal(t, 12, result.HistoricalPeriods)
	assert.Equal(t, 4, result.ForecastPeriods)
	assert.Len(t, data.ForecastValues, 4)
	assert.Len(t, data.ForecastDates, 4)
	assert.Len(t, data.HistoricalValues, 12)
	assert.Equal(t, "2025-Q2", data.ForecastDates[0])
	assert.Equal(t, "2026-Q1", data.ForecastDates[3])
	assert.Contains(t, []string{"linear_regression", "tree_ensemble"}, data.MethodUsed)
	assert.Greater(t, data.ModelPerformance.RMSE, 0.0)
	assert.GreaterOrEqual(t, data.ModelPerformance.RMSE, data.ModelPerformance.MAE)
}

func TestModelSelectionPrefersLowerRMSE(t *testing.T) {
	// A clean upward trend is exactly what the linear model nails and a
	// depth-limited tree ensemble flattens out on, so OLS must win.
	f := NewForecaster()

	history := make([]models.HistoricalPoint, 12)
	for i := range history {
		history[i] = models.HistoricalPoint{
			Period: i + 1,
			Value:  100 + 10*float64(i),
			Metric: "revenue",
		}
	}

	data, err := f.createForecast(history, models.ForecastParams{Metric: "revenue", Periods: 4})
	require.NoError(t, err)
	assert.Equal(t, "linear_regression", data.MethodUsed)
	assert.InDelta(t, 0.0, data.ModelPerformance.RMSE, 1e-9)

	// projections continue the trend
	assert.InDelta(t, 220.0, data.ForecastValues[0], 1e-9)
	assert.InDelta(t, 250.0, data.ForecastValues[3], 1e-9)
}

func TestConfidenceIntervalSymmetric(t *testing.T) {
	data := &models.ForecastData{
		ForecastValues:   []float64{100, 110},
		HistoricalValues: []float64{90, 100, 110},
	}

	ci := confidenceInterval(data)
	require.NotNil(t, ci)
	require.Len(t, ci.Confidence95, 2)

	// population sigma of {90,100,110}
	wantStd := math.Sqrt(200.0 / 3.0)
	assert.InDelta(t, wantStd, ci.StandardDeviation, 0.01)

	for _, point := range ci.Confidence95 {
		assert.InDelta(t, point.Forecast-point.Lower95, point.Upper95-point.Forecast, 0.02)
		assert.Less(t, point.Lower95, point.Forecast)
		assert.Greater(t, point.Upper95, point.Forecast)
	}
}

func TestConfidenceIntervalNilOnEmptyHistory(t *testing.T) {
	assert.Nil(t, confidenceInterval(nil))
	assert.Nil(t, confidenceInterval(&models.ForecastData{ForecastValues: []float64{1}}))
}

func TestGenerateForecastTooLittleHistory(t *testing.T) {
	f := NewForecaster()

	_, err := f.createForecast([]models.HistoricalPoint{{Period: 1, Value: 10}}, models.ForecastParams{Periods: 4})
	require.Error(t, err)
}
