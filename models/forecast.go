package models

import "time"

// ForecastParams are derived from the query text and extracted KPIs.
type ForecastParams struct {
	Metric  string `json:"metric"`
	Periods int    `json:"periods"`
	Company string `json:"company,omitempty"`
}

// HistoricalPoint is one observation of the series being forecast.
type HistoricalPoint struct {
	Date   string  `json:"date"`
	Period int     `json:"period"`
	Value  float64 `json:"value"`
	Metric string  `json:"metric"`
}

// ModelForecast holds one candidate model's predictions and its
// in-sample error metrics.
type ModelForecast struct {
	Values  []float64 `json:"values"`
	Periods []int     `json:"periods"`
	MAE     float64   `json:"mae"`
	RMSE    float64   `json:"rmse"`
}

// ModelPerformance reports the selected model's in-sample errors.
type ModelPerformance struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// ForecastData packages the winning model's output together with the
// history it was fitted on.
type ForecastData struct {
	MethodUsed       string           `json:"method_used"`
	ForecastValues   []float64        `json:"forecast_values"`
	ForecastDates    []string         `json:"forecast_dates"`
	ModelPerformance ModelPerformance `json:"model_performance"`
	HistoricalValues []float64        `json:"historical_values"`
	HistoricalDates  []string         `json:"historical_dates"`
}

// ForecastPoint is one forecast value with its 95% band.
type ForecastPoint struct {
	Forecast float64 `json:"forecast"`
	Lower95  float64 `json:"lower_95"`
	Upper95  float64 `json:"upper_95"`
}

// ConfidenceInterval is a symmetric band of +/-1.96 historical standard
// deviations around each forecast point. It is not conditioned on the
// selected model; a coarse approximation, documented as such.
type ConfidenceInterval struct {
	Confidence95      []ForecastPoint `json:"confidence_95"`
	StandardDeviation float64         `json:"standard_deviation"`
}

// ForecastResult is the full per-request forecast envelope. When the
// pipeline fails, Error carries the cause and Message a user-facing
// explanation while the data fields stay empty.
type ForecastResult struct {
	ForecastData       *ForecastData       `json:"forecast_data,omitempty"`
	Parameters         ForecastParams      `json:"parameters"`
	HistoricalPeriods  int                 `json:"historical_periods"`
	ForecastPeriods    int                 `json:"forecast_periods"`
	ConfidenceInterval *ConfidenceInterval `json:"confidence_interval,omitempty"`
	Methodology        string              `json:"methodology,omitempty"`
	Timestamp          time.Time           `json:"timestamp"`
	Error              string              `json:"error,omitempty"`
	Message            string              `json:"message,omitempty"`
}
