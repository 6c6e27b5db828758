package models

import "time"

// FinancialMetricRecord is one cached metric observation, conceptually
// keyed by (company, metric, period). Rows older than the freshness
// window are excluded from cache hits but never deleted.
type FinancialMetricRecord struct {
	ID            int64     `json:"id"`
	CompanySymbol string    `json:"company_symbol"`
	MetricName    string    `json:"metric_name"`
	MetricValue   float64   `json:"metric_value"`
	Period        string    `json:"period"`
	Year          int       `json:"year"`
	Quarter       int       `json:"quarter"`
	DataSource    string    `json:"data_source"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FinancialQueryParams are the resolved filters for a financial data
// lookup, after defaults have been applied.
type FinancialQueryParams struct {
	Companies   []string `json:"companies"`
	Metrics     []string `json:"metrics"`
	TimePeriods []string `json:"time_periods"`
	DataType    string   `json:"data_type"`
}

// TimeSeriesPoint is one charted observation.
type TimeSeriesPoint struct {
	Period  string  `json:"period"`
	Value   float64 `json:"value"`
	Year    int     `json:"year"`
	Quarter int     `json:"quarter"`
}

// TimeSeries groups one company/metric pair for charting, sorted by
// (year, quarter).
type TimeSeries struct {
	Company    string            `json:"company"`
	Metric     string            `json:"metric"`
	DataPoints []TimeSeriesPoint `json:"data_points"`
}

// MetricStats summarizes one metric across the returned records.
type MetricStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Count   int     `json:"count"`
}

// FinancialSummary carries aggregate statistics over a result set.
type FinancialSummary struct {
	TotalRecords   int                    `json:"total_records"`
	CompaniesCount int                    `json:"companies_count"`
	MetricsCount   int                    `json:"metrics_count"`
	EarliestYear   int                    `json:"earliest_year,omitempty"`
	LatestYear     int                    `json:"latest_year,omitempty"`
	MetricAverages map[string]MetricStats `json:"metric_averages"`
}

// FinancialDataPayload is the grouped view of a financial data query,
// shaped for charting: by company, by metric, and per-pair time series.
type FinancialDataPayload struct {
	Companies       map[string][]FinancialMetricRecord `json:"companies"`
	Metrics         map[string][]FinancialMetricRecord `json:"metrics"`
	TimeSeries      map[string]TimeSeries              `json:"time_series"`
	Summary         FinancialSummary                   `json:"summary"`
	QueryParameters FinancialQueryParams               `json:"query_parameters"`
	DataSource      string                             `json:"data_source"`
	Timestamp       time.Time                          `json:"timestamp"`
	TotalRecords    int                                `json:"total_records"`
}
