package services

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"findocgpt/internal/logger"
	"findocgpt/models"
)

const syntheticSource = "FinanceBench_Demo"

// Default filters when the query resolves nothing concrete.
var (
	defaultCompanies = []string{"AAPL", "MSFT", "GOOGL"}
	defaultMetrics   = []string{"revenue", "profit", "margin"}
)

// DataProvider supplies metric records when the cache misses. The
// synthetic provider stands in for a real market-data integration and
// is swappable without touching cache logic.
type DataProvider interface {
	Fetch(params models.FinancialQueryParams) []models.FinancialMetricRecord
}

// FinanceBenchService is a cache-or-fetch repository over the relational
// store. Rows fresher than the freshness window are served as-is
// (all-or-nothing hit, no merging); otherwise the provider is asked and
// the result persisted in one transaction.
type FinanceBenchService struct {
	db        *sql.DB
	provider  DataProvider
	freshness time.Duration
	now       func() time.Time
}

func NewFinanceBenchService(db *sql.DB, provider DataProvider, freshness time.Duration) *FinanceBenchService {
	if provider == nil {
		provider = SyntheticDataProvider{}
	}
	if freshness <= 0 {
		freshness = 24 * time.Hour
	}
	return &FinanceBenchService{
		db:        db,
		provider:  provider,
		freshness: freshness,
		now:       time.Now,
	}
}

// QueryFinancialData resolves filters from the extracted KPIs, serves
// from cache or provider, and shapes the grouped payload.
func (fb *FinanceBenchService) QueryFinancialData(ctx context.Context, kpis models.KPISet) (*models.FinancialDataPayload, error) {
	params := fb.ParseQuery(kpis)

	records, err := fb.Query(ctx, params)
	if err != nil {
		return nil, err
	}

	payload := formatFinancialData(records, params)
	payload.DataSource = "FinanceBench"
	payload.Timestamp = fb.now().UTC()
	return payload, nil
}

// ParseQuery turns extracted KPIs into resolved filters, applying the
// default company and metric sets when nothing was found.
func (fb *FinanceBenchService) ParseQuery(kpis models.KPISet) models.FinancialQueryParams {
	params := models.FinancialQueryParams{DataType: "quarterly"}

	for _, company := range kpis.Companies {
		params.Companies = append(params.Companies, company.Name)
	}
	for metric := range kpis.Metrics {
		params.Metrics = append(params.Metrics, metric)
	}
	sort.Strings(params.Metrics)
	for _, period := range kpis.TimePeriods {
		params.TimePeriods = append(params.TimePeriods, period.Period)
	}

	if len(params.Companies) == 0 {
		params.Companies = append([]string(nil), defaultCompanies...)
	}
	if len(params.Metrics) == 0 {
		params.Metrics = append([]string(nil), defaultMetrics...)
	}
	return params
}

// Query returns fresh cached rows for the filters, or fetches,
// persists, and returns synthesized ones. A persistence failure rolls
// back the whole batch and surfaces the error with no partial writes.
func (fb *FinanceBenchService) Query(ctx context.Context, params models.FinancialQueryParams) ([]models.FinancialMetricRecord, error) {
	cached, err := fb.getFromCache(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if len(cached) > 0 {
		logger.Debug("financial data cache hit", "records", len(cached))
		return cached, nil
	}

	fresh := fb.provider.Fetch(params)
	if err := fb.cacheRecords(ctx, fresh); err != nil {
		return nil, fmt.Errorf("caching financial data: %w", err)
	}
	logger.Info("fetched and cached financial data", "records", len(fresh))
	return fresh, nil
}

func (fb *FinanceBenchService) getFromCache(ctx context.Context, params models.FinancialQueryParams) ([]models.FinancialMetricRecord, error) {
	cutoff := fb.now().Add(-fb.freshness).UTC()

	query := fmt.Sprintf(
		`SELECT id, company_symbol, metric_name, metric_value, period, year, quarter, data_source, created_at, updated_at
		 FROM financial_data
		 WHERE company_symbol IN (%s) AND metric_name IN (%s) AND updated_at > ?
		 ORDER BY company_symbol, metric_name, year, quarter`,
		placeholders(len(params.Companies)), placeholders(len(params.Metrics)))

	args := make([]interface{}, 0, len(params.Companies)+len(params.Metrics)+1)
	for _, c := range params.Companies {
		args = append(args, c)
	}
	for _, m := range params.Metrics {
		args = append(args, m)
	}
	args = append(args, cutoff)

	rows, err := fb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.FinancialMetricRecord
	for rows.Next() {
		var r models.FinancialMetricRecord
		if err := rows.Scan(&r.ID, &r.CompanySymbol, &r.MetricName, &r.MetricValue,
			&r.Period, &r.Year, &r.Quarter, &r.DataSource, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (fb *FinanceBenchService) cacheRecords(ctx context.Context, records []models.FinancialMetricRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := fb.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO financial_data
		 (company_symbol, metric_name, metric_value, period, year, quarter, data_source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := fb.now().UTC()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.CompanySymbol, r.MetricName, r.MetricValue,
			r.Period, r.Year, r.Quarter, r.DataSource, now, now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func placeholders(n int) string {
	if n == 0 {
		return "''"
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// formatFinancialData groups the records by company, by metric, and
// into per-pair time series sorted for charting, plus summary stats.
func formatFinancialData(records []models.FinancialMetricRecord, params models.FinancialQueryParams) *models.FinancialDataPayload {
	payload := &models.FinancialDataPayload{
		Companies:       map[string][]models.FinancialMetricRecord{},
		Metrics:         map[string][]models.FinancialMetricRecord{},
		TimeSeries:      map[string]models.TimeSeries{},
		QueryParameters: params,
		TotalRecords:    len(records),
	}

	for _, r := range records {
		payload.Companies[r.CompanySymbol] = append(payload.Companies[r.CompanySymbol], r)
		payload.Metrics[r.MetricName] = append(payload.Metrics[r.MetricName], r)

		key := r.CompanySymbol + "_" + r.MetricName
		series, ok := payload.TimeSeries[key]
		if !ok {
			series = models.TimeSeries{Company: r.CompanySymbol, Metric: r.MetricName}
		}
		series.DataPoints = append(series.DataPoints, models.TimeSeriesPoint{
			Period:  fmt.Sprintf("%d-%s", r.Year, r.Period),
			Value:   r.MetricValue,
			Year:    r.Year,
			Quarter: r.Quarter,
		})
		payload.TimeSeries[key] = series
	}

	for key, series := range payload.TimeSeries {
		sort.SliceStable(series.DataPoints, func(i, j int) bool {
			a, b := series.DataPoints[i], series.DataPoints[j]
			if a.Year != b.Year {
				return a.Year < b.Year
			}
			return a.Quarter < b.Quarter
		})
		payload.TimeSeries[key] = series
	}

	payload.Summary = summarize(records)
	return payload
}

func summarize(records []models.FinancialMetricRecord) models.FinancialSummary {
	summary := models.FinancialSummary{
		TotalRecords:   len(records),
		MetricAverages: map[string]models.MetricStats{},
	}
	if len(records) == 0 {
		return summary
	}

	companies := map[string]bool{}
	byMetric := map[string][]float64{}
	summary.EarliestYear = records[0].Year
	summary.LatestYear = records[0].Year

	for _, r := range records {
		companies[r.CompanySymbol] = true
		byMetric[r.MetricName] = append(byMetric[r.MetricName], r.MetricValue)
		if r.Year < summary.EarliestYear {
			summary.EarliestYear = r.Year
		}
		if r.Year > summary.LatestYear {
			summary.LatestYear = r.Year
		}
	}

	summary.CompaniesCount = len(companies)
	summary.MetricsCount = len(byMetric)

	for metric, values := range byMetric {
		stats := models.MetricStats{Min: values[0], Max: values[0], Count: len(values)}
		sum := 0.0
		for _, v := range values {
			sum += v
			if v < stats.Min {
				stats.Min = v
			}
			if v > stats.Max {
				stats.Max = v
			}
		}
		stats.Average = round2(sum / float64(len(values)))
		stats.Min = round2(stats.Min)
		stats.Max = round2(stats.Max)
		summary.MetricAverages[metric] = stats
	}
	return summary
}

// SyntheticDataProvider generates plausible quarterly metrics,
// deterministically seeded per company and metric so repeated fetches
// for the same inputs reproduce the same figures.
type SyntheticDataProvider struct{}

func (SyntheticDataProvider) Fetch(params models.FinancialQueryParams) []models.FinancialMetricRecord {
	var records []models.FinancialMetricRecord
	for _, company := range params.Companies {
		for _, metric := range params.Metrics {
			rng := rand.New(rand.NewSource(seedFor(company, metric)))

			// 8 quarters spanning 2023-2024
			for q := 1; q <= 8; q++ {
				year, quarter := 2023, q
				if q > 4 {
					year, quarter = 2024, q-4
				}

				value := math.Max(0, syntheticValue(metric, rng))
				records = append(records, models.FinancialMetricRecord{
					CompanySymbol: company,
					MetricName:    metric,
					MetricValue:   round2(value),
					Period:        fmt.Sprintf("Q%d", quarter),
					Year:          year,
					Quarter:       quarter,
					DataSource:    syntheticSource,
				})
			}
		}
	}
	return records
}

func syntheticValue(metric string, rng *rand.Rand) float64 {
	switch metric {
	case "revenue":
		return rng.NormFloat64()*5000 + 25000 // million USD
	case "profit":
		return rng.NormFloat64()*1000 + 5000
	case "margin":
		return rng.NormFloat64()*5 + 20 // percent
	case "eps":
		return rng.NormFloat64()*0.5 + 3.5
	case "market_cap":
		return rng.NormFloat64()*100000 + 500000
	case "pe_ratio":
		return rng.NormFloat64()*5 + 25
	default:
		return rng.NormFloat64()*200 + 1000
	}
}

func seedFor(company, metric string) int64 {
	h := fnv.New64a()
	h.Write([]byte(company))
	h.Write([]byte{':'})
	h.Write([]byte(metric))
	return int64(h.Sum64())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
