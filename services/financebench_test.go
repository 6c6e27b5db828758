package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findocgpt/models"
)

func TestSyntheticProviderDeterministic(t *testing.T) {
	provider := SyntheticDataProvider{}
	params := models.FinancialQueryParams{
		Companies: []string{"AAPL"},
		Metrics:   []string{"revenue"},
	}

	first := provider.Fetch(params)
	second := provider.Fetch(params)
	require.Equal(t, first, second)

	// 8 quarters spanning 2023-2024
	require.Len(t, first, 8)
	years := map[int]int{}
	for _, r := range first {
		years[r.Year]++
		assert.GreaterOrEqual(t, r.MetricValue, 0.0)
		assert.Equal(t, "AAPL", r.CompanySymbol)
		assert.Equal(t, "revenue", r.MetricName)
	}
	assert.Equal(t, 4, years[2023])
	assert.Equal(t, 4, years[2024])
}

func TestQueryDefaultsWhenNothingExtracted(t *testing.T) {
	fb := NewFinanceBenchService(openTestDB(t), SyntheticDataProvider{}, 24*time.Hour)

	params := fb.ParseQuery(models.EmptyKPISet())
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, params.Companies)
	assert.Equal(t, []string{"revenue", "profit", "margin"}, params.Metrics)
}

func TestCacheFreshnessWindow(t *testing.T) {
	fb := NewFinanceBenchService(openTestDB(t), SyntheticDataProvider{}, 24*time.Hour)
	ctx := context.Background()

	base := time.Now()
	fb.now = func() time.Time { return base }

	params := models.FinancialQueryParams{
		Companies: []string{"AAPL"},
		Metrics:   []string{"revenue"},
	}

	// first query populates the cache
	first, err := fb.Query(ctx, params)
	require.NoError(t, err)
	require.Len(t, first, 8)

	// 23h later: still fresh, served from cache with original timestamps
	fb.now = func() time.Time { return base.Add(23 * time.Hour) }
	hit, err := fb.Query(ctx, params)
	require.NoError(t, err)
	require.Len(t, hit, 8)
	assert.NotZero(t, hit[0].ID, "cache hit should carry persisted row ids")

	// 25h later: stale, triggers re-synthesis and a fresh persist
	fb.now = func() time.Time { return base.Add(25 * time.Hour) }
	refetched, err := fb.Query(ctx, params)
	require.NoError(t, err)
	require.Len(t, refetched, 8)
	assert.Zero(t, refetched[0].ID, "stale window should re-fetch from the provider")

	// and the re-synthesized rows are immediately a hit again
	hitAgain, err := fb.Query(ctx, params)
	require.NoError(t, err)
	require.Len(t, hitAgain, 8)
	assert.NotZero(t, hitAgain[0].ID)
}

func TestQueryFinancialDataGroupsPayload(t *testing.T) {
	fb := NewFinanceBenchService(openTestDB(t), SyntheticDataProvider{}, 24*time.Hour)

	kpis := models.EmptyKPISet()
	kpis.Companies = []models.CompanyMention{{Name: "AAPL", Type: "symbol"}}
	kpis.Metrics["revenue"] = []models.MetricMatch{{Value: 100}}

	payload, err := fb.QueryFinancialData(context.Background(), kpis)
	require.NoError(t, err)

	assert.Contains(t, payload.Companies, "AAPL")
	assert.Contains(t, payload.Metrics, "revenue")
	assert.Equal(t, "FinanceBench", payload.DataSource)
	assert.Equal(t, 8, payload.TotalRecords)

	series, ok := payload.TimeSeries["AAPL_revenue"]
	require.True(t, ok)
	require.Len(t, series.DataPoints, 8)
	for i := 1; i < len(series.DataPoints); i++ {
		prev, cur := series.DataPoints[i-1], series.DataPoints[i]
		assert.True(t, prev.Year < cur.Year || (prev.Year == cur.Year && prev.Quarter < cur.Quarter),
			"time series must be sorted by (year, quarter)")
	}

	stats, ok := payload.Summary.MetricAverages["revenue"]
	require.True(t, ok)
	assert.Equal(t, 8, stats.Count)
	assert.LessOrEqual(t, stats.Min, stats.Average)
	assert.LessOrEqual(t, stats.Average, stats.Max)
	assert.Equal(t, 2023, payload.Summary.EarliestYear)
	assert.Equal(t, 2024, payload.Summary.LatestYear)
}
