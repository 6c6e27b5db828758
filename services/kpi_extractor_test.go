package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRevenueMetric(t *testing.T) {
	ke := NewKPIExtractor()

	kpis := ke.Extract("AAPL reported revenue of $394,328 million in 2022")

	require.Contains(t, kpis.Metrics, "revenue")
	require.NotEmpty(t, kpis.Metrics["revenue"])
	assert.Equal(t, 394328.0, kpis.Metrics["revenue"][0].Value)
	assert.NotEmpty(t, kpis.Metrics["revenue"][0].RawText)
}

func TestExtractMultipleMetricTypes(t *testing.T) {
	ke := NewKPIExtractor()

	kpis := ke.Extract("Revenue of 100 million, profit of 20 million, eps 3.15 and margin of 20%")

	assert.Contains(t, kpis.Metrics, "revenue")
	assert.Contains(t, kpis.Metrics, "profit")
	assert.Contains(t, kpis.Metrics, "eps")
	assert.Contains(t, kpis.Metrics, "margin")
}

func TestExtractCompanyClassification(t *testing.T) {
	ke := NewKPIExtractor()

	kpis := ke.Extract("Compare MSFT with Apple and Acme Corp")

	var symbols, names []string
	for _, c := range kpis.Companies {
		if c.Type == "symbol" {
			symbols = append(symbols, c.Name)
		} else {
			names = append(names, c.Name)
		}
	}
	assert.Contains(t, symbols, "MSFT")
	assert.Contains(t, names, "Acme")
}

func TestExtractTimePeriodsAndCurrencies(t *testing.T) {
	ke := NewKPIExtractor()

	kpis := ke.Extract("Q3 2023 results showed $5 billion in USD terms, up from FY 2022")

	var periods []string
	for _, p := range kpis.TimePeriods {
		periods = append(periods, p.Period)
	}
	assert.Contains(t, periods, "Q3 2023")
	assert.Contains(t, periods, "FY 2022")

	assert.Contains(t, kpis.Currencies, "$")
	assert.Contains(t, kpis.Currencies, "USD")
	// presence test is deduplicated
	assert.Len(t, uniqueStrings(kpis.Currencies), len(kpis.Currencies))
}

func TestNormalizeUnparsableValueDefaultsToZero(t *testing.T) {
	ke := NewKPIExtractor()

	// "1,2,3.4.5" survives separator stripping as "123.4.5", which does
	// not parse; the documented quirk is value 0.0, not an error
	kpis := ke.Extract("revenue of 1,2,3.4.5 million")

	require.Contains(t, kpis.Metrics, "revenue")
	assert.Equal(t, 0.0, kpis.Metrics["revenue"][0].Value)
}

func TestConfidenceAlwaysInUnitInterval(t *testing.T) {
	ke := NewKPIExtractor()

	texts := []string{
		"",
		"hello there",
		"revenue of $100 million",
		"AAPL revenue of $100 million in Q1 2023 USD, profit 20, margin 15%, eps 3, market cap 2,000 billion, P/E ratio 28",
	}
	for _, text := range texts {
		kpis := ke.Extract(text)
		assert.GreaterOrEqual(t, kpis.ConfidenceScore, 0.0, "text: %q", text)
		assert.LessOrEqual(t, kpis.ConfidenceScore, 1.0, "text: %q", text)
	}
}

func TestConfidenceMonotonicInFindings(t *testing.T) {
	ke := NewKPIExtractor()

	none := ke.Extract("nothing financial here at all").ConfidenceScore
	oneMetric := ke.Extract("revenue of 100").ConfidenceScore
	metricAndCompany := ke.Extract("AAPL revenue of 100").ConfidenceScore
	everything := ke.Extract("AAPL revenue of $100 in Q1 2023").ConfidenceScore

	assert.LessOrEqual(t, none, oneMetric)
	assert.LessOrEqual(t, oneMetric, metricAndCompany)
	assert.LessOrEqual(t, metricAndCompany, everything)
}

func TestExtractEmptyTextYieldsEmptySet(t *testing.T) {
	ke := NewKPIExtractor()

	kpis := ke.Extract("")
	assert.Empty(t, kpis.Metrics)
	assert.Empty(t, kpis.Companies)
	assert.Equal(t, 0.0, kpis.ConfidenceScore)
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
