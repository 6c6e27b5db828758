package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findocgpt/models"
)

func newTestChatBot(t *testing.T, classifier IntentClassifier, generator Generator) *ChatBot {
	t.Helper()
	db := openTestDB(t)
	store := NewVectorStore(db)
	return NewChatBot(
		classifier,
		generator,
		NewKPIExtractor(),
		NewRAGService(store, stubEmbedder{}, nil, 3),
		NewFinanceBenchService(db, SyntheticDataProvider{}, 24*time.Hour),
		NewForecaster(),
	)
}

func TestProcessMessageFinancialQuery(t *testing.T) {
	cb := newTestChatBot(t,
		stubClassifier{intent: models.Intent{
			NeedsFinancialData: true,
			QueryType:          "financial_data",
		}},
		stubGenerator{reply: "Apple's revenue grew."},
	)

	resp := cb.ProcessMessage(context.Background(), "What is AAPL's revenue for 2023?")

	assert.False(t, resp.Error)
	assert.Equal(t, "Apple's revenue grew.", resp.Message)
	require.NotNil(t, resp.KPIs)
	require.NotNil(t, resp.FinancialData)
	assert.Contains(t, resp.FinancialData.Companies, "AAPL")
	assert.Contains(t, resp.FinancialData.Metrics, "revenue")
	assert.Nil(t, resp.Forecast)
	assert.True(t, resp.HasCharts)
}

func TestProcessMessageForecastQuery(t *testing.T) {
	cb := newTestChatBot(t,
		stubClassifier{intent: models.Intent{
			NeedsForecasting: true,
			QueryType:        "forecasting",
		}},
		stubGenerator{},
	)

	resp := cb.ProcessMessage(context.Background(), "Forecast MSFT profit for the next 4 quarters")

	assert.False(t, resp.Error)
	assert.Nil(t, resp.FinancialData)
	require.NotNil(t, resp.Forecast)
	assert.Empty(t, resp.Forecast.Error)
	assert.Equal(t, "profit", resp.Forecast.Parameters.Metric)
	assert.Equal(t, "MSFT", resp.Forecast.Parameters.Company)
	assert.True(t, resp.HasCharts)
}

func TestProcessMessageGeneratorFailureFallsBack(t *testing.T) {
	cb := newTestChatBot(t, stubClassifier{intent: models.DefaultIntent()}, stubGenerator{fail: true})

	resp := cb.ProcessMessage(context.Background(), "hello there")

	assert.False(t, resp.Error)
	assert.Equal(t, fallbackAnswer, resp.Message)
	assert.False(t, resp.HasCharts)
}

func TestProcessMessageClassifierFailureUsesDefaults(t *testing.T) {
	cb := newTestChatBot(t, stubClassifier{fail: true}, stubGenerator{})

	resp := cb.ProcessMessage(context.Background(), "just a general question")

	assert.False(t, resp.Error)
	assert.Equal(t, "stub answer", resp.Message)
	assert.Nil(t, resp.FinancialData)
	assert.Nil(t, resp.Forecast)
	assert.False(t, resp.HasCharts)
}
