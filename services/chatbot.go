package services

import (
	"context"
	"time"

	"findocgpt/internal/logger"
	"findocgpt/models"
)

const systemPrompt = `You are a helpful financial assistant with access to FinanceBench data,
KPI extraction capabilities, and forecasting tools. Provide clear, accurate, and helpful responses
to financial queries. Use the provided context to enhance your responses, but clearly indicate
when information comes from external sources.`

const (
	fallbackAnswer = "I apologize, but I'm having trouble generating a response right now. Please try again."
	errorAnswer    = "I apologize, but I encountered an error while processing your request."
)

// ChatBot fuses intent classification, KPI extraction, retrieval
// context, the financial data cache, and the forecast engine into one
// response. Stateless across requests; all persistence lives in the
// stores, so concurrent invocations are safe.
type ChatBot struct {
	classifier IntentClassifier
	generator  Generator
	extractor  *KPIExtractor
	rag        *RAGService
	finance    *FinanceBenchService
	forecaster *Forecaster
}

func NewChatBot(classifier IntentClassifier, generator Generator, extractor *KPIExtractor,
	rag *RAGService, finance *FinanceBenchService, forecaster *Forecaster) *ChatBot {
	return &ChatBot{
		classifier: classifier,
		generator:  generator,
		extractor:  extractor,
		rag:        rag,
		finance:    finance,
		forecaster: forecaster,
	}
}

// ProcessMessage never raises: every subsystem failure degrades to an
// absent field or a fallback message, and anything unclassified is
// caught here and converted into an error envelope.
func (cb *ChatBot) ProcessMessage(ctx context.Context, message string) (response models.ChatResponse) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unhandled failure in message pipeline", "cause", r)
			response = models.ChatResponse{
				Message:   errorAnswer,
				Error:     true,
				Timestamp: time.Now().UTC(),
			}
		}
	}()

	intent := cb.analyzeIntent(ctx, message)

	kpis := cb.extractor.Extract(message)

	ragContext := cb.rag.GetContext(ctx, message)
	logger.Info("retrieval context built", "used", ragContext != "", "query_type", intent.QueryType)

	answer := cb.generateAnswer(ctx, message, ragContext)

	var financialData *models.FinancialDataPayload
	if intent.NeedsFinancialData {
		data, err := cb.finance.QueryFinancialData(ctx, kpis)
		if err != nil {
			logger.Error("financial data unavailable", "error", err)
		} else {
			financialData = data
		}
	}

	var forecast *models.ForecastResult
	if intent.NeedsForecasting {
		forecast = cb.forecaster.GenerateForecast(message, kpis)
	}

	return models.ChatResponse{
		Message:       answer,
		KPIs:          &kpis,
		FinancialData: financialData,
		Forecast:      forecast,
		Timestamp:     time.Now().UTC(),
		HasCharts:     financialData != nil || forecast != nil,
	}
}

func (cb *ChatBot) analyzeIntent(ctx context.Context, message string) models.Intent {
	intent, err := cb.classifier.Classify(ctx, message)
	if err != nil {
		logger.Warn("intent classification failed, using default", "error", err)
		return models.DefaultIntent()
	}
	return intent
}

func (cb *ChatBot) generateAnswer(ctx context.Context, message, ragContext string) string {
	answer, err := cb.generator.Generate(ctx, systemPrompt, message, ragContext)
	if err != nil {
		logger.Error("answer generation failed", "error", err)
		return fallbackAnswer
	}
	return answer
}
