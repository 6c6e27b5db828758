package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"findocgpt/models"
)

const intentSystemPrompt = `You are a financial intent analyzer. Analyze the user's message and determine:
1. Whether they need financial data from FinanceBench
2. Whether they need forecasting/prediction
3. The main topic or company they're asking about
4. The type of financial information requested

Respond with JSON in this format:
{
    "needs_financial_data": boolean,
    "needs_forecasting": boolean,
    "company": "string or null",
    "topic": "string",
    "query_type": "kpi|comparison|analysis|forecast|general"
}`

// Classify asks the model what the query needs. The payload is loosely
// typed on the wire; unknown keys are ignored and missing keys keep
// their zero defaults so a partially-valid answer still classifies.
func (gc *GeminiClient) Classify(ctx context.Context, message string) (models.Intent, error) {
	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return models.Intent{}, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.cfg.GeminiModel)
		model.SetTemperature(0)
		model.ResponseMIMEType = "application/json"
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(intentSystemPrompt)},
		}
		return model.GenerateContent(ctx, genai.Text(message))
	})
	if err != nil {
		return models.Intent{}, err
	}

	raw := strings.TrimSpace(responseText(result.(*genai.GenerateContentResponse)))
	if raw == "" {
		return models.Intent{}, errors.New("empty intent response")
	}

	var payload struct {
		NeedsFinancialData bool    `json:"needs_financial_data"`
		NeedsForecasting   bool    `json:"needs_forecasting"`
		Company            *string `json:"company"`
		Topic              string  `json:"topic"`
		QueryType          string  `json:"query_type"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return models.Intent{}, err
	}

	intent := models.Intent{
		NeedsFinancialData: payload.NeedsFinancialData,
		NeedsForecasting:   payload.NeedsForecasting,
		Topic:              payload.Topic,
		QueryType:          payload.QueryType,
	}
	if payload.Company != nil {
		intent.Company = *payload.Company
	}
	if intent.Topic == "" {
		intent.Topic = "general"
	}
	if intent.QueryType == "" {
		intent.QueryType = "general"
	}
	return intent, nil
}
