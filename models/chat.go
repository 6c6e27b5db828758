package models

import "time"

// Intent classifies what a query needs so the orchestrator can decide
// which subsystems to invoke.
type Intent struct {
	NeedsFinancialData bool   `json:"needs_financial_data"`
	NeedsForecasting   bool   `json:"needs_forecasting"`
	Company            string `json:"company,omitempty"`
	Topic              string `json:"topic"`
	QueryType          string `json:"query_type"` // kpi|comparison|analysis|forecast|general
}

// DefaultIntent is the fallback when classification fails or returns
// malformed output: answer generally, invoke nothing extra.
func DefaultIntent() Intent {
	return Intent{Topic: "general", QueryType: "general"}
}

type ChatRequest struct {
	Message   string `json:"message" binding:"required,min=1,max=2000"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the assembled answer. Message is always non-empty;
// partial failures leave only the affected optional field nil.
type ChatResponse struct {
	Message       string                `json:"message"`
	KPIs          *KPISet               `json:"kpis,omitempty"`
	FinancialData *FinancialDataPayload `json:"financial_data,omitempty"`
	Forecast      *ForecastResult       `json:"forecast,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
	HasCharts     bool                  `json:"has_charts"`
	Error         bool                  `json:"error,omitempty"`
}

// ChatSession tracks one conversation.
type ChatSession struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessageRecord is the persisted log of one exchange.
type ChatMessageRecord struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	Message       string    `json:"message"`
	Response      string    `json:"response,omitempty"`
	MessageType   string    `json:"message_type"` // "user" or "bot"
	KPIsExtracted string    `json:"kpis_extracted,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
