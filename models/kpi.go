package models

// MetricMatch is one extracted numeric mention of a financial metric.
// Value is the normalized float; unparsable numerics normalize to 0.0
// rather than failing the match.
type MetricMatch struct {
	Value    float64 `json:"value"`
	RawText  string  `json:"raw_text"`
	Position [2]int  `json:"position"`
}

// CompanyMention is a detected company reference, classified as a stock
// symbol (uppercase, <=5 chars) or a company name.
type CompanyMention struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // "symbol" or "name"
	Position [2]int `json:"position"`
}

// TimePeriodMention is a detected year, quarter, fiscal-year, date, or
// month-year reference.
type TimePeriodMention struct {
	Period   string `json:"period"`
	Position [2]int `json:"position"`
}

// KPISet is the per-query extraction result. Transient; never persisted
// except as an audit JSON blob on the chat message log.
type KPISet struct {
	Metrics         map[string][]MetricMatch `json:"metrics"`
	Companies       []CompanyMention         `json:"companies"`
	TimePeriods     []TimePeriodMention      `json:"time_periods"`
	Currencies      []string                 `json:"currencies"`
	ConfidenceScore float64                  `json:"confidence_score"`
}

// EmptyKPISet is the extraction result for any internal failure:
// nothing found, zero confidence.
func EmptyKPISet() KPISet {
	return KPISet{
		Metrics:     map[string][]MetricMatch{},
		Companies:   []CompanyMention{},
		TimePeriods: []TimePeriodMention{},
		Currencies:  []string{},
	}
}
