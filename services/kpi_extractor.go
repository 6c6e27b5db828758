package services

import (
	"regexp"
	"strconv"
	"strings"

	"findocgpt/internal/logger"
	"findocgpt/models"
)

// KPIExtractor pulls financial metrics, company mentions, time periods,
// and currency markers out of free text with a fixed pattern table.
type KPIExtractor struct {
	metricPatterns   map[string][]*regexp.Regexp
	symbolPattern    *regexp.Regexp
	namePattern      *regexp.Regexp
	knownCompanies   *regexp.Regexp
	timePatterns     []*regexp.Regexp
	currencyPatterns map[string]*regexp.Regexp
	separatorPattern *regexp.Regexp
}

func NewKPIExtractor() *KPIExtractor {
	compile := func(patterns ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(patterns))
		for i, p := range patterns {
			out[i] = regexp.MustCompile(`(?i)` + p)
		}
		return out
	}

	return &KPIExtractor{
		metricPatterns: map[string][]*regexp.Regexp{
			"revenue": compile(
				`revenue\s*(?:of\s*)?\$?([\d,\.]+)\s*(?:million|billion|k|m|b)?`,
				`sales\s*(?:of\s*)?\$?([\d,\.]+)\s*(?:million|billion|k|m|b)?`,
				`total\s*revenue\s*\$?([\d,\.]+)\s*(?:million|billion|k|m|b)?`,
			),
			"profit": compile(
				`profit\s*(?:of\s*)?\$?([\d,\.]+)\s*(?:million|billion|k|m|b)?`,
				`net\s*income\s*\$?([\d,\.]+)\s*(?:million|billion|k|m|b)?`,
				`earnings\s*\$?([\d,\.]+)\s*(?:million|billion|k|m|b)?`,
			),
			"margin": compile(
				`(?:profit\s*)?margin\s*(?:of\s*)?([\d,\.]+)%?`,
				`(?:gross\s*)?margin\s*:?\s*([\d,\.]+)%`,
				`operating\s*margin\s*:?\s*([\d,\.]+)%`,
			),
			"eps": compile(
				`earnings\s*per\s*share\s*\$?([\d,\.]+)`,
				`eps\s*\$?([\d,\.]+)`,
				`diluted\s*eps\s*\$?([\d,\.]+)`,
			),
			"market_cap": compile(
				`market\s*cap(?:italization)?\s*\$?([\d,\.]+)\s*(?:million|billion|k|m|b)?`,
				`market\s*value\s*\$?([\d,\.]+)\s*(?:million|billion|k|m|b)?`,
			),
			"pe_ratio": compile(
				`p/e\s*ratio\s*([\d,\.]+)`,
				`price\s*to\s*earnings\s*([\d,\.]+)`,
				`pe\s*ratio\s*([\d,\.]+)`,
			),
		},
		// Case-sensitive: lowercasing these would turn every short word
		// into a ticker.
		symbolPattern:  regexp.MustCompile(`\b([A-Z]{2,5})\b`),
		namePattern:    regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Inc|Corp|Company|Ltd)\b`),
		knownCompanies: regexp.MustCompile(`(?i)\b(Apple|Microsoft|Google|Amazon|Tesla|Meta|Netflix|Nvidia)\b`),
		timePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d{4})`),
			regexp.MustCompile(`(?i)(Q[1-4]\s*\d{4})`),
			regexp.MustCompile(`(?i)(FY\s*\d{4})`),
			regexp.MustCompile(`(?i)(\d{1,2}/\d{1,2}/\d{2,4})`),
			regexp.MustCompile(`(?i)((?:January|February|March|April|May|June|July|August|September|October|November|December)\s*\d{4})`),
		},
		currencyPatterns: map[string]*regexp.Regexp{
			"$":      regexp.MustCompile(`\$`),
			"USD":    regexp.MustCompile(`USD`),
			"EUR":    regexp.MustCompile(`EUR`),
			"GBP":    regexp.MustCompile(`GBP`),
			"JPY":    regexp.MustCompile(`JPY`),
			"dollar": regexp.MustCompile(`(?i)dollars?`),
			"euro":   regexp.MustCompile(`(?i)euros?`),
			"pound":  regexp.MustCompile(`(?i)pounds?`),
		},
		separatorPattern: regexp.MustCompile(`[,\s]`),
	}
}

// Extract runs every pattern over the text and scores the result. Never
// fails: an internal panic yields an empty set with zero confidence.
func (ke *KPIExtractor) Extract(text string) (result models.KPISet) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("KPI extraction panicked", "cause", r)
			result = models.EmptyKPISet()
		}
	}()

	result = models.EmptyKPISet()

	for metric, patterns := range ke.metricPatterns {
		for _, pattern := range patterns {
			for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
				// m[2:4] is the numeric capture group
				raw := text[m[0]:m[1]]
				value := ke.normalizeValue(text[m[2]:m[3]])
				result.Metrics[metric] = append(result.Metrics[metric], models.MetricMatch{
					Value:    value,
					RawText:  raw,
					Position: [2]int{m[0], m[1]},
				})
			}
		}
	}

	result.Companies = ke.extractCompanies(text)
	result.TimePeriods = ke.extractTimePeriods(text)
	result.Currencies = ke.extractCurrencies(text)
	result.ConfidenceScore = calculateConfidence(result)

	return result
}

// normalizeValue strips separators and parses the float. Unparsable
// input yields 0.0 rather than an error; matches carry the raw text so
// callers can still see what was captured.
func (ke *KPIExtractor) normalizeValue(raw string) float64 {
	clean := ke.separatorPattern.ReplaceAllString(raw, "")
	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0.0
	}
	return value
}

func (ke *KPIExtractor) extractCompanies(text string) []models.CompanyMention {
	companies := []models.CompanyMention{}
	for _, pattern := range []*regexp.Regexp{ke.symbolPattern, ke.namePattern, ke.knownCompanies} {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			name := text[m[2]:m[3]]
			kind := "name"
			if name == strings.ToUpper(name) && len(name) <= 5 {
				kind = "symbol"
			}
			companies = append(companies, models.CompanyMention{
				Name:     name,
				Type:     kind,
				Position: [2]int{m[0], m[1]},
			})
		}
	}
	return companies
}

func (ke *KPIExtractor) extractTimePeriods(text string) []models.TimePeriodMention {
	periods := []models.TimePeriodMention{}
	for _, pattern := range ke.timePatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			periods = append(periods, models.TimePeriodMention{
				Period:   text[m[2]:m[3]],
				Position: [2]int{m[0], m[1]},
			})
		}
	}
	return periods
}

// extractCurrencies is a presence test per currency marker, deduplicated.
func (ke *KPIExtractor) extractCurrencies(text string) []string {
	currencies := []string{}
	seen := map[string]bool{}
	// fixed order so output is deterministic
	for _, tag := range []string{"$", "USD", "EUR", "GBP", "JPY", "dollar", "euro", "pound"} {
		if !seen[tag] && ke.currencyPatterns[tag].MatchString(text) {
			currencies = append(currencies, tag)
			seen[tag] = true
		}
	}
	return currencies
}

// calculateConfidence scores how much structure was found:
// min(0.2 per distinct metric type, 0.6) + 0.2 for any company
// + 0.1 for any period + 0.1 for any currency, clamped to 1.0.
func calculateConfidence(kpis models.KPISet) float64 {
	score := 0.0

	if len(kpis.Metrics) > 0 {
		metricScore := float64(len(kpis.Metrics)) * 0.2
		if metricScore > 0.6 {
			metricScore = 0.6
		}
		score += metricScore
	}
	if len(kpis.Companies) > 0 {
		score += 0.2
	}
	if len(kpis.TimePeriods) > 0 {
		score += 0.1
	}
	if len(kpis.Currencies) > 0 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
