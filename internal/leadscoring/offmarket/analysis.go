// Package offmarket finds motivated-seller opportunities that are not on the open
// market. An AI analysis (or a local fallback) is always passed through a rule-based
// enhancement that has the final say on score and urgency.
package offmarket

import (
	"encoding/json"
	"strings"
)

// Analysis sources.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Analysis is the off-market assessment of one property.
type Analysis struct {
	OffMarketScore    int      `json:"off_market_score"`
	BaseScore         int      `json:"base_score"`
	BonusScore        int      `json:"bonus_score"`
	Reasoning         string   `json:"reasoning"`
	Indicators        []string `json:"indicators"`
	MotivationSignals []string `json:"motivation_signals"`
	Urgency           string   `json:"urgency"`
	EstimatedDiscount string   `json:"estimated_discount"`
	ContactStrategy   string   `json:"contact_strategy"`
	ActionItems       []string `json:"action_items"`
	LeadQuality       string   `json:"lead_quality"`
	AnalysisSource    string   `json:"analysis_source"`
}

// ParseResult is the outcome of reading model output. OK is false when no usable
// analysis could be extracted; Raw always holds the original text.
type ParseResult struct {
	Analysis Analysis
	Raw      string
	OK       bool
}

type rawAnalysis struct {
	OffMarketScore    *float64 `json:"off_market_score"`
	Reasoning         string   `json:"reasoning"`
	Indicators        []string `json:"indicators"`
	MotivationSignals []string `json:"motivation_signals"`
	Urgency           string   `json:"urgency"`
	EstimatedDiscount string   `json:"estimated_discount"`
	ContactStrategy   string   `json:"contact_strategy"`
	ActionItems       []string `json:"action_items"`
	LeadQuality       string   `json:"lead_quality"`
}

// ParseAnalysis extracts the first JSON object from raw, tolerating surrounding
// prose and code fences. It never panics.
func ParseAnalysis(raw string) ParseResult {
	result := ParseResult{Raw: raw}

	obj, ok := extractJSONObject(raw)
	if !ok {
		return result
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return result
	}
	if parsed.OffMarketScore == nil {
		return result
	}

	score := *parsed.OffMarketScore
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	result.Analysis = Analysis{
		OffMarketScore:    int(score + 0.5),
		Reasoning:         strings.TrimSpace(parsed.Reasoning),
		Indicators:        nonNil(parsed.Indicators),
		MotivationSignals: nonNil(parsed.MotivationSignals),
		Urgency:           parsed.Urgency,
		EstimatedDiscount: strings.TrimSpace(parsed.EstimatedDiscount),
		ContactStrategy:   strings.TrimSpace(parsed.ContactStrategy),
		ActionItems:       nonNil(parsed.ActionItems),
		LeadQuality:       strings.ToUpper(strings.TrimSpace(parsed.LeadQuality)),
		AnalysisSource:    SourceAI,
	}
	result.OK = true
	return result
}

// extractJSONObject returns the first balanced {...} in s, skipping braces that
// appear inside JSON strings.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
