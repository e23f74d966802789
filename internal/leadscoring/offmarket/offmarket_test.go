package offmarket

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leadscore_backend/internal/leadscoring/scoring"
	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/platform/ai"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
func i64Ptr(i int64) *int64   { return &i }

func newTestAnalyzer(completer ai.Completer) *Analyzer {
	return NewAnalyzer(nil, completer, nil).WithClock(func() time.Time { return fixedNow })
}

func TestParseAnalysis_ToleratesProseAndFences(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"off_market_score\": 72, \"reasoning\": \"uses {braces} in text\", \"urgency\": \"High\", \"lead_quality\": \"b\"}\n```\nLet me know."

	result := ParseAnalysis(raw)
	if !result.OK {
		t.Fatalf("expected parse to succeed")
	}
	if result.Analysis.OffMarketScore != 72 {
		t.Fatalf("expected score 72, got %d", result.Analysis.OffMarketScore)
	}
	if result.Analysis.Reasoning != "uses {braces} in text" {
		t.Fatalf("unexpected reasoning %q", result.Analysis.Reasoning)
	}
	if result.Analysis.LeadQuality != "B" {
		t.Fatalf("expected upper-cased quality, got %q", result.Analysis.LeadQuality)
	}
	if result.Analysis.AnalysisSource != SourceAI {
		t.Fatalf("expected ai source, got %s", result.Analysis.AnalysisSource)
	}
	if result.Raw != raw {
		t.Fatalf("expected raw text to be preserved")
	}
}

func TestParseAnalysis_Failures(t *testing.T) {
	tests := []string{
		"no json at all",
		"{\"reasoning\": \"missing score\"}",
		"{\"off_market_score\": \"high\"}",
		"{\"off_market_score\": 80",
	}
	for _, raw := range tests {
		if result := ParseAnalysis(raw); result.OK {
			t.Fatalf("expected parse of %q to fail", raw)
		}
	}
}

func TestParseAnalysis_ClampsScore(t *testing.T) {
	result := ParseAnalysis(`{"off_market_score": 150}`)
	if !result.OK || result.Analysis.OffMarketScore != 100 {
		t.Fatalf("expected clamped score 100, got %+v", result)
	}
}

func TestFallbackAnalysis_Plain(t *testing.T) {
	a := FallbackAnalysis(repository.Property{Source: "OahuRE.com"})

	if a.OffMarketScore != 50 || a.Urgency != scoring.UrgencyLow || a.EstimatedDiscount != "5-15%" || a.LeadQuality != "C" {
		t.Fatalf("unexpected fallback analysis: %+v", a)
	}
	if a.Reasoning != "Basic analysis - AI unavailable" {
		t.Fatalf("unexpected reasoning %q", a.Reasoning)
	}
	if len(a.ActionItems) != 3 || a.ActionItems[0] != "Research property history" {
		t.Fatalf("unexpected action items %v", a.ActionItems)
	}
}

func TestFallbackAnalysis_Distressed(t *testing.T) {
	a := FallbackAnalysis(repository.Property{
		DistressStatus: strPtr("Foreclosure"),
		Price:          i64Ptr(400000),
		Source:         "Hawaii Legal Notices",
	})

	if a.OffMarketScore != 115 {
		t.Fatalf("expected unclamped fallback score 115, got %d", a.OffMarketScore)
	}
	if a.Urgency != scoring.UrgencyHigh || a.EstimatedDiscount != "15-25%" || a.LeadQuality != "A" {
		t.Fatalf("unexpected fallback analysis: %+v", a)
	}
	if len(a.MotivationSignals) != 2 {
		t.Fatalf("expected 2 motivation signals, got %v", a.MotivationSignals)
	}
}

func TestEnhance_SourceUsesStrongestMatchOnly(t *testing.T) {
	a := newTestAnalyzer(nil)
	p := repository.Property{
		Source:    "Hawaii Legal Notices - Court Records",
		Price:     i64Ptr(450000),
		CreatedAt: fixedNow.Add(-3 * 24 * time.Hour),
	}

	out := a.Enhance(p, Analysis{OffMarketScore: 10, Urgency: "HIGH "})

	// court 30 + fresh 10 + price under 500k 15
	if out.BonusScore != 55 || out.OffMarketScore != 65 {
		t.Fatalf("expected bonus 55 and score 65, got %d and %d", out.BonusScore, out.OffMarketScore)
	}
	if out.BaseScore != 10 {
		t.Fatalf("expected base score 10, got %d", out.BaseScore)
	}
	if out.Urgency != scoring.UrgencyHigh {
		t.Fatalf("expected normalised high urgency, got %s", out.Urgency)
	}
	for _, ind := range out.Indicators {
		if ind == "Official legal notice publication" {
			t.Fatalf("expected weaker legal-notice source bonus to be skipped")
		}
	}
}

func TestEnhance_CompoundingAndPreForeclosureFloor(t *testing.T) {
	a := newTestAnalyzer(nil)
	p := repository.Property{
		DistressStatus: strPtr("Pre-foreclosure"),
		OwnerName:      strPtr("Kahala Family Trust"),
	}

	out := a.Enhance(p, Analysis{OffMarketScore: 0, Urgency: "low"})

	// pre-foreclosure 30 + trust owner 10 + compounding 15
	if out.OffMarketScore != 55 {
		t.Fatalf("expected score 55, got %d", out.OffMarketScore)
	}
	if out.Urgency != scoring.UrgencyHigh {
		t.Fatalf("expected pre-foreclosure to force high, got %s", out.Urgency)
	}
	if out.Indicators[len(out.Indicators)-1] != "Multiple distress factors compounding" {
		t.Fatalf("expected compounding indicator last, got %v", out.Indicators)
	}
}

func TestEnhance_CapsAtHundredAndForcesCritical(t *testing.T) {
	a := newTestAnalyzer(nil)
	p := repository.Property{
		DistressStatus: strPtr("Court Foreclosure"),
		Details:        strPtr("tax lien recorded; probate estate"),
		OwnerName:      strPtr("ABC LLC"),
		Source:         "Honolulu Treasury Tax Notice",
		Price:          i64Ptr(250000),
		CreatedAt:      fixedNow.Add(-100 * 24 * time.Hour),
	}

	out := a.Enhance(p, Analysis{OffMarketScore: 10, Urgency: "low"})

	if out.OffMarketScore != 100 {
		t.Fatalf("expected score capped at 100, got %d", out.OffMarketScore)
	}
	if out.BonusScore != 185 {
		t.Fatalf("expected bonus 185, got %d", out.BonusScore)
	}
	if out.Urgency != scoring.UrgencyCritical {
		t.Fatalf("expected court foreclosure to force critical, got %s", out.Urgency)
	}
}

func TestEnhance_TaxSignalForcesHigh(t *testing.T) {
	a := newTestAnalyzer(nil)
	details := []string{
		"Delinquent tax notice posted",
		"Property taxes delinquent since 2021",
		"owner owes taxes, lien recorded",
	}

	for _, d := range details {
		out := a.Enhance(repository.Property{Details: strPtr(d)}, Analysis{OffMarketScore: 20, Urgency: "low"})
		if out.BonusScore != 25 {
			t.Fatalf("%q: expected tax bonus 25, got %d", d, out.BonusScore)
		}
		if out.Urgency != scoring.UrgencyHigh {
			t.Fatalf("%q: expected tax signal to force high, got %s", d, out.Urgency)
		}
	}
}

func TestEnhance_EntityOwnerIsCaseSensitive(t *testing.T) {
	a := newTestAnalyzer(nil)

	out := a.Enhance(repository.Property{OwnerName: strPtr("Wellcome Family")}, Analysis{OffMarketScore: 20})
	if out.BonusScore != 0 {
		t.Fatalf("expected no ownership bonus, got %d (%v)", out.BonusScore, out.Indicators)
	}
}

func TestEnhance_DoesNotMutateInput(t *testing.T) {
	a := newTestAnalyzer(nil)
	in := Analysis{OffMarketScore: 40, Indicators: []string{"from ai"}}

	_ = a.Enhance(repository.Property{DistressStatus: strPtr("Foreclosure")}, in)
	if len(in.Indicators) != 1 || in.OffMarketScore != 40 {
		t.Fatalf("expected input analysis untouched, got %+v", in)
	}
}

func TestOverrideUrgency(t *testing.T) {
	tests := []struct {
		status  string
		tax     bool
		score   int
		current string
		want    string
	}{
		{"Foreclosure", false, 10, "low", scoring.UrgencyCritical},
		{"", false, 71, "low", scoring.UrgencyMedium},
		{"", false, 71, "critical", scoring.UrgencyCritical},
		{"", false, 70, "whenever", scoring.UrgencyLow},
		{"", true, 10, "medium", scoring.UrgencyHigh},
	}
	for _, tt := range tests {
		if got := OverrideUrgency(tt.status, tt.tax, tt.score, tt.current); got != tt.want {
			t.Fatalf("OverrideUrgency(%q, %v, %d, %q): expected %s, got %s", tt.status, tt.tax, tt.score, tt.current, tt.want, got)
		}
	}
}

func TestAnalyze_UsesAIThenEnhances(t *testing.T) {
	completer := ai.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "TAX DELINQUENCY") {
			t.Fatalf("expected prompt to cover tax delinquency")
		}
		return `{"off_market_score": 60, "reasoning": "motivated", "indicators": ["vacant"], "urgency": "medium", "lead_quality": "B"}`, nil
	})
	a := newTestAnalyzer(completer)

	out := a.Analyze(context.Background(), repository.Property{DistressStatus: strPtr("Foreclosure")})

	if out.AnalysisSource != SourceAI {
		t.Fatalf("expected ai analysis, got %s", out.AnalysisSource)
	}
	if out.OffMarketScore != 95 {
		t.Fatalf("expected 60 + 35 = 95, got %d", out.OffMarketScore)
	}
	if out.Indicators[0] != "vacant" {
		t.Fatalf("expected ai indicators first, got %v", out.Indicators)
	}
	if out.Urgency != scoring.UrgencyCritical {
		t.Fatalf("expected critical, got %s", out.Urgency)
	}
}

func TestAnalyze_FallsBackOnAIError(t *testing.T) {
	completer := ai.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("rate limited")
	})
	a := newTestAnalyzer(completer)

	out := a.Analyze(context.Background(), repository.Property{Source: "OahuRE.com"})
	if out.AnalysisSource != SourceFallback || out.OffMarketScore != 50 {
		t.Fatalf("expected fallback 50, got %s %d", out.AnalysisSource, out.OffMarketScore)
	}
}

func TestAnalyze_FallsBackOnGarbage(t *testing.T) {
	completer := ai.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "I cannot help with that.", nil
	})
	a := newTestAnalyzer(completer)

	out := a.Analyze(context.Background(), repository.Property{})
	if out.AnalysisSource != SourceFallback {
		t.Fatalf("expected fallback analysis, got %s", out.AnalysisSource)
	}
}

func TestSortLeads(t *testing.T) {
	leads := []Lead{
		{ID: 1, UrgencyLevel: "medium", OffMarketScore: 99},
		{ID: 2, UrgencyLevel: "critical", OffMarketScore: 70},
		{ID: 4, UrgencyLevel: "high", OffMarketScore: 80},
		{ID: 3, UrgencyLevel: "high", OffMarketScore: 80},
		{ID: 5, UrgencyLevel: "high", OffMarketScore: 90},
	}
	SortLeads(leads)

	want := []int64{2, 5, 3, 4, 1}
	for i, id := range want {
		if leads[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d", i, id, leads[i].ID)
		}
	}
}

func TestFallbackSummary(t *testing.T) {
	if got := FallbackSummary(nil); got != "No high-potential off-market opportunities found in current data." {
		t.Fatalf("unexpected empty summary %q", got)
	}

	got := FallbackSummary([]Lead{{OffMarketScore: 70}, {OffMarketScore: 85}})
	want := "Found 2 off-market opportunities with average score of 77.5. Focus on foreclosure and distressed properties for best results."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSummarize_FallsBackWithoutCompleter(t *testing.T) {
	a := newTestAnalyzer(nil)
	got := a.Summarize(context.Background(), []Lead{{OffMarketScore: 80}})
	if !strings.HasPrefix(got, "Found 1 off-market opportunities") {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestNewLead_NormalisesPhoneContact(t *testing.T) {
	lead := NewLead(repository.Property{ID: 9, OwnerContact: strPtr("(808) 586-0034")}, Analysis{OffMarketScore: 80})
	if lead.OwnerContact != "+18085860034" {
		t.Fatalf("expected E.164 contact, got %q", lead.OwnerContact)
	}

	lead = NewLead(repository.Property{ID: 9, OwnerContact: strPtr("owner@example.com")}, Analysis{})
	if lead.OwnerContact != "owner@example.com" {
		t.Fatalf("expected email to pass through, got %q", lead.OwnerContact)
	}
}
