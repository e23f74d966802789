package scoring

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/platform/ai"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func i64Ptr(i int64) *int64   { return &i }

func newTestScorer(completer ai.Completer) *Scorer {
	return New(nil, completer, nil, WithClock(func() time.Time { return fixedNow }))
}

func distressedEstate() repository.Property {
	return repository.Property{
		ID:             7,
		Address:        "123 Kalihi St",
		Zip:            strPtr("96817"),
		PropertyType:   "Single-family",
		Price:          i64Ptr(250000),
		DistressStatus: strPtr("Pre-foreclosure"),
		Details:        strPtr("estate sale, tax delinquent, notice of default filed"),
		OwnerName:      strPtr("Smith Family Trust"),
		Source:         "Honolulu County Records",
		CreatedAt:      fixedNow.Add(-100 * 24 * time.Hour),
	}
}

func TestScore_DistressedEstateExample(t *testing.T) {
	s := newTestScorer(nil)

	result, err := s.Score(context.Background(), distressedEstate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := result.ScoringBreakdown
	if b.ForeclosureTimeline.Score != 35 || b.OwnerDistress.Score != 25 || b.MarketFactors.Score != 20 ||
		b.PropertyCharacteristics.Score != 6 || b.SourceReliability.Score != 5 {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
	if result.TotalScore != 91 {
		t.Fatalf("expected total 91, got %d", result.TotalScore)
	}
	if result.UrgencyLevel != UrgencyHigh {
		t.Fatalf("expected high urgency, got %s", result.UrgencyLevel)
	}
	if result.RecommendedAction != "IMMEDIATE CONTACT - High priority lead" {
		t.Fatalf("unexpected action %q", result.RecommendedAction)
	}
	if result.ContactTimeline != "Contact within 24 hours" {
		t.Fatalf("unexpected timeline %q", result.ContactTimeline)
	}
	if len(result.DistressIndicators) != 8 {
		t.Fatalf("expected 8 indicators, got %d: %v", len(result.DistressIndicators), result.DistressIndicators)
	}
	if result.DistressIndicators[0] != "Pre-foreclosure status - early intervention possible" {
		t.Fatalf("expected foreclosure indicators first, got %q", result.DistressIndicators[0])
	}
	if result.AcquisitionProbability.Probability != 95 || result.AcquisitionProbability.Confidence != "High" {
		t.Fatalf("unexpected acquisition probability: %+v", result.AcquisitionProbability)
	}
	if result.AcquisitionProbability.Reasoning != "Based on 8 distress indicators and score of 91" {
		t.Fatalf("unexpected reasoning %q", result.AcquisitionProbability.Reasoning)
	}
	if result.SuccessLikelihood != 85 {
		t.Fatalf("expected fallback likelihood 85, got %d", result.SuccessLikelihood)
	}
}

func TestScore_EmptyPropertyNeverErrors(t *testing.T) {
	s := newTestScorer(nil)

	result, err := s.Score(context.Background(), repository.Property{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// missing zip falls back to 96814, which is high demand
	if result.ScoringBreakdown.MarketFactors.Score != 8 {
		t.Fatalf("expected market 8 for default zip, got %v", result.ScoringBreakdown.MarketFactors.Score)
	}
	if result.ScoringBreakdown.SourceReliability.Score != 1 {
		t.Fatalf("expected unknown source to score 1, got %v", result.ScoringBreakdown.SourceReliability.Score)
	}
	if result.TotalScore != 9 {
		t.Fatalf("expected total 9, got %d", result.TotalScore)
	}
	if result.UrgencyLevel != UrgencyMedium {
		t.Fatalf("expected medium urgency with one indicator, got %s", result.UrgencyLevel)
	}
	if result.SuccessLikelihood != 19 {
		t.Fatalf("expected fallback likelihood 19, got %d", result.SuccessLikelihood)
	}
}

func TestScore_CapsEveryFactor(t *testing.T) {
	s := newTestScorer(nil)
	p := repository.Property{
		ID:             2,
		Zip:            strPtr("96813"),
		PropertyType:   "Multi-family",
		Sqft:           intPtr(4000),
		LotSize:        intPtr(9000),
		Price:          i64Ptr(100000),
		DistressStatus: strPtr("Foreclosure"),
		Details: strPtr("trustee sale, notice of default, auction 4/12/2025, tax lien and second lien, " +
			"probate, divorce, bankruptcy chapter 7, vacant"),
		OwnerName: strPtr("Kona Holdings LLC"),
		Source:    "Honolulu County Records",
		CreatedAt: fixedNow.Add(-200 * 24 * time.Hour),
	}

	result, err := s.Score(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	caps := []struct {
		name  string
		score float64
		max   float64
	}{
		{"foreclosure", result.ScoringBreakdown.ForeclosureTimeline.Score, 35},
		{"owner", result.ScoringBreakdown.OwnerDistress.Score, 25},
		{"market", result.ScoringBreakdown.MarketFactors.Score, 20},
		{"characteristics", result.ScoringBreakdown.PropertyCharacteristics.Score, 15},
		{"source", result.ScoringBreakdown.SourceReliability.Score, 5},
	}
	for _, c := range caps {
		if c.score != c.max {
			t.Fatalf("expected %s to be capped at %v, got %v", c.name, c.max, c.score)
		}
	}
	if result.TotalScore != 100 {
		t.Fatalf("expected total 100, got %d", result.TotalScore)
	}
	if result.UrgencyLevel != UrgencyCritical {
		t.Fatalf("expected critical urgency, got %s", result.UrgencyLevel)
	}
	if result.ContactTimeline != "URGENT - Contact immediately" {
		t.Fatalf("expected critical timeline override, got %q", result.ContactTimeline)
	}
}

func TestScore_StatusMonotonicity(t *testing.T) {
	s := newTestScorer(nil)
	base := repository.Property{ID: 3, Zip: strPtr("96701"), Source: "AI Scraped"}

	scoreFor := func(status *string) ScoreResult {
		p := base
		p.DistressStatus = status
		result, err := s.Score(context.Background(), p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result
	}

	none := scoreFor(nil)
	pre := scoreFor(strPtr("Pre-foreclosure"))
	active := scoreFor(strPtr("Foreclosure"))

	if !(active.TotalScore >= pre.TotalScore && pre.TotalScore >= none.TotalScore) {
		t.Fatalf("expected foreclosure >= pre-foreclosure >= none, got %d %d %d", active.TotalScore, pre.TotalScore, none.TotalScore)
	}
	if active.UrgencyLevel != UrgencyCritical {
		t.Fatalf("expected foreclosure to be critical, got %s", active.UrgencyLevel)
	}
	if pre.UrgencyLevel != UrgencyHigh {
		t.Fatalf("expected pre-foreclosure to be high, got %s", pre.UrgencyLevel)
	}
	if none.UrgencyLevel != UrgencyLow {
		t.Fatalf("expected no status to be low, got %s", none.UrgencyLevel)
	}
}

func TestScore_AuctionDateIsUrgent(t *testing.T) {
	s := newTestScorer(nil)
	p := repository.Property{ID: 4, Zip: strPtr("96701"), Details: strPtr("Public auction set for 9/1/2025")}

	result, err := s.Score(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UrgencyLevel != UrgencyCritical {
		t.Fatalf("expected auction with date to be critical, got %s", result.UrgencyLevel)
	}
}

func TestScore_IsDeterministic(t *testing.T) {
	s := newTestScorer(nil)

	first, err := s.Score(context.Background(), distressedEstate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Score(context.Background(), distressedEstate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results for identical input")
	}
}

func TestScore_UsesAIPercentage(t *testing.T) {
	completer := ai.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "Given the distress signals I estimate a 72% chance, maybe 80% with outreach.", nil
	})
	s := newTestScorer(completer)

	result, err := s.Score(context.Background(), distressedEstate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SuccessLikelihood != 72 {
		t.Fatalf("expected first percentage 72, got %d", result.SuccessLikelihood)
	}
}

func TestScore_AIFailureFallsBack(t *testing.T) {
	completer := ai.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("upstream timeout")
	})
	s := newTestScorer(completer)

	result, err := s.Score(context.Background(), repository.Property{ID: 5})
	if err != nil {
		t.Fatalf("expected AI failure to be swallowed, got %v", err)
	}
	if result.SuccessLikelihood != FallbackSuccessLikelihood(result.TotalScore) {
		t.Fatalf("expected fallback likelihood, got %d", result.SuccessLikelihood)
	}
}

func TestScore_AIResponseWithoutPercentFallsBack(t *testing.T) {
	completer := ai.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "fairly likely", nil
	})
	s := newTestScorer(completer)

	result, err := s.Score(context.Background(), distressedEstate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SuccessLikelihood != 85 {
		t.Fatalf("expected fallback 85, got %d", result.SuccessLikelihood)
	}
}

func TestScore_RecoversPanic(t *testing.T) {
	completer := ai.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		panic("boom")
	})
	s := newTestScorer(completer)

	if _, err := s.Score(context.Background(), distressedEstate()); err == nil {
		t.Fatalf("expected recovered panic to be returned as error")
	}
}

func TestScoreWithoutAI_SkipsCompleter(t *testing.T) {
	called := false
	completer := ai.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		called = true
		return "99%", nil
	})
	s := newTestScorer(completer)

	result, err := s.ScoreWithoutAI(distressedEstate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected completer not to be called")
	}
	if result.SuccessLikelihood != 85 {
		t.Fatalf("expected fallback 85, got %d", result.SuccessLikelihood)
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"around 64% likely", 64, true},
		{"150% sure", 100, true},
		{"0% chance", 0, true},
		{"unlikely", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePercent(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParsePercent(%q): expected %d/%v, got %d/%v", tt.in, tt.want, tt.wantOK, got, ok)
		}
	}
}

func TestFallbackSuccessLikelihood(t *testing.T) {
	if got := FallbackSuccessLikelihood(50); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	if got := FallbackSuccessLikelihood(80); got != 85 {
		t.Fatalf("expected cap 85, got %d", got)
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		score    int
		urgency  string
		action   string
		timeline string
	}{
		{85, UrgencyHigh, "IMMEDIATE CONTACT - High priority lead", "Contact within 24 hours"},
		{84, UrgencyHigh, "PRIORITY CONTACT - Strong lead", "Contact within 48-72 hours"},
		{55, UrgencyMedium, "FOLLOW UP - Moderate opportunity", "Contact within 1 week"},
		{54, UrgencyLow, "MONITOR - Low priority", "Monitor for changes"},
		{40, UrgencyCritical, "MONITOR - Low priority", "URGENT - Contact immediately"},
	}
	for _, tt := range tests {
		rec := Recommend(tt.score, tt.urgency)
		if rec.Action != tt.action || rec.Timeline != tt.timeline {
			t.Fatalf("Recommend(%d, %s): expected %q/%q, got %q/%q", tt.score, tt.urgency, tt.action, tt.timeline, rec.Action, rec.Timeline)
		}
	}
}

func TestCalculateAcquisitionProbability(t *testing.T) {
	got := CalculateAcquisitionProbability(40, 1)
	if got.Probability != 40 || got.Confidence != "Medium" {
		t.Fatalf("expected 40/Medium, got %+v", got)
	}
	got = CalculateAcquisitionProbability(40, 3)
	if got.Probability != 50 || got.Confidence != "High" {
		t.Fatalf("expected 50/High, got %+v", got)
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(i64Ptr(1250000)); got != "$1,250,000" {
		t.Fatalf("expected $1,250,000, got %s", got)
	}
	if got := FormatPrice(i64Ptr(999)); got != "$999" {
		t.Fatalf("expected $999, got %s", got)
	}
	if got := FormatPrice(i64Ptr(-1500)); got != "-$1,500" {
		t.Fatalf("expected -$1,500, got %s", got)
	}
	if got := FormatPrice(nil); got != "N/A" {
		t.Fatalf("expected N/A, got %s", got)
	}
	if got := OrNA("  "); got != "N/A" {
		t.Fatalf("expected N/A for blank value, got %s", got)
	}
}

func TestScoreOwnerDistress_EntityOwnerIsCaseSensitive(t *testing.T) {
	s := newTestScorer(nil)

	tests := []struct {
		owner string
		want  float64
	}{
		{"Kona Holdings LLC", 8},
		{"Smith Family Trust", 8},
		{"Wellcome Family", 0},
		{"smith family trust", 0},
	}
	for _, tt := range tests {
		got := s.scoreOwnerDistress(repository.Property{OwnerName: strPtr(tt.owner)})
		if got.Score != tt.want {
			t.Fatalf("%q: expected owner distress %v, got %v (%v)", tt.owner, tt.want, got.Score, got.Indicators)
		}
	}
}
