// Package scoring implements the multi-factor lead scoring engine.
package scoring

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"leadscore_backend/internal/leadscoring/rules"
	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/platform/ai"
	"leadscore_backend/platform/logger"
)

// Scorer computes explainable lead scores. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	rules     *rules.Rules
	completer ai.Completer
	log       *logger.Logger
	now       func() time.Time
}

// Option customises a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source used for listing age.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// New creates a scorer. A nil completer disables the AI estimate and every score
// uses the deterministic success-likelihood fallback.
func New(r *rules.Rules, completer ai.Completer, log *logger.Logger, opts ...Option) *Scorer {
	if r == nil {
		r = rules.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Scorer{rules: r, completer: completer, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules exposes the rule set the scorer was built with.
func (s *Scorer) Rules() *rules.Rules {
	return s.rules
}

// Score runs the five factor scorers and derives probability, urgency, success
// likelihood and recommendations. AI failures never surface as errors; a panic in
// the scoring path is recovered and returned as an error.
func (s *Scorer) Score(ctx context.Context, p repository.Property) (result ScoreResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("lead scoring panicked", "propertyId", p.ID, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("score property %d: panic: %v", p.ID, r)
		}
	}()

	result = s.scoreDeterministic(p)
	result.SuccessLikelihood = s.successLikelihood(ctx, p, result.TotalScore)
	return result, nil
}

// ScoreWithoutAI is Score with the success likelihood forced to its fallback.
func (s *Scorer) ScoreWithoutAI(p repository.Property) (result ScoreResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("score property %d: panic: %v", p.ID, r)
		}
	}()

	result = s.scoreDeterministic(p)
	result.SuccessLikelihood = FallbackSuccessLikelihood(result.TotalScore)
	return result, nil
}

func (s *Scorer) scoreDeterministic(p repository.Property) ScoreResult {
	now := s.now()

	breakdown := Breakdown{
		ForeclosureTimeline:     s.scoreForeclosureTimeline(p),
		OwnerDistress:           s.scoreOwnerDistress(p),
		MarketFactors:           s.scoreMarketFactors(p, now),
		PropertyCharacteristics: s.scorePropertyCharacteristics(p),
		SourceReliability:       s.scoreSourceReliability(p),
	}

	total := 0.0
	indicators := make([]string, 0)
	signals := make([]Signal, 0)
	for _, f := range breakdown.ordered() {
		total += f.Score
		indicators = append(indicators, f.Indicators...)
		signals = append(signals, f.Signals()...)
	}
	totalScore := clampScore(total)

	urgency := DetermineUrgency(repository.StringValue(p.DistressStatus), signals)
	rec := Recommend(totalScore, urgency)

	return ScoreResult{
		PropertyID:             p.ID,
		TotalScore:             totalScore,
		AcquisitionProbability: CalculateAcquisitionProbability(totalScore, len(indicators)),
		UrgencyLevel:           urgency,
		DistressIndicators:     indicators,
		Signals:                signals,
		ScoringBreakdown:       breakdown,
		RecommendedAction:      rec.Action,
		ContactTimeline:        rec.Timeline,
		InvestmentPotential:    rec.Potential,
		ScoreVersion:           s.rules.Version,
	}
}

// CalculateAcquisitionProbability boosts the score when three or more indicators
// are present and caps the result at 95.
func CalculateAcquisitionProbability(totalScore, indicatorCount int) AcquisitionProbability {
	probability := totalScore
	if indicatorCount >= 3 {
		probability += 10
	}
	if probability > 95 {
		probability = 95
	}

	confidence := "Medium"
	if indicatorCount >= 2 {
		confidence = "High"
	}

	return AcquisitionProbability{
		Probability: probability,
		Confidence:  confidence,
		Reasoning:   fmt.Sprintf("Based on %d distress indicators and score of %d", indicatorCount, totalScore),
	}
}

// DetermineUrgency picks the first matching level: urgent signal or active
// foreclosure is critical, pre-foreclosure or two indicators is high, any indicator
// is medium.
func DetermineUrgency(status string, signals []Signal) string {
	urgent := false
	for _, sig := range signals {
		if sig.Urgent {
			urgent = true
			break
		}
	}

	switch {
	case urgent || status == "Foreclosure":
		return UrgencyCritical
	case status == "Pre-foreclosure" || len(signals) >= 2:
		return UrgencyHigh
	case len(signals) >= 1:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Recommend maps a score to contact guidance. Critical urgency overrides the timeline.
func Recommend(totalScore int, urgency string) Recommendation {
	var rec Recommendation
	switch {
	case totalScore >= 85:
		rec = Recommendation{"IMMEDIATE CONTACT - High priority lead", "Contact within 24 hours", "Excellent investment opportunity"}
	case totalScore >= 70:
		rec = Recommendation{"PRIORITY CONTACT - Strong lead", "Contact within 48-72 hours", "Strong investment potential"}
	case totalScore >= 55:
		rec = Recommendation{"FOLLOW UP - Moderate opportunity", "Contact within 1 week", "Moderate investment potential"}
	default:
		rec = Recommendation{"MONITOR - Low priority", "Monitor for changes", "Limited investment potential"}
	}

	if urgency == UrgencyCritical {
		rec.Timeline = "URGENT - Contact immediately"
	}
	return rec
}
