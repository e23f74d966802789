package offmarket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadscore_backend/internal/leadscoring/rules"
	"leadscore_backend/internal/leadscoring/scoring"
	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/platform/ai"
	"leadscore_backend/platform/logger"
)

const (
	fallbackBaseScore = 50
	fallbackReasoning = "Basic analysis - AI unavailable"
	fallbackStrategy  = "Direct owner contact recommended"
)

var fallbackActionItems = []string{"Research property history", "Contact owner/agent", "Verify distress status"}

// Analyzer scores properties for off-market potential. Analyze never fails.
type Analyzer struct {
	rules     *rules.Rules
	completer ai.Completer
	log       *logger.Logger
	now       func() time.Time
}

// NewAnalyzer creates an analyzer. A nil completer means every property uses the
// fallback analysis before enhancement.
func NewAnalyzer(r *rules.Rules, completer ai.Completer, log *logger.Logger) *Analyzer {
	if r == nil {
		r = rules.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{rules: r, completer: completer, log: log, now: time.Now}
}

// WithClock returns a copy of the analyzer using now for listing age.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	cp := *a
	cp.now = now
	return &cp
}

// MinScore is the off-market score a property needs to count as a lead.
func (a *Analyzer) MinScore() int {
	return a.rules.OffMarket.MinScore
}

// Analyze runs the AI analysis (or fallback) and then the rule-based enhancement.
func (a *Analyzer) Analyze(ctx context.Context, p repository.Property) Analysis {
	base := a.baseAnalysis(ctx, p)
	return a.Enhance(p, base)
}

func (a *Analyzer) baseAnalysis(ctx context.Context, p repository.Property) Analysis {
	if a.completer == nil {
		return FallbackAnalysis(p)
	}

	raw, err := ai.Complete(ctx, a.completer, analysisPrompt(p))
	if err != nil {
		a.log.WithContext(ctx).AIFallback("off_market_analysis", err)
		return FallbackAnalysis(p)
	}

	parsed := ParseAnalysis(raw)
	if !parsed.OK {
		a.log.WithContext(ctx).AIFallback("off_market_analysis", fmt.Errorf("unparseable analysis for property %d", p.ID))
		return FallbackAnalysis(p)
	}
	return parsed.Analysis
}

// FallbackAnalysis is the deterministic analysis used when AI output is missing
// or malformed.
func FallbackAnalysis(p repository.Property) Analysis {
	score := fallbackBaseScore
	indicators := []string{}
	motivation := []string{}

	if repository.StringValue(p.DistressStatus) == "Foreclosure" {
		score += 30
		indicators = append(indicators, "Foreclosure status")
		motivation = append(motivation, "Forced sale situation")
	}
	if p.Price != nil && *p.Price > 0 && *p.Price < 500000 {
		score += 15
		indicators = append(indicators, "Below median market price")
	}
	if strings.Contains(p.Source, "Legal") {
		score += 20
		indicators = append(indicators, "Legal notice source")
		motivation = append(motivation, "Court-ordered sale")
	}

	urgency := scoring.UrgencyLow
	switch {
	case score > 80:
		urgency = scoring.UrgencyHigh
	case score > 60:
		urgency = scoring.UrgencyMedium
	}

	discount := "5-15%"
	if score > 70 {
		discount = "15-25%"
	}

	quality := "C"
	switch {
	case score > 80:
		quality = "A"
	case score > 65:
		quality = "B"
	}

	return Analysis{
		OffMarketScore:    score,
		Reasoning:         fallbackReasoning,
		Indicators:        indicators,
		MotivationSignals: motivation,
		Urgency:           urgency,
		EstimatedDiscount: discount,
		ContactStrategy:   fallbackStrategy,
		ActionItems:       append([]string(nil), fallbackActionItems...),
		LeadQuality:       quality,
		AnalysisSource:    SourceFallback,
	}
}

// Enhance applies the rule-based bonus table and urgency override to an analysis.
// It always runs and its result is authoritative.
func (a *Analyzer) Enhance(p repository.Property, analysis Analysis) Analysis {
	om := a.rules.OffMarket
	subject := scoring.SubjectFor(p)

	bonus := 0.0
	added := make([]string, 0)
	categories := make(map[string]bool)

	// rules sharing a group only contribute their strongest match
	strongest := make(map[string]rules.KeywordRule)
	for _, rule := range om.Rules {
		if !rule.Matches(subject) {
			continue
		}
		if rule.Group != "" {
			if current, ok := strongest[rule.Group]; !ok || rule.Points > current.Points {
				strongest[rule.Group] = rule
			}
			continue
		}
		bonus += rule.Points
		added = append(added, rule.Indicator)
		if rule.Category != "" {
			categories[rule.Category] = true
		}
	}
	for _, rule := range om.Rules {
		if rule.Group == "" {
			continue
		}
		if best, ok := strongest[rule.Group]; ok && best.Name == rule.Name {
			bonus += rule.Points
			added = append(added, rule.Indicator)
			if rule.Category != "" {
				categories[rule.Category] = true
			}
		}
	}

	if age, ok := p.ListingAgeDays(a.now()); ok {
		switch {
		case age > om.StaleAfterDays:
			bonus += om.Stale.Points
			added = append(added, om.Stale.Indicator)
		case age < om.FreshWithinDays:
			bonus += om.Fresh.Points
			added = append(added, om.Fresh.Indicator)
		}
	}

	if p.Price != nil && *p.Price > 0 {
		switch {
		case *p.Price < om.LowPrice:
			bonus += om.LowPriceBonus.Points
			added = append(added, om.LowPriceBonus.Indicator)
		case *p.Price < om.MidPrice:
			bonus += om.MidPriceBonus.Points
			added = append(added, om.MidPriceBonus.Indicator)
		}
	}

	distinct := 0
	for _, c := range om.CompoundingCategories {
		if categories[c] {
			distinct++
		}
	}
	if om.CompoundingMin > 0 && distinct >= om.CompoundingMin {
		bonus += om.Compounding.Points
		added = append(added, om.Compounding.Indicator)
	}

	out := analysis
	out.BaseScore = analysis.OffMarketScore
	out.BonusScore = int(bonus)
	out.OffMarketScore = int(min(om.Cap, float64(analysis.OffMarketScore)+bonus))
	out.Indicators = append(append([]string{}, analysis.Indicators...), added...)
	out.Urgency = OverrideUrgency(subject.Status, categories["tax"], out.OffMarketScore, analysis.Urgency)
	if out.MotivationSignals == nil {
		out.MotivationSignals = []string{}
	}
	if out.ActionItems == nil {
		out.ActionItems = []string{}
	}
	return out
}

// OverrideUrgency applies the rule-based floor on top of the analysis urgency.
func OverrideUrgency(status string, taxSignal bool, score int, current string) string {
	level := NormalizeUrgency(current)
	switch {
	case status == "Foreclosure" || status == "Court Foreclosure":
		return scoring.UrgencyCritical
	case status == "Pre-foreclosure" || taxSignal:
		return atLeast(level, scoring.UrgencyHigh)
	case score > 70:
		return atLeast(level, scoring.UrgencyMedium)
	default:
		return level
	}
}

// NormalizeUrgency maps model output onto the four urgency levels. Unknown values are low.
func NormalizeUrgency(s string) string {
	switch level := strings.ToLower(strings.TrimSpace(s)); level {
	case scoring.UrgencyCritical, scoring.UrgencyHigh, scoring.UrgencyMedium, scoring.UrgencyLow:
		return level
	default:
		return scoring.UrgencyLow
	}
}

func atLeast(level, floor string) string {
	if scoring.UrgencyRank(level) >= scoring.UrgencyRank(floor) {
		return level
	}
	return floor
}
