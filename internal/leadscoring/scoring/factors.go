package scoring

import (
	"fmt"
	"math"
	"time"

	"leadscore_backend/internal/leadscoring/rules"
	"leadscore_backend/internal/properties/repository"
)

// factorBuilder accumulates points, indicators and signals for one factor.
type factorBuilder struct {
	factor  string
	score   float64
	signals []Signal
}

func (b *factorBuilder) add(points float64, text, category string, urgent bool) {
	b.score += points
	if text == "" {
		return
	}
	b.signals = append(b.signals, Signal{Factor: b.factor, Category: category, Urgent: urgent, Text: text})
}

func (b *factorBuilder) build(limit float64, reasoning string) FactorScore {
	indicators := make([]string, 0, len(b.signals))
	for _, s := range b.signals {
		indicators = append(indicators, s.Text)
	}
	return FactorScore{
		Score:      clampFloat(b.score, 0, limit),
		Indicators: indicators,
		Reasoning:  reasoning,
		signals:    b.signals,
	}
}

func applyTable(b *factorBuilder, table []rules.KeywordRule, subject rules.Subject) {
	for _, rule := range table {
		if rule.Matches(subject) {
			b.add(rule.Points, rule.Indicator, rule.Category, rule.Urgent)
		}
	}
}

// scoreForeclosureTimeline evaluates legal status and proceedings in the details.
func (s *Scorer) scoreForeclosureTimeline(p repository.Property) FactorScore {
	b := &factorBuilder{factor: FactorForeclosure}
	applyTable(b, s.rules.Foreclosure.Rules, SubjectFor(p))
	return b.build(s.rules.Foreclosure.Cap, s.rules.Foreclosure.Reasoning)
}

// scoreOwnerDistress evaluates financial and personal pressure on the owner.
func (s *Scorer) scoreOwnerDistress(p repository.Property) FactorScore {
	b := &factorBuilder{factor: FactorOwnerDistress}
	applyTable(b, s.rules.OwnerDistress.Rules, SubjectFor(p))
	return b.build(s.rules.OwnerDistress.Cap, s.rules.OwnerDistress.Reasoning)
}

// scoreMarketFactors compares the price with the ZIP band and rewards demand and staleness.
func (s *Scorer) scoreMarketFactors(p repository.Property, now time.Time) FactorScore {
	m := s.rules.Market
	b := &factorBuilder{factor: FactorMarket}

	band, zip := m.BandFor(repository.StringValue(p.Zip))
	price := 0.0
	if p.Price != nil {
		price = float64(*p.Price)
	}

	switch {
	case price > 0 && price < band.Low*m.DeepDiscountRatio:
		b.add(m.DeepDiscount.Points, m.DeepDiscount.Indicator, "pricing", false)
	case price > 0 && price < band.Low:
		b.add(m.Discount.Points, m.Discount.Indicator, "pricing", false)
	}

	if m.IsHighDemand(zip) {
		b.add(m.HighDemand.Points, m.HighDemand.Indicator, "location", false)
	}

	if age, ok := p.ListingAgeDays(now); ok && age > m.StaleAfterDays {
		b.add(m.Stale.Points, m.Stale.Indicator, "timing", false)
	}

	return b.build(m.Cap, m.Reasoning)
}

// scorePropertyCharacteristics rewards property types and sizes investors prefer.
func (s *Scorer) scorePropertyCharacteristics(p repository.Property) FactorScore {
	c := s.rules.Characteristics
	b := &factorBuilder{factor: FactorCharacteristics}

	if bonus, ok := c.PropertyTypes[p.PropertyType]; ok {
		b.add(bonus.Points, bonus.Indicator, "property", false)
	}
	if p.Sqft != nil && *p.Sqft > c.LargeSqft {
		b.add(c.Sqft.Points, c.Sqft.Indicator, "property", false)
	}
	if p.LotSize != nil && *p.LotSize > c.LargeLot {
		b.add(c.Lot.Points, c.Lot.Indicator, "property", false)
	}

	return b.build(c.Cap, c.Reasoning)
}

// scoreSourceReliability looks up the exact source weight. It emits no indicators.
func (s *Scorer) scoreSourceReliability(p repository.Property) FactorScore {
	src := s.rules.Source
	b := &factorBuilder{factor: FactorSource}
	b.add(src.Weight(p.Source), "", "", false)
	return b.build(src.Cap, fmt.Sprintf("Source reliability: %s", p.Source))
}

// clampScore rounds and clamps a score to 0-100.
func clampScore(score float64) int {
	return int(math.Round(clampFloat(score, 0, 100)))
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
