package scoring

// Urgency levels, ordered from most to least pressing.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
	UrgencyLow      = "low"
)

// UrgencyRank orders urgency levels for sorting; unknown levels rank lowest.
func UrgencyRank(level string) int {
	switch level {
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// Factor names used in the scoring breakdown.
const (
	FactorForeclosure     = "foreclosure_timeline"
	FactorOwnerDistress   = "owner_distress"
	FactorMarket          = "market_factors"
	FactorCharacteristics = "property_characteristics"
	FactorSource          = "source_reliability"
)

// Signal is one structured distress finding. Urgency is decided from these flags,
// never from the rendered indicator text.
type Signal struct {
	Factor   string `json:"factor"`
	Category string `json:"category,omitempty"`
	Urgent   bool   `json:"urgent,omitempty"`
	Text     string `json:"text"`
}

// FactorScore is the capped result of one factor scorer.
type FactorScore struct {
	Score      float64  `json:"score"`
	Indicators []string `json:"indicators"`
	Reasoning  string   `json:"reasoning"`

	signals []Signal
}

// Signals returns the structured findings behind Indicators.
func (f FactorScore) Signals() []Signal {
	return f.signals
}

type Breakdown struct {
	ForeclosureTimeline     FactorScore `json:"foreclosure_timeline"`
	OwnerDistress           FactorScore `json:"owner_distress"`
	MarketFactors           FactorScore `json:"market_factors"`
	PropertyCharacteristics FactorScore `json:"property_characteristics"`
	SourceReliability       FactorScore `json:"source_reliability"`
}

// ordered returns the factors in indicator concatenation order.
func (b Breakdown) ordered() []FactorScore {
	return []FactorScore{
		b.ForeclosureTimeline,
		b.OwnerDistress,
		b.MarketFactors,
		b.PropertyCharacteristics,
		b.SourceReliability,
	}
}

type AcquisitionProbability struct {
	Probability int    `json:"probability"`
	Confidence  string `json:"confidence"`
	Reasoning   string `json:"reasoning"`
}

// Recommendation is the action guidance derived from a score and urgency.
type Recommendation struct {
	Action    string `json:"recommended_action"`
	Timeline  string `json:"contact_timeline"`
	Potential string `json:"investment_potential"`
}

// ScoreResult is the full, explainable output for one property.
type ScoreResult struct {
	PropertyID             int64                  `json:"property_id"`
	TotalScore             int                    `json:"total_score"`
	AcquisitionProbability AcquisitionProbability `json:"acquisition_probability"`
	UrgencyLevel           string                 `json:"urgency_level"`
	SuccessLikelihood      int                    `json:"success_likelihood"`
	DistressIndicators     []string               `json:"distress_indicators"`
	Signals                []Signal               `json:"signals"`
	ScoringBreakdown       Breakdown              `json:"scoring_breakdown"`
	RecommendedAction      string                 `json:"recommended_action"`
	ContactTimeline        string                 `json:"contact_timeline"`
	InvestmentPotential    string                 `json:"investment_potential"`
	ScoreVersion           string                 `json:"score_version"`
}
