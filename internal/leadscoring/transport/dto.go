package transport

import (
	"time"

	"leadscore_backend/internal/leadscoring/offmarket"
	"leadscore_backend/internal/leadscoring/scoring"
	"leadscore_backend/internal/leadscoring/summary"
)

type Outcome string

const (
	OutcomeAcquired   Outcome = "acquired"
	OutcomeContacted  Outcome = "contacted"
	OutcomeRejected   Outcome = "rejected"
	OutcomeLost       Outcome = "lost"
	OutcomeNoResponse Outcome = "no_response"
)

// Request DTOs

// ScoreLeadsQuery restricts a batch to one ZIP code.
type ScoreLeadsQuery struct {
	Zip   string `form:"zip" validate:"omitempty,zip5"`
	Async bool   `form:"async"`
}

type TrackOutcomeRequest struct {
	Outcome          Outcome `json:"outcome" validate:"required,oneof=acquired contacted rejected lost no_response"`
	AcquisitionPrice *int64  `json:"acquisition_price,omitempty" validate:"omitempty,gte=0"`
	Notes            string  `json:"notes,omitempty" validate:"max=4000"`
}

// Response DTOs

// ScoredLead is one high-quality lead in a batch response.
type ScoredLead struct {
	ID                     int64                          `json:"id"`
	Address                string                         `json:"address"`
	Price                  *int64                         `json:"price"`
	LeadScore              int                            `json:"lead_score"`
	AcquisitionProbability scoring.AcquisitionProbability `json:"acquisition_probability"`
	UrgencyLevel           string                         `json:"urgency_level"`
	SuccessLikelihood      int                            `json:"success_likelihood"`
	DistressIndicators     []string                       `json:"distress_indicators"`
	ScoringFactors         scoring.Breakdown              `json:"scoring_factors"`
	RecommendedAction      string                         `json:"recommended_action"`
	ContactTimeline        string                         `json:"contact_timeline"`
	InvestmentPotential    string                         `json:"investment_potential"`
}

type ScoreLeadsResponse struct {
	Success                 bool                    `json:"success"`
	Message                 string                  `json:"message,omitempty"`
	TotalPropertiesAnalyzed int                     `json:"total_properties_analyzed"`
	HighQualityLeads        int                     `json:"high_quality_leads"`
	ScoringSummary          *summary.ScoringSummary `json:"scoring_summary,omitempty"`
	ScoredLeads             []ScoredLead            `json:"scored_leads"`
	SkippedProperties       int                     `json:"skipped_properties"`
	AnalysisTimestamp       time.Time               `json:"analysis_timestamp"`
	ReportKey               string                  `json:"report_key,omitempty"`
}

type SearchCriteria struct {
	MinScore        int      `json:"min_score"`
	AnalysisPeriod  string   `json:"analysis_period"`
	SourcesAnalyzed []string `json:"sources_analyzed"`
}

type OffMarketResponse struct {
	Success             bool             `json:"success"`
	Message             string           `json:"message,omitempty"`
	TotalAnalyzed       int              `json:"total_analyzed"`
	OffMarketLeadsFound int              `json:"off_market_leads_found"`
	Leads               []offmarket.Lead `json:"leads"`
	MarketSummary       string           `json:"market_summary,omitempty"`
	SearchCriteria      *SearchCriteria  `json:"search_criteria,omitempty"`
	AnalysisTimestamp   time.Time        `json:"analysis_timestamp"`
	ReportKey           string           `json:"report_key,omitempty"`
}

type TrackOutcomeResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	OutcomeID  int64     `json:"outcome_id"`
	PropertyID int64     `json:"property_id"`
	Outcome    string    `json:"outcome"`
	RecordedAt time.Time `json:"recorded_at"`
}

type ScoringStats struct {
	TotalScored          int     `json:"total_scored"`
	AvgScore             float64 `json:"avg_score"`
	HighScoreCount       int     `json:"high_score_count"`
	CriticalUrgencyCount int     `json:"critical_urgency_count"`
}

type AnalyticsResponse struct {
	Success      bool           `json:"success"`
	ScoringStats ScoringStats   `json:"scoring_stats"`
	OutcomeStats map[string]int `json:"outcome_stats"`
	LastUpdated  time.Time      `json:"last_updated"`
}

type ScorePropertyResponse struct {
	Success bool                `json:"success"`
	Result  scoring.ScoreResult `json:"result"`
}

// EnqueuedResponse is returned when work is handed to the background queue.
type EnqueuedResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
	Queue   string `json:"queue"`
}
