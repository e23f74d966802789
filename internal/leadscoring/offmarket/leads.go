package offmarket

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"leadscore_backend/internal/leadscoring/scoring"
	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/platform/ai"
	"leadscore_backend/platform/phone"
)

const noLeadsSummary = "No high-potential off-market opportunities found in current data."

// Lead is an off-market opportunity as returned to clients.
type Lead struct {
	ID                  int64     `json:"id"`
	Address             string    `json:"address"`
	Price               *int64    `json:"price"`
	PropertyType        string    `json:"property_type"`
	DistressStatus      *string   `json:"distress_status"`
	Source              string    `json:"source"`
	OwnerName           *string   `json:"owner_name,omitempty"`
	OwnerContact        string    `json:"owner_contact,omitempty"`
	OffMarketScore      int       `json:"off_market_score"`
	OffMarketIndicators []string  `json:"off_market_indicators"`
	MotivationSignals   []string  `json:"motivation_signals"`
	AIReasoning         string    `json:"ai_reasoning"`
	ActionPlan          []string  `json:"action_plan"`
	UrgencyLevel        string    `json:"urgency_level"`
	EstimatedDiscount   string    `json:"estimated_discount"`
	ContactStrategy     string    `json:"contact_strategy"`
	LeadQuality         string    `json:"lead_quality"`
	AnalysisSource      string    `json:"analysis_source"`
	CreatedAt           time.Time `json:"created_at"`
}

// NewLead combines a property with its analysis. Phone contacts are normalised to E.164.
func NewLead(p repository.Property, a Analysis) Lead {
	contact := strings.TrimSpace(repository.StringValue(p.OwnerContact))
	if phone.LooksLikePhone(contact) {
		contact = phone.NormalizeE164(contact)
	}

	return Lead{
		ID:                  p.ID,
		Address:             p.Address,
		Price:               p.Price,
		PropertyType:        p.PropertyType,
		DistressStatus:      p.DistressStatus,
		Source:              p.Source,
		OwnerName:           p.OwnerName,
		OwnerContact:        contact,
		OffMarketScore:      a.OffMarketScore,
		OffMarketIndicators: a.Indicators,
		MotivationSignals:   a.MotivationSignals,
		AIReasoning:         a.Reasoning,
		ActionPlan:          a.ActionItems,
		UrgencyLevel:        a.Urgency,
		EstimatedDiscount:   a.EstimatedDiscount,
		ContactStrategy:     a.ContactStrategy,
		LeadQuality:         a.LeadQuality,
		AnalysisSource:      a.AnalysisSource,
		CreatedAt:           p.CreatedAt,
	}
}

// SortLeads orders leads by urgency, then score, then id.
func SortLeads(leads []Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		ri, rj := scoring.UrgencyRank(leads[i].UrgencyLevel), scoring.UrgencyRank(leads[j].UrgencyLevel)
		if ri != rj {
			return ri > rj
		}
		if leads[i].OffMarketScore != leads[j].OffMarketScore {
			return leads[i].OffMarketScore > leads[j].OffMarketScore
		}
		return leads[i].ID < leads[j].ID
	})
}

// AverageScore returns the mean off-market score, or 0 for no leads.
func AverageScore(leads []Lead) float64 {
	if len(leads) == 0 {
		return 0
	}
	total := 0
	for _, l := range leads {
		total += l.OffMarketScore
	}
	return float64(total) / float64(len(leads))
}

// FallbackSummary is the market summary used when AI is unavailable.
func FallbackSummary(leads []Lead) string {
	if len(leads) == 0 {
		return noLeadsSummary
	}
	return fmt.Sprintf("Found %d off-market opportunities with average score of %.1f. Focus on foreclosure and distressed properties for best results.",
		len(leads), AverageScore(leads))
}

// Summarize asks the model for a strategic summary of sorted leads.
func (a *Analyzer) Summarize(ctx context.Context, leads []Lead) string {
	if len(leads) == 0 {
		return noLeadsSummary
	}
	if a.completer == nil {
		return FallbackSummary(leads)
	}

	text, err := ai.Complete(ctx, a.completer, summaryPrompt(leads, AverageScore(leads)))
	if err != nil {
		a.log.WithContext(ctx).AIFallback("off_market_summary", err)
		return FallbackSummary(leads)
	}
	if strings.TrimSpace(text) == "" {
		a.log.WithContext(ctx).AIFallback("off_market_summary", fmt.Errorf("empty summary"))
		return FallbackSummary(leads)
	}
	return strings.TrimSpace(text)
}
