// Package summary aggregates a scored batch into distribution and urgency counts.
package summary

import (
	"fmt"
	"math"

	"leadscore_backend/internal/leadscoring/scoring"
)

// Lead is the minimal view of a scored lead needed for aggregation.
type Lead struct {
	LeadScore    int
	UrgencyLevel string
}

type ScoringSummary struct {
	TotalPropertiesAnalyzed int            `json:"total_properties_analyzed"`
	HighQualityLeads        int            `json:"high_quality_leads"`
	ConversionRate          string         `json:"conversion_rate"`
	ScoreDistribution       map[string]int `json:"score_distribution"`
	UrgencyBreakdown        map[string]int `json:"urgency_breakdown"`
	AverageScore            int            `json:"average_score"`
}

// Build summarises leads out of totalProperties analysed. It is a pure function.
func Build(leads []Lead, totalProperties int) ScoringSummary {
	distribution := map[string]int{
		"A+ (90-100)": 0,
		"A (80-89)":   0,
		"B (70-79)":   0,
		"C (60-69)":   0,
	}
	urgency := map[string]int{
		"Critical": 0,
		"High":     0,
		"Medium":   0,
		"Low":      0,
	}

	sum := 0
	for _, l := range leads {
		sum += l.LeadScore

		switch {
		case l.LeadScore >= 90:
			distribution["A+ (90-100)"]++
		case l.LeadScore >= 80:
			distribution["A (80-89)"]++
		case l.LeadScore >= 70:
			distribution["B (70-79)"]++
		case l.LeadScore >= 60:
			distribution["C (60-69)"]++
		}

		switch l.UrgencyLevel {
		case scoring.UrgencyCritical:
			urgency["Critical"]++
		case scoring.UrgencyHigh:
			urgency["High"]++
		case scoring.UrgencyMedium:
			urgency["Medium"]++
		case scoring.UrgencyLow:
			urgency["Low"]++
		}
	}

	conversion := "0%"
	if totalProperties > 0 {
		conversion = fmt.Sprintf("%d%%", int(math.Round(float64(len(leads))/float64(totalProperties)*100)))
	}

	average := 0
	if len(leads) > 0 {
		average = int(math.Round(float64(sum) / float64(len(leads))))
	}

	return ScoringSummary{
		TotalPropertiesAnalyzed: totalProperties,
		HighQualityLeads:        len(leads),
		ConversionRate:          conversion,
		ScoreDistribution:       distribution,
		UrgencyBreakdown:        urgency,
		AverageScore:            average,
	}
}
