package scoring

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/platform/ai"
	"leadscore_backend/platform/sanitize"
)

var percentRegex = regexp.MustCompile(`(\d+)%`)

// FallbackSuccessLikelihood is used whenever the AI estimate is unavailable.
func FallbackSuccessLikelihood(totalScore int) int {
	return min(totalScore+10, 85)
}

// ParsePercent extracts the first "N%" from text, clamped to 0-100.
func ParsePercent(text string) (int, bool) {
	match := percentRegex.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		// only overflow gets here; anything that large clamps to 100
		return 100, true
	}
	return int(clampFloat(float64(value), 0, 100)), true
}

func (s *Scorer) successLikelihood(ctx context.Context, p repository.Property, totalScore int) int {
	if s.completer == nil {
		return FallbackSuccessLikelihood(totalScore)
	}

	response, err := ai.Complete(ctx, s.completer, successLikelihoodPrompt(p, totalScore))
	if err != nil {
		s.log.WithContext(ctx).AIFallback("success_likelihood", err)
		return FallbackSuccessLikelihood(totalScore)
	}

	value, ok := ParsePercent(response)
	if !ok {
		s.log.WithContext(ctx).AIFallback("success_likelihood", fmt.Errorf("no percentage in response for property %d", p.ID))
		return FallbackSuccessLikelihood(totalScore)
	}
	return value
}

func successLikelihoodPrompt(p repository.Property, totalScore int) string {
	return fmt.Sprintf(`Based on this Hawaii property lead, predict the likelihood of successful acquisition:

Property: %s
Lead Score: %d/100
Price: %s
Status: %s
Source: %s

Consider factors like:
- Market competition
- Owner motivation
- Property condition
- Price competitiveness

Provide success likelihood as percentage (0-100).`,
		sanitize.PromptText(p.Address, 200),
		totalScore,
		FormatPrice(p.Price),
		OrNA(repository.StringValue(p.DistressStatus)),
		sanitize.PromptText(p.Source, 100),
	)
}
