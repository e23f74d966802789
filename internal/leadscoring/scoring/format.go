package scoring

import (
	"strings"

	"leadscore_backend/internal/leadscoring/rules"
	"leadscore_backend/internal/properties/repository"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SubjectFor collects the text fields of p that keyword rules inspect.
func SubjectFor(p repository.Property) rules.Subject {
	return rules.Subject{
		Status:    repository.StringValue(p.DistressStatus),
		Details:   repository.StringValue(p.Details),
		OwnerName: repository.StringValue(p.OwnerName),
		Source:    p.Source,
	}
}

// FormatPrice renders a price as "$1,234,567", or "N/A" when unknown.
func FormatPrice(price *int64) string {
	if price == nil {
		return "N/A"
	}
	printer := message.NewPrinter(language.English)
	if *price < 0 {
		return "-" + printer.Sprintf("$%d", -*price)
	}
	return printer.Sprintf("$%d", *price)
}

// OrNA substitutes "N/A" for blank prompt values.
func OrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
