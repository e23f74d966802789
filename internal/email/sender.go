// Package email renders and delivers operator notifications over SMTP.
package email

import (
	"context"
)

// CriticalLead is the content of a critical-lead alert.
type CriticalLead struct {
	PropertyID        int64
	Address           string
	LeadScore         int
	RecommendedAction string
	ContactTimeline   string
	Indicators        []string
}

type Sender interface {
	SendCriticalLeadAlert(ctx context.Context, toEmail string, lead CriticalLead) error
}

// NoopSender drops every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendCriticalLeadAlert(ctx context.Context, toEmail string, lead CriticalLead) error {
	return nil
}
