// Package notification sends operator alerts in response to lead scoring events
// and keeps an audit trail of score writes.
// Scoring publishes events; this module decides who hears about them and how.
package notification

import (
	"context"
	"errors"
	"fmt"

	"leadscore_backend/internal/email"
	"leadscore_backend/internal/events"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"
)

// Module delivers critical-lead alerts to the configured recipients.
type Module struct {
	sender     email.Sender
	recipients []string
	log        *logger.Logger
}

// New creates the notification module. With alerting disabled the sender is a no-op.
func New(cfg config.AlertConfig, log *logger.Logger) *Module {
	var sender email.Sender = email.NoopSender{}
	if cfg.IsAlertingEnabled() {
		sender = email.NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetAlertFrom(),
			"Lead Scoring Alerts",
		)
	}
	return NewWithSender(sender, cfg.GetAlertRecipients(), log)
}

// NewWithSender wires an explicit sender, mainly for tests.
func NewWithSender(sender email.Sender, recipients []string, log *logger.Logger) *Module {
	return &Module{sender: sender, recipients: recipients, log: log}
}

// RegisterHandlers subscribes to the lead scoring events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadScored{}.EventName(), m)
	bus.Subscribe(events.CriticalLeadDetected{}.EventName(), m)
	m.log.Info("notification module registered event handlers", "recipients", len(m.recipients))
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadScored:
		m.handleLeadScored(ctx, e)
		return nil
	case events.CriticalLeadDetected:
		return m.handleCriticalLeadDetected(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleLeadScored(ctx context.Context, e events.LeadScored) {
	m.log.WithContext(ctx).Info("lead score recorded",
		"propertyId", e.PropertyID,
		"leadScore", e.LeadScore,
		"urgency", e.UrgencyLevel,
		"trigger", e.Trigger,
	)
}

func (m *Module) handleCriticalLeadDetected(ctx context.Context, e events.CriticalLeadDetected) error {
	if len(m.recipients) == 0 {
		return nil
	}

	lead := email.CriticalLead{
		PropertyID:        e.PropertyID,
		Address:           e.Address,
		LeadScore:         e.LeadScore,
		RecommendedAction: e.RecommendedAction,
		ContactTimeline:   e.ContactTimeline,
		Indicators:        e.Indicators,
	}

	var errs []error
	for _, to := range m.recipients {
		if err := m.sender.SendCriticalLeadAlert(ctx, to, lead); err != nil {
			m.log.Error("failed to send critical lead alert", "error", err, "propertyId", e.PropertyID, "to", to)
			errs = append(errs, fmt.Errorf("alert %s: %w", to, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	m.log.Info("critical lead alert sent", "propertyId", e.PropertyID, "recipients", len(m.recipients))
	return nil
}
