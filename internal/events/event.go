// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadscore_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Scoring Domain Events
// =============================================================================

// LeadScored is published after a score has been persisted.
type LeadScored struct {
	BaseEvent
	PropertyID   int64  `json:"propertyId"`
	LeadScore    int    `json:"leadScore"`
	UrgencyLevel string `json:"urgencyLevel"`
	Trigger      string `json:"trigger"`
}

func (e LeadScored) EventName() string { return "leadscoring.lead.scored" }

// CriticalLeadDetected is published when a persisted score has critical urgency.
type CriticalLeadDetected struct {
	BaseEvent
	PropertyID        int64    `json:"propertyId"`
	Address           string   `json:"address"`
	LeadScore         int      `json:"leadScore"`
	RecommendedAction string   `json:"recommendedAction"`
	ContactTimeline   string   `json:"contactTimeline"`
	Indicators        []string `json:"indicators"`
}

func (e CriticalLeadDetected) EventName() string { return "leadscoring.lead.critical" }

// Scoring triggers carried by LeadScored.
const (
	TriggerBatch    = "batch"
	TriggerSingle   = "single"
	TriggerBackfill = "backfill"
)
