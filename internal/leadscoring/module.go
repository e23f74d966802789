// Package leadscoring is the lead scoring bounded context: deterministic
// multi-factor scoring, off-market analysis, outcome tracking and analytics.
package leadscoring

import (
	"fmt"

	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/leadscoring/handler"
	"leadscore_backend/internal/leadscoring/offmarket"
	"leadscore_backend/internal/leadscoring/rules"
	"leadscore_backend/internal/leadscoring/scoring"
	"leadscore_backend/internal/leadscoring/service"
	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/platform/ai"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"
)

// Module is the lead scoring module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	rules   *rules.Rules
}

// Deps carries the collaborators built by the composition root. Completer,
// Reports and Queue are optional.
type Deps struct {
	Store     repository.Store
	Bus       events.Bus
	Completer ai.Completer
	Reports   service.ReportArchive
	Queue     handler.BatchEnqueuer
}

// NewModule loads the rule tables and wires the scoring pipeline.
func NewModule(deps Deps, cfg config.ScoringConfig, log *logger.Logger) (*Module, error) {
	ruleSet, err := loadRules(cfg.GetScoringRulesPath())
	if err != nil {
		return nil, err
	}
	log.Info("scoring rules loaded", "version", ruleSet.Version, "aiEnabled", deps.Completer != nil)

	svc := service.New(service.Params{
		Repo:                 deps.Store,
		Scorer:               scoring.New(ruleSet, deps.Completer, log),
		Analyzer:             offmarket.NewAnalyzer(ruleSet, deps.Completer, log),
		Reports:              deps.Reports,
		Bus:                  deps.Bus,
		Log:                  log,
		WindowDays:           cfg.GetScoringWindowDays(),
		ScoringConcurrency:   cfg.GetScoringConcurrency(),
		OffMarketConcurrency: cfg.GetOffMarketConcurrency(),
	})

	return &Module{
		handler: handler.New(svc, deps.Queue),
		service: svc,
		rules:   ruleSet,
	}, nil
}

func loadRules(path string) (*rules.Rules, error) {
	if path == "" {
		return rules.Default(), nil
	}
	r, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load scoring rules: %w", err)
	}
	return r, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leadscoring"
}

// Service exposes the orchestration service for the worker and CLI entrypoints.
func (m *Module) Service() *service.Service {
	return m.service
}

// Rules returns the active rule set.
func (m *Module) Rules() *rules.Rules {
	return m.rules
}

// RegisterRoutes mounts the lead scoring routes under /api/v1/lead-scoring.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/lead-scoring"), ctx.BatchRateLimit)
}

var _ apphttp.Module = (*Module)(nil)
