// Package service orchestrates lead scoring and off-market analysis over the
// property store.
package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/moby/locker"
	"golang.org/x/sync/errgroup"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/leadscoring/offmarket"
	"leadscore_backend/internal/leadscoring/scoring"
	"leadscore_backend/internal/leadscoring/summary"
	"leadscore_backend/internal/leadscoring/transport"
	"leadscore_backend/internal/properties/repository"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/sanitize"
)

const (
	highQualityThreshold = 70
	maxScoredLeads       = 20
	offMarketCandidates  = 100

	reportPrefixScoring   = "lead-scoring"
	reportPrefixOffMarket = "off-market"

	msgNoPropertiesToScore = "No properties found for scoring. Run scraping first."
	msgNoRecentProperties  = "No recent properties found. Try scraping properties first."
)

// ReportArchive stores batch reports. storage.ReportStore implements it.
type ReportArchive interface {
	SaveJSON(ctx context.Context, prefix string, at time.Time, report any) (string, error)
}

// Params configures a Service. Reports and Bus are optional.
type Params struct {
	Repo                 repository.Store
	Scorer               *scoring.Scorer
	Analyzer             *offmarket.Analyzer
	Reports              ReportArchive
	Bus                  events.Bus
	Log                  *logger.Logger
	WindowDays           int
	ScoringConcurrency   int
	OffMarketConcurrency int
}

type Service struct {
	repo                 repository.Store
	scorer               *scoring.Scorer
	analyzer             *offmarket.Analyzer
	reports              ReportArchive
	bus                  events.Bus
	log                  *logger.Logger
	windowDays           int
	scoringConcurrency   int
	offMarketConcurrency int
	locks                *locker.Locker
	now                  func() time.Time
}

func New(p Params) *Service {
	s := &Service{
		repo:                 p.Repo,
		scorer:               p.Scorer,
		analyzer:             p.Analyzer,
		reports:              p.Reports,
		bus:                  p.Bus,
		log:                  p.Log,
		windowDays:           p.WindowDays,
		scoringConcurrency:   p.ScoringConcurrency,
		offMarketConcurrency: p.OffMarketConcurrency,
		locks:                locker.New(),
		now:                  time.Now,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.windowDays <= 0 {
		s.windowDays = 30
	}
	if s.scoringConcurrency <= 0 {
		s.scoringConcurrency = 4
	}
	if s.offMarketConcurrency <= 0 {
		s.offMarketConcurrency = 8
	}
	return s
}

func (s *Service) windowStart() time.Time {
	return s.now().Add(-time.Duration(s.windowDays) * 24 * time.Hour)
}

// scoredProperty pairs a property with its persisted score.
type scoredProperty struct {
	property repository.Property
	result   scoring.ScoreResult
}

// ScoreLeads scores every property created within the scoring window. Properties
// that fail to score or lose a version race are logged and skipped.
func (s *Service) ScoreLeads(ctx context.Context, query transport.ScoreLeadsQuery) (transport.ScoreLeadsResponse, error) {
	log := s.log.WithContext(ctx)

	properties, err := s.repo.ListRecent(ctx, s.windowStart())
	if err != nil {
		log.DatabaseError("list_recent_properties", err)
		return transport.ScoreLeadsResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load properties", err)
	}
	properties = filterByZip(properties, query.Zip)

	if len(properties) == 0 {
		return transport.ScoreLeadsResponse{
			Success:           false,
			Message:           msgNoPropertiesToScore,
			ScoredLeads:       []transport.ScoredLead{},
			AnalysisTimestamp: s.now().UTC(),
		}, nil
	}

	log.Info("scoring properties", "count", len(properties))

	results := make([]*scoredProperty, len(properties))
	var g errgroup.Group
	g.SetLimit(s.scoringConcurrency)
	for i, p := range properties {
		g.Go(func() error {
			current, result, err := s.scoreAndSave(ctx, p.ID, events.TriggerBatch)
			if err != nil {
				log.Error("failed to score property", "error", err, "propertyId", p.ID)
				return nil
			}
			results[i] = &scoredProperty{property: current, result: result}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return transport.ScoreLeadsResponse{}, apperr.Wrap(apperr.KindInternal, "lead scoring interrupted", err)
	}

	leads := make([]transport.ScoredLead, 0)
	skipped := 0
	for _, r := range results {
		if r == nil {
			skipped++
			continue
		}
		if r.result.TotalScore >= highQualityThreshold {
			leads = append(leads, toScoredLead(r.property, r.result))
		}
	}
	sortScoredLeads(leads)

	summaryLeads := make([]summary.Lead, 0, len(leads))
	for _, l := range leads {
		summaryLeads = append(summaryLeads, summary.Lead{LeadScore: l.LeadScore, UrgencyLevel: l.UrgencyLevel})
	}
	scoringSummary := summary.Build(summaryLeads, len(properties))

	top := leads
	if len(top) > maxScoredLeads {
		top = top[:maxScoredLeads]
	}

	resp := transport.ScoreLeadsResponse{
		Success:                 true,
		TotalPropertiesAnalyzed: len(properties),
		HighQualityLeads:        len(leads),
		ScoringSummary:          &scoringSummary,
		ScoredLeads:             top,
		SkippedProperties:       skipped,
		AnalysisTimestamp:       s.now().UTC(),
	}
	resp.ReportKey = s.archive(ctx, reportPrefixScoring, resp.AnalysisTimestamp, resp)

	log.Info("lead scoring complete", "analyzed", len(properties), "highQuality", len(leads), "skipped", skipped)
	return resp, nil
}

// ScoreProperty scores a single property and returns the full result.
func (s *Service) ScoreProperty(ctx context.Context, id int64) (scoring.ScoreResult, error) {
	_, result, err := s.scoreAndSave(ctx, id, events.TriggerSingle)
	switch {
	case err == nil:
		return result, nil
	case apperr.Is(err, apperr.KindNotFound):
		return scoring.ScoreResult{}, err
	case errors.Is(err, repository.ErrVersionConflict):
		return scoring.ScoreResult{}, apperr.Conflict("property was re-scored concurrently, retry the request")
	default:
		s.log.WithContext(ctx).Error("failed to score property", "error", err, "propertyId", id)
		return scoring.ScoreResult{}, apperr.Wrap(apperr.KindInternal, "failed to score property", err)
	}
}

// lockProperty serialises scoring of one property within this process.
func (s *Service) lockProperty(id int64) func() {
	key := strconv.FormatInt(id, 10)
	s.locks.Lock(key)
	return func() { _ = s.locks.Unlock(key) }
}

// scoreAndSave loads, scores and writes one property under its lock. The row is
// read after the lock is taken so the version check only fails on writes made by
// other processes.
func (s *Service) scoreAndSave(ctx context.Context, id int64, trigger string) (repository.Property, scoring.ScoreResult, error) {
	unlock := s.lockProperty(id)
	defer unlock()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Property{}, scoring.ScoreResult{}, err
	}

	result, err := s.scorer.Score(ctx, p)
	if err != nil {
		return p, scoring.ScoreResult{}, err
	}
	return p, result, s.persist(ctx, p, result, trigger)
}

func (s *Service) persist(ctx context.Context, p repository.Property, result scoring.ScoreResult, trigger string) error {
	err := s.repo.SaveScore(ctx, p.ID, p.ScoreVersion, repository.ScoreUpdate{
		LeadScore:              result.TotalScore,
		AcquisitionProbability: result.AcquisitionProbability.Probability,
		AcquisitionConfidence:  result.AcquisitionProbability.Confidence,
		UrgencyLevel:           result.UrgencyLevel,
		DistressIndicators:     result.DistressIndicators,
		SuccessLikelihood:      result.SuccessLikelihood,
		ScoredAt:               s.now().UTC(),
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.LeadScored{
		BaseEvent:    events.NewBaseEvent(),
		PropertyID:   p.ID,
		LeadScore:    result.TotalScore,
		UrgencyLevel: result.UrgencyLevel,
		Trigger:      trigger,
	})
	// alert only when the lead enters critical, not on every rescore
	wasCritical := repository.StringValue(p.UrgencyLevel) == scoring.UrgencyCritical
	if result.UrgencyLevel == scoring.UrgencyCritical && !wasCritical {
		s.publish(ctx, events.CriticalLeadDetected{
			BaseEvent:         events.NewBaseEvent(),
			PropertyID:        p.ID,
			Address:           p.Address,
			LeadScore:         result.TotalScore,
			RecommendedAction: result.RecommendedAction,
			ContactTimeline:   result.ContactTimeline,
			Indicators:        result.DistressIndicators,
		})
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

// BackfillUnscored scores every never-scored property without AI, page by page.
// It returns the number of properties written.
func (s *Service) BackfillUnscored(ctx context.Context, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = 25
	}
	log := s.log.WithContext(ctx)

	written := 0
	var afterID int64
	for {
		page, err := s.repo.ListUnscored(ctx, afterID, pageSize)
		if err != nil {
			return written, apperr.Wrap(apperr.KindInternal, "failed to list unscored properties", err)
		}
		if len(page) == 0 {
			return written, nil
		}

		for _, p := range page {
			afterID = p.ID
			if err := ctx.Err(); err != nil {
				return written, err
			}

			unlock := s.lockProperty(p.ID)
			result, err := s.scorer.ScoreWithoutAI(p)
			if err == nil {
				err = s.persist(ctx, p, result, events.TriggerBackfill)
			}
			unlock()

			if err != nil {
				log.Warn("backfill skipped property", "error", err, "propertyId", p.ID)
				continue
			}
			written++
		}
		log.Info("backfill page complete", "lastId", afterID, "written", written)
	}
}

// FindOffMarketLeads analyses the cheapest recent properties for off-market potential.
func (s *Service) FindOffMarketLeads(ctx context.Context) (transport.OffMarketResponse, error) {
	log := s.log.WithContext(ctx)

	properties, err := s.repo.ListOffMarketCandidates(ctx, s.windowStart(), offMarketCandidates)
	if err != nil {
		log.DatabaseError("list_off_market_candidates", err)
		return transport.OffMarketResponse{}, apperr.Wrap(apperr.KindInternal, "failed to analyze off-market opportunities", err)
	}
	if len(properties) == 0 {
		return transport.OffMarketResponse{
			Success:           false,
			Message:           msgNoRecentProperties,
			Leads:             []offmarket.Lead{},
			AnalysisTimestamp: s.now().UTC(),
		}, nil
	}

	analyses := make([]offmarket.Analysis, len(properties))
	var g errgroup.Group
	g.SetLimit(s.offMarketConcurrency)
	for i, p := range properties {
		g.Go(func() error {
			analysis := s.analyzer.Analyze(ctx, p)
			analyses[i] = analysis

			err := s.repo.SaveOffMarketAnalysis(ctx, p.ID, repository.OffMarketUpdate{
				Score:      analysis.OffMarketScore,
				Analysis:   analysis,
				AnalyzedAt: s.now().UTC(),
			})
			if err != nil {
				log.Error("failed to save off-market analysis", "error", err, "propertyId", p.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return transport.OffMarketResponse{}, apperr.Wrap(apperr.KindInternal, "off-market analysis interrupted", err)
	}

	minScore := s.analyzer.MinScore()
	leads := make([]offmarket.Lead, 0)
	for i, p := range properties {
		if analyses[i].OffMarketScore >= minScore {
			leads = append(leads, offmarket.NewLead(p, analyses[i]))
		}
	}
	offmarket.SortLeads(leads)

	resp := transport.OffMarketResponse{
		Success:             true,
		TotalAnalyzed:       len(properties),
		OffMarketLeadsFound: len(leads),
		Leads:               leads,
		MarketSummary:       s.analyzer.Summarize(ctx, leads),
		SearchCriteria: &transport.SearchCriteria{
			MinScore:        minScore,
			AnalysisPeriod:  formatPeriod(s.windowDays),
			SourcesAnalyzed: distinctSources(properties),
		},
		AnalysisTimestamp: s.now().UTC(),
	}
	resp.ReportKey = s.archive(ctx, reportPrefixOffMarket, resp.AnalysisTimestamp, resp)

	log.Info("off-market analysis complete", "analyzed", len(properties), "leads", len(leads))
	return resp, nil
}

// TrackOutcome records what happened after a lead was worked.
func (s *Service) TrackOutcome(ctx context.Context, propertyID int64, req transport.TrackOutcomeRequest) (transport.TrackOutcomeResponse, error) {
	if _, err := s.repo.GetByID(ctx, propertyID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.TrackOutcomeResponse{}, err
		}
		return transport.TrackOutcomeResponse{}, apperr.Wrap(apperr.KindInternal, "failed to track success", err)
	}

	outcome, err := s.repo.InsertOutcome(ctx, repository.InsertOutcomeParams{
		PropertyID:       propertyID,
		Outcome:          string(req.Outcome),
		AcquisitionPrice: req.AcquisitionPrice,
		Notes:            sanitize.Text(req.Notes),
	})
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("insert_outcome", err)
		return transport.TrackOutcomeResponse{}, apperr.Wrap(apperr.KindInternal, "failed to track success", err)
	}

	return transport.TrackOutcomeResponse{
		Success:    true,
		Message:    "Lead outcome recorded successfully",
		OutcomeID:  outcome.ID,
		PropertyID: outcome.PropertyID,
		Outcome:    outcome.Outcome,
		RecordedAt: outcome.RecordedAt,
	}, nil
}

// Analytics returns scoring aggregates and outcome counts.
func (s *Service) Analytics(ctx context.Context) (transport.AnalyticsResponse, error) {
	stats, err := s.repo.ScoringStats(ctx)
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("scoring_stats", err)
		return transport.AnalyticsResponse{}, apperr.Wrap(apperr.KindInternal, "failed to fetch analytics", err)
	}
	outcomes, err := s.repo.OutcomeCounts(ctx)
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("outcome_counts", err)
		return transport.AnalyticsResponse{}, apperr.Wrap(apperr.KindInternal, "failed to fetch analytics", err)
	}

	return transport.AnalyticsResponse{
		Success: true,
		ScoringStats: transport.ScoringStats{
			TotalScored:          stats.TotalScored,
			AvgScore:             stats.AvgScore,
			HighScoreCount:       stats.HighScoreCount,
			CriticalUrgencyCount: stats.CriticalUrgencyCount,
		},
		OutcomeStats: outcomes,
		LastUpdated:  s.now().UTC(),
	}, nil
}

// archive stores a batch report and returns its key, or "" when archiving is off or fails.
func (s *Service) archive(ctx context.Context, prefix string, at time.Time, report any) string {
	if s.reports == nil {
		return ""
	}
	key, err := s.reports.SaveJSON(ctx, prefix, at, report)
	if err != nil {
		s.log.WithContext(ctx).Warn("failed to archive report", "error", err, "prefix", prefix)
		return ""
	}
	return key
}

func toScoredLead(p repository.Property, r scoring.ScoreResult) transport.ScoredLead {
	return transport.ScoredLead{
		ID:                     p.ID,
		Address:                p.Address,
		Price:                  p.Price,
		LeadScore:              r.TotalScore,
		AcquisitionProbability: r.AcquisitionProbability,
		UrgencyLevel:           r.UrgencyLevel,
		SuccessLikelihood:      r.SuccessLikelihood,
		DistressIndicators:     r.DistressIndicators,
		ScoringFactors:         r.ScoringBreakdown,
		RecommendedAction:      r.RecommendedAction,
		ContactTimeline:        r.ContactTimeline,
		InvestmentPotential:    r.InvestmentPotential,
	}
}

// sortScoredLeads orders by score descending, then id.
func sortScoredLeads(leads []transport.ScoredLead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].LeadScore != leads[j].LeadScore {
			return leads[i].LeadScore > leads[j].LeadScore
		}
		return leads[i].ID < leads[j].ID
	})
}

func filterByZip(properties []repository.Property, zip string) []repository.Property {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return properties
	}
	out := make([]repository.Property, 0, len(properties))
	for _, p := range properties {
		if p.Zip != nil && strings.TrimSpace(*p.Zip) == zip {
			out = append(out, p)
		}
	}
	return out
}

// distinctSources lists sources in first-seen order.
func distinctSources(properties []repository.Property) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range properties {
		if seen[p.Source] {
			continue
		}
		seen[p.Source] = true
		out = append(out, p.Source)
	}
	return out
}

func formatPeriod(days int) string {
	if days == 1 {
		return "1 day"
	}
	return strconv.Itoa(days) + " days"
}
