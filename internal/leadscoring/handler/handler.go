package handler

import (
	"context"
	"net/http"
	"strconv"

	"leadscore_backend/internal/leadscoring/scoring"
	"leadscore_backend/internal/leadscoring/transport"
	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid property id"
	msgQueueDisabled    = "background queue is not configured"
)

// Scoring is the service surface the handler drives.
type Scoring interface {
	ScoreLeads(ctx context.Context, query transport.ScoreLeadsQuery) (transport.ScoreLeadsResponse, error)
	ScoreProperty(ctx context.Context, id int64) (scoring.ScoreResult, error)
	FindOffMarketLeads(ctx context.Context) (transport.OffMarketResponse, error)
	TrackOutcome(ctx context.Context, propertyID int64, req transport.TrackOutcomeRequest) (transport.TrackOutcomeResponse, error)
	Analytics(ctx context.Context) (transport.AnalyticsResponse, error)
}

// BatchEnqueuer hands batch runs to the background queue.
type BatchEnqueuer interface {
	EnqueueScoreBatch(ctx context.Context, zip string) (string, error)
	EnqueueOffMarketBatch(ctx context.Context) (string, error)
	QueueName() string
}

type Handler struct {
	svc   Scoring
	queue BatchEnqueuer
}

// New creates a handler. queue may be nil, in which case ?async=true is rejected.
func New(svc Scoring, queue BatchEnqueuer) *Handler {
	return &Handler{svc: svc, queue: queue}
}

// RegisterRoutes mounts the lead scoring routes. batchLimit guards the endpoints
// that fan out over the whole property window.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, batchLimit gin.HandlerFunc) {
	batch := rg.Group("")
	if batchLimit != nil {
		batch.Use(batchLimit)
	}
	batch.POST("/score-leads", h.ScoreLeads)
	batch.POST("/find-off-market-leads", h.FindOffMarketLeads)

	rg.POST("/properties/:id/score", h.ScoreProperty)
	rg.POST("/track-success/:leadId", h.TrackSuccess)
	rg.GET("/scoring-analytics", h.Analytics)
}

// POST /api/v1/lead-scoring/score-leads
func (h *Handler) ScoreLeads(c *gin.Context) {
	var query transport.ScoreLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	if query.Async {
		if h.queue == nil {
			httpkit.Error(c, http.StatusServiceUnavailable, msgQueueDisabled, nil)
			return
		}
		taskID, err := h.queue.EnqueueScoreBatch(c.Request.Context(), query.Zip)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.Accepted(c, transport.EnqueuedResponse{Success: true, TaskID: taskID, Queue: h.queue.QueueName()})
		return
	}

	resp, err := h.svc.ScoreLeads(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// POST /api/v1/lead-scoring/properties/:id/score
func (h *Handler) ScoreProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.ScoreProperty(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ScorePropertyResponse{Success: true, Result: result})
}

// POST /api/v1/lead-scoring/find-off-market-leads
func (h *Handler) FindOffMarketLeads(c *gin.Context) {
	if async, _ := strconv.ParseBool(c.Query("async")); async {
		if h.queue == nil {
			httpkit.Error(c, http.StatusServiceUnavailable, msgQueueDisabled, nil)
			return
		}
		taskID, err := h.queue.EnqueueOffMarketBatch(c.Request.Context())
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.Accepted(c, transport.EnqueuedResponse{Success: true, TaskID: taskID, Queue: h.queue.QueueName()})
		return
	}

	resp, err := h.svc.FindOffMarketLeads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// POST /api/v1/lead-scoring/track-success/:leadId
func (h *Handler) TrackSuccess(c *gin.Context) {
	id, ok := parseID(c, "leadId")
	if !ok {
		return
	}

	var req transport.TrackOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	resp, err := h.svc.TrackOutcome(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// GET /api/v1/lead-scoring/scoring-analytics
func (h *Handler) Analytics(c *gin.Context) {
	resp, err := h.svc.Analytics(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return 0, false
	}
	return id, true
}
