package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/domain/services"
)

// ErrSuggestionUnavailable is returned when no LLM client is configured.
var ErrSuggestionUnavailable = errors.New("value suggestion is not configured")

// PointHandler handles update point operations at the application layer.
type PointHandler struct {
	registry    *services.RegistryService
	statistics  *services.StatisticsService
	suggestions *services.SuggestionService
	metrics     ports.Metrics
	logger      *zap.Logger
}

// NewPointHandler creates a new PointHandler. suggestions may be nil.
func NewPointHandler(
	registry *services.RegistryService,
	statistics *services.StatisticsService,
	suggestions *services.SuggestionService,
	metrics ports.Metrics,
	logger *zap.Logger,
) *PointHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointHandler{
		registry:    registry,
		statistics:  statistics,
		suggestions: suggestions,
		metrics:     orNoop(metrics),
		logger:      logger,
	}
}

// PointListResult contains a list of points with their statuses.
type PointListResult struct {
	Points []entities.PointView `json:"points"`
	Total  int                  `json:"total"`
}

func pointList(views []entities.PointView, err error) (*PointListResult, error) {
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []entities.PointView{}
	}
	return &PointListResult{Points: views, Total: len(views)}, nil
}

// HandleRegister creates a point.
func (h *PointHandler) HandleRegister(ctx context.Context, in services.RegisterInput) (*entities.UpdatePoint, error) {
	return h.registry.Register(ctx, in)
}

// HandleGet returns one point with its status.
func (h *PointHandler) HandleGet(ctx context.Context, id string) (*entities.PointView, error) {
	return h.registry.Get(ctx, id)
}

// HandleList returns points matching filter.
func (h *PointHandler) HandleList(ctx context.Context, filter entities.PointFilter) (*PointListResult, error) {
	return pointList(h.registry.List(ctx, filter))
}

// HandleOverdue returns overdue points, most severe first.
func (h *PointHandler) HandleOverdue(ctx context.Context) (*PointListResult, error) {
	return pointList(h.registry.Overdue(ctx))
}

// HandleDueWithin returns points due in the next days.
func (h *PointHandler) HandleDueWithin(ctx context.Context, days int) (*PointListResult, error) {
	return pointList(h.registry.DueWithin(ctx, days))
}

// HandleDueThisWeek returns points due in the next seven days.
func (h *PointHandler) HandleDueThisWeek(ctx context.Context) (*PointListResult, error) {
	return pointList(h.registry.DueThisWeek(ctx))
}

// HandleVerify marks a point verified, retrying once on a lost race.
func (h *PointHandler) HandleVerify(ctx context.Context, in services.VerifyInput) (*entities.UpdatePoint, error) {
	p, err := withConflictRetry(h.metrics, "point.verify", in.ExpectedVersion > 0, func() (*entities.UpdatePoint, error) {
		return h.registry.MarkVerified(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	h.metrics.PointVerified(p.Criticality)
	return p, nil
}

// HandleReclassify changes a point's criticality or category.
func (h *PointHandler) HandleReclassify(ctx context.Context, in services.ReclassifyInput) (*entities.UpdatePoint, error) {
	return withConflictRetry(h.metrics, "point.reclassify", in.ExpectedVersion > 0, func() (*entities.UpdatePoint, error) {
		return h.registry.Reclassify(ctx, in)
	})
}

// HandleDeactivate retires a point.
func (h *PointHandler) HandleDeactivate(ctx context.Context, in services.DeactivateInput) (*entities.UpdatePoint, error) {
	return withConflictRetry(h.metrics, "point.deactivate", in.ExpectedVersion > 0, func() (*entities.UpdatePoint, error) {
		return h.registry.Deactivate(ctx, in)
	})
}

// HandleHistory returns the audit trail of a point.
func (h *PointHandler) HandleHistory(ctx context.Context, id string) ([]entities.AuditEntry, error) {
	return h.registry.History(ctx, id)
}

// HandleStatistics returns counts per category and criticality.
func (h *PointHandler) HandleStatistics(ctx context.Context) ([]entities.Statistic, error) {
	return h.statistics.Get(ctx)
}

// HandleSuggest proposes a value for an auto-updateable point.
func (h *PointHandler) HandleSuggest(ctx context.Context, id string) (*services.Suggestion, error) {
	if h.suggestions == nil {
		return nil, ErrSuggestionUnavailable
	}
	return h.suggestions.Suggest(ctx, id)
}
