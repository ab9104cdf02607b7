package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/domain/services"
)

// ErrSearchUnavailable is returned when variable search has no backing index.
var ErrSearchUnavailable = errors.New("variable search is not configured")

// VariableHandler handles variable operations at the application layer.
type VariableHandler struct {
	variables *services.VariableService
	search    *services.SearchService
	metrics   ports.Metrics
	logger    *zap.Logger
}

// NewVariableHandler creates a new VariableHandler. search may be nil.
func NewVariableHandler(variables *services.VariableService, search *services.SearchService, metrics ports.Metrics, logger *zap.Logger) *VariableHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariableHandler{
		variables: variables,
		search:    search,
		metrics:   orNoop(metrics),
		logger:    logger,
	}
}

// VariableListResult contains the result of listing variables.
type VariableListResult struct {
	Variables []entities.Variable `json:"variables"`
	Total     int                 `json:"total"`
}

// HandleList returns every variable with its value effective now.
func (h *VariableHandler) HandleList(ctx context.Context) (*VariableListResult, error) {
	vars, err := h.variables.List(ctx)
	if err != nil {
		return nil, err
	}
	return &VariableListResult{Variables: vars, Total: len(vars)}, nil
}

// HandleGet returns one variable.
func (h *VariableHandler) HandleGet(ctx context.Context, key string) (*entities.Variable, error) {
	return h.variables.Get(ctx, key)
}

// HandleHistory returns the recorded values of a variable.
func (h *VariableHandler) HandleHistory(ctx context.Context, key string) ([]entities.VariableVersion, error) {
	return h.variables.History(ctx, key)
}

// HandleDefine creates a variable.
func (h *VariableHandler) HandleDefine(ctx context.Context, in services.DefineInput) (*entities.Variable, error) {
	return h.variables.Define(ctx, in)
}

// HandleSet records a new value, retrying once on a lost race.
func (h *VariableHandler) HandleSet(ctx context.Context, in services.SetInput) (*entities.Variable, error) {
	return withConflictRetry(h.metrics, "variable.set", in.ExpectedVersion > 0, func() (*entities.Variable, error) {
		return h.variables.Set(ctx, in)
	})
}

// HandleSearch finds variables by meaning.
func (h *VariableHandler) HandleSearch(ctx context.Context, query string, limit int) ([]ports.SearchHit, error) {
	if h.search == nil {
		return nil, ErrSearchUnavailable
	}
	return h.search.Search(ctx, query, limit)
}

// HandleReindex rebuilds the search index from the store.
func (h *VariableHandler) HandleReindex(ctx context.Context) (int, error) {
	if h.search == nil {
		return 0, ErrSearchUnavailable
	}
	return h.search.Reindex(ctx)
}
