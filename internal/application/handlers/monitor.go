package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/domain/services"
)

// ScanResult summarizes an overdue scan.
type ScanResult struct {
	Overdue int
	DueSoon int
}

// MonitorHandler runs the periodic jobs: overdue scans and staged value activation.
type MonitorHandler struct {
	registry   *services.RegistryService
	statistics *services.StatisticsService
	variables  *services.VariableService
	metrics    ports.Metrics
	logger     *zap.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	registry *services.RegistryService,
	statistics *services.StatisticsService,
	variables *services.VariableService,
	metrics ports.Metrics,
	logger *zap.Logger,
) *MonitorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MonitorHandler{
		registry:   registry,
		statistics: statistics,
		variables:  variables,
		metrics:    orNoop(metrics),
		logger:     logger,
	}
}

// HandleOverdueScan publishes overdue and due-soon counts per criticality and
// logs every overdue point.
func (h *MonitorHandler) HandleOverdueScan(ctx context.Context) (*ScanResult, error) {
	stats, err := h.statistics.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing statistics: %w", err)
	}

	overdue := make(map[entities.Criticality]int)
	dueSoon := make(map[entities.Criticality]int)
	result := &ScanResult{}
	for _, s := range stats {
		overdue[s.Criticality] += s.OverdueCount
		dueSoon[s.Criticality] += s.DueThisWeekCount
		result.Overdue += s.OverdueCount
		result.DueSoon += s.DueThisWeekCount
	}
	for _, c := range entities.ValidCriticalities() {
		h.metrics.SetPointStatus(c, overdue[c], dueSoon[c])
	}

	if result.Overdue > 0 {
		points, err := h.registry.Overdue(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing overdue points: %w", err)
		}
		for _, p := range points {
			h.logger.Warn("update point overdue",
				zap.String("point_id", p.ID),
				zap.String("tree_key", p.TreeKey),
				zap.String("data_point_name", p.DataPointName),
				zap.String("criticality", string(p.Criticality)),
				zap.Int("days_overdue", p.DaysOverdue),
			)
		}
	}

	h.logger.Info("overdue scan finished",
		zap.Int("overdue", result.Overdue),
		zap.Int("due_soon", result.DueSoon),
	)
	return result, nil
}

// HandleStagedActivation refreshes point snapshots whose variable value has
// become effective.
func (h *MonitorHandler) HandleStagedActivation(ctx context.Context) (int, error) {
	return h.variables.ActivateStaged(ctx)
}
