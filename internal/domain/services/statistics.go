package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ersonp/legis/internal/domain/cadence"
	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

// StatisticsService rolls up active update points by category and criticality.
type StatisticsService struct {
	relationalDB ports.RelationalDB
}

// NewStatisticsService creates a new StatisticsService.
func NewStatisticsService(relationalDB ports.RelationalDB) *StatisticsService {
	return &StatisticsService{relationalDB: relationalDB}
}

// Get returns one row per (category, criticality) group, ordered by category
// then severity. Counts use the same rules as the overdue and due-this-week lists.
func (s *StatisticsService) Get(ctx context.Context) ([]entities.Statistic, error) {
	points, err := s.relationalDB.ListUpdatePoints(ctx, entities.PointFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing update points: %w", err)
	}
	return Aggregate(points, now()), nil
}

type groupKey struct {
	category    string
	criticality entities.Criticality
}

// Aggregate groups points and counts their statuses at t.
func Aggregate(points []entities.UpdatePoint, t time.Time) []entities.Statistic {
	groups := make(map[groupKey]*entities.Statistic)
	for i := range points {
		p := &points[i]
		if !p.Active {
			continue
		}
		k := groupKey{category: p.UpdateCategory, criticality: p.Criticality}
		stat, ok := groups[k]
		if !ok {
			stat = &entities.Statistic{UpdateCategory: p.UpdateCategory, Criticality: p.Criticality}
			groups[k] = stat
		}
		stat.TotalPoints++
		if cadence.IsOverdue(p.NextVerificationDue, t) {
			stat.OverdueCount++
		}
		if cadence.IsDueWithin(p.NextVerificationDue, t, cadence.DueSoonDays) {
			stat.DueThisWeekCount++
		}
	}

	stats := make([]entities.Statistic, 0, len(groups))
	for _, stat := range groups {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].UpdateCategory != stats[j].UpdateCategory {
			return stats[i].UpdateCategory < stats[j].UpdateCategory
		}
		return stats[i].Criticality.Severity() > stats[j].Criticality.Severity()
	})
	return stats
}
