package handlers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/services"
)

// SeedResult counts what a seed run created.
type SeedResult struct {
	Variables int
	Values    int
	Points    int
	Skipped   int
}

// SeedHandler loads the built-in variables and update points.
type SeedHandler struct {
	variables *services.VariableService
	registry  *services.RegistryService
	logger    *zap.Logger
}

// NewSeedHandler creates a new SeedHandler.
func NewSeedHandler(variables *services.VariableService, registry *services.RegistryService, logger *zap.Logger) *SeedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedHandler{
		variables: variables,
		registry:  registry,
		logger:    logger,
	}
}

// Handle seeds vars and points. Variables that already exist are left alone,
// as are points whose tree already holds a point of the same name, so running
// it twice changes nothing.
func (h *SeedHandler) Handle(ctx context.Context, vars []entities.SeedVariable, points []entities.SeedPoint) (*SeedResult, error) {
	result := &SeedResult{}

	for _, sv := range vars {
		_, err := h.variables.Get(ctx, sv.Key)
		if err == nil {
			result.Skipped++
			continue
		}
		if !errors.Is(err, entities.ErrNotFound) {
			return nil, err
		}
		if len(sv.Values) == 0 {
			return nil, fmt.Errorf("seed variable %s has no values", sv.Key)
		}

		first, err := services.ParseEffectiveDate(sv.Values[0].EffectiveFrom)
		if err != nil {
			return nil, fmt.Errorf("seed variable %s: %w", sv.Key, err)
		}
		if _, err := h.variables.Define(ctx, services.DefineInput{
			Key:           sv.Key,
			Name:          sv.Name,
			Type:          sv.Type,
			Unit:          sv.Unit,
			Value:         sv.Values[0].Value,
			EffectiveFrom: first,
			Reason:        "seed",
		}); err != nil {
			return nil, fmt.Errorf("seeding variable %s: %w", sv.Key, err)
		}
		result.Variables++
		result.Values++

		for _, val := range sv.Values[1:] {
			effective, err := services.ParseEffectiveDate(val.EffectiveFrom)
			if err != nil {
				return nil, fmt.Errorf("seed variable %s: %w", sv.Key, err)
			}
			if _, err := h.variables.Set(ctx, services.SetInput{
				Key:           sv.Key,
				Value:         val.Value,
				EffectiveFrom: effective,
				Reason:        "seed",
			}); err != nil {
				return nil, fmt.Errorf("seeding value of %s: %w", sv.Key, err)
			}
			result.Values++
		}
	}

	for _, sp := range points {
		existing, err := h.registry.List(ctx, entities.PointFilter{TreeKey: sp.TreeKey, IncludeInactive: true})
		if err != nil {
			return nil, err
		}
		if hasPoint(existing, sp.DataPointName) {
			result.Skipped++
			continue
		}
		if _, err := h.registry.Register(ctx, services.RegisterInput{
			TreeKey:         sp.TreeKey,
			TreeName:        sp.TreeName,
			DataPointName:   sp.DataPointName,
			Criticality:     sp.Criticality,
			UpdateCategory:  sp.UpdateCategory,
			VariableKey:     sp.VariableKey,
			AutoUpdateable:  sp.AutoUpdateable,
			VerificationURL: sp.VerificationURL,
		}); err != nil {
			return nil, fmt.Errorf("seeding point %s/%s: %w", sp.TreeKey, sp.DataPointName, err)
		}
		result.Points++
	}

	h.logger.Info("seed loaded",
		zap.Int("variables", result.Variables),
		zap.Int("values", result.Values),
		zap.Int("points", result.Points),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func hasPoint(points []entities.PointView, name string) bool {
	for _, p := range points {
		if p.DataPointName == name {
			return true
		}
	}
	return false
}
