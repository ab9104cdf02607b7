package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

func now() time.Time {
	return timeNow().UTC()
}

// DefineInput describes a new variable.
type DefineInput struct {
	Key           string
	Name          string
	Type          entities.ValueType
	Unit          string
	Value         string
	EffectiveFrom time.Time // zero means now
	Reason        string
}

// SetInput describes a new value for an existing variable.
type SetInput struct {
	Key           string
	Value         string
	EffectiveFrom time.Time // zero means now
	// Force records a value dated before the latest effective date.
	Force  bool
	Reason string
	// ExpectedVersion pins the write to the version the caller read. Zero skips the check.
	ExpectedVersion int64
}

// VariableService manages variables and their value history.
type VariableService struct {
	relationalDB ports.RelationalDB
	logger       *zap.Logger
}

// NewVariableService creates a new VariableService.
func NewVariableService(relationalDB ports.RelationalDB, logger *zap.Logger) *VariableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariableService{
		relationalDB: relationalDB,
		logger:       logger,
	}
}

// Get returns the variable with its value effective now.
func (s *VariableService) Get(ctx context.Context, key string) (*entities.Variable, error) {
	v, err := s.relationalDB.FindVariable(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("finding variable: %w", err)
	}
	if v == nil {
		return nil, &entities.NotFoundError{Kind: "variable", ID: key}
	}
	return withEffective(ctx, s.relationalDB, v, now())
}

// List returns all variables with their values effective now.
func (s *VariableService) List(ctx context.Context) ([]entities.Variable, error) {
	vars, err := s.relationalDB.ListVariables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing variables: %w", err)
	}

	t := now()
	resolved, err := s.relationalDB.ResolveValues(ctx, nil, t)
	if err != nil {
		return nil, fmt.Errorf("resolving variables: %w", err)
	}

	for i := range vars {
		applyEffective(&vars[i], resolved, t)
	}
	return vars, nil
}

// History returns every recorded value of a variable, oldest effective date first.
func (s *VariableService) History(ctx context.Context, key string) ([]entities.VariableVersion, error) {
	if _, err := s.Get(ctx, key); err != nil {
		return nil, err
	}
	versions, err := s.relationalDB.FindVariableVersions(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("finding variable history: %w", err)
	}
	return versions, nil
}

// Define creates a variable. Keys cannot be changed afterwards.
func (s *VariableService) Define(ctx context.Context, in DefineInput) (*entities.Variable, error) {
	key := strings.TrimSpace(in.Key)
	if !entities.IsValidKey(key) {
		return nil, &entities.ValidationError{
			Field:   "key",
			Message: fmt.Sprintf("invalid key %q: must be lowercase alphanumeric with underscores, starting with a letter", in.Key),
		}
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &entities.ValidationError{Field: "name", Message: "name is required"}
	}
	if !in.Type.IsValid() {
		return nil, &entities.ValidationError{Field: "type", Message: fmt.Sprintf("unknown value type %q", in.Type)}
	}
	value, err := in.Type.Normalize(in.Value)
	if err != nil {
		return nil, err
	}

	t := now()
	effective := in.EffectiveFrom
	if effective.IsZero() {
		effective = t
	}

	v := &entities.Variable{
		Key:           key,
		Name:          name,
		Type:          in.Type,
		Value:         value,
		Unit:          strings.TrimSpace(in.Unit),
		EffectiveFrom: effective.UTC(),
		Version:       1,
		CreatedAt:     t,
		UpdatedAt:     t,
	}

	err = s.relationalDB.WithTx(ctx, func(tx ports.Tx) error {
		existing, err := tx.FindVariable(ctx, key)
		if err != nil {
			return fmt.Errorf("checking variable: %w", err)
		}
		if existing != nil {
			return &entities.ValidationError{Field: "key", Message: fmt.Sprintf("variable %q already exists", key)}
		}

		if err := tx.InsertVariable(ctx, v); err != nil {
			return err
		}
		if err := tx.SaveVariableVersion(ctx, &entities.VariableVersion{
			VariableKey:   key,
			Value:         value,
			EffectiveFrom: v.EffectiveFrom,
			RecordedAt:    t,
			Reason:        in.Reason,
		}); err != nil {
			return err
		}
		return tx.LogAction(ctx, entities.ActionVariableDefined, key, map[string]any{
			"value":          value,
			"type":           string(in.Type),
			"effective_from": v.EffectiveFrom.Format(entities.DateLayout),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("variable defined",
		zap.String("variable_key", key),
		zap.String("value", value),
		zap.Time("effective_from", v.EffectiveFrom),
	)
	return withEffective(ctx, s.relationalDB, v, t)
}

// Set records a new value. Every point backed by the variable is refreshed to
// the value effective now in the same transaction.
func (s *VariableService) Set(ctx context.Context, in SetInput) (*entities.Variable, error) {
	var result *entities.Variable
	err := s.relationalDB.WithTx(ctx, func(tx ports.Tx) error {
		v, err := s.setInTx(ctx, tx, in, now())
		result = v
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("variable set",
		zap.String("variable_key", result.Key),
		zap.String("value", in.Value),
		zap.Bool("forced", in.Force),
		zap.Int64("version", result.Version),
	)
	return result, nil
}

func (s *VariableService) setInTx(ctx context.Context, tx ports.Tx, in SetInput, t time.Time) (*entities.Variable, error) {
	v, err := tx.FindVariable(ctx, in.Key)
	if err != nil {
		return nil, fmt.Errorf("finding variable: %w", err)
	}
	if v == nil {
		return nil, &entities.NotFoundError{Kind: "variable", ID: in.Key}
	}
	if in.ExpectedVersion > 0 && in.ExpectedVersion != v.Version {
		return nil, &entities.ConflictError{Kind: "variable", ID: v.Key, Expected: in.ExpectedVersion}
	}

	value, err := v.Type.Normalize(in.Value)
	if err != nil {
		return nil, err
	}

	effective := in.EffectiveFrom.UTC()
	if in.EffectiveFrom.IsZero() {
		effective = t
	}

	retroactive := effective.Before(v.EffectiveFrom)
	if retroactive && !in.Force {
		return nil, &entities.ValidationError{
			Field: "effective_from",
			Message: fmt.Sprintf("%s is earlier than the latest effective date %s (use force to record it)",
				effective.Format(entities.DateLayout), v.EffectiveFrom.Format(entities.DateLayout)),
		}
	}

	if err := tx.SaveVariableVersion(ctx, &entities.VariableVersion{
		VariableKey:   v.Key,
		Value:         value,
		EffectiveFrom: effective,
		RecordedAt:    t,
		Forced:        retroactive,
		Reason:        in.Reason,
	}); err != nil {
		return nil, err
	}

	// The row keeps the value with the latest effective date; a forced
	// backdated value lives only in the history.
	expected := v.Version
	if !retroactive {
		v.Value = value
		v.EffectiveFrom = effective
	}
	v.LastVerified = &t
	v.UpdatedAt = t
	if err := tx.UpdateVariable(ctx, v, expected); err != nil {
		return nil, err
	}

	refreshed, err := refreshSnapshots(ctx, tx, v.Key, t)
	if err != nil {
		return nil, err
	}

	if err := tx.LogAction(ctx, entities.ActionVariableSet, v.Key, map[string]any{
		"value":            value,
		"effective_from":   effective.Format(entities.DateLayout),
		"forced":           retroactive,
		"reason":           in.Reason,
		"refreshed_points": refreshed,
		"version":          v.Version,
	}); err != nil {
		return nil, err
	}

	return withEffective(ctx, tx, v, t)
}

// ActivateStaged brings point snapshots up to date for values whose effective
// date has been reached since they were recorded. Returns the points refreshed.
func (s *VariableService) ActivateStaged(ctx context.Context) (int, error) {
	t := now()
	resolved, err := s.relationalDB.ResolveValues(ctx, nil, t)
	if err != nil {
		return 0, fmt.Errorf("resolving variables: %w", err)
	}

	keys := make([]string, 0, len(resolved))
	for k := range resolved {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 0
	for _, key := range keys {
		value := resolved[key].Value
		err := s.relationalDB.WithTx(ctx, func(tx ports.Tx) error {
			n, err := tx.RefreshPointSnapshots(ctx, key, value, t)
			if err != nil || n == 0 {
				return err
			}
			total += n
			return tx.LogAction(ctx, entities.ActionStagedActivated, key, map[string]any{
				"value":  value,
				"points": n,
			})
		})
		if err != nil {
			return total, fmt.Errorf("activating %s: %w", key, err)
		}
	}

	if total > 0 {
		s.logger.Info("staged values activated", zap.Int("points", total))
	}
	return total, nil
}

// refreshSnapshots copies the value effective at t into the points backed by key.
func refreshSnapshots(ctx context.Context, tx ports.Tx, key string, t time.Time) (int, error) {
	resolved, err := tx.ResolveValues(ctx, []string{key}, t)
	if err != nil {
		return 0, err
	}
	rv, ok := resolved[key]
	if !ok {
		return 0, nil
	}
	return tx.RefreshPointSnapshots(ctx, key, rv.Value, t)
}

// withEffective replaces a future-dated row value with the value effective at t
// and exposes the pending one as Scheduled.
func withEffective(ctx context.Context, r ports.StoreReader, v *entities.Variable, t time.Time) (*entities.Variable, error) {
	if !v.EffectiveFrom.After(t) {
		return v, nil
	}
	resolved, err := r.ResolveValues(ctx, []string{v.Key}, t)
	if err != nil {
		return nil, fmt.Errorf("resolving variable: %w", err)
	}
	applyEffective(v, resolved, t)
	return v, nil
}

func applyEffective(v *entities.Variable, resolved map[string]entities.ResolvedValue, t time.Time) {
	if !v.EffectiveFrom.After(t) {
		return
	}
	v.Scheduled = &entities.ScheduledValue{Value: v.Value, EffectiveFrom: v.EffectiveFrom}
	if rv, ok := resolved[v.Key]; ok {
		v.Value = rv.Value
		v.EffectiveFrom = rv.EffectiveFrom
		return
	}
	v.Value = ""
	v.EffectiveFrom = time.Time{}
}
