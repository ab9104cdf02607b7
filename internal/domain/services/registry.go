package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/cadence"
	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

// DefaultCategory is used when a point is registered without a category.
const DefaultCategory = "general"

// RegisterInput describes a new update point.
type RegisterInput struct {
	TreeKey         string
	TreeName        string
	DataPointName   string
	Criticality     entities.Criticality
	UpdateCategory  string
	VariableKey     string
	CurrentValue    string // free-text snapshot; only for points without a variable
	AutoUpdateable  bool
	VerificationURL string
	LastVerified    *time.Time
	// NextVerificationDue overrides the cadence-derived deadline.
	NextVerificationDue *time.Time
}

// VerifyInput records a human verification of a point.
type VerifyInput struct {
	PointID string
	// NewValue is the value found during verification, if it changed.
	NewValue        *string
	EffectiveFrom   time.Time // for NewValue on variable-backed points; zero means now
	ExpectedVersion int64
	VerifiedBy      string
}

// ReclassifyInput changes a point's criticality or category. Empty fields stay unchanged.
type ReclassifyInput struct {
	PointID         string
	Criticality     entities.Criticality
	UpdateCategory  string
	ExpectedVersion int64
}

// DeactivateInput retires a point without deleting its history.
type DeactivateInput struct {
	PointID         string
	Reason          string
	ExpectedVersion int64
}

// RegistryService manages update points and their verification deadlines.
type RegistryService struct {
	relationalDB ports.RelationalDB
	variables    *VariableService
	logger       *zap.Logger
}

// NewRegistryService creates a new RegistryService.
func NewRegistryService(relationalDB ports.RelationalDB, variables *VariableService, logger *zap.Logger) *RegistryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{
		relationalDB: relationalDB,
		variables:    variables,
		logger:       logger,
	}
}

// Register creates a point. Without an explicit deadline the next verification
// is due one cadence after LastVerified, or after now when never verified.
func (s *RegistryService) Register(ctx context.Context, in RegisterInput) (*entities.UpdatePoint, error) {
	if err := validateRegister(&in); err != nil {
		return nil, err
	}

	t := now()
	if in.LastVerified != nil && in.LastVerified.After(t) {
		return nil, &entities.ValidationError{Field: "last_verified", Message: "last_verified cannot be in the future"}
	}

	base := t
	if in.LastVerified != nil {
		base = in.LastVerified.UTC()
	}
	next := cadence.NextDue(base, in.Criticality)
	if in.NextVerificationDue != nil {
		next = in.NextVerificationDue.UTC()
	}

	p := &entities.UpdatePoint{
		ID:                  uuid.New().String(),
		TreeKey:             in.TreeKey,
		TreeName:            in.TreeName,
		DataPointName:       in.DataPointName,
		Criticality:         in.Criticality,
		UpdateCategory:      in.UpdateCategory,
		VariableKey:         in.VariableKey,
		CurrentValue:        in.CurrentValue,
		AutoUpdateable:      in.AutoUpdateable,
		VerificationURL:     in.VerificationURL,
		LastVerified:        utcPtr(in.LastVerified),
		NextVerificationDue: next,
		Active:              true,
		Version:             1,
		CreatedAt:           t,
		UpdatedAt:           t,
	}

	err := s.relationalDB.WithTx(ctx, func(tx ports.Tx) error {
		if p.IsVariableBacked() {
			v, err := tx.FindVariable(ctx, p.VariableKey)
			if err != nil {
				return fmt.Errorf("finding variable: %w", err)
			}
			if v == nil {
				return &entities.NotFoundError{Kind: "variable", ID: p.VariableKey}
			}
			resolved, err := tx.ResolveValues(ctx, []string{p.VariableKey}, t)
			if err != nil {
				return fmt.Errorf("resolving variable: %w", err)
			}
			p.CurrentValue = resolved[p.VariableKey].Value
		}

		if err := tx.InsertUpdatePoint(ctx, p); err != nil {
			return err
		}
		return tx.LogAction(ctx, entities.ActionPointRegistered, p.ID, map[string]any{
			"tree_key":              p.TreeKey,
			"data_point_name":       p.DataPointName,
			"criticality":           string(p.Criticality),
			"variable_key":          p.VariableKey,
			"next_verification_due": p.NextVerificationDue.Format(time.RFC3339),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("update point registered",
		zap.String("point_id", p.ID),
		zap.String("criticality", string(p.Criticality)),
		zap.String("variable_key", p.VariableKey),
		zap.Time("next_verification_due", p.NextVerificationDue),
	)
	return p, nil
}

func validateRegister(in *RegisterInput) error {
	in.TreeKey = strings.TrimSpace(in.TreeKey)
	in.DataPointName = strings.TrimSpace(in.DataPointName)
	in.UpdateCategory = strings.TrimSpace(in.UpdateCategory)
	in.VariableKey = strings.TrimSpace(in.VariableKey)
	in.VerificationURL = strings.TrimSpace(in.VerificationURL)

	if in.Criticality == "" {
		return &entities.ValidationError{Field: "criticality", Message: "criticality is required"}
	}
	if !in.Criticality.IsValid() {
		return &entities.ValidationError{Field: "criticality", Message: fmt.Sprintf("unknown criticality %q", in.Criticality)}
	}
	if in.TreeKey == "" {
		return &entities.ValidationError{Field: "tree_key", Message: "tree_key is required"}
	}
	if in.DataPointName == "" {
		return &entities.ValidationError{Field: "data_point_name", Message: "data_point_name is required"}
	}
	if in.UpdateCategory == "" {
		in.UpdateCategory = DefaultCategory
	}
	if in.VariableKey != "" && in.CurrentValue != "" {
		return &entities.ValidationError{Field: "current_value", Message: "current_value is taken from the variable and cannot be set"}
	}
	if in.VerificationURL != "" {
		u, err := url.ParseRequestURI(in.VerificationURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return &entities.ValidationError{Field: "verification_url", Message: fmt.Sprintf("invalid url %q", in.VerificationURL)}
		}
	}
	return nil
}

// Get returns a point with its status.
func (s *RegistryService) Get(ctx context.Context, id string) (*entities.PointView, error) {
	p, err := s.find(ctx, s.relationalDB, id)
	if err != nil {
		return nil, err
	}
	view := cadence.View(*p, now())
	return &view, nil
}

// List returns points matching filter, earliest deadline first.
func (s *RegistryService) List(ctx context.Context, filter entities.PointFilter) ([]entities.PointView, error) {
	points, err := s.relationalDB.ListUpdatePoints(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing update points: %w", err)
	}
	return cadence.Views(points, now()), nil
}

// Overdue returns active points past their deadline, most severe first.
// Auto-updateable points are included like any other.
func (s *RegistryService) Overdue(ctx context.Context) ([]entities.PointView, error) {
	t := now()
	points, err := s.relationalDB.FindPointsDueBefore(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("finding overdue points: %w", err)
	}
	views := cadence.Views(points, t)
	cadence.SortBySeverity(views)
	return views, nil
}

// DueWithin returns active points due between now and now+days inclusive.
func (s *RegistryService) DueWithin(ctx context.Context, days int) ([]entities.PointView, error) {
	if days < 0 {
		return nil, &entities.ValidationError{Field: "days", Message: "days cannot be negative"}
	}
	t := now()
	points, err := s.relationalDB.FindPointsDueBetween(ctx, t, t.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("finding due points: %w", err)
	}
	return cadence.Views(points, t), nil
}

// DueThisWeek returns points due within the next seven days.
func (s *RegistryService) DueThisWeek(ctx context.Context) ([]entities.PointView, error) {
	return s.DueWithin(ctx, cadence.DueSoonDays)
}

// MarkVerified records a verification: the deadline restarts from now. A new
// value on a variable-backed point is written through the variable in the same
// transaction; on other points it replaces the free-text snapshot.
func (s *RegistryService) MarkVerified(ctx context.Context, in VerifyInput) (*entities.UpdatePoint, error) {
	var result *entities.UpdatePoint
	err := s.relationalDB.WithTx(ctx, func(tx ports.Tx) error {
		t := now()
		p, err := s.findForUpdate(ctx, tx, in.PointID, in.ExpectedVersion)
		if err != nil {
			return err
		}

		var newValue string
		if in.NewValue != nil {
			newValue = strings.TrimSpace(*in.NewValue)
			if newValue == "" {
				return &entities.ValidationError{Field: "new_value", Message: "new_value cannot be empty"}
			}
		}

		p.LastVerified = &t
		p.NextVerificationDue = cadence.NextDue(t, p.Criticality)
		p.UpdatedAt = t
		if in.NewValue != nil && !p.IsVariableBacked() {
			p.CurrentValue = newValue
		}
		if err := tx.UpdateUpdatePoint(ctx, p, p.Version); err != nil {
			return err
		}

		if p.IsVariableBacked() {
			if in.NewValue != nil {
				_, err = s.variables.setInTx(ctx, tx, SetInput{
					Key:           p.VariableKey,
					Value:         newValue,
					EffectiveFrom: in.EffectiveFrom,
					Reason:        "verified via update point " + p.ID,
				}, t)
			} else {
				err = tx.TouchVariable(ctx, p.VariableKey, t)
			}
			if err != nil {
				return err
			}
		}

		details := map[string]any{
			"criticality":           string(p.Criticality),
			"next_verification_due": p.NextVerificationDue.Format(time.RFC3339),
			"verified_by":           in.VerifiedBy,
		}
		if in.NewValue != nil {
			details["new_value"] = newValue
		}
		if err := tx.LogAction(ctx, entities.ActionPointVerified, p.ID, details); err != nil {
			return err
		}

		// Re-read: setting the variable bumps the point's version again.
		result, err = s.find(ctx, tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("update point verified",
		zap.String("point_id", result.ID),
		zap.String("criticality", string(result.Criticality)),
		zap.Bool("value_changed", in.NewValue != nil),
		zap.Time("next_verification_due", result.NextVerificationDue),
	)
	return result, nil
}

// Reclassify changes criticality or category and recomputes the deadline from
// the last verification, or from creation when never verified.
func (s *RegistryService) Reclassify(ctx context.Context, in ReclassifyInput) (*entities.UpdatePoint, error) {
	if in.Criticality == "" && strings.TrimSpace(in.UpdateCategory) == "" {
		return nil, &entities.ValidationError{Field: "criticality", Message: "nothing to change"}
	}
	if in.Criticality != "" && !in.Criticality.IsValid() {
		return nil, &entities.ValidationError{Field: "criticality", Message: fmt.Sprintf("unknown criticality %q", in.Criticality)}
	}

	var p *entities.UpdatePoint
	err := s.relationalDB.WithTx(ctx, func(tx ports.Tx) error {
		var err error
		p, err = s.findForUpdate(ctx, tx, in.PointID, in.ExpectedVersion)
		if err != nil {
			return err
		}

		details := map[string]any{}
		if in.Criticality != "" && in.Criticality != p.Criticality {
			details["criticality_from"] = string(p.Criticality)
			details["criticality_to"] = string(in.Criticality)
			p.Criticality = in.Criticality
		}
		if category := strings.TrimSpace(in.UpdateCategory); category != "" && category != p.UpdateCategory {
			details["category_from"] = p.UpdateCategory
			details["category_to"] = category
			p.UpdateCategory = category
		}

		base := p.CreatedAt
		if p.LastVerified != nil {
			base = *p.LastVerified
		}
		p.NextVerificationDue = cadence.NextDue(base, p.Criticality)
		p.UpdatedAt = now()
		details["next_verification_due"] = p.NextVerificationDue.Format(time.RFC3339)

		if err := tx.UpdateUpdatePoint(ctx, p, p.Version); err != nil {
			return err
		}
		return tx.LogAction(ctx, entities.ActionPointReclassified, p.ID, details)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("update point reclassified",
		zap.String("point_id", p.ID),
		zap.String("criticality", string(p.Criticality)),
		zap.String("update_category", p.UpdateCategory),
	)
	return p, nil
}

// Deactivate retires a point. It stays in storage with its audit history but
// drops out of overdue, due and statistics results.
func (s *RegistryService) Deactivate(ctx context.Context, in DeactivateInput) (*entities.UpdatePoint, error) {
	var p *entities.UpdatePoint
	err := s.relationalDB.WithTx(ctx, func(tx ports.Tx) error {
		var err error
		p, err = s.findForUpdate(ctx, tx, in.PointID, in.ExpectedVersion)
		if err != nil {
			return err
		}

		p.Active = false
		p.UpdatedAt = now()
		if err := tx.UpdateUpdatePoint(ctx, p, p.Version); err != nil {
			return err
		}
		return tx.LogAction(ctx, entities.ActionPointDeactivated, p.ID, map[string]any{"reason": in.Reason})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("update point deactivated", zap.String("point_id", p.ID), zap.String("reason", in.Reason))
	return p, nil
}

// History returns the audit trail of a point, newest first.
func (s *RegistryService) History(ctx context.Context, id string) ([]entities.AuditEntry, error) {
	if _, err := s.find(ctx, s.relationalDB, id); err != nil {
		return nil, err
	}
	entries, err := s.relationalDB.FindAuditLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding point history: %w", err)
	}
	return entries, nil
}

func (s *RegistryService) find(ctx context.Context, r ports.StoreReader, id string) (*entities.UpdatePoint, error) {
	p, err := r.FindUpdatePoint(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding update point: %w", err)
	}
	if p == nil {
		return nil, &entities.NotFoundError{Kind: "update point", ID: id}
	}
	return p, nil
}

// findForUpdate loads an active point and checks the caller's pinned version.
func (s *RegistryService) findForUpdate(ctx context.Context, tx ports.Tx, id string, expectedVersion int64) (*entities.UpdatePoint, error) {
	p, err := s.find(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, &entities.ValidationError{Field: "point_id", Message: fmt.Sprintf("update point %q is deactivated", id)}
	}
	if expectedVersion > 0 && expectedVersion != p.Version {
		return nil, &entities.ConflictError{Kind: "update point", ID: id, Expected: expectedVersion}
	}
	return p, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
