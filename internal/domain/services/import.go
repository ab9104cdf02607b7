package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle variables that already exist.
type ConflictStrategy string

const (
	// ConflictSkip leaves existing variables untouched.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictOverwrite records the imported value as a new set.
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle existing variables
}

// ImportError represents an error for a specific row during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Defined int
	Updated int
	Skipped int
	Errors  []ImportError
}

// ImportService imports variable values from external files.
type ImportService struct {
	relationalDB ports.RelationalDB
	variables    *VariableService
	logger       *zap.Logger
}

// NewImportService creates a new import service.
func NewImportService(relationalDB ports.RelationalDB, variables *VariableService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		relationalDB: relationalDB,
		variables:    variables,
		logger:       logger,
	}
}

// Import validates rows and applies them in file order. New keys are defined,
// existing keys follow opts.OnConflict. Rows that fail validation are reported
// in the result and do not stop the import.
func (s *ImportService) Import(ctx context.Context, rows []parsers.RawVariable, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	for i := range rows {
		raw := &rows[i]
		lineNum := raw.LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		existing, err := s.relationalDB.FindVariable(ctx, strings.TrimSpace(raw.Key))
		if err != nil {
			return nil, fmt.Errorf("checking variable: %w", err)
		}

		if ierr := validateRawVariable(raw, existing, lineNum); ierr != nil {
			result.Errors = append(result.Errors, *ierr)
			continue
		}

		if existing != nil && opts.OnConflict == ConflictSkip {
			result.Skipped++
			continue
		}

		if opts.DryRun {
			if existing == nil {
				result.Defined++
			} else {
				result.Updated++
			}
			continue
		}

		if err := s.apply(ctx, raw, existing); err != nil {
			var verr *entities.ValidationError
			if errors.As(err, &verr) {
				result.Errors = append(result.Errors, ImportError{
					Line: lineNum, Field: verr.Field, Value: raw.Value, Message: verr.Message,
				})
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if existing == nil {
			result.Defined++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("variables imported",
		zap.Int("defined", result.Defined),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
		zap.Bool("dry_run", opts.DryRun),
	)
	return result, nil
}

func (s *ImportService) apply(ctx context.Context, raw *parsers.RawVariable, existing *entities.Variable) error {
	effective, _ := ParseEffectiveDate(raw.EffectiveFrom)
	if existing == nil {
		_, err := s.variables.Define(ctx, DefineInput{
			Key:           strings.TrimSpace(raw.Key),
			Name:          raw.Name,
			Type:          entities.ValueType(strings.ToLower(strings.TrimSpace(raw.Type))),
			Unit:          raw.Unit,
			Value:         raw.Value,
			EffectiveFrom: effective,
			Reason:        raw.Reason,
		})
		return err
	}
	_, err := s.variables.Set(ctx, SetInput{
		Key:           existing.Key,
		Value:         raw.Value,
		EffectiveFrom: effective,
		Reason:        raw.Reason,
	})
	return err
}

// validateRawVariable checks a row against the variable it would create or update.
func validateRawVariable(raw *parsers.RawVariable, existing *entities.Variable, lineNum int) *ImportError {
	key := strings.TrimSpace(raw.Key)
	if key == "" {
		return &ImportError{Line: lineNum, Field: "key", Message: "missing required field: key"}
	}
	if !entities.IsValidKey(key) {
		return &ImportError{Line: lineNum, Field: "key", Value: raw.Key, Message: fmt.Sprintf("invalid key %q", raw.Key)}
	}

	typ := entities.ValueType(strings.ToLower(strings.TrimSpace(raw.Type)))
	if existing == nil {
		if strings.TrimSpace(raw.Name) == "" {
			return &ImportError{Line: lineNum, Field: "name", Message: "missing required field for new variable: name"}
		}
		if !typ.IsValid() {
			return &ImportError{
				Line:    lineNum,
				Field:   "type",
				Value:   raw.Type,
				Message: fmt.Sprintf("invalid type %q (valid: numeric, percentage, date, text)", raw.Type),
			}
		}
	} else {
		if typ != "" && typ != existing.Type {
			return &ImportError{
				Line:    lineNum,
				Field:   "type",
				Value:   raw.Type,
				Message: fmt.Sprintf("type %q does not match existing type %q", raw.Type, existing.Type),
			}
		}
		typ = existing.Type
	}

	if _, err := typ.Normalize(raw.Value); err != nil {
		return &ImportError{Line: lineNum, Field: "value", Value: raw.Value, Message: err.Error()}
	}

	effective, err := ParseEffectiveDate(raw.EffectiveFrom)
	if err != nil {
		return &ImportError{Line: lineNum, Field: "effective_from", Value: raw.EffectiveFrom, Message: err.Error()}
	}
	if existing != nil && !effective.IsZero() && effective.Before(existing.EffectiveFrom) {
		return &ImportError{
			Line:    lineNum,
			Field:   "effective_from",
			Value:   raw.EffectiveFrom,
			Message: fmt.Sprintf("earlier than the latest effective date %s", existing.EffectiveFrom.Format(entities.DateLayout)),
		}
	}
	return nil
}

// ParseEffectiveDate accepts YYYY-MM-DD or RFC 3339. Empty means now.
func ParseEffectiveDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(entities.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

