package entities

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValueType is the kind of value a variable holds.
type ValueType string

// Supported value types.
const (
	ValueNumeric    ValueType = "numeric"
	ValuePercentage ValueType = "percentage"
	ValueDate       ValueType = "date"
	ValueText       ValueType = "text"
)

// DateLayout is the canonical layout for date values and effective dates.
const DateLayout = "2006-01-02"

var validKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// IsValidKey reports whether key can be used as a template placeholder.
func IsValidKey(key string) bool {
	return validKeyRegex.MatchString(key)
}

// ValidValueTypes returns every supported value type.
func ValidValueTypes() []ValueType {
	return []ValueType{ValueNumeric, ValuePercentage, ValueDate, ValueText}
}

// IsValid reports whether t is a supported value type.
func (t ValueType) IsValid() bool {
	switch t {
	case ValueNumeric, ValuePercentage, ValueDate, ValueText:
		return true
	}
	return false
}

// Normalize checks raw against the value type and returns its canonical form.
// Numbers are stored without trailing zeros, dates as YYYY-MM-DD.
func (t ValueType) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Field: "value", Message: "value is required"}
	}

	switch t {
	case ValueNumeric, ValuePercentage:
		s := raw
		if t == ValuePercentage {
			s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return "", &ValidationError{Field: "value", Message: fmt.Sprintf("%q is not a number", raw)}
		}
		return d.String(), nil
	case ValueDate:
		parsed, err := time.Parse(DateLayout, raw)
		if err != nil {
			return "", &ValidationError{Field: "value", Message: fmt.Sprintf("%q is not a date (want %s)", raw, DateLayout)}
		}
		return parsed.Format(DateLayout), nil
	case ValueText:
		return raw, nil
	default:
		return "", &ValidationError{Field: "type", Message: fmt.Sprintf("unknown value type %q", t)}
	}
}

// FormatValue renders a stored value for display. Percentages get a trailing
// percent sign, other values are followed by their unit when one is set.
func FormatValue(t ValueType, value, unit string) string {
	switch {
	case t == ValuePercentage:
		return value + "%"
	case unit != "":
		return value + " " + unit
	default:
		return value
	}
}

// Variable is a named legislative fact whose value drifts with the law.
type Variable struct {
	Key           string          `json:"key"`
	Name          string          `json:"name"`
	Type          ValueType       `json:"type"`
	Value         string          `json:"value"`
	Unit          string          `json:"unit,omitempty"`
	EffectiveFrom time.Time       `json:"effective_from"`
	LastVerified  *time.Time      `json:"last_verified,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Scheduled     *ScheduledValue `json:"scheduled,omitempty"`
}

// Formatted returns the value with its unit applied.
func (v *Variable) Formatted() string {
	return FormatValue(v.Type, v.Value, v.Unit)
}

// ScheduledValue is a value recorded with an effective date that has not
// been reached yet.
type ScheduledValue struct {
	Value         string    `json:"value"`
	EffectiveFrom time.Time `json:"effective_from"`
}

// VariableVersion is one entry in a variable's value history.
type VariableVersion struct {
	ID            int64     `json:"id"`
	VariableKey   string    `json:"variable_key"`
	Value         string    `json:"value"`
	EffectiveFrom time.Time `json:"effective_from"`
	RecordedAt    time.Time `json:"recorded_at"`
	Forced        bool      `json:"forced,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// ResolvedValue is the value of a variable effective at a given instant.
type ResolvedValue struct {
	Key           string
	Type          ValueType
	Value         string
	Unit          string
	EffectiveFrom time.Time
}

// Formatted returns the resolved value with its unit applied.
func (r ResolvedValue) Formatted() string {
	return FormatValue(r.Type, r.Value, r.Unit)
}
