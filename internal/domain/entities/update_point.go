package entities

import (
	"fmt"
	"strings"
	"time"
)

// Criticality is the severity tier of an update point.
type Criticality string

// Criticality tiers, lowest to highest.
const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

// ValidCriticalities returns every criticality, most severe first.
func ValidCriticalities() []Criticality {
	return []Criticality{CriticalityCritical, CriticalityHigh, CriticalityMedium, CriticalityLow}
}

// IsValid reports whether c is a known tier.
func (c Criticality) IsValid() bool {
	return c.Severity() > 0
}

// Severity orders tiers; higher is more severe. Unknown tiers are 0.
func (c Criticality) Severity() int {
	switch c {
	case CriticalityCritical:
		return 4
	case CriticalityHigh:
		return 3
	case CriticalityMedium:
		return 2
	case CriticalityLow:
		return 1
	}
	return 0
}

// ParseCriticality parses s case-insensitively.
func ParseCriticality(s string) (Criticality, error) {
	c := Criticality(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", &ValidationError{Field: "criticality", Message: fmt.Sprintf("unknown criticality %q", s)}
	}
	return c, nil
}

// Status is the verification state of a point, derived on read.
type Status string

// Derived statuses.
const (
	StatusCurrent Status = "current"
	StatusDueSoon Status = "due_soon"
	StatusOverdue Status = "overdue"
)

// UpdatePoint is an obligation to periodically re-verify a legal fact.
type UpdatePoint struct {
	ID                  string      `json:"id"`
	TreeKey             string      `json:"tree_key"`
	TreeName            string      `json:"tree_name,omitempty"`
	DataPointName       string      `json:"data_point_name"`
	Criticality         Criticality `json:"criticality"`
	UpdateCategory      string      `json:"update_category"`
	VariableKey         string      `json:"variable_key,omitempty"`
	CurrentValue        string      `json:"current_value,omitempty"`
	AutoUpdateable      bool        `json:"auto_updateable"`
	VerificationURL     string      `json:"verification_url,omitempty"`
	LastVerified        *time.Time  `json:"last_verified,omitempty"`
	NextVerificationDue time.Time   `json:"next_verification_due"`
	Active              bool        `json:"active"`
	Version             int64       `json:"version"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// IsVariableBacked reports whether the point tracks a stored variable.
func (p *UpdatePoint) IsVariableBacked() bool {
	return p.VariableKey != ""
}

// PointView pairs a point with its status at read time.
type PointView struct {
	UpdatePoint
	Status      Status `json:"status"`
	DaysOverdue int    `json:"days_overdue,omitempty"`
}

// PointFilter narrows point listings. Zero values match everything.
type PointFilter struct {
	Category        string
	Criticality     Criticality
	TreeKey         string
	VariableKey     string
	IncludeInactive bool
}
