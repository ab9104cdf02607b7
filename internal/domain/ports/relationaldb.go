package ports

import (
	"context"
	"time"

	"github.com/ersonp/legis/internal/domain/entities"
)

// StoreReader holds the lookups available both inside and outside a transaction.
// Find methods return nil, nil when nothing matches.
type StoreReader interface {
	// FindVariable finds a variable by key.
	FindVariable(ctx context.Context, key string) (*entities.Variable, error)

	// ResolveValues returns the value of each key effective at asOf.
	// Keys with no effective value are absent from the map. A nil keys slice resolves every variable.
	ResolveValues(ctx context.Context, keys []string, asOf time.Time) (map[string]entities.ResolvedValue, error)

	// FindUpdatePoint finds a point by ID.
	FindUpdatePoint(ctx context.Context, id string) (*entities.UpdatePoint, error)
}

// Tx is the write side of the store, scoped to one transaction.
type Tx interface {
	StoreReader

	// InsertVariable inserts a new variable row.
	InsertVariable(ctx context.Context, v *entities.Variable) error

	// UpdateVariable writes v if the stored version still equals expectedVersion
	// and advances v.Version. A stale version returns a *entities.ConflictError.
	UpdateVariable(ctx context.Context, v *entities.Variable, expectedVersion int64) error

	// TouchVariable records a verification of the variable without changing its value.
	TouchVariable(ctx context.Context, key string, verifiedAt time.Time) error

	// SaveVariableVersion appends a history row and sets ver.ID.
	SaveVariableVersion(ctx context.Context, ver *entities.VariableVersion) error

	// RefreshPointSnapshots sets current_value on every point backed by key whose
	// snapshot differs from value, bumping their versions. Returns the rows changed.
	RefreshPointSnapshots(ctx context.Context, key, value string, at time.Time) (int, error)

	// InsertUpdatePoint inserts a new point.
	InsertUpdatePoint(ctx context.Context, p *entities.UpdatePoint) error

	// UpdateUpdatePoint writes p if the stored version still equals expectedVersion
	// and advances p.Version. A stale version returns a *entities.ConflictError.
	UpdateUpdatePoint(ctx context.Context, p *entities.UpdatePoint, expectedVersion int64) error

	// LogAction records an action in the audit log.
	LogAction(ctx context.Context, action, subjectID string, details map[string]any) error
}

// RelationalDB defines the interface for the variable and update point store.
type RelationalDB interface {
	StoreReader

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// ListVariables lists all variables ordered by key.
	ListVariables(ctx context.Context) ([]entities.Variable, error)

	// FindVariableVersions lists a variable's history, oldest effective date first.
	FindVariableVersions(ctx context.Context, key string) ([]entities.VariableVersion, error)

	// ListUpdatePoints lists points matching the filter.
	ListUpdatePoints(ctx context.Context, filter entities.PointFilter) ([]entities.UpdatePoint, error)

	// FindPointsDueBefore lists active points with next_verification_due < t.
	FindPointsDueBefore(ctx context.Context, t time.Time) ([]entities.UpdatePoint, error)

	// FindPointsDueBetween lists active points with from <= next_verification_due <= to.
	FindPointsDueBetween(ctx context.Context, from, to time.Time) ([]entities.UpdatePoint, error)

	// LogAction records an action in the audit log.
	LogAction(ctx context.Context, action, subjectID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a variable key or point ID.
	FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error)

	// FindAuditLogByAction finds audit log entries by action type.
	FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}
