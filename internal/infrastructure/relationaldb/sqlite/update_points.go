package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ersonp/legis/internal/domain/entities"
)

const pointColumns = `id, tree_key, tree_name, data_point_name, criticality, update_category,
	variable_key, current_value, auto_updateable, verification_url, last_verified,
	next_verification_due, active, version, created_at, updated_at`

// InsertUpdatePoint inserts a new point.
func (s *store) InsertUpdatePoint(ctx context.Context, p *entities.UpdatePoint) error {
	query := `INSERT INTO update_points (` + pointColumns + `) VALUES (` + placeholders(16) + `)`
	_, err := s.q.ExecContext(ctx, query,
		p.ID,
		p.TreeKey,
		p.TreeName,
		p.DataPointName,
		string(p.Criticality),
		p.UpdateCategory,
		nullString(p.VariableKey),
		p.CurrentValue,
		boolInt(p.AutoUpdateable),
		p.VerificationURL,
		nullNanos(p.LastVerified),
		toNanos(p.NextVerificationDue),
		boolInt(p.Active),
		p.Version,
		toNanos(p.CreatedAt),
		toNanos(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting update point: %w", err)
	}
	return nil
}

// UpdateUpdatePoint writes p only if the stored version equals expectedVersion.
// The variable link is not editable.
func (s *store) UpdateUpdatePoint(ctx context.Context, p *entities.UpdatePoint, expectedVersion int64) error {
	query := `
		UPDATE update_points SET
			tree_name = ?,
			data_point_name = ?,
			criticality = ?,
			update_category = ?,
			current_value = ?,
			auto_updateable = ?,
			verification_url = ?,
			last_verified = ?,
			next_verification_due = ?,
			active = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?
	`
	res, err := s.q.ExecContext(ctx, query,
		p.TreeName,
		p.DataPointName,
		string(p.Criticality),
		p.UpdateCategory,
		p.CurrentValue,
		boolInt(p.AutoUpdateable),
		p.VerificationURL,
		nullNanos(p.LastVerified),
		toNanos(p.NextVerificationDue),
		boolInt(p.Active),
		toNanos(p.UpdatedAt),
		p.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating update point: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated point: %w", err)
	}
	if n == 0 {
		return &entities.ConflictError{Kind: "update point", ID: p.ID, Expected: expectedVersion}
	}

	p.Version = expectedVersion + 1
	return nil
}

// RefreshPointSnapshots copies value into every point backed by key that
// does not already show it.
func (s *store) RefreshPointSnapshots(ctx context.Context, key, value string, at time.Time) (int, error) {
	query := `
		UPDATE update_points SET
			current_value = ?,
			version = version + 1,
			updated_at = ?
		WHERE variable_key = ? AND current_value <> ?
	`
	res, err := s.q.ExecContext(ctx, query, value, toNanos(at), key, value)
	if err != nil {
		return 0, fmt.Errorf("refreshing point snapshots: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting refreshed points: %w", err)
	}
	return int(n), nil
}

// FindUpdatePoint finds a point by ID.
func (s *store) FindUpdatePoint(ctx context.Context, id string) (*entities.UpdatePoint, error) {
	query := `SELECT ` + pointColumns + ` FROM update_points WHERE id = ?`
	p, err := scanPoint(s.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning update point: %w", err)
	}
	return p, nil
}

// ListUpdatePoints lists points matching filter, earliest deadline first.
func (s *store) ListUpdatePoints(ctx context.Context, filter entities.PointFilter) ([]entities.UpdatePoint, error) {
	var (
		where []string
		args  []any
	)
	if !filter.IncludeInactive {
		where = append(where, "active = 1")
	}
	if filter.Category != "" {
		where = append(where, "update_category = ?")
		args = append(args, filter.Category)
	}
	if filter.Criticality != "" {
		where = append(where, "criticality = ?")
		args = append(args, string(filter.Criticality))
	}
	if filter.TreeKey != "" {
		where = append(where, "tree_key = ?")
		args = append(args, filter.TreeKey)
	}
	if filter.VariableKey != "" {
		where = append(where, "variable_key = ?")
		args = append(args, filter.VariableKey)
	}

	query := `SELECT ` + pointColumns + ` FROM update_points`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY next_verification_due ASC, id ASC`

	return s.queryPoints(ctx, query, args...)
}

// FindPointsDueBefore lists active points with next_verification_due < t.
func (s *store) FindPointsDueBefore(ctx context.Context, t time.Time) ([]entities.UpdatePoint, error) {
	query := `
		SELECT ` + pointColumns + `
		FROM update_points
		WHERE active = 1 AND next_verification_due < ?
		ORDER BY next_verification_due ASC, id ASC
	`
	return s.queryPoints(ctx, query, toNanos(t))
}

// FindPointsDueBetween lists active points with from <= next_verification_due <= to.
func (s *store) FindPointsDueBetween(ctx context.Context, from, to time.Time) ([]entities.UpdatePoint, error) {
	query := `
		SELECT ` + pointColumns + `
		FROM update_points
		WHERE active = 1 AND next_verification_due BETWEEN ? AND ?
		ORDER BY next_verification_due ASC, id ASC
	`
	return s.queryPoints(ctx, query, toNanos(from), toNanos(to))
}

func (s *store) queryPoints(ctx context.Context, query string, args ...any) ([]entities.UpdatePoint, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying update points: %w", err)
	}
	defer rows.Close()

	var points []entities.UpdatePoint
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning update point: %w", err)
		}
		points = append(points, *p)
	}
	return points, rows.Err()
}

func scanPoint(row scanner) (*entities.UpdatePoint, error) {
	var (
		p                         entities.UpdatePoint
		criticality               string
		variableKey               sql.NullString
		autoUpdateable, active    int
		lastVerified              sql.NullInt64
		nextDue, created, updated int64
	)
	if err := row.Scan(
		&p.ID,
		&p.TreeKey,
		&p.TreeName,
		&p.DataPointName,
		&criticality,
		&p.UpdateCategory,
		&variableKey,
		&p.CurrentValue,
		&autoUpdateable,
		&p.VerificationURL,
		&lastVerified,
		&nextDue,
		&active,
		&p.Version,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}

	p.Criticality = entities.Criticality(criticality)
	p.VariableKey = variableKey.String
	p.AutoUpdateable = autoUpdateable == 1
	p.Active = active == 1
	p.LastVerified = timePtr(lastVerified)
	p.NextVerificationDue = fromNanos(nextDue)
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = fromNanos(updated)
	return &p, nil
}
