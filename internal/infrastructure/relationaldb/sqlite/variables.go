package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ersonp/legis/internal/domain/entities"
)

const variableColumns = `key, name, type, value, unit, effective_from, last_verified, version, created_at, updated_at`

// InsertVariable inserts a new variable row.
func (s *store) InsertVariable(ctx context.Context, v *entities.Variable) error {
	query := `INSERT INTO variables (` + variableColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query,
		v.Key,
		v.Name,
		string(v.Type),
		v.Value,
		v.Unit,
		toNanos(v.EffectiveFrom),
		nullNanos(v.LastVerified),
		v.Version,
		toNanos(v.CreatedAt),
		toNanos(v.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting variable: %w", err)
	}
	return nil
}

// UpdateVariable writes v only if the stored version equals expectedVersion.
func (s *store) UpdateVariable(ctx context.Context, v *entities.Variable, expectedVersion int64) error {
	query := `
		UPDATE variables SET
			name = ?,
			value = ?,
			unit = ?,
			effective_from = ?,
			last_verified = ?,
			version = version + 1,
			updated_at = ?
		WHERE key = ? AND version = ?
	`
	res, err := s.q.ExecContext(ctx, query,
		v.Name,
		v.Value,
		v.Unit,
		toNanos(v.EffectiveFrom),
		nullNanos(v.LastVerified),
		toNanos(v.UpdatedAt),
		v.Key,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating variable: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated variable: %w", err)
	}
	if n == 0 {
		return &entities.ConflictError{Kind: "variable", ID: v.Key, Expected: expectedVersion}
	}

	v.Version = expectedVersion + 1
	return nil
}

// TouchVariable sets last_verified without touching the value or version.
func (s *store) TouchVariable(ctx context.Context, key string, verifiedAt time.Time) error {
	query := `UPDATE variables SET last_verified = ?, updated_at = ? WHERE key = ?`
	_, err := s.q.ExecContext(ctx, query, toNanos(verifiedAt), toNanos(verifiedAt), key)
	if err != nil {
		return fmt.Errorf("touching variable: %w", err)
	}
	return nil
}

// FindVariable finds a variable by key.
func (s *store) FindVariable(ctx context.Context, key string) (*entities.Variable, error) {
	query := `SELECT ` + variableColumns + ` FROM variables WHERE key = ?`
	v, err := scanVariable(s.q.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning variable: %w", err)
	}
	return v, nil
}

// ListVariables lists all variables ordered by key.
func (s *store) ListVariables(ctx context.Context) ([]entities.Variable, error) {
	query := `SELECT ` + variableColumns + ` FROM variables ORDER BY key`
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying variables: %w", err)
	}
	defer rows.Close()

	var vars []entities.Variable
	for rows.Next() {
		v, err := scanVariable(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning variable: %w", err)
		}
		vars = append(vars, *v)
	}
	return vars, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVariable(row scanner) (*entities.Variable, error) {
	var (
		v                               entities.Variable
		typ                             string
		effectiveFrom, created, updated int64
		lastVerified                    sql.NullInt64
	)
	if err := row.Scan(
		&v.Key,
		&v.Name,
		&typ,
		&v.Value,
		&v.Unit,
		&effectiveFrom,
		&lastVerified,
		&v.Version,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}

	v.Type = entities.ValueType(typ)
	v.EffectiveFrom = fromNanos(effectiveFrom)
	v.LastVerified = timePtr(lastVerified)
	v.CreatedAt = fromNanos(created)
	v.UpdatedAt = fromNanos(updated)
	return &v, nil
}

// SaveVariableVersion appends a history row.
func (s *store) SaveVariableVersion(ctx context.Context, ver *entities.VariableVersion) error {
	query := `
		INSERT INTO variable_versions (variable_key, value, effective_from, recorded_at, forced, reason)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := s.q.ExecContext(ctx, query,
		ver.VariableKey,
		ver.Value,
		toNanos(ver.EffectiveFrom),
		toNanos(ver.RecordedAt),
		boolInt(ver.Forced),
		ver.Reason,
	)
	if err != nil {
		return fmt.Errorf("saving variable version: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading variable version id: %w", err)
	}
	ver.ID = id
	return nil
}

// FindVariableVersions lists a variable's history, oldest effective date first.
func (s *store) FindVariableVersions(ctx context.Context, key string) ([]entities.VariableVersion, error) {
	query := `
		SELECT id, variable_key, value, effective_from, recorded_at, forced, reason
		FROM variable_versions
		WHERE variable_key = ?
		ORDER BY effective_from ASC, id ASC
	`
	rows, err := s.q.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("querying variable versions: %w", err)
	}
	defer rows.Close()

	var versions []entities.VariableVersion
	for rows.Next() {
		var (
			ver                   entities.VariableVersion
			effective, recordedAt int64
			forced                int
		)
		if err := rows.Scan(
			&ver.ID,
			&ver.VariableKey,
			&ver.Value,
			&effective,
			&recordedAt,
			&forced,
			&ver.Reason,
		); err != nil {
			return nil, fmt.Errorf("scanning variable version: %w", err)
		}
		ver.EffectiveFrom = fromNanos(effective)
		ver.RecordedAt = fromNanos(recordedAt)
		ver.Forced = forced == 1
		versions = append(versions, ver)
	}
	return versions, rows.Err()
}

// ResolveValues returns, per key, the history row with the greatest
// effective_from not after asOf. Later recordings win ties.
func (s *store) ResolveValues(ctx context.Context, keys []string, asOf time.Time) (map[string]entities.ResolvedValue, error) {
	resolved := make(map[string]entities.ResolvedValue, len(keys))
	if keys != nil && len(keys) == 0 {
		return resolved, nil
	}

	query := `
		SELECT v.key, v.type, v.unit, h.value, h.effective_from
		FROM variables v
		JOIN variable_versions h ON h.id = (
			SELECT h2.id FROM variable_versions h2
			WHERE h2.variable_key = v.key AND h2.effective_from <= ?
			ORDER BY h2.effective_from DESC, h2.id DESC
			LIMIT 1
		)
	`
	args := []any{toNanos(asOf)}
	if keys != nil {
		query += ` WHERE v.key IN (` + placeholders(len(keys)) + `)`
		for _, k := range keys {
			args = append(args, k)
		}
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("resolving variables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rv        entities.ResolvedValue
			typ       string
			effective int64
		)
		if err := rows.Scan(&rv.Key, &typ, &rv.Unit, &rv.Value, &effective); err != nil {
			return nil, fmt.Errorf("scanning resolved variable: %w", err)
		}
		rv.Type = entities.ValueType(typ)
		rv.EffectiveFrom = fromNanos(effective)
		resolved[rv.Key] = rv
	}
	return resolved, rows.Err()
}
