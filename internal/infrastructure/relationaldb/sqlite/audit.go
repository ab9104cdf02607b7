package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ersonp/legis/internal/domain/entities"
)

// LogAction logs an action to the audit log.
func (s *store) LogAction(ctx context.Context, action, subjectID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, subject_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := s.q.ExecContext(ctx, query, action, nullString(subjectID), detailsJSON, toNanos(timeNow()))
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a variable key or point ID, newest first.
func (s *store) FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, subject_id, details, created_at
		FROM audit_log
		WHERE subject_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return s.queryAuditLog(ctx, query, subjectID)
}

// FindAuditLogByAction finds audit log entries by action type.
func (s *store) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, subject_id, details, created_at
		FROM audit_log
		WHERE action = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	return s.queryAuditLog(ctx, query, action, limit)
}

func (s *store) queryAuditLog(ctx context.Context, query string, args ...any) ([]entities.AuditEntry, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var (
			entry              entities.AuditEntry
			subjectID, details sql.NullString
			created            int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&subjectID,
			&details,
			&created,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.SubjectID = subjectID.String
		entry.CreatedAt = fromNanos(created)

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
