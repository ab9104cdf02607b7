package mocks

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

// RelationalDB is an in-memory mock of ports.RelationalDB. A failed WithTx
// restores the state it started from.
type RelationalDB struct {
	mu       sync.Mutex
	Vars     map[string]entities.Variable
	Versions []entities.VariableVersion
	Points   map[string]entities.UpdatePoint
	Audit    []entities.AuditEntry
	Err      error

	// ConflictsRemaining makes the next N versioned updates fail with a conflict.
	ConflictsRemaining int

	// Call tracking
	TxCount int
}

// NewRelationalDB creates an empty mock RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		Vars:   make(map[string]entities.Variable),
		Points: make(map[string]entities.UpdatePoint),
	}
}

var _ ports.RelationalDB = (*RelationalDB)(nil)
var _ ports.Tx = (*RelationalDB)(nil)

// EnsureSchema returns the configured error.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

// WithTx runs fn against the mock itself and rolls back on error.
func (m *RelationalDB) WithTx(_ context.Context, fn func(tx ports.Tx) error) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	m.TxCount++
	vars := maps.Clone(m.Vars)
	versions := append([]entities.VariableVersion(nil), m.Versions...)
	points := maps.Clone(m.Points)
	audit := append([]entities.AuditEntry(nil), m.Audit...)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.Vars, m.Versions, m.Points, m.Audit = vars, versions, points, audit
		m.mu.Unlock()
		return err
	}
	return nil
}

// Variable methods.

func (m *RelationalDB) FindVariable(_ context.Context, key string) (*entities.Variable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	v, ok := m.Vars[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *RelationalDB) ListVariables(_ context.Context) ([]entities.Variable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.Variable, 0, len(m.Vars))
	for _, v := range m.Vars {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (m *RelationalDB) InsertVariable(_ context.Context, v *entities.Variable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Vars[v.Key] = *v
	return nil
}

func (m *RelationalDB) UpdateVariable(_ context.Context, v *entities.Variable, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored, ok := m.Vars[v.Key]
	if !ok || stored.Version != expectedVersion || m.takeConflict() {
		return &entities.ConflictError{Kind: "variable", ID: v.Key, Expected: expectedVersion}
	}
	v.Version = expectedVersion + 1
	m.Vars[v.Key] = *v
	return nil
}

func (m *RelationalDB) TouchVariable(_ context.Context, key string, verifiedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if v, ok := m.Vars[key]; ok {
		v.LastVerified = &verifiedAt
		m.Vars[key] = v
	}
	return nil
}

func (m *RelationalDB) SaveVariableVersion(_ context.Context, ver *entities.VariableVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	ver.ID = int64(len(m.Versions) + 1)
	m.Versions = append(m.Versions, *ver)
	return nil
}

func (m *RelationalDB) FindVariableVersions(_ context.Context, key string) ([]entities.VariableVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.VariableVersion
	for _, ver := range m.Versions {
		if ver.VariableKey == key {
			result = append(result, ver)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].EffectiveFrom.Before(result[j].EffectiveFrom)
	})
	return result, nil
}

func (m *RelationalDB) ResolveValues(_ context.Context, keys []string, asOf time.Time) (map[string]entities.ResolvedValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var wanted map[string]bool
	if keys != nil {
		wanted = make(map[string]bool, len(keys))
		for _, k := range keys {
			wanted[k] = true
		}
	}

	result := make(map[string]entities.ResolvedValue)
	best := make(map[string]entities.VariableVersion)
	for _, ver := range m.Versions {
		if wanted != nil && !wanted[ver.VariableKey] {
			continue
		}
		if ver.EffectiveFrom.After(asOf) {
			continue
		}
		cur, ok := best[ver.VariableKey]
		if !ok || !ver.EffectiveFrom.Before(cur.EffectiveFrom) {
			best[ver.VariableKey] = ver
		}
	}
	for key, ver := range best {
		v := m.Vars[key]
		result[key] = entities.ResolvedValue{
			Key:           key,
			Type:          v.Type,
			Value:         ver.Value,
			Unit:          v.Unit,
			EffectiveFrom: ver.EffectiveFrom,
		}
	}
	return result, nil
}

// Update point methods.

func (m *RelationalDB) FindUpdatePoint(_ context.Context, id string) (*entities.UpdatePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Points[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *RelationalDB) InsertUpdatePoint(_ context.Context, p *entities.UpdatePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Points[p.ID] = *p
	return nil
}

func (m *RelationalDB) UpdateUpdatePoint(_ context.Context, p *entities.UpdatePoint, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored, ok := m.Points[p.ID]
	if !ok || stored.Version != expectedVersion || m.takeConflict() {
		return &entities.ConflictError{Kind: "update point", ID: p.ID, Expected: expectedVersion}
	}
	p.Version = expectedVersion + 1
	m.Points[p.ID] = *p
	return nil
}

func (m *RelationalDB) RefreshPointSnapshots(_ context.Context, key, value string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	n := 0
	for id, p := range m.Points {
		if p.VariableKey != key || p.CurrentValue == value {
			continue
		}
		p.CurrentValue = value
		p.Version++
		p.UpdatedAt = at
		m.Points[id] = p
		n++
	}
	return n, nil
}

func (m *RelationalDB) ListUpdatePoints(_ context.Context, filter entities.PointFilter) ([]entities.UpdatePoint, error) {
	return m.selectPoints(func(p entities.UpdatePoint) bool {
		if !filter.IncludeInactive && !p.Active {
			return false
		}
		if filter.Category != "" && p.UpdateCategory != filter.Category {
			return false
		}
		if filter.Criticality != "" && p.Criticality != filter.Criticality {
			return false
		}
		if filter.TreeKey != "" && p.TreeKey != filter.TreeKey {
			return false
		}
		return filter.VariableKey == "" || p.VariableKey == filter.VariableKey
	})
}

func (m *RelationalDB) FindPointsDueBefore(_ context.Context, t time.Time) ([]entities.UpdatePoint, error) {
	return m.selectPoints(func(p entities.UpdatePoint) bool {
		return p.Active && p.NextVerificationDue.Before(t)
	})
}

func (m *RelationalDB) FindPointsDueBetween(_ context.Context, from, to time.Time) ([]entities.UpdatePoint, error) {
	return m.selectPoints(func(p entities.UpdatePoint) bool {
		return p.Active && !p.NextVerificationDue.Before(from) && !p.NextVerificationDue.After(to)
	})
}

func (m *RelationalDB) selectPoints(keep func(entities.UpdatePoint) bool) ([]entities.UpdatePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.UpdatePoint
	for _, p := range m.Points {
		if keep(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].NextVerificationDue.Equal(result[j].NextVerificationDue) {
			return result[i].NextVerificationDue.Before(result[j].NextVerificationDue)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Audit log methods.

func (m *RelationalDB) LogAction(_ context.Context, action, subjectID string, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Action:    action,
		SubjectID: subjectID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *RelationalDB) FindAuditLog(_ context.Context, subjectID string) ([]entities.AuditEntry, error) {
	return m.selectAudit(func(e entities.AuditEntry) bool { return e.SubjectID == subjectID }, 0)
}

func (m *RelationalDB) FindAuditLogByAction(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	return m.selectAudit(func(e entities.AuditEntry) bool { return e.Action == action }, limit)
}

// selectAudit returns matching entries newest first.
func (m *RelationalDB) selectAudit(keep func(entities.AuditEntry) bool, limit int) ([]entities.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if keep(m.Audit[i]) {
			result = append(result, m.Audit[i])
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *RelationalDB) takeConflict() bool {
	if m.ConflictsRemaining <= 0 {
		return false
	}
	m.ConflictsRemaining--
	return true
}
