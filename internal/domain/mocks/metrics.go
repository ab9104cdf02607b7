package mocks

import (
	"sync"

	"github.com/ersonp/legis/internal/domain/entities"
)

// Metrics records every call for assertions.
type Metrics struct {
	mu           sync.Mutex
	Renders      map[string]int
	Verified     map[entities.Criticality]int
	Conflicts    map[string]int
	OverdueGauge map[entities.Criticality]int
	DueSoonGauge map[entities.Criticality]int
}

// NewMetrics creates an empty Metrics recorder.
func NewMetrics() *Metrics {
	return &Metrics{
		Renders:      make(map[string]int),
		Verified:     make(map[entities.Criticality]int),
		Conflicts:    make(map[string]int),
		OverdueGauge: make(map[entities.Criticality]int),
		DueSoonGauge: make(map[entities.Criticality]int),
	}
}

func (m *Metrics) RenderCompleted(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Renders[outcome]++
}

func (m *Metrics) PointVerified(c entities.Criticality) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Verified[c]++
}

func (m *Metrics) ConflictDetected(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Conflicts[operation]++
}

func (m *Metrics) SetPointStatus(c entities.Criticality, overdue, dueSoon int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OverdueGauge[c] = overdue
	m.DueSoonGauge[c] = dueSoon
}
