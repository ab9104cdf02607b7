package ports

import "github.com/ersonp/legis/internal/domain/entities"

// Metrics records operational counters. Implementations must be safe for concurrent use.
type Metrics interface {
	RenderCompleted(outcome string)
	PointVerified(criticality entities.Criticality)
	ConflictDetected(operation string)
	SetPointStatus(criticality entities.Criticality, overdue, dueSoon int)
}

// Render outcomes.
const (
	RenderOK         = "ok"
	RenderStale      = "stale"
	RenderUnresolved = "unresolved"
	RenderErrored    = "error"
)

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RenderCompleted(string)                        {}
func (NoopMetrics) PointVerified(entities.Criticality)            {}
func (NoopMetrics) ConflictDetected(string)                       {}
func (NoopMetrics) SetPointStatus(entities.Criticality, int, int) {}
