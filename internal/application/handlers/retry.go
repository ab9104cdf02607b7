package handlers

import (
	"errors"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

// withConflictRetry runs op and, if it loses a concurrency race while the
// caller did not pin a version, runs it once more against fresh data. A
// pinned version that went stale is returned to the caller as is.
func withConflictRetry[T any](metrics ports.Metrics, operation string, pinned bool, op func() (T, error)) (T, error) {
	result, err := op()
	if err == nil || !errors.Is(err, entities.ErrConcurrencyConflict) {
		return result, err
	}
	metrics.ConflictDetected(operation)
	if pinned {
		return result, err
	}

	result, err = op()
	if errors.Is(err, entities.ErrConcurrencyConflict) {
		metrics.ConflictDetected(operation)
	}
	return result, err
}

func orNoop(m ports.Metrics) ports.Metrics {
	if m == nil {
		return ports.NoopMetrics{}
	}
	return m
}
