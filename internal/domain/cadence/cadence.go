// Package cadence derives verification deadlines and statuses from criticality.
// Everything here is a pure function of its arguments.
package cadence

import (
	"sort"
	"time"

	"github.com/ersonp/legis/internal/domain/entities"
)

// DueSoonDays is the look-ahead window for the due_soon status.
const DueSoonDays = 7

const day = 24 * time.Hour

// Days returns the verification interval for c in days.
// Unknown tiers return 0; callers validate criticality first.
func Days(c entities.Criticality) int {
	switch c {
	case entities.CriticalityCritical:
		return 7
	case entities.CriticalityHigh:
		return 30
	case entities.CriticalityMedium:
		return 90
	case entities.CriticalityLow:
		return 180
	}
	return 0
}

// NextDue returns the deadline following a verification at from.
func NextDue(from time.Time, c entities.Criticality) time.Time {
	return from.AddDate(0, 0, Days(c))
}

// IsOverdue reports whether due has passed at now.
func IsOverdue(due, now time.Time) bool {
	return due.Before(now)
}

// IsDueWithin reports whether now <= due <= now+days.
func IsDueWithin(due, now time.Time, days int) bool {
	return !due.Before(now) && !due.After(now.AddDate(0, 0, days))
}

// Classify returns the status of a deadline at now.
func Classify(due, now time.Time) entities.Status {
	switch {
	case IsOverdue(due, now):
		return entities.StatusOverdue
	case IsDueWithin(due, now, DueSoonDays):
		return entities.StatusDueSoon
	default:
		return entities.StatusCurrent
	}
}

// DaysOverdue returns the whole days elapsed since due, or 0 if not overdue.
func DaysOverdue(due, now time.Time) int {
	if !IsOverdue(due, now) {
		return 0
	}
	return int(now.Sub(due) / day)
}

// View attaches the status at now to p.
func View(p entities.UpdatePoint, now time.Time) entities.PointView {
	return entities.PointView{
		UpdatePoint: p,
		Status:      Classify(p.NextVerificationDue, now),
		DaysOverdue: DaysOverdue(p.NextVerificationDue, now),
	}
}

// Views attaches statuses to every point.
func Views(points []entities.UpdatePoint, now time.Time) []entities.PointView {
	views := make([]entities.PointView, len(points))
	for i, p := range points {
		views[i] = View(p, now)
	}
	return views
}

// SortBySeverity orders views by criticality severity desc, then by how far
// past due they are. Ties keep the earliest deadline first.
func SortBySeverity(views []entities.PointView) {
	sort.SliceStable(views, func(i, j int) bool {
		si, sj := views[i].Criticality.Severity(), views[j].Criticality.Severity()
		if si != sj {
			return si > sj
		}
		return views[i].NextVerificationDue.Before(views[j].NextVerificationDue)
	})
}
