package entities

// Statistic is the point count for one (category, criticality) group.
type Statistic struct {
	UpdateCategory   string      `json:"update_category"`
	Criticality      Criticality `json:"criticality"`
	TotalPoints      int         `json:"total_points"`
	OverdueCount     int         `json:"overdue_count"`
	DueThisWeekCount int         `json:"due_this_week_count"`
}
