package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ersonp/legis/internal/domain/entities"
)

var stdout io.Writer = os.Stdout

// printJSON writes v as indented JSON when --json is set. Returns false otherwise.
func printJSON(v any) (bool, error) {
	if !globalJSON {
		return false, nil
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(entities.DateLayout)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return formatDate(*t)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func statusLabel(v entities.PointView) string {
	if v.Status == entities.StatusOverdue {
		return fmt.Sprintf("overdue %dd", v.DaysOverdue)
	}
	return string(v.Status)
}

func displayVariables(vars []entities.Variable) {
	w := newTable()
	fmt.Fprintln(w, "KEY\tVALUE\tEFFECTIVE\tVERIFIED\tSCHEDULED")
	for i := range vars {
		v := &vars[i]
		scheduled := "-"
		if v.Scheduled != nil {
			scheduled = fmt.Sprintf("%s from %s", entities.FormatValue(v.Type, v.Scheduled.Value, v.Unit), formatDate(v.Scheduled.EffectiveFrom))
		}
		value := "-"
		if v.Value != "" {
			value = v.Formatted()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Key, value, formatDate(v.EffectiveFrom), formatDatePtr(v.LastVerified), scheduled)
	}
	w.Flush()
}

func displayVariable(v *entities.Variable) {
	fmt.Fprintf(stdout, "Key:       %s\n", v.Key)
	fmt.Fprintf(stdout, "Name:      %s\n", v.Name)
	fmt.Fprintf(stdout, "Type:      %s\n", v.Type)
	if v.Value != "" {
		fmt.Fprintf(stdout, "Value:     %s\n", v.Formatted())
	} else {
		fmt.Fprintln(stdout, "Value:     (none effective yet)")
	}
	fmt.Fprintf(stdout, "Effective: %s\n", formatDate(v.EffectiveFrom))
	fmt.Fprintf(stdout, "Verified:  %s\n", formatDatePtr(v.LastVerified))
	fmt.Fprintf(stdout, "Version:   %d\n", v.Version)
	if v.Scheduled != nil {
		fmt.Fprintf(stdout, "Scheduled: %s from %s\n",
			entities.FormatValue(v.Type, v.Scheduled.Value, v.Unit), formatDate(v.Scheduled.EffectiveFrom))
	}
}

func displayVersions(versions []entities.VariableVersion) {
	w := newTable()
	fmt.Fprintln(w, "EFFECTIVE\tVALUE\tRECORDED\tFORCED\tREASON")
	for _, ver := range versions {
		forced := ""
		if ver.Forced {
			forced = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			formatDate(ver.EffectiveFrom), ver.Value, ver.RecordedAt.UTC().Format(time.RFC3339), forced, orDash(ver.Reason))
	}
	w.Flush()
}

func displayPoints(points []entities.PointView) {
	if len(points) == 0 {
		fmt.Fprintln(stdout, "No update points found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "ID\tTREE\tDATA POINT\tCRITICALITY\tCATEGORY\tVALUE\tDUE\tSTATUS")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.TreeKey, p.DataPointName, p.Criticality, orDash(p.UpdateCategory),
			orDash(p.CurrentValue), formatDate(p.NextVerificationDue), statusLabel(p))
	}
	w.Flush()
}

func displayPoint(p *entities.UpdatePoint) {
	fmt.Fprintf(stdout, "ID:          %s\n", p.ID)
	fmt.Fprintf(stdout, "Tree:        %s\n", p.TreeKey)
	fmt.Fprintf(stdout, "Data point:  %s\n", p.DataPointName)
	fmt.Fprintf(stdout, "Criticality: %s\n", p.Criticality)
	fmt.Fprintf(stdout, "Category:    %s\n", orDash(p.UpdateCategory))
	if p.IsVariableBacked() {
		fmt.Fprintf(stdout, "Variable:    %s\n", p.VariableKey)
	}
	fmt.Fprintf(stdout, "Value:       %s\n", orDash(p.CurrentValue))
	fmt.Fprintf(stdout, "Verified:    %s\n", formatDatePtr(p.LastVerified))
	fmt.Fprintf(stdout, "Due:         %s\n", formatDate(p.NextVerificationDue))
	if !p.Active {
		fmt.Fprintln(stdout, "Active:      no")
	}
}

func displayAudit(entries []entities.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No history.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "WHEN\tACTION\tSUBJECT\tDETAILS")
	for _, e := range entries {
		details, _ := json.Marshal(e.Details)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CreatedAt.UTC().Format(time.RFC3339), e.Action, orDash(e.SubjectID), details)
	}
	w.Flush()
}

func displayStatistics(stats []entities.Statistic) {
	if len(stats) == 0 {
		fmt.Fprintln(stdout, "No active update points.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "CATEGORY\tCRITICALITY\tTOTAL\tOVERDUE\tDUE THIS WEEK")
	var total, overdue, dueSoon int
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", orDash(s.UpdateCategory), s.Criticality, s.TotalPoints, s.OverdueCount, s.DueThisWeekCount)
		total += s.TotalPoints
		overdue += s.OverdueCount
		dueSoon += s.DueThisWeekCount
	}
	fmt.Fprintf(w, "\t\t%d\t%d\t%d\n", total, overdue, dueSoon)
	w.Flush()
}
