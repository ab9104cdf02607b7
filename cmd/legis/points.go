package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/legis/internal/application/handlers"
	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/services"
)

func newPointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Manage decision-tree update points",
	}

	cmd.AddCommand(
		newPointsListCmd(),
		newPointsOverdueCmd(),
		newPointsDueCmd(),
		newPointsRegisterCmd(),
		newPointsVerifyCmd(),
		newPointsReclassifyCmd(),
		newPointsDeactivateCmd(),
		newPointsHistoryCmd(),
		newPointsSuggestCmd(),
	)

	return cmd
}

// printPointList prints a listing in the selected output format.
func printPointList(result *handlers.PointListResult) error {
	if ok, err := printJSON(result); ok {
		return err
	}
	displayPoints(result.Points)
	return nil
}

type listFlags struct {
	category        string
	criticality     string
	tree            string
	variable        string
	includeInactive bool
}

func newPointsListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List update points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				result, err := d.Points.HandleList(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("listing points: %w", err)
				}
				return printPointList(result)
			})
		},
	}

	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "Filter by update category")
	cmd.Flags().StringVar(&flags.criticality, "criticality", "", "Filter by criticality")
	cmd.Flags().StringVarP(&flags.tree, "tree", "t", "", "Filter by decision tree key")
	cmd.Flags().StringVar(&flags.variable, "variable", "", "Filter by variable key")
	cmd.Flags().BoolVar(&flags.includeInactive, "all", false, "Include deactivated points")

	return cmd
}

func (f listFlags) filter() (entities.PointFilter, error) {
	filter := entities.PointFilter{
		Category:        f.category,
		TreeKey:         f.tree,
		VariableKey:     f.variable,
		IncludeInactive: f.includeInactive,
	}
	if f.criticality != "" {
		c, err := entities.ParseCriticality(f.criticality)
		if err != nil {
			return filter, err
		}
		filter.Criticality = c
	}
	return filter, nil
}

func newPointsOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List overdue points, most severe first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				result, err := d.Points.HandleOverdue(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing overdue points: %w", err)
				}
				return printPointList(result)
			})
		},
	}
}

func newPointsDueCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List points due within a number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				result, err := d.Points.HandleDueWithin(cmd.Context(), days)
				if err != nil {
					return err
				}
				return printPointList(result)
			})
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", DefaultDueDays, "Window in days")

	return cmd
}

type registerFlags struct {
	treeName        string
	criticality     string
	category        string
	variable        string
	value           string
	autoUpdateable  bool
	verificationURL string
	lastVerified    string
	due             string
}

func newPointsRegisterCmd() *cobra.Command {
	var flags registerFlags

	cmd := &cobra.Command{
		Use:   "register <tree-key> <data-point-name>",
		Short: "Register a new update point",
		Long: "Registers a point to re-verify. Without --due the deadline is the cadence of its " +
			"criticality counted from --last-verified, or from now.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPointsRegister(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVar(&flags.treeName, "tree-name", "", "Display name of the decision tree")
	cmd.Flags().StringVar(&flags.criticality, "criticality", "", "critical, high, medium or low (required)")
	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "Update category used in statistics")
	cmd.Flags().StringVar(&flags.variable, "variable", "", "Key of the variable backing the point")
	cmd.Flags().StringVar(&flags.value, "value", "", "Current value of a point without a variable")
	cmd.Flags().BoolVar(&flags.autoUpdateable, "auto", false, "Allow value suggestions from the verification URL")
	cmd.Flags().StringVar(&flags.verificationURL, "url", "", "Authoritative source to verify against")
	cmd.Flags().StringVar(&flags.lastVerified, "last-verified", "", "Date of the last verification (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.due, "due", "", "Explicit verification deadline (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("criticality")

	return cmd
}

func runPointsRegister(cmd *cobra.Command, treeKey, name string, flags registerFlags) error {
	criticality, err := entities.ParseCriticality(flags.criticality)
	if err != nil {
		return err
	}
	lastVerified, err := optionalDateFlag("last-verified", flags.lastVerified)
	if err != nil {
		return err
	}
	due, err := optionalDateFlag("due", flags.due)
	if err != nil {
		return err
	}

	return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
		p, err := d.Points.HandleRegister(cmd.Context(), services.RegisterInput{
			TreeKey:             treeKey,
			TreeName:            flags.treeName,
			DataPointName:       name,
			Criticality:         criticality,
			UpdateCategory:      flags.category,
			VariableKey:         flags.variable,
			CurrentValue:        flags.value,
			AutoUpdateable:      flags.autoUpdateable,
			VerificationURL:     flags.verificationURL,
			LastVerified:        lastVerified,
			NextVerificationDue: due,
		})
		if err != nil {
			return err
		}
		if ok, err := printJSON(p); ok {
			return err
		}
		fmt.Printf("Registered %s, due %s\n", p.ID, formatDate(p.NextVerificationDue))
		return nil
	})
}

type verifyFlags struct {
	value           string
	effectiveFrom   string
	by              string
	expectedVersion int64
}

func newPointsVerifyCmd() *cobra.Command {
	var flags verifyFlags

	cmd := &cobra.Command{
		Use:   "verify <point-id>",
		Short: "Mark a point as verified",
		Long: "Records a human verification and restarts the deadline from now. With --value, " +
			"also records the new value; for a variable-backed point every point on the variable is refreshed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPointsVerify(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.value, "value", "", "New value found during verification")
	cmd.Flags().StringVarP(&flags.effectiveFrom, "effective-from", "e", "", "Effective date of the new value (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.by, "by", "", "Who verified the point")
	cmd.Flags().Int64Var(&flags.expectedVersion, "expected-version", 0, "Fail if the point changed since this version")

	return cmd
}

func runPointsVerify(cmd *cobra.Command, id string, flags verifyFlags) error {
	effective, err := services.ParseEffectiveDate(flags.effectiveFrom)
	if err != nil {
		return fmt.Errorf("invalid --effective-from: %w", err)
	}

	in := services.VerifyInput{
		PointID:         id,
		EffectiveFrom:   effective,
		ExpectedVersion: flags.expectedVersion,
		VerifiedBy:      flags.by,
	}
	if cmd.Flags().Changed("value") {
		in.NewValue = &flags.value
	}

	return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
		p, err := d.Points.HandleVerify(cmd.Context(), in)
		if err != nil {
			return err
		}
		if ok, err := printJSON(p); ok {
			return err
		}
		fmt.Printf("Verified %s, next due %s\n", p.ID, formatDate(p.NextVerificationDue))
		return nil
	})
}

func newPointsReclassifyCmd() *cobra.Command {
	var (
		criticality     string
		category        string
		expectedVersion int64
	)

	cmd := &cobra.Command{
		Use:   "reclassify <point-id>",
		Short: "Change a point's criticality or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := services.ReclassifyInput{
				PointID:         args[0],
				UpdateCategory:  category,
				ExpectedVersion: expectedVersion,
			}
			if criticality != "" {
				c, err := entities.ParseCriticality(criticality)
				if err != nil {
					return err
				}
				in.Criticality = c
			}
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				p, err := d.Points.HandleReclassify(cmd.Context(), in)
				if err != nil {
					return err
				}
				if ok, err := printJSON(p); ok {
					return err
				}
				fmt.Printf("Reclassified %s as %s, due %s\n", p.ID, p.Criticality, formatDate(p.NextVerificationDue))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&criticality, "criticality", "", "New criticality")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New update category")
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", 0, "Fail if the point changed since this version")

	return cmd
}

func newPointsDeactivateCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "deactivate <point-id>",
		Short: "Retire a point, keeping its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				p, err := d.Points.HandleDeactivate(cmd.Context(), services.DeactivateInput{PointID: args[0], Reason: reason})
				if err != nil {
					return err
				}
				if ok, err := printJSON(p); ok {
					return err
				}
				fmt.Printf("Deactivated %s\n", p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Why the point is retired")

	return cmd
}

func newPointsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <point-id>",
		Short: "Show the audit trail of a point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				entries, err := d.Points.HandleHistory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ok, err := printJSON(entries); ok {
					return err
				}
				displayAudit(entries)
				return nil
			})
		},
	}
}

func newPointsSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <point-id>",
		Short: "Read the verification URL and propose the current value",
		Long:  "Fetches the point's verification source and asks the LLM for the value it states. Nothing is saved.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				s, err := d.Points.HandleSuggest(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ok, err := printJSON(s); ok {
					return err
				}
				fmt.Printf("Source:     %s\n", s.SourceURL)
				fmt.Printf("Current:    %s\n", orDash(s.CurrentValue))
				fmt.Printf("Proposed:   %s\n", orDash(s.Proposed.Value))
				if s.Proposed.EffectiveFrom != "" {
					fmt.Printf("Effective:  %s\n", s.Proposed.EffectiveFrom)
				}
				fmt.Printf("Confidence: %.2f\n", s.Proposed.Confidence)
				if s.Proposed.Excerpt != "" {
					fmt.Printf("Excerpt:    %q\n", s.Proposed.Excerpt)
				}
				if s.Changed {
					fmt.Printf("\nThe source differs. After checking it, run:\n  legis points verify %s --value %q\n", s.PointID, s.Proposed.Value)
				}
				return nil
			})
		},
	}
}

func optionalDateFlag(name, raw string) (*time.Time, error) {
	t, err := services.ParseEffectiveDate(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	if t.IsZero() {
		return nil, nil
	}
	return &t, nil
}
