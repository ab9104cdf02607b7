package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/legis/internal/application/handlers"
	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/services"
)

func newVarsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vars",
		Aliases: []string{"variables"},
		Short:   "Manage legislative variables",
	}

	cmd.AddCommand(
		newVarsListCmd(),
		newVarsGetCmd(),
		newVarsDefineCmd(),
		newVarsSetCmd(),
		newVarsHistoryCmd(),
		newVarsSearchCmd(),
		newVarsReindexCmd(),
		newVarsImportCmd(),
	)

	return cmd
}

func newVarsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List variables with the value effective now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				result, err := d.Variables.HandleList(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing variables: %w", err)
				}
				if ok, err := printJSON(result); ok {
					return err
				}
				if result.Total == 0 {
					fmt.Println("No variables defined.")
					return nil
				}
				displayVariables(result.Variables)
				return nil
			})
		},
	}
}

func newVarsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show a variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				v, err := d.Variables.HandleGet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ok, err := printJSON(v); ok {
					return err
				}
				displayVariable(v)
				return nil
			})
		},
	}
}

type defineFlags struct {
	name          string
	valueType     string
	unit          string
	effectiveFrom string
	reason        string
}

func newVarsDefineCmd() *cobra.Command {
	var flags defineFlags

	cmd := &cobra.Command{
		Use:   "define <key> <value>",
		Short: "Define a new variable",
		Long:  "Defines a variable. Keys are lowercase with underscores and cannot be renamed later.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVarsDefine(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Human-readable name (required)")
	cmd.Flags().StringVarP(&flags.valueType, "type", "t", string(entities.ValueNumeric), "Value type (numeric, percentage, date, text)")
	cmd.Flags().StringVarP(&flags.unit, "unit", "u", "", "Unit appended when rendering (e.g. RON)")
	cmd.Flags().StringVarP(&flags.effectiveFrom, "effective-from", "e", "", "Date the value takes effect (YYYY-MM-DD, default now)")
	cmd.Flags().StringVarP(&flags.reason, "reason", "r", "", "Legal basis for the value")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runVarsDefine(cmd *cobra.Command, key, value string, flags defineFlags) error {
	effective, err := services.ParseEffectiveDate(flags.effectiveFrom)
	if err != nil {
		return fmt.Errorf("invalid --effective-from: %w", err)
	}

	return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
		v, err := d.Variables.HandleDefine(cmd.Context(), services.DefineInput{
			Key:           key,
			Name:          flags.name,
			Type:          entities.ValueType(strings.ToLower(flags.valueType)),
			Unit:          flags.unit,
			Value:         value,
			EffectiveFrom: effective,
			Reason:        flags.reason,
		})
		if err != nil {
			return err
		}
		if ok, err := printJSON(v); ok {
			return err
		}
		fmt.Printf("Defined %s = %s\n", v.Key, v.Formatted())
		return nil
	})
}

type setFlags struct {
	effectiveFrom   string
	force           bool
	reason          string
	expectedVersion int64
}

func newVarsSetCmd() *cobra.Command {
	var flags setFlags

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Record a new value for a variable",
		Long: "Records a new value and refreshes every update point backed by the variable. " +
			"Values dated before the latest effective date need --force and only enter the history.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVarsSet(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.effectiveFrom, "effective-from", "e", "", "Date the value takes effect (YYYY-MM-DD, default now)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Allow an effective date earlier than the latest one")
	cmd.Flags().StringVarP(&flags.reason, "reason", "r", "", "Legal basis for the change")
	cmd.Flags().Int64Var(&flags.expectedVersion, "expected-version", 0, "Fail if the variable changed since this version")

	return cmd
}

func runVarsSet(cmd *cobra.Command, key, value string, flags setFlags) error {
	effective, err := services.ParseEffectiveDate(flags.effectiveFrom)
	if err != nil {
		return fmt.Errorf("invalid --effective-from: %w", err)
	}

	return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
		v, err := d.Variables.HandleSet(cmd.Context(), services.SetInput{
			Key:             key,
			Value:           value,
			EffectiveFrom:   effective,
			Force:           flags.force,
			Reason:          flags.reason,
			ExpectedVersion: flags.expectedVersion,
		})
		if err != nil {
			return err
		}
		if ok, err := printJSON(v); ok {
			return err
		}
		fmt.Printf("Set %s = %s (version %d)\n", v.Key, v.Formatted(), v.Version)
		if v.Scheduled != nil {
			fmt.Printf("Scheduled %s from %s\n",
				entities.FormatValue(v.Type, v.Scheduled.Value, v.Unit), formatDate(v.Scheduled.EffectiveFrom))
		}
		return nil
	})
}

func newVarsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <key>",
		Short: "Show every recorded value of a variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				versions, err := d.Variables.HandleHistory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ok, err := printJSON(versions); ok {
					return err
				}
				displayVersions(versions)
				return nil
			})
		},
	}
}

func newVarsSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find variables by meaning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				hits, err := d.Variables.HandleSearch(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
				if ok, err := printJSON(hits); ok {
					return err
				}
				if len(hits) == 0 {
					fmt.Println("No matching variables. Run 'legis vars reindex' after defining variables.")
					return nil
				}
				w := newTable()
				fmt.Fprintln(w, "KEY\tNAME\tSCORE")
				for _, h := range hits {
					fmt.Fprintf(w, "{{%s}}\t%s\t%.3f\n", h.Key, h.Name, h.Score)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSearchLimit, "Maximum number of results")

	return cmd
}

func newVarsReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the variable search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
				n, err := d.Variables.HandleReindex(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Indexed %d variables\n", n)
				return nil
			})
		},
	}
}

type importFlags struct {
	format     string
	dryRun     bool
	onConflict string
}

func newVarsImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import variables from JSON or CSV",
		Long:  "Defines new variables and, with --on-conflict overwrite, records new values for existing ones.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVarsImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "skip", "Conflict handling (skip, overwrite)")

	return cmd
}

func runVarsImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	if err := validateImportFlags(flags); err != nil {
		return err
	}

	return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
		result, err := d.Import.Handle(cmd.Context(), filePath, handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			OnConflict: services.ConflictStrategy(flags.onConflict),
		})
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}
		if ok, err := printJSON(result); ok {
			return err
		}
		printImportResult(result, flags.dryRun)
		return nil
	})
}

func validateImportFlags(flags importFlags) error {
	if !slices.Contains(validFormats, flags.format) {
		return fmt.Errorf("invalid --format value %q (valid: %s)", flags.format, strings.Join(validFormats, ", "))
	}
	if !slices.Contains(validStrategies, flags.onConflict) {
		return fmt.Errorf("invalid --on-conflict value %q (valid: %s)", flags.onConflict, strings.Join(validStrategies, ", "))
	}
	return nil
}

func printImportResult(result *services.ImportResult, dryRun bool) {
	if len(result.Errors) > 0 {
		fmt.Fprintf(stdout, "Validation errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(stdout, "  %s\n", e.Error())
		}
		fmt.Fprintln(stdout)
	}

	if dryRun {
		fmt.Fprintf(stdout, "Dry run: %d would be defined, %d updated", result.Defined, result.Updated)
	} else {
		fmt.Fprintf(stdout, "Defined: %d, updated: %d", result.Defined, result.Updated)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(stdout, ", %d skipped (already exist)", result.Skipped)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(stdout, ", %d errors", len(result.Errors))
	}
	fmt.Fprintln(stdout)
}
