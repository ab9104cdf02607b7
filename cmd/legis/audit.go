package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

var auditActions = []string{
	entities.ActionVariableDefined,
	entities.ActionVariableSet,
	entities.ActionPointRegistered,
	entities.ActionPointVerified,
	entities.ActionPointReclassified,
	entities.ActionPointDeactivated,
	entities.ActionStagedActivated,
}

func newAuditCmd() *cobra.Command {
	var (
		action  string
		subject string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log",
		Long:  fmt.Sprintf("Shows recent changes by --action %v or for one --subject (variable key or point id).", auditActions),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if action == "" && subject == "" {
				return fmt.Errorf("--action or --subject is required")
			}
			ctx := cmd.Context()
			return withRelationalDB(ctx, func(db ports.RelationalDB) error {
				var (
					entries []entities.AuditEntry
					err     error
				)
				if subject != "" {
					entries, err = db.FindAuditLog(ctx, subject)
				} else {
					entries, err = db.FindAuditLogByAction(ctx, action, limit)
				}
				if err != nil {
					return fmt.Errorf("reading audit log: %w", err)
				}
				if ok, err := printJSON(entries); ok {
					return err
				}
				displayAudit(entries)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", "", "Filter by action")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Variable key or point id")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultHistorySize, "Maximum entries for --action")

	return cmd
}

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run the scheduled jobs once",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "overdue-scan",
			Short: "Log overdue points and count them by criticality",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
					result, err := d.Monitor.HandleOverdueScan(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Printf("%d overdue, %d due within a week\n", result.Overdue, result.DueSoon)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "activate",
			Short: "Refresh point values for staged values that became effective",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
					n, err := d.Monitor.HandleStagedActivation(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Printf("Refreshed %d points\n", n)
					return nil
				})
			},
		},
	)

	return cmd
}
