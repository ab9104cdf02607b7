package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/legis/internal/application/handlers"
	"github.com/ersonp/legis/internal/domain/services"
)

type renderFlags struct {
	asOf string
	file string
}

func newRenderCmd() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [TEXT]",
		Short: "Substitute {{variable_key}} placeholders in a template",
		Long: "Renders a template with the values effective now or at --as-of. The template is read " +
			"from TEXT, --file, or standard input.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.asOf, "as-of", "", "Render with the values effective on this date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read the template from a file")

	return cmd
}

func runRender(cmd *cobra.Command, args []string, flags renderFlags) error {
	template, err := readTemplate(args, flags.file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	asOf, err := services.ParseEffectiveDate(flags.asOf)
	if err != nil {
		return fmt.Errorf("invalid --as-of: %w", err)
	}

	return withDeps(cmd.Context(), cliMode(), func(d *Deps) error {
		result, err := d.Render.Handle(cmd.Context(), handlers.RenderRequest{Template: template, AsOf: asOf})
		if err != nil {
			return err
		}
		if ok, err := printJSON(result); ok {
			return err
		}
		if result.Stale {
			fmt.Fprintf(os.Stderr, "warning: unresolved %s, showing render from %s\n",
				strings.Join(result.Unresolved, ", "), result.RenderedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprint(stdout, result.Text)
		if !strings.HasSuffix(result.Text, "\n") {
			fmt.Fprintln(stdout)
		}
		return nil
	})
}

// readTemplate takes the template from the argument, the file, or stdin, in that order.
func readTemplate(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", errors.New("pass the template as TEXT or --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading template: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading template from stdin: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("no template given")
	}
	return string(data), nil
}
