package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/legis/internal/application/handlers"
	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/infrastructure/config"
	"github.com/ersonp/legis/internal/infrastructure/vectordb/qdrant"
)

type initFlags struct {
	seed   bool
	search bool
}

func newInitCmd() *cobra.Command {
	var flags initFlags

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new legis workspace",
		Long: "Creates a .legis directory with default configuration and the SQLite database. " +
			"With --seed, loads the default Romanian fiscal variables and their update points.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.seed, "seed", false, "Load default fiscal variables and update points")
	cmd.Flags().BoolVar(&flags.search, "search", false, "Create the Qdrant collection for variable search")

	return cmd
}

func runInit(cmd *cobra.Command, flags initFlags) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	var collections ports.CollectionManager
	if flags.search {
		qdrantCfg := config.Default().Qdrant
		qdrantCfg.APIKey = os.Getenv("QDRANT_API_KEY")
		repo, err := qdrant.NewRepository(qdrantCfg)
		if err != nil {
			return fmt.Errorf("connecting to qdrant: %w", err)
		}
		defer repo.Close()
		collections = repo
	}

	result, err := handlers.NewInitHandler(collections).Handle(ctx, cwd)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", result.ConfigPath)
	if result.CollectionName != "" {
		fmt.Printf("Created Qdrant collection: %s\n", result.CollectionName)
	}

	// Opening the workspace creates the schema.
	err = withDeps(ctx, cliMode(), func(d *Deps) error {
		fmt.Printf("Database: %s\n", d.Config.SQLite.Path)
		if !flags.seed {
			return nil
		}
		seeded, err := d.Seed.Handle(ctx, entities.DefaultVariables, entities.DefaultPoints)
		if err != nil {
			return fmt.Errorf("seeding defaults: %w", err)
		}
		fmt.Printf("Seeded %d variables (%d values) and %d update points\n", seeded.Variables, seeded.Values, seeded.Points)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println("Legis initialized successfully!")
	return nil
}
