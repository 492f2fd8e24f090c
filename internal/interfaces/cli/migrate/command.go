package migrate

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"atrium/internal/infrastructure/config"
	"atrium/internal/infrastructure/database"
	"atrium/internal/infrastructure/migration"
	"atrium/internal/shared/logger"
)

var (
	env     string
	steps   int
	version int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations: apply pending migrations, roll back, or force a version after manual repair.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newForceCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newForceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "force",
		Short: "Force the migration version without running migrations",
		Long:  `Set the recorded schema version after manually repairing a dirty migration state.`,
		RunE:  runForce,
	}

	cmd.Flags().IntVarP(&version, "version", "v", 0, "Version to force (required)")
	cmd.MarkFlagRequired("version")

	return cmd
}

func initEnv() (*migration.GolangMigrateStrategy, logger.Interface, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	scriptsPath, err := filepath.Abs("./internal/infrastructure/migration/scripts")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get scripts path: %w", err)
	}

	strategy, ok := migration.NewGolangMigrateStrategy(scriptsPath).(*migration.GolangMigrateStrategy)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected migration strategy type")
	}

	return strategy, log, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	strategy, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running up migrations", "environment", env)

	if err := strategy.Migrate(database.Get()); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	strategy, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running down migrations", "environment", env, "steps", steps)

	if err := strategy.MigrateDown(database.Get(), steps); err != nil {
		log.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully")
	return nil
}

func runForce(cmd *cobra.Command, args []string) error {
	strategy, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("forcing migration version", "environment", env, "version", version)

	if err := strategy.Force(database.Get(), version); err != nil {
		log.Errorw("force failed", "error", err)
		return fmt.Errorf("force failed: %w", err)
	}

	log.Infow("migration version forced", "version", version)
	return nil
}
