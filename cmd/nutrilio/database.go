package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Priyansh6747/Nutrilio/internal/cli"
	"github.com/Priyansh6747/Nutrilio/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		fmt.Fprintln(out, migrationStatus(store.Path(), current))
		if current < storage.ExpectedSchemaVersion {
			fmt.Fprintln(out, cli.FormatWarning("Migrations pending. Run: nutrilio migrate"))
		}
		return nil
	}

	slog.Info("Running database migrations", "database", store.Path(), "from_version", current)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database at schema version %d", storage.ExpectedSchemaVersion)))
	return nil
}

func migrationStatus(path string, current int) string {
	return cli.RenderBox(cli.FolderIcon+" Database Migration Status", cli.RenderFields([][2]string{
		{"Database", path},
		{"Current version", strconv.Itoa(current)},
		{"Latest version", strconv.Itoa(storage.ExpectedSchemaVersion)},
	}))
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent imports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			imports, err := store.ListImports(ctx, limit)
			if err != nil {
				return err
			}
			if len(imports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No imports yet"))
				return nil
			}

			rows := make([][]string, 0, len(imports))
			for _, imp := range imports {
				rows = append(rows, []string{
					imp.ImportedAt.Local().Format("2006-01-02 15:04"),
					imp.Source,
					strconv.Itoa(imp.RecordsSaved),
					strconv.Itoa(imp.MealsInserted),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(
				[]string{"Imported", "Source", "Days", "Meals"}, rows))
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 10, "Number of imports to show")

	return cmd
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup [destination]",
		Short: "Write a consistent copy of the database",
		Long: `Write a consistent copy of the database. Without a destination the copy
goes to the backups directory next to the database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			dest := filepath.Join(store.BackupDir(),
				fmt.Sprintf("manual-%s.db", time.Now().UTC().Format("20060102-150405")))
			if len(args) == 1 {
				if dest, err = filepath.Abs(args[0]); err != nil {
					return fmt.Errorf("failed to resolve destination: %w", err)
				}
			}

			if err := store.Backup(ctx, dest); err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Backed up to %s\n",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				cli.InfoStyle.Render(dest))
			return nil
		},
	}

	return cmd
}
