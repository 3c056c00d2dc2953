package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/config"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/storage"
)

// Output formats accepted by the report commands.
const (
	outputStyled = "styled"
	outputJSON   = "json"
)

// loadConfig reads the typed configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Your configuration is invalid", err)
	}
	return cfg, nil
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(cfg.Database.Path)
	if dbPath != storage.MemoryPath {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		dbPath = abs
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// parseDay parses an optional YYYY-MM-DD flag value. Empty input yields the zero time.
func parseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return time.Time{}, common.NewUserError(
			fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", value), err)
	}
	return t, nil
}

func validateOutput(format string) error {
	switch format {
	case outputStyled, outputJSON:
		return nil
	default:
		return common.NewUserError(
			fmt.Sprintf("invalid output format %q (valid options: styled, json)", format), nil)
	}
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
