package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Priyansh6747/Nutrilio/internal/cli"
	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/habit"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/service"
	"github.com/Priyansh6747/Nutrilio/internal/storage"
)

// importBatchSize bounds the rows written per statement batch inside the import transaction.
const importBatchSize = 200

// importFile is the on-disk export format. Each daily record is a flat object
// with a "date" (YYYY-MM-DD) and numeric metric keys.
type importFile struct {
	DailyRecords []map[string]any `json:"daily_records"`
	Meals        []model.Meal     `json:"meals"`
}

// importData is a parsed and validated import.
type importData struct {
	Records []model.DailyRecord
	Meals   []model.Meal
	Range   service.DateRange
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import daily logs and meals from a JSON export",
		Long: `Import daily nutrition records and meals from a JSON export file.

Daily records for days already stored are replaced. Meals are deduplicated
by timestamp and name. The whole file is written in one transaction, and an
automatic backup is taken first.

File format:
  {
    "daily_records": [{"date": "2024-05-01", "calories": 2100, "protein_g": 95, "meal_count": 3}],
    "meals": [{"timestamp": "2024-05-01T12:30:00Z", "name": "Lentil Soup",
               "nutrients": [{"name": "Fiber", "unit": "g", "amt": 9}]}]
  }`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("dry-run", false, "Parse and summarize the file without saving")
	cmd.Flags().Bool("no-backup", false, "Skip the automatic pre-import backup")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noBackup, _ := cmd.Flags().GetBool("no-backup")
	out := cmd.OutOrStdout()

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import")
	ctx, cancel := handler.HandleInterrupts(cmd.Context(), "Nothing was saved. Rerun the import to try again.")
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer func() { _ = f.Close() }()

	data, err := parseImport(f)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("cannot import %s", path), err)
	}

	fmt.Fprintln(out, cli.FormatTitle("Importing "+filepath.Base(path)))
	fmt.Fprintln(out, summarizeImport(data))

	if dryRun {
		fmt.Fprintln(out, cli.FormatWarning("Dry run mode - not saving to database"))
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	if !noBackup {
		backupPath, backupErr := store.AutoBackup(ctx, "import", time.Now())
		switch {
		case errors.Is(backupErr, storage.ErrBackupUnavailable):
			slog.Debug("Skipping backup", "reason", backupErr)
		case backupErr != nil:
			return fmt.Errorf("failed to back up database before import: %w", backupErr)
		default:
			slog.Info("Created backup", "path", backupPath)
		}
	}

	bar := newImportBar(cmd.ErrOrStderr(), len(data.Records)+len(data.Meals))
	stats, err := writeImport(ctx, store, data, func(n int) {
		if addErr := bar.Add(n); addErr != nil {
			slog.Warn("Failed to update progress bar", "error", addErr)
		}
	})
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return fmt.Errorf("import failed: %w", err)
	}

	id, err := store.RecordImport(ctx, filepath.Base(path), stats)
	if err != nil {
		// The data is committed; history is informational.
		common.LogError(err, "Failed to record import history", common.Fields{"source": path})
	}

	common.LogInfo("Import complete", common.Fields{
		"import_id":      id,
		"records_saved":  stats.RecordsSaved,
		"meals_inserted": stats.MealsInserted,
		"duration":       stats.Duration,
	})
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved %d daily records and %d new meals (%d duplicates skipped)",
		stats.RecordsSaved, stats.MealsInserted, stats.MealsRead-stats.MealsInserted)))

	return nil
}

// parseImport decodes an export and converts it to validated domain values.
func parseImport(r io.Reader) (*importData, error) {
	var raw importFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if len(raw.DailyRecords) == 0 && len(raw.Meals) == 0 {
		return nil, errors.New("file contains no daily records or meals")
	}

	data := &importData{
		Records: make([]model.DailyRecord, 0, len(raw.DailyRecords)),
		Meals:   raw.Meals,
	}

	seen := make(map[string]bool, len(raw.DailyRecords))
	for i, entry := range raw.DailyRecords {
		rec, err := parseDailyRecord(entry)
		if err != nil {
			return nil, fmt.Errorf("daily record %d: %w", i+1, err)
		}
		if seen[rec.DateKey()] {
			return nil, fmt.Errorf("daily record %d: duplicate date %s", i+1, rec.DateKey())
		}
		seen[rec.DateKey()] = true
		data.Records = append(data.Records, rec)
	}
	habit.Sort(data.Records)

	for i := range data.Meals {
		m := &data.Meals[i]
		m.Name = strings.TrimSpace(m.Name)
		switch {
		case m.Name == "":
			return nil, fmt.Errorf("meal %d: name is required", i+1)
		case m.Timestamp.IsZero():
			return nil, fmt.Errorf("meal %d (%s): timestamp is required", i+1, m.Name)
		}
	}

	data.Range = importRange(data)
	return data, nil
}

func parseDailyRecord(entry map[string]any) (model.DailyRecord, error) {
	rawDate, ok := entry["date"].(string)
	if !ok || rawDate == "" {
		return model.DailyRecord{}, errors.New(`missing "date"`)
	}
	date, err := time.Parse(model.DateLayout, rawDate)
	if err != nil {
		return model.DailyRecord{}, fmt.Errorf("invalid date %q: %w", rawDate, err)
	}

	values := make(map[string]float64, len(entry)-1)
	for key, v := range entry {
		if key == "date" {
			continue
		}
		switch n := v.(type) {
		case float64:
			values[key] = n
		case nil:
			// explicit nulls are treated as unlogged
		default:
			return model.DailyRecord{}, fmt.Errorf("%s on %s: expected a number, got %T", key, rawDate, v)
		}
	}
	return model.NewDailyRecord(date, values), nil
}

// importRange spans every record day and meal day in the import.
func importRange(data *importData) service.DateRange {
	var r service.DateRange
	extend := func(t time.Time) {
		day := model.TruncateDay(t)
		if r.Start.IsZero() || day.Before(r.Start) {
			r.Start = day
		}
		if r.End.IsZero() || day.After(r.End) {
			r.End = day
		}
	}
	for _, rec := range data.Records {
		extend(rec.Date)
	}
	for _, m := range data.Meals {
		extend(m.Timestamp)
	}
	return r
}

func summarizeImport(data *importData) string {
	return cli.FormatInfo(fmt.Sprintf("%d daily records and %d meals spanning %s to %s (%d days)",
		len(data.Records), len(data.Meals),
		data.Range.Start.Format(model.DateLayout), data.Range.End.Format(model.DateLayout),
		data.Range.Days()))
}

// writeImport saves an import inside one transaction, reporting rows written to progress.
func writeImport(ctx context.Context, store service.LogStore, data *importData, progress func(int)) (service.ImportStats, error) {
	start := time.Now()
	stats := service.ImportStats{Range: data.Range, MealsRead: len(data.Meals)}
	if progress == nil {
		progress = func(int) {}
	}

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := 0; i < len(data.Records); i += importBatchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch := data.Records[i:min(i+importBatchSize, len(data.Records))]
		if err := tx.SaveDailyRecords(ctx, batch); err != nil {
			return stats, fmt.Errorf("failed to save daily records: %w", err)
		}
		stats.RecordsSaved += len(batch)
		progress(len(batch))
	}

	for i := 0; i < len(data.Meals); i += importBatchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch := data.Meals[i:min(i+importBatchSize, len(data.Meals))]
		inserted, err := tx.SaveMeals(ctx, batch)
		if err != nil {
			return stats, fmt.Errorf("failed to save meals: %w", err)
		}
		stats.MealsInserted += inserted
		progress(len(batch))
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit import: %w", err)
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

func newImportBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing logs...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
