package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MaxAutoBackups is how many automatic backups are kept.
const MaxAutoBackups = 5

// ErrBackupUnavailable is returned when the database has no file to back up.
var ErrBackupUnavailable = errors.New("backup unavailable for in-memory database")

// BackupDir returns the directory backups are written to.
func (s *SQLiteStorage) BackupDir() string {
	return filepath.Join(filepath.Dir(s.dbPath), "backups")
}

// Backup writes a consistent copy of the database to destPath.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if s.dbPath == MemoryPath {
		return ErrBackupUnavailable
	}
	if strings.ContainsAny(destPath, "'\";") {
		return fmt.Errorf("invalid destination path: contains forbidden characters")
	}
	if !filepath.IsAbs(destPath) || strings.Contains(destPath, "..") {
		return fmt.Errorf("invalid destination path")
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// #nosec G201 - destPath is validated above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	return nil
}

// AutoBackup writes a timestamped backup before a destructive operation and
// prunes automatic backups beyond MaxAutoBackups.
func (s *SQLiteStorage) AutoBackup(ctx context.Context, prefix string, now time.Time) (string, error) {
	name := fmt.Sprintf("auto-%s-%s.db", prefix, now.UTC().Format("20060102-150405"))
	dest := filepath.Join(s.BackupDir(), name)

	if err := s.Backup(ctx, dest); err != nil {
		return "", err
	}

	if err := s.pruneAutoBackups(); err != nil {
		slog.Warn("failed to prune old backups", "error", err)
	}
	return dest, nil
}

func (s *SQLiteStorage) pruneAutoBackups() error {
	entries, err := os.ReadDir(s.BackupDir())
	if err != nil {
		return fmt.Errorf("failed to read backup directory: %w", err)
	}

	var autos []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "auto-") {
			autos = append(autos, e.Name())
		}
	}
	if len(autos) <= MaxAutoBackups {
		return nil
	}

	// Names embed a sortable timestamp after the prefix; sort by that suffix.
	sort.Slice(autos, func(i, j int) bool {
		return backupStamp(autos[i]) > backupStamp(autos[j])
	})
	for _, name := range autos[MaxAutoBackups:] {
		if err := os.Remove(filepath.Join(s.BackupDir(), name)); err != nil {
			slog.Debug("failed to delete old backup", "error", err, "backup", name)
		}
	}
	return nil
}

func backupStamp(name string) string {
	name = strings.TrimSuffix(name, ".db")
	if len(name) < len("20060102-150405") {
		return name
	}
	return name[len(name)-len("20060102-150405"):]
}
