package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Checkpoint errors.
var (
	ErrBackupExists   = errors.New("backup already exists")
	ErrBackupInMemory = errors.New("in-memory databases cannot be backed up")
)

// Checkpoint folds the write-ahead log back into the main database file.
func (s *SQLiteStorage) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint database: %w", err)
	}
	return nil
}

// Backup writes a consistent copy of the database to a "backups" directory
// next to it and returns the copy's path. An empty tag is replaced by a
// timestamp.
func (s *SQLiteStorage) Backup(ctx context.Context, tag string) (string, error) {
	if s.dbPath == ":memory:" {
		return "", ErrBackupInMemory
	}
	if tag == "" {
		tag = fmt.Sprintf("backup-%s", s.now().Format("2006-01-02-150405"))
	}
	if strings.ContainsAny(tag, `/\`) || strings.Contains(tag, "..") {
		return "", errors.New("invalid backup tag: cannot contain path separators")
	}

	dir := filepath.Join(filepath.Dir(s.dbPath), "backups")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create backups directory: %w", err)
	}

	path := filepath.Join(dir, tag+".db")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrBackupExists, path)
	}

	start := time.Now()
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}
	s.logger.Info("Database backed up", "path", path, "duration", time.Since(start))
	return path, nil
}
