package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC().Truncate(time.Microsecond),
	}, nil
}

// Source describes a file previously loaded into the catalog.
type Source struct {
	FileFingerprint
	Assembly string
	Rows     int64
	LoadedAt time.Time
}

// sourceLoaded reports whether fp was the last file loaded for assembly.
func (s *Store) sourceLoaded(ctx context.Context, fp FileFingerprint, assembly string) (bool, error) {
	src, err := s.LastSource(ctx, assembly)
	if err != nil {
		return false, err
	}
	if src == nil {
		return false, nil
	}
	return src.Path == fp.Path && src.Size == fp.Size && src.ModTime.Equal(fp.ModTime), nil
}

// LastSource returns the most recently loaded source for assembly, or nil.
func (s *Store) LastSource(ctx context.Context, assembly string) (*Source, error) {
	var src Source
	err := s.db.QueryRowContext(ctx, `SELECT path, size, mod_time, assembly, row_count, loaded_at
		FROM catalog_sources WHERE assembly = ?
		ORDER BY loaded_at DESC LIMIT 1`, assembly).
		Scan(&src.Path, &src.Size, &src.ModTime, &src.Assembly, &src.Rows, &src.LoadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query catalog sources: %w", err)
	}
	src.ModTime = src.ModTime.UTC()
	return &src, nil
}

func recordSource(ctx context.Context, tx *sql.Tx, fp FileFingerprint, assembly string, rows int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_sources WHERE assembly = ?`, assembly); err != nil {
		return fmt.Errorf("clear catalog source: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_sources VALUES (?, ?, ?, ?, ?, ?)`,
		fp.Path, fp.Size, fp.ModTime, assembly, rows, time.Now().UTC()); err != nil {
		return fmt.Errorf("record catalog source: %w", err)
	}
	return nil
}
