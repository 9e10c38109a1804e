package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS syllabi (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	path        TEXT NOT NULL,
	uploaded_at TEXT NOT NULL,
	weeks       TEXT NOT NULL DEFAULT '[]',
	outline_map TEXT NOT NULL DEFAULT '{}'
)`

// SQLiteStore keeps the library in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, path, uploaded_at, weeks, outline_map FROM syllabi ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query syllabi: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, path, uploaded_at, weeks, outline_map FROM syllabi WHERE id = ?`, id)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return rec, err
}

func (s *SQLiteStore) Add(ctx context.Context, rec Record) (Record, error) {
	rec = prepare(rec)
	weeks, outline, err := encodeParsed(rec)
	if err != nil {
		return Record{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO syllabi (id, name, path, uploaded_at, weeks, outline_map) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Path, rec.UploadedAt.Format(time.RFC3339), string(weeks), string(outline))
	if err != nil {
		return Record{}, fmt.Errorf("insert syllabus: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Update(ctx context.Context, rec Record) error {
	rec = prepare(rec)
	weeks, outline, err := encodeParsed(rec)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE syllabi SET name = ?, path = ?, uploaded_at = ?, weeks = ?, outline_map = ? WHERE id = ?`,
		rec.Name, rec.Path, rec.UploadedAt.Format(time.RFC3339), string(weeks), string(outline), rec.ID)
	if err != nil {
		return fmt.Errorf("update syllabus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(rec.ID)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (*Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM syllabi WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete syllabus: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (*Record, error) {
	var (
		rec            Record
		uploaded       string
		weeks, outline string
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Path, &uploaded, &weeks, &outline); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan syllabus: %w", err)
	}
	t, err := ParseTimestamp(uploaded)
	if err != nil {
		return nil, err
	}
	rec.UploadedAt = t
	if err := decodeParsed(&rec, []byte(weeks), []byte(outline)); err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeParsed(rec Record) (weeks, outline []byte, err error) {
	weeks, err = json.Marshal(rec.Weeks)
	if err != nil {
		return nil, nil, fmt.Errorf("encode weeks: %w", err)
	}
	outline, err = json.Marshal(rec.OutlineMap)
	if err != nil {
		return nil, nil, fmt.Errorf("encode outline map: %w", err)
	}
	return weeks, outline, nil
}

func decodeParsed(rec *Record, weeks, outline []byte) error {
	if len(weeks) > 0 {
		if err := json.Unmarshal(weeks, &rec.Weeks); err != nil {
			return fmt.Errorf("decode weeks: %w", err)
		}
	}
	if len(outline) > 0 {
		if err := json.Unmarshal(outline, &rec.OutlineMap); err != nil {
			return fmt.Errorf("decode outline map: %w", err)
		}
	}
	return nil
}
