package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const postgresSchema = `
CREATE TABLE IF NOT EXISTS syllabi (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	path        TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	weeks       JSONB NOT NULL DEFAULT '[]'::jsonb,
	outline_map JSONB NOT NULL DEFAULT '{}'::jsonb
)`

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the syllabi table if needed and returns the store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create syllabi table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, path, uploaded_at, weeks, outline_map FROM syllabi ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query syllabi: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate syllabi: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rec, err := scanPostgres(s.pool.QueryRow(ctx,
		`SELECT id, name, path, uploaded_at, weeks, outline_map FROM syllabi WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	return rec, err
}

func (s *PostgresStore) Add(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rec = prepare(rec)
	weeks, outline, err := encodeParsed(rec)
	if err != nil {
		return Record{}, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO syllabi (id, name, path, uploaded_at, weeks, outline_map)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)`,
		rec.ID, rec.Name, rec.Path, rec.UploadedAt, string(weeks), string(outline))
	if err != nil {
		return Record{}, fmt.Errorf("insert syllabus: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec Record) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rec = prepare(rec)
	weeks, outline, err := encodeParsed(rec)
	if err != nil {
		return err
	}
	cmd, err := s.pool.Exec(ctx,
		`UPDATE syllabi
		 SET name = $2, path = $3, uploaded_at = $4, weeks = $5::jsonb, outline_map = $6::jsonb
		 WHERE id = $1`,
		rec.ID, rec.Name, rec.Path, rec.UploadedAt, string(weeks), string(outline))
	if err != nil {
		return fmt.Errorf("update syllabus: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return notFound(rec.ID)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rec, err := scanPostgres(s.pool.QueryRow(ctx,
		`DELETE FROM syllabi WHERE id = $1
		 RETURNING id, name, path, uploaded_at, weeks, outline_map`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	return rec, err
}

func scanPostgres(row pgx.Row) (*Record, error) {
	var (
		rec            Record
		weeks, outline []byte
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Path, &rec.UploadedAt, &weeks, &outline); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan syllabus: %w", err)
	}
	if err := decodeParsed(&rec, weeks, outline); err != nil {
		return nil, err
	}
	return &rec, nil
}
