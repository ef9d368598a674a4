package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NewsHarvester/internal/ports"
)

// ProcessedTitleRepository is the Postgres-backed dedup ledger.
type ProcessedTitleRepository struct {
	db *sql.DB
}

var _ ports.Ledger = (*ProcessedTitleRepository)(nil)

// NewProcessedTitleRepository wires a sql.DB implementation.
func NewProcessedTitleRepository(db *sql.DB) *ProcessedTitleRepository {
	return &ProcessedTitleRepository{db: db}
}

// HasBeenProcessed reports whether title was recorded before.
func (r *ProcessedTitleRepository) HasBeenProcessed(ctx context.Context, title string) (bool, error) {
	if r.db == nil {
		return false, nil
	}

	query, args, err := psql.
		Select("1").
		From("processed_titles").
		Where(sq.Eq{"title": title}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build processed query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query processed: %w", err)
	}
	return true, nil
}

// MarkProcessed records title; re-marking an existing title is a no-op.
func (r *ProcessedTitleRepository) MarkProcessed(ctx context.Context, title string) error {
	if r.db == nil {
		return fmt.Errorf("processed title repository has no database")
	}

	query, args, err := psql.
		Insert("processed_titles").
		Columns("title").
		Values(title).
		Suffix("ON CONFLICT (title) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build processed insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert processed: %w", err)
	}
	return nil
}
