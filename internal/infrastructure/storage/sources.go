package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// SourceRepository reads feed sources from Postgres.
type SourceRepository struct {
	db *sql.DB
}

var _ ports.SourceRegistry = (*SourceRepository)(nil)

// NewSourceRepository wires a sql.DB implementation.
func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// ListActiveSources returns every source flagged active, ordered by id.
func (r *SourceRepository) ListActiveSources(ctx context.Context) ([]domain.Source, error) {
	if r.db == nil {
		return nil, fmt.Errorf("source repository has no database")
	}

	query, args, err := psql.
		Select("id", "category_id", "channel_id", "url", "language", "is_active").
		From("sources").
		Where(sq.Eq{"is_active": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sources query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var (
			src      domain.Source
			language sql.NullString
		)
		if err := rows.Scan(&src.ID, &src.CategoryID, &src.ChannelID, &src.URL, &language, &src.Active); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Language = language.String
		if src.Language == "" {
			src.Language = "fr"
		}
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return sources, nil
}
