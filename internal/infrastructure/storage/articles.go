package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

const uniqueViolation pq.ErrorCode = "23505"

// publishedLayouts covers the ISO-8601 shapes emitted by the feed parser.
var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ArticleRepository inserts enriched articles, one transaction per row.
type ArticleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ports.ArticleGateway = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB, log *slog.Logger) *ArticleRepository {
	return &ArticleRepository{db: db, logger: log}
}

// SaveBatch inserts every article independently. A failing row is rolled back and
// reported in the result; it never aborts the rest of the batch.
// The returned error is reserved for the call itself being unusable.
func (r *ArticleRepository) SaveBatch(ctx context.Context, articles []domain.EnrichedArticle) (domain.SaveResult, error) {
	if r.db == nil {
		return domain.SaveResult{}, fmt.Errorf("article repository has no database")
	}
	if err := ctx.Err(); err != nil {
		return domain.SaveResult{}, fmt.Errorf("save batch: %w", err)
	}

	var result domain.SaveResult
	for _, article := range articles {
		err := r.insert(ctx, article)
		if err == nil {
			result.Saved++
			continue
		}

		result.Failed++
		msg := fmt.Sprintf("error saving article '%s': %v", article.Title, err)
		if isUniqueViolation(err) {
			result.Duplicates++
			msg += " (duplicate)"
		}
		result.Errors = append(result.Errors, msg)
		r.debug("article insert failed", "title", article.Title, "error", err)
	}

	result.Status, result.Message = summarize(result.Saved, result.Failed)
	return result, nil
}

func (r *ArticleRepository) insert(ctx context.Context, article domain.EnrichedArticle) error {
	published, err := ParsePublished(article.Published)
	if err != nil {
		return err
	}

	query, args, err := psql.
		Insert("articles").
		Columns("category_id", "channel_id", "title", "image", "description", "link", "published").
		Values(article.CategoryID, article.ChannelID, article.Title, article.Image, article.Description, article.Link, published).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("insert article: %w (rollback: %v)", err, rbErr)
		}
		return fmt.Errorf("insert article: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ParsePublished reads an ISO-8601 timestamp and returns it in UTC; zone-less
// values are taken as UTC. The articles column has no time zone.
func ParsePublished(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("published date is empty")
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid published date %q", value)
}

func summarize(saved, failed int) (domain.SaveStatus, string) {
	switch {
	case failed == 0:
		return domain.SaveSuccess, fmt.Sprintf("all %d articles saved successfully", saved)
	case saved == 0:
		return domain.SaveError, fmt.Sprintf("no article could be saved, %d failed", failed)
	default:
		return domain.SavePartialSuccess, fmt.Sprintf("%d articles saved successfully, %d failed", saved, failed)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *ArticleRepository) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
