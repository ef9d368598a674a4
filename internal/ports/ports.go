package ports

import (
	"context"
	"time"

	"NewsHarvester/internal/domain"
)

// SourceRegistry lists the feed sources flagged active.
type SourceRegistry interface {
	ListActiveSources(ctx context.Context) ([]domain.Source, error)
}

// ArticleSource turns active sources into candidate articles.
type ArticleSource interface {
	Collect(ctx context.Context, sources []domain.Source) []domain.CandidateArticle
}

// Ledger remembers article titles that were already processed.
type Ledger interface {
	HasBeenProcessed(ctx context.Context, title string) (bool, error)
	MarkProcessed(ctx context.Context, title string) error
}

// ImageResolver scrapes a representative image for an article page.
// Implementations never fail; they fall back to domain.FallbackImage.
type ImageResolver interface {
	Resolve(ctx context.Context, link string) string
}

// ArticleGateway persists enriched articles, one transaction per item.
type ArticleGateway interface {
	SaveBatch(ctx context.Context, articles []domain.EnrichedArticle) (domain.SaveResult, error)
}

// Notifier streams run reports to operators.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}

// RunRecorder observes finished runs (metrics, last-run cache).
type RunRecorder interface {
	RecordRun(log domain.RunLog)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
