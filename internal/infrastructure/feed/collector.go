package feed

import (
	"context"
	"log/slog"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/harvest"
	"NewsHarvester/internal/ports"
)

// Collector implements ArticleSource on top of a single harvester strategy.
// Each source is fetched in isolation: a failing source is logged and skipped.
type Collector struct {
	harvester harvest.Harvester
	logger    *slog.Logger
}

var _ ports.ArticleSource = (*Collector)(nil)

// NewCollector wires the harvester used for every source.
func NewCollector(h harvest.Harvester, log *slog.Logger) *Collector {
	return &Collector{
		harvester: h,
		logger:    log,
	}
}

// Collect iterates over sources in order and concatenates their candidates.
func (c *Collector) Collect(ctx context.Context, sources []domain.Source) []domain.CandidateArticle {
	if c.harvester == nil {
		c.warn("no harvester configured")
		return nil
	}

	c.debug("collect", "sources", len(sources), "harvester", c.harvester.Name())

	var aggregated []domain.CandidateArticle
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			c.warn("collect interrupted", "error", err)
			break
		}

		results, err := c.harvester.FetchEntries(ctx, src)
		if err != nil {
			c.warn("source failed", "source_id", src.ID, "url", src.URL, "error", err)
			continue
		}

		c.debug("source produced articles", "source_id", src.ID, "url", src.URL, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	c.debug("collect done", "total_articles", len(aggregated))
	return aggregated
}

func (c *Collector) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Collector) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
