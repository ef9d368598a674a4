package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/harvest"
)

// DirectHarvesterName identifies the in-process RSS/Atom strategy.
const DirectHarvesterName = "gofeed"

// DirectHarvester parses RSS/Atom/JSON feeds in-process with gofeed.
type DirectHarvester struct {
	parser *gofeed.Parser
	now    func() time.Time
}

var _ harvest.Harvester = (*DirectHarvester)(nil)

// NewDirectHarvester builds a gofeed parser on top of client.
func NewDirectHarvester(client *http.Client) *DirectHarvester {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	p := gofeed.NewParser()
	p.Client = client
	return &DirectHarvester{parser: p, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (d *DirectHarvester) Name() string {
	return DirectHarvesterName
}

// FetchEntries downloads and parses the source feed.
func (d *DirectHarvester) FetchEntries(ctx context.Context, source domain.Source) ([]domain.CandidateArticle, error) {
	parsed, err := d.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source.URL, err)
	}

	harvestedAt := d.now()
	entries := make([]harvest.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, harvest.Entry{
			Title:       item.Title,
			Link:        item.Link,
			Published:   publishedOf(item, harvestedAt),
			Description: item.Description,
		})
	}

	return harvest.ToCandidates(source, entries), nil
}

// publishedOf renders the item date as RFC 3339, preferring the parsed value.
// Items without a parseable date are stamped with the harvest time.
func publishedOf(item *gofeed.Item, harvestedAt time.Time) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		return harvestedAt.UTC().Format(time.RFC3339)
	}
}
