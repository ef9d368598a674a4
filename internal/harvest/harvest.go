package harvest

import (
	"context"
	"fmt"
	"sort"

	"NewsHarvester/internal/domain"
)

// Entry is one item as returned by an upstream feed, before normalization.
type Entry struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Published   string `json:"published"`
	Description string `json:"description"`
}

// Harvester fetches the entries of a single source (parser service, direct RSS, ...).
type Harvester interface {
	Name() string
	FetchEntries(ctx context.Context, source domain.Source) ([]domain.CandidateArticle, error)
}

// Registry keeps a mapping from harvester names to their implementations.
type Registry struct {
	harvesters map[string]Harvester
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{harvesters: map[string]Harvester{}}
}

// Register adds or replaces a harvester implementation.
func (r *Registry) Register(h Harvester) {
	if r.harvesters == nil {
		r.harvesters = map[string]Harvester{}
	}
	r.harvesters[h.Name()] = h
}

// Resolve returns a harvester by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Harvester, error) {
	if h, ok := r.harvesters[name]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("harvester %s is not registered (known: %v)", name, r.Names())
}

// Names lists registered harvesters in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.harvesters))
	for name := range r.harvesters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToCandidates keeps entries that carry a title and stamps them with the
// source's channel and category.
func ToCandidates(source domain.Source, entries []Entry) []domain.CandidateArticle {
	out := make([]domain.CandidateArticle, 0, len(entries))
	for _, e := range entries {
		if e.Title == "" {
			continue
		}
		out = append(out, domain.CandidateArticle{
			ChannelID:   source.ChannelID,
			CategoryID:  source.CategoryID,
			Title:       e.Title,
			Link:        e.Link,
			Published:   e.Published,
			Description: e.Description,
		})
	}
	return out
}
