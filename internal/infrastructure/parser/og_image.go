package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// BrowserUserAgent is sent with page requests; some sites reject non-browser agents.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// OGImageResolver scrapes the Open Graph image of an article page.
type OGImageResolver struct {
	client    *http.Client
	userAgent string
	fallback  string
	logger    *slog.Logger
}

var _ ports.ImageResolver = (*OGImageResolver)(nil)

// NewOGImageResolver wires an HTTP client; empty userAgent and fallback take the defaults.
func NewOGImageResolver(client *http.Client, userAgent, fallback string, log *slog.Logger) *OGImageResolver {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = BrowserUserAgent
	}
	if fallback == "" {
		fallback = domain.FallbackImage
	}
	return &OGImageResolver{client: client, userAgent: userAgent, fallback: fallback, logger: log}
}

// Resolve returns the og:image URL of link, or the fallback on any failure.
func (r *OGImageResolver) Resolve(ctx context.Context, link string) string {
	doc, err := r.fetchDocument(ctx, link)
	if err != nil {
		r.debug("image fetch failed", "link", link, "error", err)
		return r.fallback
	}

	image, ok := extractOGImage(doc)
	if !ok {
		r.debug("no usable og:image", "link", link)
		return r.fallback
	}
	return image
}

func (r *OGImageResolver) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractOGImage(doc *goquery.Document) (string, bool) {
	content, exists := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !exists {
		return "", false
	}
	content = strings.TrimSpace(content)
	if !IsAbsoluteURL(content) {
		return "", false
	}
	return content, true
}

// IsAbsoluteURL reports whether raw has both a scheme and a host.
func IsAbsoluteURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

func (r *OGImageResolver) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
