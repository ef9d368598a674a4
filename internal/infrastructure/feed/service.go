package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/harvest"
)

// ServiceHarvesterName identifies the parser-service strategy in the registry.
const ServiceHarvesterName = "service"

// DefaultParserURL is the hosted feed-parsing service.
const DefaultParserURL = "https://parser-lepiant.deno.dev/"

// ServiceHarvester delegates feed parsing to an external HTTP service that
// answers GET ?url=<feed> with {"entries": [...]}.
type ServiceHarvester struct {
	endpoint string
	client   *http.Client
}

var _ harvest.Harvester = (*ServiceHarvester)(nil)

// NewServiceHarvester wires the parser endpoint and an HTTP client.
func NewServiceHarvester(endpoint string, client *http.Client) *ServiceHarvester {
	if endpoint == "" {
		endpoint = DefaultParserURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ServiceHarvester{endpoint: endpoint, client: client}
}

// Name identifies the strategy inside the registry.
func (s *ServiceHarvester) Name() string {
	return ServiceHarvesterName
}

type parserResponse struct {
	Entries []harvest.Entry `json:"entries"`
}

// FetchEntries asks the parser service for the source feed and keeps titled entries.
func (s *ServiceHarvester) FetchEntries(ctx context.Context, source domain.Source) ([]domain.CandidateArticle, error) {
	requestURL, err := buildParserURL(s.endpoint, source.URL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request parser: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("parser returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var body parserResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode parser response: %w", err)
	}

	return harvest.ToCandidates(source, body.Entries), nil
}

func buildParserURL(endpoint, feedURL string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid parser url %s: %w", endpoint, err)
	}

	query := parsed.Query()
	query.Set("url", feedURL)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
