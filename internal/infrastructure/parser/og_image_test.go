package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsHarvester/internal/domain"
)

func TestIsAbsoluteURL(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"https://cdn.example.org/a.jpg": true,
		"http://x/1":                    true,
		"//cdn.example.org/a.jpg":       false,
		"/images/a.jpg":                 false,
		"a.jpg":                         false,
		"":                              false,
		"https://":                      false,
		"http://[::1":                   false,
	}

	for raw, want := range cases {
		assert.Equal(t, want, IsAbsoluteURL(raw), "url %q", raw)
	}
}

func TestExtractOGImage(t *testing.T) {
	t.Parallel()

	html := `<html><head>
	  <meta property="og:title" content="Title">
	  <meta property="og:image" content="https://cdn.example.org/first.jpg">
	  <meta property="og:image" content="https://cdn.example.org/second.jpg">
	</head></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	image, ok := extractOGImage(doc)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.org/first.jpg", image)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	var gotAgent string
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="https://img.example.org/cover.png"></head></html>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>no image</title></head></html>`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta property="og:image"></head></html>`))
	})
	mux.HandleFunc("/relative", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="/static/cover.png"></head></html>`))
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := NewOGImageResolver(server.Client(), "", "", nil)
	ctx := context.Background()

	assert.Equal(t, "https://img.example.org/cover.png", resolver.Resolve(ctx, server.URL+"/ok"))
	assert.Equal(t, BrowserUserAgent, gotAgent)

	for _, path := range []string{"/missing", "/empty", "/relative", "/forbidden"} {
		assert.Equal(t, domain.FallbackImage, resolver.Resolve(ctx, server.URL+path), "path %s", path)
	}
}

func TestResolveNetworkFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	link := server.URL + "/gone"
	server.Close()

	resolver := NewOGImageResolver(nil, "", "https://static.example.org/none.png", nil)
	assert.Equal(t, "https://static.example.org/none.png", resolver.Resolve(context.Background(), link))
	assert.Equal(t, "https://static.example.org/none.png", resolver.Resolve(context.Background(), "::not a url"))
}
