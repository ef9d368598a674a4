package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReport(t *testing.T) {
	t.Parallel()

	var path, chatID, text string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		path = r.URL.Path
		chatID = r.PostForm.Get("chat_id")
		text = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier("token", "42").WithAPIBase(server.URL+"/", server.Client())
	require.NoError(t, n.PublishReport(context.Background(), "Run finished"))

	assert.Equal(t, "/bottoken/sendMessage", path)
	assert.Equal(t, "42", chatID)
	assert.Equal(t, "Run finished", text)
}

func TestPublishReportErrors(t *testing.T) {
	t.Parallel()

	require.Error(t, NewNotifier("", "42").PublishReport(context.Background(), "x"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewNotifier("token", "42").WithAPIBase(server.URL, server.Client()).PublishReport(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("é", 5000)
	got := truncate(long, maxMessageLen)
	assert.Equal(t, maxMessageLen, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
