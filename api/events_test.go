package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/newsdesk/article"
)

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	name string
	data string
}

// nextEvent reads lines until a complete event has been seen.
func nextEvent(t *testing.T, sc *bufio.Scanner) sseEvent {
	t.Helper()
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && ev.name != "":
			return ev
		}
	}
	require.NoError(t, sc.Err())
	t.Fatal("event stream ended")
	return ev
}

// TestArticleEvents verifies publishes and edits reach a subscribed client.
func TestArticleEvents(t *testing.T) {
	env := setupTestRouter(t)
	_, err := env.store.Create()
	require.NoError(t, err)

	server := httptest.NewServer(env.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/articles/brisk-otter-42/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	sc := bufio.NewScanner(resp.Body)

	ev := nextEvent(t, sc)
	require.Equal(t, "snapshot", ev.name)
	var snap article.Snapshot
	require.NoError(t, json.Unmarshal([]byte(ev.data), &snap))
	assert.Equal(t, "brisk-otter-42", snap.ID)
	assert.False(t, snap.Published)

	pub, err := http.Post(server.URL+"/api/v1/articles/brisk-otter-42/publish", "application/json", nil)
	require.NoError(t, err)
	pub.Body.Close()
	require.Equal(t, http.StatusOK, pub.StatusCode)

	ev = nextEvent(t, sc)
	require.Equal(t, "published", ev.name)
	var published PublishedEvent
	require.NoError(t, json.Unmarshal([]byte(ev.data), &published))
	assert.Equal(t, PublishedEvent{ID: "brisk-otter-42", Published: true}, published)

	patch, err := http.NewRequest(http.MethodPatch, server.URL+"/api/v1/articles/brisk-otter-42",
		strings.NewReader(`{"field":"title","value":"Spring concert"}`))
	require.NoError(t, err)
	patch.Header.Set("Content-Type", "application/json")
	patchResp, err := http.DefaultClient.Do(patch)
	require.NoError(t, err)
	patchResp.Body.Close()
	require.Equal(t, http.StatusOK, patchResp.StatusCode)

	ev = nextEvent(t, sc)
	require.Equal(t, "field", ev.name)
	var field FieldEvent
	require.NoError(t, json.Unmarshal([]byte(ev.data), &field))
	assert.Equal(t, FieldEvent{ID: "brisk-otter-42", Field: "title"}, field)

	ev = nextEvent(t, sc)
	require.Equal(t, "published", ev.name)
	require.NoError(t, json.Unmarshal([]byte(ev.data), &published))
	assert.False(t, published.Published)
}

// TestArticleEvents_NotFound verifies unknown ids get the error envelope.
func TestArticleEvents_NotFound(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, http.MethodGet, "/api/v1/articles/missing/events", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, w).Error.Code)
}
