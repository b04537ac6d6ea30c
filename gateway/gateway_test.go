package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/newsdesk/article"
	"github.com/pevans/newsdesk/remote"
)

type fixedIDs string

func (f fixedIDs) Generate() string { return string(f) }

func createTestConfig(t *testing.T) *article.Config {
	t.Helper()
	cfg := article.NewConfig()
	cfg.IDs = fixedIDs("brisk-otter-42")
	cfg.Now = func() time.Time { return time.Unix(1700000000, 0) }
	return cfg
}

func createTestGateway(t *testing.T) (*Gateway, *remote.MemoryTree) {
	t.Helper()
	tree := remote.NewMemoryTree()
	return New(tree, slog.New(slog.NewTextHandler(io.Discard, nil))), tree
}

// failingTree rejects every write.
type failingTree struct {
	*remote.MemoryTree
	err error
}

func (f failingTree) Update(context.Context, remote.Path, remote.Record) error { return f.err }
func (f failingTree) Remove(context.Context, remote.Path) error               { return f.err }

// blockingTree holds Update until release is closed.
type blockingTree struct {
	*remote.MemoryTree
	started chan struct{}
	release chan struct{}
}

func (b blockingTree) Update(ctx context.Context, p remote.Path, r remote.Record) error {
	close(b.started)
	<-b.release
	return b.MemoryTree.Update(ctx, p, r)
}

// TestEndToEnd walks through creating, editing and publishing an article.
func TestEndToEnd(t *testing.T) {
	g, tree := createTestGateway(t)
	ctx := context.Background()

	a := article.New(createTestConfig(t), "")
	assert.Equal(t, "brisk-otter-42", a.ID())
	assert.False(t, a.Published())

	require.NoError(t, a.SetField("md", "# Hi"))
	assert.Contains(t, a.Snapshot().Body, "<h1>Hi</h1>")
	assert.False(t, a.Published())

	res, err := g.Publish(ctx, a)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "homepage/General_Info/brisk-otter-42", res.Path.String())
	assert.True(t, a.Published())

	rec, ok, err := tree.Read(ctx, res.Path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "# Hi", rec["articleMd"])
	assert.Equal(t, "Untitled Article", rec["articleTitle"])

	require.NoError(t, a.SetField("title", "New"))
	assert.False(t, a.Published())
}

// TestPublishThenRemove verifies the record is gone and the article stays
// editable.
func TestPublishThenRemove(t *testing.T) {
	g, tree := createTestGateway(t)
	ctx := context.Background()
	a := article.New(createTestConfig(t), "")

	_, err := g.Publish(ctx, a)
	require.NoError(t, err)
	res, err := g.Remove(ctx, a)
	require.NoError(t, err)

	assert.False(t, a.Published())
	assert.True(t, a.PublishedPath().IsZero())
	_, ok, err := tree.Read(ctx, res.Path)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, tree.Len())

	require.NoError(t, a.SetField("title", "Back again"))
	_, err = g.Publish(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
}

// TestPublish_Failure verifies a failed write leaves the flag alone.
func TestPublish_Failure(t *testing.T) {
	boom := errors.New("permission denied")
	g := New(failingTree{MemoryTree: remote.NewMemoryTree(), err: boom}, nil)
	a := article.New(createTestConfig(t), "")

	_, err := g.Publish(context.Background(), a)

	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "publish", serr.Op)
	assert.ErrorIs(t, err, boom)
	assert.False(t, a.Published())

	// The claim is released after a failure.
	_, err = g.Publish(context.Background(), a)
	assert.ErrorAs(t, err, &serr)
}

// TestRemove_Failure verifies a failed delete keeps the article published.
func TestRemove_Failure(t *testing.T) {
	tree := remote.NewMemoryTree()
	a := article.New(createTestConfig(t), "")
	_, err := New(tree, nil).Publish(context.Background(), a)
	require.NoError(t, err)

	g := New(failingTree{MemoryTree: tree, err: errors.New("offline")}, nil)
	_, err = g.Remove(context.Background(), a)

	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "remove", serr.Op)
	assert.True(t, a.Published())
}

// TestPublish_Drift verifies a moved article is reported, not retargeted.
func TestPublish_Drift(t *testing.T) {
	g, tree := createTestGateway(t)
	ctx := context.Background()
	a := article.New(createTestConfig(t), "")
	first, err := g.Publish(ctx, a)
	require.NoError(t, err)

	require.NoError(t, a.SetField("category", "Athletics"))
	res, err := g.Remove(ctx, a)
	require.NoError(t, err)

	assert.True(t, res.Drift)
	assert.Equal(t, first.Path, res.StalePath)
	assert.Equal(t, "bulletin/Athletics/brisk-otter-42", res.Path.String())
	_, ok, err := tree.Read(ctx, first.Path)
	require.NoError(t, err)
	assert.True(t, ok, "stale record must not be touched")
}

// TestPublish_LocationOverride verifies writes go to the override location.
func TestPublish_LocationOverride(t *testing.T) {
	g, tree := createTestGateway(t)
	g.LocationOverride = "DEBUG"
	a := article.New(createTestConfig(t), "")

	res, err := g.Publish(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG/General_Info/brisk-otter-42", res.Path.String())
	_, ok, err := tree.Read(context.Background(), res.Path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "homepage", a.Snapshot().Location)
}

// TestPublish_InProgress verifies a second sync fails fast and an edit made
// during a publish wins.
func TestPublish_InProgress(t *testing.T) {
	tree := blockingTree{
		MemoryTree: remote.NewMemoryTree(),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	g := New(tree, nil)
	a := article.New(createTestConfig(t), "")

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome)
	go func() {
		res, err := g.Publish(context.Background(), a)
		done <- outcome{res, err}
	}()
	<-tree.started

	_, err := g.Publish(context.Background(), a)
	assert.ErrorIs(t, err, ErrSyncInProgress)
	_, err = g.Remove(context.Background(), a)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	require.NoError(t, a.SetField("title", "typed while saving"))
	close(tree.release)

	out := <-done
	require.NoError(t, out.err)
	assert.False(t, out.res.Applied)
	assert.False(t, a.Published())
}

// TestFetch verifies remote records become published articles.
func TestFetch(t *testing.T) {
	g, tree := createTestGateway(t)
	ctx := context.Background()
	path := remote.Path{Location: "bulletin", Category: "Clubs", ID: "calm-tidy-otter"}
	require.NoError(t, tree.Update(ctx, path, remote.Record{
		"articleTitle":     "Chess",
		"articleBody":      "<p>Mondays</p>",
		"articleUnixEpoch": float64(1600000000),
		"isFeatured":       false,
		"articleImages":    []any{"a.png"},
	}))

	articles, err := g.Fetch(ctx, createTestConfig(t), "bulletin", "Clubs")
	require.NoError(t, err)
	require.Len(t, articles, 1)

	s := articles[0].Snapshot()
	assert.Equal(t, "calm-tidy-otter", s.ID)
	assert.Equal(t, "Chess", s.Title)
	assert.Equal(t, "<p>Mondays</p>", s.MD)
	assert.Equal(t, int64(1600000000), s.Timestamp)
	assert.Equal(t, []string{"a.png"}, s.Images)
	assert.True(t, s.Published)
	assert.Equal(t, path, articles[0].PublishedPath())
}

// TestFetch_Failure verifies read errors are wrapped.
func TestFetch_Failure(t *testing.T) {
	g := New(errTree{}, nil)

	_, err := g.Fetch(context.Background(), createTestConfig(t), "bulletin", "Clubs")

	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "read", serr.Op)
}

type errTree struct{ remote.Tree }

func (errTree) ReadAll(context.Context, string, string) ([]remote.Entry, error) {
	return nil, errors.New("unreachable")
}
