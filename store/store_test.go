package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/newsdesk/article"
	"github.com/pevans/newsdesk/gateway"
	"github.com/pevans/newsdesk/remote"
	"github.com/pevans/newsdesk/search"
)

// sequenceIDs hands out ids in order.
type sequenceIDs struct {
	ids []string
	n   int
}

func (s *sequenceIDs) Generate() string {
	id := s.ids[s.n%len(s.ids)]
	s.n++
	return id
}

func createTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	cfg := article.NewConfig()
	if len(ids) == 0 {
		ids = []string{"first", "second", "third"}
	}
	cfg.IDs = &sequenceIDs{ids: ids}
	cfg.Now = func() time.Time { return time.Unix(1700000000, 0) }
	return New(cfg, "")
}

// TestCreate verifies starter content on new articles.
func TestCreate(t *testing.T) {
	s := createTestStore(t)

	a, err := s.Create()
	require.NoError(t, err)

	snap := a.Snapshot()
	assert.Equal(t, "first", snap.ID)
	assert.Equal(t, StarterMarkdown, snap.MD)
	assert.Contains(t, snap.Body, "<h2>This is a heading</h2>")
	assert.Contains(t, snap.Body, "<s>tags</s>")
	assert.Equal(t, DefaultAuthor, snap.Author)
	assert.False(t, snap.Published)

	got, err := s.Get("first")
	require.NoError(t, err)
	assert.Same(t, a, got)
}

// TestCreate_CustomAuthor verifies the configured author is used.
func TestCreate_CustomAuthor(t *testing.T) {
	s := New(article.NewConfig(), "Newsroom")

	a, err := s.Create()
	require.NoError(t, err)

	assert.Equal(t, "Newsroom", a.Snapshot().Author)
}

// TestCreate_RetriesTakenIDs verifies a colliding id is regenerated.
func TestCreate_RetriesTakenIDs(t *testing.T) {
	s := createTestStore(t, "same", "same", "other")

	_, err := s.Create()
	require.NoError(t, err)
	a, err := s.Create()
	require.NoError(t, err)

	assert.Equal(t, "other", a.ID())
}

// TestCreate_GivesUp verifies the bounded retry.
func TestCreate_GivesUp(t *testing.T) {
	s := createTestStore(t, "only")
	_, err := s.Create()
	require.NoError(t, err)

	_, err = s.Create()

	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, s.Len())
}

// TestGet_NotFound verifies the sentinel.
func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get("missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

// TestList_Order verifies new articles are listed first, newest on top.
func TestList_Order(t *testing.T) {
	s := createTestStore(t)
	cfg := s.Config()
	require.NoError(t, s.Add(article.New(cfg, "loaded-a")))
	require.NoError(t, s.Add(article.New(cfg, "loaded-b")))
	_, err := s.Create()
	require.NoError(t, err)
	_, err = s.Create()
	require.NoError(t, err)

	var ids []string
	for _, a := range s.List() {
		ids = append(ids, a.ID())
	}
	assert.Equal(t, []string{"second", "first", "loaded-a", "loaded-b"}, ids)
}

// TestAdd_Duplicate verifies ids stay unique.
func TestAdd_Duplicate(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Add(article.New(s.Config(), "dup")))

	err := s.Add(article.New(s.Config(), "dup"))

	assert.ErrorIs(t, err, ErrDuplicateID)
}

// TestFilter verifies queries run across the collection.
func TestFilter(t *testing.T) {
	s := createTestStore(t)
	a, err := s.Create()
	require.NoError(t, err)
	require.NoError(t, a.SetField("title", "Bake sale Friday"))
	b, err := s.Create()
	require.NoError(t, err)
	require.NoError(t, b.SetField("title", "Game night"))
	require.NoError(t, b.SetField("author", "Grace"))

	assert.Len(t, s.Filter(search.Parse("")), 2)
	assert.Equal(t, []*article.Article{a}, s.Filter(search.Parse("{title bake}")))
	assert.Equal(t, []*article.Article{b}, s.Filter(search.Parse("{title night|sale}{author grace}")))
	assert.Empty(t, s.Filter(search.Parse("{colour red}")))
}

// TestFilter_Date verifies loaded articles match by date before being
// opened.
func TestFilter_Date(t *testing.T) {
	s := createTestStore(t)
	path := remote.Path{Location: "bulletin", Category: "Clubs", ID: "chess"}
	a, skipped := article.Load(s.Config(), path, map[string]any{"title": "Chess", "timestamp": float64(1700000000)})
	require.Empty(t, skipped)
	require.NoError(t, s.Add(a))

	assert.Equal(t, []*article.Article{a}, s.Filter(search.Parse("{date 2023-11-14}")))
	assert.Empty(t, s.Filter(search.Parse("{date 2024}")))
}

// TestLoad verifies a bulk load from the remote tree.
func TestLoad(t *testing.T) {
	ctx := context.Background()
	tree := remote.NewMemoryTree()
	for i, p := range []remote.Path{
		{Location: "bulletin", Category: "Clubs", ID: "chess"},
		{Location: "bulletin", Category: "Clubs", ID: "robotics"},
		{Location: "homepage", Category: "ASB", ID: "election"},
		{Location: "elsewhere", Category: "Misc", ID: "ignored"},
	} {
		require.NoError(t, tree.Update(ctx, p, remote.Record{"articleTitle": fmt.Sprintf("t%d", i)}))
	}
	s := createTestStore(t)

	result, err := s.Load(ctx, gateway.New(tree, nil))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Loaded)
	assert.Empty(t, result.Errors)
	a, err := s.Get("election")
	require.NoError(t, err)
	assert.True(t, a.Published())
	assert.Equal(t, "t2", a.Snapshot().Title)
}

// flakyFetcher fails one category and repeats an id in another.
type flakyFetcher struct{}

func (flakyFetcher) Fetch(_ context.Context, cfg *article.Config, location, category string) ([]*article.Article, error) {
	switch category {
	case "Athletics":
		return nil, errors.New("timeout")
	case "ASB", "District":
		a, _ := article.Load(cfg, remote.Path{Location: location, Category: category, ID: "twin"}, nil)
		return []*article.Article{a}, nil
	}
	return nil, nil
}

// TestLoad_PartialFailure verifies errors are collected without aborting.
func TestLoad_PartialFailure(t *testing.T) {
	s := createTestStore(t)

	result, err := s.Load(context.Background(), flakyFetcher{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Loaded)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "bulletin", result.Errors[0].Location)
	assert.Equal(t, "Athletics", result.Errors[0].Category)
	assert.Equal(t, "bulletin/Athletics: timeout", result.Errors[0].Error())
	assert.Equal(t, "twin", result.Errors[1].ID)
	assert.ErrorIs(t, &result.Errors[1], ErrDuplicateID)
}

// TestLoad_Canceled verifies a done context stops the load.
func TestLoad_Canceled(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx, flakyFetcher{})

	assert.ErrorIs(t, err, context.Canceled)
}
