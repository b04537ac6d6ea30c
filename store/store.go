// Package store holds every article the editor has open, keyed by id.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pevans/newsdesk/article"
	"github.com/pevans/newsdesk/search"
)

// ErrNotFound is returned when no article has the requested id.
var ErrNotFound = errors.New("article not found")

// ErrDuplicateID is returned when adding an article whose id is taken.
var ErrDuplicateID = errors.New("article id already in use")

// StarterMarkdown is the content of a freshly created article.
const StarterMarkdown = `Enter text here!

Words can be **bolded** or *italicized* like so.

## This is a heading

Links look like [this](https://example.com)

> This is a block quote

HTML <s>tags</s> are fine too.

For more info check out [an overview of Markdown](https://www.markdownguide.org/basic-syntax)`

// DefaultAuthor is the author of a freshly created article.
const DefaultAuthor = "Alice Bobson"

// maxIDAttempts bounds how often Create retries a colliding generated id.
const maxIDAttempts = 16

// Fetcher loads the published articles of one location/category.
type Fetcher interface {
	Fetch(ctx context.Context, cfg *article.Config, location, category string) ([]*article.Article, error)
}

// LoadError describes a failure to load one location/category or one
// record within it.
type LoadError struct {
	Location string
	Category string
	ID       string
	Err      error
}

func (e *LoadError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s/%s/%s: %v", e.Location, e.Category, e.ID, e.Err)
	}
	return fmt.Sprintf("%s/%s: %v", e.Location, e.Category, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadResult contains the outcome of a bulk load, including any
// per-category errors that occurred along the way.
type LoadResult struct {
	Loaded int
	Errors []LoadError
}

// Store is the editor's collection of articles. Articles are listed with
// newly created ones first (newest at the top), followed by loaded ones in
// load order.
type Store struct {
	mu       sync.RWMutex
	cfg      *article.Config
	author   string
	articles map[string]*article.Article
	created  []string
	loaded   []string
}

// New creates an empty store. Articles it creates use cfg and author; an
// empty author means DefaultAuthor.
func New(cfg *article.Config, author string) *Store {
	if cfg == nil {
		cfg = article.NewConfig()
	}
	if author == "" {
		author = DefaultAuthor
	}
	return &Store{
		cfg:      cfg,
		author:   author,
		articles: make(map[string]*article.Article),
	}
}

// Config returns the article configuration the store was built with.
func (s *Store) Config() *article.Config {
	return s.cfg
}

// Load fetches every location/category of the taxonomy. A failing category
// is recorded and the rest still load. The error is only set when ctx is
// done.
func (s *Store) Load(ctx context.Context, f Fetcher) (*LoadResult, error) {
	result := &LoadResult{}

	for _, section := range s.cfg.Taxonomy {
		for _, category := range section.Categories {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			articles, err := f.Fetch(ctx, s.cfg, section.Location, category)
			if err != nil {
				result.Errors = append(result.Errors, LoadError{
					Location: section.Location,
					Category: category,
					Err:      err,
				})
				continue
			}

			for _, a := range articles {
				if err := s.Add(a); err != nil {
					result.Errors = append(result.Errors, LoadError{
						Location: section.Location,
						Category: category,
						ID:       a.ID(),
						Err:      err,
					})
					continue
				}
				result.Loaded++
			}
		}
	}

	return result, nil
}

// Add inserts a loaded article at the end of the list.
func (s *Store) Add(a *article.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[a.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID())
	}
	s.articles[a.ID()] = a
	s.loaded = append(s.loaded, a.ID())
	return nil
}

// Create makes a new unpublished article with starter content and puts it at
// the top of the list.
func (s *Store) Create() (*article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var a *article.Article
	for range maxIDAttempts {
		candidate := article.New(s.cfg, "")
		if _, taken := s.articles[candidate.ID()]; !taken {
			a = candidate
			break
		}
	}
	if a == nil {
		return nil, fmt.Errorf("failed to generate a free id after %d attempts: %w", maxIDAttempts, ErrDuplicateID)
	}

	if err := a.SetField(article.FieldMD, StarterMarkdown); err != nil {
		return nil, fmt.Errorf("failed to set starter content: %w", err)
	}
	if err := a.SetField(article.FieldAuthor, s.author); err != nil {
		return nil, fmt.Errorf("failed to set author: %w", err)
	}

	s.articles[a.ID()] = a
	s.created = append(s.created, a.ID())
	return a, nil
}

// Get returns the article with id.
func (s *Store) Get(id string) (*article.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

// List returns every article in display order.
func (s *Store) List() []*article.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*article.Article, 0, len(s.articles))
	for i := len(s.created) - 1; i >= 0; i-- {
		out = append(out, s.articles[s.created[i]])
	}
	for _, id := range s.loaded {
		out = append(out, s.articles[id])
	}
	return out
}

// Filter returns the articles matching q in display order.
func (s *Store) Filter(q search.Query) []*article.Article {
	return search.Filter(q, s.List())
}

// Len returns the number of articles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}
