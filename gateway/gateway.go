// Package gateway moves articles between the in-memory model and the remote
// tree. It owns both directions of the translation: loading records into
// articles and publishing or removing an article's record.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pevans/newsdesk/article"
	"github.com/pevans/newsdesk/fieldmap"
	"github.com/pevans/newsdesk/remote"
)

// ErrSyncInProgress is returned when a publish or remove is requested for an
// article that already has one running.
var ErrSyncInProgress = errors.New("sync already in progress for article")

// SyncError wraps a failed remote operation. The article's published flag is
// left as it was.
type SyncError struct {
	Op   string
	Path remote.Path
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Result describes a completed publish or remove.
type Result struct {
	// Path is where the record was written or deleted.
	Path remote.Path

	// Drift is set when the article was last published somewhere other than
	// Path. StalePath is that earlier location; its record is left alone.
	Drift     bool
	StalePath remote.Path

	// Applied is false when the article was edited while a publish was in
	// flight, so it stays unpublished.
	Applied bool
}

// Gateway syncs articles with a remote tree.
type Gateway struct {
	tree   remote.Tree
	logger *slog.Logger

	// LocationOverride, when set, replaces the location segment of every
	// path written to or removed from the tree. Reads are unaffected.
	LocationOverride string
}

// New creates a gateway over tree. A nil logger uses slog.Default().
func New(tree remote.Tree, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{tree: tree, logger: logger}
}

// Fetch loads every record under location/category as a published article.
// Records that could only be partly applied are still returned; their
// problems are logged.
func (g *Gateway) Fetch(ctx context.Context, cfg *article.Config, location, category string) ([]*article.Article, error) {
	entries, err := g.tree.ReadAll(ctx, location, category)
	if err != nil {
		return nil, &SyncError{Op: "read", Path: remote.Path{Location: location, Category: category}, Err: err}
	}

	articles := make([]*article.Article, 0, len(entries))
	for _, e := range entries {
		path := remote.Path{Location: location, Category: category, ID: e.ID}
		a, skipped := article.Load(cfg, path, fieldmap.FromRemote(e.Record))
		for _, err := range skipped {
			g.logger.Warn("skipped remote field", "path", path.String(), "error", err)
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// Publish writes the article's mapped fields to its current path, merging
// into any record already there.
func (g *Gateway) Publish(ctx context.Context, a *article.Article) (Result, error) {
	if !a.BeginSync() {
		return Result{}, ErrSyncInProgress
	}
	defer a.EndSync()

	snap := a.Snapshot()
	res := g.result(snap.Path(), a.PublishedPath())
	if err := res.Path.Validate(); err != nil {
		return res, &SyncError{Op: "publish", Path: res.Path, Err: err}
	}
	if res.Drift {
		g.logger.Warn("article moved since last publish; old record is kept",
			"id", snap.ID, "path", res.Path.String(), "stale_path", res.StalePath.String())
	}

	if err := g.tree.Update(ctx, res.Path, fieldmap.ToRemote(snap)); err != nil {
		return res, &SyncError{Op: "publish", Path: res.Path, Err: err}
	}

	res.Applied = a.MarkPublished(res.Path, snap.Revision)
	if !res.Applied {
		g.logger.Info("article edited during publish; left unpublished", "id", snap.ID)
	}
	g.logger.Debug("published article", "id", snap.ID, "path", res.Path.String())
	return res, nil
}

// Remove deletes the record at the article's current path. The article
// itself stays in memory and can be published again.
func (g *Gateway) Remove(ctx context.Context, a *article.Article) (Result, error) {
	if !a.BeginSync() {
		return Result{}, ErrSyncInProgress
	}
	defer a.EndSync()

	res := g.result(a.Path(), a.PublishedPath())
	if err := res.Path.Validate(); err != nil {
		return res, &SyncError{Op: "remove", Path: res.Path, Err: err}
	}
	if res.Drift {
		g.logger.Warn("removing current path but article was published elsewhere",
			"id", a.ID(), "path", res.Path.String(), "stale_path", res.StalePath.String())
	}

	if err := g.tree.Remove(ctx, res.Path); err != nil {
		return res, &SyncError{Op: "remove", Path: res.Path, Err: err}
	}

	a.MarkRemoved()
	res.Applied = true
	g.logger.Debug("removed article", "id", a.ID(), "path", res.Path.String())
	return res, nil
}

// result works out the target path and compares it with the last published
// one.
func (g *Gateway) result(current, published remote.Path) Result {
	if g.LocationOverride != "" {
		current.Location = g.LocationOverride
	}

	res := Result{Path: current}
	if !published.IsZero() && published != current {
		res.Drift = true
		res.StalePath = published
	}
	return res
}
