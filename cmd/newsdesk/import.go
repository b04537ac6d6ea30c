package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pevans/newsdesk/article"
	"github.com/pevans/newsdesk/importer"
	"github.com/pevans/newsdesk/preview"
	"github.com/pevans/newsdesk/store"
)

// importOptions holds the flags shared by the import subcommands.
type importOptions struct {
	category string
	limit    int
	dryRun   bool
}

func newImportCmd() *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create articles from a feed or a web page",
	}
	cmd.PersistentFlags().StringVar(&opts.category, "category", "", "category for imported articles (location follows from it)")
	cmd.PersistentFlags().IntVar(&opts.limit, "limit", 0, "import at most this many feed items (0 for all)")
	cmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "print the drafts without creating or publishing anything")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "feed <url>",
			Short: "Import every item of an RSS, Atom or JSON feed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runImport(cmd, opts, func(ctx context.Context, im *importer.Importer) ([]importer.Draft, error) {
					drafts, err := im.FromFeed(ctx, args[0])
					if err != nil {
						return nil, err
					}
					if opts.limit > 0 && len(drafts) > opts.limit {
						drafts = drafts[:opts.limit]
					}
					return drafts, nil
				})
			},
		},
		&cobra.Command{
			Use:   "page <url>",
			Short: "Import the readable content of a web page",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runImport(cmd, opts, func(ctx context.Context, im *importer.Importer) ([]importer.Draft, error) {
					d, err := im.FromPage(ctx, args[0])
					if err != nil {
						return nil, err
					}
					return []importer.Draft{d}, nil
				})
			},
		},
	)
	return cmd
}

// runImport fetches drafts, turns each into a new article and publishes it.
// Articles that fail to publish are reported and the rest carry on.
func runImport(cmd *cobra.Command, opts *importOptions, fetch func(context.Context, *importer.Importer) ([]importer.Draft, error)) error {
	ctx := cmd.Context()
	a, err := setup(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	im := importer.New(nil, a.logger)
	drafts, err := fetch(ctx, im)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.dryRun {
		printDrafts(out, drafts)
		return nil
	}

	var failed int
	for _, d := range drafts {
		art, err := createFromDraft(a.store, d, opts.category)
		if err != nil {
			return err
		}
		res, err := a.gateway.Publish(ctx, art)
		if err != nil {
			a.logger.Error("failed to publish imported article", "id", art.ID(), "source", d.Source, "error", err)
			failed++
			continue
		}
		printResult(out, "Imported", res)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imported articles failed to publish", failed, len(drafts))
	}
	return nil
}

// createFromDraft adds a new article to s and fills it from d.
func createFromDraft(s *store.Store, d importer.Draft, category string) (*article.Article, error) {
	art, err := s.Create()
	if err != nil {
		return nil, err
	}
	if category != "" {
		if err := art.SetField(article.FieldCategory, category); err != nil {
			return nil, err
		}
	}
	if d.Markdown == "" {
		if err := art.SetField(article.FieldMD, ""); err != nil {
			return nil, err
		}
	}
	if err := d.Apply(art); err != nil {
		return nil, fmt.Errorf("failed to apply draft %q: %w", d.Title, err)
	}
	return art, nil
}

func printDrafts(w io.Writer, drafts []importer.Draft) {
	if len(drafts) == 0 {
		fmt.Fprintln(w, "No drafts to import.")
		return
	}
	for _, d := range drafts {
		fmt.Fprintf(w, "%s\n", d.Title)
		if !d.Published.IsZero() {
			fmt.Fprintf(w, "   %s | %s\n", d.Author, d.Published.Format(time.DateTime))
		} else if d.Author != "" {
			fmt.Fprintf(w, "   %s\n", d.Author)
		}
		if d.Source != "" {
			fmt.Fprintf(w, "   Source: %s\n", d.Source)
		}
		fmt.Fprintf(w, "   %s\n\n", preview.Truncate(d.Markdown, 150))
	}
}
