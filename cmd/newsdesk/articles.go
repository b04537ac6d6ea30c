package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pevans/newsdesk/article"
	"github.com/pevans/newsdesk/preview"
	"github.com/pevans/newsdesk/search"
)

func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List articles, optionally filtered by a {field terms} query",
		Example: `  newsdesk list
  newsdesk list "{category clubs} {title robot}"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(format) {
				return fmt.Errorf("invalid format %q (use table, compact or json)", format)
			}

			a, err := setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			q := search.Parse(strings.Join(args, " "))
			for _, err := range q.Validate(append(article.Fields(), article.FieldPublished)) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}

			previews := preview.BuildAll(a.store.Filter(q), time.Now())
			return printPreviews(cmd.OutOrStdout(), format, previews)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, compact or json")
	return cmd
}

func newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Write an article to its location/category in the remote tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			art, err := a.store.Get(args[0])
			if err != nil {
				return err
			}
			res, err := a.gateway.Publish(cmd.Context(), art)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), "Published", res)
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete an article's record from the remote tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			art, err := a.store.Get(args[0])
			if err != nil {
				return err
			}
			res, err := a.gateway.Remove(cmd.Context(), art)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), "Removed", res)
			return nil
		},
	}
}

func validFormat(format string) bool {
	switch format {
	case "table", "compact", "json":
		return true
	}
	return false
}
