package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pevans/newsdesk/gateway"
	"github.com/pevans/newsdesk/preview"
)

func printPreviews(w io.Writer, format string, previews []preview.Preview) error {
	switch format {
	case "json":
		return printPreviewsJSON(w, previews)
	case "compact":
		printPreviewsCompact(w, previews)
	default:
		printPreviewsTable(w, previews)
	}
	return nil
}

// printPreviewsTable prints previews in human-readable form
func printPreviewsTable(w io.Writer, previews []preview.Preview) {
	if len(previews) == 0 {
		fmt.Fprintln(w, "No articles to display.")
		return
	}

	fmt.Fprintf(w, "%d articles\n\n", len(previews))

	for _, p := range previews {
		marker := " "
		if p.Published {
			marker = "*"
		}
		if p.Featured {
			marker += "!"
		} else {
			marker += " "
		}

		title := p.Title
		if title == "" {
			title = "(untitled)"
		}

		fmt.Fprintf(w, "%s %s\n", marker, preview.Truncate(title, 70))
		fmt.Fprintf(w, "   %s/%s | %s | %s\n", p.Location, p.Category, p.Author, p.Age)
		if p.Excerpt != "" {
			fmt.Fprintf(w, "   %s\n", indent(wrapText(preview.Truncate(p.Excerpt, 150), 76), "   "))
		}
		fmt.Fprintf(w, "   ID: %s\n\n", p.ID)
	}
}

// printPreviewsJSON prints previews in JSON format
func printPreviewsJSON(w io.Writer, previews []preview.Preview) error {
	output := map[string]any{
		"articles": previews,
		"total":    len(previews),
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	fmt.Fprintln(w, string(data))
	return nil
}

// printPreviewsCompact prints one line per article
func printPreviewsCompact(w io.Writer, previews []preview.Preview) {
	if len(previews) == 0 {
		fmt.Fprintln(w, "No articles to display.")
		return
	}

	for _, p := range previews {
		state := "draft"
		if p.Published {
			state = "live"
		}
		fmt.Fprintf(w, "%s %s [%s/%s, %s]\n", p.ID, p.Title, p.Location, p.Category, state)
	}
}

func printResult(w io.Writer, verb string, res gateway.Result) {
	fmt.Fprintf(w, "%s %s\n", verb, res.Path)
	if res.Drift {
		fmt.Fprintf(w, "Warning: article was last published at %s; that record was left in place\n", res.StalePath)
	}
	if !res.Applied {
		fmt.Fprintln(w, "Warning: article changed while syncing and is still marked unpublished")
	}
}

// wrapText wraps text to a maximum line width
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n")
}

func indent(text, prefix string) string {
	return strings.ReplaceAll(text, "\n", "\n"+prefix)
}
