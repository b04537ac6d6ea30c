// Package preview builds the compact article cards shown in the article
// list.
package preview

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"

	"github.com/pevans/newsdesk/article"
)

// MaxLength caps every text field of a preview, counted in characters.
const MaxLength = 300

// Preview is the list-view projection of an article.
type Preview struct {
	ID         string `json:"id"`
	Location   string `json:"location"`
	Category   string `json:"category"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Excerpt    string `json:"excerpt"`
	Background string `json:"background,omitempty"`
	Featured   bool   `json:"featured"`
	Published  bool   `json:"published"`
	Timestamp  int64  `json:"timestamp"`
	Age        string `json:"age"`
}

// Build projects snap as of now. The excerpt is the visible text of the
// rendered body; the background is the first image, if any.
func Build(snap article.Snapshot, now time.Time) Preview {
	p := Preview{
		ID:        snap.ID,
		Location:  snap.Location,
		Category:  snap.Category,
		Title:     Truncate(snap.Title, MaxLength),
		Author:    Truncate(snap.Author, MaxLength),
		Excerpt:   Truncate(PlainText(snap.Body), MaxLength),
		Featured:  snap.Featured,
		Published: snap.Published,
		Timestamp: snap.Timestamp,
		Age:       humanize.RelTime(time.Unix(snap.Timestamp, 0), now, "ago", "from now"),
	}
	if len(snap.Images) > 0 {
		p.Background = snap.Images[0]
	}
	return p
}

// BuildAll projects every article, keeping their order.
func BuildAll(articles []*article.Article, now time.Time) []Preview {
	out := make([]Preview, 0, len(articles))
	for _, a := range articles {
		out = append(out, Build(a.Snapshot(), now))
	}
	return out
}

// PlainText strips markup from an HTML fragment and collapses whitespace.
// Input that cannot be parsed is returned as is.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Truncate shortens s to at most n characters without splitting a
// multi-byte character.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
