// Package importer turns syndication feed items and web pages into article
// drafts, so an editor can start from existing material instead of a blank
// page.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/pevans/newsdesk/article"
)

// maxPageSize caps how much of a page is read.
const maxPageSize = 5 << 20

// Draft is imported content ready to be applied to a new article.
type Draft struct {
	Title     string
	Author    string
	Markdown  string
	Images    []string
	Published time.Time
	Source    string
}

// Apply copies the draft into a. Empty draft fields leave a's values alone.
func (d Draft) Apply(a *article.Article) error {
	if d.Title != "" {
		if err := a.SetField(article.FieldTitle, d.Title); err != nil {
			return err
		}
	}
	if d.Author != "" {
		if err := a.SetField(article.FieldAuthor, d.Author); err != nil {
			return err
		}
	}
	if d.Markdown != "" {
		if err := a.SetField(article.FieldMD, d.Markdown); err != nil {
			return err
		}
	}
	if len(d.Images) > 0 {
		if err := a.SetField(article.FieldImages, d.Images); err != nil {
			return err
		}
	}
	if !d.Published.IsZero() {
		if err := a.SetField(article.FieldTimestamp, d.Published.Unix()); err != nil {
			return err
		}
	}
	return nil
}

// Importer fetches feeds and pages over HTTP.
type Importer struct {
	client    *http.Client
	converter *md.Converter
	logger    *slog.Logger
}

// New creates an importer. A nil client gets a 30 second timeout; a nil
// logger uses slog.Default().
func New(client *http.Client, logger *slog.Logger) *Importer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		client:    client,
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// FromFeed fetches an RSS or Atom feed and returns one draft per item.
func (im *Importer) FromFeed(ctx context.Context, feedURL string) ([]Draft, error) {
	fp := gofeed.NewParser()
	fp.Client = im.client
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	drafts := make([]Draft, 0, len(feed.Items))
	for _, item := range feed.Items {
		drafts = append(drafts, im.DraftFromItem(item))
	}
	im.logger.Debug("imported feed", "url", feedURL, "items", len(drafts))
	return drafts, nil
}

// DraftFromItem converts a feed item. gofeed normalizes RSS and Atom, so
// both formats are handled the same way: full content is preferred over the
// description, and authors fall back to Dublin Core creators.
func (im *Importer) DraftFromItem(item *gofeed.Item) Draft {
	d := Draft{
		Title:  strings.TrimSpace(item.Title),
		Source: item.Link,
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}
	d.Markdown = im.toMarkdown(body)

	var authors []string
	if item.Author != nil && item.Author.Name != "" {
		authors = append(authors, item.Author.Name)
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" && !containsFold(authors, author.Name) {
			authors = append(authors, author.Name)
		}
	}
	if item.DublinCoreExt != nil {
		for _, creator := range item.DublinCoreExt.Creator {
			if creator != "" && !containsFold(authors, creator) {
				authors = append(authors, creator)
			}
		}
	}
	d.Author = strings.Join(authors, ", ")

	if item.Image != nil && item.Image.URL != "" {
		d.Images = append(d.Images, item.Image.URL)
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" && !containsFold(d.Images, enc.URL) {
			d.Images = append(d.Images, enc.URL)
		}
	}

	switch {
	case item.PublishedParsed != nil:
		d.Published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		d.Published = *item.UpdatedParsed
	}
	return d
}

// FromPage fetches a web page and extracts its main content.
func (im *Importer) FromPage(ctx context.Context, pageURL string) (Draft, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Draft{}, fmt.Errorf("invalid URL: %s", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "newsdesk/1.0")

	resp, err := im.client.Do(req)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Draft{}, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return Draft{}, fmt.Errorf("failed to read page: %w", err)
	}

	return im.DraftFromHTML(data, u)
}

// DraftFromHTML extracts the readable part of a page. When readability
// finds no title, the page's <title> or first <h1> is used.
func (im *Importer) DraftFromHTML(data []byte, pageURL *url.URL) (Draft, error) {
	parsed, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to extract content: %w", err)
	}

	d := Draft{
		Title:    strings.TrimSpace(parsed.Title),
		Author:   strings.TrimSpace(parsed.Byline),
		Markdown: im.toMarkdown(parsed.Content),
	}
	if pageURL != nil {
		d.Source = pageURL.String()
	}
	if parsed.Image != "" {
		d.Images = []string{parsed.Image}
	}

	if d.Title == "" {
		d.Title = fallbackTitle(data)
	}
	return d, nil
}

func (im *Importer) toMarkdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	out, err := im.converter.ConvertString(html)
	if err != nil {
		im.logger.Warn("failed to convert html to markdown; keeping html", "error", err)
		return html
	}
	return strings.TrimSpace(out)
}

func fallbackTitle(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
