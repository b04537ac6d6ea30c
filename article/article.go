// Package article holds the in-memory model of one editable article: its
// fields, the rules that keep derived fields consistent, and the published
// flag that tracks whether the remote record reflects the local fields.
package article

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pevans/newsdesk/idgen"
	"github.com/pevans/newsdesk/markdown"
	"github.com/pevans/newsdesk/remote"
)

// Field names, as used by the rendering layer and the search grammar.
const (
	FieldID        = "id"
	FieldLocation  = "location"
	FieldCategory  = "category"
	FieldTitle     = "title"
	FieldAuthor    = "author"
	FieldMD        = "md"
	FieldBody      = "body"
	FieldHasHTML   = "hasHTML"
	FieldFeatured  = "featured"
	FieldTimestamp = "timestamp"
	FieldDate      = "date"
	FieldImages    = "images"
	FieldVideos    = "videos"
	FieldPublished = "published"
)

// DateLayout is the human-readable date format shown in the editor.
const DateLayout = "2006-01-02T15:04:05.000"

// Defaults for a freshly created article.
const (
	DefaultLocation = "homepage"
	DefaultCategory = "General_Info"
	DefaultTitle    = "Untitled Article"
)

// Fields lists every field the rendering layer may read. All of them except
// id can be set.
func Fields() []string {
	return []string{
		FieldID, FieldLocation, FieldCategory, FieldTitle, FieldAuthor,
		FieldMD, FieldBody, FieldHasHTML, FieldFeatured, FieldTimestamp,
		FieldDate, FieldImages, FieldVideos,
	}
}

// Renderer turns markdown into HTML.
type Renderer interface {
	Render(markdown string) string
}

// IDGenerator produces ids for new articles.
type IDGenerator interface {
	Generate() string
}

// Config carries the collaborators shared by every article.
type Config struct {
	Taxonomy Taxonomy
	Renderer Renderer
	IDs      IDGenerator

	// Zone is used to display and parse dates. Defaults to UTC-8.
	Zone *time.Location

	// Now is the clock used for default timestamps.
	Now func() time.Time
}

// NewConfig returns a config with every collaborator set to its default.
func NewConfig() *Config {
	c := &Config{}
	c.fill()
	return c
}

func (c *Config) fill() {
	if c.Taxonomy == nil {
		c.Taxonomy = DefaultTaxonomy()
	}
	if c.Renderer == nil {
		c.Renderer = markdown.New()
	}
	if c.IDs == nil {
		c.IDs = idgen.New(nil)
	}
	if c.Zone == nil {
		c.Zone = time.FixedZone("UTC-8", -8*60*60)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// EventKind says what an Event reports.
type EventKind int

const (
	// FieldChanged is sent for each field a mutation touched, derived
	// fields included.
	FieldChanged EventKind = iota

	// PublishedChanged is sent whenever the published flag flips.
	PublishedChanged
)

// Event is delivered to subscribers after the article has been updated.
type Event struct {
	Kind      EventKind
	Article   *Article
	Field     string
	Published bool
}

// Article is one editable document. It is safe for concurrent use, although
// the editor only mutates a given article from one request at a time.
type Article struct {
	mu  sync.Mutex
	cfg *Config

	id        string
	location  string
	category  string
	title     string
	author    string
	md        string
	body      string
	hasHTML   bool
	featured  bool
	timestamp int64
	date      string
	images    []string
	videos    []string

	published     bool
	publishedPath remote.Path
	revision      uint64
	syncing       bool

	observers map[int]func(Event)
	nextObsID int
}

// New creates an unpublished article with default content. An empty id is
// replaced by a generated one.
func New(cfg *Config, id string) *Article {
	if cfg == nil {
		cfg = NewConfig()
	}
	cfg.fill()

	if id == "" {
		id = cfg.IDs.Generate()
	}

	location, category := DefaultLocation, DefaultCategory
	if !cfg.Taxonomy.Contains(location, category) {
		// A custom taxonomy without the default placement falls back to its
		// first entry.
		if len(cfg.Taxonomy) > 0 && len(cfg.Taxonomy[0].Categories) > 0 {
			location, category = cfg.Taxonomy[0].Location, cfg.Taxonomy[0].Categories[0]
		}
	}

	return &Article{
		cfg:       cfg,
		id:        id,
		location:  location,
		category:  category,
		title:     DefaultTitle,
		hasHTML:   true,
		timestamp: cfg.Now().Unix(),
		images:    []string{},
		videos:    []string{},
		observers: make(map[int]func(Event)),
	}
}

// Load builds an article from a remote record whose fields have already
// been translated to local names. The article starts out published at path.
// Fields that cannot be applied are skipped and reported; the article is
// usable either way.
func Load(cfg *Config, path remote.Path, fields map[string]any) (*Article, []error) {
	a := New(cfg, path.ID)
	a.location = path.Location
	a.category = path.Category

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var skipped []error
	for _, name := range names {
		if _, err := a.assign(name, fields[name], false); err != nil {
			skipped = append(skipped, err)
		}
	}

	// Articles written before markdown support only have HTML.
	if a.md == "" {
		a.md = a.body
	}

	a.published = true
	a.publishedPath = path
	return a, skipped
}

// ID returns the immutable id.
func (a *Article) ID() string {
	return a.id
}

// Path returns where the article would be published right now.
func (a *Article) Path() remote.Path {
	a.mu.Lock()
	defer a.mu.Unlock()
	return remote.Path{Location: a.location, Category: a.category, ID: a.id}
}

// PublishedPath returns the path of the last successful publish, or the zero
// path if the article is not on the remote store.
func (a *Article) PublishedPath() remote.Path {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.publishedPath
}

// Published reports whether the remote record reflects the local fields.
func (a *Article) Published() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.published
}

// Revision increases with every mutation.
func (a *Article) Revision() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.revision
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn is called without the article lock held.
func (a *Article) Subscribe(fn func(Event)) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextObsID
	a.nextObsID++
	a.observers[id] = fn

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.observers, id)
	}
}

// MarkPublished records a successful publish to path. It is ignored when
// the article was edited after revision was taken, so a late publish never
// hides a newer edit. It reports whether the flag was set.
func (a *Article) MarkPublished(path remote.Path, revision uint64) bool {
	a.mu.Lock()
	if a.revision != revision {
		a.mu.Unlock()
		return false
	}

	a.publishedPath = path
	events := a.setPublished(true)
	a.mu.Unlock()

	a.notify(events)
	return true
}

// MarkRemoved records that the remote record was deleted.
func (a *Article) MarkRemoved() {
	a.mu.Lock()
	a.publishedPath = remote.Path{}
	events := a.setPublished(false)
	a.mu.Unlock()

	a.notify(events)
}

// BeginSync claims the article for one publish or remove. It returns false
// if another one is still in flight.
func (a *Article) BeginSync() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.syncing {
		return false
	}
	a.syncing = true
	return true
}

// EndSync releases the claim taken by BeginSync.
func (a *Article) EndSync() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncing = false
}

// RefreshDate derives the display date from the timestamp. The editor does
// this when an article is opened; it is not an edit.
func (a *Article) RefreshDate() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.date = time.Unix(a.timestamp, 0).In(a.cfg.Zone).Format(DateLayout)
	return a.date
}

// Snapshot returns a copy of every field.
func (a *Article) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{
		ID:        a.id,
		Location:  a.location,
		Category:  a.category,
		Title:     a.title,
		Author:    a.author,
		MD:        a.md,
		Body:      a.body,
		HasHTML:   a.hasHTML,
		Featured:  a.featured,
		Timestamp: a.timestamp,
		Date:      a.date,
		Images:    append([]string{}, a.images...),
		Videos:    append([]string{}, a.videos...),
		Published: a.published,
		Revision:  a.revision,

		derivedDate: time.Unix(a.timestamp, 0).In(a.cfg.Zone).Format(DateLayout),
	}
	if !a.publishedPath.IsZero() {
		s.PublishedPath = a.publishedPath.String()
	}
	return s
}

// Value returns a field by name.
func (a *Article) Value(name string) (any, bool) {
	s := a.Snapshot()
	return s.Value(name)
}

// Text returns a field as searchable text.
func (a *Article) Text(name string) (string, bool) {
	s := a.Snapshot()
	return s.Text(name)
}

// setPublished flips the flag and returns the event to send. Callers hold
// the lock.
func (a *Article) setPublished(v bool) []Event {
	if a.published == v {
		return nil
	}
	a.published = v
	return []Event{{Kind: PublishedChanged, Article: a, Published: v}}
}

// touch records a mutation of fields and returns the events to send.
// Callers hold the lock.
func (a *Article) touch(fields ...string) []Event {
	a.revision++

	events := make([]Event, 0, len(fields)+1)
	for _, f := range fields {
		events = append(events, Event{Kind: FieldChanged, Article: a, Field: f})
	}
	return append(events, a.setPublished(false)...)
}

func (a *Article) notify(events []Event) {
	if len(events) == 0 {
		return
	}

	a.mu.Lock()
	observers := make([]func(Event), 0, len(a.observers))
	ids := make([]int, 0, len(a.observers))
	for id := range a.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		observers = append(observers, a.observers[id])
	}
	a.mu.Unlock()

	for _, ev := range events {
		for _, fn := range observers {
			fn(ev)
		}
	}
}

// Snapshot is a point-in-time copy of an article, used for rendering,
// serialization and search.
type Snapshot struct {
	ID            string   `json:"id"`
	Location      string   `json:"location"`
	Category      string   `json:"category"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	MD            string   `json:"md"`
	Body          string   `json:"body"`
	HasHTML       bool     `json:"hasHTML"`
	Featured      bool     `json:"featured"`
	Timestamp     int64    `json:"timestamp"`
	Date          string   `json:"date,omitempty"`
	Images        []string `json:"images"`
	Videos        []string `json:"videos"`
	Published     bool     `json:"published"`
	PublishedPath string   `json:"published_path,omitempty"`
	Revision      uint64   `json:"revision"`

	// derivedDate is the timestamp in date form, searched when Date has
	// not been filled in yet.
	derivedDate string
}

// Path returns the remote path for the snapshot's placement.
func (s Snapshot) Path() remote.Path {
	return remote.Path{Location: s.Location, Category: s.Category, ID: s.ID}
}

// Value returns a field by local name.
func (s Snapshot) Value(name string) (any, bool) {
	switch name {
	case FieldID:
		return s.ID, true
	case FieldLocation:
		return s.Location, true
	case FieldCategory:
		return s.Category, true
	case FieldTitle:
		return s.Title, true
	case FieldAuthor:
		return s.Author, true
	case FieldMD:
		return s.MD, true
	case FieldBody:
		return s.Body, true
	case FieldHasHTML:
		return s.HasHTML, true
	case FieldFeatured:
		return s.Featured, true
	case FieldTimestamp:
		return s.Timestamp, true
	case FieldDate:
		return s.Date, true
	case FieldImages:
		return append([]string{}, s.Images...), true
	case FieldVideos:
		return append([]string{}, s.Videos...), true
	case FieldPublished:
		return s.Published, true
	}
	return nil, false
}

// Text returns a field as text. Flags become "true"/"false", the timestamp
// its decimal form and lists their items joined by spaces. An unset date
// reads as the timestamp in date form.
func (s Snapshot) Text(name string) (string, bool) {
	if name == FieldDate && s.Date == "" {
		return s.derivedDate, true
	}
	v, ok := s.Value(name)
	if !ok {
		return "", false
	}

	switch vv := v.(type) {
	case string:
		return vv, true
	case bool:
		return strconv.FormatBool(vv), true
	case int64:
		return strconv.FormatInt(vv, 10), true
	case []string:
		return strings.Join(vv, " "), true
	}
	return "", false
}
