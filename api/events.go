package api

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/pevans/newsdesk/article"
)

// eventBuffer is how many notifications may queue for a slow client before
// further ones are dropped.
const eventBuffer = 64

// Server-sent event names.
const (
	eventSnapshot  = "snapshot"
	eventField     = "field"
	eventPublished = "published"
)

// FieldEvent is the data of a "field" event.
type FieldEvent struct {
	ID    string `json:"id"`
	Field string `json:"field"`
}

// PublishedEvent is the data of a "published" event.
type PublishedEvent struct {
	ID        string `json:"id"`
	Published bool   `json:"published"`
}

// HandleArticleEvents handles GET /api/v1/articles/{id}/events. It streams
// the article's change notifications as server-sent events, starting with
// a "snapshot" of its current state, until the client goes away.
func (s *Server) HandleArticleEvents(c *gin.Context) {
	a, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	events := make(chan article.Event, eventBuffer)
	cancel := a.Subscribe(func(ev article.Event) {
		select {
		case events <- ev:
		default:
			s.logger.Warn("dropped article event", "id", a.ID(), "kind", ev.Kind)
		}
	})
	defer cancel()

	// Subscribed before the snapshot is taken, so nothing falls between them.
	c.SSEvent(eventSnapshot, a.Snapshot())
	c.Writer.Flush()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case ev := <-events:
			switch ev.Kind {
			case article.PublishedChanged:
				c.SSEvent(eventPublished, PublishedEvent{ID: a.ID(), Published: ev.Published})
			default:
				c.SSEvent(eventField, FieldEvent{ID: a.ID(), Field: ev.Field})
			}
			return true
		}
	})
}
