package article

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pevans/newsdesk/media"
)

// AttachMedia resolves url into an attachment. With persist set the id is
// appended to images or videos and the article becomes unpublished;
// otherwise the article is untouched and the caller only gets the display
// information.
func (a *Article) AttachMedia(url string, persist bool) (media.Attachment, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return media.Attachment{}, &ValidationError{Field: "media", Reason: "empty url"}
	}

	att := media.Resolve(url)
	if !persist {
		return att, nil
	}

	a.mu.Lock()
	list := att.Kind.List()
	if att.Kind == media.KindVideo {
		a.videos = append(a.videos, att.ID)
	} else {
		a.images = append(a.images, att.ID)
	}
	events := a.touch(list)
	a.mu.Unlock()

	a.notify(events)
	return att, nil
}

// DetachMedia removes the first occurrence of id from the list of kind. It
// reports whether anything was removed; only a removal marks the article
// unpublished.
func (a *Article) DetachMedia(kind media.Kind, id string) (bool, error) {
	if kind != media.KindImage && kind != media.KindVideo {
		return false, &ValidationError{Field: "media", Reason: fmt.Sprintf("unknown media kind %q", kind)}
	}

	a.mu.Lock()

	target := &a.images
	if kind == media.KindVideo {
		target = &a.videos
	}

	i := slices.Index(*target, id)
	if i < 0 {
		a.mu.Unlock()
		return false, nil
	}
	*target = slices.Delete(*target, i, i+1)
	events := a.touch(kind.List())
	a.mu.Unlock()

	a.notify(events)
	return true, nil
}

// Media lists every attachment, images first, with their display URLs.
func (a *Article) Media() []media.Attachment {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]media.Attachment, 0, len(a.images)+len(a.videos))
	for _, id := range a.images {
		out = append(out, media.Attachment{Kind: media.KindImage, ID: id, DisplayURL: media.Display(media.KindImage, id)})
	}
	for _, id := range a.videos {
		out = append(out, media.Attachment{Kind: media.KindVideo, ID: id, DisplayURL: media.Display(media.KindVideo, id)})
	}
	return out
}
