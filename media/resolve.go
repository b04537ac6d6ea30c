// Package media turns pasted URLs and uploaded files into attachments an
// article can reference.
package media

import (
	"fmt"
	"regexp"
)

// Kind says which article list an attachment belongs to.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// List returns the name of the article field holding ids of this kind.
func (k Kind) List() string {
	switch k {
	case KindVideo:
		return "videos"
	default:
		return "images"
	}
}

// ParseKind accepts a kind or its list name ("image", "images", "video",
// "videos").
func ParseKind(s string) (Kind, error) {
	switch s {
	case "image", "images":
		return KindImage, nil
	case "video", "videos":
		return KindVideo, nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}

// Attachment is a resolved media reference. ID is what gets stored on the
// article; DisplayURL is what a preview shows.
type Attachment struct {
	Kind       Kind   `json:"kind"`
	ID         string `json:"id"`
	DisplayURL string `json:"display_url"`
}

var youtubePattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]+)`)

// ThumbnailURL returns the preview image for a YouTube video id.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/sddefault.jpg", videoID)
}

// Resolve classifies url. YouTube links become videos identified by their
// short id and displayed through the thumbnail; everything else is an image
// identified and displayed by the URL itself.
func Resolve(url string) Attachment {
	if m := youtubePattern.FindStringSubmatch(url); m != nil {
		return Attachment{
			Kind:       KindVideo,
			ID:         m[1],
			DisplayURL: ThumbnailURL(m[1]),
		}
	}

	return Attachment{
		Kind:       KindImage,
		ID:         url,
		DisplayURL: url,
	}
}

// Display returns the display URL for an id already stored in the list of
// the given kind.
func Display(kind Kind, id string) string {
	if kind == KindVideo {
		return ThumbnailURL(id)
	}
	return id
}
