package article

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// SetField assigns value to the named field and recomputes whatever derives
// from it:
//
//   - md re-renders body
//   - category moves the article to the location that lists it
//   - location keeps category when it belongs there, else resets it to the
//     location's first category
//   - date recomputes timestamp (timestamp never rewrites date)
//
// A successful call marks the article unpublished. Unknown fields, the
// immutable id and values of the wrong type are refused with a
// *ValidationError; an unlisted category with an *AmbiguousCategoryError.
// Refused calls change nothing.
func (a *Article) SetField(name string, value any) error {
	a.mu.Lock()
	changed, err := a.assign(name, value, true)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	events := a.touch(changed...)
	a.mu.Unlock()

	a.notify(events)
	return nil
}

// assign applies one field and returns the names of every field it changed.
// derive is false while loading a remote record, where stored values are
// taken as they are. Callers hold the lock or own the article exclusively.
func (a *Article) assign(name string, value any, derive bool) ([]string, error) {
	switch name {
	case FieldID:
		return nil, &ValidationError{Field: name, Reason: "id cannot be changed"}

	case FieldTitle, FieldAuthor, FieldBody:
		s, err := asString(name, value)
		if err != nil {
			return nil, err
		}
		switch name {
		case FieldTitle:
			a.title = s
		case FieldAuthor:
			a.author = s
		case FieldBody:
			a.body = s
		}
		return []string{name}, nil

	case FieldMD:
		s, err := asString(name, value)
		if err != nil {
			return nil, err
		}
		a.md = s
		if !derive {
			return []string{FieldMD}, nil
		}
		a.body = a.cfg.Renderer.Render(s)
		return []string{FieldMD, FieldBody}, nil

	case FieldHasHTML, FieldFeatured:
		b, err := asBool(name, value)
		if err != nil {
			return nil, err
		}
		if name == FieldHasHTML {
			a.hasHTML = b
		} else {
			a.featured = b
		}
		return []string{name}, nil

	case FieldTimestamp:
		ts, err := asInt64(name, value)
		if err != nil {
			return nil, err
		}
		a.timestamp = ts
		return []string{FieldTimestamp}, nil

	case FieldDate:
		s, err := asString(name, value)
		if err != nil {
			return nil, err
		}
		t, err := parseDate(s, a.cfg.Zone)
		if err != nil {
			return nil, &ValidationError{Field: name, Reason: err.Error()}
		}
		a.date = s
		a.timestamp = int64(math.Round(float64(t.UnixMilli()) / 1000))
		return []string{FieldDate, FieldTimestamp}, nil

	case FieldCategory:
		s, err := asString(name, value)
		if err != nil {
			return nil, err
		}
		location, ok := a.cfg.Taxonomy.LocationOf(s)
		if !ok {
			return nil, &AmbiguousCategoryError{Category: s}
		}
		a.category = s
		a.location = location
		return []string{FieldCategory, FieldLocation}, nil

	case FieldLocation:
		s, err := asString(name, value)
		if err != nil {
			return nil, err
		}
		categories := a.cfg.Taxonomy.Categories(s)
		if len(categories) == 0 {
			return nil, &ValidationError{Field: name, Reason: fmt.Sprintf("unknown location %q", s)}
		}
		a.location = s
		if !a.cfg.Taxonomy.Contains(s, a.category) {
			a.category = categories[0]
			return []string{FieldLocation, FieldCategory}, nil
		}
		return []string{FieldLocation}, nil

	case FieldImages, FieldVideos:
		list, err := asStrings(name, value)
		if err != nil {
			return nil, err
		}
		if name == FieldImages {
			a.images = list
		} else {
			a.videos = list
		}
		return []string{name}, nil
	}

	return nil, &ValidationError{Field: name, Reason: "unknown field"}
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseDate reads the editor's own formats first and falls back to
// dateparse for anything a person might type.
func parseDate(s string, zone *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, zone); err == nil {
			return t, nil
		}
	}

	t, err := dateparse.ParseIn(s, zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return t, nil
}

func asString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", typeError(field, "a string", v)
	}
	return s, nil
}

func asBool(field string, v any) (bool, error) {
	switch vv := v.(type) {
	case bool:
		return vv, nil
	case string:
		b, err := strconv.ParseBool(vv)
		if err != nil {
			return false, typeError(field, "a boolean", v)
		}
		return b, nil
	}
	return false, typeError(field, "a boolean", v)
}

func asInt64(field string, v any) (int64, error) {
	switch vv := v.(type) {
	case int:
		return int64(vv), nil
	case int32:
		return int64(vv), nil
	case int64:
		return vv, nil
	case float64:
		if vv != math.Trunc(vv) {
			return 0, typeError(field, "a whole number", v)
		}
		return int64(vv), nil
	case json.Number:
		n, err := vv.Int64()
		if err != nil {
			return 0, typeError(field, "a whole number", v)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(vv), 10, 64)
		if err != nil {
			return 0, typeError(field, "a whole number", v)
		}
		return n, nil
	}
	return 0, typeError(field, "a whole number", v)
}

func asStrings(field string, v any) ([]string, error) {
	switch vv := v.(type) {
	case []string:
		return append([]string{}, vv...), nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, typeError(field, "a list of strings", v)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return []string{}, nil
	}
	return nil, typeError(field, "a list of strings", v)
}

func typeError(field, want string, got any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}
