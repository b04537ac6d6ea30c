package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned when a path is missing one of its segments.
var ErrInvalidPath = errors.New("remote path requires location, category and id")

// Record is one leaf of the remote tree: a flat mapping from remote field
// names to scalar or list values.
type Record map[string]any

// Path locates a record in the tree as location/category/id.
type Path struct {
	Location string
	Category string
	ID       string
}

// String returns the slash-joined form of the path.
func (p Path) String() string {
	return strings.Join([]string{p.Location, p.Category, p.ID}, "/")
}

// Validate checks that every segment is present and free of separators.
func (p Path) Validate() error {
	for _, seg := range []string{p.Location, p.Category, p.ID} {
		if seg == "" {
			return ErrInvalidPath
		}
		if strings.Contains(seg, "/") {
			return fmt.Errorf("invalid path segment %q: %w", seg, ErrInvalidPath)
		}
	}
	return nil
}

// IsZero reports whether no segment is set.
func (p Path) IsZero() bool {
	return p == Path{}
}

// Entry is a record together with its id, as returned by ReadAll.
type Entry struct {
	ID     string
	Record Record
}

// Tree is the remote key/value hierarchy articles are published to.
type Tree interface {
	// ReadAll returns every record stored under location/category.
	ReadAll(ctx context.Context, location, category string) ([]Entry, error)

	// Read returns the record at path. The boolean is false when nothing is
	// stored there.
	Read(ctx context.Context, path Path) (Record, bool, error)

	// Update merges fields into the record at path, creating it if needed.
	// Fields not named are left untouched.
	Update(ctx context.Context, path Path, fields Record) error

	// Remove deletes the whole record at path. Removing a missing record is
	// not an error.
	Remove(ctx context.Context, path Path) error
}

// merge copies src into dst, allocating dst when nil.
func merge(dst, src Record) Record {
	if dst == nil {
		dst = make(Record, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// clone returns a shallow copy of r with list values copied as well.
func clone(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		switch vv := v.(type) {
		case []string:
			out[k] = append([]string(nil), vv...)
		case []any:
			out[k] = append([]any(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}
