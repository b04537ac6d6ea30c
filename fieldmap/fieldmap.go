// Package fieldmap translates article fields between their local names and
// the names used by records in the remote tree.
package fieldmap

import (
	"reflect"

	"github.com/pevans/newsdesk/remote"
)

// Pair links a local field name to its remote counterpart.
type Pair struct {
	Local  string
	Remote string
}

// pairs is the translation table. The same ordered list serves both
// directions.
var pairs = []Pair{
	{"title", "articleTitle"},
	{"images", "articleImages"},
	{"videos", "articleVideoIDs"},
	{"author", "articleAuthor"},
	{"body", "articleBody"},
	{"md", "articleMd"},
	{"hasHTML", "hasHTML"},
	{"featured", "isFeatured"},
	{"timestamp", "articleUnixEpoch"},
}

// Pairs returns a copy of the translation table in order.
func Pairs() []Pair {
	return append([]Pair(nil), pairs...)
}

// Source is anything that can report a value by local field name.
type Source interface {
	Value(local string) (any, bool)
}

// ToRemote builds a remote record from every mapped field src defines.
func ToRemote(src Source) remote.Record {
	rec := make(remote.Record, len(pairs))
	for _, p := range pairs {
		if v, ok := src.Value(p.Local); ok {
			rec[p.Remote] = v
		}
	}
	return rec
}

// FromRemote returns the local-named fields of rec. Only truthy remote values
// are copied; missing or falsy ones are omitted rather than defaulted.
func FromRemote(rec remote.Record) map[string]any {
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		if v, ok := rec[p.Remote]; ok && Truthy(v) {
			fields[p.Local] = v
		}
	}
	return fields
}

// Keys returns the remote keys present in rec, in table order.
func Keys(rec remote.Record) []string {
	keys := make([]string, 0, len(rec))
	for _, p := range pairs {
		if _, ok := rec[p.Remote]; ok {
			keys = append(keys, p.Remote)
		}
	}
	return keys
}

// RemoteName returns the remote name for a local field.
func RemoteName(local string) (string, bool) {
	for _, p := range pairs {
		if p.Local == local {
			return p.Remote, true
		}
	}
	return "", false
}

// Truthy reports whether v counts as set: non-empty strings and lists, true,
// and non-zero numbers.
func Truthy(v any) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case string:
		return vv != ""
	case bool:
		return vv
	case int:
		return vv != 0
	case int32:
		return vv != 0
	case int64:
		return vv != 0
	case float32:
		return vv != 0
	case float64:
		return vv != 0
	case []string:
		return len(vv) > 0
	case []any:
		return len(vv) > 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return !rv.IsZero()
}
