package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc map[string]string

func (d doc) Text(field string) (string, bool) {
	v, ok := d[field]
	return v, ok
}

// TestParse verifies clause extraction and term normalization.
func TestParse(t *testing.T) {
	q := Parse("news {title Foo|bar} stray {author alice}{broken")

	require.Len(t, q.Clauses, 2)
	assert.Equal(t, Clause{Field: "title", Terms: []string{"foo", "bar"}, Token: "{title Foo|bar}"}, q.Clauses[0])
	assert.Equal(t, Clause{Field: "author", Terms: []string{"alice"}, Token: "{author alice}"}, q.Clauses[1])
}

// TestParse_Ignored verifies malformed and empty clauses add no constraint.
func TestParse_Ignored(t *testing.T) {
	for _, s := range []string{"", "plain words", "{title}", "{title |}", "{ti-tle foo}", "{title  }"} {
		q := Parse(s)
		assert.True(t, q.IsEmpty(), s)
		assert.True(t, q.Match(doc{}), s)
	}
}

// TestMatch_OrAcrossTerms verifies any term may satisfy a clause.
func TestMatch_OrAcrossTerms(t *testing.T) {
	q := Parse("{title foo|bar}")

	assert.True(t, q.Match(doc{"title": "a Foo day"}))
	assert.True(t, q.Match(doc{"title": "BARN"}))
	assert.False(t, q.Match(doc{"title": "baz"}))
}

// TestMatch_AndAcrossClauses verifies every clause must be satisfied.
func TestMatch_AndAcrossClauses(t *testing.T) {
	q := Parse("{title foo}{author alice}")

	assert.True(t, q.Match(doc{"title": "foo", "author": "Alice Bobson"}))
	assert.False(t, q.Match(doc{"title": "foo", "author": "Bob"}))
	assert.False(t, q.Match(doc{"title": "bar", "author": "Alice"}))
}

// TestMatch_UnknownField verifies a missing field is a non-match rather than
// a failure.
func TestMatch_UnknownField(t *testing.T) {
	q := Parse("{colour red}")

	assert.False(t, q.Match(doc{"title": "red"}))
}

// TestMatch_TermsWithSpaces verifies everything up to the closing brace is
// part of the term list.
func TestMatch_TermsWithSpaces(t *testing.T) {
	q := Parse("{title big game|bake sale}")

	assert.True(t, q.Match(doc{"title": "The Bake Sale is Friday"}))
	assert.False(t, q.Match(doc{"title": "game day"}))
}

// TestValidate verifies unknown fields are reported per clause.
func TestValidate(t *testing.T) {
	q := Parse("{title a}{colour b}{size c}")

	errs := q.Validate([]string{"title", "author"})

	require.Len(t, errs, 2)
	var verr *ValidationError
	require.ErrorAs(t, errs[0], &verr)
	assert.Equal(t, "colour", verr.Field)
	assert.Equal(t, "{colour b}", verr.Token)
	assert.Equal(t, `unknown field "size" in {size c}`, errs[1].Error())
}

// TestFilter verifies order is preserved.
func TestFilter(t *testing.T) {
	docs := []doc{
		{"title": "one foo"},
		{"title": "two"},
		{"title": "three foo"},
	}

	got := Filter(Parse("{title foo}"), docs)

	assert.Equal(t, []doc{docs[0], docs[2]}, got)
	assert.Len(t, Filter(Parse(""), docs), 3)
}
