// Package search evaluates editor search queries against articles.
//
// A query is a run of clauses of the form {field term1|term2|...}. An
// article matches when every clause matches, and a clause matches when the
// named field contains any of its terms, ignoring case. Text outside clauses
// is ignored, so an empty or free-text query matches everything.
package search

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var clausePattern = regexp.MustCompile(`\{(\w+) (.*?)\}`)

// Document is anything whose fields can be read as text.
type Document interface {
	Text(field string) (string, bool)
}

// Clause is one {field terms} constraint. Terms are lowercased.
type Clause struct {
	Field string
	Terms []string
	Token string
}

// Query is a parsed search expression.
type Query struct {
	Clauses []Clause
}

// ValidationError reports a clause naming a field articles do not have.
// Such clauses never match; the error lets callers tell the operator why.
type ValidationError struct {
	Token string
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unknown field %q in %s", e.Field, e.Token)
}

// Parse extracts every well-formed clause from s. Blank terms are dropped,
// and a clause left without terms constrains nothing.
func Parse(s string) Query {
	var q Query
	for _, m := range clausePattern.FindAllStringSubmatch(s, -1) {
		var terms []string
		for _, term := range strings.Split(m[2], "|") {
			if strings.TrimSpace(term) == "" {
				continue
			}
			terms = append(terms, strings.ToLower(term))
		}
		if len(terms) == 0 {
			continue
		}
		q.Clauses = append(q.Clauses, Clause{Field: m[1], Terms: terms, Token: m[0]})
	}
	return q
}

// IsEmpty reports whether the query has no constraints.
func (q Query) IsEmpty() bool {
	return len(q.Clauses) == 0
}

// Match reports whether doc satisfies every clause.
func (q Query) Match(doc Document) bool {
	for _, c := range q.Clauses {
		if !c.Match(doc) {
			return false
		}
	}
	return true
}

// Match reports whether the clause's field contains any of its terms. A
// field doc does not have is a non-match.
func (c Clause) Match(doc Document) bool {
	text, ok := doc.Text(c.Field)
	if !ok {
		return false
	}
	text = strings.ToLower(text)
	return slices.ContainsFunc(c.Terms, func(term string) bool {
		return strings.Contains(text, term)
	})
}

// Validate returns one *ValidationError per clause whose field is not in
// known.
func (q Query) Validate(known []string) []error {
	var errs []error
	for _, c := range q.Clauses {
		if !slices.Contains(known, c.Field) {
			errs = append(errs, &ValidationError{Token: c.Token, Field: c.Field})
		}
	}
	return errs
}

// Filter returns the docs matching q, keeping their order.
func Filter[D Document](q Query, docs []D) []D {
	out := make([]D, 0, len(docs))
	for _, d := range docs {
		if q.Match(d) {
			out = append(out, d)
		}
	}
	return out
}
