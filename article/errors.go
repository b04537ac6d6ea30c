package article

import "fmt"

// ValidationError reports a field update that was refused. The article is
// left unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// AmbiguousCategoryError is returned when a category is not listed under any
// location. Both category and location keep their previous values.
type AmbiguousCategoryError struct {
	Category string
}

func (e *AmbiguousCategoryError) Error() string {
	return fmt.Sprintf("category %q does not belong to any location", e.Category)
}
