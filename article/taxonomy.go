package article

import "slices"

// Section is one top-level location with the categories that belong to it.
type Section struct {
	Location   string   `yaml:"location" json:"location"`
	Categories []string `yaml:"categories" json:"categories"`
}

// Taxonomy is the fixed two-level location/category tree, in display order.
type Taxonomy []Section

// DefaultTaxonomy returns the sections the editor ships with.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{Location: "bulletin", Categories: []string{"Academics", "Athletics", "Clubs", "Colleges", "Reference"}},
		{Location: "homepage", Categories: []string{"ASB", "District", "General_Info"}},
	}
}

// Locations lists every location name.
func (t Taxonomy) Locations() []string {
	out := make([]string, len(t))
	for i, s := range t {
		out[i] = s.Location
	}
	return out
}

// Categories returns the categories of location, or nil for an unknown one.
func (t Taxonomy) Categories(location string) []string {
	for _, s := range t {
		if s.Location == location {
			return s.Categories
		}
	}
	return nil
}

// HasLocation reports whether location exists.
func (t Taxonomy) HasLocation(location string) bool {
	return slices.ContainsFunc(t, func(s Section) bool { return s.Location == location })
}

// Contains reports whether category belongs to location.
func (t Taxonomy) Contains(location, category string) bool {
	return slices.Contains(t.Categories(location), category)
}

// LocationOf finds the first location whose list holds category.
func (t Taxonomy) LocationOf(category string) (string, bool) {
	for _, s := range t {
		if slices.Contains(s.Categories, category) {
			return s.Location, true
		}
	}
	return "", false
}

// Each calls fn for every location/category pair in order.
func (t Taxonomy) Each(fn func(location, category string)) {
	for _, s := range t {
		for _, c := range s.Categories {
			fn(s.Location, c)
		}
	}
}
