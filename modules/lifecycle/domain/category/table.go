package category

import "strings"

// RemovalPolicy says which lines of a list may be removed.
type RemovalPolicy int

const (
	// RemoveAny allows removing any line as long as one remains.
	RemoveAny RemovalPolicy = iota
	// RemoveLastOnly allows removing only the last line by position so that
	// earlier history stays intact.
	RemoveLastOnly
)

// Table is the rule table of one subsystem instance.
type Table struct {
	// Kind is the slug used by the API and CLI ("employment-types").
	Kind string
	// Terminal is the category of which at most one line may exist.
	Terminal Category
	// Precursor is the category whose start date bounds the regularization
	// date and which derives its end date. Unset when the instance has none.
	Precursor Category
	// MaxLines caps the list length. Zero means unbounded.
	MaxLines int
	Removal  RemovalPolicy

	categories []Category
	group      func(Category) Group
	allowed    func(Category, Mode) bool
}

// Group classifies c. The empty category is GroupUnset; labels outside the
// enumeration are GroupUnrecognized.
func (t *Table) Group(c Category) Group {
	if c.IsUnset() {
		return GroupUnset
	}
	return t.group(c)
}

func (t *Table) Profile(c Category) Profile {
	return ProfileOf(t.Group(c))
}

// Categories returns the full enumeration in display order.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// Allowed returns the categories selectable in mode, in display order.
func (t *Table) Allowed(mode Mode) []Category {
	out := make([]Category, 0, len(t.categories))
	for _, c := range t.categories {
		if t.allowed(c, mode) {
			out = append(out, c)
		}
	}
	return out
}

func (t *Table) IsAllowed(c Category, mode Mode) bool {
	if t.Group(c) == GroupUnrecognized || c.IsUnset() {
		return false
	}
	return t.allowed(c, mode)
}

func (t *Table) IsTerminal(c Category) bool {
	return !t.Terminal.IsUnset() && c == t.Terminal
}

func (t *Table) IsPrecursor(c Category) bool {
	return !t.Precursor.IsUnset() && c == t.Precursor
}

// Known reports whether c belongs to the enumeration.
func (t *Table) Known(c Category) bool {
	g := t.Group(c)
	return g != GroupUnrecognized && g != GroupUnset
}

var tables = []*Table{EmploymentType, EmployeeStatus}

// Lookup finds a table by its kind slug.
func Lookup(kind string) (*Table, bool) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	for _, t := range tables {
		if t.Kind == kind {
			return t, true
		}
	}
	return nil, false
}

// Kinds lists the registered kind slugs.
func Kinds() []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Kind)
	}
	return out
}
