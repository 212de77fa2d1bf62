// Package config holds the validated navigation model: entities, their
// searches and the links between them.
//
// A Model is built once by Load and is read-only afterwards. All fields are
// unexported and accessors return copies, so no mutation path exists once loading succeeds.
package config

import (
	"sort"
	"strings"

	"github.com/oakwood-commons/dbdrill/internal/cel"
	"github.com/oakwood-commons/dbdrill/internal/jsonpath"
	"github.com/oakwood-commons/dbdrill/internal/value"
)

// Model is the validated configuration.
type Model struct {
	entities map[string]*Entity
	sorted   []*Entity
}

// Entity returns the entity with the given identifier.
func (m *Model) Entity(id string) (*Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// Entities returns all entities sorted by display name.
func (m *Model) Entities() []*Entity {
	out := make([]*Entity, len(m.sorted))
	copy(out, m.sorted)
	return out
}

// Entity is a named kind of record.
type Entity struct {
	id       string
	name     string
	searches map[string]*Search
	links    map[string]*Link
}

func (e *Entity) ID() string   { return e.id }
func (e *Entity) Name() string { return e.name }

// Search returns one of the entity's searches by name.
func (e *Entity) Search(name string) (*Search, bool) {
	s, ok := e.searches[name]
	return s, ok
}

// Searches returns the entity's searches sorted by name.
func (e *Entity) Searches() []*Search {
	return sortedValues(e.searches, func(s *Search) string { return s.name })
}

// Link returns one of the entity's outgoing links by name.
func (e *Entity) Link(name string) (*Link, bool) {
	l, ok := e.links[name]
	return l, ok
}

// Links returns the entity's outgoing links sorted by name.
func (e *Entity) Links() []*Link {
	return sortedValues(e.links, func(l *Link) string { return l.name })
}

func sortedValues[T any](m map[string]T, label func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(label(out[i])), strings.ToLower(label(out[j]))
		if li != lj {
			return li < lj
		}
		return label(out[i]) < label(out[j])
	})
	return out
}

// Search is a parameterized query template bound to one entity.
type Search struct {
	entity string
	name   string
	query  string
	params []ParamSpec
}

// Entity is the identifier of the owning entity.
func (s *Search) Entity() string { return s.entity }
func (s *Search) Name() string   { return s.name }

// Query is the opaque query text handed to the executor.
func (s *Search) Query() string { return s.query }

// Params returns the positional parameter specs.
func (s *Search) Params() []ParamSpec {
	out := make([]ParamSpec, len(s.params))
	copy(out, s.params)
	return out
}

// ParamSpec describes one positional search parameter.
type ParamSpec struct {
	Name string
	Type value.Type
}

// Link is a directed relation from a source entity to a target entity's search.
type Link struct {
	source    string
	name      string
	target    string
	search    string
	bindings  []Binding
	condition *Condition
	when      *cel.Program
}

// Source is the identifier of the entity the link starts from.
func (l *Link) Source() string { return l.source }
func (l *Link) Name() string   { return l.name }

// Target is the identifier of the target entity.
func (l *Link) Target() string { return l.target }

// TargetSearch is the name of the search run on the target entity.
func (l *Link) TargetSearch() string { return l.search }

// Bindings returns the positional parameter bindings, one per target param.
func (l *Link) Bindings() []Binding {
	out := make([]Binding, len(l.bindings))
	copy(out, l.bindings)
	return out
}

// Condition returns the optional equality condition.
func (l *Link) Condition() (Condition, bool) {
	if l.condition == nil {
		return Condition{}, false
	}
	return *l.condition, true
}

// When returns the optional CEL predicate, or nil.
func (l *Link) When() *cel.Program { return l.when }

// Binding produces one target parameter from a source row.
// It is either a ColumnBinding or a PathBinding.
type Binding interface {
	// SourceColumn is the row column the binding reads.
	SourceColumn() string
	String() string
	binding()
}

// ColumnBinding copies a column value verbatim.
type ColumnBinding struct {
	Column string
}

// PathBinding extracts values from a JSON column.
type PathBinding struct {
	Column   string
	Segments []string
	Path     jsonpath.Path
}

func (b ColumnBinding) SourceColumn() string { return b.Column }
func (b PathBinding) SourceColumn() string   { return b.Column }

func (b ColumnBinding) String() string { return b.Column }
func (b PathBinding) String() string   { return b.Column + strings.TrimPrefix(b.Path.String(), "$") }

func (ColumnBinding) binding() {}
func (PathBinding) binding()   {}

// Condition shows a link only when its binding yields exactly one value whose
// text form equals Equals.
type Condition struct {
	Binding Binding
	Equals  string
}
