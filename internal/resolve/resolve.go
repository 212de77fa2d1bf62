// Package resolve turns a link and a source row into the bound parameters of
// the link's target search.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dbdrill/internal/config"
	"github.com/oakwood-commons/dbdrill/internal/jsonpath"
	"github.com/oakwood-commons/dbdrill/internal/value"
)

// BindErrorKind classifies a BindError.
type BindErrorKind int

const (
	MissingColumn BindErrorKind = iota + 1
	NotJSON
	ArityMismatch
	Coercion
)

func (k BindErrorKind) String() string {
	switch k {
	case MissingColumn:
		return "missing column"
	case NotJSON:
		return "not json"
	case ArityMismatch:
		return "arity mismatch"
	case Coercion:
		return "coercion"
	default:
		return fmt.Sprintf("bind error kind %d", int(k))
	}
}

// BindError reports why a link could not be bound against a row.
type BindError struct {
	Kind   BindErrorKind
	Link   string
	Index  int
	Column string
	Err    error
}

func (e *BindError) Error() string {
	msg := fmt.Sprintf("link %q param %d (column %q): %s", e.Link, e.Index+1, e.Column, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BindError) Unwrap() error { return e.Err }

// Resolution is a link bound against one row, ready for execution.
type Resolution struct {
	Link   *config.Link
	Entity *config.Entity
	Search *config.Search
	Args   []value.Value
	// Labels are "binding=value" pairs in binding order, for titles.
	Labels []string
}

// Engine resolves links against the configuration model.
type Engine struct {
	model *config.Model
	log   logr.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for condition evaluation problems.
func WithLogger(l logr.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an Engine for model.
func New(model *config.Model, opts ...Option) *Engine {
	e := &Engine{model: model, log: logr.Discard()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Resolve binds every parameter of link's target search from row, in binding order.
func (e *Engine) Resolve(link *config.Link, row value.Row) (*Resolution, error) {
	target, ok := e.model.Entity(link.Target())
	if !ok {
		return nil, fmt.Errorf("link %q: unknown entity %q", link.Name(), link.Target())
	}
	s, ok := target.Search(link.TargetSearch())
	if !ok {
		return nil, fmt.Errorf("link %q: entity %q has no search %q", link.Name(), link.Target(), link.TargetSearch())
	}
	params := s.Params()
	bindings := link.Bindings()
	if len(params) != len(bindings) {
		return nil, fmt.Errorf("link %q: %d bindings for %d params", link.Name(), len(bindings), len(params))
	}

	res := &Resolution{
		Link:   link,
		Entity: target,
		Search: s,
		Args:   make([]value.Value, len(params)),
		Labels: make([]string, len(params)),
	}
	for i, b := range bindings {
		v, err := Bind(b, params[i], row)
		if err != nil {
			var be *BindError
			if errors.As(err, &be) {
				be.Link = link.Name()
				be.Index = i
			}
			return nil, err
		}
		res.Args[i] = v
		res.Labels[i] = b.String() + "=" + v.String()
	}
	return res, nil
}

// Bind produces the value of one parameter from row.
func Bind(b config.Binding, p config.ParamSpec, row value.Row) (value.Value, error) {
	switch b := b.(type) {
	case config.ColumnBinding:
		v, ok := row.Get(b.Column)
		if !ok {
			return nil, &BindError{Kind: MissingColumn, Column: b.Column}
		}
		out, err := value.Coerce(v, p.Type)
		if err != nil {
			return nil, &BindError{Kind: Coercion, Column: b.Column, Err: err}
		}
		return out, nil
	case config.PathBinding:
		matches, err := extract(b, row)
		if err != nil {
			return nil, err
		}
		if p.Type.IsArray() {
			out, err := value.CollectArray(matches, p.Type)
			if err != nil {
				return nil, &BindError{Kind: Coercion, Column: b.Column, Err: err}
			}
			return out, nil
		}
		if len(matches) != 1 {
			return nil, &BindError{Kind: ArityMismatch, Column: b.Column,
				Err: fmt.Errorf("%s matched %d values, expected exactly 1", b.Path, len(matches))}
		}
		out, err := value.Coerce(matches[0], p.Type)
		if err != nil {
			return nil, &BindError{Kind: Coercion, Column: b.Column, Err: err}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported binding %T", b)
	}
}

func extract(b config.PathBinding, row value.Row) ([]value.Value, error) {
	v, ok := row.Get(b.Column)
	if !ok {
		return nil, &BindError{Kind: MissingColumn, Column: b.Column}
	}
	doc, ok := v.(value.JSON)
	if !ok {
		return nil, &BindError{Kind: NotJSON, Column: b.Column, Err: fmt.Errorf("column holds %s", v.Kind())}
	}
	// Matches stay JSON so json targets keep string leaves as strings.
	nodes := jsonpath.Nodes(doc.Tree, b.Path)
	out := make([]value.Value, len(nodes))
	for i, n := range nodes {
		out[i] = value.JSON{Tree: n}
	}
	return out, nil
}

// Visible reports whether link should be offered for row: its equality
// condition and CEL predicate, when present, must both hold.
// Evaluation problems hide the link.
func (e *Engine) Visible(link *config.Link, row value.Row) bool {
	if cond, ok := link.Condition(); ok {
		match, err := conditionHolds(cond, row)
		if err != nil {
			e.log.V(1).Info("link condition not evaluable", "link", link.Name(), "error", err.Error())
			return false
		}
		if !match {
			return false
		}
	}
	if when := link.When(); when != nil {
		match, err := when.Match(row.Document())
		if err != nil {
			e.log.V(1).Info("link predicate failed", "link", link.Name(), "when", when.String(), "error", err.Error())
			return false
		}
		if !match {
			return false
		}
	}
	return true
}

// VisibleLinks returns the links of entity that are offered for row, sorted by name.
func (e *Engine) VisibleLinks(entity *config.Entity, row value.Row) []*config.Link {
	var out []*config.Link
	for _, l := range entity.Links() {
		if e.Visible(l, row) {
			out = append(out, l)
		}
	}
	return out
}

func conditionHolds(c config.Condition, row value.Row) (bool, error) {
	var got value.Value
	switch b := c.Binding.(type) {
	case config.ColumnBinding:
		v, ok := row.Get(b.Column)
		if !ok {
			return false, &BindError{Kind: MissingColumn, Column: b.Column}
		}
		got = v
	case config.PathBinding:
		matches, err := extract(b, row)
		if err != nil {
			return false, err
		}
		if len(matches) != 1 {
			return false, nil
		}
		got = matches[0]
	default:
		return false, fmt.Errorf("unsupported binding %T", b)
	}
	if j, ok := got.(value.JSON); ok {
		got = value.FromJSON(j.Tree)
	}
	return got.String() == c.Equals, nil
}

// Title renders a link result title such as "Blog (id=3) → blogs".
func Title(source string, r *Resolution) string {
	return fmt.Sprintf("%s (%s) → %s", source, strings.Join(r.Labels, ", "), r.Link.Name())
}
