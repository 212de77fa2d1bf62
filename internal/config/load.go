package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/oakwood-commons/dbdrill/internal/cel"
	"github.com/oakwood-commons/dbdrill/internal/jsonpath"
	"github.com/oakwood-commons/dbdrill/internal/value"
)

// Document keys.
const (
	keyName         = "name"
	keySearch       = "search"
	keyLinks        = "links"
	keyQuery        = "query"
	keyParams       = "params"
	keyType         = "type"
	keyKind         = "kind"
	keySearchParams = "search_params"
	keyIf           = "if"
	keyWhen         = "when"
	keyJSONPath     = "json_path"
	keyEq           = "eq"
)

// rawLink is a link whose references are not resolved yet.
type rawLink struct {
	name string
	path string
	doc  map[string]any
}

type loader struct {
	model *Model
	links map[*Entity][]rawLink
	eval  *cel.Evaluator
}

// Load validates a decoded configuration document and builds the Model.
// Top-level keys are entity identifiers. Any violation returns an *Error and no model.
func Load(doc map[string]any) (*Model, error) {
	l := &loader{
		model: &Model{entities: make(map[string]*Entity, len(doc))},
		links: make(map[*Entity][]rawLink),
	}

	ids := sortedKeys(doc)
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		e, err := l.entity(id, doc[id])
		if err != nil {
			return nil, err
		}
		if other, dup := names[e.name]; dup {
			return nil, newError(ErrDuplicateName, id+"."+keyName, "display name %q is already used by entity %q", e.name, other)
		}
		names[e.name] = id
		l.model.entities[id] = e
		l.model.sorted = append(l.model.sorted, e)
	}
	sort.SliceStable(l.model.sorted, func(i, j int) bool {
		return strings.ToLower(l.model.sorted[i].name) < strings.ToLower(l.model.sorted[j].name)
	})

	for _, e := range l.model.sorted {
		for _, raw := range l.links[e] {
			if err := l.link(e, raw); err != nil {
				return nil, err
			}
		}
	}
	return l.model, nil
}

func (l *loader) entity(id string, node any) (*Entity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, newError(ErrEmptyIdentifier, "", "entity identifier is empty")
	}
	m, err := asMap(node, id)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(m, id, keyName, keySearch, keyLinks); err != nil {
		return nil, err
	}
	name, err := requiredString(m, keyName, id)
	if err != nil {
		return nil, err
	}
	e := &Entity{
		id:       id,
		name:     name,
		searches: make(map[string]*Search),
		links:    make(map[string]*Link),
	}

	if raw, ok := m[keySearch]; ok {
		path := id + "." + keySearch
		searches, err := asMap(raw, path)
		if err != nil {
			return nil, err
		}
		for _, sname := range sortedKeys(searches) {
			s, err := search(id, sname, searches[sname], path+"."+sname)
			if err != nil {
				return nil, err
			}
			e.searches[sname] = s
		}
	}

	if raw, ok := m[keyLinks]; ok {
		path := id + "." + keyLinks
		links, err := asMap(raw, path)
		if err != nil {
			return nil, err
		}
		for _, lname := range sortedKeys(links) {
			lpath := path + "." + lname
			if strings.TrimSpace(lname) == "" {
				return nil, newError(ErrEmptyIdentifier, path, "link name is empty")
			}
			ldoc, err := asMap(links[lname], lpath)
			if err != nil {
				return nil, err
			}
			e.links[lname] = &Link{source: id, name: lname}
			l.links[e] = append(l.links[e], rawLink{name: lname, path: lpath, doc: ldoc})
		}
	}
	return e, nil
}

func search(entity, name string, node any, path string) (*Search, error) {
	if strings.TrimSpace(name) == "" {
		return nil, newError(ErrEmptyIdentifier, path, "search name is empty")
	}
	m, err := asMap(node, path)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(m, path, keyQuery, keyParams); err != nil {
		return nil, err
	}
	query, err := requiredString(m, keyQuery, path)
	if err != nil {
		return nil, err
	}
	s := &Search{entity: entity, name: name, query: query}

	raw, ok := m[keyParams]
	if !ok {
		return s, nil
	}
	ppath := path + "." + keyParams
	list, ok := raw.([]any)
	if !ok {
		return nil, newError(ErrMalformed, ppath, "expected a list, got %T", raw)
	}
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		ipath := fmt.Sprintf("%s[%d]", ppath, i)
		pm, err := asMap(item, ipath)
		if err != nil {
			return nil, err
		}
		if err := checkKeys(pm, ipath, keyName, keyType); err != nil {
			return nil, err
		}
		pname, err := requiredString(pm, keyName, ipath)
		if err != nil {
			return nil, err
		}
		if seen[pname] {
			return nil, newError(ErrDuplicateName, ipath+"."+keyName, "parameter %q is declared twice", pname)
		}
		seen[pname] = true
		tname, err := optionalString(pm, keyType, ipath)
		if err != nil {
			return nil, err
		}
		t, err := value.ParseType(tname)
		if err != nil {
			return nil, &Error{Kind: ErrUnknownParamType, Path: ipath + "." + keyType, Err: err}
		}
		s.params = append(s.params, ParamSpec{Name: pname, Type: t})
	}
	return s, nil
}

// link resolves references of one raw link. All entities are known at this point.
func (l *loader) link(source *Entity, raw rawLink) error {
	m, path := raw.doc, raw.path
	if err := checkKeys(m, path, keyKind, keySearch, keySearchParams, keyIf, keyWhen); err != nil {
		return err
	}
	link := source.links[raw.name]

	kind, err := requiredString(m, keyKind, path)
	if err != nil {
		return err
	}
	target, ok := l.model.entities[kind]
	if !ok {
		return newError(ErrUnknownEntity, path+"."+keyKind, "link references a non existing entity %q", kind)
	}
	sname, err := requiredString(m, keySearch, path)
	if err != nil {
		return err
	}
	s, ok := target.searches[sname]
	if !ok {
		return newError(ErrUnknownSearch, path+"."+keySearch, "referenced entity %q has no search named %q", kind, sname)
	}
	link.target = kind
	link.search = sname

	var params []any
	if rawParams, ok := m[keySearchParams]; ok {
		params, ok = rawParams.([]any)
		if !ok {
			return newError(ErrMalformed, path+"."+keySearchParams, "expected a list, got %T", rawParams)
		}
	}
	if len(params) != len(s.params) {
		return newError(ErrBindingCount, path+"."+keySearchParams,
			"search %q of %q has %d params but the link binds %d", sname, kind, len(s.params), len(params))
	}
	for i, p := range params {
		b, err := parseBinding(p, fmt.Sprintf("%s.%s[%d]", path, keySearchParams, i))
		if err != nil {
			return err
		}
		link.bindings = append(link.bindings, b)
	}

	if rawIf, ok := m[keyIf]; ok {
		c, err := parseCondition(rawIf, path+"."+keyIf)
		if err != nil {
			return err
		}
		link.condition = &c
	}

	if rawWhen, ok := m[keyWhen]; ok {
		wpath := path + "." + keyWhen
		expr, ok := rawWhen.(string)
		if !ok || strings.TrimSpace(expr) == "" {
			return newError(ErrInvalidCondition, wpath, "expected a non-empty CEL expression")
		}
		if l.eval == nil {
			if l.eval, err = cel.NewEvaluator(); err != nil {
				return &Error{Kind: ErrInvalidCondition, Path: wpath, Err: err}
			}
		}
		prg, err := l.eval.CompilePredicate(expr)
		if err != nil {
			return &Error{Kind: ErrInvalidCondition, Path: wpath, Err: err}
		}
		link.when = prg
	}
	return nil
}

// parseBinding accepts a column name or {json_path = [column, segment...]}.
func parseBinding(node any, path string) (Binding, error) {
	switch b := node.(type) {
	case string:
		if strings.TrimSpace(b) == "" {
			return nil, newError(ErrInvalidBinding, path, "column name is empty")
		}
		return ColumnBinding{Column: b}, nil
	case map[string]any:
		raw, ok := b[keyJSONPath]
		if !ok || len(b) != 1 {
			return nil, newError(ErrInvalidBinding, path, "expected a column name or a %q table", keyJSONPath)
		}
		list, ok := raw.([]any)
		if !ok || len(list) < 2 {
			return nil, newError(ErrInvalidBinding, path+"."+keyJSONPath, "expected [column, path...] with at least two elements")
		}
		segs := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, newError(ErrInvalidBinding, fmt.Sprintf("%s.%s[%d]", path, keyJSONPath, i), "expected a string, got %T", item)
			}
			segs[i] = s
		}
		if segs[0] == "" {
			return nil, newError(ErrInvalidBinding, path+"."+keyJSONPath, "column name is empty")
		}
		p, err := jsonpath.Compile(segs[1:]...)
		if err != nil {
			return nil, &Error{Kind: ErrInvalidPath, Path: path + "." + keyJSONPath, Err: err}
		}
		return PathBinding{Column: segs[0], Segments: segs[1:], Path: p}, nil
	default:
		return nil, newError(ErrInvalidBinding, path, "expected a column name or a %q table, got %T", keyJSONPath, node)
	}
}

// parseCondition accepts {eq = [binding, scalar]}.
func parseCondition(node any, path string) (Condition, error) {
	m, ok := node.(map[string]any)
	if !ok || len(m) != 1 {
		return Condition{}, newError(ErrInvalidCondition, path, "expected a table with a single %q key", keyEq)
	}
	raw, ok := m[keyEq]
	if !ok {
		return Condition{}, newError(ErrInvalidCondition, path, "unsupported operator, expected %q", keyEq)
	}
	operands, ok := raw.([]any)
	if !ok || len(operands) != 2 {
		return Condition{}, newError(ErrInvalidCondition, path+"."+keyEq, "expected [binding, value]")
	}
	b, err := parseBinding(operands[0], path+"."+keyEq+"[0]")
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) && cerr.Kind == ErrInvalidBinding {
			cerr.Kind = ErrInvalidCondition
		}
		return Condition{}, err
	}
	lit := value.FromJSON(operands[1])
	switch lit.(type) {
	case value.Text, value.Integer, value.Float:
	default:
		return Condition{}, newError(ErrInvalidCondition, path+"."+keyEq+"[1]", "expected a scalar, got %T", operands[1])
	}
	return Condition{Binding: b, Equals: lit.String()}, nil
}

func asMap(node any, path string) (map[string]any, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, newError(ErrMalformed, path, "expected a table, got %T", node)
	}
	return m, nil
}

func checkKeys(m map[string]any, path string, allowed ...string) error {
	for _, k := range sortedKeys(m) {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return newError(ErrMalformed, path, "unknown key %q", k)
		}
	}
	return nil
}

func requiredString(m map[string]any, key, path string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", newError(ErrMalformed, path, "missing %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", newError(ErrMalformed, path+"."+key, "expected a string, got %T", raw)
	}
	if strings.TrimSpace(s) == "" {
		return "", newError(ErrEmptyIdentifier, path+"."+key, "%q is empty", key)
	}
	return s, nil
}

func optionalString(m map[string]any, key, path string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", newError(ErrMalformed, path+"."+key, "expected a string, got %T", raw)
	}
	return s, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
