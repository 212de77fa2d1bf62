package nav

import (
	"fmt"

	"github.com/oakwood-commons/dbdrill/internal/config"
	"github.com/oakwood-commons/dbdrill/internal/mnemonic"
	"github.com/oakwood-commons/dbdrill/internal/value"
)

// Kind names a View variant.
type Kind int

const (
	KindEntityPicker Kind = iota + 1
	KindSearchPicker
	KindParamEntry
	KindResultList
	KindLinkPicker
	KindDetailPopup
)

func (k Kind) String() string {
	switch k {
	case KindEntityPicker:
		return "EntityPicker"
	case KindSearchPicker:
		return "SearchPicker"
	case KindParamEntry:
		return "ParamEntry"
	case KindResultList:
		return "ResultList"
	case KindLinkPicker:
		return "LinkPicker"
	case KindDetailPopup:
		return "DetailPopup"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// View is one entry of the navigation stack. The set of variants is closed.
type View interface {
	Kind() Kind
	Title() string
	view()
}

// Picker is implemented by the views that offer a labelled choice.
type Picker interface {
	View
	Labels() []string
	Mnemonics() []mnemonic.Mnemonic
	Selected() int
}

// cursor is a highlighted index clamped to [0, n).
type cursor struct {
	pos int
}

func (c *cursor) move(delta, n int) {
	c.set(c.pos+delta, n)
}

func (c *cursor) set(pos, n int) {
	switch {
	case n <= 0:
		c.pos = 0
	case pos < 0:
		c.pos = 0
	case pos >= n:
		c.pos = n - 1
	default:
		c.pos = pos
	}
}

// EntityPicker lists every entity of the model.
type EntityPicker struct {
	cursor
	Entities  []*config.Entity
	mnemonics []mnemonic.Mnemonic
}

// SearchPicker lists the searches of one entity.
type SearchPicker struct {
	cursor
	Entity    *config.Entity
	Searches  []*config.Search
	mnemonics []mnemonic.Mnemonic
}

// ParamEntry collects the parameter values of a search, one text field per ParamSpec.
type ParamEntry struct {
	Entity *config.Entity
	Search *config.Search
	Params []config.ParamSpec
	Inputs []string
	Focus  int
	// Errors holds the validation message of each field, "" when valid.
	Errors []string
}

// ResultList shows the rows of one executed search.
type ResultList struct {
	cursor
	Entity *config.Entity
	Search *config.Search
	Args   []value.Value
	Rows   []value.Row
	title  string
}

// LinkPicker lists the links offered for the highlighted row of a ResultList.
type LinkPicker struct {
	cursor
	Entity    *config.Entity
	Row       value.Row
	Links     []*config.Link
	mnemonics []mnemonic.Mnemonic
}

// DetailPopup shows every column of one row.
type DetailPopup struct {
	cursor
	Entity *config.Entity
	Row    value.Row
	Index  int
}

func (*EntityPicker) Kind() Kind { return KindEntityPicker }
func (*SearchPicker) Kind() Kind { return KindSearchPicker }
func (*ParamEntry) Kind() Kind   { return KindParamEntry }
func (*ResultList) Kind() Kind   { return KindResultList }
func (*LinkPicker) Kind() Kind   { return KindLinkPicker }
func (*DetailPopup) Kind() Kind  { return KindDetailPopup }

func (*EntityPicker) view() {}
func (*SearchPicker) view() {}
func (*ParamEntry) view()   {}
func (*ResultList) view()   {}
func (*LinkPicker) view()   {}
func (*DetailPopup) view()  {}

func (v *EntityPicker) Title() string { return "Entities" }
func (v *SearchPicker) Title() string { return v.Entity.Name() + " / searches" }
func (v *ParamEntry) Title() string   { return v.Entity.Name() + " / " + v.Search.Name() }
func (v *ResultList) Title() string   { return v.title }
func (v *LinkPicker) Title() string   { return v.Entity.Name() + " / links" }
func (v *DetailPopup) Title() string {
	return fmt.Sprintf("%s / row %d", v.Entity.Name(), v.Index+1)
}

func (v *EntityPicker) Labels() []string {
	out := make([]string, len(v.Entities))
	for i, e := range v.Entities {
		out[i] = e.Name()
	}
	return out
}

func (v *SearchPicker) Labels() []string {
	out := make([]string, len(v.Searches))
	for i, s := range v.Searches {
		out[i] = s.Name()
	}
	return out
}

func (v *LinkPicker) Labels() []string {
	out := make([]string, len(v.Links))
	for i, l := range v.Links {
		out[i] = l.Name()
	}
	return out
}

func (v *EntityPicker) Mnemonics() []mnemonic.Mnemonic { return v.mnemonics }
func (v *SearchPicker) Mnemonics() []mnemonic.Mnemonic { return v.mnemonics }
func (v *LinkPicker) Mnemonics() []mnemonic.Mnemonic   { return v.mnemonics }

// Selected returns the highlighted index.
func (c *cursor) Selected() int { return c.pos }

// Current returns the highlighted row, false when the list is empty.
func (v *ResultList) Current() (value.Row, bool) {
	if len(v.Rows) == 0 {
		return value.Row{}, false
	}
	return v.Rows[v.pos], true
}

// Current returns the highlighted column of the row.
func (v *DetailPopup) Current() (value.Column, bool) {
	if v.Row.Len() == 0 {
		return value.Column{}, false
	}
	return v.Row.At(v.pos), true
}

// Values parses every field with its ParamSpec type. The first failing field index is returned with the error.
func (v *ParamEntry) Values() ([]value.Value, int, error) {
	out := make([]value.Value, len(v.Params))
	for i, p := range v.Params {
		val, err := value.ParseInput(v.Inputs[i], p.Type)
		if err != nil {
			return nil, i, err
		}
		out[i] = val
	}
	return out, -1, nil
}

var (
	_ Picker = (*EntityPicker)(nil)
	_ Picker = (*SearchPicker)(nil)
	_ Picker = (*LinkPicker)(nil)
)
