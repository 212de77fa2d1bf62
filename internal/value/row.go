package value

import "fmt"

// Column is one named value of a Row.
type Column struct {
	Name  string
	Value Value
}

// Col is shorthand for building a Column.
func Col(name string, v Value) Column {
	return Column{Name: name, Value: v}
}

// Row is one result record: an ordered set of uniquely named values.
// A Row is immutable once built.
type Row struct {
	cols  []Column
	index map[string]int
}

// NewRow builds a Row, rejecting duplicate column names.
func NewRow(cols ...Column) (Row, error) {
	r := Row{
		cols:  make([]Column, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := r.index[c.Name]; dup {
			return Row{}, fmt.Errorf("duplicate column %q", c.Name)
		}
		if c.Value == nil {
			c.Value = Null{}
		}
		r.cols[i] = c
		r.index[c.Name] = i
	}
	return r, nil
}

// MustRow is NewRow that panics on duplicate names, for literals in code and tests.
func MustRow(cols ...Column) Row {
	r, err := NewRow(cols...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the value of the named column.
func (r Row) Get(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.cols[i].Value, true
}

// Len is the number of columns.
func (r Row) Len() int { return len(r.cols) }

// At returns the i-th column.
func (r Row) At(i int) Column { return r.cols[i] }

// Names returns the column names in order.
func (r Row) Names() []string {
	out := make([]string, len(r.cols))
	for i, c := range r.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns a copy of the row's columns.
func (r Row) Columns() []Column {
	out := make([]Column, len(r.cols))
	copy(out, r.cols)
	return out
}

// Document exposes the row as a map of native values keyed by column name.
func (r Row) Document() map[string]any {
	doc := make(map[string]any, len(r.cols))
	for _, c := range r.cols {
		doc[c.Name] = Native(c.Value)
	}
	return doc
}
