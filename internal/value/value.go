// Package value is the typed value model shared by result rows, link bindings
// and query parameters.
//
// Value is a closed set of variants. Code that needs to act on a Value should
// use an exhaustive type switch over the concrete types declared here.
package value

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies a Value variant.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindInteger
	KindFloat
	KindBool
	KindJSON
	KindTextArray
	KindIntegerArray
	KindFloatArray
	KindBoolArray
	KindJSONArray
)

var kindNames = map[Kind]string{
	KindNull:         "null",
	KindText:         "text",
	KindInteger:      "integer",
	KindFloat:        "float",
	KindBool:         "boolean",
	KindJSON:         "json",
	KindTextArray:    "text[]",
	KindIntegerArray: "integer[]",
	KindFloatArray:   "float[]",
	KindBoolArray:    "boolean[]",
	KindJSONArray:    "json[]",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// NullText is the display form of a NULL value.
const NullText = "<NULL>"

// Value is one bindable or extractable value.
type Value interface {
	Kind() Kind
	// String is the display form used in tables, titles and conditions.
	String() string
	sealed()
}

type (
	Null    struct{}
	Text    string
	Integer int64
	Float   float64
	Bool    bool
	// JSON holds a decoded JSON tree (map[string]any, []any, string, json.Number, float64, bool or nil).
	JSON         struct{ Tree any }
	TextArray    []string
	IntegerArray []int64
	FloatArray   []float64
	BoolArray    []bool
	// JSONArray is an array of JSON documents, one tree per element.
	JSONArray []any
)

func (Null) Kind() Kind         { return KindNull }
func (Text) Kind() Kind         { return KindText }
func (Integer) Kind() Kind      { return KindInteger }
func (Float) Kind() Kind        { return KindFloat }
func (Bool) Kind() Kind         { return KindBool }
func (JSON) Kind() Kind         { return KindJSON }
func (TextArray) Kind() Kind    { return KindTextArray }
func (IntegerArray) Kind() Kind { return KindIntegerArray }
func (FloatArray) Kind() Kind   { return KindFloatArray }
func (BoolArray) Kind() Kind    { return KindBoolArray }
func (JSONArray) Kind() Kind    { return KindJSONArray }

func (Null) sealed()         {}
func (Text) sealed()         {}
func (Integer) sealed()      {}
func (Float) sealed()        {}
func (Bool) sealed()         {}
func (JSON) sealed()         {}
func (TextArray) sealed()    {}
func (IntegerArray) sealed() {}
func (FloatArray) sealed()   {}
func (BoolArray) sealed()    {}
func (JSONArray) sealed()    {}

func (Null) String() string      { return NullText }
func (v Text) String() string    { return string(v) }
func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string   { return formatFloat(float64(v)) }
func (v Bool) String() string    { return strconv.FormatBool(bool(v)) }
func (v JSON) String() string    { return marshalTree(v.Tree) }

func (v TextArray) String() string {
	return joinArray(len(v), func(i int) string { return strconv.Quote(v[i]) })
}

func (v IntegerArray) String() string {
	return joinArray(len(v), func(i int) string { return strconv.FormatInt(v[i], 10) })
}

func (v FloatArray) String() string {
	return joinArray(len(v), func(i int) string { return formatFloat(v[i]) })
}

func (v BoolArray) String() string {
	return joinArray(len(v), func(i int) string { return strconv.FormatBool(v[i]) })
}

func (v JSONArray) String() string {
	return joinArray(len(v), func(i int) string { return marshalTree(v[i]) })
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func joinArray(n int, elem func(int) string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(elem(i))
	}
	b.WriteByte(']')
	return b.String()
}

func marshalTree(tree any) string {
	data, err := json.Marshal(tree)
	if err != nil {
		return "<invalid json>"
	}
	return string(data)
}

// IsArray reports whether v is one of the array variants.
func IsArray(v Value) bool {
	switch v.(type) {
	case TextArray, IntegerArray, FloatArray, BoolArray, JSONArray:
		return true
	default:
		return false
	}
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}
