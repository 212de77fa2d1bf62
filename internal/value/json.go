package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FromJSON converts one node of a decoded JSON tree into a Value.
// Scalar leaves map to Text, Integer (Float when not integral), Text("true"/"false") and Null;
// objects and arrays stay JSON.
func FromJSON(node any) Value {
	switch n := node.(type) {
	case nil:
		return Null{}
	case string:
		return Text(n)
	case bool:
		return Text(strconv.FormatBool(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return Integer(i)
		}
		if f, err := n.Float64(); err == nil {
			return fromFloat(f)
		}
		return Text(n.String())
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return Integer(n)
	case int32:
		return Integer(n)
	case int64:
		return Integer(n)
	case uint64:
		if n > math.MaxInt64 {
			return Float(float64(n))
		}
		return Integer(int64(n))
	default:
		return JSON{Tree: node}
	}
}

func fromFloat(f float64) Value {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return Integer(int64(f))
	}
	return Float(f)
}

// isLeaf reports whether a JSON node is a scalar (not an object or array).
func isLeaf(node any) bool {
	switch node.(type) {
	case map[string]any, []any:
		return false
	default:
		return true
	}
}

// DecodeJSON parses JSON text, keeping numbers exact as json.Number.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return tree, nil
}

// Native converts v into plain Go values (string, int64, float64, bool, nil,
// []any, map[string]any) suitable for expression evaluation.
func Native(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Text:
		return string(x)
	case Integer:
		return int64(x)
	case Float:
		return float64(x)
	case Bool:
		return bool(x)
	case JSON:
		return nativeTree(x.Tree)
	case TextArray:
		return toAny(x, func(s string) any { return s })
	case IntegerArray:
		return toAny(x, func(i int64) any { return i })
	case FloatArray:
		return toAny(x, func(f float64) any { return f })
	case BoolArray:
		return toAny(x, func(b bool) any { return b })
	case JSONArray:
		return toAny(x, nativeTree)
	default:
		return v.String()
	}
}

func toAny[T any](in []T, conv func(T) any) []any {
	out := make([]any, len(in))
	for i, e := range in {
		out[i] = conv(e)
	}
	return out
}

// nativeTree replaces json.Number leaves with int64 or float64.
func nativeTree(node any) any {
	switch n := node.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = nativeTree(v)
		}
		return out
	case []any:
		return toAny(n, nativeTree)
	default:
		return node
	}
}
