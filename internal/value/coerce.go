package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// CoercionError reports that a Value cannot be converted to a semantic type.
type CoercionError struct {
	From   Kind
	To     Type
	Input  string
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot convert %s %q to %s: %s", e.From, e.Input, e.To, e.Reason)
}

func coercionError(v Value, t Type, reason string) *CoercionError {
	return &CoercionError{From: v.Kind(), To: t, Input: v.String(), Reason: reason}
}

// Coerce converts v to semantic type t. It is deterministic and idempotent:
// a value already of the target shape is returned unchanged. Null passes through.
func Coerce(v Value, t Type) (Value, error) {
	if v == nil {
		v = Null{}
	}
	if t.IsArray() {
		return coerceArray(v, t)
	}
	return coerceScalar(v, t)
}

// CollectArray coerces each value to the element type of array type t and
// aggregates them, in order, into one array value. No values give an empty array.
func CollectArray(vals []Value, t Type) (Value, error) {
	if !t.IsArray() {
		return nil, fmt.Errorf("collect into non-array type %s", t)
	}
	elems := make([]Value, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			v = Null{}
		}
		e, err := coerceScalar(v, t.Elem())
		if err != nil {
			return nil, err
		}
		if IsNull(e) {
			return nil, coercionError(v, t, "array elements cannot be null")
		}
		elems = append(elems, e)
	}
	return makeArray(t, elems), nil
}

func coerceArray(v Value, t Type) (Value, error) {
	switch x := v.(type) {
	case Null:
		return x, nil
	case TextArray:
		return CollectArray(toValues(x, func(s string) Value { return Text(s) }), t)
	case IntegerArray:
		return CollectArray(toValues(x, func(i int64) Value { return Integer(i) }), t)
	case FloatArray:
		return CollectArray(toValues(x, func(f float64) Value { return Float(f) }), t)
	case BoolArray:
		return CollectArray(toValues(x, func(b bool) Value { return Bool(b) }), t)
	case JSONArray:
		return CollectArray(toValues(x, func(n any) Value { return JSON{Tree: n} }), t)
	case JSON:
		if arr, ok := x.Tree.([]any); ok {
			if t.Elem().IsJSON() {
				return JSONArray(arr), nil
			}
			return CollectArray(toValues(arr, FromJSON), t)
		}
		if !isLeaf(x.Tree) && !t.Elem().IsJSON() {
			return nil, coercionError(v, t, "json object is not an array")
		}
		return CollectArray([]Value{x}, t)
	default:
		return CollectArray([]Value{v}, t)
	}
}

func toValues[T any](in []T, conv func(T) Value) []Value {
	out := make([]Value, len(in))
	for i, e := range in {
		out[i] = conv(e)
	}
	return out
}

func makeArray(t Type, elems []Value) Value {
	switch elemKind(t) {
	case KindInteger:
		out := make(IntegerArray, len(elems))
		for i, e := range elems {
			out[i] = int64(e.(Integer))
		}
		return out
	case KindFloat:
		out := make(FloatArray, len(elems))
		for i, e := range elems {
			out[i] = float64(e.(Float))
		}
		return out
	case KindBool:
		out := make(BoolArray, len(elems))
		for i, e := range elems {
			out[i] = bool(e.(Bool))
		}
		return out
	case KindJSON:
		out := make(JSONArray, len(elems))
		for i, e := range elems {
			out[i] = e.(JSON).Tree
		}
		return out
	default:
		out := make(TextArray, len(elems))
		for i, e := range elems {
			out[i] = string(e.(Text))
		}
		return out
	}
}

func coerceScalar(v Value, t Type) (Value, error) {
	if t.IsJSON() {
		return toJSON(v, t)
	}
	switch x := v.(type) {
	case Null:
		return x, nil
	case JSON:
		if !isLeaf(x.Tree) {
			return nil, coercionError(v, t, "json object or array is not a scalar")
		}
		leaf := FromJSON(x.Tree)
		if _, ok := leaf.(JSON); ok {
			return nil, coercionError(v, t, "unsupported json node")
		}
		return coerceScalar(leaf, t)
	case TextArray, IntegerArray, FloatArray, BoolArray, JSONArray:
		return nil, coercionError(v, t, "array is not a scalar")
	}

	switch t {
	case TypeText, TypeVarchar:
		return toText(v), nil
	case TypeSmallint, TypeInteger, TypeBigint:
		return toInteger(v, t)
	case TypeFloat:
		return toFloat(v, t)
	case TypeBoolean:
		return toBool(v, t)
	case TypeUUID:
		u, err := uuid.Parse(toText(v).String())
		if err != nil {
			return nil, coercionError(v, t, "not a valid uuid")
		}
		return Text(u.String()), nil
	case TypeTimestamptz:
		s := toText(v).String()
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			return nil, coercionError(v, t, "not an RFC 3339 timestamp")
		}
		return Text(s), nil
	default:
		return nil, coercionError(v, t, "unknown target type")
	}
}

func toText(v Value) Text {
	if s, ok := v.(Text); ok {
		return s
	}
	return Text(v.String())
}

func toInteger(v Value, t Type) (Value, error) {
	var n int64
	switch x := v.(type) {
	case Integer:
		n = int64(x)
	case Text:
		i, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			return nil, coercionError(v, t, "not a decimal integer")
		}
		n = i
	case Float:
		f := float64(x)
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, coercionError(v, t, "not an integral number")
		}
		n = int64(f)
	default:
		return nil, coercionError(v, t, "not a number")
	}
	lo, hi := integerRange(t)
	if n < lo || n > hi {
		return nil, coercionError(v, t, fmt.Sprintf("out of range [%d, %d]", lo, hi))
	}
	return Integer(n), nil
}

func toFloat(v Value, t Type) (Value, error) {
	switch x := v.(type) {
	case Float:
		return x, nil
	case Integer:
		return Float(float64(x)), nil
	case Text:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return nil, coercionError(v, t, "not a number")
		}
		return Float(f), nil
	default:
		return nil, coercionError(v, t, "not a number")
	}
}

func toBool(v Value, t Type) (Value, error) {
	switch x := v.(type) {
	case Bool:
		return x, nil
	case Text:
		b, err := strconv.ParseBool(string(x))
		if err != nil {
			return nil, coercionError(v, t, "not a boolean")
		}
		return Bool(b), nil
	default:
		return nil, coercionError(v, t, "not a boolean")
	}
}

func toJSON(v Value, t Type) (Value, error) {
	switch x := v.(type) {
	case Null, JSON:
		return x, nil
	case Text:
		tree, err := DecodeJSON([]byte(x))
		if err != nil {
			return nil, coercionError(v, t, "not a json document")
		}
		return JSON{Tree: tree}, nil
	case Integer:
		return JSON{Tree: json.Number(x.String())}, nil
	case Float:
		return JSON{Tree: json.Number(x.String())}, nil
	case Bool:
		return JSON{Tree: bool(x)}, nil
	default:
		return JSON{Tree: Native(v)}, nil
	}
}
