package value

import (
	"fmt"
	"sort"
	"strings"
)

// Type is a semantic parameter type as written in configuration, e.g. "integer" or "text[]".
// The zero value is not a valid Type; use ParseType.
type Type string

// Scalar semantic types. Array types are formed by appending "[]".
const (
	TypeText        Type = "text"
	TypeVarchar     Type = "varchar"
	TypeSmallint    Type = "smallint"
	TypeInteger     Type = "integer"
	TypeBigint      Type = "bigint"
	TypeBoolean     Type = "boolean"
	TypeFloat       Type = "float"
	TypeJSON        Type = "json"
	TypeJSONB       Type = "jsonb"
	TypeUUID        Type = "uuid"
	TypeTimestamptz Type = "timestamptz"
)

const arraySuffix = "[]"

// scalarAliases maps every accepted spelling to its canonical scalar type.
var scalarAliases = map[string]Type{
	"text":                     TypeText,
	"varchar":                  TypeVarchar,
	"character varying":        TypeVarchar,
	"smallint":                 TypeSmallint,
	"int2":                     TypeSmallint,
	"integer":                  TypeInteger,
	"int":                      TypeInteger,
	"int4":                     TypeInteger,
	"bigint":                   TypeBigint,
	"int8":                     TypeBigint,
	"boolean":                  TypeBoolean,
	"bool":                     TypeBoolean,
	"float":                    TypeFloat,
	"float4":                   TypeFloat,
	"float8":                   TypeFloat,
	"real":                     TypeFloat,
	"double precision":         TypeFloat,
	"json":                     TypeJSON,
	"jsonb":                    TypeJSONB,
	"uuid":                     TypeUUID,
	"timestamptz":              TypeTimestamptz,
	"timestamp with time zone": TypeTimestamptz,
}

// ParseType resolves a configured type name. An empty name means text.
func ParseType(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return TypeText, nil
	}
	array := strings.HasSuffix(n, arraySuffix)
	if array {
		n = strings.TrimSpace(strings.TrimSuffix(n, arraySuffix))
	}
	t, ok := scalarAliases[n]
	if !ok {
		return "", fmt.Errorf("unknown type %q (known: %s)", name, strings.Join(KnownTypes(), ", "))
	}
	if array {
		return t.ArrayOf(), nil
	}
	return t, nil
}

// KnownTypes lists the canonical scalar type names, sorted.
func KnownTypes() []string {
	seen := make(map[Type]bool, len(scalarAliases))
	out := make([]string, 0, len(scalarAliases))
	for _, t := range scalarAliases {
		if !seen[t] {
			seen[t] = true
			out = append(out, string(t))
		}
	}
	sort.Strings(out)
	return out
}

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool {
	return strings.HasSuffix(string(t), arraySuffix)
}

// Elem returns the element type of an array type, or t itself for scalars.
func (t Type) Elem() Type {
	return Type(strings.TrimSuffix(string(t), arraySuffix))
}

// ArrayOf returns the array type whose elements are t.
func (t Type) ArrayOf() Type {
	if t.IsArray() {
		return t
	}
	return t + arraySuffix
}

// IsJSON reports whether t binds a JSON document.
func (t Type) IsJSON() bool {
	return t == TypeJSON || t == TypeJSONB
}

func (t Type) String() string {
	return string(t)
}

// elemKind is the value kind produced for elements of (scalar) type t.
func elemKind(t Type) Kind {
	switch t.Elem() {
	case TypeSmallint, TypeInteger, TypeBigint:
		return KindInteger
	case TypeBoolean:
		return KindBool
	case TypeFloat:
		return KindFloat
	case TypeJSON, TypeJSONB:
		return KindJSON
	default:
		return KindText
	}
}

// integerRange is the inclusive range accepted by a width-limited integer type.
func integerRange(t Type) (lo, hi int64) {
	switch t {
	case TypeSmallint:
		return -1 << 15, 1<<15 - 1
	case TypeInteger:
		return -1 << 31, 1<<31 - 1
	default:
		return -1 << 63, 1<<63 - 1
	}
}
