package value

import "strings"

// ParseInput converts text typed by the user into a value of type t.
// Array types split on ',' with each element trimmed; blank input is an empty array.
// Text types keep the input verbatim; other scalars are trimmed first.
func ParseInput(input string, t Type) (Value, error) {
	if !t.IsArray() {
		return parseScalarInput(input, t)
	}
	if strings.TrimSpace(input) == "" {
		return makeArray(t, nil), nil
	}
	parts := strings.Split(input, ",")
	elems := make([]Value, 0, len(parts))
	for _, p := range parts {
		e, err := parseScalarInput(strings.TrimSpace(p), t.Elem())
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return CollectArray(elems, t)
}

func parseScalarInput(input string, t Type) (Value, error) {
	switch t {
	case TypeText, TypeVarchar:
		return Text(input), nil
	default:
		return Coerce(Text(strings.TrimSpace(input)), t)
	}
}
