package jsonpath

import "sort"

// Nodes runs p against doc and returns the matched nodes in document order.
// Missing keys and type mismatches yield no match for that branch; Nodes never fails.
func Nodes(doc any, p Path) []any {
	current := []any{doc}
	for _, s := range p {
		var next []any
		for _, n := range current {
			next = apply(next, s, n)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

func apply(acc []any, s Step, node any) []any {
	switch st := s.(type) {
	case Field:
		if m, ok := node.(map[string]any); ok {
			if v, ok := m[st.Name]; ok {
				acc = append(acc, v)
			}
		}
	case ArrayIndex:
		if arr, ok := node.([]any); ok {
			idx := st.Index
			if idx < 0 {
				idx += len(arr)
			}
			if idx >= 0 && idx < len(arr) {
				acc = append(acc, arr[idx])
			}
		}
	case Wildcard:
		switch n := node.(type) {
		case []any:
			acc = append(acc, n...)
		case map[string]any:
			keys := make([]string, 0, len(n))
			for k := range n {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				acc = append(acc, n[k])
			}
		}
	}
	return acc
}
