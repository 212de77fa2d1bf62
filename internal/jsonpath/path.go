// Package jsonpath extracts values from decoded JSON trees.
//
// A Path is a sequence of steps. Paths are assembled from segments: a segment
// starting with '$' is a JSONPath expression (for example "$[*].postId" or
// "$.meta['kind']"), any other segment is a literal object key.
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one parsed step of a Path.
type Step interface {
	step()
}

// Field selects an object member by key.
type Field struct {
	Name string
}

// ArrayIndex selects one array element. Negative indexes count from the end.
type ArrayIndex struct {
	Index int
}

// Wildcard fans out over every array element or object member.
type Wildcard struct{}

func (Field) step()      {}
func (ArrayIndex) step() {}
func (Wildcard) step()   {}

// Path is a compiled sequence of steps. The empty Path selects the root.
type Path []Step

// SyntaxError reports an invalid path expression.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid path %q at offset %d: %s", e.Expr, e.Pos, e.Msg)
}

// Compile joins segments into one Path.
func Compile(segments ...string) (Path, error) {
	var p Path
	for _, seg := range segments {
		if strings.HasPrefix(seg, "$") {
			steps, err := Parse(seg)
			if err != nil {
				return nil, err
			}
			p = append(p, steps...)
			continue
		}
		p = append(p, Field{Name: seg})
	}
	return p, nil
}

// Parse parses a single expression rooted at '$'.
// Supported: .key, .*, [n], [*], ['key'] and ["key"].
func Parse(expr string) (Path, error) {
	if !strings.HasPrefix(expr, "$") {
		return nil, &SyntaxError{Expr: expr, Pos: 0, Msg: "expression must start with '$'"}
	}
	var p Path
	i := 1
	for i < len(expr) {
		switch expr[i] {
		case '.':
			i++
			if i < len(expr) && expr[i] == '.' {
				return nil, &SyntaxError{Expr: expr, Pos: i, Msg: "recursive descent is not supported"}
			}
			if i < len(expr) && expr[i] == '*' {
				p = append(p, Wildcard{})
				i++
				continue
			}
			j := i
			for j < len(expr) && expr[j] != '.' && expr[j] != '[' {
				j++
			}
			if j == i {
				return nil, &SyntaxError{Expr: expr, Pos: i, Msg: "empty field name"}
			}
			p = append(p, Field{Name: expr[i:j]})
			i = j
		case '[':
			step, next, err := parseBracket(expr, i)
			if err != nil {
				return nil, err
			}
			p = append(p, step)
			i = next
		default:
			return nil, &SyntaxError{Expr: expr, Pos: i, Msg: fmt.Sprintf("unexpected %q", expr[i])}
		}
	}
	return p, nil
}

// parseBracket parses the bracket step starting at expr[start] == '['.
func parseBracket(expr string, start int) (Step, int, error) {
	i := start + 1
	if i < len(expr) && (expr[i] == '\'' || expr[i] == '"') {
		quote := expr[i]
		end := strings.IndexByte(expr[i+1:], quote)
		if end == -1 {
			return nil, 0, &SyntaxError{Expr: expr, Pos: i, Msg: "unterminated quoted key"}
		}
		name := expr[i+1 : i+1+end]
		closing := i + 1 + end + 1
		if closing >= len(expr) || expr[closing] != ']' {
			return nil, 0, &SyntaxError{Expr: expr, Pos: closing, Msg: "expected ']'"}
		}
		return Field{Name: name}, closing + 1, nil
	}
	end := strings.IndexByte(expr[i:], ']')
	if end == -1 {
		return nil, 0, &SyntaxError{Expr: expr, Pos: start, Msg: "unterminated '['"}
	}
	inner := strings.TrimSpace(expr[i : i+end])
	next := i + end + 1
	if inner == "*" {
		return Wildcard{}, next, nil
	}
	n, err := strconv.Atoi(inner)
	if err != nil {
		return nil, 0, &SyntaxError{Expr: expr, Pos: i, Msg: fmt.Sprintf("invalid index %q", inner)}
	}
	return ArrayIndex{Index: n}, next, nil
}

// String renders p as a single '$' expression.
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range p {
		switch v := s.(type) {
		case Field:
			if isPlainKey(v.Name) {
				b.WriteByte('.')
				b.WriteString(v.Name)
			} else {
				b.WriteString("[")
				b.WriteString(strconv.Quote(v.Name))
				b.WriteString("]")
			}
		case ArrayIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v.Index))
			b.WriteByte(']')
		case Wildcard:
			b.WriteString("[*]")
		}
	}
	return b.String()
}

func isPlainKey(name string) bool {
	return name != "" && name != "*" && !strings.ContainsAny(name, ".[]'\" ")
}
