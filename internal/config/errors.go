package config

import "fmt"

// ErrorKind classifies a configuration error.
type ErrorKind int

const (
	ErrMalformed ErrorKind = iota + 1
	ErrEmptyIdentifier
	ErrDuplicateName
	ErrUnknownParamType
	ErrUnknownEntity
	ErrUnknownSearch
	ErrBindingCount
	ErrInvalidBinding
	ErrInvalidPath
	ErrInvalidCondition
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformed:
		return "malformed"
	case ErrEmptyIdentifier:
		return "empty identifier"
	case ErrDuplicateName:
		return "duplicate name"
	case ErrUnknownParamType:
		return "unknown param type"
	case ErrUnknownEntity:
		return "unknown entity"
	case ErrUnknownSearch:
		return "unknown search"
	case ErrBindingCount:
		return "binding count mismatch"
	case ErrInvalidBinding:
		return "invalid binding"
	case ErrInvalidPath:
		return "invalid path"
	case ErrInvalidCondition:
		return "invalid condition"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// Error is a configuration error. Path locates the offending section, for
// example "user.links.blogs.search_params[0]".
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}
