// Package cel evaluates CEL expressions over result rows.
//
// Expressions see the row as the variable "_", a map keyed by column name.
package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// Evaluator compiles CEL expressions against a shared environment.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates a new CEL evaluator with standard library functions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// newStandardCELEnv creates a standard CEL environment with common extensions.
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 5+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Program is a compiled expression, safe for repeated evaluation.
type Program struct {
	expr string
	prg  cel.Program
}

// CompilePredicate compiles expr and requires it to produce a boolean.
// Expressions whose type is only known at runtime (dyn) are accepted and checked by Match.
func (e *Evaluator) CompilePredicate(expr string) (*Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	switch out := ast.OutputType(); out.String() {
	case cel.BoolType.String(), cel.DynType.String():
	default:
		return nil, fmt.Errorf("expression %q yields %s, not bool", expr, out)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (p *Program) String() string {
	return p.expr
}

// Match evaluates a predicate. A non-boolean result is an error.
func (p *Program) Match(data any) (bool, error) {
	out, err := p.eval(data)
	if err != nil {
		return false, err
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("expression %q yielded %s, not bool", p.expr, out.Type())
	}
	return bool(b), nil
}

func (p *Program) eval(data any) (ref.Val, error) {
	out, _, err := p.prg.Eval(map[string]any{"_": data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return out, nil
}
