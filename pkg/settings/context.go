package settings

import "context"

// runKey is the context key for the *Run of the current invocation.
type runKey struct{}

// IntoContext returns a copy of ctx carrying the run settings.
func IntoContext(ctx context.Context, s *Run) context.Context {
	return context.WithValue(ctx, runKey{}, s)
}

// FromContext returns the run settings stored in ctx, if any.
func FromContext(ctx context.Context) (*Run, bool) {
	s, ok := ctx.Value(runKey{}).(*Run)
	return s, ok && s != nil
}

// RunFromContext returns the run settings stored in ctx, or the command-line
// defaults when ctx carries none.
func RunFromContext(ctx context.Context) *Run {
	if s, ok := FromContext(ctx); ok {
		return s
	}
	return NewCliParams()
}
