package ui

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/dbdrill/internal/nav"
)

// Options configures Run.
type Options struct {
	NoColor bool
	Theme   *Theme
	// ProgramOptions are appended to the bubbletea program options, typically
	// tea.WithInput and tea.WithOutput in tests.
	ProgramOptions []tea.ProgramOption
}

// Run drives machine interactively until the user quits or ctx is cancelled.
func Run(ctx context.Context, machine *nav.Machine, exec nav.Executor, opts Options) error {
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	m := NewModel(ctx, machine, exec, theme, opts.NoColor)

	progOpts := append([]tea.ProgramOption{tea.WithContext(ctx)}, opts.ProgramOptions...)
	p := tea.NewProgram(m, progOpts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}
