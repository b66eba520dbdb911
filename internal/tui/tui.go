package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"textpredict/internal/session"
)

// Run shows the screen for app until the user quits or ctx is canceled.
func Run(ctx context.Context, app Session, events <-chan session.Event, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(ctx, app, events), opts...)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
