// Package tui is the interactive presentation surface: a single screen that
// binds a text field to the session input, a Predict button to the session
// trigger, and renders the readiness indicators and the latest result.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"textpredict/internal/session"
)

const (
	inputPlaceholder  = "Enter a sentence there"
	resultPlaceholder = `Type some text and press "Predict"`
	buttonLabel       = "Predict"
)

// Session is the part of *session.App the screen drives. The view never
// mutates state except through SetInput and Predict.
type Session interface {
	Mount(ctx context.Context)
	SetInput(text string)
	Predict(ctx context.Context)
	Snapshot() session.Snapshot
}

// Focus tracks which control receives keys
type Focus int

const (
	FocusInput Focus = iota
	FocusButton
)

// mountedMsg is sent when the bootstrap and model load sequence resolved.
type mountedMsg struct{}

// predictedMsg is sent when one Predict call resolved.
type predictedMsg struct{}

// eventMsg forwards a session event to the program.
type eventMsg struct{ event session.Event }

// Model is the screen state. Everything shown besides the text field is read
// from snap, which is refreshed after every key, event and resolved command.
type Model struct {
	ctx    context.Context
	app    Session
	events <-chan session.Event

	width    int
	focus    Focus
	textarea textarea.Model
	help     help.Model
	keys     KeyMap

	snap session.Snapshot
	// inflight counts Predict calls that have not resolved yet
	inflight int
}

// NewModel builds the screen for app. events may be nil; when set, every
// event received refreshes the view.
func NewModel(ctx context.Context, app Session, events <-chan session.Event) Model {
	ta := textarea.New()
	ta.Placeholder = inputPlaceholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(60)
	ta.SetHeight(3)
	ta.Focus()

	snap := app.Snapshot()
	if snap.InputSet {
		ta.SetValue(snap.Input)
	}
	return Model{
		ctx:      ctx,
		app:      app,
		events:   events,
		textarea: ta,
		help:     help.New(),
		keys:     DefaultKeyMap,
		snap:     snap,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.mount(), m.waitEvent())
}

func (m Model) mount() tea.Cmd {
	return func() tea.Msg {
		m.app.Mount(m.ctx)
		return mountedMsg{}
	}
}

func (m Model) predict() tea.Cmd {
	return func() tea.Msg {
		m.app.Predict(m.ctx)
		return predictedMsg{}
	}
}

func (m Model) waitEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{event: e}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 2; w > 10 {
			m.textarea.SetWidth(w)
		}
		m.help.Width = msg.Width
		return m, nil

	case mountedMsg:
		m.snap = m.app.Snapshot()
		return m, nil

	case predictedMsg:
		if m.inflight > 0 {
			m.inflight--
		}
		m.snap = m.app.Snapshot()
		return m, nil

	case eventMsg:
		m.snap = m.app.Snapshot()
		return m, m.waitEvent()
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Focus):
		if m.focus == FocusInput {
			m.focus = FocusButton
			m.textarea.Blur()
			return m, nil
		}
		m.focus = FocusInput
		cmd := m.textarea.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Predict):
		return m.press()

	case m.focus == FocusButton && key.Matches(msg, m.keys.Press):
		return m.press()
	}

	if m.focus != FocusInput {
		return m, nil
	}
	before := m.textarea.Value()
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if v := m.textarea.Value(); v != before {
		m.app.SetInput(v)
		m.snap = m.app.Snapshot()
	}
	return m, cmd
}

// press activates the Predict button. A disabled button does nothing.
func (m Model) press() (tea.Model, tea.Cmd) {
	m.snap = m.app.Snapshot()
	if !m.snap.CanPredict() {
		return m, nil
	}
	m.inflight++
	return m, m.predict()
}

// Snapshot is the state the view last rendered from.
func (m Model) Snapshot() session.Snapshot { return m.snap }

// ButtonEnabled reports whether pressing Predict would run a prediction.
func (m Model) ButtonEnabled() bool { return m.snap.CanPredict() }

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("textpredict"))
	b.WriteString("\n\n")
	b.WriteString(InputStyle.Render(m.textarea.View()))
	b.WriteString("\n")
	b.WriteString(m.buttonView())
	if m.inflight > 0 {
		b.WriteString(PlaceholderStyle.Render("  predicting..."))
	}
	b.WriteString("\n\n")
	b.WriteString(m.resultView())
	b.WriteString("\n\n")
	b.WriteString(m.statusView())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) buttonView() string {
	label := "[ " + buttonLabel + " ]"
	switch {
	case !m.ButtonEnabled():
		return DisabledButtonStyle.Render(label)
	case m.focus == FocusButton:
		return FocusedButtonStyle.Render(label)
	default:
		return ButtonStyle.Render(label)
	}
}

func (m Model) resultView() string {
	style := ResultStyle
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	if txt := m.snap.ResultText(); txt != "" {
		return style.Render(txt)
	}
	return style.Render(PlaceholderStyle.Render(resultPlaceholder))
}

func (m Model) statusView() string {
	items := m.snap.Status()
	lines := make([]string, len(items))
	for i, it := range items {
		style := ReadyStyle
		if !it.OK {
			style = NotReadyStyle
		}
		lines[i] = it.Label + style.Render(it.Value)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
