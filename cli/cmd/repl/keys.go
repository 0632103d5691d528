package repl

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Interrupt   key.Binding
	Exit        key.Binding
	Submit      key.Binding
	Next        key.Binding
	Prev        key.Binding
	Older       key.Binding
	Newer       key.Binding
	OlderInMode key.Binding
	NewerInMode key.Binding
	Toggle      key.Binding
}

var keys = keyMap{
	Interrupt: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "clear the line, or exit on an empty line"),
	),
	Exit: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "exit on an empty line"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "evaluate, or accept the selected completion"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next completion"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous completion"),
	),
	Older: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("up", "older history entry, switching mode to match"),
	),
	Newer: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("down", "newer history entry, switching mode to match"),
	),
	OlderInMode: key.NewBinding(
		key.WithKeys("shift+up"),
		key.WithHelp("shift+up", "older history entry of the current mode"),
	),
	NewerInMode: key.NewBinding(
		key.WithKeys("shift+down"),
		key.WithHelp("shift+down", "newer history entry of the current mode"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "undo completion, or toggle eval and command mode"),
	),
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{
		k.Submit, k.Next, k.Prev, k.Toggle,
		k.Older, k.Newer, k.OlderInMode, k.NewerInMode,
		k.Interrupt, k.Exit,
	}
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctx, "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	empty := m.input.Value() == ""

	switch {
	case key.Matches(msg, keys.Interrupt):
		if empty {
			return m.quit()
		}

		m.input.SetValue("")
		m.comp.cycling = false
		m.resetHistory()
		m.refresh(false)

		return m, nil

	case key.Matches(msg, keys.Exit):
		if empty {
			return m.quit()
		}

		return m, nil

	case key.Matches(msg, keys.Submit):
		if m.comp.cycling && len(m.comp.matches) > 0 {
			m.comp.cycling = false
			m.refresh(true)

			return m, nil
		}

		return m.submit()

	case key.Matches(msg, keys.Next):
		return m.cycle(1), nil

	case key.Matches(msg, keys.Prev):
		return m.cycle(-1), nil

	case key.Matches(msg, keys.Older):
		return m.historyStep(-1, false), nil

	case key.Matches(msg, keys.Newer):
		return m.historyStep(1, false), nil

	case key.Matches(msg, keys.OlderInMode):
		return m.historyStep(-1, true), nil

	case key.Matches(msg, keys.NewerInMode):
		return m.historyStep(1, true), nil

	case key.Matches(msg, keys.Toggle):
		if m.comp.cycling {
			m.comp.cycling = false
			m.input.SetValue(m.comp.saved.text)
			m.input.SetCursor(m.comp.saved.cursor)
			m.refresh(false)

			return m, nil
		}

		return m.switchToMode(1 - m.mode), nil
	}

	// Runes keep tab-cycling alive; space and editing keys end it.
	typed := msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace
	if msg.Type != tea.KeyRunes {
		m.comp.cycling = false
	}

	var cmd tea.Cmd

	m.resetHistory()
	m.input, cmd = m.input.Update(msg)
	m.refresh(typed)

	return m, cmd
}

func (m model) quit() (model, tea.Cmd) {
	m.quitting = true

	return m, tea.Quit
}
