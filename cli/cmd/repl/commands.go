package repl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// command is a control-mode command. The first name is the one offered for
// completion; the rest are aliases. Quiet commands are not echoed.
type command struct {
	names []string
	usage string
	quiet bool
	run   func(m model) (model, tea.Cmd)
}

func commands() []command {
	return []command{
		{[]string{"help", "h", "?"}, "print this message", false, func(m model) (model, tea.Cmd) {
			return m, tea.Println(helpMessage())
		}},
		{[]string{"list", "l", "ls"}, "list heap entries", false, func(m model) (model, tea.Cmd) {
			return m, tea.Println(m.listHeap())
		}},
		{[]string{"docs", "d"}, "list documents available to exec", false, func(m model) (model, tea.Cmd) {
			return m, tea.Println(m.listDocuments())
		}},
		{[]string{"reset", "r"}, "discard the heap", false, func(m model) (model, tea.Cmd) {
			m.session.Reset(m.ctx)

			return m, tea.Println(hintStyle.Render("heap discarded"))
		}},
		{[]string{"edit", "e"}, "edit a multi-line document in $EDITOR", false, func(m model) (model, tea.Cmd) {
			return m, m.edit()
		}},
		{[]string{"clear", "c"}, "clear the screen", true, func(m model) (model, tea.Cmd) {
			return m, tea.ClearScreen
		}},
		{[]string{"quit", "q", "exit"}, "exit", false, func(m model) (model, tea.Cmd) {
			return m.quit()
		}},
	}
}

// commandNames returns the primary name of every command.
func commandNames() []string {
	cmds := commands()
	names := make([]string, len(cmds))

	for i, c := range cmds {
		names[i] = c.names[0]
	}

	return names
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands() {
		for _, n := range c.names {
			if n == name {
				return c, true
			}
		}
	}

	return command{}, false
}

func helpMessage() string {
	var b strings.Builder

	b.WriteString("\nCommands (press esc to toggle mode):\n\n")

	for _, c := range commands() {
		fmt.Fprintf(&b, "  %-8s %s\n", c.names[0], c.usage)
	}

	b.WriteString("\nKeys:\n\n")

	for _, k := range keys.bindings() {
		h := k.Help()
		fmt.Fprintf(&b, "  %-11s %s\n", h.Key, h.Desc)
	}

	b.WriteString(`
Each line of template text is preprocessed against a heap that persists
between lines, e.g. {% set x = 1 %} then {{ x + 1 }}. Completions are
offered inside {{ }}, {% %} and {= =}.
`)

	return b.String()
}

func (m model) runCommand(input string) (model, tea.Cmd) {
	name, _, _ := strings.Cut(input, " ")

	m.logger.TraceContext(m.ctx, "repl command", slog.String("command", name))

	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))

	c, ok := lookupCommand(name)
	if !ok {
		return m, tea.Println(errorStyle.Render("unknown command: " + name + " (try help)"))
	}

	m, cmd := c.run(m)
	if c.quiet {
		return m, cmd
	}

	return m, tea.Sequence(echo, cmd)
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		session: m.session,
		ctx:     m.ctx,
		logger:  m.logger,
		draft:   m.draft,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case strings.TrimSpace(cmd.draft) == "":
			return editCancelledMsg{}
		}

		return editDoneMsg{draft: cmd.draft, output: cmd.output}
	})
}

func (m model) listHeap() string {
	names := m.session.Names()
	if len(names) == 0 {
		return hintStyle.Render("  (empty heap)")
	}

	var b strings.Builder

	for _, name := range names {
		value, err := m.session.Value(name)
		if err != nil {
			value = "error: " + err.Error()
		}

		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(formatPreview(value)))
	}

	return b.String()
}

func (m model) listDocuments() string {
	var b strings.Builder

	for _, name := range m.session.Documents() {
		if name != sessionDocument {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}

	if b.Len() == 0 {
		return hintStyle.Render("  (no documents)")
	}

	return b.String()
}
