package repl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/ppx/log"
)

type (
	editDoneMsg      struct{ draft, output string }
	editCancelledMsg struct{}
	editDeclinedMsg  struct{}
	editErrorMsg     struct{ err error }
)

// inputMode selects whether a submitted line is template text or a command.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

var prompts = [...]string{modeEval: evalPrompt, modeCtrl: ctrlPrompt}

const (
	evalPrompt   = "➜ "
	ctrlPrompt   = " :"
	defaultWidth = 80
	charLimit    = 1024
)

var (
	promptStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("4"))
)

var promptStyles = [...]lipgloss.Style{modeEval: promptStyle, modeCtrl: ctrlPromptStyle}

// lineState is the text and cursor of an input line.
type lineState struct {
	text   string
	cursor int
}

type model struct {
	ctx      context.Context
	logger   log.Logger
	session  *Session
	history  *History
	input    textinput.Model
	comp     completion
	stash    [2]lineState // unsubmitted line of each mode
	draft    string       // last document opened by the edit command
	histIdx  int
	width    int
	mode     inputMode
	quitting bool
}

// Run starts the REPL over session until the user exits or ctx is done.
// History is persisted in cacheDir unless it is empty.
func Run(ctx context.Context, session *Session, cacheDir string, logger log.Logger) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer func() { cancel(err) }()

	var path string
	if cacheDir != "" {
		path = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(path)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("history", path),
		slog.Int("history_entries", history.Len()),
		slog.Any("session", session),
	)

	_, err = tea.NewProgram(newModel(ctx, session, history, logger), tea.WithContext(ctx)).Run()

	return err
}

func newModel(ctx context.Context, session *Session, history *History, logger log.Logger) model {
	in := textinput.New()
	in.Prompt = promptStyle.Render(evalPrompt)
	in.CharLimit = charLimit
	in.Width = defaultWidth
	in.Focus()

	return model{
		ctx:     ctx,
		logger:  logger,
		session: session,
		history: history,
		input:   in,
		comp:    completion{selected: -1},
		histIdx: history.Len(),
		width:   defaultWidth,
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(prompts[m.mode]) - 2

		return m, nil

	case editDoneMsg:
		m.draft = msg.draft
		m.logger.TraceContext(m.ctx, "repl edit done", slog.Int("output", len(msg.output)))

		return m, tea.Println(resultStyle.Render(msg.output))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		return m.quit()

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return m.input.View() + "\n" + m.hintView() + "\n"
}

// hintView renders the line below the input: the history position, a usage
// hint, the syntax of the statement or function under the cursor, or the
// completion candidates.
func (m model) hintView() string {
	input := m.input.Value()
	cursor := m.input.Position()

	if m.histIdx < m.history.Len() {
		pos := lipgloss.NewStyle().Bold(true).Render(fmt.Sprint(m.histIdx + 1))

		return hintStyle.Render(pos + "/" + fmt.Sprint(m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeCtrl {
			return hintStyle.Render("commands: " + strings.Join(commandNames(), ", ") + " (esc to return)")
		}

		return hintStyle.Render("type template text, or esc for commands")
	}

	if !m.comp.cycling && m.mode == modeEval {
		if kind, _ := enclosing(input, cursor); kind == directiveExpr {
			if call := detectFunctionCall(input, cursor); call.inCall {
				if sig, params := getSignature(call.name); sig != "" {
					return renderSignatureHint(sig, params, call.argIndex)
				}
			}
		}

		if st, ok := detectStatement(input, cursor); ok && len(m.comp.matches) == 0 {
			return renderStatementHint(st.keyword, st.argIndex)
		}
	}

	return m.comp.render(m.width)
}

// submit evaluates the input line or runs it as a command.
func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.stash = [2]lineState{}
	m.input.SetValue("")
	m.refresh(false)

	if err := m.history.Write(input, m.mode); err != nil {
		m.logger.TraceContext(m.ctx, "repl history", slog.Any("error", err))
	}

	m.resetHistory()

	if m.mode == modeCtrl {
		return m.runCommand(input)
	}

	m.logger.TraceContext(m.ctx, "repl eval", slog.String("input", input))

	cmds := []tea.Cmd{tea.Println(promptStyle.Render(evalPrompt) + inputStyle.Render(input))}

	out, err := m.session.Eval(m.ctx, input)
	if out != "" {
		cmds = append(cmds, tea.Println(resultStyle.Render(out)))
	}

	if err != nil {
		m.logger.TraceContext(m.ctx, "repl eval failed", slog.Any("error", err))
		cmds = append(cmds, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	return m, tea.Sequence(cmds...)
}

func (m *model) resetHistory() { m.histIdx = m.history.Len() }

// historyStep moves through history by step. With inMode set, only entries
// of the current mode are visited; otherwise the mode follows the entry.
func (m model) historyStep(step int, inMode bool) model {
	for i := m.histIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.GetEntry(i)
		if err != nil {
			break
		}

		if entry.Mode != m.mode {
			if inMode {
				continue
			}

			m = m.switchToMode(entry.Mode)
		}

		m.histIdx = i
		m.input.SetValue(entry.Line)
		m.input.CursorEnd()
		m.refresh(false)

		return m
	}

	if step > 0 && m.histIdx < m.history.Len() {
		m.resetHistory()
		m.input.SetValue("")
		m.refresh(false)
	}

	return m
}

// switchToMode changes the input mode, saving the line of the current mode
// and restoring the line last left in the new one.
func (m model) switchToMode(mode inputMode) model {
	m.stash[m.mode] = lineState{text: m.input.Value(), cursor: m.input.Position()}
	m.mode = mode

	restore := m.stash[mode]
	m.input.Prompt = promptStyles[mode].Render(prompts[mode])
	m.input.SetValue(restore.text)
	m.input.SetCursor(restore.cursor)
	m.refresh(false)

	return m
}
