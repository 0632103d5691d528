package repl

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/ppx/log"
)

// editCommand is a [tea.ExecCommand] that opens the draft document in
// $EDITOR and evaluates the saved result in the session, offering to edit
// again until it evaluates or the user declines with [ErrEditDeclined].
// An empty document ends the loop without evaluating.
type editCommand struct {
	session *Session
	ctx     context.Context
	logger  log.Logger
	draft   string
	output  string

	stdin          io.Reader
	stdout, stderr io.Writer
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

func (c *editCommand) Run() error {
	f, err := os.CreateTemp("", "ppx-repl-*.ppx")
	if err != nil {
		return err
	}

	defer os.Remove(f.Name())

	if err := f.Close(); err != nil {
		return err
	}

	answers := bufio.NewScanner(c.stdin)

	for attempt := 1; ; attempt++ {
		evalErr, err := c.round(f.Name())
		if err != nil {
			return err
		}

		c.logger.TraceContext(c.ctx, "repl edit",
			slog.Int("attempt", attempt),
			slog.Int("draft", len(c.draft)),
			slog.Bool("ok", evalErr == nil),
		)

		if evalErr == nil {
			return nil
		}

		fmt.Fprintf(c.stderr, "\nerror: %v\n", evalErr)
		fmt.Fprint(c.stdout, "Edit again? [Y/n] ")

		if !answers.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(answers.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// round writes the draft to path, edits it and evaluates the result.
// Failures to edit the file are returned in err, evaluation errors in
// evalErr.
func (c *editCommand) round(path string) (evalErr, err error) {
	if err := os.WriteFile(path, []byte(c.draft), 0o600); err != nil {
		return nil, err
	}

	editor := exec.CommandContext(c.ctx, cmp.Or(os.Getenv("EDITOR"), "vi"), path)
	editor.Stdin, editor.Stdout, editor.Stderr = c.stdin, c.stdout, c.stderr

	if err := editor.Run(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if c.draft = string(data); strings.TrimSpace(c.draft) == "" {
		return nil, nil
	}

	c.output, evalErr = c.session.Eval(c.ctx, c.draft)

	return evalErr, nil
}
