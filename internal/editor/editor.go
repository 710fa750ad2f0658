package editor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Draft is the result of an editing session: the first line is the
// subject, the remainder the body.
type Draft struct {
	Subject string
	Body    string
}

// template is what the user sees when composing from scratch.
const template = `Subject: %s

%s`

// Editor launches an external text editor on a temp file and parses the
// result back. The command comes from config, then $EDITOR, then vi.
type Editor struct {
	command string
}

// New creates an editor runner. An empty command defers to $EDITOR.
func New(command string) *Editor {
	return &Editor{command: command}
}

// Command returns the resolved editor command.
func (e *Editor) Command() string {
	if e.command != "" {
		return e.command
	}
	if env := os.Getenv("EDITOR"); env != "" {
		return env
	}
	return "vi"
}

// Compose opens the editor pre-filled with the given subject and body
// and parses the edited result. Returns an error when the editor exits
// non-zero or the result has no subject.
func (e *Editor) Compose(ctx context.Context, subject, body string) (*Draft, error) {
	f, err := os.CreateTemp("", "mailterm-draft-*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create draft file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := fmt.Fprintf(f, template, subject, body); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write draft file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write draft file: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Command(), path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("editor exited with error: %w", err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edited draft: %w", err)
	}
	return ParseDraft(string(edited))
}

// ParseDraft splits edited text into subject and body. The subject line
// may carry the "Subject: " prefix from the template or stand bare.
func ParseDraft(text string) (*Draft, error) {
	lines := strings.SplitN(strings.TrimLeft(text, "\n"), "\n", 2)
	subject := strings.TrimSpace(strings.TrimPrefix(lines[0], "Subject:"))
	if subject == "" {
		return nil, fmt.Errorf("draft has no subject")
	}

	body := ""
	if len(lines) > 1 {
		body = strings.TrimLeft(lines[1], "\n")
	}
	return &Draft{Subject: subject, Body: strings.TrimRight(body, "\n")}, nil
}
