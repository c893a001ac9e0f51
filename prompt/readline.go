package prompt

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
)

var questionStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#7C3AED"))

// ReadlineConfig configures a terminal prompter.
type ReadlineConfig struct {
	Stdin       io.ReadCloser
	Stdout      io.Writer
	HistoryFile string
}

// Readline prompts on a terminal with line editing.
type Readline struct {
	rl *readline.Instance
}

// NewReadline creates a terminal prompter.
func NewReadline(cfg ReadlineConfig) (*Readline, error) {
	rlCfg := &readline.Config{
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "^D",
	}
	if cfg.Stdin != nil {
		rlCfg.Stdin = cfg.Stdin
	}
	if cfg.Stdout != nil {
		rlCfg.Stdout = cfg.Stdout
	}

	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return nil, err
	}
	return &Readline{rl: rl}, nil
}

// Prompt shows the question as the prompt and reads one line. Ctrl-C and
// Ctrl-D cancel.
func (p *Readline) Prompt(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.rl.SetPrompt(questionStyle.Render(question) + " ")

	line, err := p.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
		return "", ErrCancelled
	case err != nil:
		return "", err
	}
	return line, nil
}

func (p *Readline) Close() error {
	return p.rl.Close()
}
