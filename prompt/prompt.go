package prompt

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/wippyai/jvav-runtime/errors"
)

// ErrCancelled is returned when the operator aborts a prompt.
var ErrCancelled = errors.New(errors.PhaseHost, errors.KindCancelled).
	Detail("prompt cancelled by operator").
	Build()

// Prompter asks the operator a question and blocks until it is answered or
// cancelled.
type Prompter interface {
	Prompt(ctx context.Context, question string) (string, error)
}

// Func adapts a function to Prompter.
type Func func(ctx context.Context, question string) (string, error)

func (f Func) Prompt(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// Closer is implemented by providers that hold terminal state.
type Closer interface {
	Prompter
	Close() error
}

// Auto picks readline when in is a terminal and a plain line reader otherwise.
// The returned Closer must be closed when the module finishes.
func Auto(in *os.File, out io.Writer) (Closer, error) {
	if term.IsTerminal(int(in.Fd())) {
		rl, err := NewReadline(ReadlineConfig{Stdin: in, Stdout: out})
		if err != nil {
			return nil, err
		}
		return rl, nil
	}
	return nopCloser{NewLine(in, out)}, nil
}

type nopCloser struct {
	Prompter
}

func (nopCloser) Close() error { return nil }
