package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Line reads one answer per line. It keeps a single buffered reader across
// prompts so input that arrives ahead of a question is not lost.
type Line struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLine creates a line prompter reading from in and writing questions to out.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

// Prompt writes the question and returns the next line without its line
// terminator. End of input before any byte is read counts as cancellation.
func (p *Line) Prompt(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, _ = fmt.Fprintf(p.out, "%s ", question)

	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			_, _ = fmt.Fprintln(p.out)
			return "", ErrCancelled
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
