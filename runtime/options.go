package runtime

import (
	"io"

	"github.com/wippyai/jvav-runtime/prompt"
)

type loadConfig struct {
	prompter prompt.Prompter
	out      io.Writer
}

// LoadOption configures a single instance.
type LoadOption func(*loadConfig)

// WithPrompter sets the operator input provider answering ask.
func WithPrompter(p prompt.Prompter) LoadOption {
	return func(c *loadConfig) {
		c.prompter = p
	}
}

// WithOutput sets where the guest's printed output goes. Defaults to stdout.
func WithOutput(w io.Writer) LoadOption {
	return func(c *loadConfig) {
		c.out = w
	}
}
