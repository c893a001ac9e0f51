package bridge

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/jvav-runtime/arena"
	"github.com/wippyai/jvav-runtime/errors"
	"github.com/wippyai/jvav-runtime/prompt"
	"github.com/wippyai/jvav-runtime/registry"
)

// YesNo is the options string that restricts ask to "y" or "n".
const YesNo = "y/n"

// Bridge aggregates the state shared by every host function of one instance.
// It is not safe for concurrent use; guest calls are serialized by the caller.
type Bridge struct {
	arena    *arena.Arena
	strings  *registry.Registry
	prompter prompt.Prompter
	out      io.Writer
	logger   *zap.Logger
}

// New creates a bridge over an existing arena.
func New(a *arena.Arena, opts ...Option) *Bridge {
	cfg := newConfig(opts)
	return newBridge(a, cfg)
}

func newBridge(a *arena.Arena, cfg *config) *Bridge {
	return &Bridge{
		arena:    a,
		strings:  registry.New(),
		prompter: cfg.prompter,
		out:      cfg.out,
		logger:   cfg.logger,
	}
}

// Arena returns the arena backing this bridge.
func (b *Bridge) Arena() *arena.Arena {
	return b.arena
}

// Strings returns the handle registry.
func (b *Bridge) Strings() *registry.Registry {
	return b.strings
}

// CreateString registers the byte range [offset, offset+length) and returns
// its handle. The range must lie inside linear memory.
func (b *Bridge) CreateString(offset, length uint32) (registry.Handle, error) {
	if err := b.arena.CheckRange(offset, length); err != nil {
		return registry.Invalid, err
	}
	h := b.strings.Register(registry.Descriptor{Offset: offset, Length: length})

	if ce := b.logger.Check(zap.DebugLevel, "string created"); ce != nil {
		text, _ := b.Text(h)
		ce.Write(
			zap.Uint32("handle", uint32(h)),
			zap.Uint32("offset", offset),
			zap.Uint32("length", length),
			zap.String("text", text),
		)
	}
	return h, nil
}

// ReadString returns the byte range of h, or (0, 0) when h was never issued.
func (b *Bridge) ReadString(h registry.Handle) (offset, length uint32) {
	d, err := b.strings.Resolve(h)
	if err != nil {
		b.logger.Warn("read of unknown string handle", zap.Uint32("handle", uint32(h)))
		return 0, 0
	}
	return d.Offset, d.Length
}

// Text decodes the string bound to h. It reports false when h is unknown or
// its range no longer fits in memory.
func (b *Bridge) Text(h registry.Handle) (string, bool) {
	d, err := b.strings.Resolve(h)
	if err != nil {
		return "", false
	}
	raw, err := b.arena.Read(d.Offset, d.Length)
	if err != nil {
		return "", false
	}
	return decodeUTF8(raw), true
}

// NewString copies s into a fresh arena allocation and registers it.
func (b *Bridge) NewString(s string) (registry.Handle, error) {
	offset, err := b.arena.Allocate(uint32(len(s)))
	if err != nil {
		return registry.Invalid, err
	}
	if err := b.arena.Write(offset, []byte(s)); err != nil {
		return registry.Invalid, err
	}
	return b.CreateString(offset, uint32(len(s)))
}

// Print writes a number on its own line.
func (b *Bridge) Print(v int32) {
	_, _ = fmt.Fprintf(b.out, "%d\n", v)
}

// Log is the console namespace's number printer.
func (b *Bridge) Log(v int32) {
	b.Print(v)
}

// PrintString writes the text bound to h on its own line, or a placeholder
// when h is unknown.
func (b *Bridge) PrintString(h registry.Handle) {
	text, ok := b.Text(h)
	if !ok {
		b.logger.Warn("print of unknown string handle", zap.Uint32("handle", uint32(h)))
		_, _ = fmt.Fprintf(b.out, "[invalid string handle: %d]\n", h)
		return
	}
	_, _ = fmt.Fprintln(b.out, text)
}

// Ask prompts the operator with the question bound to q. When the options
// string bound to opts is "y/n" the prompt repeats until the answer is exactly
// "y" or "n". A cancelled prompt answers with the empty string. The answer is
// stored in the arena and returned as a new handle.
func (b *Bridge) Ask(ctx context.Context, q, opts registry.Handle) (registry.Handle, error) {
	question := b.textOrEmpty(q)
	options := b.textOrEmpty(opts)

	answer, err := b.ask(ctx, question, options)
	if err != nil {
		return registry.Invalid, err
	}
	return b.NewString(answer)
}

func (b *Bridge) ask(ctx context.Context, question, options string) (string, error) {
	if options != YesNo {
		answer, _, err := b.askOnce(ctx, question)
		return answer, err
	}

	text := question + " (y/n)"
	for {
		answer, ok, err := b.askOnce(ctx, text)
		if err != nil || !ok {
			return "", err
		}
		if answer == "y" || answer == "n" {
			return answer, nil
		}
		b.logger.Debug("rejected answer", zap.String("answer", answer))
		text = question + " (please answer y or n)"
	}
}

// askOnce reports ok=false when the operator cancelled.
func (b *Bridge) askOnce(ctx context.Context, question string) (string, bool, error) {
	answer, err := b.prompter.Prompt(ctx, question)
	if err != nil {
		if errors.Is(err, prompt.ErrCancelled) {
			b.logger.Debug("prompt cancelled", zap.String("question", question))
			return "", false, nil
		}
		return "", false, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "prompt failed")
	}
	return answer, true, nil
}

// textOrEmpty follows readString semantics: unknown handles read as (0, 0).
func (b *Bridge) textOrEmpty(h registry.Handle) string {
	text, ok := b.Text(h)
	if !ok {
		b.logger.Warn("read of unknown string handle", zap.Uint32("handle", uint32(h)))
	}
	return text
}

type config struct {
	prompter     prompt.Prompter
	out          io.Writer
	logger       *zap.Logger
	initialPages uint32
	maxPages     uint32
	heapBase     uint32
}

func newConfig(opts []Option) *config {
	cfg := &config{
		prompter:     cancelAll,
		out:          os.Stdout,
		logger:       zap.NewNop(),
		initialPages: 1,
		heapBase:     arena.DefaultBase,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

var cancelAll = prompt.Func(func(context.Context, string) (string, error) {
	return "", prompt.ErrCancelled
})

// Option configures a Bridge.
type Option func(*config)

// WithPrompter sets the operator input provider used by ask. Without one every
// prompt is treated as cancelled.
func WithPrompter(p prompt.Prompter) Option {
	return func(c *config) {
		if p != nil {
			c.prompter = p
		}
	}
}

// WithOutput sets where print, printString and console output go.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.out = w
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMemory sets the initial and maximum page counts of the memory created
// by Instantiate. A zero max leaves the memory unbounded up to 4 GiB.
func WithMemory(initialPages, maxPages uint32) Option {
	return func(c *config) {
		c.initialPages = initialPages
		c.maxPages = maxPages
	}
}

// WithHeapBase sets the first arena offset used by Instantiate.
func WithHeapBase(base uint32) Option {
	return func(c *config) {
		c.heapBase = base
	}
}
