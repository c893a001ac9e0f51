package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/jvav-runtime/arena"
	"github.com/wippyai/jvav-runtime/errors"
	"github.com/wippyai/jvav-runtime/prompt"
	"github.com/wippyai/jvav-runtime/runtime"
)

type options struct {
	prompter prompt.Prompter
	path     string
	callName string
	callArgs string
	list     bool
}

func main() {
	var (
		verbose     = flag.Bool("v", false, "Verbose diagnostics on stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		list        = flag.Bool("list", false, "List exported functions and exit")
		callName    = flag.String("call", "", "Export to call after the entry point")
		callArgs    = flag.String("args", "", "Comma-separated arguments for -call")
		entry       = flag.String("entry", "main", "Entry point export")
		memLimit    = flag.Uint("mem-limit", 0, "Memory limit in 64KiB pages (0 = unlimited)")
		heapBase    = flag.Uint("heap-base", arena.DefaultBase, "Lowest offset used for host strings")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: jvav-run [flags] <module[.wasm]>")
		fmt.Fprintln(os.Stderr, "       jvav-run -list <module>")
		fmt.Fprintln(os.Stderr, "       jvav-run -call add -args 1,2 <module>")
		fmt.Fprintln(os.Stderr, "       jvav-run -i <module>  (interactive mode)")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	cfg := runtime.DefaultConfig()
	cfg.Logger = logger
	cfg.EntryPoint = *entry
	cfg.MemoryLimitPages = uint32(*memLimit)
	cfg.HeapBase = uint32(*heapBase)

	if *interactive {
		if err := runInteractive(cfg, flag.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := options{
		path:     flag.Arg(0),
		callName: *callName,
		callArgs: *callArgs,
		list:     *list,
	}
	if err := run(ctx, cfg, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

func run(ctx context.Context, cfg runtime.Config, opts options, out io.Writer) error {
	rt, err := runtime.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	prompter := opts.prompter
	if prompter == nil {
		auto, err := prompt.Auto(os.Stdin, out)
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		defer auto.Close()
		prompter = auto
	}

	inst, err := rt.Load(ctx, opts.path,
		runtime.WithPrompter(prompter),
		runtime.WithOutput(out))
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	if opts.list {
		listExports(out, inst, true)
		return nil
	}

	if e, ok := inst.Entry(); ok && e.Nullary() {
		res, err := inst.RunMain(ctx)
		if err != nil {
			return err
		}
		if !res.IsZero() {
			fmt.Fprintf(out, "> returned: %s\n", res)
		}
	}

	if opts.callName != "" {
		if err := callExport(ctx, out, inst, opts.callName, opts.callArgs); err != nil {
			return err
		}
	}

	listExports(out, inst, false)
	return nil
}

func callExport(ctx context.Context, out io.Writer, inst *runtime.Instance, name, rawArgs string) error {
	e, ok := inst.Export(name)
	if !ok {
		return errors.New(errors.PhaseRuntime, errors.KindNotFound).
			Path(name).
			Detail("no exported function").
			Build()
	}

	var raw []string
	if rawArgs != "" {
		raw = strings.Split(rawArgs, ",")
	}
	args, err := e.ParseArgs(raw)
	if err != nil {
		return err
	}

	res, err := inst.Call(ctx, name, args...)
	if err != nil {
		return err
	}
	if !res.Void() {
		fmt.Fprintf(out, "> %s returned: %s\n", name, res)
	}
	return nil
}

func listExports(out io.Writer, inst *runtime.Instance, withEntry bool) {
	if withEntry {
		if e, ok := inst.Entry(); ok {
			fmt.Fprintf(out, "Entry point:\n  %s\n", e)
		}
	}
	exports := inst.Exports()
	if len(exports) == 0 {
		return
	}
	fmt.Fprintln(out, "\nAvailable exports:")
	for _, e := range exports {
		fmt.Fprintf(out, "- %s\n", e)
	}
}
