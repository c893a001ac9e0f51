package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/jvav-runtime/bridge"
	"github.com/wippyai/jvav-runtime/errors"
	"github.com/wippyai/jvav-runtime/internal/wasmbin"
	"github.com/wippyai/jvav-runtime/prompt"
	"github.com/wippyai/jvav-runtime/runtime"
)

var (
	i32   = []api.ValueType{api.ValueTypeI32}
	i32x2 = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
)

// writeGuest writes a module whose main prints 7, asks a y/n question, prints
// the answer and returns 5. It also exports add.
func writeGuest(t *testing.T) string {
	t.Helper()
	g := wasmbin.NewModule()
	create := g.ImportFunc(bridge.EnvModule, "createString", i32x2, i32)
	printNum := g.ImportFunc(bridge.EnvModule, "print", i32, nil)
	printString := g.ImportFunc(bridge.EnvModule, "printString", i32, nil)
	ask := g.ImportFunc(bridge.EnvModule, "ask", i32x2, i32)
	g.ImportMemory(bridge.EnvModule, bridge.MemoryName, wasmbin.Limits{Min: 1})

	entry := g.Func(nil, i32, nil, new(wasmbin.Code).
		I32Const(7).Call(printNum).
		I32Const(16).I32Const(3).Call(create).
		I32Const(19).I32Const(3).Call(create).
		Call(ask).Call(printString).
		I32Const(5).Bytes())
	add := g.Func(i32x2, i32, nil, new(wasmbin.Code).LocalGet(0).LocalGet(1).I32Add().Bytes())
	g.ExportFunc("main", entry)
	g.ExportFunc("add", add)
	g.Data(16, []byte("Go?y/n"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prog.wasm"), g.Encode(), 0o644))
	return filepath.Join(dir, "prog")
}

func TestRun_EntryPointAndExports(t *testing.T) {
	var out bytes.Buffer
	opts := options{
		path:     writeGuest(t),
		prompter: prompt.NewScripted("y"),
	}

	err := run(context.Background(), runtime.DefaultConfig(), opts, &out)
	require.NoError(t, err)
	assert.Equal(t, "7\ny\n> returned: 5\n\nAvailable exports:\n- add(i32, i32) -> i32\n", out.String())
}

func TestRun_CallWithArgs(t *testing.T) {
	var out bytes.Buffer
	opts := options{
		path:     writeGuest(t),
		prompter: prompt.NewScripted("n"),
		callName: "add",
		callArgs: "2, 40",
	}

	err := run(context.Background(), runtime.DefaultConfig(), opts, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "> add returned: 42\n")
}

func TestRun_CallUnknownExport(t *testing.T) {
	opts := options{
		path:     writeGuest(t),
		prompter: prompt.NewScripted("n"),
		callName: "missing",
	}

	err := run(context.Background(), runtime.DefaultConfig(), opts, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRun_List(t *testing.T) {
	var out bytes.Buffer
	opts := options{
		path:     writeGuest(t),
		prompter: prompt.NewScripted(),
		list:     true,
	}

	err := run(context.Background(), runtime.DefaultConfig(), opts, &out)
	require.NoError(t, err)
	assert.Equal(t, "Entry point:\n  main() -> i32\n\nAvailable exports:\n- add(i32, i32) -> i32\n", out.String())
}

func TestRun_MissingFile(t *testing.T) {
	opts := options{
		path:     filepath.Join(t.TempDir(), "nothing"),
		prompter: prompt.NewScripted(),
	}
	err := run(context.Background(), runtime.DefaultConfig(), opts, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errors.ErrFileNotFound))
}

func TestNewLogger_Levels(t *testing.T) {
	assert.False(t, newLogger(false).Core().Enabled(zapcore.InfoLevel))
	assert.True(t, newLogger(false).Core().Enabled(zapcore.WarnLevel))
	assert.True(t, newLogger(true).Core().Enabled(zapcore.DebugLevel))
}

func TestSyncBuffer(t *testing.T) {
	var b syncBuffer
	_, _ = b.Write([]byte("a"))
	_, _ = b.Write([]byte("b"))
	assert.Equal(t, "ab", b.String())
	b.Reset()
	assert.Empty(t, b.String())
}

func TestInteractiveModel_AskRoundTrip(t *testing.T) {
	m := newInteractiveModel(runtime.DefaultConfig(), "prog")

	answered := make(chan string, 1)
	go func() {
		got, err := m.prompter.Prompt(context.Background(), "Name?")
		if err != nil {
			answered <- "error: " + err.Error()
			return
		}
		answered <- got
	}()

	msg := m.waitForAsk()
	_, _ = m.Update(msg)
	require.Equal(t, stateAsk, m.state)
	assert.Contains(t, m.View(), "Name?")

	for _, r := range "Ada" {
		_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
	assert.Equal(t, stateRunning, m.state)
	assert.Equal(t, "Ada", <-answered)
}

func TestInteractiveModel_AskCancel(t *testing.T) {
	m := newInteractiveModel(runtime.DefaultConfig(), "prog")

	done := make(chan error, 1)
	go func() {
		_, err := m.prompter.Prompt(context.Background(), "?")
		done <- err
	}()

	_, _ = m.Update(m.waitForAsk())
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.ErrorIs(t, <-done, prompt.ErrCancelled)
}
