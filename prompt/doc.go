// Package prompt supplies operator input to guest modules.
//
// The host function ask blocks the guest until an operator answers. The
// Prompter interface is that capability; the bridge holds one and never talks
// to a terminal directly, so tests can substitute a scripted provider.
//
// Providers:
//
//	NewScripted(answers...)  canned answers; cancels once exhausted
//	NewLine(in, out)         line-oriented reader for pipes and files
//	NewReadline(cfg)         line editing on a terminal; Ctrl-C/Ctrl-D cancel
//	NewChannel()             hands questions to another goroutine (TUI)
//	Auto(stdin, stdout)      readline on a terminal, line reader otherwise
//
// Cancellation is reported as ErrCancelled, never as an empty answer, so the
// caller decides how to degrade.
package prompt
