package prompt

import (
	"context"
)

// Request is a question waiting for an answer from another goroutine.
// Exactly one of Answer or Cancel must be called.
type Request struct {
	reply    chan<- reply
	Question string
}

type reply struct {
	answer    string
	cancelled bool
}

// Answer resolves the request with text.
func (r Request) Answer(text string) {
	r.reply <- reply{answer: text}
}

// Cancel resolves the request as cancelled.
func (r Request) Cancel() {
	r.reply <- reply{cancelled: true}
}

// Channel forwards questions to whoever reads Requests. The guest thread
// stays blocked in Prompt until the request is resolved.
type Channel struct {
	requests chan Request
}

// NewChannel creates a channel prompter.
func NewChannel() *Channel {
	return &Channel{requests: make(chan Request)}
}

// Requests returns the stream of pending questions.
func (c *Channel) Requests() <-chan Request {
	return c.requests
}

func (c *Channel) Prompt(ctx context.Context, question string) (string, error) {
	ch := make(chan reply, 1)
	select {
	case c.requests <- Request{Question: question, reply: ch}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-ch:
		if r.cancelled {
			return "", ErrCancelled
		}
		return r.answer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
