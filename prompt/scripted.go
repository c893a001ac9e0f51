package prompt

import (
	"context"
)

// Scripted answers prompts from a fixed list and cancels once it runs out.
type Scripted struct {
	answers   []string
	questions []string
}

// NewScripted creates a provider that returns answers in order.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

func (s *Scripted) Prompt(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.questions = append(s.questions, question)
	if len(s.answers) == 0 {
		return "", ErrCancelled
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

// Questions returns every question asked so far.
func (s *Scripted) Questions() []string {
	return s.questions
}

// Remaining returns the number of unused answers.
func (s *Scripted) Remaining() int {
	return len(s.answers)
}
