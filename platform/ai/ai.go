// Package ai defines the text-completion capability used by the scoring pipelines.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no completion backend is configured.
var ErrUnavailable = errors.New("ai completion unavailable")

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Complete calls c, treating a nil completer as unavailable.
func Complete(ctx context.Context, c Completer, prompt string) (string, error) {
	if c == nil {
		return "", ErrUnavailable
	}
	return c.Complete(ctx, prompt)
}
