package chat

import (
	"context"

	pkgerrors "github.com/angelmondragon/bazaar-console/pkg/errors"
	"github.com/angelmondragon/bazaar-console/pkg/gemini"
)

// Completer produces the assistant's reply to a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt Prompt) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

type geminiCompleter struct {
	client *gemini.Client
}

// NewGeminiCompleter routes prompts to the Gemini generateContent endpoint.
func NewGeminiCompleter(client *gemini.Client) Completer {
	return geminiCompleter{client: client}
}

func (g geminiCompleter) Complete(ctx context.Context, prompt Prompt) (string, error) {
	history := make([]gemini.Content, 0, len(prompt.History))
	for _, msg := range prompt.History {
		history = append(history, gemini.Content{Role: msg.Role.WireRole(), Text: msg.Text})
	}
	return g.client.Generate(ctx, history, prompt.Text)
}

// Unavailable returns a Completer that fails every prompt, used when no assistant is configured.
func Unavailable(reason string) Completer {
	return CompleterFunc(func(context.Context, Prompt) (string, error) {
		return "", pkgerrors.New(pkgerrors.CodeChat, reason)
	})
}

