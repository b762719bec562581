package llm

import (
	"context"
	"strings"
)

// Executor is anything that completes a request; *Adapter implements it.
type Executor interface {
	Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Complete sends system and user prompts and returns the trimmed text.
func Complete(ctx context.Context, p Executor, system, user string) (string, error) {
	resp, err := p.Execute(ctx, CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
