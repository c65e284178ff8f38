// Package llmclient holds the thin provider clients for the completion APIs.
// Each client focuses on the API call itself; cross-cutting concerns are
// applied as middleware decorators. Exactly one network call happens per
// Complete invocation: retries on this surface are always human-initiated.
package llmclient

import (
	"context"
	"errors"
	"fmt"
)

// Client sends one system+user message pair and returns the assistant text.
type Client interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
	Close() error
}

// ErrNoCredential means no API key is configured for the selected provider.
// Callers degrade to the deterministic mock client instead of hard-failing, so
// the wizard can be exercised without live AI access.
var ErrNoCredential = errors.New("llmclient: no API credential configured")

// ErrEmptyResponse means the provider answered 2xx but carried no content.
var ErrEmptyResponse = errors.New("llmclient: empty response from provider")

// UpstreamError is a non-success response from the completion API. The raw
// body travels with it so the human sees the upstream's own words.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llmclient: upstream status %d: %s", e.Status, e.Body)
}

// PermanentError marks a fault that no retry will fix, such as a prompt that
// exceeds the provider's context window.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error { return &PermanentError{Err: err} }

type ctxKeySubSkill struct{}

// WithSubSkill tags the context with the sub-skill driving this call. The mock
// client and the logging middleware read it.
func WithSubSkill(ctx context.Context, subSkill string) context.Context {
	return context.WithValue(ctx, ctxKeySubSkill{}, subSkill)
}

// SubSkillFrom returns the sub-skill stored in the context.
func SubSkillFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySubSkill{}).(string); ok {
		return v
	}
	return "unknown"
}
