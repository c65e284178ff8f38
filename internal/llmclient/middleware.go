package llmclient

import (
	"context"
	"log"
	"time"
)

// Middleware decorates a Client with cross-cutting concerns.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// Logging records duration and outcome of each completion call. There is
// deliberately no retry middleware on this surface.
func Logging() Middleware {
	return func(next Client) Client {
		return &logged{next: next}
	}
}

type logged struct {
	next Client
}

func (l *logged) Name() string { return l.next.Name() }
func (l *logged) Close() error { return l.next.Close() }

// CompleteStream forwards streaming when the wrapped client supports it, so
// logging does not hide the Streamer interface from callers.
func (l *logged) CompleteStream(ctx context.Context, systemPrompt, userMessage string, onChunk func(chunk string)) (string, error) {
	s, ok := l.next.(Streamer)
	if !ok {
		return l.Complete(ctx, systemPrompt, userMessage)
	}
	start := time.Now()
	out, err := s.CompleteStream(ctx, systemPrompt, userMessage, onChunk)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		log.Printf("llm stream failed client=%s elapsed=%s err=%v", l.next.Name(), elapsed, err)
		return "", err
	}
	log.Printf("llm stream ok client=%s elapsed=%s bytes=%d", l.next.Name(), elapsed, len(out))
	return out, nil
}

func (l *logged) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	start := time.Now()
	out, err := l.next.Complete(ctx, systemPrompt, userMessage)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		log.Printf("llm call failed client=%s sub_skill=%s elapsed=%s err=%v",
			l.next.Name(), SubSkillFrom(ctx), elapsed, err)
		return "", err
	}
	log.Printf("llm call ok client=%s sub_skill=%s elapsed=%s bytes=%d",
		l.next.Name(), SubSkillFrom(ctx), elapsed, len(out))
	return out, nil
}
