package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIClient_CompleteStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("accept header: %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"choices\":[{\"delta\":{\"content\":\"hello \"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n" +
				"data: [DONE]\n\n"))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("sk-test", "gpt-4o", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	var chunks []string
	out, err := c.CompleteStream(context.Background(), "system", "user", func(chunk string) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("full text: %q", out)
	}
	if len(chunks) != 2 || chunks[0] != "hello " {
		t.Fatalf("chunks: %v", chunks)
	}
}

func TestAnthropicClient_CompleteStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "sk-ant-test" {
			t.Errorf("api key header: %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"event: message_start\n" +
				"data: {\"type\":\"message_start\"}\n\n" +
				"event: content_block_delta\n" +
				"data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"hello \"}}\n\n" +
				"event: content_block_delta\n" +
				"data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"world\"}}\n\n" +
				"event: message_stop\n" +
				"data: {\"type\":\"message_stop\"}\n\n"))
	}))
	defer srv.Close()

	c, err := NewAnthropicClient("sk-ant-test", "claude-sonnet-4-20250514", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	var full strings.Builder
	out, err := c.CompleteStream(context.Background(), "system", "user", func(chunk string) {
		full.WriteString(chunk)
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if out != "hello world" || full.String() != "hello world" {
		t.Fatalf("full=%q chunks=%q", out, full.String())
	}
}

func TestOpenAIClient_CompleteStreamUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient("sk-test", "gpt-4o", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.CompleteStream(context.Background(), "system", "user", nil)
	ue, ok := err.(*UpstreamError)
	if !ok {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if ue.Status != http.StatusBadGateway || !strings.Contains(ue.Body, "rate limited") {
		t.Fatalf("upstream error: %+v", ue)
	}
}
