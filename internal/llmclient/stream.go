package llmclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Streamer is implemented by clients that can deliver a completion as partial
// text chunks. Callers that need streaming type-assert for it and fall back
// to Complete when it is absent.
type Streamer interface {
	// CompleteStream invokes onChunk for each text delta and returns the
	// concatenated full text.
	CompleteStream(ctx context.Context, systemPrompt, userMessage string, onChunk func(chunk string)) (string, error)
}

// CompleteStream uses the chat-completions SSE protocol (stream: true,
// "data: {...}" lines terminated by "data: [DONE]").
func (c *OpenAIClient) CompleteStream(ctx context.Context, systemPrompt, userMessage string, onChunk func(chunk string)) (string, error) {
	reqBody := struct {
		openAIChatReq
		Stream bool `json:"stream"`
	}{
		openAIChatReq: openAIChatReq{
			Model: c.model,
			Messages: []openAIMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userMessage},
			},
			Temperature: 0.3,
		},
		Stream: true,
	}
	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://aioep.dev")
	req.Header.Set("X-Title", "AIOEP Strategy Modeling")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{Status: resp.StatusCode, Body: readCapped(resp.Body)}
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}
		var evt struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(payload), &evt); err != nil {
			continue
		}
		if len(evt.Choices) == 0 || evt.Choices[0].Delta.Content == "" {
			continue
		}
		full.WriteString(evt.Choices[0].Delta.Content)
		if onChunk != nil {
			onChunk(evt.Choices[0].Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if full.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return full.String(), nil
}

// CompleteStream uses the messages SSE protocol: text arrives as
// content_block_delta events carrying text_delta payloads, terminated by
// message_stop.
func (c *AnthropicClient) CompleteStream(ctx context.Context, systemPrompt, userMessage string, onChunk func(chunk string)) (string, error) {
	reqBody := struct {
		anthropicReq
		Stream bool `json:"stream"`
	}{
		anthropicReq: anthropicReq{
			Model:     c.model,
			MaxTokens: 4096,
			System:    systemPrompt,
			Messages:  []anthropicMessage{{Role: "user", Content: userMessage}},
		},
		Stream: true,
	}
	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{Status: resp.StatusCode, Body: readCapped(resp.Body)}
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var evt struct {
			Type  string `json:"type"`
			Delta struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"delta"`
		}
		if err := json.Unmarshal([]byte(payload), &evt); err != nil {
			continue
		}
		if evt.Type == "message_stop" {
			break
		}
		if evt.Type != "content_block_delta" || evt.Delta.Type != "text_delta" || evt.Delta.Text == "" {
			continue
		}
		full.WriteString(evt.Delta.Text)
		if onChunk != nil {
			onChunk(evt.Delta.Text)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if full.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return full.String(), nil
}

// CompleteStream on the mock splits the canned payload into word chunks so
// streaming consumers stay testable offline.
func (m *MockClient) CompleteStream(ctx context.Context, systemPrompt, userMessage string, onChunk func(chunk string)) (string, error) {
	full, err := m.Complete(ctx, systemPrompt, userMessage)
	if err != nil {
		return "", err
	}
	if onChunk != nil {
		words := strings.SplitAfter(full, " ")
		for _, w := range words {
			onChunk(w)
		}
	}
	return full, nil
}
