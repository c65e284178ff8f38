// Package extract coerces raw LLM response text into a well-formed JSON value.
//
// Model responses are not reliably pure JSON, so extraction runs an ordered
// list of parsing strategies and takes the first success. When every strategy
// fails the original text is wrapped in a {"raw": ...} sentinel instead of an
// error: the pipeline treats that as "no usable result" and shows the raw text
// to the human for a retry.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?\\s*```")

// Extract applies the strategies in order: whole-text parse, fenced code
// block, first-brace-to-last-brace substring. The result is always valid JSON.
func Extract(raw string) json.RawMessage {
	for _, strategy := range []func(string) (json.RawMessage, bool){
		parseWhole,
		parseFenced,
		parseBraceSpan,
	} {
		if out, ok := strategy(raw); ok {
			return out
		}
	}
	return rawSentinel(raw)
}

func parseWhole(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

func parseFenced(text string) (json.RawMessage, bool) {
	m := fenceRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	inner := strings.TrimSpace(m[1])
	if inner == "" || !json.Valid([]byte(inner)) {
		return nil, false
	}
	return json.RawMessage(inner), true
}

func parseBraceSpan(text string) (json.RawMessage, bool) {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last <= first {
		return nil, false
	}
	span := text[first : last+1]
	if !json.Valid([]byte(span)) {
		return nil, false
	}
	return json.RawMessage(span), true
}

func rawSentinel(text string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"raw": text})
	return b
}

// IsRaw reports whether value is the extraction-failure sentinel: a "raw" key
// with no "elements" key. Downstream stages surface this as retryable rather
// than crashing.
func IsRaw(value json.RawMessage) bool {
	var probe struct {
		Raw      *string         `json:"raw"`
		Elements json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(value, &probe); err != nil {
		return false
	}
	return probe.Raw != nil && len(probe.Elements) == 0
}

// RawText returns the original response text carried by a sentinel value.
func RawText(value json.RawMessage) string {
	var probe struct {
		Raw string `json:"raw"`
	}
	_ = json.Unmarshal(value, &probe)
	return probe.Raw
}
