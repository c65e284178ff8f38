package llmclient

import (
	"context"
	"encoding/json"
)

// MockClient returns deterministic, minimal payloads per sub-skill for
// offline development and tests. It is the documented fallback when no API
// credential is configured: the wizard stays fully exercisable without AI.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (m *MockClient) Name() string { return "MockLLM" }
func (m *MockClient) Close() error { return nil }

func (m *MockClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	var obj any
	switch SubSkillFrom(ctx) {
	case "extract-drivers":
		obj = map[string]any{
			"elements": []any{
				element("stk-1", "Stakeholder", "Executive team", "Owns the strategic direction"),
				element("drv-1", "Driver", "Market pressure", "Competitors moving faster"),
				withAttr(element("asm-1", "Assessment", "Slow delivery", "Release cycle too long"), "severity", "high"),
			},
			"relationships": []any{
				relationship("rel-1", "Association", "stk-1", "drv-1"),
				relationship("rel-2", "Influence", "drv-1", "asm-1"),
			},
		}
	case "derive-goals":
		obj = map[string]any{
			"elements": []any{
				element("goal-1", "Goal", "Shorten release cycle", "Quarterly to monthly releases"),
				withAttr(element("out-1", "Outcome", "Cycle time under 30 days", "Measured per release"), "target", "30d"),
			},
			"relationships": []any{
				relationship("rel-3", "Aggregation", "goal-1", "out-1"),
			},
		}
	case "decompose-initiatives":
		obj = map[string]any{
			"elements": []any{
				element("req-1", "Requirement", "CI pipeline automation", "Automate build and test gates"),
				withAttr(element("wp-1", "WorkPackage", "Delivery platform rollout", "Stand up shared pipeline"), "priority", "P1"),
			},
			"relationships": []any{
				relationship("rel-4", "Realization", "wp-1", "req-1"),
				relationship("rel-5", "Realization", "req-1", "goal-1"),
			},
		}
	case "validate-model":
		obj = map[string]any{
			"summary": map[string]any{"overallHealth": "healthy"},
			"checks": []any{
				map[string]any{"name": "traceability", "status": "PASS", "detail": "every work package realizes a goal"},
				map[string]any{"name": "measurability", "status": "PASS", "detail": "all outcomes carry targets"},
			},
			"elements":      []any{},
			"relationships": []any{},
		}
	default:
		obj = map[string]any{"elements": []any{}, "relationships": []any{}}
	}
	b, _ := json.Marshal(obj)
	return string(b), nil
}

func element(id, typ, name, desc string) map[string]any {
	return map[string]any{"id": id, "type": typ, "name": name, "description": desc}
}

func withAttr(m map[string]any, k string, v any) map[string]any {
	m[k] = v
	return m
}

func relationship(id, typ, source, target string) map[string]any {
	return map[string]any{"id": id, "type": typ, "sourceId": source, "targetId": target}
}
