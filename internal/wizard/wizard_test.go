package wizard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"aioep/internal/archimate"
	"aioep/internal/llmclient"
	"aioep/internal/modelstore"
	"aioep/internal/prompt"
)

// scriptedClient replays canned responses or errors in order, then keeps
// returning the last entry.
type scriptedClient struct {
	steps []func(ctx context.Context) (string, error)
	calls int
}

func (c *scriptedClient) Name() string { return "scripted" }
func (c *scriptedClient) Close() error { return nil }

func (c *scriptedClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	i := c.calls
	if i >= len(c.steps) {
		i = len(c.steps) - 1
	}
	c.calls++
	return c.steps[i](ctx)
}

func respond(body string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return body, nil }
}

func fail(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

func testPrompts(t *testing.T) *prompt.Store {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prompts"), 0o755))
	for _, id := range prompt.SubSkills {
		path := filepath.Join(dir, "prompts", string(id)+".prompt.md")
		require.NoError(t, os.WriteFile(path, []byte("You run the "+string(id)+" step.\n"), 0o644))
	}
	store, err := prompt.NewStore(dir)
	require.NoError(t, err)
	return store
}

func testOrchestrator(t *testing.T, client llmclient.Client) (*Orchestrator, *modelstore.Store) {
	t.Helper()
	models := modelstore.New(t.TempDir())
	return NewOrchestrator(testPrompts(t), client, models), models
}

func confirmInput(t *testing.T, s *Session) {
	t.Helper()
	s.SetInput("We must modernize delivery before competitors overtake us.")
	_, err := s.Confirm()
	require.NoError(t, err)
}

func TestStageOrderIsFixed(t *testing.T) {
	want := []string{StageInput, StageExtract, StageGoals, StageInitiatives, StageValidate, StageConfirm}
	require.Len(t, Stages, len(want))
	for i, def := range Stages {
		require.Equal(t, want[i], def.ID)
	}
}

func TestConfirmGates(t *testing.T) {
	s := NewSession("", 2027)

	// Input stage needs text.
	_, err := s.Confirm()
	require.ErrorIs(t, err, ErrEmptyInput)
	s.SetInput("   \n\t")
	_, err = s.Confirm()
	require.ErrorIs(t, err, ErrEmptyInput)
	confirmInput(t, s)

	// Generation stage needs a stored result.
	require.Equal(t, StageExtract, s.Stage().ID)
	_, err = s.Confirm()
	require.ErrorIs(t, err, ErrNoResult)
}

func TestBackStopsAtStart(t *testing.T) {
	s := NewSession("", 2027)
	_, err := s.Back()
	require.ErrorIs(t, err, ErrAtStart)

	confirmInput(t, s)
	def, err := s.Back()
	require.NoError(t, err)
	require.Equal(t, StageInput, def.ID)
}

func TestGenerateOnManualStage(t *testing.T) {
	o, _ := testOrchestrator(t, llmclient.NewMockClient())
	s := NewSession("", 2027)
	_, err := o.Generate(context.Background(), s)
	require.ErrorIs(t, err, ErrManualStage)
}

func TestCumulativeCountsConfirmedStagesOnly(t *testing.T) {
	o, _ := testOrchestrator(t, llmclient.NewMockClient())
	s := NewSession("", 2027)
	confirmInput(t, s)

	res, err := o.Generate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, res.Elements, 3)

	// Stored but unconfirmed: not part of the model yet.
	require.Empty(t, s.Cumulative().Elements)

	_, err = s.Confirm()
	require.NoError(t, err)
	cum := s.Cumulative()
	require.Len(t, cum.Elements, 3)
	require.Len(t, cum.Relationships, 2)
}

func TestUpstreamFailureLeavesStageRetryable(t *testing.T) {
	upstream := &llmclient.UpstreamError{Status: 502, Body: "rate limited"}
	client := &scriptedClient{steps: []func(context.Context) (string, error){
		fail(upstream),
		respond(`{"elements":[{"id":"drv-9","type":"Driver","name":"Cost pressure"}],"relationships":[]}`),
	}}
	o, _ := testOrchestrator(t, client)
	s := NewSession("", 2027)
	confirmInput(t, s)

	_, err := o.Generate(context.Background(), s)
	var ue *llmclient.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, 502, ue.Status)
	require.Contains(t, ue.Body, "rate limited")

	// Nothing stored, stage unconfirmed, confirm still rejected.
	_, ok := s.Result(StageExtract)
	require.False(t, ok)
	_, err = s.Confirm()
	require.ErrorIs(t, err, ErrNoResult)

	// Explicit retry re-invokes the provider and succeeds.
	res, err := o.Generate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, res.Elements, 1)
	require.Equal(t, 2, client.calls)
}

func TestUnparseableResponseStoresNothing(t *testing.T) {
	client := &scriptedClient{steps: []func(context.Context) (string, error){
		respond("Sure! Here are the drivers I found, in plain prose."),
	}}
	o, _ := testOrchestrator(t, client)
	s := NewSession("", 2027)
	confirmInput(t, s)

	_, err := o.Generate(context.Background(), s)
	var xe *ExtractionError
	require.ErrorAs(t, err, &xe)
	require.Contains(t, xe.Raw, "plain prose")
	_, ok := s.Result(StageExtract)
	require.False(t, ok)
}

func TestRegenerateReplacesUnconfirmedResult(t *testing.T) {
	client := &scriptedClient{steps: []func(context.Context) (string, error){
		respond(`{"elements":[{"id":"drv-1","type":"Driver","name":"First pass"}],"relationships":[]}`),
		respond(`{"elements":[{"id":"drv-2","type":"Driver","name":"Second pass"},{"id":"stk-1","type":"Stakeholder","name":"Board"}],"relationships":[]}`),
	}}
	o, _ := testOrchestrator(t, client)
	s := NewSession("", 2027)
	confirmInput(t, s)

	_, err := o.Generate(context.Background(), s)
	require.NoError(t, err)
	res, err := o.Generate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, res.Elements, 2)

	stored, ok := s.Result(StageExtract)
	require.True(t, ok)
	require.Equal(t, "drv-2", stored.Elements[0].ID)
}

func runToConfirm(t *testing.T, o *Orchestrator, s *Session) {
	t.Helper()
	confirmInput(t, s)
	for s.Stage().ID != StageConfirm {
		_, err := o.Generate(context.Background(), s)
		require.NoError(t, err)
		_, err = s.Confirm()
		require.NoError(t, err)
	}
}

func TestFinalizePersistsConfirmedModel(t *testing.T) {
	o, models := testOrchestrator(t, llmclient.NewMockClient())
	s := NewSession("", 2028)
	runToConfirm(t, o, s)

	res, err := o.Finalize(context.Background(), s, "FY2028 Strategy", "AI Wizard")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.ID, "model-"))
	require.Equal(t, 7, res.ElementCount)
	require.Equal(t, 5, res.RelationshipCount)

	doc, err := models.Get(context.Background(), res.ID)
	require.NoError(t, err)
	require.Equal(t, "confirmed", doc.Metadata.Status)
	require.Equal(t, "ai + human", doc.Metadata.CreatedBy)
	require.Equal(t, 2028, doc.Metadata.TargetYear)
}

func TestFinalizeBeforeConfirmStage(t *testing.T) {
	o, _ := testOrchestrator(t, llmclient.NewMockClient())
	s := NewSession("", 2027)
	confirmInput(t, s)
	_, err := o.Finalize(context.Background(), s, "Too early", "AI Wizard")
	require.ErrorIs(t, err, ErrNotConfirmStage)
}

func TestFinalizeTwiceWritesTwoDocuments(t *testing.T) {
	o, models := testOrchestrator(t, llmclient.NewMockClient())
	s := NewSession("", 2027)
	runToConfirm(t, o, s)

	first, err := o.Finalize(context.Background(), s, "Strategy", "AI Wizard")
	require.NoError(t, err)
	second, err := o.Finalize(context.Background(), s, "Strategy", "AI Wizard")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	list, err := models.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func failingValidatePayload() string {
	return `{
		"summary": {"overallHealth": "issues found"},
		"checks": [
			{"name": "traceability", "status": "PASS", "detail": "ok"},
			{"name": "measurability", "status": "FAIL", "detail": "outcome out-1 has no target"}
		],
		"elements": [],
		"relationships": []
	}`
}

func fixedValidatePayload() string {
	return `{
		"summary": {"overallHealth": "healthy"},
		"checks": [
			{"name": "traceability", "status": "PASS", "detail": "ok"},
			{"name": "measurability", "status": "PASS", "detail": "target added"}
		],
		"elements": [{"id": "out-1", "type": "Outcome", "name": "Cycle time under 30 days", "target": "30d"}],
		"relationships": []
	}`
}

// driveToValidate walks a session to the validate stage with a report that
// has one FAIL check.
func driveToValidate(t *testing.T) (*Orchestrator, *Session, *scriptedClient) {
	t.Helper()
	stage := `{"elements":[{"id":"e-1","type":"Driver","name":"Stub"}],"relationships":[]}`
	client := &scriptedClient{steps: []func(context.Context) (string, error){
		respond(stage),
		respond(stage),
		respond(stage),
		respond(failingValidatePayload()),
		respond(fixedValidatePayload()),
	}}
	o, _ := testOrchestrator(t, client)
	s := NewSession("", 2027)
	confirmInput(t, s)
	for i := 0; i < 3; i++ {
		_, err := o.Generate(context.Background(), s)
		require.NoError(t, err)
		_, err = s.Confirm()
		require.NoError(t, err)
	}
	require.Equal(t, StageValidate, s.Stage().ID)
	_, err := o.Generate(context.Background(), s)
	require.NoError(t, err)
	return o, s, client
}

func TestFixReplacesValidateResult(t *testing.T) {
	o, s, _ := driveToValidate(t)

	report := s.Report()
	require.NotNil(t, report)
	require.Equal(t, CheckFail, report.Checks[1].Status)

	res, err := o.Fix(context.Background(), s, 1)
	require.NoError(t, err)
	require.Len(t, res.Elements, 1)
	require.Equal(t, "out-1", res.Elements[0].ID)

	// The fix replaced, not appended: validate's stored result is exactly
	// the corrected set, and the report is the fresh one.
	stored, ok := s.Result(StageValidate)
	require.True(t, ok)
	require.Len(t, stored.Elements, 1)
	require.Equal(t, CheckPass, s.Report().Checks[1].Status)
	require.Equal(t, "healthy", s.Report().Summary.OverallHealth)
}

func TestFixAfterValidateConfirmationRejected(t *testing.T) {
	stage := `{"elements":[{"id":"e-1","type":"Driver","name":"Stub"}],"relationships":[]}`
	validate := `{
		"summary": {"overallHealth": "issues found"},
		"checks": [{"name": "measurability", "status": "FAIL", "detail": "outcome has no target"}],
		"elements": [{"id": "val-1", "type": "Outcome", "name": "Patched outcome"}],
		"relationships": []
	}`
	client := &scriptedClient{steps: []func(context.Context) (string, error){
		respond(stage),
		respond(stage),
		respond(stage),
		respond(validate),
	}}
	o, models := testOrchestrator(t, client)
	s := NewSession("", 2027)
	confirmInput(t, s)
	for i := 0; i < 4; i++ {
		_, err := o.Generate(context.Background(), s)
		require.NoError(t, err)
		_, err = s.Confirm()
		require.NoError(t, err)
	}
	require.Equal(t, StageConfirm, s.Stage().ID)

	// A fix on the confirm stage is rejected rather than silently dropping
	// the validate stage back to unconfirmed.
	_, err := o.Fix(context.Background(), s, 0)
	require.ErrorIs(t, err, ErrNotValidateStage)

	res, err := o.Finalize(context.Background(), s, "Strategy", "AI Wizard")
	require.NoError(t, err)
	require.Equal(t, 4, res.ElementCount)

	doc, err := models.Get(context.Background(), res.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(doc.Elements))
	for _, e := range doc.Elements {
		ids = append(ids, e.ID)
	}
	require.Contains(t, ids, "val-1")
}

func TestFixRejectsPassingCheck(t *testing.T) {
	o, s, _ := driveToValidate(t)
	_, err := o.Fix(context.Background(), s, 0)
	require.Error(t, err)
	_, err = o.Fix(context.Background(), s, 7)
	require.Error(t, err)
}

func TestFixPromptCarriesCheckDetail(t *testing.T) {
	stage := `{"elements":[{"id":"e-1","type":"Driver","name":"Stub"}],"relationships":[]}`
	scripted := &scriptedClient{steps: []func(context.Context) (string, error){
		respond(stage),
		respond(stage),
		respond(stage),
		respond(failingValidatePayload()),
		respond(fixedValidatePayload()),
	}}
	var captured string
	client := llmclient.Wrap(scripted, func(next llmclient.Client) llmclient.Client {
		return captureClient{next: next, out: &captured}
	})
	o := NewOrchestrator(testPrompts(t), client, modelstore.New(t.TempDir()))
	s := NewSession("", 2027)
	confirmInput(t, s)
	for i := 0; i < 3; i++ {
		_, err := o.Generate(context.Background(), s)
		require.NoError(t, err)
		_, err = s.Confirm()
		require.NoError(t, err)
	}
	_, err := o.Generate(context.Background(), s)
	require.NoError(t, err)

	_, err = o.Fix(context.Background(), s, 1)
	require.NoError(t, err)
	require.Contains(t, captured, "measurability")
	require.Contains(t, captured, "outcome out-1 has no target")
}

func TestGenerateSubSkillEmbedsExistingModel(t *testing.T) {
	var captured string
	client := &scriptedClient{steps: []func(context.Context) (string, error){
		respond(`{"elements":[],"relationships":[]}`),
	}}
	prompts := testPrompts(t)

	// The scripted client can't see the message, so use a capture wrapper.
	capture := llmclient.Wrap(client, func(next llmclient.Client) llmclient.Client {
		return captureClient{next: next, out: &captured}
	})

	var existing archimate.StageResult
	require.NoError(t, json.Unmarshal(
		[]byte(`{"elements":[{"id":"stk-1","type":"Stakeholder","name":"Board"}],"relationships":[]}`), &existing))
	value, err := GenerateSubSkill(context.Background(), prompts, capture, prompt.ExtractDrivers, "grow revenue", &existing)
	require.NoError(t, err)
	require.NotNil(t, value)
	require.Contains(t, captured, "grow revenue")
	require.Contains(t, captured, "Existing model context")
	require.Contains(t, captured, "stk-1")
}

type captureClient struct {
	next llmclient.Client
	out  *string
}

func (c captureClient) Name() string { return c.next.Name() }
func (c captureClient) Close() error { return c.next.Close() }
func (c captureClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	*c.out = userMessage
	return c.next.Complete(ctx, systemPrompt, userMessage)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s := r.Start("prefill", 2027)
	require.NotEmpty(t, s.ID)

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	require.Same(t, s, got)

	r.Discard(s.ID)
	_, err = r.Get(s.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
