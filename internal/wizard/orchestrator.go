package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"aioep/internal/archimate"
	"aioep/internal/archive"
	"aioep/internal/extract"
	"aioep/internal/llmclient"
	"aioep/internal/modelstore"
	"aioep/internal/prompt"
)

// ErrStaleGeneration means the human navigated away while the call was in
// flight; the result is discarded, never stored.
var ErrStaleGeneration = errors.New("wizard: session moved on, generation result discarded")

// ErrFixUnusable means a fix call came back without a corrected element set.
var ErrFixUnusable = errors.New("wizard: fix returned no usable elements")

// ErrNotValidateStage rejects a fix while the session is on any other stage.
var ErrNotValidateStage = errors.New("wizard: fix only applies on the validate stage")

// ExtractionError carries the raw model text when no strategy could coerce it
// to JSON. The stage keeps no result; the human inspects the text and retries.
type ExtractionError struct {
	Raw string
}

func (e *ExtractionError) Error() string {
	return "wizard: model response could not be parsed as JSON"
}

// Orchestrator executes generation, fix, and finalize against a session. All
// failures recover at the stage boundary: the session is always left in a
// well-defined, resumable state.
type Orchestrator struct {
	prompts *prompt.Store
	client  llmclient.Client
	models  *modelstore.Store
	archive *archive.Store // optional off-box mirror
}

func NewOrchestrator(prompts *prompt.Store, client llmclient.Client, models *modelstore.Store) *Orchestrator {
	return &Orchestrator{prompts: prompts, client: client, models: models}
}

// WithArchive attaches the optional document archive.
func (o *Orchestrator) WithArchive(a *archive.Store) *Orchestrator {
	o.archive = a
	return o
}

// Generate runs the current stage's AI call and stores the result
// unconfirmed. While the call is outstanding the stage is pending and a
// second call is rejected. Transport and extraction failures store nothing.
func (o *Orchestrator) Generate(ctx context.Context, s *Session) (archimate.StageResult, error) {
	s.mu.Lock()
	idx := s.current
	def := Stages[idx]
	if def.Manual() {
		s.mu.Unlock()
		return archimate.StageResult{}, ErrManualStage
	}
	if s.pending[def.ID] {
		s.mu.Unlock()
		return archimate.StageResult{}, ErrGenerationPending
	}
	s.pending[def.ID] = true
	input := s.inputText
	existing := s.cumulativeLocked()
	s.mu.Unlock()

	value, err := GenerateSubSkill(ctx, o.prompts, o.client, def.SubSkill, input, &existing)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[def.ID] = false
	if err != nil {
		return archimate.StageResult{}, err
	}
	if s.current != idx {
		return archimate.StageResult{}, ErrStaleGeneration
	}
	if extract.IsRaw(value) {
		return archimate.StageResult{}, &ExtractionError{Raw: extract.RawText(value)}
	}

	var result archimate.StageResult
	if err := extract.Decode(value, &result); err != nil {
		return archimate.StageResult{}, &ExtractionError{Raw: string(value)}
	}
	// Regeneration discards the previous unconfirmed result; a stage revisited
	// after confirmation drops back to unconfirmed.
	s.results[def.ID] = result
	s.confirmed[def.ID] = false
	if def.ID == StageValidate {
		var report ValidationReport
		if err := extract.Decode(value, &report); err == nil {
			s.report = &report
		}
	}
	return result, nil
}

// Fix runs a targeted correction for one WARNING/FAIL validation check. A
// successful fix replaces the validate stage's stored result and report; it
// never appends. Only valid while the session is on the validate stage: a
// fix after confirmation would drop the stage back to unconfirmed with no
// way to re-confirm it from Confirm.
func (o *Orchestrator) Fix(ctx context.Context, s *Session, checkIndex int) (archimate.StageResult, error) {
	s.mu.Lock()
	if Stages[s.current].ID != StageValidate {
		s.mu.Unlock()
		return archimate.StageResult{}, ErrNotValidateStage
	}
	if s.report == nil || checkIndex < 0 || checkIndex >= len(s.report.Checks) {
		s.mu.Unlock()
		return archimate.StageResult{}, fmt.Errorf("wizard: no validation check at index %d", checkIndex)
	}
	check := s.report.Checks[checkIndex]
	if !check.Fixable() {
		s.mu.Unlock()
		return archimate.StageResult{}, fmt.Errorf("wizard: check %q is %s, nothing to fix", check.Name, check.Status)
	}
	if s.pending[StageValidate] {
		s.mu.Unlock()
		return archimate.StageResult{}, ErrGenerationPending
	}
	s.pending[StageValidate] = true
	existing := s.cumulativeLocked()
	if vr, ok := s.results[StageValidate]; ok && !s.confirmed[StageValidate] {
		existing.Elements = append(existing.Elements, vr.Elements...)
		existing.Relationships = append(existing.Relationships, vr.Relationships...)
	}
	s.mu.Unlock()

	fixInput := fmt.Sprintf(
		"Fix the following issue and return the corrected elements and relationships:\nIssue: %s - %s",
		check.Name, check.Text())
	value, err := GenerateSubSkill(ctx, o.prompts, o.client, prompt.ValidateModel, fixInput, &existing)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[StageValidate] = false
	if err != nil {
		return archimate.StageResult{}, err
	}
	if extract.IsRaw(value) {
		return archimate.StageResult{}, &ExtractionError{Raw: extract.RawText(value)}
	}
	var result archimate.StageResult
	if err := extract.Decode(value, &result); err != nil || result.Elements == nil {
		return archimate.StageResult{}, ErrFixUnusable
	}
	s.results[StageValidate] = result
	s.confirmed[StageValidate] = false
	var report ValidationReport
	if err := extract.Decode(value, &report); err == nil {
		s.report = &report
	}
	return result, nil
}

// Finalize persists the merged model. Only valid on the confirm stage. On
// failure the session stays there so the save can be retried without
// re-running earlier stages. Finalizing twice writes two documents.
func (o *Orchestrator) Finalize(ctx context.Context, s *Session, name, source string) (modelstore.SaveResult, error) {
	s.mu.Lock()
	if Stages[s.current].ID != StageConfirm {
		s.mu.Unlock()
		return modelstore.SaveResult{}, ErrNotConfirmStage
	}
	full := s.cumulativeLocked()
	year := s.targetYear
	s.mu.Unlock()

	if full.Elements == nil {
		full.Elements = []archimate.Element{}
	}
	res, err := o.models.Save(ctx, name, source, year, full.Elements, full.Relationships)
	if err != nil {
		return modelstore.SaveResult{}, err
	}
	if len(res.DanglingRelIDs) > 0 {
		log.Printf("model %s saved with dangling relationship endpoints: %v", res.ID, res.DanglingRelIDs)
	}
	if o.archive != nil {
		if doc, err := o.models.Get(ctx, res.ID); err == nil {
			if err := o.archive.Put(ctx, res.ID, doc); err != nil {
				log.Printf("archive mirror failed for %s: %v", res.ID, err)
			}
		}
	}

	s.mu.Lock()
	s.finalized = true
	s.mu.Unlock()
	return res, nil
}

// GenerateSubSkill is the stateless generation path shared by the orchestrator
// and the direct API endpoint: build the system prompt, issue exactly one
// completion call, coerce the answer to JSON. The extraction sentinel comes
// back as a success value; callers decide whether it is an error.
func GenerateSubSkill(ctx context.Context, prompts *prompt.Store, client llmclient.Client, subSkill prompt.SubSkill, input string, existing *archimate.StageResult) (json.RawMessage, error) {
	systemPrompt, err := prompts.SystemPrompt(subSkill)
	if err != nil {
		return nil, err
	}

	userMessage := "Analyze the following input:\n\n" + input
	if existing != nil && len(existing.Elements) > 0 {
		dump, err := json.MarshalIndent(existing, "", "  ")
		if err == nil {
			userMessage += "\n\nExisting model context:\n" + string(dump)
		}
	}

	ctx = llmclient.WithSubSkill(ctx, string(subSkill))
	raw, err := client.Complete(ctx, systemPrompt, userMessage)
	if err != nil {
		return nil, err
	}
	return extract.Extract(raw), nil
}
