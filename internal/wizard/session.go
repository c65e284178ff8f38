package wizard

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"aioep/internal/archimate"
)

var (
	// ErrEmptyInput rejects advancing past the input stage without text.
	ErrEmptyInput = errors.New("wizard: vision text is required")
	// ErrNoResult rejects confirming a generation stage that has nothing stored.
	ErrNoResult = errors.New("wizard: stage has no result to confirm")
	// ErrGenerationPending rejects a second generation while one is in flight
	// for the same stage.
	ErrGenerationPending = errors.New("wizard: generation already in progress for this stage")
	// ErrManualStage rejects generation on a stage with no sub-skill.
	ErrManualStage = errors.New("wizard: stage is manual, nothing to generate")
	// ErrNotConfirmStage rejects finalizing before the terminal stage.
	ErrNotConfirmStage = errors.New("wizard: not on the confirm stage")
	// ErrAtStart rejects navigating back from the first stage.
	ErrAtStart = errors.New("wizard: already at the first stage")
)

// Session is the state of one wizard run. It is created at wizard start,
// passed into the orchestrator, and discarded at completion or abandonment;
// nothing about a run lives in process-wide state.
type Session struct {
	ID string

	mu         sync.Mutex
	current    int
	inputText  string
	targetYear int
	results    map[string]archimate.StageResult
	confirmed  map[string]bool
	pending    map[string]bool
	report     *ValidationReport
	finalized  bool
}

// NewSession starts a run at the input stage. Prefill and target year
// typically come from the company settings.
func NewSession(prefill string, targetYear int) *Session {
	return &Session{
		ID:         uuid.NewString(),
		inputText:  prefill,
		targetYear: targetYear,
		results:    make(map[string]archimate.StageResult),
		confirmed:  make(map[string]bool),
		pending:    make(map[string]bool),
	}
}

// Stage returns the definition of the current stage.
func (s *Session) Stage() StageDef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stages[s.current]
}

// SetInput replaces the vision text. Only meaningful before later stages run,
// but never rejected: the human may refine wording at any point.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputText = text
}

// SetTargetYear sets the planning horizon stamped into the saved document.
func (s *Session) SetTargetYear(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetYear = year
}

// Confirm marks the current stage confirmed and advances. The input stage
// requires non-empty text; generation stages require a stored result. The
// confirm stage itself is finalized through the orchestrator, not here.
func (s *Session) Confirm() (StageDef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def := Stages[s.current]
	switch {
	case def.ID == StageConfirm:
		return def, ErrNotConfirmStage
	case def.ID == StageInput:
		if trimmedEmpty(s.inputText) {
			return def, ErrEmptyInput
		}
	default:
		if _, ok := s.results[def.ID]; !ok {
			return def, ErrNoResult
		}
	}
	s.confirmed[def.ID] = true
	s.current++
	return Stages[s.current], nil
}

// Back navigates one stage backward. Revisiting an earlier stage does not
// invalidate later confirmed stages; that is a deliberate policy, the human
// re-confirms forward through unchanged stages.
func (s *Session) Back() (StageDef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == 0 {
		return Stages[0], ErrAtStart
	}
	s.current--
	return Stages[s.current], nil
}

// Cumulative returns the union of all confirmed stages' elements and
// relationships. Unconfirmed results are excluded: a stage joins the model
// only on explicit confirmation.
func (s *Session) Cumulative() archimate.StageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cumulativeLocked()
}

func (s *Session) cumulativeLocked() archimate.StageResult {
	var all archimate.StageResult
	for _, def := range Stages {
		if !s.confirmed[def.ID] {
			continue
		}
		r, ok := s.results[def.ID]
		if !ok {
			continue
		}
		all.Elements = append(all.Elements, r.Elements...)
		all.Relationships = append(all.Relationships, r.Relationships...)
	}
	return all
}

// Result returns a stage's stored result, confirmed or not.
func (s *Session) Result(stageID string) (archimate.StageResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[stageID]
	return r, ok
}

// Report returns the validation report, if the validate stage has produced one.
func (s *Session) Report() *ValidationReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// StageState is the per-stage slice of a state snapshot.
type StageState struct {
	StageDef
	Confirmed bool `json:"confirmed"`
	HasResult bool `json:"hasResult"`
	Pending   bool `json:"pending"`
}

// State is a point-in-time snapshot of a session for the API layer.
type State struct {
	ID         string            `json:"id"`
	Current    string            `json:"current"`
	InputText  string            `json:"inputText"`
	TargetYear int               `json:"targetYear"`
	Stages     []StageState      `json:"stages"`
	Report     *ValidationReport `json:"report,omitempty"`
	Finalized  bool              `json:"finalized"`
}

// Snapshot captures the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		ID:         s.ID,
		Current:    Stages[s.current].ID,
		InputText:  s.inputText,
		TargetYear: s.targetYear,
		Report:     s.report,
		Finalized:  s.finalized,
	}
	for _, def := range Stages {
		_, has := s.results[def.ID]
		st.Stages = append(st.Stages, StageState{
			StageDef:  def,
			Confirmed: s.confirmed[def.ID],
			HasResult: has,
			Pending:   s.pending[def.ID],
		})
	}
	return st
}

func trimmedEmpty(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
