// Package wizard drives the strategy-modeling run: a fixed linear sequence of
// stages, each manual or AI-generated, gated on human confirmation. One
// Session per run; confirmed stage results accumulate into the model that both
// feeds later generations and is persisted at the end.
package wizard

import "aioep/internal/prompt"

// StageDef describes one step of the wizard sequence.
type StageDef struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	SubSkill    prompt.SubSkill `json:"subSkill,omitempty"` // empty for manual stages
}

// Manual reports whether the stage has no AI generation.
func (d StageDef) Manual() bool { return d.SubSkill == "" }

// Stage ids, in execution order.
const (
	StageInput       = "input"
	StageExtract     = "extract"
	StageGoals       = "goals"
	StageInitiatives = "initiatives"
	StageValidate    = "validate"
	StageConfirm     = "confirm"
)

// Stages is the fixed wizard sequence. No branching: a run enters at input
// and can only finish at confirm.
var Stages = []StageDef{
	{
		ID:          StageInput,
		Name:        "Vision input",
		Description: "Free-text strategy context: meeting minutes, leadership notes, pain points",
	},
	{
		ID:          StageExtract,
		Name:        "Driver extraction",
		Description: "Identify stakeholders, drivers, and pain-point assessments",
		SubSkill:    prompt.ExtractDrivers,
	},
	{
		ID:          StageGoals,
		Name:        "Goal derivation",
		Description: "Derive strategic goals and measurable outcomes from the assessments",
		SubSkill:    prompt.DeriveGoals,
	},
	{
		ID:          StageInitiatives,
		Name:        "Initiative decomposition",
		Description: "Break goals down into requirements and executable work packages",
		SubSkill:    prompt.DecomposeInitiatives,
	},
	{
		ID:          StageValidate,
		Name:        "Model validation",
		Description: "Check completeness, consistency, and traceability of the model",
		SubSkill:    prompt.ValidateModel,
	},
	{
		ID:          StageConfirm,
		Name:        "Confirm and archive",
		Description: "Review the merged model and persist it",
	},
}
