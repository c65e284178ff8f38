// Package archimate defines the ArchiMate motivation-viewpoint model that the
// strategy-modeling pipeline produces: typed elements, typed directed
// relationships, and the persisted document envelope.
package archimate

import (
	"encoding/json"
	"strings"
	"time"
)

// ElementType is the fixed vocabulary of motivation-viewpoint node types.
type ElementType string

const (
	Stakeholder ElementType = "Stakeholder"
	Driver      ElementType = "Driver"
	Assessment  ElementType = "Assessment"
	Goal        ElementType = "Goal"
	Outcome     ElementType = "Outcome"
	Principle   ElementType = "Principle"
	Requirement ElementType = "Requirement"
	WorkPackage ElementType = "WorkPackage"
)

var elementTypes = map[ElementType]bool{
	Stakeholder: true,
	Driver:      true,
	Assessment:  true,
	Goal:        true,
	Outcome:     true,
	Principle:   true,
	Requirement: true,
	WorkPackage: true,
}

// KnownElementType reports whether t belongs to the motivation vocabulary.
func KnownElementType(t ElementType) bool { return elementTypes[t] }

// Element is a typed model node. Required fields are fixed; anything else the
// model emits (severity, target, priority, ...) lands in Attrs so that
// model-introduced extras survive a round trip without loosening the core type.
type Element struct {
	ID          string      `json:"id"`
	Type        ElementType `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`

	Attrs map[string]any `json:"-"`
}

type elementAlias Element

func (e Element) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(elementAlias(e))
	if err != nil {
		return nil, err
	}
	if len(e.Attrs) == 0 {
		return base, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range e.Attrs {
		if _, taken := merged[k]; taken {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (e *Element) UnmarshalJSON(data []byte) error {
	var alias elementAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	delete(all, "id")
	delete(all, "type")
	delete(all, "name")
	delete(all, "description")
	*e = Element(alias)
	if len(all) > 0 {
		e.Attrs = all
	}
	return nil
}

// RelationshipType is the edge vocabulary. The model occasionally invents
// types outside this set; they are carried through untouched.
type RelationshipType string

const (
	Association RelationshipType = "Association"
	Influence   RelationshipType = "Influence"
	Aggregation RelationshipType = "Aggregation"
	Realization RelationshipType = "Realization"
)

// Relationship is a typed directed edge between two elements.
type Relationship struct {
	ID       string           `json:"id"`
	Type     RelationshipType `json:"type"`
	SourceID string           `json:"sourceId"`
	TargetID string           `json:"targetId"`
	Label    string           `json:"label,omitempty"`
}

// StageResult is the output of a single pipeline stage.
type StageResult struct {
	Elements      []Element      `json:"elements"`
	Relationships []Relationship `json:"relationships"`
}

// Empty reports whether the result carries no content.
func (r StageResult) Empty() bool {
	return len(r.Elements) == 0 && len(r.Relationships) == 0
}

// Metadata stamps provenance onto a persisted document.
type Metadata struct {
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     string    `json:"status"`
	Method     string    `json:"method"`
	TargetYear int       `json:"targetYear"`
}

// Document is the persisted model envelope.
type Document struct {
	ModelVersion  string         `json:"modelVersion"`
	ModelType     string         `json:"modelType"`
	Metadata      Metadata       `json:"metadata"`
	Elements      []Element      `json:"elements"`
	Relationships []Relationship `json:"relationships"`
}

const (
	ModelVersion = "1.0"
	ModelType    = "archimate-motivation"

	// MethodLabel is the fixed method stamp written into every document.
	MethodLabel = "AI-assisted strategy modeling v1.0"
)

// DanglingEndpoints returns the relationship ids whose source or target does
// not resolve to an element in the same document. Referential integrity is not
// enforced at save time; callers report these as warnings only.
func DanglingEndpoints(elements []Element, relationships []Relationship) []string {
	ids := make(map[string]bool, len(elements))
	for _, e := range elements {
		ids[strings.TrimSpace(e.ID)] = true
	}
	var dangling []string
	for _, rel := range relationships {
		if !ids[strings.TrimSpace(rel.SourceID)] || !ids[strings.TrimSpace(rel.TargetID)] {
			dangling = append(dangling, rel.ID)
		}
	}
	return dangling
}
