// Package strategy projects persisted motivation models into the dashboard
// shape: goals become objectives, aggregated outcomes become key results, and
// work packages reached over realization chains become initiatives.
package strategy

import (
	"time"

	"aioep/internal/archimate"
)

type KeyResult struct {
	ID          string `json:"id"`
	ObjectiveID string `json:"objectiveId"`
	Name        string `json:"name"`
	Target      string `json:"target"`
	Current     int    `json:"current"`
	Unit        string `json:"unit"`
}

type Initiative struct {
	ID          string `json:"id"`
	ObjectiveID string `json:"objectiveId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

type Objective struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Year        int          `json:"year"`
	Progress    int          `json:"progress"`
	Source      string       `json:"source"`
	ModelID     string       `json:"modelId"`
	KeyResults  []KeyResult  `json:"keyResults"`
	Initiatives []Initiative `json:"initiatives"`
}

// Objectives maps one persisted document to dashboard objectives.
func Objectives(modelID string, doc archimate.Document) []Objective {
	var goals, outcomes, workPackages []archimate.Element
	for _, e := range doc.Elements {
		switch e.Type {
		case archimate.Goal:
			goals = append(goals, e)
		case archimate.Outcome:
			outcomes = append(outcomes, e)
		case archimate.WorkPackage:
			workPackages = append(workPackages, e)
		}
	}
	year := doc.Metadata.TargetYear
	if year == 0 {
		year = time.Now().Year()
	}

	out := make([]Objective, 0, len(goals))
	for _, goal := range goals {
		obj := Objective{
			ID:          goal.ID,
			Name:        goal.Name,
			Description: goal.Description,
			Year:        year,
			Source:      "archimate",
			ModelID:     modelID,
			KeyResults:  []KeyResult{},
			Initiatives: []Initiative{},
		}

		// Outcomes hang off the goal via Aggregation.
		linkedOutcomes := map[string]bool{}
		for _, rel := range doc.Relationships {
			if rel.Type == archimate.Aggregation && rel.SourceID == goal.ID {
				linkedOutcomes[rel.TargetID] = true
			}
		}
		for _, o := range outcomes {
			if !linkedOutcomes[o.ID] {
				continue
			}
			obj.KeyResults = append(obj.KeyResults, KeyResult{
				ID:          o.ID,
				ObjectiveID: goal.ID,
				Name:        o.Name,
				Target:      stringAttr(o, "target"),
			})
		}

		// Work packages realize the goal directly or through one requirement hop.
		wpIDs := map[string]bool{}
		reqIDs := map[string]bool{}
		for _, rel := range doc.Relationships {
			if rel.Type == archimate.Realization && rel.TargetID == goal.ID {
				reqIDs[rel.SourceID] = true
				wpIDs[rel.SourceID] = true
			}
		}
		for _, rel := range doc.Relationships {
			if rel.Type == archimate.Realization && reqIDs[rel.TargetID] {
				wpIDs[rel.SourceID] = true
			}
		}
		for _, wp := range workPackages {
			if !wpIDs[wp.ID] {
				continue
			}
			priority := stringAttr(wp, "priority")
			if priority == "" {
				priority = "P2"
			}
			obj.Initiatives = append(obj.Initiatives, Initiative{
				ID:          wp.ID,
				ObjectiveID: goal.ID,
				Name:        wp.Name,
				Description: wp.Description,
				Status:      "planning",
				Priority:    priority,
			})
		}

		out = append(out, obj)
	}
	return out
}

func stringAttr(e archimate.Element, key string) string {
	if s, ok := e.Attrs[key].(string); ok {
		return s
	}
	return ""
}
