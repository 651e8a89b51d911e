// plan.go defines the analysis plan structure and its parser.
//
// Plans come back from the provider as JSON. The parser is strict about
// what matters (steps exist, tools are known, descriptions are present)
// and forgiving about what does not (step ids are renumbered when the
// model forgets or duplicates them).
package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tools a plan step can request.
const (
	ToolSQL       = "sql_executor"
	ToolPlot      = "plotter"
	ToolKnowledge = "knowledge_search"
)

// Step is one executable unit of an analysis plan.
type Step struct {
	ID          int    `json:"step_id"`
	Name        string `json:"step_name"`
	Description string `json:"description"`
	Tool        string `json:"tool_needed"`
	Reasoning   string `json:"reasoning,omitempty"`
}

// Plan is a parsed, validated analysis plan.
type Plan struct {
	Goal           string `json:"goal"`
	Steps          []Step `json:"steps"`
	RiskAssessment string `json:"risk_assessment,omitempty"`
}

// ParsePlan extracts and validates a plan from a raw model reply.
func ParsePlan(reply string) (*Plan, error) {
	raw := ExtractJSON(reply)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var p Plan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}

	for i := range p.Steps {
		s := &p.Steps[i]
		tool := normalizeTool(s.Tool)
		if tool == "" {
			return nil, fmt.Errorf("step %d: unknown tool %q", i+1, s.Tool)
		}
		s.Tool = tool
		if strings.TrimSpace(s.Description) == "" {
			return nil, fmt.Errorf("step %d has no description", i+1)
		}
	}

	// Step ids are advisory; repair instead of rejecting.
	for i := range p.Steps {
		if p.Steps[i].ID != i+1 {
			for j := range p.Steps {
				p.Steps[j].ID = j + 1
			}
			break
		}
	}
	return &p, nil
}

// normalizeTool folds the aliases models like to invent onto the three
// canonical tool names. Returns "" for anything unrecognizable.
func normalizeTool(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case ToolSQL, "sql", "sql_execution", "query", "execute_sql":
		return ToolSQL
	case ToolPlot, "plot", "chart", "visualization", "visualize":
		return ToolPlot
	case ToolKnowledge, "knowledge", "kb_search", "search_knowledge":
		return ToolKnowledge
	default:
		return ""
	}
}
