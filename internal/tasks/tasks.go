// Package tasks holds the static classification table for known
// (project, task) pairs and the lookup indexes built from it.
package tasks

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FallbackHours is used when a rule does not specify default hours.
const FallbackHours = 8

// Rule classifies one known (project, task) pair.
type Rule struct {
	HarvestProjectID int64           `json:"harvest_project_id"`
	HarvestTaskID    int64           `json:"harvest_task_id"`
	DisplayName      string          `json:"display_name"`
	Emoji            string          `json:"emoji,omitempty"`
	// HideNote replaces the editable note cell with a fixed label.
	HideNote bool `json:"hide_note,omitempty"`
	// NoteRequired makes an empty note count toward "days missing a note".
	NoteRequired bool `json:"note_required,omitempty"`
	// DefaultHours is used when creating a new entry of this type.
	DefaultHours decimal.Decimal `json:"default_hours"`
}

// ProjectGroup is the creation options for one project, in declaration order.
type ProjectGroup struct {
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	Rules       []Rule `json:"rules"`
}

// Table is the immutable rule set plus precomputed indexes. Build it once at
// startup; lookups never rescan the rule slice.
type Table struct {
	rules     []Rule
	names     map[int64]string
	byTask    map[int64]Rule
	byProject map[int64]Rule
	primary   Rule
	batchFill Rule
}

// NewTable indexes the given rules. primaryTaskID designates the one-click
// default entry type and the "client hours" metric; batchFillTaskID designates
// the type used by week-at-once creation. projectNames captions creation
// groups and may leave projects unnamed.
func NewTable(rules []Rule, projectNames map[int64]string, primaryTaskID, batchFillTaskID int64) (*Table, error) {
	t := &Table{
		rules:     rules,
		names:     projectNames,
		byTask:    make(map[int64]Rule, len(rules)),
		byProject: make(map[int64]Rule, len(rules)),
	}
	for _, r := range rules {
		if r.HarvestProjectID == 0 || r.HarvestTaskID == 0 {
			return nil, fmt.Errorf("rule %q: project and task ids are required", r.DisplayName)
		}
		if _, dup := t.byTask[r.HarvestTaskID]; dup {
			return nil, fmt.Errorf("duplicate rule for task %d", r.HarvestTaskID)
		}
		t.byTask[r.HarvestTaskID] = r
		// First declared rule wins per project; note requirements are
		// project-scoped in the missing-notes metric.
		if _, seen := t.byProject[r.HarvestProjectID]; !seen {
			t.byProject[r.HarvestProjectID] = r
		}
	}
	var ok bool
	if t.primary, ok = t.byTask[primaryTaskID]; !ok {
		return nil, fmt.Errorf("primary task %d has no rule", primaryTaskID)
	}
	if t.batchFill, ok = t.byTask[batchFillTaskID]; !ok {
		return nil, fmt.Errorf("batch fill task %d has no rule", batchFillTaskID)
	}
	return t, nil
}

// RuleForTask returns the rule matching a task id, if any. Absence of a match
// is a normal outcome and falls back to generic display.
func (t *Table) RuleForTask(taskID int64) (Rule, bool) {
	r, ok := t.byTask[taskID]
	return r, ok
}

// RuleForProject returns the first declared rule for a project id, if any.
func (t *Table) RuleForProject(projectID int64) (Rule, bool) {
	r, ok := t.byProject[projectID]
	return r, ok
}

// Primary returns the designated primary task rule.
func (t *Table) Primary() Rule { return t.primary }

// BatchFill returns the rule used for week-at-once entry creation.
func (t *Table) BatchFill() Rule { return t.batchFill }

// Rules returns the table in declaration order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// ProjectName returns the display name for a project id, or "" when unnamed.
func (t *Table) ProjectName(projectID int64) string {
	return t.names[projectID]
}

// GroupByProject groups rules by project, preserving declaration order both
// across groups and within each group. The primary rule is excluded: it has
// its own dedicated creation action.
func (t *Table) GroupByProject() []ProjectGroup {
	var groups []ProjectGroup
	index := make(map[int64]int)
	for _, r := range t.rules {
		if r.HarvestTaskID == t.primary.HarvestTaskID {
			continue
		}
		i, ok := index[r.HarvestProjectID]
		if !ok {
			i = len(groups)
			index[r.HarvestProjectID] = i
			groups = append(groups, ProjectGroup{
				ProjectID:   r.HarvestProjectID,
				ProjectName: t.names[r.HarvestProjectID],
			})
		}
		groups[i].Rules = append(groups[i].Rules, r)
	}
	return groups
}

// Default returns the hand-authored rule table the service ships with.
func Default() *Table {
	eight := decimal.NewFromInt(FallbackHours)
	rules := []Rule{
		{HarvestProjectID: 1371301, HarvestTaskID: 8041094, DisplayName: "Client work", NoteRequired: true, DefaultHours: eight},
		{HarvestProjectID: 1371301, HarvestTaskID: 8041101, DisplayName: "Client meeting", NoteRequired: true, DefaultHours: decimal.NewFromInt(1)},
		{HarvestProjectID: 1390521, HarvestTaskID: 8066072, DisplayName: "Internal", Emoji: "🛠", DefaultHours: eight},
		{HarvestProjectID: 1390521, HarvestTaskID: 8066073, DisplayName: "Learning day", Emoji: "📚", DefaultHours: eight},
		{HarvestProjectID: 1390522, HarvestTaskID: 8066079, DisplayName: "Vacation", Emoji: "🌴", HideNote: true, DefaultHours: eight},
		{HarvestProjectID: 1390522, HarvestTaskID: 8066080, DisplayName: "Public holiday", Emoji: "🎉", HideNote: true, DefaultHours: eight},
		{HarvestProjectID: 1390522, HarvestTaskID: 8066081, DisplayName: "Sick leave", Emoji: "🤒", HideNote: true, DefaultHours: eight},
	}
	names := map[int64]string{
		1371301: "Client retainer",
		1390521: "Internal",
		1390522: "Absence",
	}
	t, err := NewTable(rules, names, 8041094, 8041094)
	if err != nil {
		// The builtin table is validated by tests; this is unreachable.
		panic(err)
	}
	return t
}
