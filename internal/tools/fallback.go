package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/HendryAvila/pmhelper/internal/backend"
	"github.com/rs/zerolog"
)

// defaultTask is one entry of the fallback roadmap. Quarters are relative
// to the quarter of the PRD save.
type defaultTask struct {
	title        string
	description  string
	priority     string
	effort       string
	quarterShift int
	dependencies string
}

var defaultTasks = []defaultTask{
	{"Finalize requirements and scope", "Review the PRD with stakeholders and freeze the MVP scope.", "P0", "Small", 0, ""},
	{"Design architecture and user experience", "Produce the technical design and the key user flows.", "P0", "Medium", 0, "Finalize requirements and scope"},
	{"Build core MVP functionality", "Implement the must-have features described in the PRD.", "P1", "Large", 1, "Design architecture and user experience"},
	{"Testing and quality assurance", "Cover the core flows with automated and exploratory tests.", "P1", "Medium", 1, "Build core MVP functionality"},
	{"Launch and gather feedback", "Release to the target users and track the success metrics.", "P2", "Medium", 2, "Testing and quality assurance"},
}

// FallbackRoadmap is the fixed, non-AI roadmap created after a PRD save
// when the project has no roadmap yet. It is a placeholder until the
// roadmap agent analyzes the PRD.
type FallbackRoadmap struct {
	store RoadmapStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewFallbackRoadmap creates the policy over store.
func NewFallbackRoadmap(store RoadmapStore, log zerolog.Logger) *FallbackRoadmap {
	return &FallbackRoadmap{store: store, now: time.Now, log: log}
}

// Tasks returns the default tasks with quarters resolved against now.
func (f *FallbackRoadmap) Tasks() []backend.Task {
	now := f.now()
	out := make([]backend.Task, len(defaultTasks))
	for i, d := range defaultTasks {
		out[i] = backend.Task{
			Title:           d.title,
			Description:     d.description,
			Priority:        d.priority,
			Quarter:         quarterLabel(now, d.quarterShift),
			EstimatedEffort: d.effort,
			Dependencies:    d.dependencies,
		}
	}
	return out
}

// Apply creates the default tasks for projectID unless the project already
// has a roadmap. It returns a note for the tool result: a summary on
// success, a warning naming the failed step, empty when nothing was done.
func (f *FallbackRoadmap) Apply(ctx context.Context, projectID int64) string {
	existing := f.store.List(ctx, projectID)
	if !existing.Success {
		f.log.Warn().Int64("project_id", projectID).Str("error", existing.Error).Msg("fallback roadmap: listing tasks failed")
		return "Warning: default roadmap tasks were skipped because listing existing tasks failed: " + existing.Error
	}
	if len(existing.Tasks) > 0 {
		return ""
	}

	tasks := f.Tasks()
	res := f.store.BulkCreate(ctx, projectID, tasks)
	if !res.Success {
		f.log.Warn().Int64("project_id", projectID).Str("error", res.Error).Msg("fallback roadmap: bulk create failed")
		return "Warning: default roadmap tasks were not created because bulk create failed: " + res.Error
	}
	n := len(res.Tasks)
	if n == 0 {
		n = len(tasks)
	}
	return fmt.Sprintf("Created %d default roadmap tasks.", n)
}

// quarterLabel formats the quarter shift quarters after t, e.g. "Q3 2025".
func quarterLabel(t time.Time, shift int) string {
	q := (int(t.Month())-1)/3 + shift
	year := t.Year() + q/4
	return fmt.Sprintf("Q%d %d", q%4+1, year)
}
