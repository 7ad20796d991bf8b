// Package prompts decides the generation mode of a turn and composes the
// instructions and user prompt handed to the model runtime.
//
// It also provides the pm-draft-prd and pm-draft-spec MCP prompts, which
// expose the same composed instructions to MCP clients.
package prompts

import (
	"encoding/json"
	"strings"

	"github.com/HendryAvila/pmhelper/internal/backend"
)

// Domain selects the persona, phrase list and tool wording.
type Domain string

const (
	DomainPRD     Domain = "prd"
	DomainSpec    Domain = "spec"
	DomainRoadmap Domain = "roadmap"
)

// Mode is the generation mode of one turn.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// ProjectContext is caller-supplied, read-only state about the project.
type ProjectContext struct {
	ProjectID          *int64         `json:"project_id,omitempty"`
	ExistingContent    string         `json:"existing_content,omitempty"`
	HasExistingContent bool           `json:"has_existing_content,omitempty"`
	ExistingRoadmap    []backend.Task `json:"existing_roadmap,omitempty"`
}

// UnmarshalJSON also accepts the per-domain spellings existing_prd,
// has_existing_prd, existing_spec and has_existing_spec.
func (pc *ProjectContext) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProjectID          *int64         `json:"project_id"`
		ExistingContent    *string        `json:"existing_content"`
		HasExistingContent *bool          `json:"has_existing_content"`
		ExistingPRD        *string        `json:"existing_prd"`
		HasExistingPRD     *bool          `json:"has_existing_prd"`
		ExistingSpec       *string        `json:"existing_spec"`
		HasExistingSpec    *bool          `json:"has_existing_spec"`
		ExistingRoadmap    []backend.Task `json:"existing_roadmap"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*pc = ProjectContext{
		ProjectID:       raw.ProjectID,
		ExistingRoadmap: raw.ExistingRoadmap,
	}
	for _, s := range []*string{raw.ExistingContent, raw.ExistingPRD, raw.ExistingSpec} {
		if s != nil && *s != "" {
			pc.ExistingContent = *s
			break
		}
	}
	for _, b := range []*bool{raw.HasExistingContent, raw.HasExistingPRD, raw.HasExistingSpec} {
		if b != nil && *b {
			pc.HasExistingContent = true
			break
		}
	}
	return nil
}

// ID returns the project id, if any.
func (pc *ProjectContext) ID() (int64, bool) {
	if pc == nil || pc.ProjectID == nil {
		return 0, false
	}
	return *pc.ProjectID, true
}

// IDPtr returns a copy of the project id pointer, nil when unset.
func (pc *ProjectContext) IDPtr() *int64 {
	id, ok := pc.ID()
	if !ok {
		return nil
	}
	return &id
}

// Content returns the existing content, or "" for a nil context.
func (pc *ProjectContext) Content() string {
	if pc == nil {
		return ""
	}
	return pc.ExistingContent
}

// Roadmap returns the existing roadmap, or nil for a nil context.
func (pc *ProjectContext) Roadmap() []backend.Task {
	if pc == nil {
		return nil
	}
	return pc.ExistingRoadmap
}

// ResolveMode is UPDATE iff the context flags existing content and that
// content is not blank. A nil context is CREATE.
func ResolveMode(pc *ProjectContext) Mode {
	if pc != nil && pc.HasExistingContent && strings.TrimSpace(pc.ExistingContent) != "" {
		return ModeUpdate
	}
	return ModeCreate
}
