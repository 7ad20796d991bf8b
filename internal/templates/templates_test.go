package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leanJSON = `{
  "name": "Lean PRD",
  "description": "Minimal viable documentation",
  "templateType": "lean",
  "sections": {
    "problem": {"title": "Problem", "required": true, "prompts": ["What problem are we solving?"]},
    "solution": {"title": "Solution", "required": true, "prompts": []},
    "metrics": {"title": "Success Metrics", "required": false, "prompts": ["How do we measure success?"]},
    "assumptions": {"title": "Assumptions", "required": true}
  }
}`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func newStore(t *testing.T, kind Kind, dir string) *Store {
	t.Helper()
	s, err := NewStore(kind, dir)
	require.NoError(t, err)
	return s
}

// --- Load: PRD ---

func TestLoad_PRDFromJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lean-prd.json", leanJSON)
	s := newStore(t, KindPRD, dir)

	tmpl, ok := s.Load("lean")
	require.True(t, ok)
	assert.Equal(t, "Lean PRD", tmpl.Name)
	assert.Equal(t, []string{"problem", "solution", "metrics", "assumptions"}, tmpl.Keys(),
		"section order must follow the file")
	assert.Equal(t, []string{"problem", "solution", "assumptions"}, tmpl.RequiredKeys())
}

func TestLoad_PRDUnknownIsNotFound(t *testing.T) {
	s := newStore(t, KindPRD, t.TempDir())

	_, ok := s.Load("nonexistent")
	assert.False(t, ok)
	assert.False(t, s.Info("nonexistent").Found())
	assert.Zero(t, s.Sections("nonexistent").Len())
}

func TestLoad_PRDMalformedDegradesToNotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken-prd.json", `{"name": "Broken", "sections": {`)
	s := newStore(t, KindPRD, dir)

	_, ok := s.Load("broken")
	assert.False(t, ok)
}

func TestLoad_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lean-prd.json", leanJSON)
	s := newStore(t, KindPRD, filepath.Join(dir, "sub"))

	_, ok := s.Load("../lean")
	assert.False(t, ok)
}

func TestLoad_CachesParsedTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lean-prd.json", leanJSON)
	s := newStore(t, KindPRD, dir)

	first, ok := s.Load("lean")
	require.True(t, ok)

	// The source is treated as immutable: removing it does not evict.
	require.NoError(t, os.Remove(filepath.Join(dir, "lean-prd.json")))
	second, ok := s.Load("lean")
	require.True(t, ok)
	assert.Same(t, first, second)
}

func TestLoad_YAMLKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "agile-prd.yaml", `name: Agile PRD
description: Sprints and stories
templateType: agile
sections:
  stories:
    title: User Stories
    required: true
    prompts:
      - Who is the user?
  acceptance:
    title: Acceptance Criteria
    required: true
  backlog:
    title: Backlog
`)
	s := newStore(t, KindPRD, dir)

	tmpl, ok := s.Load("agile")
	require.True(t, ok)
	assert.Equal(t, []string{"stories", "acceptance", "backlog"}, tmpl.Keys())
	assert.Equal(t, []string{"stories", "acceptance"}, tmpl.RequiredKeys())
}

func TestLoad_YAMLDuplicateSectionRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dup-prd.yml", "name: Dup\nsections:\n  a:\n    title: A\n  a:\n    title: B\n")
	s := newStore(t, KindPRD, dir)

	_, ok := s.Load("dup")
	assert.False(t, ok)
}

func TestLoad_JSONDuplicateSectionRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dup-prd.json", `{"name": "Dup", "sections": {
		"a": {"title": "A", "required": true},
		"b": {"title": "B"},
		"a": {"title": "A again"}
	}}`)
	s := newStore(t, KindPRD, dir)

	_, ok := s.Load("dup")
	assert.False(t, ok)
}

func TestParseJSON_SectionsMustBeObject(t *testing.T) {
	_, err := parseJSON([]byte(`{"name": "X", "sections": ["a", "b"]}`))
	assert.Error(t, err)

	tmpl, err := parseJSON([]byte(`{"name": "X", "sections": null}`))
	require.NoError(t, err)
	assert.Zero(t, tmpl.Sections.Len())
}

func TestLoad_JSONWinsOverYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lean-prd.json", leanJSON)
	writeFile(t, dir, "lean-prd.yaml", "name: From YAML\n")
	s := newStore(t, KindPRD, dir)

	tmpl, ok := s.Load("lean")
	require.True(t, ok)
	assert.Equal(t, "Lean PRD", tmpl.Name)
}

// --- Load: Spec ---

func TestLoad_SpecDefaults(t *testing.T) {
	s := newStore(t, KindSpec, t.TempDir())

	for _, tt := range DefaultSpecTypes {
		tmpl, ok := s.Load(tt)
		require.True(t, ok, tt)
		assert.Equal(t, tt, tmpl.TemplateType)
		assert.NotZero(t, tmpl.Sections.Len(), tt)
	}
}

func TestLoad_SpecUnknownFallsBackToAPI(t *testing.T) {
	s := newStore(t, KindSpec, t.TempDir())

	info := s.Info("nonexistent")
	require.True(t, info.Found())
	assert.Equal(t, "API Specification", info.Name)
	assert.Equal(t, []string{"overview", "authentication", "endpoints", "error_handling", "rate_limiting"}, info.Sections)
	assert.Equal(t, []string{"overview", "authentication", "endpoints", "error_handling"}, info.RequiredSections)
}

func TestLoad_SpecMalformedFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "system-spec.json", "not json")
	s := newStore(t, KindSpec, dir)

	tmpl, ok := s.Load("system")
	require.True(t, ok)
	assert.Equal(t, "System Architecture Specification", tmpl.Name)
}

func TestLoad_SpecFileOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "api-spec.json", `{"name":"Custom API","sections":{"only":{"title":"Only","required":true}}}`)
	s := newStore(t, KindSpec, dir)

	info := s.Info("api")
	assert.Equal(t, "Custom API", info.Name)
	assert.Equal(t, "api", info.TemplateType, "missing templateType falls back to the requested type")
	assert.Equal(t, []string{"only"}, info.Sections)
}

// --- AvailableTypes ---

func TestAvailableTypes_PRD(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lean-prd.json", leanJSON)
	writeFile(t, dir, "agile-prd.yaml", "name: Agile\n")
	writeFile(t, dir, "api-spec.json", "{}")
	writeFile(t, dir, "README.md", "docs")
	s := newStore(t, KindPRD, dir)

	assert.Equal(t, []string{"agile", "lean"}, s.AvailableTypes())
}

func TestAvailableTypes_SpecIncludesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "api-spec.json", "{}")
	writeFile(t, dir, "graphql-spec.json", "{}")
	s := newStore(t, KindSpec, dir)

	assert.Equal(t,
		[]string{"api", "database", "graphql", "integration", "microservice", "system"},
		s.AvailableTypes())
}

func TestAvailableTypes_MissingDir(t *testing.T) {
	s := newStore(t, KindPRD, filepath.Join(t.TempDir(), "missing"))
	assert.Empty(t, s.AvailableTypes())
}

// --- Sections ---

func TestSections_ReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lean-prd.json", leanJSON)
	s := newStore(t, KindPRD, dir)

	secs := s.Sections("lean")
	secs.Delete("problem")
	p, _ := secs.Get("metrics")
	p.Prompts[0] = "mutated"

	assert.Equal(t, 4, s.Sections("lean").Len())
	assert.Equal(t, []string{"How do we measure success?"}, s.SectionPrompts("lean", "metrics"))
}

// --- Validate ---

func TestValidate_MissingRequired(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lean-prd.json", leanJSON)
	s := newStore(t, KindPRD, dir)

	res := s.Validate("lean", map[string]string{"problem": "Users churn", "solution": "   "})
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Solution", "Assumptions"}, res.MissingRequired)
	assert.Equal(t, []string{"Missing required sections: Solution, Assumptions"}, res.Errors)
}

func TestValidate_UnknownTemplate(t *testing.T) {
	s := newStore(t, KindPRD, t.TempDir())

	res := s.Validate("ghost", nil)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Template ghost not found"}, res.Errors)
}

// --- FormatSections ---

func TestFormatSections(t *testing.T) {
	s := newStore(t, KindSpec, t.TempDir())

	out := FormatSections(s.Sections("api"))
	assert.True(t, strings.HasPrefix(out, "**API Overview** (Required)\n  Guiding questions:\n  - What is the purpose of this API?"))
	assert.Contains(t, out, "\n\n**Rate Limiting & Throttling**\n")
	assert.NotContains(t, out, "Rate Limiting & Throttling** (Required)")
}

func TestFormatSections_Empty(t *testing.T) {
	assert.Equal(t, "", FormatSections(nil))
}

func TestNewStore_UnknownKind(t *testing.T) {
	_, err := NewStore("roadmap", t.TempDir())
	assert.Error(t, err)
}
