// Package templates loads PRD and Spec content templates from disk.
//
// A template is an ordered set of sections, each with a title, a required
// flag and a list of guiding prompts. Files are named <type>-prd.json or
// <type>-spec.json (YAML variants are also read). Spec templates fall back
// to built-in defaults; PRD templates do not.
package templates

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind selects the template family a Store serves.
type Kind string

const (
	KindPRD  Kind = "prd"
	KindSpec Kind = "spec"
)

// Section is one named part of a template.
type Section struct {
	Title    string   `json:"title" yaml:"title"`
	Required bool     `json:"required" yaml:"required"`
	Prompts  []string `json:"prompts" yaml:"prompts"`
}

// Sections maps section keys to sections in file order.
type Sections = orderedmap.OrderedMap[string, Section]

// Template is immutable once returned by a Store.
type Template struct {
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description"`
	TemplateType string    `json:"templateType" yaml:"templateType"`
	Sections     *Sections `json:"sections" yaml:"-"`
}

// Keys returns section keys in order.
func (t *Template) Keys() []string {
	if t == nil {
		return []string{}
	}
	return SectionKeys(t.Sections)
}

// SectionKeys returns the keys of s in order; never nil.
func SectionKeys(s *Sections) []string {
	if s == nil {
		return []string{}
	}
	keys := make([]string, 0, s.Len())
	for p := s.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// RequiredKeys returns the keys of required sections, in order.
func (t *Template) RequiredKeys() []string {
	keys := []string{}
	if t == nil || t.Sections == nil {
		return keys
	}
	for p := t.Sections.Oldest(); p != nil; p = p.Next() {
		if p.Value.Required {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Info summarizes a template for callers that only need its shape.
type Info struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	TemplateType     string   `json:"template_type"`
	Sections         []string `json:"sections"`
	RequiredSections []string `json:"required_sections"`
}

// Found reports whether the Info describes an existing template.
func (i Info) Found() bool { return i.TemplateType != "" }

// ValidationResult reports required sections missing from a document.
type ValidationResult struct {
	Errors          []string `json:"errors"`
	MissingRequired []string `json:"missing_required"`
	IsValid         bool     `json:"is_valid"`
}

func copySections(src *Sections) *Sections {
	dst := orderedmap.New[string, Section]()
	if src == nil {
		return dst
	}
	for p := src.Oldest(); p != nil; p = p.Next() {
		s := p.Value
		s.Prompts = append([]string(nil), s.Prompts...)
		dst.Set(p.Key, s)
	}
	return dst
}
