package templates

import (
	"strings"
)

// FormatSections renders sections for a model prompt:
//
//	**API Overview** (Required)
//	  Guiding questions:
//	  - What is the purpose of this API?
//
// Each section is followed by a blank line.
func FormatSections(sections *Sections) string {
	if sections == nil || sections.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for p := sections.Oldest(); p != nil; p = p.Next() {
		title := p.Value.Title
		if title == "" {
			title = p.Key
		}
		b.WriteString("**" + title + "**")
		if p.Value.Required {
			b.WriteString(" (Required)")
		}
		b.WriteString("\n")
		if len(p.Value.Prompts) > 0 {
			b.WriteString("  Guiding questions:\n")
			for _, q := range p.Value.Prompts {
				b.WriteString("  - " + q + "\n")
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
