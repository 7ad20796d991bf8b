package prompts

import "strings"

// prdAssumptionPhrases are matched case-insensitively as substrings.
// The list is a heuristic: paraphrases are not detected.
var prdAssumptionPhrases = []string{
	"answer the questions for me",
	"fill in reasonable defaults",
	"fill in defaults",
	"make assumptions",
	"use your best judgment",
	"create a sample",
	"create an example",
	"fill in the blanks",
	"answer for me",
	"make reasonable assumptions",
	"use industry best practices",
	"create a template",
	"generate with defaults",
}

// specAssumptionPhrases extends the PRD list with design requests.
var specAssumptionPhrases = append(append([]string(nil), prdAssumptionPhrases...),
	"design the architecture",
	"create the technical design",
	"specify the implementation",
)

// AssumptionPhrases returns a copy of the phrase list for domain.
// The roadmap domain has none.
func AssumptionPhrases(d Domain) []string {
	switch d {
	case DomainPRD:
		return append([]string(nil), prdAssumptionPhrases...)
	case DomainSpec:
		return append([]string(nil), specAssumptionPhrases...)
	}
	return nil
}

// DetectAssumptionRequest reports whether message asks the model to fill
// in missing information on its own.
func DetectAssumptionRequest(d Domain, message string) bool {
	lower := strings.ToLower(message)
	var phrases []string
	switch d {
	case DomainPRD:
		phrases = prdAssumptionPhrases
	case DomainSpec:
		phrases = specAssumptionPhrases
	}
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
