package prompts

import (
	"math"
	"regexp"
	"strings"
)

// essential is one piece of information a first draft needs, with a
// keyword pattern suggesting the user supplied it.
type essential struct {
	label   string
	pattern *regexp.Regexp
}

var prdEssentials = []essential{
	{"Product/Feature Name", regexp.MustCompile(`(?i)\b(called|named|name is|product|feature|app|application|platform|tool|service)\b`)},
	{"Problem Statement", regexp.MustCompile(`(?i)\b(problem|pain|struggl\w*|issue|challenge|solv\w*|frustrat\w*|difficult\w*)\b`)},
	{"Target Users", regexp.MustCompile(`(?i)\b(users?|customers?|audience|personas?|teams?|developers?|admins?|managers?|people|clients?)\b`)},
	{"Core Functionality", regexp.MustCompile(`(?i)\b(allow\w*|enabl\w*|lets?|supports?|ability|functionality|features?|can|must)\b`)},
	{"Success Metric", regexp.MustCompile(`(?i)(\b(metrics?|kpis?|measur\w*|success|conversion|retention|increase|reduce|decrease|target)\b|\d+\s*%)`)},
}

var specEssentials = []essential{
	{"System/Feature Name", regexp.MustCompile(`(?i)\b(called|named|system|service|api|feature|platform|application)\b`)},
	{"Technical Requirements", regexp.MustCompile(`(?i)\b(requirements?|constraints?|must|should|stack|language|framework)\b`)},
	{"Target Users/Systems", regexp.MustCompile(`(?i)\b(users?|clients?|consumers?|systems?|services?|frontend|mobile)\b`)},
	{"Core Functionality", regexp.MustCompile(`(?i)\b(endpoints?|crud|functionality|features?|support\w*|handl\w*|process\w*|stor\w*)\b`)},
	{"Performance Requirements", regexp.MustCompile(`(?i)(\b(latency|throughput|load|rps|qps|concurrent|scal\w*|performance|sla)\b|\d+\s*(ms|req))`)},
	{"Integration Points", regexp.MustCompile(`(?i)\b(integrat\w*|webhooks?|third[- ]party|external|stripe|oauth|queue|kafka|database)\b`)},
}

// sufficientScore is the completeness at which a request can be drafted
// without clarifying questions.
const sufficientScore = 0.6

// minDetailedWords is the word count below which a request is
// underspecified regardless of keywords.
const minDetailedWords = 8

// Assessment is a keyword heuristic over the user's request. It never
// blocks generation; it only informs requires_input and missing_info.
type Assessment struct {
	IsSufficient      bool              `json:"is_sufficient"`
	CompletenessScore float64           `json:"completeness_score"`
	MissingInfo       []string          `json:"missing_info"`
	ExtractedInfo     map[string]string `json:"extracted_info"`
	IsUnderspecified  bool              `json:"is_underspecified"`
}

// AssessInput estimates which essential information message provides.
func AssessInput(d Domain, message string) Assessment {
	list := prdEssentials
	if d == DomainSpec {
		list = specEssentials
	}

	a := Assessment{
		MissingInfo:   []string{},
		ExtractedInfo: map[string]string{},
	}
	for _, e := range list {
		if m := e.pattern.FindString(message); m != "" {
			a.ExtractedInfo[e.label] = strings.TrimSpace(m)
		} else {
			a.MissingInfo = append(a.MissingInfo, e.label)
		}
	}

	found := float64(len(list) - len(a.MissingInfo))
	a.CompletenessScore = math.Round(found/float64(len(list))*100) / 100
	words := len(strings.Fields(message))
	a.IsUnderspecified = words < minDetailedWords || a.CompletenessScore < 0.4
	a.IsSufficient = !a.IsUnderspecified && a.CompletenessScore >= sufficientScore
	return a
}
