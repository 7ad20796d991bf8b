package templates

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultSpecTypes are always offered by Spec stores.
var DefaultSpecTypes = []string{"api", "system", "database", "integration", "microservice"}

// FallbackSpecType is served for Spec types with neither file nor default.
const FallbackSpecType = "api"

type sectionDef struct {
	key      string
	title    string
	required bool
	prompts  []string
}

type templateDef struct {
	name        string
	description string
	sections    []sectionDef
}

var specDefaults = map[string]templateDef{
	"api": {
		name:        "API Specification",
		description: "REST/GraphQL API specification template",
		sections: []sectionDef{
			{"overview", "API Overview", true, []string{
				"What is the purpose of this API?",
				"Who are the intended consumers?",
				"What are the main use cases?",
			}},
			{"authentication", "Authentication & Authorization", true, []string{
				"What authentication method will be used?",
				"What are the authorization requirements?",
				"How are API keys/tokens managed?",
			}},
			{"endpoints", "API Endpoints", true, []string{
				"What are the main endpoints?",
				"What are the request/response schemas?",
				"What are the HTTP methods and status codes?",
			}},
			{"error_handling", "Error Handling", true, []string{
				"How are errors formatted and returned?",
				"What are the common error scenarios?",
				"How should clients handle different error types?",
			}},
			{"rate_limiting", "Rate Limiting & Throttling", false, []string{
				"What are the rate limits?",
				"How is throttling implemented?",
				"How are limits communicated to clients?",
			}},
		},
	},
	"system": {
		name:        "System Architecture Specification",
		description: "High-level system architecture specification",
		sections: []sectionDef{
			{"overview", "System Overview", true, []string{
				"What is the system's primary purpose?",
				"What are the key components?",
				"What are the main user flows?",
			}},
			{"architecture", "Architecture Design", true, []string{
				"What is the overall architecture pattern?",
				"How do components communicate?",
				"What are the system boundaries?",
			}},
			{"data_flow", "Data Flow", true, []string{
				"How does data flow through the system?",
				"What are the data transformation points?",
				"Where is data stored and cached?",
			}},
			{"scalability", "Scalability & Performance", true, []string{
				"What are the expected load requirements?",
				"How will the system scale?",
				"What are the performance targets?",
			}},
			{"security", "Security Considerations", true, []string{
				"What are the security requirements?",
				"How is data protected?",
				"What are the authentication/authorization mechanisms?",
			}},
		},
	},
	"database": {
		name:        "Database Schema Specification",
		description: "Database design and schema specification",
		sections: []sectionDef{
			{"overview", "Database Overview", true, []string{
				"What type of database is being used?",
				"What is the primary use case?",
				"What are the data requirements?",
			}},
			{"schema", "Schema Design", true, []string{
				"What are the main entities and relationships?",
				"What are the table structures?",
				"What are the primary and foreign keys?",
			}},
			{"indexes", "Indexes & Performance", true, []string{
				"What indexes are needed for performance?",
				"What are the common query patterns?",
				"How will performance be optimized?",
			}},
			{"constraints", "Data Integrity & Constraints", true, []string{
				"What data validation rules are needed?",
				"What are the business constraints?",
				"How is data consistency maintained?",
			}},
		},
	},
	"integration": {
		name:        "Integration Specification",
		description: "System integration and external service specification",
		sections: []sectionDef{
			{"overview", "Integration Overview", true, []string{
				"What systems are being integrated?",
				"What is the integration purpose?",
				"What are the data exchange requirements?",
			}},
			{"protocols", "Communication Protocols", true, []string{
				"What communication protocols are used?",
				"How is data formatted and transmitted?",
				"What are the message schemas?",
			}},
			{"error_handling", "Error Handling & Retry Logic", true, []string{
				"How are integration failures handled?",
				"What is the retry strategy?",
				"How are errors logged and monitored?",
			}},
			{"monitoring", "Monitoring & Observability", true, []string{
				"How is integration health monitored?",
				"What metrics are tracked?",
				"How are issues detected and alerted?",
			}},
		},
	},
	"microservice": {
		name:        "Microservice Specification",
		description: "Microservice design and implementation specification",
		sections: []sectionDef{
			{"overview", "Service Overview", true, []string{
				"What is the service's responsibility?",
				"What business capability does it provide?",
				"How does it fit in the overall architecture?",
			}},
			{"api_contract", "API Contract", true, []string{
				"What APIs does the service expose?",
				"What are the request/response formats?",
				"What are the service dependencies?",
			}},
			{"data_management", "Data Management", true, []string{
				"What data does the service own?",
				"How is data consistency maintained?",
				"What is the data storage strategy?",
			}},
			{"deployment", "Deployment & Operations", true, []string{
				"How is the service deployed?",
				"What are the operational requirements?",
				"How is the service monitored and maintained?",
			}},
		},
	},
}

// defaultSpecTemplate builds a fresh default; unknown types get the api one.
func defaultSpecTemplate(templateType string) *Template {
	key := templateType
	def, ok := specDefaults[key]
	if !ok {
		key = FallbackSpecType
		def = specDefaults[key]
	}

	sections := orderedmap.New[string, Section]()
	for _, s := range def.sections {
		sections.Set(s.key, Section{
			Title:    s.title,
			Required: s.required,
			Prompts:  append([]string(nil), s.prompts...),
		})
	}
	return &Template{
		Name:         def.name,
		Description:  def.description,
		TemplateType: key,
		Sections:     sections,
	}
}
