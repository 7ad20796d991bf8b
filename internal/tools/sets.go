package tools

// PRDTools returns the tool set of the PRD agent.
func PRDTools(docs DocumentStore, fallback *FallbackRoadmap) []Tool {
	return []Tool{
		NewUpdatePRDTool(docs, fallback),
		NewGetPRDTool(docs),
	}
}

// SpecTools returns the tool set of the Spec agent.
func SpecTools(docs DocumentStore) []Tool {
	return []Tool{
		NewUpdateSpecTool(docs),
		NewGetSpecTool(docs),
	}
}

// RoadmapTools returns the tool set of the Roadmap agent.
func RoadmapTools(store RoadmapStore) []Tool {
	return []Tool{
		NewCreateRoadmapTasksTool(store),
		NewGetProjectRoadmapTool(store),
		NewUpdateRoadmapTaskTool(store),
		NewDeleteRoadmapTaskTool(store),
		NewClearProjectRoadmapTool(store),
	}
}
