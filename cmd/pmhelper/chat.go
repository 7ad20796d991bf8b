package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/pmhelper/internal/agent"
	"github.com/HendryAvila/pmhelper/internal/prompts"
	"github.com/HendryAvila/pmhelper/internal/server"
	"github.com/spf13/cobra"
)

var (
	chatAgent    string
	chatTemplate string
	chatProject  int64
	chatExisting string
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send one message to an agent and print the JSON response",
	Long: `Send one message to an agent and print the JSON response.

Examples:
  pmhelper chat "Create PRD using lean template for a habit tracker"
  pmhelper chat --agent spec --project 3 "Design the REST API"
  pmhelper chat --agent roadmap --project 3 "Plan Q1 and Q2"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		a, err := pickAgent(app, chatAgent)
		if err != nil {
			return err
		}

		req := agent.ChatRequest{
			Message:      strings.Join(args, " "),
			TemplateType: chatTemplate,
		}
		if chatProject > 0 || chatExisting != "" {
			pc := &prompts.ProjectContext{
				ExistingContent:    chatExisting,
				HasExistingContent: chatExisting != "",
			}
			if chatProject > 0 {
				id := chatProject
				pc.ProjectID = &id
			}
			req.ProjectContext = pc
		}

		resp := a.Chat(cmd.Context(), req)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

var templatesAgent string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the templates of an agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		a, err := pickAgent(app, templatesAgent)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, t := range a.AvailableTemplates() {
			info := a.TemplateInfo(t)
			fmt.Fprintf(out, "%-14s %s\n", t, info.Name)
			if len(info.RequiredSections) > 0 {
				fmt.Fprintf(out, "%-14s required: %s\n", "", strings.Join(info.RequiredSections, ", "))
			}
		}
		return nil
	},
}

func pickAgent(app *server.App, name string) (*agent.Agent, error) {
	switch prompts.Domain(strings.ToLower(name)) {
	case "", prompts.DomainPRD:
		return app.PRD, nil
	case prompts.DomainSpec:
		return app.Spec, nil
	case prompts.DomainRoadmap:
		return app.Roadmap, nil
	}
	return nil, fmt.Errorf("unknown agent %q (want prd, spec or roadmap)", name)
}

func init() {
	chatCmd.Flags().StringVarP(&chatAgent, "agent", "a", "prd", "agent: prd, spec or roadmap")
	chatCmd.Flags().StringVarP(&chatTemplate, "template", "t", "", "template type")
	chatCmd.Flags().Int64VarP(&chatProject, "project", "p", 0, "project id")
	chatCmd.Flags().StringVar(&chatExisting, "existing", "", "existing document content (update mode)")

	templatesCmd.Flags().StringVarP(&templatesAgent, "agent", "a", "prd", "agent: prd or spec")
}
