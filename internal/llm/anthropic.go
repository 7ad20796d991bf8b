package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// AnthropicConfig configures AnthropicRuntime.
type AnthropicConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	MaxTokens     int
	MaxIterations int
}

// AnthropicRuntime runs the tool-use loop against the Anthropic Messages API.
type AnthropicRuntime struct {
	client *anthropic.Client
	cfg    AnthropicConfig
	log    zerolog.Logger
}

// NewAnthropicRuntime creates the runtime. The API key is required.
func NewAnthropicRuntime(cfg AnthropicConfig, log zerolog.Logger) (*AnthropicRuntime, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("anthropic: model is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	cfg.MaxIterations = boundOrDefault(cfg.MaxIterations)

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicRuntime{client: &client, cfg: cfg, log: log}, nil
}

// Name returns "anthropic".
func (r *AnthropicRuntime) Name() string { return "anthropic" }

// Run sends the prompt and dispatches every requested tool through exec
// until the model answers without tool calls.
func (r *AnthropicRuntime) Run(ctx context.Context, req Request, exec Executor) (Result, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.cfg.Model),
		MaxTokens: int64(r.cfg.MaxTokens),
		Messages:  r.convertHistory(req.History, req.Prompt),
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}
	if len(req.Tools) > 0 {
		params.Tools = convertAnthropicTools(req.Tools)
	}

	var result Result
	for i := 0; i < r.cfg.MaxIterations; i++ {
		msg, err := r.client.Messages.New(ctx, params)
		if err != nil {
			return result, fmt.Errorf("anthropic messages: %w", err)
		}

		var text strings.Builder
		var calls []anthropic.ToolUseBlock
		assistant := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch b := block.AsAny().(type) {
			case anthropic.TextBlock:
				text.WriteString(b.Text)
				assistant = append(assistant, anthropic.NewTextBlock(b.Text))
			case anthropic.ToolUseBlock:
				args, _ := b.Input.MarshalJSON()
				calls = append(calls, b)
				assistant = append(assistant, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    b.ID,
						Name:  b.Name,
						Input: json.RawMessage(args),
					},
				})
			}
		}

		if len(calls) == 0 {
			result.Output = text.String()
			return result, nil
		}

		results := make([]anthropic.ContentBlockParamUnion, 0, len(calls))
		for _, call := range calls {
			args, _ := call.Input.MarshalJSON()
			inv := ToolInvocation{Name: call.Name, Params: json.RawMessage(args)}
			result.ToolCalls = append(result.ToolCalls, inv)

			r.log.Debug().Str("tool", call.Name).Int("iteration", i).Msg("dispatching tool call")
			out := exec.Dispatch(ctx, inv)
			results = append(results, anthropic.NewToolResultBlock(call.ID, out.Text, out.IsError))
		}

		params.Messages = append(params.Messages,
			anthropic.NewAssistantMessage(assistant...),
			anthropic.NewUserMessage(results...),
		)
	}

	return result, ErrMaxIterations
}

func (r *AnthropicRuntime) convertHistory(history []Message, prompt string) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))
}

func convertAnthropicTools(tools []ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		schema := schemaMap(t.Schema)
		out[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       "object",
					Properties: schema["properties"],
					Required:   requiredFields(schema),
				},
			},
		}
	}
	return out
}
