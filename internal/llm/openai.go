package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"
)

// OpenAIConfig configures OpenAIRuntime.
type OpenAIConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	MaxTokens     int
	MaxIterations int
}

// OpenAIRuntime runs the tool-use loop against the OpenAI Responses API.
// Follow-up requests chain on previous_response_id and carry only the
// function call outputs.
type OpenAIRuntime struct {
	client *openai.Client
	cfg    OpenAIConfig
	log    zerolog.Logger
}

// NewOpenAIRuntime creates the runtime. The API key is required.
func NewOpenAIRuntime(cfg OpenAIConfig, log zerolog.Logger) (*OpenAIRuntime, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	cfg.MaxIterations = boundOrDefault(cfg.MaxIterations)

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIRuntime{client: &client, cfg: cfg, log: log}, nil
}

// Name returns "openai".
func (r *OpenAIRuntime) Name() string { return "openai" }

// Run sends the prompt and dispatches every requested function call
// through exec until the model answers without calls.
func (r *OpenAIRuntime) Run(ctx context.Context, req Request, exec Executor) (Result, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(r.cfg.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertOpenAIInput(req),
		},
		MaxOutputTokens: openai.Int(int64(r.cfg.MaxTokens)),
	}
	if len(req.Tools) > 0 {
		params.Tools = convertOpenAITools(req.Tools)
	}

	var result Result
	for i := 0; i < r.cfg.MaxIterations; i++ {
		resp, err := r.client.Responses.New(ctx, params)
		if err != nil {
			return result, fmt.Errorf("openai responses: %w", err)
		}
		if resp.Error.Message != "" {
			return result, fmt.Errorf("openai responses: %s", resp.Error.Message)
		}

		outputs := responses.ResponseInputParam{}
		for _, item := range resp.Output {
			if item.Type != "function_call" {
				continue
			}
			inv := ToolInvocation{Name: item.Name, Params: json.RawMessage(item.Arguments)}
			result.ToolCalls = append(result.ToolCalls, inv)

			r.log.Debug().Str("tool", item.Name).Int("iteration", i).Msg("dispatching tool call")
			out := exec.Dispatch(ctx, inv)
			outputs = append(outputs, responses.ResponseInputItemParamOfFunctionCallOutput(item.CallID, out.Text))
		}

		if len(outputs) == 0 {
			result.Output = resp.OutputText()
			return result, nil
		}

		params.PreviousResponseID = openai.String(resp.ID)
		params.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: outputs}
	}

	return result, ErrMaxIterations
}

func convertOpenAIInput(req Request) responses.ResponseInputParam {
	in := make(responses.ResponseInputParam, 0, len(req.History)+2)
	if req.Instructions != "" {
		in = append(in, responses.ResponseInputItemParamOfMessage(req.Instructions, responses.EasyInputMessageRoleSystem))
	}
	for _, m := range req.History {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := responses.EasyInputMessageRoleUser
		if m.Role == "assistant" {
			role = responses.EasyInputMessageRoleAssistant
		}
		in = append(in, responses.ResponseInputItemParamOfMessage(m.Content, role))
	}
	return append(in, responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser))
}

func convertOpenAITools(tools []ToolSpec) []responses.ToolUnionParam {
	out := make([]responses.ToolUnionParam, len(tools))
	for i, t := range tools {
		out[i] = responses.ToolParamOfFunction(t.Name, schemaMap(t.Schema), false)
		if t.Description != "" {
			fn := out[i].OfFunction
			fn.Description = openai.String(t.Description)
			out[i].OfFunction = fn
		}
	}
	return out
}
