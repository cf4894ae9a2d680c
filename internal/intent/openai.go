package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/soyeahso/tripdesk/internal/domain"
	"github.com/soyeahso/tripdesk/internal/logging"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

// OpenAIProducer implements Producer over the OpenAI chat-completions API
// with function calling. Tool definitions are derived from the workflow
// registry per persona.
type OpenAIProducer struct {
	client   openai.Client
	registry *workflow.Registry
	model    string
	log      *logging.Logger
}

// NewOpenAIProducer builds a producer. Model may be empty, in which case
// gpt-4o is used.
func NewOpenAIProducer(apiKey, model string, registry *workflow.Registry, log *logging.Logger) *OpenAIProducer {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProducer{
		client:   openai.NewClient(option.WithAPIKey(apiKey)),
		registry: registry,
		model:    model,
		log:      log.Sub("intent"),
	}
}

func (p *OpenAIProducer) Produce(ctx context.Context, workflowID string, user domain.UserContext, history []domain.Message) (*Reply, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(SystemPrompt(workflowID, user.PassengerID, time.Now())))
	for _, m := range history {
		msgs = append(msgs, toParam(m))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: msgs,
		Tools:    p.toolParams(workflowID),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProducer, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrProducer)
	}
	choice := resp.Choices[0].Message

	reply := &Reply{Text: choice.Content}
	for _, tc := range choice.ToolCalls {
		reply.Proposals = append(reply.Proposals, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	p.log.Debug().
		Str("workflow", workflowID).
		Int("proposals", len(reply.Proposals)).
		Msg("produced assistant step")
	return reply, nil
}

func toParam(m domain.Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case domain.RoleAssistant:
		if len(m.ToolCalls) == 0 {
			return openai.AssistantMessage(m.Content)
		}
		asst := openai.ChatCompletionAssistantMessageParam{}
		if m.Content != "" {
			asst.Content.OfString = openai.String(m.Content)
		}
		for _, c := range m.ToolCalls {
			asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
				ID: c.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      c.Name,
					Arguments: string(c.Arguments),
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}
	case domain.RoleTool:
		return openai.ToolMessage(m.Content, m.ToolCallID)
	case domain.RoleSystem:
		return openai.SystemMessage(m.Content)
	default:
		return openai.UserMessage(m.Content)
	}
}

func (p *OpenAIProducer) toolParams(workflowID string) []openai.ChatCompletionToolParam {
	defs := p.registry.ToolsFor(workflowID)
	params := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, d := range defs {
		params = append(params, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  openai.FunctionParameters(d.InputSchema),
			},
		})
	}
	return params
}
