package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// toMessageParams converts ADK conversation history to Anthropic messages.
// System-role contents are pulled out and returned as the system prompt.
func toMessageParams(contents []*genai.Content) ([]anthropic.MessageParam, string, error) {
	var messages []anthropic.MessageParam
	var systemPrompt string

	for _, content := range contents {
		if content == nil || len(content.Parts) == 0 {
			continue
		}

		if content.Role == "system" {
			if text := joinTextParts(content.Parts); text != "" {
				if systemPrompt != "" {
					systemPrompt += "\n\n"
				}
				systemPrompt += text
			}
			continue
		}

		msg, err := convertContent(content)
		if err != nil {
			return nil, "", fmt.Errorf("failed to convert content: %w", err)
		}
		if msg != nil {
			messages = append(messages, *msg)
		}
	}

	return messages, systemPrompt, nil
}

func convertContent(content *genai.Content) (*anthropic.MessageParam, error) {
	role := anthropic.MessageParamRoleUser
	if content.Role == "model" || content.Role == "assistant" {
		role = anthropic.MessageParamRoleAssistant
	}

	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		block, err := convertPart(part)
		if err != nil {
			return nil, err
		}
		if block != nil {
			blocks = append(blocks, *block)
		}
	}

	if len(blocks) == 0 {
		return nil, nil
	}

	return &anthropic.MessageParam{Role: role, Content: blocks}, nil
}

func convertPart(part *genai.Part) (*anthropic.ContentBlockParamUnion, error) {
	if part.Text != "" {
		return &anthropic.ContentBlockParamUnion{
			OfText: &anthropic.TextBlockParam{Text: part.Text},
		}, nil
	}

	if part.InlineData != nil {
		return &anthropic.ContentBlockParamUnion{
			OfImage: &anthropic.ImageBlockParam{
				Source: anthropic.ImageBlockParamSourceUnion{
					OfBase64: &anthropic.Base64ImageSourceParam{
						MediaType: anthropic.Base64ImageSourceMediaType(part.InlineData.MIMEType),
						Data:      string(part.InlineData.Data),
					},
				},
			},
		}, nil
	}

	if part.FunctionCall != nil {
		id := part.FunctionCall.ID
		if id == "" {
			id = part.FunctionCall.Name
		}
		return &anthropic.ContentBlockParamUnion{
			OfToolUse: &anthropic.ToolUseBlockParam{
				ID:    id,
				Name:  part.FunctionCall.Name,
				Input: part.FunctionCall.Args,
			},
		}, nil
	}

	if part.FunctionResponse != nil {
		payload, err := json.Marshal(part.FunctionResponse.Response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal function response: %w", err)
		}
		id := part.FunctionResponse.ID
		if id == "" {
			id = part.FunctionResponse.Name
		}
		return &anthropic.ContentBlockParamUnion{
			OfToolResult: &anthropic.ToolResultBlockParam{
				ToolUseID: id,
				Content: []anthropic.ToolResultBlockParamContentUnion{
					{OfText: &anthropic.TextBlockParam{Text: string(payload)}},
				},
			},
		}, nil
	}

	return nil, nil
}

func joinTextParts(parts []*genai.Part) string {
	var texts []string
	for _, part := range parts {
		if part != nil && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// fromMessage converts an Anthropic message response into an ADK LLMResponse.
func fromMessage(message *anthropic.Message) (*model.LLMResponse, error) {
	if message == nil {
		return nil, fmt.Errorf("nil message")
	}

	var parts []*genai.Part
	for _, block := range message.Content {
		part, err := convertBlock(block)
		if err != nil {
			return nil, err
		}
		if part != nil {
			parts = append(parts, part)
		}
	}

	usage := &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     int32(message.Usage.InputTokens),
		CandidatesTokenCount: int32(message.Usage.OutputTokens),
		TotalTokenCount:      int32(message.Usage.InputTokens + message.Usage.OutputTokens),
	}

	var finishReason genai.FinishReason
	switch message.StopReason {
	case anthropic.StopReasonEndTurn,
		anthropic.StopReasonStopSequence,
		anthropic.StopReasonToolUse:
		finishReason = genai.FinishReasonStop
	case anthropic.StopReasonMaxTokens:
		finishReason = genai.FinishReasonMaxTokens
	default:
		finishReason = genai.FinishReasonOther
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: parts,
		},
		UsageMetadata: usage,
		FinishReason:  finishReason,
		TurnComplete:  true,
	}, nil
}

func convertBlock(block anthropic.ContentBlockUnion) (*genai.Part, error) {
	switch b := block.AsAny().(type) {
	case anthropic.TextBlock:
		return &genai.Part{Text: b.Text}, nil

	case anthropic.ToolUseBlock:
		inputJSON, err := json.Marshal(b.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool input: %w", err)
		}
		var args map[string]any
		if err := json.Unmarshal(inputJSON, &args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool input: %w", err)
		}
		return &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   b.ID,
				Name: b.Name,
				Args: args,
			},
		}, nil

	default:
		return nil, nil
	}
}

// toToolParams converts ADK tool objects to Anthropic tool params using the
// same Declaration contract the ADK function tools expose.
func toToolParams(tools map[string]any) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	type declarer interface {
		Declaration() *genai.FunctionDeclaration
	}

	var result []anthropic.ToolUnionParam
	for _, raw := range tools {
		t, ok := raw.(declarer)
		if !ok {
			continue
		}
		decl := t.Declaration()
		if decl == nil || decl.Name == "" {
			continue
		}

		schema := anthropic.ToolInputSchemaParam{
			Type: "object",
		}
		if m, ok := decl.ParametersJsonSchema.(map[string]any); ok {
			if props, ok := m["properties"].(map[string]any); ok {
				schema.Properties = props
			}
		}

		result = append(result, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        decl.Name,
				Description: anthropic.String(decl.Description),
				InputSchema: schema,
			},
		})
	}

	return result
}
