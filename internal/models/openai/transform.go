package openai

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// OpenAI finish_reason values.
const (
	finishReasonStop          = "stop"
	finishReasonLength        = "length"
	finishReasonToolCalls     = "tool_calls"
	finishReasonContentFilter = "content_filter"
)

// toChatMessages converts ADK conversation history to OpenAI chat messages.
// A single genai.Content can expand to several messages: each tool result
// part becomes its own tool-role message.
func toChatMessages(contents []*genai.Content) ([]openai.ChatCompletionMessageParamUnion, error) {
	var messages []openai.ChatCompletionMessageParamUnion

	for _, content := range contents {
		if content == nil || len(content.Parts) == 0 {
			continue
		}

		msgs, err := convertContent(content)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msgs...)
	}

	return messages, nil
}

func convertContent(content *genai.Content) ([]openai.ChatCompletionMessageParamUnion, error) {
	// Tool results come back from the ADK flow as parts with a
	// FunctionResponse set. OpenAI wants them as tool-role messages keyed
	// by the originating call ID.
	toolMsgs, rest := splitToolResults(content.Parts)

	var messages []openai.ChatCompletionMessageParamUnion
	messages = append(messages, toolMsgs...)

	if len(rest) == 0 {
		return messages, nil
	}

	switch content.Role {
	case "system":
		if text := joinTextParts(rest); text != "" {
			messages = append(messages, openai.SystemMessage(text))
		}

	case "model", "assistant":
		msg, err := convertAssistantParts(rest)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			messages = append(messages, *msg)
		}

	default:
		// "user" plus any role we do not recognize.
		parts := convertUserParts(rest)
		if len(parts) == 1 && parts[0].OfText != nil {
			messages = append(messages, openai.UserMessage(parts[0].OfText.Text))
		} else if len(parts) > 0 {
			messages = append(messages, openai.UserMessage(parts))
		}
	}

	return messages, nil
}

// splitToolResults converts FunctionResponse parts into tool messages and
// returns the remaining parts untouched.
func splitToolResults(parts []*genai.Part) ([]openai.ChatCompletionMessageParamUnion, []*genai.Part) {
	var toolMsgs []openai.ChatCompletionMessageParamUnion
	var rest []*genai.Part

	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.FunctionResponse != nil {
			payload, err := json.Marshal(part.FunctionResponse.Response)
			if err != nil {
				payload = []byte(fmt.Sprintf("%v", part.FunctionResponse.Response))
			}
			toolMsgs = append(toolMsgs, openai.ToolMessage(string(payload), part.FunctionResponse.ID))
			continue
		}
		rest = append(rest, part)
	}

	return toolMsgs, rest
}

func joinTextParts(parts []*genai.Part) string {
	var text string
	for _, part := range parts {
		if part == nil || part.Text == "" {
			continue
		}
		if text != "" {
			text += "\n\n"
		}
		text += part.Text
	}
	return text
}

func convertUserParts(parts []*genai.Part) []openai.ChatCompletionContentPartUnionParam {
	var result []openai.ChatCompletionContentPartUnionParam

	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			result = append(result, openai.TextContentPart(part.Text))
			continue
		}
		if part.InlineData != nil {
			imageURL := fmt.Sprintf("data:%s;base64,%s",
				part.InlineData.MIMEType,
				base64.StdEncoding.EncodeToString(part.InlineData.Data))
			result = append(result, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: imageURL,
			}))
		}
	}

	return result
}

func convertAssistantParts(parts []*genai.Part) (*openai.ChatCompletionMessageParamUnion, error) {
	var text string
	var toolCalls []openai.ChatCompletionMessageToolCallParam

	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += part.Text
			continue
		}
		if part.FunctionCall != nil {
			argsJSON, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal function args: %w", err)
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
				ID:   part.FunctionCall.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      part.FunctionCall.Name,
					Arguments: string(argsJSON),
				},
			})
		}
	}

	if text == "" && len(toolCalls) == 0 {
		return nil, nil
	}

	if len(toolCalls) > 0 {
		assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
		if text != "" {
			assistant.Content.OfString.Value = text
		}
		msg := openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
		return &msg, nil
	}

	msg := openai.AssistantMessage(text)
	return &msg, nil
}

// fromChatCompletion converts an OpenAI completion into an ADK LLMResponse.
func fromChatCompletion(completion *openai.ChatCompletion) (*model.LLMResponse, error) {
	if completion == nil {
		return nil, fmt.Errorf("nil completion")
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := completion.Choices[0]
	var parts []*genai.Part

	if choice.Message.Content != "" {
		parts = append(parts, &genai.Part{Text: choice.Message.Content})
	}

	for _, call := range choice.Message.ToolCalls {
		var args map[string]any
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool arguments: %w", err)
			}
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Function.Name,
				Args: args,
			},
		})
	}

	var usage *genai.GenerateContentResponseUsageMetadata
	if completion.Usage.TotalTokens > 0 {
		usage = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(completion.Usage.PromptTokens),
			CandidatesTokenCount: int32(completion.Usage.CompletionTokens),
			TotalTokenCount:      int32(completion.Usage.TotalTokens),
		}
		if completion.Usage.PromptTokensDetails.CachedTokens > 0 {
			usage.CachedContentTokenCount = int32(completion.Usage.PromptTokensDetails.CachedTokens)
		}
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: parts,
		},
		UsageMetadata: usage,
		FinishReason:  mapFinishReason(choice.FinishReason),
		TurnComplete:  true,
	}, nil
}

func mapFinishReason(reason string) genai.FinishReason {
	switch reason {
	case finishReasonStop, finishReasonToolCalls:
		return genai.FinishReasonStop
	case finishReasonLength:
		return genai.FinishReasonMaxTokens
	case finishReasonContentFilter:
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonOther
	}
}

// toChatTools converts ADK tool objects to OpenAI tool params. ADK hands
// tools over as an untyped map; anything exposing a Declaration is usable.
func toChatTools(tools map[string]any) []openai.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}

	type declarer interface {
		Declaration() *genai.FunctionDeclaration
	}

	var result []openai.ChatCompletionToolParam
	for _, raw := range tools {
		t, ok := raw.(declarer)
		if !ok {
			continue
		}
		decl := t.Declaration()
		if decl == nil || decl.Name == "" {
			continue
		}

		params := openai.FunctionParameters{}
		if schema, ok := decl.ParametersJsonSchema.(map[string]any); ok {
			for k, v := range schema {
				params[k] = v
			}
		}
		if _, ok := params["type"]; !ok {
			params["type"] = "object"
		}

		result = append(result, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        decl.Name,
				Description: openai.String(decl.Description),
				Parameters:  params,
			},
		})
	}

	return result
}
