package openai

import (
	"context"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.New(logger.Config{Level: logger.ErrorLevel, Format: "json", Service: "test"})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{APIKey: "sk-test", Model: "gpt-4o", Temperature: 1}},
		{name: "missing api key", cfg: Config{Model: "gpt-4o"}, wantErr: true},
		{name: "missing model", cfg: Config{APIKey: "sk-test"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.cfg, testLogger())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Model, m.Name())
		})
	}
}

func TestGenerateContentRejectsStreaming(t *testing.T) {
	m, err := New(Config{APIKey: "sk-test", Model: "gpt-4o"}, testLogger())
	require.NoError(t, err)

	req := &model.LLMRequest{
		Contents: []*genai.Content{
			{Role: "user", Parts: []*genai.Part{{Text: "Hello"}}},
		},
	}

	for _, err := range m.GenerateContent(context.Background(), req, true) {
		require.Error(t, err)
		break
	}
}

func TestToChatMessages(t *testing.T) {
	tests := []struct {
		name      string
		contents  []*genai.Content
		wantCount int
	}{
		{
			name: "single user message",
			contents: []*genai.Content{
				{Role: "user", Parts: []*genai.Part{{Text: "Hello"}}},
			},
			wantCount: 1,
		},
		{
			name: "multi-turn conversation",
			contents: []*genai.Content{
				{Role: "user", Parts: []*genai.Part{{Text: "Hello"}}},
				{Role: "model", Parts: []*genai.Part{{Text: "Hi there!"}}},
				{Role: "user", Parts: []*genai.Part{{Text: "How are you?"}}},
			},
			wantCount: 3,
		},
		{
			name:      "nil contents",
			contents:  nil,
			wantCount: 0,
		},
		{
			name: "tool result becomes tool message",
			contents: []*genai.Content{
				{
					Role: "user",
					Parts: []*genai.Part{
						{FunctionResponse: &genai.FunctionResponse{
							ID:       "call_1",
							Name:     "get_weather",
							Response: map[string]any{"result": "sunny"},
						}},
					},
				},
			},
			wantCount: 1,
		},
		{
			name: "assistant tool call plus text",
			contents: []*genai.Content{
				{
					Role: "model",
					Parts: []*genai.Part{
						{Text: "Checking the weather."},
						{FunctionCall: &genai.FunctionCall{
							ID:   "call_1",
							Name: "get_weather",
							Args: map[string]any{"location": "Pune"},
						}},
					},
				},
			},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := toChatMessages(tt.contents)
			require.NoError(t, err)
			assert.Len(t, msgs, tt.wantCount)
		})
	}
}

func TestToChatMessagesToolMessagePayload(t *testing.T) {
	msgs, err := toChatMessages([]*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{FunctionResponse: &genai.FunctionResponse{
					ID:       "call_42",
					Name:     "search_web",
					Response: map[string]any{"result": "three links"},
				}},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].OfTool)
	assert.Equal(t, "call_42", msgs[0].OfTool.ToolCallID)
}

func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		reason string
		want   genai.FinishReason
	}{
		{"stop", genai.FinishReasonStop},
		{"tool_calls", genai.FinishReasonStop},
		{"length", genai.FinishReasonMaxTokens},
		{"content_filter", genai.FinishReasonSafety},
		{"unknown", genai.FinishReasonOther},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			assert.Equal(t, tt.want, mapFinishReason(tt.reason))
		})
	}
}

type stubTool struct {
	decl *genai.FunctionDeclaration
}

func (s *stubTool) Declaration() *genai.FunctionDeclaration { return s.decl }

func TestToChatTools(t *testing.T) {
	tools := map[string]any{
		"get_weather": &stubTool{decl: &genai.FunctionDeclaration{
			Name:        "get_weather",
			Description: "Get the weather forecast for a location",
			ParametersJsonSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{"type": "string"},
				},
				"required": []any{"location"},
			},
		}},
		"unnamed": &stubTool{decl: &genai.FunctionDeclaration{Name: ""}},
		"notool":  42,
	}

	result := toChatTools(tools)
	require.Len(t, result, 1)
	assert.Equal(t, "get_weather", result[0].Function.Name)
	assert.Equal(t, "object", result[0].Function.Parameters["type"])
}

func TestFromChatCompletion(t *testing.T) {
	t.Run("nil completion", func(t *testing.T) {
		_, err := fromChatCompletion(nil)
		require.Error(t, err)
	})

	t.Run("empty choices", func(t *testing.T) {
		_, err := fromChatCompletion(&openai.ChatCompletion{})
		require.Error(t, err)
	})

	t.Run("text response", func(t *testing.T) {
		resp, err := fromChatCompletion(&openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{
					Message:      openai.ChatCompletionMessage{Content: "Hello!"},
					FinishReason: "stop",
				},
			},
			Usage: openai.CompletionUsage{
				PromptTokens:     10,
				CompletionTokens: 5,
				TotalTokens:      15,
			},
		})
		require.NoError(t, err)
		require.Len(t, resp.Content.Parts, 1)
		assert.Equal(t, "Hello!", resp.Content.Parts[0].Text)
		assert.Equal(t, "model", resp.Content.Role)
		assert.True(t, resp.TurnComplete)
		require.NotNil(t, resp.UsageMetadata)
		assert.Equal(t, int32(15), resp.UsageMetadata.TotalTokenCount)
	})

	t.Run("tool call response", func(t *testing.T) {
		resp, err := fromChatCompletion(&openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						ToolCalls: []openai.ChatCompletionMessageToolCall{
							{
								ID:   "call_123",
								Type: "function",
								Function: openai.ChatCompletionMessageToolCallFunction{
									Name:      "get_weather",
									Arguments: `{"location":"Pune"}`,
								},
							},
						},
					},
					FinishReason: "tool_calls",
				},
			},
		})
		require.NoError(t, err)
		require.Len(t, resp.Content.Parts, 1)
		call := resp.Content.Parts[0].FunctionCall
		require.NotNil(t, call)
		assert.Equal(t, "get_weather", call.Name)
		assert.Equal(t, "Pune", call.Args["location"])
	})

	t.Run("malformed tool arguments", func(t *testing.T) {
		_, err := fromChatCompletion(&openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						ToolCalls: []openai.ChatCompletionMessageToolCall{
							{
								ID: "call_1",
								Function: openai.ChatCompletionMessageToolCallFunction{
									Name:      "get_weather",
									Arguments: "{not json",
								},
							},
						},
					},
				},
			},
		})
		require.Error(t, err)
	})
}
