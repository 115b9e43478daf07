// Package openai implements the ADK model.LLM interface on top of
// OpenAI's chat completions API.
package openai

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/adk/model"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

const defaultMaxTokens = 4096

// Config carries the provider settings needed to build a Model.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Model wraps an OpenAI client as an ADK-compatible LLM.
type Model struct {
	client      *openai.Client
	modelName   string
	temperature float64
	log         logger.Logger
}

// New creates a new OpenAI-backed model.
func New(cfg Config, log logger.Logger) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: model name is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := openai.NewClient(opts...)

	return &Model{
		client:      &client,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		log:         log,
	}, nil
}

// Name returns the configured model name.
func (m *Model) Name() string {
	return m.modelName
}

// GenerateContent performs a single chat completion. Streaming is not
// supported; the orchestrator always runs with streaming disabled.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if stream {
			yield(nil, fmt.Errorf("openai: streaming not supported"))
			return
		}

		resp, err := m.complete(ctx, req)
		yield(resp, err)
	}
}

func (m *Model) complete(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	messages, err := toChatMessages(req.Contents)
	if err != nil {
		return nil, fmt.Errorf("failed to transform request: %w", err)
	}

	// The agent Instruction arrives through Config.SystemInstruction and
	// must lead the message array.
	if sys := systemText(req); sys != "" {
		messages = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(sys)}, messages...)
	}

	var maxTokens int64 = defaultMaxTokens
	if req.Config != nil && req.Config.MaxOutputTokens > 0 {
		maxTokens = int64(req.Config.MaxOutputTokens)
	}

	params := openai.ChatCompletionNewParams{
		Model:       m.modelName,
		MaxTokens:   openai.Int(maxTokens),
		Messages:    messages,
		Temperature: openai.Float(m.temperature),
	}

	if req.Config != nil {
		if req.Config.Temperature != nil {
			params.Temperature = openai.Float(float64(*req.Config.Temperature))
		}
		if req.Config.TopP != nil {
			params.TopP = openai.Float(float64(*req.Config.TopP))
		}
		if len(req.Config.StopSequences) > 0 {
			params.Stop = openai.ChatCompletionNewParamsStopUnion{
				OfStringArray: req.Config.StopSequences,
			}
		}
	}

	if tools := toChatTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	start := time.Now()
	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	m.log.Debug("OpenAI completion finished",
		logger.StringField("model", m.modelName),
		logger.DurationField("duration", time.Since(start)),
	)

	resp, err := fromChatCompletion(completion)
	if err != nil {
		return nil, fmt.Errorf("failed to transform response: %w", err)
	}
	return resp, nil
}

func systemText(req *model.LLMRequest) string {
	if req.Config == nil || req.Config.SystemInstruction == nil {
		return ""
	}
	var text string
	for _, part := range req.Config.SystemInstruction.Parts {
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
