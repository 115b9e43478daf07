// Package anthropic implements the ADK model.LLM interface on top of
// Anthropic's messages API.
package anthropic

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/adk/model"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

const defaultMaxTokens = 4096

// Config carries the provider settings needed to build a Model.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Model wraps an Anthropic client as an ADK-compatible LLM.
type Model struct {
	client    anthropic.Client
	modelName string
	log       logger.Logger
}

// New creates a new Claude-backed model.
func New(cfg Config, log logger.Logger) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("anthropic: model name is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Model{
		client:    anthropic.NewClient(opts...),
		modelName: cfg.Model,
		log:       log,
	}, nil
}

// Name returns the configured model name.
func (m *Model) Name() string {
	return m.modelName
}

// GenerateContent performs a single messages call. Streaming is not
// supported; the orchestrator always runs with streaming disabled.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if stream {
			yield(nil, fmt.Errorf("anthropic: streaming not supported"))
			return
		}

		resp, err := m.complete(ctx, req)
		yield(resp, err)
	}
}

func (m *Model) complete(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	messages, systemPrompt, err := toMessageParams(req.Contents)
	if err != nil {
		return nil, fmt.Errorf("failed to transform request: %w", err)
	}

	// The agent Instruction arrives through Config.SystemInstruction and
	// joins any inline system messages.
	if sys := systemText(req); sys != "" {
		if systemPrompt != "" {
			sys += "\n\n" + systemPrompt
		}
		systemPrompt = sys
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.modelName),
		MaxTokens: defaultMaxTokens,
		Messages:  messages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	if req.Config != nil {
		if req.Config.MaxOutputTokens > 0 {
			params.MaxTokens = int64(req.Config.MaxOutputTokens)
		}
		if req.Config.Temperature != nil {
			params.Temperature = anthropic.Float(float64(*req.Config.Temperature))
		}
		if req.Config.TopP != nil {
			params.TopP = anthropic.Float(float64(*req.Config.TopP))
		}
		if len(req.Config.StopSequences) > 0 {
			params.StopSequences = req.Config.StopSequences
		}
	}

	if tools := toToolParams(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	start := time.Now()
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude api error: %w", err)
	}
	m.log.Debug("Claude completion finished",
		logger.StringField("model", m.modelName),
		logger.DurationField("duration", time.Since(start)),
	)

	llmResp, err := fromMessage(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to transform response: %w", err)
	}
	return llmResp, nil
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
