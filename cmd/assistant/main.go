package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/slack-go/slack"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/assistant-labs/personal_assistant/internal/agents"
	"github.com/assistant-labs/personal_assistant/internal/config"
	"github.com/assistant-labs/personal_assistant/internal/googleauth"
	"github.com/assistant-labs/personal_assistant/internal/models/anthropic"
	"github.com/assistant-labs/personal_assistant/internal/models/openai"
	"github.com/assistant-labs/personal_assistant/internal/orchestrator"
	"github.com/assistant-labs/personal_assistant/internal/server"
	"github.com/assistant-labs/personal_assistant/pkg/logger"
	"github.com/assistant-labs/personal_assistant/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	authorize := flag.Bool("authorize", false, "run the one-time Google OAuth console flow and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg := logger.New(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})
	cfg.LogConfig(logg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	googleMgr, err := googleauth.New(cfg.Google, logg)
	if err != nil {
		logg.Warn("Google credentials unavailable, email and calendar tools will be disabled",
			logger.ErrorField(err))
	}

	if *authorize {
		if googleMgr == nil {
			logg.Error("Cannot authorize without a Google credentials file")
			os.Exit(1)
		}
		if err := googleMgr.Authorize(ctx, os.Stdin, os.Stdout); err != nil {
			logg.Error("Authorization failed", logger.ErrorField(err))
			os.Exit(1)
		}
		logg.Info("Authorization complete", logger.StringField("token_file", cfg.Google.TokenFile))
		return
	}

	llmModel, err := buildModel(ctx, cfg, logg)
	if err != nil {
		logg.Error("Failed to create LLM model", logger.ErrorField(err))
		os.Exit(1)
	}

	var googleClient *http.Client
	if googleMgr != nil {
		googleClient, err = googleMgr.Client(ctx)
		if err != nil {
			logg.Warn("Google token unavailable, email and calendar tools will be disabled",
				logger.ErrorField(err))
			googleClient = nil
		}
	}

	m := metrics.New(logg)

	orch := orchestrator.New(agents.Deps{
		Model:        llmModel,
		Config:       cfg,
		Logger:       logg,
		Metrics:      m,
		GoogleClient: googleClient,
	})

	srv := server.New(cfg, orch, slack.New(cfg.Slack.BotToken), m, logg)
	if err := srv.Run(ctx); err != nil {
		logg.Error("Server failed", logger.ErrorField(err))
		os.Exit(1)
	}
}

// buildModel creates the model.LLM instance for the configured
// provider.
func buildModel(ctx context.Context, cfg *config.AppConfig, logg logger.Logger) (model.LLM, error) {
	provider := strings.ToLower(cfg.LLM.Provider)

	switch provider {
	case config.ProviderOpenAI:
		logg.Info("Initializing OpenAI model", logger.StringField("model", cfg.OpenAI.Model))
		return openai.New(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     cfg.OpenAI.Timeout,
		}, logg)

	case config.ProviderClaude:
		logg.Info("Initializing Claude model", logger.StringField("model", cfg.Anthropic.Model))
		return anthropic.New(anthropic.Config{
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			Timeout: cfg.Anthropic.Timeout,
		}, logg)

	case config.ProviderGemini:
		logg.Info("Initializing Gemini model", logger.StringField("model", cfg.Gemini.Model))

		clientConfig := &genai.ClientConfig{APIKey: cfg.Gemini.APIKey}
		if cfg.Gemini.Project != "" && cfg.Gemini.Region != "" {
			clientConfig.Backend = genai.BackendVertexAI
			clientConfig.Project = cfg.Gemini.Project
			clientConfig.Location = cfg.Gemini.Region
			logg.Info("Using Vertex AI backend",
				logger.StringField("project", cfg.Gemini.Project),
				logger.StringField("region", cfg.Gemini.Region))
		}
		return gemini.NewModel(ctx, cfg.Gemini.Model, clientConfig)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
