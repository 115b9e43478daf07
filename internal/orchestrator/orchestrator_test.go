package orchestrator

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/assistant-labs/personal_assistant/internal/agents"
	"github.com/assistant-labs/personal_assistant/internal/config"
	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

// scriptedModel yields a fixed text reply for every request.
type scriptedModel struct {
	reply string
	err   error
}

func (m *scriptedModel) Name() string { return "scripted-model" }

func (m *scriptedModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if m.err != nil {
			yield(nil, m.err)
			return
		}
		resp := &model.LLMResponse{TurnComplete: true}
		if m.reply != "" {
			resp.Content = genai.NewContentFromText(m.reply, "model")
		}
		yield(resp, nil)
	}
}

func newTestOrchestrator(m model.LLM) *Orchestrator {
	cfg := &config.AppConfig{DefaultTimezone: "Asia/Kolkata"}
	cfg.Weather.OpenMeteoURL = "https://api.open-meteo.com/v1/forecast"
	cfg.Weather.NominatimURL = "https://nominatim.openstreetmap.org/search"
	cfg.Weather.GeocodeTimeout = 10 * time.Second
	cfg.Weather.ForecastTimeout = 15 * time.Second
	cfg.Search.BaseURL = "https://api.tavily.com"
	cfg.Search.MaxResults = 5
	cfg.Search.Timeout = 30 * time.Second

	o := New(agents.Deps{
		Model:  m,
		Config: cfg,
		Logger: logger.New(logger.Config{Level: logger.ErrorLevel, Format: "json", Service: "test"}),
	})
	o.newSessionID = func() string { return "test-session" }
	return o
}

func TestProcessRequest(t *testing.T) {
	o := newTestOrchestrator(&scriptedModel{reply: "The weather in Pune is sunny."})

	got := o.ProcessRequest(context.Background(), "What's the weather in Pune?")
	assert.Equal(t, "The weather in Pune is sunny.", got)
}

func TestProcessRequestModelError(t *testing.T) {
	o := newTestOrchestrator(&scriptedModel{err: fmt.Errorf("upstream unavailable")})

	got := o.ProcessRequest(context.Background(), "hello")
	assert.True(t, strings.HasPrefix(got, "Error: "), "expected error reply, got %q", got)
}

func TestProcessRequestEmptyRun(t *testing.T) {
	o := newTestOrchestrator(&scriptedModel{})

	got := o.ProcessRequest(context.Background(), "hello")
	assert.Equal(t, "No response generated", got)
}

func TestEnsureReadyIsIdempotent(t *testing.T) {
	o := newTestOrchestrator(&scriptedModel{reply: "ok"})

	require.NoError(t, o.ensureReady(context.Background()))
	coordinator := o.coordinator

	require.NoError(t, o.ensureReady(context.Background()))
	assert.Same(t, coordinator, o.coordinator)
}

func TestEnsureReadyConcurrentFirstCallers(t *testing.T) {
	o := newTestOrchestrator(&scriptedModel{reply: "ok"})

	const callers = 8
	coordinators := make([]any, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, o.ensureReady(context.Background()))
			o.mu.Lock()
			coordinators[i] = o.coordinator
			o.mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.NotNil(t, coordinators[0])
	for i := 1; i < callers; i++ {
		assert.Same(t, coordinators[0], coordinators[i], "caller %d saw a different coordinator", i)
	}
	assert.Len(t, o.roles, 4)
}

func TestStatus(t *testing.T) {
	o := newTestOrchestrator(&scriptedModel{reply: "ok"})

	status := o.Status(context.Background())
	require.True(t, status.Initialized)
	assert.Equal(t, 4, status.TotalAgents)

	weather, ok := status.Agents["WeatherAssistant"]
	require.True(t, ok)
	assert.Equal(t, 5, weather.ToolCount)
	assert.Contains(t, weather.ToolNames, "check_rain_probability")

	// No Google client configured, so email keeps only the clock tool.
	email, ok := status.Agents["EmailAssistant"]
	require.True(t, ok)
	assert.Equal(t, []string{"get_current_datetime"}, email.ToolNames)
}

func TestNormalizeEvent(t *testing.T) {
	ev := &session.Event{Author: "WeatherAssistant"}
	ev.Content = genai.NewContentFromText("  sunny  ", "model")

	step := normalizeEvent(ev)
	assert.Equal(t, "WeatherAssistant", step.Sender)
	assert.Equal(t, "sunny", step.Content)

	step = normalizeEvent(&session.Event{})
	assert.Equal(t, "unknown", step.Sender)
	assert.Empty(t, step.Content)
}
