package agents

import (
	"context"
	"iter"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"

	"github.com/assistant-labs/personal_assistant/internal/config"
	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

type stubModel struct{}

func (stubModel) Name() string { return "stub-model" }

func (stubModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {}
}

func testDeps() Deps {
	cfg := &config.AppConfig{
		DefaultTimezone: "Asia/Kolkata",
	}
	cfg.Weather.OpenMeteoURL = "https://api.open-meteo.com/v1/forecast"
	cfg.Weather.NominatimURL = "https://nominatim.openstreetmap.org/search"
	cfg.Weather.GeocodeTimeout = 10 * time.Second
	cfg.Weather.ForecastTimeout = 15 * time.Second
	cfg.Search.BaseURL = "https://api.tavily.com"
	cfg.Search.MaxResults = 5
	cfg.Search.Timeout = 30 * time.Second

	return Deps{
		Model:  stubModel{},
		Config: cfg,
		Logger: logger.New(logger.Config{Level: logger.ErrorLevel, Format: "json", Service: "test"}),
	}
}

func TestNewWeatherAgent(t *testing.T) {
	role, err := NewWeatherAgent(testDeps())
	require.NoError(t, err)

	assert.Equal(t, "WeatherAssistant", role.Name)
	assert.Equal(t, []string{
		"get_current_weather",
		"get_weather_forecast",
		"check_rain_probability",
		"geocode_location",
		"get_current_datetime",
	}, role.ToolNames)
	assert.NotNil(t, role.Agent)
}

func TestNewSearchAgentDegradesWithoutKey(t *testing.T) {
	role, err := NewSearchAgent(testDeps())
	require.NoError(t, err)

	assert.Equal(t, []string{"get_current_datetime"}, role.ToolNames)
}

func TestNewSearchAgentWithKey(t *testing.T) {
	d := testDeps()
	d.Config.Search.APIKey = "tvly-test"

	role, err := NewSearchAgent(d)
	require.NoError(t, err)

	assert.Equal(t, []string{"web_search", "research_search", "get_current_datetime"}, role.ToolNames)
}

func TestNewEmailAgentWithoutGoogleClient(t *testing.T) {
	role, err := NewEmailAgent(context.Background(), testDeps())
	require.NoError(t, err)

	assert.Equal(t, "EmailAssistant", role.Name)
	assert.Equal(t, []string{"get_current_datetime"}, role.ToolNames)
}

func TestNewEmailAgentWithGoogleClient(t *testing.T) {
	d := testDeps()
	d.GoogleClient = http.DefaultClient

	role, err := NewEmailAgent(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"create_gmail_draft",
		"send_gmail_message",
		"search_gmail",
		"get_gmail_message",
		"get_gmail_thread",
		"get_current_datetime",
	}, role.ToolNames)
}

func TestNewCalendarAgentWithGoogleClient(t *testing.T) {
	d := testDeps()
	d.GoogleClient = http.DefaultClient

	role, err := NewCalendarAgent(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, "CalendarAssistant", role.Name)
	assert.Equal(t, []string{
		"list_calendars",
		"create_calendar",
		"insert_event",
		"list_events",
		"delete_event",
		"get_current_datetime",
	}, role.ToolNames)
}

func TestNewCoordinator(t *testing.T) {
	d := testDeps()

	weatherRole, err := NewWeatherAgent(d)
	require.NoError(t, err)
	searchRole, err := NewSearchAgent(d)
	require.NoError(t, err)

	coordinator, err := NewCoordinator(d, []*Role{weatherRole, searchRole})
	require.NoError(t, err)
	assert.NotNil(t, coordinator)
}

func TestWithTimezone(t *testing.T) {
	got := withTimezone("Base prompt.", "Europe/Berlin")
	assert.Contains(t, got, "Base prompt.")
	assert.Contains(t, got, "Europe/Berlin timezone")
}
