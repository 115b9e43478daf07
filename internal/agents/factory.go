// Package agents builds the specialized role agents and the coordinator
// that routes between them.
package agents

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"

	"github.com/assistant-labs/personal_assistant/internal/config"
	"github.com/assistant-labs/personal_assistant/internal/tools/calendar"
	"github.com/assistant-labs/personal_assistant/internal/tools/clock"
	"github.com/assistant-labs/personal_assistant/internal/tools/gmail"
	"github.com/assistant-labs/personal_assistant/internal/tools/search"
	"github.com/assistant-labs/personal_assistant/internal/tools/weather"
	"github.com/assistant-labs/personal_assistant/pkg/logger"
	"github.com/assistant-labs/personal_assistant/pkg/metrics"
)

// Deps carries everything the agent constructors need.
type Deps struct {
	Model   model.LLM
	Config  *config.AppConfig
	Logger  logger.Logger
	Metrics *metrics.Metrics

	// GoogleClient is an OAuth-authenticated HTTP client for the Gmail
	// and Calendar APIs. Nil leaves those agents without tools.
	GoogleClient *http.Client
}

// Role bundles a constructed agent with the metadata the status
// endpoint reports.
type Role struct {
	Agent       agent.Agent
	Name        string
	Description string
	ToolNames   []string
}

const (
	emailAgentName    = "EmailAssistant"
	weatherAgentName  = "WeatherAssistant"
	calendarAgentName = "CalendarAssistant"
	searchAgentName   = "SearchAssistant"
	coordinatorName   = "Orchestrator"

	emailAgentDescription    = "An AI assistant that helps you manage your email efficiently. Handles Gmail tasks: read, search, draft or send emails. Only pick me when the user explicitly wants email help."
	weatherAgentDescription  = "An AI assistant that helps you get weather information. Answers questions about current weather, rain probability, or forecasts for any city. Pick me for queries like weather in Mumbai or will it rain tomorrow?"
	calendarAgentDescription = "An AI assistant that helps you manage your calendar efficiently. Manages calendar events or availability. Use me for scheduling, moving, or listing meetings."
	searchAgentDescription   = "An AI assistant that helps you find information on the web. Handles web searches, news searches, and research queries. Use me for finding current information, news, research, or any web-based queries."
)

// NewEmailAgent creates the Gmail agent.
func NewEmailAgent(ctx context.Context, d Deps) (*Role, error) {
	var (
		roleTools []tool.Tool
		err       error
	)
	if d.GoogleClient == nil {
		err = fmt.Errorf("google client is not configured")
	} else {
		var c *gmail.Client
		c, err = gmail.New(ctx, d.GoogleClient, d.Logger)
		if err == nil {
			roleTools, err = c.Tools()
		}
	}
	return newRoleAgent(d, emailAgentName, emailAgentDescription, emailSystemPrompt, roleTools, err)
}

// NewWeatherAgent creates the weather agent.
func NewWeatherAgent(d Deps) (*Role, error) {
	c := weather.New(weather.Config{
		OpenMeteoURL:    d.Config.Weather.OpenMeteoURL,
		NominatimURL:    d.Config.Weather.NominatimURL,
		GeocodeTimeout:  d.Config.Weather.GeocodeTimeout,
		ForecastTimeout: d.Config.Weather.ForecastTimeout,
		Timezone:        d.Config.DefaultTimezone,
	}, d.Logger)
	roleTools, err := c.Tools()
	return newRoleAgent(d, weatherAgentName, weatherAgentDescription, weatherSystemPrompt, roleTools, err)
}

// NewCalendarAgent creates the Google Calendar agent.
func NewCalendarAgent(ctx context.Context, d Deps) (*Role, error) {
	var (
		roleTools []tool.Tool
		err       error
	)
	if d.GoogleClient == nil {
		err = fmt.Errorf("google client is not configured")
	} else {
		var c *calendar.Client
		c, err = calendar.New(ctx, d.GoogleClient, calendar.Config{Timezone: d.Config.DefaultTimezone}, d.Logger)
		if err == nil {
			roleTools, err = c.Tools()
		}
	}
	return newRoleAgent(d, calendarAgentName, calendarAgentDescription, calendarSystemPrompt, roleTools, err)
}

// NewSearchAgent creates the web search agent.
func NewSearchAgent(d Deps) (*Role, error) {
	var (
		roleTools []tool.Tool
		err       error
	)
	c, err := search.New(search.Config{
		APIKey:     d.Config.Search.APIKey,
		BaseURL:    d.Config.Search.BaseURL,
		MaxResults: d.Config.Search.MaxResults,
		Timeout:    d.Config.Search.Timeout,
	}, d.Logger)
	if err == nil {
		roleTools, err = c.Tools()
	}
	return newRoleAgent(d, searchAgentName, searchAgentDescription, searchSystemPrompt, roleTools, err)
}

// NewCoordinator creates the top-level agent with the role agents as
// sub-agents. The framework generates the transfer tools, so routing is
// driven by each role's description.
func NewCoordinator(d Deps, roles []*Role) (agent.Agent, error) {
	subAgents := make([]agent.Agent, 0, len(roles))
	for _, r := range roles {
		subAgents = append(subAgents, r.Agent)
	}

	return llmagent.New(llmagent.Config{
		Name:            coordinatorName,
		Model:           d.Model,
		Description:     "Main entry point for the personal assistant. Routes user requests to the specialized agents and synthesizes the final answer.",
		Instruction:     finalAnswerPrompt,
		SubAgents:       subAgents,
		IncludeContents: llmagent.IncludeContentsDefault,
	})
}

// newRoleAgent assembles an agent from its tool set. A tool provider
// failure degrades the agent to the shared clock tool only, it never
// fails construction.
func newRoleAgent(d Deps, name, description, prompt string, roleTools []tool.Tool, toolErr error) (*Role, error) {
	log := d.Logger.WithFields(logger.StringField("agent", name))

	if toolErr != nil {
		log.Warn("Tool creation failed, continuing without tools", logger.ErrorField(toolErr))
		if d.Metrics != nil {
			d.Metrics.ToolFailures.WithLabelValues(name).Inc()
		}
		roleTools = nil
	}

	clockTool, err := clock.New(d.Config.DefaultTimezone, d.Logger)
	if err != nil {
		log.Warn("Clock tool creation failed", logger.ErrorField(err))
	} else {
		roleTools = append(roleTools, clockTool)
	}

	log.Info("Agent tools ready", logger.IntField("count", len(roleTools)))

	a, err := llmagent.New(llmagent.Config{
		Name:        name,
		Model:       d.Model,
		Description: description,
		Instruction: withTimezone(prompt, d.Config.DefaultTimezone),
		Tools:       roleTools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}

	names := make([]string, 0, len(roleTools))
	for _, t := range roleTools {
		names = append(names, t.Name())
	}

	return &Role{Agent: a, Name: name, Description: description, ToolNames: names}, nil
}

func withTimezone(prompt, timezone string) string {
	return prompt + fmt.Sprintf("\n\nAll date and time related tasks use the %s timezone.", timezone)
}
