// Package orchestrator coordinates the specialized agents behind a
// single request entry point.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/assistant-labs/personal_assistant/internal/agents"
	"github.com/assistant-labs/personal_assistant/pkg/logger"
	"github.com/assistant-labs/personal_assistant/pkg/prefixed_uuid"
)

const (
	appName       = "personal-assistant"
	defaultUserID = "assistant_user"
)

// Orchestrator lazily builds the agent team on first use and runs each
// request through the coordinator. Agents are built once; a failed
// initialization is retried on the next request.
type Orchestrator struct {
	deps agents.Deps
	log  logger.Logger

	mu          sync.Mutex
	ready       bool
	roles       []*agents.Role
	coordinator agent.Agent

	newSessionID func() string
}

// New creates an orchestrator. No agents are built until the first
// request or status call.
func New(deps agents.Deps) *Orchestrator {
	return &Orchestrator{
		deps:         deps,
		log:          deps.Logger.WithFields(logger.StringField("component", "orchestrator")),
		newSessionID: func() string { return prefixed_uuid.New("req").String() },
	}
}

// ensureReady builds all four role agents concurrently and wires the
// coordinator. Concurrent first callers serialize on the mutex, so
// exactly one of them performs the initialization.
func (o *Orchestrator) ensureReady(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ready {
		return nil
	}

	o.log.Info("Initializing agents")

	var emailRole, weatherRole, calendarRole, searchRole *agents.Role

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		emailRole, err = agents.NewEmailAgent(gctx, o.deps)
		return err
	})
	g.Go(func() (err error) {
		weatherRole, err = agents.NewWeatherAgent(o.deps)
		return err
	})
	g.Go(func() (err error) {
		calendarRole, err = agents.NewCalendarAgent(gctx, o.deps)
		return err
	})
	g.Go(func() (err error) {
		searchRole, err = agents.NewSearchAgent(o.deps)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to initialize agents: %w", err)
	}

	roles := []*agents.Role{emailRole, weatherRole, calendarRole, searchRole}

	coordinator, err := agents.NewCoordinator(o.deps, roles)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}

	o.roles = roles
	o.coordinator = coordinator
	o.ready = true

	o.log.Info("Initialized agents", logger.IntField("count", len(roles)))
	return nil
}

// ProcessRequest runs one user request through the agent team and
// returns the final answer. It never returns an error; failures come
// back as an "Error: ..." reply.
func (o *Orchestrator) ProcessRequest(ctx context.Context, userInput string) string {
	o.log.Info("Starting new request", logger.StringField("input", userInput))

	if err := o.ensureReady(ctx); err != nil {
		o.log.Error("Agent initialization failed", logger.ErrorField(err))
		return "Error: " + err.Error()
	}

	reply, err := o.run(ctx, userInput)
	if err != nil {
		o.log.Error("Request failed", logger.ErrorField(err))
		return "Error: " + err.Error()
	}
	if reply == "" {
		o.log.Warn("No messages returned from agents")
		return "No response generated"
	}

	o.log.Info("Final response", logger.StringField("response", reply))
	return reply
}

// run executes the coordinator over a fresh session. Requests share no
// state with each other.
func (o *Orchestrator) run(ctx context.Context, userInput string) (string, error) {
	sessionService := session.InMemoryService()
	sessionID := o.newSessionID()

	_, err := sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    defaultUserID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	r, err := runner.New(runner.Config{
		AppName:        appName,
		SessionService: sessionService,
		Agent:          o.coordinator,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create runner: %w", err)
	}

	content := genai.NewContentFromText(userInput, "user")
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var final string
	stepNum := 0
	for event, err := range r.Run(ctx, defaultUserID, sessionID, content, runConfig) {
		if err != nil {
			return "", err
		}
		if event == nil {
			continue
		}
		if event.ErrorMessage != "" {
			return "", fmt.Errorf("agent error [%s]: %s", event.ErrorCode, event.ErrorMessage)
		}

		step := normalizeEvent(event)
		stepNum++
		if o.deps.Metrics != nil {
			o.deps.Metrics.AgentSteps.Inc()
		}
		o.log.Info("Agent step",
			logger.IntField("step", stepNum),
			logger.StringField("sender", step.Sender),
			logger.StringField("content", step.Content))

		if step.Content != "" {
			final = step.Content
		}
	}

	return final, nil
}

// Step is the canonical view of one event in a run.
type Step struct {
	Sender  string
	Content string
}

// normalizeEvent maps an event to its sender and accumulated text.
func normalizeEvent(event *session.Event) Step {
	sender := event.Author
	if sender == "" {
		sender = "unknown"
	}

	var b strings.Builder
	if event.Content != nil {
		for _, part := range event.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
	}

	return Step{Sender: sender, Content: strings.TrimSpace(b.String())}
}

// AgentStatus describes one agent for the status endpoint.
type AgentStatus struct {
	Description string   `json:"description"`
	ToolCount   int      `json:"tool_count"`
	ToolNames   []string `json:"tool_names"`
}

// Status summarizes the agent team.
type Status struct {
	Initialized bool                   `json:"initialized"`
	TotalAgents int                    `json:"total_agents"`
	Agents      map[string]AgentStatus `json:"agents"`
}

// Status reports the agent team, initializing it if needed.
func (o *Orchestrator) Status(ctx context.Context) Status {
	if err := o.ensureReady(ctx); err != nil {
		o.log.Error("Agent initialization failed", logger.ErrorField(err))
		return Status{Agents: map[string]AgentStatus{}}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	status := Status{
		Initialized: true,
		TotalAgents: len(o.roles),
		Agents:      make(map[string]AgentStatus, len(o.roles)),
	}
	for _, role := range o.roles {
		status.Agents[role.Name] = AgentStatus{
			Description: role.Description,
			ToolCount:   len(role.ToolNames),
			ToolNames:   role.ToolNames,
		}
	}
	return status
}
