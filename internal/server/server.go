// Package server exposes the Slack events webhook and the operational
// endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/slack-go/slack"

	appconfig "github.com/assistant-labs/personal_assistant/internal/config"
	"github.com/assistant-labs/personal_assistant/internal/orchestrator"
	"github.com/assistant-labs/personal_assistant/pkg/health"
	"github.com/assistant-labs/personal_assistant/pkg/httpmiddleware"
	"github.com/assistant-labs/personal_assistant/pkg/logger"
	"github.com/assistant-labs/personal_assistant/pkg/metrics"
)

// Messenger posts messages to Slack. Satisfied by slack.Client.
type Messenger interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Assistant runs mention requests and reports the agent team state.
type Assistant interface {
	ProcessRequest(ctx context.Context, text string) string
	Status(ctx context.Context) orchestrator.Status
}

// Server hosts the webhook endpoint, health probes and the metrics
// listener.
type Server struct {
	cfg       *appconfig.AppConfig
	log       logger.Logger
	metrics   *metrics.Metrics
	assistant Assistant
	slack     Messenger
	health    *health.Checker
	httpSrv   *http.Server

	now func() time.Time
}

// New wires the server. The slack client and assistant are injected so
// tests can fake them.
func New(cfg *appconfig.AppConfig, assistant Assistant, slackClient Messenger, m *metrics.Metrics, log logger.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log.WithFields(logger.StringField("component", "server")),
		metrics:   m,
		assistant: assistant,
		slack:     slackClient,
		now:       time.Now,
	}

	s.health = health.New(health.WithLogger(log))
	s.health.AddLivenessCheck(health.NewCheckFunc("server", func(context.Context) error { return nil }))
	s.health.AddReadinessCheck(health.NewURLCheck("slack_api", "https://slack.com/api/api.test", nil))

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router(),
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.CorrelationID())
	r.Use(httpmiddleware.Security(nil))
	r.Use(httpmiddleware.CORS(httpmiddleware.DefaultCORSConfig()))
	r.Use(s.log.HTTPMiddleware)
	r.Use(s.metrics.HTTPMiddleware)

	r.Post("/slack/events", s.handleSlackEvents)
	r.Get("/status", s.handleStatus)

	if s.cfg.Health.Enabled {
		r.Get(s.cfg.Health.LivenessPath, s.health.LivenessHandler())
		r.Get(s.cfg.Health.ReadinessPath, s.health.ReadinessHandler())
	}

	return r
}

// Run serves until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Monitoring.MetricsEnabled {
		go func() {
			if err := s.metrics.Listen(ctx, s.cfg.Monitoring.MetricsPort); err != nil {
				s.log.Error("Metrics listener failed", logger.ErrorField(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Webhook server listening", logger.StringField("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down webhook server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("Webhook server stopped")
	return nil
}
