package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

const (
	maxEventBody = 1 << 20

	// Seconds of clock skew tolerated on the request timestamp.
	maxTimestampSkew = 300

	processingMessage = "I am processing your request, please allow me sometime to respond."
)

// handleSlackEvents implements the Slack events webhook. The URL
// verification handshake is answered before any checks, every other
// payload must carry a fresh timestamp and a valid signature.
func (s *Server) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var probe struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if probe.Type == "url_verification" {
		s.writeJSON(w, map[string]string{"challenge": probe.Challenge})
		return
	}

	if err := s.checkTimestamp(r.Header.Get("X-Slack-Request-Timestamp")); err != nil {
		s.log.Warn("Rejected webhook", logger.ErrorField(err))
		http.Error(w, "invalid timestamp", http.StatusBadRequest)
		return
	}

	if err := s.verifySignature(r.Header, body); err != nil {
		s.log.Warn("Rejected webhook signature", logger.ErrorField(err))
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}

	if event.Type == slackevents.CallbackEvent {
		if mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			s.metrics.RequestsProcessed.Inc()
			go s.handleMention(*mention)
		}
	}

	s.writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) checkTimestamp(header string) error {
	if header == "" {
		return fmt.Errorf("missing request timestamp")
	}
	ts, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request timestamp %q", header)
	}

	skew := s.now().Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > maxTimestampSkew {
		return fmt.Errorf("request timestamp off by %ds", skew)
	}
	return nil
}

func (s *Server) verifySignature(header http.Header, body []byte) error {
	verifier, err := slack.NewSecretsVerifier(header, s.cfg.Slack.SigningSecret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}

// handleMention runs in the background after the webhook already
// responded. Failures are logged and swallowed, Slack retries are not
// wanted here.
func (s *Server) handleMention(mention slackevents.AppMentionEvent) {
	ctx := context.Background()
	log := s.log.WithFields(
		logger.StringField("channel", mention.Channel),
		logger.StringField("user", mention.User))

	if _, _, err := s.slack.PostMessageContext(ctx, mention.Channel,
		slack.MsgOptionText(processingMessage, false),
		slack.MsgOptionTS(mention.TimeStamp)); err != nil {
		// If the ack cannot be delivered the final reply will not make
		// it either; stop before spending an LLM run.
		log.Error("Failed to post acknowledgment", logger.ErrorField(err))
		return
	}

	start := time.Now()
	reply := s.assistant.ProcessRequest(ctx, mention.Text)
	s.metrics.OrchestratorLatency.Observe(time.Since(start).Seconds())
	if strings.HasPrefix(reply, "Error: ") {
		s.metrics.RequestErrors.Inc()
	}

	if _, _, err := s.slack.PostMessageContext(ctx, mention.Channel,
		slack.MsgOptionText(reply, false),
		slack.MsgOptionTS(mention.TimeStamp)); err != nil {
		log.Error("Failed to post reply", logger.ErrorField(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.assistant.Status(r.Context()))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", logger.ErrorField(err))
	}
}
