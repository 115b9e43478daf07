// Package clock provides the shared current-datetime tool attached to
// every agent so date-relative requests resolve correctly.
package clock

import (
	"time"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

// Args is intentionally empty; the tool takes no input.
type Args struct{}

// Result carries the formatted timestamp.
type Result struct {
	DateTime string `json:"datetime"`
	Timezone string `json:"timezone"`
}

// New creates the get_current_datetime tool for the given timezone.
// An unknown timezone falls back to UTC.
func New(timezone string, log logger.Logger) (tool.Tool, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warn("Unknown timezone, falling back to UTC",
			logger.StringField("timezone", timezone))
		loc = time.UTC
	}

	return functiontool.New(functiontool.Config{
		Name:        "get_current_datetime",
		Description: "Get the current date and time",
	}, func(ctx tool.Context, args Args) (Result, error) {
		now := time.Now().In(loc)
		return Result{
			DateTime: now.Format(time.RFC3339),
			Timezone: loc.String(),
		}, nil
	})
}
