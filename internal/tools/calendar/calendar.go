// Package calendar provides Google Calendar tools operating on the
// user's primary calendar.
package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

const (
	primaryCalendar  = "primary"
	deleteScanLimit  = 50
	defaultListLimit = 10
)

// Config holds configuration for the calendar tools.
type Config struct {
	Timezone string
}

// Client wraps the Calendar API service.
type Client struct {
	svc      *gcal.Service
	timezone string
	log      logger.Logger
	newID    func() string
	now      func() time.Time
}

// New creates a calendar client over an authenticated HTTP client.
func New(ctx context.Context, httpClient *http.Client, cfg Config, log logger.Logger, opts ...option.ClientOption) (*Client, error) {
	svcOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gcal.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{
		svc:      svc,
		timezone: cfg.Timezone,
		log:      log,
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
	}, nil
}

// ListCalendarsArgs is intentionally empty.
type ListCalendarsArgs struct{}

// CreateCalendarArgs are the arguments for the create-calendar tool.
type CreateCalendarArgs struct {
	Summary  string `json:"summary" jsonschema:"Name of the new calendar"`
	Timezone string `json:"timezone" jsonschema:"IANA timezone for the calendar, e.g. Asia/Kolkata"`
}

// InsertEventArgs are the arguments for the insert-event tool.
type InsertEventArgs struct {
	Summary       string   `json:"summary" jsonschema:"Event title"`
	Date          string   `json:"date" jsonschema:"Event date in YYYY-MM-DD format"`
	Time          string   `json:"time" jsonschema:"Start time in HH:MM 24-hour format"`
	DurationHours float64  `json:"duration_hours" jsonschema:"Duration in decimal hours, e.g. 0.5 for 30 minutes"`
	Attendees     []string `json:"attendees,omitempty" jsonschema:"Attendee email addresses"`
	Description   string   `json:"description,omitempty" jsonschema:"Event details"`
	Recurrence    string   `json:"recurrence,omitempty" jsonschema:"Optional: 'daily until YYYY-MM-DD', 'weekly until YYYY-MM-DD', or a raw RRULE"`
}

// ListEventsArgs are the arguments for the list-events tool.
type ListEventsArgs struct {
	MaxResults int `json:"max_results,omitempty" jsonschema:"Number of upcoming events to return (default 10)"`
}

// DeleteEventArgs are the arguments for the delete-event tool.
type DeleteEventArgs struct {
	TitleQuery string `json:"title_query" jsonschema:"Case-insensitive substring of the event title"`
	Scope      string `json:"scope,omitempty" jsonschema:"'one' (default) deletes a single occurrence, 'all' deletes an entire recurring series"`
}

// Result carries a human-readable tool report.
type Result struct {
	Report string `json:"report"`
}

// Tools returns the calendar tool set.
func (c *Client) Tools() ([]tool.Tool, error) {
	listCalendars, err := functiontool.New(functiontool.Config{
		Name:        "list_calendars",
		Description: "List all calendars in the user's account",
	}, func(ctx tool.Context, args ListCalendarsArgs) (Result, error) {
		return Result{Report: c.listCalendars(ctx)}, nil
	})
	if err != nil {
		return nil, err
	}

	createCalendar, err := functiontool.New(functiontool.Config{
		Name:        "create_calendar",
		Description: "Create a new calendar with a name and timezone",
	}, func(ctx tool.Context, args CreateCalendarArgs) (Result, error) {
		return Result{Report: c.createCalendar(ctx, args)}, nil
	})
	if err != nil {
		return nil, err
	}

	insertEvent, err := functiontool.New(functiontool.Config{
		Name: "insert_event",
		Description: "Create a Meet-enabled event in the primary calendar. " +
			"Automatically creates a Google Meet link and sends invites to all attendees. " +
			"Supports recurrence: 'daily until YYYY-MM-DD', 'weekly until YYYY-MM-DD', or a raw RRULE.",
	}, func(ctx tool.Context, args InsertEventArgs) (Result, error) {
		return Result{Report: c.insertEvent(ctx, args)}, nil
	})
	if err != nil {
		return nil, err
	}

	listEvents, err := functiontool.New(functiontool.Config{
		Name:        "list_events",
		Description: "List upcoming events from the primary calendar with start time, title and description preview",
	}, func(ctx tool.Context, args ListEventsArgs) (Result, error) {
		return Result{Report: c.listEvents(ctx, args.MaxResults)}, nil
	})
	if err != nil {
		return nil, err
	}

	deleteEvent, err := functiontool.New(functiontool.Config{
		Name: "delete_event",
		Description: "Delete an upcoming event from the primary calendar by title substring. " +
			"First match wins; scope 'all' removes an entire recurring series. " +
			"Deletion notifications are sent to attendees.",
	}, func(ctx tool.Context, args DeleteEventArgs) (Result, error) {
		return Result{Report: c.deleteEvent(ctx, args)}, nil
	})
	if err != nil {
		return nil, err
	}

	return []tool.Tool{listCalendars, createCalendar, insertEvent, listEvents, deleteEvent}, nil
}

func (c *Client) listCalendars(ctx context.Context) string {
	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to list calendars", logger.ErrorField(err))
		return fmt.Sprintf("Error listing calendars: %v", err)
	}

	var lines []string
	for _, item := range list.Items {
		lines = append(lines, "- "+item.Summary)
	}
	return "Your calendars:\n" + strings.Join(lines, "\n")
}

func (c *Client) createCalendar(ctx context.Context, args CreateCalendarArgs) string {
	if args.Summary == "" {
		return "Error creating calendar: summary is required"
	}
	tz := args.Timezone
	if tz == "" {
		tz = c.timezone
	}

	created, err := c.svc.Calendars.Insert(&gcal.Calendar{
		Summary:  args.Summary,
		TimeZone: tz,
	}).Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to create calendar",
			logger.StringField("summary", args.Summary), logger.ErrorField(err))
		return fmt.Sprintf("Error creating calendar: %v", err)
	}

	c.log.Info("Created calendar",
		logger.StringField("summary", args.Summary),
		logger.StringField("id", created.Id))
	return fmt.Sprintf("Created calendar '%s' with ID: %s", args.Summary, created.Id)
}

func (c *Client) insertEvent(ctx context.Context, args InsertEventArgs) string {
	if args.Summary == "" {
		return "Error creating event: summary is required"
	}
	start, err := time.Parse("2006-01-02T15:04", args.Date+"T"+args.Time)
	if err != nil {
		return fmt.Sprintf("Error creating event: invalid date/time %q %q, expected YYYY-MM-DD and HH:MM", args.Date, args.Time)
	}
	if args.DurationHours <= 0 {
		return "Error creating event: duration_hours must be positive"
	}
	end := start.Add(time.Duration(args.DurationHours * float64(time.Hour)))

	attendees := make([]*gcal.EventAttendee, 0, len(args.Attendees))
	for _, email := range args.Attendees {
		email = strings.TrimSpace(email)
		if email != "" {
			attendees = append(attendees, &gcal.EventAttendee{Email: email})
		}
	}

	event := &gcal.Event{
		Summary:     args.Summary,
		Description: args.Description,
		Start:       &gcal.EventDateTime{DateTime: start.Format("2006-01-02T15:04:05"), TimeZone: c.timezone},
		End:         &gcal.EventDateTime{DateTime: end.Format("2006-01-02T15:04:05"), TimeZone: c.timezone},
		Attendees:   attendees,
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             c.newID(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
		Reminders: &gcal.EventReminders{UseDefault: true, ForceSendFields: []string{"UseDefault"}},
	}

	if rule, ok := recurrenceRule(args.Recurrence); ok {
		event.Recurrence = []string{rule}
	}

	created, err := c.svc.Events.Insert(primaryCalendar, event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to create event",
			logger.StringField("summary", args.Summary), logger.ErrorField(err))
		return fmt.Sprintf("Error creating event: %v", err)
	}

	meetLink := "No meet link"
	if created.ConferenceData != nil && len(created.ConferenceData.EntryPoints) > 0 && created.ConferenceData.EntryPoints[0].Uri != "" {
		meetLink = created.ConferenceData.EntryPoints[0].Uri
	}

	c.log.Info("Created event",
		logger.StringField("summary", created.Summary),
		logger.StringField("date", args.Date),
		logger.StringField("time", args.Time))
	return fmt.Sprintf("Created event '%s'\nWhen: %s %s (%gh)\nAttendees: %s\nMeet: %s",
		created.Summary, args.Date, args.Time, args.DurationHours,
		strings.Join(args.Attendees, ","), meetLink)
}

// recurrenceRule turns the friendly 'daily|weekly until YYYY-MM-DD' form
// into an RRULE, passing raw RRULEs straight through.
func recurrenceRule(recurrence string) (string, bool) {
	rec := strings.TrimSpace(recurrence)
	if rec == "" {
		return "", false
	}
	if strings.HasPrefix(strings.ToUpper(rec), "RRULE:") {
		return rec, true
	}

	toks := strings.Fields(strings.ToLower(rec))
	if len(toks) >= 3 && (toks[0] == "daily" || toks[0] == "weekly") && toks[1] == "until" {
		until := strings.ReplaceAll(toks[len(toks)-1], "-", "") + "T000000Z"
		return fmt.Sprintf("RRULE:FREQ=%s;UNTIL=%s", strings.ToUpper(toks[0]), until), true
	}
	return "", false
}

func (c *Client) listEvents(ctx context.Context, maxResults int) string {
	if maxResults < 1 {
		maxResults = defaultListLimit
	}

	events, err := c.svc.Events.List(primaryCalendar).
		TimeMin(c.now().UTC().Format(time.RFC3339)).
		MaxResults(int64(maxResults)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to list events", logger.ErrorField(err))
		return fmt.Sprintf("Error listing events: %v", err)
	}

	if len(events.Items) == 0 {
		return "No upcoming events found."
	}

	lines := []string{"Upcoming events:"}
	for i, event := range events.Items {
		start := ""
		if event.Start != nil {
			start = event.Start.DateTime
			if start == "" {
				start = event.Start.Date
			}
		}
		summary := event.Summary
		if summary == "" {
			summary = "(no title)"
		}
		descPreview := ""
		if event.Description != "" {
			descPreview = fmt.Sprintf(" - %s...", truncateRunes(event.Description, 30))
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s%s", i+1, start, summary, descPreview))
	}
	return strings.Join(lines, "\n")
}

// truncateRunes shortens s to at most n runes, never splitting a
// multi-byte character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func (c *Client) deleteEvent(ctx context.Context, args DeleteEventArgs) string {
	query := strings.ToLower(strings.TrimSpace(args.TitleQuery))
	if query == "" {
		return "Error deleting event: title_query is required"
	}
	scope := strings.ToLower(strings.TrimSpace(args.Scope))
	if scope == "" {
		scope = "one"
	}

	// Deleting a whole series needs the parent event, so instance
	// expansion is disabled for scope=all.
	call := c.svc.Events.List(primaryCalendar).
		TimeMin(c.now().UTC().Format(time.RFC3339)).
		MaxResults(deleteScanLimit).
		SingleEvents(scope != "all")
	if scope != "all" {
		call = call.OrderBy("startTime")
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to search events for deletion", logger.ErrorField(err))
		return fmt.Sprintf("Error deleting event: %v", err)
	}

	for _, event := range events.Items {
		if !strings.Contains(strings.ToLower(event.Summary), query) {
			continue
		}

		err := c.svc.Events.Delete(primaryCalendar, event.Id).
			SendUpdates("all").
			Context(ctx).Do()
		if err != nil {
			c.log.Error("Failed to delete event",
				logger.StringField("summary", event.Summary), logger.ErrorField(err))
			return fmt.Sprintf("Error deleting event: %v", err)
		}

		scopeText := ""
		if scope == "all" {
			scopeText = "(entire series)"
		}
		c.log.Info("Deleted event",
			logger.StringField("summary", event.Summary),
			logger.StringField("scope", scope))
		return strings.TrimSpace(fmt.Sprintf("Deleted event '%s' %s", event.Summary, scopeText))
	}

	return fmt.Sprintf("No event found matching '%s'", query)
}
