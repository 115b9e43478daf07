package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.New(logger.Config{Level: logger.ErrorLevel, Format: "json", Service: "test"})
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := New(context.Background(), ts.Client(), Config{Timezone: "Asia/Kolkata"}, testLogger(),
		option.WithEndpoint(ts.URL+"/"))
	require.NoError(t, err)
	c.newID = func() string { return "fixed-request-id" }
	c.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestTools(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	tools, err := c.Tools()
	require.NoError(t, err)
	require.Len(t, tools, 5)

	names := make([]string, 0, len(tools))
	for _, tl := range tools {
		names = append(names, tl.Name())
	}
	assert.Equal(t, []string{"list_calendars", "create_calendar", "insert_event", "list_events", "delete_event"}, names)
}

func TestListCalendars(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "users/me/calendarList")
		fmt.Fprint(w, `{"items":[{"summary":"Personal"},{"summary":"Work"}]}`)
	}))

	report := c.listCalendars(context.Background())
	assert.Equal(t, "Your calendars:\n- Personal\n- Work", report)
}

func TestCreateCalendar(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body gcal.Calendar
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Side Projects", body.Summary)
		assert.Equal(t, "Europe/Berlin", body.TimeZone)

		fmt.Fprint(w, `{"id":"cal-123","summary":"Side Projects"}`)
	}))

	report := c.createCalendar(context.Background(), CreateCalendarArgs{
		Summary:  "Side Projects",
		Timezone: "Europe/Berlin",
	})
	assert.Equal(t, "Created calendar 'Side Projects' with ID: cal-123", report)
}

func TestCreateCalendarDefaultsTimezone(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body gcal.Calendar
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Asia/Kolkata", body.TimeZone)
		fmt.Fprint(w, `{"id":"cal-1"}`)
	}))

	c.createCalendar(context.Background(), CreateCalendarArgs{Summary: "X"})
}

func TestInsertEvent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "calendars/primary/events")
		assert.Equal(t, "1", r.URL.Query().Get("conferenceDataVersion"))
		assert.Equal(t, "all", r.URL.Query().Get("sendUpdates"))

		var body gcal.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Team Meeting", body.Summary)
		assert.Equal(t, "2025-06-15T14:30:00", body.Start.DateTime)
		assert.Equal(t, "Asia/Kolkata", body.Start.TimeZone)
		assert.Equal(t, "2025-06-15T16:00:00", body.End.DateTime)
		require.Len(t, body.Attendees, 2)
		assert.Equal(t, "alice@example.com", body.Attendees[0].Email)
		require.NotNil(t, body.ConferenceData)
		assert.Equal(t, "fixed-request-id", body.ConferenceData.CreateRequest.RequestId)
		assert.Equal(t, "hangoutsMeet", body.ConferenceData.CreateRequest.ConferenceSolutionKey.Type)

		fmt.Fprint(w, `{
			"summary": "Team Meeting",
			"conferenceData": {"entryPoints": [{"uri": "https://meet.google.com/abc-defg-hij"}]}
		}`)
	}))

	report := c.insertEvent(context.Background(), InsertEventArgs{
		Summary:       "Team Meeting",
		Date:          "2025-06-15",
		Time:          "14:30",
		DurationHours: 1.5,
		Attendees:     []string{"alice@example.com", "bob@example.com"},
		Description:   "Weekly sync",
	})

	assert.Contains(t, report, "Created event 'Team Meeting'")
	assert.Contains(t, report, "When: 2025-06-15 14:30 (1.5h)")
	assert.Contains(t, report, "Attendees: alice@example.com,bob@example.com")
	assert.Contains(t, report, "Meet: https://meet.google.com/abc-defg-hij")
}

func TestInsertEventRecurrence(t *testing.T) {
	var gotRecurrence []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body gcal.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRecurrence = body.Recurrence
		fmt.Fprint(w, `{"summary":"Standup"}`)
	}))

	c.insertEvent(context.Background(), InsertEventArgs{
		Summary:       "Standup",
		Date:          "2025-06-15",
		Time:          "09:00",
		DurationHours: 0.5,
		Recurrence:    "daily until 2025-12-31",
	})
	assert.Equal(t, []string{"RRULE:FREQ=DAILY;UNTIL=20251231T000000Z"}, gotRecurrence)
}

func TestInsertEventValidation(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	report := c.insertEvent(context.Background(), InsertEventArgs{
		Date: "2025-06-15", Time: "09:00", DurationHours: 1,
	})
	assert.Contains(t, report, "summary is required")

	report = c.insertEvent(context.Background(), InsertEventArgs{
		Summary: "X", Date: "June 15", Time: "09:00", DurationHours: 1,
	})
	assert.Contains(t, report, "invalid date/time")

	report = c.insertEvent(context.Background(), InsertEventArgs{
		Summary: "X", Date: "2025-06-15", Time: "09:00",
	})
	assert.Contains(t, report, "duration_hours must be positive")
}

func TestRecurrenceRule(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"", "", false},
		{"daily until 2025-12-31", "RRULE:FREQ=DAILY;UNTIL=20251231T000000Z", true},
		{"weekly until 2025-09-01", "RRULE:FREQ=WEEKLY;UNTIL=20250901T000000Z", true},
		{"RRULE:FREQ=WEEKLY;BYDAY=FR;COUNT=10", "RRULE:FREQ=WEEKLY;BYDAY=FR;COUNT=10", true},
		{"monthly until 2025-12-31", "", false},
	}

	for _, tt := range tests {
		got, ok := recurrenceRule(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestListEvents(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "5", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "2025-06-01T10:00:00Z", r.URL.Query().Get("timeMin"))

		fmt.Fprint(w, `{"items":[
			{"start":{"dateTime":"2025-06-02T10:00:00+05:30"},"summary":"Standup","description":"Daily sync with the whole team about progress"},
			{"start":{"date":"2025-06-03"},"summary":""}
		]}`)
	}))

	report := c.listEvents(context.Background(), 5)
	assert.Contains(t, report, "Upcoming events:")
	assert.Contains(t, report, "1. 2025-06-02T10:00:00+05:30: Standup - Daily sync with the whole team...")
	assert.Contains(t, report, "2. 2025-06-03: (no title)")
}

func TestListEventsMultibyteDescription(t *testing.T) {
	desc := strings.Repeat("会議", 20)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"items":[
			{"start":{"dateTime":"2025-06-02T10:00:00+05:30"},"summary":"Planning","description":"%s"}
		]}`, desc)
	}))

	report := c.listEvents(context.Background(), 5)
	assert.True(t, utf8.ValidString(report), "report contains invalid UTF-8")
	assert.Contains(t, report, strings.Repeat("会議", 15)+"...")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 30))
	assert.Equal(t, "héllo", truncateRunes("héllo wörld", 5))
	assert.Equal(t, "日本語", truncateRunes("日本語のテキスト", 3))
	assert.True(t, utf8.ValidString(truncateRunes(strings.Repeat("é", 40), 30)))
}

func TestListEventsEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	}))

	assert.Equal(t, "No upcoming events found.", c.listEvents(context.Background(), 0))
}

func TestDeleteEvent(t *testing.T) {
	var deleted string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		fmt.Fprint(w, `{"items":[
			{"id":"ev-1","summary":"Project Review"},
			{"id":"ev-2","summary":"Team Meeting"}
		]}`)
	})
	mux.HandleFunc("DELETE /calendars/primary/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		assert.Equal(t, "all", r.URL.Query().Get("sendUpdates"))
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mux)
	report := c.deleteEvent(context.Background(), DeleteEventArgs{TitleQuery: "team meet"})
	assert.Equal(t, "Deleted event 'Team Meeting'", report)
	assert.Equal(t, "ev-2", deleted)
}

func TestDeleteEventSeriesScope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		// Series deletion needs the parent event, not expanded instances.
		assert.Equal(t, "false", r.URL.Query().Get("singleEvents"))
		assert.Empty(t, r.URL.Query().Get("orderBy"))
		fmt.Fprint(w, `{"items":[{"id":"series-1","summary":"Daily Standup"}]}`)
	})
	mux.HandleFunc("DELETE /calendars/primary/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mux)
	report := c.deleteEvent(context.Background(), DeleteEventArgs{TitleQuery: "standup", Scope: "all"})
	assert.Equal(t, "Deleted event 'Daily Standup' (entire series)", report)
}

func TestDeleteEventNoMatch(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"ev-1","summary":"Other"}]}`)
	}))

	report := c.deleteEvent(context.Background(), DeleteEventArgs{TitleQuery: "missing"})
	assert.Equal(t, "No event found matching 'missing'", report)
}

func TestDeleteEventRequiresQuery(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	report := c.deleteEvent(context.Background(), DeleteEventArgs{})
	assert.Contains(t, report, "title_query is required")

	report = c.deleteEvent(context.Background(), DeleteEventArgs{TitleQuery: strings.Repeat(" ", 3)})
	assert.Contains(t, report, "title_query is required")
}
