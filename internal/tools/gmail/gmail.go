// Package gmail provides Gmail tools for drafting, sending and reading
// the user's mail.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	gm "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

const (
	userMe            = "me"
	defaultMaxResults = 10
)

// Client wraps the Gmail API service.
type Client struct {
	svc *gm.Service
	log logger.Logger
}

// New creates a Gmail client over an authenticated HTTP client.
func New(ctx context.Context, httpClient *http.Client, log logger.Logger, opts ...option.ClientOption) (*Client, error) {
	svcOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gm.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Client{svc: svc, log: log}, nil
}

// ComposeArgs are the arguments shared by the draft and send tools.
type ComposeArgs struct {
	To      []string `json:"to" jsonschema:"Recipient email addresses"`
	Subject string   `json:"subject" jsonschema:"Subject line"`
	Message string   `json:"message" jsonschema:"Plain-text message body"`
	Cc      []string `json:"cc,omitempty" jsonschema:"CC email addresses"`
	Bcc     []string `json:"bcc,omitempty" jsonschema:"BCC email addresses"`
}

// SearchArgs are the arguments for the mail search tool.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Gmail search query, e.g. 'from:alice@example.com is:unread'"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Number of messages to return (default 10)"`
}

// GetMessageArgs are the arguments for the message lookup tool.
type GetMessageArgs struct {
	MessageID string `json:"message_id" jsonschema:"ID of the message to fetch"`
}

// GetThreadArgs are the arguments for the thread lookup tool.
type GetThreadArgs struct {
	ThreadID string `json:"thread_id" jsonschema:"ID of the thread to fetch"`
}

// Result carries a human-readable tool report.
type Result struct {
	Report string `json:"report"`
}

// Tools returns the Gmail tool set.
func (c *Client) Tools() ([]tool.Tool, error) {
	createDraft, err := functiontool.New(functiontool.Config{
		Name:        "create_gmail_draft",
		Description: "Create a draft email in the user's Gmail account",
	}, func(ctx tool.Context, args ComposeArgs) (Result, error) {
		return Result{Report: c.createDraft(ctx, args)}, nil
	})
	if err != nil {
		return nil, err
	}

	sendMessage, err := functiontool.New(functiontool.Config{
		Name:        "send_gmail_message",
		Description: "Send an email from the user's Gmail account",
	}, func(ctx tool.Context, args ComposeArgs) (Result, error) {
		return Result{Report: c.sendMessage(ctx, args)}, nil
	})
	if err != nil {
		return nil, err
	}

	search, err := functiontool.New(functiontool.Config{
		Name:        "search_gmail",
		Description: "Search the user's Gmail with a standard Gmail query",
	}, func(ctx tool.Context, args SearchArgs) (Result, error) {
		return Result{Report: c.search(ctx, args)}, nil
	})
	if err != nil {
		return nil, err
	}

	getMessage, err := functiontool.New(functiontool.Config{
		Name:        "get_gmail_message",
		Description: "Fetch a single email message by ID, including its body",
	}, func(ctx tool.Context, args GetMessageArgs) (Result, error) {
		return Result{Report: c.getMessage(ctx, args.MessageID)}, nil
	})
	if err != nil {
		return nil, err
	}

	getThread, err := functiontool.New(functiontool.Config{
		Name:        "get_gmail_thread",
		Description: "Fetch an email thread by ID with all its messages",
	}, func(ctx tool.Context, args GetThreadArgs) (Result, error) {
		return Result{Report: c.getThread(ctx, args.ThreadID)}, nil
	})
	if err != nil {
		return nil, err
	}

	return []tool.Tool{createDraft, sendMessage, search, getMessage, getThread}, nil
}

func (c *Client) createDraft(ctx context.Context, args ComposeArgs) string {
	raw, err := encodeMessage(args)
	if err != nil {
		return fmt.Sprintf("Error creating draft: %v", err)
	}

	draft, err := c.svc.Users.Drafts.Create(userMe, &gm.Draft{
		Message: &gm.Message{Raw: raw},
	}).Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to create draft", logger.ErrorField(err))
		return fmt.Sprintf("Error creating draft: %v", err)
	}

	c.log.Info("Created draft", logger.StringField("draft_id", draft.Id))
	return fmt.Sprintf("Draft created. Draft Id: %s", draft.Id)
}

func (c *Client) sendMessage(ctx context.Context, args ComposeArgs) string {
	raw, err := encodeMessage(args)
	if err != nil {
		return fmt.Sprintf("Error sending message: %v", err)
	}

	msg, err := c.svc.Users.Messages.Send(userMe, &gm.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to send message", logger.ErrorField(err))
		return fmt.Sprintf("Error sending message: %v", err)
	}

	c.log.Info("Sent message", logger.StringField("message_id", msg.Id))
	return fmt.Sprintf("Message sent. Message Id: %s", msg.Id)
}

// encodeMessage builds an RFC 2822 message and encodes it the way the
// Gmail API expects raw payloads.
func encodeMessage(args ComposeArgs) (string, error) {
	if len(args.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(args.To, ", "))
	if len(args.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(args.Cc, ", "))
	}
	if len(args.Bcc) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\r\n", strings.Join(args.Bcc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", args.Subject)
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(args.Message)

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

func (c *Client) search(ctx context.Context, args SearchArgs) string {
	if strings.TrimSpace(args.Query) == "" {
		return "Error searching mail: query is required"
	}
	maxResults := args.MaxResults
	if maxResults < 1 {
		maxResults = defaultMaxResults
	}

	list, err := c.svc.Users.Messages.List(userMe).
		Q(args.Query).
		MaxResults(int64(maxResults)).
		Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to search mail",
			logger.StringField("query", args.Query), logger.ErrorField(err))
		return fmt.Sprintf("Error searching mail: %v", err)
	}

	if len(list.Messages) == 0 {
		return fmt.Sprintf("No messages found for query: %s", args.Query)
	}

	lines := []string{fmt.Sprintf("Found %d messages:", len(list.Messages))}
	for i, ref := range list.Messages {
		msg, err := c.svc.Users.Messages.Get(userMe, ref.Id).
			Format("metadata").
			MetadataHeaders("Subject", "From").
			Context(ctx).Do()
		if err != nil {
			lines = append(lines, fmt.Sprintf("%d. (id: %s) unavailable: %v", i+1, ref.Id, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. From: %s | Subject: %s | (id: %s, thread: %s)\n   %s",
			i+1, header(msg, "From"), header(msg, "Subject"), msg.Id, msg.ThreadId, msg.Snippet))
	}
	return strings.Join(lines, "\n")
}

func (c *Client) getMessage(ctx context.Context, messageID string) string {
	if strings.TrimSpace(messageID) == "" {
		return "Error fetching message: message_id is required"
	}

	msg, err := c.svc.Users.Messages.Get(userMe, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to fetch message",
			logger.StringField("message_id", messageID), logger.ErrorField(err))
		return fmt.Sprintf("Error fetching message: %v", err)
	}

	return fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\nThread: %s\n\n%s",
		header(msg, "From"), header(msg, "Subject"), header(msg, "Date"),
		msg.ThreadId, messageBody(msg))
}

func (c *Client) getThread(ctx context.Context, threadID string) string {
	if strings.TrimSpace(threadID) == "" {
		return "Error fetching thread: thread_id is required"
	}

	thread, err := c.svc.Users.Threads.Get(userMe, threadID).Format("full").Context(ctx).Do()
	if err != nil {
		c.log.Error("Failed to fetch thread",
			logger.StringField("thread_id", threadID), logger.ErrorField(err))
		return fmt.Sprintf("Error fetching thread: %v", err)
	}

	lines := []string{fmt.Sprintf("Thread %s with %d messages:", threadID, len(thread.Messages))}
	for i, msg := range thread.Messages {
		lines = append(lines, fmt.Sprintf("\n--- Message %d ---\nFrom: %s\nSubject: %s\n\n%s",
			i+1, header(msg, "From"), header(msg, "Subject"), messageBody(msg)))
	}
	return strings.Join(lines, "\n")
}

func header(msg *gm.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// messageBody returns the decoded text/plain body, falling back to the
// snippet when no plain-text part exists.
func messageBody(msg *gm.Message) string {
	if msg.Payload == nil {
		return msg.Snippet
	}
	if body := partText(msg.Payload); body != "" {
		return body
	}
	return msg.Snippet
}

func partText(part *gm.MessagePart) string {
	if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
		if decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(part.Body.Data, "=")); err == nil {
			return string(decoded)
		}
	}
	for _, p := range part.Parts {
		if text := partText(p); text != "" {
			return text
		}
	}
	return ""
}
