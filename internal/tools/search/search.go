// Package search provides web and research search tools backed by the
// Tavily search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

const (
	depthBasic    = "basic"
	depthAdvanced = "advanced"

	// research_search always fetches a fixed deep result set.
	researchMaxResults = 10

	snippetLimit = 200
)

// Config holds configuration for the search tools.
type Config struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
}

// Client talks to the Tavily search API.
type Client struct {
	cfg Config
	log logger.Logger
}

// New creates a search client.
func New(cfg Config, log logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("search API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	if cfg.MaxResults < 1 {
		cfg.MaxResults = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, log: log}, nil
}

// WebSearchArgs are the arguments for the basic web search tool.
type WebSearchArgs struct {
	Query string `json:"query" jsonschema:"The search query to execute"`
}

// ResearchArgs are the arguments for the research search tool.
type ResearchArgs struct {
	Topic string `json:"topic" jsonschema:"The topic to research in depth"`
}

// Result carries a human-readable tool report.
type Result struct {
	Report string `json:"report"`
}

// Tools returns the search tool set.
func (c *Client) Tools() ([]tool.Tool, error) {
	webSearch, err := functiontool.New(functiontool.Config{
		Name:        "web_search",
		Description: "Perform a basic web search and return relevant results",
	}, func(ctx tool.Context, args WebSearchArgs) (Result, error) {
		return Result{Report: c.webSearch(ctx, args.Query)}, nil
	})
	if err != nil {
		return nil, err
	}

	research, err := functiontool.New(functiontool.Config{
		Name:        "research_search",
		Description: "Perform comprehensive research search with detailed analysis",
	}, func(ctx tool.Context, args ResearchArgs) (Result, error) {
		return Result{Report: c.researchSearch(ctx, args.Topic)}, nil
	})
	if err != nil {
		return nil, err
	}

	return []tool.Tool{webSearch, research}, nil
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

func (c *Client) webSearch(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return "Error: Search query cannot be empty"
	}

	data, err := c.query(ctx, query, depthBasic, c.cfg.MaxResults)
	if err != nil {
		msg := fmt.Sprintf("Error performing web search for '%s': %v", query, err)
		c.log.Error("Web search failed",
			logger.StringField("query", query), logger.ErrorField(err))
		return msg
	}

	return formatWebResults(data, query)
}

func (c *Client) researchSearch(ctx context.Context, topic string) string {
	if strings.TrimSpace(topic) == "" {
		return "Error: Research topic cannot be empty"
	}

	data, err := c.query(ctx, topic, depthAdvanced, researchMaxResults)
	if err != nil {
		msg := fmt.Sprintf("Error performing research search for '%s': %v", topic, err)
		c.log.Error("Research search failed",
			logger.StringField("topic", topic), logger.ErrorField(err))
		return msg
	}

	return formatResearchResults(data, topic)
}

func (c *Client) query(ctx context.Context, query, depth string, maxResults int) (*tavilyResponse, error) {
	payload := map[string]any{
		"api_key":             c.cfg.APIKey,
		"query":               query,
		"search_depth":        depth,
		"include_answer":      true,
		"include_raw_content": false,
		"max_results":         maxResults,
		"include_images":      false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: c.cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily API error (status %d): %s", resp.StatusCode, respBody)
	}

	var data tavilyResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.log.Debug("Tavily search completed",
		logger.StringField("depth", depth),
		logger.IntField("results", len(data.Results)))
	return &data, nil
}

func formatWebResults(data *tavilyResponse, query string) string {
	var lines []string

	if data.Answer != "" {
		lines = append(lines, fmt.Sprintf("Answer: %s\n", data.Answer))
	}

	if len(data.Results) > 0 {
		lines = append(lines, "Search Results:")
		for i, r := range data.Results {
			content := r.Content
			if len(content) > snippetLimit {
				content = content[:snippetLimit] + "..."
			}
			lines = append(lines,
				fmt.Sprintf("\n%d. %s", i+1, orDefault(r.Title, "No title")),
				fmt.Sprintf("   URL: %s", orDefault(r.URL, "No URL")),
				fmt.Sprintf("   Summary: %s", orDefault(content, "No content")))
		}
	}

	if len(lines) == 0 {
		return fmt.Sprintf("No search results found for: %s", query)
	}
	return strings.Join(lines, "\n")
}

func formatResearchResults(data *tavilyResponse, topic string) string {
	var lines []string

	if data.Answer != "" {
		lines = append(lines, fmt.Sprintf("Research Summary: %s\n", data.Answer))
	}

	if len(data.Results) > 0 {
		lines = append(lines, "Detailed Research Results:")
		for i, r := range data.Results {
			lines = append(lines,
				fmt.Sprintf("\n%d. %s", i+1, orDefault(r.Title, "No title")),
				fmt.Sprintf("   Source: %s", orDefault(r.URL, "No URL")),
				fmt.Sprintf("   Content: %s", orDefault(r.Content, "No content")),
				"   "+strings.Repeat("-", 80))
		}
	}

	if len(lines) == 0 {
		return fmt.Sprintf("No research results found for: %s", topic)
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
