package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second

	EnvBaseURL = "ASK_A_HUMAN_BASE_URL"
	EnvAgentID = "ASK_A_HUMAN_AGENT_ID"
)

// Client is the low-level HTTP client for the Ask-a-Human API. Every call
// is a single attempt: writes are sent exactly once and never retried here;
// retry policy for poll reads lives in the Orchestrator.
type Client struct {
	baseURL    string
	agentID    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithAgentID sets the agent identifier sent as X-Agent-Id
func WithAgentID(id string) Option {
	return func(c *Client) { c.agentID = id }
}

// WithHTTPClient swaps the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client. Base URL and agent ID fall back to the
// ASK_A_HUMAN_BASE_URL and ASK_A_HUMAN_AGENT_ID environment variables.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		agentID: "default",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		c.baseURL = v
	}
	if v := os.Getenv(EnvAgentID); v != "" {
		c.agentID = v
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SubmitQuestion submits a question for humans to answer
func (c *Client) SubmitQuestion(ctx context.Context, req QuestionRequest) (*Submission, error) {
	var sub Submission
	if err := c.do(ctx, http.MethodPost, "/v1/agent/questions", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetQuestion fetches a question's current state and responses
func (c *Client) GetQuestion(ctx context.Context, questionID string) (*Question, error) {
	var q Question
	if err := c.do(ctx, http.MethodGet, "/v1/agent/questions/"+questionID, nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ListOpenQuestions fetches questions currently accepting answers
func (c *Client) ListOpenQuestions(ctx context.Context, limit int) ([]BrowseItem, error) {
	path := "/v1/human/questions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Questions []BrowseItem `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// SubmitResponse submits a human answer to a question
func (c *Client) SubmitResponse(ctx context.Context, req ResponseRequest) (string, error) {
	var out struct {
		ResponseID string `json:"response_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/human/responses", req, &out); err != nil {
		return "", err
	}
	return out.ResponseID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Id", c.agentID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &CancelledError{Err: ctx.Err()}
		}
		return &ServerError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ServerError{Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody, resp.Header)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &ServerError{StatusCode: resp.StatusCode, Message: "failed to parse response: " + err.Error()}
		}
	}

	return nil
}

// decodeError maps the wire error envelope onto the SDK error taxonomy
func decodeError(status int, body []byte, header http.Header) error {
	var envelope struct {
		Error   string                 `json:"error"`
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		envelope.Error = fmt.Sprintf("HTTP %d", status)
	}

	switch {
	case status == http.StatusBadRequest:
		return &ValidationError{Message: envelope.Error, Code: envelope.Code, Details: envelope.Details}
	case status == http.StatusNotFound:
		return &NotFoundError{Message: envelope.Error}
	case status == http.StatusConflict:
		if envelope.Code == "DUPLICATE_RESPONSE" {
			return &DuplicateResponseError{Message: envelope.Error}
		}
		return &QuestionClosedError{Message: envelope.Error}
	case status == http.StatusTooManyRequests:
		retryAfter := time.Duration(0)
		if v := header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{Message: envelope.Error, RetryAfter: retryAfter}
	default:
		return &ServerError{StatusCode: status, Message: envelope.Error}
	}
}
