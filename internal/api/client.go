// Package api provides the HTTP client for the research assistant backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	apierrors "github.com/rcanete/orion/internal/errors"
	"github.com/rcanete/orion/internal/models"
)

// Client is the abstract backend transport the dispatcher and commands are
// written against, so a mock can substitute for the real backend in tests.
type Client interface {
	SendMessage(ctx context.Context, req *ChatRequest) (Stream, error)
	ResumeResearch(ctx context.Context, threadID string, req *ResumeRequest) (Stream, error)
	Conversations(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	Conversation(ctx context.Context, userID, conversationID string) (*models.ConversationDetail, error)
	Health(ctx context.Context) error
}

// ChatRequest is the body of a chat send
type ChatRequest struct {
	Message      string `json:"message"`
	ThreadID     string `json:"thread_id,omitempty"` // empty on the first turn, the backend mints one
	DeepResearch bool   `json:"deep_research,omitempty"`
}

// ResumeRequest carries a reviewer's verdict to a paused research run
type ResumeRequest struct {
	Action   models.ReviewAction `json:"action"`
	Feedback string              `json:"feedback,omitempty"`
}

// ResearchClient is the real backend client
type ResearchClient struct {
	httpClient *http.Client
	baseURL    string
	userID     string
	timeout    time.Duration
	mu         sync.RWMutex
	closed     bool
}

// ClientOption is a function that configures the client
type ClientOption func(*ResearchClient)

// WithBaseURL sets the backend base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *ResearchClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUserID sets the conversation namespace for archive lookups
func WithUserID(userID string) ClientOption {
	return func(c *ResearchClient) {
		c.userID = userID
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *ResearchClient) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the overall budget for a single request, streams included
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ResearchClient) {
		c.timeout = timeout
	}
}

// NewClient creates a new ResearchClient
func NewClient(opts ...ClientOption) (*ResearchClient, error) {
	client := &ResearchClient{
		// No global timeout on the HTTP client: it would kill long SSE
		// streams. Budgets come from request contexts instead.
		httpClient: &http.Client{},
		baseURL:    models.DefaultBaseURL,
		userID:     models.DefaultUserID,
		timeout:    5 * time.Minute,
	}

	for _, opt := range opts {
		opt(client)
	}

	parsed, err := url.Parse(client.baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", client.baseURL)
	}

	return client, nil
}

// BaseURL returns the configured backend base URL
func (c *ResearchClient) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// UserID returns the configured conversation namespace
func (c *ResearchClient) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Close shuts down the client and drops idle connections
func (c *ResearchClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// IsClosed returns whether the client is closed
func (c *ResearchClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Conversations lists the backend's archived conversations for a user,
// most recent first.
func (c *ResearchClient) Conversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	endpoint := fmt.Sprintf(models.PathConversations, url.PathEscape(userID))

	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var summaries []models.ConversationSummary
	if err := json.Unmarshal(body, &summaries); err != nil {
		return nil, apierrors.NewParseError("malformed conversation list", string(body))
	}
	return summaries, nil
}

// Conversation fetches one archived conversation's full record
func (c *ResearchClient) Conversation(ctx context.Context, userID, conversationID string) (*models.ConversationDetail, error) {
	endpoint := fmt.Sprintf(models.PathConversation, url.PathEscape(userID), url.PathEscape(conversationID))

	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		if apierrors.GetStatusCode(err) == http.StatusNotFound {
			return nil, apierrors.NewNotFoundError("conversation", conversationID)
		}
		return nil, err
	}

	var detail models.ConversationDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, apierrors.NewParseError("malformed conversation detail", string(body))
	}
	return &detail, nil
}

// Health checks that the backend is up and reports itself healthy
func (c *ResearchClient) Health(ctx context.Context) error {
	body, err := c.getJSON(ctx, models.PathHealth)
	if err != nil {
		return err
	}

	if status := gjson.GetBytes(body, "status").String(); status != "healthy" {
		return apierrors.NewTransportError(0, models.PathHealth, fmt.Sprintf("backend reports status %q", status))
	}
	return nil
}

// getJSON performs a GET against the backend and returns the response body
func (c *ResearchClient) getJSON(ctx context.Context, endpoint string) ([]byte, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apierrors.NewTimeoutError(endpoint)
		}
		return nil, apierrors.NewTransportError(0, endpoint, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierrors.FromStatusCode(resp.StatusCode, endpoint, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewTransportError(0, endpoint, err.Error())
	}
	return body, nil
}

// requestTimeout returns the budget for plain JSON endpoints. Streams get
// the full configured timeout; lookups do not need minutes.
func (c *ResearchClient) requestTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.timeout < 30*time.Second {
		return c.timeout
	}
	return 30 * time.Second
}

// postJSON starts a POST request with a JSON body; the caller owns the response
func (c *ResearchClient) postJSON(ctx context.Context, endpoint string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL()+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	return c.httpClient.Do(req)
}

// readErrorBody reads a capped error body for diagnostics
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil && len(body) == 0 {
		return ""
	}
	// FastAPI wraps error messages in a detail field
	if detail := gjson.GetBytes(body, "detail").String(); detail != "" {
		return detail
	}
	return strings.TrimSpace(string(body))
}
