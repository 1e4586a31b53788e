package api

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rcanete/orion/internal/debug"
	apierrors "github.com/rcanete/orion/internal/errors"
	"github.com/rcanete/orion/internal/models"
)

// Stream is one open response channel from the backend. Recv returns the
// next decoded event, io.EOF once the server closes the stream after a
// terminal event, or the transport failure that ended it.
type Stream interface {
	Recv() (*models.StreamEvent, error)
	ThreadID() string
	Close() error
}

// threadIDHeader carries the backend's thread id on every chat response
const threadIDHeader = "X-Thread-ID"

// SendMessage posts a user message and opens the SSE response stream
func (c *ResearchClient) SendMessage(ctx context.Context, req *ChatRequest) (Stream, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, apierrors.ErrEmptyMessage
	}
	return c.openStream(ctx, models.PathChat, req)
}

// ResumeResearch resumes a paused research run with a reviewer verdict
func (c *ResearchClient) ResumeResearch(ctx context.Context, threadID string, req *ResumeRequest) (Stream, error) {
	if threadID == "" {
		return nil, apierrors.NewNotFoundError("conversation", threadID)
	}
	if req == nil || !req.Action.Valid() {
		return nil, fmt.Errorf("invalid review action")
	}
	endpoint := fmt.Sprintf(models.PathResume, url.PathEscape(threadID))
	return c.openStream(ctx, endpoint, req)
}

func (c *ResearchClient) openStream(ctx context.Context, endpoint string, payload any) (Stream, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	// The cancel func lives as long as the stream; Close releases it.
	ctx, cancel := context.WithTimeout(ctx, c.streamTimeout())

	resp, err := c.postJSON(ctx, endpoint, payload)
	if err != nil {
		cancel()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apierrors.NewTimeoutError(endpoint)
		}
		return nil, apierrors.NewTransportError(0, endpoint, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		detail := readErrorBody(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, apierrors.FromStatusCode(resp.StatusCode, endpoint, detail)
	}

	debug.Logger().Debug("stream opened", "endpoint", endpoint, "thread_id", resp.Header.Get(threadIDHeader))

	return &sseStream{
		body:     resp.Body,
		reader:   bufio.NewReader(resp.Body),
		threadID: resp.Header.Get(threadIDHeader),
		cancel:   cancel,
	}, nil
}

func (c *ResearchClient) streamTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeout
}

// sseStream reads server-sent events off an open response body
type sseStream struct {
	body     io.ReadCloser
	reader   *bufio.Reader
	threadID string
	cancel   context.CancelFunc
	closed   bool
}

// ThreadID returns the backend thread id for this exchange
func (s *sseStream) ThreadID() string {
	return s.threadID
}

// Recv returns the next event from the stream
func (s *sseStream) Recv() (*models.StreamEvent, error) {
	if s.closed {
		return nil, io.EOF
	}

	var data strings.Builder
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && data.Len() == 0 {
				return nil, io.EOF
			}
			if err == io.EOF {
				// Stream cut mid-event
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")

		// Blank line terminates the event
		if line == "" {
			if data.Len() == 0 {
				continue
			}
			return parseEvent(data.String())
		}

		// Comment lines keep the connection alive, nothing else
		if strings.HasPrefix(line, ":") {
			continue
		}

		if value, ok := strings.CutPrefix(line, "data:"); ok {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(value, " "))
		}
		// Other SSE fields (event, id, retry) are not used by the backend
	}
}

// Close cancels the request context and releases the response body
func (s *sseStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	return s.body.Close()
}

// parseEvent decodes one SSE data payload into a StreamEvent. Payloads are
// free-form dicts keyed by graph internals, so fields are pulled tolerantly
// rather than unmarshalled against a rigid schema.
func parseEvent(payload string) (*models.StreamEvent, error) {
	if !gjson.Valid(payload) {
		return nil, apierrors.NewParseError("event is not valid JSON", payload)
	}

	eventType := gjson.Get(payload, "event_type").String()
	if eventType == "" {
		return nil, apierrors.NewParseError("event is missing event_type", payload)
	}

	event := &models.StreamEvent{Type: models.EventType(eventType)}
	data := gjson.Get(payload, "data")

	switch event.Type {
	case models.EventStateUpdate:
		event.Stage = data.Get("node").String()
		if report := data.Get("report"); report.Exists() {
			event.Text = report.String()
			event.Report = true
		} else if msg := data.Get("message"); msg.Exists() {
			// Nodes occasionally echo the user's own words back; only
			// assistant content belongs in the transcript.
			if role := data.Get("role").String(); role == "" || role == models.RoleAssistant {
				event.Text = msg.String()
			}
		}
	case models.EventMessage:
		event.Text = data.Get("content").String()
		if event.Text == "" {
			event.Text = data.Get("message").String()
		}
	case models.EventError:
		event.Err = data.Get("error").String()
		if event.Err == "" {
			event.Err = "backend reported an unspecified error"
		}
	case models.EventComplete:
		// Terminal marker, no content
	}

	return event, nil
}
