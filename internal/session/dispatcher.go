package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rcanete/orion/internal/api"
	"github.com/rcanete/orion/internal/debug"
	apierrors "github.com/rcanete/orion/internal/errors"
	"github.com/rcanete/orion/internal/models"
)

// Dispatcher turns user submissions into backend requests and applies the
// streamed results back into the store. At most one request is in flight
// per chat; a second send for the same chat is rejected with Busy before
// anything is appended.
type Dispatcher struct {
	store  *Store
	client api.Client

	mu       sync.Mutex
	inflight map[string]*flight
	mode     models.Mode
}

// flight tracks one outstanding request
type flight struct {
	chatID    string
	messageID string
	cancel    context.CancelFunc
	finished  bool // guarded by Dispatcher.mu, set by whichever side finalizes first
}

// NewDispatcher creates a dispatcher over the store and transport
func NewDispatcher(store *Store, client api.Client) *Dispatcher {
	return &Dispatcher{
		store:    store,
		client:   client,
		inflight: make(map[string]*flight),
		mode:     models.DefaultMode,
	}
}

// SetMode selects the mode used for subsequent sends
func (d *Dispatcher) SetMode(mode models.Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
}

// Mode returns the current send mode
func (d *Dispatcher) Mode() models.Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Busy reports whether a request is outstanding for the chat
func (d *Dispatcher) Busy(chatID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[chatID]
	return ok
}

// Send submits a user message on a chat and opens the response stream.
// It appends the user message plus a pending assistant placeholder, and
// returns the placeholder's id so callers can track the response.
func (d *Dispatcher) Send(ctx context.Context, chatID, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apierrors.ErrEmptyMessage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.inflight[chatID]; ok {
		return "", apierrors.NewBusyError(chatID)
	}

	chat, err := d.store.Chat(chatID)
	if err != nil {
		return "", err
	}

	if _, err := d.store.AppendMessage(chatID, models.Message{
		Role:    models.RoleUser,
		Content: content,
		Status:  models.StatusComplete,
	}); err != nil {
		return "", err
	}

	messageID, err := d.store.AppendMessage(chatID, models.Message{
		Role:   models.RoleAssistant,
		Status: models.StatusPending,
	})
	if err != nil {
		return "", err
	}

	req := &api.ChatRequest{
		Message:      content,
		ThreadID:     chat.ThreadID,
		DeepResearch: d.mode.DeepResearch,
	}
	d.launch(ctx, chatID, messageID, func(ctx context.Context) (api.Stream, error) {
		return d.client.SendMessage(ctx, req)
	})

	return messageID, nil
}

// Regenerate retries the last exchange, reusing the existing assistant
// message's identifier and replacing its content.
func (d *Dispatcher) Regenerate(ctx context.Context, chatID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.inflight[chatID]; ok {
		return "", apierrors.NewBusyError(chatID)
	}

	chat, err := d.store.Chat(chatID)
	if err != nil {
		return "", err
	}

	assistantIdx := -1
	for i := len(chat.Messages) - 1; i >= 0; i-- {
		if chat.Messages[i].Role == models.RoleAssistant {
			assistantIdx = i
			break
		}
	}

	var content string
	if assistantIdx >= 0 {
		for i := assistantIdx - 1; i >= 0; i-- {
			if chat.Messages[i].Role == models.RoleUser {
				content = chat.Messages[i].Content
				break
			}
		}
	} else if last := chat.LastMessage(); last != nil && last.Role == models.RoleUser {
		// A saved chat can end on an unanswered user turn
		content = last.Content
	}
	if content == "" {
		return "", apierrors.NewNotFoundError("message", "")
	}

	var messageID string
	if assistantIdx >= 0 {
		messageID = chat.Messages[assistantIdx].ID
		if err := d.store.ResetMessage(chatID, messageID); err != nil {
			return "", err
		}
	} else {
		messageID, err = d.store.AppendMessage(chatID, models.Message{
			Role:   models.RoleAssistant,
			Status: models.StatusPending,
		})
		if err != nil {
			return "", err
		}
	}

	req := &api.ChatRequest{
		Message:      content,
		ThreadID:     chat.ThreadID,
		DeepResearch: d.mode.DeepResearch,
	}
	d.launch(ctx, chatID, messageID, func(ctx context.Context) (api.Stream, error) {
		return d.client.SendMessage(ctx, req)
	})

	return messageID, nil
}

// Review resumes a paused deep research run with a reviewer verdict.
// The chat must already have a backend thread.
func (d *Dispatcher) Review(ctx context.Context, chatID string, action models.ReviewAction, feedback string) (string, error) {
	if !action.Valid() {
		return "", fmt.Errorf("invalid review action %q", action)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.inflight[chatID]; ok {
		return "", apierrors.NewBusyError(chatID)
	}

	chat, err := d.store.Chat(chatID)
	if err != nil {
		return "", err
	}
	if chat.ThreadID == "" {
		return "", apierrors.NewNotFoundError("conversation", chatID)
	}

	content := string(action)
	if feedback != "" {
		content += ": " + feedback
	}
	if _, err := d.store.AppendMessage(chatID, models.Message{
		Role:    models.RoleUser,
		Content: content,
		Status:  models.StatusComplete,
	}); err != nil {
		return "", err
	}

	messageID, err := d.store.AppendMessage(chatID, models.Message{
		Role:   models.RoleAssistant,
		Status: models.StatusPending,
	})
	if err != nil {
		return "", err
	}

	threadID := chat.ThreadID
	req := &api.ResumeRequest{Action: action, Feedback: feedback}
	d.launch(ctx, chatID, messageID, func(ctx context.Context) (api.Stream, error) {
		return d.client.ResumeResearch(ctx, threadID, req)
	})

	return messageID, nil
}

// Cancel aborts the chat's in-flight request, if any. The pending message
// transitions to error with a cancelled reason and the chat accepts a new
// send as soon as Cancel returns.
func (d *Dispatcher) Cancel(chatID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.inflight[chatID]
	if !ok {
		return false
	}

	d.finalizeLocked(f, models.StatusError, models.ReasonCancelled)
	f.cancel()
	return true
}

// CancelAll aborts every in-flight request, for shutdown
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, f := range d.inflight {
		d.finalizeLocked(f, models.StatusError, models.ReasonCancelled)
		f.cancel()
	}
}

// launch registers the flight and starts the stream goroutine.
// Caller holds d.mu.
func (d *Dispatcher) launch(ctx context.Context, chatID, messageID string, open func(context.Context) (api.Stream, error)) {
	ctx, cancel := context.WithCancel(ctx)
	f := &flight{
		chatID:    chatID,
		messageID: messageID,
		cancel:    cancel,
	}
	d.inflight[chatID] = f

	go d.run(ctx, f, open)
}

// run owns one stream from open to terminal event
func (d *Dispatcher) run(ctx context.Context, f *flight, open func(context.Context) (api.Stream, error)) {
	logger := debug.Logger()

	stream, err := open(ctx)
	if err != nil {
		logger.Debug("stream open failed", "chat_id", f.chatID, "err", err)
		d.finalize(f, models.StatusError, models.ReasonTransport)
		return
	}
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				// Server closed without a terminal event; what arrived is
				// all there is.
				d.finalizeComplete(f, stream.ThreadID())
				return
			}
			logger.Debug("stream read failed", "chat_id", f.chatID, "err", err)
			d.finalize(f, models.StatusError, models.ReasonTransport)
			return
		}

		switch event.Type {
		case models.EventStateUpdate, models.EventMessage:
			d.applyFragment(f, event)
		case models.EventError:
			logger.Debug("backend error", "chat_id", f.chatID, "err", event.Err)
			d.finalize(f, models.StatusError, models.ReasonTransport)
			return
		case models.EventComplete:
			d.finalizeComplete(f, stream.ThreadID())
			return
		}
	}
}

// applyFragment appends streamed content to the pending message
func (d *Dispatcher) applyFragment(f *flight, event *models.StreamEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f.finished {
		return
	}

	patch := MessagePatch{}
	if event.Stage != "" {
		stage := event.Stage
		patch.Stage = &stage
	}

	if event.Text != "" {
		fragment := event.Text
		if event.Type == models.EventStateUpdate {
			// Node updates are whole paragraphs, not tokens
			if pending := d.store.PendingMessage(f.chatID); pending != nil && pending.Content != "" {
				fragment = "\n\n" + fragment
			}
		}
		patch.AppendContent = fragment
	}

	if patch.AppendContent == "" && patch.Stage == nil {
		return
	}
	if err := d.store.UpdateMessage(f.chatID, f.messageID, patch); err != nil {
		// The chat may have been deleted mid-stream
		debug.Logger().Debug("fragment dropped", "chat_id", f.chatID, "err", err)
	}
}

// finalize settles the pending message and releases the busy slot
func (d *Dispatcher) finalize(f *flight, status, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finalizeLocked(f, status, reason)
}

// finalizeComplete records the thread id before marking the message
// complete, so observers of the completion see both.
func (d *Dispatcher) finalizeComplete(f *flight, threadID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f.finished {
		return
	}
	if err := d.store.SetThreadID(f.chatID, threadID); err != nil {
		debug.Logger().Debug("thread id dropped", "chat_id", f.chatID, "err", err)
	}
	d.finalizeLocked(f, models.StatusComplete, "")
}

// finalizeLocked is the single point where a flight ends. Caller holds d.mu.
// The message is settled before the busy slot is released, so a new send
// can never observe a stale pending message.
func (d *Dispatcher) finalizeLocked(f *flight, status, reason string) {
	if f.finished {
		return
	}
	f.finished = true

	stage := ""
	patch := MessagePatch{Status: &status, Stage: &stage}
	if reason != "" {
		patch.ErrReason = &reason
	}
	if err := d.store.UpdateMessage(f.chatID, f.messageID, patch); err != nil {
		debug.Logger().Debug("finalize dropped", "chat_id", f.chatID, "err", err)
	}

	delete(d.inflight, f.chatID)
}
