package api

import (
	"context"
	"io"

	"github.com/rcanete/orion/internal/models"
)

// MockClient is a mock implementation of Client for testing
type MockClient struct {
	// Mock return values
	StreamVal        *MockStream
	SendMessageErr   error
	ResumeErr        error
	ConversationsVal []models.ConversationSummary
	ConversationsErr error
	ConversationVal  *models.ConversationDetail
	ConversationErr  error
	HealthErr        error

	// Call counters/recorders
	SendMessageCalled   int
	ResumeCalled        int
	ConversationsCalled int
	LastRequest         *ChatRequest
	LastThreadID        string
	LastResume          *ResumeRequest
	LastUserID          string
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)

func (m *MockClient) SendMessage(ctx context.Context, req *ChatRequest) (Stream, error) {
	m.SendMessageCalled++
	m.LastRequest = req
	if m.SendMessageErr != nil {
		return nil, m.SendMessageErr
	}
	return m.stream(ctx), nil
}

func (m *MockClient) ResumeResearch(ctx context.Context, threadID string, req *ResumeRequest) (Stream, error) {
	m.ResumeCalled++
	m.LastThreadID = threadID
	m.LastResume = req
	if m.ResumeErr != nil {
		return nil, m.ResumeErr
	}
	return m.stream(ctx), nil
}

func (m *MockClient) Conversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	m.ConversationsCalled++
	m.LastUserID = userID
	return m.ConversationsVal, m.ConversationsErr
}

func (m *MockClient) Conversation(ctx context.Context, userID, conversationID string) (*models.ConversationDetail, error) {
	m.LastUserID = userID
	return m.ConversationVal, m.ConversationErr
}

func (m *MockClient) Health(ctx context.Context) error {
	return m.HealthErr
}

func (m *MockClient) stream(ctx context.Context) *MockStream {
	stream := m.StreamVal
	if stream == nil {
		stream = &MockStream{}
	}
	stream.ctx = ctx
	return stream
}

// MockStream replays scripted events, then RecvErr or io.EOF. With Blocking
// set it hangs after the scripted events until the request context is
// cancelled, which is how cancellation paths are exercised.
type MockStream struct {
	Events      []*models.StreamEvent
	RecvErr     error
	ThreadIDVal string
	Blocking    bool

	CloseCalled bool

	ctx context.Context
	idx int
}

func (s *MockStream) Recv() (*models.StreamEvent, error) {
	if s.idx < len(s.Events) {
		event := s.Events[s.idx]
		s.idx++
		return event, nil
	}
	if s.RecvErr != nil {
		return nil, s.RecvErr
	}
	if s.Blocking && s.ctx != nil {
		<-s.ctx.Done()
		return nil, s.ctx.Err()
	}
	return nil, io.EOF
}

func (s *MockStream) ThreadID() string {
	return s.ThreadIDVal
}

func (s *MockStream) Close() error {
	s.CloseCalled = true
	return nil
}
