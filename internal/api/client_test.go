package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/rcanete/orion/internal/errors"
	"github.com/rcanete/orion/internal/models"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		opts     []ClientOption
		wantErr  bool
		wantBase string
		wantUser string
	}{
		{
			name:     "defaults",
			wantBase: models.DefaultBaseURL,
			wantUser: models.DefaultUserID,
		},
		{
			name:     "custom base URL",
			opts:     []ClientOption{WithBaseURL("http://research.internal:9000")},
			wantBase: "http://research.internal:9000",
			wantUser: models.DefaultUserID,
		},
		{
			name:     "trailing slash trimmed",
			opts:     []ClientOption{WithBaseURL("http://localhost:8000/")},
			wantBase: "http://localhost:8000",
			wantUser: models.DefaultUserID,
		},
		{
			name:     "custom user",
			opts:     []ClientOption{WithUserID("ada")},
			wantBase: models.DefaultBaseURL,
			wantUser: "ada",
		},
		{
			name:    "invalid base URL",
			opts:    []ClientOption{WithBaseURL("not a url")},
			wantErr: true,
		},
		{
			name:    "missing scheme",
			opts:    []ClientOption{WithBaseURL("localhost:8000")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.opts...)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}
			if client.BaseURL() != tt.wantBase {
				t.Errorf("BaseURL = %q, want %q", client.BaseURL(), tt.wantBase)
			}
			if client.UserID() != tt.wantUser {
				t.Errorf("UserID = %q, want %q", client.UserID(), tt.wantUser)
			}
		})
	}
}

func TestConversations(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"conversation_id":"thread_aaa111","user_query":"quantum computing","created_at":"2025-05-01T10:00:00"},
			{"conversation_id":"thread_bbb222","user_query":"fusion reactors","created_at":"2025-05-02T11:00:00"}
		]`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	summaries, err := client.Conversations(context.Background(), "ada")
	if err != nil {
		t.Fatalf("Conversations failed: %v", err)
	}

	if gotPath != "/conversations/ada" {
		t.Errorf("path = %q, want /conversations/ada", gotPath)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].ConversationID != "thread_aaa111" {
		t.Errorf("first id = %q, want thread_aaa111", summaries[0].ConversationID)
	}
	if summaries[1].UserQuery != "fusion reactors" {
		t.Errorf("second query = %q", summaries[1].UserQuery)
	}
}

func TestConversationsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"oops":`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Conversations(context.Background(), "ada")
	if !apierrors.IsTransport(err) {
		t.Errorf("malformed body error = %v, want transport-class", err)
	}
}

func TestConversationDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"conversation_id":"thread_aaa111",
			"user_query":"quantum computing",
			"report_content":"# Quantum\n\nFindings.",
			"findings_count":3,
			"created_at":"2025-05-01T10:00:00"
		}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	detail, err := client.Conversation(context.Background(), "ada", "thread_aaa111")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}

	if detail.FindingsCount != 3 {
		t.Errorf("FindingsCount = %d, want 3", detail.FindingsCount)
	}
	if detail.ReportContent == "" {
		t.Error("ReportContent should not be empty")
	}
}

func TestConversationNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"Conversation not found"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Conversation(context.Background(), "ada", "thread_missing")
	if !apierrors.IsNotFound(err) {
		t.Errorf("error = %v, want NotFound", err)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr bool
	}{
		{"healthy", `{"status":"healthy"}`, http.StatusOK, false},
		{"degraded", `{"status":"degraded"}`, http.StatusOK, true},
		{"server error", `{"detail":"boom"}`, http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			err := client.Health(context.Background())
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Health failed: %v", err)
			}
		})
	}
}

func TestClientClose(t *testing.T) {
	client := newTestClient(t, "http://localhost:8000")

	if client.IsClosed() {
		t.Error("new client should not be closed")
	}

	client.Close()
	client.Close() // idempotent

	if !client.IsClosed() {
		t.Error("client should be closed")
	}

	if _, err := client.SendMessage(context.Background(), &ChatRequest{Message: "hello"}); err == nil {
		t.Error("SendMessage on closed client should fail")
	}
	if _, err := client.Conversations(context.Background(), "ada"); err == nil {
		t.Error("Conversations on closed client should fail")
	}
}
