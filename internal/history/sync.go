package history

import (
	"context"
	"strings"
	"time"

	"github.com/rcanete/orion/internal/api"
	"github.com/rcanete/orion/internal/models"
)

// Pull merges the backend's conversation archive for userID into the
// local one. Conversations already archived (matched by thread id) are
// left alone. Returns the number of chats added.
func (s *Store) Pull(ctx context.Context, client api.Client, userID string) (int, error) {
	summaries, err := client.Conversations(ctx, userID)
	if err != nil {
		return 0, err
	}

	chats, err := s.ListChats()
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(chats))
	for _, chat := range chats {
		if chat.ThreadID != "" {
			known[chat.ThreadID] = true
		}
	}

	added := 0
	for _, summary := range summaries {
		if summary.ConversationID == "" || known[summary.ConversationID] {
			continue
		}

		detail, err := client.Conversation(ctx, userID, summary.ConversationID)
		if err != nil {
			return added, err
		}

		if err := s.SaveChat(chatFromDetail(detail)); err != nil {
			return added, err
		}
		known[summary.ConversationID] = true
		added++
	}

	return added, nil
}

// chatFromDetail rebuilds a local chat from the backend's record of a
// finished research run: the original query and the final report.
func chatFromDetail(detail *models.ConversationDetail) *models.Chat {
	created := parseBackendTime(detail.CreatedAt)

	chat := &models.Chat{
		ID:        localChatID(detail.ConversationID),
		Title:     DeriveTitle(detail.UserQuery),
		ThreadID:  detail.ConversationID,
		CreatedAt: created,
		UpdatedAt: created,
	}

	chat.Messages = append(chat.Messages, models.Message{
		ID:        models.NewID("msg-"),
		Role:      models.RoleUser,
		Content:   detail.UserQuery,
		Status:    models.StatusComplete,
		CreatedAt: created,
	})
	if detail.ReportContent != "" {
		chat.Messages = append(chat.Messages, models.Message{
			ID:        models.NewID("msg-"),
			Role:      models.RoleAssistant,
			Content:   detail.ReportContent,
			Status:    models.StatusComplete,
			CreatedAt: created,
		})
	}

	return chat
}

// localChatID derives a stable local id from a backend thread id, so
// repeated pulls of the same conversation land on the same file.
func localChatID(threadID string) string {
	suffix := strings.TrimPrefix(threadID, "thread_")
	if suffix == "" {
		return models.NewID("chat-")
	}
	return "chat-" + suffix
}

// parseBackendTime parses the backend's ISO timestamps, tolerating the
// missing zone FastAPI emits for naive datetimes.
func parseBackendTime(value string) time.Time {
	if value == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now()
}
