package models

// ConversationSummary is one entry from the backend's conversation listing
type ConversationSummary struct {
	ConversationID string `json:"conversation_id"`
	UserQuery      string `json:"user_query"`
	CreatedAt      string `json:"created_at"`
}

// ConversationDetail is the backend's full record of a finished research run
type ConversationDetail struct {
	ConversationID string `json:"conversation_id"`
	UserQuery      string `json:"user_query"`
	ReportContent  string `json:"report_content"`
	FindingsCount  int    `json:"findings_count"`
	CreatedAt      string `json:"created_at"`
}
