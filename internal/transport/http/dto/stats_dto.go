package dto

import (
	"encoding/json"
	"time"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type EmojiCountResponse struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

type MessageReactionsResponse struct {
	ChatID    int64                `json:"chat_id"`
	MessageID int                  `json:"message_id"`
	Total     int                  `json:"total"`
	Counts    []EmojiCountResponse `json:"counts"`
}

type TopReactionItem struct {
	MessageID int                  `json:"message_id"`
	Total     int                  `json:"total"`
	Counts    []EmojiCountResponse `json:"counts"`
}

type TopReactionsResponse struct {
	ChatID int64             `json:"chat_id"`
	Limit  int               `json:"limit"`
	Items  []TopReactionItem `json:"items"`
}

type SubmissionStatsResponse struct {
	AwaitingChoice int `json:"awaiting_choice"`
	Queued         int `json:"queued"`
}

type AuditEntryResponse struct {
	ID           string          `json:"id"`
	SubmissionID string          `json:"submission_id"`
	ActorTGID    int64           `json:"actor_tg_id"`
	Action       string          `json:"action"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
}

type AuditListResponse struct {
	Limit int                  `json:"limit"`
	Items []AuditEntryResponse `json:"items"`
}
