package model

import "time"

// Message kinds.
const (
	MessageTypeText       = "text"
	MessageTypeAIResponse = "ai_response"
)

type Message struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	IsAIMessage bool      `json:"is_ai_message"`
	AIModelUsed string    `json:"ai_model_used,omitempty"`
	CreditsUsed float64   `json:"credits_used,omitempty"`
	UserID      int64     `json:"user_id"`
	GroupID     int64     `json:"group_id"`
	ReplyToID   *int64    `json:"reply_to_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
