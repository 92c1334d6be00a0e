package model

import "time"

// Notification kinds.
const (
	KindGroupInvitation = "group_invitation"
	KindSystem          = "system"
)

type Notification struct {
	ID        int64      `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Data      string     `json:"data,omitempty"` // JSON blob, shape depends on Type
	IsRead    bool       `json:"is_read"`
	UserID    int64      `json:"user_id"`
	RelatedID *int64     `json:"related_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// Counts is the badge payload.
type Counts struct {
	Total  int64 `json:"total_count"`
	Unread int64 `json:"unread_count"`
}
