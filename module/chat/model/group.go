package model

import "time"

// Group is a chat room's durable metadata. Membership lives in its own
// table; live subscriptions live in the gateway and are not authoritative.
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	IsPrivate   bool      `json:"is_private"`
	InviteCode  string    `json:"invite_code,omitempty"`
	MaxMembers  int       `json:"max_members"`
	AIEnabled   bool      `json:"ai_enabled"`
	AIModel     string    `json:"ai_model,omitempty"`
	CreatorID   int64     `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	MemberCount int `json:"member_count,omitempty"`
}

type GroupMember struct {
	UserID   int64     `json:"user_id"`
	GroupID  int64     `json:"group_id"`
	JoinedAt time.Time `json:"joined_at"`
	IsAdmin  bool      `json:"is_admin"`
}
