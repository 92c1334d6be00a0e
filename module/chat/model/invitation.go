package model

import "time"

// GroupInvitation is a one-time emailed invite with an expiry.
type GroupInvitation struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	InvitationCode string     `json:"invitation_code"`
	IsUsed         bool       `json:"is_used"`
	ExpiresAt      time.Time  `json:"expires_at"`
	GroupID        int64      `json:"group_id"`
	InvitedByID    int64      `json:"invited_by_id"`
	UsedByID       *int64     `json:"used_by_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
}
