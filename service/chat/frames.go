package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"GroupChatAI/tools/decode"
)

// Inbound control frame types.
const (
	TypeJoinGroup  = "join_group"
	TypeLeaveGroup = "leave_group"
	TypeTyping     = "typing"
	TypeStopTyping = "stop_typing"
)

// Outbound frame types.
const (
	TypeConnectionConfirmed = "connection_confirmed"
	TypeNewMessage          = "new_message"
	TypeUserTyping          = "user_typing"
	TypeUserStoppedTyping   = "user_stopped_typing"
	TypeNotification        = "notification"
)

// Control is the closed set of inbound frames, decoded exactly once at the
// boundary. Frames with an unrecognized type come back as Unknown so the
// read loop can skip them without dropping the connection.
type Control interface{ isControl() }

type JoinGroup struct {
	GroupID int64 `json:"group_id"`
}

type LeaveGroup struct {
	GroupID int64 `json:"group_id"`
}

type Typing struct {
	GroupID int64 `json:"group_id"`
}

type StopTyping struct {
	GroupID int64 `json:"group_id"`
}

type Unknown struct {
	Type string
}

func (JoinGroup) isControl()  {}
func (LeaveGroup) isControl() {}
func (Typing) isControl()     {}
func (StopTyping) isControl() {}
func (Unknown) isControl()    {}

// ParseControl decodes a raw inbound frame into its tagged variant.
func ParseControl(raw []byte) (Control, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	typ, _ := m["type"].(string)
	switch typ {
	case TypeJoinGroup:
		p, err := decode.Map[JoinGroup](m)
		if err != nil {
			return nil, err
		}
		return *p, nil
	case TypeLeaveGroup:
		p, err := decode.Map[LeaveGroup](m)
		if err != nil {
			return nil, err
		}
		return *p, nil
	case TypeTyping:
		p, err := decode.Map[Typing](m)
		if err != nil {
			return nil, err
		}
		return *p, nil
	case TypeStopTyping:
		p, err := decode.Map[StopTyping](m)
		if err != nil {
			return nil, err
		}
		return *p, nil
	default:
		return Unknown{Type: typ}, nil
	}
}

// ---- outbound frames ----

type ConnectionConfirmedFrame struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
}

func BuildConnectionConfirmed(userID int64) ConnectionConfirmedFrame {
	return ConnectionConfirmedFrame{Type: TypeConnectionConfirmed, UserID: userID}
}

type UserTypingFrame struct {
	Type    string `json:"type"`
	UserID  int64  `json:"user_id"`
	GroupID int64  `json:"group_id"`
}

func BuildUserTyping(userID, groupID int64) UserTypingFrame {
	return UserTypingFrame{Type: TypeUserTyping, UserID: userID, GroupID: groupID}
}

func BuildUserStoppedTyping(userID, groupID int64) UserTypingFrame {
	return UserTypingFrame{Type: TypeUserStoppedTyping, UserID: userID, GroupID: groupID}
}

// NewMessageFrame announces a message that is already committed to the
// store. Built by the durable-write paths after commit.
type NewMessageFrame struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	UserID      int64     `json:"user_id"`
	GroupID     int64     `json:"group_id"`
	CreatedAt   time.Time `json:"created_at"`
	IsAIMessage bool      `json:"is_ai_message,omitempty"`
	AIModelUsed string    `json:"ai_model_used,omitempty"`
	CreditsUsed float64   `json:"credits_used,omitempty"`
}

type NotificationFrame struct {
	Type      string          `json:"type"`
	ID        int64           `json:"id"`
	Kind      string          `json:"notification_type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
