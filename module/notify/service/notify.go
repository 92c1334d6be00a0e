package service

import (
	"context"
	"encoding/json"

	"GroupChatAI/logger"
	"GroupChatAI/module/notify/model"
	"GroupChatAI/service/chat"
	"GroupChatAI/service/storage"
	"GroupChatAI/tools/errs"

	"github.com/pkg/errors"
)

// Service persists notifications and pushes them to the target user's live
// connections. The dispatcher is injected; the push is best-effort and an
// offline user just reads the row later.
type Service struct {
	Disp *chat.Dispatcher
}

func New(disp *chat.Dispatcher) *Service {
	return &Service{Disp: disp}
}

type CreateParams struct {
	Type      string
	Title     string
	Message   string
	Data      map[string]any // optional structured payload
	UserID    int64
	RelatedID *int64
}

// Create commits the notification, then announces it.
func (s *Service) Create(ctx context.Context, in CreateParams) (model.Notification, error) {
	var dataJSON *string
	if in.Data != nil {
		b, err := json.Marshal(in.Data)
		if err != nil {
			return model.Notification{}, errors.Wrap(err, "marshal data")
		}
		str := string(b)
		dataJSON = &str
	}

	var n model.Notification
	err := storage.PG().QueryRow(ctx,
		`INSERT INTO notifications (type, title, message, data, user_id, related_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, type, title, message, COALESCE(data,''), is_read, user_id, related_id, created_at`,
		in.Type, in.Title, in.Message, dataJSON, in.UserID, in.RelatedID,
	).Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Data, &n.IsRead, &n.UserID, &n.RelatedID, &n.CreatedAt)
	if err != nil {
		return model.Notification{}, errors.Wrap(err, "insert notification")
	}
	logger.Infof("[notify] created id=%d user=%d type=%s", n.ID, n.UserID, n.Type)

	if s.Disp != nil {
		frame := chat.NotificationFrame{
			Type:      chat.TypeNotification,
			ID:        n.ID,
			Kind:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		}
		if n.Data != "" {
			frame.Data = json.RawMessage(n.Data)
		}
		s.Disp.SendToUser(n.UserID, frame)
	}
	return n, nil
}

// GroupInvitation is the canned invite notification.
func (s *Service) GroupInvitation(ctx context.Context, userID int64, groupName, invitedByName string, invitationID int64) (model.Notification, error) {
	return s.Create(ctx, CreateParams{
		Type:    model.KindGroupInvitation,
		Title:   "Group Invitation",
		Message: invitedByName + " invited you to join '" + groupName + "'",
		Data: map[string]any{
			"invitation_id": invitationID,
			"group_name":    groupName,
			"invited_by":    invitedByName,
			"action":        "join_group",
		},
		UserID:    userID,
		RelatedID: &invitationID,
	})
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := `SELECT id, type, title, message, COALESCE(data,''), is_read, user_id, related_id, created_at, read_at
	      FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND is_read = FALSE`
	}
	q += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := storage.PG().Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select notifications")
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Data, &n.IsRead,
			&n.UserID, &n.RelatedID, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, errors.Wrap(err, "scan notification")
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Service) Counts(ctx context.Context, userID int64) (model.Counts, error) {
	var c model.Counts
	err := storage.PG().QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_read = FALSE)
		 FROM notifications WHERE user_id = $1`, userID).Scan(&c.Total, &c.Unread)
	if err != nil {
		return model.Counts{}, errors.Wrap(err, "count notifications")
	}
	return c, nil
}

// MarkRead marks one of the user's notifications read.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID int64) error {
	ct, err := storage.PG().Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now()
		 WHERE id = $1 AND user_id = $2 AND is_read = FALSE`,
		notificationID, userID)
	if err != nil {
		return errors.Wrap(err, "mark read")
	}
	if ct.RowsAffected() == 0 {
		// already read or not theirs; distinguish for the API
		var exists bool
		if err := storage.PG().QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`,
			notificationID, userID).Scan(&exists); err != nil {
			return errors.Wrap(err, "check notification")
		}
		if !exists {
			return errs.ErrNotFound
		}
	}
	return nil
}

// MarkAllRead marks everything read and reports how many rows changed.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	ct, err := storage.PG().Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now()
		 WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "mark all read")
	}
	return ct.RowsAffected(), nil
}
