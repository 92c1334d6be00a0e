package service

import (
	"context"
	"strings"
	"time"

	"GroupChatAI/logger"
	"GroupChatAI/module/chat/model"
	"GroupChatAI/service/storage"
	"GroupChatAI/tools/errs"

	usersrv "GroupChatAI/module/user/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const invitationTTL = 7 * 24 * time.Hour

// CreateInvitation records a one-time invite for the email address and
// delivers it twice over: an email always, and an in-app notification
// when the address already belongs to an account.
func (s *Service) CreateInvitation(ctx context.Context, groupID, invitedByID int64, email string) (model.GroupInvitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return model.GroupInvitation{}, errs.ErrArgs.WithDetail("email is required")
	}

	ok, err := s.IsMember(ctx, groupID, invitedByID)
	if err != nil {
		return model.GroupInvitation{}, err
	}
	if !ok {
		return model.GroupInvitation{}, errs.ErrNotGroupMember
	}

	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return model.GroupInvitation{}, err
	}
	inviter, err := usersrv.GetByID(ctx, invitedByID)
	if err != nil {
		return model.GroupInvitation{}, err
	}

	inv := model.GroupInvitation{
		Email:          email,
		InvitationCode: uuid.NewString(),
		ExpiresAt:      time.Now().Add(invitationTTL),
		GroupID:        groupID,
		InvitedByID:    invitedByID,
	}
	err = storage.PG().QueryRow(ctx,
		`INSERT INTO group_invitations (email, invitation_code, expires_at, group_id, invited_by_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		inv.Email, inv.InvitationCode, inv.ExpiresAt, inv.GroupID, inv.InvitedByID,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return model.GroupInvitation{}, errors.Wrap(err, "insert invitation")
	}

	invitee, err := usersrv.GetByEmail(ctx, email)
	userExists := err == nil

	if userExists && s.Notify != nil {
		if _, nerr := s.Notify.GroupInvitation(ctx, invitee.ID, g.Name, inviter.Username, inv.ID); nerr != nil {
			logger.Warnf("[chat] invitation %d: notify user %d: %v", inv.ID, invitee.ID, nerr)
		}
	}
	if s.Mail != nil {
		if merr := s.Mail.SendGroupInvitation(email, g.Name, inviter.Username, inv.InvitationCode, userExists); merr != nil {
			logger.Warnf("[chat] invitation %d: mail %s: %v", inv.ID, email, merr)
		}
	}
	return inv, nil
}

// AcceptInvitation redeems the code for the calling user. The code is
// single-use, expires, and is bound to the invited email address.
func (s *Service) AcceptInvitation(ctx context.Context, userID int64, code string) (model.Group, error) {
	u, err := usersrv.GetByID(ctx, userID)
	if err != nil {
		return model.Group{}, err
	}

	tx, err := storage.PG().Begin(ctx)
	if err != nil {
		return model.Group{}, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inv model.GroupInvitation
	err = tx.QueryRow(ctx,
		`SELECT id, email, invitation_code, is_used, expires_at, group_id, invited_by_id
		 FROM group_invitations WHERE invitation_code = $1 FOR UPDATE`, code,
	).Scan(&inv.ID, &inv.Email, &inv.InvitationCode, &inv.IsUsed, &inv.ExpiresAt,
		&inv.GroupID, &inv.InvitedByID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Group{}, errs.ErrInviteNotFound
	}
	if err != nil {
		return model.Group{}, errors.Wrap(err, "select invitation")
	}

	if inv.IsUsed {
		return model.Group{}, errs.ErrInviteUsed
	}
	if time.Now().After(inv.ExpiresAt) {
		return model.Group{}, errs.ErrInviteExpired
	}
	if !strings.EqualFold(inv.Email, u.Email) {
		return model.Group{}, errs.ErrInviteNotFound.WithDetail("invitation was sent to a different email")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE group_invitations SET is_used = TRUE, used_by_id = $1, used_at = now()
		 WHERE id = $2`, userID, inv.ID); err != nil {
		return model.Group{}, errors.Wrap(err, "mark used")
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO group_members (user_id, group_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userID, inv.GroupID); err != nil {
		return model.Group{}, errors.Wrap(err, "insert membership")
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Group{}, errors.Wrap(err, "commit")
	}
	logger.Infof("[chat] invitation %d accepted by user %d", inv.ID, userID)

	return s.GetGroup(ctx, inv.GroupID)
}
