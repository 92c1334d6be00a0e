package service

import (
	"context"
	"strings"

	"GroupChatAI/module/chat/model"
	"GroupChatAI/service/storage"
	"GroupChatAI/tools/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type CreateGroupParams struct {
	Name        string
	Description string
	IsPrivate   bool
	MaxMembers  int
	AIEnabled   bool
	AIModel     string
	CreatorID   int64
}

// CreateGroup inserts the group and its creator membership in one
// transaction. Every group gets a shareable invite code.
func (s *Service) CreateGroup(ctx context.Context, in CreateGroupParams) (model.Group, error) {
	if in.MaxMembers <= 0 {
		in.MaxMembers = 100
	}
	code := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	tx, err := storage.PG().Begin(ctx)
	if err != nil {
		return model.Group{}, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var g model.Group
	err = tx.QueryRow(ctx,
		`INSERT INTO chat_groups (name, description, is_private, invite_code, max_members, ai_enabled, ai_model, creator_id)
		 VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, NULLIF($7,''), $8)
		 RETURNING id, name, COALESCE(description,''), COALESCE(avatar_url,''), is_private,
		           COALESCE(invite_code,''), max_members, ai_enabled, COALESCE(ai_model,''),
		           creator_id, created_at, updated_at`,
		in.Name, in.Description, in.IsPrivate, code, in.MaxMembers, in.AIEnabled, in.AIModel, in.CreatorID,
	).Scan(&g.ID, &g.Name, &g.Description, &g.AvatarURL, &g.IsPrivate, &g.InviteCode,
		&g.MaxMembers, &g.AIEnabled, &g.AIModel, &g.CreatorID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return model.Group{}, errors.Wrap(err, "insert group")
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO group_members (user_id, group_id, is_admin) VALUES ($1, $2, TRUE)`,
		in.CreatorID, g.ID); err != nil {
		return model.Group{}, errors.Wrap(err, "insert creator membership")
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Group{}, errors.Wrap(err, "commit")
	}
	g.MemberCount = 1
	return g, nil
}

const groupColumns = `g.id, g.name, COALESCE(g.description,''), COALESCE(g.avatar_url,''), g.is_private,
	COALESCE(g.invite_code,''), g.max_members, g.ai_enabled, COALESCE(g.ai_model,''),
	g.creator_id, g.created_at, g.updated_at`

func scanGroup(row pgx.Row) (model.Group, error) {
	var g model.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.AvatarURL, &g.IsPrivate, &g.InviteCode,
		&g.MaxMembers, &g.AIEnabled, &g.AIModel, &g.CreatorID, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Group{}, errs.ErrGroupNotFound
	}
	if err != nil {
		return model.Group{}, errors.Wrap(err, "scan group")
	}
	return g, nil
}

func (s *Service) GetGroup(ctx context.Context, groupID int64) (model.Group, error) {
	return scanGroup(storage.PG().QueryRow(ctx,
		`SELECT `+groupColumns+` FROM chat_groups g WHERE g.id = $1`, groupID))
}

// ListUserGroups returns every group the user belongs to, with member
// counts.
func (s *Service) ListUserGroups(ctx context.Context, userID int64) ([]model.Group, error) {
	rows, err := storage.PG().Query(ctx,
		`SELECT `+groupColumns+`,
		        (SELECT COUNT(*) FROM group_members m2 WHERE m2.group_id = g.id)
		 FROM chat_groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = $1
		 ORDER BY g.created_at`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "select user groups")
	}
	defer rows.Close()

	var out []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.AvatarURL, &g.IsPrivate,
			&g.InviteCode, &g.MaxMembers, &g.AIEnabled, &g.AIModel,
			&g.CreatorID, &g.CreatedAt, &g.UpdatedAt, &g.MemberCount); err != nil {
			return nil, errors.Wrap(err, "scan group")
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// IsMember is the authorization check every durable-write path runs
// before it broadcasts anything.
func (s *Service) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var ok bool
	err := storage.PG().QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID).Scan(&ok)
	return ok, errors.Wrap(err, "check membership")
}

// JoinByInviteCode adds the user to the group behind the shared code.
func (s *Service) JoinByInviteCode(ctx context.Context, userID int64, code string) (model.Group, error) {
	g, err := scanGroup(storage.PG().QueryRow(ctx,
		`SELECT `+groupColumns+` FROM chat_groups g WHERE g.invite_code = $1`, code))
	if err != nil {
		return model.Group{}, err
	}
	if err := s.addMember(ctx, g.ID, userID, g.MaxMembers); err != nil {
		return model.Group{}, err
	}
	return g, nil
}

// addMember inserts the membership while holding the group row, so the
// max_members cap cannot be raced past.
func (s *Service) addMember(ctx context.Context, groupID, userID int64, maxMembers int) error {
	tx, err := storage.PG().Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM chat_groups WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		return errors.Wrap(err, "lock group")
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = $1`, groupID).Scan(&count); err != nil {
		return errors.Wrap(err, "count members")
	}
	if maxMembers > 0 && count >= maxMembers {
		return errs.ErrGroupFull
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO group_members (user_id, group_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userID, groupID); err != nil {
		return errors.Wrap(err, "insert membership")
	}
	return errors.Wrap(tx.Commit(ctx), "commit")
}
