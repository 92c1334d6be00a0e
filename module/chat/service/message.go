package service

import (
	"context"
	"time"

	"GroupChatAI/logger"
	"GroupChatAI/module/chat/model"
	"GroupChatAI/service/chat"
	"GroupChatAI/service/storage"
	"GroupChatAI/tools/errs"

	creditsrv "GroupChatAI/module/credit/service"

	"github.com/pkg/errors"
)

type SendMessageParams struct {
	GroupID   int64
	UserID    int64
	Content   string
	ReplyToID *int64
}

// SendMessage commits the message and fans it out to the group's live
// subscribers, excluding the author (they get the HTTP response). When
// the group has AI enabled and the message addresses it, the model
// reply runs in the background so the send path stays fast.
func (s *Service) SendMessage(ctx context.Context, in SendMessageParams) (model.Message, error) {
	ok, err := s.IsMember(ctx, in.GroupID, in.UserID)
	if err != nil {
		return model.Message{}, err
	}
	if !ok {
		return model.Message{}, errs.ErrNotGroupMember
	}

	m, err := insertMessage(ctx, model.Message{
		Content:     in.Content,
		MessageType: model.MessageTypeText,
		UserID:      in.UserID,
		GroupID:     in.GroupID,
		ReplyToID:   in.ReplyToID,
	})
	if err != nil {
		return model.Message{}, err
	}

	s.broadcast(m, in.UserID)

	if wantsAIReply(in.Content) {
		go s.aiReply(m)
	}
	return m, nil
}

// ListMessages returns the group's history, oldest first within the
// requested page. The caller must be a member.
func (s *Service) ListMessages(ctx context.Context, groupID, userID int64, limit, offset int) ([]model.Message, error) {
	ok, err := s.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotGroupMember
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := storage.PG().Query(ctx,
		`SELECT id, content, message_type, is_ai_message, COALESCE(ai_model_used,''),
		        COALESCE(credits_used,0), user_id, group_id, reply_to_id, created_at
		 FROM (SELECT * FROM messages WHERE group_id = $1
		       ORDER BY created_at DESC LIMIT $2 OFFSET $3) page
		 ORDER BY created_at`, groupID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select messages")
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Content, &m.MessageType, &m.IsAIMessage, &m.AIModelUsed,
			&m.CreditsUsed, &m.UserID, &m.GroupID, &m.ReplyToID, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func insertMessage(ctx context.Context, m model.Message) (model.Message, error) {
	err := storage.PG().QueryRow(ctx,
		`INSERT INTO messages (content, message_type, is_ai_message, ai_model_used, credits_used, user_id, group_id, reply_to_id)
		 VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7, $8)
		 RETURNING id, created_at`,
		m.Content, m.MessageType, m.IsAIMessage, m.AIModelUsed, m.CreditsUsed,
		m.UserID, m.GroupID, m.ReplyToID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return model.Message{}, errors.Wrap(err, "insert message")
	}
	return m, nil
}

// broadcast pushes the committed message to the group. excludeUser is 0
// for AI replies, which everyone including the prompter should see.
func (s *Service) broadcast(m model.Message, excludeUser int64) {
	if s.Disp == nil {
		return
	}
	s.Disp.SendToGroup(m.GroupID, chat.NewMessageFrame{
		Type:        chat.TypeNewMessage,
		ID:          m.ID,
		Content:     m.Content,
		MessageType: m.MessageType,
		UserID:      m.UserID,
		GroupID:     m.GroupID,
		CreatedAt:   m.CreatedAt,
		IsAIMessage: m.IsAIMessage,
		AIModelUsed: m.AIModelUsed,
		CreditsUsed: m.CreditsUsed,
	}, excludeUser)
}

// wantsAIReply checks the @ai prefix without caring about case.
func wantsAIReply(content string) bool {
	if len(content) < 3 {
		return false
	}
	p := content[:3]
	return p == "@ai" || p == "@AI" || p == "@Ai" || p == "@aI"
}

// aiReply charges the prompter, asks the model, and posts the answer as
// its own message. A failed model call refunds the charge. Runs off the
// request path with its own deadline.
func (s *Service) aiReply(prompt model.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	g, err := s.GetGroup(ctx, prompt.GroupID)
	if err != nil {
		logger.Errorf("[chat] ai reply: load group %d: %v", prompt.GroupID, err)
		return
	}
	if !g.AIEnabled || s.AI == nil {
		return
	}
	aiModel := g.AIModel
	if aiModel == "" {
		aiModel = "openai-gpt3.5"
	}

	cost := s.Rates.Rate(aiModel)
	txID, err := creditsrv.Deduct(ctx, prompt.UserID, cost, aiModel, "AI response in '"+g.Name+"'")
	if err != nil {
		logger.Warnf("[chat] ai reply: deduct user=%d: %v", prompt.UserID, err)
		return
	}

	answer, err := s.AI.Complete(ctx, aiModel, prompt.Content)
	if err != nil {
		logger.Errorf("[chat] ai reply: model call: %v", err)
		if rerr := creditsrv.Refund(ctx, prompt.UserID, cost, aiModel, "refund: AI call failed"); rerr != nil {
			logger.Errorf("[chat] ai reply: refund user=%d: %v", prompt.UserID, rerr)
		}
		return
	}

	reply, err := insertMessage(ctx, model.Message{
		Content:     answer,
		MessageType: model.MessageTypeAIResponse,
		IsAIMessage: true,
		AIModelUsed: aiModel,
		CreditsUsed: cost,
		UserID:      prompt.UserID,
		GroupID:     prompt.GroupID,
		ReplyToID:   &prompt.ID,
	})
	if err != nil {
		logger.Errorf("[chat] ai reply: persist: %v", err)
		if rerr := creditsrv.Refund(ctx, prompt.UserID, cost, aiModel, "refund: AI call failed"); rerr != nil {
			logger.Errorf("[chat] ai reply: refund user=%d: %v", prompt.UserID, rerr)
		}
		return
	}

	if err := creditsrv.AttachMessage(ctx, txID, reply.ID); err != nil {
		logger.Warnf("[chat] ai reply: attach tx=%d msg=%d: %v", txID, reply.ID, err)
	}
	s.broadcast(reply, 0)
}
