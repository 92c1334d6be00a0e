package chat

import (
	"net/http"
	"strconv"

	midsec "GroupChatAI/middleware/security"
	"GroupChatAI/module/chat/service"
	"GroupChatAI/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler exposes the group, message and invitation endpoints over the
// injected service.
type Handler struct {
	Svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Svc: svc}
}

type createGroupReq struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
	MaxMembers  int    `json:"max_members"`
	AIEnabled   bool   `json:"ai_enabled"`
	AIModel     string `json:"ai_model"`
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	g, err := h.Svc.CreateGroup(c.Request.Context(), service.CreateGroupParams{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		MaxMembers:  req.MaxMembers,
		AIEnabled:   req.AIEnabled,
		AIModel:     req.AIModel,
		CreatorID:   midsec.UserID(c),
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g})
}

func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.Svc.ListUserGroups(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *Handler) GetGroup(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	uid := midsec.UserID(c)
	member, err := h.Svc.IsMember(c.Request.Context(), groupID, uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	if !member {
		writeErr(c, errs.ErrNotGroupMember)
		return
	}
	g, err := h.Svc.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g})
}

type joinGroupReq struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

// JoinGroup redeems a group's shared invite code.
func (h *Handler) JoinGroup(c *gin.Context) {
	var req joinGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	g, err := h.Svc.JoinByInviteCode(c.Request.Context(), midsec.UserID(c), req.InviteCode)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g})
}

type sendMessageReq struct {
	Content   string `json:"content" binding:"required,min=1"`
	ReplyToID *int64 `json:"reply_to_id"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	m, err := h.Svc.SendMessage(c.Request.Context(), service.SendMessageParams{
		GroupID:   groupID,
		UserID:    midsec.UserID(c),
		Content:   req.Content,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": m})
}

func (h *Handler) ListMessages(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	msgs, err := h.Svc.ListMessages(c.Request.Context(), groupID, midsec.UserID(c), limit, offset)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type inviteReq struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) CreateInvitation(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req inviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	inv, err := h.Svc.CreateInvitation(c.Request.Context(), groupID, midsec.UserID(c), req.Email)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitation": inv})
}

type acceptInviteReq struct {
	InvitationCode string `json:"invitation_code" binding:"required"`
}

func (h *Handler) AcceptInvitation(c *gin.Context) {
	var req acceptInviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	g, err := h.Svc.AcceptInvitation(c.Request.Context(), midsec.UserID(c), req.InvitationCode)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("invalid "+name))
		return 0, false
	}
	return id, true
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errs.ErrArgs.Is(err):
		c.JSON(http.StatusBadRequest, err)
	case errs.ErrGroupNotFound.Is(err), errs.ErrInviteNotFound.Is(err), errs.ErrUserNotFound.Is(err):
		c.JSON(http.StatusNotFound, err)
	case errs.ErrNotGroupMember.Is(err):
		c.JSON(http.StatusForbidden, err)
	case errs.ErrGroupFull.Is(err), errs.ErrInviteUsed.Is(err), errs.ErrInviteExpired.Is(err):
		c.JSON(http.StatusConflict, err)
	case errs.ErrInsufficientCredits.Is(err):
		c.JSON(http.StatusPaymentRequired, err)
	default:
		c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail(err.Error()))
	}
}
