package notify

import (
	"net/http"
	"strconv"

	midsec "GroupChatAI/middleware/security"
	notifysrv "GroupChatAI/module/notify/service"
	"GroupChatAI/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler exposes the notification API over the injected service.
type Handler struct {
	Svc *notifysrv.Service
}

func NewHandler(svc *notifysrv.Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) List(c *gin.Context) {
	uid := midsec.UserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	unreadOnly := c.Query("unread_only") == "true"

	items, err := h.Svc.List(c.Request.Context(), uid, limit, offset, unreadOnly)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

func (h *Handler) Counts(c *gin.Context) {
	uid := midsec.UserID(c)
	counts, err := h.Svc.Counts(c.Request.Context(), uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) MarkRead(c *gin.Context) {
	uid := midsec.UserID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("bad notification id"))
		return
	}
	if err := h.Svc.MarkRead(c.Request.Context(), id, uid); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	uid := midsec.UserID(c)
	n, err := h.Svc.MarkAllRead(c.Request.Context(), uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

func writeErr(c *gin.Context, err error) {
	if errs.ErrNotFound.Is(err) {
		c.JSON(http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail(err.Error()))
}
