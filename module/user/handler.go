package user

import (
	"net/http"
	"strconv"

	"GroupChatAI/global"
	midsec "GroupChatAI/middleware/security"
	usersrv "GroupChatAI/module/user/service"
	"GroupChatAI/service/storage"
	"GroupChatAI/tools/errs"

	"github.com/gin-gonic/gin"
)

type registerReq struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=100"`
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"required,min=8"`
}

// HandlerRegister creates an account and returns it with a fresh token.
func HandlerRegister(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	u, err := usersrv.Register(c.Request.Context(), usersrv.RegisterParams{
		Email:    req.Email,
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
		Credits:  global.App.DefaultUserCredits,
	})
	if err != nil {
		writeErr(c, err)
		return
	}

	_, token, exp, err := usersrv.Login(c.Request.Context(), global.JWTOptions(), req.Email, req.Password)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": token, "expire_at": exp})
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func HandlerLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	u, token, exp, err := usersrv.Login(c.Request.Context(), global.JWTOptions(), req.Email, req.Password)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": token, "expire_at": exp})
}

// HandlerMe returns the caller's profile.
func HandlerMe(c *gin.Context) {
	uid := midsec.UserID(c)
	u, err := usersrv.GetByID(c.Request.Context(), uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// HandlerPresence answers whether a user is online on any gateway node,
// backed by the shared presence keys.
func HandlerPresence(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("invalid user id"))
		return
	}
	node, online, err := storage.PresenceLookup(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	resp := gin.H{"user_id": id, "online": online}
	if online {
		resp["node"] = node
	}
	c.JSON(http.StatusOK, resp)
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errs.ErrUserExists.Is(err):
		c.JSON(http.StatusConflict, err)
	case errs.ErrBadCredentials.Is(err):
		c.JSON(http.StatusUnauthorized, err)
	case errs.ErrUserNotFound.Is(err):
		c.JSON(http.StatusNotFound, err)
	default:
		c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail(err.Error()))
	}
}
