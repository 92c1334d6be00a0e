package security

import (
	"net/http"
	"strings"

	"GroupChatAI/tools/errs"
	security "GroupChatAI/tools/security"

	"github.com/gin-gonic/gin"
)

// Context key the downstream handlers read the caller identity from.
const CtxUserIDKey = "authUserID"

type Options struct {
	JWT security.Options

	// Header carrying the raw token (default "Authorization", with the
	// Bearer prefix honored).
	HeaderToken               string
	EnableAuthorizationBearer bool
}

func DefaultOptions(jwt security.Options) *Options {
	return &Options{
		JWT:                       jwt,
		HeaderToken:               "Authorization",
		EnableAuthorizationBearer: true,
	}
}

// Middleware verifies the bearer token and injects the resolved user id.
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
		if opts.EnableAuthorizationBearer {
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[len("bearer "):])
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		uid, err := security.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired.WithDetail(err.Error()))
			return
		}

		c.Set(CtxUserIDKey, uid)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *gin.Context) int64 {
	v, _ := c.Get(CtxUserIDKey)
	uid, _ := v.(int64)
	return uid
}
