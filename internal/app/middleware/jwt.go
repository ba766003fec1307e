package middleware

import (
	"strings"

	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
)

// TokenCookieName 浏览器登录后保存令牌的cookie
const TokenCookieName = "ihome_token"

// 上下文中的登录信息
const (
	ContextUserID  = "user_id"
	ContextSession = "session"
)

// extractToken 优先使用 Authorization 头，其次是cookie
func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
			return authHeader[7:]
		}
		return authHeader
	}
	if token, err := c.Cookie(TokenCookieName); err == nil {
		return token
	}
	return ""
}

// loadSession 验证令牌并把会话写入上下文
func loadSession(c *gin.Context, jwtService services.InterfaceJWTService) error {
	session, err := jwtService.ValidateToken(c.Request.Context(), extractToken(c))
	if err != nil {
		return err
	}
	c.Set(ContextUserID, session.UserID)
	c.Set(ContextSession, session)
	return nil
}

// LoginRequired 要求已登录，否则返回 SESSIONERR
func LoginRequired(jwtService services.InterfaceJWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := loadSession(c, jwtService); err != nil {
			response.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// OptionalLogin 有有效令牌时写入会话，没有时继续处理
func OptionalLogin(jwtService services.InterfaceJWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = loadSession(c, jwtService)
		c.Next()
	}
}

// CurrentUserID 当前登录用户ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentSession 当前会话，未登录时为nil
func CurrentSession(c *gin.Context) *services.Session {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	session, _ := v.(*services.Session)
	return session
}
