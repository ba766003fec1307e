package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CSRF 双重提交: cookie csrf_token 与请求头 X-CSRFToken 一致
const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRFToken"
)

// CSRFProtect 校验非安全方法的请求，使用 Authorization 头的请求不依赖cookie，跳过校验
func CSRFProtect() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		cookie, err := c.Cookie(CSRFCookieName)
		header := c.GetHeader(CSRFHeaderName)
		if err != nil || cookie == "" || subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			response.FailWithMessage(c, code.REQERR, "CSRF校验失败", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IssueCSRFCookie 没有 csrf_token 时生成一个，页面加载时调用
func IssueCSRFCookie(c *gin.Context) string {
	if token, err := c.Cookie(CSRFCookieName); err == nil && token != "" {
		return token
	}
	token := uuid.New().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CSRFCookieName, token, 0, "/", "", false, false)
	return token
}
