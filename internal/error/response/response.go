package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/error/code"
	Logger "github.com/flowerfire37/ihome/pkg/logger"
)

// Response 定义统一的响应格式
type Response struct {
	Errno  string      `json:"errno"`
	Errmsg string      `json:"errmsg"`
	Data   interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Errno:  code.OK,
		Errmsg: code.GetMessage(code.OK),
		Data:   data,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, errno string, data interface{}) {
	c.JSON(code.GetStatus(errno), Response{
		Errno:  errno,
		Errmsg: code.GetMessage(errno),
		Data:   data,
	})
}

// FailWithMessage 失败响应（自定义消息）
func FailWithMessage(c *gin.Context, errno string, message string, data interface{}) {
	c.JSON(code.GetStatus(errno), Response{
		Errno:  errno,
		Errmsg: message,
		Data:   data,
	})
}

// AbortWithError 中间件中使用，终止后续处理
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// Error 将业务错误映射为错误码，存储层和未知错误只返回通用消息
func Error(c *gin.Context, err error) {
	errno := Errno(err)

	var be *bizerr.Error
	if errors.As(err, &be) && be.Kind != bizerr.KindStore && be.Kind != bizerr.KindUnknown {
		FailWithMessage(c, errno, be.Message, nil)
		return
	}

	Logger.Error("请求 %s %s 失败: %v", c.Request.Method, c.Request.URL.Path, err)
	Fail(c, errno, nil)
}

// Errno 业务错误类别对应的错误码
func Errno(err error) string {
	if errors.Is(err, bizerr.ErrLoginLimited) {
		return code.IPERR
	}
	switch bizerr.KindOf(err) {
	case bizerr.KindValidation:
		return code.PARAMERR
	case bizerr.KindUnauthenticated:
		return code.SESSIONERR
	case bizerr.KindForbidden:
		return code.ROLEERR
	case bizerr.KindConflict:
		return code.DATAEXIST
	case bizerr.KindState:
		return code.DATAERR
	case bizerr.KindNotFound:
		return code.NODATA
	case bizerr.KindStore:
		return code.DBERR
	case bizerr.KindCodeExpired:
		return code.NODATA
	case bizerr.KindCodeMismatch:
		return code.DATAERR
	case bizerr.KindCredential:
		return code.LOGINERR
	case bizerr.KindLimited:
		return code.REQERR
	case bizerr.KindIO:
		return code.IOERR
	case bizerr.KindThirdParty:
		return code.THIRDERR
	}
	return code.SERVERERR
}

// ParamError 参数错误响应
func ParamError(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.PARAMERR)
	}
	FailWithMessage(c, code.PARAMERR, message, nil)
}

// ServerError 服务器错误响应
func ServerError(c *gin.Context) {
	Fail(c, code.SERVERERR, nil)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.NODATA)
	}
	FailWithMessage(c, code.NODATA, message, nil)
}

// Unauthorized 未登录响应
func Unauthorized(c *gin.Context) {
	Fail(c, code.SESSIONERR, nil)
}
