package controllers

import (
	"net/http"

	"github.com/flowerfire37/ihome/internal/app/middleware"
	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"
	"github.com/flowerfire37/ihome/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

// InterfaceJWTController 定义注册登录控制器接口
type InterfaceJWTController interface {
	Register()
	Login()
	GetSession()
	Logout()
}

// JWTController 处理注册、登录和会话
type JWTController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewJWTController 创建一个新的认证控制器
func NewJWTController(ctx *gin.Context, container *container.ServiceContainer) *JWTController {
	return &JWTController{
		Ctx:       ctx,
		Container: container,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Mobile    string `json:"mobile" binding:"required" example:"13800138000"`
	SMSCode   string `json:"sms_code" binding:"required" example:"123456"`
	Password  string `json:"password" binding:"required" example:"secret123"`
	Password2 string `json:"password2" binding:"required" example:"secret123"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Mobile   string `json:"mobile" binding:"required" example:"13800138000"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// LoginData 登录成功后返回的数据
type LoginData struct {
	Token  string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID uint   `json:"user_id" example:"1"`
	Name   string `json:"name" example:"13800138000"`
}

// HandleJWTFunc 返回一个处理认证请求的Gin处理函数
func HandleJWTFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewJWTController(ctx, container)

		switch method {
		case "register":
			controller.Register()
		case "login":
			controller.Login()
		case "getSession":
			controller.GetSession()
		case "logout":
			controller.Logout()
		default:
			response.FailWithMessage(ctx, code.PARAMERR, "无效的方法", nil)
		}
	}
}

// Register 注册
// @Summary      用户注册
// @Description  校验短信验证码后注册，成功后直接登录
// @Tags         Passport
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "注册信息"
// @Success      200  {object}  LoginData
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /users [post]
func (j *JWTController) Register() {
	var req RegisterRequest
	if err := j.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(j.Ctx, "参数不完整")
		return
	}

	userService := j.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.Register(j.Ctx.Request.Context(), req.Mobile, req.SMSCode, req.Password, req.Password2)
	if err != nil {
		response.Error(j.Ctx, err)
		return
	}
	j.startSession(user)
}

// Login 登录
// @Summary      用户登录
// @Description  同一IP 10分钟内最多失败5次
// @Tags         Passport
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "登录信息"
// @Success      200  {object}  LoginData
// @Failure      401  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Router       /sessions [post]
func (j *JWTController) Login() {
	var req LoginRequest
	if err := j.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(j.Ctx, "参数不完整")
		return
	}

	userService := j.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.Login(j.Ctx.Request.Context(), req.Mobile, req.Password, j.Ctx.ClientIP())
	if err != nil {
		response.Error(j.Ctx, err)
		return
	}
	j.startSession(user)
}

// startSession 创建会话，令牌同时写入响应和cookie
func (j *JWTController) startSession(user *models.User) {
	jwtService := j.Container.GetService("jwt").(services.InterfaceJWTService)
	token, session, err := jwtService.CreateSession(j.Ctx.Request.Context(), user)
	if err != nil {
		response.Error(j.Ctx, err)
		return
	}

	cfg := j.Container.GetService("config").(*config.Config)
	j.Ctx.SetSameSite(http.SameSiteLaxMode)
	j.Ctx.SetCookie(middleware.TokenCookieName, token, int(cfg.SessionTTL.Seconds()), "/", "", false, true)

	response.Success(j.Ctx, LoginData{
		Token:  token,
		UserID: session.UserID,
		Name:   session.Name,
	})
}

// GetSession 查询登录状态
// @Summary      登录状态
// @Tags         Passport
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /session [get]
func (j *JWTController) GetSession() {
	session := middleware.CurrentSession(j.Ctx)
	if session == nil {
		response.Fail(j.Ctx, code.SESSIONERR, nil)
		return
	}
	response.Success(j.Ctx, gin.H{
		"user_id": session.UserID,
		"name":    session.Name,
	})
}

// Logout 退出登录
// @Summary      退出登录
// @Tags         Passport
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /session [delete]
// @Security     BearerAuth
func (j *JWTController) Logout() {
	session := middleware.CurrentSession(j.Ctx)
	if session == nil {
		response.Fail(j.Ctx, code.SESSIONERR, nil)
		return
	}

	jwtService := j.Container.GetService("jwt").(services.InterfaceJWTService)
	if err := jwtService.DestroySession(j.Ctx.Request.Context(), session.SessionID); err != nil {
		response.Error(j.Ctx, err)
		return
	}
	j.Ctx.SetCookie(middleware.TokenCookieName, "", -1, "/", "", false, true)
	response.Success(j.Ctx, nil)
}
