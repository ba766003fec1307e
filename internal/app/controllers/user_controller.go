package controllers

import (
	"github.com/flowerfire37/ihome/internal/app/middleware"
	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"github.com/gin-gonic/gin"
)

// UserController 个人信息
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUserController 创建用户控制器
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
	}
}

// UpdateNameRequest 修改用户名
type UpdateNameRequest struct {
	Name string `json:"name" binding:"required" example:"tom"`
}

// AuthRequest 实名认证
type AuthRequest struct {
	RealName string `json:"real_name" binding:"required" example:"张三"`
	IDCard   string `json:"id_card" binding:"required" example:"110101199003071234"`
}

// HandleUserFunc 返回用户请求的处理函数
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "getProfile":
			controller.GetProfile()
		case "updateName":
			controller.UpdateName()
		case "uploadAvatar":
			controller.UploadAvatar()
		case "getAuth":
			controller.GetAuth()
		case "setAuth":
			controller.SetAuth()
		default:
			response.FailWithMessage(ctx, code.PARAMERR, "无效的方法", nil)
		}
	}
}

// GetProfile 个人信息
// @Summary      个人信息
// @Tags         User
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /user [get]
// @Security     BearerAuth
func (u *UserController) GetProfile() {
	userID, ok := currentUserID(u.Ctx)
	if !ok {
		return
	}

	userService := u.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.GetProfile(u.Ctx.Request.Context(), userID)
	if err != nil {
		response.Error(u.Ctx, err)
		return
	}
	response.Success(u.Ctx, user.ToDict())
}

// UpdateName 修改用户名，同步更新会话
// @Summary      修改用户名
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body UpdateNameRequest true "新用户名"
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  ErrorResponse
// @Router       /user/name [put]
// @Security     BearerAuth
func (u *UserController) UpdateName() {
	userID, ok := currentUserID(u.Ctx)
	if !ok {
		return
	}
	var req UpdateNameRequest
	if err := u.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(u.Ctx, "名字不能为空")
		return
	}

	userService := u.Container.GetService("user").(services.InterfaceUserService)
	if err := userService.UpdateName(u.Ctx.Request.Context(), userID, req.Name); err != nil {
		response.Error(u.Ctx, err)
		return
	}

	if session := middleware.CurrentSession(u.Ctx); session != nil {
		jwtService := u.Container.GetService("jwt").(services.InterfaceJWTService)
		if err := jwtService.UpdateSessionName(u.Ctx.Request.Context(), session.SessionID, req.Name); err != nil {
			Logger.Warning("更新会话用户名失败: %v", err)
		}
	}
	response.Success(u.Ctx, gin.H{"name": req.Name})
}

// UploadAvatar 上传头像
// @Summary      上传头像
// @Tags         User
// @Accept       multipart/form-data
// @Produce      json
// @Param        avatar formData file true "头像图片"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  ErrorResponse
// @Router       /user/avatar [post]
// @Security     BearerAuth
func (u *UserController) UploadAvatar() {
	userID, ok := currentUserID(u.Ctx)
	if !ok {
		return
	}

	file, ok := openUpload(u.Ctx, "avatar")
	if !ok {
		return
	}
	defer file.Close()

	userService := u.Container.GetService("user").(services.InterfaceUserService)
	url, err := userService.UpdateAvatar(u.Ctx.Request.Context(), userID, file.Filename, file.ContentType, file)
	if err != nil {
		response.Error(u.Ctx, err)
		return
	}
	response.Success(u.Ctx, gin.H{"avatar_url": url})
}

// GetAuth 实名认证信息
// @Summary      实名认证信息
// @Tags         User
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /user/auth [get]
// @Security     BearerAuth
func (u *UserController) GetAuth() {
	userID, ok := currentUserID(u.Ctx)
	if !ok {
		return
	}

	userService := u.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.GetAuth(u.Ctx.Request.Context(), userID)
	if err != nil {
		response.Error(u.Ctx, err)
		return
	}
	response.Success(u.Ctx, user.ToAuthDict())
}

// SetAuth 设置实名认证，只能设置一次
// @Summary      设置实名认证
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body AuthRequest true "实名信息"
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  ErrorResponse
// @Router       /user/auth [post]
// @Security     BearerAuth
func (u *UserController) SetAuth() {
	userID, ok := currentUserID(u.Ctx)
	if !ok {
		return
	}
	var req AuthRequest
	if err := u.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(u.Ctx, "参数不完整")
		return
	}

	userService := u.Container.GetService("user").(services.InterfaceUserService)
	if err := userService.SetAuth(u.Ctx.Request.Context(), userID, req.RealName, req.IDCard); err != nil {
		response.Error(u.Ctx, err)
		return
	}
	response.Success(u.Ctx, nil)
}
