package controllers

import (
	"net/http"

	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
)

// VerifyController 图片验证码和短信验证码
type VerifyController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewVerifyController 创建验证码控制器
func NewVerifyController(ctx *gin.Context, container *container.ServiceContainer) *VerifyController {
	return &VerifyController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleVerifyFunc 返回验证码请求的处理函数
func HandleVerifyFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewVerifyController(ctx, container)

		switch method {
		case "imageCode":
			controller.GetImageCode()
		case "smsCode":
			controller.SendSMSCode()
		default:
			response.FailWithMessage(ctx, code.PARAMERR, "无效的方法", nil)
		}
	}
}

// GetImageCode 生成图片验证码
// @Summary      图片验证码
// @Description  生成PNG验证码，文本以 image_code:<code_id> 保存180秒
// @Tags         Verify
// @Produce      png
// @Param        code_id path string true "前端生成的验证码编号"
// @Success      200
// @Failure      500  {object}  ErrorResponse
// @Router       /image_codes/{code_id} [get]
func (v *VerifyController) GetImageCode() {
	codeID := v.Ctx.Param("code_id")
	if codeID == "" {
		response.ParamError(v.Ctx, "缺少验证码编号")
		return
	}

	verifyService := v.Container.GetService("verify").(services.InterfaceVerifyService)
	png, err := verifyService.GenerateImageCode(v.Ctx.Request.Context(), codeID)
	if err != nil {
		response.Error(v.Ctx, err)
		return
	}
	v.Ctx.Header("Cache-Control", "no-store")
	v.Ctx.Data(http.StatusOK, "image/png", png)
}

// SendSMSCode 校验图片验证码后发送短信验证码
// @Summary      短信验证码
// @Tags         Verify
// @Produce      json
// @Param        mobile path string true "手机号"
// @Param        image_code query string true "图片验证码"
// @Param        image_code_id query string true "图片验证码编号"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Router       /sms_codes/{mobile} [get]
func (v *VerifyController) SendSMSCode() {
	mobile := v.Ctx.Param("mobile")
	imageCode := v.Ctx.Query("image_code")
	imageCodeID := v.Ctx.Query("image_code_id")
	if imageCode == "" || imageCodeID == "" {
		response.ParamError(v.Ctx, "参数不完整")
		return
	}

	verifyService := v.Container.GetService("verify").(services.InterfaceVerifyService)
	if err := verifyService.SendSMSCode(v.Ctx.Request.Context(), mobile, imageCodeID, imageCode); err != nil {
		response.Error(v.Ctx, err)
		return
	}
	response.FailWithMessage(v.Ctx, code.OK, "发送成功", nil)
}
