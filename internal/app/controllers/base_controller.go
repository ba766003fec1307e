package controllers

import (
	"strconv"

	"github.com/flowerfire37/ihome/internal/app/middleware"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应，用于接口文档
type ErrorResponse struct {
	Errno  string `json:"errno" example:"4103"`
	Errmsg string `json:"errmsg" example:"参数错误"`
}

// maxUploadSize 上传图片大小上限
const maxUploadSize = 5 << 20

// parseIDParam 解析路径中的正整数ID
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.ParamError(ctx, "无效的"+name)
		return 0, false
	}
	return uint(id), true
}

// currentUserID 登录用户ID，缺失时返回未登录
func currentUserID(ctx *gin.Context) (uint, bool) {
	id, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.Error(ctx, bizerr.ErrUnauthenticated)
	}
	return id, ok
}
