package controllers

import (
	"errors"
	"net/http"

	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"
	"github.com/flowerfire37/ihome/internal/infrastructure/storage"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"github.com/gin-gonic/gin"
)

// HandleImageFunc 读取本服务保存的图片，只有 GridFS 后端提供下载
// @Summary      图片
// @Tags         Image
// @Produce      octet-stream
// @Param        image_id path string true "图片ID"
// @Success      200
// @Failure      404  {object}  ErrorResponse
// @Router       /images/{image_id} [get]
func HandleImageFunc(container *container.ServiceContainer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		reader, ok := container.GetService("images").(storage.Reader)
		if !ok {
			response.NotFound(ctx, "图片不存在")
			return
		}

		rc, contentType, err := reader.Open(ctx.Request.Context(), ctx.Param("image_id"))
		if err != nil {
			if errors.Is(err, storage.ErrImageNotFound) {
				response.NotFound(ctx, "图片不存在")
				return
			}
			Logger.Error("读取图片失败: %v", err)
			response.Fail(ctx, code.IOERR, nil)
			return
		}
		defer rc.Close()

		ctx.Header("Cache-Control", "public, max-age=86400")
		ctx.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
	}
}
