package controllers

import (
	"mime/multipart"

	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
)

// uploadFile 打开的上传文件
type uploadFile struct {
	multipart.File
	Filename    string
	ContentType string
}

// openUpload 读取表单中的图片文件，失败时已写入响应
func openUpload(ctx *gin.Context, field string) (*uploadFile, bool) {
	header, err := ctx.FormFile(field)
	if err != nil {
		response.ParamError(ctx, "未上传图片")
		return nil, false
	}
	if header.Size > maxUploadSize {
		response.ParamError(ctx, "图片不能超过5MB")
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		response.FailWithMessage(ctx, code.IOERR, "读取图片失败", nil)
		return nil, false
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &uploadFile{File: f, Filename: header.Filename, ContentType: contentType}, true
}
