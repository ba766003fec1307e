package controllers

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/flowerfire37/ihome/internal/app/middleware"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
)

// staticFilePath 请求路径对应的静态文件，空路径为 index.html，favicon.ico 在根目录
func staticFilePath(staticDir, requestPath string) string {
	name := strings.TrimPrefix(path.Clean("/"+requestPath), "/")
	if name == "" {
		name = "index.html"
	}
	if name != "favicon.ico" {
		name = "html/" + name
	}
	return filepath.Join(staticDir, filepath.FromSlash(name))
}

// HandleHTMLFunc 前端页面，每次加载都保证有 csrf_token cookie
func HandleHTMLFunc(staticDir string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			response.NotFound(ctx, "接口不存在")
			return
		}

		file := staticFilePath(staticDir, ctx.Request.URL.Path)
		if info, err := os.Stat(file); err != nil || info.IsDir() {
			response.NotFound(ctx, "页面不存在")
			return
		}

		middleware.IssueCSRFCookie(ctx)
		ctx.File(file)
	}
}
