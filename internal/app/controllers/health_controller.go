package controllers

import (
	"context"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(ctx *gin.Context, container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleHealthFunc 返回健康检查的处理函数
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthCheckController(ctx, container)

		switch method {
		case "ping":
			controller.Ping()
		case "status":
			controller.Status()
		default:
			response.FailWithMessage(ctx, code.PARAMERR, "无效的方法", nil)
		}
	}
}

// Ping 健康检查端点
// @Summary      健康检查
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /ping [get]
func (h *HealthCheckController) Ping() {
	response.Success(h.Ctx, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Status 检查数据库和Redis
// @Summary      依赖状态
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /health [get]
func (h *HealthCheckController) Status() {
	ctx, cancel := context.WithTimeout(h.Ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "unknown", "redis": "unknown"}
	healthy := true

	if db := h.Container.GetDB(); db != nil {
		status["database"] = "up"
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["database"] = "down"
			healthy = false
		}
	}
	if rdb := h.Container.GetRedis(); rdb != nil {
		status["redis"] = "up"
		if err := rdb.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
			healthy = false
		}
	}

	if !healthy {
		response.FailWithMessage(h.Ctx, code.SERVERERR, "依赖服务不可用", status)
		return
	}
	status["status"] = "healthy"
	response.Success(h.Ctx, status)
}
