package controllers

import (
	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
)

// HandleAreaFunc 城区列表
// @Summary      城区列表
// @Description  结果在Redis中缓存2小时
// @Tags         Area
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /areas [get]
func HandleAreaFunc(container *container.ServiceContainer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		areaService := container.GetService("area").(services.InterfaceAreaService)
		areas, err := areaService.GetAreas(ctx.Request.Context())
		if err != nil {
			response.Error(ctx, err)
			return
		}
		response.Success(ctx, areas)
	}
}
