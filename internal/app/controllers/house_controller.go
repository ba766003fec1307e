package controllers

import (
	"github.com/flowerfire37/ihome/internal/app/middleware"
	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceHouseController 定义房屋控制器接口
type InterfaceHouseController interface {
	CreateHouse()
	UploadImage()
	ListUserHouses()
	GetIndex()
	GetDetail()
	Search()
}

// HouseController 房源发布和查询
type HouseController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHouseController 创建房屋控制器
func NewHouseController(ctx *gin.Context, container *container.ServiceContainer) *HouseController {
	return &HouseController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleHouseFunc 返回房屋请求的处理函数
func HandleHouseFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHouseController(ctx, container)

		switch method {
		case "createHouse":
			controller.CreateHouse()
		case "uploadImage":
			controller.UploadImage()
		case "listUserHouses":
			controller.ListUserHouses()
		case "getIndex":
			controller.GetIndex()
		case "getDetail":
			controller.GetDetail()
		case "search":
			controller.Search()
		default:
			response.FailWithMessage(ctx, code.PARAMERR, "无效的方法", nil)
		}
	}
}

func (h *HouseController) houseService() services.InterfaceHouseService {
	return h.Container.GetService("house").(services.InterfaceHouseService)
}

// CreateHouse 发布房源
// @Summary      发布房源
// @Tags         House
// @Accept       json
// @Produce      json
// @Param        request body services.CreateHouseRequest true "房屋信息, 金额单位元"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /houses/info [post]
// @Security     BearerAuth
func (h *HouseController) CreateHouse() {
	userID, ok := currentUserID(h.Ctx)
	if !ok {
		return
	}
	var req services.CreateHouseRequest
	if err := h.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(h.Ctx, "参数不完整")
		return
	}

	house, err := h.houseService().CreateHouse(h.Ctx.Request.Context(), userID, &req)
	if err != nil {
		response.Error(h.Ctx, err)
		return
	}
	response.Success(h.Ctx, gin.H{"house_id": house.ID})
}

// UploadImage 上传房屋图片，只有房东可以上传
// @Summary      上传房屋图片
// @Tags         House
// @Accept       multipart/form-data
// @Produce      json
// @Param        house_id path int true "房屋ID"
// @Param        house_image formData file true "房屋图片"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Router       /houses/{house_id}/images [post]
// @Security     BearerAuth
func (h *HouseController) UploadImage() {
	userID, ok := currentUserID(h.Ctx)
	if !ok {
		return
	}
	houseID, ok := parseIDParam(h.Ctx, "house_id")
	if !ok {
		return
	}

	file, ok := openUpload(h.Ctx, "house_image")
	if !ok {
		return
	}
	defer file.Close()

	url, err := h.houseService().UploadHouseImage(h.Ctx.Request.Context(), userID, houseID, file.Filename, file.ContentType, file)
	if err != nil {
		response.Error(h.Ctx, err)
		return
	}
	response.Success(h.Ctx, gin.H{"image_url": url})
}

// ListUserHouses 我发布的房源
// @Summary      我的房源
// @Tags         House
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /user/houses [get]
// @Security     BearerAuth
func (h *HouseController) ListUserHouses() {
	userID, ok := currentUserID(h.Ctx)
	if !ok {
		return
	}

	houses, err := h.houseService().ListUserHouses(h.Ctx.Request.Context(), userID)
	if err != nil {
		response.Error(h.Ctx, err)
		return
	}
	response.Success(h.Ctx, gin.H{"houses": basicDicts(houses)})
}

// GetIndex 首页推荐房源
// @Summary      首页房源
// @Tags         House
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /houses/index [get]
func (h *HouseController) GetIndex() {
	houses, err := h.houseService().GetIndexHouses(h.Ctx.Request.Context())
	if err != nil {
		response.Error(h.Ctx, err)
		return
	}
	response.Success(h.Ctx, houses)
}

// GetDetail 房屋详情，user_id 为当前登录用户，未登录为 -1
// @Summary      房屋详情
// @Tags         House
// @Produce      json
// @Param        house_id path int true "房屋ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /houses/{house_id} [get]
func (h *HouseController) GetDetail() {
	houseID, ok := parseIDParam(h.Ctx, "house_id")
	if !ok {
		return
	}

	house, comments, err := h.houseService().GetHouseDetail(h.Ctx.Request.Context(), houseID)
	if err != nil {
		response.Error(h.Ctx, err)
		return
	}

	var viewer interface{} = -1
	if id, ok := middleware.CurrentUserID(h.Ctx); ok {
		viewer = id
	}
	response.Success(h.Ctx, gin.H{
		"user_id": viewer,
		"house":   house.ToFullDict(comments),
	})
}

// Search 房屋搜索
// @Summary      房屋搜索
// @Description  按城区和入住日期过滤，已被预订的房屋不返回
// @Tags         House
// @Produce      json
// @Param        aid query int false "城区ID"
// @Param        sd query string false "入住日期 2006-01-02"
// @Param        ed query string false "离开日期 2006-01-02"
// @Param        sk query string false "排序: new, booking, price-inc, price-des"
// @Param        p query int false "页码"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /houses [get]
func (h *HouseController) Search() {
	filter, err := services.ParseHouseFilter(
		h.Ctx.Query("aid"), h.Ctx.Query("sd"), h.Ctx.Query("ed"), h.Ctx.Query("sk"), h.Ctx.Query("p"))
	if err != nil {
		response.Error(h.Ctx, err)
		return
	}

	houses, page, err := h.houseService().SearchHouses(h.Ctx.Request.Context(), filter)
	if err != nil {
		response.Error(h.Ctx, err)
		return
	}
	response.Success(h.Ctx, gin.H{
		"houses":       basicDicts(houses),
		"total_page":   page.TotalPage,
		"current_page": page.CurrentPage,
	})
}

func basicDicts(houses []models.House) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(houses))
	for i := range houses {
		out = append(out, houses[i].ToBasicDict())
	}
	return out
}
