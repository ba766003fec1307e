package controllers

import (
	"time"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceOrderController 定义订单控制器接口
type InterfaceOrderController interface {
	CreateOrder()
	ListOrders()
	GetOrder()
	UpdateStatus()
	Comment()
}

// OrderController 订单
type OrderController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewOrderController 创建订单控制器
func NewOrderController(ctx *gin.Context, container *container.ServiceContainer) *OrderController {
	return &OrderController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateOrderRequest 下单
type CreateOrderRequest struct {
	HouseID   uint   `json:"house_id" binding:"required" example:"1"`
	StartDate string `json:"start_date" binding:"required" example:"2024-06-01"`
	EndDate   string `json:"end_date" binding:"required" example:"2024-06-03"`
}

// UpdateStatusRequest 订单操作
type UpdateStatusRequest struct {
	Action string `json:"action" binding:"required" example:"accept"`
	Reason string `json:"reason" example:"房屋维修"`
}

// CommentRequest 评价
type CommentRequest struct {
	Comment string `json:"comment" binding:"required" example:"很干净"`
}

// HandleOrderFunc 返回订单请求的处理函数
func HandleOrderFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewOrderController(ctx, container)

		switch method {
		case "createOrder":
			controller.CreateOrder()
		case "listOrders":
			controller.ListOrders()
		case "getOrder":
			controller.GetOrder()
		case "updateStatus":
			controller.UpdateStatus()
		case "comment":
			controller.Comment()
		default:
			response.FailWithMessage(ctx, code.PARAMERR, "无效的方法", nil)
		}
	}
}

func (o *OrderController) orderService() services.InterfaceOrderService {
	return o.Container.GetService("order").(services.InterfaceOrderService)
}

// CreateOrder 预订房屋
// @Summary      预订房屋
// @Description  日期区间左闭右开，与已有未结束订单重叠时返回 DATAEXIST
// @Tags         Order
// @Accept       json
// @Produce      json
// @Param        request body CreateOrderRequest true "订单信息"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /orders [post]
// @Security     BearerAuth
func (o *OrderController) CreateOrder() {
	userID, ok := currentUserID(o.Ctx)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := o.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(o.Ctx, "参数不完整")
		return
	}

	begin, err := time.ParseInLocation(models.DateLayout, req.StartDate, time.Local)
	if err != nil {
		response.ParamError(o.Ctx, "日期格式错误")
		return
	}
	end, err := time.ParseInLocation(models.DateLayout, req.EndDate, time.Local)
	if err != nil {
		response.ParamError(o.Ctx, "日期格式错误")
		return
	}

	order, err := o.orderService().CreateOrder(o.Ctx.Request.Context(), userID, req.HouseID, begin, end)
	if err != nil {
		response.Error(o.Ctx, err)
		return
	}
	response.Success(o.Ctx, gin.H{"order_id": order.ID})
}

// ListOrders 我的订单
// @Summary      我的订单
// @Tags         Order
// @Produce      json
// @Param        role query string false "custom: 作为租客, landlord: 作为房东"
// @Param        p query int false "页码"
// @Success      200  {object}  map[string]interface{}
// @Router       /user/orders [get]
// @Security     BearerAuth
func (o *OrderController) ListOrders() {
	userID, ok := currentUserID(o.Ctx)
	if !ok {
		return
	}
	var page models.PaginationQuery
	if err := o.Ctx.ShouldBindQuery(&page); err != nil {
		response.ParamError(o.Ctx, "分页参数有误")
		return
	}

	orders, result, err := o.orderService().ListOrders(o.Ctx.Request.Context(), userID, o.Ctx.DefaultQuery("role", services.OrderRoleCustom), page)
	if err != nil {
		response.Error(o.Ctx, err)
		return
	}

	list := make([]map[string]interface{}, 0, len(orders))
	for i := range orders {
		list = append(list, orders[i].ToDict())
	}
	response.Success(o.Ctx, gin.H{
		"orders":       list,
		"total_page":   result.TotalPage,
		"current_page": result.CurrentPage,
	})
}

// GetOrder 订单详情，租客和房东可见
// @Summary      订单详情
// @Tags         Order
// @Produce      json
// @Param        order_id path int true "订单ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /orders/{order_id} [get]
// @Security     BearerAuth
func (o *OrderController) GetOrder() {
	userID, ok := currentUserID(o.Ctx)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(o.Ctx, "order_id")
	if !ok {
		return
	}

	order, err := o.orderService().GetOrder(o.Ctx.Request.Context(), userID, orderID)
	if err != nil {
		response.Error(o.Ctx, err)
		return
	}
	response.Success(o.Ctx, order.ToDict())
}

// UpdateStatus 接单、拒单、取消或支付
// @Summary      订单操作
// @Description  accept/reject 由房东操作, cancel/pay 由租客操作
// @Tags         Order
// @Accept       json
// @Produce      json
// @Param        order_id path int true "订单ID"
// @Param        request body UpdateStatusRequest true "操作"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /orders/{order_id}/status [put]
// @Security     BearerAuth
func (o *OrderController) UpdateStatus() {
	userID, ok := currentUserID(o.Ctx)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(o.Ctx, "order_id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := o.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(o.Ctx, "参数不完整")
		return
	}

	ctx := o.Ctx.Request.Context()
	svc := o.orderService()
	var (
		order *models.Order
		err   error
	)
	switch req.Action {
	case services.OrderActionAccept:
		order, err = svc.AcceptOrder(ctx, userID, orderID)
	case services.OrderActionReject:
		order, err = svc.RejectOrder(ctx, userID, orderID, req.Reason)
	case services.OrderActionCancel:
		order, err = svc.CancelOrder(ctx, userID, orderID)
	case services.OrderActionPay:
		order, err = svc.PayOrder(ctx, userID, orderID)
	default:
		response.ParamError(o.Ctx, "无效的操作")
		return
	}
	if err != nil {
		response.Error(o.Ctx, err)
		return
	}
	response.Success(o.Ctx, order.ToDict())
}

// Comment 评价订单，订单随之完成
// @Summary      评价订单
// @Tags         Order
// @Accept       json
// @Produce      json
// @Param        order_id path int true "订单ID"
// @Param        request body CommentRequest true "评价内容"
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  ErrorResponse
// @Router       /orders/{order_id}/comment [put]
// @Security     BearerAuth
func (o *OrderController) Comment() {
	userID, ok := currentUserID(o.Ctx)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(o.Ctx, "order_id")
	if !ok {
		return
	}
	var req CommentRequest
	if err := o.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(o.Ctx, "评价内容不能为空")
		return
	}

	order, err := o.orderService().CommentOrder(o.Ctx.Request.Context(), userID, orderID, req.Comment)
	if err != nil {
		response.Error(o.Ctx, err)
		return
	}
	response.Success(o.Ctx, order.ToDict())
}
