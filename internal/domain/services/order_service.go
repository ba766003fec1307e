package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/domain/repository"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/infrastructure/config"
	"github.com/flowerfire37/ihome/internal/infrastructure/metrics"
	Logger "github.com/flowerfire37/ihome/pkg/logger"
)

// 订单列表角色
const (
	OrderRoleCustom   = "custom"   // 租客
	OrderRoleLandlord = "landlord" // 房东
)

// 房东/租客对订单的操作
const (
	OrderActionAccept = "accept"
	OrderActionReject = "reject"
	OrderActionCancel = "cancel"
	OrderActionPay    = "pay"
)

// InterfaceOrderService defines the booking service interface
type InterfaceOrderService interface {
	CreateOrder(ctx context.Context, renterID, houseID uint, begin, end time.Time) (*models.Order, error)
	AcceptOrder(ctx context.Context, ownerID, orderID uint) (*models.Order, error)
	RejectOrder(ctx context.Context, ownerID, orderID uint, reason string) (*models.Order, error)
	CancelOrder(ctx context.Context, renterID, orderID uint) (*models.Order, error)
	PayOrder(ctx context.Context, renterID, orderID uint) (*models.Order, error)
	CommentOrder(ctx context.Context, renterID, orderID uint, comment string) (*models.Order, error)
	CheckoutElapsedOrders(ctx context.Context, now time.Time) (int, error)
	AutoCompleteOrders(ctx context.Context, now time.Time) (int, error)
	GetOrder(ctx context.Context, userID, orderID uint) (*models.Order, error)
	ListOrders(ctx context.Context, userID uint, role string, page models.PaginationQuery) ([]models.Order, models.PaginationResult, error)
}

// OrderService 订单生命周期和房屋可用性
type OrderService struct {
	Repo   repository.OrderRepository
	Config *config.Config
}

// NewOrderService 创建订单服务
func NewOrderService(repo repository.OrderRepository, cfg *config.Config) InterfaceOrderService {
	return &OrderService{
		Repo:   repo,
		Config: cfg,
	}
}

// 参与方校验，nil 表示系统任务
type actorCheck func(order *models.Order, house *models.House) error

func ownerOnly(userID uint) actorCheck {
	return func(_ *models.Order, house *models.House) error {
		if house.UserID != userID {
			return bizerr.ErrNotOrderParty
		}
		return nil
	}
}

func renterOnly(userID uint) actorCheck {
	return func(order *models.Order, _ *models.House) error {
		if order.UserID != userID {
			return bizerr.ErrNotOrderParty
		}
		return nil
	}
}

// transition 描述一次状态流转
type transition struct {
	to         models.OrderStatus
	actor      actorCheck
	comment    *string
	bumpCount  bool  // 完成时房屋订单数加一
	illegalErr error // 状态不允许时返回的错误
}

// 1 CreateOrder 创建订单，房屋行锁内检查日期冲突
func (s *OrderService) CreateOrder(ctx context.Context, renterID, houseID uint, begin, end time.Time) (*models.Order, error) {
	begin, end = models.TruncateDay(begin), models.TruncateDay(end)
	if !begin.Before(end) {
		metrics.OrdersRejected.WithLabelValues(bizerr.ErrInvalidDateRange.Reason).Inc()
		return nil, bizerr.ErrInvalidDateRange
	}
	days := models.StayDays(begin, end)

	var order *models.Order
	err := s.Repo.WithHouseLock(ctx, houseID, func(tx repository.OrderTx, house *models.House) error {
		if house.UserID == renterID {
			return bizerr.ErrSelfBooking
		}
		if !house.AcceptsDays(days) {
			return bizerr.ErrDurationOutOfBounds
		}

		overlap, err := tx.HasOverlap(houseID, begin, end)
		if err != nil {
			return err
		}
		if overlap {
			return bizerr.ErrHouseUnavailable
		}

		order = &models.Order{
			UserID:     renterID,
			HouseID:    houseID,
			BeginDate:  begin,
			EndDate:    end,
			Days:       days,
			HousePrice: house.Price,
			Amount:     house.Price * days,
			Status:     models.OrderStatusWaitAccept,
		}
		return tx.Insert(order)
	})
	if err != nil {
		var be *bizerr.Error
		if errors.As(err, &be) {
			metrics.OrdersRejected.WithLabelValues(be.Reason).Inc()
		}
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	Logger.Info("用户 %d 预订房屋 %d: 订单 %d, %s 至 %s, 金额 %d",
		renterID, houseID, order.ID, begin.Format(models.DateLayout), end.Format(models.DateLayout), order.Amount)
	return order, nil
}

// 2 AcceptOrder 房东接单
func (s *OrderService) AcceptOrder(ctx context.Context, ownerID, orderID uint) (*models.Order, error) {
	return s.apply(ctx, orderID, transition{
		to:    models.OrderStatusWaitPayment,
		actor: ownerOnly(ownerID),
	})
}

// 3 RejectOrder 房东拒单，原因保存在 comment
func (s *OrderService) RejectOrder(ctx context.Context, ownerID, orderID uint, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, bizerr.Validation("请填写拒单原因")
	}
	return s.apply(ctx, orderID, transition{
		to:      models.OrderStatusRejected,
		actor:   ownerOnly(ownerID),
		comment: &reason,
	})
}

// 4 CancelOrder 租客在支付前取消
func (s *OrderService) CancelOrder(ctx context.Context, renterID, orderID uint) (*models.Order, error) {
	return s.apply(ctx, orderID, transition{
		to:    models.OrderStatusCanceled,
		actor: renterOnly(renterID),
	})
}

// 5 PayOrder 租客确认支付
func (s *OrderService) PayOrder(ctx context.Context, renterID, orderID uint) (*models.Order, error) {
	return s.apply(ctx, orderID, transition{
		to:    models.OrderStatusPaid,
		actor: renterOnly(renterID),
	})
}

// 6 CommentOrder 租客评价，订单完成
func (s *OrderService) CommentOrder(ctx context.Context, renterID, orderID uint, comment string) (*models.Order, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, bizerr.Validation("评价内容不能为空")
	}
	return s.apply(ctx, orderID, transition{
		to:         models.OrderStatusComplete,
		actor:      renterOnly(renterID),
		comment:    &comment,
		bumpCount:  true,
		illegalErr: bizerr.ErrInvalidState,
	})
}

// 7 CheckoutElapsedOrders 入住结束的已支付订单进入待评价
func (s *OrderService) CheckoutElapsedOrders(ctx context.Context, now time.Time) (int, error) {
	return s.sweep(ctx, models.OrderStatusPaid, models.TruncateDay(now), transition{
		to: models.OrderStatusWaitComment,
	})
}

// 8 AutoCompleteOrders 超时未评价的订单自动完成
func (s *OrderService) AutoCompleteOrders(ctx context.Context, now time.Time) (int, error) {
	deadline := now.Add(-s.commentTimeout())
	return s.sweep(ctx, models.OrderStatusWaitComment, deadline, transition{
		to:        models.OrderStatusComplete,
		bumpCount: true,
	})
}

// 9 GetOrder 订单详情，仅租客和房东可见
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && (order.House == nil || order.House.UserID != userID) {
		return nil, bizerr.ErrNotOrderParty
	}
	return order, nil
}

// 10 ListOrders 我的订单(custom)或客户订单(landlord)，按创建时间倒序
func (s *OrderService) ListOrders(ctx context.Context, userID uint, role string, page models.PaginationQuery) ([]models.Order, models.PaginationResult, error) {
	page = page.Normalize(10, 100)

	var filter repository.OrderFilter
	switch role {
	case OrderRoleLandlord:
		filter.OwnerID = userID
	case OrderRoleCustom, "":
		filter.RenterID = userID
	default:
		return nil, models.PaginationResult{}, bizerr.Validation("角色参数错误")
	}

	orders, total, err := s.Repo.ListOrders(ctx, filter, page.Offset(), page.PageSize)
	if err != nil {
		return nil, models.PaginationResult{}, err
	}
	return orders, models.NewPaginationResult(total, page.PageNum, page.PageSize), nil
}

// apply 锁顺序与创建订单一致：先房屋后订单
func (s *OrderService) apply(ctx context.Context, orderID uint, t transition) (*models.Order, error) {
	current, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var from models.OrderStatus
	err = s.Repo.WithHouseLock(ctx, current.HouseID, func(tx repository.OrderTx, house *models.House) error {
		order, err := tx.LockOrder(orderID)
		if err != nil {
			return err
		}
		if t.actor != nil {
			if err := t.actor(order, house); err != nil {
				return err
			}
		}

		from = order.Status
		if !from.CanTransitionTo(t.to) {
			if t.illegalErr != nil {
				return t.illegalErr
			}
			return bizerr.ErrInvalidTransition
		}

		n, err := tx.UpdateStatus(orderID, from, t.to, t.comment)
		if err != nil {
			return err
		}
		if n == 0 {
			return bizerr.ErrInvalidTransition
		}
		if t.bumpCount {
			return tx.IncrOrderCount(house.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(from), string(t.to)).Inc()
	Logger.Info("订单 %d 状态 %s -> %s", orderID, from, t.to)
	return s.Repo.GetOrder(ctx, orderID)
}

// sweep 每个订单独立流转，已被其他请求处理的订单跳过
func (s *OrderService) sweep(ctx context.Context, status models.OrderStatus, endBefore time.Time, t transition) (int, error) {
	ids, err := s.Repo.FindDueOrderIDs(ctx, status, endBefore)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := s.apply(ctx, id, t); err != nil {
			if errors.Is(err, bizerr.ErrInvalidTransition) || errors.Is(err, bizerr.ErrOrderNotFound) {
				continue
			}
			Logger.Error("订单 %d 定时流转失败: %v", id, err)
			continue
		}
		done++
	}
	return done, nil
}

func (s *OrderService) commentTimeout() time.Duration {
	if s.Config != nil && s.Config.OrderCommentTimeout > 0 {
		return s.Config.OrderCommentTimeout
	}
	return 7 * 24 * time.Hour
}
