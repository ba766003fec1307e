// Package jobs 定时任务
package jobs

import (
	"context"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/services"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
)

// OrderSweepLockName 多个 cron 实例共用的锁
const OrderSweepLockName = "lock:order_sweep"

// Locker 分布式锁，*redsync.Mutex 满足该接口
type Locker interface {
	LockContext(ctx context.Context) error
	UnlockContext(ctx context.Context) (bool, error)
}

// NewSweepLock 基于 redsync 的互斥锁，只尝试一次，拿不到说明其他实例正在处理
func NewSweepLock(client *redis.Client, expiry time.Duration) Locker {
	rs := redsync.New(goredis.NewPool(client))
	return rs.NewMutex(OrderSweepLockName,
		redsync.WithExpiry(expiry),
		redsync.WithTries(1),
	)
}

// SweepResult 一次定时任务的结果
type SweepResult struct {
	Skipped    bool
	CheckedOut int
	Completed  int
}

// OrderSweeper 入住结束的订单转为待评价，超时未评价的订单自动完成
type OrderSweeper struct {
	Orders services.InterfaceOrderService
	Lock   Locker
	Now    func() time.Time
}

// NewOrderSweeper 创建订单定时任务
func NewOrderSweeper(orders services.InterfaceOrderService, lock Locker) *OrderSweeper {
	return &OrderSweeper{
		Orders: orders,
		Lock:   lock,
		Now:    time.Now,
	}
}

// Run 执行一次，获取锁失败时跳过
func (s *OrderSweeper) Run(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	if err := s.Lock.LockContext(ctx); err != nil {
		Logger.Info("[CRON] 订单任务正在其他实例执行, 跳过: %v", err)
		result.Skipped = true
		return result, nil
	}
	defer func() {
		if ok, err := s.Lock.UnlockContext(context.Background()); !ok || err != nil {
			Logger.Warning("[CRON] 释放订单任务锁失败: %v", err)
		}
	}()

	now := s.Now()
	var err error
	if result.CheckedOut, err = s.Orders.CheckoutElapsedOrders(ctx, now); err != nil {
		return result, err
	}
	if result.Completed, err = s.Orders.AutoCompleteOrders(ctx, now); err != nil {
		return result, err
	}
	Logger.Info("[CRON] 订单任务完成: 待评价 %d 个, 自动完成 %d 个", result.CheckedOut, result.Completed)
	return result, nil
}
