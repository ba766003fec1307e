package repository

import (
	"context"
	"errors"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/error/bizerr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter 订单列表查询条件，RenterID 和 OwnerID 二选一
type OrderFilter struct {
	RenterID uint
	OwnerID  uint
}

// OrderRepository 订单持久化，房屋行锁内的操作通过 OrderTx 完成
type OrderRepository interface {
	// WithHouseLock 开启事务并锁定房屋行，fn 返回错误时回滚
	WithHouseLock(ctx context.Context, houseID uint, fn func(tx OrderTx, house *models.House) error) error
	GetOrder(ctx context.Context, orderID uint) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter, offset, limit int) ([]models.Order, int64, error)
	// FindDueOrderIDs 查询指定状态且 end_date <= endBefore 的订单
	FindDueOrderIDs(ctx context.Context, status models.OrderStatus, endBefore time.Time) ([]uint, error)
}

// OrderTx 持有房屋行锁的事务
type OrderTx interface {
	LockOrder(orderID uint) (*models.Order, error)
	HasOverlap(houseID uint, begin, end time.Time) (bool, error)
	Insert(order *models.Order) error
	// UpdateStatus 仅当当前状态为 from 时更新，返回影响行数
	UpdateStatus(orderID uint, from, to models.OrderStatus, comment *string) (int64, error)
	IncrOrderCount(houseID uint) error
}

// GormOrderRepository 基于GORM的实现
type GormOrderRepository struct {
	DB *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{DB: db}
}

func (r *GormOrderRepository) WithHouseLock(ctx context.Context, houseID uint, fn func(tx OrderTx, house *models.House) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var house models.House
		// SELECT ... FOR UPDATE
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&house, houseID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerr.ErrHouseNotFound
			}
			return bizerr.Store(err)
		}
		return fn(&gormOrderTx{tx: tx}, &house)
	})
}

func (r *GormOrderRepository) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("House").First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerr.ErrOrderNotFound
		}
		return nil, bizerr.Store(err)
	}
	return &order, nil
}

func (r *GormOrderRepository) ListOrders(ctx context.Context, filter OrderFilter, offset, limit int) ([]models.Order, int64, error) {
	query := r.DB.WithContext(ctx).Model(&models.Order{})
	if filter.OwnerID != 0 {
		query = query.Where("house_id IN (?)",
			r.DB.Model(&models.House{}).Select("id").Where("user_id = ?", filter.OwnerID))
	} else {
		query = query.Where("user_id = ?", filter.RenterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, bizerr.Store(err)
	}

	var orders []models.Order
	err := query.Preload("House").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, bizerr.Store(err)
	}
	return orders, total, nil
}

func (r *GormOrderRepository) FindDueOrderIDs(ctx context.Context, status models.OrderStatus, endBefore time.Time) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status = ? AND end_date <= ?", status, endBefore).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, bizerr.Store(err)
	}
	return ids, nil
}

type gormOrderTx struct {
	tx *gorm.DB
}

func (t *gormOrderTx) LockOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerr.ErrOrderNotFound
		}
		return nil, bizerr.Store(err)
	}
	return &order, nil
}

func (t *gormOrderTx) HasOverlap(houseID uint, begin, end time.Time) (bool, error) {
	var count int64
	err := t.tx.Model(&models.Order{}).
		Where("house_id = ? AND status IN ?", houseID, models.ActiveOrderStatuses).
		Where("begin_date < ? AND end_date > ?", end, begin).
		Count(&count).Error
	if err != nil {
		return false, bizerr.Store(err)
	}
	return count > 0, nil
}

func (t *gormOrderTx) Insert(order *models.Order) error {
	if err := t.tx.Create(order).Error; err != nil {
		return bizerr.Store(err)
	}
	return nil
}

func (t *gormOrderTx) UpdateStatus(orderID uint, from, to models.OrderStatus, comment *string) (int64, error) {
	updates := map[string]interface{}{"status": to}
	if comment != nil {
		updates["comment"] = *comment
	}
	res := t.tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return 0, bizerr.Store(res.Error)
	}
	return res.RowsAffected, nil
}

func (t *gormOrderTx) IncrOrderCount(houseID uint) error {
	err := t.tx.Model(&models.House{}).
		Where("id = ?", houseID).
		UpdateColumn("order_count", gorm.Expr("order_count + ?", 1)).Error
	if err != nil {
		return bizerr.Store(err)
	}
	return nil
}
