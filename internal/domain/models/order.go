package models

import (
	"time"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusWaitAccept  OrderStatus = "WAIT_ACCEPT"  // 待接单
	OrderStatusWaitPayment OrderStatus = "WAIT_PAYMENT" // 待支付
	OrderStatusPaid        OrderStatus = "PAID"         // 已支付
	OrderStatusWaitComment OrderStatus = "WAIT_COMMENT" // 待评价
	OrderStatusComplete    OrderStatus = "COMPLETE"     // 已完成
	OrderStatusCanceled    OrderStatus = "CANCELED"     // 已取消
	OrderStatusRejected    OrderStatus = "REJECTED"     // 已拒单
)

// orderTransitions 合法的状态流转，未列出的一律非法
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusWaitAccept:  {OrderStatusWaitPayment, OrderStatusRejected, OrderStatusCanceled},
	OrderStatusWaitPayment: {OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:        {OrderStatusWaitComment},
	OrderStatusWaitComment: {OrderStatusComplete},
}

// ActiveOrderStatuses 占用房屋日期的状态
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusWaitAccept,
	OrderStatusWaitPayment,
	OrderStatusPaid,
	OrderStatusWaitComment,
}

// Valid 是否为已知状态
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusWaitAccept, OrderStatusWaitPayment, OrderStatusPaid, OrderStatusWaitComment,
		OrderStatusComplete, OrderStatusCanceled, OrderStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo 查询状态流转表
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// IsTerminal 终态没有任何出边
func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// IsActive 是否占用房屋日期
func (s OrderStatus) IsActive() bool {
	for _, a := range ActiveOrderStatuses {
		if a == s {
			return true
		}
	}
	return false
}

// Order 订单
type Order struct {
	BaseModel
	UserID     uint        `gorm:"not null;index" json:"user_id"`
	HouseID    uint        `gorm:"not null;index" json:"house_id"`
	BeginDate  time.Time   `gorm:"type:date;not null" json:"begin_date"`
	EndDate    time.Time   `gorm:"type:date;not null" json:"end_date"`
	Days       int         `gorm:"not null" json:"days"`
	HousePrice int         `gorm:"not null" json:"house_price"` // 下单时的房屋单价快照
	Amount     int         `gorm:"not null" json:"amount"`
	Status     OrderStatus `gorm:"type:varchar(20);index;default:WAIT_ACCEPT" json:"status"`
	Comment    string      `gorm:"type:text" json:"comment"` // 拒单原因或评价

	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	House *House `gorm:"foreignKey:HouseID" json:"-"`
}

func (Order) TableName() string {
	return "ih_order_info"
}

// Overlaps 半开区间 [a,b) 与 [c,d) 相交当且仅当 a < d 且 c < b
func Overlaps(a, b, c, d time.Time) bool {
	return a.Before(d) && c.Before(b)
}

// StayDays [begin, end) 的自然日天数，按日历日期计算，不受夏令时影响
func StayDays(begin, end time.Time) int {
	b := calendarDay(begin)
	e := calendarDay(end)
	return int(e.Sub(b) / (24 * time.Hour))
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TruncateDay 截断到当天零点
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ToDict 订单列表和详情，需要预加载 House
func (o *Order) ToDict() map[string]interface{} {
	title, imgURL := "", ""
	if o.House != nil {
		title = o.House.Title
		imgURL = o.House.IndexImageURL
	}
	return map[string]interface{}{
		"order_id":   o.ID,
		"house_id":   o.HouseID,
		"title":      title,
		"img_url":    imgURL,
		"start_date": o.BeginDate.Format(DateLayout),
		"end_date":   o.EndDate.Format(DateLayout),
		"ctime":      o.CreatedAt.Format(DateTimeLayout),
		"days":       o.Days,
		"amount":     o.Amount,
		"status":     string(o.Status),
		"comment":    o.Comment,
	}
}
