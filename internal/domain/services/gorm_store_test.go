package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/domain/repository"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/infrastructure/config"
	"github.com/flowerfire37/ihome/internal/test/testdb"

	"gorm.io/gorm"
)

func utcDay(s string) time.Time {
	t, err := time.ParseInLocation(models.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// seedCatalog 房东1，租客2、3；房屋10(区1,300元) 11(区1,100元) 12(区2,200元)
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := []models.User{
		{Name: "owner", Mobile: "13800000001", PasswordHash: "x"},
		{Name: "13800000002", Mobile: "13800000002", PasswordHash: "x"},
		{Name: "bob", Mobile: "13800000003", PasswordHash: "x"},
	}
	for i := range users {
		users[i].ID = uint(i + 1)
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatal(err)
	}

	houses := []models.House{
		{UserID: ownerID, AreaID: 1, Title: "X", Price: 30000, MinDays: 2, OrderCount: 5},
		{UserID: ownerID, AreaID: 1, Title: "Y", Price: 10000, MinDays: 1, OrderCount: 9},
		{UserID: ownerID, AreaID: 2, Title: "Z", Price: 20000, MinDays: 1},
	}
	for i := range houses {
		houses[i].ID = uint(10 + i)
	}
	if err := db.Create(&houses).Error; err != nil {
		t.Fatal(err)
	}
}

func seedOrder(t *testing.T, db *gorm.DB, renter, house uint, begin, end string, status models.OrderStatus, comment string) {
	t.Helper()
	o := &models.Order{
		UserID: renter, HouseID: house,
		BeginDate: utcDay(begin), EndDate: utcDay(end),
		Days: 1, HousePrice: 1, Amount: 1,
		Status: status, Comment: comment,
	}
	if err := db.Create(o).Error; err != nil {
		t.Fatal(err)
	}
}

func newSQLHouseService(t *testing.T) (*HouseService, *gorm.DB) {
	db := testdb.Open(t)
	seedCatalog(t, db)
	_, client := newTestRedis(t)
	return NewHouseService(db, NewRedisService(client), nil, nil).(*HouseService), db
}

func houseIDs(houses []models.House) []uint {
	ids := make([]uint, 0, len(houses))
	for _, h := range houses {
		ids = append(ids, h.ID)
	}
	return ids
}

func sameIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSearchHousesExcludesBookedDates(t *testing.T) {
	svc, db := newSQLHouseService(t)
	ctx := context.Background()
	seedOrder(t, db, renterA, 10, "2024-06-01", "2024-06-05", models.OrderStatusPaid, "")
	seedOrder(t, db, renterA, 11, "2024-06-01", "2024-06-05", models.OrderStatusCanceled, "")
	seedOrder(t, db, renterB, 12, "2024-05-01", "2024-05-03", models.OrderStatusComplete, "")

	date := func(s string) *time.Time {
		d := utcDay(s)
		return &d
	}
	tests := []struct {
		name   string
		filter HouseFilter
		want   []uint
	}{
		{"日期重叠的房屋被排除", HouseFilter{StartDate: date("2024-06-03"), EndDate: date("2024-06-04"), SortKey: SortPriceInc}, []uint{11, 12}},
		{"相邻日期可预订", HouseFilter{StartDate: date("2024-06-05"), EndDate: date("2024-06-07"), SortKey: SortPriceInc}, []uint{11, 12, 10}},
		{"只有入住日期", HouseFilter{StartDate: date("2024-06-04"), SortKey: SortPriceInc}, []uint{11, 12}},
		{"只有离店日期", HouseFilter{EndDate: date("2024-06-01"), SortKey: SortPriceInc}, []uint{11, 12, 10}},
		{"按区域", HouseFilter{AreaID: 1, StartDate: date("2024-06-02"), EndDate: date("2024-06-03")}, []uint{11}},
		{"价格降序", HouseFilter{SortKey: SortPriceDes}, []uint{10, 12, 11}},
		{"订单量降序", HouseFilter{SortKey: SortBooking}, []uint{11, 10, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			houses, page, err := svc.SearchHouses(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if got := houseIDs(houses); !sameIDs(got, tt.want) {
				t.Errorf("houses = %v, 期望 %v", got, tt.want)
			}
			if page.CurrentPage != 1 || page.TotalPage != 1 {
				t.Errorf("page = %+v", page)
			}
		})
	}
}

func TestGetHouseDetailComments(t *testing.T) {
	svc, db := newSQLHouseService(t)
	ctx := context.Background()
	seedOrder(t, db, renterA, 10, "2024-05-01", "2024-05-03", models.OrderStatusComplete, "很干净")
	seedOrder(t, db, renterB, 10, "2024-05-05", "2024-05-07", models.OrderStatusComplete, "")
	seedOrder(t, db, renterB, 10, "2024-05-10", "2024-05-12", models.OrderStatusRejected, "满房")

	house, comments, err := svc.GetHouseDetail(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if house.Title != "X" || house.User == nil || house.User.Name != "owner" {
		t.Errorf("house = %+v", house)
	}
	if len(comments) != 1 || comments[0].Comment != "很干净" || comments[0].UserName != "匿名用户" {
		t.Errorf("comments = %+v", comments)
	}

	if _, _, err := svc.GetHouseDetail(ctx, 999); !errors.Is(err, bizerr.ErrHouseNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestOrderServiceOnGormRepository(t *testing.T) {
	db := testdb.Open(t)
	seedCatalog(t, db)
	cfg := &config.Config{OrderCommentTimeout: 7 * 24 * time.Hour}
	svc := NewOrderService(repository.NewOrderRepository(db), cfg).(*OrderService)
	ctx := context.Background()

	// 房屋10单价300元，两晚
	a, err := svc.CreateOrder(ctx, renterA, 10, utcDay("2024-06-01"), utcDay("2024-06-03"))
	if err != nil {
		t.Fatalf("订单A应成功: %v", err)
	}
	if a.Days != 2 || a.Amount != 60000 || a.HousePrice != 30000 {
		t.Errorf("订单A = %+v", a)
	}
	if _, err := svc.CreateOrder(ctx, renterB, 10, utcDay("2024-06-02"), utcDay("2024-06-04")); !errors.Is(err, bizerr.ErrHouseUnavailable) {
		t.Errorf("订单B应返回 HouseUnavailable, 实际 %v", err)
	}
	if _, err := svc.CreateOrder(ctx, renterB, 10, utcDay("2024-06-03"), utcDay("2024-06-05")); err != nil {
		t.Errorf("相邻日期应可预订: %v", err)
	}

	// 状态不符时订单不变
	if _, err := svc.PayOrder(ctx, renterA, a.ID); !errors.Is(err, bizerr.ErrInvalidTransition) {
		t.Errorf("未接单时支付应返回 InvalidTransition, 实际 %v", err)
	}
	if got, _ := svc.GetOrder(ctx, renterA, a.ID); got.Status != models.OrderStatusWaitAccept {
		t.Errorf("status = %s", got.Status)
	}

	if _, err := svc.AcceptOrder(ctx, ownerID, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.PayOrder(ctx, renterA, a.ID); err != nil {
		t.Fatal(err)
	}
	n, err := svc.CheckoutElapsedOrders(ctx, utcDay("2024-06-03"))
	if err != nil || n != 1 {
		t.Fatalf("CheckoutElapsedOrders = %d, %v", n, err)
	}
	if _, err := svc.CommentOrder(ctx, renterA, a.ID, "不错"); err != nil {
		t.Fatal(err)
	}

	var h models.House
	db.First(&h, 10)
	if h.OrderCount != 6 {
		t.Errorf("order_count = %d, 期望 6", h.OrderCount)
	}
}
