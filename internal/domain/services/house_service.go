package services

import (
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"gorm.io/gorm"
)

// 房屋列表排序
const (
	SortNew      = "new"
	SortBooking  = "booking"
	SortPriceInc = "price-inc"
	SortPriceDes = "price-des"
)

const (
	houseListPageSize     = 10
	houseListMaxPageSize  = 100
	indexHouseCount       = 5
	detailCommentMaxCount = 30
)

// HouseFilter 房屋搜索条件
type HouseFilter struct {
	AreaID    uint
	StartDate *time.Time
	EndDate   *time.Time
	SortKey   string
	Page      models.PaginationQuery
}

// ParseHouseFilter 解析 aid、sd、ed、sk、p 查询参数
func ParseHouseFilter(aid, sd, ed, sk, p string) (HouseFilter, error) {
	var f HouseFilter

	if aid != "" {
		id, err := strconv.ParseUint(aid, 10, 64)
		if err != nil {
			return f, bizerr.Validation("区域参数有误")
		}
		f.AreaID = uint(id)
	}

	parseDate := func(s string) (*time.Time, error) {
		if s == "" {
			return nil, nil
		}
		t, err := time.ParseInLocation(models.DateLayout, s, time.Local)
		if err != nil {
			return nil, bizerr.Validation("日期参数有误")
		}
		return &t, nil
	}
	var err error
	if f.StartDate, err = parseDate(sd); err != nil {
		return f, err
	}
	if f.EndDate, err = parseDate(ed); err != nil {
		return f, err
	}
	if f.StartDate != nil && f.EndDate != nil && !f.StartDate.Before(*f.EndDate) {
		return f, bizerr.ErrInvalidDateRange
	}

	switch sk {
	case SortBooking, SortPriceInc, SortPriceDes:
		f.SortKey = sk
	default:
		f.SortKey = SortNew
	}

	page, _ := strconv.Atoi(p)
	f.Page = models.PaginationQuery{PageNum: page, PageSize: houseListPageSize}.Normalize(houseListPageSize, houseListMaxPageSize)
	return f, nil
}

// orderClause 排序键对应的 ORDER BY
func (f HouseFilter) orderClause() string {
	switch f.SortKey {
	case SortBooking:
		return "order_count DESC, id DESC"
	case SortPriceInc:
		return "price ASC, id DESC"
	case SortPriceDes:
		return "price DESC, id DESC"
	}
	return "created_at DESC, id DESC"
}

// CreateHouseRequest 发布房源
type CreateHouseRequest struct {
	Title      string `json:"title" binding:"required"`
	Price      string `json:"price" binding:"required"` // 单位元，支持两位小数
	AreaID     uint   `json:"area_id" binding:"required"`
	Address    string `json:"address"`
	RoomCount  int    `json:"room_count"`
	Acreage    int    `json:"acreage"`
	Unit       string `json:"unit"`
	Capacity   int    `json:"capacity"`
	Beds       string `json:"beds"`
	Deposit    string `json:"deposit"`
	MinDays    int    `json:"min_days"`
	MaxDays    int    `json:"max_days"`
	Facilities []uint `json:"facility"`
}

// MaxYuan 单价和押金上限(元)，价格乘以入住天数也不会溢出
const MaxYuan = 10000000

// ParseYuan 元转分
func ParseYuan(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, bizerr.Validation("金额参数有误")
	}
	if v > MaxYuan {
		return 0, bizerr.Validation("金额超出上限")
	}
	return int(v*100 + 0.5), nil
}

// InterfaceHouseService defines the catalog service interface
type InterfaceHouseService interface {
	CreateHouse(ctx context.Context, ownerID uint, req *CreateHouseRequest) (*models.House, error)
	UploadHouseImage(ctx context.Context, ownerID, houseID uint, filename, contentType string, r io.Reader) (string, error)
	ListUserHouses(ctx context.Context, userID uint) ([]models.House, error)
	GetHouseDetail(ctx context.Context, houseID uint) (*models.House, []models.HouseComment, error)
	GetIndexHouses(ctx context.Context) ([]map[string]interface{}, error)
	SearchHouses(ctx context.Context, filter HouseFilter) ([]models.House, models.PaginationResult, error)
}

// HouseService 房源发布和查询
type HouseService struct {
	DB     *gorm.DB
	Redis  InterfaceRedisService
	Areas  InterfaceAreaService
	Images ImageUploader
}

// NewHouseService 创建房屋服务
func NewHouseService(db *gorm.DB, redisService InterfaceRedisService, areas InterfaceAreaService, images ImageUploader) InterfaceHouseService {
	return &HouseService{
		DB:     db,
		Redis:  redisService,
		Areas:  areas,
		Images: images,
	}
}

// 1 CreateHouse 发布房源，设施一起写入关联表
func (s *HouseService) CreateHouse(ctx context.Context, ownerID uint, req *CreateHouseRequest) (*models.House, error) {
	price, err := ParseYuan(req.Price)
	if err != nil {
		return nil, err
	}
	deposit, err := ParseYuan(req.Deposit)
	if err != nil {
		return nil, err
	}

	house := &models.House{
		UserID:    ownerID,
		AreaID:    req.AreaID,
		Title:     strings.TrimSpace(req.Title),
		Price:     price,
		Address:   req.Address,
		RoomCount: req.RoomCount,
		Acreage:   req.Acreage,
		Unit:      req.Unit,
		Capacity:  req.Capacity,
		Beds:      req.Beds,
		Deposit:   deposit,
		MinDays:   req.MinDays,
		MaxDays:   req.MaxDays,
	}
	if house.MinDays == 0 {
		house.MinDays = 1
	}
	if house.Title == "" {
		return nil, bizerr.Validation("标题不能为空")
	}
	if err := house.Validate(); err != nil {
		return nil, bizerr.Validation(err.Error())
	}

	ok, err := s.Areas.AreaExists(ctx, req.AreaID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, bizerr.ErrAreaNotFound
	}

	if len(req.Facilities) > 0 {
		if err := s.DB.WithContext(ctx).Where("id IN ?", req.Facilities).Find(&house.Facilities).Error; err != nil {
			return nil, bizerr.Store(err)
		}
	}

	if err := s.DB.WithContext(ctx).Create(house).Error; err != nil {
		return nil, bizerr.Store(err)
	}
	Logger.Info("用户 %d 发布房源 %d", ownerID, house.ID)
	return house, nil
}

// 2 UploadHouseImage 第一张图片作为房屋主图
func (s *HouseService) UploadHouseImage(ctx context.Context, ownerID, houseID uint, filename, contentType string, r io.Reader) (string, error) {
	house, err := s.findHouse(ctx, houseID)
	if err != nil {
		return "", err
	}
	if house.UserID != ownerID {
		return "", bizerr.ErrNotHouseOwner
	}

	url, err := s.Images.Upload(ctx, ImageObjectName("house", filename), contentType, r)
	if err != nil {
		return "", bizerr.ThirdParty(err, "上传图片失败")
	}

	setIndex := false
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.HouseImage{HouseID: houseID, URL: url}).Error; err != nil {
			return err
		}
		res := tx.Model(&models.House{}).
			Where("id = ? AND (index_image_url = '' OR index_image_url IS NULL)", houseID).
			Update("index_image_url", url)
		setIndex = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return "", bizerr.Store(err)
	}

	if setIndex {
		if err := s.Redis.Delete(ctx, HomePageDataKey); err != nil {
			Logger.Warning("清除首页缓存失败: %v", err)
		}
	}
	return url, nil
}

// 3 ListUserHouses 我发布的房源
func (s *HouseService) ListUserHouses(ctx context.Context, userID uint) ([]models.House, error) {
	var houses []models.House
	err := s.DB.WithContext(ctx).
		Preload("Area").Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&houses).Error
	if err != nil {
		return nil, bizerr.Store(err)
	}
	return houses, nil
}

// 4 GetHouseDetail 房屋详情和已完成订单的评价
func (s *HouseService) GetHouseDetail(ctx context.Context, houseID uint) (*models.House, []models.HouseComment, error) {
	var house models.House
	err := s.DB.WithContext(ctx).
		Preload("User").Preload("Facilities").Preload("Images").
		First(&house, houseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, bizerr.ErrHouseNotFound
		}
		return nil, nil, bizerr.Store(err)
	}

	var orders []models.Order
	err = s.DB.WithContext(ctx).
		Preload("User").
		Where("house_id = ? AND status = ? AND comment <> ''", houseID, models.OrderStatusComplete).
		Order("updated_at DESC").
		Limit(detailCommentMaxCount).
		Find(&orders).Error
	if err != nil {
		return nil, nil, bizerr.Store(err)
	}
	return &house, CommentsFromOrders(orders), nil
}

// CommentsFromOrders 评价列表，未改名的用户显示为匿名
func CommentsFromOrders(orders []models.Order) []models.HouseComment {
	comments := make([]models.HouseComment, 0, len(orders))
	for _, o := range orders {
		if o.Status != models.OrderStatusComplete || o.Comment == "" {
			continue
		}
		name := "匿名用户"
		if o.User != nil {
			name = o.User.DisplayName()
		}
		comments = append(comments, models.HouseComment{
			Comment:  o.Comment,
			UserName: name,
			Time:     o.UpdatedAt.Format(models.DateTimeLayout),
		})
	}
	return comments
}

// 5 GetIndexHouses 首页轮播：订单最多且有主图的5套房屋
func (s *HouseService) GetIndexHouses(ctx context.Context) ([]map[string]interface{}, error) {
	var cached []map[string]interface{}
	err := s.Redis.Get(ctx, HomePageDataKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		Logger.Warning("读取首页缓存失败: %v", err)
	}

	var houses []models.House
	err = s.DB.WithContext(ctx).
		Preload("Area").Preload("User").
		Where("index_image_url <> ''").
		Order("order_count DESC, id DESC").
		Limit(indexHouseCount).
		Find(&houses).Error
	if err != nil {
		return nil, bizerr.Store(err)
	}

	result := make([]map[string]interface{}, 0, len(houses))
	for i := range houses {
		result = append(result, houses[i].ToBasicDict())
	}
	if err := s.Redis.Set(ctx, HomePageDataKey, result, HomePageDataTTL); err != nil {
		Logger.Warning("写入首页缓存失败: %v", err)
	}
	return result, nil
}

// 6 SearchHouses 按区域、入住日期和排序键分页查询
func (s *HouseService) SearchHouses(ctx context.Context, filter HouseFilter) ([]models.House, models.PaginationResult, error) {
	page := filter.Page.Normalize(houseListPageSize, houseListMaxPageSize)

	query := s.DB.WithContext(ctx).Model(&models.House{})
	if filter.AreaID != 0 {
		query = query.Where("area_id = ?", filter.AreaID)
	}

	// 排除日期冲突的房屋
	if filter.StartDate != nil || filter.EndDate != nil {
		busy := s.DB.Model(&models.Order{}).Select("house_id").
			Where("status IN ?", models.ActiveOrderStatuses)
		if filter.EndDate != nil {
			busy = busy.Where("begin_date < ?", *filter.EndDate)
		}
		if filter.StartDate != nil {
			busy = busy.Where("end_date > ?", *filter.StartDate)
		}
		query = query.Where("id NOT IN (?)", busy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, bizerr.Store(err)
	}

	var houses []models.House
	err := query.Preload("Area").Preload("User").
		Order(filter.orderClause()).
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&houses).Error
	if err != nil {
		return nil, models.PaginationResult{}, bizerr.Store(err)
	}
	return houses, models.NewPaginationResult(total, page.PageNum, page.PageSize), nil
}

func (s *HouseService) findHouse(ctx context.Context, houseID uint) (*models.House, error) {
	var house models.House
	if err := s.DB.WithContext(ctx).First(&house, houseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerr.ErrHouseNotFound
		}
		return nil, bizerr.Store(err)
	}
	return &house, nil
}
