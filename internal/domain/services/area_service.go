package services

import (
	"context"
	"errors"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"gorm.io/gorm"
)

// AreaInfo 城区列表项
type AreaInfo struct {
	AID   uint   `json:"aid"`
	AName string `json:"aname"`
}

// InterfaceAreaService defines the area service interface
type InterfaceAreaService interface {
	GetAreas(ctx context.Context) ([]AreaInfo, error)
	AreaExists(ctx context.Context, areaID uint) (bool, error)
}

// AreaService 城区信息，Redis缓存7200秒
type AreaService struct {
	DB    *gorm.DB
	Redis InterfaceRedisService
}

// NewAreaService 创建城区服务
func NewAreaService(db *gorm.DB, redisService InterfaceRedisService) InterfaceAreaService {
	return &AreaService{
		DB:    db,
		Redis: redisService,
	}
}

// 1 GetAreas 先读缓存，缓存读写失败不影响结果
func (s *AreaService) GetAreas(ctx context.Context) ([]AreaInfo, error) {
	var cached []AreaInfo
	err := s.Redis.Get(ctx, AreaInfoKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		Logger.Warning("读取城区缓存失败: %v", err)
	}

	var areas []models.Area
	if err := s.DB.WithContext(ctx).Order("id").Find(&areas).Error; err != nil {
		return nil, bizerr.Store(err)
	}

	result := make([]AreaInfo, 0, len(areas))
	for _, a := range areas {
		result = append(result, AreaInfo{AID: a.ID, AName: a.Name})
	}
	if err := s.Redis.Set(ctx, AreaInfoKey, result, AreaInfoTTL); err != nil {
		Logger.Warning("写入城区缓存失败: %v", err)
	}
	return result, nil
}

// 2 AreaExists 城区是否存在
func (s *AreaService) AreaExists(ctx context.Context, areaID uint) (bool, error) {
	areas, err := s.GetAreas(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range areas {
		if a.AID == areaID {
			return true, nil
		}
	}
	return false, nil
}
