package repository

import (
	"context"
	"errors"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/error/bizerr"

	"gorm.io/gorm"
)

// UserRepository 用户持久化
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByMobile(ctx context.Context, mobile string) (*models.User, error)
	MobileExists(ctx context.Context, mobile string) (bool, error)
	NameExists(ctx context.Context, name string, excludeID uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	// UpdateFields 唯一索引冲突时返回 gorm.ErrDuplicatedKey
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	// SetRealName 仅当尚未实名时写入，已实名返回 ErrRealNameAlreadySet
	SetRealName(ctx context.Context, id uint, realName, idCard string) error
}

// GormUserRepository 基于GORM的实现
type GormUserRepository struct {
	DB *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{DB: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerr.ErrUserNotFound
		}
		return nil, bizerr.Store(err)
	}
	return &user, nil
}

func (r *GormUserRepository) FindByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("mobile = ?", mobile).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerr.ErrUserNotFound
		}
		return nil, bizerr.Store(err)
	}
	return &user, nil
}

func (r *GormUserRepository) MobileExists(ctx context.Context, mobile string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("mobile = ?", mobile).Count(&count).Error; err != nil {
		return false, bizerr.Store(err)
	}
	return count > 0, nil
}

func (r *GormUserRepository) NameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	if err != nil {
		return false, bizerr.Store(err)
	}
	return count > 0, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return bizerr.ErrDuplicateMobile.Wrap(err)
		}
		return bizerr.Store(err)
	}
	return nil
}

func (r *GormUserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return res.Error
		}
		return bizerr.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return bizerr.ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) SetRealName(ctx context.Context, id uint, realName, idCard string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Where("(real_name = '' OR real_name IS NULL) AND (id_card = '' OR id_card IS NULL)").
		Updates(map[string]interface{}{"real_name": realName, "id_card": idCard})
	if res.Error != nil {
		return bizerr.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return bizerr.ErrRealNameAlreadySet
	}
	return nil
}
