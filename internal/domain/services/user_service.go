package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/domain/repository"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	Logger "github.com/flowerfire37/ihome/pkg/logger"
	"github.com/flowerfire37/ihome/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var idCardPattern = regexp.MustCompile(`^\d{17}[\dXx]$`)

// ImageUploader 图片存储，返回可访问的URL
type ImageUploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ImageObjectName 上传对象名: 前缀/uuid.扩展名
func ImageObjectName(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), ext)
}

// InterfaceUserService defines the user service interface
type InterfaceUserService interface {
	Register(ctx context.Context, mobile, smsCode, password, password2 string) (*models.User, error)
	Login(ctx context.Context, mobile, password, clientIP string) (*models.User, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateName(ctx context.Context, userID uint, name string) error
	UpdateAvatar(ctx context.Context, userID uint, filename, contentType string, r io.Reader) (string, error)
	GetAuth(ctx context.Context, userID uint) (*models.User, error)
	SetAuth(ctx context.Context, userID uint, realName, idCard string) error
}

// UserService 用户注册、登录和个人信息
type UserService struct {
	Users  repository.UserRepository
	Verify InterfaceVerifyService
	Redis  InterfaceRedisService
	Images ImageUploader
}

// NewUserService 创建用户服务
func NewUserService(users repository.UserRepository, verify InterfaceVerifyService, redisService InterfaceRedisService, images ImageUploader) InterfaceUserService {
	return &UserService{
		Users:  users,
		Verify: verify,
		Redis:  redisService,
		Images: images,
	}
}

// 1 Register 手机号注册，用户名默认为手机号
func (s *UserService) Register(ctx context.Context, mobile, smsCode, password, password2 string) (*models.User, error) {
	if mobile == "" || smsCode == "" || password == "" || password2 == "" {
		return nil, bizerr.Validation("参数不完整")
	}
	if !ValidMobile(mobile) {
		return nil, bizerr.Validation("手机号格式错误")
	}
	if password != password2 {
		return nil, bizerr.Validation("两次密码不一致")
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, bizerr.Validation(err.Error())
	}

	if err := s.Verify.VerifySMSCode(ctx, mobile, smsCode); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         mobile,
		Mobile:       mobile,
		PasswordHash: hash,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	Logger.Info("新用户注册: id=%d", user.ID)
	return user, nil
}

// 2 Login 同一IP 600秒内失败5次后拒绝登录
func (s *UserService) Login(ctx context.Context, mobile, password, clientIP string) (*models.User, error) {
	if mobile == "" || password == "" {
		return nil, bizerr.Validation("参数不完整")
	}
	if !ValidMobile(mobile) {
		return nil, bizerr.Validation("手机号格式错误")
	}

	limitKey := LoginAccessKey + clientIP
	failures, err := s.Redis.GetInt(ctx, limitKey)
	if err != nil {
		Logger.Error("读取登录失败次数出错: %v", err)
	} else if failures >= LoginMaxFailures {
		return nil, bizerr.ErrLoginLimited
	}

	user, err := s.Users.FindByMobile(ctx, mobile)
	if err != nil && !errors.Is(err, bizerr.ErrUserNotFound) {
		return nil, err
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		if _, err := s.Redis.IncrWithExpire(ctx, limitKey, LoginAccessTTL); err != nil {
			Logger.Error("记录登录失败次数出错: %v", err)
		}
		return nil, bizerr.ErrLoginFailed
	}
	return user, nil
}

// 3 GetProfile 个人信息
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.Users.FindByID(ctx, userID)
}

// 4 UpdateName 修改用户名，不能与他人重复
func (s *UserService) UpdateName(ctx context.Context, userID uint, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return bizerr.Validation("名字不能为空")
	}
	if len([]rune(name)) > 32 {
		return bizerr.Validation("名字过长")
	}

	exists, err := s.Users.NameExists(ctx, name, userID)
	if err != nil {
		return err
	}
	if exists {
		return bizerr.ErrDuplicateName
	}
	if err := s.Users.UpdateFields(ctx, userID, map[string]interface{}{"name": name}); err != nil {
		// 并发修改时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return bizerr.ErrDuplicateName.Wrap(err)
		}
		return err
	}
	return nil
}

// 5 UpdateAvatar 上传头像并保存URL
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, filename, contentType string, r io.Reader) (string, error) {
	url, err := s.Images.Upload(ctx, ImageObjectName("avatar", filename), contentType, r)
	if err != nil {
		return "", bizerr.ThirdParty(err, "上传图片失败")
	}
	if err := s.Users.UpdateFields(ctx, userID, map[string]interface{}{"avatar_url": url}); err != nil {
		return "", err
	}
	return url, nil
}

// 6 GetAuth 实名认证信息
func (s *UserService) GetAuth(ctx context.Context, userID uint) (*models.User, error) {
	return s.Users.FindByID(ctx, userID)
}

// 7 SetAuth 实名认证只能设置一次
func (s *UserService) SetAuth(ctx context.Context, userID uint, realName, idCard string) error {
	realName, idCard = strings.TrimSpace(realName), strings.TrimSpace(idCard)
	if realName == "" || idCard == "" {
		return bizerr.Validation("参数不完整")
	}
	if !idCardPattern.MatchString(idCard) {
		return bizerr.Validation("身份证号格式错误")
	}

	return s.Users.SetRealName(ctx, userID, realName, idCard)
}
