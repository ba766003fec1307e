package services

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/repository"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/infrastructure/metrics"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"github.com/dchest/captcha"
	"github.com/go-redis/redis/v8"
)

// 验证码键前缀和有效期
const (
	ImageCodeKey    = "image_code:"
	SMSCodeKey      = "sms_code:"
	SMSSendFlagKey  = "send_sms_code:"
	ImageCodeTTL    = 180 * time.Second
	SMSCodeTTL      = 300 * time.Second
	SMSSendInterval = 60 * time.Second

	imageCodeLength = 4
	smsCodeLength   = 6
)

var mobilePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// ValidMobile 中国大陆11位手机号
func ValidMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}

// SMSSender 短信发送通道
type SMSSender interface {
	SendSMS(ctx context.Context, mobile, code string, ttl time.Duration) error
}

// InterfaceVerifyService defines the verification code service interface
type InterfaceVerifyService interface {
	Issue(ctx context.Context, key, text string, ttl time.Duration) error
	Consume(ctx context.Context, key, candidate string, caseInsensitive bool) error
	GenerateImageCode(ctx context.Context, codeID string) ([]byte, error)
	SendSMSCode(ctx context.Context, mobile, imageCodeID, imageCodeText string) error
	VerifySMSCode(ctx context.Context, mobile, code string) error
}

// VerifyService 图片验证码和短信验证码，一次性使用
type VerifyService struct {
	Client *redis.Client
	Users  repository.UserRepository
	Sender SMSSender
}

// NewVerifyService 创建验证码服务
func NewVerifyService(client *redis.Client, users repository.UserRepository, sender SMSSender) InterfaceVerifyService {
	return &VerifyService{
		Client: client,
		Users:  users,
		Sender: sender,
	}
}

// 1 Issue 写入验证码，覆盖旧值
func (s *VerifyService) Issue(ctx context.Context, key, text string, ttl time.Duration) error {
	if err := s.Client.Set(ctx, key, text, ttl).Err(); err != nil {
		return bizerr.Store(err)
	}
	return nil
}

// 2 Consume 在 MULTI/EXEC 中读取并删除，无论比对结果如何验证码都失效
func (s *VerifyService) Consume(ctx context.Context, key, candidate string, caseInsensitive bool) error {
	kind, _, _ := strings.Cut(key, ":")

	var get *redis.StringCmd
	_, err := s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		get = p.Get(ctx, key)
		p.Del(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return bizerr.Store(err)
	}

	stored, err := get.Result()
	if errors.Is(err, redis.Nil) {
		metrics.VerifyCodes.WithLabelValues(kind, "expired").Inc()
		return bizerr.ErrCodeExpiredOrMissing
	}
	if err != nil {
		return bizerr.Store(err)
	}

	matched := stored == candidate
	if caseInsensitive {
		matched = strings.EqualFold(stored, candidate)
	}
	if !matched {
		metrics.VerifyCodes.WithLabelValues(kind, "mismatch").Inc()
		return bizerr.ErrCodeMismatch
	}
	metrics.VerifyCodes.WithLabelValues(kind, "ok").Inc()
	return nil
}

// 3 GenerateImageCode 生成4位图片验证码，返回PNG
func (s *VerifyService) GenerateImageCode(ctx context.Context, codeID string) ([]byte, error) {
	if strings.TrimSpace(codeID) == "" {
		return nil, bizerr.Validation("缺少验证码编号")
	}

	digits := captcha.RandomDigits(imageCodeLength)
	if err := s.Issue(ctx, ImageCodeKey+codeID, digitsText(digits), ImageCodeTTL); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	img := captcha.NewImage(codeID, digits, captcha.StdWidth, captcha.StdHeight)
	if _, err := img.WriteTo(&buf); err != nil {
		return nil, bizerr.IO(err, "生成验证码图片失败")
	}
	return buf.Bytes(), nil
}

// 4 SendSMSCode 校验图片验证码后发送短信验证码
func (s *VerifyService) SendSMSCode(ctx context.Context, mobile, imageCodeID, imageCodeText string) error {
	if !ValidMobile(mobile) {
		return bizerr.Validation("手机号格式错误")
	}
	if imageCodeID == "" || imageCodeText == "" {
		return bizerr.Validation("参数不完整")
	}

	if err := s.Consume(ctx, ImageCodeKey+imageCodeID, imageCodeText, true); err != nil {
		switch {
		case errors.Is(err, bizerr.ErrCodeExpiredOrMissing):
			return bizerr.ErrCodeExpiredOrMissing.WithMessage("图片验证码已过期")
		case errors.Is(err, bizerr.ErrCodeMismatch):
			return bizerr.ErrCodeMismatch.WithMessage("图片验证码错误")
		}
		return err
	}

	// 先抢占发送间隔标记，并发请求只有一个能通过
	flagKey := SMSSendFlagKey + mobile
	acquired, err := s.Client.SetNX(ctx, flagKey, 1, SMSSendInterval).Result()
	if err != nil {
		return bizerr.Store(err)
	}
	if !acquired {
		return bizerr.ErrSendTooOften
	}

	sent := false
	defer func() {
		if !sent {
			s.Client.Del(context.Background(), flagKey)
		}
	}()

	exists, err := s.Users.MobileExists(ctx, mobile)
	if err != nil {
		return err
	}
	if exists {
		return bizerr.ErrDuplicateMobile
	}

	code := digitsText(captcha.RandomDigits(smsCodeLength))
	if err := s.Issue(ctx, SMSCodeKey+mobile, code, SMSCodeTTL); err != nil {
		return err
	}

	if err := s.Sender.SendSMS(ctx, mobile, code, SMSCodeTTL); err != nil {
		Logger.Error("发送短信验证码失败: %v", err)
		return bizerr.ThirdParty(err, "发送短信失败")
	}
	sent = true
	return nil
}

// 5 VerifySMSCode 注册时校验短信验证码，精确比对
func (s *VerifyService) VerifySMSCode(ctx context.Context, mobile, code string) error {
	if err := s.Consume(ctx, SMSCodeKey+mobile, code, false); err != nil {
		switch {
		case errors.Is(err, bizerr.ErrCodeExpiredOrMissing):
			return bizerr.ErrCodeExpiredOrMissing.WithMessage("短信验证码已过期")
		case errors.Is(err, bizerr.ErrCodeMismatch):
			return bizerr.ErrCodeMismatch.WithMessage("短信验证码错误")
		}
		return err
	}
	return nil
}

// digitsText captcha 的数字(0-9)转为字符
func digitsText(digits []byte) string {
	b := make([]byte, len(digits))
	for i, d := range digits {
		b[i] = '0' + d
	}
	return string(b)
}
