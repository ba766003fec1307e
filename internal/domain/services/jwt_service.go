package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// SessionKey 服务端会话 session:<sid>
const SessionKey = "session:"

// InterfaceJWTService 定义会话令牌服务接口
type InterfaceJWTService interface {
	CreateSession(ctx context.Context, user *models.User) (string, *Session, error)
	ValidateToken(ctx context.Context, tokenString string) (*Session, error)
	UpdateSessionName(ctx context.Context, sessionID, name string) error
	DestroySession(ctx context.Context, sessionID string) error
}

// Session 保存在Redis中的登录状态
type Session struct {
	SessionID string `json:"session_id"`
	UserID    uint   `json:"user_id"`
	Name      string `json:"name"`
	Mobile    string `json:"mobile"`
}

// JWTClaims 令牌只携带会话ID和用户ID，登出后令牌随会话一起失效
type JWTClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTService 签发令牌并维护Redis会话
type JWTService struct {
	secretKey string
	issuer    string
	ttl       time.Duration
	Client    *redis.Client
}

// NewJWTService 创建会话令牌服务
func NewJWTService(cfg *config.Config, client *redis.Client) InterfaceJWTService {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{
		secretKey: cfg.JWTSecretKey,
		issuer:    "ihome",
		ttl:       ttl,
		Client:    client,
	}
}

// 1 CreateSession 登录或注册成功后创建会话并签发令牌
func (s *JWTService) CreateSession(ctx context.Context, user *models.User) (string, *Session, error) {
	session := &Session{
		SessionID: uuid.New().String(),
		UserID:    user.ID,
		Name:      user.Name,
		Mobile:    user.Mobile,
	}
	if err := s.saveSession(ctx, session); err != nil {
		return "", nil, err
	}

	now := time.Now()
	claims := &JWTClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.SessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secretKey))
	if err != nil {
		return "", nil, err
	}
	return token, session, nil
}

// 2 ValidateToken 校验签名、有效期以及服务端会话是否存在
func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*Session, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, bizerr.ErrUnauthenticated
	}

	data, err := s.Client.Get(ctx, SessionKey+claims.ID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, bizerr.ErrUnauthenticated
		}
		return nil, bizerr.Store(err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil || session.UserID != claims.UserID {
		return nil, bizerr.ErrUnauthenticated
	}
	return &session, nil
}

// 3 UpdateSessionName 修改用户名后同步会话
func (s *JWTService) UpdateSessionName(ctx context.Context, sessionID, name string) error {
	data, err := s.Client.Get(ctx, SessionKey+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return bizerr.ErrUnauthenticated
		}
		return bizerr.Store(err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return bizerr.ErrUnauthenticated
	}
	session.Name = name

	payload, err := json.Marshal(&session)
	if err != nil {
		return err
	}
	// 保留剩余有效期
	if err := s.Client.SetXX(ctx, SessionKey+sessionID, payload, redis.KeepTTL).Err(); err != nil {
		return bizerr.Store(err)
	}
	return nil
}

// 4 DestroySession 退出登录
func (s *JWTService) DestroySession(ctx context.Context, sessionID string) error {
	if err := s.Client.Del(ctx, SessionKey+sessionID).Err(); err != nil {
		return bizerr.Store(err)
	}
	return nil
}

func (s *JWTService) saveSession(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.Client.Set(ctx, SessionKey+session.SessionID, payload, s.ttl).Err(); err != nil {
		return bizerr.Store(err)
	}
	return nil
}
