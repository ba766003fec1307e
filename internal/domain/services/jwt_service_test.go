package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/infrastructure/config"
)

func newTestJWTService(t *testing.T) (*JWTService, func(time.Duration)) {
	mr, client := newTestRedis(t)
	cfg := &config.Config{JWTSecretKey: "test-secret", SessionTTL: 24 * time.Hour}
	return NewJWTService(cfg, client).(*JWTService), mr.FastForward
}

func testUser() *models.User {
	u := &models.User{Name: "13800138000", Mobile: "13800138000"}
	u.ID = 7
	return u
}

func TestCreateAndValidateSession(t *testing.T) {
	svc, _ := newTestJWTService(t)
	ctx := context.Background()

	token, session, err := svc.CreateSession(ctx, testUser())
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.UserID != 7 || got.SessionID != session.SessionID || got.Name != "13800138000" {
		t.Errorf("会话 = %+v", got)
	}

	if err := svc.UpdateSessionName(ctx, session.SessionID, "alice"); err != nil {
		t.Fatal(err)
	}
	if got, _ := svc.ValidateToken(ctx, token); got == nil || got.Name != "alice" {
		t.Errorf("修改名字后会话 = %+v", got)
	}

	if err := svc.DestroySession(ctx, session.SessionID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(ctx, token); !errors.Is(err, bizerr.ErrUnauthenticated) {
		t.Errorf("登出后令牌应失效, 实际 %v", err)
	}
}

func TestSessionExpires(t *testing.T) {
	svc, fastForward := newTestJWTService(t)
	ctx := context.Background()

	token, _, _ := svc.CreateSession(ctx, testUser())
	fastForward(25 * time.Hour)
	if _, err := svc.ValidateToken(ctx, token); !errors.Is(err, bizerr.ErrUnauthenticated) {
		t.Errorf("会话过期后应返回未登录, 实际 %v", err)
	}
}

func TestValidateTokenRejectsForgery(t *testing.T) {
	svc, _ := newTestJWTService(t)
	ctx := context.Background()

	_, session, _ := svc.CreateSession(ctx, testUser())
	claims := &JWTClaims{
		UserID:           7,
		RegisteredClaims: jwt.RegisteredClaims{ID: session.SessionID},
	}
	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))

	for _, token := range []string{"", "not-a-token", forged} {
		if _, err := svc.ValidateToken(ctx, token); !errors.Is(err, bizerr.ErrUnauthenticated) {
			t.Errorf("令牌 %q 应被拒绝, 实际 %v", token, err)
		}
	}
}
