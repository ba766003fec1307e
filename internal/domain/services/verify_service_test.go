package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
)

func newTestVerifyService(t *testing.T, users ...models.User) (*VerifyService, *fakeSMSSender) {
	_, client := newTestRedis(t)
	sender := &fakeSMSSender{}
	svc := NewVerifyService(client, newMemoryUserRepo(users...), sender).(*VerifyService)
	return svc, sender
}

func TestConsumeCaseInsensitiveSingleUse(t *testing.T) {
	svc, _ := newTestVerifyService(t)
	ctx := context.Background()

	if err := svc.Issue(ctx, "image_code:abc", "7f3q", 120*time.Second); err != nil {
		t.Fatal(err)
	}
	if err := svc.Consume(ctx, "image_code:abc", "7F3Q", true); err != nil {
		t.Fatalf("第一次校验应成功: %v", err)
	}
	if err := svc.Consume(ctx, "image_code:abc", "7F3Q", true); !errors.Is(err, bizerr.ErrCodeExpiredOrMissing) {
		t.Errorf("第二次校验应返回 CodeExpiredOrMissing, 实际 %v", err)
	}
}

func TestConsumeMismatchDeletesKey(t *testing.T) {
	svc, _ := newTestVerifyService(t)
	ctx := context.Background()

	svc.Issue(ctx, "sms_code:13800138000", "123456", time.Minute)
	if err := svc.Consume(ctx, "sms_code:13800138000", "654321", false); !errors.Is(err, bizerr.ErrCodeMismatch) {
		t.Fatalf("错误的验证码应返回 CodeMismatch, 实际 %v", err)
	}
	if err := svc.Consume(ctx, "sms_code:13800138000", "123456", false); !errors.Is(err, bizerr.ErrCodeExpiredOrMissing) {
		t.Errorf("比对失败后验证码应失效, 实际 %v", err)
	}
}

func TestConsumeExactCompare(t *testing.T) {
	svc, _ := newTestVerifyService(t)
	ctx := context.Background()

	svc.Issue(ctx, "sms_code:1", "ab12", time.Minute)
	if err := svc.Consume(ctx, "sms_code:1", "AB12", false); !errors.Is(err, bizerr.ErrCodeMismatch) {
		t.Errorf("短信验证码区分大小写, 实际 %v", err)
	}
}

func TestConsumeExpired(t *testing.T) {
	mr, client := newTestRedis(t)
	svc := NewVerifyService(client, newMemoryUserRepo(), &fakeSMSSender{})
	ctx := context.Background()

	svc.Issue(ctx, "image_code:old", "1234", ImageCodeTTL)
	mr.FastForward(ImageCodeTTL + time.Second)
	if err := svc.Consume(ctx, "image_code:old", "1234", true); !errors.Is(err, bizerr.ErrCodeExpiredOrMissing) {
		t.Errorf("过期验证码应返回 CodeExpiredOrMissing, 实际 %v", err)
	}
}

func TestGenerateImageCode(t *testing.T) {
	mr, client := newTestRedis(t)
	svc := NewVerifyService(client, newMemoryUserRepo(), &fakeSMSSender{})

	png, err := svc.GenerateImageCode(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("返回的不是PNG图片")
	}

	text, err := mr.Get("image_code:abc")
	if err != nil || len(text) != 4 {
		t.Fatalf("验证码 = %q, %v", text, err)
	}
	if ttl := mr.TTL("image_code:abc"); ttl != ImageCodeTTL {
		t.Errorf("TTL = %v", ttl)
	}

	if _, err := svc.GenerateImageCode(context.Background(), " "); bizerr.KindOf(err) != bizerr.KindValidation {
		t.Errorf("空编号应返回参数错误, 实际 %v", err)
	}
}

func TestSendSMSCode(t *testing.T) {
	registered := models.User{Name: "old", Mobile: "13900000000"}
	registered.ID = 1
	svc, sender := newTestVerifyService(t, registered)
	ctx := context.Background()
	mobile := "13800138000"

	svc.Issue(ctx, "image_code:c1", "1234", ImageCodeTTL)
	if err := svc.SendSMSCode(ctx, mobile, "c1", "1234"); err != nil {
		t.Fatalf("SendSMSCode: %v", err)
	}
	code := sender.codes[mobile]
	if len(code) != 6 {
		t.Fatalf("短信验证码 = %q", code)
	}

	// 60秒内不能重复发送
	svc.Issue(ctx, "image_code:c2", "5678", ImageCodeTTL)
	if err := svc.SendSMSCode(ctx, mobile, "c2", "5678"); !errors.Is(err, bizerr.ErrSendTooOften) {
		t.Errorf("重复发送应被限制, 实际 %v", err)
	}

	if err := svc.VerifySMSCode(ctx, mobile, code); err != nil {
		t.Errorf("VerifySMSCode: %v", err)
	}
	if err := svc.VerifySMSCode(ctx, mobile, code); !errors.Is(err, bizerr.ErrCodeExpiredOrMissing) {
		t.Errorf("短信验证码只能使用一次, 实际 %v", err)
	}
}

func TestSendSMSCodeRejections(t *testing.T) {
	registered := models.User{Name: "old", Mobile: "13900000000"}
	registered.ID = 1
	svc, sender := newTestVerifyService(t, registered)
	ctx := context.Background()

	if err := svc.SendSMSCode(ctx, "12345", "c", "1"); bizerr.KindOf(err) != bizerr.KindValidation {
		t.Errorf("非法手机号应返回参数错误, 实际 %v", err)
	}

	svc.Issue(ctx, "image_code:c1", "1234", ImageCodeTTL)
	if err := svc.SendSMSCode(ctx, "13800138000", "c1", "0000"); !errors.Is(err, bizerr.ErrCodeMismatch) {
		t.Errorf("图片验证码错误应返回 CodeMismatch, 实际 %v", err)
	}

	svc.Issue(ctx, "image_code:c2", "1234", ImageCodeTTL)
	if err := svc.SendSMSCode(ctx, "13900000000", "c2", "1234"); !errors.Is(err, bizerr.ErrDuplicateMobile) {
		t.Errorf("已注册手机号应返回 DuplicateMobile, 实际 %v", err)
	}

	sender.err = errors.New("broker down")
	svc.Issue(ctx, "image_code:c3", "1234", ImageCodeTTL)
	if err := svc.SendSMSCode(ctx, "13700000000", "c3", "1234"); bizerr.KindOf(err) != bizerr.KindThirdParty {
		t.Errorf("短信通道失败应返回第三方错误, 实际 %v", err)
	}
}

func TestSendSMSCodeConcurrentIntervalFlag(t *testing.T) {
	svc, sender := newTestVerifyService(t)
	ctx := context.Background()
	mobile := "13800138000"

	const n = 8
	for i := 0; i < n; i++ {
		svc.Issue(ctx, fmt.Sprintf("image_code:c%d", i), "1234", ImageCodeTTL)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.SendSMSCode(ctx, mobile, fmt.Sprintf("c%d", i), "1234")
		}(i)
	}
	wg.Wait()

	sent := 0
	for _, err := range errs {
		switch {
		case err == nil:
			sent++
		case !errors.Is(err, bizerr.ErrSendTooOften):
			t.Errorf("意外错误: %v", err)
		}
	}
	if sent != 1 {
		t.Errorf("60秒内应只发送一次, 实际 %d", sent)
	}
	if len(sender.codes) != 1 {
		t.Errorf("短信通道收到 %d 条", len(sender.codes))
	}
}

func TestSendSMSCodeFailureReleasesIntervalFlag(t *testing.T) {
	registered := models.User{Name: "old", Mobile: "13900000000"}
	registered.ID = 1
	svc, sender := newTestVerifyService(t, registered)
	ctx := context.Background()

	svc.Issue(ctx, "image_code:c1", "1234", ImageCodeTTL)
	if err := svc.SendSMSCode(ctx, "13900000000", "c1", "1234"); !errors.Is(err, bizerr.ErrDuplicateMobile) {
		t.Fatalf("err = %v", err)
	}
	if n, _ := svc.Client.Exists(ctx, SMSSendFlagKey+"13900000000").Result(); n != 0 {
		t.Error("已注册手机号不应保留发送间隔标记")
	}

	mobile := "13700000000"
	sender.err = errors.New("broker down")
	svc.Issue(ctx, "image_code:c2", "1234", ImageCodeTTL)
	if err := svc.SendSMSCode(ctx, mobile, "c2", "1234"); bizerr.KindOf(err) != bizerr.KindThirdParty {
		t.Fatalf("err = %v", err)
	}

	// 通道恢复后可以立即重试
	sender.err = nil
	svc.Issue(ctx, "image_code:c3", "1234", ImageCodeTTL)
	if err := svc.SendSMSCode(ctx, mobile, "c3", "1234"); err != nil {
		t.Errorf("发送失败后应允许重试: %v", err)
	}
}
