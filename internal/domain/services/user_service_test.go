package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/error/bizerr"

	"golang.org/x/crypto/bcrypt"
)

type userFixture struct {
	svc      *UserService
	users    *memoryUserRepo
	verify   *VerifyService
	uploader *fakeUploader
}

func newUserFixture(t *testing.T, users ...models.User) *userFixture {
	_, client := newTestRedis(t)
	repo := newMemoryUserRepo(users...)
	verify := NewVerifyService(client, repo, &fakeSMSSender{}).(*VerifyService)
	uploader := &fakeUploader{}
	svc := NewUserService(repo, verify, NewRedisService(client), uploader).(*UserService)
	return &userFixture{svc: svc, users: repo, verify: verify, uploader: uploader}
}

func hashed(t *testing.T, password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func TestRegister(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	mobile := "13800138000"

	if _, err := f.svc.Register(ctx, mobile, "123456", "pw1", "pw2"); bizerr.KindOf(err) != bizerr.KindValidation {
		t.Errorf("两次密码不一致应返回参数错误, 实际 %v", err)
	}
	if _, err := f.svc.Register(ctx, mobile, "123456", "secret", "secret"); !errors.Is(err, bizerr.ErrCodeExpiredOrMissing) {
		t.Errorf("未发送验证码应返回 CodeExpiredOrMissing, 实际 %v", err)
	}

	f.verify.Issue(ctx, SMSCodeKey+mobile, "123456", SMSCodeTTL)
	user, err := f.svc.Register(ctx, mobile, "123456", "secret", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Name != mobile || user.PasswordHash == "secret" {
		t.Errorf("用户 = %+v", user)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")) != nil {
		t.Error("密码哈希不匹配")
	}

	f.verify.Issue(ctx, SMSCodeKey+mobile, "654321", SMSCodeTTL)
	if _, err := f.svc.Register(ctx, mobile, "654321", "secret", "secret"); !errors.Is(err, bizerr.ErrDuplicateMobile) {
		t.Errorf("重复注册应返回 DuplicateMobile, 实际 %v", err)
	}
}

func TestLoginFailureLimit(t *testing.T) {
	u := models.User{Name: "alice", Mobile: "13800138000", PasswordHash: hashed(t, "secret")}
	u.ID = 1
	f := newUserFixture(t, u)
	ctx := context.Background()
	ip := "10.0.0.1"

	if got, err := f.svc.Login(ctx, "13800138000", "secret", ip); err != nil || got.ID != 1 {
		t.Fatalf("Login = %+v, %v", got, err)
	}

	for i := 0; i < LoginMaxFailures; i++ {
		if _, err := f.svc.Login(ctx, "13800138000", "wrong", ip); !errors.Is(err, bizerr.ErrLoginFailed) {
			t.Fatalf("第 %d 次错误密码应返回 LoginFailed, 实际 %v", i+1, err)
		}
	}
	if _, err := f.svc.Login(ctx, "13800138000", "secret", ip); !errors.Is(err, bizerr.ErrLoginLimited) {
		t.Errorf("失败5次后应被限制, 实际 %v", err)
	}
	if _, err := f.svc.Login(ctx, "13800138000", "secret", "10.0.0.2"); err != nil {
		t.Errorf("其他IP不受影响: %v", err)
	}
	if _, err := f.svc.Login(ctx, "13911112222", "secret", "10.0.0.3"); !errors.Is(err, bizerr.ErrLoginFailed) {
		t.Errorf("未注册手机号应返回 LoginFailed, 实际 %v", err)
	}
}

func TestUpdateName(t *testing.T) {
	a := models.User{Name: "alice", Mobile: "13800000001"}
	a.ID = 1
	b := models.User{Name: "bob", Mobile: "13800000002"}
	b.ID = 2
	f := newUserFixture(t, a, b)
	ctx := context.Background()

	if err := f.svc.UpdateName(ctx, 2, "alice"); !errors.Is(err, bizerr.ErrDuplicateName) {
		t.Errorf("重名应返回 DuplicateName, 实际 %v", err)
	}
	if err := f.svc.UpdateName(ctx, 2, "  "); bizerr.KindOf(err) != bizerr.KindValidation {
		t.Errorf("空名字应返回参数错误, 实际 %v", err)
	}
	if err := f.svc.UpdateName(ctx, 2, " carol "); err != nil {
		t.Fatal(err)
	}
	if got, _ := f.svc.GetProfile(ctx, 2); got.Name != "carol" {
		t.Errorf("名字 = %s", got.Name)
	}
}

func TestUpdateAvatar(t *testing.T) {
	u := models.User{Name: "alice", Mobile: "13800000001"}
	u.ID = 1
	f := newUserFixture(t, u)
	ctx := context.Background()

	url, err := f.svc.UpdateAvatar(ctx, 1, "me.PNG", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "http://img.test/avatar/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %s", url)
	}
	if got, _ := f.svc.GetProfile(ctx, 1); got.AvatarURL != url {
		t.Errorf("avatar_url = %s", got.AvatarURL)
	}

	f.uploader.err = errors.New("bucket missing")
	if _, err := f.svc.UpdateAvatar(ctx, 1, "me.png", "image/png", strings.NewReader("x")); bizerr.KindOf(err) != bizerr.KindThirdParty {
		t.Errorf("上传失败应返回第三方错误, 实际 %v", err)
	}
}

func TestSetAuthOnce(t *testing.T) {
	u := models.User{Name: "alice", Mobile: "13800000001"}
	u.ID = 1
	f := newUserFixture(t, u)
	ctx := context.Background()

	if err := f.svc.SetAuth(ctx, 1, "张三", "12345"); bizerr.KindOf(err) != bizerr.KindValidation {
		t.Errorf("身份证号格式错误应返回参数错误, 实际 %v", err)
	}
	if err := f.svc.SetAuth(ctx, 1, "张三", "11010119900307123X"); err != nil {
		t.Fatal(err)
	}
	if got, _ := f.svc.GetAuth(ctx, 1); got.RealName != "张三" {
		t.Errorf("real_name = %s", got.RealName)
	}
	if err := f.svc.SetAuth(ctx, 1, "李四", "110101199003071234"); !errors.Is(err, bizerr.ErrRealNameAlreadySet) {
		t.Errorf("重复认证应返回 RealNameAlreadySet, 实际 %v", err)
	}
}

func TestRegisterShortPasswordKeepsSMSCode(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	mobile := "13800138001"
	f.verify.Issue(ctx, SMSCodeKey+mobile, "123456", SMSCodeTTL)

	if _, err := f.svc.Register(ctx, mobile, "123456", "abc", "abc"); bizerr.KindOf(err) != bizerr.KindValidation {
		t.Fatalf("短密码 err = %v", err)
	}
	if n, _ := f.verify.Client.Exists(ctx, SMSCodeKey+mobile).Result(); n != 1 {
		t.Error("参数错误时不应消耗短信验证码")
	}
}
