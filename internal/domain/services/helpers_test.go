package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// memoryUserRepo 内存用户仓库
type memoryUserRepo struct {
	mu     sync.Mutex
	users  map[uint]models.User
	nextID uint
}

func newMemoryUserRepo(users ...models.User) *memoryUserRepo {
	r := &memoryUserRepo{users: make(map[uint]models.User)}
	for _, u := range users {
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *memoryUserRepo) FindByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, bizerr.ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) FindByMobile(_ context.Context, mobile string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Mobile == mobile {
			return &u, nil
		}
	}
	return nil, bizerr.ErrUserNotFound
}

func (r *memoryUserRepo) MobileExists(ctx context.Context, mobile string) (bool, error) {
	_, err := r.FindByMobile(ctx, mobile)
	return err == nil, nil
}

func (r *memoryUserRepo) NameExists(_ context.Context, name string, excludeID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Name == name && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Mobile == user.Mobile || u.Name == user.Name {
			return bizerr.ErrDuplicateMobile
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepo) UpdateFields(_ context.Context, id uint, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return bizerr.ErrUserNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			for _, other := range r.users {
				if other.ID != id && other.Name == v.(string) {
					return gorm.ErrDuplicatedKey
				}
			}
			u.Name = v.(string)
		case "avatar_url":
			u.AvatarURL = v.(string)
		}
	}
	r.users[id] = u
	return nil
}

func (r *memoryUserRepo) SetRealName(_ context.Context, id uint, realName, idCard string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return bizerr.ErrUserNotFound
	}
	if u.RealName != "" || u.IDCard != "" {
		return bizerr.ErrRealNameAlreadySet
	}
	u.RealName, u.IDCard = realName, idCard
	r.users[id] = u
	return nil
}

// fakeSMSSender 记录发送的验证码
type fakeSMSSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (s *fakeSMSSender) SendSMS(_ context.Context, mobile, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[mobile] = code
	return nil
}

// fakeUploader 记录上传的对象
type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[name] = data
	return "http://img.test/" + name, nil
}
