package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss 缓存不存在
var ErrCacheMiss = errors.New("缓存不存在")

// 缓存键和有效期
const (
	AreaInfoKey      = "area_info"
	HomePageDataKey  = "home_page_data"
	AreaInfoTTL      = 7200 * time.Second
	HomePageDataTTL  = 7200 * time.Second
	LoginAccessKey   = "login_access_nums:"
	LoginAccessTTL   = 600 * time.Second
	LoginMaxFailures = 5
)

// InterfaceRedisService defines the Redis service interface
type InterfaceRedisService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
}

// NewRedisService creates a new Redis service
func NewRedisService(client *redis.Client) InterfaceRedisService {
	return &RedisService{
		Client: client,
	}
}

// 1 Set 以JSON格式写入
func (s *RedisService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, key, jsonValue, expiration).Err()
}

// 2 Get 读取JSON，不存在时返回 ErrCacheMiss
func (s *RedisService) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := s.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(val, dest)
}

// 3 Delete deletes keys from Redis
func (s *RedisService) Delete(ctx context.Context, keys ...string) error {
	return s.Client.Del(ctx, keys...).Err()
}

// 4 IncrWithExpire 计数加一并刷新有效期
func (s *RedisService) IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, expiration)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// 5 GetInt 不存在时返回0
func (s *RedisService) GetInt(ctx context.Context, key string) (int64, error) {
	n, err := s.Client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
