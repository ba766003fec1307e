package middleware

import (
	"sync"
	"time"

	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/error/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitor 每个键一个令牌桶，lastSeen 用于清理
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore 键到令牌桶的映射
type limiterStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(r float64, burst int, ttl time.Duration) *limiterStore {
	return &limiterStore{
		visitors:  make(map[string]*visitor),
		rate:      rate.Limit(r),
		burst:     burst,
		ttl:       ttl,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// get 返回键对应的令牌桶，顺带清理超过 ttl 未访问的键
func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.ttl > 0 && now.Sub(s.lastSweep) > s.ttl {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) > s.ttl {
				delete(s.visitors, k)
			}
		}
		s.lastSweep = now
	}

	if v, ok := s.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	limiter := rate.NewLimiter(s.rate, s.burst)
	s.visitors[key] = &visitor{limiter: limiter, lastSeen: now}
	return limiter
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// RateLimiterConfig 限流器配置
type RateLimiterConfig struct {
	Rate       float64                   // 每秒允许的请求数
	Burst      int                       // 允许的突发请求数
	ExpiryTime time.Duration             // 限流器过期时间
	LimitType  string                    // 限流类型: "ip", "path", "combined"
	KeyFunc    func(*gin.Context) string // 自定义键生成函数
}

// DefaultRateLimiterConfig 默认限流器配置
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:       1,
	Burst:      5,
	ExpiryTime: 10 * time.Minute,
	LimitType:  "ip",
}

// limitKey 根据限流类型生成键
func limitKey(c *gin.Context, cfg RateLimiterConfig) string {
	switch cfg.LimitType {
	case "path":
		return c.FullPath()
	case "combined":
		return c.ClientIP() + ":" + c.FullPath()
	case "custom":
		if cfg.KeyFunc != nil {
			return cfg.KeyFunc(c)
		}
	}
	return c.ClientIP()
}

// RateLimiter 创建限流中间件
func RateLimiter(config ...RateLimiterConfig) gin.HandlerFunc {
	var cfg RateLimiterConfig
	if len(config) > 0 {
		cfg = config[0]
	} else {
		cfg = DefaultRateLimiterConfig
	}

	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.ExpiryTime <= 0 {
		cfg.ExpiryTime = DefaultRateLimiterConfig.ExpiryTime
	}
	if cfg.LimitType == "" {
		cfg.LimitType = DefaultRateLimiterConfig.LimitType
	}

	store := newLimiterStore(cfg.Rate, cfg.Burst, cfg.ExpiryTime)
	return func(c *gin.Context) {
		if !store.get(limitKey(c, cfg)).Allow() {
			response.FailWithMessage(c, code.REQERR, "请求频率过高，请稍后再试", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IPRateLimiter 按IP限流
func IPRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      rate,
		Burst:     burst,
		LimitType: "ip",
	})
}

// PathRateLimiter 按路由限流
func PathRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      rate,
		Burst:     burst,
		LimitType: "path",
	})
}

// CombinedRateLimiter 按IP和路由组合限流
func CombinedRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      rate,
		Burst:     burst,
		LimitType: "combined",
	})
}
