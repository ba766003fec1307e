package middleware

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// 缓存条目
type cacheEntry struct {
	Content     []byte
	ContentType string
	Expiration  time.Time
}

// ResponseCache 进程内响应缓存，只缓存 GET 的 200 响应
type ResponseCache struct {
	mu         sync.RWMutex
	items      map[string]cacheEntry
	expiration time.Duration
	maxItems   int
	now        func() time.Time
}

// NewResponseCache 创建响应缓存
func NewResponseCache(expiration time.Duration, maxItems int) *ResponseCache {
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &ResponseCache{
		items:      make(map[string]cacheEntry),
		expiration: expiration,
		maxItems:   maxItems,
		now:        time.Now,
	}
}

// cacheKey 路径加排序后的查询参数
func cacheKey(c *gin.Context) string {
	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.Request.URL.Path)
	b.WriteByte('?')
	for _, k := range keys {
		values := query[k]
		sort.Strings(values)
		for _, v := range values {
			b.WriteString(k + "=" + v + "&")
		}
	}

	hasher := md5.New()
	hasher.Write([]byte(b.String()))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Middleware 缓存命中时直接返回
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c)
		rc.mu.RLock()
		entry, found := rc.items[key]
		rc.mu.RUnlock()

		if found && entry.Expiration.After(rc.now()) {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, entry.ContentType, entry.Content)
			c.Abort()
			return
		}

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Next()

		if writer.Status() == http.StatusOK {
			rc.store(key, cacheEntry{
				Content:     writer.body.Bytes(),
				ContentType: writer.Header().Get("Content-Type"),
				Expiration:  rc.now().Add(rc.expiration),
			})
		}
	}
}

// store 写入缓存，满了先清理过期条目，仍然满则清空
func (rc *ResponseCache) store(key string, entry cacheEntry) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if len(rc.items) >= rc.maxItems {
		now := rc.now()
		for k, e := range rc.items {
			if !e.Expiration.After(now) {
				delete(rc.items, k)
			}
		}
		if len(rc.items) >= rc.maxItems {
			rc.items = make(map[string]cacheEntry)
		}
	}
	rc.items[key] = entry
}

// Purge 清除所有缓存
func (rc *ResponseCache) Purge() {
	rc.mu.Lock()
	rc.items = make(map[string]cacheEntry)
	rc.mu.Unlock()
}

// Stats 获取缓存统计信息
func (rc *ResponseCache) Stats() map[string]interface{} {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	now := rc.now()
	expired := 0
	for _, e := range rc.items {
		if !e.Expiration.After(now) {
			expired++
		}
	}
	return map[string]interface{}{
		"total_items":   len(rc.items),
		"expired_items": expired,
	}
}

// 自定义响应写入器，用于捕获响应内容
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 同时写入原始响应和缓冲区
func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// WriteString 同时写入原始响应和缓冲区
func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
