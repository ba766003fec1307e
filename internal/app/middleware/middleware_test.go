package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowerfire37/ihome/internal/domain/models"
	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/error/bizerr"
	"github.com/flowerfire37/ihome/internal/error/code"
	"github.com/flowerfire37/ihome/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeJWT 只认 "good" 令牌
type fakeJWT struct{}

func (fakeJWT) CreateSession(context.Context, *models.User) (string, *services.Session, error) {
	return "", nil, nil
}

func (fakeJWT) ValidateToken(_ context.Context, token string) (*services.Session, error) {
	if token != "good" {
		return nil, bizerr.ErrUnauthenticated
	}
	return &services.Session{SessionID: "sid", UserID: 7, Name: "tom"}, nil
}

func (fakeJWT) UpdateSessionName(context.Context, string, string) error { return nil }
func (fakeJWT) DestroySession(context.Context, string) error            { return nil }

func decodeErrno(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Errno string `json:"errno"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是 JSON: %s", w.Body.String())
	}
	return body.Errno
}

func TestLoginRequired(t *testing.T) {
	r := gin.New()
	r.GET("/me", LoginRequired(fakeJWT{}), func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"errno": "0", "id": id, "name": CurrentSession(c).Name})
	})

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
		errno  string
	}{
		{"无令牌", func(*http.Request) {}, http.StatusUnauthorized, code.SESSIONERR},
		{"无效令牌", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized, code.SESSIONERR},
		{"Bearer头", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK, code.OK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "good"}) }, http.StatusOK, code.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status || decodeErrno(t, w) != tt.errno {
				t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestOptionalLogin(t *testing.T) {
	r := gin.New()
	r.GET("/detail", OptionalLogin(fakeJWT{}), func(c *gin.Context) {
		if _, ok := CurrentUserID(c); ok {
			c.String(http.StatusOK, "user")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/detail", nil))
	if w.Body.String() != "anonymous" {
		t.Errorf("未登录 = %s", w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/detail", nil)
	req.Header.Set("Authorization", "good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "user" {
		t.Errorf("已登录 = %s", w.Body.String())
	}
}

func TestIPRateLimiter(t *testing.T) {
	r := gin.New()
	r.GET("/sms", IPRateLimiter(0.001, 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/sms", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if send("10.0.0.1") != http.StatusOK || send("10.0.0.1") != http.StatusOK {
		t.Fatal("突发范围内应放行")
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("超出突发应限流, status = %d", code)
	}
	if send("10.0.0.2") != http.StatusOK {
		t.Error("其他IP不应受影响")
	}
}

func TestLimiterStoreSweep(t *testing.T) {
	store := newLimiterStore(1, 1, time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	store.get("a")
	store.get("b")
	now = now.Add(2 * time.Minute)
	store.get("c")

	if store.size() != 1 {
		t.Errorf("过期的键应被清理, size = %d", store.size())
	}
}

func TestResponseCache(t *testing.T) {
	rc := NewResponseCache(time.Minute, 10)
	calls := 0
	r := gin.New()
	r.GET("/houses", rc.Middleware(), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"errno": "0", "calls": calls})
	})

	get := func(url string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
		return w
	}

	first := get("/houses?aid=1&p=1")
	second := get("/houses?p=1&aid=1")
	if calls != 1 || second.Header().Get("X-Cache") != "HIT" || first.Body.String() != second.Body.String() {
		t.Errorf("参数顺序不同也应命中缓存, calls = %d", calls)
	}

	get("/houses?aid=2")
	if calls != 2 {
		t.Errorf("不同参数不应命中, calls = %d", calls)
	}

	rc.Purge()
	get("/houses?aid=1&p=1")
	if calls != 3 {
		t.Errorf("清除后应重新查询, calls = %d", calls)
	}
	if stats := rc.Stats(); stats["total_items"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	rc := NewResponseCache(time.Minute, 10)
	calls := 0
	r := gin.New()
	r.GET("/houses", rc.Middleware(), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusBadRequest, gin.H{"errno": code.PARAMERR})
	})
	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/houses", nil))
	}
	if calls != 2 {
		t.Errorf("错误响应不应缓存, calls = %d", calls)
	}
}

func TestCSRFProtect(t *testing.T) {
	r := gin.New()
	r.Use(CSRFProtect())
	r.POST("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		method string
		cookie string
		header string
		auth   string
		status int
	}{
		{"GET 不校验", http.MethodGet, "", "", "", http.StatusOK},
		{"缺少cookie", http.MethodPost, "", "t1", "", http.StatusTooManyRequests},
		{"不一致", http.MethodPost, "t1", "t2", "", http.StatusTooManyRequests},
		{"一致", http.MethodPost, "t1", "t1", "", http.StatusOK},
		{"Authorization 跳过", http.MethodPost, "", "", "Bearer x", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/orders", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(CSRFHeaderName, tt.header)
			}
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Errorf("status = %d, 期望 %d", w.Code, tt.status)
			}
		})
	}
}

func TestIssueCSRFCookie(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, IssueCSRFCookie(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CSRFCookieName || cookies[0].Value != w.Body.String() {
		t.Fatalf("cookies = %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "keep"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "keep" || len(w.Result().Cookies()) != 0 {
		t.Error("已有cookie时不应重新生成")
	}
}

func TestMetricsMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/v1.0/areas", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := metrics.HTTPRequests.WithLabelValues("/api/v1.0/areas", http.MethodGet, "200")
	before := testutil.ToFloat64(counter)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1.0/areas", nil))
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("请求计数 = %v, 期望 %v", got, before+1)
	}
}
