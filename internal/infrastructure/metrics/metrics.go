// Package metrics 汇总服务的 Prometheus 指标，使用独立的 Registry。
package metrics

import (
	"fmt"
	"net/http"

	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ihome"

// Registry 服务的指标注册表
var Registry = prometheus.NewRegistry()

var (
	// HTTPRequests 按路由模板、方法和状态码统计的请求数
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// HTTPDuration 请求耗时
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// OrdersCreated 创建成功的订单数
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "booking",
		Name:      "orders_created_total",
		Help:      "Orders created",
	})

	// OrdersRejected 创建失败的订单，按原因统计
	OrdersRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "booking",
		Name:      "orders_create_failed_total",
		Help:      "Order creations refused, by reason",
	}, []string{"reason"})

	// OrderTransitions 订单状态流转次数
	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "booking",
		Name:      "order_transitions_total",
		Help:      "Applied order status transitions",
	}, []string{"from", "to"})

	// VerifyCodes 验证码校验结果
	VerifyCodes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "verify",
		Name:      "consume_total",
		Help:      "Verification code consume attempts by kind and result",
	}, []string{"kind", "result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPDuration,
		OrdersCreated,
		OrdersRejected,
		OrderTransitions,
		VerifyCodes,
	)
}

// Handler /metrics 处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		ErrorLog:      errorLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// errorLogger 实现 promhttp.Logger
type errorLogger struct{}

func (errorLogger) Println(v ...interface{}) {
	Logger.Error("metrics: %s", fmt.Sprint(v...))
}
