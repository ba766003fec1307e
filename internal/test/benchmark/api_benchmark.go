package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

// APIBenchmark 定义API基准测试结构
type APIBenchmark struct {
	BaseURL     string
	Concurrency int
	Requests    int
	AuthToken   string
	Client      *http.Client
}

// BenchmarkResult 定义基准测试结果
type BenchmarkResult struct {
	URL            string         `json:"url"`
	Method         string         `json:"method"`
	Concurrency    int            `json:"concurrency"`
	TotalRequests  int            `json:"total_requests"`
	SuccessCount   int            `json:"success_count"`
	FailureCount   int            `json:"failure_count"`
	TotalTime      time.Duration  `json:"total_time"`
	AverageTime    time.Duration  `json:"average_time"`
	P95Time        time.Duration  `json:"p95_time"`
	MaxTime        time.Duration  `json:"max_time"`
	RequestsPerSec float64        `json:"requests_per_sec"`
	StatusCodes    map[int]int    `json:"status_codes"`
	Errnos         map[string]int `json:"errnos"`
	Errors         []string       `json:"errors"`
}

// RequestResult 定义单个请求的结果
type RequestResult struct {
	Duration   time.Duration
	StatusCode int
	Errno      string
	Error      error
}

// PayloadFunc 第 i 个请求的请求体，nil 表示无请求体
type PayloadFunc func(i int) interface{}

// NewAPIBenchmark 创建新的API基准测试实例
func NewAPIBenchmark(baseURL string, concurrency, requests int, authToken string) *APIBenchmark {
	return &APIBenchmark{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Requests:    requests,
		AuthToken:   authToken,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RunGET 执行GET请求的基准测试
func (b *APIBenchmark) RunGET(path string) *BenchmarkResult {
	return b.Run(http.MethodGet, path, nil)
}

// RunPOST 所有请求使用同一个请求体
func (b *APIBenchmark) RunPOST(path string, payload interface{}) *BenchmarkResult {
	return b.Run(http.MethodPost, path, func(int) interface{} { return payload })
}

// Run 执行基准测试，请求成功以响应中的 errno 为 "0" 为准
func (b *APIBenchmark) Run(method, path string, payload PayloadFunc) *BenchmarkResult {
	url := b.BaseURL + path
	results := make(chan RequestResult, b.Requests)
	var wg sync.WaitGroup
	limiter := make(chan struct{}, b.Concurrency)

	startTime := time.Now()
	for i := 0; i < b.Requests; i++ {
		var body []byte
		if payload != nil {
			data, err := json.Marshal(payload(i))
			if err != nil {
				results <- RequestResult{Error: fmt.Errorf("JSON编码错误: %v", err)}
				continue
			}
			body = data
		}

		wg.Add(1)
		go func(body []byte) {
			defer wg.Done()
			limiter <- struct{}{}
			defer func() { <-limiter }()
			results <- b.do(method, url, body)
		}(body)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &BenchmarkResult{
		URL:           url,
		Method:        method,
		Concurrency:   b.Concurrency,
		TotalRequests: b.Requests,
		StatusCodes:   make(map[int]int),
		Errnos:        make(map[string]int),
	}
	var durations []time.Duration
	var totalTime time.Duration
	for r := range results {
		if r.Error != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, r.Error.Error())
			continue
		}
		durations = append(durations, r.Duration)
		totalTime += r.Duration
		result.StatusCodes[r.StatusCode]++
		result.Errnos[r.Errno]++
		if r.Errno == "0" {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}

	result.TotalTime = time.Since(startTime)
	result.RequestsPerSec = float64(b.Requests) / result.TotalTime.Seconds()
	if len(durations) > 0 {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		result.AverageTime = totalTime / time.Duration(len(durations))
		result.P95Time = durations[(len(durations)*95-1)/100]
		result.MaxTime = durations[len(durations)-1]
	}
	return result
}

// do 发送单个请求并解析响应中的 errno
func (b *APIBenchmark) do(method, url string, body []byte) RequestResult {
	start := time.Now()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return RequestResult{Error: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.AuthToken)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return RequestResult{Error: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return RequestResult{Error: err}
	}
	var envelope struct {
		Errno string `json:"errno"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return RequestResult{Error: fmt.Errorf("响应不是JSON: status %d", resp.StatusCode)}
	}
	return RequestResult{
		Duration:   time.Since(start),
		StatusCode: resp.StatusCode,
		Errno:      envelope.Errno,
	}
}

// PrintResult 打印基准测试结果
func (r *BenchmarkResult) PrintResult() {
	fmt.Printf("基准测试结果: %s %s\n", r.Method, r.URL)
	fmt.Printf("并发数: %d, 总请求数: %d, 成功: %d, 失败: %d\n", r.Concurrency, r.TotalRequests, r.SuccessCount, r.FailureCount)
	fmt.Printf("总耗时: %s, 平均: %s, P95: %s, 最大: %s\n", r.TotalTime, r.AverageTime, r.P95Time, r.MaxTime)
	fmt.Printf("每秒请求数: %.2f\n", r.RequestsPerSec)
	fmt.Printf("errno分布: %v\n", r.Errnos)
	for i, err := range r.Errors {
		if i >= 5 {
			fmt.Printf("  ... 还有 %d 个错误\n", len(r.Errors)-5)
			break
		}
		fmt.Printf("  %s\n", err)
	}
}
