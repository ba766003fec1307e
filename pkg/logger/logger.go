package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Log 全局日志记录器，SetupLogger 之前只输出到控制台
	Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}).
		With().Timestamp().Logger()

	mu      sync.Mutex
	logFile *os.File
)

// SetupLogger 初始化日志配置：控制台 + logs/当天日期.log
func SetupLogger() error {
	return SetupLoggerWithDir("logs")
}

// SetupLoggerWithDir 在指定目录下初始化日志文件
func SetupLoggerWithDir(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %v", err)
	}

	logFileName := filepath.Join(logDir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f

	// 控制台可读格式，文件保留 JSON 便于采集
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
	Log = zerolog.New(zerolog.MultiLevelWriter(console, f)).
		With().Timestamp().Caller().Logger()
	return nil
}

// SetOutput 替换日志输出，测试中使用
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	Log = zerolog.New(w).With().Timestamp().Logger()
}

// Close 关闭日志文件
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Info 记录信息级别的日志
func Info(format string, v ...interface{}) {
	Log.Info().CallerSkipFrame(1).Msgf(format, v...)
}

// Warning 记录警告级别的日志
func Warning(format string, v ...interface{}) {
	Log.Warn().CallerSkipFrame(1).Msgf(format, v...)
}

// Error 记录错误级别的日志
func Error(format string, v ...interface{}) {
	Log.Error().CallerSkipFrame(1).Msgf(format, v...)
}

// With 返回带组件字段的子日志记录器
func With(component string) zerolog.Logger {
	return Log.With().Str("component", component).Logger()
}
