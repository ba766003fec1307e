// @title           iHome HTTP Service API
// @version         1.0
// @description     短租房源、预订订单和验证码服务

// @BasePath  /api/v1.0

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer ` prefix
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/flowerfire37/ihome/internal/app/routes"
	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/infrastructure/config"
	"github.com/flowerfire37/ihome/internal/infrastructure/database"
	"github.com/flowerfire37/ihome/internal/infrastructure/messaging"
	"github.com/flowerfire37/ihome/internal/infrastructure/storage"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"
)

func main() {
	// 初始化日志配置
	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}
	defer Logger.Close()

	// 加载.env文件，失败时使用已有的环境变量
	if err := godotenv.Load(); err != nil {
		Logger.Warning("无法加载.env文件: %v", err)
	} else {
		Logger.Info("成功加载.env文件")
	}

	cfg := config.GetConfig()

	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		Logger.Error("无法创建数据库连接池: %v", err)
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	if err := database.Migrate(db, cfg.DBMigrationMode); err != nil {
		Logger.Error("数据库迁移失败: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		Logger.Error("Redis连接失败: %v", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	images, closeImages, err := storage.NewStore(ctx, cfg)
	cancel()
	if err != nil {
		Logger.Error("初始化图片存储失败: %v", err)
		os.Exit(1)
	}
	defer closeImages()

	// 短信网关断开时只影响发送短信，不阻止启动
	sms := messaging.NewSMSPublisher(cfg)
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := sms.Connect(ctx); err != nil {
		Logger.Warning("MQTT服务连接失败: %v", err)
	}
	cancel()
	defer sms.Disconnect()

	serviceContainer := container.NewServiceContainer(db, cfg, redisClient, images, sms)
	r := routes.SetupRouter(serviceContainer, cfg)

	printSystemInfo(pool)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		Logger.Info("服务器启动在: http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("启动服务器失败: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	Logger.Info("正在关闭服务器...")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Logger.Error("服务器关闭超时: %v", err)
	}
}

func printSystemInfo(pool *database.ConnectionPool) {
	if stats, err := pool.Stats(); err == nil {
		Logger.Info("数据库连接池状态: %+v", stats)
	}

	Logger.Info("系统CPU核心数: %d, GOMAXPROCS: %d", runtime.NumCPU(), runtime.GOMAXPROCS(0))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	Logger.Info("系统内存使用: Alloc=%v MiB, Sys=%v MiB", m.Alloc/1024/1024, m.Sys/1024/1024)
}
