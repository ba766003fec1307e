// cron 订单定时任务: 入住结束的订单转为待评价，超时未评价的订单自动完成。
// 多实例部署时通过Redis锁保证同一时刻只有一个实例执行。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowerfire37/ihome/internal/app/jobs"
	"github.com/flowerfire37/ihome/internal/domain/repository"
	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/infrastructure/config"
	"github.com/flowerfire37/ihome/internal/infrastructure/database"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}
	defer Logger.Close()

	if err := godotenv.Load(); err != nil {
		Logger.Warning("无法加载.env文件: %v", err)
	}
	cfg := config.GetConfig()

	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		Logger.Error("无法创建数据库连接池: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		Logger.Error("Redis连接失败: %v", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	orderService := services.NewOrderService(repository.NewOrderRepository(pool.GetDB()), cfg)
	sweeper := jobs.NewOrderSweeper(orderService, jobs.NewSweepLock(redisClient, cfg.OrderSweepLockExpiry))

	cronScheduler := cron.New(cron.WithSeconds())
	_, err = cronScheduler.AddFunc(cfg.OrderSweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.OrderSweepLockExpiry)
		defer cancel()
		if _, err := sweeper.Run(ctx); err != nil {
			Logger.Error("[CRON] 订单任务失败: %v", err)
		}
	})
	if err != nil {
		Logger.Error("添加订单任务失败: %v", err)
		os.Exit(1)
	}

	cronScheduler.Start()
	Logger.Info("定时任务已启动: %s", cfg.OrderSweepSpec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	Logger.Info("正在停止定时任务...")
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		Logger.Info("定时任务已停止")
	case <-time.After(30 * time.Second):
		Logger.Warning("等待定时任务结束超时")
	}
}
