package container

import (
	"sync"

	"github.com/flowerfire37/ihome/internal/domain/repository"
	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/infrastructure/config"
	"github.com/flowerfire37/ihome/internal/infrastructure/storage"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 外部依赖
	images storage.Store
	sender services.SMSSender

	// 基础服务
	jwtService    services.InterfaceJWTService
	redisService  services.InterfaceRedisService
	verifyService services.InterfaceVerifyService

	// 业务服务
	userService  services.InterfaceUserService
	areaService  services.InterfaceAreaService
	houseService services.InterfaceHouseService
	orderService services.InterfaceOrderService

	// 测试时直接注入
	overrides map[string]interface{}

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client, images storage.Store, sender services.SMSSender) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}
	if cfg == nil {
		panic("配置为空")
	}
	if redisClient == nil {
		panic("Redis连接为空")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
		images: images,
		sender: sender,
	}
	container.initializeServices()
	return container
}

// NewServiceContainerWithServices 使用给定的服务创建容器，供测试使用
func NewServiceContainerWithServices(cfg *config.Config, svcs map[string]interface{}) *ServiceContainer {
	return &ServiceContainer{
		config:    cfg,
		overrides: svcs,
	}
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	users := repository.NewUserRepository(c.db)
	orders := repository.NewOrderRepository(c.db)

	c.redisService = services.NewRedisService(c.redis)
	c.jwtService = services.NewJWTService(c.config, c.redis)
	c.verifyService = services.NewVerifyService(c.redis, users, c.sender)

	c.userService = services.NewUserService(users, c.verifyService, c.redisService, c.images)
	c.areaService = services.NewAreaService(c.db, c.redisService)
	c.houseService = services.NewHouseService(c.db, c.redisService, c.areaService, c.images)
	c.orderService = services.NewOrderService(orders, c.config)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.overrides != nil {
		if name == "config" {
			return c.config
		}
		return c.overrides[name]
	}

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "images":
		return c.images
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "verify":
		return c.verifyService
	case "user":
		return c.userService
	case "area":
		return c.areaService
	case "house":
		return c.houseService
	case "order":
		return c.orderService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetRedis 获取Redis客户端
func (c *ServiceContainer) GetRedis() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redis
}
