package routes

import (
	"time"

	_ "github.com/flowerfire37/ihome/docs"
	"github.com/flowerfire37/ihome/internal/app/controllers"
	"github.com/flowerfire37/ihome/internal/app/middleware"
	"github.com/flowerfire37/ihome/internal/domain/services"
	"github.com/flowerfire37/ihome/internal/domain/services/container"
	"github.com/flowerfire37/ihome/internal/infrastructure/config"
	"github.com/flowerfire37/ihome/internal/infrastructure/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(container *container.ServiceContainer, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.CSRFHeaderName},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.Metrics())

	r.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	r.GET("/health", controllers.HandleHealthFunc(container, "status"))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerRoutes(r, container, cfg)

	// 其余路径为前端页面
	r.NoRoute(controllers.HandleHTMLFunc(cfg.StaticDir))
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(r *gin.Engine, container *container.ServiceContainer, cfg *config.Config) {
	api := r.Group("/api/v1.0")
	if cfg.CSRFEnabled {
		api.Use(middleware.CSRFProtect())
	}
	api.Use(middleware.IPRateLimiter(20, 40))

	jwtService := container.GetService("jwt").(services.InterfaceJWTService)

	registerPublicRoutes(api, container, jwtService)
	registerAuthenticatedRoutes(api, container, jwtService)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(api *gin.RouterGroup, container *container.ServiceContainer, jwtService services.InterfaceJWTService) {
	// 验证码，短信另有60秒间隔限制
	api.GET("/image_codes/:code_id", middleware.IPRateLimiter(2, 10), controllers.HandleVerifyFunc(container, "imageCode"))
	api.GET("/sms_codes/:mobile", middleware.IPRateLimiter(0.2, 3), controllers.HandleVerifyFunc(container, "smsCode"))

	// 注册登录
	api.POST("/users", controllers.HandleJWTFunc(container, "register"))
	api.POST("/sessions", controllers.HandleJWTFunc(container, "login"))
	api.GET("/session", middleware.OptionalLogin(jwtService), controllers.HandleJWTFunc(container, "getSession"))

	api.GET("/areas", controllers.HandleAreaFunc(container))

	// 搜索结果短时间缓存
	searchCache := middleware.NewResponseCache(10*time.Second, 1000)
	api.GET("/houses", searchCache.Middleware(), controllers.HandleHouseFunc(container, "search"))
	api.GET("/houses/index", controllers.HandleHouseFunc(container, "getIndex"))
	api.GET("/houses/:house_id", middleware.OptionalLogin(jwtService), controllers.HandleHouseFunc(container, "getDetail"))

	api.GET("/images/:image_id", controllers.HandleImageFunc(container))
}

// registerAuthenticatedRoutes 注册需要登录的路由
func registerAuthenticatedRoutes(api *gin.RouterGroup, container *container.ServiceContainer, jwtService services.InterfaceJWTService) {
	auth := api.Group("")
	auth.Use(middleware.LoginRequired(jwtService))

	auth.DELETE("/session", controllers.HandleJWTFunc(container, "logout"))

	// 个人信息
	userGroup := auth.Group("/user")
	userGroup.GET("", controllers.HandleUserFunc(container, "getProfile"))
	userGroup.PUT("/name", controllers.HandleUserFunc(container, "updateName"))
	userGroup.POST("/avatar", controllers.HandleUserFunc(container, "uploadAvatar"))
	userGroup.GET("/auth", controllers.HandleUserFunc(container, "getAuth"))
	userGroup.POST("/auth", controllers.HandleUserFunc(container, "setAuth"))
	userGroup.GET("/houses", controllers.HandleHouseFunc(container, "listUserHouses"))
	userGroup.GET("/orders", controllers.HandleOrderFunc(container, "listOrders"))

	// 房源
	auth.POST("/houses/info", controllers.HandleHouseFunc(container, "createHouse"))
	auth.POST("/houses/:house_id/images", controllers.HandleHouseFunc(container, "uploadImage"))

	// 订单
	orderGroup := auth.Group("/orders")
	orderGroup.POST("", middleware.CombinedRateLimiter(1, 5), controllers.HandleOrderFunc(container, "createOrder"))
	orderGroup.GET("/:order_id", controllers.HandleOrderFunc(container, "getOrder"))
	orderGroup.PUT("/:order_id/status", controllers.HandleOrderFunc(container, "updateStatus"))
	orderGroup.PUT("/:order_id/comment", controllers.HandleOrderFunc(container, "comment"))
}
