// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SniperTei/nan-monitor-backend/internal/config"
	"github.com/SniperTei/nan-monitor-backend/internal/handler"
	"github.com/SniperTei/nan-monitor-backend/internal/middleware"
	"github.com/SniperTei/nan-monitor-backend/internal/model"
	"github.com/SniperTei/nan-monitor-backend/internal/repository"
	"github.com/SniperTei/nan-monitor-backend/internal/service"
	"github.com/SniperTei/nan-monitor-backend/pkg/database"
	"github.com/SniperTei/nan-monitor-backend/pkg/kafka"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"github.com/SniperTei/nan-monitor-backend/pkg/storage"
	"github.com/SniperTei/nan-monitor-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL)
	database.InitRedis(cfg.Database.Redis)
	if err := database.DB.AutoMigrate(
		&model.User{},
		&model.LogRecord{},
		&model.CrashReport{},
		&model.PerformanceReport{},
	); err != nil {
		log.Fatal("数据库表结构迁移失败", err)
	}

	// 4. 初始化文件存储后端（默认本地文件系统，可配置为 MinIO）
	store, err := storage.New(cfg.Storage, cfg.Upload.UploadDir)
	if err != nil {
		log.Fatal("初始化文件存储后端失败", err)
	}

	// 5. 初始化 Kafka 生产者（可选）
	if cfg.Kafka.Enabled {
		kafka.InitProducer(cfg.Kafka)
		defer kafka.Close()
	}

	// 6. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	logRepo := repository.NewLogRepository(database.DB, database.RDB)
	crashRepo := repository.NewCrashRepository(database.DB)
	perfRepo := repository.NewPerformanceRepository(database.DB)

	// 7. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	userService := service.NewUserService(userRepo, jwtManager)
	uploadService := service.NewUploadService(store, cfg.Upload)
	logService := service.NewLogService(logRepo, uploadService, cfg.Kafka.Enabled)
	telemetryService := service.NewTelemetryService(crashRepo, perfRepo)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 已存储文件的静态访问（仅本地后端下有效，MinIO 后端由其自身地址提供）
	if cfg.Storage.Backend == "" || cfg.Storage.Backend == "local" {
		r.Static("/"+cfg.Upload.UploadDir, "./"+cfg.Upload.UploadDir)
	}

	// 9. 注册路由
	userHandler := handler.NewUserHandler(userService)
	uploadHandler := handler.NewUploadHandler(uploadService, logService)
	logHandler := handler.NewLogHandler(logService, uploadService)
	telemetryHandler := handler.NewTelemetryHandler(telemetryService)

	apiV1 := r.Group("/api/v1")
	{
		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/refreshToken", userHandler.RefreshToken)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/profile", userHandler.GetProfile)
				authed.PUT("/profile", userHandler.UpdateProfile)
			}
		}

		// Upload 路由组，需要认证
		upload := apiV1.Group("/upload")
		upload.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			upload.POST("/image", uploadHandler.UploadImage)
			upload.POST("/archive", uploadHandler.UploadArchive)
			upload.POST("/files", uploadHandler.UploadFiles)
			upload.GET("/supported-types", uploadHandler.SupportedFileTypes)
			upload.DELETE("/:filename", uploadHandler.DeleteFile)
		}

		// Log 路由组，需要认证
		logs := apiV1.Group("/logs")
		logs.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			logs.POST("", logHandler.CreateLog)
			logs.GET("", logHandler.GetLogs)
			logs.GET("/devices", logHandler.GetDeviceIDs)
			logs.GET("/:logId/download", logHandler.DownloadLog)
		}

		// 遥测上报由设备端直接调用，不要求认证；列表查询仅管理员可用
		crash := apiV1.Group("/crash")
		{
			crash.POST("/report", telemetryHandler.ReportCrash)
			crash.GET("/list",
				middleware.AuthMiddleware(jwtManager, userService),
				middleware.AdminAuthMiddleware(),
				telemetryHandler.ListCrashes)
		}
		performance := apiV1.Group("/performance")
		{
			performance.POST("/report", telemetryHandler.ReportPerformance)
			performance.GET("/list",
				middleware.AuthMiddleware(jwtManager, userService),
				middleware.AdminAuthMiddleware(),
				telemetryHandler.ListPerformance)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
