package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/SlpAus/peer-review-backend/api"
	"github.com/SlpAus/peer-review-backend/internal/comment"
	"github.com/SlpAus/peer-review-backend/internal/file"
	"github.com/SlpAus/peer-review-backend/internal/ledger"
	"github.com/SlpAus/peer-review-backend/internal/platform/config"
	"github.com/SlpAus/peer-review-backend/internal/platform/database"
	"github.com/SlpAus/peer-review-backend/internal/platform/health"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"github.com/SlpAus/peer-review-backend/internal/platform/metrics"
	"github.com/SlpAus/peer-review-backend/internal/platform/ratelimit"
	"github.com/SlpAus/peer-review-backend/internal/platform/shutdown"
	"github.com/SlpAus/peer-review-backend/internal/platform/startup"
	"github.com/SlpAus/peer-review-backend/internal/project"
	"github.com/SlpAus/peer-review-backend/internal/session"
	"github.com/SlpAus/peer-review-backend/internal/user"
	"github.com/SlpAus/peer-review-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const loginAttemptsPrefix = "login_attempts:"

func main() {
	// 1. 加载配置并初始化日志
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Log.WithError(err).Fatal("加载配置失败")
	}
	logging.Init(cfg.Log.Level, cfg.Log.JSON)

	// 2. 连接数据库与Redis。Redis不可用时只禁用登录限流
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		logging.Log.WithError(err).Fatal("数据库初始化失败")
	}
	rdb, err := database.InitRedis(cfg.Database.Redis)
	if err != nil {
		logging.Log.WithError(err).Warn("Redis初始化失败，登录限流将被禁用")
	}

	// 3. 迁移表结构
	if err := startup.InitializeApplication(db); err != nil {
		logging.Log.WithError(err).Fatal("应用初始化失败，无法启动")
	}

	// 4. 组装各个模块
	m := metrics.New()
	l := ledger.New(db, nil)
	userRepo := user.NewRepository(db)
	sessions := session.NewCache(userRepo, cfg.Session.MaxEntries, cfg.Session.TTL)
	userSvc := user.NewService(userRepo, sessions, l)
	limiter := ratelimit.New(rdb, loginAttemptsPrefix, cfg.RateLimit.Login.Limit, cfg.RateLimit.Login.Window)

	handlers := api.Handlers{
		Users:    user.NewHandler(userSvc, limiter, m),
		Projects: project.NewHandler(project.NewService(project.NewRepository(db), l, userSvc), m),
		Files:    file.NewHandler(file.NewRepository(db)),
		Comments: comment.NewHandler(comment.NewService(comment.NewRepository(db))),
		Metrics:  m,
	}

	// 5. 创建Gin引擎与中间件
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), m.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	api.SetupRoutes(r, handlers)

	// 6. 启动后台服务
	gracefulManager := lifecycle.NewManager("graceful")
	forcefulManager := lifecycle.NewManager("forceful")
	if rdb != nil {
		checker := health.NewChecker(rdb)
		gracefulHandle, err := gracefulManager.NewServiceHandle("redis-health-checker")
		if err != nil {
			logging.Log.WithError(err).Fatal("无法注册健康检查服务")
		}
		forcefulHandle, err := forcefulManager.NewServiceHandle("redis-health-checker")
		if err != nil {
			logging.Log.WithError(err).Fatal("无法注册健康检查服务")
		}
		checker.PerformCheck(forcefulHandle.Ctx())
		go checker.Run(gracefulHandle, forcefulHandle)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:       cfg.Server.RequestTimeout,
		WriteTimeout:      cfg.Server.RequestTimeout,
	}
	go func() {
		logging.Log.WithField("address", srv.Addr).Info("服务器已准备就绪，开始监听")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log.WithError(err).Error("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 7. 等待停机信号
	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager,
		database.CloseRedis,
		database.CloseDB,
	)
	coordinator.ListenForSignalsAndShutdown(srv)
	logging.Log.Info("服务器已安全退出")
}
