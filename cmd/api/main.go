package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/20r01a04l8/railway-management-system/internal/api"
	"github.com/20r01a04l8/railway-management-system/internal/api/handler"
	appmiddleware "github.com/20r01a04l8/railway-management-system/internal/api/middleware"
	"github.com/20r01a04l8/railway-management-system/internal/application"
	"github.com/20r01a04l8/railway-management-system/internal/config"
	"github.com/20r01a04l8/railway-management-system/internal/infrastructure/postgres"
	"github.com/20r01a04l8/railway-management-system/internal/infrastructure/rabbitmq"
	"github.com/20r01a04l8/railway-management-system/internal/infrastructure/redis"
	"github.com/20r01a04l8/railway-management-system/internal/inventory"
	"github.com/20r01a04l8/railway-management-system/internal/pkg/logger"
	"github.com/20r01a04l8/railway-management-system/internal/pkg/metrics"
	"github.com/20r01a04l8/railway-management-system/internal/worker"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	env := os.Getenv("APP_ENV")
	logger.Set(logger.NewLogger(env))
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// データベース接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続（失敗時は分散ロック・キャッシュなしで継続）
	var lockManager redis.LockManagerInterface
	var availabilityCache redis.AvailabilityCacheInterface
	redisClient := redis.NewClient(&cfg.Redis)
	if err := redis.Ping(context.Background(), redisClient); err != nil {
		logger.Warn("Redis接続に失敗。行ロックのみで動作します", zap.Error(err))
	} else {
		lockManager = redis.NewLockManager(redisClient)
		availabilityCache = redis.NewAvailabilityCache(redisClient)
		defer redisClient.Close()
	}

	// RabbitMQ接続（URL未設定ならアラート配信なし）
	var alertPublisher rabbitmq.AlertPublisherInterface
	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.NewAlertPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("RabbitMQ接続に失敗。アラート配信なしで動作します", zap.Error(err))
		} else {
			alertPublisher = publisher
			defer publisher.Close()
		}
	}

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	stationRepo := postgres.NewStationRepository(db)
	trainRepo := postgres.NewTrainRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	userRepo := postgres.NewUserRepository(db)
	refundRepo := postgres.NewRefundRepository(db)
	alertRepo := postgres.NewAlertRepository(db)

	// 在庫マネージャー
	inventoryMgr := inventory.NewManager(txManager, scheduleRepo, bookingRepo, lockManager, m, inventory.Options{
		LockTTL:       cfg.Booking.LockTTL,
		MaxRetries:    cfg.Booking.MaxRetries,
		RetryBaseWait: cfg.Booking.RetryBaseWait,
	})

	// サービス
	authService := application.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	stationService := application.NewStationService(stationRepo)
	trainService := application.NewTrainService(trainRepo, routeRepo, stationRepo, scheduleRepo, cfg.Booking.ScheduleDays)
	scheduleService := application.NewScheduleService(scheduleRepo, availabilityCache)
	bookingService := application.NewBookingService(inventoryMgr, bookingRepo, scheduleRepo, routeRepo, refundRepo, txManager, availabilityCache)
	refundService := application.NewRefundService(refundRepo, alertRepo, alertPublisher)
	adminService := application.NewAdminService(userRepo, stationRepo, routeRepo, refundRepo, alertRepo)

	// ハンドラー
	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService)
	stationHandler := handler.NewStationHandler(stationService)
	trainHandler := handler.NewTrainHandler(trainService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	adminHandler := handler.NewAdminHandler(adminService, refundService)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Validator = api.NewValidator()
	appmiddleware.SetupMiddleware(e)
	e.Use(appmiddleware.PrometheusMiddleware(m))

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), appmiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)

	v1.GET("/stations", stationHandler.List)
	v1.GET("/stations/:id", stationHandler.GetByID)
	v1.GET("/trains", trainHandler.List)
	v1.GET("/trains/:id", trainHandler.GetByID)
	v1.GET("/routes", trainHandler.ListRoutes)
	v1.GET("/schedules/search", scheduleHandler.Search)
	v1.GET("/schedules/:id", scheduleHandler.GetByID)
	v1.GET("/schedules/:id/availability", scheduleHandler.GetAvailability)

	auth := v1.Group("", appmiddleware.JWTAuth(cfg.Auth.JWTSecret))
	auth.GET("/auth/profile", authHandler.Profile)
	auth.POST("/bookings", bookingHandler.Create)
	auth.GET("/bookings", bookingHandler.List)
	auth.GET("/bookings/:id", bookingHandler.GetByID)
	auth.GET("/bookings/reference/:reference", bookingHandler.GetByReference)
	auth.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	auth.PUT("/bookings/:id/passengers", bookingHandler.UpdatePassengers)

	admin := v1.Group("/admin", appmiddleware.JWTAuth(cfg.Auth.JWTSecret), appmiddleware.AdminOnly())
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.POST("/stations", stationHandler.Create)
	admin.POST("/trains", trainHandler.Create)
	admin.PUT("/trains/:id", trainHandler.Update)
	admin.PUT("/trains/:id/active", trainHandler.SetActive)
	admin.POST("/routes", trainHandler.CreateRoute)
	admin.GET("/refunds", adminHandler.ListPendingRefunds)
	admin.POST("/refunds/:id/approve", adminHandler.ApproveRefund)
	admin.POST("/refunds/:id/reject", adminHandler.RejectRefund)
	admin.GET("/alerts", adminHandler.ListAlerts)
	admin.POST("/alerts", adminHandler.CreateAlert)
	admin.DELETE("/alerts/:id", adminHandler.DismissAlert)

	// 旅程完了ワーカー
	workerCtx, workerCancel := context.WithCancel(context.Background())
	completer := worker.NewJourneyCompleter(bookingService, time.Hour)
	go completer.Start(workerCtx)

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()
	logger.Info("サーバー起動", zap.String("port", cfg.Server.Port))

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	workerCancel()
	completer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
