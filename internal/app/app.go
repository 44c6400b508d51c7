package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"student_risk_backend/internal/config"
	"student_risk_backend/internal/controller"
	"student_risk_backend/internal/forecasting"
	"student_risk_backend/internal/repository"
	"student_risk_backend/internal/service"
	"student_risk_backend/pkg/configwatcher"
	"student_risk_backend/pkg/database"
	"student_risk_backend/pkg/logger"
	"student_risk_backend/pkg/monitoring"
	"student_risk_backend/pkg/security"
	"student_risk_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)

	ctx            context.Context
	cancel         context.CancelFunc
	tracerProvider *sdktrace.TracerProvider
}

type repositories struct {
	cohort       *repository.CohortRepository
	insightCache *repository.RedisInsightCache
}

type services struct {
	auth           *service.AuthService
	storage        *service.StorageService
	ai             *service.AIService
	forecastClient *service.ForecastClient
	forecast       *service.ForecastService
	insight        *service.InsightService
	cohorts        *service.CohortStore
	ingestion      *service.IngestionService
	session        *service.AnalysisSession
	localForecast  *forecasting.Forecaster
}

type controllers struct {
	auth     *controller.AuthController
	cohort   *controller.CohortController
	session  *controller.SessionController
	forecast *controller.ForecastController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// initRepositories 数据库和 Redis 都是可选的，未启用时对应仓库为 nil
func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	repos := &repositories{}
	if db != nil {
		repos.cohort = repository.NewCohortRepository(db)
	}
	if rdb != nil {
		repos.insightCache = repository.NewRedisInsightCache(rdb, cfg.Analysis.InsightCacheTTL)
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.auth = service.NewAuthService(cfg.Auth, cfg.JWT)
	s.ai = service.NewAIService(cfg.AI)
	s.forecastClient = service.NewForecastClient(cfg.Forecast)
	s.forecast = service.NewForecastService(s.forecastClient)
	s.insight = service.NewInsightService(s.ai)
	s.cohorts = service.NewCohortStore()
	s.localForecast = forecasting.NewForecaster(cfg.Forecast.NoiseScale, 0)
	if cfg.Forecast.MaxPeriods > 0 {
		s.localForecast.MaxPeriods = cfg.Forecast.MaxPeriods
	}

	// 接口变量不能直接接收 nil 指针
	var recorder service.CohortRecorder
	if repos.cohort != nil {
		recorder = repos.cohort
	}
	var cache service.InsightCache
	if repos.insightCache != nil {
		cache = repos.insightCache
	}

	s.ingestion = service.NewIngestionService(s.cohorts, s.storage, recorder)
	s.session = service.NewAnalysisSession(s.cohorts, s.forecast, s.insight, cache, cfg.Forecast.Horizon)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.ai.UpdateConfig(newCfg.AI)
		s.forecastClient.UpdateConfig(newCfg.Forecast)
		s.session.SetHorizon(newCfg.Forecast.Horizon)
		s.auth.UpdateConfig(newCfg.Auth, newCfg.JWT)
	})

	return s
}

func (a *App) initControllers(s *services, repos *repositories, cfg *config.Config) *controllers {
	var dbPinger, redisPinger controller.Pinger
	if repos.cohort != nil {
		dbPinger = repos.cohort
	}
	if repos.insightCache != nil {
		redisPinger = repos.insightCache
	}

	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		cohort:   controller.NewCohortController(s.ingestion, s.cohorts, cfg.Analysis.MaxUploadMB),
		session:  controller.NewSessionController(s.session),
		forecast: controller.NewForecastController(s.localForecast),
		health:   controller.NewHealthController(dbPinger, redisPinger, s.forecastClient),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		ctx:       ctx,
		cancel:    cancel,
	}

	if cfg.Database.Enabled {
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode != gin.ReleaseMode)
		if err != nil {
			logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		}
		app.DB = db
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	repos := app.initRepositories(app.DB, app.Redis, cfg)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, repos, cfg)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("student-risk-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startConfigWatcher()

	return app
}

func (a *App) startConfigWatcher() {
	path := filepath.Join(a.ConfigDir, "config.yaml")
	go func() {
		err := configwatcher.WatchConfig(a.ctx, path, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}

// Close 仅迁移模式使用
func (a *App) Close() {
	a.cancel()
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
