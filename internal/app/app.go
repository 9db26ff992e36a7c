package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/controller"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/service"
	"skillforge_backend/pkg/database"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"
	"skillforge_backend/pkg/security"
	"skillforge_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	pointEvent  *repository.PointEventRepository
	userStats   *repository.UserStatsRepository
	achievement *repository.AchievementRepository
	skill       *repository.SkillRepository
	enrollment  *repository.CourseEnrollmentRepository
	assignment  *repository.ProjectAssignmentRepository
	badge       *repository.BadgeRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	user        *service.UserService
	aggregator  *service.StatsAggregator
	achievement *service.AchievementService
	ranking     *service.RankingService
	points      *service.PointsService
	activity    *service.ActivityService
	leaderboard *service.LeaderboardService
}

type controllers struct {
	auth        *controller.AuthController
	user        *controller.UserController
	points      *controller.PointsController
	activity    *controller.ActivityController
	achievement *controller.AchievementController
	leaderboard *controller.LeaderboardController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置热更新入口，逐个通知已注册的回调
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		pointEvent:  repository.NewPointEventRepository(db),
		userStats:   repository.NewUserStatsRepository(db),
		achievement: repository.NewAchievementRepository(db),
		skill:       repository.NewSkillRepository(db),
		enrollment:  repository.NewCourseEnrollmentRepository(db),
		assignment:  repository.NewProjectAssignmentRepository(db),
		badge:       repository.NewBadgeRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, s.storage)

	s.aggregator = service.NewStatsAggregator(
		repos.pointEvent,
		repos.userStats,
		repos.enrollment,
		repos.assignment,
		repos.badge,
	)
	s.achievement = service.NewAchievementService(repos.achievement, repos.pointEvent, repos.skill)

	minInterval := time.Duration(cfg.Gamification.RankingMinIntervalSecs) * time.Second
	s.ranking = service.NewRankingService(repos.userStats, db, minInterval)

	s.points = service.NewPointsService(
		db,
		repos.pointEvent,
		s.aggregator,
		s.achievement,
		s.ranking,
		cfg.Gamification.RankingPeriod,
	)

	s.activity = service.NewActivityService(db, repos.skill, s.points)

	cacheTTL := time.Duration(cfg.Gamification.LeaderboardCacheTTLSecs) * time.Second
	s.leaderboard = service.NewLeaderboardService(
		repos.userStats,
		repos.user,
		s.ranking,
		s.aggregator,
		db,
		rdb,
		cacheTTL,
	)

	// 排名落定后清掉对应周期的榜单缓存
	s.ranking.OnRecomputed = s.leaderboard.InvalidateCache

	go s.ranking.Run()

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth, s.user),
		user:        controller.NewUserController(s.user),
		points:      controller.NewPointsController(s.points),
		activity:    controller.NewActivityController(s.activity),
		achievement: controller.NewAchievementController(s.achievement),
		leaderboard: controller.NewLeaderboardController(s.leaderboard, a.Config.Gamification.LeaderboardMaxLimit),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	// release 模式默认跳过迁移，除非显式带 -migrate
	migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 缓存不可用时降级为直接查库
		logger.Log.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services

	app.RegisterConfigCallback(func(c *config.Config) {
		services.leaderboard.SetCacheTTL(time.Duration(c.Gamification.LeaderboardCacheTTLSecs) * time.Second)
	})
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("skillforge", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 停掉排名消费协程，避免关闭过程中还有全表写
	if a.services != nil && a.services.ranking != nil {
		a.services.ranking.Stop()
	}

	if a.tracerProvider != nil {
		tracing.Shutdown(a.tracerProvider)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
