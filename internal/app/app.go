package app

import (
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/controller"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/pkg/database"
	"accounting_academy_backend/pkg/logger"
	"accounting_academy_backend/pkg/monitoring"
	"accounting_academy_backend/pkg/security"
	"accounting_academy_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	stage       *repository.StageRepository
	progress    *repository.ProgressRepository
	quickTest   *repository.QuickTestRepository
	result      *repository.QuickTestResultRepository
	certificate *repository.CertificateRepository
	timer       *repository.TimerRepository
	notifica    *repository.NotificationRepository
	violation   *repository.ViolationRepository
	adminAction *repository.AdminActionRepository
}

type services struct {
	auth         *service.AuthService
	user         *service.UserService
	storage      *service.StorageService
	stage        *service.StageService
	stageQuiz    *service.StageQuizService
	quickTest    *service.QuickTestService
	certificate  *service.CertificateService
	leaderboard  *service.LeaderboardService
	notification *service.NotificationService
	timer        *service.TimerService
	violation    *service.ViolationService
	dashboard    *service.DashboardService
	hub          *service.NotificationHub
}

type controllers struct {
	auth         *controller.AuthController
	user         *controller.UserController
	stage        *controller.StageController
	quiz         *controller.QuizController
	quickTest    *controller.QuickTestController
	certificate  *controller.CertificateController
	leaderboard  *controller.LeaderboardController
	notification *controller.NotificationController
	timer        *controller.TimerController
	violation    *controller.ViolationController
	dashboard    *controller.DashboardController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig runs the registered reload callbacks against a fresh config.
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		stage:       repository.NewStageRepository(db),
		progress:    repository.NewProgressRepository(db),
		quickTest:   repository.NewQuickTestRepository(db),
		result:      repository.NewQuickTestResultRepository(db),
		certificate: repository.NewCertificateRepository(db),
		timer:       repository.NewTimerRepository(db),
		notifica:    repository.NewNotificationRepository(db),
		violation:   repository.NewViolationRepository(db),
		adminAction: repository.NewAdminActionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, repos.adminAction)

	s.hub = service.NewNotificationHub(rdb)
	go s.hub.Run()
	s.notification = service.NewNotificationService(repos.notifica, s.hub)

	s.stage = service.NewStageService(repos.stage, repos.progress, s.storage, cfg, db)
	s.certificate = service.NewCertificateService(repos.certificate, repos.progress, repos.stage, repos.user, s.notification, cfg, db)
	s.leaderboard = service.NewLeaderboardService(repos.progress, repos.user, rdb)
	s.stageQuiz = service.NewStageQuizService(repos.stage, repos.progress, s.stage, s.certificate, s.notification, s.leaderboard, db)

	sessionTTL := time.Duration(cfg.Quiz.SessionTTLMinutes) * time.Minute
	var sessions service.SessionStore
	if rdb != nil {
		sessions = service.NewRedisSessionStore(rdb, sessionTTL)
	} else {
		sessions = service.NewMemorySessionStore(sessionTTL)
	}
	s.quickTest = service.NewQuickTestService(repos.quickTest, repos.result, s.certificate, sessions, cfg, db)

	s.timer = service.NewTimerService(repos.timer, cfg)
	s.violation = service.NewViolationService(repos.violation)
	s.dashboard = service.NewDashboardService(s.stage, s.certificate, s.timer, repos.progress, repos.user, repos.stage, repos.certificate, repos.quickTest, repos.violation)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		user:         controller.NewUserController(s.user),
		stage:        controller.NewStageController(s.stage),
		quiz:         controller.NewQuizController(s.stageQuiz),
		quickTest:    controller.NewQuickTestController(s.quickTest),
		certificate:  controller.NewCertificateController(s.certificate),
		leaderboard:  controller.NewLeaderboardController(s.leaderboard),
		notification: controller.NewNotificationController(s.notification, s.hub),
		timer:        controller.NewTimerController(s.timer),
		violation:    controller.NewViolationController(s.violation),
		dashboard:    controller.NewDashboardController(s.dashboard),
		health:       controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis is an accelerator here, not a dependency: sessions fall back
		// to memory, the leaderboard to direct queries.
		logger.Log.Warn("Redis unavailable, running degraded", zap.Error(err))
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
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("accounting-academy", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// Thresholds and countdowns are safe to swap at runtime; connection
	// settings are not, so only these sections are hot-reloaded.
	app.RegisterConfigCallback(func(next *config.Config) {
		cfg.Quiz = next.Quiz
		cfg.Certificate = next.Certificate
		cfg.Timer = next.Timer
		logger.Log.Info("Runtime configuration reloaded")
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.services != nil && a.services.hub != nil {
		a.services.hub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
