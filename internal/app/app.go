package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"study_buddy_backend/internal/config"
	"study_buddy_backend/internal/controller"
	"study_buddy_backend/internal/repository"
	"study_buddy_backend/internal/service"
	"study_buddy_backend/internal/store"
	"study_buddy_backend/pkg/database"
	"study_buddy_backend/pkg/logger"
	"study_buddy_backend/pkg/monitoring"
	"study_buddy_backend/pkg/security"
	"study_buddy_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Guests          *store.GuestStore
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	conv     *repository.ConversationRepository
	quiz     *repository.QuizRepository
	analysis *repository.FileAnalysisRepository
	activity *repository.ActivityRepository
	feedback *repository.FeedbackRepository
}

type services struct {
	ai      service.AIClient
	storage *service.StorageService
	auth    *service.AuthService
	chat    *service.ChatService
	quiz    *service.QuizService
	file    *service.FileService
	stats   *service.StatsService
	user    *service.UserService
}

type controllers struct {
	auth   *controller.AuthController
	chat   *controller.ChatController
	quiz   *controller.QuizController
	file   *controller.FileController
	user   *controller.UserController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新入口，逐个执行已注册的回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		conv:     repository.NewConversationRepository(db),
		quiz:     repository.NewQuizRepository(db),
		analysis: repository.NewFileAnalysisRepository(db),
		activity: repository.NewActivityRepository(db),
		feedback: repository.NewFeedbackRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)
	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)

	chatTimeout := time.Duration(cfg.AI.ChatTimeoutSeconds) * time.Second
	s.chat = service.NewChatService(s.ai, repos.conv, repos.activity, a.Guests, chatTimeout)
	s.quiz = service.NewQuizService(s.ai, repos.quiz, repos.analysis, repos.activity, a.Guests)
	s.file = service.NewFileService(s.ai, s.storage, repos.analysis, repos.activity, a.Guests, cfg.Upload.MaxSizeMB)
	s.stats = service.NewStatsService(repos.conv, repos.quiz, repos.analysis, repos.activity, a.Guests)
	s.user = service.NewUserService(repos.user, repos.activity, repos.feedback)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:   controller.NewAuthController(s.auth),
		chat:   controller.NewChatController(s.chat),
		quiz:   controller.NewQuizController(s.quiz),
		file:   controller.NewFileController(s.file, s.quiz),
		user:   controller.NewUserController(s.user, s.stats),
		health: controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(&cfg.CORS))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(&cfg.RateLimit))

	// 分布式追踪中间件
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

	app := &App{
		Config: cfg,
		DB:     db,
		Guests: store.NewGuestStore(),
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("study-buddy", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
