package app

import (
	"study_buddy_backend/docs"
	"study_buddy_backend/internal/config"
	"study_buddy_backend/internal/middleware"
	"study_buddy_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")

	api.GET("/health", c.health.HealthCheck)

	// 认证
	auth := api.Group("/auth")
	{
		auth.POST("/register", c.auth.Register)
		auth.POST("/login", c.auth.Login)
		auth.POST("/logout", c.auth.Logout)
		auth.GET("/me", middleware.AuthMiddleware(cfg), c.auth.Me)
	}

	// 聊天：游客可用，登录用户数据持久化
	chat := api.Group("/chat")
	chat.Use(middleware.TryAuthMiddleware(cfg))
	{
		chat.POST("/message", c.chat.SendMessage)
		chat.POST("/voice", c.chat.SendVoiceMessage)
		chat.GET("/personalities", c.chat.Personalities)
		chat.GET("/conversations", c.chat.ListConversations)
		chat.DELETE("/conversations", c.chat.ClearConversations)
		chat.GET("/conversations/:id", c.chat.GetConversation)
		chat.DELETE("/conversations/:id", c.chat.DeleteConversation)
	}

	// 测验
	quiz := api.Group("/quiz")
	quiz.Use(middleware.TryAuthMiddleware(cfg))
	{
		quiz.POST("/generate", c.quiz.Generate)
		quiz.GET("/list", c.quiz.List)
		quiz.GET("/history", c.quiz.History)
		quiz.GET("/results/:resultId", c.quiz.GetResult)
		quiz.GET("/:id", c.quiz.Get)
		quiz.POST("/:id/submit", c.quiz.Submit)
	}

	// 文件分析
	files := api.Group("/files")
	files.Use(middleware.TryAuthMiddleware(cfg))
	{
		files.POST("/analyze", c.file.Analyze)
		files.POST("/generate-quiz/:analysisId", c.file.GenerateQuiz)
		files.GET("/list", c.file.List)
		files.GET("/:id", c.file.Get)
		files.DELETE("/:id", c.file.Delete)
	}

	// 用户：统计与设置允许游客，资料、活动与反馈需要登录
	user := api.Group("/user")
	{
		user.GET("/stats", middleware.TryAuthMiddleware(cfg), c.user.Stats)
		user.GET("/settings", middleware.TryAuthMiddleware(cfg), c.user.GetSettings)
		user.POST("/settings", middleware.TryAuthMiddleware(cfg), c.user.UpdateSettings)

		authorized := user.Group("/")
		authorized.Use(middleware.AuthMiddleware(cfg))
		{
			authorized.GET("/profile", c.user.Profile)
			authorized.POST("/activity", c.user.RecordActivity)
			authorized.POST("/feedback", c.user.SubmitFeedback)
			authorized.PUT("/preferences", c.user.UpdatePreferences)
		}
	}
}
