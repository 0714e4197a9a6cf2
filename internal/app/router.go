package app

import (
	"accounting_academy_backend/docs"
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/middleware"
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	// Share-link landing page: reachable anonymously, personalized when a
	// token happens to be presented.
	shared := router.Group("/api")
	shared.Use(middleware.TryAuthMiddleware(cfg))
	{
		shared.GET("/quick-tests/preview/:code", c.quickTest.Preview)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
		public.POST("/auth/guest", c.auth.Guest)

		// Backs the QR code on printed certificates.
		public.GET("/certificates/verify/:number", c.certificate.Verify)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/me", c.auth.Me)
	rg.GET("/profile", c.user.Profile)
	rg.PUT("/profile", c.user.UpdateProfile)

	rg.GET("/dashboard", c.dashboard.Student)

	// Staged course. Guests hold no progress rows, so these require a real
	// account.
	student := rg.Group("/")
	student.Use(middleware.RoleMiddleware(model.Student, model.Admin))
	{
		student.GET("/stages", c.stage.List)
		student.GET("/stages/:id/quiz", c.stage.GetQuiz)
		student.POST("/stages/:id/video-progress", c.stage.ReportVideoProgress)
		student.POST("/stages/:id/submit", c.quiz.Submit)

		student.GET("/certificates/mine", c.certificate.Mine)
		student.GET("/certificates/mine/pdf", c.certificate.Download)

		student.GET("/leaderboard", c.leaderboard.Top)
		student.GET("/leaderboard/me", c.leaderboard.MyRank)

		student.GET("/notifications", c.notification.List)
		student.PUT("/notifications/:id/read", c.notification.MarkRead)
		student.GET("/notifications/unread-count", c.notification.UnreadCount)
		student.GET("/ws", c.notification.Connect)

		student.GET("/timer", c.timer.Get)
		student.POST("/timer/checkpoint", c.timer.Checkpoint)

		student.GET("/quick-tests/best/:code", c.quickTest.BestPerLevel)
	}

	// Quick tests and violation reports accept guests too.
	rg.POST("/quick-tests/start/:code", c.quickTest.Start)
	rg.GET("/quick-tests/sessions/:attemptId", c.quickTest.Current)
	rg.POST("/quick-tests/sessions/:attemptId/answer", c.quickTest.Answer)
	rg.POST("/quick-tests/sessions/:attemptId/skip", c.quickTest.Skip)
	rg.GET("/quick-tests/sessions/:attemptId/results", c.quickTest.Results)
	rg.GET("/quick-tests/sessions/:attemptId/certificate", c.quickTest.CompletionPDF)

	rg.POST("/violations", c.violation.Record)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/overview", c.dashboard.Admin)

		admin.GET("/users", c.user.ListUsers)
		admin.POST("/users/:id/password", c.user.ResetPassword)
		admin.PUT("/users/:id/disabled", c.user.SetDisabled)
		admin.GET("/actions", c.user.ListAdminActions)

		admin.GET("/stages", c.stage.AdminList)
		admin.POST("/stages", c.stage.Create)
		admin.PUT("/stages/:id", c.stage.Update)
		admin.DELETE("/stages/:id", c.stage.Delete)
		admin.POST("/stages/:id/video", c.stage.UploadVideo)

		admin.GET("/quick-tests", c.quickTest.AdminList)
		admin.POST("/quick-tests", c.quickTest.Create)
		admin.POST("/quick-tests/import", c.quickTest.Import)
		admin.GET("/quick-tests/:id", c.quickTest.AdminGet)
		admin.PUT("/quick-tests/:id", c.quickTest.Update)
		admin.DELETE("/quick-tests/:id", c.quickTest.Delete)
		admin.PUT("/quick-tests/:id/published", c.quickTest.SetPublished)
		admin.GET("/quick-tests/:id/results", c.quickTest.AdminResults)

		admin.GET("/certificates", c.certificate.AdminList)
		admin.POST("/certificates/users/:id", c.certificate.AdminIssue)

		admin.GET("/violations", c.violation.AdminList)
	}
}
