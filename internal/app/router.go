package app

import (
	"skillforge_backend/docs"
	"skillforge_backend/internal/config"
	"skillforge_backend/internal/middleware"
	"skillforge_backend/internal/model"
	"skillforge_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)
		authGroup.PUT("/users/profile", c.user.UpdateProfile)
		authGroup.POST("/users/avatar", c.user.UploadAvatar)

		authGroup.GET("/points/history", c.points.GetHistory)
		authGroup.GET("/points/stats", c.points.GetMyStats)

		authGroup.GET("/leaderboard", c.leaderboard.GetLeaderboard)
		authGroup.GET("/leaderboard/me", c.leaderboard.GetMyPosition)

		authGroup.GET("/achievements", c.achievement.GetUserAchievements)
		authGroup.GET("/achievements/catalog", c.achievement.GetCatalog)

		activities := authGroup.Group("/activities")
		{
			activities.POST("/courses/:enrollmentId/complete", c.activity.CompleteCourse)
			activities.POST("/projects/:assignmentId/complete", c.activity.CompleteProject)
			activities.POST("/skills", c.activity.AddSkill)
			activities.POST("/skills/:skillId/verify", c.activity.VerifySkill)
			activities.PATCH("/skills/:skillId/level", c.activity.ImproveSkill)
		}
	}

	// 管理员接口
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		adminGroup.GET("/users/:id", c.user.GetUser)
		adminGroup.PATCH("/users/:id/disable", c.user.SetDisabled)
		adminGroup.POST("/points/award", c.points.ManualAward)
		adminGroup.GET("/points/users/:userId/history", c.points.GetUserHistory)
		adminGroup.POST("/badges", c.activity.AwardBadge)
		adminGroup.POST("/achievements", c.achievement.CreateAchievement)
		adminGroup.PATCH("/achievements/:id/active", c.achievement.SetActive)
		adminGroup.POST("/leaderboard/initialize", c.leaderboard.Initialize)
	}
}
