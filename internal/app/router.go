package app

import (
	"takarawalk_backend/docs"
	"takarawalk_backend/internal/config"
	"takarawalk_backend/internal/middleware"
	"takarawalk_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c, cfg)
	a.registerAuthRoutes(router, c, cfg)
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		public.GET("/puzzles", c.puzzle.List)
		public.GET("/puzzles/:id", c.puzzle.Get)
		public.GET("/puzzles/:id/live", c.puzzle.Live)

		// Solving is open to guests; an attached token only enriches
		// the solver record.
		public.POST("/puzzles/:id/submit", middleware.TryAuthMiddleware(cfg), c.puzzle.SubmitAnswer)
		public.POST("/puzzles/:id/token", middleware.TryAuthMiddleware(cfg), c.puzzle.SubmitToken)

		public.GET("/users/:id", c.user.GetPublicProfile)
		public.GET("/proxy-image", c.proxy.ProxyImage)
	}
}

func (a *App) registerAuthRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/auth/me", c.auth.Me)
		authGroup.PUT("/users/me", c.user.UpdateProfile)

		authGroup.POST("/puzzles", c.puzzle.Create)
		authGroup.PUT("/puzzles/:id", c.puzzle.Update)
		authGroup.DELETE("/puzzles/:id", c.puzzle.Delete)
		authGroup.GET("/puzzles/:id/solve-url", c.puzzle.GetSolveURL)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware("admin"))
	{
		adminGroup.GET("/users", c.admin.ListUsers)
		adminGroup.GET("/puzzles", c.admin.ListPuzzles)
		adminGroup.DELETE("/puzzles/:id", c.admin.DeletePuzzle)
	}
}
