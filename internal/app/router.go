package app

import (
	"student_risk_backend/docs"
	"student_risk_backend/internal/middleware"
	"student_risk_backend/pkg/monitoring"
	"student_risk_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 本地预测服务，报文与外部预测服务一致
	a.registerForecastRoutes(router, c)

	// 3. 需要授权的路由；未启用登录时中间件直接放行
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(s.auth))
	{
		a.registerCohortRoutes(authGroup, c)
		a.registerSessionRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerForecastRoutes(router *gin.Engine, c *controllers) {
	router.POST("/forecast", c.forecast.Forecast)
	router.GET("/health", c.forecast.Health)
}

func (a *App) registerCohortRoutes(rg *gin.RouterGroup, c *controllers) {
	// multipart 额外预留 1MB 给表单字段
	maxBody := (a.Config.Analysis.MaxUploadMB + 1) << 20
	rg.POST("/cohort/upload", security.BodyLimit(maxBody), c.cohort.Upload)
	rg.GET("/cohort/students", c.cohort.ListStudents)
	rg.GET("/cohort/students/:id", c.cohort.GetStudent)
	rg.GET("/cohort/at-risk", c.cohort.AtRisk)
	rg.GET("/uploads", c.cohort.ListUploads)
}

func (a *App) registerSessionRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/session", c.session.Get)
	rg.POST("/session/select", c.session.Select)
}
