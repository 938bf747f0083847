package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/internal/middleware"
	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/carritos-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/carritos-api/pkg/middleware/requestid"
	"github.com/noah-isme/carritos-api/pkg/response"
)

// RouterConfig collects everything the HTTP surface needs.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	EnableMetrics  bool
	Logger         *zap.Logger

	Tokens  middleware.TokenValidator
	Metrics middleware.HTTPObserver

	Health    *HealthHandler
	Auth      *AuthHandler
	Admins    *AdminHandler
	Carts     *CartHandler
	Computers *ComputerHandler
	Students  *StudentHandler
	Teachers  *TeacherHandler
	Loans     *LoanHandler
}

// NewRouter builds the gin engine with ambient middleware and all API routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	if cfg.EnableMetrics && cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.GET("/health", cfg.Health.Health)
	r.GET("/ready", cfg.Health.Ready)
	if cfg.EnableMetrics {
		r.GET("/metrics", cfg.Health.Prometheus)
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", cfg.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(cfg.Tokens), middleware.Audit())
	authed.GET("/auth/verify", cfg.Auth.Verify)
	authed.POST("/auth/logout", cfg.Auth.Logout)

	staff := authed.Group("")
	staff.Use(middleware.RBAC(models.RoleAdmin, models.RoleSuperAdmin))

	carts := staff.Group("/carros")
	carts.GET("", cfg.Carts.List)
	carts.POST("", cfg.Carts.Create)
	carts.GET("/:id", cfg.Carts.Get)
	carts.PUT("/:id", cfg.Carts.Update)
	carts.DELETE("/:id", cfg.Carts.Delete)

	computers := staff.Group("/computadoras")
	computers.GET("", cfg.Computers.List)
	computers.POST("", cfg.Computers.Create)
	computers.GET("/disponibles", cfg.Computers.ListAvailable)
	computers.GET("/:id", cfg.Computers.Get)
	computers.PUT("/:id", cfg.Computers.Update)
	computers.DELETE("/:id", cfg.Computers.Delete)

	students := staff.Group("/alumnos")
	students.GET("", cfg.Students.List)
	students.POST("", cfg.Students.Create)
	students.POST("/carga-masiva", cfg.Students.Import)
	students.GET("/dni/:dni", cfg.Students.GetByDNI)
	students.GET("/:id", cfg.Students.Get)
	students.PUT("/:id", cfg.Students.Update)
	students.DELETE("/:id", cfg.Students.Delete)

	teachers := staff.Group("/docentes")
	teachers.GET("", cfg.Teachers.List)
	teachers.POST("", cfg.Teachers.Create)
	teachers.POST("/carga-masiva", cfg.Teachers.Import)
	teachers.GET("/dni/:dni", cfg.Teachers.GetByDNI)
	teachers.GET("/:id", cfg.Teachers.Get)
	teachers.PUT("/:id", cfg.Teachers.Update)
	teachers.DELETE("/:id", cfg.Teachers.Delete)

	loans := staff.Group("/prestamos")
	loans.GET("", cfg.Loans.List)
	loans.POST("", cfg.Loans.Create)
	loans.GET("/activos", cfg.Loans.ListActive)
	loans.GET("/usuario/:dni", cfg.Loans.ActiveForBorrower)
	loans.GET("/historial", cfg.Loans.History)
	loans.GET("/historial/:dni", cfg.Loans.HistoryByDNI)
	loans.POST("/:id/devolver", cfg.Loans.Return)

	admins := authed.Group("/admins")
	admins.Use(middleware.RBAC(models.RoleSuperAdmin))
	admins.GET("", cfg.Admins.List)
	admins.POST("", cfg.Admins.Create)
	admins.DELETE("/:id", cfg.Admins.Deactivate)
	admins.POST("/:id/reset-password", cfg.Admins.ResetPassword)

	r.NoRoute(response.RouteNotFound)
	return r
}
