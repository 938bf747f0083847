package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/carritos-api/api/swagger"
	"github.com/noah-isme/carritos-api/internal/handler"
	"github.com/noah-isme/carritos-api/internal/repository"
	"github.com/noah-isme/carritos-api/internal/service"
	"github.com/noah-isme/carritos-api/pkg/cache"
	"github.com/noah-isme/carritos-api/pkg/config"
	"github.com/noah-isme/carritos-api/pkg/database"
	"github.com/noah-isme/carritos-api/pkg/logger"
)

// @title Carritos API
// @version 1.0.0
// @description Loan management for school laptop carts
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWT.Secret == "dev_secret" {
			logr.Warn("JWT_SECRET is the development default")
		}
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	tokens := repository.NewTokenRepository(redisClient)
	defer tokens.Close() //nolint:errcheck

	validate := validator.New()
	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	adminRepo := repository.NewAdminRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	cartRepo := repository.NewCartRepository(db)
	computerRepo := repository.NewComputerRepository(db)
	loanRepo := repository.NewLoanRepository(db)

	authSvc := service.NewAuthService(adminRepo, tokens, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	adminSvc := service.NewAdminService(adminRepo, validate, logr)
	if _, err := adminSvc.EnsureDefaultAdmin(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}

	cartSvc := service.NewCartService(cartRepo, validate, logr)
	computerSvc := service.NewComputerService(computerRepo, cartRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, teacherRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	loanSvc := service.NewLoanService(loanRepo, studentRepo, teacherRepo, metrics, validate, logr)
	exportSvc := service.NewExportService(loanSvc, logr, nil, nil)

	routerCfg := handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		EnableMetrics:  cfg.Metrics.Enabled,
		Logger:         logr,
		Tokens:         authSvc,
		Health:         handler.NewHealthHandler(db, metrics),
		Auth:           handler.NewAuthHandler(authSvc),
		Admins:         handler.NewAdminHandler(adminSvc),
		Carts:          handler.NewCartHandler(cartSvc),
		Computers:      handler.NewComputerHandler(computerSvc),
		Students:       handler.NewStudentHandler(studentSvc, cfg.Import.MaxFileSizeBytes),
		Teachers:       handler.NewTeacherHandler(teacherSvc, cfg.Import.MaxFileSizeBytes),
		Loans:          handler.NewLoanHandler(loanSvc, exportSvc),
	}
	if metrics != nil {
		routerCfg.Metrics = metrics
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("db_driver", cfg.Database.Driver),
			zap.Bool("token_revocation", tokens.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
