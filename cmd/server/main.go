package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cashdesk-backend/internal/admin"
	"cashdesk-backend/internal/audit"
	"cashdesk-backend/internal/auth"
	"cashdesk-backend/internal/config"
	"cashdesk-backend/internal/database"
	"cashdesk-backend/internal/logging"
	"cashdesk-backend/internal/metrics"
	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/shift"
	"cashdesk-backend/internal/tolerance"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	db, err := database.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	log.WithField("driver", cfg.DatabaseDriver).Info("database ready")

	var (
		tolSource tolerance.Source
		tolWriter tolerance.Writer
	)
	switch cfg.ToleranceSource {
	case config.ToleranceFromRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		src := tolerance.NewRedisSource(rdb, cfg.CashTolerance)
		tolSource, tolWriter = src, src
	default:
		src := tolerance.NewSettingsSource(db, cfg.CashTolerance)
		tolSource, tolWriter = src, src
	}

	m := metrics.New()
	svc := shift.NewService(db, tolSource,
		shift.WithExclusivity(cfg.ShiftExclusivity),
		shift.WithLogger(log),
		shift.WithMetrics(m),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logging.FromCtx(c).WithError(err).Error("unexpected error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(logging.Middleware(log))
	app.Use(m.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + logging.HeaderRequestID,
		AllowMethods:  "GET,POST,PUT,OPTIONS",
		ExposeHeaders: logging.HeaderRequestID,
	}))

	app.Get("/metrics", m.Handler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(db))
	api.Post("/auth/login", auth.LoginHandler(db, cfg.JWTSecret))

	protected := api.Group("", auth.JWTMiddleware(cfg.JWTSecret))
	protected.Get("/auth/me", auth.MeHandler(db))

	shift.Routes(protected, svc)
	protected.Get("/audit-logs",
		auth.RequireRole(models.RoleSuperAdmin, models.RoleBranchAdmin),
		audit.ListAuditLogsHandler(db))
	admin.Routes(protected, db, tolSource, tolWriter)

	go func() {
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()
	log.WithField("port", cfg.HTTPPort).Info("cash desk API listening")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdown); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("bye")
}
