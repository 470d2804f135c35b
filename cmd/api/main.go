package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/neos-mentors/mentor-queue/internal/api/http"
	"github.com/neos-mentors/mentor-queue/internal/api/http/handlers"
	"github.com/neos-mentors/mentor-queue/internal/auth"
	"github.com/neos-mentors/mentor-queue/internal/clock"
	"github.com/neos-mentors/mentor-queue/internal/config"
	"github.com/neos-mentors/mentor-queue/internal/directory"
	"github.com/neos-mentors/mentor-queue/internal/discord"
	"github.com/neos-mentors/mentor-queue/internal/events"
	"github.com/neos-mentors/mentor-queue/internal/observability"
	"github.com/neos-mentors/mentor-queue/internal/persistence"
	"github.com/neos-mentors/mentor-queue/internal/repository"
	"github.com/neos-mentors/mentor-queue/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	sysClock := clock.NewSystem()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	mentorRepo := repository.NewMentorRepository(pool)

	users := directory.NewHTTPUserDirectory(cfg.Directory)
	notifier := events.NewNotifier(logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		MentorRepo: mentorRepo,
		Users:      users,
		Publisher:  notifier,
		Clock:      sysClock,
		Logger:     logger,
	})
	mentorService := service.NewMentorService(mentorRepo, sysClock, logger)

	channel := discord.NewWebhookChannel(cfg.Discord)
	reconciler := discord.NewReconciler(ticketService, channel, notifier, logger, metrics, cfg.Reconciler)
	reconciler.Start()

	admin := auth.NewAdmin(cfg.Auth)
	authMiddleware := auth.NewMiddleware(admin.Tokens())

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, channel),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Mentors:        handlers.NewMentorsHandler(mentorService),
		Admin:          handlers.NewAdminHandler(admin, metrics),
		AuthMiddleware: authMiddleware,
		Throttle:       httptransport.Throttle(redis.Client, logger, cfg.Throttle),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	reconciler.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
