package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tutoring-portal/internal/api/http"
	"github.com/spec-kit/tutoring-portal/internal/api/http/handlers"
	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/config"
	"github.com/spec-kit/tutoring-portal/internal/events"
	"github.com/spec-kit/tutoring-portal/internal/observability"
	"github.com/spec-kit/tutoring-portal/internal/persistence"
	"github.com/spec-kit/tutoring-portal/internal/repository"
	"github.com/spec-kit/tutoring-portal/internal/repository/memory"
	"github.com/spec-kit/tutoring-portal/internal/service"
	"github.com/spec-kit/tutoring-portal/internal/session"
	"github.com/spec-kit/tutoring-portal/internal/worker"
)

type repositories struct {
	tickets repository.TicketRepository
	history repository.TicketHistoryRepository
	catalog repository.CatalogRepository
	tutors  repository.TutorRepository
}

func main() {
	cfg, err := config.Load(os.Args[1:])
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

	if cfg.Postgres.RunMigrations && !pg.InMemory() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var repos repositories
	if pg.InMemory() {
		store := memory.New()
		repos = repositories{tickets: store.Tickets(), history: store.History(), catalog: store.Catalog(), tutors: store.Tutors()}
	} else {
		pool := pg.PoolHandle()
		repos = repositories{
			tickets: repository.NewTicketRepository(pool),
			history: repository.NewTicketHistoryRepository(pool),
			catalog: repository.NewCatalogRepository(pool),
			tutors:  repository.NewTutorRepository(pool),
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redis.Close()

	var sessionStore session.Store
	if redis != nil {
		sessionStore = session.NewRedisStore(redis.Client)
	} else {
		memStore := session.NewMemoryStore(nil)
		sweeper, err := worker.StartSessionSweeper(cfg.Session.SweepSpec, memStore, logger)
		if err != nil {
			logger.Fatal("invalid session sweep schedule", zap.Error(err))
		}
		defer sweeper.Stop()
		sessionStore = memStore
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(dispatcher, service.NewNotificationService(logger, cfg.Notification), logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repos.tickets,
		HistoryRepo: repos.history,
		CatalogRepo: repos.catalog,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	catalogService := service.NewCatalogService(repos.catalog, nil)
	tutorService := service.NewTutorService(repos.tutors, logger)
	availabilityService := service.NewAvailabilityService(service.AvailabilityDependencies{
		CatalogRepo: repos.catalog,
		TicketRepo:  repos.tickets,
		TutorRepo:   repos.tutors,
	})

	if cfg.App.Debug {
		// Claims and history reference the tutor row, so the debug user
		// must exist even though the resolver never looks it up.
		if err := tutorService.EnsureTutor(ctx, cfg.Auth.DebugUser); err != nil {
			logger.Fatal("failed to seed debug user", zap.Error(err))
		}
		logger.Warn("debug mode: every signed-in user is a superuser", zap.String("debug_user", cfg.Auth.DebugUser))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:      cfg.App.RequestTimeout(),
		AllowOrigins: cfg.App.AllowOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:  handlers.NewTicketsHandler(ticketService, catalogService),
		Status:   handlers.NewStatusHandler(availabilityService, ticketService),
		Admin:    handlers.NewAdminHandler(catalogService),
		Tutors:   handlers.NewTutorsHandler(tutorService),
		Session:  handlers.NewSessionHandler(auth.NewAssertionVerifier(cfg.Auth.SSOSecret, 0), cfg.Auth, cfg.App.Debug, logger),
		Sessions: session.NewManager(sessionStore, cfg.Session, logger),
		Resolver: auth.NewResolver(repos.tutors, cfg.App.Debug, logger),

		OpenTicketRatePerMinute: cfg.Tickets.OpenRateLimitPerMinute,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
