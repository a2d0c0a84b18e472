package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/facilities-helpdesk/internal/api/http"
	"github.com/spec-kit/facilities-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/facilities-helpdesk/internal/auth"
	"github.com/spec-kit/facilities-helpdesk/internal/config"
	"github.com/spec-kit/facilities-helpdesk/internal/events"
	"github.com/spec-kit/facilities-helpdesk/internal/observability"
	"github.com/spec-kit/facilities-helpdesk/internal/persistence"
	"github.com/spec-kit/facilities-helpdesk/internal/repository"
	"github.com/spec-kit/facilities-helpdesk/internal/service"
	"github.com/spec-kit/facilities-helpdesk/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	shiftRepo := repository.NewShiftRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  userRepo,
		StaffRepo: staffRepo,
	})
	orgService := service.NewStaffService(*cfg, service.OrgDependencies{
		DepartmentRepo: departmentRepo,
		CategoryRepo:   categoryRepo,
		StaffRepo:      staffRepo,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CategoryRepo:   categoryRepo,
		DepartmentRepo: departmentRepo,
		HistoryRepo:    historyRepo,
		Dispatcher:     dispatcher,
	})
	scheduleService := service.NewScheduleService(service.ScheduleDependencies{
		ShiftRepo:  shiftRepo,
		StaffRepo:  staffRepo,
		Dispatcher: dispatcher,
	})
	triageService := service.NewTriageService(service.TriageDependencies{
		TicketRepo: ticketRepo,
		StaffRepo:  staffRepo,
		ShiftRepo:  shiftRepo,
		Cache:      redis.ClientHandle(),
		CacheTTL:   cfg.Sla.TriageCacheTTL(),
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	slaMonitor := service.NewSlaMonitor(service.SlaMonitorDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	worker.StartNotificationWorker(notificationService)
	worker.StartSlaWorker(ctx, slaMonitor, cfg.Sla.MonitorInterval())

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, staffRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService, orgService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService, triageService),
		Schedule:       handlers.NewScheduleHandler(scheduleService),
		Triage:         handlers.NewTriageHandler(triageService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
