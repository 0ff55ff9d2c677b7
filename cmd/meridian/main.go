package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian/internal/accounts"
	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/app"
	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/contacts"
	"github.com/meridian-crm/meridian/internal/contracts"
	"github.com/meridian-crm/meridian/internal/deals"
	"github.com/meridian-crm/meridian/internal/docnum"
	"github.com/meridian-crm/meridian/internal/installations"
	"github.com/meridian-crm/meridian/internal/inventory"
	"github.com/meridian-crm/meridian/internal/leads"
	"github.com/meridian-crm/meridian/internal/notify"
	"github.com/meridian-crm/meridian/internal/observability"
	"github.com/meridian-crm/meridian/internal/orgs"
	"github.com/meridian-crm/meridian/internal/platform/cache"
	"github.com/meridian-crm/meridian/internal/platform/db"
	"github.com/meridian-crm/meridian/internal/quotes"
	"github.com/meridian-crm/meridian/internal/salesorders"
	"github.com/meridian-crm/meridian/internal/servicereq"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()
	generator := docnum.NewGenerator(redisClient)

	activityRepo := activity.NewRepository(dbpool)
	recorder := activity.NewRecorder(activityRepo, logger)
	activityHandler := activity.NewHandler(logger, activityRepo)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	orgsRepo := orgs.NewRepository(dbpool)
	authHandler := auth.NewHandler(logger, authService, sessionManager, orgsRepo)

	// Outbound WhatsApp messages go through the task queue so a slow or
	// failing provider never blocks a request.
	var sender notify.Sender
	whatsappCfg := notify.Config{
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		AccessToken:   cfg.WhatsAppAccessToken,
		APIVersion:    cfg.WhatsAppAPIVersion,
	}
	if whatsappCfg.Configured() {
		queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Error("init queue client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := queueClient.Close(); err != nil {
				logger.Warn("queue client close", slog.Any("error", err))
			}
		}()
		sender = jobs.NewAsyncSender(queueClient)
	} else {
		logger.Info("whatsapp credentials absent, notifications disabled")
	}

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo, recorder)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	contactsRepo := contacts.NewRepository(dbpool)
	contactsService := contacts.NewService(contactsRepo, accountsRepo, recorder)
	contactsHandler := contacts.NewHandler(logger, contactsService)

	leadsRepo := leads.NewRepository(dbpool)
	leadsService := leads.NewService(leadsRepo, accountsService, contactsService, recorder)
	leadsHandler := leads.NewHandler(logger, leadsService)

	dealsRepo := deals.NewRepository(dbpool)
	dealsService := deals.NewService(dealsRepo, accountsRepo, contactsRepo, recorder)
	dealsHandler := deals.NewHandler(logger, dealsService)

	serviceReqRepo := servicereq.NewRepository(dbpool)
	serviceReqService := servicereq.NewService(logger, serviceReqRepo, generator,
		accountsRepo, contactsRepo, recorder, metrics, sender)
	serviceReqHandler := servicereq.NewHandler(logger, serviceReqService)

	contractsRepo := contracts.NewRepository(dbpool)
	contractsService := contracts.NewService(contractsRepo, generator,
		accountsRepo, dealsRepo, recorder, metrics)
	contractsHandler := contracts.NewHandler(logger, contractsService)

	salesOrdersRepo := salesorders.NewRepository(dbpool)
	quotesRepo := quotes.NewRepository(dbpool)

	installationsService := installations.NewService(logger, installations.NewRepository(dbpool), generator,
		accountsRepo, contactsRepo, salesOrdersRepo, recorder, metrics, sender)
	installationsHandler := installations.NewHandler(logger, installationsService)

	quotesService := quotes.NewService(logger, quotesRepo, generator,
		accountsRepo, contactsRepo, dealsRepo, recorder, metrics, sender)
	quotesHandler := quotes.NewHandler(logger, quotesService)

	salesOrdersService := salesorders.NewService(salesOrdersRepo, generator,
		accountsRepo, contactsRepo, quotesRepo, recorder, metrics)
	salesOrdersHandler := salesorders.NewHandler(logger, salesOrdersService)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		Metrics:              metrics,
		AuthHandler:          authHandler,
		AccountsHandler:      accountsHandler,
		ContactsHandler:      contactsHandler,
		LeadsHandler:         leadsHandler,
		DealsHandler:         dealsHandler,
		ServiceReqHandler:    serviceReqHandler,
		ContractsHandler:     contractsHandler,
		InstallationsHandler: installationsHandler,
		QuotesHandler:        quotesHandler,
		SalesOrdersHandler:   salesOrdersHandler,
		InventoryHandler:     inventoryHandler,
		ActivityHandler:      activityHandler,
		JobHandler:           jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
