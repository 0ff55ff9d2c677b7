package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian/internal/accounts"
	"github.com/meridian-crm/meridian/internal/activity"
	"github.com/meridian-crm/meridian/internal/app"
	"github.com/meridian-crm/meridian/internal/contracts"
	jobmetrics "github.com/meridian-crm/meridian/internal/jobs"
	"github.com/meridian-crm/meridian/internal/notify"
	"github.com/meridian-crm/meridian/internal/platform/cache"
	"github.com/meridian-crm/meridian/internal/platform/db"
	"github.com/meridian-crm/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	// The worker is the only process that talks to the WhatsApp API; the web
	// tier just enqueues send tasks.
	var sender notify.Sender
	whatsappCfg := notify.Config{
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		AccessToken:   cfg.WhatsAppAccessToken,
		APIVersion:    cfg.WhatsAppAPIVersion,
	}
	if whatsappCfg.Configured() {
		sender = notify.NewClient(whatsappCfg, nil)
	} else {
		logger.Info("whatsapp credentials absent, send tasks will be dropped")
	}

	activityRepo := activity.NewRepository(pool)
	recorder := activity.NewRecorder(activityRepo, logger)

	accountsRepo := accounts.NewRepository(pool)
	contractsRepo := contracts.NewRepository(pool)
	contractsService := contracts.NewService(contractsRepo, nil, accountsRepo, nil, recorder, nil)

	metrics := jobmetrics.NewMetrics(nil)
	sendJob := jobs.NewWhatsAppSendJob(sender, logger)
	renewalJob := jobs.NewRenewalScanJob(contractsService, accountsRepo, sender,
		cfg.RenewalReminderWindow, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeWhatsAppSend, Handler: sendJob.Handle},
			{Type: jobs.TaskTypeContractRenewalScan, Handler: renewalJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 9 * * *", Task: jobs.NewContractRenewalScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
