package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-crm/meridian/internal/contracts"
	jobmetrics "github.com/meridian-crm/meridian/internal/jobs"
	"github.com/meridian-crm/meridian/internal/notify"
)

// reminderConcurrency bounds parallel provider calls during a scan.
const reminderConcurrency = 4

// ContractSource lists the active contracts approaching their end date.
type ContractSource interface {
	ListExpiring(ctx context.Context, window time.Duration) ([]contracts.Contract, error)
}

// AccountDirectory resolves an account's phone number within one organization.
type AccountDirectory interface {
	PhoneOf(ctx context.Context, orgID, id uuid.UUID) (string, error)
}

// RenewalScanJob finds active contracts expiring within the configured
// window and queues a reminder to each contract's account.
type RenewalScanJob struct {
	contracts ContractSource
	accounts  AccountDirectory
	sender    notify.Sender
	window    time.Duration
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
	now       func() time.Time
}

// NewRenewalScanJob constructs the job.
func NewRenewalScanJob(src ContractSource, accounts AccountDirectory, sender notify.Sender,
	window time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *RenewalScanJob {
	return &RenewalScanJob{
		contracts: src,
		accounts:  accounts,
		sender:    sender,
		window:    window,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Handle processes TaskTypeContractRenewalScan tasks.
func (j *RenewalScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track("contract_renewal_scan")
	return tracker.End(j.run(ctx))
}

func (j *RenewalScanJob) run(ctx context.Context) error {
	if j.sender == nil {
		j.logger.Warn("contract renewal scan skipped, no sender configured")
		return nil
	}
	expiring, err := j.contracts.ListExpiring(ctx, j.window)
	if err != nil {
		return err
	}

	var sent atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reminderConcurrency)
	for _, c := range expiring {
		g.Go(func() error {
			if c.AccountID == nil || c.EndDate == nil {
				return nil
			}
			phone, err := j.accounts.PhoneOf(ctx, c.OrgID, *c.AccountID)
			if err != nil || phone == "" {
				return nil
			}
			days := int(c.EndDate.Sub(j.now()).Hours() / 24)
			if days < 0 {
				return nil
			}
			body := notify.ContractReminderMessage(c.Code, days)
			if err := j.sender.Send(ctx, phone, body); err != nil {
				j.logger.Warn("contract reminder",
					slog.String("contract", c.Code), slog.Any("error", err))
			} else {
				sent.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	j.logger.Info("contract renewal scan",
		slog.Int("expiring", len(expiring)), slog.Int64("reminders_sent", sent.Load()))
	return nil
}
