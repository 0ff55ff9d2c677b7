package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeWhatsAppSend is the task type for outbound WhatsApp messages.
	TaskTypeWhatsAppSend = "whatsapp:send"
	// TaskTypeContractRenewalScan is the task type for the contract expiry scan.
	TaskTypeContractRenewalScan = "contracts:renewal_scan"
)

// WhatsAppSendPayload describes one outbound message.
type WhatsAppSendPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// NewWhatsAppSendTask constructs an Asynq task for one message.
func NewWhatsAppSendTask(payload WhatsAppSendPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWhatsAppSend, data), nil
}

// NewContractRenewalScanTask constructs the renewal scan task.
func NewContractRenewalScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeContractRenewalScan, nil)
}

// WhatsAppSendJob delivers queued messages through the Graph API client.
type WhatsAppSendJob struct {
	sender notify.Sender
	logger *slog.Logger
}

// NewWhatsAppSendJob constructs the job.
func NewWhatsAppSendJob(sender notify.Sender, logger *slog.Logger) *WhatsAppSendJob {
	return &WhatsAppSendJob{sender: sender, logger: logger}
}

// Handle processes TaskTypeWhatsAppSend tasks.
func (j *WhatsAppSendJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload WhatsAppSendPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if j.sender == nil {
		j.logger.Warn("whatsapp sender not configured, dropping message",
			slog.String("to", payload.To))
		return nil
	}
	if err := j.sender.Send(ctx, payload.To, payload.Body); err != nil {
		j.logger.Error("whatsapp send", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	return nil
}

// AsyncSender satisfies notify.Sender by enqueueing messages for the worker
// instead of calling the Graph API inline.
type AsyncSender struct {
	client *Client
}

// NewAsyncSender constructs an AsyncSender.
func NewAsyncSender(client *Client) *AsyncSender {
	return &AsyncSender{client: client}
}

// Send enqueues the message on the default queue.
func (s *AsyncSender) Send(ctx context.Context, to, body string) error {
	_, err := s.client.EnqueueWhatsAppSend(ctx, WhatsAppSendPayload{To: to, Body: body})
	return err
}
