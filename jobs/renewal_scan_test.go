package jobs

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/contracts"
	"github.com/meridian-crm/meridian/internal/shared"
)

type stubContracts struct {
	expiring []contracts.Contract
}

func (s *stubContracts) ListExpiring(_ context.Context, _ time.Duration) ([]contracts.Contract, error) {
	return s.expiring, nil
}

type stubAccounts struct {
	phones map[uuid.UUID]string
}

func (s *stubAccounts) PhoneOf(_ context.Context, _, id uuid.UUID) (string, error) {
	phone, ok := s.phones[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return phone, nil
}

type stubSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *stubSender) Send(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+": "+body)
	return nil
}

func TestRenewalScanSendsRemindersToReachableAccounts(t *testing.T) {
	orgID := uuid.New()
	reachable := uuid.New()
	unreachable := uuid.New()
	end := time.Now().Add(15 * 24 * time.Hour)

	src := &stubContracts{expiring: []contracts.Contract{
		{OrgID: orgID, Code: "CON-20260810-0001", AccountID: &reachable, EndDate: &end},
		{OrgID: orgID, Code: "CON-20260810-0002", AccountID: &unreachable, EndDate: &end},
		{OrgID: orgID, Code: "CON-20260810-0003", EndDate: &end},
	}}
	accounts := &stubAccounts{phones: map[uuid.UUID]string{reachable: "+91 98765 43210"}}
	sender := &stubSender{}

	job := NewRenewalScanJob(src, accounts, sender, 30*24*time.Hour, slog.Default(), nil)
	err := job.Handle(context.Background(), NewContractRenewalScanTask())
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "CON-20260810-0001")
	assert.Contains(t, sender.sent[0], "expire in 14 days")
}

func TestWhatsAppSendJobDeliversPayload(t *testing.T) {
	sender := &stubSender{}
	job := NewWhatsAppSendJob(sender, slog.Default())

	task, err := NewWhatsAppSendTask(WhatsAppSendPayload{To: "+911234567890", Body: "hello"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+911234567890: hello", sender.sent[0])
}
