package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilders(t *testing.T) {
	assert.Equal(t,
		"Your service request SR-20240115-0007 has been updated. Status: RESOLVED",
		ServiceRequestStatusMessage("SR-20240115-0007", "RESOLVED"))

	scheduled := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t,
		"Your installation WO-20240115-0001 has been scheduled for 3 Feb 2024",
		InstallationScheduledMessage("WO-20240115-0001", scheduled))

	assert.Equal(t,
		"Reminder: Your contract CON-20240101-0002 will expire in 30 days",
		ContractReminderMessage("CON-20240101-0002", 30))

	msg := QuoteIssuedMessage("QT-20240115-0003", 125000)
	assert.Contains(t, msg, "QT-20240115-0003")
	assert.Contains(t, msg, "₹125,000.00")
}

func TestClientSendPostsMessage(t *testing.T) {
	var captured struct {
		path string
		auth string
		body textPayload
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Config{PhoneNumberID: "12345", AccessToken: "token", APIVersion: "v17.0"}, srv.Client())
	client.baseURL = srv.URL

	err := client.Send(context.Background(), "+91 98765-43210", "hello")
	require.NoError(t, err)

	assert.Equal(t, "/v17.0/12345/messages", captured.path)
	assert.Equal(t, "Bearer token", captured.auth)
	assert.Equal(t, "whatsapp", captured.body.MessagingProduct)
	assert.Equal(t, "919876543210", captured.body.To)
	assert.Equal(t, "hello", captured.body.Text.Body)
}

func TestClientSendUnconfigured(t *testing.T) {
	client := NewClient(Config{}, nil)
	err := client.Send(context.Background(), "123", "hello")
	assert.Error(t, err)
}

func TestClientSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(Config{PhoneNumberID: "1", AccessToken: "t"}, srv.Client())
	client.baseURL = srv.URL

	err := client.Send(context.Background(), "123", "hello")
	assert.Error(t, err)
}
