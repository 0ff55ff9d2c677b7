// Package notify delivers outbound WhatsApp notifications. Delivery is
// fire-and-forget throughout the application: callers log failures and never
// propagate them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Sender delivers one pre-formatted message to a destination phone number.
// The production implementation enqueues an asynchronous task; tests use
// in-memory fakes.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Config carries WhatsApp Business API credentials.
type Config struct {
	PhoneNumberID string
	AccessToken   string
	APIVersion    string
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool {
	return c.PhoneNumberID != "" && c.AccessToken != ""
}

// Client posts text messages to the WhatsApp Business API.
type Client struct {
	cfg     Config
	httpc   *http.Client
	baseURL string
}

// NewClient constructs a Client. httpc may be nil, in which case
// http.DefaultClient is used.
func NewClient(cfg Config, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v17.0"
	}
	return &Client{cfg: cfg, httpc: httpc, baseURL: "https://graph.facebook.com"}
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Send posts a text message. Unconfigured credentials are reported as an
// error so the caller can log and drop the message.
func (c *Client) Send(ctx context.Context, to, body string) error {
	if !c.cfg.Configured() {
		return fmt.Errorf("notify: whatsapp credentials not configured")
	}

	payload := textPayload{MessagingProduct: "whatsapp", To: digitsOnly(to), Type: "text"}
	payload.Text.Body = body
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.cfg.APIVersion, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: whatsapp api returned %d", resp.StatusCode)
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
