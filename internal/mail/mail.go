// Package mail delivers transactional email: contact-form forwarding and
// critical-feedback alerts.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/config"
)

type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the Sender selected by cfg.Provider.
func New(cfg config.MailConfig, logger *zap.Logger) Sender {
	if cfg.Provider == "http" {
		return NewHTTPSender(cfg.Endpoint, cfg.APIKey, cfg.From, nil)
	}
	return NewLogSender(cfg.From, logger)
}

// HTTPSender posts messages to a transactional email API that accepts a
// JSON body and a bearer API key (Resend, Postmark-compatible proxies).
type HTTPSender struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

func NewHTTPSender(endpoint, apiKey, from string, client *http.Client) *HTTPSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSender{endpoint: endpoint, apiKey: apiKey, from: from, client: client}
}

// ProviderError carries a non-2xx answer from the email API.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("mail: provider returned %d: %s", e.Status, e.Body)
}

func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.from
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mail: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mail: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ProviderError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	from string
	log  *zap.Logger
}

func NewLogSender(from string, logger *zap.Logger) *LogSender {
	return &LogSender{from: from, log: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.from
	}
	s.log.Info("mail: message not delivered (log provider)",
		zap.String("from", msg.From),
		zap.Strings("to", msg.To),
		zap.String("replyTo", msg.ReplyTo),
		zap.String("subject", msg.Subject),
		zap.Int("textBytes", len(msg.Text)),
	)
	return nil
}
