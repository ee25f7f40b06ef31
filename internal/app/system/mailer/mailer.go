// Package mailer sends transactional email through the provider's HTTP
// API. One request per send, no retry; callers decide how to surface a
// failure.
package mailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultBaseURL = "https://api.brevo.com/v3/smtp/email"
	defaultTimeout = 15 * time.Second
)

// Email is one outbound message.
type Email struct {
	To       []string
	CC       []string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds provider settings. An empty APIKey disables sending.
type Config struct {
	APIKey      string
	SenderName  string
	SenderEmail string
	BaseURL     string
	Timeout     time.Duration
}

// Mailer is the provider client. Safe for concurrent use.
type Mailer struct {
	http   *http.Client
	cfg    Config
	logger *zap.Logger
}

// New builds a Mailer from config, filling in endpoint and timeout
// defaults.
func New(logger *zap.Logger, cfg Config) *Mailer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Mailer{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// Enabled reports whether the mailer has the credentials to send.
func (m *Mailer) Enabled() bool {
	return m.cfg.APIKey != "" && m.cfg.SenderEmail != ""
}

type recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendPayload struct {
	Sender      recipient   `json:"sender"`
	To          []recipient `json:"to"`
	CC          []recipient `json:"cc,omitempty"`
	ReplyTo     *recipient  `json:"replyTo,omitempty"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
	TextContent string      `json:"textContent,omitempty"`
}

// Send delivers msg through the provider. It returns an error when the
// mailer is unconfigured, the message has no recipients, or the provider
// rejects the request.
func (m *Mailer) Send(ctx context.Context, msg Email) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer is not configured")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	payload := sendPayload{
		Sender:      recipient{Email: m.cfg.SenderEmail, Name: m.cfg.SenderName},
		To:          toRecipients(msg.To),
		CC:          toRecipients(msg.CC),
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLBody,
		TextContent: msg.TextBody,
	}
	if msg.ReplyTo != "" {
		payload.ReplyTo = &recipient{Email: msg.ReplyTo}
	}

	body, err := jsonCodec.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", m.cfg.APIKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email provider HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	m.logger.Debug("email sent",
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(msg.To)))
	return nil
}

func toRecipients(addrs []string) []recipient {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]recipient, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, recipient{Email: a})
	}
	return out
}
