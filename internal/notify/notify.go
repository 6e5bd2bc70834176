// Package notify delivers SMS notifications.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/config"

	"go.uber.org/zap"
)

// Sender delivers one text message.
type Sender interface {
	Send(ctx context.Context, to, body string) error
	// Live reports whether messages actually leave the process.
	Live() bool
}

// New returns a TwilioSender when credentials are configured, otherwise a LogSender.
func New(cfg config.TwilioConfig, log *zap.Logger) Sender {
	if cfg.Enabled() {
		return NewTwilioSender(cfg, log)
	}
	log.Warn("twilio credentials not configured, SMS will only be logged")
	return NewLogSender(log)
}

// TwilioSender posts messages through the Twilio REST API.
type TwilioSender struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
	log        *zap.Logger
}

// NewTwilioSender creates a Twilio-backed sender.
func NewTwilioSender(cfg config.TwilioConfig, log *zap.Logger) *TwilioSender {
	return &TwilioSender{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log.Named("twilio"),
	}
}

// Send posts one message. Non-2xx responses become notification errors.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	form := url.Values{"From": {s.from}, "To": {to}, "Body": {body}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return apperror.Notification("twilio request", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return apperror.Notification("twilio send failed", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperror.Notification(fmt.Sprintf("twilio_failed_%d", resp.StatusCode), nil)
	}

	s.log.Debug("sms sent", zap.String("to", to))
	return nil
}

// Live is always true for Twilio.
func (s *TwilioSender) Live() bool { return true }

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("sms")}
}

// Send logs the message and never fails.
func (s *LogSender) Send(ctx context.Context, to, body string) error {
	s.log.Info("sms (not delivered)", zap.String("to", to), zap.String("body", body))
	return nil
}

// Live is always false.
func (s *LogSender) Live() bool { return false }

var (
	_ Sender = (*TwilioSender)(nil)
	_ Sender = (*LogSender)(nil)
)
