// Package notify delivers scan alerts through the Pushover messages API.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/obentoo/scanwatch/internal/common/config"
	"github.com/obentoo/scanwatch/internal/common/logger"
	"github.com/obentoo/scanwatch/internal/common/version"
	"github.com/obentoo/scanwatch/internal/tracking"
)

// Error variables for notification errors
var (
	// ErrDeliveryFailed is returned when the provider rejects the message
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 15 * time.Second

// Message is the request body accepted by the messages endpoint.
type Message struct {
	Token   string `json:"token"`
	User    string `json:"user"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// apiResponse is the provider's reply. Status is 1 on success.
type apiResponse struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors,omitempty"`
}

// Pushover sends one message per call. It never retries.
type Pushover struct {
	client   *resty.Client
	creds    config.Credentials
	endpoint string
	title    string
	log      *logger.Logger
}

// Option is a functional option for configuring Pushover
type Option func(*Pushover)

// WithEndpoint overrides the messages endpoint
func WithEndpoint(endpoint string) Option {
	return func(p *Pushover) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

// WithTitle overrides the notification title
func WithTitle(title string) Option {
	return func(p *Pushover) {
		if title != "" {
			p.title = title
		}
	}
}

// WithLogger sets the logger Dispatch reports to
func WithLogger(log *logger.Logger) Option {
	return func(p *Pushover) {
		p.log = log
	}
}

// WithTimeout sets the delivery timeout
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pushover) {
		p.client.SetTimeout(timeout)
	}
}

// NewPushover creates a notifier for the given credentials.
func NewPushover(creds config.Credentials, opts ...Option) *Pushover {
	client := resty.New()
	client.SetTimeout(DefaultTimeout)
	client.SetHeader("User-Agent", version.UserAgent())

	p := &Pushover{
		client:   client,
		creds:    creds,
		endpoint: config.DefaultNotifyEndpoint,
		title:    config.DefaultNotifyTitle,
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FormatMessage returns the notification body for an event.
func FormatMessage(event tracking.ScanEvent) string {
	return fmt.Sprintf("New scan: %s - %s", event.Location, event.Details)
}

// NewMessage builds the request body for an event.
func (p *Pushover) NewMessage(event tracking.ScanEvent) Message {
	return Message{
		Token:   p.creds.AppToken,
		User:    p.creds.UserKey,
		Title:   p.title,
		Message: FormatMessage(event),
	}
}

// Send delivers a notification for event and waits for the provider's answer.
func (p *Pushover) Send(ctx context.Context, event tracking.ScanEvent) error {
	var ok, failed apiResponse

	res, err := p.client.R().
		SetContext(ctx).
		SetBody(p.NewMessage(event)).
		SetResult(&ok).
		SetError(&failed).
		Post(p.endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if res.IsError() {
		if len(failed.Errors) > 0 {
			return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, res.StatusCode(), strings.Join(failed.Errors, "; "))
		}
		return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, res.StatusCode(), strings.TrimSpace(res.String()))
	}

	p.log.Debug("Notification accepted (request %s)", ok.Request)
	return nil
}

// Dispatch sends a notification and logs the outcome. Failures end here.
func (p *Pushover) Dispatch(ctx context.Context, event tracking.ScanEvent) {
	if err := p.Send(ctx, event); err != nil {
		p.log.Error("Error sending notification: %v", err)
		return
	}
	p.log.Info("Notification sent successfully.")
}
