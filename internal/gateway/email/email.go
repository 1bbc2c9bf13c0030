// Package email sends alert emails through a configured provider.
package email

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Status is the provider's verdict on one message.
type Status struct {
	Code      int
	Delivered bool
	Detail    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (Status, error)
}

// UpstreamError is a non-success answer from the provider.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Body)
}

type Config struct {
	Provider string
	From     string

	SendGridAPIKey  string
	SendGridBaseURL string

	SMTP SMTPConfig
}

// New picks the provider named in cfg.
func New(cfg Config, httpClient *http.Client, log *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "sendgrid", "":
		c := NewSendGrid(cfg.SendGridAPIKey, cfg.From,
			WithBaseURL(cfg.SendGridBaseURL), WithHTTPClient(httpClient))
		if !c.Configured() {
			return nil, fmt.Errorf("sendgrid: missing api key")
		}
		return c, nil
	case "smtp":
		return NewSMTP(cfg.SMTP, cfg.From, log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
