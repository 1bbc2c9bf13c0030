package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultSendGridURL = "https://api.sendgrid.com"

var _ Sender = (*SendGrid)(nil)

// SendGrid talks to the v3 mail send endpoint.
type SendGrid struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

type Option func(*SendGrid)

func WithHTTPClient(c *http.Client) Option {
	return func(s *SendGrid) {
		if c != nil {
			s.httpClient = c
		}
	}
}

func WithBaseURL(u string) Option {
	return func(s *SendGrid) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func NewSendGrid(apiKey, from string, opts ...Option) *SendGrid {
	s := &SendGrid{
		apiKey:     apiKey,
		from:       from,
		baseURL:    defaultSendGridURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SendGrid) Configured() bool {
	return s.apiKey != ""
}

type sgAddress struct {
	Email string `json:"email"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMail struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

// Send reports Delivered only for 202 Accepted.
func (s *SendGrid) Send(ctx context.Context, msg Message) (Status, error) {
	payload := sgMail{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: msg.To}}}},
		From:             sgAddress{Email: s.from},
		Subject:          msg.Subject,
		Content:          []sgContent{{Type: "text/html", Value: msg.HTML}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Status{}, fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return Status{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Status{Code: resp.StatusCode, Delivered: true, Detail: "Email sent successfully"}, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	st := Status{Code: resp.StatusCode, Detail: string(raw)}
	return st, &UpstreamError{Provider: "sendgrid", Status: resp.StatusCode, Body: string(raw)}
}
