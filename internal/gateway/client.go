// Package gateway holds the outbound HTTP plumbing shared by the provider adapters.
package gateway

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/NordCoder/FlightAlert/internal/obs"
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// NewHTTPClient builds a traced client with bounded dial, TLS and overall timeouts.
// Redirects are not followed.
func NewHTTPClient(cfg Config) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	var rt http.RoundTripper = transport
	if cfg.UserAgent != "" {
		rt = userAgent{base: rt, ua: cfg.UserAgent}
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: obs.HTTPTransport(rt),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type userAgent struct {
	base http.RoundTripper
	ua   string
}

func (u userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") == "" {
		r = r.Clone(r.Context())
		r.Header.Set("User-Agent", u.ua)
	}
	return u.base.RoundTrip(r)
}
