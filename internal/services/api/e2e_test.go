//go:build e2e

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Runs against a live stack: api, sweeper, postgres and MailHog.
//
//	E2E_API_BASE      http://localhost:8000
//	E2E_MAILHOG_BASE  http://localhost:8025
//	E2E_WAIT_EMAIL    0 disables the email wait (needs Amadeus credentials)

type e2eCfg struct {
	APIBase     string
	MailhogBase string
	WaitEmail   time.Duration
}

func loadCfg(t *testing.T) e2eCfg {
	t.Helper()
	d, err := time.ParseDuration(getenv("E2E_WAIT_EMAIL", "0"))
	require.NoError(t, err)
	return e2eCfg{
		APIBase:     getenv("E2E_API_BASE", "http://localhost:8000"),
		MailhogBase: getenv("E2E_MAILHOG_BASE", "http://localhost:8025"),
		WaitEmail:   d,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

type mailhogMessages struct {
	Items []struct {
		To []struct {
			Mailbox string `json:"Mailbox"`
			Domain  string `json:"Domain"`
		} `json:"To"`
		Content struct {
			Headers map[string][]string `json:"Headers"`
		} `json:"Content"`
	} `json:"items"`
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, base string) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: base, http: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
}

func (c *client) do(method, path string, in, out any) int {
	c.t.Helper()
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		require.NoError(c.t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	if out != nil && resp.StatusCode < 300 {
		require.NoError(c.t, json.Unmarshal(raw, out), "body=%s", raw)
	}
	return resp.StatusCode
}

func waitHealthy(t *testing.T, base string) {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(time.Second)
	}
	t.Fatal("api did not become healthy")
}

func TestRuleLifecycle(t *testing.T) {
	cfg := loadCfg(t)
	waitHealthy(t, cfg.APIBase)

	c := newClient(t, cfg.APIBase)
	email := fmt.Sprintf("e2e_%d@flightalert.dev", time.Now().UnixNano())
	creds := map[string]string{"email": email, "password": "E2e-Str0ng!Passw0rd"}

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/register", creds, nil))
	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/auth/register", creds, nil))
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/login", creds, nil))

	var home struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/home", nil, &home))
	require.Equal(t, email, home.User.Email)

	departure := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	var created struct {
		ID       int64 `json:"id"`
		IsActive bool  `json:"is_active"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/notify/notifications/", map[string]any{
		"origin": "mad", "destination": "bcn", "departure_date": departure,
		"max_price": 250, "frequency": 1, "frequency_unit": "minutes",
	}, &created))
	require.NotZero(t, created.ID)
	require.True(t, created.IsActive)

	var list []struct {
		ID          int64  `json:"id"`
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/notify/notifications", nil, &list))
	require.Len(t, list, 1)
	require.Equal(t, "MAD", list[0].Origin)

	if cfg.WaitEmail > 0 {
		waitForEmail(t, cfg, email)
	}

	path := fmt.Sprintf("/notify/notifications/%d/", created.ID)
	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, path, nil, nil))
	require.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, path, nil, nil))

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/logout", nil, nil))
	require.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/auth/home", nil, nil))
}

func waitForEmail(t *testing.T, cfg e2eCfg, to string) {
	t.Helper()
	deadline := time.Now().Add(cfg.WaitEmail)
	for time.Now().Before(deadline) {
		resp, err := http.Get(cfg.MailhogBase + "/api/v2/messages")
		require.NoError(t, err)
		var out mailhogMessages
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		require.NoError(t, err)

		for _, m := range out.Items {
			for _, rcpt := range m.To {
				if !strings.EqualFold(rcpt.Mailbox+"@"+rcpt.Domain, to) {
					continue
				}
				if subj := m.Content.Headers["Subject"]; len(subj) > 0 && strings.Contains(subj[0], "Flight Price Alert") {
					return
				}
			}
		}
		time.Sleep(time.Second)
	}
	t.Fatalf("no alert email for %s within %s", to, cfg.WaitEmail)
}
