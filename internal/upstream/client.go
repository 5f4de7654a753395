// Package upstream issues HTTP requests to the external data vendors.
// HTTP-level error statuses are reported as *Error values; only transport
// failures (DNS, connect, timeout, TLS) surface as wrapped errors.
package upstream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"fundpulse/internal/config"
)

// browserHeaders is the fixed header set carried on every call. The
// vendors block obviously non-browser clients; values are static
// configuration, never computed per request.
var browserHeaders = map[string]string{
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "zh-CN,zh;q=0.9",
	"User-Agent":      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15",
}

type Error struct {
	Status int
	URL    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.URL, e.Status)
}

type Client struct {
	hc  *http.Client
	log zerolog.Logger
}

// New builds the shared vendor client. Certificate verification follows
// cfg.TLSVerify; the historical default is off because several vendor
// hosts present certificates the deployment environment does not trust.
func New(cfg config.Config, log zerolog.Logger) *Client {
	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !cfg.TLSVerify},
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 20,
	}
	return &Client{
		hc:  &http.Client{Transport: transport},
		log: log.With().Str("component", "upstream").Logger(),
	}
}

// Get fetches rawURL with the given query parameters and returns the raw
// body. Extra headers override the browser set per key.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		c.log.Warn().Str("url", rawURL).Err(err).Msg("upstream transport failure")
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if res.StatusCode >= 300 {
		c.log.Warn().Str("url", rawURL).Int("status", res.StatusCode).Msg("upstream error status")
		return nil, &Error{Status: res.StatusCode, URL: rawURL}
	}
	return body, nil
}

// GetJSON fetches and decodes a JSON payload into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, timeout time.Duration, out any) error {
	body, err := c.Get(ctx, rawURL, params, headers, timeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// GetText fetches and returns the body as a string.
func (c *Client) GetText(ctx context.Context, rawURL string, params url.Values, headers map[string]string, timeout time.Duration) (string, error) {
	body, err := c.Get(ctx, rawURL, params, headers, timeout)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
