// Package http builds outbound HTTP clients and small JSON helpers for them
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/kevin07696/mealplan-service/pkg/encoding"
)

// ClientProfile sizes the connection pool and timeouts for one outbound dependency
type ClientProfile struct {
	Name            string
	MaxConnsPerHost int
	IdleConnTimeout time.Duration
	DialTimeout     time.Duration
	HeaderTimeout   time.Duration
	RequestTimeout  time.Duration
}

// MailRelayProfile targets a single relay host receiving small JSON posts
// from the sweep and the API
func MailRelayProfile() ClientProfile {
	return ClientProfile{
		Name:            "mail-relay",
		MaxConnsPerHost: 20,
		IdleConnTimeout: 90 * time.Second,
		DialTimeout:     5 * time.Second,
		HeaderTimeout:   10 * time.Second,
		RequestTimeout:  15 * time.Second,
	}
}

// NewClient returns a keep-alive client limited to p's pool size. TLS 1.2 is the floor.
func NewClient(p ClientProfile) *http.Client {
	dialer := &net.Dialer{Timeout: p.DialTimeout, KeepAlive: 60 * time.Second}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          p.MaxConnsPerHost,
		MaxIdleConnsPerHost:   p.MaxConnsPerHost,
		MaxConnsPerHost:       p.MaxConnsPerHost,
		IdleConnTimeout:       p.IdleConnTimeout,
		TLSHandshakeTimeout:   p.DialTimeout,
		ResponseHeaderTimeout: p.HeaderTimeout,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{Transport: transport, Timeout: p.RequestTimeout}
}

// StatusError is returned by PostJSON for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the response is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// PostJSON encodes v and posts it to url. headers are added as given.
func PostJSON(ctx context.Context, client *http.Client, url string, v interface{}, headers map[string]string) error {
	body, err := encoding.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
