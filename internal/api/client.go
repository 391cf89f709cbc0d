// Package api talks to the compensation backend: batch submissions,
// municipality lists and the species status lookup.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"compensa/internal"
	"compensa/internal/config"
	"compensa/internal/logging"
)

type endpoint struct {
	path     string
	envelope string
}

var batchEndpoints = map[internal.Domain]endpoint{
	internal.DomainIsolated: {path: "/api/compensacao/lote", envelope: "items"},
	internal.DomainPatch:    {path: "/api/compensacao/patch", envelope: "patches"},
	internal.DomainApp:      {path: "/api/compensacao/app", envelope: "apps"},
}

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	log        *zap.Logger
	backoff    func(attempt int) time.Duration
}

func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.APITimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.APIRateLimit),
		log:        logging.OrNop(logger),
		backoff:    defaultBackoff,
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SubmitBatch posts the ordered items of one domain and returns the
// normalised result. An empty list fails with ErrEmptyBatch without touching
// the network.
func (c *Client) SubmitBatch(ctx context.Context, domain internal.Domain, items []internal.LineItem) (internal.BatchResult, error) {
	if len(items) == 0 {
		return internal.BatchResult{}, ErrEmptyBatch
	}
	ep, ok := batchEndpoints[domain]
	if !ok {
		return internal.BatchResult{}, fmt.Errorf("unsupported domain: %s", domain)
	}

	payload := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payload = append(payload, item.Payload())
	}
	body, err := json.Marshal(map[string]any{ep.envelope: payload})
	if err != nil {
		return internal.BatchResult{}, err
	}

	status, raw, err := c.do(ctx, http.MethodPost, ep.path, nil, body)
	if err != nil {
		return internal.BatchResult{}, err
	}
	if status < 200 || status >= 300 {
		return internal.BatchResult{}, &HTTPError{Status: status, Message: serverMessage(raw)}
	}

	doc, err := decodeObject(raw)
	if err != nil {
		return internal.BatchResult{}, &ParseError{Err: err}
	}
	result := Normalize(domain, doc)
	c.log.Debug("batch computed",
		zap.String("domain", string(domain)),
		zap.Int("items", len(items)),
		zap.Int("results", len(result.Results)),
		zap.Int("unmatched", len(result.Unmatched)),
		zap.Float64("total", result.Total))
	return result, nil
}

// do performs one logical request, retrying transient statuses and
// transport failures. It returns the final status and body.
func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body []byte) (int, []byte, error) {
	u, err := c.url(path, params)
	if err != nil {
		return 0, nil, err
	}

	attempts := c.cfg.APIMaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return 0, nil, &NetworkError{Err: err}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("api request failed", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			// A POST that timed out may already have been applied.
			if method == http.MethodPost && isTimeout(err) {
				break
			}
			if !c.sleep(ctx, attempt, attempts) {
				break
			}
			continue
		}

		raw, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if method == http.MethodPost {
				break
			}
			if !c.sleep(ctx, attempt, attempts) {
				break
			}
			continue
		}

		c.log.Debug("api response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Int("bytes", len(raw)),
			zap.Duration("elapsed", time.Since(start)))

		if isRetryableStatus(resp.StatusCode) && attempt < attempts {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if !c.sleep(ctx, attempt, attempts) {
				break
			}
			continue
		}
		return resp.StatusCode, raw, nil
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return 0, nil, &NetworkError{Err: lastErr}
}

func (c *Client) url(path string, params map[string]string) (string, error) {
	base := strings.TrimRight(c.cfg.APIBaseURL, "/")
	u, err := url.Parse(base + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// sleep waits out the backoff before the next attempt. It reports false when
// no attempt is left or ctx ended.
func (c *Client) sleep(ctx context.Context, attempt, attempts int) bool {
	if attempt >= attempts {
		return false
	}
	timer := time.NewTimer(c.backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func defaultBackoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
}

// 500 is final: it carries rule errors meant for the user.
func isRetryableStatus(status int) bool {
	switch status {
	case 429, 502, 503, 504:
		return true
	default:
		return false
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("response is not a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}
	return doc, nil
}

// serverMessage extracts the error text of a failed response, preferring
// "erro" over "error". Bodies that are not JSON objects yield "".
func serverMessage(raw []byte) string {
	doc, err := decodeObject(raw)
	if err != nil {
		return ""
	}
	for _, key := range []string{"erro", "error"} {
		if s, ok := doc[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
