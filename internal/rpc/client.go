package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/velmart/storefront/internal/platform/logger"
)

const defaultRequestTimeout = 30 * time.Second

const headerIdempotencyToken = "X-Idempotency-Token"

// CallInfo is handed to every registered Hook after a backend call settles.
type CallInfo struct {
	Endpoint   string
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Hook observes completed backend calls. Hooks replace ad-hoc transport
// instrumentation: they are registered explicitly on the client instead of
// wrapping a global HTTP entry point.
type Hook func(info CallInfo)

type ClientConfig struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// Client speaks the backend's JSON-over-POST protocol. Every call carries a
// fixed timeout and a bearer token when one is configured; failures are
// classified into the Kind taxonomy before being returned.
type Client struct {
	baseURL    string
	authToken  string
	timeout    time.Duration
	httpClient *http.Client
	log        logger.Logger
	hooks      []Hook
}

func NewClient(cfg ClientConfig, log logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base URL cannot be empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		timeout:    timeout,
		httpClient: &http.Client{},
		log:        log,
	}, nil
}

// AddHook appends an observer invoked after every call, in registration order.
func (c *Client) AddHook(h Hook) {
	if h != nil {
		c.hooks = append(c.hooks, h)
	}
}

func (c *Client) notifyHooks(info CallInfo) {
	for _, h := range c.hooks {
		h(info)
	}
}

func (c *Client) call(ctx context.Context, endpoint string, reqBody interface{}, headers map[string]string, out interface{}) error {
	start := time.Now()
	status, err := c.do(ctx, endpoint, reqBody, headers, out)
	c.notifyHooks(CallInfo{
		Endpoint:   endpoint,
		StatusCode: status,
		Duration:   time.Since(start),
		Err:        err,
	})
	return err
}

func (c *Client) do(ctx context.Context, endpoint string, reqBody interface{}, headers map[string]string, out interface{}) (int, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, &Error{Kind: KindValidation, Endpoint: endpoint, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, &Error{Kind: KindValidation, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.log.Debugf("POST %s", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			c.log.Warnf("Request to %s exceeded %s timeout", endpoint, c.timeout)
			return 0, &Error{Kind: KindTimeout, Endpoint: endpoint, Err: err}
		}
		return 0, &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, c.classifyStatus(endpoint, resp.StatusCode, string(body))
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &Error{
			Kind:     KindValidation,
			Endpoint: endpoint,
			Message:  "malformed response body",
			Err:      err,
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) classifyStatus(endpoint string, status int, body string) error {
	e := &Error{
		Endpoint:   endpoint,
		StatusCode: status,
		Message:    fmt.Sprintf("HTTP %d: %s", status, strings.TrimSpace(body)),
	}
	switch {
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusConflict:
		e.Kind = KindVersionConflict
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
	case status >= 500:
		e.Kind = KindServerFault
	default:
		e.Kind = KindValidation
	}
	return e
}
