// Package graph is a small client for the management service REST API. It
// authenticates every request with an Azure token credential and reports any
// non-success response as a RequestError.
package graph

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

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/micahrl/graphsync/internal/record"
)

const (
	DefaultBaseURL = "https://graph.microsoft.com/beta"
	DefaultScope   = "https://graph.microsoft.com/.default"
)

// ErrRemoteRequestFailed is matched by every error caused by a failed or
// rejected request.
var ErrRemoteRequestFailed = errors.New("remote request failed")

// RequestError is returned when the service answers with an unexpected status.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRemoteRequestFailed
}

// Config holds the per-run connection settings.
type Config struct {
	BaseURL      string
	Scope        string
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
	if c.RetryMax == 0 {
		c.RetryMax = 3
	}
	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = time.Second
	}
	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = 30 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

// Client talks to one service base URL.
type Client struct {
	baseURL string
	scope   string
	cred    azcore.TokenCredential
	http    *retryablehttp.Client
	log     logrus.FieldLogger
}

// New returns a Client for cfg that authenticates with cred.
func New(cfg Config, cred azcore.TokenCredential, log logrus.FieldLogger) *Client {
	cfg = cfg.withDefaults()

	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.RetryMax
	hc.RetryWaitMin = cfg.RetryWaitMin
	hc.RetryWaitMax = cfg.RetryWaitMax
	hc.HTTPClient.Timeout = cfg.Timeout
	hc.Logger = leveledLogger{log: log}
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		scope:   cfg.Scope,
		cred:    cred,
		http:    hc,
		log:     log,
	}
}

// Get fetches a single object.
func (c *Client) Get(ctx context.Context, path string) (record.Record, error) {
	var out record.Record
	if err := c.do(ctx, http.MethodGet, path, nil, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List fetches a collection, following @odata.nextLink until the last page.
func (c *Client) List(ctx context.Context, path string) ([]record.Record, error) {
	var items []record.Record
	next := path
	for next != "" {
		var page struct {
			Value    []record.Record `json:"value"`
			NextLink string          `json:"@odata.nextLink"`
		}
		if err := c.do(ctx, http.MethodGet, next, nil, 0, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Value...)
		next = page.NextLink
	}
	return items, nil
}

// Patch sends a partial update. The response body, if any, is discarded.
func (c *Client) Patch(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPatch, path, body, 0, nil)
}

// Post sends body and returns the decoded response. When expectStatus is
// non-zero any other status is an error; otherwise any 2xx is accepted.
func (c *Client) Post(ctx context.Context, path string, body any, expectStatus int) (record.Record, error) {
	var out record.Record
	if err := c.do(ctx, http.MethodPost, path, body, expectStatus, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body any, expectStatus int, out any) error {
	url := c.url(path)

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, url, err)
		}
	}

	var reqBody any
	if payload != nil {
		reqBody = payload
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, url, err)
	}
	tok, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{c.scope}})
	if err != nil {
		return fmt.Errorf("acquiring token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.WithFields(logrus.Fields{"method": method, "url": url}).Debug("graph request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, url, ErrRemoteRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w: %w", method, url, ErrRemoteRequestFailed, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if expectStatus != 0 {
		ok = resp.StatusCode == expectStatus
	}
	if !ok {
		return &RequestError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, url, err)
	}
	return nil
}
