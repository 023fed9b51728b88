// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package webapi fetches video details, dictionary definitions and
// encyclopedia summaries for the lookup commands.
package webapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/buger/jsonparser"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Error codes for lookup failures.
const (
	CodeFetchFailed       = "FETCH_FAILED"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeNoResults         = "NO_RESULTS"
	CodeMissingKey        = "MISSING_API_KEY"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 1 << 20

// Defaults for Config fields left zero.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 250 * time.Millisecond
	DefaultUserAgent  = "convex-irc-bot"
)

// Endpoints are the base URLs of the three services.
type Endpoints struct {
	YouTube    string
	Dictionary string
	Wikipedia  string
}

// Config configures a Client.
type Config struct {
	Endpoints  Endpoints
	YouTubeKey string

	HTTPClient *http.Client // nil uses a client with DefaultTimeout
	MaxRetries uint64       // retries after the first attempt
	BaseDelay  time.Duration
	UserAgent  string
}

// Client performs lookups. It is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// get fetches endpoint with query, retrying transport errors, 429 and 5xx
// responses with exponential backoff.
func (c *Client) get(ctx context.Context, service, endpoint string, query url.Values) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, oops.Code(CodeFetchFailed).
			With("service", service).
			Wrapf(err, "parsing %s endpoint", service)
	}
	u.RawQuery = query.Encode()

	var body []byte
	backoff := retry.WithMaxRetries(c.cfg.MaxRetries, retry.NewExponential(c.cfg.BaseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				urlErr.URL = u.Host
			}
			return retry.RetryableError(err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return retry.RetryableError(err)
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("unexpected status %d", resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		body = data
		return nil
	})
	if err != nil {
		// the query may carry an API key; only the host goes into context
		return nil, oops.Code(CodeFetchFailed).
			With("service", service).
			With("host", u.Host).
			Wrapf(err, "fetching from %s", service)
	}
	return body, nil
}

// text reads a string at keys. A JSON array yields its first element.
func text(data []byte, keys ...string) (string, error) {
	value, typ, _, err := jsonparser.Get(data, keys...)
	if err != nil {
		return "", err //nolint:wrapcheck // callers decide the code
	}
	switch typ {
	case jsonparser.String:
		return jsonparser.ParseString(value) //nolint:wrapcheck // callers decide the code
	case jsonparser.Array:
		return jsonparser.GetString(value, "[0]") //nolint:wrapcheck // callers decide the code
	case jsonparser.Null:
		return "", nil
	default:
		return string(value), nil
	}
}

func malformed(service string, err error, path string) error {
	return oops.Code(CodeMalformedResponse).
		With("service", service).
		With("path", path).
		Wrapf(err, "reading %s response", service)
}

func noResults(service, query string) error {
	return oops.Code(CodeNoResults).
		With("service", service).
		With("query", query).
		Errorf("%s returned no results", service)
}

// UserMessage converts a lookup error into a short reply.
func UserMessage(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Lookup failed."
	}
	switch oopsErr.Code() {
	case CodeNoResults:
		return "Query returned no results."
	case CodeFetchFailed:
		return "That service is not responding right now. Try again later."
	case CodeMalformedResponse:
		return "That service sent a reply I couldn't read."
	case CodeMissingKey:
		return "That lookup is not configured."
	default:
		return "Lookup failed."
	}
}
