package ats

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"jobmirror/internal/ats/util"
	"jobmirror/internal/domain"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "jobmirror/1.0 (+https://github.com/jobmirror)"

	maxBody = 8 << 20
)

// Options are shared by every connector.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Limiter   *util.HostLimiter
	Logger    *zap.Logger
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	return o
}

// Client performs one bounded request at a time and maps failures onto the
// domain error kinds.
type Client struct {
	opts Options
}

func NewClient(opts Options) *Client {
	return &Client{opts: opts.withDefaults()}
}

func (c *Client) Logger() *zap.Logger { return c.opts.Logger }
func (c *Client) UserAgent() string { return c.opts.UserAgent }
func (c *Client) Timeout() time.Duration { return c.opts.Timeout }
func (c *Client) HTTPClient() *http.Client { return c.opts.HTTPClient }
func (c *Client) Limiter() *util.HostLimiter { return c.opts.Limiter }

func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil)
}

// PostJSON sends a JSON body and returns the response body.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload []byte) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, rawURL, payload)
}

func (c *Client) Do(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.WaitURL(ctx, rawURL); err != nil {
			return nil, Classify(err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request %q: %v", domain.ErrParse, rawURL, err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
	}

	res, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, Classify(err))
	}
	defer res.Body.Close()

	if err := StatusError(res.StatusCode, rawURL); err != nil {
		return nil, err
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, Classify(err))
	}
	return b, nil
}

// StatusError maps a non-2xx status. 404 is an explicit absence.
func StatusError(code int, rawURL string) error {
	switch {
	case code >= 200 && code <= 299:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, rawURL)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d from %s", domain.ErrTimeout, code, rawURL)
	default:
		return fmt.Errorf("unexpected status %d from %s", code, rawURL)
	}
}

// Classify turns deadline and network timeouts into domain.ErrTimeout,
// keeping the original error in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrTimeout) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}
