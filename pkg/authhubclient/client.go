// Package authhubclient is the Go client services use to talk to AuthHub:
// validating access tokens, checking user permissions and keeping their
// endpoint inventory in sync.
package authhubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	headerServiceToken = "X-Service-Token"
	headerServiceName  = "X-Service-Name"

	defaultTimeout    = 5 * time.Second
	defaultMaxRetries = 3
)

type Config struct {
	// BaseURL is the AuthHub root, e.g. http://authhub:8080.
	BaseURL      string
	ServiceToken string
	// ServiceName identifies the caller and is the default service for
	// endpoint sync and matching.
	ServiceName string
	Timeout     time.Duration
	// MaxRetries bounds attempts for transport errors and 5xx answers.
	MaxRetries uint
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackOff replaces the exponential retry policy.
func WithBackOff(b backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = func() backoff.BackOff { return b } }
}

type Client struct {
	base       *url.URL
	cfg        Config
	http       *http.Client
	newBackOff func() backoff.BackOff

	mu   sync.Mutex
	spec *Spec
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("authhubclient: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("authhubclient: parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	c := &Client{
		base: base,
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describes one call. bearer switches from service token to user
// token authentication.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	bearer  string
	headers map[string]string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends req, retrying transport failures and 5xx answers. Any other
// non-2xx status is returned as *APIError without retrying, except 304 which
// callers handle themselves.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("authhubclient: encode body: %w", err)
		}
		payload = b
	}

	u := c.base.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	attempt := func() (*response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		hr, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		hr.Header.Set("Accept", "application/json")
		if payload != nil {
			hr.Header.Set("Content-Type", "application/json")
		}
		if req.bearer != "" {
			hr.Header.Set("Authorization", "Bearer "+req.bearer)
		} else {
			hr.Header.Set(headerServiceToken, c.cfg.ServiceToken)
		}
		if c.cfg.ServiceName != "" {
			hr.Header.Set(headerServiceName, c.cfg.ServiceName)
		}
		for k, v := range req.headers {
			hr.Header.Set(k, v)
		}

		resp, err := c.http.Do(hr)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		res := &response{status: resp.StatusCode, header: resp.Header, body: raw}

		switch {
		case resp.StatusCode >= 500:
			return nil, newAPIError(res)
		case resp.StatusCode >= 400:
			return nil, backoff.Permanent(newAPIError(res))
		}
		return res, nil
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.cfg.MaxRetries),
	)
}

func (c *Client) getJSON(ctx context.Context, req request, dst any) error {
	res, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return decode(res.body, dst)
}

func decode(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("authhubclient: decode response: %w", err)
	}
	return nil
}
