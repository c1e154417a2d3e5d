package anchore

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const defaultRequestTimeout = 60 * time.Second

// Response is the raw answer of the service to a single request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Accepted reports whether the service answered 200 or 202, the only codes
// it uses for a successful call.
func (r *Response) Accepted() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusAccepted
}

// Client talks to the analysis service API with basic authentication.
type Client struct {
	baseURL    *url.URL
	username   string
	password   string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestTimeout bounds every single request.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithInsecureSkipTLSVerify(skip bool) Option {
	return func(c *Client) {
		if !skip {
			return
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		c.httpClient.Transport = tr
	}
}

func NewClient(rawURL, username, password string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid service url %q", rawURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("service url %q must include scheme and host", rawURL)
	}

	c := &Client{
		baseURL:    u,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post sends payload encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, query url.Values, payload any) (*Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request body")
	}
	return c.do(ctx, http.MethodPost, path, query, data)
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*Response, error) {
	target := c.endpoint(path, query)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s request for %s", method, target)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.WithFields(log.Fields{"method": method, "url": target}).Debug("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, target)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", target)
	}

	log.WithFields(log.Fields{"method": method, "url": target, "status": resp.StatusCode}).Debug("received response")
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
