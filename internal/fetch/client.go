package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "resqlink/1.0"

// Client issues single-shot JSON requests. It never retries: a failure is
// returned to the caller as the terminal state of that attempt.
type Client struct {
	rc *resty.Client
}

func NewClient() *Client {
	return NewClientWithHTTP(&http.Client{})
}

// NewClientWithHTTP wraps an existing http.Client, mainly so tests can point
// at an httptest server transport.
func NewClientWithHTTP(hc *http.Client) *Client {
	rc := resty.NewWithClient(hc)
	rc.SetRetryCount(0)
	rc.SetHeader("User-Agent", defaultUserAgent)
	rc.SetHeader("Accept", "application/json")
	return &Client{rc: rc}
}

// GetJSON performs one GET against url and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return &FetchError{URL: url, StatusCode: resp.StatusCode(), Status: resp.Status()}
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return &ParseError{URL: url, Err: err}
	}
	return nil
}

// Do sends a request with an optional JSON body and returns the raw response
// whatever its status. Only transport failures are reported as errors.
func (c *Client) Do(ctx context.Context, method, url string, body any) (*resty.Response, error) {
	req := c.rc.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("error doing request: %w", err)}
	}
	return resp, nil
}
