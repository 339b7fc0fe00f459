// Package backend talks to the application backend that owns SOS messages
// and announcements.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/resqlink/internal/announcement"
	"github.com/mr1hm/resqlink/internal/fetch"
	"github.com/mr1hm/resqlink/internal/livefeed"
	"github.com/mr1hm/resqlink/internal/models"
	"github.com/mr1hm/resqlink/internal/sos"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// ErrEmptyContent rejects blank announcements before any request is sent.
var ErrEmptyContent = announcement.ErrEmptyContent

// APIError is a non-2xx answer to a mutating call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	http    *fetch.Client
	baseURL string
	clock   clockwork.Clock
}

func NewClient(httpClient *fetch.Client, baseURL string, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		clock:   clock,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListSOSMessages fetches the live SOS list. The body must be a JSON array;
// entries that are not objects become empty records and are defaulted by
// the live feed.
func (c *Client) ListSOSMessages(ctx context.Context) ([]livefeed.RawUpdate, error) {
	u := c.baseURL + "/get_sos_messages"

	var items []json.RawMessage
	if err := c.http.GetJSON(ctx, u, &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, &fetch.ParseError{URL: u, Err: errors.New("response is not an array")}
	}

	out := make([]livefeed.RawUpdate, 0, len(items))
	for _, raw := range items {
		out = append(out, livefeed.RawUpdate(decodeObject(raw)))
	}
	return out, nil
}

// ListAnnouncements returns the announcements that carry an id. A body that
// is not an array yields an empty list.
func (c *Client) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	u := c.baseURL + "/get_announcements"

	var body json.RawMessage
	if err := c.http.GetJSON(ctx, u, &body); err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return []models.Announcement{}, nil
	}

	now := c.now()
	out := make([]models.Announcement, 0, len(items))
	for _, raw := range items {
		m := decodeObject(raw)
		id := firstString(m, "id", "_id")
		if id == "" {
			continue
		}
		out = append(out, models.Announcement{
			ID:          id,
			Content:     firstString(m, "content", "message"),
			CreatedAt:   orDefault(firstString(m, "created_at", "timestamp"), now),
			IsImportant: truthy(m["is_important"]),
		})
	}
	return out, nil
}

func (c *Client) CreateAnnouncement(ctx context.Context, content string) (models.Announcement, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Announcement{}, ErrEmptyContent
	}

	resp, err := c.send(ctx, http.MethodPost, c.baseURL+"/create_announcement", map[string]string{"content": content})
	if err != nil {
		return models.Announcement{}, err
	}

	m := decodeObject(resp.Body())
	return models.Announcement{
		ID:          orDefault(firstString(m, "id", "_id"), strconv.FormatInt(c.clock.Now().UnixMilli(), 10)),
		Content:     orDefault(firstString(m, "content"), content),
		CreatedAt:   orDefault(firstString(m, "created_at"), c.now()),
		IsImportant: truthy(m["is_important"]),
	}, nil
}

// UpdateAnnouncement replaces the content of id and returns the content the
// backend stored.
func (c *Client) UpdateAnnouncement(ctx context.Context, id, content string) (models.Announcement, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Announcement{}, ErrEmptyContent
	}

	u := c.baseURL + "/update_announcement/" + url.PathEscape(id)
	resp, err := c.send(ctx, http.MethodPut, u, map[string]string{"content": content})
	if err != nil {
		return models.Announcement{}, err
	}

	m := decodeObject(resp.Body())
	return models.Announcement{
		ID:          id,
		Content:     orDefault(firstString(m, "content"), content),
		CreatedAt:   firstString(m, "created_at", "timestamp"),
		IsImportant: truthy(m["is_important"]),
	}, nil
}

func (c *Client) DeleteAnnouncement(ctx context.Context, id string) error {
	u := c.baseURL + "/delete_announcement/" + url.PathEscape(id)
	_, err := c.send(ctx, http.MethodDelete, u, nil)
	return err
}

// SubmitSOS validates the report and posts it. The decoded response body is
// returned as-is.
func (c *Client) SubmitSOS(ctx context.Context, r sos.Report) (map[string]any, error) {
	payload, err := r.Payload(c.clock.Now())
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPost, c.baseURL+"/api/v1/sos", payload)
	if err != nil {
		return nil, err
	}
	return decodeObject(resp.Body()), nil
}

func (c *Client) send(ctx context.Context, method, u string, body any) (*resty.Response, error) {
	resp, err := c.http.Do(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp)
	}
	return resp, nil
}

// newAPIError takes the message from the body's "message" or "error" field,
// falling back to the status line.
func newAPIError(resp *resty.Response) *APIError {
	m := decodeObject(resp.Body())
	msg := firstString(m, "message", "error")
	if msg == "" {
		msg = fmt.Sprintf("server responded with %s", resp.Status())
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}

func (c *Client) now() string {
	return c.clock.Now().UTC().Format(timestampLayout)
}

func decodeObject(data []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// firstString returns the first key holding a non-empty string or a
// non-zero number.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v != 0 {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
	}
	return ""
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0
	}
	return false
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
