package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/common"
)

// HTTPClient talks to the sync backend's REST API.
type HTTPClient struct {
	baseURL string
	appID   string
	token   string
	http    *http.Client
}

func NewHTTPClient(baseURL, appID string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		appID:   appID,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) SetToken(token string) { c.token = token }
func (c *HTTPClient) IsAuthenticated() bool { return c.token != "" }

// do sends one request and decodes the JSON response into out (when out is
// non-nil). Status 401 maps to common.ErrorUnauthorized so callers can
// distinguish auth loss from transient failures.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.SessionTokenHeader, "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, common.ErrorUnauthorized
	}

	if out != nil && resp.StatusCode != http.StatusNotFound {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

type sessionResponse struct {
	Success      bool   `json:"success"`
	Error        string `json:"error"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	SessionToken string `json:"session_token"`
}

func (c *HTTPClient) auth(ctx context.Context, path, email, password string) (Session, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp sessionResponse
	if _, err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return Session{}, err
	}
	if !resp.Success {
		return Session{}, fmt.Errorf("auth failed: %s", respError(resp.Error))
	}

	c.token = resp.SessionToken
	return Session{UserID: resp.UserID, Email: resp.Email, Token: resp.SessionToken}, nil
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) (Session, error) {
	return c.auth(ctx, "/auth/register", email, password)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (Session, error) {
	return c.auth(ctx, "/auth/login", email, password)
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", map[string]string{}, nil)
	c.token = ""
	return err
}

func (c *HTTPClient) Validate(ctx context.Context) (Session, error) {
	var resp sessionResponse
	if _, err := c.do(ctx, http.MethodGet, "/auth/validate", nil, &resp); err != nil {
		return Session{}, err
	}
	if !resp.Success {
		c.token = ""
		return Session{}, common.ErrorUnauthorized
	}
	return Session{UserID: resp.UserID, Email: resp.Email, Token: c.token}, nil
}

type loadResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    string `json:"data"`
}

func (c *HTTPClient) Load(ctx context.Context) (*annot.Snapshot, error) {
	var resp loadResponse
	status, err := c.do(ctx, http.MethodGet, "/sync/load?app_id="+url.QueryEscape(c.appID), nil, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || resp.Data == "" {
		// no sync data yet
		return nil, nil
	}
	if !resp.Success {
		return nil, fmt.Errorf("sync load failed: %s", respError(resp.Error))
	}

	s, err := annot.DecodeSnapshot(resp.Data)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type saveResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *HTTPClient) Save(ctx context.Context, s annot.Snapshot) error {
	data, err := annot.EncodeSnapshot(s)
	if err != nil {
		return err
	}

	payload := map[string]string{"app_id": c.appID, "data": data}
	var resp saveResponse
	if _, err := c.do(ctx, http.MethodPost, "/sync/save", payload, &resp); err != nil {
		return err
	}
	if !resp.Success {
		if resp.Error == common.ErrEmptySnapshotRejected.Error() {
			return common.ErrEmptySnapshotRejected
		}
		return fmt.Errorf("sync save failed: %s", respError(resp.Error))
	}
	return nil
}

func (c *HTTPClient) AppendEvents(ctx context.Context, events []annot.DeletionEvent) error {
	payload := map[string]any{"app_id": c.appID, "events": events}
	var resp saveResponse
	if _, err := c.do(ctx, http.MethodPost, "/sync/event", payload, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("append events failed: %s", respError(resp.Error))
	}
	return nil
}

type eventsResponse struct {
	Success    bool          `json:"success"`
	Error      string        `json:"error"`
	Events     []annot.Event `json:"events"`
	NextCursor int64         `json:"next_cursor"`
}

func (c *HTTPClient) FetchEvents(ctx context.Context, since int64, limit int) (EventsPage, error) {
	path := fmt.Sprintf("/sync/events?app_id=%s&since=%s&limit=%d",
		url.QueryEscape(c.appID), strconv.FormatInt(since, 10), limit)

	var resp eventsResponse
	if _, err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return EventsPage{}, err
	}
	if !resp.Success {
		return EventsPage{}, fmt.Errorf("fetch events failed: %s", respError(resp.Error))
	}
	return EventsPage{Events: resp.Events, NextCursor: resp.NextCursor}, nil
}

type checkResponse struct {
	Success   bool  `json:"success"`
	Exists    bool  `json:"exists"`
	SizeBytes int64 `json:"size_bytes"`
}

func (c *HTTPClient) Check(ctx context.Context) (CheckResult, error) {
	var resp checkResponse
	if _, err := c.do(ctx, http.MethodGet, "/sync/check?app_id="+url.QueryEscape(c.appID), nil, &resp); err != nil {
		return CheckResult{}, err
	}
	return CheckResult{Exists: resp.Exists, SizeBytes: resp.SizeBytes}, nil
}

func respError(msg string) string {
	if msg == "" {
		return "unknown error"
	}
	return msg
}
