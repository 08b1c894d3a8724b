// Package client is the Go client for a bookswap server: a thin wrapper over
// the REST API plus the stateful pieces a UI needs, a request cache and a
// notification inbox that reconcile optimistic local writes with the realtime
// change feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookswap/internal/domain/exchange"
	"bookswap/internal/domain/message"
	"bookswap/internal/domain/notification"
)

// Client talks to one bookswap server as one authenticated user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the API at baseURL ("http://host:port") using the
// given access token. http.DefaultClient would let a dead server hang the UI
// forever, so the client carries its own timeout.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken swaps the access token after a refresh.
func (c *Client) SetToken(token string) {
	c.token = token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do runs one request/response cycle against the envelope protocol. Network
// and timeout failures come back wrapping ErrTransient; server failures come
// back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return newAPIError(resp.StatusCode, "", http.StatusText(resp.StatusCode))
		}
		return fmt.Errorf("%w: decoding response: %v", ErrTransient, err)
	}

	if !env.Success || resp.StatusCode >= 400 {
		code, message := "", ""
		if env.Error != nil {
			code, message = env.Error.Code, env.Error.Message
		}
		return newAPIError(resp.StatusCode, code, message)
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// CreateRequest opens a swap request for a book.
func (c *Client) CreateRequest(ctx context.Context, bookID int64, msg string) (*exchange.Request, error) {
	var payload struct {
		Request *exchange.Request `json:"request"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/requests", exchange.CreateRequestRequest{
		BookID:  bookID,
		Message: msg,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Request, nil
}

// RespondToRequest answers a pending request against one of the user's books.
// Decision is "accepted" or "rejected".
func (c *Client) RespondToRequest(ctx context.Context, requestID, decision, msg string) (*exchange.Request, error) {
	var payload struct {
		Request *exchange.Request `json:"request"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/requests/"+requestID+"/respond", exchange.RespondRequest{
		Decision: decision,
		Message:  msg,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Request, nil
}

// MyRequests fetches the user's requests, both sent and received.
func (c *Client) MyRequests(ctx context.Context) (*exchange.ListMineResponse, error) {
	var out exchange.ListMineResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/requests/mine", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Notifications fetches one page of the inbox, newest first, along with the
// server-derived unread count.
func (c *Client) Notifications(ctx context.Context, limit, offset int) ([]notification.Notification, int64, error) {
	var payload struct {
		Notifications []notification.Notification `json:"notifications"`
		UnreadCount   int64                       `json:"unread_count"`
	}
	path := fmt.Sprintf("/api/v1/notifications?limit=%d&offset=%d", limit, offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, 0, err
	}
	return payload.Notifications, payload.UnreadCount, nil
}

// MarkNotificationRead marks a single notification as read. The server treats
// repeats as no-ops, so retrying is safe.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/notifications/%d/read", id), nil, nil)
}

// MarkAllNotificationsRead flips the whole unread set and reports how many
// rows the server changed.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	var payload struct {
		Updated int64 `json:"updated"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/notifications/read-all", nil, &payload); err != nil {
		return 0, err
	}
	return payload.Updated, nil
}

// SendMessage posts into an accepted request's thread.
func (c *Client) SendMessage(ctx context.Context, requestID, body string) (*message.Message, error) {
	var payload struct {
		Message *message.Message `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/requests/"+requestID+"/messages", message.SendRequest{Body: body}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Message, nil
}

// Messages fetches a request thread, oldest first.
func (c *Client) Messages(ctx context.Context, requestID string) ([]message.Message, error) {
	var payload struct {
		Messages []message.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/requests/"+requestID+"/messages", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Messages, nil
}
