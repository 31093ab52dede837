// Package client is a typed client for the voicenotes REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"voicenotes/internal/auth"
	"voicenotes/internal/diary"
	"voicenotes/internal/lecture"
	"voicenotes/internal/note"
	"voicenotes/internal/task"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

type Client struct {
	baseURL string
	userID  string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithUserID sends the X-User-Id fallback header on every request.
func WithUserID(id string) Option { return func(c *Client) { c.userID = id } }

// WithToken sends a bearer session token on every request.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(auth.UserIDHeader, c.userID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// newAPIError prefers the JSON "error" field, then the raw body, then the
// status text.
func newAPIError(resp *http.Response, raw []byte) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	} else if s := strings.TrimSpace(string(raw)); s != "" {
		msg = s
	} else {
		msg = fmt.Sprintf("Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func idPath(prefix string, id uint64) string {
	return prefix + "/" + strconv.FormatUint(id, 10)
}

func (c *Client) Me(ctx context.Context) (*auth.User, error) {
	var u auth.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListNotes(ctx context.Context, tag, query string) ([]note.Note, error) {
	q := url.Values{}
	if tag != "" {
		q.Set("tag", tag)
	}
	if query != "" {
		q.Set("q", query)
	}
	path := "/api/notes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []note.Note
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateNote(ctx context.Context, title, content string) (*note.Note, error) {
	var out note.Note
	body := map[string]string{"title": title, "content": content}
	if err := c.do(ctx, http.MethodPost, "/api/notes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetNote(ctx context.Context, id uint64) (*note.Note, error) {
	var out note.Note
	if err := c.do(ctx, http.MethodGet, idPath("/api/notes", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteNote(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/notes", id), nil, nil)
}

func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var out []task.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, description string) (*task.Task, error) {
	var out task.Task
	body := map[string]any{"description": description}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TaskPatch mirrors the PATCH body; nil fields are omitted.
type TaskPatch struct {
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

func (c *Client) UpdateTask(ctx context.Context, id uint64, patch TaskPatch) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPatch, idPath("/api/tasks", id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/tasks", id), nil, nil)
}

func (c *Client) ListLectures(ctx context.Context, subject string) ([]lecture.Note, error) {
	path := "/api/lectures"
	if subject != "" {
		path += "?" + url.Values{"subject": {subject}}.Encode()
	}
	var out []lecture.Note
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateLecture(ctx context.Context, subject, content string) (*lecture.Note, error) {
	var out lecture.Note
	body := map[string]string{"subject": subject, "content": content}
	if err := c.do(ctx, http.MethodPost, "/api/lectures", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteLecture(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/lectures", id), nil, nil)
}

func (c *Client) ListDiary(ctx context.Context) ([]diary.Entry, error) {
	var out []diary.Entry
	if err := c.do(ctx, http.MethodGet, "/api/diary", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDiary posts an entry; an empty date lets the server use today.
func (c *Client) CreateDiary(ctx context.Context, content, date string) (*diary.Entry, error) {
	var out diary.Entry
	body := map[string]string{"content": content}
	if date != "" {
		body["date"] = date
	}
	if err := c.do(ctx, http.MethodPost, "/api/diary", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDiary(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/diary", id), nil, nil)
}
