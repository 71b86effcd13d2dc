// Package api is the HTTP client for the todo backend.
package api

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
	"time"

	dom "ostadtodo/internal/domain"
	"ostadtodo/internal/dto"

	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a single request when none is configured.
const DefaultTimeout = 5 * time.Second

// ErrUnauthorized matches any 401 response via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Client talks to the backend. Authenticated calls take their bearer token
// from the TokenSource on every request.
type Client struct {
	base    *url.URL
	anon    *http.Client
	authed  *http.Client
	timeout time.Duration
}

// New returns a client for baseURL. tokens may be nil, in which case todo
// calls are sent without credentials.
func New(baseURL string, tokens oauth2.TokenSource, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api url must be http or https, got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		base:    base,
		anon:    &http.Client{},
		timeout: timeout,
	}
	c.authed = c.anon
	if tokens != nil {
		c.authed = &http.Client{Transport: &oauth2.Transport{Source: tokens, Base: http.DefaultTransport}}
	}
	return c, nil
}

// Register creates an account. The backend does not log the user in.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, c.anon, http.MethodPost, "/register", dto.RegisterRequest{Username: username, Password: password}, nil)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp dto.LoginResponse
	if err := c.do(ctx, c.anon, http.MethodPost, "/login", dto.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("api: login response has no token")
	}
	return resp.Token, nil
}

// List returns the tasks of date.
func (c *Client) List(ctx context.Context, date dom.Date) ([]dom.Task, error) {
	var resp []dto.TodoResponse
	if err := c.do(ctx, c.authed, http.MethodGet, "/todos/"+date.String(), nil, &resp); err != nil {
		return nil, err
	}
	tasks := make([]dom.Task, 0, len(resp))
	for _, r := range resp {
		t, err := fromResponse(r)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Create adds a task to date's bucket and returns it with the server-assigned id.
func (c *Client) Create(ctx context.Context, text string, date dom.Date) (dom.Task, error) {
	var resp dto.TodoResponse
	if err := c.do(ctx, c.authed, http.MethodPost, "/todos", dto.CreateTodoRequest{Text: text, Date: date.String()}, &resp); err != nil {
		return dom.Task{}, err
	}
	return fromResponse(resp)
}

func (c *Client) SetCompleted(ctx context.Context, id string, completed bool) (dom.Task, error) {
	var resp dto.TodoResponse
	body := dto.SetCompletedRequest{Completed: &completed}
	if err := c.do(ctx, c.authed, http.MethodPut, "/todos/"+url.PathEscape(id), body, &resp); err != nil {
		return dom.Task{}, err
	}
	return fromResponse(resp)
}

func (c *Client) UpdateText(ctx context.Context, id, text string) (dom.Task, error) {
	var resp dto.TodoResponse
	if err := c.do(ctx, c.authed, http.MethodPut, "/todos/"+url.PathEscape(id)+"/text", dto.UpdateTextRequest{Text: text}, &resp); err != nil {
		return dom.Task{}, err
	}
	return fromResponse(resp)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, c.authed, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e dto.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func fromResponse(r dto.TodoResponse) (dom.Task, error) {
	date, err := dom.ParseDate(r.Date)
	if err != nil {
		return dom.Task{}, fmt.Errorf("task %s: %w", r.ID, err)
	}
	return dom.Task{ID: r.ID, Date: date, Text: r.Text, Completed: r.Completed}, nil
}
