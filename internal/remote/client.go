// Package remote talks to the task tracker HTTP/JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "task-tracker/internal/errors"
	"task-tracker/internal/model"
)

const (
	maxBody      = 8 << 20
	maxErrorBody = 64 << 10
)

// Client is the remote collaborator used by the session store, the task
// coordinator and the category service.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.WithField("component", "remote"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type userResponse struct {
	User model.User `json:"user"`
}

type taskBody struct {
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Priority model.Priority `json:"priority"`
	Date     string         `json:"date"`
	Active   bool           `json:"active"`
}

type categoryBody struct {
	Name string `json:"name"`
}

// serverMessage covers both shapes the API uses for failures.
type serverMessage struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (m serverMessage) text() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, in model.Registration) error {
	status, body, err := c.do(ctx, http.MethodPost, "/auth/register", "", in)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusUnprocessableEntity:
		return c.fail("POST /auth/register", appErrors.ErrValidation, status, body)
	default:
		return c.fail("POST /auth/register", appErrors.ErrNetwork, status, body)
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
		var resp loginResponse
		if err := json.Unmarshal(body, &resp); err != nil || resp.Token == "" {
			return "", &appErrors.RemoteError{Kind: appErrors.ErrNetwork, Op: "POST /auth/login", Status: status, Message: "response has no token"}
		}
		return resp.Token, nil
	case http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusUnauthorized:
		return "", c.fail("POST /auth/login", appErrors.ErrInvalidCredentials, status, body)
	default:
		return "", c.fail("POST /auth/login", appErrors.ErrNetwork, status, body)
	}
}

// FetchUser loads the identity behind token.
func (c *Client) FetchUser(ctx context.Context, token, userID string) (*model.User, error) {
	op := "GET /user"
	status, body, err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(userID), token, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		var resp userResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &appErrors.RemoteError{Kind: appErrors.ErrNetwork, Op: op, Status: status, Message: "malformed user payload"}
		}
		return &resp.User, nil
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
		return nil, c.fail(op, appErrors.ErrUnauthorized, status, body)
	default:
		return nil, c.fail(op, appErrors.ErrNetwork, status, body)
	}
}

// ListTasks returns every task of userID. The API answers 404 when the user has none.
func (c *Client) ListTasks(ctx context.Context, token, userID string) ([]model.Task, error) {
	op := "GET /tasks"
	status, body, err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(userID), token, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		tasks, err := decodeList[model.Task](body)
		if err != nil {
			return nil, &appErrors.RemoteError{Kind: appErrors.ErrNetwork, Op: op, Status: status, Message: err.Error()}
		}
		return tasks, nil
	case http.StatusNotFound:
		return []model.Task{}, nil
	default:
		return nil, c.fail(op, classify(status), status, body)
	}
}

// CreateTask submits a new task. 422 means the task already exists.
func (c *Client) CreateTask(ctx context.Context, token string, task model.Task) error {
	op := "POST /task"
	status, body, err := c.do(ctx, http.MethodPost, "/task", token, toBody(task))
	if err != nil {
		return err
	}
	switch status {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusUnprocessableEntity:
		return c.fail(op, appErrors.ErrDuplicate, status, body)
	default:
		return c.fail(op, classify(status), status, body)
	}
}

// UpdateTask replaces the editable fields of an existing task.
func (c *Client) UpdateTask(ctx context.Context, token string, task model.Task) error {
	op := "PUT /task"
	status, body, err := c.do(ctx, http.MethodPut, "/task/"+url.PathEscape(task.ID), token, task)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusNoContent {
		return nil
	}
	return c.fail(op, classify(status), status, body)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, token, id string) error {
	op := "DELETE /task"
	status, body, err := c.do(ctx, http.MethodDelete, "/task/"+url.PathEscape(id), token, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusNoContent {
		return nil
	}
	return c.fail(op, classify(status), status, body)
}

// ListCategories returns the categories of userID.
func (c *Client) ListCategories(ctx context.Context, token, userID string) ([]model.Category, error) {
	op := "GET /category"
	status, body, err := c.do(ctx, http.MethodGet, "/category/"+url.PathEscape(userID), token, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		categories, err := decodeList[model.Category](body)
		if err != nil {
			return nil, &appErrors.RemoteError{Kind: appErrors.ErrNetwork, Op: op, Status: status, Message: err.Error()}
		}
		return categories, nil
	case http.StatusNotFound:
		return []model.Category{}, nil
	default:
		return nil, c.fail(op, classify(status), status, body)
	}
}

// CreateCategory adds a category for the token's owner.
func (c *Client) CreateCategory(ctx context.Context, token, name string) error {
	op := "POST /category"
	status, body, err := c.do(ctx, http.MethodPost, "/category", token, categoryBody{Name: name})
	if err != nil {
		return err
	}
	switch status {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusUnprocessableEntity:
		return c.fail(op, appErrors.ErrDuplicate, status, body)
	default:
		return c.fail(op, classify(status), status, body)
	}
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, token, id string) error {
	op := "DELETE /category"
	status, body, err := c.do(ctx, http.MethodDelete, "/category/"+url.PathEscape(id), token, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusNoContent {
		return nil
	}
	return c.fail(op, classify(status), status, body)
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	op := method + " " + path

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal %s: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+strings.Trim(strings.TrimSpace(token), `"`))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("op", op).Warn("request failed")
		return 0, nil, &appErrors.RemoteError{Kind: appErrors.ErrNetwork, Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, nil, &appErrors.RemoteError{Kind: appErrors.ErrNetwork, Op: op, Status: resp.StatusCode, Message: err.Error()}
	}

	c.log.WithFields(logrus.Fields{"op": op, "status": resp.StatusCode}).Debug("response received")
	return resp.StatusCode, body, nil
}

func (c *Client) fail(op string, kind error, status int, body []byte) error {
	var msg serverMessage
	if len(body) > 0 && len(body) <= maxErrorBody {
		_ = json.Unmarshal(body, &msg)
	}
	err := &appErrors.RemoteError{Kind: kind, Op: op, Status: status, Message: msg.text()}
	c.log.WithFields(logrus.Fields{"op": op, "status": status}).WithError(err).Warn("request rejected")
	return err
}

func classify(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return appErrors.ErrUnauthorized
	case http.StatusNotFound:
		return appErrors.ErrNotFound
	default:
		return appErrors.ErrNetwork
	}
}

// decodeList accepts an array or a single object.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '{' {
		var one T
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		return []T{one}, nil
	}
	var many []T
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if many == nil {
		many = []T{}
	}
	return many, nil
}

func toBody(t model.Task) taskBody {
	return taskBody{
		Name:     t.Name,
		Category: t.Category,
		Priority: t.Priority,
		Date:     t.Date,
		Active:   t.Active,
	}
}
