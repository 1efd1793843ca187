// Package client is a typed HTTP client for the rostergrid JSON API.
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
	"strings"
	"time"

	"github.com/good-yellow-bee/rostergrid/internal/models"
	"github.com/good-yellow-bee/rostergrid/internal/roster"
)

// Client talks to /api/v1 on one server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error %d", e.Status)
	}
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// --- HTTP helpers ---

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return apiErr
}

func decodeResponse[T any](resp *http.Response) (T, error) {
	defer resp.Body.Close()
	var zero T

	if err := checkStatus(resp); err != nil {
		return zero, err
	}

	var wrapper struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return zero, fmt.Errorf("decoding response: %w", err)
	}
	return wrapper.Data, nil
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	resp, err := c.doJSON(ctx, method, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeResponse[T](resp)
}

func projectPath(id string, rest ...string) string {
	return "/projects/" + url.PathEscape(id) + strings.Join(rest, "")
}

// --- Projects ---

func (c *Client) ListProjects(ctx context.Context) ([]*models.Project, error) {
	return call[[]*models.Project](ctx, c, http.MethodGet, "/projects", nil)
}

func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return call[*models.Project](ctx, c, http.MethodGet, projectPath(id), nil)
}

// CreateProject creates a project. Nil hours take the server defaults.
func (c *Client) CreateProject(ctx context.Context, name string, startTime, endTime *int) (*models.Project, error) {
	body := map[string]any{"name": name}
	if startTime != nil {
		body["start_time"] = *startTime
	}
	if endTime != nil {
		body["end_time"] = *endTime
	}
	return call[*models.Project](ctx, c, http.MethodPost, "/projects", body)
}

func (c *Client) UpdateProject(ctx context.Context, id string, patch *models.ProjectPatch) (*models.Project, error) {
	return call[*models.Project](ctx, c, http.MethodPatch, projectPath(id), patch)
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	resp, err := c.doJSON(ctx, http.MethodDelete, projectPath(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// --- Roster ---

// SaveResult is the outcome of a synchronous save.
type SaveResult struct {
	Saved  bool `json:"saved"`
	Filled int  `json:"filled"`
}

func (c *Client) Roster(ctx context.Context, id string) (*roster.Roster, error) {
	return call[*roster.Roster](ctx, c, http.MethodGet, projectPath(id, "/roster"), nil)
}

func (c *Client) AddRole(ctx context.Context, id, role string) (*roster.Roster, error) {
	return call[*roster.Roster](ctx, c, http.MethodPost, projectPath(id, "/roster/roles"), map[string]string{"name": role})
}

func (c *Client) RemoveRole(ctx context.Context, id, role string) (*roster.Roster, error) {
	path := projectPath(id, "/roster/roles?name=", url.QueryEscape(role))
	return call[*roster.Roster](ctx, c, http.MethodDelete, path, nil)
}

// Assign signs volunteer up for one cell. An empty volunteer lets the
// server use the token's editor name.
func (c *Client) Assign(ctx context.Context, id, slot, role, volunteer string) (*roster.Roster, error) {
	body := map[string]string{"slot": slot, "role": role}
	if volunteer != "" {
		body["volunteer"] = volunteer
	}
	return call[*roster.Roster](ctx, c, http.MethodPut, projectPath(id, "/roster/assignments"), body)
}

func (c *Client) Clear(ctx context.Context, id, slot, role string) (*roster.Roster, error) {
	body := map[string]string{"slot": slot, "role": role}
	return call[*roster.Roster](ctx, c, http.MethodPost, projectPath(id, "/roster/assignments/clear"), body)
}

func (c *Client) Save(ctx context.Context, id string) (*SaveResult, error) {
	return call[*SaveResult](ctx, c, http.MethodPost, projectPath(id, "/roster/save"), nil)
}
