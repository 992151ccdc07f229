// Package rest implements service.Service over the backend's HTTP/JSON API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskdesk/internal/config"
	"taskdesk/internal/logging"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

const (
	loginPath   = "/api/v1/employee/login"
	orgPath     = "/api/v1/organization/"
	orgAddPath  = "/api/v1/organization/add"
	orgUpdPath  = "/api/v1/organization/update/"
	orgDelPath  = "/api/v1/organization/delete/"
	taskPath    = "/api/v1/task/"
	taskAddPath = "/api/v1/task/add"
	taskUpdPath = "/api/v1/task/update/"
	taskDelPath = "/api/v1/task/delete/"
)

// Client implements service.Service against the REST endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a client for cfg.Server. Outgoing requests are traced with
// otelhttp.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return NewWithHTTPClient(cfg.Server, cfg.Timeout, httpClient, logger)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// A nil logger discards.
func NewWithHTTPClient(baseURL string, timeout time.Duration, httpClient *http.Client, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		timeout: timeout,
		logger:  logger,
	}
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, c.http, http.MethodPost, loginPath, creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", service.ErrNoToken
	}
	return resp.Token, nil
}

// ListOrganizations implements service.Service.
func (c *Client) ListOrganizations(ctx context.Context, auth session.Auth) ([]service.Organization, error) {
	hc, err := c.authed(auth)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.do(ctx, hc, http.MethodGet, orgPath, nil, &raw); err != nil {
		return nil, err
	}
	return decodeOrganizations(raw)
}

// CreateOrganization implements service.Service.
func (c *Client) CreateOrganization(ctx context.Context, auth session.Auth, fields service.OrganizationFields) (service.Organization, error) {
	hc, err := c.authed(auth)
	if err != nil {
		return service.Organization{}, err
	}

	var resp organizationEnvelope
	if err := c.do(ctx, hc, http.MethodPost, orgAddPath, fields, &resp); err != nil {
		return service.Organization{}, err
	}
	return resp.Organization, nil
}

// UpdateOrganization implements service.Service.
func (c *Client) UpdateOrganization(ctx context.Context, auth session.Auth, id string, fields service.OrganizationFields) (service.Organization, error) {
	hc, err := c.authed(auth)
	if err != nil {
		return service.Organization{}, err
	}

	var resp organizationEnvelope
	if err := c.do(ctx, hc, http.MethodPut, orgUpdPath+url.PathEscape(id), fields, &resp); err != nil {
		return service.Organization{}, err
	}
	return resp.Organization, nil
}

// DeleteOrganization implements service.Service.
func (c *Client) DeleteOrganization(ctx context.Context, auth session.Auth, id string) error {
	hc, err := c.authed(auth)
	if err != nil {
		return err
	}
	return c.do(ctx, hc, http.MethodDelete, orgDelPath+url.PathEscape(id), nil, nil)
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var resp struct {
		Tasks []service.Task `json:"tasks"`
	}
	if err := c.do(ctx, c.http, http.MethodGet, taskPath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, c.http, http.MethodPost, taskAddPath, fields, &raw); err != nil {
		return service.Task{}, err
	}
	return decodeTask(raw)
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, task service.Task) (service.Task, error) {
	if task.ID == "" {
		return service.Task{}, errors.New("task id required")
	}
	var raw json.RawMessage
	if err := c.do(ctx, c.http, http.MethodPut, taskUpdPath+url.PathEscape(task.ID), task, &raw); err != nil {
		return service.Task{}, err
	}
	return decodeTask(raw)
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) (service.Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, c.http, http.MethodDelete, taskDelPath+url.PathEscape(id), nil, &raw); err != nil {
		return service.Task{}, err
	}
	return decodeTask(raw)
}

// authed returns an HTTP client that sends the session's bearer token.
func (c *Client) authed(auth session.Auth) (*http.Client, error) {
	src := auth.TokenSource()
	if src == nil {
		return nil, service.ErrNotLoggedIn
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: c.http.Transport},
		Timeout:   c.http.Timeout,
	}, nil
}

// do sends one JSON request and decodes the response into out (if non-nil).
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "err", err)
		return wrapTransportError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	)

	if err := googleapi.CheckResponse(resp); err != nil {
		return toAPIError(err)
	}

	if out == nil {
		return nil
	}
	// An empty body decodes as "no content".
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid response from %s %s: %w", method, path, err)
	}
	return nil
}

// wrapTransportError marks failures where no response arrived.
func wrapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", service.ErrUnreachable)
	}
	return fmt.Errorf("%w: %v", service.ErrUnreachable, err)
}

// toAPIError converts googleapi's error into the service taxonomy, lifting
// the backend's {"message": "..."} body field.
func toAPIError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	apiErr := &service.APIError{StatusCode: gerr.Code, Message: gerr.Message}
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(gerr.Body), &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
	}
	return apiErr
}
