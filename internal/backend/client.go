package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/common/config"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type authTokenKey struct{}

// WithAuthToken attaches the caller's bearer token to outgoing requests
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, authTokenKey{}, token)
}

// AuthToken the caller token carried by ctx, empty when absent
func AuthToken(ctx context.Context) string {
	if v, ok := ctx.Value(authTokenKey{}).(string); ok {
		return v
	}
	return ""
}

// Client records backend REST client. Requests are never retried.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient base URL, default token and timeout from cfg
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &Client{httpClient: client, logger: logger}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", uuid.NewString())
	if tok := AuthToken(ctx); tok != "" {
		req.SetAuthToken(tok)
	}
	return req
}

// execute sends req and converts transport failures and error statuses
func (c *Client) execute(ctx context.Context, req *resty.Request, method, path string) (*resty.Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			c.logger.Debug("Backend request cancelled",
				zap.String("method", method),
				zap.String("path", path),
			)
			return nil, fmt.Errorf("%w: %s %s", ErrCancelled, method, path)
		}
		c.logger.Error("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr := parseAPIError(resp.StatusCode(), resp.Body())
		c.logger.Warn("Backend returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}
	if err := checkSuccessFlag(resp.StatusCode(), resp.Body()); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, build func(*resty.Request)) ([]byte, error) {
	req := c.request(ctx)
	if build != nil {
		build(req)
	}
	resp, err := c.execute(ctx, req, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any, build func(*resty.Request)) ([]byte, error) {
	req := c.request(ctx).SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	if build != nil {
		build(req)
	}
	resp, err := c.execute(ctx, req, method, path)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Errors  map[string][]string `json:"errors"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Message = eb.Message
		if apiErr.Message == "" {
			apiErr.Message = eb.Error
		}
		apiErr.Code = eb.Code
		apiErr.Fields = eb.Errors
	}
	return apiErr
}

// checkSuccessFlag some endpoints answer 200 with {"success": false}
func checkSuccessFlag(status int, body []byte) error {
	var flag struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &flag); err != nil || flag.Success == nil || *flag.Success {
		return nil
	}
	return &APIError{Status: status, Message: flag.Message, Code: flag.Code}
}
