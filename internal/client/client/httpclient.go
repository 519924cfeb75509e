package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ccelrecreo/recreo/internal/client/models"
	"github.com/ccelrecreo/recreo/internal/common"
	"github.com/ccelrecreo/recreo/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	loginPath    = "/loginCuenta"
	registerPath = "/scrCuentas"
	profilePath  = "/cuentascra/"

	maxErrorBody = 64 << 10
)

type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "api"),
	}
}

func (c *HTTPClient) Login(ctx context.Context, cred models.Credential) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, c.http, http.MethodPost, loginPath, cred, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Register(ctx context.Context, account models.Account) error {
	if account.Status == "" {
		account.Status = models.AccountActive
	}
	return c.do(ctx, c.http, http.MethodPost, registerPath, account, nil)
}

// Profile fetches the account record with the session token as bearer.
func (c *HTTPClient) Profile(ctx context.Context, token string, accountID int64) (models.Profile, error) {
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, c.http)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	authed := oauth2.NewClient(authCtx, src)
	authed.Timeout = c.http.Timeout

	var resp struct {
		Data models.Profile `json:"data"`
	}
	path := profilePath + strconv.FormatInt(accountID, 10)
	if err := c.do(ctx, authed, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: profile without data", ErrMalformedResponse)
	}
	return resp.Data, nil
}

func (c *HTTPClient) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "api request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "api request", "method", method, "path", path, "request_id", requestID,
		"status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	var body struct {
		Error   any `json:"error"`
		Message any `json:"message"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return apiErr
	}
	for _, v := range []any{body.Error, body.Message} {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			apiErr.Message = s
			break
		}
	}
	return apiErr
}

var _ Client = (*HTTPClient)(nil)
