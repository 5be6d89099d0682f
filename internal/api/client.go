// Package api is the HTTP adapter for the remote Konnect chat service. It
// wraps the CSRF, auth, and message endpoints, normalizes success and error
// shapes, and classifies failures into api.Error kinds.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// accountExistsPattern reclassifies HTTP 400 registration failures whose
// message looks like a duplicate-account report. Some deployments answer 400
// instead of 409 for existing usernames; this is a documented workaround for
// that inconsistency, not an exhaustive classification.
var accountExistsPattern = regexp.MustCompile(`(?i)exist|already|taken|duplicate|registered`)

// Client talks to the remote Konnect API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zerolog.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// do issues a request and returns the status code plus the raw body text.
// The body is always read fully (it may be empty); transport failures come
// back as the error with status 0.
func (c *Client) do(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		// partial reads are tolerated the same as empty bodies
		raw = nil
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("api request")

	return resp.StatusCode, raw, nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// Csrf fetches a fresh anti-forgery token. Every mutating call needs its own;
// tokens are single-use and never cached.
func (c *Client) Csrf(ctx context.Context) (string, error) {
	status, raw, err := c.do(ctx, http.MethodPatch, "/csrf", "", nil)
	if err != nil {
		return "", apiError(KindCsrf, 0, fmt.Sprintf("csrf request failed: %v", err))
	}
	if !success(status) {
		return "", apiError(KindCsrf, status, errorText(raw, fmt.Sprintf("csrf failed (%d)", status)))
	}

	var body csrfResponse
	if json.Unmarshal(raw, &body) != nil || body.CsrfToken == "" {
		return "", apiError(KindCsrf, status, "csrf response missing token")
	}
	return body.CsrfToken, nil
}

// CreateToken exchanges credentials for a bearer token.
func (c *Client) CreateToken(ctx context.Context, username, password, csrfToken string) (string, error) {
	req := tokenRequest{Username: username, Password: password, CsrfToken: csrfToken}
	status, raw, err := c.do(ctx, http.MethodPost, "/auth/token", "", req)
	if err != nil {
		return "", apiError(KindUnknown, 0, fmt.Sprintf("token request failed: %v", err))
	}

	if success(status) {
		var body tokenResponse
		if json.Unmarshal(raw, &body) != nil || body.Token == "" {
			return "", apiError(KindUnknown, status, "token response missing token")
		}
		return body.Token, nil
	}

	msg := errorText(raw, "login failed")
	switch status {
	case http.StatusUnauthorized:
		return "", apiError(KindInvalidCredentials, status, msg)
	case http.StatusBadRequest:
		return "", apiError(KindValidation, status, msg)
	default:
		return "", apiError(KindUnknown, status, msg)
	}
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, params RegisterParams, csrfToken string) error {
	req := registerRequest{
		Username:  params.Username,
		Password:  params.Password,
		Email:     params.Email,
		Avatar:    params.Avatar,
		CsrfToken: csrfToken,
	}
	status, raw, err := c.do(ctx, http.MethodPost, "/auth/register", "", req)
	if err != nil {
		return apiError(KindUnknown, 0, fmt.Sprintf("register request failed: %v", err))
	}
	if success(status) {
		// 201 sometimes arrives without a body; that is still success
		return nil
	}

	msg := errorText(raw, fmt.Sprintf("register failed (%d)", status))
	switch {
	case status == http.StatusConflict:
		return apiError(KindAccountExists, status, msg)
	case status == http.StatusBadRequest && accountExistsPattern.MatchString(msg):
		return apiError(KindAccountExists, status, msg)
	case status == http.StatusBadRequest:
		return apiError(KindValidation, status, msg)
	default:
		return apiError(KindUnknown, status, msg)
	}
}

// ListMessages fetches the message list. A body that is not a JSON array is
// tolerated and yields an empty list rather than an error.
func (c *Client) ListMessages(ctx context.Context, token string) ([]WireMessage, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/messages", token, nil)
	if err != nil {
		return nil, apiError(KindRequest, 0, fmt.Sprintf("list messages failed: %v", err))
	}
	if !success(status) {
		return nil, apiError(KindRequest, status, errorText(raw, fmt.Sprintf("could not fetch messages (%d)", status)))
	}

	var messages []WireMessage
	if json.Unmarshal(raw, &messages) != nil {
		return []WireMessage{}, nil
	}
	return messages, nil
}

// CreateMessage posts a new message. A fresh anti-forgery token is fetched
// for this call alone. The returned message may be nil when the server
// answers with an empty body.
func (c *Client) CreateMessage(ctx context.Context, token, text string) (*WireMessage, error) {
	csrfToken, err := c.Csrf(ctx)
	if err != nil {
		return nil, err
	}

	req := createMessageRequest{Text: text, CsrfToken: csrfToken}
	status, raw, err := c.do(ctx, http.MethodPost, "/messages", token, req)
	if err != nil {
		return nil, apiError(KindRequest, 0, fmt.Sprintf("create message failed: %v", err))
	}
	if !success(status) {
		return nil, apiError(KindRequest, status, errorText(raw, fmt.Sprintf("could not create message (%d)", status)))
	}

	var msg WireMessage
	if json.Unmarshal(raw, &msg) != nil {
		return nil, nil
	}
	return &msg, nil
}

// DeleteMessage removes a message by id. As with CreateMessage, a fresh
// anti-forgery token is fetched per call.
func (c *Client) DeleteMessage(ctx context.Context, token, id string) error {
	csrfToken, err := c.Csrf(ctx)
	if err != nil {
		return err
	}

	status, raw, err := c.do(ctx, http.MethodDelete, "/messages/"+id, token, deleteMessageRequest{CsrfToken: csrfToken})
	if err != nil {
		return apiError(KindRequest, 0, fmt.Sprintf("delete message failed: %v", err))
	}
	if !success(status) {
		return apiError(KindRequest, status, errorText(raw, fmt.Sprintf("could not delete message (%d)", status)))
	}
	return nil
}
