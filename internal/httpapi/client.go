package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const maxErrorBodyBytes = 64 << 10

// TokenPair is the credential material returned by login, register, and
// refresh responses. RefreshToken is empty on refresh responses unless the
// backend rotates it.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserPayload is the user record embedded in login/register responses and
// returned by /auth/me.
type UserPayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar"`
	Role      string `json:"role"`
}

// Response is the raw outcome of an arbitrary protected call. Any received
// HTTP status is a Response, never an error; errors are transport-level only.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Call describes one arbitrary protected request.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Client speaks the backend auth API over HTTP.
//
// Client instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// New creates a wire client for the backend rooted at baseURL.
func New(baseURL string, httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		userAgent: userAgent,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *UserPayload `json:"user"`
}

type meResponse struct {
	User *UserPayload `json:"user"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Login exchanges email and password for a token pair and the confirmed user.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, UserPayload, error) {
	var out authResponse
	if err := c.postJSON(ctx, "/auth/login", loginRequest{Email: email, Password: password}, "", &out); err != nil {
		return TokenPair{}, UserPayload{}, err
	}
	return validateAuthResponse(out)
}

// Register creates an account and returns a token pair and the new user.
func (c *Client) Register(ctx context.Context, username, email, password string) (TokenPair, UserPayload, error) {
	var out authResponse
	req := registerRequest{Username: username, Email: email, Password: password}
	if err := c.postJSON(ctx, "/auth/register", req, "", &out); err != nil {
		return TokenPair{}, UserPayload{}, err
	}
	return validateAuthResponse(out)
}

// Me confirms the identity behind accessToken.
func (c *Client) Me(ctx context.Context, accessToken string) (UserPayload, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/me", nil, nil, accessToken)
	if err != nil {
		return UserPayload{}, err
	}

	var out meResponse
	if err := c.doJSON(req, &out); err != nil {
		return UserPayload{}, err
	}
	if out.User == nil || out.User.ID == "" {
		return UserPayload{}, fmt.Errorf("%w: /auth/me without user", ErrMalformedResponse)
	}
	return *out.User, nil
}

// RefreshToken exchanges the refresh token for a new token pair. The returned
// RefreshToken is empty unless the backend rotated it.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	var out authResponse
	if err := c.postJSON(ctx, "/auth/refresh-token", refreshRequest{RefreshToken: refreshToken}, "", &out); err != nil {
		return TokenPair{}, err
	}
	if out.AccessToken == "" {
		return TokenPair{}, fmt.Errorf("%w: refresh without accessToken", ErrMalformedResponse)
	}
	return TokenPair{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}, nil
}

// Do dispatches one arbitrary protected call with the given bearer token.
// Every received HTTP status is returned as a Response; the error is non-nil
// only for transport-level failures.
func (c *Client) Do(ctx context.Context, call Call, accessToken string) (*Response, error) {
	var body io.Reader
	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, call.Method, call.Path, call.Query, body, accessToken)
	if err != nil {
		return nil, err
	}
	for k, vs := range call.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if call.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  req.Header.Get("X-Request-ID"),
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, accessToken string) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in any, accessToken string, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, bytes.NewReader(data), accessToken)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(req, out)
}

// doJSON dispatches req and decodes a 2xx body into out. Non-2xx statuses
// decode the error envelope into a StatusError.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func decodeStatusError(resp *http.Response) error {
	se := &StatusError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return se
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil {
		se.Code = envelope.Code
		se.Message = envelope.Message
		if se.Message == "" {
			se.Message = envelope.Error
		}
	}
	return se
}

func validateAuthResponse(out authResponse) (TokenPair, UserPayload, error) {
	if out.AccessToken == "" || out.RefreshToken == "" {
		return TokenPair{}, UserPayload{}, fmt.Errorf("%w: auth response without token pair", ErrMalformedResponse)
	}
	if out.User == nil || out.User.ID == "" {
		return TokenPair{}, UserPayload{}, fmt.Errorf("%w: auth response without user", ErrMalformedResponse)
	}
	return TokenPair{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}, *out.User, nil
}
