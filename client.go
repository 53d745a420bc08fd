package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Default REST endpoints of the CBT auth backend.
const (
	endpointLogin          = "/auth/login"
	endpointAdminSignup    = "/auth/admin/signup"
	endpointLogout         = "/auth/logout"
	endpointForgotPassword = "/auth/forgot-password"
	endpointResetPassword  = "/auth/reset-password"
	endpointChangePassword = "/auth/change-password"
	endpointCurrentUser    = "/auth/me"
)

// HTTPAuthService talks to the remote auth service over its REST API. A 401
// on an authenticated request is dispatched to the expiry hub; the session
// core reacts through its expiry handler, not here.
type HTTPAuthService struct {
	baseURL string
	client  *http.Client
	tokens  *TokenHolder
	hub     *ExpiryHub
	logger  Logger
}

var _ AuthService = (*HTTPAuthService)(nil)

// ClientOption customizes the HTTP auth service.
type ClientOption func(*HTTPAuthService)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(s *HTTPAuthService) {
		if client != nil {
			s.client = client
		}
	}
}

// WithClientTokens shares the bearer token holder with the Manager.
func WithClientTokens(tokens *TokenHolder) ClientOption {
	return func(s *HTTPAuthService) {
		if tokens != nil {
			s.tokens = tokens
		}
	}
}

// WithClientExpiryHub wires 401 responses to the session-expired signal.
func WithClientExpiryHub(hub *ExpiryHub) ClientOption {
	return func(s *HTTPAuthService) {
		s.hub = hub
	}
}

// WithClientLogger overrides the logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(s *HTTPAuthService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewHTTPAuthService(baseURL string, opts ...ClientOption) *HTTPAuthService {
	s := &HTTPAuthService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		tokens:  NewTokenHolder(),
		logger:  defLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *HTTPAuthService) Login(ctx context.Context, payload Credentials) (*AuthResult, error) {
	result := &AuthResult{}
	if err := s.do(ctx, http.MethodPost, endpointLogin, payload, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *HTTPAuthService) AdminSignup(ctx context.Context, payload AdminSignup) (*AuthResult, error) {
	result := &AuthResult{}
	if err := s.do(ctx, http.MethodPost, endpointAdminSignup, payload, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Logout invalidates the remote session. An unauthorized response means the
// session was already invalid, which is success for a logout.
func (s *HTTPAuthService) Logout(ctx context.Context) error {
	err := s.do(ctx, http.MethodPost, endpointLogout, nil, nil)
	if err != nil && IsUnauthorizedError(err) {
		s.logger.Debug("remote session already invalid on sign out")
		return nil
	}
	return err
}

func (s *HTTPAuthService) ForgotPassword(ctx context.Context, payload ForgotPassword) (*ResetConfirmation, error) {
	confirmation := &ResetConfirmation{}
	if err := s.do(ctx, http.MethodPost, endpointForgotPassword, payload, confirmation); err != nil {
		return nil, err
	}
	return confirmation, nil
}

func (s *HTTPAuthService) ResetPassword(ctx context.Context, payload ResetPassword) (*ResetConfirmation, error) {
	confirmation := &ResetConfirmation{}
	if err := s.do(ctx, http.MethodPost, endpointResetPassword, payload, confirmation); err != nil {
		return nil, err
	}
	return confirmation, nil
}

func (s *HTTPAuthService) ChangePasswordFirstLogin(ctx context.Context, payload ChangePassword) (*User, error) {
	result := &AuthResult{}
	if err := s.do(ctx, http.MethodPost, endpointChangePassword, payload, result); err != nil {
		return nil, err
	}
	if result.User == nil {
		return nil, goerrors.New("auth service returned no user after password change", goerrors.CategoryInternal)
	}
	return result.User, nil
}

func (s *HTTPAuthService) CurrentUser(ctx context.Context) (*User, error) {
	result := &AuthResult{}
	if err := s.do(ctx, http.MethodGet, endpointCurrentUser, nil, result); err != nil {
		return nil, err
	}
	if result.User == nil {
		return nil, ErrNotAuthenticated
	}
	return result.User, nil
}

type apiError struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (e apiError) text(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return fallback
}

func (s *HTTPAuthService) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request payload")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build auth request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token := s.tokens.Get()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "auth service unreachable").
			WithTextCode(textCodeAuthUnreachable)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read auth response")
	}

	if res.StatusCode >= http.StatusBadRequest {
		return s.requestError(path, res.StatusCode, raw, token != "")
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode auth response")
		}
	}

	return nil
}

func (s *HTTPAuthService) requestError(path string, status int, raw []byte, authenticated bool) error {
	apiErr := apiError{}
	if len(raw) > 0 {
		// tolerate non-JSON error bodies
		_ = json.Unmarshal(raw, &apiErr)
	}

	switch {
	case status == http.StatusUnauthorized && authenticated && path != endpointLogout:
		// the session believed it was authenticated; raise the out-of-band
		// signal so the shell can force the logged-out transition
		message := apiErr.text(SessionExpiredMessage)
		if s.hub != nil {
			s.hub.Dispatch(message)
		}
		return goerrors.New(message, goerrors.CategoryAuth).
			WithTextCode(textCodeSessionExpired).
			WithCode(goerrors.CodeUnauthorized)

	case status == http.StatusUnauthorized:
		return goerrors.New(apiErr.text(ErrInvalidCredentials.Message), goerrors.CategoryAuth).
			WithTextCode(textCodeInvalidCredentials).
			WithCode(goerrors.CodeUnauthorized)

	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return goerrors.New(apiErr.text("auth request rejected"), goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"status": status, "path": path})

	default:
		return goerrors.New(apiErr.text("auth service error"), goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithMetadata(map[string]any{"status": status, "path": path})
	}
}
