package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"rosterconsole/client/internal/models"
	"rosterconsole/client/internal/transport"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
)

type AuthState string

const (
	StateAnonymous      AuthState = "anonymous"
	StateAuthenticating AuthState = "authenticating"
	StateAuthenticated  AuthState = "authenticated"
	StateRefreshing     AuthState = "refreshing"
)

// AuthService owns the client session lifecycle. It also implements
// transport.Doer: wrapped requests that fail with 401 while authenticated
// trigger one coordinated credential refresh and one retry.
type AuthService struct {
	base transport.Doer
	log  zerolog.Logger

	mu      sync.RWMutex
	state   AuthState
	session *models.Session

	refresh singleflight.Group
}

func NewAuthService(base transport.Doer, log zerolog.Logger) *AuthService {
	return &AuthService{
		base:  base,
		log:   log,
		state: StateAnonymous,
	}
}

func (s *AuthService) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *AuthService) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return models.Session{}, false
	}
	return *s.session, true
}

func (s *AuthService) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// HasRole and HasPermission are pure reads over the current session; they
// report false rather than failing when no session exists.
func (s *AuthService) HasRole(role models.UserRole) bool {
	session, ok := s.Current()
	return ok && session.HasRole(role)
}

func (s *AuthService) HasPermission(permission string) bool {
	session, ok := s.Current()
	return ok && session.HasPermission(permission)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := models.ValidateEmail(email); err != nil {
		return models.Session{}, err
	}
	if err := models.ValidatePassword(password); err != nil {
		return models.Session{}, err
	}

	s.setState(StateAuthenticating)

	resp, err := s.base.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{Email: email, Password: password},
	})
	if err != nil {
		s.clear()
		if transport.IsUnauthorized(err) {
			return models.Session{}, ErrInvalidCredentials
		}
		return models.Session{}, fmt.Errorf("login: %w", err)
	}

	session, err := decodeSession(resp)
	if err != nil {
		s.clear()
		return models.Session{}, err
	}

	s.install(session)
	s.log.Info().Str("user_id", session.UserID).Str("role", string(session.Role)).Msg("logged in")
	return session, nil
}

// Probe checks for an existing backend session at application start. A 401
// simply means nobody is logged in and is not an error.
func (s *AuthService) Probe(ctx context.Context) (bool, error) {
	resp, err := s.base.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/auth/me",
	})
	if err != nil {
		if transport.IsUnauthorized(err) {
			s.clear()
			return false, nil
		}
		return false, fmt.Errorf("session probe: %w", err)
	}

	session, err := decodeSession(resp)
	if err != nil {
		return false, err
	}

	s.install(session)
	return true, nil
}

// Logout notifies the backend best-effort; local state is cleared even when
// the server call fails.
func (s *AuthService) Logout(ctx context.Context) {
	if _, err := s.base.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
	}); err != nil {
		s.log.Warn().Err(err).Msg("logout request failed")
	}
	s.clear()
}

// Do executes a wrapped request. On 401 while a session exists it joins the
// single in-flight refresh, then retries the original request exactly once.
// A second 401 fails without another refresh attempt. Login, probe and
// refresh exchanges go through the base transport directly and can never
// re-enter this path.
func (s *AuthService) Do(ctx context.Context, req transport.Request) (*transport.Response, error) {
	resp, err := s.base.Do(ctx, req)
	if err == nil || !transport.IsUnauthorized(err) {
		return resp, err
	}

	// Callers whose 401 lands while another caller is already refreshing
	// must join that refresh, not fail; only anonymous 401s pass through.
	switch s.State() {
	case StateAuthenticated, StateRefreshing:
	default:
		return nil, err
	}

	if rerr := s.refreshSession(ctx); rerr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, rerr)
	}

	return s.base.Do(ctx, req)
}

// refreshSession coordinates concurrent callers through singleflight: no
// matter how many requests hit a 401 at once, exactly one refresh exchange
// reaches the backend and everyone shares its outcome.
func (s *AuthService) refreshSession(ctx context.Context) error {
	_, err, _ := s.refresh.Do("refresh", func() (any, error) {
		return nil, s.doRefresh(ctx)
	})
	return err
}

func (s *AuthService) doRefresh(ctx context.Context) error {
	s.setState(StateRefreshing)
	start := time.Now()

	if _, err := s.base.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/refresh",
	}); err != nil {
		s.clear()
		s.log.Warn().Err(err).Msg("session refresh failed")
		return err
	}

	// Only the exchange above decides the refresh outcome. The identity
	// rebuild from /auth/me (so a role change takes effect immediately) is
	// best-effort: if the rotated credentials are still bad, the caller's
	// retried request surfaces that as a plain 401.
	if resp, err := s.base.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/auth/me",
	}); err == nil {
		if session, derr := decodeSession(resp); derr == nil {
			s.install(session)
			s.log.Debug().Dur("latency", time.Since(start)).Msg("session refreshed")
			return nil
		}
	}

	s.setState(StateAuthenticated)
	return nil
}

func (s *AuthService) setState(state AuthState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *AuthService) install(session models.Session) {
	s.mu.Lock()
	s.state = StateAuthenticated
	s.session = &session
	s.mu.Unlock()
}

func (s *AuthService) clear() {
	s.mu.Lock()
	s.state = StateAnonymous
	s.session = nil
	s.mu.Unlock()
}

type wireSessionUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	AvatarURL   *string    `json:"avatarUrl"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

type authPayload struct {
	User wireSessionUser `json:"user"`
}

func decodeSession(resp *transport.Response) (models.Session, error) {
	var payload authPayload
	if err := transport.DecodeJSON(resp, &payload); err != nil {
		return models.Session{}, err
	}
	if payload.User.ID == "" {
		return models.Session{}, fmt.Errorf("auth response missing user")
	}

	name := payload.User.DisplayName
	if name == "" {
		name = payload.User.Name
	}

	role := models.UserRole(strings.ToLower(payload.User.Role))
	if !role.Valid() {
		role = models.UserRoleUser
	}

	return models.Session{
		UserID:      payload.User.ID,
		Email:       payload.User.Email,
		DisplayName: name,
		Role:        role,
		AvatarURL:   payload.User.AvatarURL,
		LastLoginAt: payload.User.LastLoginAt,
	}, nil
}
