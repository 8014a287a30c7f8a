package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"

	"rosterconsole/client/internal/models"
	"rosterconsole/client/internal/transport"
)

// UserRepository translates roster queries and mutations into backend calls
// and normalizes the backend's response envelopes into internal shapes.
type UserRepository struct {
	client transport.Doer
	log    zerolog.Logger
}

func NewUserRepository(client transport.Doer, log zerolog.Logger) *UserRepository {
	return &UserRepository{client: client, log: log}
}

func (r *UserRepository) Query(ctx context.Context, q models.UserQuery) (models.UserPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if len(q.Filters.Roles) > 0 {
		roles := make([]string, 0, len(q.Filters.Roles))
		for _, role := range q.Filters.Roles {
			roles = append(roles, string(role))
		}
		params.Set("role", strings.Join(roles, ","))
	}
	if q.Filters.Status != "" {
		params.Set("status", string(q.Filters.Status))
	}
	if q.Filters.CreatedAfter != nil {
		params.Set("createdAfter", q.Filters.CreatedAfter.Format(time.RFC3339))
	}
	if q.Filters.CreatedBefore != nil {
		params.Set("createdBefore", q.Filters.CreatedBefore.Format(time.RFC3339))
	}

	resp, err := r.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/users",
		Query:  params,
	})
	if err != nil {
		return models.UserPage{}, fmt.Errorf("fetch users: %w", err)
	}

	envelope, err := decodeListEnvelope(resp.Body)
	if err != nil {
		return models.UserPage{}, err
	}

	users := make([]models.User, 0, len(envelope.entries()))
	for _, entry := range envelope.entries() {
		user, err := entry.toUser()
		if err != nil {
			return models.UserPage{}, err
		}
		users = append(users, user)
	}

	page, limit, total := envelope.pagination(q.Page, q.Limit)
	return models.UserPage{
		Users: users,
		Meta:  models.NewPageMeta(page, limit, total),
	}, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	resp, err := r.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/users/" + id,
	})
	if err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return decodeUser(resp.Body)
}

type CreateUserInput struct {
	Email       string            `json:"email"`
	DisplayName string            `json:"displayName"`
	Role        models.UserRole   `json:"role"`
	Status      models.UserStatus `json:"status,omitempty"`
	AvatarURL   *string           `json:"avatarUrl,omitempty"`
}

func (r *UserRepository) Create(ctx context.Context, input CreateUserInput) (models.User, error) {
	if err := models.ValidateEmail(input.Email); err != nil {
		return models.User{}, err
	}
	if err := models.ValidateDisplayName(input.DisplayName); err != nil {
		return models.User{}, err
	}

	resp, err := r.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/users",
		Body:   input,
	})
	if err != nil {
		if transport.IsStatus(err, http.StatusConflict) {
			return models.User{}, fmt.Errorf("%w: %s", ErrEmailTaken, input.Email)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return decodeUser(resp.Body)
}

// UpdateUserInput carries partial-patch semantics: nil fields are left
// untouched server-side.
type UpdateUserInput struct {
	Email       *string            `json:"email,omitempty"`
	DisplayName *string            `json:"displayName,omitempty"`
	Role        *models.UserRole   `json:"role,omitempty"`
	Status      *models.UserStatus `json:"status,omitempty"`
	AvatarURL   *string            `json:"avatarUrl,omitempty"`
}

func (r *UserRepository) Update(ctx context.Context, id string, input UpdateUserInput) (models.User, error) {
	if input.Email != nil {
		if err := models.ValidateEmail(*input.Email); err != nil {
			return models.User{}, err
		}
	}
	if input.DisplayName != nil {
		if err := models.ValidateDisplayName(*input.DisplayName); err != nil {
			return models.User{}, err
		}
	}

	resp, err := r.client.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   "/users/" + id,
		Body:   input,
	})
	if err != nil {
		switch {
		case transport.IsStatus(err, http.StatusNotFound):
			return models.User{}, ErrUserNotFound
		case transport.IsStatus(err, http.StatusConflict):
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("update user %s: %w", id, err)
	}
	return decodeUser(resp.Body)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   "/users/" + id,
	})
	if err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

// CountAll is a best-effort statistic: failures log and report zero instead
// of propagating.
func (r *UserRepository) CountAll(ctx context.Context) int {
	resp, err := r.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/users/count",
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("count users failed")
		return 0
	}

	var payload struct {
		Count int `json:"count"`
		Total int `json:"total"`
	}
	if err := transport.DecodeJSON(resp, &payload); err != nil {
		r.log.Warn().Err(err).Msg("count users decode failed")
		return 0
	}
	if payload.Count > 0 {
		return payload.Count
	}
	return payload.Total
}

// wireUser tolerates the field-name variance observed across backend
// versions; mapstructure matches keys case-insensitively.
type wireUser struct {
	ID          string `mapstructure:"id"`
	Email       string `mapstructure:"email"`
	Name        string `mapstructure:"name"`
	DisplayName string `mapstructure:"displayName"`
	Role        string `mapstructure:"role"`
	Status      string `mapstructure:"status"`
	IsActive    *bool  `mapstructure:"isActive"`
	AvatarURL   string `mapstructure:"avatarUrl"`
	CreatedAt   string `mapstructure:"createdAt"`
	UpdatedAt   string `mapstructure:"updatedAt"`
	LastLoginAt string `mapstructure:"lastLoginAt"`
}

func (w wireUser) toUser() (models.User, error) {
	name := w.DisplayName
	if name == "" {
		name = w.Name
	}

	user := models.User{
		ID:          w.ID,
		Email:       w.Email,
		DisplayName: name,
		Role:        normalizeRole(w.Role),
		Status:      normalizeStatus(w.Status, w.IsActive),
	}
	if w.AvatarURL != "" {
		avatar := w.AvatarURL
		user.AvatarURL = &avatar
	}

	if w.CreatedAt != "" {
		created, err := time.Parse(time.RFC3339, w.CreatedAt)
		if err != nil {
			return models.User{}, fmt.Errorf("parse createdAt: %w", err)
		}
		user.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339, w.UpdatedAt); err == nil {
		user.UpdatedAt = &updated
	}
	if lastLogin, err := time.Parse(time.RFC3339, w.LastLoginAt); err == nil {
		user.LastLoginAt = &lastLogin
	}

	return user, nil
}

// normalizeRole reconciles the legacy uppercase role names still emitted by
// older backend deployments with the canonical lowercase set.
func normalizeRole(role string) models.UserRole {
	switch strings.ToLower(role) {
	case "admin", "super_admin", "superadmin":
		return models.UserRoleAdmin
	case "moderator", "manager":
		return models.UserRoleModerator
	default:
		return models.UserRoleUser
	}
}

func normalizeStatus(status string, isActive *bool) models.UserStatus {
	if normalized := models.UserStatus(strings.ToLower(status)); normalized.Valid() {
		return normalized
	}
	if isActive != nil && !*isActive {
		return models.UserStatusInactive
	}
	return models.UserStatusActive
}

type listEnvelope struct {
	Users []wireUser `mapstructure:"users"`
	Items []wireUser `mapstructure:"items"`
	Data  []wireUser `mapstructure:"data"`

	Page        int `mapstructure:"page"`
	CurrentPage int `mapstructure:"currentPage"`

	Limit        int `mapstructure:"limit"`
	PerPage      int `mapstructure:"perPage"`
	ItemsPerPage int `mapstructure:"itemsPerPage"`

	Total      int `mapstructure:"total"`
	TotalItems int `mapstructure:"totalItems"`
}

func decodeListEnvelope(raw []byte) (listEnvelope, error) {
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return listEnvelope{}, fmt.Errorf("decode user list: %w", err)
	}

	// Some deployments nest the envelope under "meta".
	if meta, ok := generic["meta"].(map[string]any); ok {
		for key, value := range meta {
			if _, exists := generic[key]; !exists {
				generic[key] = value
			}
		}
	}

	var envelope listEnvelope
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &envelope,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return listEnvelope{}, fmt.Errorf("build envelope decoder: %w", err)
	}
	if err := decoder.Decode(generic); err != nil {
		return listEnvelope{}, fmt.Errorf("normalize user list: %w", err)
	}
	return envelope, nil
}

func (e listEnvelope) entries() []wireUser {
	switch {
	case e.Users != nil:
		return e.Users
	case e.Items != nil:
		return e.Items
	default:
		return e.Data
	}
}

// pagination coalesces the envelope's variant field names, falling back to
// the requested parameters when the backend omits them.
func (e listEnvelope) pagination(requestedPage, requestedLimit int) (page, limit, total int) {
	page = firstPositive(e.Page, e.CurrentPage, requestedPage)
	limit = firstPositive(e.Limit, e.PerPage, e.ItemsPerPage, requestedLimit)
	total = firstPositive(e.Total, e.TotalItems, len(e.entries()))
	if len(e.entries()) == 0 && e.Total == 0 && e.TotalItems == 0 {
		total = 0
	}
	return page, limit, total
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func decodeUser(raw []byte) (models.User, error) {
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return models.User{}, fmt.Errorf("decode user: %w", err)
	}

	// Single-user responses arrive bare or wrapped as {"user": {...}}.
	if nested, ok := generic["user"].(map[string]any); ok {
		generic = nested
	}

	var wire wireUser
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &wire,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("build user decoder: %w", err)
	}
	if err := decoder.Decode(generic); err != nil {
		return models.User{}, fmt.Errorf("normalize user: %w", err)
	}
	return wire.toUser()
}
