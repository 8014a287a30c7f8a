package stub

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"rosterconsole/client/internal/models"
)

type userPayload struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	AvatarURL   *string    `json:"avatarUrl,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func userResponse(user models.User) userPayload {
	return userPayload{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Status:      string(user.Status),
		AvatarURL:   user.AvatarURL,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func (a *API) ListUsers(c *gin.Context) {
	query := models.DefaultQuery()

	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v >= 1 {
			query.Page = v
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v >= 1 && v <= models.MaxLimit {
			query.Limit = v
		}
	}
	query.Search = c.Query("search")

	if roles := c.Query("role"); roles != "" {
		for _, raw := range strings.Split(roles, ",") {
			role := models.UserRole(strings.ToLower(strings.TrimSpace(raw)))
			if role.Valid() {
				query.Filters.Roles = append(query.Filters.Roles, role)
			}
		}
	}
	if status := models.UserStatus(c.Query("status")); status.Valid() {
		query.Filters.Status = status
	}
	if after, err := time.Parse(time.RFC3339, c.Query("createdAfter")); err == nil {
		query.Filters.CreatedAfter = &after
	}
	if before, err := time.Parse(time.RFC3339, c.Query("createdBefore")); err == nil {
		query.Filters.CreatedBefore = &before
	}

	users, total := a.store.ListUsers(query)

	items := make([]userPayload, 0, len(users))
	for _, user := range users {
		items = append(items, userResponse(user))
	}

	totalPages := (total + query.Limit - 1) / query.Limit
	c.JSON(http.StatusOK, gin.H{
		"users":           items,
		"page":            query.Page,
		"limit":           query.Limit,
		"total":           total,
		"totalPages":      totalPages,
		"hasNextPage":     query.Page*query.Limit < total,
		"hasPreviousPage": query.Page > 1,
	})
}

func (a *API) GetUser(c *gin.Context) {
	user, err := a.store.GetUser(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

type createUserRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	DisplayName string  `json:"displayName" binding:"required,min=2"`
	Role        string  `json:"role" binding:"required"`
	Status      string  `json:"status"`
	Password    string  `json:"password"`
	AvatarURL   *string `json:"avatarUrl"`
}

func (a *API) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.UserRole(strings.ToLower(req.Role))
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	status := models.UserStatus(strings.ToLower(req.Status))
	if req.Status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	user, err := a.store.CreateUser(models.User{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        role,
		Status:      status,
		AvatarURL:   req.AvatarURL,
	}, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, userResponse(user))
}

type updateUserRequest struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"displayName"`
	Role        *string `json:"role"`
	Status      *string `json:"status"`
	AvatarURL   *string `json:"avatarUrl"`
}

func (a *API) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := UserPatch{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	}
	if req.Role != nil {
		role := models.UserRole(strings.ToLower(*req.Role))
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		patch.Role = &role
	}
	if req.Status != nil {
		status := models.UserStatus(strings.ToLower(*req.Status))
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		patch.Status = &status
	}

	user, err := a.store.UpdateUser(c.Param("id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func (a *API) DeleteUser(c *gin.Context) {
	if err := a.store.DeleteUser(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) CountUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": a.store.CountUsers()})
}
