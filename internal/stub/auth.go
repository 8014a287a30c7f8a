package stub

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rosterconsole/client/internal/models"
	"rosterconsole/client/internal/security"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.store.FindUserByEmail(req.Email)
	if err != nil || !a.store.VerifyPassword(user.ID, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if user.Status != models.UserStatusActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "user suspended"})
		return
	}

	refreshToken, refreshHash, err := security.GenerateRefreshToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	session := a.store.CreateSession(user.ID, refreshHash, a.cfg.Security.RefreshTTL)
	a.store.EnforceSessionLimit(user.ID, a.cfg.Security.MaxSessions)
	accessToken, err := security.GenerateAccessToken(
		a.cfg.Security.JWTAccessSecret,
		user.ID,
		session.ID,
		string(user.Role),
		a.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	a.store.TouchLogin(user.ID)
	user, _ = a.store.GetUser(user.ID)

	a.setSessionCookies(c, accessToken, refreshToken)
	c.JSON(http.StatusOK, gin.H{
		"user":      userResponse(user),
		"expiresIn": int(a.cfg.Security.JWTAccessTTL / time.Second),
	})
}

func (a *API) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(accessCookie); err == nil {
		if claims, err := security.ParseAccessToken(cookie, a.cfg.Security.JWTAccessSecret); err == nil {
			a.store.DeleteSession(claims.SessionID)
		}
	}

	a.clearSessionCookies(c)
	c.Status(http.StatusNoContent)
}

func (a *API) Refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_refresh_token"})
		return
	}

	oldHash := security.HashRefreshToken(token)
	session, err := a.store.FindSessionByRefreshHash(oldHash)
	if err != nil {
		a.clearSessionCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_refresh_token"})
		return
	}

	user, err := a.store.GetUser(session.UserID)
	if err != nil || user.Status != models.UserStatusActive {
		a.store.DeleteSession(session.ID)
		a.clearSessionCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_refresh_token"})
		return
	}

	newToken, newHash, err := security.GenerateRefreshToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	session, err = a.store.RotateSession(session.ID, oldHash, newHash, a.cfg.Security.RefreshTTL)
	if err != nil {
		a.clearSessionCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_refresh_token"})
		return
	}

	accessToken, err := security.GenerateAccessToken(
		a.cfg.Security.JWTAccessSecret,
		user.ID,
		session.ID,
		string(user.Role),
		a.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	a.setSessionCookies(c, accessToken, newToken)
	c.JSON(http.StatusOK, gin.H{
		"expiresIn": int(a.cfg.Security.JWTAccessTTL / time.Second),
	})
}

func (a *API) Me(c *gin.Context) {
	userVal, exists := c.Get("current_user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	user, ok := userVal.(models.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

func (a *API) setSessionCookies(c *gin.Context, accessToken, refreshToken string) {
	accessMaxAge := int(a.cfg.Security.JWTAccessTTL / time.Second)
	refreshMaxAge := int(a.cfg.Security.RefreshTTL / time.Second)
	c.SetCookie(accessCookie, accessToken, accessMaxAge, "/", "", false, true)
	c.SetCookie(refreshCookie, refreshToken, refreshMaxAge, "/", "", false, true)
}

func (a *API) clearSessionCookies(c *gin.Context) {
	c.SetCookie(accessCookie, "", -1, "/", "", false, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
}
