package models

import "time"

// Session is the client-side record of the currently authenticated actor.
// It exists only while the backend holds a valid credential cookie.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	Role        UserRole
	AvatarURL   *string
	LastLoginAt *time.Time
}

func (s Session) HasRole(role UserRole) bool {
	return s.Role == role
}

func (s Session) HasPermission(permission string) bool {
	return s.Role.Can(permission)
}

func (s Session) IsAdmin() bool {
	return s.Role == UserRoleAdmin
}
