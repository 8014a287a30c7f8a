package models

import "time"

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleModerator UserRole = "moderator"
	UserRoleUser      UserRole = "user"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleModerator, UserRoleUser:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        UserRole
	Status      UserStatus
	AvatarURL   *string
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

func (u User) CanManageUsers() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleModerator
}
