package models

const (
	PermissionAll             = "*"
	PermissionUsersRead       = "users.read"
	PermissionUsersUpdate     = "users.update"
	PermissionContentModerate = "content.moderate"
	PermissionProfileRead     = "profile.read"
	PermissionProfileUpdate   = "profile.update"
)

var rolePermissions = map[UserRole][]string{
	UserRoleAdmin:     {PermissionAll},
	UserRoleModerator: {PermissionUsersRead, PermissionUsersUpdate, PermissionContentModerate},
	UserRoleUser:      {PermissionProfileRead, PermissionProfileUpdate},
}

// Can reports whether the role grants the given permission. Admin holds the
// wildcard permission and passes every check.
func (r UserRole) Can(permission string) bool {
	for _, granted := range rolePermissions[r] {
		if granted == PermissionAll || granted == permission {
			return true
		}
	}
	return false
}
