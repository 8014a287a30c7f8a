package stub

import (
	"fmt"
	"time"

	"rosterconsole/client/internal/models"
)

// SeedDemo loads the roster used by cmd/stubd and the examples in the
// README: one admin, one moderator and a handful of standard users.
func SeedDemo(store *Store) error {
	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	seeds := []struct {
		email    string
		name     string
		role     models.UserRole
		status   models.UserStatus
		password string
	}{
		{"admin@example.com", "Admin", models.UserRoleAdmin, models.UserStatusActive, "admin123"},
		{"mona@example.com", "Mona Vale", models.UserRoleModerator, models.UserStatusActive, "mona-secret"},
		{"alice@example.com", "Alice Carter", models.UserRoleUser, models.UserStatusActive, "alice-secret"},
		{"bob@example.com", "Bob Osei", models.UserRoleUser, models.UserStatusInactive, "bob-secret"},
		{"carol@example.com", "Carol Lindqvist", models.UserRoleUser, models.UserStatusSuspended, "carol-secret"},
	}

	for i, seed := range seeds {
		_, err := store.CreateUser(models.User{
			Email:       seed.email,
			DisplayName: seed.name,
			Role:        seed.role,
			Status:      seed.status,
			CreatedAt:   base.Add(time.Duration(i) * 24 * time.Hour),
		}, seed.password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", seed.email, err)
		}
	}
	return nil
}
