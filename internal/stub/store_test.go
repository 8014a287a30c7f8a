package stub

import (
	"errors"
	"testing"
	"time"

	"rosterconsole/client/internal/models"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	if err := SeedDemo(store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestStoreRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	store := seededStore(t)

	_, err := store.CreateUser(models.User{
		Email:       "ADMIN@example.com",
		DisplayName: "Impostor",
	}, "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store := seededStore(t)

	users, total := store.ListUsers(models.DefaultQuery())
	if total != 5 || len(users) != 5 {
		t.Fatalf("total = %d, page = %d", total, len(users))
	}
	for i := 1; i < len(users); i++ {
		if users[i].CreatedAt.After(users[i-1].CreatedAt) {
			t.Fatalf("not sorted newest first at %d", i)
		}
	}
}

func TestStoreListFilters(t *testing.T) {
	store := seededStore(t)

	q := models.DefaultQuery()
	q.Filters.Roles = []models.UserRole{models.UserRoleAdmin, models.UserRoleModerator}
	users, total := store.ListUsers(q)
	if total != 2 {
		t.Fatalf("role filter total = %d", total)
	}
	for _, user := range users {
		if user.Role == models.UserRoleUser {
			t.Fatalf("role filter leaked %s", user.Email)
		}
	}

	q = models.DefaultQuery()
	q.Search = "CARTER"
	users, total = store.ListUsers(q)
	if total != 1 || users[0].Email != "alice@example.com" {
		t.Fatalf("search result: %+v", users)
	}

	q = models.DefaultQuery()
	cutoff := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	q.Filters.CreatedAfter = &cutoff
	_, total = store.ListUsers(q)
	if total != 3 {
		t.Fatalf("createdAfter total = %d", total)
	}
}

func TestStoreListPagination(t *testing.T) {
	store := seededStore(t)

	q := models.UserQuery{Page: 2, Limit: 2}
	users, total := store.ListUsers(q)
	if total != 5 || len(users) != 2 {
		t.Fatalf("page 2: total = %d, page = %d", total, len(users))
	}

	q.Page = 4
	users, total = store.ListUsers(q)
	if total != 5 || len(users) != 0 {
		t.Fatalf("out-of-range page: total = %d, page = %d", total, len(users))
	}
}

func TestStoreDeleteCascadesSessions(t *testing.T) {
	store := seededStore(t)

	user, err := store.FindUserByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	session := store.CreateSession(user.ID, []byte("hash"), time.Hour)

	if err := store.DeleteUser(user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetSession(session.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("session survived user deletion")
	}
}

func TestStoreRotateSessionRejectsStaleHash(t *testing.T) {
	store := seededStore(t)
	user, _ := store.FindUserByEmail("admin@example.com")
	session := store.CreateSession(user.ID, []byte("old"), time.Hour)

	rotated, err := store.RotateSession(session.ID, []byte("old"), []byte("new"), time.Hour)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if string(rotated.RefreshTokenHash) != "new" {
		t.Fatal("hash not rotated")
	}

	// A replay with the superseded hash must fail.
	if _, err := store.RotateSession(session.ID, []byte("old"), []byte("newer"), time.Hour); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on replay, got %v", err)
	}
}

func TestStoreSessionLimitEvictsOldest(t *testing.T) {
	store := seededStore(t)
	user, _ := store.FindUserByEmail("admin@example.com")

	first := store.CreateSession(user.ID, []byte("h1"), time.Hour)
	time.Sleep(2 * time.Millisecond)
	store.CreateSession(user.ID, []byte("h2"), time.Hour)
	time.Sleep(2 * time.Millisecond)
	newest := store.CreateSession(user.ID, []byte("h3"), time.Hour)

	store.EnforceSessionLimit(user.ID, 2)

	if _, err := store.GetSession(first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("oldest session should have been evicted")
	}
	if _, err := store.GetSession(newest.ID); err != nil {
		t.Fatalf("newest session evicted: %v", err)
	}
}

func TestStorePurgeExpiredSessions(t *testing.T) {
	store := seededStore(t)
	user, _ := store.FindUserByEmail("admin@example.com")

	store.CreateSession(user.ID, []byte("live"), time.Hour)
	expired := store.CreateSession(user.ID, []byte("dead"), -time.Minute)

	if purged := store.PurgeExpiredSessions(); purged != 1 {
		t.Fatalf("purged = %d", purged)
	}
	if _, err := store.GetSession(expired.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("expired session survived purge")
	}
}
