package repository

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rosterconsole/client/internal/models"
	"rosterconsole/client/internal/transport"
)

func newRepoFixture(t *testing.T, handler http.Handler) (*UserRepository, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := transport.NewClient(server.URL, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewUserRepository(client, zerolog.Nop()), server
}

func TestQueryNormalizesEnvelopeVariants(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			"canonical",
			`{"users":[{"id":"u1","email":"alice@example.com","displayName":"Alice","role":"user","status":"active","createdAt":"2024-03-01T09:00:00Z"}],
			  "page":1,"limit":10,"total":1,"hasNextPage":false,"hasPreviousPage":false}`,
		},
		{
			"legacy field names",
			`{"data":[{"id":"u1","email":"alice@example.com","name":"Alice","role":"USER","isActive":true,"createdAt":"2024-03-01T09:00:00Z"}],
			  "currentPage":1,"itemsPerPage":10,"totalItems":1,"hasPrevPage":false}`,
		},
		{
			"meta-nested",
			`{"items":[{"id":"u1","email":"alice@example.com","displayName":"Alice","role":"user","status":"active","createdAt":"2024-03-01T09:00:00Z"}],
			  "meta":{"page":1,"perPage":10,"total":1}}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))

			page, err := repo.Query(context.Background(), models.UserQuery{Page: 1, Limit: 10})
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(page.Users) != 1 {
				t.Fatalf("users = %d, want 1", len(page.Users))
			}
			got := page.Users[0]
			if got.ID != "u1" || got.Email != "alice@example.com" || got.DisplayName != "Alice" {
				t.Fatalf("user not normalized: %+v", got)
			}
			if got.Role != models.UserRoleUser || got.Status != models.UserStatusActive {
				t.Fatalf("role/status not normalized: %s %s", got.Role, got.Status)
			}
			if page.Meta.TotalItems != 1 || page.Meta.ItemsPerPage != 10 {
				t.Fatalf("meta not normalized: %+v", page.Meta)
			}
			if page.Meta.HasNextPage || page.Meta.HasPreviousPage {
				t.Fatalf("meta flags wrong: %+v", page.Meta)
			}
		})
	}
}

func TestQueryLegacyRoleNames(t *testing.T) {
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[
			{"id":"u1","email":"a@example.com","name":"A","role":"SUPER_ADMIN","status":"active","createdAt":"2024-03-01T09:00:00Z"},
			{"id":"u2","email":"b@example.com","name":"B","role":"MANAGER","status":"active","createdAt":"2024-03-01T09:00:00Z"}
		],"page":1,"limit":10,"total":2}`))
	}))

	page, err := repo.Query(context.Background(), models.UserQuery{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Users[0].Role != models.UserRoleAdmin {
		t.Fatalf("SUPER_ADMIN → %s", page.Users[0].Role)
	}
	if page.Users[1].Role != models.UserRoleModerator {
		t.Fatalf("MANAGER → %s", page.Users[1].Role)
	}
}

func TestQueryEmptyResultIsNotAnError(t *testing.T) {
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[],"page":1,"limit":10,"total":0}`))
	}))

	page, err := repo.Query(context.Background(), models.UserQuery{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page.Users) != 0 || page.Meta.TotalItems != 0 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestQueryEncodesFilters(t *testing.T) {
	var gotQuery string
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"users":[],"page":1,"limit":5,"total":0}`))
	}))

	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := repo.Query(context.Background(), models.UserQuery{
		Page:   2,
		Limit:  5,
		Search: "alice",
		Filters: models.UserFilters{
			Roles:        []models.UserRole{models.UserRoleAdmin, models.UserRoleModerator},
			Status:       models.UserStatusActive,
			CreatedAfter: &after,
		},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	want := "createdAfter=2024-01-01T00%3A00%3A00Z&limit=5&page=2&role=admin%2Cmoderator&search=alice&status=active"
	if gotQuery != want {
		t.Fatalf("query string = %q, want %q", gotQuery, want)
	}
}

func TestCreateConflict(t *testing.T) {
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"email already registered"}`))
	}))

	_, err := repo.Create(context.Background(), CreateUserInput{
		Email:       "dup@example.com",
		DisplayName: "Duplicate",
		Role:        models.UserRoleUser,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateValidatesBeforeNetwork(t *testing.T) {
	calls := 0
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	_, err := repo.Create(context.Background(), CreateUserInput{Email: "bad", DisplayName: "Ok Name"})
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = repo.Create(context.Background(), CreateUserInput{Email: "ok@example.com", DisplayName: "x"})
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("validation must fail before the network, saw %d calls", calls)
	}
}

func TestUpdateNotFound(t *testing.T) {
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"user not found"}`))
	}))

	name := "Ghost"
	_, err := repo.Update(context.Background(), "missing", UpdateUserInput{DisplayName: &name})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateSendsOnlyProvidedFields(t *testing.T) {
	var gotBody string
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Write([]byte(`{"id":"u1","email":"a@example.com","displayName":"Renamed","role":"user","status":"active","createdAt":"2024-03-01T09:00:00Z"}`))
	}))

	name := "Renamed"
	if _, err := repo.Update(context.Background(), "u1", UpdateUserInput{DisplayName: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotBody != `{"displayName":"Renamed"}` {
		t.Fatalf("patch body = %s", gotBody)
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetByIDWrappedResponse(t *testing.T) {
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"id":"u1","email":"a@example.com","displayName":"A","role":"admin","status":"active","createdAt":"2024-03-01T09:00:00Z"}}`))
	}))

	got, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "u1" || got.Role != models.UserRoleAdmin {
		t.Fatalf("user not decoded: %+v", got)
	}
}

func TestCountAllBestEffort(t *testing.T) {
	repo, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":42}`))
	}))
	if got := repo.CountAll(context.Background()); got != 42 {
		t.Fatalf("count = %d", got)
	}

	failing, _ := newRepoFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	if got := failing.CountAll(context.Background()); got != 0 {
		t.Fatalf("count on failure = %d, want 0", got)
	}
}
