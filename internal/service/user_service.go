package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"rosterconsole/client/internal/models"
	"rosterconsole/client/internal/repository"
)

// Directory is the slice of the user repository the list service needs.
type Directory interface {
	Query(ctx context.Context, q models.UserQuery) (models.UserPage, error)
	Create(ctx context.Context, input repository.CreateUserInput) (models.User, error)
	Update(ctx context.Context, id string, input repository.UpdateUserInput) (models.User, error)
	Delete(ctx context.Context, id string) error
}

// UserListService owns the roster view state: the current query parameters
// and the most recently accepted page. All list-affecting intents flow
// through it.
type UserListService struct {
	directory Directory
	log       zerolog.Logger

	mu         sync.Mutex
	query      models.UserQuery
	page       models.UserPage
	loaded     bool
	generation uint64
}

func NewUserListService(directory Directory, defaultLimit int, log zerolog.Logger) *UserListService {
	query := models.DefaultQuery()
	if defaultLimit > 0 {
		query.Limit = defaultLimit
	}
	return &UserListService{
		directory: directory,
		log:       log,
		query:     query,
	}
}

func (s *UserListService) Query() models.UserQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// CurrentPage returns the last accepted result; ok is false until the first
// successful load.
func (s *UserListService) CurrentPage() (models.UserPage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.loaded
}

// SetSearchTerm updates the free-text search and resets to page 1: the old
// page number is meaningless against a new result set.
func (s *UserListService) SetSearchTerm(ctx context.Context, term string) error {
	s.mu.Lock()
	s.query.Search = term
	s.query.Page = models.DefaultPage
	s.mu.Unlock()
	return s.load(ctx)
}

// SetFilters replaces the structured filter set and resets to page 1.
func (s *UserListService) SetFilters(ctx context.Context, filters models.UserFilters) error {
	s.mu.Lock()
	s.query.Filters = filters
	s.query.Page = models.DefaultPage
	s.mu.Unlock()
	return s.load(ctx)
}

func (s *UserListService) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		return &models.ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	s.mu.Lock()
	s.query.Page = page
	s.mu.Unlock()
	return s.load(ctx)
}

// Refresh re-issues the query with the current parameters unchanged.
func (s *UserListService) Refresh(ctx context.Context) error {
	return s.load(ctx)
}

// load snapshots the current query, fetches, and installs the result only if
// no newer request superseded it in the meantime. A failed fetch leaves the
// previous page and parameters untouched.
func (s *UserListService) load(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	query := s.query
	s.mu.Unlock()

	page, err := s.directory.Query(ctx, query)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation || !query.Equal(s.query) {
		s.log.Debug().
			Int("page", query.Page).
			Str("search", query.Search).
			Msg("stale query result discarded")
		return nil
	}
	s.page = page
	s.loaded = true
	return nil
}

// Create never splices the new entry into the cached page: its position in
// the current sort is unknown, so the page is refetched instead.
func (s *UserListService) Create(ctx context.Context, input repository.CreateUserInput) (models.User, error) {
	user, err := s.directory.Create(ctx, input)
	if err != nil {
		return models.User{}, err
	}

	if err := s.load(ctx); err != nil {
		s.log.Warn().Err(err).Msg("refetch after create failed")
	}
	return user, nil
}

func (s *UserListService) Update(ctx context.Context, id string, input repository.UpdateUserInput) (models.User, error) {
	user, err := s.directory.Update(ctx, id, input)
	if err != nil {
		return models.User{}, err
	}

	if s.mutationAffectsMembership(input) {
		if err := s.load(ctx); err != nil {
			s.log.Warn().Err(err).Msg("refetch after update failed")
		}
		return user, nil
	}

	s.mu.Lock()
	for i := range s.page.Users {
		if s.page.Users[i].ID == id {
			s.page.Users[i] = user
			break
		}
	}
	s.mu.Unlock()
	return user, nil
}

// mutationAffectsMembership reports whether the patch touches a field the
// current query filters or searches on; replacing the entry in place would
// then show a row that may no longer belong to the page.
func (s *UserListService) mutationAffectsMembership(input repository.UpdateUserInput) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input.Role != nil && len(s.query.Filters.Roles) > 0 {
		return true
	}
	if input.Status != nil && s.query.Filters.Status != "" {
		return true
	}
	if s.query.Search != "" && (input.Email != nil || input.DisplayName != nil) {
		return true
	}
	return false
}

func (s *UserListService) Delete(ctx context.Context, id string) error {
	if err := s.directory.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	removed := false
	for i := range s.page.Users {
		if s.page.Users[i].ID == id {
			s.page.Users = append(s.page.Users[:i], s.page.Users[i+1:]...)
			removed = true
			break
		}
	}

	total := s.page.Meta.TotalItems
	if removed && total > 0 {
		total--
	}
	s.page.Meta = models.NewPageMeta(s.page.Meta.CurrentPage, s.page.Meta.ItemsPerPage, total)

	// Deleting the last entry of a later page strands the view on an empty
	// page; step back before refetching.
	stepBack := removed && len(s.page.Users) == 0 && s.query.Page > 1
	if stepBack {
		s.query.Page--
	}
	s.mu.Unlock()

	if stepBack {
		if err := s.load(ctx); err != nil {
			return fmt.Errorf("refetch after delete: %w", err)
		}
	}
	return nil
}
