package stub

import (
	"bytes"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"rosterconsole/client/internal/ids"
	"rosterconsole/client/internal/models"
	"rosterconsole/client/internal/security"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash []byte
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}

// Store is the stub backend's in-memory state: the user roster plus active
// sessions. It stands in for the real backend's database during development
// and tests.
type Store struct {
	mu        sync.RWMutex
	users     map[string]models.User
	passwords map[string][]byte
	sessions  map[string]Session
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]models.User),
		passwords: make(map[string][]byte),
		sessions:  make(map[string]Session),
	}
}

func (s *Store) CreateUser(user models.User, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, ErrEmailTaken
		}
	}

	if user.ID == "" {
		user.ID = ids.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}

	if password != "" {
		hash, err := security.HashPassword(password)
		if err != nil {
			return models.User{}, err
		}
		s.passwords[user.ID] = hash
	}

	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *Store) VerifyPassword(userID string, password string) bool {
	s.mu.RLock()
	hash, ok := s.passwords[userID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	match, err := security.VerifyPassword(password, hash)
	return err == nil && match
}

// UserPatch mirrors the PATCH semantics of the real backend: nil fields stay
// untouched.
type UserPatch struct {
	Email       *string
	DisplayName *string
	Role        *models.UserRole
	Status      *models.UserStatus
	AvatarURL   *string
}

func (s *Store) UpdateUser(id string, patch UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}

	if patch.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && strings.EqualFold(other.Email, *patch.Email) {
				return models.User{}, ErrEmailTaken
			}
		}
		user.Email = *patch.Email
	}
	if patch.DisplayName != nil {
		user.DisplayName = *patch.DisplayName
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Status != nil {
		user.Status = *patch.Status
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = patch.AvatarURL
	}

	now := time.Now().UTC()
	user.UpdatedAt = &now
	s.users[id] = user
	return user, nil
}

func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	delete(s.passwords, id)
	for sessionID, session := range s.sessions {
		if session.UserID == id {
			delete(s.sessions, sessionID)
		}
	}
	return nil
}

func (s *Store) TouchLogin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		now := time.Now().UTC()
		user.LastLoginAt = &now
		s.users[id] = user
	}
}

// ListUsers applies search, filters and pagination, newest first. It returns
// the page slice and the total match count.
func (s *Store) ListUsers(q models.UserQuery) ([]models.User, int) {
	s.mu.RLock()
	matched := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		if matchesQuery(user, q) {
			matched = append(matched, user)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := (q.Page - 1) * q.Limit
	if start >= total {
		return []models.User{}, total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func matchesQuery(user models.User, q models.UserQuery) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(user.Email), needle) &&
			!strings.Contains(strings.ToLower(user.DisplayName), needle) {
			return false
		}
	}
	if len(q.Filters.Roles) > 0 {
		found := false
		for _, role := range q.Filters.Roles {
			if user.Role == role {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Filters.Status != "" && user.Status != q.Filters.Status {
		return false
	}
	if q.Filters.CreatedAfter != nil && user.CreatedAt.Before(*q.Filters.CreatedAfter) {
		return false
	}
	if q.Filters.CreatedBefore != nil && user.CreatedAt.After(*q.Filters.CreatedBefore) {
		return false
	}
	return true
}

func (s *Store) CountUsers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Store) CreateSession(userID string, refreshHash []byte, ttl time.Duration) Session {
	now := time.Now().UTC()
	session := Session{
		ID:               ids.New(),
		UserID:           userID,
		RefreshTokenHash: refreshHash,
		CreatedAt:        now,
		LastSeenAt:       now,
		ExpiresAt:        now.Add(ttl),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

func (s *Store) GetSession(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok || session.ExpiresAt.Before(time.Now()) {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *Store) FindSessionByRefreshHash(hash []byte) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if bytes.Equal(session.RefreshTokenHash, hash) {
			if session.ExpiresAt.Before(time.Now()) {
				return Session{}, ErrNotFound
			}
			return session, nil
		}
	}
	return Session{}, ErrNotFound
}

// RotateSession swaps the refresh hash of the session matching the old hash
// and returns the updated session.
func (s *Store) RotateSession(sessionID string, oldHash, newHash []byte, ttl time.Duration) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || !bytes.Equal(session.RefreshTokenHash, oldHash) {
		return Session{}, ErrNotFound
	}
	if session.ExpiresAt.Before(time.Now()) {
		delete(s.sessions, sessionID)
		return Session{}, ErrNotFound
	}

	now := time.Now().UTC()
	session.RefreshTokenHash = newHash
	session.LastSeenAt = now
	session.ExpiresAt = now.Add(ttl)
	s.sessions[sessionID] = session
	return session, nil
}

// EnforceSessionLimit keeps at most max sessions per user, evicting the
// oldest first. max <= 0 means unlimited.
func (s *Store) EnforceSessionLimit(userID string, max int) {
	if max <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	own := make([]Session, 0, max+1)
	for _, session := range s.sessions {
		if session.UserID == userID {
			own = append(own, session)
		}
	}
	if len(own) <= max {
		return
	}

	sort.Slice(own, func(i, j int) bool {
		if !own[i].CreatedAt.Equal(own[j].CreatedAt) {
			return own[i].CreatedAt.Before(own[j].CreatedAt)
		}
		return own[i].ID < own[j].ID
	})
	for _, session := range own[:len(own)-max] {
		delete(s.sessions, session.ID)
	}
}

func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// PurgeExpiredSessions drops sessions past their expiry and reports how many
// were removed.
func (s *Store) PurgeExpiredSessions() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, session := range s.sessions {
		if session.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged
}
