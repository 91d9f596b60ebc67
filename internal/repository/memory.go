package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ivankosh/photoflow/internal/model"
)

// MemoryUserStore is an in-memory UserStore used by tests and single-node
// development. A single mutex guards all maps, which gives the same
// conditional-update semantics the MySQL implementation gets from its
// transactional DELETE/INSERT.
type MemoryUserStore struct {
	mu         sync.Mutex
	byUsername map[string]*model.User
	bySubject  map[string]*model.User
	refresh    map[string]map[string]time.Time // subject -> token hash -> expiry
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byUsername: make(map[string]*model.User),
		bySubject:  make(map[string]*model.User),
		refresh:    make(map[string]map[string]time.Time),
	}
}

var _ UserStore = (*MemoryUserStore)(nil)

func (s *MemoryUserStore) CreateUser(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[u.Username]; ok {
		return ErrUsernameExists
	}
	cp := u
	s.byUsername[cp.Username] = &cp
	s.bySubject[cp.SubjectID] = &cp
	return nil
}

func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byUsername[username]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return *u, nil
}

func (s *MemoryUserStore) GetBySubject(_ context.Context, subject string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.bySubject[subject]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return *u, nil
}

func (s *MemoryUserStore) AppendRefreshToken(_ context.Context, t model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.refresh[t.SubjectID]
	if !ok {
		set = make(map[string]time.Time)
		s.refresh[t.SubjectID] = set
	}
	// Evict expired entries while the set is in hand, mirroring the
	// purge the MySQL store runs on insert.
	now := time.Now()
	for hash, exp := range set {
		if exp.Before(now) {
			delete(set, hash)
		}
	}
	set[t.TokenHash] = t.ExpiresAt
	return nil
}

func (s *MemoryUserStore) RotateRefreshToken(_ context.Context, oldHash string, next model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.refresh[next.SubjectID]
	if !ok {
		return ErrTokenNotFound
	}
	if _, ok := set[oldHash]; !ok {
		return ErrTokenNotFound
	}
	delete(set, oldHash)
	set[next.TokenHash] = next.ExpiresAt
	return nil
}

func (s *MemoryUserStore) ClearRefreshTokens(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, subject)
	return nil
}

func (s *MemoryUserStore) SetEmailVerificationToken(_ context.Context, subject, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.bySubject[subject]
	if !ok {
		return ErrUserNotFound
	}
	u.EmailVerificationToken = token
	return nil
}

func (s *MemoryUserStore) ConsumeEmailVerificationToken(_ context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.bySubject {
		if u.EmailVerificationToken != "" && u.EmailVerificationToken == token {
			u.EmailVerified = true
			u.EmailVerificationToken = ""
			return *u, nil
		}
	}
	return model.User{}, ErrVerificationNotFound
}

// MemoryShareStore keeps share grants in a mutex-guarded map, matching
// the process-local scope of the original deployment. Expiry handling
// lives in the grant manager; this store only holds records.
type MemoryShareStore struct {
	mu     sync.Mutex
	grants map[string]model.ShareGrant
}

func NewMemoryShareStore() *MemoryShareStore {
	return &MemoryShareStore{grants: make(map[string]model.ShareGrant)}
}

var _ ShareStore = (*MemoryShareStore)(nil)

func (s *MemoryShareStore) PutGrant(_ context.Context, g model.ShareGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.Token] = g
	return nil
}

func (s *MemoryShareStore) GetGrant(_ context.Context, token string) (model.ShareGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[token]
	if !ok {
		return model.ShareGrant{}, ErrShareNotFound
	}
	return g, nil
}

func (s *MemoryShareStore) DeleteGrant(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, token)
	return nil
}
