// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/dberr"
	"github.com/taibuivan/motionmaster/internal/platform/sec"
	"github.com/taibuivan/motionmaster/internal/users/auth"
)

type memoryUsers struct {
	mu      sync.Mutex
	byID    map[string]auth.User
	touched map[string]int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]auth.User{}, touched: map[string]int{}}
}

func (store *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.byID[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return &user, nil
}

func (store *memoryUsers) FindByLogin(_ context.Context, login string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, user := range store.byID {
		if strings.EqualFold(user.Username, login) || strings.EqualFold(user.Email, login) {
			return &user, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (store *memoryUsers) Create(_ context.Context, user *auth.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.byID {
		if strings.EqualFold(existing.Username, user.Username) || strings.EqualFold(existing.Email, user.Email) {
			return apperr.Conflict("Username or email is already registered")
		}
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	store.byID[user.ID] = *user
	return nil
}

func (store *memoryUsers) TouchLogin(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.touched[userID]++
	return nil
}

type memorySessions struct {
	mu     sync.Mutex
	byHash map[string]auth.Session

	// lookupErr simulates an unavailable database on FindByTokenHash.
	lookupErr error
}

func newMemorySessions() *memorySessions {
	return &memorySessions{byHash: map[string]auth.Session{}}
}

func (store *memorySessions) Create(_ context.Context, session *auth.Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.byHash[session.TokenHash] = *session
	return nil
}

func (store *memorySessions) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.lookupErr != nil {
		return nil, store.lookupErr
	}

	session, ok := store.byHash[tokenHash]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return &session, nil
}

func (store *memorySessions) Revoke(_ context.Context, sessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for hash, session := range store.byHash {
		if session.ID == sessionID && !session.IsRevoked {
			session.IsRevoked = true
			store.byHash[hash] = session
			return nil
		}
	}
	return dberr.ErrNotFound
}

func (store *memorySessions) RevokeAll(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for hash, session := range store.byHash {
		if session.UserID == userID {
			session.IsRevoked = true
			store.byHash[hash] = session
		}
	}
	return nil
}

func (store *memorySessions) active(userID string) int {
	store.mu.Lock()
	defer store.mu.Unlock()

	count := 0
	for _, session := range store.byHash {
		if session.UserID == userID && !session.IsRevoked {
			count++
		}
	}
	return count
}

// memoryCache mirrors the Redis cache, returning copies so revocations
// recorded in Postgres are not visible through it.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]auth.Session
}

func (cache *memoryCache) Set(_ context.Context, session *auth.Session, _ time.Duration) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.entries[session.TokenHash] = *session
	return nil
}

func (cache *memoryCache) Get(_ context.Context, tokenHash string) (*auth.Session, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	session, ok := cache.entries[tokenHash]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (cache *memoryCache) Delete(_ context.Context, tokenHash string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	delete(cache.entries, tokenHash)
	return nil
}

type fixture struct {
	users    *memoryUsers
	sessions *memorySessions
	cache    *memoryCache
	tokens   *sec.TokenService
	service  *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fixture{
		users:    newMemoryUsers(),
		sessions: newMemorySessions(),
		cache:    &memoryCache{entries: map[string]auth.Session{}},
		tokens:   sec.NewTokenServiceFromKey(key, &key.PublicKey, "motionmaster-test"),
	}
	f.service = auth.NewService(f.users, f.sessions, f.cache, f.tokens, slog.New(slog.DiscardHandler))
	return f
}

func (f *fixture) register(t *testing.T, username, email string) *auth.User {
	t.Helper()

	user, err := f.service.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return user
}
