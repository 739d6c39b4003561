// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Accounts

// UserRepository reads and writes users.account. Soft-deleted rows are
// invisible to every method.
type UserRepository interface {
	// FindByID returns dberr.ErrNotFound for unknown or deleted accounts.
	FindByID(context context.Context, id string) (*User, error)

	// FindByLogin matches login against username or email, case-insensitively.
	FindByLogin(context context.Context, login string) (*User, error)

	// Create answers a 409 AppError when the username or email is taken.
	Create(context context.Context, user *User) error

	TouchLogin(context context.Context, userID string) error
}

// # Refresh Sessions

/*
SessionRepository is the durable record of refresh tokens.

Tokens are only ever stored hashed. A session is single-use: a refresh revokes
it and issues a successor, so a second presentation of the same token is a
replay.
*/
type SessionRepository interface {
	Create(context context.Context, session *Session) error

	// FindByTokenHash also returns revoked and expired sessions so that
	// replays can be told apart from unknown tokens.
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	// Revoke flips an active session to revoked. It returns
	// dberr.ErrNotFound when the session was already revoked, which is how
	// two concurrent refreshes of one token are detected.
	Revoke(context context.Context, sessionID string) error

	RevokeAll(context context.Context, userID string) error
}

// SessionCache fronts [SessionRepository] for refresh lookups. It may lag
// behind Postgres, so a cache hit is never trusted for revocation.
type SessionCache interface {
	Set(context context.Context, session *Session, ttl time.Duration) error

	// Get returns (nil, nil) on a miss.
	Get(context context.Context, tokenHash string) (*Session, error)

	Delete(context context.Context, tokenHash string) error
}
