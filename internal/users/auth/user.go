// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements first-party identity for MotionMaster: accounts,
password login and rotating refresh sessions.

# Architecture

  - Service: Register, Login, RefreshSession, Logout.
  - Repository: PostgreSQL holds accounts and sessions; Redis caches active
    sessions by token hash.
  - Security: bcrypt password hashes and RS256 access tokens from [sec.TokenService].
*/
package auth

import (
	"time"

	"github.com/taibuivan/motionmaster/internal/platform/sec"
)

// # Domain Entities

// User is a registered athlete or coach.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	DisplayName  string       `json:"display_name"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Session is a refresh-token session. Only the token hash is stored.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the session can still be exchanged at now.
func (s *Session) Active(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}

// # Field Identifiers

const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDisplayName = "display_name"
	FieldLogin       = "login"
)
