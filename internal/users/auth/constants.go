// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the duration a refresh session remains valid.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random refresh token.
	RefreshTokenLength = 32

	// SessionCacheTTL caps how long a session lookup stays in Redis.
	SessionCacheTTL = 15 * time.Minute

	UsernameMinLength    = 3
	UsernameMaxLength    = 32
	PasswordMinLength    = 8
	PasswordMaxLength    = 72 // bcrypt ignores anything longer
	DisplayNameMaxLength = 64
)
