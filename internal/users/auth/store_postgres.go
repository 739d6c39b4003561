// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/database/schema"
	"github.com/taibuivan/motionmaster/internal/platform/dberr"
)

var (
	accountTable = schema.UserAccount
	sessionTable = schema.UserSession
)

// # User Repository

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on a taken username or email
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		accountTable.Table, schema.List(accountTable.Columns()...))

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if dberr.IsUniqueViolation(err) {
		return apperr.Conflict("Username or email is already registered").Wrap(err)
	}
	return dberr.Wrap(err, "postgres_user_repo_create_failed")
}

/*
FindByID retrieves a live account by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated entity
  - error: dberr.ErrNotFound if missing or deleted
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		schema.List(accountTable.Columns()...), accountTable.Table, accountTable.ID, accountTable.DeletedAt)

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_user_repo_find_by_id_failed")
	}
	return user, nil
}

/*
FindByLogin retrieves a live account whose username or email equals login, ignoring case.

Parameters:
  - context: context.Context
  - login: string (Username or email)

Returns:
  - *User: Hydrated entity
  - error: dberr.ErrNotFound if missing
*/
func (repository *PostgresUserRepository) FindByLogin(context context.Context, login string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE (lower(%s) = lower($1) OR lower(%s) = lower($1)) AND %s IS NULL LIMIT 1`,
		schema.List(accountTable.Columns()...), accountTable.Table,
		accountTable.Username, accountTable.Email, accountTable.DeletedAt)

	user, err := scanUser(repository.pool.QueryRow(context, query, login))
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_user_repo_find_by_login_failed")
	}
	return user, nil
}

/*
TouchLogin stamps the last successful login time.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Connectivity errors
*/
func (repository *PostgresUserRepository) TouchLogin(context context.Context, userID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		accountTable.Table, accountTable.LastLoginAt, accountTable.ID)

	_, err := repository.pool.Exec(context, query, userID, time.Now().UTC())
	return dberr.Wrap(err, "postgres_user_repo_touch_login_failed")
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// # Session Repository

// PostgresSessionRepository implements [SessionRepository] using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
Create persists a new refresh session.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sessionTable.Table, schema.List(sessionTable.Columns()...))

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.IPAddress,
		session.UserAgent,
		session.IsRevoked,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return dberr.Wrap(err, "postgres_session_repo_create_failed")
}

/*
FindByTokenHash retrieves a session by the SHA-256 hash of its refresh token.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *Session: Hydrated entity
  - error: dberr.ErrNotFound if missing
*/
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.List(sessionTable.Columns()...), sessionTable.Table, sessionTable.TokenHash)

	var session Session
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.IPAddress,
		&session.UserAgent,
		&session.IsRevoked,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_session_repo_find_failed")
	}
	return &session, nil
}

/*
Revoke invalidates a single active session.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: dberr.ErrNotFound if the session was already revoked
*/
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = true, %s = $2 WHERE %s = $1 AND %s = false`,
		sessionTable.Table, sessionTable.IsRevoked, sessionTable.RevokedAt, sessionTable.ID, sessionTable.IsRevoked)

	tag, err := repository.pool.Exec(context, query, sessionID, time.Now().UTC())
	if err != nil {
		return dberr.Wrap(err, "postgres_session_repo_revoke_failed")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

/*
RevokeAll invalidates every active session of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Connectivity errors
*/
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = true, %s = $2 WHERE %s = $1 AND %s = false`,
		sessionTable.Table, sessionTable.IsRevoked, sessionTable.RevokedAt, sessionTable.UserID, sessionTable.IsRevoked)

	_, err := repository.pool.Exec(context, query, userID, time.Now().UTC())
	return dberr.Wrap(err, "postgres_session_repo_revoke_all_failed")
}
