// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/dberr"
	"github.com/taibuivan/motionmaster/internal/platform/sec"
	"github.com/taibuivan/motionmaster/internal/platform/validate"
	"github.com/taibuivan/motionmaster/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// Service implements user authentication use cases.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	sessionCache      SessionCache
	tokenProvider     TokenProvider
	logger            *slog.Logger
	now               func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
// A nil cache disables session caching.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	cache SessionCache,
	tokenProv TokenProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		sessionCache:      cache,
		tokenProvider:     tokenProv,
		logger:            logger,
		now:               time.Now,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

/*
Register validates, hashes, and persists a brand new user account.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Validation, Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)

	validator := &validate.Validator{}
	validator.
		Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, UsernameMinLength).
		MaxLen(FieldUsername, input.Username, UsernameMaxLength).
		Username(FieldUsername, input.Username).
		Email(FieldEmail, input.Email).
		MinLen(FieldPassword, input.Password, PasswordMinLength).
		MaxLen(FieldPassword, input.Password, PasswordMaxLength).
		MaxLen(FieldDisplayName, input.DisplayName, DisplayNameMaxLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if input.DisplayName == "" {
		input.DisplayName = input.Username
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleMember,
	}

	// The unique indexes decide races between concurrent registrations.
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_registered", slog.String("user_id", user.ID))

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login     string // Username or email
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and issues security tokens.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	login := strings.TrimSpace(input.Login)
	if login == "" || input.Password == "" {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	user, err := service.userRepository.FindByLogin(context, login)
	if errors.Is(err, dberr.ErrNotFound) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}
	if err != nil {
		return nil, err
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	loginSession, err := service.issue(context, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	if err := service.userRepository.TouchLogin(context, user.ID); err != nil {
		service.logger.WarnContext(context, "auth_touch_login_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	service.logger.InfoContext(context, "user_logged_in", slog.String("user_id", user.ID))

	return loginSession, nil
}

/*
Logout permanently revokes the session behind refreshToken.

Description: Idempotent; unknown tokens succeed silently.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - error: Lookup or revocation failures; an unknown token is not an error
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	tokenHash := sec.HashToken(refreshToken)

	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)
	if errors.Is(err, dberr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth_service_logout_lookup_failed: %w", err)
	}

	service.evict(context, tokenHash)

	err = service.sessionRepository.Revoke(context, session.ID)
	if err != nil && !errors.Is(err, dberr.ErrNotFound) {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Session Management

/*
RefreshSession implements refresh token rotation.

Description: The presented token is revoked and a fresh pair issued. Presenting
an already revoked token revokes every session of its owner.

Parameters:
  - context: context.Context
  - refreshToken: string
  - userAgent: string
  - ipAddress: string

Returns:
  - *LoginSession: New session credentials
  - error: Unauthorized or storage failures
*/
func (service *Service) RefreshSession(context context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorized("Refresh token is required")
	}

	tokenHash := sec.HashToken(refreshToken)

	session, err := service.lookup(context, tokenHash)
	if err != nil {
		return nil, err
	}

	if session.IsRevoked {
		return nil, service.reused(context, session)
	}

	if !session.Active(service.now()) {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	service.evict(context, tokenHash)

	// A cached entry may predate a revocation, so the conditional update decides.
	err = service.sessionRepository.Revoke(context, session.ID)
	if errors.Is(err, dberr.ErrNotFound) {
		return nil, service.reused(context, session)
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	return service.issue(context, user, userAgent, ipAddress)
}

// issue signs an access token and opens a new refresh session for user.
func (service *Service) issue(context context.Context, user *User, userAgent, ipAddress string) (*LoginSession, error) {
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, string(user.Role), AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: service.now().Add(RefreshTokenTTL).UTC(),
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	if service.sessionCache != nil {
		if err := service.sessionCache.Set(context, session, SessionCacheTTL); err != nil {
			service.logger.WarnContext(context, "auth_session_cache_set_failed", slog.Any("error", err))
		}
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
		User:                  user,
	}, nil
}

// reused revokes every session of the owner of a replayed refresh token.
func (service *Service) reused(context context.Context, session *Session) error {
	service.logger.WarnContext(context, "auth_refresh_token_reused", slog.String("user_id", session.UserID))

	if err := service.sessionRepository.RevokeAll(context, session.UserID); err != nil {
		return fmt.Errorf("auth_service_refresh_revoke_all_failed: %w", err)
	}
	return apperr.Unauthorized("Invalid or expired refresh token")
}

// lookup reads a session through the cache, falling back to Postgres.
func (service *Service) lookup(context context.Context, tokenHash string) (*Session, error) {
	if service.sessionCache != nil {
		session, err := service.sessionCache.Get(context, tokenHash)
		if err != nil {
			service.logger.WarnContext(context, "auth_session_cache_get_failed", slog.Any("error", err))
		}
		if session != nil {
			return session, nil
		}
	}

	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)
	if errors.Is(err, dberr.ErrNotFound) {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (service *Service) evict(context context.Context, tokenHash string) {
	if service.sessionCache == nil {
		return
	}
	if err := service.sessionCache.Delete(context, tokenHash); err != nil {
		service.logger.WarnContext(context, "auth_session_cache_delete_failed", slog.Any("error", err))
	}
}

// # Profile

/*
Me returns the account behind an authenticated request.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Hydrated entity
  - error: NotFound if the account is gone
*/
func (service *Service) Me(context context.Context, userID string) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if errors.Is(err, dberr.ErrNotFound) {
		return nil, apperr.NotFound("User")
	}
	return user, err
}
