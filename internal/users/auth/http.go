// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/constants"
	"github.com/taibuivan/motionmaster/internal/platform/middleware"
	requestutil "github.com/taibuivan/motionmaster/internal/platform/request"
	"github.com/taibuivan/motionmaster/internal/platform/respond"
	"github.com/taibuivan/motionmaster/internal/platform/validate"
)

const maxAuthBodyBytes = 64 << 10

// Handler serves /api/v1/auth. The refresh token never appears in a JSON
// body; it travels only in an HttpOnly cookie scoped to this prefix.
type Handler struct {
	authService *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes mounts register, login, refresh and logout publicly and /me behind
// [middleware.RequireAuth].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)
	router.With(middleware.RequireAuth).Get("/me", handler.me)

	return router
}

// # Request Payloads

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// # Response Payloads

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        *User  `json:"user,omitempty"`
}

/*
POST /api/v1/auth/register

Description: Validates input and persists a new member account.

Request:
  - Body: RegisterInput (username, email, password, display_name)

Response:
  - 201: User: Created user profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input RegisterInput
	if err := requestutil.DecodeJSONLimited(writer, request, &input, maxAuthBodyBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
POST /api/v1/auth/login

Description: Verifies credentials, issues an access token and sets the
refresh token cookie.

Request:
  - Body: loginRequest (login, password)

Response:
  - 200: Access token and User profile
  - 401: ErrUnauthorized: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSONLimited(writer, request, &input, maxAuthBodyBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldLogin, input.Login).Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Login:     input.Login,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writeSession(writer, session, session.User)
}

/*
POST /api/v1/auth/refresh

Description: Rotates the session behind the refresh token cookie.

Response:
  - 200: New access token credentials
  - 401: ErrUnauthorized: Missing, revoked or expired refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	token := refreshTokenFrom(request)
	if token == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	session, err := handler.authService.RefreshSession(request.Context(), token,
		request.UserAgent(), middleware.RealIP(request))
	if err != nil {
		http.SetCookie(writer, refreshCookie("", time.Time{}))
		respond.Error(writer, request, err)
		return
	}

	writeSession(writer, session, nil)
}

/*
POST /api/v1/auth/logout

Description: Revokes the refresh token (if present) and clears the cookie.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if token := refreshTokenFrom(request); token != "" {
		if err := handler.authService.Logout(request.Context(), token); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	http.SetCookie(writer, refreshCookie("", time.Time{}))
	respond.NoContent(writer)
}

/*
GET /api/v1/auth/me

Response:
  - 200: User: The authenticated account
  - 401: ErrUnauthorized
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Me(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Session Helpers

// writeSession sets the rotated refresh cookie and returns the access token.
func writeSession(writer http.ResponseWriter, session *LoginSession, user *User) {
	http.SetCookie(writer, refreshCookie(session.RefreshToken, session.RefreshTokenExpiresAt))

	respond.OK(writer, tokenResponse{
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(AccessTokenTTL / time.Second),
		User:        user,
	})
}

func refreshTokenFrom(request *http.Request) string {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// refreshCookie builds the refresh cookie; an empty token deletes it.
func refreshCookie(token string, expiresAt time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  expiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if token == "" {
		cookie.Expires = time.Time{}
		cookie.MaxAge = -1
	}
	return cookie
}
