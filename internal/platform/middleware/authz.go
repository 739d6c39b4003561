// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/ctxutil"
	"github.com/taibuivan/motionmaster/internal/platform/respond"
	"github.com/taibuivan/motionmaster/internal/platform/sec"
)

const headerAuthorization = "Authorization"

// TokenVerifier is satisfied by [*sec.TokenService].
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

/*
Authenticate resolves the caller from an "Authorization: Bearer" header.

Requests without the header continue anonymously so that public routes share
the chain; [RequireAuth] enforces a caller where one is needed. A header that
is present but malformed or expired is rejected with 401 straight away.
*/
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token, present, ok := bearerToken(request)
			if !present {
				next.ServeHTTP(writer, request)
				return
			}
			if !ok {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// Lets StructuredLogger tag the request line with the caller.
			if recorder, isRecorder := writer.(*statusRecorder); isRecorder {
				recorder.userID = claims.UserID
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthUser(request.Context(), claims)))
		})
	}
}

// bearerToken reports whether the header was sent at all and whether it was
// well formed.
func bearerToken(request *http.Request) (token string, present, ok bool) {
	header := request.Header.Get(headerAuthorization)
	if header == "" {
		return "", false, false
	}

	scheme, rest, found := strings.Cut(header, " ")
	token = strings.TrimSpace(rest)
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", true, false
	}
	return token, true, true
}

// RequireAuth answers 401 unless [Authenticate] attached a caller.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
