// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/motionmaster/internal/platform/constants"
	"github.com/taibuivan/motionmaster/internal/platform/ctxutil"
	"github.com/taibuivan/motionmaster/internal/platform/middleware"
	"github.com/taibuivan/motionmaster/internal/platform/sec"
)

type stubVerifier struct {
	claims *sec.AuthClaims
}

func (verifier stubVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return verifier.claims, nil
}

type originSuffix string

func (suffix originSuffix) AllowsOrigin(origin string) bool {
	return origin == "https://app."+string(suffix)
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte(ctxutil.UserID(request.Context())))
	})
}

/*
TestAuthenticate covers anonymous, malformed, invalid and valid credentials.
*/
func TestAuthenticate(t *testing.T) {
	verifier := stubVerifier{claims: &sec.AuthClaims{UserID: "athlete-1", Role: string(sec.RoleMember)}}
	handler := middleware.Authenticate(verifier)(echoUser())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"malformed", "Token good", http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized, ""},
		{"lowercase scheme", "bearer good", http.StatusOK, "athlete-1"},
		{"invalid", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer good", http.StatusOK, "athlete-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, recorder.Body.String())
			}
		})
	}
}

/*
TestRequireAuth rejects anonymous callers.
*/
func TestRequireAuth(t *testing.T) {
	handler := middleware.RequireAuth(echoUser())

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "athlete-2"}))
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "athlete-2", recorder.Body.String())
}

/*
TestRequestID reuses an inbound ID and mints one otherwise.
*/
func TestRequestID(t *testing.T) {
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(ctxutil.GetRequestID(request.Context())))
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "upstream-7")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, "upstream-7", recorder.Body.String())

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, recorder.Body.String())
	assert.Equal(t, recorder.Body.String(), recorder.Header().Get(constants.HeaderXRequestID))
}

/*
TestCORS decorates allowed origins and short-circuits pre-flight requests.
*/
func TestCORS(t *testing.T) {
	handler := middleware.CORS(originSuffix("motionmaster.app"))(echoUser())

	request := httptest.NewRequest(http.MethodOptions, "/", nil)
	request.Header.Set("Origin", "https://app.motionmaster.app")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://app.motionmaster.app", recorder.Header().Get("Access-Control-Allow-Origin"))

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Origin", "https://evil.example")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}

/*
TestRateLimiter exhausts the burst of a single client.
*/
func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiter(ctx, 0.001, 2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))

	handler := limiter.Handler(echoUser())
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRealIP, "10.0.0.1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
}

/*
TestPanicRecovery turns a panic into a 500 envelope.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_ERROR")
}
