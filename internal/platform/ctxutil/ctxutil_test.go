// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/motionmaster/internal/platform/ctxutil"
	"github.com/taibuivan/motionmaster/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "req-42")
	assert.Equal(t, "req-42", ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies the request logger and its default fallback.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_AuthUser verifies that claims and the user ID can be read back.
*/
func TestContext_AuthUser(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ctxutil.GetAuthUser(ctx))
	assert.Empty(t, ctxutil.UserID(ctx))

	ctx = ctxutil.WithAuthUser(ctx, &sec.AuthClaims{UserID: "athlete-1", Role: "member"})

	claims := ctxutil.GetAuthUser(ctx)
	if assert.NotNil(t, claims) {
		assert.Equal(t, "member", claims.Role)
	}
	assert.Equal(t, "athlete-1", ctxutil.UserID(ctx))
}
