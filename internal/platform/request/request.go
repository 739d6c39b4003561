// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package requestutil reads route parameters, bounded JSON bodies and the
// caller's identity off an incoming request.
package requestutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/ctxutil"
	"github.com/taibuivan/motionmaster/internal/platform/validate"
)

/*
DecodeJSONLimited decodes a JSON body of at most limit bytes into target.

Unknown fields are rejected so that a typo in a region or settings payload
surfaces as a 400 instead of being silently dropped.

Parameters:
  - writer: http.ResponseWriter (needed by http.MaxBytesReader)
  - request: *http.Request
  - target: interface{} (pointer to the destination struct)
  - limit: int64

Returns:
  - error: apperr.PayloadTooLarge, validate.ErrInvalidJSON or nil
*/
func DecodeJSONLimited(writer http.ResponseWriter, request *http.Request, target interface{}, limit int64) error {
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, limit))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(target)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.PayloadTooLarge(limit)
	}
	return validate.ErrInvalidJSON
}

// QueryInt reads an integer query parameter or returns fallback.
func QueryInt(request *http.Request, name string, fallback int) int {
	if value, err := strconv.Atoi(request.URL.Query().Get(name)); err == nil {
		return value
	}
	return fallback
}

// ID returns a UUID route parameter in canonical lower case.
func ID(request *http.Request, name string) string {
	return strings.ToLower(strings.TrimSpace(chi.URLParam(request, name)))
}

// Param returns a raw route parameter, e.g. the clip role.
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// RequiredUserID returns the authenticated caller or a 401.
func RequiredUserID(request *http.Request) (string, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil || claims.UserID == "" {
		return "", apperr.Unauthorized("Authentication required")
	}
	return claims.UserID, nil
}
