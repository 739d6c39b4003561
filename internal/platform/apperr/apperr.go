// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the error type returned by every MotionMaster service.

An [AppError] pairs a machine-readable code with a client-safe message and the
HTTP status the transport layer should answer with. Low-level storage, media and
region errors are translated into an [AppError] before they leave a service.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Codes

const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia   = "UNSUPPORTED_MEDIA"
	CodeUnprocessable      = "UNPROCESSABLE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// AppError is what a handler hands to respond.Error.
//
// Cause never reaches the client; respond logs it for 5xx answers.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError points at one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (appError *AppError) Error() string { return appError.Message }

func (appError *AppError) Unwrap() error { return appError.Cause }

// Wrap returns a copy of the error carrying cause for the server log.
func (appError *AppError) Wrap(cause error) *AppError {
	clone := *appError
	clone.Cause = cause
	return &clone
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// # Client Errors (4xx)

// NotFound reports a missing resource by name, e.g. NotFound("Comparison").
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, CodeNotFound, resource+" not found")
}

func Unauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Conflict covers unique-constraint violations and illegal state transitions.
func Conflict(message string) *AppError {
	return newError(http.StatusConflict, CodeConflict, message)
}

// ValidationError is a 400 listing every field that failed its rules.
func ValidationError(message string, details ...FieldError) *AppError {
	appError := newError(http.StatusBadRequest, CodeValidation, message)
	appError.Details = details
	return appError
}

// BadRequest is a 400 for bodies that could not be parsed at all.
func BadRequest(message string) *AppError {
	return newError(http.StatusBadRequest, CodeBadRequest, message)
}

func PayloadTooLarge(limitBytes int64) *AppError {
	return newError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
		fmt.Sprintf("Upload exceeds the %d byte limit", limitBytes))
}

// UnsupportedMedia rejects frames or clips whose encoding cannot be decoded.
func UnsupportedMedia(message string) *AppError {
	return newError(http.StatusUnsupportedMediaType, CodeUnsupportedMedia, message)
}

// Unprocessable is for well-formed input the comparison cannot act on, such
// as a region outside the frame.
func Unprocessable(message string) *AppError {
	return newError(http.StatusUnprocessableEntity, CodeUnprocessable, message)
}

func RateLimited(retryAfterSeconds int) *AppError {
	return newError(http.StatusTooManyRequests, CodeRateLimited,
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// # Server Errors (5xx)

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	appError := newError(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	appError.Cause = cause
	return appError
}

// ServiceUnavailable is used while the analysis runner is draining or a
// dependency is down.
func ServiceUnavailable(message string) *AppError {
	return newError(http.StatusServiceUnavailable, CodeServiceUnavailable, message)
}

// # Helpers

// As returns the first [*AppError] in err's chain, or nil.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}
