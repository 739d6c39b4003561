// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// Every JSON response leaves through this package so clients always see either
// a {"data": ...} envelope or an {"error", "code", "details"} envelope. Binary
// payloads such as previews and video streams use [Image] and [Stream].
package respond

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/ctxkey"
	"github.com/taibuivan/motionmaster/pkg/pagination"
)

// SuccessEnvelope wraps every 2xx JSON body.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// PaginatedEnvelope adds the window description to list bodies.
type PaginatedEnvelope struct {
	Data interface{}     `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// ErrorEnvelope mirrors [apperr.AppError] minus the cause.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON is the single place that sets the JSON content type.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// Accepted answers analysis starts; the body is the initial progress.
func Accepted(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusAccepted, SuccessEnvelope{Data: data})
}

func Paginated(writer http.ResponseWriter, data interface{}, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, PaginatedEnvelope{Data: data, Meta: metadata})
}

func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Image writes a rendered selection preview or poster frame.
func Image(writer http.ResponseWriter, contentType string, body []byte) {
	writer.Header().Set("Content-Type", contentType)
	writer.Header().Set("Content-Length", strconv.Itoa(len(body)))
	writer.Header().Set("Cache-Control", "private, no-cache")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(body)
}

// Stream serves a stored clip, honouring Range requests for scrubbing.
func Stream(writer http.ResponseWriter, request *http.Request, name, contentType string, modified time.Time, content io.ReadSeeker) {
	if contentType != "" {
		writer.Header().Set("Content-Type", contentType)
	}
	http.ServeContent(writer, request, name, modified, content)
}

// Error answers with the status carried by an [apperr.AppError]. Any other
// error becomes a generic 500; 5xx causes are logged, never returned.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	appError := apperr.As(err)
	if appError == nil {
		appError = apperr.Internal(err)
	}

	if appError.HTTPStatus >= http.StatusInternalServerError {
		requestLogger(request).ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", requestID(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}

func requestLogger(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

func requestID(request *http.Request) string {
	id, _ := request.Context().Value(ctxkey.KeyRequestID).(string)
	return id
}
