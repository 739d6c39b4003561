// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/respond"
	"github.com/taibuivan/motionmaster/pkg/pagination"
)

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestError(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/api/v1/comparisons/x", nil)

	t.Run("app error keeps status and details", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		respond.Error(recorder, request, apperr.ValidationError("Validation failed",
			apperr.FieldError{Field: "title", Message: "This field is required"}))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		body := decode(t, recorder)
		assert.Equal(t, apperr.CodeValidation, body["code"])
		assert.Len(t, body["details"], 1)
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		respond.Error(recorder, request, errors.New("pq: relation missing"))

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.NotContains(t, recorder.Body.String(), "relation")
		assert.Equal(t, apperr.CodeInternal, decode(t, recorder)["code"])
	})
}

func TestPaginated(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Paginated(recorder, []string{"a", "b"}, pagination.NewMeta(1, 2, 5))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))

	meta := decode(t, recorder)["meta"].(map[string]any)
	assert.Equal(t, float64(3), meta["total_pages"])
	assert.Equal(t, true, meta["has_more"])
}

func TestStream_Range(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/video", nil)
	request.Header.Set("Range", "bytes=2-5")
	recorder := httptest.NewRecorder()

	respond.Stream(recorder, request, "clip.mp4", "video/mp4", time.Now(), strings.NewReader("0123456789"))

	assert.Equal(t, http.StatusPartialContent, recorder.Code)
	assert.Equal(t, "2345", recorder.Body.String())
	assert.Equal(t, "video/mp4", recorder.Header().Get("Content-Type"))
}

func TestImage(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Image(recorder, "image/png", []byte{0x89, 'P', 'N', 'G'})

	assert.Equal(t, "image/png", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "4", recorder.Header().Get("Content-Length"))
}
