// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comparison

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/motionmaster/internal/media/frame"
	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/constants"
	"github.com/taibuivan/motionmaster/internal/platform/middleware"
	requestutil "github.com/taibuivan/motionmaster/internal/platform/request"
	"github.com/taibuivan/motionmaster/internal/platform/respond"
	"github.com/taibuivan/motionmaster/internal/platform/validate"
	"github.com/taibuivan/motionmaster/pkg/pagination"
)

const (
	// maxJSONBytes bounds comparison and selection bodies. Gesture recordings
	// carry one entry per pointer sample, so this is larger than a plain form.
	maxJSONBytes = 1 << 20

	// multipartMemory is held in memory before multipart parts spill to disk.
	multipartMemory = 8 << 20

	// multipartOverhead allows for boundaries and the small form fields.
	multipartOverhead = 1 << 20
)

// # Handler Implementation

// Handler exposes comparisons over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a comparison [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the comparison endpoints.
//
// # Routing Strategy
//
//   - Every route requires an authenticated user; foreign comparisons read as 404.
//   - JSON routes share the global request deadline.
//   - Media routes (upload, stream, render) get the longer upload deadline.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// ## Comparisons, selections and analysis
	router.Group(func(api chi.Router) {
		api.Use(chimw.Timeout(constants.GlobalRequestTimeout))

		api.Post("/", handler.createComparison)
		api.Get("/", handler.listComparisons)
		api.Get("/{id}", handler.getComparison)
		api.Delete("/{id}", handler.deleteComparison)

		api.Put("/{id}/videos/{role}/selection", handler.setSelection)
		api.Delete("/{id}/videos/{role}/selection", handler.clearSelection)

		api.Post("/{id}/analysis", handler.startAnalysis)
		api.Get("/{id}/analysis", handler.getAnalysis)
	})

	// ## Media
	router.Group(func(media chi.Router) {
		media.Use(chimw.Timeout(constants.UploadRequestTimeout))

		media.Put("/{id}/videos/{role}", handler.uploadVideo)
		media.Get("/{id}/videos/{role}", handler.streamVideo)
		media.Put("/{id}/videos/{role}/frame", handler.uploadFrame)
		media.Get("/{id}/videos/{role}/preview", handler.renderPreview)
		media.Get("/{id}/videos/{role}/subject", handler.renderSubject)
	})

	return router
}

// # Comparison Endpoints

type createRequest struct {
	Title string `json:"title"`
}

/*
POST /api/v1/comparisons.

Description: Creates an empty comparison owned by the caller.

Request:
  - title: string (optional, max 200)

Response:
  - 201: Comparison
*/
func (handler *Handler) createComparison(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createRequest
	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSONLimited(writer, request, &input, maxJSONBytes); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	entity, err := handler.service.Create(request.Context(), userID, input.Title)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, entity)
}

/*
GET /api/v1/comparisons.

Description: Lists the caller's comparisons, newest first.

Request:
  - page: int
  - limit: int

Response:
  - 200: []Comparison
*/
func (handler *Handler) listComparisons(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	entities, total, err := handler.service.List(request.Context(), userID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entities, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/comparisons/{id}.

Response:
  - 200: Comparison (both videos and the analysis summary)
  - 404: Unknown or not owned
*/
func (handler *Handler) getComparison(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entity, err := handler.service.Get(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entity)
}

/*
DELETE /api/v1/comparisons/{id}.

Description: Deletes the comparison and releases every stored video and frame.

Response:
  - 204: No Content
*/
func (handler *Handler) deleteComparison(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), userID, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Video Endpoints

/*
PUT /api/v1/comparisons/{id}/videos/{role}.

Description: Uploads the clip for one slot, replacing the previous one.

Request (multipart/form-data):
  - file: video/* (required)
  - width, height: int (native pixels, optional)

Response:
  - 200: Video
  - 413: Above MAX_VIDEO_BYTES
*/
func (handler *Handler) uploadVideo(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	limit := handler.service.Limits().MaxVideoBytes
	request.Body = http.MaxBytesReader(writer, request.Body, limit+multipartOverhead)

	if err := request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(writer, request, apperr.PayloadTooLarge(limit))
			return
		}
		respond.Error(writer, request, apperr.BadRequest("Expected a multipart/form-data body").Wrap(err))
		return
	}
	defer request.MultipartForm.RemoveAll()

	file, header, err := request.FormFile(FieldFile)
	if err != nil {
		respond.Error(writer, request, validate.RequiredError(FieldFile, "This field is required"))
		return
	}
	defer file.Close()

	upload := VideoUpload{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
	}

	validator := &validate.Validator{}
	upload.Width = formInt(validator, request, FieldWidth)
	upload.Height = formInt(validator, request, FieldHeight)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	video, err := handler.service.UploadVideo(request.Context(), userID,
		requestutil.ID(request, "id"), Role(requestutil.Param(request, "role")), upload, file)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, video)
}

/*
GET /api/v1/comparisons/{id}/videos/{role}.

Description: Streams the stored clip. Range requests are honoured.

Response:
  - 200/206: Video bytes
*/
func (handler *Handler) streamVideo(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	video, blob, err := handler.service.OpenVideo(request.Context(), userID,
		requestutil.ID(request, "id"), Role(requestutil.Param(request, "role")))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer blob.Close()

	respond.Stream(writer, request, video.FileName, video.MimeType, blob.Info().Modified, blob)
}

/*
PUT /api/v1/comparisons/{id}/videos/{role}/frame.

Description: Attaches a poster frame captured at native resolution.

Request:
  - Body: image/png, image/jpeg or image/webp

Response:
  - 200: Video
  - 415: Not a supported image
*/
func (handler *Handler) uploadFrame(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	video, err := handler.service.UploadFrame(request.Context(), userID,
		requestutil.ID(request, "id"), Role(requestutil.Param(request, "role")), request.Body)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, video)
}

// # Selection Endpoints

/*
PUT /api/v1/comparisons/{id}/videos/{role}/selection.

Description: Records the subject region, either as a native rectangle or as
a recorded gesture replayed through the region selector.

Request:
  - rect: {x, y, width, height} (native pixels)
  - OR container_width, surface {left, top}, events []

Response:
  - 200: Video
  - 422: No region selected
*/
func (handler *Handler) setSelection(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input SelectionInput
	if err := requestutil.DecodeJSONLimited(writer, request, &input, maxJSONBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}

	video, err := handler.service.SetSelection(request.Context(), userID,
		requestutil.ID(request, "id"), Role(requestutil.Param(request, "role")), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, video)
}

/*
DELETE /api/v1/comparisons/{id}/videos/{role}/selection.

Response:
  - 204: No Content
*/
func (handler *Handler) clearSelection(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ClearSelection(request.Context(), userID,
		requestutil.ID(request, "id"), Role(requestutil.Param(request, "role"))); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Rendering Endpoints

/*
GET /api/v1/comparisons/{id}/videos/{role}/preview.

Description: Renders the poster frame in its display box with the selection
overlay drawn on top.

Request:
  - format: string (png, jpeg, webp)
  - container_width: int (defaults to the native width)

Response:
  - 200: Image
*/
func (handler *Handler) renderPreview(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	format, err := parseFormat(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	containerWidth := requestutil.QueryInt(request, "container_width", 0)

	body, err := handler.service.RenderPreview(request.Context(), userID,
		requestutil.ID(request, "id"), Role(requestutil.Param(request, "role")), format, float64(containerWidth))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Image(writer, format.ContentType(), body)
}

/*
GET /api/v1/comparisons/{id}/videos/{role}/subject.

Description: Returns the poster frame cropped to the selected region.

Request:
  - format: string (png, jpeg, webp)

Response:
  - 200: Image
  - 422: No region selected
*/
func (handler *Handler) renderSubject(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	format, err := parseFormat(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	body, err := handler.service.RenderSubject(request.Context(), userID,
		requestutil.ID(request, "id"), Role(requestutil.Param(request, "role")), format)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Image(writer, format.ContentType(), body)
}

// # Analysis Endpoints

/*
POST /api/v1/comparisons/{id}/analysis.

Response:
  - 202: Progress
  - 409: Already running
  - 422: A selection is missing
*/
func (handler *Handler) startAnalysis(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	progress, err := handler.service.StartAnalysis(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, progress)
}

/*
GET /api/v1/comparisons/{id}/analysis.

Response:
  - 200: Progress {progress, running, result?}
*/
func (handler *Handler) getAnalysis(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	progress, err := handler.service.AnalysisStatus(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, progress)
}

// # Helpers

func parseFormat(request *http.Request) (frame.Format, error) {
	format, err := frame.ParseFormat(request.URL.Query().Get(FieldFormat))
	if err != nil {
		return "", validate.RequiredError(FieldFormat, "Must be one of: png, jpeg, webp")
	}
	return format, nil
}

func formInt(validator *validate.Validator, request *http.Request, field string) int {
	raw := request.FormValue(field)
	if raw == "" {
		return 0
	}

	value, err := strconv.Atoi(raw)
	validator.Custom(field, err != nil, "Must be an integer")
	return value
}
