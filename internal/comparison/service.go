// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comparison

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/taibuivan/motionmaster/internal/media/frame"
	"github.com/taibuivan/motionmaster/internal/platform/apperr"
	"github.com/taibuivan/motionmaster/internal/platform/dberr"
	"github.com/taibuivan/motionmaster/internal/platform/storage"
	"github.com/taibuivan/motionmaster/internal/platform/validate"
	"github.com/taibuivan/motionmaster/internal/region"
	"github.com/taibuivan/motionmaster/pkg/pagination"
	"github.com/taibuivan/motionmaster/pkg/uuid"
)

// Limits bounds what the service accepts from clients.
type Limits struct {
	MaxVideoBytes    int64
	MaxFrameBytes    int64
	MaxDisplayHeight float64
}

// Service implements the comparison business logic.
type Service struct {
	repo     Repository
	blobs    BlobStore
	progress ProgressStore
	runner   *Runner
	limits   Limits
	logger   *slog.Logger
}

// NewService wires the comparison service.
func NewService(repo Repository, blobs BlobStore, progress ProgressStore, runner *Runner, limits Limits, logger *slog.Logger) *Service {
	if limits.MaxDisplayHeight <= 0 {
		limits.MaxDisplayHeight = region.DefaultMaxDisplayHeight
	}

	return &Service{
		repo:     repo,
		blobs:    blobs,
		progress: progress,
		runner:   runner,
		limits:   limits,
		logger:   logger,
	}
}

// Limits returns the effective upload and rendering limits.
func (service *Service) Limits() Limits {
	return service.limits
}

// # Comparison Lifecycle

/*
Create starts an empty comparison owned by ownerID.

Parameters:
  - context: context.Context
  - ownerID: string
  - title: string (optional)

Returns:
  - *Comparison: The created entity in draft status
  - error: Validation or persistence errors
*/
func (service *Service) Create(context context.Context, ownerID, title string) (*Comparison, error) {
	title = strings.TrimSpace(title)

	validator := &validate.Validator{}
	validator.MaxLen(FieldTitle, title, MaxTitleLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	entity := &Comparison{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   title,
		Status:  StatusDraft,
	}

	if err := service.repo.Create(context, entity); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "comparison_created", slog.String("comparison_id", entity.ID))
	return entity, nil
}

/*
List returns one page of the owner's comparisons.

Parameters:
  - context: context.Context
  - ownerID: string
  - params: pagination.Params

Returns:
  - []*Comparison: Entities with derived status
  - int: Total record count
  - error: Storage failures
*/
func (service *Service) List(context context.Context, ownerID string, params pagination.Params) ([]*Comparison, int, error) {
	entities, total, err := service.repo.ListByOwner(context, ownerID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, err
	}

	for _, entity := range entities {
		service.deriveStatus(entity)
	}
	return entities, total, nil
}

/*
Get returns a comparison owned by ownerID.

Parameters:
  - context: context.Context
  - ownerID: string
  - id: string

Returns:
  - *Comparison: Hydrated entity with derived status
  - error: apperr.NotFound for unknown or foreign comparisons
*/
func (service *Service) Get(context context.Context, ownerID, id string) (*Comparison, error) {
	return service.owned(context, ownerID, id)
}

/*
Delete removes a comparison and releases every blob it references.

Parameters:
  - context: context.Context
  - ownerID: string
  - id: string

Returns:
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Delete(context context.Context, ownerID, id string) error {
	entity, err := service.owned(context, ownerID, id)
	if err != nil {
		return err
	}

	service.invalidate(context, id)

	if err := service.repo.Delete(context, id); err != nil {
		return err
	}

	for _, role := range Roles {
		service.release(context, entity.Video(role))
	}

	service.logger.InfoContext(context, "comparison_deleted", slog.String("comparison_id", id))
	return nil
}

// # Videos

/*
UploadVideo stores a clip in one slot, superseding the previous one.

Description: The previous clip, its poster frame and its selection are
released, and any analysis is discarded.

Parameters:
  - context: context.Context
  - ownerID, id: string
  - role: Role
  - upload: VideoUpload
  - body: io.Reader

Returns:
  - *Video: The stored video
  - error: Validation, size or storage errors
*/
func (service *Service) UploadVideo(context context.Context, ownerID, id string, role Role, upload VideoUpload, body io.Reader) (*Video, error) {
	validator := &validate.Validator{}
	validator.OneOf(FieldRole, string(role), string(RoleUser), string(RoleReference))
	validator.MediaPrefix(FieldFile, upload.MimeType, "video/")
	validator.Custom(FieldWidth, upload.Width < 0, "Must not be negative")
	validator.Custom(FieldHeight, upload.Height < 0, "Must not be negative")
	validator.Custom(FieldWidth, upload.Width > frame.MaxDimension, fmt.Sprintf("Must be at most %d", frame.MaxDimension))
	validator.Custom(FieldHeight, upload.Height > frame.MaxDimension, fmt.Sprintf("Must be at most %d", frame.MaxDimension))
	validator.Custom(FieldHeight, (upload.Width == 0) != (upload.Height == 0), "Width and height must be given together")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.owned(context, ownerID, id); err != nil {
		return nil, err
	}

	// 1. Write the blob first so the database never points at a missing file
	key := storage.ComparisonKey(id, string(role), upload.FileName)
	object, err := service.blobs.Put(context, key, body, service.limits.MaxVideoBytes)
	if err != nil {
		return nil, storeError(err, service.limits.MaxVideoBytes, "video_store_failed")
	}

	video := &Video{
		ID:           uuid.New(),
		ComparisonID: id,
		Role:         role,
		FileName:     upload.FileName,
		StorageKey:   object.Key,
		MimeType:     upload.MimeType,
		SizeBytes:    object.Size,
		SHA256:       object.SHA256,
		Width:        upload.Width,
		Height:       upload.Height,
	}

	// 2. Swap the slot
	service.invalidate(context, id)

	previous, err := service.repo.ReplaceVideo(context, video)
	if err != nil {
		service.discard(context, object.Key)
		return nil, err
	}

	// 3. Release what the old clip referenced
	if previous != nil {
		service.release(context, previous)
		service.logger.InfoContext(context, "video_superseded",
			slog.String("comparison_id", id),
			slog.String("role", string(role)),
			slog.String("previous_id", previous.ID),
		)
	}

	service.logger.InfoContext(context, "video_uploaded",
		slog.String("comparison_id", id),
		slog.String("role", string(role)),
		slog.Int64("size_bytes", video.SizeBytes),
	)
	return video, nil
}

/*
OpenVideo returns the stored clip of one slot. The caller must close the blob.

Parameters:
  - context: context.Context
  - ownerID, id: string
  - role: Role

Returns:
  - *Video: Metadata
  - storage.Blob: Seekable content
  - error: apperr.NotFound or storage errors
*/
func (service *Service) OpenVideo(context context.Context, ownerID, id string, role Role) (*Video, storage.Blob, error) {
	video, err := service.slot(context, ownerID, id, role)
	if err != nil {
		return nil, nil, err
	}

	blob, err := service.blobs.Open(video.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, apperr.NotFound("Video")
		}
		return nil, nil, apperr.Internal(fmt.Errorf("video_open_failed: %w", err))
	}
	return video, blob, nil
}

/*
UploadFrame attaches a poster frame to a video.

Description: The frame must match the native size of the video. When the
size is still unknown the frame defines it.

Parameters:
  - context: context.Context
  - ownerID, id: string
  - role: Role
  - body: io.Reader (PNG, JPEG or WebP)

Returns:
  - *Video: The updated video
  - error: Validation, size or storage errors
*/
func (service *Service) UploadFrame(context context.Context, ownerID, id string, role Role, body io.Reader) (*Video, error) {
	video, err := service.slot(context, ownerID, id, role)
	if err != nil {
		return nil, err
	}

	// 1. Buffer and decode within the limit
	limit := service.limits.MaxFrameBytes
	raw, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, apperr.BadRequest("Could not read frame").Wrap(err)
	}
	if int64(len(raw)) > limit {
		return nil, apperr.PayloadTooLarge(limit)
	}

	decoded, err := frame.Decode(bytes.NewReader(raw))
	if errors.Is(err, frame.ErrTooLarge) {
		return nil, apperr.Unprocessable(fmt.Sprintf("Frame must be at most %dx%d and %d pixels",
			frame.MaxDimension, frame.MaxDimension, frame.MaxPixels)).Wrap(err)
	}
	if err != nil {
		return nil, apperr.UnsupportedMedia("Frame must be a PNG, JPEG or WebP image").Wrap(err)
	}

	size := decoded.Size()
	width, height := int(size.Width), int(size.Height)

	// 2. Match or establish the native size
	if !video.NativeSize().IsZero() && (video.Width != width || video.Height != height) {
		return nil, validate.RequiredError(FieldFrame,
			fmt.Sprintf("Frame is %dx%d but the video is %dx%d", width, height, video.Width, video.Height))
	}

	// 3. Store and record
	key := storage.ComparisonKey(id, string(role), "frame."+string(decoded.Format))
	object, err := service.blobs.Put(context, key, bytes.NewReader(raw), limit)
	if err != nil {
		return nil, storeError(err, limit, "frame_store_failed")
	}

	if err := service.repo.UpdateFrame(context, video.ID, object.Key, width, height); err != nil {
		service.discard(context, object.Key)
		return nil, err
	}

	if video.FrameKey != nil {
		service.discard(context, *video.FrameKey)
	}

	video.FrameKey = &object.Key
	video.HasFrame = true
	video.Width = width
	video.Height = height
	return video, nil
}

// # Selection

/*
SetSelection records the subject region of a video.

Description: A direct rectangle is validated against the native bounds and
the minimum extent. Otherwise the recorded gesture is replayed through a
fresh [region.Selector].

Parameters:
  - context: context.Context
  - ownerID, id: string
  - role: Role
  - input: SelectionInput

Returns:
  - *Video: The updated video
  - error: 422 when nothing usable was selected
*/
func (service *Service) SetSelection(context context.Context, ownerID, id string, role Role, input SelectionInput) (*Video, error) {
	video, err := service.slot(context, ownerID, id, role)
	if err != nil {
		return nil, err
	}

	var rect region.Rect
	if input.Rect != nil {
		rect, err = service.checkRect(video, *input.Rect)
	} else {
		rect, err = service.replay(video, input.GestureRecording)
	}
	if err != nil {
		return nil, err
	}

	service.invalidate(context, id)

	if err := service.repo.UpdateSelection(context, id, video.ID, &rect); err != nil {
		return nil, err
	}

	video.Selection = &rect
	service.logger.InfoContext(context, "selection_confirmed",
		slog.String("comparison_id", id),
		slog.String("role", string(role)),
		slog.Float64("width", rect.Width),
		slog.Float64("height", rect.Height),
	)
	return video, nil
}

/*
ClearSelection removes the subject region of a video. Clearing an empty
selection is a no-op.

Parameters:
  - context: context.Context
  - ownerID, id: string
  - role: Role

Returns:
  - error: apperr.NotFound or storage errors
*/
func (service *Service) ClearSelection(context context.Context, ownerID, id string, role Role) error {
	video, err := service.slot(context, ownerID, id, role)
	if err != nil {
		return err
	}

	if video.Selection == nil {
		return nil
	}

	service.invalidate(context, id)
	return service.repo.UpdateSelection(context, id, video.ID, nil)
}

func (service *Service) checkRect(video *Video, rect region.Rect) (region.Rect, error) {
	native := video.NativeSize()
	if native.IsZero() {
		return region.Rect{}, regionError(region.ErrNotReady)
	}

	validator := &validate.Validator{}
	validator.Custom(FieldRect, rect.Empty(), "Must have a positive width and height")
	validator.Custom(FieldRect, !rect.Within(native),
		fmt.Sprintf("Must lie inside the %dx%d frame", video.Width, video.Height))
	if err := validator.Err(); err != nil {
		return region.Rect{}, err
	}

	// Apply the drag threshold in the default display box.
	display := region.ComputeMetrics(native, native.Width, service.limits.MaxDisplayHeight).ToDisplay(rect)
	if display.Width <= region.MinExtent || display.Height <= region.MinExtent {
		return region.Rect{}, regionError(region.ErrNoSelection)
	}

	return rect, nil
}

func (service *Service) replay(video *Video, recording region.GestureRecording) (region.Rect, error) {
	if len(recording.Events) == 0 {
		return region.Rect{}, regionError(region.ErrNoSelection)
	}

	rect, err := region.ReplayGesture(video, recording, service.limits.MaxDisplayHeight)
	if err != nil {
		return region.Rect{}, regionError(err)
	}
	return rect, nil
}

// # Rendering

/*
RenderPreview draws the selection overlay on the poster frame, scaled to the
display box of a container.

Parameters:
  - context: context.Context
  - ownerID, id: string
  - role: Role
  - format: frame.Format
  - containerWidth: float64 (0 renders at native width)

Returns:
  - []byte: Encoded image
  - error: apperr.NotFound when the video has no frame
*/
func (service *Service) RenderPreview(context context.Context, ownerID, id string, role Role, format frame.Format, containerWidth float64) ([]byte, error) {
	validator := &validate.Validator{}
	validator.Custom(FieldContainer, containerWidth < 0 || containerWidth > frame.MaxDimension,
		fmt.Sprintf("Must be between 0 and %d", frame.MaxDimension))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	video, decoded, err := service.loadFrame(context, ownerID, id, role)
	if err != nil {
		return nil, err
	}

	native := decoded.Size()
	if containerWidth <= 0 {
		containerWidth = native.Width
	}

	metrics := region.ComputeMetrics(native, containerWidth, service.limits.MaxDisplayHeight)
	if !metrics.Valid() {
		return nil, regionError(region.ErrNotReady)
	}

	preview := frame.Preview(decoded.Image, metrics, video.Selection)

	body, err := frame.EncodeBytes(preview, format)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("preview_encode_failed: %w", err))
	}
	return body, nil
}

/*
RenderSubject crops the poster frame to the native-space selection.

Parameters:
  - context: context.Context
  - ownerID, id: string
  - role: Role
  - format: frame.Format

Returns:
  - []byte: Encoded image
  - error: 422 when nothing is selected
*/
func (service *Service) RenderSubject(context context.Context, ownerID, id string, role Role, format frame.Format) ([]byte, error) {
	video, decoded, err := service.loadFrame(context, ownerID, id, role)
	if err != nil {
		return nil, err
	}

	if video.Selection == nil {
		return nil, regionError(region.ErrNoSelection)
	}

	subject, err := frame.Crop(decoded.Image, *video.Selection)
	if err != nil {
		return nil, apperr.Unprocessable("Selection lies outside the frame").Wrap(err)
	}

	body, err := frame.EncodeBytes(subject, format)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("subject_encode_failed: %w", err))
	}
	return body, nil
}

func (service *Service) loadFrame(context context.Context, ownerID, id string, role Role) (*Video, frame.Decoded, error) {
	video, err := service.slot(context, ownerID, id, role)
	if err != nil {
		return nil, frame.Decoded{}, err
	}

	if video.FrameKey == nil {
		return nil, frame.Decoded{}, apperr.NotFound("Frame")
	}

	blob, err := service.blobs.Open(*video.FrameKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, frame.Decoded{}, apperr.NotFound("Frame")
		}
		return nil, frame.Decoded{}, apperr.Internal(fmt.Errorf("frame_open_failed: %w", err))
	}
	defer blob.Close()

	decoded, err := frame.Decode(blob)
	if err != nil {
		return nil, frame.Decoded{}, apperr.Internal(fmt.Errorf("frame_decode_failed: %w", err))
	}
	return video, decoded, nil
}

// # Analysis

/*
StartAnalysis launches the scoring pass.

Description: Both videos need a selection. A stored result is discarded
before the new run starts.

Parameters:
  - context: context.Context
  - ownerID, id: string

Returns:
  - *Progress: The initial snapshot
  - error: 409 when a run is in progress, 422 when not ready
*/
func (service *Service) StartAnalysis(context context.Context, ownerID, id string) (*Progress, error) {
	entity, err := service.owned(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	if entity.Status == StatusAnalyzing {
		return nil, apperr.Conflict("Analysis is already running")
	}

	if !entity.Selected() {
		return nil, apperr.Unprocessable("Both videos need a selected region before analysis")
	}

	if err := service.repo.DeleteAnalysis(context, id); err != nil {
		return nil, err
	}

	if err := service.runner.Start(id); err != nil {
		if errors.Is(err, ErrRunning) {
			return nil, apperr.Conflict("Analysis is already running")
		}
		return nil, apperr.ServiceUnavailable("Analysis is unavailable").Wrap(err)
	}

	return &Progress{Progress: 0, Running: true}, nil
}

/*
AnalysisStatus reports the progress of the current run or the stored result.

Parameters:
  - context: context.Context
  - ownerID, id: string

Returns:
  - *Progress: Snapshot
  - error: apperr.NotFound or storage errors
*/
func (service *Service) AnalysisStatus(context context.Context, ownerID, id string) (*Progress, error) {
	entity, err := service.owned(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	if entity.Status == StatusAnalyzing {
		progress, _, err := service.progress.Get(context, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		return &Progress{Progress: progress, Running: true}, nil
	}

	if entity.Analysis != nil {
		return &Progress{Progress: 100, Result: entity.Analysis}, nil
	}

	return &Progress{}, nil
}

// # Helpers

// owned loads a comparison and hides it from everyone but its owner.
func (service *Service) owned(context context.Context, ownerID, id string) (*Comparison, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("Comparison")
	}

	entity, err := service.repo.FindByID(context, id)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.NotFound("Comparison")
		}
		return nil, err
	}

	if entity.OwnerID != ownerID {
		return nil, apperr.NotFound("Comparison")
	}

	service.deriveStatus(entity)
	return entity, nil
}

// slot loads the video in one slot of an owned comparison.
func (service *Service) slot(context context.Context, ownerID, id string, role Role) (*Video, error) {
	if !role.Valid() {
		return nil, apperr.NotFound("Video")
	}

	entity, err := service.owned(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	video := entity.Video(role)
	if video == nil {
		return nil, apperr.NotFound("Video")
	}
	return video, nil
}

func (service *Service) deriveStatus(entity *Comparison) {
	switch {
	case service.runner.Running(entity.ID):
		entity.Status = StatusAnalyzing
	case entity.Analysis != nil:
		entity.Status = StatusAnalyzed
	case entity.Selected():
		entity.Status = StatusReady
	default:
		entity.Status = StatusDraft
	}
}

// invalidate stops a running analysis and drops its progress.
func (service *Service) invalidate(context context.Context, id string) {
	service.runner.Cancel(id)

	if err := service.progress.Delete(context, id); err != nil {
		service.logger.WarnContext(context, "analysis_progress_cleanup_failed",
			slog.String("comparison_id", id),
			slog.Any("error", err),
		)
	}
}

// release deletes every blob a video references.
func (service *Service) release(context context.Context, video *Video) {
	if video == nil {
		return
	}
	for _, key := range video.BlobKeys() {
		service.discard(context, key)
	}
}

func (service *Service) discard(context context.Context, key string) {
	if err := service.blobs.Delete(key); err != nil {
		service.logger.WarnContext(context, "blob_release_failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}

func storeError(err error, limit int64, action string) error {
	if errors.Is(err, storage.ErrTooLarge) {
		return apperr.PayloadTooLarge(limit)
	}
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// regionError maps selector sentinels onto client errors.
func regionError(err error) error {
	switch {
	case errors.Is(err, region.ErrNoSelection):
		return apperr.Unprocessable("No region selected").Wrap(err)
	case errors.Is(err, region.ErrNotReady):
		return apperr.Unprocessable("Video size is not known yet; upload a frame first").Wrap(err)
	case errors.Is(err, region.ErrUnknownEvent):
		return validate.RequiredError(FieldEvents, err.Error())
	default:
		return apperr.Internal(err)
	}
}
