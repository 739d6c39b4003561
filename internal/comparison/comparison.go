// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package comparison manages technique comparisons: an athlete's own video
set against a reference video, each narrowed to the region that holds the
subject.

# Core Responsibility

  - Lifecycle: Defines the [Comparison] and [Video] entities and derives their [Status].
  - Media: Stores uploaded videos and poster frames, releasing superseded blobs.
  - Selection: Records native-space regions, either given directly or replayed
    through a [region.Selector] from recorded pointer and touch gestures.
  - Analysis: Runs the scoring pass in the background and reports its progress.
*/
package comparison

import (
	"errors"
	"time"

	"github.com/taibuivan/motionmaster/internal/region"
)

// # Comparison Enums

// Role identifies one of the two video slots of a comparison.
type Role string

const (
	RoleUser      Role = "user"
	RoleReference Role = "reference"
)

// Roles lists every slot in display order.
var Roles = []Role{RoleUser, RoleReference}

// Valid reports whether r names a known slot.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleReference
}

// Status is the derived lifecycle stage of a comparison.
type Status string

const (
	// A video or a selection is still missing
	StatusDraft Status = "draft"

	// Both videos carry a selection
	StatusReady Status = "ready"

	// An analysis run is in progress
	StatusAnalyzing Status = "analyzing"

	// A result is stored for the current videos and selections
	StatusAnalyzed Status = "analyzed"
)

// # Core Entities

// Comparison pairs the athlete's video with a reference video.
type Comparison struct {
	ID             string    `json:"id"` // UUIDv7
	OwnerID        string    `json:"-"`
	Title          string    `json:"title"`
	Status         Status    `json:"status"`
	UserVideo      *Video    `json:"user_video,omitempty"`
	ReferenceVideo *Video    `json:"reference_video,omitempty"`
	Analysis       *Analysis `json:"analysis,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Video returns the video stored in slot role, or nil.
func (c *Comparison) Video(role Role) *Video {
	switch role {
	case RoleUser:
		return c.UserVideo
	case RoleReference:
		return c.ReferenceVideo
	default:
		return nil
	}
}

// SetVideo places video into slot role.
func (c *Comparison) SetVideo(role Role, video *Video) {
	switch role {
	case RoleUser:
		c.UserVideo = video
	case RoleReference:
		c.ReferenceVideo = video
	}
}

// Selected reports whether both slots hold a video with a selection.
func (c *Comparison) Selected() bool {
	for _, role := range Roles {
		video := c.Video(role)
		if video == nil || video.Selection == nil {
			return false
		}
	}
	return true
}

// Video is an uploaded clip in one slot of a comparison.
type Video struct {
	ID           string       `json:"id"`
	ComparisonID string       `json:"comparison_id"`
	Role         Role         `json:"role"`
	FileName     string       `json:"file_name"`
	StorageKey   string       `json:"-"`
	MimeType     string       `json:"mime_type"`
	SizeBytes    int64        `json:"size_bytes"`
	SHA256       string       `json:"sha256"`
	Width        int          `json:"width"`  // Native pixels; 0 until known
	Height       int          `json:"height"` // Native pixels; 0 until known
	FrameKey     *string      `json:"-"`
	HasFrame     bool         `json:"has_frame"`
	Selection    *region.Rect `json:"selection,omitempty"` // Native pixel space
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NativeSize returns the intrinsic size of the video.
func (v *Video) NativeSize() region.Size {
	return region.Size{Width: float64(v.Width), Height: float64(v.Height)}
}

// IntrinsicSize implements [region.VideoSource].
func (v *Video) IntrinsicSize() region.Size {
	return v.NativeSize()
}

// BlobKeys lists every storage key referenced by the video.
func (v *Video) BlobKeys() []string {
	keys := []string{v.StorageKey}
	if v.FrameKey != nil {
		keys = append(keys, *v.FrameKey)
	}
	return keys
}

// Analysis is the scored outcome of comparing the two selections.
type Analysis struct {
	ComparisonID string    `json:"-"`
	Alignment    int       `json:"alignment"`
	Timing       int       `json:"timing"`
	Overall      int       `json:"overall"`
	Feedback     string    `json:"feedback"`
	Tips         []string  `json:"tips"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Progress is the state of an analysis as seen by a polling client.
type Progress struct {
	Progress float64   `json:"progress"` // 0..100
	Running  bool      `json:"running"`
	Result   *Analysis `json:"result,omitempty"`
}

// # Inputs

// VideoUpload carries an uploaded clip into the service.
type VideoUpload struct {
	FileName string
	MimeType string
	Width    int
	Height   int
}

// SelectionInput is the body of a selection update. A non-nil Rect is taken as
// a native-space rectangle; otherwise the embedded gesture is replayed.
type SelectionInput struct {
	Rect *region.Rect `json:"rect,omitempty"`
	region.GestureRecording
}

// # Domain Errors

var (
	// ErrRunning is returned when an analysis is already in progress.
	ErrRunning = errors.New("comparison: analysis already running")
)

// # Field Identifiers

const (
	FieldTitle     = "title"
	FieldRole      = "role"
	FieldFile      = "file"
	FieldWidth     = "width"
	FieldHeight    = "height"
	FieldRect      = "rect"
	FieldEvents    = "events"
	FieldFrame     = "frame"
	FieldFormat    = "format"
	FieldContainer = "container_width"
	FieldProgress  = "progress"
	FieldStatus    = "status"
	MaxTitleLength = 200
)
