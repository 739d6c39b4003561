// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comparison

import (
	"context"
	"io"
	"time"

	"github.com/taibuivan/motionmaster/internal/platform/storage"
	"github.com/taibuivan/motionmaster/internal/region"
)

// # Comparison Data Access

// Repository defines the persistent data access contract for comparisons.
type Repository interface {

	/*
		Create persists a new, empty comparison.

		Parameters:
		  - context: context.Context
		  - comparison: *Comparison

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, comparison *Comparison) error

	/*
		FindByID retrieves a comparison with both videos and the stored analysis.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Comparison: Hydrated entity
		  - error: dberr.ErrNotFound if missing
	*/
	FindByID(context context.Context, id string) (*Comparison, error)

	/*
		ListByOwner returns a page of the owner's comparisons, newest first, and the total count.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - limit, offset: int

		Returns:
		  - []*Comparison: Hydrated entities
		  - int: Total record count
		  - error: Retrieval failures
	*/
	ListByOwner(context context.Context, ownerID string, limit, offset int) ([]*Comparison, int, error)

	/*
		Delete removes a comparison together with its videos and analysis.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, id string) error

	// # Video Slots

	/*
		ReplaceVideo stores video in its slot and discards any analysis.

		Parameters:
		  - context: context.Context
		  - video: *Video

		Returns:
		  - *Video: The superseded video, or nil when the slot was empty
		  - error: Persistence failures
	*/
	ReplaceVideo(context context.Context, video *Video) (*Video, error)

	/*
		UpdateFrame records a poster frame and the native size it established.

		Parameters:
		  - context: context.Context
		  - videoID: string
		  - frameKey: string
		  - width, height: int

		Returns:
		  - error: Persistence failures
	*/
	UpdateFrame(context context.Context, videoID, frameKey string, width, height int) error

	/*
		UpdateSelection stores or clears (nil) the native-space selection and discards any analysis.

		Parameters:
		  - context: context.Context
		  - comparisonID: string
		  - videoID: string
		  - selection: *region.Rect

		Returns:
		  - error: Persistence failures
	*/
	UpdateSelection(context context.Context, comparisonID, videoID string, selection *region.Rect) error

	// # Analysis Results

	ResultStore

	/*
		DeleteAnalysis removes a stored result. Missing results are not an error.

		Parameters:
		  - context: context.Context
		  - comparisonID: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteAnalysis(context context.Context, comparisonID string) error
}

// ResultStore persists finished analyses.
type ResultStore interface {

	/*
		SaveAnalysis inserts or replaces the result of a comparison.

		Parameters:
		  - context: context.Context
		  - analysis: *Analysis

		Returns:
		  - error: Persistence failures
	*/
	SaveAnalysis(context context.Context, analysis *Analysis) error
}

// # Volatile Data Access

// ProgressStore keeps short-lived analysis progress snapshots.
type ProgressStore interface {

	/*
		Set records the progress of a running analysis.

		Parameters:
		  - context: context.Context
		  - comparisonID: string
		  - progress: float64 (0..100)
		  - ttl: time.Duration

		Returns:
		  - error: Storage failures
	*/
	Set(context context.Context, comparisonID string, progress float64, ttl time.Duration) error

	/*
		Get returns the last recorded progress.

		Parameters:
		  - context: context.Context
		  - comparisonID: string

		Returns:
		  - float64: Progress
		  - bool: false when nothing is recorded
		  - error: Storage failures
	*/
	Get(context context.Context, comparisonID string) (float64, bool, error)

	/*
		Delete drops the snapshot.

		Parameters:
		  - context: context.Context
		  - comparisonID: string

		Returns:
		  - error: Storage failures
	*/
	Delete(context context.Context, comparisonID string) error
}

// # Blob Access

// BlobStore is the content store for videos and frames. It is satisfied by [*storage.FileStore].
type BlobStore interface {
	Put(context context.Context, key string, body io.Reader, limit int64) (storage.Object, error)
	Open(key string) (storage.Blob, error)
	Delete(key string) error
}
