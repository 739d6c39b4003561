// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comparison_test

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/motionmaster/internal/comparison"
	"github.com/taibuivan/motionmaster/internal/platform/dberr"
	"github.com/taibuivan/motionmaster/internal/platform/storage"
	"github.com/taibuivan/motionmaster/internal/region"
)

// memoryRepository is an in-memory [comparison.Repository].
type memoryRepository struct {
	mu          sync.Mutex
	comparisons map[string]*comparison.Comparison
	videos      map[string]*comparison.Video
	analyses    map[string]*comparison.Analysis
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		comparisons: make(map[string]*comparison.Comparison),
		videos:      make(map[string]*comparison.Video),
		analyses:    make(map[string]*comparison.Analysis),
	}
}

func (repository *memoryRepository) Create(_ context.Context, entity *comparison.Comparison) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	now := time.Now().UTC()
	entity.CreatedAt, entity.UpdatedAt = now, now
	stored := *entity
	repository.comparisons[entity.ID] = &stored
	return nil
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*comparison.Comparison, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	return repository.hydrate(id)
}

func (repository *memoryRepository) hydrate(id string) (*comparison.Comparison, error) {
	stored, found := repository.comparisons[id]
	if !found {
		return nil, dberr.ErrNotFound
	}

	entity := *stored
	for _, video := range repository.videos {
		if video.ComparisonID == id {
			clone := *video
			entity.SetVideo(video.Role, &clone)
		}
	}
	if result, found := repository.analyses[id]; found {
		clone := *result
		entity.Analysis = &clone
	}
	return &entity, nil
}

func (repository *memoryRepository) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]*comparison.Comparison, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var ids []string
	for id, entity := range repository.comparisons {
		if entity.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	total := len(ids)
	if offset > total {
		offset = total
	}
	ids = ids[offset:min(offset+limit, total)]

	entities := make([]*comparison.Comparison, 0, len(ids))
	for _, id := range ids {
		entity, _ := repository.hydrate(id)
		entities = append(entities, entity)
	}
	return entities, total, nil
}

func (repository *memoryRepository) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, found := repository.comparisons[id]; !found {
		return dberr.ErrNotFound
	}
	delete(repository.comparisons, id)
	delete(repository.analyses, id)
	for videoID, video := range repository.videos {
		if video.ComparisonID == id {
			delete(repository.videos, videoID)
		}
	}
	return nil
}

func (repository *memoryRepository) ReplaceVideo(_ context.Context, entity *comparison.Video) (*comparison.Video, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var previous *comparison.Video
	for id, video := range repository.videos {
		if video.ComparisonID == entity.ComparisonID && video.Role == entity.Role {
			previous = video
			delete(repository.videos, id)
		}
	}

	stored := *entity
	repository.videos[entity.ID] = &stored
	delete(repository.analyses, entity.ComparisonID)
	return previous, nil
}

func (repository *memoryRepository) UpdateFrame(_ context.Context, videoID, frameKey string, width, height int) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	video, found := repository.videos[videoID]
	if !found {
		return dberr.ErrNotFound
	}
	video.FrameKey = &frameKey
	video.HasFrame = true
	video.Width, video.Height = width, height
	return nil
}

func (repository *memoryRepository) UpdateSelection(_ context.Context, comparisonID, videoID string, selection *region.Rect) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	video, found := repository.videos[videoID]
	if !found {
		return dberr.ErrNotFound
	}
	if selection != nil {
		clone := *selection
		selection = &clone
	}
	video.Selection = selection
	delete(repository.analyses, comparisonID)
	return nil
}

func (repository *memoryRepository) SaveAnalysis(_ context.Context, result *comparison.Analysis) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	clone := *result
	repository.analyses[result.ComparisonID] = &clone
	return nil
}

func (repository *memoryRepository) DeleteAnalysis(_ context.Context, comparisonID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	delete(repository.analyses, comparisonID)
	return nil
}

func (repository *memoryRepository) analysis(comparisonID string) *comparison.Analysis {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	return repository.analyses[comparisonID]
}

// memoryProgress is an in-memory [comparison.ProgressStore].
type memoryProgress struct {
	mu      sync.Mutex
	values  map[string]float64
	history map[string][]float64
}

func newMemoryProgress() *memoryProgress {
	return &memoryProgress{values: make(map[string]float64), history: make(map[string][]float64)}
}

func (store *memoryProgress) Set(_ context.Context, comparisonID string, progress float64, _ time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.values[comparisonID] = progress
	store.history[comparisonID] = append(store.history[comparisonID], progress)
	return nil
}

func (store *memoryProgress) Get(_ context.Context, comparisonID string) (float64, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	progress, found := store.values[comparisonID]
	return progress, found, nil
}

func (store *memoryProgress) Delete(_ context.Context, comparisonID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.values, comparisonID)
	return nil
}

func (store *memoryProgress) steps(comparisonID string) []float64 {
	store.mu.Lock()
	defer store.mu.Unlock()

	return append([]float64(nil), store.history[comparisonID]...)
}

// # Fixture

type fixture struct {
	repo     *memoryRepository
	progress *memoryProgress
	blobs    *storage.FileStore
	runner   *comparison.Runner
	service  *comparison.Service
}

func newFixture(t *testing.T, opts ...comparison.RunnerOption) *fixture {
	t.Helper()

	blobs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	repo := newMemoryRepository()
	progress := newMemoryProgress()
	logger := slog.New(slog.DiscardHandler)

	opts = append([]comparison.RunnerOption{
		comparison.WithTick(time.Millisecond),
		comparison.WithSettle(time.Millisecond),
	}, opts...)
	runner := comparison.NewRunner(progress, repo, logger, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Shutdown(ctx)
	})

	service := comparison.NewService(repo, blobs, progress, runner, comparison.Limits{
		MaxVideoBytes: 1 << 16,
		MaxFrameBytes: 1 << 20,
	}, logger)

	return &fixture{repo: repo, progress: progress, blobs: blobs, runner: runner, service: service}
}
