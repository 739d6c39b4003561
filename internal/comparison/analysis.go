// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comparison

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// # Simulated Scoring

const (
	// DefaultTick is the interval between progress steps.
	DefaultTick = 200 * time.Millisecond

	// DefaultSettle is the pause between reaching 100% and publishing the result.
	DefaultSettle = time.Second

	// progressTTL bounds how long a snapshot outlives a crashed runner.
	progressTTL = 10 * time.Minute

	// cleanupTimeout bounds store calls made after a run has finished.
	cleanupTimeout = 5 * time.Second
)

const analysisFeedback = "Your technique shows good alignment in the upper body, but there's room for " +
	"improvement in your lower body positioning. The timing of your movement follows the reference well " +
	"in the initial phase but deviates slightly in the final position. Focus on maintaining proper form " +
	"throughout the entire movement for better results."

var analysisTips = []string{
	"Focus on keeping your knees aligned with your toes during the movement",
	"Maintain a neutral spine position throughout the entire motion",
	"Practice the timing of the transition phase to match the reference",
}

// ErrRunnerClosed is returned by [Runner.Start] after [Runner.Shutdown].
var ErrRunnerClosed = errors.New("comparison: analysis runner is shut down")

// NextProgress returns the progress after one tick. Early steps are larger,
// and the result never exceeds 100.
func NextProgress(progress float64) float64 {
	var step float64
	switch {
	case progress < 30:
		step = 3
	case progress < 60:
		step = 1.5
	case progress < 90:
		step = 0.8
	default:
		step = 0.5
	}
	return min(progress+step, 100)
}

// # Runner

// RunnerOption configures a [Runner].
type RunnerOption func(*Runner)

// WithTick overrides the progress interval.
func WithTick(d time.Duration) RunnerOption {
	return func(runner *Runner) {
		if d > 0 {
			runner.tick = d
		}
	}
}

// WithSettle overrides the pause before the result is published.
func WithSettle(d time.Duration) RunnerOption {
	return func(runner *Runner) {
		if d >= 0 {
			runner.settle = d
		}
	}
}

// WithRandom makes the scores deterministic.
func WithRandom(source rand.Source) RunnerOption {
	return func(runner *Runner) {
		runner.random = rand.New(source)
	}
}

type run struct {
	cancel context.CancelFunc
}

// Runner executes at most one analysis per comparison in the background.
//
// Progress goes to a [ProgressStore] every tick; the finished [Analysis] goes
// to a [ResultStore]. Runs outlive the request that started them and stop on
// [Runner.Cancel] or [Runner.Shutdown].
type Runner struct {
	progress ProgressStore
	results  ResultStore
	logger   *slog.Logger

	tick   time.Duration
	settle time.Duration

	randomMu sync.Mutex
	random   *rand.Rand

	base context.Context
	stop context.CancelFunc

	mu   sync.Mutex
	runs map[string]*run
	wg   sync.WaitGroup
}

// NewRunner creates a runner. Call [Runner.Shutdown] to stop it.
func NewRunner(progress ProgressStore, results ResultStore, logger *slog.Logger, opts ...RunnerOption) *Runner {
	base, stop := context.WithCancel(context.Background())

	runner := &Runner{
		progress: progress,
		results:  results,
		logger:   logger,
		tick:     DefaultTick,
		settle:   DefaultSettle,
		random:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d6f74696f6e)),
		base:     base,
		stop:     stop,
		runs:     make(map[string]*run),
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Start launches an analysis of comparisonID. It returns [ErrRunning] when one
// is already in progress.
func (runner *Runner) Start(comparisonID string) error {
	runner.mu.Lock()
	defer runner.mu.Unlock()

	if runner.base.Err() != nil {
		return ErrRunnerClosed
	}

	if _, found := runner.runs[comparisonID]; found {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(runner.base)
	current := &run{cancel: cancel}
	runner.runs[comparisonID] = current

	runner.wg.Add(1)
	go func() {
		defer runner.wg.Done()
		defer runner.finish(comparisonID, current)

		runner.execute(ctx, comparisonID)
	}()

	return nil
}

// Running reports whether an analysis of comparisonID is in progress.
func (runner *Runner) Running(comparisonID string) bool {
	runner.mu.Lock()
	defer runner.mu.Unlock()

	_, found := runner.runs[comparisonID]
	return found
}

// Cancel stops the analysis of comparisonID, if any. It does not wait for the
// goroutine to exit.
func (runner *Runner) Cancel(comparisonID string) {
	runner.mu.Lock()
	defer runner.mu.Unlock()

	if current, found := runner.runs[comparisonID]; found {
		current.cancel()
		delete(runner.runs, comparisonID)
	}
}

// Shutdown cancels every run and waits for them to exit or for ctx to expire.
func (runner *Runner) Shutdown(ctx context.Context) error {
	runner.mu.Lock()
	runner.stop()
	runner.mu.Unlock()

	done := make(chan struct{})
	go func() {
		runner.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (runner *Runner) finish(comparisonID string, current *run) {
	current.cancel()

	runner.mu.Lock()
	defer runner.mu.Unlock()

	// A cancelled run may already have been replaced by a new one.
	if runner.runs[comparisonID] == current {
		delete(runner.runs, comparisonID)
	}
}

func (runner *Runner) execute(ctx context.Context, comparisonID string) {
	logger := runner.logger.With(slog.String("comparison_id", comparisonID))
	logger.InfoContext(ctx, "analysis_started")

	progress := 0.0
	runner.record(ctx, logger, comparisonID, progress)

	ticker := time.NewTicker(runner.tick)
	defer ticker.Stop()

	// 1. Advance until a tick observes completion
	for progress < 100 {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "analysis_cancelled", slog.Float64("progress", progress))
			return
		case <-ticker.C:
			progress = NextProgress(progress)
			runner.record(ctx, logger, comparisonID, progress)
		}
	}

	select {
	case <-ctx.Done():
		logger.InfoContext(ctx, "analysis_cancelled", slog.Float64("progress", progress))
		return
	case <-ticker.C:
	}

	// 2. Settle before publishing
	settle := time.NewTimer(runner.settle)
	defer settle.Stop()

	select {
	case <-ctx.Done():
		logger.InfoContext(ctx, "analysis_cancelled", slog.Float64("progress", progress))
		return
	case <-settle.C:
	}

	// 3. Persist the result
	result := runner.score(comparisonID)
	if err := runner.results.SaveAnalysis(ctx, result); err != nil {
		logger.ErrorContext(ctx, "analysis_save_failed", slog.Any("error", err))
		return
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := runner.progress.Delete(cleanupCtx, comparisonID); err != nil {
		logger.WarnContext(ctx, "analysis_progress_cleanup_failed", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "analysis_completed", slog.Int("overall", result.Overall))
}

func (runner *Runner) record(ctx context.Context, logger *slog.Logger, comparisonID string, progress float64) {
	if err := runner.progress.Set(ctx, comparisonID, progress, progressTTL); err != nil && ctx.Err() == nil {
		logger.WarnContext(ctx, "analysis_progress_write_failed", slog.Any("error", err))
	}
}

func (runner *Runner) score(comparisonID string) *Analysis {
	runner.randomMu.Lock()
	defer runner.randomMu.Unlock()

	return &Analysis{
		ComparisonID: comparisonID,
		Alignment:    75 + runner.random.IntN(15),
		Timing:       70 + runner.random.IntN(20),
		Overall:      75 + runner.random.IntN(15),
		Feedback:     analysisFeedback,
		Tips:         append([]string(nil), analysisTips...),
		CompletedAt:  time.Now().UTC(),
	}
}
