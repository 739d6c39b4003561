// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package region

import "errors"

// MinExtent is the display-space size a drag must exceed on both axes to
// register as a selection.
const MinExtent = 20

var (
	// ErrNoSelection is returned by [Selector.Confirm] when no rectangle is stored.
	ErrNoSelection = errors.New("region: no selection")

	// ErrNotReady is returned when the video's intrinsic size is not known yet.
	ErrNotReady = errors.New("region: video dimensions not available")
)

// # Contracts

// VideoSource is the explicit handle to the video a selector is drawn over.
type VideoSource interface {
	// IntrinsicSize returns the decode resolution, or a zero size while the
	// media metadata has not loaded.
	IntrinsicSize() Size
}

// StaticSource is a [VideoSource] whose dimensions are already known.
type StaticSource Size

// IntrinsicSize implements [VideoSource].
func (s StaticSource) IntrinsicSize() Size { return Size(s) }

// State is the selector's interaction state.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateSelected
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateSelected:
		return "selected"
	default:
		return "idle"
	}
}

// # Selector

// Selector captures one user-drawn rectangle over a video frame.
type Selector struct {
	source           VideoSource
	canvas           Canvas
	containerWidth   float64
	maxDisplayHeight float64
	onComplete       func(Rect)

	metrics Metrics
	ready   bool

	state     State
	anchor    Point
	current   Point
	lastTouch Point
	selection *Rect
	confirmed bool
}

// Option customises a [Selector].
type Option func(*Selector)

// WithContainerWidth sets the width of the box the video is fitted into.
// Without it the video is rendered at its native width.
func WithContainerWidth(width float64) Option {
	return func(s *Selector) { s.containerWidth = width }
}

// WithMaxDisplayHeight overrides [DefaultMaxDisplayHeight].
func WithMaxDisplayHeight(height float64) Option {
	return func(s *Selector) { s.maxDisplayHeight = height }
}

// OnComplete registers the callback invoked once per confirmed selection.
func OnComplete(fn func(Rect)) Option {
	return func(s *Selector) { s.onComplete = fn }
}

// New creates a selector for source, drawing on canvas.
//
// The selector stays unarmed until [Selector.Initialize] succeeds.
func New(source VideoSource, canvas Canvas, opts ...Option) *Selector {
	selector := &Selector{
		source:           source,
		canvas:           canvas,
		maxDisplayHeight: DefaultMaxDisplayHeight,
	}
	for _, opt := range opts {
		opt(selector)
	}
	return selector
}

// # Metrics Triggers

// Initialize computes the display metrics once the video metadata is loaded
// and sizes the canvas to the display box.
//
// It returns [ErrNotReady] while the intrinsic size is unknown; the caller
// retries when the media signals readiness.
func (selector *Selector) Initialize() error {
	return selector.recomputeMetrics()
}

// Resize records a new container width and recomputes the metrics.
//
// A stored selection keeps its native meaning and is rescaled into the new
// display box. An in-flight drag is abandoned.
func (selector *Selector) Resize(containerWidth float64) error {
	selector.containerWidth = containerWidth
	return selector.recomputeMetrics()
}

func (selector *Selector) recomputeMetrics() error {
	native := selector.source.IntrinsicSize()

	width := selector.containerWidth
	if width <= 0 {
		width = native.Width
	}

	next := ComputeMetrics(native, width, selector.maxDisplayHeight)
	if !next.Valid() {
		selector.disarm()
		return ErrNotReady
	}

	var keep *Rect
	if selector.selection != nil && selector.ready {
		rescaled := next.ToDisplay(selector.metrics.ToNative(*selector.selection))
		keep = &rescaled
	}

	selector.metrics = next
	selector.ready = true
	selector.canvas.SetSize(next.Display.Width, next.Display.Height)

	selector.selection = keep
	if keep != nil {
		selector.state = StateSelected
		selector.paint(*keep, true)
	} else {
		selector.state = StateIdle
	}

	return nil
}

// # Drag Lifecycle

// BeginDrag anchors a new drag at p and discards any stored selection.
func (selector *Selector) BeginDrag(p Point) {
	if !selector.armed() {
		return
	}

	p = selector.clampPoint(p)
	selector.clearSelection()
	selector.anchor = p
	selector.current = p
	selector.state = StateDragging
}

// UpdateDrag moves the free corner of the active drag and redraws the overlay.
func (selector *Selector) UpdateDrag(p Point) {
	if selector.state != StateDragging {
		return
	}

	selector.current = selector.clampPoint(p)
	selector.paint(RectFromPoints(selector.anchor, selector.current), false)
}

// EndDrag finalises the active drag.
//
// The resulting display-space rectangle is stored and returned when both
// extents exceed [MinExtent]; otherwise it is discarded and the selector
// returns to idle.
func (selector *Selector) EndDrag(p Point) (Rect, bool) {
	if selector.state != StateDragging {
		return Rect{}, false
	}

	selector.current = selector.clampPoint(p)
	candidate := RectFromPoints(selector.anchor, selector.current)

	if candidate.Width <= MinExtent || candidate.Height <= MinExtent {
		selector.state = StateIdle
		selector.canvas.ClearRect(selector.surface())
		return Rect{}, false
	}

	selector.selection = &candidate
	selector.confirmed = false
	selector.state = StateSelected
	selector.paint(candidate, true)

	return candidate, true
}

// Reset clears the stored selection, any active drag and the overlay.
func (selector *Selector) Reset() {
	selector.clearSelection()
	selector.state = StateIdle
}

// Confirm converts the stored selection into native pixel space and emits it.
//
// The completion callback fires once per selection; confirming the same
// selection again returns the rectangle without re-emitting it.
func (selector *Selector) Confirm() (Rect, error) {
	if selector.state != StateSelected || selector.selection == nil {
		return Rect{}, ErrNoSelection
	}

	native := selector.metrics.ToNative(*selector.selection)
	if !selector.confirmed {
		selector.confirmed = true
		if selector.onComplete != nil {
			selector.onComplete(native)
		}
	}

	return native, nil
}

// # Accessors

// State returns the current interaction state.
func (selector *Selector) State() State { return selector.state }

// Ready reports whether the metrics are known and input is armed.
func (selector *Selector) Ready() bool { return selector.ready }

// Metrics returns the last computed metrics.
func (selector *Selector) Metrics() Metrics { return selector.metrics }

// Selection returns the stored display-space rectangle.
func (selector *Selector) Selection() (Rect, bool) {
	if selector.selection == nil {
		return Rect{}, false
	}
	return *selector.selection, true
}

// # Internals

func (selector *Selector) armed() bool { return selector.ready }

// disarm drops all interaction state; stored rectangles are meaningless
// without metrics.
func (selector *Selector) disarm() {
	selector.ready = false
	selector.selection = nil
	selector.confirmed = false
	selector.state = StateIdle
}

func (selector *Selector) surface() Rect {
	return Rect{Width: selector.metrics.Display.Width, Height: selector.metrics.Display.Height}
}

func (selector *Selector) clampPoint(p Point) Point {
	return Point{
		X: clamp(p.X, 0, selector.metrics.Display.Width),
		Y: clamp(p.Y, 0, selector.metrics.Display.Height),
	}
}

func (selector *Selector) clearSelection() {
	selector.selection = nil
	selector.confirmed = false
	if selector.ready {
		selector.canvas.ClearRect(selector.surface())
	}
}

func (selector *Selector) paint(cutout Rect, handles bool) {
	PaintOverlay(selector.canvas, selector.metrics.Display, cutout, handles)
}
