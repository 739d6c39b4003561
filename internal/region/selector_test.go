// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package region_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/motionmaster/internal/region"
)

// newSelector builds a selector over a 1280x720 video fitted into a 320px
// container (display box 320x180, scale factor 4).
func newSelector(t *testing.T, origin region.Point, opts ...region.Option) (*region.Selector, *region.Raster) {
	t.Helper()

	canvas := region.NewRaster(origin)
	source := region.StaticSource{Width: 1280, Height: 720}
	opts = append([]region.Option{region.WithContainerWidth(320)}, opts...)

	selector := region.New(source, canvas, opts...)
	require.NoError(t, selector.Initialize())

	return selector, canvas
}

func drag(selector *region.Selector, from, to region.Point) (region.Rect, bool) {
	selector.BeginDrag(from)
	selector.UpdateDrag(to)
	return selector.EndDrag(to)
}

/*
TestSelector_Initialize verifies metrics and canvas sizing.
*/
func TestSelector_Initialize(t *testing.T) {
	selector, canvas := newSelector(t, region.Point{})

	metrics := selector.Metrics()
	assert.Equal(t, region.Size{Width: 1280, Height: 720}, metrics.Native)
	assert.Equal(t, region.Size{Width: 320, Height: 180}, metrics.Display)
	assert.Equal(t, 4.0, metrics.ScaleX())
	assert.Equal(t, 4.0, metrics.ScaleY())

	bounds := canvas.Image().Bounds()
	assert.Equal(t, 320, bounds.Dx())
	assert.Equal(t, 180, bounds.Dy())
	assert.Equal(t, region.StateIdle, selector.State())
}

/*
TestSelector_NotReady checks that an unknown intrinsic size leaves input unarmed.
*/
func TestSelector_NotReady(t *testing.T) {
	selector := region.New(region.StaticSource{}, region.NewRaster(region.Point{}), region.WithContainerWidth(320))

	err := selector.Initialize()
	require.ErrorIs(t, err, region.ErrNotReady)
	assert.False(t, selector.Ready())

	selector.PointerDown(region.PointerEvent{ClientX: 10, ClientY: 10})
	_, ok := selector.PointerUp(region.PointerEvent{ClientX: 100, ClientY: 100})
	assert.False(t, ok)
	assert.Equal(t, region.StateIdle, selector.State())

	_, err = selector.Confirm()
	assert.ErrorIs(t, err, region.ErrNoSelection)
}

/*
TestSelector_ConcreteScenario drags (40,40) to (200,130) over a 320x180 surface
showing a 1280x720 video.
*/
func TestSelector_ConcreteScenario(t *testing.T) {
	var emitted []region.Rect
	selector, _ := newSelector(t, region.Point{}, region.OnComplete(func(r region.Rect) {
		emitted = append(emitted, r)
	}))

	rect, ok := drag(selector, region.Point{X: 40, Y: 40}, region.Point{X: 200, Y: 130})
	require.True(t, ok)
	assert.Equal(t, region.Rect{X: 40, Y: 40, Width: 160, Height: 90}, rect)
	assert.Equal(t, region.StateSelected, selector.State())

	native, err := selector.Confirm()
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: 160, Y: 160, Width: 640, Height: 360}, native)
	require.Len(t, emitted, 1)
	assert.Equal(t, native, emitted[0])

	// A second confirm of the same selection does not re-emit.
	again, err := selector.Confirm()
	require.NoError(t, err)
	assert.Equal(t, native, again)
	assert.Len(t, emitted, 1)
}

/*
TestSelector_SubThreshold covers drags whose width or height is at most MinExtent.
*/
func TestSelector_SubThreshold(t *testing.T) {
	tests := []struct {
		name     string
		from, to region.Point
	}{
		{"narrow_and_short", region.Point{X: 10, Y: 10}, region.Point{X: 25, Y: 15}},
		{"exactly_threshold_width", region.Point{X: 10, Y: 10}, region.Point{X: 30, Y: 100}},
		{"exactly_threshold_height", region.Point{X: 10, Y: 10}, region.Point{X: 100, Y: 30}},
		{"click", region.Point{X: 50, Y: 50}, region.Point{X: 50, Y: 50}},
		{"reverse_narrow", region.Point{X: 200, Y: 150}, region.Point{X: 185, Y: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector, canvas := newSelector(t, region.Point{})

			rect, ok := drag(selector, tt.from, tt.to)
			assert.False(t, ok)
			assert.Equal(t, region.Rect{}, rect)
			assert.Equal(t, region.StateIdle, selector.State())

			_, stored := selector.Selection()
			assert.False(t, stored)

			_, err := selector.Confirm()
			assert.ErrorIs(t, err, region.ErrNoSelection)

			// The overlay is wiped after a discarded drag.
			assert.Equal(t, uint8(0), canvas.Image().NRGBAAt(5, 5).A)
		})
	}
}

/*
TestSelector_Normalization checks min/abs composition for every drag direction.
*/
func TestSelector_Normalization(t *testing.T) {
	want := region.Rect{X: 50, Y: 30, Width: 100, Height: 60}
	corners := []struct {
		name     string
		from, to region.Point
	}{
		{"down_right", region.Point{X: 50, Y: 30}, region.Point{X: 150, Y: 90}},
		{"up_left", region.Point{X: 150, Y: 90}, region.Point{X: 50, Y: 30}},
		{"down_left", region.Point{X: 150, Y: 30}, region.Point{X: 50, Y: 90}},
		{"up_right", region.Point{X: 50, Y: 90}, region.Point{X: 150, Y: 30}},
	}

	for _, tt := range corners {
		t.Run(tt.name, func(t *testing.T) {
			selector, _ := newSelector(t, region.Point{})
			rect, ok := drag(selector, tt.from, tt.to)
			require.True(t, ok)
			assert.Equal(t, want, rect)
		})
	}
}

/*
TestSelector_Clamping drags the pointer far outside the surface.
*/
func TestSelector_Clamping(t *testing.T) {
	origin := region.Point{X: 100, Y: 50}
	selector, _ := newSelector(t, origin)

	selector.PointerDown(region.PointerEvent{ClientX: 160, ClientY: 90})
	selector.PointerMove(region.PointerEvent{ClientX: 2000, ClientY: 2000})
	rect, ok := selector.PointerUp(region.PointerEvent{ClientX: 5000, ClientY: -300})
	require.True(t, ok)

	assert.Equal(t, region.Rect{X: 60, Y: 0, Width: 260, Height: 40}, rect)
	assert.True(t, rect.Within(region.Size{Width: 320, Height: 180}))

	selector.PointerDown(region.PointerEvent{ClientX: -40, ClientY: -40})
	rect, ok = selector.PointerLeave(region.PointerEvent{ClientX: 900, ClientY: 900})
	require.True(t, ok)
	assert.Equal(t, region.Rect{X: 0, Y: 0, Width: 320, Height: 180}, rect)

	native, err := selector.Confirm()
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: 0, Y: 0, Width: 1280, Height: 720}, native)
}

/*
TestSelector_Reset returns to idle from every state.
*/
func TestSelector_Reset(t *testing.T) {
	selector, canvas := newSelector(t, region.Point{})

	selector.Reset()
	assert.Equal(t, region.StateIdle, selector.State())

	selector.BeginDrag(region.Point{X: 10, Y: 10})
	selector.UpdateDrag(region.Point{X: 100, Y: 100})
	assert.Equal(t, region.StateDragging, selector.State())
	selector.Reset()
	assert.Equal(t, region.StateIdle, selector.State())

	_, ok := drag(selector, region.Point{X: 10, Y: 10}, region.Point{X: 100, Y: 100})
	require.True(t, ok)
	selector.Reset()
	selector.Reset()
	assert.Equal(t, region.StateIdle, selector.State())
	assert.Equal(t, uint8(0), canvas.Image().NRGBAAt(5, 5).A)

	_, err := selector.Confirm()
	assert.ErrorIs(t, err, region.ErrNoSelection)
}

/*
TestSelector_NewDragClearsSelection keeps a single active selection.
*/
func TestSelector_NewDragClearsSelection(t *testing.T) {
	selector, _ := newSelector(t, region.Point{})

	_, ok := drag(selector, region.Point{X: 10, Y: 10}, region.Point{X: 100, Y: 100})
	require.True(t, ok)

	selector.BeginDrag(region.Point{X: 200, Y: 20})
	_, stored := selector.Selection()
	assert.False(t, stored)
	assert.Equal(t, region.StateDragging, selector.State())

	_, ok = selector.EndDrag(region.Point{X: 205, Y: 25})
	assert.False(t, ok)
	assert.Equal(t, region.StateIdle, selector.State())
}

/*
TestSelector_StrayEvents ignores moves and releases without an active drag.
*/
func TestSelector_StrayEvents(t *testing.T) {
	selector, canvas := newSelector(t, region.Point{})

	selector.UpdateDrag(region.Point{X: 100, Y: 100})
	_, ok := selector.EndDrag(region.Point{X: 100, Y: 100})
	assert.False(t, ok)
	assert.Equal(t, region.StateIdle, selector.State())
	assert.Equal(t, uint8(0), canvas.Image().NRGBAAt(5, 5).A)

	prevent := selector.TouchMove(region.TouchEvent{Touches: []region.Touch{{ClientX: 10, ClientY: 10}}})
	assert.False(t, prevent)
}

/*
TestSelector_TouchParity feeds geometrically identical pointer and touch sequences.
*/
func TestSelector_TouchParity(t *testing.T) {
	origin := region.Point{X: 12, Y: 34}
	path := []region.Point{{X: 52, Y: 74}, {X: 120, Y: 100}, {X: 180, Y: 150}, {X: 212, Y: 164}}

	pointer, _ := newSelector(t, origin)
	pointer.PointerDown(region.PointerEvent{ClientX: path[0].X, ClientY: path[0].Y})
	for _, p := range path[1:] {
		pointer.PointerMove(region.PointerEvent{ClientX: p.X, ClientY: p.Y})
	}
	last := path[len(path)-1]
	fromPointer, ok := pointer.PointerUp(region.PointerEvent{ClientX: last.X, ClientY: last.Y})
	require.True(t, ok)

	touch, _ := newSelector(t, origin)
	assert.True(t, touch.TouchStart(region.TouchEvent{Touches: []region.Touch{{ClientX: path[0].X, ClientY: path[0].Y}}}))
	for _, p := range path[1:] {
		assert.True(t, touch.TouchMove(region.TouchEvent{Touches: []region.Touch{{ClientX: p.X, ClientY: p.Y}}}))
	}
	fromTouch, ok, prevent := touch.TouchEnd(region.TouchEvent{})
	require.True(t, ok)
	assert.True(t, prevent)

	assert.Equal(t, fromPointer, fromTouch)
	assert.Equal(t, region.Rect{X: 40, Y: 40, Width: 160, Height: 90}, fromTouch)

	nativePointer, err := pointer.Confirm()
	require.NoError(t, err)
	nativeTouch, err := touch.Confirm()
	require.NoError(t, err)
	assert.Equal(t, nativePointer, nativeTouch)
}

/*
TestSelector_TouchCancel finishes the drag like touchend.
*/
func TestSelector_TouchCancel(t *testing.T) {
	selector, _ := newSelector(t, region.Point{})

	selector.TouchStart(region.TouchEvent{Touches: []region.Touch{{ClientX: 10, ClientY: 10}}})
	selector.TouchMove(region.TouchEvent{Touches: []region.Touch{{ClientX: 90, ClientY: 70}}})
	rect, ok, _ := selector.TouchCancel(region.TouchEvent{ChangedTouches: []region.Touch{{ClientX: 110, ClientY: 80}}})
	require.True(t, ok)
	assert.Equal(t, region.Rect{X: 10, Y: 10, Width: 100, Height: 70}, rect)
}

/*
TestSelector_Resize keeps the native meaning of a stored selection.
*/
func TestSelector_Resize(t *testing.T) {
	selector, canvas := newSelector(t, region.Point{})

	_, ok := drag(selector, region.Point{X: 40, Y: 40}, region.Point{X: 200, Y: 130})
	require.True(t, ok)

	require.NoError(t, selector.Resize(640))
	assert.Equal(t, region.Size{Width: 640, Height: 360}, selector.Metrics().Display)
	assert.Equal(t, 640, canvas.Image().Bounds().Dx())

	rect, stored := selector.Selection()
	require.True(t, stored)
	assert.Equal(t, region.Rect{X: 80, Y: 80, Width: 320, Height: 180}, rect)

	native, err := selector.Confirm()
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: 160, Y: 160, Width: 640, Height: 360}, native)
}

/*
TestSelector_ResizeAbandonsDrag drops an in-flight drag on resize.
*/
func TestSelector_ResizeAbandonsDrag(t *testing.T) {
	selector, _ := newSelector(t, region.Point{})

	selector.BeginDrag(region.Point{X: 10, Y: 10})
	require.NoError(t, selector.Resize(480))
	assert.Equal(t, region.StateIdle, selector.State())

	_, ok := selector.EndDrag(region.Point{X: 200, Y: 200})
	assert.False(t, ok)
}

/*
TestMetrics_RoundTrip checks that native conversion is invertible.
*/
func TestMetrics_RoundTrip(t *testing.T) {
	metrics := region.ComputeMetrics(region.Size{Width: 1920, Height: 1080}, 333, 400)
	display := region.Rect{X: 17.5, Y: 9.25, Width: 121.3, Height: 77.7}

	back := metrics.ToDisplay(metrics.ToNative(display))

	assert.InDelta(t, display.X, back.X, 1e-9)
	assert.InDelta(t, display.Y, back.Y, 1e-9)
	assert.InDelta(t, display.Width, back.Width, 1e-9)
	assert.InDelta(t, display.Height, back.Height, 1e-9)
}

/*
TestFitDisplay covers the width-driven fit and the height cap.
*/
func TestFitDisplay(t *testing.T) {
	tests := []struct {
		name      string
		native    region.Size
		container float64
		maxHeight float64
		want      region.Size
	}{
		{"landscape_fits", region.Size{Width: 1280, Height: 720}, 320, 400, region.Size{Width: 320, Height: 180}},
		{"portrait_capped", region.Size{Width: 720, Height: 1280}, 450, 400, region.Size{Width: 225, Height: 400}},
		{"no_cap", region.Size{Width: 720, Height: 1280}, 450, 0, region.Size{Width: 450, Height: 800}},
		{"unknown_native", region.Size{}, 450, 400, region.Size{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := region.FitDisplay(tt.native, tt.container, tt.maxHeight)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-9)
			if !tt.want.IsZero() {
				assert.InDelta(t, tt.native.Width/tt.native.Height, got.Width/got.Height, 1e-9)
			}
		})
	}
}

/*
TestSelector_Replay dispatches a recorded gesture.
*/
func TestSelector_Replay(t *testing.T) {
	selector, _ := newSelector(t, region.Point{X: 8, Y: 8})

	err := selector.Replay([]region.RecordedEvent{
		{Type: region.EventPointerMove, PointerEvent: region.PointerEvent{ClientX: 30, ClientY: 30}},
		{Type: region.EventPointerDown, PointerEvent: region.PointerEvent{ClientX: 48, ClientY: 48}},
		{Type: region.EventPointerMove, PointerEvent: region.PointerEvent{ClientX: 150, ClientY: 100}},
		{Type: region.EventPointerUp, PointerEvent: region.PointerEvent{ClientX: 208, ClientY: 138}},
	})
	require.NoError(t, err)

	native, err := selector.Confirm()
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: 160, Y: 160, Width: 640, Height: 360}, native)

	err = selector.Replay([]region.RecordedEvent{{Type: "wheel"}})
	assert.ErrorIs(t, err, region.ErrUnknownEvent)
}

/*
TestReplayGesture replays a decoded gesture against a fresh selector.
*/
func TestReplayGesture(t *testing.T) {
	var recording region.GestureRecording
	require.NoError(t, json.Unmarshal([]byte(`{
		"container_width": 320,
		"surface": {"left": 8, "top": 8},
		"events": [
			{"type": "touchstart", "touches": [{"client_x": 48, "client_y": 48}]},
			{"type": "touchmove", "touches": [{"client_x": 120, "client_y": 90}]},
			{"type": "touchend", "changed_touches": [{"client_x": 208, "client_y": 138}]}
		]
	}`), &recording))

	source := region.StaticSource{Width: 1280, Height: 720}

	native, err := region.ReplayGesture(source, recording, region.DefaultMaxDisplayHeight)
	require.NoError(t, err)
	assert.Equal(t, region.Rect{X: 160, Y: 160, Width: 640, Height: 360}, native)

	recording.Events = recording.Events[:1]
	_, err = region.ReplayGesture(source, recording, region.DefaultMaxDisplayHeight)
	assert.ErrorIs(t, err, region.ErrNoSelection)

	_, err = region.ReplayGesture(region.StaticSource{}, recording, region.DefaultMaxDisplayHeight)
	assert.ErrorIs(t, err, region.ErrNotReady)
}

/*
TestSelector_RandomDragsStayInBounds sweeps a grid of drags, inside and outside the surface.
*/
func TestSelector_RandomDragsStayInBounds(t *testing.T) {
	surface := region.Size{Width: 320, Height: 180}
	native := region.Size{Width: 1280, Height: 720}
	coords := []float64{-500, -1, 0, 15, 90, 179.5, 250, 320, 321, 4000}

	for _, x0 := range coords {
		for _, y1 := range coords {
			selector, _ := newSelector(t, region.Point{})
			selector.PointerDown(region.PointerEvent{ClientX: x0, ClientY: 90})
			rect, ok := selector.PointerUp(region.PointerEvent{ClientX: 160, ClientY: y1})
			if !ok {
				continue
			}
			assert.True(t, rect.Within(surface), "display rect %+v out of bounds", rect)
			assert.Greater(t, rect.Width, float64(region.MinExtent))
			assert.Greater(t, rect.Height, float64(region.MinExtent))

			nativeRect, err := selector.Confirm()
			require.NoError(t, err)
			assert.True(t, nativeRect.Within(native))
			assert.False(t, math.IsNaN(nativeRect.X))
		}
	}
}

/*
TestReplayGesture_HugeDeclaredSize replays over an extreme aspect ratio without
rendering pixels.
*/
func TestReplayGesture_HugeDeclaredSize(t *testing.T) {
	recording := region.GestureRecording{
		Events: []region.RecordedEvent{{Type: "pointerdown", PointerEvent: region.PointerEvent{ClientX: 10, ClientY: 0}}},
	}

	_, err := region.ReplayGesture(region.StaticSource{Width: math.MaxInt32, Height: 1}, recording, region.DefaultMaxDisplayHeight)
	assert.ErrorIs(t, err, region.ErrNoSelection)
}

/*
TestSurface_TracksGeometryOnly checks the allocation-free canvas used by replay.
*/
func TestSurface_TracksGeometryOnly(t *testing.T) {
	surface := region.NewSurface(region.Point{X: 4, Y: 6})
	selector := region.New(region.StaticSource{Width: 1280, Height: 720}, surface, region.WithContainerWidth(320))
	require.NoError(t, selector.Initialize())

	assert.Equal(t, region.Size{Width: 320, Height: 180}, surface.Size())
	assert.Equal(t, region.Point{X: 4, Y: 6}, surface.Origin())

	rect, ok := drag(selector, region.Point{X: 40, Y: 40}, region.Point{X: 200, Y: 130})
	require.True(t, ok)
	assert.Equal(t, region.Rect{X: 40, Y: 40, Width: 160, Height: 90}, rect)
}
