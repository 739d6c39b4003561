// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package region

// # Input Events

// Event is the modality-independent input shape the selector consumes.
// Coordinates are relative to the canvas origin.
type Event struct {
	SurfaceX float64
	SurfaceY float64
}

// Point returns the event position as a [Point].
func (e Event) Point() Point { return Point{X: e.SurfaceX, Y: e.SurfaceY} }

// PointerEvent is a mouse/pointer event in viewport coordinates.
type PointerEvent struct {
	ClientX float64 `json:"client_x"`
	ClientY float64 `json:"client_y"`
}

// Touch is a single contact point in viewport coordinates.
type Touch struct {
	ClientX float64 `json:"client_x"`
	ClientY float64 `json:"client_y"`
}

// TouchEvent carries the active touches and the ones that changed with this event.
type TouchEvent struct {
	Touches        []Touch `json:"touches"`
	ChangedTouches []Touch `json:"changed_touches"`
}

// normalize converts viewport coordinates into clamped surface coordinates.
func (selector *Selector) normalize(clientX, clientY float64) Event {
	origin := selector.canvas.Origin()
	return Event{
		SurfaceX: clamp(clientX-origin.X, 0, selector.metrics.Display.Width),
		SurfaceY: clamp(clientY-origin.Y, 0, selector.metrics.Display.Height),
	}
}

// # Pointer Handlers

// PointerDown starts a drag at the pointer position.
func (selector *Selector) PointerDown(ev PointerEvent) {
	if !selector.armed() {
		return
	}
	selector.BeginDrag(selector.normalize(ev.ClientX, ev.ClientY).Point())
}

// PointerMove updates the active drag, if any.
func (selector *Selector) PointerMove(ev PointerEvent) {
	if !selector.armed() {
		return
	}
	selector.UpdateDrag(selector.normalize(ev.ClientX, ev.ClientY).Point())
}

// PointerUp finishes the active drag, if any.
func (selector *Selector) PointerUp(ev PointerEvent) (Rect, bool) {
	if !selector.armed() {
		return Rect{}, false
	}
	return selector.EndDrag(selector.normalize(ev.ClientX, ev.ClientY).Point())
}

// PointerLeave is treated exactly like [Selector.PointerUp].
func (selector *Selector) PointerLeave(ev PointerEvent) (Rect, bool) {
	return selector.PointerUp(ev)
}

// # Touch Handlers
//
// Each handler reports whether the platform's default gesture (scroll, zoom)
// must be suppressed, which is the case while a drag is active.

// TouchStart starts a drag at the first touch point.
func (selector *Selector) TouchStart(ev TouchEvent) bool {
	if !selector.armed() || len(ev.Touches) == 0 {
		return false
	}

	touch := ev.Touches[0]
	point := selector.normalize(touch.ClientX, touch.ClientY).Point()
	selector.lastTouch = point
	selector.BeginDrag(point)

	return true
}

// TouchMove updates the drag from the first active touch point.
func (selector *Selector) TouchMove(ev TouchEvent) bool {
	if !selector.armed() || selector.state != StateDragging {
		return false
	}

	if len(ev.Touches) > 0 {
		touch := ev.Touches[0]
		selector.lastTouch = selector.normalize(touch.ClientX, touch.ClientY).Point()
	}
	selector.UpdateDrag(selector.lastTouch)

	return true
}

// TouchEnd finishes the drag at the last known touch point.
func (selector *Selector) TouchEnd(ev TouchEvent) (Rect, bool, bool) {
	if !selector.armed() || selector.state != StateDragging {
		return Rect{}, false, false
	}

	if len(ev.ChangedTouches) > 0 {
		touch := ev.ChangedTouches[0]
		selector.lastTouch = selector.normalize(touch.ClientX, touch.ClientY).Point()
	}

	rect, ok := selector.EndDrag(selector.lastTouch)
	return rect, ok, true
}

// TouchCancel is treated exactly like [Selector.TouchEnd].
func (selector *Selector) TouchCancel(ev TouchEvent) (Rect, bool, bool) {
	return selector.TouchEnd(ev)
}
