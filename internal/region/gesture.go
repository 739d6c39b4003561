// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package region

import (
	"errors"
	"fmt"
)

// EventType names a recorded input event.
type EventType string

const (
	EventPointerDown  EventType = "pointerdown"
	EventPointerMove  EventType = "pointermove"
	EventPointerUp    EventType = "pointerup"
	EventPointerLeave EventType = "pointerleave"
	EventTouchStart   EventType = "touchstart"
	EventTouchMove    EventType = "touchmove"
	EventTouchEnd     EventType = "touchend"
	EventTouchCancel  EventType = "touchcancel"
)

// ErrUnknownEvent is returned by [Selector.Replay] for unrecognised event types.
var ErrUnknownEvent = errors.New("region: unknown event type")

// RecordedEvent is one input event captured by a client, in the order it
// was delivered to the drawing surface.
type RecordedEvent struct {
	Type EventType `json:"type"`
	PointerEvent
	TouchEvent
}

// Replay feeds a recorded event stream through the selector.
//
// Unknown event types abort the replay with an error; events the state
// machine does not expect are ignored as they would be live.
func (selector *Selector) Replay(events []RecordedEvent) error {
	for i, ev := range events {
		switch ev.Type {
		case EventPointerDown:
			selector.PointerDown(ev.PointerEvent)
		case EventPointerMove:
			selector.PointerMove(ev.PointerEvent)
		case EventPointerUp:
			selector.PointerUp(ev.PointerEvent)
		case EventPointerLeave:
			selector.PointerLeave(ev.PointerEvent)
		case EventTouchStart:
			selector.TouchStart(ev.TouchEvent)
		case EventTouchMove:
			selector.TouchMove(ev.TouchEvent)
		case EventTouchEnd:
			selector.TouchEnd(ev.TouchEvent)
		case EventTouchCancel:
			selector.TouchCancel(ev.TouchEvent)
		default:
			return fmt.Errorf("%w: event %d has type %q", ErrUnknownEvent, i, ev.Type)
		}
	}
	return nil
}

// # Gesture Recordings

// SurfaceOrigin is the viewport position of the drawing surface at recording time.
type SurfaceOrigin struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// GestureRecording is a selection gesture captured by a client together with
// the layout it was drawn in.
type GestureRecording struct {
	ContainerWidth float64         `json:"container_width"`
	Surface        SurfaceOrigin   `json:"surface"`
	Events         []RecordedEvent `json:"events"`
}

// ReplayGesture runs rec through a fresh selector over source and confirms
// the result. It returns the native-space rectangle, [ErrNotReady] when the
// source has no intrinsic size, or [ErrNoSelection] when the gesture did not
// produce a selection above [MinExtent].
func ReplayGesture(source VideoSource, rec GestureRecording, maxDisplayHeight float64) (Rect, error) {
	selector := New(source, NewSurface(Point{X: rec.Surface.Left, Y: rec.Surface.Top}),
		WithContainerWidth(rec.ContainerWidth),
		WithMaxDisplayHeight(maxDisplayHeight),
	)

	if err := selector.Initialize(); err != nil {
		return Rect{}, err
	}

	if err := selector.Replay(rec.Events); err != nil {
		return Rect{}, err
	}

	return selector.Confirm()
}
