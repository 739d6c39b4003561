// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package region implements the region-of-interest selector used to mark the
subject inside a video frame.

A [Selector] owns one drawing [Canvas] laid over a rendered video. The user
drags a rectangle in display space; the selector keeps the drag state, paints
the cutout overlay and, once confirmed, reports the rectangle in the video's
native pixel space.

Architecture:

  - Metrics: one recompute operation, triggered by metadata-ready and resize.
  - Input: pointer and touch events collapse into a single [Event] shape.
  - Output: a completion callback invoked with a native-space [Rect].

A Selector is not safe for concurrent use. Each drawing surface owns its own.
*/
package region

import "math"

// # Geometry

// Point is a position in display (surface) space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether either extent is non-positive.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within reports whether the rectangle lies inside [0, bounds.Width] x [0, bounds.Height].
func (r Rect) Within(bounds Size) bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= bounds.Width && r.Bottom() <= bounds.Height
}

// Scale multiplies every coordinate by the per-axis factors.
func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{X: r.X * sx, Y: r.Y * sy, Width: r.Width * sx, Height: r.Height * sy}
}

// Clamp trims the rectangle so that it fits inside bounds.
func (r Rect) Clamp(bounds Size) Rect {
	x0 := clamp(r.X, 0, bounds.Width)
	y0 := clamp(r.Y, 0, bounds.Height)
	x1 := clamp(r.Right(), 0, bounds.Width)
	y1 := clamp(r.Bottom(), 0, bounds.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// RectFromPoints builds the rectangle spanned by two opposite corners.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
