// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package region

// DefaultMaxDisplayHeight caps the rendered video height inside its container.
const DefaultMaxDisplayHeight = 400

// Metrics relates the intrinsic decode size of a video to the size it is
// rendered at.
type Metrics struct {
	Native  Size `json:"native"`
	Display Size `json:"display"`
}

// FitDisplay computes the aspect-preserving render box of a native frame
// inside a container of the given width, capped at maxHeight.
//
// A non-positive maxHeight disables the cap.
func FitDisplay(native Size, containerWidth, maxHeight float64) Size {
	if native.IsZero() || containerWidth <= 0 {
		return Size{}
	}

	aspect := native.Width / native.Height
	width := containerWidth
	height := width / aspect

	if maxHeight > 0 && height > maxHeight {
		height = maxHeight
		width = height * aspect
	}

	return Size{Width: width, Height: height}
}

// ComputeMetrics derives the metrics for a native frame rendered into a container.
func ComputeMetrics(native Size, containerWidth, maxHeight float64) Metrics {
	return Metrics{Native: native, Display: FitDisplay(native, containerWidth, maxHeight)}
}

// Valid reports whether both boxes have a usable area.
func (m Metrics) Valid() bool {
	return !m.Native.IsZero() && !m.Display.IsZero()
}

// ScaleX is the horizontal display-to-native factor.
func (m Metrics) ScaleX() float64 { return m.Native.Width / m.Display.Width }

// ScaleY is the vertical display-to-native factor.
func (m Metrics) ScaleY() float64 { return m.Native.Height / m.Display.Height }

// ToNative converts a display-space rectangle into native pixel space.
func (m Metrics) ToNative(r Rect) Rect {
	return r.Scale(m.ScaleX(), m.ScaleY()).Clamp(m.Native)
}

// ToDisplay converts a native-space rectangle back into display space.
func (m Metrics) ToDisplay(r Rect) Rect {
	return r.Scale(1/m.ScaleX(), 1/m.ScaleY()).Clamp(m.Display)
}
