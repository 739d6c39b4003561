// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package region

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// # Drawing Surface

// Canvas is the drawing surface laid over the rendered video.
//
// Coordinates passed to the drawing primitives are in surface space, which is
// identical to display space once [Canvas.SetSize] has been called with the
// display box.
type Canvas interface {
	// SetSize resizes the surface. Existing content is discarded.
	SetSize(width, height float64)

	// Origin is the viewport position of the surface's top-left corner.
	Origin() Point

	ClearRect(r Rect)
	FillRect(r Rect, c color.Color)
	StrokeRect(r Rect, c color.Color, lineWidth float64)
}

// Overlay styling.
var (
	MaskColor   = color.NRGBA{R: 0, G: 0, B: 0, A: 128}
	BorderColor = color.NRGBA{R: 59, G: 130, B: 246, A: 255}
	HandleColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	borderWidth = 2
	handleSize  = 8
)

// # Raster Canvas

// Raster is an in-memory [Canvas] backed by an NRGBA image.
type Raster struct {
	origin Point
	img    *image.NRGBA
}

// NewRaster creates an empty raster positioned at origin in the viewport.
func NewRaster(origin Point) *Raster {
	return &Raster{origin: origin, img: imaging.New(0, 0, color.Transparent)}
}

// SetSize implements [Canvas].
func (raster *Raster) SetSize(width, height float64) {
	raster.img = imaging.New(int(math.Round(width)), int(math.Round(height)), color.Transparent)
}

// Origin implements [Canvas].
func (raster *Raster) Origin() Point { return raster.origin }

// ClearRect implements [Canvas].
func (raster *Raster) ClearRect(r Rect) {
	draw.Draw(raster.img, raster.bounds(r), image.Transparent, image.Point{}, draw.Src)
}

// FillRect implements [Canvas].
func (raster *Raster) FillRect(r Rect, c color.Color) {
	draw.Draw(raster.img, raster.bounds(r), image.NewUniform(c), image.Point{}, draw.Over)
}

// StrokeRect implements [Canvas]. The stroke is centred on the rectangle edge.
func (raster *Raster) StrokeRect(r Rect, c color.Color, lineWidth float64) {
	half := lineWidth / 2
	edges := []Rect{
		{X: r.X - half, Y: r.Y - half, Width: r.Width + lineWidth, Height: lineWidth},
		{X: r.X - half, Y: r.Bottom() - half, Width: r.Width + lineWidth, Height: lineWidth},
		{X: r.X - half, Y: r.Y + half, Width: lineWidth, Height: r.Height - lineWidth},
		{X: r.Right() - half, Y: r.Y + half, Width: lineWidth, Height: r.Height - lineWidth},
	}

	src := image.NewUniform(c)
	for _, edge := range edges {
		draw.Draw(raster.img, raster.bounds(edge), src, image.Point{}, draw.Src)
	}
}

// Image returns the backing image. It is replaced on every [Raster.SetSize].
func (raster *Raster) Image() *image.NRGBA { return raster.img }

func (raster *Raster) bounds(r Rect) image.Rectangle {
	rect := image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.Right())),
		int(math.Ceil(r.Bottom())),
	)
	return rect.Intersect(raster.img.Bounds())
}

// # Geometry Surface

// Surface is a [Canvas] that only tracks its origin and size. Server-side
// replay needs the coordinate mapping but never the pixels, so a declared
// video size cannot turn into an allocation.
type Surface struct {
	origin Point
	size   Size
}

// NewSurface positions an empty surface at origin in the viewport.
func NewSurface(origin Point) *Surface {
	return &Surface{origin: origin}
}

func (surface *Surface) SetSize(width, height float64) {
	surface.size = Size{Width: width, Height: height}
}

func (surface *Surface) Origin() Point { return surface.origin }

// Size is the last size given to [Surface.SetSize].
func (surface *Surface) Size() Size { return surface.size }

func (surface *Surface) ClearRect(Rect) {}
func (surface *Surface) FillRect(Rect, color.Color) {}
func (surface *Surface) StrokeRect(Rect, color.Color, float64) {}

// PaintOverlay draws the dimming mask over a display box of the given size,
// clears the cutout, strokes its border and, when handles is set, marks the
// four corners.
func PaintOverlay(canvas Canvas, display Size, cutout Rect, handles bool) {
	surface := Rect{Width: display.Width, Height: display.Height}

	canvas.ClearRect(surface)
	canvas.FillRect(surface, MaskColor)
	canvas.ClearRect(cutout)
	canvas.StrokeRect(cutout, BorderColor, borderWidth)

	if !handles {
		return
	}

	half := float64(handleSize) / 2
	corners := []Point{
		{X: cutout.X, Y: cutout.Y},
		{X: cutout.Right(), Y: cutout.Y},
		{X: cutout.X, Y: cutout.Bottom()},
		{X: cutout.Right(), Y: cutout.Bottom()},
	}
	for _, corner := range corners {
		canvas.FillRect(Rect{X: corner.X - half, Y: corner.Y - half, Width: handleSize, Height: handleSize}, HandleColor)
	}
}
