// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package frame decodes, crops, annotates and encodes poster frames.
//
// A poster frame is a still image captured from a video at its native
// resolution. It gives the server something to render when a client asks for
// a selection preview or for the cropped subject.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/taibuivan/motionmaster/internal/region"
)

// Format names an encoded image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

// DefaultQuality is used for lossy JPEG and WebP output.
const DefaultQuality = 85

// Decode refuses images above these bounds before any pixel is allocated.
const (
	MaxDimension = 16384
	MaxPixels    = 40_000_000
)

var (
	// ErrUnsupportedFormat is returned for images that are not PNG, JPEG or WebP.
	ErrUnsupportedFormat = errors.New("frame: unsupported image format")

	// ErrTooLarge is returned for images beyond [MaxDimension] or [MaxPixels].
	ErrTooLarge = errors.New("frame: image dimensions exceed the pixel budget")

	// ErrEmptyCrop is returned when a crop rectangle has no pixels inside the frame.
	ErrEmptyCrop = errors.New("frame: crop rectangle is empty")
)

// ParseFormat maps a query value or MIME type onto a [Format]. An empty value yields PNG.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "png", "image/png":
		return FormatPNG, nil
	case "jpg", "jpeg", "image/jpeg":
		return FormatJPEG, nil
	case "webp", "image/webp":
		return FormatWebP, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

// # Decoding

// Decoded is a decoded frame together with its source format.
type Decoded struct {
	Image  image.Image
	Format Format
}

// Size returns the pixel dimensions of the frame.
func (d Decoded) Size() region.Size {
	bounds := d.Image.Bounds()
	return region.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}
}

// Decode reads a PNG, JPEG or WebP image. The header is checked against
// [MaxDimension] and [MaxPixels] first, since a small compressed file can
// describe a huge bitmap.
func Decode(r io.Reader) (Decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Decoded{}, fmt.Errorf("frame_read_failed: %w", err)
	}

	config, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, ErrUnsupportedFormat
	}

	if !WithinBudget(config.Width, config.Height) {
		return Decoded{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, config.Width, config.Height)
	}

	format, err := ParseFormat(name)
	if err != nil {
		return Decoded{}, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, fmt.Errorf("frame_decode_failed: %w", err)
	}

	return Decoded{Image: img, Format: format}, nil
}

// WithinBudget reports whether a width x height image may be decoded.
func WithinBudget(width, height int) bool {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return false
	}
	return int64(width)*int64(height) <= MaxPixels
}

// # Transformations

// Crop cuts the native-space rectangle out of img. The rectangle is rounded
// outwards to whole pixels and clipped to the image.
func Crop(img image.Image, rect region.Rect) (*image.NRGBA, error) {
	bounds := img.Bounds()
	target := image.Rect(
		bounds.Min.X+int(math.Floor(rect.X)),
		bounds.Min.Y+int(math.Floor(rect.Y)),
		bounds.Min.X+int(math.Ceil(rect.Right())),
		bounds.Min.Y+int(math.Ceil(rect.Bottom())),
	).Intersect(bounds)

	if target.Empty() {
		return nil, ErrEmptyCrop
	}

	return imaging.Crop(img, target), nil
}

// Preview scales img into the display box described by metrics and, when a
// native-space selection is given, draws the selection overlay on top.
func Preview(img image.Image, metrics region.Metrics, selection *region.Rect) *image.NRGBA {
	width := int(math.Round(metrics.Display.Width))
	height := int(math.Round(metrics.Display.Height))

	scaled := imaging.Resize(img, width, height, imaging.Lanczos)
	if selection == nil {
		return scaled
	}

	overlay := region.NewRaster(region.Point{})
	overlay.SetSize(metrics.Display.Width, metrics.Display.Height)
	region.PaintOverlay(overlay, metrics.Display, metrics.ToDisplay(*selection), true)

	draw.Draw(scaled, scaled.Bounds(), overlay.Image(), image.Point{}, draw.Over)
	return scaled
}

// # Encoding

// Encode writes img in the requested format.
func Encode(w io.Writer, img image.Image, format Format) error {
	var err error
	switch format {
	case FormatPNG:
		err = imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed))
	case FormatJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(DefaultQuality))
	case FormatWebP:
		err = webp.Encode(w, img, &webp.Options{Quality: DefaultQuality})
	default:
		return ErrUnsupportedFormat
	}

	if err != nil {
		return fmt.Errorf("frame_encode_failed: %w", err)
	}
	return nil
}

// EncodeBytes is [Encode] into a fresh buffer.
func EncodeBytes(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
