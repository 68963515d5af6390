// Package imaging rotates and resizes encoded photos.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var (
	ErrUnsupportedAngle = errors.New("rotation must be a multiple of 90 degrees")
	ErrInvalidSize      = errors.New("invalid target size")
)

// Processor implements record.ImageProcessor.
type Processor struct {
	// JPEGQuality is used when re-encoding JPEG output. Zero means 90.
	JPEGQuality int
}

// New returns a Processor with default settings.
func New() *Processor {
	return &Processor{JPEGQuality: 90}
}

// Rotate turns the image clockwise by degrees, which must be a multiple of 90.
func (p *Processor) Rotate(data []byte, contentType string, degrees int) ([]byte, error) {
	deg := ((degrees % 360) + 360) % 360
	if deg%90 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedAngle, degrees)
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if deg == 0 {
		return data, nil
	}

	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	var (
		s2d  f64.Aff3
		dstR image.Rectangle
	)
	switch deg {
	case 90:
		s2d = f64.Aff3{0, -1, h, 1, 0, 0}
		dstR = image.Rect(0, 0, b.Dy(), b.Dx())
	case 180:
		s2d = f64.Aff3{-1, 0, w, 0, -1, h}
		dstR = image.Rect(0, 0, b.Dx(), b.Dy())
	case 270:
		s2d = f64.Aff3{0, 1, 0, -1, 0, w}
		dstR = image.Rect(0, 0, b.Dy(), b.Dx())
	}
	// Transform works on src coordinates relative to the origin.
	s2d[2] -= s2d[0]*float64(b.Min.X) + s2d[1]*float64(b.Min.Y)
	s2d[5] -= s2d[3]*float64(b.Min.X) + s2d[4]*float64(b.Min.Y)

	dst := image.NewRGBA(dstR)
	draw.NearestNeighbor.Transform(dst, s2d, src, b, draw.Src, nil)
	return p.encode(dst, format)
}

// Resize scales the image to fit within width x height, keeping its aspect ratio.
// A zero height scales to width.
func (p *Processor) Resize(data []byte, contentType string, width, height int) ([]byte, error) {
	if width <= 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	tw, th := fit(b.Dx(), b.Dy(), width, height)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return p.encode(dst, format)
}

func fit(sw, sh, w, h int) (int, int) {
	if sw == 0 || sh == 0 {
		return w, max(h, 1)
	}
	tw, th := w, sh*w/sw
	if h > 0 && th > h {
		th = h
		tw = sw * h / sh
	}
	return max(tw, 1), max(th, 1)
}

func (p *Processor) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		q := p.JPEGQuality
		if q == 0 {
			q = 90
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}
	return buf.Bytes(), nil
}
