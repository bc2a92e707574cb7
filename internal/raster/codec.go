// Package raster holds the image collaborators: the greyscale codec used by
// the legacy pixel upload path and a renderer for the stroke command stream.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// Codec encodes an accumulated greyscale pixel buffer into an image
// bit-stream. Implementations are injected into the doodle service.
type Codec interface {
	Encode(width, height int, pixels []byte) ([]byte, error)
}

// GreyPNG encodes row-major 8-bit greyscale pixels as PNG.
//
// Caller-supplied dimensions are not validated against the buffer length:
// missing trailing pixels render black and excess bytes are ignored, so a
// mismatch yields a truncated or corrupted image rather than an error.
type GreyPNG struct{}

// Encode writes height rows of width pixels each, scanned from the buffer.
func (GreyPNG) Encode(width, height int, pixels []byte) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid dimensions %dx%d", width, height)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		offset := y * width
		if offset >= len(pixels) {
			break
		}
		end := offset + width
		if end > len(pixels) {
			end = len(pixels)
		}
		copy(img.Pix[y*img.Stride:], pixels[offset:end])
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("raster: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
