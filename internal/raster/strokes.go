package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/dudlr/dudlr/internal/errs"
)

// Drawing client canvas dimensions. The stroke wire format records
// coordinates against this fixed surface.
const (
	CanvasWidth  = 500
	CanvasHeight = 250
)

// Stroke command tags as they appear on the wire.
const (
	OpMove = byte('m')
	OpLine = byte('l')
	OpFill = byte('f')
)

// StrokeOp is one decoded drawing command. Fill carries no coordinates.
type StrokeOp struct {
	Cmd byte
	X   int
	Y   int
}

// ParseStrokes decodes the client recorder stream: commands 'm' (move),
// 'l' (line) and 'f' (fill), where coordinates are fixed-width 3-character
// signed integers and consecutive line segments omit the repeated 'l'.
// A style marker 's' plus one mode character may appear and is skipped.
func ParseStrokes(data []byte) ([]StrokeOp, error) {
	var ops []StrokeOp
	var lineRun bool

	i := 0
	for i < len(data) {
		switch c := data[i]; {
		case c == OpMove || c == OpLine:
			i++
			x, y, n, err := readCoordPair(data[i:])
			if err != nil {
				return nil, err
			}
			ops = append(ops, StrokeOp{Cmd: c, X: x, Y: y})
			i += n
			lineRun = c == OpLine
		case c == OpFill:
			ops = append(ops, StrokeOp{Cmd: OpFill})
			i++
			lineRun = false
		case c == 's':
			// Style marker: tag plus one mode character.
			if i+1 >= len(data) {
				return nil, fmt.Errorf("%w: truncated style marker", errs.ErrInvalidEncoding)
			}
			i += 2
			lineRun = false
		case lineRun && coordStart(c):
			x, y, n, err := readCoordPair(data[i:])
			if err != nil {
				return nil, err
			}
			ops = append(ops, StrokeOp{Cmd: OpLine, X: x, Y: y})
			i += n
		default:
			return nil, fmt.Errorf("%w: unexpected stroke byte %q at offset %d", errs.ErrInvalidEncoding, c, i)
		}
	}
	return ops, nil
}

func coordStart(c byte) bool {
	return c == '-' || (c >= '0' && c <= '9')
}

func readCoordPair(data []byte) (x, y, n int, err error) {
	const coordLen = 3
	if len(data) < 2*coordLen {
		return 0, 0, 0, fmt.Errorf("%w: truncated coordinate pair", errs.ErrInvalidEncoding)
	}
	x, err = strconv.Atoi(string(data[:coordLen]))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: bad x coordinate %q", errs.ErrInvalidEncoding, data[:coordLen])
	}
	y, err = strconv.Atoi(string(data[coordLen : 2*coordLen]))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: bad y coordinate %q", errs.ErrInvalidEncoding, data[coordLen:2*coordLen])
	}
	return x, y, 2 * coordLen, nil
}

// RenderPNG replays a decoded stroke stream onto a white canvas and returns
// the PNG bytes, mirroring the drawing client's half-translucent black pen.
func RenderPNG(ops []StrokeOp, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid dimensions %dx%d", width, height)
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.SetLineWidth(1)

	for _, op := range ops {
		switch op.Cmd {
		case OpMove:
			dc.MoveTo(float64(op.X), float64(op.Y))
		case OpLine:
			dc.LineTo(float64(op.X), float64(op.Y))
		case OpFill:
			dc.FillPreserve()
		}
	}
	dc.Stroke()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("raster: encode strokes png: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail scales a PNG down so its longest side is at most maxDim,
// preserving aspect ratio. Images already within bounds are returned as-is.
func Thumbnail(src []byte, maxDim int) ([]byte, error) {
	if maxDim <= 0 {
		return nil, fmt.Errorf("raster: invalid thumbnail size %d", maxDim)
	}
	img, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("raster: decode png: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return src, nil
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("raster: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
