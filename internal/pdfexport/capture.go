package pdfexport

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Capturer renders the visible part of a region to an image.
type Capturer interface {
	Capture(ctx context.Context, r *Region) (image.Image, error)
}

// glyphs missing from the bitmap face.
var fallbackGlyphs = strings.NewReplacer(
	"•", "-",
	"—", "-",
	"–", "-",
	"→", "->",
	"…", "...",
)

// TextRasterizer draws section lines with a fixed bitmap font on white.
type TextRasterizer struct {
	Scale  int // integer upscale of the final image; 2 when zero
	Margin int // margin in unscaled pixels; 24 when zero
}

func (t TextRasterizer) Capture(ctx context.Context, r *Region) (image.Image, error) {
	face := basicfont.Face7x13
	scale, margin := t.Scale, t.Margin
	if scale <= 0 {
		scale = 2
	}
	if margin <= 0 {
		margin = 24
	}
	lineHeight := face.Metrics().Height.Ceil() + 3

	var lines []string
	for i, s := range r.Visible() {
		if i > 0 {
			lines = append(lines, "")
		}
		for _, l := range s.Lines {
			lines = append(lines, fallbackGlyphs.Replace(l))
		}
	}

	width := 0
	for _, l := range lines {
		if w := font.MeasureString(face, l).Ceil(); w > width {
			width = w
		}
	}
	width += 2 * margin
	height := len(lines)*lineHeight + 2*margin

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: canvas, Src: image.NewUniform(color.Black), Face: face}
	for i, l := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.Dot = fixed.P(margin, margin+(i+1)*lineHeight-3)
		d.DrawString(l)
	}

	if scale == 1 {
		return canvas, nil
	}
	out := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), canvas, canvas.Bounds(), xdraw.Src, nil)
	return out, nil
}
