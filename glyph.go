package sdf

import (
	"fmt"

	"github.com/gogpu/sdf/text"
)

// collinearArea is the triangle area below which a stroke's control
// points are treated as lying on one line.
const collinearArea = 1e-9

// Stroke is one quadratic segment of a glyph outline: from A to C with
// control point B, in texel coordinates.
type Stroke struct {
	A, B, C Point
}

// Collinear reports whether the control points are (nearly) on a line.
func (s Stroke) Collinear() bool {
	ax, ay := float64(s.B.X-s.A.X), float64(s.B.Y-s.A.Y)
	bx, by := float64(s.C.X-s.A.X), float64(s.C.Y-s.A.Y)
	area := 0.5 * (ax*by - ay*bx)
	return area <= collinearArea && area >= -collinearArea
}

func (s Stroke) field(ctx *Context) (*Field, error) {
	if s.Collinear() {
		return Line(ctx, s.A, s.C)
	}
	return Bezier(ctx, s.A, s.B, s.C)
}

// GlyphField rasterizes every stroke of the contours and unions them.
// The result is the unsigned distance to the outline. A glyph without
// strokes fails with ErrEmptyGlyph.
func GlyphField(ctx *Context, contours [][]Stroke) (*Field, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	var acc *Field
	for _, contour := range contours {
		for _, s := range contour {
			f, err := s.field(ctx)
			if err != nil {
				acc.Release()
				return nil, err
			}
			if acc == nil {
				acc = f
				continue
			}
			u, err := acc.Union(f)
			acc.Release()
			f.Release()
			if err != nil {
				return nil, err
			}
			acc = u
		}
	}
	if acc == nil {
		return nil, ErrEmptyGlyph
	}
	return acc, nil
}

// Strokes converts font contours to strokes placed at origin.
func Strokes(contours [][]text.Quad, origin Point) [][]Stroke {
	out := make([][]Stroke, 0, len(contours))
	for _, c := range contours {
		strokes := make([]Stroke, len(c))
		for i, q := range c {
			strokes[i] = Stroke{
				A: origin.Add(Point(q.A)),
				B: origin.Add(Point(q.B)),
				C: origin.Add(Point(q.C)),
			}
		}
		out = append(out, strokes)
	}
	return out
}

// RuneField is the outline field of one character of font at size pixels
// per em, with its baseline origin at origin.
func RuneField(ctx *Context, font *text.Font, r rune, size float32, origin Point) (*Field, error) {
	if font == nil {
		return nil, ErrNilOperand
	}
	contours, err := font.Contours(r, float64(size))
	if err != nil {
		return nil, fmt.Errorf("sdf: %w", err)
	}
	return GlyphField(ctx, Strokes(contours, origin))
}

// TextField shapes s with font at size pixels per em and returns the
// outline field of the whole line, its baseline starting at origin.
// Text without any outline fails with ErrEmptyGlyph.
func TextField(ctx *Context, font *text.Font, s string, size float32, origin Point) (*Field, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	if font == nil {
		return nil, ErrNilOperand
	}
	glyphs, err := font.Layout(s, float64(size))
	if err != nil {
		return nil, fmt.Errorf("sdf: %w", err)
	}
	var all [][]Stroke
	for _, g := range glyphs {
		contours, err := font.GlyphContours(g.ID, float64(size))
		if err != nil {
			return nil, fmt.Errorf("sdf: %w", err)
		}
		all = append(all, Strokes(contours, origin.Add(Point{X: g.X, Y: g.Y}))...)
	}
	return GlyphField(ctx, all)
}
