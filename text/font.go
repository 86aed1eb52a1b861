// Package text extracts glyph outlines as quadratic strokes and shapes
// strings into positioned glyphs.
//
// Outlines come from golang.org/x/image/font/sfnt, scaled to pixels and
// flipped so y points up. Cubic segments (CFF fonts) are approximated by
// quadratics and straight segments become quadratics whose control point
// is the segment midpoint, so every stroke is a three-point tuple.
//
// Shaping uses the HarfBuzz port in github.com/go-text/typesetting and
// applies kerning and ligatures.
package text

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"honnef.co/go/curve"
)

// Sentinel errors for the text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrGlyphNotFound is returned when the font has no glyph for a rune.
	ErrGlyphNotFound = errors.New("text: glyph not found")
)

// cubicAccuracy is the maximum distance in pixels between a cubic segment
// and its quadratic approximation.
const cubicAccuracy = 0.05

// GlyphID is a glyph index in a font.
type GlyphID uint16

// Point is a position in pixels with y pointing up.
type Point struct {
	X, Y float32
}

// Quad is a quadratic curve from A to C with control point B.
type Quad struct {
	A, B, C Point
}

// Font is a parsed TrueType or OpenType font.
//
// Font is safe for concurrent use.
type Font struct {
	data []byte
	sfnt *sfnt.Font

	mu  sync.Mutex
	buf sfnt.Buffer

	shaper shaperState
}

// Parse parses font data. The data must not be modified afterwards.
func Parse(data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	return &Font{data: data, sfnt: f}, nil
}

// Open reads and parses a font file.
func Open(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	return Parse(data)
}

// Name returns the full font name, or "" if the font has none.
func (f *Font) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, err := f.sfnt.Name(&f.buf, sfnt.NameIDFull)
	if err != nil {
		return ""
	}
	return name
}

// GlyphIndex returns the glyph for r.
func (f *Font) GlyphIndex(r rune) (GlyphID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gid, err := f.sfnt.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0, fmt.Errorf("text: glyph index of %q: %w", r, err)
	}
	if gid == 0 {
		return 0, fmt.Errorf("%w: %q", ErrGlyphNotFound, r)
	}
	return GlyphID(gid), nil
}

// Contours returns the outline of the glyph for r at size pixels per em,
// one slice of strokes per closed contour. The origin is the glyph's pen
// position on the baseline.
func (f *Font) Contours(r rune, size float64) ([][]Quad, error) {
	gid, err := f.GlyphIndex(r)
	if err != nil {
		return nil, err
	}
	return f.GlyphContours(gid, size)
}

// GlyphContours returns the outline of a glyph by index. Glyphs without
// an outline, such as a space, return no contours.
func (f *Font) GlyphContours(gid GlyphID, size float64) ([][]Quad, error) {
	f.mu.Lock()
	segments, err := f.sfnt.LoadGlyph(&f.buf, sfnt.GlyphIndex(gid), fixed.Int26_6(size*64), nil)
	// LoadGlyph reuses the buffer; copy before unlocking.
	segments = append(sfnt.Segments(nil), segments...)
	f.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("text: load glyph %d: %w", gid, err)
	}
	return contours(segments), nil
}

// contours converts sfnt segments to closed contours of quadratic strokes.
func contours(segments sfnt.Segments) [][]Quad {
	var (
		out         [][]Quad
		cur         []Quad
		start, prev Point
		haveContour bool
	)
	closeContour := func() {
		if !haveContour {
			return
		}
		if prev != start {
			cur = append(cur, lineQuad(prev, start))
		}
		if len(cur) > 0 {
			out = append(out, cur)
		}
		cur = nil
		haveContour = false
	}

	for _, s := range segments {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			closeContour()
			start = toPoint(s.Args[0])
			prev = start
			haveContour = true
		case sfnt.SegmentOpLineTo:
			to := toPoint(s.Args[0])
			cur = append(cur, lineQuad(prev, to))
			prev = to
		case sfnt.SegmentOpQuadTo:
			to := toPoint(s.Args[1])
			cur = append(cur, Quad{A: prev, B: toPoint(s.Args[0]), C: to})
			prev = to
		case sfnt.SegmentOpCubeTo:
			to := toPoint(s.Args[2])
			cb := curve.CubicBez{
				P0: curvePt(prev),
				P1: curvePt(toPoint(s.Args[0])),
				P2: curvePt(toPoint(s.Args[1])),
				P3: curvePt(to),
			}
			for seg := range cb.Quadratics(cubicAccuracy) {
				q := seg.Segment
				cur = append(cur, Quad{A: fromCurve(q.P0), B: fromCurve(q.P1), C: fromCurve(q.P2)})
			}
			if n := len(cur); n > 0 {
				// Pin the end exactly so the contour closes.
				cur[n-1].C = to
			}
			prev = to
		}
	}
	closeContour()
	return out
}

// lineQuad is the straight segment a-b as a quadratic.
func lineQuad(a, b Point) Quad {
	return Quad{A: a, B: Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}, C: b}
}

// toPoint converts a 26.6 point in y-down font space to y-up pixels.
func toPoint(p fixed.Point26_6) Point {
	return Point{X: float32(p.X) / 64, Y: -float32(p.Y) / 64}
}

func curvePt(p Point) curve.Point { return curve.Pt(float64(p.X), float64(p.Y)) }

func fromCurve(p curve.Point) Point { return Point{X: float32(p.X), Y: float32(p.Y)} }
