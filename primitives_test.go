package sdf

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
)

func TestPrimitives(t *testing.T) {
	ctx := newTestContext(t, 64, 64)

	tests := []struct {
		name  string
		make  func() (*Field, error)
		x, y  int
		want  float32
		delta float32
	}{
		{"Disc centre", func() (*Field, error) { return Disc(ctx, Pt(32, 32), 10) }, 32, 32, -10, 0},
		{"Disc outside", func() (*Field, error) { return Disc(ctx, Pt(32, 32), 10) }, 32, 50, 8, 0},
		{"Rect centre", func() (*Field, error) { return RoundedRect(ctx, Pt(32, 32), Pt(20, 10), CornerRadii{}, 0) }, 32, 32, -5, 1e-5},
		{"Rect right edge", func() (*Field, error) { return RoundedRect(ctx, Pt(32, 32), Pt(20, 10), CornerRadii{}, 0) }, 45, 32, 3, 1e-5},
		{"Rect rotated", func() (*Field, error) {
			return RoundedRect(ctx, Pt(32, 32), Pt(20, 10), CornerRadii{}, math32.Pi/2)
		}, 32, 45, 3, 1e-4},
		{"Rect rounded corner", func() (*Field, error) { return RoundedRect(ctx, Pt(32, 32), Pt(20, 20), Uniform(5), 0) }, 42, 42, 5*math32.Sqrt2 - 5, 1e-4},
		{"Line end", func() (*Field, error) { return Line(ctx, Pt(10, 10), Pt(30, 10)) }, 33, 14, 5, 1e-4},
		{"Line middle", func() (*Field, error) { return Line(ctx, Pt(10, 10), Pt(30, 10)) }, 20, 17, 7, 1e-4},
		{"Bezier endpoint", func() (*Field, error) { return Bezier(ctx, Pt(10, 10), Pt(30, 40), Pt(50, 10)) }, 10, 10, 0, 1e-3},
		{"Bezier apex", func() (*Field, error) { return Bezier(ctx, Pt(10, 10), Pt(30, 40), Pt(50, 10)) }, 30, 30, 5, 1e-3},
		{"Triangle inside", func() (*Field, error) { return Triangle(ctx, Pt(10, 10), Pt(50, 10), Pt(30, 50)) }, 30, 12, -2, 1e-4},
		{"Triangle reversed", func() (*Field, error) { return Triangle(ctx, Pt(30, 50), Pt(50, 10), Pt(10, 10)) }, 30, 12, -2, 1e-4},
		{"Triangle below", func() (*Field, error) { return Triangle(ctx, Pt(10, 10), Pt(50, 10), Pt(30, 50)) }, 30, 4, 6, 1e-4},
		{"Grid line", func() (*Field, error) { return Grid(ctx, Pt(0, 0), Pt(16, 16), 0) }, 16, 5, 0, 0},
		{"Grid cell centre", func() (*Field, error) { return Grid(ctx, Pt(0, 0), Pt(16, 16), 0) }, 24, 24, 8, 0},
		{"Grid offset", func() (*Field, error) { return Grid(ctx, Pt(4, 4), Pt(16, 16), 0) }, 20, 11, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := must(tt.make())(t)
			defer f.Release()
			got := must(f.At(tt.x, tt.y))(t)
			if d := got - tt.want; d > tt.delta || d < -tt.delta {
				t.Errorf("At(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
	if ctx.Live() != 0 {
		t.Errorf("Live() = %d, want 0", ctx.Live())
	}
}

func TestPrimitiveErrors(t *testing.T) {
	ctx := newTestContext(t, 16, 16)
	for _, cell := range []Point{{0, 4}, {4, 0}, {-4, 4}} {
		if _, err := Grid(ctx, Pt(0, 0), cell, 0); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("Grid(cell %v) error = %v, want ErrInvalidPeriod", cell, err)
		}
	}
	if _, err := Disc(nil, Pt(0, 0), 1); !errors.Is(err, ErrNilOperand) {
		t.Errorf("Disc(nil) error = %v, want ErrNilOperand", err)
	}
}

func TestLinearGradient(t *testing.T) {
	ctx := newTestContext(t, 64, 16)
	g := must(LinearGradient(ctx, Pt(0, 8), Pt(32, 8), White, Black))(t)
	defer g.Release()
	if ctx.Live() != 1 {
		t.Errorf("Live() = %d, want intermediates released", ctx.Live())
	}

	pix := must(g.Pixels())(t)
	// L falls from white on the line through a to black |a-b| away.
	if got := texel(pix, 64, 16, 0, 8)[0]; got != 255 {
		t.Errorf("L at a = %d, want 255", got)
	}
	prev := 256
	for x := 0; x < 64; x++ {
		l := int(texel(pix, 64, 16, x, 3)[0])
		if l > prev {
			t.Fatalf("L rises at x=%d: %d after %d", x, l, prev)
		}
		prev = l
		if x >= 32 && l != 0 {
			t.Errorf("L at x=%d = %d, want 0 beyond |a-b|", x, l)
		}
	}
	// Constant along the line direction.
	if a, b := texel(pix, 64, 16, 10, 0), texel(pix, 64, 16, 10, 15); a != b {
		t.Errorf("gradient varies along its lines: %v vs %v", a, b)
	}

	if _, err := LinearGradient(ctx, Pt(5, 5), Pt(5, 5), White, Black); !errors.Is(err, ErrDegenerateGradient) {
		t.Errorf("a == b error = %v, want ErrDegenerateGradient", err)
	}
}

func TestRadialGradient(t *testing.T) {
	ctx := newTestContext(t, 64, 64)
	g := must(RadialGradient(ctx, Pt(32, 32), White, Black, 4, 20))(t)
	defer g.Release()
	if ctx.Live() != 1 {
		t.Errorf("Live() = %d, want intermediates released", ctx.Live())
	}

	pix := must(g.Pixels())(t)
	if got := texel(pix, 64, 64, 34, 32)[0]; got != 255 {
		t.Errorf("L inside inner = %d, want 255", got)
	}
	if got := texel(pix, 64, 64, 32, 12)[0]; got != 0 {
		t.Errorf("L at outer = %d, want 0", got)
	}
	mid := texel(pix, 64, 64, 44, 32)[0]
	if mid == 0 || mid == 255 {
		t.Errorf("L between the radii = %d, want grey", mid)
	}

	if _, err := RadialGradient(ctx, Pt(32, 32), White, Black, 20, 4); !errors.Is(err, ErrInvalidBand) {
		t.Errorf("inner > outer error = %v, want ErrInvalidBand", err)
	}
	if ctx.Live() != 1 {
		t.Errorf("Live() = %d after failed gradient, want 1", ctx.Live())
	}
}

func TestClearColor(t *testing.T) {
	ctx := newTestContext(t, 4, 4)
	l := must(ClearColor(ctx, RGBA(1, 1, 1, 0.5)))(t)
	defer l.Release()
	if l.ColorSpace() != Perceptual {
		t.Errorf("colour space = %v, want perceptual", l.ColorSpace())
	}
	if got := texel(must(l.Pixels())(t), 4, 4, 2, 2); got != [4]byte{255, 120, 136, 128} {
		t.Errorf("texel = %v, want L=255 neutral a,b alpha=128", got)
	}
}
