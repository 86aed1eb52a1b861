package sdf

import "fmt"

// LinearGradient shades the raster from c1 on the line through a
// perpendicular to a-b, to c2 at distance |a - b| from it. The gradient
// is symmetric about that line.
func LinearGradient(ctx *Context, a, b Point, c1, c2 Color) (*Layer, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	d := b.Sub(a)
	dist := d.Length()
	if dist == 0 {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateGradient, a)
	}

	// Long enough to cross the raster from any a inside it.
	reach := 2 * float32(ctx.width+ctx.height)
	along := d.Perp().Mul(reach / dist)
	line, err := Line(ctx, a.Sub(along), a.Add(along))
	if err != nil {
		return nil, err
	}
	defer line.Release()

	unsigned, err := line.Abs()
	if err != nil {
		return nil, err
	}
	defer unsigned.Release()

	return unsigned.Fill(c1, c2, FillOptions{Inner: 0, Outer: dist})
}

// RadialGradient shades the raster from c1 within inner texels of center
// to c2 beyond outer.
func RadialGradient(ctx *Context, center Point, c1, c2 Color, inner, outer float32) (*Layer, error) {
	point, err := Disc(ctx, center, 0)
	if err != nil {
		return nil, err
	}
	defer point.Release()
	return point.Fill(c1, c2, FillOptions{Inner: inner, Outer: outer})
}
