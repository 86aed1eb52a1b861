package sdf

import (
	"fmt"

	"github.com/gogpu/sdf/internal/kernel"
)

// Disc returns the field of a circle: |p - center| - radius.
func Disc(ctx *Context, center Point, radius float32) (*Field, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	return ctx.field(kernel.CircleParams{Center: center.vec(), Radius: radius})
}

// RoundedRect returns the field of a size.X x size.Y rectangle centred on
// center, rotated by angle radians counter-clockwise, with per-corner
// radii.
func RoundedRect(ctx *Context, center, size Point, radii CornerRadii, angle float32) (*Field, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	return ctx.field(kernel.RectParams{
		Radii:  radii.vec(),
		Center: center.vec(),
		Size:   size.vec(),
		Angle:  angle,
	})
}

// Line returns the unsigned distance to the segment a-b.
func Line(ctx *Context, a, b Point) (*Field, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	return ctx.field(kernel.LineParams{A: a.vec(), B: b.vec()})
}

// Bezier returns the unsigned distance to the quadratic curve from a to c
// with control point b.
func Bezier(ctx *Context, a, b, c Point) (*Field, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	return ctx.field(kernel.BezierParams{A: a.vec(), B: b.vec(), C: c.vec()})
}

// Triangle returns the signed field of the filled triangle p1-p2-p3.
// Either winding works.
func Triangle(ctx *Context, p1, p2, p3 Point) (*Field, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	return ctx.field(kernel.TriangleParams{P0: p1.vec(), P1: p2.vec(), P2: p3.vec()})
}

// Grid returns the distance to the nearest line of a lattice of
// cell.X x cell.Y cells, with one corner at offset, rotated by angle
// radians.
func Grid(ctx *Context, offset, cell Point, angle float32) (*Field, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	if cell.X <= 0 || cell.Y <= 0 {
		return nil, fmt.Errorf("%w: grid cell %v", ErrInvalidPeriod, cell)
	}
	return ctx.field(kernel.GridParams{Offset: offset.vec(), Cell: cell.vec(), Angle: angle})
}
