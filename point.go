package sdf

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/sdf/internal/kernel"
)

// Point is a position in texel coordinates. The origin is the bottom-left
// corner of the raster and Y increases upwards.
type Point struct {
	X, Y float32
}

// Pt is a convenience function to create a Point.
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float32) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Length returns the distance from the origin.
func (p Point) Length() float32 {
	return math32.Sqrt(p.X*p.X + p.Y*p.Y)
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float32 {
	return p.Sub(q).Length()
}

// Perp returns p rotated a quarter turn counter-clockwise.
func (p Point) Perp() Point {
	return Point{X: -p.Y, Y: p.X}
}

func (p Point) vec() kernel.Vec2 { return kernel.Vec2{p.X, p.Y} }

// CornerRadii are the per-corner radii of a rounded rectangle, in the
// rectangle's own frame before rotation.
type CornerRadii struct {
	TopRight, BottomRight, TopLeft, BottomLeft float32
}

// Uniform returns equal radii on every corner.
func Uniform(r float32) CornerRadii {
	return CornerRadii{r, r, r, r}
}

func (r CornerRadii) vec() kernel.Vec4 {
	return kernel.Vec4{r.TopRight, r.BottomRight, r.TopLeft, r.BottomLeft}
}
