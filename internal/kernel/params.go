package kernel

import (
	"encoding/binary"
	"math"
)

// Params is the typed uniform block of one kernel. Kernel names the
// kernel the block belongs to; Uniform packs it little-endian with the
// WGSL uniform layout of the kernel's Params struct (vec4 fields first,
// then vec2, then scalars, padded to 16 bytes).
type Params interface {
	Kernel() Name
	Uniform() []byte
}

// Vec2 is a WGSL vec2<f32>.
type Vec2 [2]float32

// Vec4 is a WGSL vec4<f32>. Colours are passed as four normalized
// channels already encoded in the destination colour space.
type Vec4 [4]float32

// uniformWriter appends WGSL uniform fields.
type uniformWriter struct {
	buf []byte
}

func (w *uniformWriter) f32(v float32) *uniformWriter {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
	return w
}

func (w *uniformWriter) u32(v uint32) *uniformWriter {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

func (w *uniformWriter) vec2(v Vec2) *uniformWriter {
	return w.f32(v[0]).f32(v[1])
}

func (w *uniformWriter) vec4(v Vec4) *uniformWriter {
	return w.f32(v[0]).f32(v[1]).f32(v[2]).f32(v[3])
}

func (w *uniformWriter) bytes() []byte {
	for len(w.buf)%16 != 0 {
		w.buf = append(w.buf, 0)
	}
	return w.buf
}

// NoParams is the empty block of parameterless kernels.
type NoParams struct {
	Op Name
}

func (p NoParams) Kernel() Name    { return p.Op }
func (p NoParams) Uniform() []byte { return nil }

// CircleParams is a disc: length(p - Center) - Radius.
type CircleParams struct {
	Center Vec2
	Radius float32
}

func (CircleParams) Kernel() Name { return Circle }
func (p CircleParams) Uniform() []byte {
	return new(uniformWriter).vec2(p.Center).f32(p.Radius).bytes()
}

// RectParams is a rotated rectangle with per-corner radii.
// Radii are ordered top-right, bottom-right, top-left, bottom-left.
type RectParams struct {
	Radii  Vec4
	Center Vec2
	Size   Vec2
	Angle  float32
}

func (RectParams) Kernel() Name { return Rect }
func (p RectParams) Uniform() []byte {
	return new(uniformWriter).vec4(p.Radii).vec2(p.Center).vec2(p.Size).f32(p.Angle).bytes()
}

// LineParams is the segment A-B.
type LineParams struct {
	A, B Vec2
}

func (LineParams) Kernel() Name { return Line }
func (p LineParams) Uniform() []byte {
	return new(uniformWriter).vec2(p.A).vec2(p.B).bytes()
}

// BezierParams is the quadratic curve A-B-C with control point B.
type BezierParams struct {
	A, B, C Vec2
}

func (BezierParams) Kernel() Name { return Bezier }
func (p BezierParams) Uniform() []byte {
	return new(uniformWriter).vec2(p.A).vec2(p.B).vec2(p.C).bytes()
}

// TriangleParams is the filled triangle P0-P1-P2.
type TriangleParams struct {
	P0, P1, P2 Vec2
}

func (TriangleParams) Kernel() Name { return Triangle }
func (p TriangleParams) Uniform() []byte {
	return new(uniformWriter).vec2(p.P0).vec2(p.P1).vec2(p.P2).bytes()
}

// GridParams is a lattice of lines Cell apart, shifted by Offset and
// rotated by Angle radians.
type GridParams struct {
	Offset Vec2
	Cell   Vec2
	Angle  float32
}

func (GridParams) Kernel() Name { return Grid }
func (p GridParams) Uniform() []byte {
	return new(uniformWriter).vec2(p.Offset).vec2(p.Cell).f32(p.Angle).bytes()
}

// SmoothMinParams is the polynomial smooth minimum radius.
type SmoothMinParams struct {
	K float32
}

func (SmoothMinParams) Kernel() Name { return SmoothMin }
func (p SmoothMinParams) Uniform() []byte {
	return new(uniformWriter).f32(p.K).bytes()
}

// InterpolateParams mixes two fields: a + (b - a) * T.
type InterpolateParams struct {
	T float32
}

func (InterpolateParams) Kernel() Name { return Interpolate }
func (p InterpolateParams) Uniform() []byte {
	return new(uniformWriter).f32(p.T).bytes()
}

// RepeatParams tiles a field with the given period in texels.
type RepeatParams struct {
	Period Vec2
}

func (RepeatParams) Kernel() Name { return Repeat }
func (p RepeatParams) Uniform() []byte {
	return new(uniformWriter).vec2(p.Period).bytes()
}

// FillParams shades a field: Fg where d - Inflate <= Inner, Bg where it
// is >= Outer, smoothstep between.
type FillParams struct {
	Fg, Bg  Vec4
	Inflate float32
	Inner   float32
	Outer   float32
}

func (FillParams) Kernel() Name { return Fill }
func (p FillParams) Uniform() []byte {
	return new(uniformWriter).vec4(p.Fg).vec4(p.Bg).f32(p.Inflate).f32(p.Inner).f32(p.Outer).bytes()
}

// OutlineParams shades a band of half-width Width around d = Inflate.
type OutlineParams struct {
	Fg, Bg  Vec4
	Inflate float32
	Width   float32
}

func (OutlineParams) Kernel() Name { return Outline }
func (p OutlineParams) Uniform() []byte {
	return new(uniformWriter).vec4(p.Fg).vec4(p.Bg).f32(p.Inflate).f32(p.Width).bytes()
}

// FillFromTextureParams takes colours from a layer inside the shape and
// Bg outside.
type FillFromTextureParams struct {
	Bg      Vec4
	Inflate float32
}

func (FillFromTextureParams) Kernel() Name { return FillFromTexture }
func (p FillFromTextureParams) Uniform() []byte {
	return new(uniformWriter).vec4(p.Bg).f32(p.Inflate).bytes()
}

// ClearParams fills a layer with one colour.
type ClearParams struct {
	Color Vec4
}

func (ClearParams) Kernel() Name { return ClearColor }
func (p ClearParams) Uniform() []byte {
	return new(uniformWriter).vec4(p.Color).bytes()
}

// NoiseParams drives the procedural generators. Op selects perlin_noise
// or film_grain.
type NoiseParams struct {
	Op        Name
	Scale     float32
	Intensity float32
	Seed      uint32
}

func (p NoiseParams) Kernel() Name { return p.Op }
func (p NoiseParams) Uniform() []byte {
	return new(uniformWriter).f32(p.Scale).f32(p.Intensity).u32(p.Seed).bytes()
}

// TransparencyParams scales layer alpha.
type TransparencyParams struct {
	Alpha float32
}

func (TransparencyParams) Kernel() Name { return Transparency }
func (p TransparencyParams) Uniform() []byte {
	return new(uniformWriter).f32(p.Alpha).bytes()
}

// MaskParams tells layer_mask how to weigh the mask layer: its L channel
// when Perceptual is set, Rec.709 luma otherwise.
type MaskParams struct {
	Perceptual bool
}

func (MaskParams) Kernel() Name { return LayerMask }
func (p MaskParams) Uniform() []byte {
	var v uint32
	if p.Perceptual {
		v = 1
	}
	return new(uniformWriter).u32(v).bytes()
}
