package sdf

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/sdf/internal/codec"
	"github.com/gogpu/sdf/internal/gpu"
	"github.com/gogpu/sdf/internal/kernel"
)

// Field is a signed distance field: one float32 per texel, negative
// inside the shape and positive outside, in texels.
//
// Fields are immutable. Every operator dispatches one kernel into a new
// field and leaves its operands untouched. A Field owns its texture until
// Release is called or its Context is closed.
type Field struct {
	ctx *Context
	tex *gpu.Texture
}

// Context returns the context the field belongs to.
func (f *Field) Context() *Context { return f.ctx }

// Release frees the field's texture. Further use fails with ErrReleased.
// Release is idempotent.
func (f *Field) Release() {
	if f == nil || f.ctx.closed {
		return
	}
	f.ctx.textures.Release(f.tex)
}

// Released reports whether the texture has been freed.
func (f *Field) Released() bool {
	return f == nil || f.tex.IsReleased()
}

func (f *Field) use() error {
	if f == nil {
		return ErrNilOperand
	}
	if err := f.ctx.alive(); err != nil {
		return err
	}
	if f.tex.IsReleased() {
		return ErrReleased
	}
	return nil
}

func (f *Field) pair(o *Field) error {
	if err := f.use(); err != nil {
		return err
	}
	if err := o.use(); err != nil {
		return err
	}
	if f.ctx != o.ctx {
		return ErrContextMismatch
	}
	return nil
}

func (f *Field) binary(op kernel.Name, o *Field) (*Field, error) {
	if err := f.pair(o); err != nil {
		return nil, err
	}
	return f.ctx.field(kernel.NoParams{Op: op}, f.tex, o.tex)
}

// Union returns min(f, o).
func (f *Field) Union(o *Field) (*Field, error) {
	return f.binary(kernel.Union, o)
}

// SmoothUnion blends f and o with a polynomial smooth minimum of radius k
// texels. k <= 0 is Union.
func (f *Field) SmoothUnion(o *Field, k float32) (*Field, error) {
	if k <= 0 {
		return f.Union(o)
	}
	if err := f.pair(o); err != nil {
		return nil, err
	}
	return f.ctx.field(kernel.SmoothMinParams{K: k}, f.tex, o.tex)
}

// Intersection returns max(f, o).
func (f *Field) Intersection(o *Field) (*Field, error) {
	return f.binary(kernel.Intersection, o)
}

// Subtract removes the interior of o from f: max(f, -o).
func (f *Field) Subtract(o *Field) (*Field, error) {
	return f.binary(kernel.Subtract, o)
}

// MaskedUnion returns Union(o) together with a Display mask recording
// which operand is nearer at each texel: red where f wins (ties included),
// green where o wins. Both results are owned by the caller.
func (f *Field) MaskedUnion(o *Field) (*Field, *Layer, error) {
	if err := f.pair(o); err != nil {
		return nil, nil, err
	}
	c := f.ctx
	mask, err := c.textures.AllocLayer(c.width, c.height)
	if err != nil {
		return nil, nil, err
	}
	field, err := c.field(kernel.NoParams{Op: kernel.MaskedUnion}, mask, f.tex, o.tex)
	if err != nil {
		c.textures.Release(mask)
		return nil, nil, err
	}
	return field, &Layer{ctx: c, tex: mask, space: Display}, nil
}

// Interpolate mixes f towards o: f + (o - f) * t, t clamped to [0, 1].
func (f *Field) Interpolate(o *Field, t float32) (*Field, error) {
	if err := f.pair(o); err != nil {
		return nil, err
	}
	return f.ctx.field(kernel.InterpolateParams{T: clamp01(t)}, f.tex, o.tex)
}

// Abs returns |f|, the unsigned distance to the boundary.
func (f *Field) Abs() (*Field, error) {
	if err := f.use(); err != nil {
		return nil, err
	}
	return f.ctx.field(kernel.NoParams{Op: kernel.Abs}, f.tex)
}

// Repeat tiles the region [0, period) of f over the whole raster.
// The cell is anchored at the origin, not centred on it, because f has
// no texels at negative coordinates to wrap into.
// Both components of period must be positive.
func (f *Field) Repeat(period Point) (*Field, error) {
	if err := f.use(); err != nil {
		return nil, err
	}
	if period.X <= 0 || period.Y <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeriod, period)
	}
	return f.ctx.field(kernel.RepeatParams{Period: period.vec()}, f.tex)
}

// FillOptions controls the anti-aliasing band of Fill.
type FillOptions struct {
	// Inflate grows the shape outwards by this many texels.
	Inflate float32

	// Inner and Outer bound the transition band: the foreground is used
	// where d - Inflate <= Inner, the background where it is >= Outer.
	Inner, Outer float32
}

// DefaultFill returns the one-and-a-half texel band ending on the boundary.
func DefaultFill() FillOptions {
	return FillOptions{Inner: -1.5, Outer: 0}
}

// Fill shades f into a Perceptual layer, fg inside and bg outside,
// interpolating across the band in perceptual space.
func (f *Field) Fill(fg, bg Color, opts FillOptions) (*Layer, error) {
	if err := f.use(); err != nil {
		return nil, err
	}
	if opts.Inner >= opts.Outer {
		return nil, fmt.Errorf("%w: inner %v >= outer %v", ErrInvalidBand, opts.Inner, opts.Outer)
	}
	return f.ctx.layer(Perceptual, kernel.FillParams{
		Fg:      fg.encode(Perceptual),
		Bg:      bg.encode(Perceptual),
		Inflate: opts.Inflate,
		Inner:   opts.Inner,
		Outer:   opts.Outer,
	}, f.tex)
}

// DefaultOutlineWidth is the half-width of an Outline stroke in texels.
const DefaultOutlineWidth = 1.5

// Outline shades a band DefaultOutlineWidth texels either side of the
// inflated boundary with fg, and everything else with bg.
func (f *Field) Outline(fg, bg Color, inflate float32) (*Layer, error) {
	return f.OutlineWidth(fg, bg, inflate, DefaultOutlineWidth)
}

// OutlineWidth is Outline with an explicit half-width.
func (f *Field) OutlineWidth(fg, bg Color, inflate, width float32) (*Layer, error) {
	if err := f.use(); err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: width %v", ErrInvalidBand, width)
	}
	return f.ctx.layer(Perceptual, kernel.OutlineParams{
		Fg:      fg.encode(Perceptual),
		Bg:      bg.encode(Perceptual),
		Inflate: inflate,
		Width:   width,
	}, f.tex)
}

// FillFromTexture is Fill with the foreground taken texel by texel from
// src. The result has src's colour space.
func (f *Field) FillFromTexture(src *Layer, bg Color, inflate float32) (*Layer, error) {
	if err := f.use(); err != nil {
		return nil, err
	}
	if err := src.use(); err != nil {
		return nil, err
	}
	if f.ctx != src.ctx {
		return nil, ErrContextMismatch
	}
	return f.ctx.layer(src.space, kernel.FillFromTextureParams{
		Bg:      bg.encode(src.space),
		Inflate: inflate,
	}, src.tex, f.tex)
}

// GenerateMask fills f with inside and outside and converts the result
// for display.
func (f *Field) GenerateMask(inflate float32, inside, outside Color) (*Layer, error) {
	opts := DefaultFill()
	opts.Inflate = inflate
	filled, err := f.Fill(inside, outside, opts)
	if err != nil {
		return nil, err
	}
	defer filled.Release()
	return filled.ToDisplay()
}

// Shadow renders a soft black shadow of f: the inflated shape blurred
// with distance extra 9-tap passes and its alpha scaled by alpha.
func (f *Field) Shadow(distance int, inflate, alpha float32) (*Layer, error) {
	mask, err := f.GenerateMask(inflate, Black, Transparent)
	if err != nil {
		return nil, err
	}
	defer mask.Release()
	blurred, err := mask.Blur(distance, 9)
	if err != nil {
		return nil, err
	}
	defer blurred.Release()
	return blurred.Transparency(alpha)
}

// Values returns the distances row by row from the top of the raster.
func (f *Field) Values() ([]float32, error) {
	if err := f.use(); err != nil {
		return nil, err
	}
	data, err := f.ctx.read(f.tex)
	if err != nil {
		return nil, err
	}
	w, h := f.ctx.width, f.ctx.height
	out := make([]float32, w*h)
	for y := range h {
		row := data[(h-1-y)*w*4:]
		for x := range w {
			out[y*w+x] = math.Float32frombits(binary.LittleEndian.Uint32(row[x*4:]))
		}
	}
	return out, nil
}

// At returns the distance at texel (x, y), y counted from the bottom.
func (f *Field) At(x, y int) (float32, error) {
	if err := f.use(); err != nil {
		return 0, err
	}
	if x < 0 || y < 0 || x >= f.ctx.width || y >= f.ctx.height {
		return 0, fmt.Errorf("%w: texel (%d,%d) outside %dx%d", ErrInvalidDimensions, x, y, f.ctx.width, f.ctx.height)
	}
	v, err := f.Values()
	if err != nil {
		return 0, err
	}
	return v[(f.ctx.height-1-y)*f.ctx.width+x], nil
}

// Image renders the distances as a grey image, clamped to [0, 255].
func (f *Field) Image() (*image.Gray, error) {
	v, err := f.Values()
	if err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, f.ctx.width, f.ctx.height))
	for i, d := range v {
		img.Pix[i] = uint8(min(max(d, 0), 255))
	}
	return img, nil
}

// Save writes Image to path; the extension selects the format.
func (f *Field) Save(path string) error {
	img, err := f.Image()
	if err != nil {
		return err
	}
	return codec.Encode(path, img)
}

// String returns a human-readable description.
func (f *Field) String() string {
	if f == nil {
		return "Field[nil]"
	}
	return fmt.Sprintf("Field[%dx%d %s]", f.ctx.width, f.ctx.height, state(f.tex))
}

func state(t *gpu.Texture) string {
	if t.IsReleased() {
		return "released"
	}
	return "live"
}
