package sdf

import (
	"fmt"
	"image"

	"github.com/gogpu/sdf/internal/codec"
	"github.com/gogpu/sdf/internal/gpu"
	"github.com/gogpu/sdf/internal/kernel"
)

// Layer is an RGBA8 colour raster tagged with the colour space its
// channels are encoded in. Alpha is straight, not premultiplied.
//
// Operators that mix two layers require both to carry the same tag.
// Conversions between spaces are explicit: see ToDisplay and ToPerceptual.
type Layer struct {
	ctx   *Context
	tex   *gpu.Texture
	space ColorSpace
}

// ColorSpace returns the layer's colour space tag.
func (l *Layer) ColorSpace() ColorSpace { return l.space }

// Context returns the context the layer belongs to.
func (l *Layer) Context() *Context { return l.ctx }

// Release frees the layer's texture. Further use fails with ErrReleased.
// Release is idempotent.
func (l *Layer) Release() {
	if l == nil || l.ctx.closed {
		return
	}
	l.ctx.textures.Release(l.tex)
}

// Released reports whether the texture has been freed.
func (l *Layer) Released() bool {
	return l == nil || l.tex.IsReleased()
}

func (l *Layer) use() error {
	if l == nil {
		return ErrNilOperand
	}
	if err := l.ctx.alive(); err != nil {
		return err
	}
	if l.tex.IsReleased() {
		return ErrReleased
	}
	return nil
}

func (l *Layer) pair(o *Layer) error {
	if err := l.use(); err != nil {
		return err
	}
	if err := o.use(); err != nil {
		return err
	}
	if l.ctx != o.ctx {
		return ErrContextMismatch
	}
	if l.space != o.space {
		return fmt.Errorf("%w: %s and %s", ErrColorSpaceMismatch, l.space, o.space)
	}
	return nil
}

func (l *Layer) unary(op kernel.Name, space ColorSpace) (*Layer, error) {
	if err := l.use(); err != nil {
		return nil, err
	}
	return l.ctx.layer(space, kernel.NoParams{Op: op}, l.tex)
}

// AlphaOverlay composites top over l with the source-over operator.
func (l *Layer) AlphaOverlay(top *Layer) (*Layer, error) {
	if err := l.pair(top); err != nil {
		return nil, err
	}
	return l.ctx.layer(l.space, kernel.NoParams{Op: kernel.Overlay}, top.tex, l.tex)
}

// Mask blends from l to top by the mask weight at each texel: the L
// channel of a Perceptual mask or the Rec.709 luma of a Display one,
// times the mask alpha. The mask may be in either space.
func (l *Layer) Mask(top, mask *Layer) (*Layer, error) {
	if err := l.pair(top); err != nil {
		return nil, err
	}
	if err := mask.use(); err != nil {
		return nil, err
	}
	if mask.ctx != l.ctx {
		return nil, ErrContextMismatch
	}
	return l.ctx.layer(l.space, kernel.MaskParams{Perceptual: mask.space == Perceptual}, l.tex, top.tex, mask.tex)
}

// Multiply returns the channel-wise product of l and o, alpha included.
func (l *Layer) Multiply(o *Layer) (*Layer, error) {
	if err := l.pair(o); err != nil {
		return nil, err
	}
	return l.ctx.layer(l.space, kernel.NoParams{Op: kernel.Multiply}, l.tex, o.tex)
}

// Transparency scales alpha by a, clamped to [0, 1].
func (l *Layer) Transparency(a float32) (*Layer, error) {
	if err := l.use(); err != nil {
		return nil, err
	}
	return l.ctx.layer(l.space, kernel.TransparencyParams{Alpha: clamp01(a)}, l.tex)
}

// Invert replaces each colour channel c with 1 - c. Alpha is kept.
func (l *Layer) Invert() (*Layer, error) {
	return l.unary(kernel.Invert, l.space)
}

// ToDisplay converts a Perceptual layer to Display.
func (l *Layer) ToDisplay() (*Layer, error) {
	if err := l.use(); err != nil {
		return nil, err
	}
	if l.space == Display {
		return nil, fmt.Errorf("%w: layer is already %s", ErrColorSpaceMismatch, Display)
	}
	return l.unary(kernel.ToRGB, Display)
}

// ToPerceptual converts a Display layer to Perceptual.
func (l *Layer) ToPerceptual() (*Layer, error) {
	if err := l.use(); err != nil {
		return nil, err
	}
	if l.space == Perceptual {
		return nil, fmt.Errorf("%w: layer is already %s", ErrColorSpaceMismatch, Perceptual)
	}
	return l.unary(kernel.ToLab, Perceptual)
}

func (l *Layer) requireDisplay(op string) error {
	if err := l.use(); err != nil {
		return err
	}
	if l.space != Display {
		return fmt.Errorf("%w: %s needs a %s layer", ErrColorSpaceMismatch, op, Display)
	}
	return nil
}

// Dithering quantizes each channel to eight levels with a 4x4 Bayer
// matrix. The layer must be Display.
func (l *Layer) Dithering() (*Layer, error) {
	if err := l.requireDisplay("dithering"); err != nil {
		return nil, err
	}
	return l.unary(kernel.Dithering, Display)
}

// Dither1Bit reduces the layer to black and white with a 4x4 Bayer
// matrix. The layer must be Display.
func (l *Layer) Dither1Bit() (*Layer, error) {
	if err := l.requireDisplay("dither_1bit"); err != nil {
		return nil, err
	}
	return l.unary(kernel.Dither1Bit, Display)
}

// display returns the layer's texture in display space, converting when
// needed. The returned release func frees any temporary.
func (l *Layer) display() (*gpu.Texture, func(), error) {
	if l.space == Display {
		return l.tex, func() {}, nil
	}
	d, err := l.ToDisplay()
	if err != nil {
		return nil, nil, err
	}
	return d.tex, d.Release, nil
}

// Image reads the layer back for display, converting Perceptual layers
// first. Row 0 of the image is the top of the raster.
func (l *Layer) Image() (*image.RGBA, error) {
	if err := l.use(); err != nil {
		return nil, err
	}
	tex, done, err := l.display()
	if err != nil {
		return nil, err
	}
	defer done()
	data, err := l.ctx.read(tex)
	if err != nil {
		return nil, err
	}
	img := &image.NRGBA{
		Pix:    data,
		Stride: l.ctx.width * 4,
		Rect:   image.Rect(0, 0, l.ctx.width, l.ctx.height),
	}
	return codec.FlipVertical(img), nil
}

// Pixels returns the raw channels in the layer's own colour space, four
// bytes per texel, rows from the top of the raster.
func (l *Layer) Pixels() ([]byte, error) {
	if err := l.use(); err != nil {
		return nil, err
	}
	data, err := l.ctx.read(l.tex)
	if err != nil {
		return nil, err
	}
	stride := l.ctx.width * 4
	out := make([]byte, len(data))
	for y := range l.ctx.height {
		copy(out[y*stride:(y+1)*stride], data[(l.ctx.height-1-y)*stride:])
	}
	return out, nil
}

// Save writes Image to path; the extension selects the format.
func (l *Layer) Save(path string) error {
	img, err := l.Image()
	if err != nil {
		return err
	}
	return codec.Encode(path, img)
}

// String returns a human-readable description.
func (l *Layer) String() string {
	if l == nil {
		return "Layer[nil]"
	}
	return fmt.Sprintf("Layer[%dx%d %s %s]", l.ctx.width, l.ctx.height, l.space, state(l.tex))
}
