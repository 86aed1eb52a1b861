package sdf

import (
	"fmt"
	"image"

	"github.com/gogpu/sdf/internal/codec"
)

// ImageFieldOptions controls ImageToField.
type ImageFieldOptions struct {
	// Size is the edge length the image is resized to before tracing.
	// Zero keeps the original size.
	Size int

	// Threshold is the channel average below which a pixel counts as
	// dark, in [0, 255].
	Threshold float32

	// Radius is the radius of the disc placed on each dark pixel.
	Radius float32

	// K is the smooth union radius used to merge the discs.
	K float32

	// Origin is where the image's bottom-left pixel lands.
	Origin Point
}

// DefaultImageField returns the options used by ImageToField when none
// are given.
func DefaultImageField() ImageFieldOptions {
	return ImageFieldOptions{Size: 128, Threshold: 150, Radius: 1.75, K: 1.5}
}

// ImageToField traces the dark pixels of a black and white image: each
// becomes a disc, and the discs are merged with SmoothUnion. An image
// without dark pixels fails with ErrEmptyGlyph.
func ImageToField(ctx *Context, img image.Image, opts ImageFieldOptions) (*Field, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, ErrNilOperand
	}
	var rgba *image.RGBA
	if opts.Size > 0 {
		rgba = codec.Resize(img, opts.Size, opts.Size)
	} else {
		rgba = codec.ToRGBA(img)
	}

	b := rgba.Bounds()
	var acc *Field
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := rgba.RGBAAt(x, y)
			if (float32(p.R)+float32(p.G)+float32(p.B))/3 >= opts.Threshold {
				continue
			}
			center := opts.Origin.Add(Point{X: float32(x - b.Min.X), Y: float32(b.Max.Y - 1 - y)})
			d, err := Disc(ctx, center, opts.Radius)
			if err != nil {
				acc.Release()
				return nil, err
			}
			if acc == nil {
				acc = d
				continue
			}
			u, err := acc.SmoothUnion(d, opts.K)
			acc.Release()
			d.Release()
			if err != nil {
				return nil, err
			}
			acc = u
		}
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: no pixel darker than %v", ErrEmptyGlyph, opts.Threshold)
	}
	return acc, nil
}

// LayerFromImage uploads img as a Display layer. The image must match the
// context size.
func LayerFromImage(ctx *Context, img image.Image) (*Layer, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, ErrNilOperand
	}
	if b := img.Bounds(); b.Dx() != ctx.width || b.Dy() != ctx.height {
		return nil, fmt.Errorf("%w: image is %dx%d, context is %dx%d", ErrSizeMismatch, b.Dx(), b.Dy(), ctx.width, ctx.height)
	}

	// Bottom row first, straight alpha.
	flipped := codec.FlipVertical(img)
	data := make([]byte, len(flipped.Pix))
	for i := 0; i < len(data); i += 4 {
		r, g, b, a := flipped.Pix[i], flipped.Pix[i+1], flipped.Pix[i+2], flipped.Pix[i+3]
		if a != 0 && a != 255 {
			r = unpremultiply(r, a)
			g = unpremultiply(g, a)
			b = unpremultiply(b, a)
		}
		data[i], data[i+1], data[i+2], data[i+3] = r, g, b, a
	}

	tex, err := ctx.textures.AllocLayer(ctx.width, ctx.height)
	if err != nil {
		return nil, err
	}
	if err := ctx.device.Write(tex, data); err != nil {
		ctx.textures.Release(tex)
		return nil, fmt.Errorf("sdf: upload: %w", err)
	}
	return &Layer{ctx: ctx, tex: tex, space: Display}, nil
}

// LoadLayer decodes an image file into a Display layer.
func LoadLayer(ctx *Context, path string) (*Layer, error) {
	img, err := codec.Decode(path)
	if err != nil {
		return nil, err
	}
	return LayerFromImage(ctx, img)
}

func unpremultiply(c, a uint8) uint8 {
	return uint8(min((uint32(c)*255+uint32(a)/2)/uint32(a), 255))
}
