package sdf

import (
	"fmt"

	"github.com/gogpu/sdf/internal/gpu"
	"github.com/gogpu/sdf/internal/kernel"
)

// Blur applies a separable Gaussian: one vertical and horizontal pass,
// then n more, so n = 0 is a single blur. size selects the 9-tap or the
// 13-tap binomial kernel; any other size logs a warning and uses 9.
//
// Passes run on display-space texels. A Perceptual input is converted
// first and the result is always Perceptual.
func (l *Layer) Blur(n, size int) (*Layer, error) {
	if err := l.use(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPasses, n)
	}

	ver, hor := kernel.BlurVer9, kernel.BlurHor9
	switch size {
	case 9:
	case 13:
		ver, hor = kernel.BlurVer13, kernel.BlurHor13
	default:
		Logger().Warn("sdf: unsupported blur size, using 9", "size", size)
	}

	c := l.ctx
	src, done, err := l.display()
	if err != nil {
		return nil, err
	}
	defer done()

	scratch, err := c.textures.AllocLayer(c.width, c.height)
	if err != nil {
		return nil, err
	}
	defer c.textures.Release(scratch)
	acc, err := c.textures.AllocLayer(c.width, c.height)
	if err != nil {
		return nil, err
	}
	defer c.textures.Release(acc)

	if err := blurPasses(c, ver, hor, src, scratch, acc, n+1); err != nil {
		return nil, err
	}
	return c.layer(Perceptual, kernel.NoParams{Op: kernel.ToLab}, acc)
}

// blurPasses runs passes vertical+horizontal pairs from src, ping-ponging
// between scratch and acc. The result is left in acc.
func blurPasses(c *Context, ver, hor kernel.Name, src, scratch, acc *gpu.Texture, passes int) error {
	in := src
	for range passes {
		if err := c.dispatch(kernel.NoParams{Op: ver}, scratch, in); err != nil {
			return err
		}
		if err := c.dispatch(kernel.NoParams{Op: hor}, acc, scratch); err != nil {
			return err
		}
		in = acc
	}
	return nil
}
