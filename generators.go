package sdf

import "github.com/gogpu/sdf/internal/kernel"

// ClearColor returns a Perceptual layer filled with c.
func ClearColor(ctx *Context, c Color) (*Layer, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	return ctx.layer(Perceptual, kernel.ClearParams{Color: c.encode(Perceptual)})
}

// PerlinNoise returns a Display layer of grey gradient noise with lattice
// cells scale texels wide. Equal seeds give equal layers.
func PerlinNoise(ctx *Context, scale float32, seed uint32) (*Layer, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}
	return ctx.layer(Display, kernel.NoiseParams{Op: kernel.PerlinNoise, Scale: scale, Seed: seed})
}

// FilmGrain returns a Display layer of per-texel grey noise around 0.5;
// intensity in [0, 1] scales its spread.
func FilmGrain(ctx *Context, intensity float32, seed uint32) (*Layer, error) {
	if err := ctx.alive(); err != nil {
		return nil, err
	}
	return ctx.layer(Display, kernel.NoiseParams{Op: kernel.FilmGrain, Intensity: clamp01(intensity), Seed: seed})
}
