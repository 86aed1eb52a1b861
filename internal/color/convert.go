package color

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// U8ToF32 converts ColorU8 to ColorF32.
// Each uint8 component [0,255] is mapped to float32 [0,1].
func U8ToF32(c ColorU8) ColorF32 {
	return ColorF32{
		R: float32(c.R) / 255.0,
		G: float32(c.G) / 255.0,
		B: float32(c.B) / 255.0,
		A: float32(c.A) / 255.0,
	}
}

// F32ToU8 converts ColorF32 to ColorU8.
// Each float32 component [0,1] is mapped to uint8 [0,255] with rounding,
// the same rule as WGSL pack4x8unorm.
func F32ToU8(c ColorF32) ColorU8 {
	return ColorU8{
		R: clampAndRound(c.R),
		G: clampAndRound(c.G),
		B: clampAndRound(c.B),
		A: clampAndRound(c.A),
	}
}

// clampAndRound clamps a float32 to [0,1] and converts to uint8 with rounding.
func clampAndRound(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	// Round to nearest integer
	return uint8(v*255.0 + 0.5)
}

// Luma709 returns the Rec.709 luma of an sRGB colour.
func Luma709(c ColorF32) float32 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Perceptual a* and b* are stored as code/255 with code = v/step + zero.
// The codes span the sRGB gamut, a* in [-87.36, 98.28] and b* in
// [-107.98, 94.49] CIE units, and neutral grey lands on an exact code.
const (
	labAZero = 120
	labAStep = 0.00728
	labBZero = 136
	labBStep = 0.00794
)

// MaxRoundTripError bounds, in 8-bit sRGB levels per channel, how far
// DecodeLab(EncodeLab(c)) can drift from c when the encoding is stored in
// an 8-bit texel. Three 8-bit Lab channels cannot hold the whole sRGB cube,
// so saturated colours near the gamut boundary lose the most; the worst
// over all 2^24 colours is 21. Neutral greys drift at most 1.
const MaxRoundTripError = 23

// EncodeLab converts an sRGB colour to the perceptual encoding: L in
// [0,1] and a, b mapped onto their sRGB gamut range. Alpha is copied.
func EncodeLab(c ColorF32) ColorF32 {
	l, a, b := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Lab()
	return ColorF32{
		R: clamp01(float32(l)),
		G: clamp01(float32((a/labAStep + labAZero) / 255)),
		B: clamp01(float32((b/labBStep + labBZero) / 255)),
		A: c.A,
	}
}

// DecodeLab converts the perceptual encoding back to sRGB, clamping
// colours outside the sRGB gamut. Alpha is copied.
func DecodeLab(c ColorF32) ColorF32 {
	a := (float64(c.G)*255 - labAZero) * labAStep
	b := (float64(c.B)*255 - labBZero) * labBStep
	rgb := colorful.Lab(float64(c.R), a, b).Clamped()
	return ColorF32{R: float32(rgb.R), G: float32(rgb.G), B: float32(rgb.B), A: c.A}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
