// Package color holds the texel colour types shared by the sdf engine and
// the conversions between the display (sRGB) and perceptual (CIE L*a*b*)
// encodings of an RGBA8 layer.
package color

// ColorF32 represents a color with float32 components in [0,1].
// The channels hold either sRGB or encoded L*a*b* values, depending on
// the layer they belong to. Alpha is always linear.
type ColorF32 struct {
	R, G, B, A float32
}

// ColorU8 represents a color with uint8 components in [0,255].
type ColorU8 struct {
	R, G, B, A uint8
}

// Vec returns the channels as an array.
func (c ColorF32) Vec() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// Mix interpolates channel-wise from c (t=0) to o (t=1).
func (c ColorF32) Mix(o ColorF32, t float32) ColorF32 {
	return ColorF32{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}
