package sdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/gogpu/sdf/internal/color"
	"github.com/gogpu/sdf/internal/kernel"
)

// Color is a straight-alpha sRGB colour with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Common colours.
var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Transparent = Color{}
)

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// RGBA creates a color from RGBA components.
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// RGB255 creates an opaque color from 8-bit components.
func RGB255(r, g, b uint8) Color {
	return Color{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255, A: 1}
}

// Hex parses "#RGB", "#RRGGBB" or "#RRGGBBAA".
func Hex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	alpha := float32(1)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = float32(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: alpha}, nil
}

// MustHex is like Hex but panics on malformed input.
func MustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) f32() color.ColorF32 {
	return color.ColorF32{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), A: clamp01(c.A)}
}

// encode returns the kernel uniform form of c in the given space.
func (c Color) encode(space ColorSpace) kernel.Vec4 {
	v := c.f32()
	if space == Perceptual {
		v = color.EncodeLab(v)
	}
	return v.Vec()
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

// ColorSpace tags the encoding of a layer's channels.
type ColorSpace uint8

const (
	// Perceptual layers hold CIE L*a*b*: R = L, G and B the a and b
	// axes offset into [0, 1]. Blending and blurring happen here.
	Perceptual ColorSpace = iota

	// Display layers hold sRGB, ready for output.
	Display
)

// String returns the colour space name.
func (s ColorSpace) String() string {
	switch s {
	case Perceptual:
		return "perceptual"
	case Display:
		return "display"
	default:
		return fmt.Sprintf("ColorSpace(%d)", uint8(s))
	}
}
