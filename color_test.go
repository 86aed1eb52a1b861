package sdf

import (
	"errors"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ffffff", White},
		{"#000000", Black},
		{"#ff0000", RGB(1, 0, 0)},
		{"#f00", RGB(1, 0, 0)},
		{"#00ff0080", RGBA(0, 1, 0, 128.0/255)},
		{" #0000ff ", RGB(0, 0, 1)},
	}
	for _, tt := range tests {
		got, err := Hex(tt.in)
		if err != nil {
			t.Errorf("Hex(%q): %v", tt.in, err)
			continue
		}
		if !colorNear(got, tt.want, 1e-6) {
			t.Errorf("Hex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "ffffff", "#ggg", "#00ff00zz"} {
		if _, err := Hex(in); !errors.Is(err, ErrInvalidColor) {
			t.Errorf("Hex(%q) error = %v, want ErrInvalidColor", in, err)
		}
	}
}

func TestMustHexPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustHex(bad) did not panic")
		}
	}()
	MustHex("nope")
}

func TestRGB255(t *testing.T) {
	if got := RGB255(255, 0, 51); !colorNear(got, RGB(1, 0, 0.2), 1e-6) {
		t.Errorf("RGB255(255, 0, 51) = %v, want (1, 0, 0.2)", got)
	}
}

func TestColorEncode(t *testing.T) {
	// Out of range components are clamped before encoding.
	got := RGBA(2, -1, 0.5, 3).encode(Display)
	if got[0] != 1 || got[1] != 0 || got[2] != 0.5 || got[3] != 1 {
		t.Errorf("encode(Display) = %v, want [1 0 0.5 1]", got)
	}

	lab := White.encode(Perceptual)
	if lab[0] < 0.999 || lab[1] < 0.5 || lab[1] > 0.503 || lab[3] != 1 {
		t.Errorf("encode(Perceptual) of white = %v, want L=1 and neutral a", lab)
	}
}

func TestColorSpaceString(t *testing.T) {
	tests := []struct {
		s    ColorSpace
		want string
	}{
		{Perceptual, "perceptual"},
		{Display, "display"},
		{ColorSpace(9), "ColorSpace(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func colorNear(a, b Color, eps float32) bool {
	near := func(x, y float32) bool {
		d := x - y
		return d <= eps && d >= -eps
	}
	return near(a.R, b.R) && near(a.G, b.G) && near(a.B, b.B) && near(a.A, b.A)
}
