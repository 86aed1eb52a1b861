package codec

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / (w - 1)), G: uint8(y * 255 / (h - 1)), B: 64, A: 255})
		}
	}
	return img
}

func TestEncodeDecodePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	src := gradient(8, 4)
	if err := Encode(path, src); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rgba := ToRGBA(got)
	if rgba.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", rgba.Bounds(), src.Bounds())
	}
	for y := range 4 {
		for x := range 8 {
			if rgba.RGBAAt(x, y) != src.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, rgba.RGBAAt(x, y), src.RGBAAt(x, y))
			}
		}
	}
}

func TestEncodeFormats(t *testing.T) {
	dir := t.TempDir()
	src := gradient(4, 4)
	for _, name := range []string{"a.jpg", "a.JPEG", "a.gif", "a.bmp"} {
		if err := Encode(filepath.Join(dir, name), src); err != nil {
			t.Errorf("Encode(%s): %v", name, err)
		}
	}
	if err := Encode(filepath.Join(dir, "a.tiff"), src); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Encode(a.tiff) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDecodeMissing(t *testing.T) {
	if _, err := Decode(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Decode(missing) succeeded")
	}
}

func TestFlipVertical(t *testing.T) {
	src := gradient(3, 5)
	flipped := FlipVertical(src)
	for y := range 5 {
		for x := range 3 {
			if got, want := flipped.RGBAAt(x, y), src.RGBAAt(x, 4-y); got != want {
				t.Fatalf("flipped (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestResize(t *testing.T) {
	got := Resize(gradient(16, 16), 4, 8)
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 8 {
		t.Errorf("Resize bounds = %v, want 4x8", got.Bounds())
	}
}

func TestEncodeAnimation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	if err := EncodeAnimation(path, nil, 4); !errors.Is(err, ErrNoFrames) {
		t.Errorf("EncodeAnimation(nil) error = %v, want ErrNoFrames", err)
	}
	frames := []image.Image{gradient(6, 6), FlipVertical(gradient(6, 6)), gradient(6, 6)}
	if err := EncodeAnimation(path, frames, 4); err != nil {
		t.Fatalf("EncodeAnimation: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(anim.Image) != 3 {
		t.Errorf("animation has %d frames, want 3", len(anim.Image))
	}
	if anim.Delay[1] != 4 {
		t.Errorf("delay = %d, want 4", anim.Delay[1])
	}
}
