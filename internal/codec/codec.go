// Package codec reads and writes raster images for layers and fields.
package codec

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

// Codec errors.
var (
	// ErrUnsupportedFormat is returned for file extensions without an encoder.
	ErrUnsupportedFormat = errors.New("codec: unsupported format")

	// ErrNoFrames is returned when encoding an animation without frames.
	ErrNoFrames = errors.New("codec: no frames")
)

// JPEGQuality is the quality used when saving .jpg files.
const JPEGQuality = 95

// Decode loads a PNG, JPEG or GIF file.
func Decode(path string) (image.Image, error) {
	img, err := imgio.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", path, err)
	}
	return img, nil
}

// Encode saves img in the format named by the file extension:
// .png, .jpg/.jpeg, .gif or .bmp.
func Encode(path string, img image.Image) error {
	enc, err := encoderFor(path)
	if err != nil {
		return err
	}
	if err := imgio.Save(filepath.Clean(path), img, enc); err != nil {
		return fmt.Errorf("codec: encode %s: %w", path, err)
	}
	return nil
}

func encoderFor(path string) (imgio.Encoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return imgio.PNGEncoder(), nil
	case ".jpg", ".jpeg":
		return imgio.JPEGEncoder(JPEGQuality), nil
	case ".bmp":
		return imgio.BMPEncoder(), nil
	case ".gif":
		return func(w io.Writer, img image.Image) error {
			return gif.Encode(w, img, nil)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ToRGBA returns img as an RGBA image with origin (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	return clone.AsRGBA(img)
}

// FlipVertical returns a copy of img with the rows in reverse order.
// Device textures store the bottom row first.
func FlipVertical(img image.Image) *image.RGBA {
	return transform.FlipV(img)
}

// Resize scales img to width x height with a linear filter.
func Resize(img image.Image, width, height int) *image.RGBA {
	return transform.Resize(img, width, height, transform.Linear)
}

// EncodeAnimation writes frames as a looping GIF with delay hundredths of
// a second between frames. Frames are quantized to the web-safe palette.
func EncodeAnimation(path string, frames []image.Image, delay int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	anim := &gif.GIF{}
	for _, f := range frames {
		b := f.Bounds()
		p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.WebSafe)
		draw.FloydSteinberg.Draw(p, p.Bounds(), f, b.Min)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, delay)
	}

	out, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if err := gif.EncodeAll(out, anim); err != nil {
		_ = out.Close()
		return fmt.Errorf("codec: encode %s: %w", path, err)
	}
	return out.Close()
}
