package sdf

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gogpu/sdf/internal/codec"
)

// FrameSequence names and writes the numbered frames of an animation:
// Dir/Prefix_00001.png, Dir/Prefix_00002.png and so on.
type FrameSequence struct {
	Dir    string
	Prefix string

	// Digits is the zero-padded width of the frame number, 5 if zero.
	Digits int

	paths []string
}

// Path returns the file name of frame i, counted from 1.
func (s *FrameSequence) Path(i int) string {
	digits := s.Digits
	if digits <= 0 {
		digits = 5
	}
	prefix := s.Prefix
	if prefix == "" {
		prefix = "frame"
	}
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%0*d.png", prefix, digits, i))
}

// WriteFrame saves l as the next frame and returns its path.
func (s *FrameSequence) WriteFrame(l *Layer) (string, error) {
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o750); err != nil {
			return "", fmt.Errorf("sdf: frames: %w", err)
		}
	}
	path := s.Path(len(s.paths) + 1)
	if err := l.Save(path); err != nil {
		return "", err
	}
	s.paths = append(s.paths, path)
	return path, nil
}

// Frames returns the paths written so far, in order.
func (s *FrameSequence) Frames() []string {
	return append([]string(nil), s.paths...)
}

// Len returns the number of frames written.
func (s *FrameSequence) Len() int { return len(s.paths) }

// Encode hands the frames to enc.
func (s *FrameSequence) Encode(enc Encoder, output string) error {
	return enc.Encode(output, s.Frames())
}

// Encoder assembles saved frames into an animation or video file.
type Encoder interface {
	Encode(output string, frames []string) error
}

// GIFEncoder writes frames as a looping GIF.
type GIFEncoder struct {
	// Delay between frames in hundredths of a second, 4 if zero.
	Delay int
}

// Encode implements Encoder.
func (e GIFEncoder) Encode(output string, frames []string) error {
	delay := e.Delay
	if delay <= 0 {
		delay = 4
	}
	images := make([]image.Image, 0, len(frames))
	for _, path := range frames {
		img, err := codec.Decode(path)
		if err != nil {
			return err
		}
		images = append(images, img)
	}
	return codec.EncodeAnimation(output, images, delay)
}
