// Command sdfdemo renders a composition with the sdf engine.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/sdf"
	"github.com/gogpu/sdf/text"
)

func main() {
	var (
		width    = flag.Int("width", 800, "image width")
		height   = flag.Int("height", 600, "image height")
		output   = flag.String("output", "demo.png", "output file")
		software = flag.Bool("software", false, "run kernels on the CPU")
		label    = flag.String("text", "sdf", "text to render")
		fontPath = flag.String("font", "", "TrueType font (default Go Regular)")
		frames   = flag.Int("frames", 0, "render a morph animation with this many frames")
		verbose  = flag.Bool("v", false, "log device selection and dispatches")
	)
	flag.Parse()

	if *verbose {
		sdf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var opts []sdf.ContextOption
	if *software {
		opts = append(opts, sdf.WithSoftware())
	}
	ctx, err := sdf.NewContext(*width, *height, opts...)
	if err != nil {
		log.Fatalf("Failed to create context: %v", err)
	}
	defer func() { _ = ctx.Close() }()

	font, err := loadFont(*fontPath)
	if err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}

	if *frames > 0 {
		if err := renderMorph(ctx, *frames, *output); err != nil {
			log.Fatalf("Failed to render animation: %v", err)
		}
		log.Printf("Animation saved to %s (%d frames)\n", *output, *frames)
		return
	}

	out, err := renderScene(ctx, font, *label)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	defer out.Release()
	if err := out.Save(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d, %s)\n", *output, *width, *height, ctx.DeviceName())
}

func loadFont(path string) (*text.Font, error) {
	if path == "" {
		return text.Parse(goregular.TTF)
	}
	return text.Open(path)
}

// renderScene composites a gradient background, a shadowed card and a
// line of text.
func renderScene(ctx *sdf.Context, font *text.Font, label string) (*sdf.Layer, error) {
	bg, err := sdf.LinearGradient(ctx, ctx.PercentPoint(0, 0), ctx.PercentPoint(100, 100),
		sdf.MustHex("#1d2b53"), sdf.MustHex("#7e2553"))
	if err != nil {
		return nil, err
	}
	defer bg.Release()

	card, err := sdf.RoundedRect(ctx, ctx.PercentPoint(50, 50), ctx.PercentPoint(70, 50),
		sdf.Uniform(ctx.PercentOfMin(6)), 0)
	if err != nil {
		return nil, err
	}
	defer card.Release()

	shadow, err := card.Shadow(int(ctx.Pt()*2), ctx.Pt(), 0.6)
	if err != nil {
		return nil, err
	}
	defer shadow.Release()

	cardFill, err := card.Fill(sdf.MustHex("#fff1e8"), sdf.Transparent, sdf.DefaultFill())
	if err != nil {
		return nil, err
	}
	defer cardFill.Release()

	size := ctx.PercentOfMin(20)
	glyphs, err := sdf.TextField(ctx, font, label, size, sdf.Pt(ctx.PercentX(25), ctx.PercentY(50)-size/3))
	if err != nil {
		return nil, err
	}
	defer glyphs.Release()

	ink, err := glyphs.Fill(sdf.MustHex("#ff004d"), sdf.Transparent, sdf.DefaultFill())
	if err != nil {
		return nil, err
	}
	defer ink.Release()

	out, err := bg.AlphaOverlay(shadow)
	if err != nil {
		return nil, err
	}
	for _, l := range []*sdf.Layer{cardFill, ink} {
		next, err := out.AlphaOverlay(l)
		out.Release()
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// renderMorph interpolates a disc into a rounded square and encodes the
// frames as a GIF.
func renderMorph(ctx *sdf.Context, n int, output string) error {
	dir, err := os.MkdirTemp("", "sdfdemo")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	center := ctx.PercentPoint(50, 50)
	disc, err := sdf.Disc(ctx, center, ctx.PercentOfMin(30))
	if err != nil {
		return err
	}
	defer disc.Release()
	square, err := sdf.RoundedRect(ctx, center, ctx.PercentPoint(50, 50), sdf.Uniform(ctx.PercentOfMin(4)), 0.3)
	if err != nil {
		return err
	}
	defer square.Release()

	seq := &sdf.FrameSequence{Dir: dir}
	for i := range n {
		t := float32(i) / float32(max(n-1, 1))
		f, err := disc.Interpolate(square, t)
		if err != nil {
			return err
		}
		l, err := f.Fill(sdf.MustHex("#29adff"), sdf.Black, sdf.DefaultFill())
		f.Release()
		if err != nil {
			return err
		}
		_, err = seq.WriteFrame(l)
		l.Release()
		if err != nil {
			return err
		}
	}
	return seq.Encode(sdf.GIFEncoder{}, output)
}
