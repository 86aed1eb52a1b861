package text

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// Glyph is one shaped glyph positioned relative to the start of the line.
type Glyph struct {
	ID GlyphID

	// X and Y are the pen position in pixels, y up.
	X, Y float32

	// Advance is the horizontal advance in pixels.
	Advance float32

	// Cluster is the index of the first rune of the source cluster in
	// the normalized string.
	Cluster int
}

// shaperState holds the lazily parsed go-text font and a reusable shaper.
type shaperState struct {
	once sync.Once
	font *font.Font
	err  error

	mu     sync.Mutex
	shaper shaping.HarfbuzzShaper
}

func (f *Font) shapingFont() (*font.Font, error) {
	f.shaper.once.Do(func() {
		face, err := font.ParseTTF(bytes.NewReader(f.data))
		if err != nil {
			f.shaper.err = fmt.Errorf("text: parse font for shaping: %w", err)
			return
		}
		f.shaper.font = face.Font
	})
	return f.shaper.font, f.shaper.err
}

// Layout shapes s left to right at size pixels per em. The string is
// NFC-normalized first so composed and decomposed input shape alike.
func (f *Font) Layout(s string, size float64) ([]Glyph, error) {
	s = norm.NFC.String(s)
	if s == "" {
		return nil, nil
	}
	gf, err := f.shapingFont()
	if err != nil {
		return nil, err
	}

	runes := []rune(s)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(gf),
		Size:      fixed.Int26_6(size * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	f.shaper.mu.Lock()
	out := f.shaper.shaper.Shape(input)
	f.shaper.mu.Unlock()

	glyphs := make([]Glyph, len(out.Glyphs))
	var pen float32
	for i, g := range out.Glyphs {
		glyphs[i] = Glyph{
			ID:      GlyphID(uint16(g.GlyphID)), //nolint:gosec // glyph ids fit in uint16
			X:       pen + fixedToFloat(g.XOffset),
			Y:       fixedToFloat(g.YOffset),
			Advance: fixedToFloat(g.Advance),
			Cluster: g.TextIndex(),
		}
		pen += glyphs[i].Advance
	}
	return glyphs, nil
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
