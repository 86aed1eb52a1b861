package kernel

import (
	"reflect"

	"github.com/gogpu/sdf/internal/gpu"
)

// Name identifies a kernel in the static table.
type Name string

// Primitives. Each writes one distance field.
const (
	Circle   Name = "circle"
	Rect     Name = "rect"
	Line     Name = "line"
	Bezier   Name = "bezier"
	Triangle Name = "triangle"
	Grid     Name = "grid"
)

// Field combinators.
const (
	Union        Name = "union"
	SmoothMin    Name = "smooth_min"
	Intersection Name = "intersection"
	Subtract     Name = "subtract"
	Interpolate  Name = "interpolate"
	MaskedUnion  Name = "masked_union"
	Abs          Name = "abs"
	Repeat       Name = "repeat"
)

// Post-processing.
const (
	BlurVer9   Name = "blur_ver_9"
	BlurHor9   Name = "blur_hor_9"
	BlurVer13  Name = "blur_ver_13"
	BlurHor13  Name = "blur_hor_13"
	ToLab      Name = "to_lab"
	ToRGB      Name = "to_rgb"
	Dithering  Name = "dithering"
	Dither1Bit Name = "dither_1bit"
	Invert     Name = "invert"
)

// Shading and generators.
const (
	Fill            Name = "fill"
	FillFromTexture Name = "fill_from_texture"
	Outline         Name = "outline"
	ClearColor      Name = "clear_color"
	PerlinNoise     Name = "perlin_noise"
	FilmGrain       Name = "film_grain"
)

// Layer compositing.
const (
	LayerMask    Name = "layer_mask"
	Overlay      Name = "overlay"
	Transparency Name = "transparency"
	Multiply     Name = "multiply"
)

// Entry declares one kernel: its asset, binding units and parameter type.
type Entry struct {
	Name  Name
	Asset string

	// Units lists the texture format bound at each unit, destinations
	// first.
	Units []gpu.Format

	// Outputs is the number of destination units.
	Outputs int

	zero Params
}

// Accepts reports whether p is the parameter type the kernel declares.
func (e Entry) Accepts(p Params) bool {
	return p != nil && reflect.TypeOf(p) == reflect.TypeOf(e.zero)
}

// UniformSize returns the byte size of the kernel's params block.
func (e Entry) UniformSize() int {
	return len(e.zero.Uniform())
}

var (
	r32  = gpu.FormatR32F
	rgba = gpu.FormatRGBA8
)

func entry(name Name, params Params, outputs int, units ...gpu.Format) Entry {
	return Entry{
		Name:    name,
		Asset:   "shaders/" + string(name) + ".wgsl",
		Units:   units,
		Outputs: outputs,
		zero:    params,
	}
}

var table = []Entry{
	entry(Circle, CircleParams{}, 1, r32),
	entry(Rect, RectParams{}, 1, r32),
	entry(Line, LineParams{}, 1, r32),
	entry(Bezier, BezierParams{}, 1, r32),
	entry(Triangle, TriangleParams{}, 1, r32),
	entry(Grid, GridParams{}, 1, r32),

	entry(Union, NoParams{}, 1, r32, r32, r32),
	entry(SmoothMin, SmoothMinParams{}, 1, r32, r32, r32),
	entry(Intersection, NoParams{}, 1, r32, r32, r32),
	entry(Subtract, NoParams{}, 1, r32, r32, r32),
	entry(Interpolate, InterpolateParams{}, 1, r32, r32, r32),
	entry(MaskedUnion, NoParams{}, 2, r32, rgba, r32, r32),
	entry(Abs, NoParams{}, 1, r32, r32),
	entry(Repeat, RepeatParams{}, 1, r32, r32),

	entry(BlurVer9, NoParams{}, 1, rgba, rgba),
	entry(BlurHor9, NoParams{}, 1, rgba, rgba),
	entry(BlurVer13, NoParams{}, 1, rgba, rgba),
	entry(BlurHor13, NoParams{}, 1, rgba, rgba),
	entry(ToLab, NoParams{}, 1, rgba, rgba),
	entry(ToRGB, NoParams{}, 1, rgba, rgba),
	entry(Dithering, NoParams{}, 1, rgba, rgba),
	entry(Dither1Bit, NoParams{}, 1, rgba, rgba),
	entry(Invert, NoParams{}, 1, rgba, rgba),

	entry(Fill, FillParams{}, 1, rgba, r32),
	entry(FillFromTexture, FillFromTextureParams{}, 1, rgba, rgba, r32),
	entry(Outline, OutlineParams{}, 1, rgba, r32),
	entry(ClearColor, ClearParams{}, 1, rgba),
	entry(PerlinNoise, NoiseParams{}, 1, rgba),
	entry(FilmGrain, NoiseParams{}, 1, rgba),

	entry(LayerMask, MaskParams{}, 1, rgba, rgba, rgba, rgba),
	entry(Overlay, NoParams{}, 1, rgba, rgba, rgba),
	entry(Transparency, TransparencyParams{}, 1, rgba, rgba),
	entry(Multiply, NoParams{}, 1, rgba, rgba, rgba),
}

var byName = func() map[Name]Entry {
	m := make(map[Name]Entry, len(table))
	for _, e := range table {
		m[e.Name] = e
	}
	return m
}()

// Lookup returns the table entry for name.
func Lookup(name Name) (Entry, bool) {
	e, ok := byName[name]
	return e, ok
}

// Names returns every kernel name in table order.
func Names() []Name {
	names := make([]Name, len(table))
	for i, e := range table {
		names[i] = e.Name
	}
	return names
}
