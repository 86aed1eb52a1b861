package soft

import (
	"fmt"

	"github.com/chewxy/math32"
	"honnef.co/go/curve"

	"github.com/gogpu/sdf/internal/color"
	"github.com/gogpu/sdf/internal/kernel"
)

// bound holds the storage of each unit of one dispatch.
type bound struct {
	w, h int
	f    [][]float32
	u    [][]uint32
}

// texel computes one invocation.
type texel func(x, y, i int)

// factory binds params and storage, returning the per-texel function.
type factory func(params any, b *bound) (texel, error)

// nearestAccuracy is the tolerance passed to the curve nearest-point solvers.
const nearestAccuracy = 1e-6

var kernels = map[string]factory{
	string(kernel.Circle):   circle,
	string(kernel.Rect):     rect,
	string(kernel.Line):     line,
	string(kernel.Bezier):   bezier,
	string(kernel.Triangle): triangle,
	string(kernel.Grid):     grid,

	string(kernel.Union):        binaryField(math32.Min),
	string(kernel.Intersection): binaryField(math32.Max),
	string(kernel.Subtract):     binaryField(func(a, b float32) float32 { return math32.Max(a, -b) }),
	string(kernel.SmoothMin):    smoothMin,
	string(kernel.Interpolate):  interpolate,
	string(kernel.MaskedUnion):  maskedUnion,
	string(kernel.Abs):          absField,
	string(kernel.Repeat):       repeat,

	string(kernel.BlurVer9):   blur(blur9[:], 0, 1),
	string(kernel.BlurHor9):   blur(blur9[:], 1, 0),
	string(kernel.BlurVer13):  blur(blur13[:], 0, 1),
	string(kernel.BlurHor13):  blur(blur13[:], 1, 0),
	string(kernel.ToLab):      unaryLayer(func(_, _ int, c color.ColorF32) color.ColorF32 { return color.EncodeLab(c) }),
	string(kernel.ToRGB):      unaryLayer(func(_, _ int, c color.ColorF32) color.ColorF32 { return color.DecodeLab(c) }),
	string(kernel.Dithering):  unaryLayer(dither),
	string(kernel.Dither1Bit): unaryLayer(dither1Bit),
	string(kernel.Invert): unaryLayer(func(_, _ int, c color.ColorF32) color.ColorF32 {
		return color.ColorF32{R: 1 - c.R, G: 1 - c.G, B: 1 - c.B, A: c.A}
	}),

	string(kernel.Fill):            fill,
	string(kernel.FillFromTexture): fillFromTexture,
	string(kernel.Outline):         outline,
	string(kernel.ClearColor):      clearColor,
	string(kernel.PerlinNoise):     perlinNoise,
	string(kernel.FilmGrain):       filmGrain,

	string(kernel.LayerMask):    layerMask,
	string(kernel.Overlay):      overlay,
	string(kernel.Transparency): transparency,
	string(kernel.Multiply): binaryLayer(func(a, b color.ColorF32) color.ColorF32 {
		return color.ColorF32{R: a.R * b.R, G: a.G * b.G, B: a.B * b.B, A: a.A * b.A}
	}),
}

func paramsAs[T any](params any) (T, error) {
	p, ok := params.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: got %T, want %T", kernel.ErrParamsMismatch, params, zero)
	}
	return p, nil
}

// Texel helpers.

func unpack(v uint32) color.ColorF32 {
	return color.U8ToF32(color.ColorU8{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: uint8(v >> 24)})
}

func pack(c color.ColorF32) uint32 {
	u := color.F32ToU8(c)
	return uint32(u.R) | uint32(u.G)<<8 | uint32(u.B)<<16 | uint32(u.A)<<24
}

func vec(v kernel.Vec4) color.ColorF32 {
	return color.ColorF32{R: v[0], G: v[1], B: v[2], A: v[3]}
}

func clamp(v, lo, hi float32) float32 {
	return math32.Min(math32.Max(v, lo), hi)
}

func mix(a, b, t float32) float32 { return a*(1-t) + b*t }

func smoothstep(e0, e1, x float32) float32 {
	t := clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func clampi(v, lo, hi int) int { return min(max(v, lo), hi) }

func length(x, y float32) float32 { return math32.Sqrt(x*x + y*y) }

// rotateInv rotates (x, y) by -a radians.
func rotateInv(x, y, a float32) (float32, float32) {
	s, c := math32.Sincos(a)
	return c*x + s*y, -s*x + c*y
}

func pt(v kernel.Vec2) curve.Point { return curve.Pt(float64(v[0]), float64(v[1])) }

// Primitives.

func circle(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.CircleParams](params)
	if err != nil {
		return nil, err
	}
	dst := b.f[0]
	return func(x, y, i int) {
		dst[i] = length(float32(x)-p.Center[0], float32(y)-p.Center[1]) - p.Radius
	}, nil
}

func rect(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.RectParams](params)
	if err != nil {
		return nil, err
	}
	dst := b.f[0]
	return func(x, y, i int) {
		qx, qy := rotateInv(float32(x)-p.Center[0], float32(y)-p.Center[1], p.Angle)
		// top-right, bottom-right, top-left, bottom-left
		var r float32
		switch {
		case qx > 0 && qy > 0:
			r = p.Radii[0]
		case qx > 0:
			r = p.Radii[1]
		case qy > 0:
			r = p.Radii[2]
		default:
			r = p.Radii[3]
		}
		ax := math32.Abs(qx) - p.Size[0]*0.5 + r
		ay := math32.Abs(qy) - p.Size[1]*0.5 + r
		dst[i] = math32.Min(math32.Max(ax, ay), 0) + length(math32.Max(ax, 0), math32.Max(ay, 0)) - r
	}, nil
}

func line(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.LineParams](params)
	if err != nil {
		return nil, err
	}
	seg := curve.Line{P0: pt(p.A), P1: pt(p.B)}
	dst := b.f[0]
	return func(x, y, i int) {
		d2, _ := seg.Nearest(curve.Pt(float64(x), float64(y)), nearestAccuracy)
		dst[i] = math32.Sqrt(float32(d2))
	}, nil
}

func bezier(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.BezierParams](params)
	if err != nil {
		return nil, err
	}
	dst := b.f[0]

	// A curve whose control point sits on the chord midpoint is the
	// straight segment A-C.
	bx := p.A[0] - 2*p.B[0] + p.C[0]
	by := p.A[1] - 2*p.B[1] + p.C[1]
	if bx*bx+by*by < 1e-8 {
		seg := curve.Line{P0: pt(p.A), P1: pt(p.C)}
		return func(x, y, i int) {
			d2, _ := seg.Nearest(curve.Pt(float64(x), float64(y)), nearestAccuracy)
			dst[i] = math32.Sqrt(float32(d2))
		}, nil
	}

	q := curve.QuadBez{P0: pt(p.A), P1: pt(p.B), P2: pt(p.C)}
	return func(x, y, i int) {
		d2, _ := q.Nearest(curve.Pt(float64(x), float64(y)), nearestAccuracy)
		dst[i] = math32.Sqrt(float32(d2))
	}, nil
}

func triangle(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.TriangleParams](params)
	if err != nil {
		return nil, err
	}
	dst := b.f[0]
	pts := [3]kernel.Vec2{p.P0, p.P1, p.P2}
	var ex, ey [3]float32
	for k := range 3 {
		ex[k] = pts[(k+1)%3][0] - pts[k][0]
		ey[k] = pts[(k+1)%3][1] - pts[k][1]
	}
	// Orientation of the winding.
	s := sign(ex[0]*ey[2] - ey[0]*ex[2])

	return func(x, y, i int) {
		px, py := float32(x), float32(y)
		dist := float32(math32.Inf(1))
		side := float32(math32.Inf(1))
		for k := range 3 {
			vx, vy := px-pts[k][0], py-pts[k][1]
			var h float32
			if l2 := ex[k]*ex[k] + ey[k]*ey[k]; l2 > 0 {
				h = clamp((vx*ex[k]+vy*ey[k])/l2, 0, 1)
			}
			qx, qy := vx-ex[k]*h, vy-ey[k]*h
			dist = math32.Min(dist, qx*qx+qy*qy)
			side = math32.Min(side, s*(vx*ey[k]-vy*ex[k]))
		}
		dst[i] = -math32.Sqrt(dist) * sign(side)
	}, nil
}

func sign(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func grid(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.GridParams](params)
	if err != nil {
		return nil, err
	}
	dst := b.f[0]
	cx, cy := p.Cell[0], p.Cell[1]
	return func(x, y, i int) {
		rx, ry := rotateInv(float32(x)-p.Offset[0], float32(y)-p.Offset[1], p.Angle)
		qx := rx - cx*math32.Floor(rx/cx)
		qy := ry - cy*math32.Floor(ry/cy)
		dst[i] = math32.Min(math32.Min(qx, cx-qx), math32.Min(qy, cy-qy))
	}, nil
}

// Field combinators.

func binaryField(op func(a, b float32) float32) factory {
	return func(_ any, b *bound) (texel, error) {
		dst, a, c := b.f[0], b.f[1], b.f[2]
		return func(_, _, i int) { dst[i] = op(a[i], c[i]) }, nil
	}
}

func smoothMin(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.SmoothMinParams](params)
	if err != nil {
		return nil, err
	}
	dst, fa, fb := b.f[0], b.f[1], b.f[2]
	k := p.K
	return func(_, _, i int) {
		da, db := fa[i], fb[i]
		h := clamp(0.5+0.5*(db-da)/k, 0, 1)
		dst[i] = mix(db, da, h) - k*h*(1-h)
	}, nil
}

func interpolate(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.InterpolateParams](params)
	if err != nil {
		return nil, err
	}
	dst, fa, fb := b.f[0], b.f[1], b.f[2]
	return func(_, _, i int) { dst[i] = mix(fa[i], fb[i], p.T) }, nil
}

var (
	maskA = pack(color.ColorF32{R: 1, A: 1})
	maskB = pack(color.ColorF32{G: 1, A: 1})
)

func maskedUnion(_ any, b *bound) (texel, error) {
	dst, mask, fa, fb := b.f[0], b.u[1], b.f[2], b.f[3]
	return func(_, _, i int) {
		da, db := fa[i], fb[i]
		dst[i] = math32.Min(da, db)
		if da <= db {
			mask[i] = maskA
		} else {
			mask[i] = maskB
		}
	}, nil
}

func absField(_ any, b *bound) (texel, error) {
	dst, src := b.f[0], b.f[1]
	return func(_, _, i int) { dst[i] = math32.Abs(src[i]) }, nil
}

func repeat(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.RepeatParams](params)
	if err != nil {
		return nil, err
	}
	dst, src := b.f[0], b.f[1]
	w, h := b.w, b.h
	fetch := func(x, y int) float32 {
		return src[clampi(y, 0, h-1)*w+clampi(x, 0, w-1)]
	}
	px, py := p.Period[0], p.Period[1]
	return func(x, y, i int) {
		qx := float32(x) - px*math32.Floor(float32(x)/px)
		qy := float32(y) - py*math32.Floor(float32(y)/py)
		bx, by := math32.Floor(qx), math32.Floor(qy)
		fx, fy := qx-bx, qy-by
		x0, y0 := int(bx), int(by)
		row0 := mix(fetch(x0, y0), fetch(x0+1, y0), fx)
		row1 := mix(fetch(x0, y0+1), fetch(x0+1, y0+1), fx)
		dst[i] = mix(row0, row1, fy)
	}, nil
}

// Post-processing.

var (
	blur9  = [...]float32{0.2270270270, 0.1945945946, 0.1216216216, 0.0540540541, 0.0162162162}
	blur13 = [...]float32{0.2255859375, 0.1933593750, 0.1208496094, 0.0537109375, 0.0161132812, 0.0029296875, 0.0002441406}
)

func blur(weights []float32, dx, dy int) factory {
	return func(_ any, b *bound) (texel, error) {
		dst, src := b.u[0], b.u[1]
		w, h := b.w, b.h
		tap := func(x, y int) color.ColorF32 {
			return unpack(src[clampi(y, 0, h-1)*w+clampi(x, 0, w-1)])
		}
		return func(x, y, i int) {
			c := tap(x, y)
			sum := [4]float32{c.R * weights[0], c.G * weights[0], c.B * weights[0], c.A * weights[0]}
			for k := 1; k < len(weights); k++ {
				p := tap(x+k*dx, y+k*dy)
				n := tap(x-k*dx, y-k*dy)
				sum[0] += (p.R + n.R) * weights[k]
				sum[1] += (p.G + n.G) * weights[k]
				sum[2] += (p.B + n.B) * weights[k]
				sum[3] += (p.A + n.A) * weights[k]
			}
			dst[i] = pack(color.ColorF32{R: sum[0], G: sum[1], B: sum[2], A: sum[3]})
		}, nil
	}
}

func unaryLayer(op func(x, y int, c color.ColorF32) color.ColorF32) factory {
	return func(_ any, b *bound) (texel, error) {
		dst, src := b.u[0], b.u[1]
		return func(x, y, i int) { dst[i] = pack(op(x, y, unpack(src[i]))) }, nil
	}
}

func binaryLayer(op func(a, b color.ColorF32) color.ColorF32) factory {
	return func(_ any, b *bound) (texel, error) {
		dst, la, lb := b.u[0], b.u[1], b.u[2]
		return func(_, _, i int) { dst[i] = pack(op(unpack(la[i]), unpack(lb[i]))) }, nil
	}
}

var bayer4x4 = [16]float32{0, 8, 2, 10, 12, 4, 14, 6, 3, 11, 1, 9, 15, 7, 13, 5}

func bayer4(x, y int) float32 {
	return (bayer4x4[(y%4)*4+x%4] + 0.5) / 16
}

func dither(x, y int, c color.ColorF32) color.ColorF32 {
	t := bayer4(x, y)
	q := func(v float32) float32 { return math32.Floor(v*7+t) / 7 }
	return color.ColorF32{R: q(c.R), G: q(c.G), B: q(c.B), A: c.A}
}

func dither1Bit(x, y int, c color.ColorF32) color.ColorF32 {
	var v float32
	if color.Luma709(c) > bayer4(x, y) {
		v = 1
	}
	return color.ColorF32{R: v, G: v, B: v, A: c.A}
}

// Shading.

func fill(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.FillParams](params)
	if err != nil {
		return nil, err
	}
	dst, sdf := b.u[0], b.f[1]
	fg, bg := vec(p.Fg), vec(p.Bg)
	return func(_, _, i int) {
		t := smoothstep(p.Inner, p.Outer, sdf[i]-p.Inflate)
		dst[i] = pack(fg.Mix(bg, t))
	}, nil
}

func fillFromTexture(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.FillFromTextureParams](params)
	if err != nil {
		return nil, err
	}
	dst, src, sdf := b.u[0], b.u[1], b.f[2]
	bg := vec(p.Bg)
	return func(_, _, i int) {
		t := smoothstep(-1.5, 0, sdf[i]-p.Inflate)
		dst[i] = pack(unpack(src[i]).Mix(bg, t))
	}, nil
}

func outline(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.OutlineParams](params)
	if err != nil {
		return nil, err
	}
	dst, sdf := b.u[0], b.f[1]
	fg, bg := vec(p.Fg), vec(p.Bg)
	return func(_, _, i int) {
		t := smoothstep(0, p.Width, math32.Abs(sdf[i]-p.Inflate))
		dst[i] = pack(fg.Mix(bg, t))
	}, nil
}

func clearColor(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.ClearParams](params)
	if err != nil {
		return nil, err
	}
	dst := b.u[0]
	v := pack(vec(p.Color))
	return func(_, _, i int) { dst[i] = v }, nil
}

func pcg(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

func gradient(ix, iy int32, seed uint32) (float32, float32) {
	h := pcg((uint32(ix) * 1597334677) ^ pcg(uint32(iy)^seed))
	a := float32(h) * (2 * math32.Pi / 4294967296.0)
	s, c := math32.Sincos(a)
	return c, s
}

func fade(t float32) float32 { return t * t * t * (t*(t*6-15) + 10) }

func perlin(qx, qy float32, seed uint32) float32 {
	cx, cy := math32.Floor(qx), math32.Floor(qy)
	fx, fy := qx-cx, qy-cy
	ix, iy := int32(cx), int32(cy)
	dot := func(ix, iy int32, dx, dy float32) float32 {
		gx, gy := gradient(ix, iy, seed)
		return gx*dx + gy*dy
	}
	n00 := dot(ix, iy, fx, fy)
	n10 := dot(ix+1, iy, fx-1, fy)
	n01 := dot(ix, iy+1, fx, fy-1)
	n11 := dot(ix+1, iy+1, fx-1, fy-1)
	wx, wy := fade(fx), fade(fy)
	return mix(mix(n00, n10, wx), mix(n01, n11, wx), wy)
}

func perlinNoise(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.NoiseParams](params)
	if err != nil {
		return nil, err
	}
	dst := b.u[0]
	return func(x, y, i int) {
		n := perlin(float32(x)/p.Scale, float32(y)/p.Scale, p.Seed)
		v := clamp(0.5+n*0.70710678, 0, 1)
		dst[i] = pack(color.ColorF32{R: v, G: v, B: v, A: 1})
	}, nil
}

func filmGrain(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.NoiseParams](params)
	if err != nil {
		return nil, err
	}
	dst := b.u[0]
	seed := pcg(p.Seed)
	return func(_, _, i int) {
		g := float32(pcg(uint32(i)^seed)) / 4294967295.0
		v := clamp(0.5+(g-0.5)*p.Intensity, 0, 1)
		dst[i] = pack(color.ColorF32{R: v, G: v, B: v, A: 1})
	}, nil
}

// Layer compositing.

func layerMask(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.MaskParams](params)
	if err != nil {
		return nil, err
	}
	dst, bottom, top, mask := b.u[0], b.u[1], b.u[2], b.u[3]
	return func(_, _, i int) {
		m := unpack(mask[i])
		w := color.Luma709(m)
		if p.Perceptual {
			w = m.R
		}
		w *= m.A
		dst[i] = pack(unpack(bottom[i]).Mix(unpack(top[i]), w))
	}, nil
}

func overlay(_ any, b *bound) (texel, error) {
	dst, top, bottom := b.u[0], b.u[1], b.u[2]
	return func(_, _, i int) {
		t, u := unpack(top[i]), unpack(bottom[i])
		a := t.A + u.A*(1-t.A)
		var out color.ColorF32
		if a > 0 {
			k := u.A * (1 - t.A)
			out = color.ColorF32{
				R: (t.R*t.A + u.R*k) / a,
				G: (t.G*t.A + u.G*k) / a,
				B: (t.B*t.A + u.B*k) / a,
			}
		}
		out.A = a
		dst[i] = pack(out)
	}, nil
}

func transparency(params any, b *bound) (texel, error) {
	p, err := paramsAs[kernel.TransparencyParams](params)
	if err != nil {
		return nil, err
	}
	dst, src := b.u[0], b.u[1]
	return func(_, _, i int) {
		c := unpack(src[i])
		c.A *= p.Alpha
		dst[i] = pack(c)
	}, nil
}
