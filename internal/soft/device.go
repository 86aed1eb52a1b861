// Package soft implements gpu.Device on the CPU.
//
// Each kernel has a Go implementation that follows its WGSL source texel
// for texel. A dispatch is split into 16x16 workgroups executed on a
// worker pool, and returns once every workgroup has finished, so reads
// always observe all prior dispatches.
package soft

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/sdf/internal/gpu"
	"github.com/gogpu/sdf/internal/parallel"
)

// texels is the storage of one texture. Fields use f, layers use u with
// RGBA8 packed little-endian (R in the low byte), the WGSL pack4x8unorm
// layout.
type texels struct {
	f []float32
	u []uint32
}

// Device is the software device.
//
// Device is safe for concurrent use; dispatches are serialized.
type Device struct {
	mu     sync.Mutex
	pool   *parallel.WorkerPool
	closed bool

	dispatches atomic.Uint64
}

var _ gpu.Device = (*Device)(nil)

// New creates a software device running workgroups on the given number
// of workers. Zero or negative uses GOMAXPROCS.
func New(workers int) *Device {
	return &Device{pool: parallel.NewWorkerPool(workers)}
}

// Name returns "software".
func (d *Device) Name() string { return "software" }

// Workers returns the size of the worker pool.
func (d *Device) Workers() int { return d.pool.Workers() }

// Dispatches returns the number of dispatches executed.
func (d *Device) Dispatches() uint64 { return d.dispatches.Load() }

// Compile resolves the Go implementation of the kernel named by the
// descriptor label. The WGSL source must be non-empty and declare an
// entry point; it is otherwise not interpreted.
func (d *Device) Compile(desc gpu.ProgramDescriptor) (*gpu.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	if strings.TrimSpace(desc.Source) == "" {
		return nil, fmt.Errorf("empty source")
	}
	if !strings.Contains(desc.Source, "fn main(") {
		return nil, fmt.Errorf("entry point main not found")
	}
	impl, ok := kernels[desc.Label]
	if !ok {
		return nil, fmt.Errorf("no software implementation of %q", desc.Label)
	}
	return gpu.NewProgram(desc, impl), nil
}

// DestroyProgram is a no-op; programs hold no storage.
func (d *Device) DestroyProgram(*gpu.Program) {}

// NewTexture allocates zeroed storage.
func (d *Device) NewTexture(desc gpu.TextureDescriptor) (*gpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", gpu.ErrInvalidDimensions, desc.Width, desc.Height)
	}
	n := desc.Width * desc.Height
	s := &texels{}
	if desc.Format == gpu.FormatR32F {
		s.f = make([]float32, n)
	} else {
		s.u = make([]uint32, n)
	}
	return gpu.NewTexture(desc, s), nil
}

// DestroyTexture drops the texture storage.
func (d *Device) DestroyTexture(t *gpu.Texture) {
	if s, ok := t.Handle().(*texels); ok {
		s.f, s.u = nil, nil
	}
}

// Dispatch runs the program over every workgroup of the grid.
func (d *Device) Dispatch(dp gpu.Dispatch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpu.ErrDeviceClosed
	}
	impl, ok := dp.Program.Handle().(factory)
	if !ok {
		return fmt.Errorf("soft: program %s was not compiled by this device", dp.Program.Label)
	}

	b := &bound{w: dp.Width, h: dp.Height}
	b.f = make([][]float32, len(dp.Bindings))
	b.u = make([][]uint32, len(dp.Bindings))
	for i, t := range dp.Bindings {
		s, ok := t.Handle().(*texels)
		if !ok {
			return fmt.Errorf("soft: unit %d: %w", i, gpu.ErrBindingMismatch)
		}
		b.f[i], b.u[i] = s.f, s.u
	}

	run, err := impl(dp.Params, b)
	if err != nil {
		return fmt.Errorf("soft: %s: %w", dp.Program.Label, err)
	}

	gx, gy := int(dp.Grid.X), int(dp.Grid.Y)
	d.pool.Range(gx*gy, func(g int) {
		x0 := (g % gx) * gpu.WorkgroupSize
		y0 := (g / gx) * gpu.WorkgroupSize
		for y := y0; y < y0+gpu.WorkgroupSize && y < b.h; y++ {
			for x := x0; x < x0+gpu.WorkgroupSize && x < b.w; x++ {
				run(x, y, y*b.w+x)
			}
		}
	})
	d.dispatches.Add(1)
	return nil
}

// Read returns the texture contents, 4 bytes per texel little-endian.
func (d *Device) Read(t *gpu.Texture) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	s, ok := t.Handle().(*texels)
	if !ok {
		return nil, gpu.ErrTextureReleased
	}
	out := make([]byte, t.SizeBytes())
	if s.f != nil {
		for i, v := range s.f {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
	} else {
		for i, v := range s.u {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
	}
	return out, nil
}

// Write replaces the texture contents.
func (d *Device) Write(t *gpu.Texture, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpu.ErrDeviceClosed
	}
	if uint64(len(data)) != t.SizeBytes() {
		return fmt.Errorf("%w: %d bytes for %s", gpu.ErrDataSize, len(data), t)
	}
	s, ok := t.Handle().(*texels)
	if !ok {
		return gpu.ErrTextureReleased
	}
	if s.f != nil {
		for i := range s.f {
			s.f[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	} else {
		for i := range s.u {
			s.u[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return nil
}

// Destroy stops the worker pool.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.pool.Close()
}
