package kernel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/sdf/internal/gpu"
)

// Registry errors.
var (
	// ErrMissingAsset is returned when a table entry has no shader source.
	ErrMissingAsset = errors.New("kernel: missing shader asset")

	// ErrUnknownKernel is returned for names outside the static table.
	ErrUnknownKernel = errors.New("kernel: unknown kernel")

	// ErrParamsMismatch is returned when a params block is dispatched to
	// a kernel that declares a different parameter type.
	ErrParamsMismatch = errors.New("kernel: params do not match kernel")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("kernel: registry closed")
)

// CompileError reports a kernel whose source the device rejected.
type CompileError struct {
	Name       Name
	Diagnostic string
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("kernel: compile %s: %s", e.Name, e.Diagnostic)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Kernel is a compiled table entry.
type Kernel struct {
	Entry
	program *gpu.Program
}

// Program returns the compiled device program.
func (k *Kernel) Program() *gpu.Program { return k.program }

// Registry compiles kernels on first use and dispatches them over a fixed
// raster size. A kernel is compiled at most once per registry.
//
// Registry is not safe for concurrent use.
type Registry struct {
	device        gpu.Device
	width, height int
	grid          gpu.Grid
	sources       map[Name]string
	kernels       map[Name]*Kernel
	compiles      int
	closed        bool
}

// NewRegistry resolves the source of every table entry, preferring
// overrides over the embedded assets. A missing source fails the whole
// registry with ErrMissingAsset.
func NewRegistry(device gpu.Device, width, height int, overrides map[Name]string) (*Registry, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", gpu.ErrInvalidDimensions, width, height)
	}
	for name := range overrides {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("%w: override %q", ErrUnknownKernel, name)
		}
	}

	sources := make(map[Name]string, len(table))
	var missing []string
	for _, e := range table {
		src, ok := overrides[e.Name]
		if !ok {
			src, _ = Source(e.Name)
		}
		if src == "" {
			missing = append(missing, string(e.Name))
			continue
		}
		sources[e.Name] = src
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %v", ErrMissingAsset, missing)
	}

	return &Registry{
		device:  device,
		width:   width,
		height:  height,
		grid:    gpu.GridFor(width, height),
		sources: sources,
		kernels: make(map[Name]*Kernel),
	}, nil
}

// Grid returns the dispatch grid covering the raster.
func (r *Registry) Grid() gpu.Grid { return r.grid }

// Compiles returns how many kernels have been compiled.
func (r *Registry) Compiles() int { return r.compiles }

// Kernel returns the compiled kernel, compiling it on first use.
func (r *Registry) Kernel(name Name) (*Kernel, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if k, ok := r.kernels[name]; ok {
		return k, nil
	}
	e, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
	}

	prog, err := r.device.Compile(gpu.ProgramDescriptor{
		Label:       string(name),
		Source:      r.sources[name],
		Units:       e.Units,
		Outputs:     e.Outputs,
		UniformSize: e.UniformSize(),
	})
	if err != nil {
		return nil, &CompileError{Name: name, Diagnostic: err.Error(), Err: err}
	}
	r.compiles++
	gpu.Logger().Debug("kernel: compiled", "kernel", string(name), "device", r.device.Name())

	k := &Kernel{Entry: e, program: prog}
	r.kernels[name] = k
	return k, nil
}

// Dispatch runs the kernel p belongs to. The bindings must match the
// declared units in count and format, destinations first.
func (r *Registry) Dispatch(p Params, bindings ...*gpu.Texture) error {
	if p == nil {
		return fmt.Errorf("%w: nil params", ErrParamsMismatch)
	}
	e, ok := byName[p.Kernel()]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKernel, p.Kernel())
	}
	if !e.Accepts(p) {
		return fmt.Errorf("%w: %T for %s", ErrParamsMismatch, p, e.Name)
	}
	k, err := r.Kernel(e.Name)
	if err != nil {
		return err
	}
	if err := gpu.CheckBindings(k.Units, bindings); err != nil {
		return fmt.Errorf("%s: %w", k.Name, err)
	}
	for i, t := range bindings {
		if t.Width() != r.width || t.Height() != r.height {
			return fmt.Errorf("%s: %w: unit %d is %dx%d, raster is %dx%d",
				k.Name, gpu.ErrBindingMismatch, i, t.Width(), t.Height(), r.width, r.height)
		}
	}

	gpu.Logger().Debug("dispatch", "kernel", string(k.Name))
	return r.device.Dispatch(gpu.Dispatch{
		Program:  k.program,
		Grid:     r.grid,
		Width:    r.width,
		Height:   r.height,
		Uniform:  p.Uniform(),
		Params:   p,
		Bindings: bindings,
	})
}

// Close destroys every compiled program.
func (r *Registry) Close() {
	if r.closed {
		return
	}
	for _, k := range r.kernels {
		r.device.DestroyProgram(k.program)
	}
	r.kernels = nil
	r.closed = true
}
