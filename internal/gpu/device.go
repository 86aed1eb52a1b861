package gpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// Device errors.
var (
	// ErrTextureReleased is returned when a destroyed texture is used.
	ErrTextureReleased = errors.New("gpu: texture has been released")

	// ErrInvalidDimensions is returned for non-positive texture sizes.
	ErrInvalidDimensions = errors.New("gpu: invalid texture dimensions")

	// ErrAllocation wraps a device failure to allocate texture storage.
	ErrAllocation = errors.New("gpu: texture allocation failed")

	// ErrBindingMismatch is returned when a texture is bound to a unit
	// declared with a different format, or the unit count is wrong.
	ErrBindingMismatch = errors.New("gpu: binding does not match kernel declaration")

	// ErrDataSize is returned when uploaded data does not match the texture size.
	ErrDataSize = errors.New("gpu: data size does not match texture")

	// ErrDeviceClosed is returned when operating on a destroyed device.
	ErrDeviceClosed = errors.New("gpu: device is closed")

	// ErrNotAvailable is returned when no hardware device can be opened.
	ErrNotAvailable = errors.New("gpu: hardware device not available")

	// ErrRegistryClosed is returned when allocating from a closed registry.
	ErrRegistryClosed = errors.New("gpu: registry closed")
)

// WorkgroupSize is the edge length of the square workgroup every kernel
// declares with @workgroup_size(16, 16, 1).
const WorkgroupSize = 16

// UniformBinding is the binding index of the params uniform buffer.
// Texture units occupy bindings 0..N-1.
const UniformBinding = 8

// Format is the texel format of a texture.
type Format uint8

const (
	// FormatR32F stores one float32 per texel (distance fields).
	FormatR32F Format = iota

	// FormatRGBA8 stores four 8-bit normalized channels (colour layers).
	FormatRGBA8
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatR32F:
		return "R32F"
	case FormatRGBA8:
		return "RGBA8"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// BytesPerTexel returns the storage size of one texel.
func (f Format) BytesPerTexel() int {
	return 4
}

// TextureFormat returns the matching WebGPU texture format.
func (f Format) TextureFormat() gputypes.TextureFormat {
	if f == FormatR32F {
		return gputypes.TextureFormatR32Float
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// Filter is the sampling filter declared for a texture.
type Filter uint8

const (
	// FilterLinear samples bilinearly between texel centres.
	FilterLinear Filter = iota

	// FilterNearest samples the closest texel.
	FilterNearest
)

// TextureDescriptor describes a texture to allocate.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format Format
	Filter Filter
}

// SizeBytes returns the storage size of the described texture.
func (d TextureDescriptor) SizeBytes() uint64 {
	//nolint:gosec // G115: dimensions validated positive
	return uint64(d.Width) * uint64(d.Height) * uint64(d.Format.BytesPerTexel())
}

func (d TextureDescriptor) validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Width, d.Height)
	}
	return nil
}

// Texture is a device-owned 2D texel store.
// The device keeps its native storage in the handle.
type Texture struct {
	desc     TextureDescriptor
	handle   any
	released atomic.Bool
}

// NewTexture wraps device storage. Only Device implementations call it.
func NewTexture(desc TextureDescriptor, handle any) *Texture {
	return &Texture{desc: desc, handle: handle}
}

// Handle returns the device storage.
func (t *Texture) Handle() any { return t.handle }

// Descriptor returns the descriptor the texture was created with.
func (t *Texture) Descriptor() TextureDescriptor { return t.desc }

// Width returns the texture width in texels.
func (t *Texture) Width() int { return t.desc.Width }

// Height returns the texture height in texels.
func (t *Texture) Height() int { return t.desc.Height }

// Format returns the texel format.
func (t *Texture) Format() Format { return t.desc.Format }

// Label returns the debug label.
func (t *Texture) Label() string { return t.desc.Label }

// SizeBytes returns the storage size in bytes.
func (t *Texture) SizeBytes() uint64 { return t.desc.SizeBytes() }

// IsReleased reports whether the texture has been destroyed.
func (t *Texture) IsReleased() bool { return t.released.Load() }

// MarkReleased flags the texture as destroyed and reports whether this
// call performed the transition.
func (t *Texture) MarkReleased() bool { return t.released.CompareAndSwap(false, true) }

// String returns a human-readable description.
func (t *Texture) String() string {
	state := "live"
	if t.IsReleased() {
		state = "released"
	}
	return fmt.Sprintf("Texture[%s %dx%d %s %s]", t.desc.Label, t.desc.Width, t.desc.Height, t.desc.Format, state)
}

// Program is a compiled kernel.
type Program struct {
	Label   string
	Units   []Format
	Outputs int
	handle  any
}

// NewProgram wraps a compiled device program. Only Device implementations call it.
func NewProgram(desc ProgramDescriptor, handle any) *Program {
	return &Program{Label: desc.Label, Units: desc.Units, Outputs: desc.Outputs, handle: handle}
}

// Handle returns the device program object.
func (p *Program) Handle() any { return p.handle }

// ProgramDescriptor describes a kernel to compile.
type ProgramDescriptor struct {
	// Label names the kernel; the software device resolves its
	// implementation by this name.
	Label string

	// Source is the WGSL compute shader.
	Source string

	// Units lists the texture format of each binding unit. The first
	// Outputs units are destinations written by the kernel; the rest are
	// read-only operands.
	Units []Format

	// Outputs is the number of destination units, at least 1.
	Outputs int

	// UniformSize is the byte size of the params uniform, 0 if none.
	UniformSize int
}

// Grid is a dispatch size in workgroups.
type Grid struct {
	X, Y, Z uint32
}

// GridFor returns the grid covering a width x height raster with
// WorkgroupSize-square workgroups.
func GridFor(width, height int) Grid {
	//nolint:gosec // G115: dimensions validated positive
	return Grid{
		X: uint32((width + WorkgroupSize - 1) / WorkgroupSize),
		Y: uint32((height + WorkgroupSize - 1) / WorkgroupSize),
		Z: 1,
	}
}

// Dispatch is one kernel invocation.
type Dispatch struct {
	Program *Program
	Grid    Grid

	// Width and Height bound the invocations that touch texels.
	Width, Height int

	// Uniform is the packed params block following the Dims header.
	Uniform []byte

	// Params is the typed parameter struct the uniform was packed from.
	Params any

	// Bindings holds one texture per unit, destination first.
	Bindings []*Texture
}

// Device executes kernels over textures it owns.
//
// Dispatches execute in submission order. Read observes every dispatch
// submitted before it.
type Device interface {
	// Name identifies the device in logs.
	Name() string

	// Compile builds a program from WGSL source.
	Compile(desc ProgramDescriptor) (*Program, error)

	// DestroyProgram frees a compiled program.
	DestroyProgram(p *Program)

	// NewTexture allocates zero-initialized texture storage.
	NewTexture(desc TextureDescriptor) (*Texture, error)

	// DestroyTexture frees texture storage.
	DestroyTexture(t *Texture)

	// Dispatch runs a program.
	Dispatch(d Dispatch) error

	// Read returns the texture contents, bottom row first.
	Read(t *Texture) ([]byte, error)

	// Write replaces the texture contents, bottom row first.
	Write(t *Texture, data []byte) error

	// Destroy releases the device. Textures and programs must be
	// destroyed first.
	Destroy()
}

// CheckBindings validates that the bindings match the declared units.
func CheckBindings(units []Format, bindings []*Texture) error {
	if len(bindings) != len(units) {
		return fmt.Errorf("%w: %d textures bound, %d units declared", ErrBindingMismatch, len(bindings), len(units))
	}
	for i, t := range bindings {
		if t == nil {
			return fmt.Errorf("%w: unit %d is nil", ErrBindingMismatch, i)
		}
		if t.IsReleased() {
			return fmt.Errorf("unit %d: %w", i, ErrTextureReleased)
		}
		if t.Format() != units[i] {
			return fmt.Errorf("%w: unit %d is %s, declared %s", ErrBindingMismatch, i, t.Format(), units[i])
		}
	}
	return nil
}
