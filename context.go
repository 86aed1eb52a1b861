package sdf

import (
	"fmt"
	"os"

	"github.com/gogpu/sdf/internal/gpu"
	"github.com/gogpu/sdf/internal/kernel"
	"github.com/gogpu/sdf/internal/soft"
)

// Device executes kernels. Implementations live in internal packages;
// callers pass one to WithDevice to share it between contexts.
type Device = gpu.Device

// Stats contains texture accounting for one context.
type Stats = gpu.Stats

// DispatchGrid is a dispatch size in 16x16 workgroups.
type DispatchGrid = gpu.Grid

// Context owns a device, the compiled kernels and every texture created
// for one raster size. Fields and layers produced by its factories and
// operators share its dimensions.
//
// A Context is not safe for concurrent use.
type Context struct {
	width, height int

	device     gpu.Device
	ownsDevice bool

	textures *gpu.Registry
	kernels  *kernel.Registry

	closed bool
}

// NewContext creates a context for width x height rasters.
//
// Kernels compile on first use unless WithEagerCompile is given. Every
// kernel must have a source; a missing one fails with ErrMissingAsset.
func NewContext(width, height int, opts ...ContextOption) (*Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	overrides := make(map[kernel.Name]string, len(o.sources))
	for name, src := range o.sources {
		overrides[kernel.Name(name)] = src
	}

	device, owns, err := selectDevice(&o)
	if err != nil {
		return nil, err
	}
	destroy := func() {
		if owns {
			device.Destroy()
		}
	}

	kernels, err := kernel.NewRegistry(device, width, height, overrides)
	if err != nil {
		destroy()
		return nil, fmt.Errorf("sdf: %w", err)
	}
	if o.eagerCompile {
		for _, name := range kernel.Names() {
			if _, err := kernels.Kernel(name); err != nil {
				kernels.Close()
				destroy()
				return nil, err
			}
		}
	}

	Logger().Info("sdf: context created", "device", device.Name(), "width", width, "height", height)
	return &Context{
		width:      width,
		height:     height,
		device:     device,
		ownsDevice: owns,
		textures:   gpu.NewRegistry(device, gpu.RegistryConfig{MaxMemoryMB: o.memoryMB}),
		kernels:    kernels,
	}, nil
}

// selectDevice picks the device in order: explicit device, shared
// provider, forced software, hardware, software fallback. The boolean
// reports whether the context owns the device.
func selectDevice(o *contextOptions) (gpu.Device, bool, error) {
	if o.device != nil {
		return o.device, false, nil
	}
	if o.provider != nil {
		d, err := gpu.NewHALDeviceFromProvider(o.provider)
		if err != nil {
			return nil, false, fmt.Errorf("sdf: device provider: %w", err)
		}
		return d, true, nil
	}
	if o.software || os.Getenv(DeviceEnv) == "software" {
		return soft.New(o.workers), true, nil
	}
	d, err := gpu.OpenHAL()
	if err != nil {
		Logger().Info("sdf: hardware device unavailable, using software", "err", err)
		return soft.New(o.workers), true, nil
	}
	return d, true, nil
}

// Close releases every texture still alive, the compiled kernels and the
// device unless it was supplied by the caller. Textures alive at Close
// are logged as a warning. Close is idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if leaked := c.textures.Close(); leaked > 0 {
		Logger().Warn("sdf: textures still live at close", "count", leaked)
	}
	c.kernels.Close()
	if c.ownsDevice {
		c.device.Destroy()
	}
	return nil
}

// Width returns the raster width in texels.
func (c *Context) Width() int { return c.width }

// Height returns the raster height in texels.
func (c *Context) Height() int { return c.height }

// Size returns the raster width and height.
func (c *Context) Size() (int, int) { return c.width, c.height }

// Grid returns the dispatch grid covering the raster.
func (c *Context) Grid() DispatchGrid { return c.kernels.Grid() }

// Stats returns a snapshot of the texture accounting.
func (c *Context) Stats() Stats { return c.textures.Stats() }

// Live returns the number of fields and layers not yet released.
func (c *Context) Live() int { return c.textures.Live() }

// DeviceName identifies the device kernels run on.
func (c *Context) DeviceName() string { return c.device.Name() }

// Compiles returns how many kernels have been compiled so far.
func (c *Context) Compiles() int { return c.kernels.Compiles() }

func (c *Context) alive() error {
	if c == nil {
		return ErrNilOperand
	}
	if c.closed {
		return ErrContextClosed
	}
	return nil
}

// field allocates a field and runs p into it with the given operands.
// The destination is released if the dispatch fails.
func (c *Context) field(p kernel.Params, operands ...*gpu.Texture) (*Field, error) {
	tex, err := c.textures.AllocField(c.width, c.height)
	if err != nil {
		return nil, err
	}
	if err := c.dispatch(p, tex, operands...); err != nil {
		c.textures.Release(tex)
		return nil, err
	}
	return &Field{ctx: c, tex: tex}, nil
}

// layer is field for layers tagged with space.
func (c *Context) layer(space ColorSpace, p kernel.Params, operands ...*gpu.Texture) (*Layer, error) {
	tex, err := c.textures.AllocLayer(c.width, c.height)
	if err != nil {
		return nil, err
	}
	if err := c.dispatch(p, tex, operands...); err != nil {
		c.textures.Release(tex)
		return nil, err
	}
	return &Layer{ctx: c, tex: tex, space: space}, nil
}

func (c *Context) dispatch(p kernel.Params, dst *gpu.Texture, operands ...*gpu.Texture) error {
	bindings := make([]*gpu.Texture, 0, 1+len(operands))
	bindings = append(bindings, dst)
	bindings = append(bindings, operands...)
	if err := c.kernels.Dispatch(p, bindings...); err != nil {
		return fmt.Errorf("sdf: %s: %w", p.Kernel(), err)
	}
	return nil
}

// read returns the texture contents, bottom row first.
func (c *Context) read(tex *gpu.Texture) ([]byte, error) {
	data, err := c.device.Read(tex)
	if err != nil {
		return nil, fmt.Errorf("sdf: read: %w", err)
	}
	return data, nil
}
