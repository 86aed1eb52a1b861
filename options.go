package sdf

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/sdf/internal/gpu"
)

// DeviceEnv names the environment variable that selects the device.
// Setting it to "software" forces the software device.
const DeviceEnv = "SDF_DEVICE"

// ContextOption configures a Context during creation.
// Use functional options to customize Context behavior.
//
// Example:
//
//	// Hardware device when available, software otherwise
//	ctx, err := sdf.NewContext(512, 512)
//
//	// Always run kernels on the CPU
//	ctx, err := sdf.NewContext(512, 512, sdf.WithSoftware())
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	device       gpu.Device
	provider     gpucontext.DeviceProvider
	software     bool
	workers      int
	sources      map[string]string
	memoryMB     int
	eagerCompile bool
}

// defaultOptions returns the default context options.
func defaultOptions() contextOptions {
	return contextOptions{
		device: nil, // Selected by NewContext if nil
	}
}

// WithDevice runs kernels on a caller-owned device. The Context does not
// destroy it on Close.
func WithDevice(d gpu.Device) ContextOption {
	return func(o *contextOptions) {
		o.device = d
	}
}

// WithDeviceProvider shares the GPU device of a host application, such as
// a gogpu window. The provider must expose its HAL device and queue.
//
// Example:
//
//	app := gogpu.NewApp(gogpu.DefaultConfig())
//	ctx, err := sdf.NewContext(800, 600, sdf.WithDeviceProvider(app.GPUContextProvider()))
func WithDeviceProvider(p gpucontext.DeviceProvider) ContextOption {
	return func(o *contextOptions) {
		o.provider = p
	}
}

// WithSoftware selects the software device.
func WithSoftware() ContextOption {
	return func(o *contextOptions) {
		o.software = true
	}
}

// WithWorkers sets the worker count of the software device.
// Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) ContextOption {
	return func(o *contextOptions) {
		o.workers = n
	}
}

// WithKernelSources replaces the embedded WGSL of the named kernels.
// Unknown names make NewContext fail.
func WithKernelSources(sources map[string]string) ContextOption {
	return func(o *contextOptions) {
		o.sources = sources
	}
}

// WithMemoryBudget caps the texture storage held by live fields and
// layers, in megabytes. Allocations past the budget fail with
// ErrAllocation.
func WithMemoryBudget(mb int) ContextOption {
	return func(o *contextOptions) {
		o.memoryMB = mb
	}
}

// WithEagerCompile compiles every kernel in NewContext, so a kernel the
// device rejects fails construction with a *CompileError instead of
// failing its first use.
func WithEagerCompile() ContextOption {
	return func(o *contextOptions) {
		o.eagerCompile = true
	}
}
