//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// dimsSize is the byte size of the Dims header every kernel uniform starts with.
const dimsSize = 16

// maxPendingDispatches bounds the uniform buffers, bind groups and command
// buffers held between synchronization points.
const maxPendingDispatches = 64

// halProgram holds the pipeline objects of one compiled kernel.
type halProgram struct {
	module      hal.ShaderModule
	bindLayout  hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipeline    hal.ComputePipeline
	uniformSize uint64
}

// HALDevice runs kernels on a GPU through wgpu/hal compute pipelines.
// Textures are storage buffers; fields are array<f32> and layers are
// array<u32> holding packed RGBA8 texels.
//
// Dispatch submits without waiting. Per-dispatch uniforms and bind groups
// are kept until the next synchronization point so the GPU never sees
// freed objects; a synchronization happens on Read, Write, DestroyTexture
// and Destroy, and after every maxPendingDispatches dispatches.
type HALDevice struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string

	pendingBuffers    []hal.Buffer
	pendingBindGroups []hal.BindGroup
	pendingCmdBuffers []hal.CommandBuffer

	externalDevice bool // true when using a shared device (don't destroy it)
	closed         bool
}

var _ Device = (*HALDevice)(nil)

// OpenHAL opens the first discrete or integrated adapter of the Vulkan
// backend, falling back to the first adapter reported.
func OpenHAL() (*HALDevice, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrNotAvailable)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNotAvailable, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no GPU adapters found", ErrNotAvailable)
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrNotAvailable, err)
	}
	Logger().Info("gpu: adapter selected", "name", selected.Info.Name, "type", selected.Info.DeviceType.String())
	return &HALDevice{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     "hal:" + selected.Info.Name,
	}, nil
}

// NewHALDeviceFromProvider uses a shared GPU device from an external
// provider (e.g. a gpucontext.DeviceProvider from gogpu). The provider
// must implement HalDevice() any and HalQueue() any returning hal.Device
// and hal.Queue. The shared device is not destroyed by Destroy.
func NewHALDeviceFromProvider(provider any) (*HALDevice, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	Logger().Info("gpu: using shared device")
	return &HALDevice{device: device, queue: queue, name: "hal:shared", externalDevice: true}, nil
}

// Name returns the device name.
func (d *HALDevice) Name() string { return d.name }

// Compile translates WGSL to SPIR-V with naga and builds a compute
// pipeline whose bind group layout follows desc.Units: destination units
// are read-write storage buffers, operands are read-only storage buffers
// and the params uniform sits at UniformBinding.
func (d *HALDevice) Compile(desc ProgramDescriptor) (*Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}

	spirv, err := compileSPIRV(desc.Source)
	if err != nil {
		return nil, err
	}

	p := &halProgram{uniformSize: uniformBlockSize(desc.UniformSize)}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %s: %w", desc.Label, err)
	}
	p.module = module

	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(desc.Units)+1)
	for i := range desc.Units {
		typ := gputypes.BufferBindingTypeReadOnlyStorage
		if i < desc.Outputs {
			typ = gputypes.BufferBindingTypeStorage
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			//nolint:gosec // G115: unit count is tiny
			Binding: uint32(i), Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: typ},
		})
	}
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding: UniformBinding, Visibility: gputypes.ShaderStageCompute,
		Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	})

	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: desc.Label + "_bind_layout", Entries: entries,
	})
	if err != nil {
		d.destroyProgramLocked(p)
		return nil, fmt.Errorf("create bind group layout %s: %w", desc.Label, err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: desc.Label + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		d.destroyProgramLocked(p)
		return nil, fmt.Errorf("create pipeline layout %s: %w", desc.Label, err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: desc.Label + "_pipeline", Layout: pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		d.destroyProgramLocked(p)
		return nil, fmt.Errorf("create compute pipeline %s: %w", desc.Label, err)
	}
	p.pipeline = pipeline

	return NewProgram(desc, p), nil
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// uniformBlockSize returns the uniform buffer size for a params block of
// n bytes: the Dims header plus the block rounded up to 16 bytes.
func uniformBlockSize(n int) uint64 {
	//nolint:gosec // G115: params blocks are small
	return dimsSize + uint64((n+15)&^15)
}

// DestroyProgram frees the pipeline objects of a program.
func (d *HALDevice) DestroyProgram(p *Program) {
	if p == nil {
		return
	}
	hp, ok := p.Handle().(*halProgram)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	_ = d.syncLocked()
	d.destroyProgramLocked(hp)
}

func (d *HALDevice) destroyProgramLocked(p *halProgram) {
	if p.pipeline != nil {
		d.device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		d.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		d.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.module != nil {
		d.device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// NewTexture allocates a zero-filled storage buffer.
func (d *HALDevice) NewTexture(desc TextureDescriptor) (*Texture, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	size := desc.SizeBytes()
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label, Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage buffer: %w", err)
	}
	if err := d.queue.WriteBuffer(buf, 0, make([]byte, size)); err != nil {
		d.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("clear storage buffer: %w", err)
	}
	return NewTexture(desc, buf), nil
}

// DestroyTexture waits for submitted work that may read the texture and
// frees its buffer before returning. If the wait fails the buffer is
// freed at the next synchronization point instead.
func (d *HALDevice) DestroyTexture(t *Texture) {
	buf, ok := t.Handle().(hal.Buffer)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if err := d.syncLocked(); err != nil {
		Logger().Warn("gpu: sync before texture destroy failed", "texture", t.Label(), "err", err)
		d.pendingBuffers = append(d.pendingBuffers, buf)
		return
	}
	d.device.DestroyBuffer(buf)
}

// Dispatch encodes one compute pass and submits it.
func (d *HALDevice) Dispatch(dp Dispatch) error {
	p, ok := dp.Program.Handle().(*halProgram)
	if !ok {
		return fmt.Errorf("gpu: program %s was not compiled by this device", dp.Program.Label)
	}
	if err := CheckBindings(dp.Program.Units, dp.Bindings); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}

	uniform := make([]byte, p.uniformSize)
	//nolint:gosec // G115: dimensions validated positive
	binary.LittleEndian.PutUint32(uniform[0:], uint32(dp.Width))
	//nolint:gosec // G115: dimensions validated positive
	binary.LittleEndian.PutUint32(uniform[4:], uint32(dp.Height))
	copy(uniform[dimsSize:], dp.Uniform)

	ub, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: dp.Program.Label + "_params", Size: p.uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	d.pendingBuffers = append(d.pendingBuffers, ub)
	if err := d.queue.WriteBuffer(ub, 0, uniform); err != nil {
		return fmt.Errorf("write uniform buffer: %w", err)
	}

	entries := make([]gputypes.BindGroupEntry, 0, len(dp.Bindings)+1)
	for i, t := range dp.Bindings {
		buf, ok := t.Handle().(hal.Buffer)
		if !ok {
			return fmt.Errorf("%w: unit %d was not allocated by this device", ErrBindingMismatch, i)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			//nolint:gosec // G115: unit count is tiny
			Binding:  uint32(i),
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: t.SizeBytes()},
		})
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  UniformBinding,
		Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: p.uniformSize},
	})
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: dp.Program.Label + "_bind", Layout: p.bindLayout, Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	d.pendingBindGroups = append(d.pendingBindGroups, bg)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: dp.Program.Label + "_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(dp.Program.Label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: dp.Program.Label + "_pass"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(dp.Grid.X, dp.Grid.Y, dp.Grid.Z)
	pass.End()
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	d.pendingCmdBuffers = append(d.pendingCmdBuffers, cmdBuf)
	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if len(d.pendingCmdBuffers) >= maxPendingDispatches {
		return d.syncLocked()
	}
	return nil
}

// Read copies the texture into a staging buffer and maps it after all
// submitted work has completed.
func (d *HALDevice) Read(t *Texture) ([]byte, error) {
	buf, ok := t.Handle().(hal.Buffer)
	if !ok {
		return nil, fmt.Errorf("gpu: texture %s was not allocated by this device", t.Label())
	}
	if t.IsReleased() {
		return nil, ErrTextureReleased
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}

	size := t.SizeBytes()
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: t.Label() + "_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "readback_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(buf, staging, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: size}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	d.pendingCmdBuffers = append(d.pendingCmdBuffers, cmdBuf)
	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if err := d.syncLocked(); err != nil {
		return nil, err
	}

	mapping, err := d.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(mapping.Ptr), size))
	if err := d.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return out, nil
}

// Write uploads texture contents after all submitted work has completed.
func (d *HALDevice) Write(t *Texture, data []byte) error {
	buf, ok := t.Handle().(hal.Buffer)
	if !ok {
		return fmt.Errorf("gpu: texture %s was not allocated by this device", t.Label())
	}
	if t.IsReleased() {
		return ErrTextureReleased
	}
	if uint64(len(data)) != t.SizeBytes() {
		return fmt.Errorf("%w: %d bytes for %d", ErrDataSize, len(data), t.SizeBytes())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if err := d.syncLocked(); err != nil {
		return err
	}
	return d.queue.WriteBuffer(buf, 0, data)
}

// syncLocked waits for the GPU to go idle and frees the transient objects
// of completed dispatches. Caller must hold mu.
func (d *HALDevice) syncLocked() error {
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	for _, cb := range d.pendingCmdBuffers {
		d.device.FreeCommandBuffer(cb)
	}
	for _, bg := range d.pendingBindGroups {
		d.device.DestroyBindGroup(bg)
	}
	for _, b := range d.pendingBuffers {
		d.device.DestroyBuffer(b)
	}
	d.pendingCmdBuffers = d.pendingCmdBuffers[:0]
	d.pendingBindGroups = d.pendingBindGroups[:0]
	d.pendingBuffers = d.pendingBuffers[:0]
	return nil
}

// Destroy waits for outstanding work and releases the device and instance
// unless they are shared.
func (d *HALDevice) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if err := d.syncLocked(); err != nil {
		Logger().Warn("gpu: sync before destroy failed", "err", err)
	}
	d.closed = true
	if d.externalDevice {
		// Don't destroy shared resources, we don't own them
		d.device = nil
		d.queue = nil
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
}
