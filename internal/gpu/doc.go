// Package gpu defines the device contract used by the sdf engine and the
// resource accounting built on top of it.
//
// A [Device] owns raw texture storage, compiles kernel programs and
// dispatches them over a 2D grid of 16x16 workgroups. Two implementations
// exist: the hal device in this package, which drives a real adapter
// through github.com/gogpu/wgpu/hal (disabled with the nogpu build tag),
// and the software device in internal/soft.
//
// # Textures
//
// Textures are stored as tightly packed rows, bottom row first. Both
// supported formats use four bytes per texel:
//
//   - [FormatR32F]: one little-endian float32 distance per texel
//   - [FormatRGBA8]: four unsigned normalized channels (r, g, b, a)
//
// On the hal device a texture is a storage buffer, so kernels address
// texels as array<f32> or array<u32> with index y*width + x.
//
// # Resource accounting
//
// [Registry] wraps a device and tracks every texture it hands out: the
// live count, the peak count and the bytes in use. [LiveTextures] reports
// the process-wide total across all registries.
package gpu
