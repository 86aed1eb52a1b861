// Package sdf builds 2D images from signed distance fields on a GPU.
//
// # Overview
//
// Shapes are distance fields: rasters holding, per texel, the signed
// distance to the shape boundary (negative inside). Fields combine with
// boolean operators and are shaded into colour layers, which composite
// with blending, masking, blur and dithering. Every operation is one or a
// few compute kernel dispatches; pixels stay on the device until a layer
// is read back.
//
// # Quick Start
//
//	ctx, err := sdf.NewContext(512, 512)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	disc, _ := sdf.Disc(ctx, sdf.Pt(256, 256), 100)
//	defer disc.Release()
//
//	layer, _ := disc.Fill(sdf.White, sdf.Black, sdf.DefaultFill())
//	defer layer.Release()
//
//	layer.Save("disc.png")
//
// # Types
//
// A Field and a Layer are distinct types backed by distinct texture
// formats, so a field can never be bound where a layer is expected.
// Both are immutable: operators return new values and leave their
// operands alone. Each owns one device texture until Release; the
// Context counts live textures (Context.Live) so leaks show up in tests.
//
// Layers carry a ColorSpace. Perceptual layers hold CIE L*a*b* and are
// where colours mix; Display layers hold sRGB for output. Mixing layers
// with different tags fails with ErrColorSpaceMismatch. Convert
// explicitly with ToDisplay and ToPerceptual.
//
// # Coordinate System
//
// Texel coordinates start at the bottom-left corner with Y increasing
// upwards, matching the device texture layout. Image and Save flip rows
// so the written file has the usual top-down orientation.
//
// # Devices
//
// NewContext uses the Vulkan device when one is available and the
// software device otherwise. WithSoftware, or SDF_DEVICE=software in the
// environment, forces the software device, which runs the same kernels
// on a worker pool. Build with -tags nogpu to drop the hardware backend.
//
// # Text
//
// Package text extracts glyph outlines and shapes strings; TextField and
// GlyphField turn them into fields.
package sdf
