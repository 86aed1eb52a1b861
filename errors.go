package sdf

import (
	"errors"

	"github.com/gogpu/sdf/internal/gpu"
	"github.com/gogpu/sdf/internal/kernel"
)

// Contract errors. They report a call that can never succeed with the
// given operands.
var (
	// ErrContextClosed is returned by any operation on a closed Context
	// or on fields and layers it owns.
	ErrContextClosed = errors.New("sdf: context closed")

	// ErrReleased is returned when a released Field or Layer is used.
	ErrReleased = errors.New("sdf: texture released")

	// ErrNilOperand is returned when a nil Field or Layer is passed.
	ErrNilOperand = errors.New("sdf: nil operand")

	// ErrContextMismatch is returned when operands belong to different contexts.
	ErrContextMismatch = errors.New("sdf: operands belong to different contexts")

	// ErrSizeMismatch is returned when an operand or image does not match
	// the context raster size.
	ErrSizeMismatch = errors.New("sdf: size does not match context")

	// ErrColorSpaceMismatch is returned when layers in different colour
	// spaces are mixed, or a conversion targets the space a layer is
	// already in.
	ErrColorSpaceMismatch = errors.New("sdf: colour space mismatch")

	// ErrBindingMismatch is returned when a kernel is dispatched with
	// textures that do not match its declared units.
	ErrBindingMismatch = gpu.ErrBindingMismatch

	// ErrParamsMismatch is returned when a kernel receives parameters of
	// another kernel.
	ErrParamsMismatch = kernel.ErrParamsMismatch
)

// Domain errors. They report parameters outside an operation's domain.
var (
	// ErrInvalidDimensions is returned for a non-positive context size.
	ErrInvalidDimensions = gpu.ErrInvalidDimensions

	// ErrInvalidPeriod is returned for a non-positive repeat period or
	// grid cell.
	ErrInvalidPeriod = errors.New("sdf: period must be positive")

	// ErrDegenerateGradient is returned when a linear gradient's end
	// points coincide.
	ErrDegenerateGradient = errors.New("sdf: gradient end points coincide")

	// ErrInvalidBand is returned when a fill band has inner >= outer or
	// an outline has a non-positive width.
	ErrInvalidBand = errors.New("sdf: invalid shading band")

	// ErrInvalidPasses is returned for a negative blur pass count.
	ErrInvalidPasses = errors.New("sdf: blur passes must not be negative")

	// ErrEmptyGlyph is returned when a glyph or string has no strokes.
	ErrEmptyGlyph = errors.New("sdf: empty glyph")

	// ErrInvalidColor is returned when a hex colour cannot be parsed.
	ErrInvalidColor = errors.New("sdf: invalid colour")
)

// Configuration and resource errors.
var (
	// ErrMissingAsset is returned by NewContext when a kernel has no source.
	ErrMissingAsset = kernel.ErrMissingAsset

	// ErrAllocation is returned when the device cannot allocate a texture.
	ErrAllocation = gpu.ErrAllocation
)

// CompileError reports a kernel the device failed to compile, with the
// compiler diagnostic.
type CompileError = kernel.CompileError
