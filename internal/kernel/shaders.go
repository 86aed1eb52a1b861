package kernel

import (
	"embed"
	"fmt"
)

// assets holds the WGSL compute shader of every table entry.
//
//go:embed shaders/*.wgsl
var assets embed.FS

// Source returns the embedded WGSL source of a kernel.
func Source(name Name) (string, error) {
	e, ok := byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKernel, name)
	}
	data, err := assets.ReadFile(e.Asset)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrMissingAsset, e.Asset, err)
	}
	return string(data), nil
}
