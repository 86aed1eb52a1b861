//go:build !nogpu

package kernel

import (
	"errors"
	"testing"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/sdf/internal/gpu"
)

func TestEmbeddedAssetsCompile(t *testing.T) {
	for _, name := range Names() {
		t.Run(string(name), func(t *testing.T) {
			src, err := Source(name)
			if err != nil {
				t.Fatalf("Source(%q) error: %v", name, err)
			}
			spirv, err := naga.Compile(src)
			if err != nil {
				t.Fatalf("naga.Compile(%s): %v", name, err)
			}
			if len(spirv) == 0 || len(spirv)%4 != 0 {
				t.Errorf("SPIR-V for %s is %d bytes, want a non-empty word stream", name, len(spirv))
			}
		})
	}
}

type noopProvider struct{}

func (noopProvider) HalDevice() any { return hal.Device(&noop.Device{}) }
func (noopProvider) HalQueue() any  { return hal.Queue(&noop.Queue{}) }

func TestHALCompileError(t *testing.T) {
	dev, err := gpu.NewHALDeviceFromProvider(noopProvider{})
	if err != nil {
		t.Fatalf("NewHALDeviceFromProvider: %v", err)
	}
	defer dev.Destroy()

	r, err := NewRegistry(dev, 16, 16, map[Name]string{Circle: "fn main( {"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer r.Close()

	_, err = r.Kernel(Circle)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Kernel(circle) error = %v, want *CompileError", err)
	}
	if ce.Name != Circle {
		t.Errorf("CompileError.Name = %q, want %q", ce.Name, Circle)
	}
	if ce.Diagnostic == "" {
		t.Error("CompileError.Diagnostic is empty")
	}

	// Embedded sources go through the whole hal pipeline.
	if _, err := r.Kernel(Fill); err != nil {
		t.Errorf("Kernel(fill) error: %v", err)
	}
}
