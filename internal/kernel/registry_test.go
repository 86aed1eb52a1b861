package kernel

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/sdf/internal/gpu"
)

// countingDevice records compiles and dispatches without executing anything.
type countingDevice struct {
	compiles   map[string]int
	dispatches []gpu.Dispatch
	failOn     string
}

func newCountingDevice() *countingDevice {
	return &countingDevice{compiles: make(map[string]int)}
}

func (d *countingDevice) Name() string { return "counting" }

func (d *countingDevice) Compile(desc gpu.ProgramDescriptor) (*gpu.Program, error) {
	if desc.Label == d.failOn {
		return nil, fmt.Errorf("parse error: unexpected token at 3:7")
	}
	d.compiles[desc.Label]++
	return gpu.NewProgram(desc, nil), nil
}

func (d *countingDevice) DestroyProgram(*gpu.Program) {}

func (d *countingDevice) NewTexture(desc gpu.TextureDescriptor) (*gpu.Texture, error) {
	return gpu.NewTexture(desc, nil), nil
}

func (d *countingDevice) DestroyTexture(*gpu.Texture) {}

func (d *countingDevice) Dispatch(dp gpu.Dispatch) error {
	d.dispatches = append(d.dispatches, dp)
	return nil
}

func (d *countingDevice) Read(*gpu.Texture) ([]byte, error) { return nil, nil }
func (d *countingDevice) Write(*gpu.Texture, []byte) error  { return nil }
func (d *countingDevice) Destroy()                          {}

func texture(f gpu.Format, w, h int) *gpu.Texture {
	return gpu.NewTexture(gpu.TextureDescriptor{Width: w, Height: h, Format: f}, nil)
}

func TestEmbeddedAssets(t *testing.T) {
	for _, name := range Names() {
		t.Run(string(name), func(t *testing.T) {
			src, err := Source(name)
			if err != nil {
				t.Fatalf("Source(%q) error: %v", name, err)
			}
			if !strings.Contains(src, "@workgroup_size(16, 16, 1)") {
				t.Error("kernel does not declare a 16x16 workgroup")
			}
			if !strings.Contains(src, "fn main(") {
				t.Error("kernel has no main entry point")
			}
			e, _ := Lookup(name)
			want := len(e.Units) + 1
			if got := strings.Count(src, "@binding("); got != want {
				t.Errorf("kernel declares %d bindings, want %d", got, want)
			}
			writable := strings.Count(src, "var<storage, read_write>")
			if writable != e.Outputs {
				t.Errorf("kernel declares %d writable units, want %d", writable, e.Outputs)
			}
		})
	}
}

func TestSourceUnknown(t *testing.T) {
	if _, err := Source("sharpen"); !errors.Is(err, ErrUnknownKernel) {
		t.Errorf("Source(sharpen) error = %v, want ErrUnknownKernel", err)
	}
}

func TestUniformLayout(t *testing.T) {
	tests := []struct {
		params Params
		size   int
	}{
		{NoParams{Op: Union}, 0},
		{CircleParams{Center: Vec2{1, 2}, Radius: 3}, 16},
		{RectParams{}, 48},
		{LineParams{}, 16},
		{BezierParams{}, 32},
		{FillParams{}, 48},
		{OutlineParams{}, 48},
		{FillFromTextureParams{}, 32},
		{ClearParams{}, 16},
		{NoiseParams{Op: PerlinNoise}, 16},
		{MaskParams{Perceptual: true}, 16},
	}
	for _, tt := range tests {
		got := tt.params.Uniform()
		if len(got) != tt.size {
			t.Errorf("%T.Uniform() is %d bytes, want %d", tt.params, len(got), tt.size)
		}
	}

	u := CircleParams{Center: Vec2{1, 2}, Radius: 3}.Uniform()
	// 1.0, 2.0, 3.0 as little-endian float32
	want := []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0x40, 0, 0, 0x40, 0x40, 0, 0, 0, 0}
	if string(u) != string(want) {
		t.Errorf("CircleParams.Uniform() = %v, want %v", u, want)
	}
}

func TestRegistryCompilesOnce(t *testing.T) {
	dev := newCountingDevice()
	r, err := NewRegistry(dev, 32, 32, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer r.Close()

	dst := texture(gpu.FormatR32F, 32, 32)
	for i := 0; i < 5; i++ {
		if err := r.Dispatch(CircleParams{Radius: float32(i)}, dst); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}
	k1, _ := r.Kernel(Circle)
	k2, _ := r.Kernel(Circle)
	if k1 != k2 {
		t.Error("Kernel returned different instances for the same name")
	}
	if got := dev.compiles["circle"]; got != 1 {
		t.Errorf("circle compiled %d times, want 1", got)
	}
	if got := r.Compiles(); got != 1 {
		t.Errorf("Compiles() = %d, want 1", got)
	}
	if got := len(dev.dispatches); got != 5 {
		t.Errorf("device saw %d dispatches, want 5", got)
	}
	if got, want := dev.dispatches[0].Grid, (gpu.Grid{X: 2, Y: 2, Z: 1}); got != want {
		t.Errorf("dispatch grid = %v, want %v", got, want)
	}
}

func TestRegistryCompileError(t *testing.T) {
	dev := newCountingDevice()
	dev.failOn = "bezier"
	r, err := NewRegistry(dev, 8, 8, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	_, err = r.Kernel(Bezier)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Kernel(bezier) error = %v, want *CompileError", err)
	}
	if ce.Name != Bezier || !strings.Contains(ce.Diagnostic, "unexpected token") {
		t.Errorf("CompileError = %+v, want bezier with diagnostic", ce)
	}
}

func TestRegistryMissingAsset(t *testing.T) {
	_, err := NewRegistry(newCountingDevice(), 8, 8, map[Name]string{Overlay: ""})
	if !errors.Is(err, ErrMissingAsset) {
		t.Errorf("NewRegistry with empty overlay error = %v, want ErrMissingAsset", err)
	}
	_, err = NewRegistry(newCountingDevice(), 8, 8, map[Name]string{"emboss": "fn main() {}"})
	if !errors.Is(err, ErrUnknownKernel) {
		t.Errorf("NewRegistry with unknown override error = %v, want ErrUnknownKernel", err)
	}
}

func TestRegistryOverride(t *testing.T) {
	dev := newCountingDevice()
	r, err := NewRegistry(dev, 8, 8, map[Name]string{Invert: "// custom invert"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if got := r.sources[Invert]; got != "// custom invert" {
		t.Errorf("invert source = %q, want override", got)
	}
}

func TestRegistryDispatchValidation(t *testing.T) {
	dev := newCountingDevice()
	r, err := NewRegistry(dev, 16, 16, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	field := texture(gpu.FormatR32F, 16, 16)
	layer := texture(gpu.FormatRGBA8, 16, 16)
	small := texture(gpu.FormatRGBA8, 8, 8)

	tests := []struct {
		name     string
		params   Params
		bindings []*gpu.Texture
		want     error
	}{
		{"params of another kernel", NoParams{Op: Circle}, []*gpu.Texture{field}, ErrParamsMismatch},
		{"unknown kernel", NoParams{Op: "sharpen"}, []*gpu.Texture{layer}, ErrUnknownKernel},
		{"field bound as layer", NoParams{Op: Overlay}, []*gpu.Texture{layer, field, layer}, gpu.ErrBindingMismatch},
		{"layer bound as field", NoParams{Op: Union}, []*gpu.Texture{field, layer, field}, gpu.ErrBindingMismatch},
		{"missing operand", NoParams{Op: Multiply}, []*gpu.Texture{layer, layer}, gpu.ErrBindingMismatch},
		{"wrong size", NoParams{Op: Invert}, []*gpu.Texture{layer, small}, gpu.ErrBindingMismatch},
		{"nil params", nil, []*gpu.Texture{layer}, ErrParamsMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Dispatch(tt.params, tt.bindings...); !errors.Is(err, tt.want) {
				t.Errorf("Dispatch() error = %v, want %v", err, tt.want)
			}
		})
	}
	if len(dev.dispatches) != 0 {
		t.Errorf("device saw %d dispatches, want 0", len(dev.dispatches))
	}
}

func TestRegistryClosed(t *testing.T) {
	r, err := NewRegistry(newCountingDevice(), 8, 8, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	r.Close()
	if _, err := r.Kernel(Union); !errors.Is(err, ErrClosed) {
		t.Errorf("Kernel after Close error = %v, want ErrClosed", err)
	}
}
