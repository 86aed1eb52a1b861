package gpu

import (
	"errors"
	"testing"
)

// memDevice is a minimal Device that only manages texture storage.
type memDevice struct {
	created   int
	destroyed int
	failNext  error
}

func (d *memDevice) Name() string { return "mem" }

func (d *memDevice) Compile(desc ProgramDescriptor) (*Program, error) {
	return NewProgram(desc, nil), nil
}

func (d *memDevice) DestroyProgram(*Program) {}

func (d *memDevice) NewTexture(desc TextureDescriptor) (*Texture, error) {
	if d.failNext != nil {
		err := d.failNext
		d.failNext = nil
		return nil, err
	}
	d.created++
	return NewTexture(desc, make([]byte, desc.SizeBytes())), nil
}

func (d *memDevice) DestroyTexture(*Texture) { d.destroyed++ }

func (d *memDevice) Dispatch(Dispatch) error { return nil }

func (d *memDevice) Read(t *Texture) ([]byte, error) {
	return append([]byte(nil), t.Handle().([]byte)...), nil
}

func (d *memDevice) Write(t *Texture, data []byte) error {
	copy(t.Handle().([]byte), data)
	return nil
}

func (d *memDevice) Destroy() {}

func TestFormat(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatR32F, "R32F"},
		{FormatRGBA8, "RGBA8"},
		{Format(9), "Format(9)"},
	}
	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if got := tt.format.BytesPerTexel(); got != 4 {
			t.Errorf("%s.BytesPerTexel() = %d, want 4", tt.want, got)
		}
	}
}

func TestGridFor(t *testing.T) {
	tests := []struct {
		w, h int
		want Grid
	}{
		{16, 16, Grid{1, 1, 1}},
		{17, 16, Grid{2, 1, 1}},
		{512, 512, Grid{32, 32, 1}},
		{1, 100, Grid{1, 7, 1}},
	}
	for _, tt := range tests {
		if got := GridFor(tt.w, tt.h); got != tt.want {
			t.Errorf("GridFor(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRegistryBalance(t *testing.T) {
	dev := &memDevice{}
	r := NewRegistry(dev, RegistryConfig{})
	base := LiveTextures()

	a, err := r.AllocField(8, 8)
	if err != nil {
		t.Fatalf("AllocField: %v", err)
	}
	b, err := r.AllocLayer(8, 8)
	if err != nil {
		t.Fatalf("AllocLayer: %v", err)
	}

	s := r.Stats()
	if s.Live != 2 || s.Peak != 2 || s.UsedBytes != 2*8*8*4 {
		t.Errorf("Stats() = %+v, want 2 live, 2 peak, 512 bytes", s)
	}
	if got := LiveTextures() - base; got != 2 {
		t.Errorf("LiveTextures() delta = %d, want 2", got)
	}

	r.Release(a)
	r.Release(a) // double release is a no-op
	if got := r.Live(); got != 1 {
		t.Errorf("Live() after release = %d, want 1", got)
	}
	if !a.IsReleased() {
		t.Error("released texture not marked released")
	}
	if dev.destroyed != 1 {
		t.Errorf("device destroyed %d textures, want 1", dev.destroyed)
	}

	r.Release(b)
	s = r.Stats()
	if s.Live != 0 || s.Peak != 2 || s.UsedBytes != 0 || s.Allocations != 2 {
		t.Errorf("Stats() = %+v, want 0 live, 2 peak, 0 bytes, 2 allocations", s)
	}
	if got := LiveTextures() - base; got != 0 {
		t.Errorf("LiveTextures() delta = %d, want 0", got)
	}
}

func TestRegistryAllocErrors(t *testing.T) {
	dev := &memDevice{}
	r := NewRegistry(dev, RegistryConfig{MaxMemoryMB: 1})

	if _, err := r.AllocField(0, 4); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("AllocField(0, 4) error = %v, want ErrInvalidDimensions", err)
	}

	dev.failNext = errors.New("out of device memory")
	_, err := r.AllocLayer(4, 4)
	if !errors.Is(err, ErrAllocation) {
		t.Errorf("device failure error = %v, want ErrAllocation", err)
	}

	_, err = r.AllocLayer(1024, 1024)
	if !errors.Is(err, ErrAllocation) || !errors.Is(err, ErrMemoryBudgetExceeded) {
		t.Errorf("over budget error = %v, want ErrAllocation and ErrMemoryBudgetExceeded", err)
	}
	if got := r.Live(); got != 0 {
		t.Errorf("Live() after failed allocations = %d, want 0", got)
	}
}

func TestRegistryClose(t *testing.T) {
	dev := &memDevice{}
	r := NewRegistry(dev, RegistryConfig{})
	for i := 0; i < 3; i++ {
		if _, err := r.AllocField(4, 4); err != nil {
			t.Fatalf("AllocField: %v", err)
		}
	}
	if got := r.Close(); got != 3 {
		t.Errorf("Close() = %d, want 3", got)
	}
	if got := r.Close(); got != 0 {
		t.Errorf("second Close() = %d, want 0", got)
	}
	if _, err := r.AllocField(4, 4); !errors.Is(err, ErrRegistryClosed) {
		t.Errorf("AllocField after Close error = %v, want ErrRegistryClosed", err)
	}
}

func TestCheckBindings(t *testing.T) {
	field := NewTexture(TextureDescriptor{Width: 2, Height: 2, Format: FormatR32F}, nil)
	layer := NewTexture(TextureDescriptor{Width: 2, Height: 2, Format: FormatRGBA8}, nil)
	released := NewTexture(TextureDescriptor{Width: 2, Height: 2, Format: FormatRGBA8}, nil)
	released.MarkReleased()

	units := []Format{FormatRGBA8, FormatRGBA8, FormatRGBA8}
	tests := []struct {
		name     string
		bindings []*Texture
		want     error
	}{
		{"ok", []*Texture{layer, layer, layer}, nil},
		{"field in layer unit", []*Texture{layer, field, layer}, ErrBindingMismatch},
		{"too few", []*Texture{layer, layer}, ErrBindingMismatch},
		{"nil", []*Texture{layer, nil, layer}, ErrBindingMismatch},
		{"released", []*Texture{layer, released, layer}, ErrTextureReleased},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBindings(units, tt.bindings)
			if tt.want == nil && err != nil {
				t.Errorf("CheckBindings() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("CheckBindings() = %v, want %v", err, tt.want)
			}
		})
	}
}
