package gpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrMemoryBudgetExceeded is returned when an allocation would exceed the
// registry budget. It is always wrapped together with ErrAllocation.
var ErrMemoryBudgetExceeded = errors.New("gpu: memory budget exceeded")

// liveTextures counts textures alive across every registry in the process.
var liveTextures atomic.Int64

// LiveTextures returns the number of textures alive across all registries.
func LiveTextures() int64 { return liveTextures.Load() }

// Stats contains texture accounting for one registry.
type Stats struct {
	// Live is the number of textures currently allocated.
	Live int

	// Peak is the highest value Live has reached.
	Peak int

	// Allocations is the total number of textures ever allocated.
	Allocations uint64

	// UsedBytes is the storage held by live textures.
	UsedBytes uint64

	// BudgetBytes is the configured limit, 0 for unlimited.
	BudgetBytes uint64
}

// String returns a human-readable string of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("Textures[%d live, %d peak, %d allocated, %.1f MB]",
		s.Live, s.Peak, s.Allocations, float64(s.UsedBytes)/(1024*1024))
}

// RegistryConfig holds configuration for creating a Registry.
type RegistryConfig struct {
	// MaxMemoryMB caps the storage held by live textures.
	// Zero or negative means unlimited.
	MaxMemoryMB int
}

// Registry allocates textures from a device and tracks every live one.
// Each allocation increments the live count and each release decrements
// it, so after all wrappers are released Live is back to its baseline.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu sync.Mutex

	device Device

	textures    map[*Texture]struct{}
	usedBytes   uint64
	budgetBytes uint64
	peak        int
	allocs      uint64

	closed bool
}

// NewRegistry creates a registry allocating from device.
func NewRegistry(device Device, config RegistryConfig) *Registry {
	r := &Registry{
		device:   device,
		textures: make(map[*Texture]struct{}),
	}
	if config.MaxMemoryMB > 0 {
		//nolint:gosec // G115: positive by check above
		r.budgetBytes = uint64(config.MaxMemoryMB) * 1024 * 1024
	}
	return r
}

// Device returns the device the registry allocates from.
func (r *Registry) Device() Device { return r.device }

// Alloc allocates a texture. Device failures are returned wrapped in
// ErrAllocation and are not retried.
func (r *Registry) Alloc(desc TextureDescriptor) (*Texture, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}

	size := desc.SizeBytes()
	if r.budgetBytes > 0 && r.usedBytes+size > r.budgetBytes {
		return nil, fmt.Errorf("%w: %w: need %d bytes, %d of %d in use",
			ErrAllocation, ErrMemoryBudgetExceeded, size, r.usedBytes, r.budgetBytes)
	}

	tex, err := r.device.NewTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %dx%d: %w", ErrAllocation, desc.Format, desc.Width, desc.Height, err)
	}

	r.textures[tex] = struct{}{}
	r.usedBytes += size
	r.allocs++
	if len(r.textures) > r.peak {
		r.peak = len(r.textures)
	}
	liveTextures.Add(1)
	return tex, nil
}

// AllocField allocates an R32F texture.
func (r *Registry) AllocField(width, height int) (*Texture, error) {
	return r.Alloc(TextureDescriptor{Label: "field", Width: width, Height: height, Format: FormatR32F, Filter: FilterLinear})
}

// AllocLayer allocates an RGBA8 texture.
func (r *Registry) AllocLayer(width, height int) (*Texture, error) {
	return r.Alloc(TextureDescriptor{Label: "layer", Width: width, Height: height, Format: FormatRGBA8, Filter: FilterLinear})
}

// Release destroys a texture and returns its storage to the device.
// Releasing nil, an already released texture, or a texture this registry
// does not own is a no-op.
func (r *Registry) Release(tex *Texture) {
	if tex == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.textures[tex]; !ok {
		return
	}
	r.releaseLocked(tex)
}

// releaseLocked removes and destroys a texture. Caller must hold mu.
func (r *Registry) releaseLocked(tex *Texture) {
	delete(r.textures, tex)
	r.usedBytes -= tex.SizeBytes()
	liveTextures.Add(-1)
	if tex.MarkReleased() {
		r.device.DestroyTexture(tex)
	}
}

// Live returns the number of live textures.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.textures)
}

// Stats returns a snapshot of the registry accounting.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Live:        len(r.textures),
		Peak:        r.peak,
		Allocations: r.allocs,
		UsedBytes:   r.usedBytes,
		BudgetBytes: r.budgetBytes,
	}
}

// Close releases every live texture and returns how many there were.
// Alloc fails with ErrRegistryClosed afterwards.
func (r *Registry) Close() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0
	}
	leaked := len(r.textures)
	for tex := range r.textures {
		r.releaseLocked(tex)
	}
	r.closed = true
	return leaked
}
