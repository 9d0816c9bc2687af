package texload

import (
	"fmt"

	"github.com/gogpu/texload/gpu"
)

// loadState tracks a managed texture through its load pipeline.
type loadState uint8

const (
	stateUnloaded loadState = iota
	stateOpening
	stateDecoding
	stateResident
)

// Texture is a handle to a cached GPU texture.
//
// Managed textures (created by [Manager.Acquire]) load lazily and may be
// evicted and reloaded at any time; their GPU handle and dimensions are
// therefore transient. Unmanaged textures (created by
// [Manager.NewUnmanaged], [Manager.LoadSync] or [LoadSync]-like paths) are
// uploaded once, never evicted, and owned by the caller.
//
// All methods must be called from the owning goroutine.
type Texture struct {
	m       *Manager
	key     string
	managed bool

	// Fields below are guarded by m.mu for managed textures and only
	// ever mutated on the owning goroutine.
	id            gpu.TextureID
	width, height int
	format        gpu.PixelFormat
	lastUsedFrame uint64
	state         loadState

	// failed latches permanently when no decoder factory matches the
	// key. The texture then keeps showing its placeholder and no load
	// job is ever submitted again.
	failed bool
}

// Key returns the resource key of a managed texture, or "" for an
// unmanaged one.
func (t *Texture) Key() string { return t.key }

// IsManaged returns true if this texture was created via Manager.Acquire.
func (t *Texture) IsManaged() bool { return t.managed }

// Use marks the texture as used this frame and returns the GPU handle to
// bind.
//
// For a managed texture that is not yet loaded, Use triggers the
// asynchronous load pipeline and returns the placeholder handle; the real
// texture appears in a later frame once its completion callbacks have been
// drained. Use never blocks.
func (t *Texture) Use() gpu.TextureID {
	if !t.managed {
		return t.id
	}

	m := t.m
	m.mu.Lock()
	defer m.mu.Unlock()

	t.lastUsedFrame = m.currentFrame
	if t.state == stateUnloaded && !t.failed && !m.closed {
		m.startLoad(t)
	}
	return t.id
}

// Handle returns the current GPU handle without stamping the last-used
// frame or triggering a load. InvalidID means the texture has never been
// used.
func (t *Texture) Handle() gpu.TextureID {
	if !t.managed {
		return t.id
	}
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	return t.id
}

// Resident reports whether the texture currently has its real GPU data
// uploaded. Unmanaged textures are resident until destroyed.
func (t *Texture) Resident() bool {
	if !t.managed {
		return t.id != gpu.InvalidID
	}
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	return t.state == stateResident
}

// Width returns the width of an unmanaged texture, or -1 for a managed
// texture, whose dimensions change asynchronously.
func (t *Texture) Width() int {
	if t.managed {
		return -1
	}
	return t.width
}

// Height returns the height of an unmanaged texture, or -1 for a managed
// texture.
func (t *Texture) Height() int {
	if t.managed {
		return -1
	}
	return t.height
}

// Format returns the upload format of an unmanaged texture, or
// FormatInvalid for a managed texture.
func (t *Texture) Format() gpu.PixelFormat {
	if t.managed {
		return gpu.FormatInvalid
	}
	return t.format
}

// Upload writes pixel data into a sub-region of an unmanaged texture.
// Managed textures are owned by the load pipeline and return
// ErrManagedTexture.
func (t *Texture) Upload(x, y, width, height int, pix []byte) error {
	if t.managed {
		return ErrManagedTexture
	}
	if t.id == gpu.InvalidID {
		return fmt.Errorf("texload: upload to destroyed texture")
	}
	if width <= 0 || height <= 0 || x < 0 || y < 0 {
		return ErrInvalidDimensions
	}
	if len(pix) != t.format.ImageBytes(width, height) {
		return fmt.Errorf("%w: got %d bytes, want %d",
			ErrBadPixelData, len(pix), t.format.ImageBytes(width, height))
	}
	t.m.dev.UploadTexture(t.id, x, y, width, height, t.format, pix)
	return nil
}

// Destroy releases the GPU texture of an unmanaged texture. Managed
// textures are released by the eviction sweep or Manager.Close and return
// ErrManagedTexture. Destroy is idempotent.
func (t *Texture) Destroy() error {
	if t.managed {
		return ErrManagedTexture
	}
	if t.id != gpu.InvalidID {
		t.m.dev.DeleteTexture(t.id)
		t.id = gpu.InvalidID
		t.width, t.height = 0, 0
	}
	return nil
}
