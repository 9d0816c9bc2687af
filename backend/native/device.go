//go:build !nogpu

// Package native implements the texture device on gogpu/wgpu.
//
// The device wraps a hal.Device and hal.Queue, tracks resources behind
// opaque IDs and uploads pixel data through queue.WriteTexture. Buffer
// mapping is not yet available in the HAL, so the device reports no
// mappable buffers and the cache stages uploads through pooled host
// memory instead.
package native

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/texload/gpu"
)

// Device errors.
var (
	// ErrNilHALDevice is returned when constructing a Device without a
	// HAL device or queue.
	ErrNilHALDevice = errors.New("native: HAL device is nil")

	// ErrUnknownTexture is returned when an ID does not resolve to a
	// live texture.
	ErrUnknownTexture = errors.New("native: unknown texture")

	// ErrUnsupported is returned by the buffer mapping operations, which
	// the HAL does not implement yet.
	ErrUnsupported = errors.New("native: operation not supported")
)

// texture pairs a HAL texture with the metadata WriteTexture needs.
type texture struct {
	tex    hal.Texture
	width  int
	height int
	format gpu.PixelFormat
}

// Device implements gpu.Device on gogpu/wgpu/hal.
//
// All methods must be called from the goroutine owning the GPU context,
// matching the gpu.Device contract. The internal mutex only guards the
// ID tables so that lookups stay safe if a caller violates that.
type Device struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue

	nextID   atomic.Uint64
	textures map[gpu.TextureID]*texture
}

// New creates a Device wrapping the given HAL device and queue.
func New(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilHALDevice
	}
	d := &Device{
		device:   device,
		queue:    queue,
		textures: make(map[gpu.TextureID]*texture),
	}
	d.nextID.Store(1)
	return d, nil
}

// Caps reports the capabilities of the HAL backend. Buffer mapping and
// mipmap generation are not available, so staging falls back to host
// memory and textures stay single-level.
func (d *Device) Caps() gpu.Caps {
	return gpu.Caps{}
}

// CreateTexture creates a 2D texture usable as a copy destination and
// sampled binding.
func (d *Device) CreateTexture(width, height int, format gpu.PixelFormat) (gpu.TextureID, error) {
	if width <= 0 || height <= 0 {
		return gpu.InvalidID, fmt.Errorf("native: texture dimensions must be positive, got %dx%d", width, height)
	}
	halFormat, err := convertFormat(format)
	if err != nil {
		return gpu.InvalidID, err
	}

	desc := &hal.TextureDescriptor{
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        halFormat,
		Usage:         types.TextureUsageCopySrc | types.TextureUsageCopyDst | types.TextureUsageStorageBinding,
	}
	tex, err := d.device.CreateTexture(desc)
	if err != nil {
		return gpu.InvalidID, fmt.Errorf("native: create texture: %w", err)
	}

	id := gpu.TextureID(d.nextID.Add(1) - 1)
	d.mu.Lock()
	d.textures[id] = &texture{tex: tex, width: width, height: height, format: format}
	d.mu.Unlock()
	return id, nil
}

// UploadTexture writes tightly packed pixel rows into a texture region.
func (d *Device) UploadTexture(id gpu.TextureID, x, y, width, height int, format gpu.PixelFormat, data []byte) {
	d.mu.Lock()
	t, ok := d.textures[id]
	d.mu.Unlock()
	if !ok || len(data) == 0 {
		return
	}

	dst := &hal.ImageCopyTexture{
		Texture:  t.tex,
		MipLevel: 0,
		Origin:   hal.Origin3D{X: uint32(x), Y: uint32(y), Z: 0},
		Aspect:   types.TextureAspectAll,
	}
	layout := &hal.ImageDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(format.RowBytes(width)),
		RowsPerImage: uint32(height),
	}
	size := &hal.Extent3D{
		Width:              uint32(width),
		Height:             uint32(height),
		DepthOrArrayLayers: 1,
	}
	d.queue.WriteTexture(dst, data, layout, size)
}

// UploadTextureFromBuffer is unreachable on this backend: Caps reports no
// mappable buffers, so the cache never stages through a device buffer.
func (d *Device) UploadTextureFromBuffer(id gpu.TextureID, x, y, width, height int, format gpu.PixelFormat, buf gpu.BufferID) {
	panic("native: buffer staging not supported")
}

// GenerateMipmaps is a no-op; Caps reports no mipmap support.
func (d *Device) GenerateMipmaps(id gpu.TextureID) {}

// DeleteTexture releases a texture. Unknown IDs are ignored.
func (d *Device) DeleteTexture(id gpu.TextureID) {
	d.mu.Lock()
	t, ok := d.textures[id]
	if ok {
		delete(d.textures, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyTexture(t.tex)
	}
}

// CreateBuffer fails: the HAL does not implement buffer mapping yet, and
// an unmappable staging buffer is useless to the cache.
func (d *Device) CreateBuffer(size int) (gpu.BufferID, error) {
	return gpu.InvalidID, ErrUnsupported
}

// MapBuffer fails with ErrUnsupported.
func (d *Device) MapBuffer(id gpu.BufferID) ([]byte, error) {
	return nil, ErrUnsupported
}

// MapBufferRange fails with ErrUnsupported.
func (d *Device) MapBufferRange(id gpu.BufferID, offset, size int) ([]byte, error) {
	return nil, ErrUnsupported
}

// UnmapBuffer fails with ErrUnsupported.
func (d *Device) UnmapBuffer(id gpu.BufferID) error {
	return ErrUnsupported
}

// DeleteBuffer is a no-op; CreateBuffer never succeeds on this backend.
func (d *Device) DeleteBuffer(id gpu.BufferID) {}

// TextureSize returns the dimensions of a live texture. Mainly useful
// for debugging overlays.
func (d *Device) TextureSize(id gpu.TextureID) (width, height int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	return t.width, t.height, nil
}

// Raw returns the HAL texture behind an ID, for callers that need to
// bind it directly. Returns nil for unknown IDs.
func (d *Device) Raw(id gpu.TextureID) hal.Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.textures[id]; ok {
		return t.tex
	}
	return nil
}

// convertFormat maps a cache pixel format to the HAL texture format.
func convertFormat(format gpu.PixelFormat) (types.TextureFormat, error) {
	switch format {
	case gpu.FormatRGBA8:
		return types.TextureFormatRGBA8Unorm, nil
	case gpu.FormatBGRA8:
		return types.TextureFormatBGRA8Unorm, nil
	case gpu.FormatGray8:
		return types.TextureFormatR8Unorm, nil
	default:
		return types.TextureFormatUndefined, fmt.Errorf("native: unsupported pixel format %v", format)
	}
}
