package gpu

// Resource IDs
//
// These opaque IDs represent GPU resources. Each Device implementation
// maintains a mapping between IDs and actual backend objects. IDs are
// uint64 to accommodate various backend handle sizes.

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// BufferID is an opaque handle to a GPU staging buffer.
type BufferID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// Caps describes the capabilities of a Device. It is constructed once by
// the backend and passed to every component that needs it; there is no
// process-wide feature-detection state.
type Caps struct {
	// MappableBuffers indicates the device can create staging buffers
	// whose memory is directly mappable into the address space. When
	// false, staging falls back to pooled host memory.
	MappableBuffers bool

	// MapRange indicates MapBufferRange is supported, which lets the
	// driver invalidate the previous contents instead of synchronizing
	// with in-flight GPU work.
	MapRange bool

	// Mipmaps indicates the device can generate mipmap chains for
	// uploaded textures.
	Mipmaps bool
}

// Device is the graphics-API surface texload depends on.
//
// Implementations are not required to be safe for concurrent use; the cache
// calls every method from the owning goroutine only.
type Device interface {
	// Caps returns the device capabilities. The result must not change
	// over the lifetime of the device.
	Caps() Caps

	// CreateTexture allocates a width x height texture of the given
	// pixel format. The contents are undefined until uploaded.
	CreateTexture(width, height int, format PixelFormat) (TextureID, error)

	// UploadTexture writes tightly packed pixel rows into the given
	// sub-region of a texture.
	UploadTexture(id TextureID, x, y, width, height int, format PixelFormat, data []byte)

	// UploadTextureFromBuffer writes the contents of an unmapped staging
	// buffer into the given sub-region of a texture. The buffer must not
	// be mapped when this is called.
	UploadTextureFromBuffer(id TextureID, x, y, width, height int, format PixelFormat, buf BufferID)

	// GenerateMipmaps builds the mipmap chain for a texture. Only valid
	// when Caps().Mipmaps is true.
	GenerateMipmaps(id TextureID)

	// DeleteTexture releases a texture. Deleting InvalidID is a no-op.
	DeleteTexture(id TextureID)

	// CreateBuffer allocates a staging buffer of size bytes for use as a
	// texture upload source. Only valid when Caps().MappableBuffers is
	// true.
	CreateBuffer(size int) (BufferID, error)

	// MapBuffer maps the whole buffer for writing and returns the mapped
	// region. The previous contents become undefined.
	MapBuffer(id BufferID) ([]byte, error)

	// MapBufferRange is like MapBuffer but uses a range mapping with
	// invalidation, avoiding a sync with in-flight GPU reads. Only valid
	// when Caps().MapRange is true.
	MapBufferRange(id BufferID, offset, size int) ([]byte, error)

	// UnmapBuffer finalizes a mapped buffer so it becomes usable as an
	// upload source.
	UnmapBuffer(id BufferID) error

	// DeleteBuffer releases a staging buffer, unmapping it first if
	// necessary.
	DeleteBuffer(id BufferID)
}
