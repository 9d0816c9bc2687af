// Package staging provides write-only memory regions for assembling decoded
// pixel data before a texture upload.
//
// A Buffer is backed by one of two strategies, selected once at creation by
// a capability probe of the target device:
//
//   - a driver-mapped GPU buffer (fastest, avoids an extra copy on upload),
//     using a range mapping with invalidation when the device supports it
//   - pooled host memory, recycled through a lossy one-slot free list
//
// Both strategies implement the same contract: Map returns a region of
// exactly Size bytes with undefined content, Unmap finalizes the region so
// it becomes a valid upload source, Dispose releases the backing store.
// A disposed buffer rejects all further operations with ErrDisposed.
package staging

import (
	"errors"

	"github.com/gogpu/texload/gpu"
)

// Staging errors.
var (
	// ErrDisposed is returned when operating on a disposed buffer.
	ErrDisposed = errors.New("staging: buffer already disposed")

	// ErrInvalidSize is returned when creating a buffer of non-positive size.
	ErrInvalidSize = errors.New("staging: buffer size must be positive")
)

// Source describes where upload data for a buffer lives. Exactly one field
// is set: Buffer for GPU-backed staging, Bytes for host-backed staging.
type Source struct {
	// Buffer is the GPU staging buffer to copy from (InvalidID when
	// host-backed).
	Buffer gpu.BufferID

	// Bytes is the host memory holding the staged pixels (nil when
	// GPU-backed).
	Bytes []byte
}

// Buffer is a write-target for raw decoded pixel bytes.
//
// A Buffer is created on the owning goroutine. Between Map and Unmap the
// returned region may be filled from a worker goroutine; all other
// operations belong to the owner.
type Buffer interface {
	// Size returns the usable size of the buffer in bytes.
	Size() int

	// Map returns a writable region of exactly Size bytes. The content is
	// undefined. Calling Map while already mapped is idempotent and
	// returns the same region.
	Map() ([]byte, error)

	// Unmap finalizes the written region. For GPU-backed buffers this
	// hands the memory back to the driver so the buffer becomes a valid
	// upload source; for host-backed buffers it is a no-op.
	Unmap() error

	// Dispose releases the backing store. Any further use of the buffer
	// fails with ErrDisposed.
	Dispose() error

	// UploadSource returns where the staged bytes live for the upload
	// call. It panics if the buffer is still mapped: uploading from a
	// mapped buffer is a protocol violation, not a recoverable error.
	UploadSource() (Source, error)
}

// New creates a staging buffer of the given size for dev, choosing the
// fastest strategy the device capabilities allow.
func New(dev gpu.Device, size int) (Buffer, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if caps := dev.Caps(); caps.MappableBuffers {
		return newDeviceBuffer(dev, size, caps.MapRange)
	}
	return defaultHostPool.Acquire(size), nil
}
