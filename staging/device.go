package staging

import (
	"fmt"

	"github.com/gogpu/texload/gpu"
)

// deviceBuffer is a Buffer backed by a driver-mapped GPU buffer object.
// While mapped, no GPU operation may use the buffer; UploadSource enforces
// this with a panic rather than an error, since a violation means the
// staging protocol itself is broken.
type deviceBuffer struct {
	dev      gpu.Device
	id       gpu.BufferID
	size     int
	useRange bool

	region   []byte
	mapped   bool
	disposed bool
}

func newDeviceBuffer(dev gpu.Device, size int, useRange bool) (*deviceBuffer, error) {
	id, err := dev.CreateBuffer(size)
	if err != nil {
		return nil, fmt.Errorf("staging: create device buffer: %w", err)
	}
	return &deviceBuffer{
		dev:      dev,
		id:       id,
		size:     size,
		useRange: useRange,
	}, nil
}

func (b *deviceBuffer) Size() int { return b.size }

func (b *deviceBuffer) Map() ([]byte, error) {
	if b.disposed {
		return nil, ErrDisposed
	}
	if b.mapped {
		return b.region, nil
	}

	var (
		region []byte
		err    error
	)
	if b.useRange {
		// Range mapping invalidates the previous contents, so the
		// driver does not have to wait for in-flight reads.
		region, err = b.dev.MapBufferRange(b.id, 0, b.size)
	} else {
		region, err = b.dev.MapBuffer(b.id)
	}
	if err != nil {
		return nil, fmt.Errorf("staging: map device buffer: %w", err)
	}

	b.region = region[:b.size]
	b.mapped = true
	return b.region, nil
}

func (b *deviceBuffer) Unmap() error {
	if b.disposed {
		return ErrDisposed
	}
	if !b.mapped {
		return nil
	}
	if err := b.dev.UnmapBuffer(b.id); err != nil {
		return fmt.Errorf("staging: unmap device buffer: %w", err)
	}
	b.region = nil
	b.mapped = false
	return nil
}

func (b *deviceBuffer) Dispose() error {
	if b.disposed {
		return ErrDisposed
	}
	if b.mapped {
		if err := b.Unmap(); err != nil {
			return err
		}
	}
	b.dev.DeleteBuffer(b.id)
	b.id = gpu.InvalidID
	b.disposed = true
	return nil
}

func (b *deviceBuffer) UploadSource() (Source, error) {
	if b.disposed {
		return Source{}, ErrDisposed
	}
	if b.mapped {
		panic("staging: upload from mapped buffer")
	}
	return Source{Buffer: b.id}, nil
}
